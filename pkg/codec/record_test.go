package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ssargent/uniclass/pkg/uniclass"
)

func TestRecordCodec_EncodeDecodeRoundTrip(t *testing.T) {
	codec := NewRecordCodec()

	testCases := []struct {
		name   string
		record Record
	}{
		{
			name:   "group only",
			record: Record{Code: uniclass.MustParse("Ss_25"), Title: "Wall and barrier systems"},
		},
		{
			name: "full code with metadata",
			record: Record{
				Code:     uniclass.MustParse("Ss_25_20_15_16"),
				Title:    "Glazed curtain wall systems",
				Source:   "Uniclass2015_Ss_v1_30.csv",
				ImportID: "2Hc8NYUnMVGiw9vcmxIbFhIjJ2V",
			},
		},
		{
			name:   "empty title",
			record: Record{Code: uniclass.MustParse("Pr_20")},
		},
		{
			name:   "unicode title",
			record: Record{Code: uniclass.MustParse("Zz_127_127_127_127"), Title: "Façade — “quoted” 🏗"},
		},
		{
			name:   "long title",
			record: Record{Code: uniclass.MustParse("Ma_10"), Title: strings.Repeat("t", 10240)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := codec.Encode(tc.record)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			decoded, err := codec.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if *decoded != tc.record {
				t.Errorf("Record mismatch: got %+v, want %+v", *decoded, tc.record)
			}
		})
	}
}

func TestRecordCodec_Deterministic(t *testing.T) {
	codec := NewRecordCodec()
	record := Record{Code: uniclass.MustParse("EF_20_10"), Title: "Foundations", Source: "EF.csv"}

	first, err := codec.Encode(record)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	second, err := codec.Encode(record)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Encoding the same record twice produced different bytes")
	}
}

func TestRecordCodec_CRCValidation(t *testing.T) {
	codec := NewRecordCodec()
	record := Record{Code: uniclass.MustParse("Ss_25_20"), Title: "Framed wall systems"}

	t.Run("corrupted CRC fails", func(t *testing.T) {
		encoded, err := codec.Encode(record)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		encoded[0] ^= 0xFF

		if _, err := codec.Decode(encoded); !errors.Is(err, ErrChecksum) {
			t.Errorf("Expected ErrChecksum, got %v", err)
		}
	})

	t.Run("corrupted payload fails", func(t *testing.T) {
		encoded, err := codec.Encode(record)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		encoded[len(encoded)-1] ^= 0xFF

		if _, err := codec.Decode(encoded); !errors.Is(err, ErrChecksum) {
			t.Errorf("Expected ErrChecksum, got %v", err)
		}
	})
}

func TestRecordCodec_EncodeRejectsSparseCode(t *testing.T) {
	sparse, err := uniclass.NewSparse(uniclass.Systems, 25, uniclass.Absent, 15)
	if err != nil {
		t.Fatalf("NewSparse failed: %v", err)
	}

	codec := NewRecordCodec()
	if _, err := codec.Encode(Record{Code: sparse, Title: "Gap"}); !errors.Is(err, uniclass.ErrNonHierarchical) {
		t.Errorf("Encode error = %v, want ErrNonHierarchical", err)
	}
}

func TestRecordCodec_MalformedData(t *testing.T) {
	codec := NewRecordCodec()

	validPayloadWithBadCode := func() []byte {
		payload, err := Marshal(wireRecord{Code: "Ss_999", Title: "bad"})
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		frame, err := Frame(payload)
		if err != nil {
			t.Fatalf("Frame failed: %v", err)
		}
		return frame
	}

	testCases := []struct {
		name string
		data []byte
	}{
		{
			name: "empty data",
			data: []byte{},
		},
		{
			name: "too short for header",
			data: []byte{0x01, 0x02, 0x03},
		},
		{
			name: "declared size larger than data",
			data: func() []byte {
				buf := make([]byte, 12)
				binary.LittleEndian.PutUint32(buf[4:8], 100)
				return buf
			}(),
		},
		{
			name: "declared size above limit",
			data: func() []byte {
				buf := make([]byte, HeaderSize)
				binary.LittleEndian.PutUint32(buf[4:8], MaxPayloadSize+1)
				return buf
			}(),
		},
		{
			name: "payload is not CBOR",
			data: func() []byte {
				frame, _ := Frame([]byte{0xFF, 0xFF})
				return frame
			}(),
		},
		{
			name: "code out of range",
			data: validPayloadWithBadCode(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := codec.Decode(tc.data); err == nil {
				t.Errorf("Expected decode to fail for malformed data, but it succeeded (%s)", tc.name)
			}
		})
	}
}

func TestRecordCodec_Stream(t *testing.T) {
	codec := NewRecordCodec()
	records := []Record{
		{Code: uniclass.MustParse("Ss_25"), Title: "Wall and barrier systems"},
		{Code: uniclass.MustParse("Ss_25_20"), Title: "Framed wall systems"},
		{Code: uniclass.MustParse("Ss_25_20_15"), Title: "Curtain wall systems"},
	}

	var buf bytes.Buffer
	for _, r := range records {
		if err := codec.Write(&buf, r); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	for i, want := range records {
		got, err := codec.Read(&buf)
		if err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		if *got != want {
			t.Errorf("Record %d mismatch: got %+v, want %+v", i, *got, want)
		}
	}

	if _, err := codec.Read(&buf); err != io.EOF {
		t.Errorf("Expected io.EOF at end of stream, got %v", err)
	}
}

func TestReadFrame_Truncated(t *testing.T) {
	frame, err := Frame([]byte("payload"))
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}

	for _, cut := range []int{3, HeaderSize, len(frame) - 1} {
		_, err := ReadFrame(bytes.NewReader(frame[:cut]))
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("cut at %d: expected ErrTruncated, got %v", cut, err)
		}
	}
}
