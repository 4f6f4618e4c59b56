package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/ssargent/uniclass/pkg/uniclass"
)

// HeaderSize is the size of the frame header: CRC32(4) + PayloadSize(4).
const HeaderSize = 8

// MaxPayloadSize bounds a single frame. Catalog records are a few hundred bytes.
const MaxPayloadSize = 1 << 20

var (
	// ErrChecksum is returned when a frame fails CRC validation.
	ErrChecksum = errors.New("codec: CRC32 mismatch")
	// ErrTruncated is returned when a frame is shorter than its header claims.
	ErrTruncated = errors.New("codec: truncated frame")
)

// Record is a single catalog entry as stored on disk.
type Record struct {
	Code     uniclass.Code // Classification code
	Title    string        // Display title
	Source   string        // File the entry was loaded from
	ImportID string        // Import batch that wrote the entry
}

// wireRecord is the CBOR shape of Record.
type wireRecord struct {
	Code     string `cbor:"1,keyasint"`
	Title    string `cbor:"2,keyasint"`
	Source   string `cbor:"3,keyasint,omitempty"`
	ImportID string `cbor:"4,keyasint,omitempty"`
}

// RecordCodec handles serialization and deserialization of records
type RecordCodec struct{}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// Encode serializes a record into a CRC-protected frame
func (c *RecordCodec) Encode(r Record) ([]byte, error) {
	code, err := r.Code.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	payload, err := Marshal(wireRecord{
		Code:     string(code),
		Title:    r.Title,
		Source:   r.Source,
		ImportID: r.ImportID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", code, err)
	}
	return Frame(payload)
}

// Decode validates a frame and deserializes the record it carries
func (c *RecordCodec) Decode(data []byte) (*Record, error) {
	payload, err := Unframe(data)
	if err != nil {
		return nil, err
	}
	return decodePayload(payload)
}

// Read reads one framed record from r. It returns io.EOF at a clean end of stream.
func (c *RecordCodec) Read(r io.Reader) (*Record, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return decodePayload(payload)
}

// Write writes one framed record to w.
func (c *RecordCodec) Write(w io.Writer, r Record) error {
	frame, err := c.Encode(r)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

func decodePayload(payload []byte) (*Record, error) {
	var wire wireRecord
	if err := Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	code, err := uniclass.Parse(wire.Code)
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &Record{
		Code:     code,
		Title:    wire.Title,
		Source:   wire.Source,
		ImportID: wire.ImportID,
	}, nil
}

// Frame prefixes payload with its CRC32 and length
// Format: [CRC32(4)][PayloadSize(4)][Payload]
func Frame(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("codec: payload too large: %d bytes", len(payload))
	}
	buf := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// Unframe validates a single frame occupying all of data and returns its payload
func Unframe(data []byte) ([]byte, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: data too short for header", ErrTruncated)
	}
	sum := binary.LittleEndian.Uint32(data[0:4])
	size := binary.LittleEndian.Uint32(data[4:8])
	if size > MaxPayloadSize {
		return nil, fmt.Errorf("codec: payload size %d exceeds limit", size)
	}
	if uint32(len(data)-HeaderSize) != size {
		return nil, fmt.Errorf("%w: %d != %d", ErrTruncated, len(data)-HeaderSize, size)
	}
	payload := data[HeaderSize:]
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, fmt.Errorf("%w: %d != %d", ErrChecksum, sum, crc32.ChecksumIEEE(payload))
	}
	return payload, nil
}

// WriteFrame writes payload to w as one frame.
func WriteFrame(w io.Writer, payload []byte) error {
	frame, err := Frame(payload)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// ReadFrame reads one frame from r and returns its validated payload. It returns
// io.EOF if r is exhausted before any header byte is read.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: partial header", ErrTruncated)
		}
		return nil, err
	}
	sum := binary.LittleEndian.Uint32(header[0:4])
	size := binary.LittleEndian.Uint32(header[4:8])
	if size > MaxPayloadSize {
		return nil, fmt.Errorf("codec: payload size %d exceeds limit", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, fmt.Errorf("%w: %d != %d", ErrChecksum, sum, crc32.ChecksumIEEE(payload))
	}
	return payload, nil
}
