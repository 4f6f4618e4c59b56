// Package snapshot writes and reads a portable, compressed copy of a catalog.
//
// A snapshot is a zstd stream holding a sequence of CRC-framed CBOR payloads:
// one header followed by one record per entry in catalog order.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/ssargent/uniclass/pkg/catalog"
	"github.com/ssargent/uniclass/pkg/codec"
)

// Version is the snapshot format written by Write.
const Version = 1

const magic = "uniclass-snapshot"

var (
	// ErrFormat is returned when a stream is not a snapshot or uses an
	// unsupported version.
	ErrFormat = errors.New("snapshot: unrecognized format")
	// ErrCount is returned when the number of records disagrees with the header.
	ErrCount = errors.New("snapshot: record count mismatch")
)

// Header describes a snapshot.
type Header struct {
	Version int
	Created time.Time
	Digest  string // Digest of the table files the catalog was loaded from
	Count   int
}

type wireHeader struct {
	Magic   string `cbor:"1,keyasint"`
	Version int    `cbor:"2,keyasint"`
	Created int64  `cbor:"3,keyasint"`
	Digest  string `cbor:"4,keyasint,omitempty"`
	Count   int    `cbor:"5,keyasint"`
}

// Write writes cat to w. Version and Count are filled in from the catalog; a
// zero Created time is replaced with the current time.
func Write(w io.Writer, cat *catalog.Catalog, h Header) (Header, error) {
	h.Version = Version
	h.Count = cat.Len()
	if h.Created.IsZero() {
		h.Created = time.Now()
	}
	h.Created = h.Created.UTC().Truncate(time.Second)

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return Header{}, fmt.Errorf("failed to create compressor: %w", err)
	}

	payload, err := codec.Marshal(wireHeader{
		Magic:   magic,
		Version: h.Version,
		Created: h.Created.Unix(),
		Digest:  h.Digest,
		Count:   h.Count,
	})
	if err != nil {
		zw.Close()
		return Header{}, fmt.Errorf("failed to encode header: %w", err)
	}
	if err := codec.WriteFrame(zw, payload); err != nil {
		zw.Close()
		return Header{}, fmt.Errorf("failed to write header: %w", err)
	}

	rc := codec.NewRecordCodec()
	cat.Ascend(func(e catalog.Entry) bool {
		err = rc.Write(zw, codec.Record{Code: e.Code, Title: e.Title, Source: e.Source})
		return err == nil
	})
	if err != nil {
		zw.Close()
		return Header{}, fmt.Errorf("failed to write record: %w", err)
	}

	if err := zw.Close(); err != nil {
		return Header{}, fmt.Errorf("failed to flush snapshot: %w", err)
	}
	return h, nil
}

// ReadHeader reads only the header of a snapshot.
func ReadHeader(r io.Reader) (Header, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer zr.Close()

	return readHeader(zr)
}

func readHeader(r io.Reader) (Header, error) {
	payload, err := codec.ReadFrame(r)
	if err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	var wire wireHeader
	if err := codec.Unmarshal(payload, &wire); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if wire.Magic != magic {
		return Header{}, ErrFormat
	}
	if wire.Version != Version {
		return Header{}, fmt.Errorf("%w: version %d", ErrFormat, wire.Version)
	}
	return Header{
		Version: wire.Version,
		Created: time.Unix(wire.Created, 0).UTC(),
		Digest:  wire.Digest,
		Count:   wire.Count,
	}, nil
}

// Read loads a snapshot into a catalog. Duplicate codes are resolved with the
// duplicate policy in policy.
func Read(r io.Reader, policy catalog.Policy) (*catalog.Catalog, Header, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, Header{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer zr.Close()

	h, err := readHeader(zr)
	if err != nil {
		return nil, Header{}, err
	}

	rc := codec.NewRecordCodec()
	b := catalog.NewBuilder(policy)
	read := 0
	for {
		record, err := rc.Read(zr)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, Header{}, fmt.Errorf("record %d: %w", read+1, err)
		}
		read++
		if err := b.Add(catalog.Entry{Code: record.Code, Title: record.Title, Source: record.Source}); err != nil {
			return nil, Header{}, err
		}
	}
	if read != h.Count {
		return nil, Header{}, fmt.Errorf("%w: header says %d, read %d", ErrCount, h.Count, read)
	}
	return b.Build(), h, nil
}
