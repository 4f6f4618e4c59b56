// Package codec provides record serialization and deserialization for the
// uniclass catalog.
//
// The codec package implements the framed binary format used for catalog
// records in the persistent store and in snapshot files.
//
// # Record Format
//
// Records are serialized as a small header followed by a CBOR payload:
//
//	[CRC32(4)][PayloadSize(4)][Payload]
//
// Fields:
//   - CRC32: 32-bit CRC checksum of the payload (little-endian)
//   - PayloadSize: 32-bit unsigned payload length in bytes (little-endian)
//   - Payload: a CBOR map with integer keys
//
// The payload uses Core Deterministic Encoding (RFC 8949 §4.2), so the same
// record always produces identical bytes. Codes are written in their canonical
// text form, for example "Ss_25_20_15_16".
//
//	1: code      (text)
//	2: title     (text)
//	3: source    (text, optional)
//	4: import_id (text, optional)
//
// # Usage
//
//	rc := codec.NewRecordCodec()
//
//	encoded, err := rc.Encode(codec.Record{Code: code, Title: "Heating systems"})
//	if err != nil {
//	    return err
//	}
//
//	record, err := rc.Decode(encoded)
//	if err != nil {
//	    return err // ErrChecksum on corruption
//	}
//
// Streams of records are written with WriteFrame and read back with ReadFrame.
//
// # Thread Safety
//
// RecordCodec instances are safe for concurrent use. Record values are
// immutable after creation and safe to share between goroutines.
package codec
