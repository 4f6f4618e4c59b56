package uniclass

import (
	"encoding/binary"
	"fmt"
)

// BinarySize is the length of the binary form produced by MarshalBinary.
const BinarySize = 5

// Format returns the canonical text form of c. It is the inverse of Parse.
func Format(c Code) string {
	return c.String()
}

// AppendText implements encoding.TextAppender. Sparse codes have no text form
// that parses back to them and are rejected with ErrNonHierarchical.
func (c Code) AppendText(buf []byte) ([]byte, error) {
	if !c.table.Valid() {
		return nil, fmt.Errorf("uniclass: %w: %d", ErrInvalidTable, uint8(c.table))
	}
	if !c.Hierarchical() {
		return nil, fmt.Errorf("uniclass: %w: %s", ErrNonHierarchical, c)
	}
	return c.appendText(buf), nil
}

// MarshalText implements encoding.TextMarshaler. JSON, YAML and CBOR encoders
// use it to write codes as their canonical string.
func (c Code) MarshalText() ([]byte, error) {
	return c.AppendText(make([]byte, 0, 16))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Code) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// AppendBinary implements encoding.BinaryAppender. The binary form is the table
// followed by the packed levels in big-endian order, so byte-wise comparison
// matches Compare.
func (c Code) AppendBinary(buf []byte) ([]byte, error) {
	buf = append(buf, byte(c.table))
	return binary.BigEndian.AppendUint32(buf, c.levels), nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c Code) MarshalBinary() ([]byte, error) {
	return c.AppendBinary(make([]byte, 0, BinarySize))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Sparse codes are
// accepted; every level byte must be a value in 0-127 or the absent marker,
// and the group must be present.
func (c *Code) UnmarshalBinary(data []byte) error {
	if len(data) != BinarySize {
		return fmt.Errorf("uniclass: binary code must be %d bytes, got %d", BinarySize, len(data))
	}
	table := Table(data[0])
	if !table.Valid() {
		return fmt.Errorf("uniclass: %w: %d", ErrInvalidTable, data[0])
	}
	if data[1]&absentByte != 0 {
		return fmt.Errorf("uniclass: %w: group byte %#x", ErrOutOfRange, data[1])
	}
	for i, b := range data[2:] {
		if b&absentByte != 0 && b != absentByte {
			return fmt.Errorf("uniclass: %w: %s byte %#x", ErrOutOfRange, levelNames[i+1], b)
		}
	}
	*c = Code{table: table, levels: binary.BigEndian.Uint32(data[1:])}
	return nil
}
