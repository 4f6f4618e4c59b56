package uniclass

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"strconv"
)

const (
	// MaxLevel is the largest value a level can hold.
	MaxLevel = 127

	// Absent marks an optional level as not present when passed to New.
	Absent = -1

	absentByte byte = 0x80
	maxDepth        = 4
)

// Code is a packed Uniclass code: a table plus group, sub-group, section and
// object levels. The zero value is "Ac_0_0_0_0".
type Code struct {
	table  Table
	levels uint32 // [group, sub_group, section, object], big-endian, 0x80 = absent
}

// New assembles a code from its table, mandatory group and up to three optional
// levels (sub-group, section, object). Pass Absent, or omit trailing arguments,
// for levels that are not present. Levels must be hierarchical: a level may only
// be present if every shallower level is present.
func New(table Table, group int, levels ...int) (Code, error) {
	c, err := build(table, group, levels)
	if err != nil {
		return Code{}, err
	}
	if !c.Hierarchical() {
		return Code{}, fmt.Errorf("uniclass: %w: %v", ErrNonHierarchical, levels)
	}
	return c, nil
}

// NewSparse is like New but allows optional levels to be present below an absent
// level, for example a section without a sub-group. Sparse codes cannot be
// recovered from their text form, see Hierarchical.
func NewSparse(table Table, group int, levels ...int) (Code, error) {
	return build(table, group, levels)
}

// MustNew is like New but panics on error. It is intended for generated tables
// and tests.
func MustNew(table Table, group int, levels ...int) Code {
	c, err := New(table, group, levels...)
	if err != nil {
		panic(err)
	}
	return c
}

func build(table Table, group int, levels []int) (Code, error) {
	if !table.Valid() {
		return Code{}, fmt.Errorf("uniclass: %w: %d", ErrInvalidTable, uint8(table))
	}
	if len(levels) > maxDepth-1 {
		return Code{}, fmt.Errorf("uniclass: %w: %d optional levels", ErrTrailingSegments, len(levels))
	}
	if group < 0 || group > MaxLevel {
		return Code{}, fmt.Errorf("uniclass: %w: group %d", ErrOutOfRange, group)
	}

	packed := [maxDepth]byte{byte(group), absentByte, absentByte, absentByte}
	for i, v := range levels {
		if v == Absent {
			continue
		}
		if v < 0 || v > MaxLevel {
			return Code{}, fmt.Errorf("uniclass: %w: %s %d", ErrOutOfRange, levelNames[i+1], v)
		}
		packed[i+1] = byte(v)
	}
	return Code{table: table, levels: binary.BigEndian.Uint32(packed[:])}, nil
}

var levelNames = [maxDepth]string{"group", "sub_group", "section", "object"}

// Table returns the classification table.
func (c Code) Table() Table {
	return c.table
}

// Group returns the mandatory group level.
func (c Code) Group() uint8 {
	return c.byteAt(0)
}

// SubGroup returns the sub-group level and whether it is present.
func (c Code) SubGroup() (uint8, bool) {
	return c.level(1)
}

// Section returns the section level and whether it is present.
func (c Code) Section() (uint8, bool) {
	return c.level(2)
}

// Object returns the object level and whether it is present.
func (c Code) Object() (uint8, bool) {
	return c.level(3)
}

// Packed returns the raw packed levels.
func (c Code) Packed() uint32 {
	return c.levels
}

func (c Code) byteAt(i int) byte {
	return byte(c.levels >> (8 * (maxDepth - 1 - i)))
}

func (c Code) level(i int) (uint8, bool) {
	b := c.byteAt(i)
	if b&absentByte != 0 {
		return 0, false
	}
	return b, true
}

// Depth returns the number of present levels, counting the group.
func (c Code) Depth() int {
	depth := 1
	for i := 1; i < maxDepth; i++ {
		if _, ok := c.level(i); ok {
			depth++
		}
	}
	return depth
}

// Hierarchical reports whether no level is present below an absent one. Every
// code produced by New or Parse is hierarchical.
func (c Code) Hierarchical() bool {
	seenAbsent := false
	for i := 1; i < maxDepth; i++ {
		_, ok := c.level(i)
		if ok && seenAbsent {
			return false
		}
		if !ok {
			seenAbsent = true
		}
	}
	return true
}

// Parent returns the code with its deepest present level removed. A code with
// only a group has no parent.
func (c Code) Parent() (Code, bool) {
	for i := maxDepth - 1; i >= 1; i-- {
		if _, ok := c.level(i); ok {
			shift := 8 * (maxDepth - 1 - i)
			levels := c.levels&^(0xFF<<shift) | uint32(absentByte)<<shift
			return Code{table: c.table, levels: levels}, true
		}
	}
	return Code{}, false
}

// Contains reports whether other is c itself or one of its descendants: same
// table, and every level present in c has the same value in other.
func (c Code) Contains(other Code) bool {
	if c.table != other.table {
		return false
	}
	for i := 0; i < maxDepth; i++ {
		b := c.byteAt(i)
		if b&absentByte != 0 {
			continue
		}
		if other.byteAt(i) != b {
			return false
		}
	}
	return true
}

// Compare orders codes by table, then by packed levels. It returns -1, 0 or +1.
func Compare(a, b Code) int {
	if c := cmp.Compare(a.table, b.table); c != 0 {
		return c
	}
	return cmp.Compare(a.levels, b.levels)
}

// Less reports whether c sorts before other.
func (c Code) Less(other Code) bool {
	return Compare(c, other) < 0
}

// String returns the canonical text form, emitting only the present levels.
func (c Code) String() string {
	return string(c.appendText(make([]byte, 0, 16)))
}

func (c Code) appendText(buf []byte) []byte {
	buf = append(buf, c.table.String()...)
	buf = append(buf, Delimiter)
	buf = strconv.AppendUint(buf, uint64(c.Group()), 10)
	for i := 1; i < maxDepth; i++ {
		if v, ok := c.level(i); ok {
			buf = append(buf, Delimiter)
			buf = strconv.AppendUint(buf, uint64(v), 10)
		}
	}
	return buf
}
