// Package uniclass encodes and decodes Uniclass classification codes.
//
// A Uniclass code names one of the fixed classification tables followed by up to
// four numeric levels: group, sub-group, section and object. The group is
// mandatory, the remaining levels are optional and hierarchical.
//
// # Text Format
//
// The canonical text form joins the table mnemonic and the present levels with
// an underscore:
//
//	<table>_<group>[_<sub_group>[_<section>[_<object>]]]
//
// For example "Ss_25_20_15_16" or "Pr_20_93". Table mnemonics are matched
// exactly and are case-sensitive.
//
// # Packed Representation
//
// A Code is a small value type. The four levels are packed into a single
// uint32, one byte per level, most significant byte first:
//
//	[group][sub_group][section][object]
//
// An absent optional level is stored as 0x80. Present levels therefore hold
// values in the range 0-127; anything larger is rejected with ErrOutOfRange,
// never truncated. A Code occupies 8 bytes in memory.
//
// # Ordering
//
// Codes order first by table and then by the packed value. Because the absent
// marker is larger than any present value, "Ss_25" sorts after "Ss_25_127".
// Codes are comparable with == and can be used directly as map keys.
//
// # Usage
//
//	code, err := uniclass.Parse("Ss_25_20_15_16")
//	if err != nil {
//	    return err
//	}
//	sub, ok := code.SubGroup() // 20, true
//	fmt.Println(code)          // Ss_25_20_15_16
//
// # Error Handling
//
// Parse failures are reported as *ParseError values. Use errors.Is with one of
// ErrInvalidTable, ErrInsufficientSegments, ErrOutOfRange, ErrParseInt or
// ErrTrailingSegments to find out why an input was rejected.
//
// # Thread Safety
//
// All functions in this package are pure. Code and Table values are immutable
// and safe to share between goroutines.
package uniclass
