package uniclass

import (
	"encoding/binary"
	"errors"
	"strconv"
	"strings"
)

// Delimiter separates the segments of the text form.
const Delimiter = '_'

// ParseOptions adjusts how Parse treats input that is not in canonical form.
type ParseOptions struct {
	// IgnoreTrailing drops segments after the object level instead of
	// rejecting the input with ErrTrailingSegments.
	IgnoreTrailing bool
}

// Parse decodes the canonical text form "<table>_<group>[_<sub>[_<section>[_<object>]]]".
// Segments beyond the object level are rejected.
func Parse(s string) (Code, error) {
	return ParseWith(s, ParseOptions{})
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Code {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseWith decodes s using the given options.
func ParseWith(s string, opts ParseOptions) (Code, error) {
	segments := strings.Split(s, string(Delimiter))

	table, ok := tablesByMnemonic[segments[0]]
	if !ok {
		return Code{}, &ParseError{Input: s, Segment: 0, Kind: ErrInvalidTable}
	}
	if len(segments) < 2 {
		return Code{}, &ParseError{Input: s, Segment: -1, Kind: ErrInsufficientSegments}
	}
	levels := segments[1:]
	if len(levels) > maxDepth {
		if !opts.IgnoreTrailing {
			return Code{}, &ParseError{Input: s, Segment: maxDepth + 1, Kind: ErrTrailingSegments}
		}
		levels = levels[:maxDepth]
	}

	packed := [maxDepth]byte{absentByte, absentByte, absentByte, absentByte}
	for i, token := range levels {
		v, err := parseLevel(token)
		if err != nil {
			err.Input = s
			err.Segment = i + 1
			return Code{}, err
		}
		packed[i] = v
	}
	return Code{table: table, levels: binary.BigEndian.Uint32(packed[:])}, nil
}

func parseLevel(token string) (byte, *ParseError) {
	v, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &ParseError{Kind: ErrOutOfRange, Err: err}
		}
		return 0, &ParseError{Kind: ErrParseInt, Err: err}
	}
	if v > MaxLevel {
		return 0, &ParseError{Kind: ErrOutOfRange}
	}
	return byte(v), nil
}
