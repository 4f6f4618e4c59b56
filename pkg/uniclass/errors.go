package uniclass

import (
	"errors"
	"fmt"
)

// Errors reported by construction and parsing. Match them with errors.Is.
var (
	ErrInvalidTable         = errors.New("invalid table")
	ErrInsufficientSegments = errors.New("insufficient segments")
	ErrOutOfRange           = errors.New("level out of range")
	ErrParseInt             = errors.New("invalid integer")
	ErrTrailingSegments     = errors.New("trailing segments")
	ErrNonHierarchical      = errors.New("level present below an absent level")
)

// ParseError describes why a textual code was rejected.
type ParseError struct {
	Input   string // The text that was parsed
	Segment int    // Zero-based index of the offending segment, -1 if not applicable
	Kind    error  // One of the Err* sentinels
	Err     error  // Underlying cause, e.g. *strconv.NumError; may be nil
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("uniclass: parse %q", e.Input)
	if e.Segment >= 0 {
		msg += fmt.Sprintf(" segment %d", e.Segment)
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a short stable name for the error kind, suitable for metrics
// labels and API responses. It returns "unknown" for errors from outside this package.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTable):
		return "InvalidTable"
	case errors.Is(err, ErrInsufficientSegments):
		return "InsufficientSegments"
	case errors.Is(err, ErrOutOfRange):
		return "OutOfRange"
	case errors.Is(err, ErrParseInt):
		return "ParseIntError"
	case errors.Is(err, ErrTrailingSegments):
		return "TrailingSegments"
	case errors.Is(err, ErrNonHierarchical):
		return "NonHierarchical"
	}
	return "unknown"
}
