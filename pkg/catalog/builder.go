package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ssargent/uniclass/pkg/uniclass"
)

// ErrDuplicateCode is returned by Builder.Add under DuplicateError when a code
// is added twice.
var ErrDuplicateCode = errors.New("duplicate code")

// DuplicatePolicy decides what happens when the same code is added twice.
type DuplicatePolicy int

const (
	// DuplicateError rejects the second entry with ErrDuplicateCode.
	DuplicateError DuplicatePolicy = iota
	// DuplicateKeepFirst keeps the entry that was added first.
	DuplicateKeepFirst
	// DuplicateKeepLast replaces the earlier entry.
	DuplicateKeepLast
)

// MalformedPolicy decides what happens to CSV rows whose code does not parse.
type MalformedPolicy int

const (
	// MalformedAbort stops loading and returns the row error.
	MalformedAbort MalformedPolicy = iota
	// MalformedSkip logs the row, records it in the report and continues.
	MalformedSkip
)

var duplicateNames = map[string]DuplicatePolicy{
	"error":      DuplicateError,
	"keep-first": DuplicateKeepFirst,
	"keep-last":  DuplicateKeepLast,
}

var malformedNames = map[string]MalformedPolicy{
	"abort": MalformedAbort,
	"skip":  MalformedSkip,
}

// ParseDuplicatePolicy accepts "error", "keep-first" or "keep-last".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	p, ok := duplicateNames[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown duplicate policy %q", s)
	}
	return p, nil
}

// ParseMalformedPolicy accepts "abort" or "skip".
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	p, ok := malformedNames[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown malformed-row policy %q", s)
	}
	return p, nil
}

func (p DuplicatePolicy) String() string {
	for name, v := range duplicateNames {
		if v == p {
			return name
		}
	}
	return fmt.Sprintf("DuplicatePolicy(%d)", int(p))
}

func (p MalformedPolicy) String() string {
	for name, v := range malformedNames {
		if v == p {
			return name
		}
	}
	return fmt.Sprintf("MalformedPolicy(%d)", int(p))
}

// Policy controls how entries are accepted into a catalog.
type Policy struct {
	Duplicates DuplicatePolicy
	Malformed  MalformedPolicy
	Parse      uniclass.ParseOptions
}

// String renders the policy as "duplicates=<p> malformed=<p> trailing=<p>".
func (p Policy) String() string {
	trailing := "reject"
	if p.Parse.IgnoreTrailing {
		trailing = "ignore"
	}
	return fmt.Sprintf("duplicates=%s malformed=%s trailing=%s", p.Duplicates, p.Malformed, trailing)
}

// Duplicate records a code that was added more than once.
type Duplicate struct {
	Code     uniclass.Code `json:"code"`
	Kept     Entry         `json:"kept"`
	Rejected Entry         `json:"rejected"`
}

// Builder accumulates entries and freezes them into a Catalog. A Builder is not
// safe for concurrent use.
type Builder struct {
	policy     Policy
	catalog    *Catalog
	duplicates []Duplicate
}

// NewBuilder returns an empty builder.
func NewBuilder(policy Policy) *Builder {
	return &Builder{policy: policy, catalog: newCatalog()}
}

// Policy returns the policy the builder was created with.
func (b *Builder) Policy() Policy {
	return b.policy
}

// Add inserts an entry, applying the duplicate policy.
func (b *Builder) Add(e Entry) error {
	_, err := b.add(e)
	return err
}

// add reports whether e introduced a code the builder did not hold yet.
func (b *Builder) add(e Entry) (bool, error) {
	if b.catalog == nil {
		return false, errors.New("catalog: builder already built")
	}
	existing, found := b.catalog.index.Search(e.Code)
	if !found {
		b.catalog.index.Insert(e.Code, e)
		return true, nil
	}

	switch b.policy.Duplicates {
	case DuplicateKeepFirst:
		b.duplicates = append(b.duplicates, Duplicate{Code: e.Code, Kept: existing, Rejected: e})
		return false, nil
	case DuplicateKeepLast:
		b.duplicates = append(b.duplicates, Duplicate{Code: e.Code, Kept: e, Rejected: existing})
		b.catalog.index.Insert(e.Code, e)
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s (%q from %s, %q from %s)",
			ErrDuplicateCode, e.Code, existing.Title, existing.Source, e.Title, e.Source)
	}
}

// Duplicates returns the duplicates resolved so far.
func (b *Builder) Duplicates() []Duplicate {
	return b.duplicates
}

// Len returns the number of distinct codes added so far.
func (b *Builder) Len() int {
	if b.catalog == nil {
		return 0
	}
	return b.catalog.Len()
}

// Build returns the finished catalog. The builder cannot be used afterwards.
func (b *Builder) Build() *Catalog {
	c := b.catalog
	if c == nil {
		return newCatalog()
	}
	b.catalog = nil
	return c
}

// FromEntries builds a catalog from entries using the given duplicate policy.
func FromEntries(entries []Entry, policy Policy) (*Catalog, error) {
	b := NewBuilder(policy)
	for _, e := range entries {
		if err := b.Add(e); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
