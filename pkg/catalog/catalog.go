// Package catalog holds the read-only mapping from Uniclass codes to titles.
//
// A Catalog is assembled once, usually from the reference CSV tables, and is
// immutable afterwards. All read methods are safe for concurrent use.
package catalog

import (
	"github.com/ssargent/uniclass/pkg/bptree"
	"github.com/ssargent/uniclass/pkg/uniclass"
)

const indexOrder = 32

// Entry is one titled code.
type Entry struct {
	Code   uniclass.Code `json:"code" yaml:"code"`
	Title  string        `json:"title" yaml:"title"`
	Source string        `json:"source,omitempty" yaml:"source,omitempty"`
}

// Catalog is an immutable, ordered set of entries.
type Catalog struct {
	index *bptree.BPlusTree[uniclass.Code, Entry]
}

func newCatalog() *Catalog {
	return &Catalog{index: bptree.NewBPlusTree[uniclass.Code, Entry](indexOrder, uniclass.Compare)}
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return c.index.Len()
}

// Lookup returns the entry for code.
func (c *Catalog) Lookup(code uniclass.Code) (Entry, bool) {
	return c.index.Search(code)
}

// Title returns the display title for code.
func (c *Catalog) Title(code uniclass.Code) (string, bool) {
	e, ok := c.index.Search(code)
	return e.Title, ok
}

// Ascend calls fn for every entry in code order until fn returns false.
func (c *Catalog) Ascend(fn func(Entry) bool) {
	c.index.Ascend(func(_ uniclass.Code, e Entry) bool {
		return fn(e)
	})
}

// Entries returns all entries in code order.
func (c *Catalog) Entries() []Entry {
	entries := make([]Entry, 0, c.Len())
	c.Ascend(func(e Entry) bool {
		entries = append(entries, e)
		return true
	})
	return entries
}

// Descendants returns every entry below code, excluding code itself, in code order.
func (c *Catalog) Descendants(code uniclass.Code) []Entry {
	var out []Entry
	c.scan(code, func(e Entry) {
		if e.Code != code {
			out = append(out, e)
		}
	})
	return out
}

// Children returns the entries exactly one level below code.
func (c *Catalog) Children(code uniclass.Code) []Entry {
	var out []Entry
	c.scan(code, func(e Entry) {
		if parent, ok := e.Code.Parent(); ok && parent == code {
			out = append(out, e)
		}
	})
	return out
}

// Table returns every entry in table, in code order.
func (c *Catalog) Table(table uniclass.Table) []Entry {
	var out []Entry
	start, err := uniclass.New(table, 0, 0, 0, 0)
	if err != nil {
		return nil
	}
	c.index.AscendFrom(start, func(k uniclass.Code, e Entry) bool {
		if k.Table() != table {
			return false
		}
		out = append(out, e)
		return true
	})
	return out
}

// Tables returns the tables that have at least one entry, with entry counts.
func (c *Catalog) Tables() map[uniclass.Table]int {
	counts := make(map[uniclass.Table]int)
	c.Ascend(func(e Entry) bool {
		counts[e.Code.Table()]++
		return true
	})
	return counts
}

// scan visits code and its descendants. Descendants of a hierarchical code
// occupy one contiguous run in code order; for sparse codes the whole group is
// walked.
func (c *Catalog) scan(code uniclass.Code, fn func(Entry)) {
	contiguous := code.Hierarchical()
	c.index.AscendFrom(lowerBound(code), func(k uniclass.Code, e Entry) bool {
		if k.Table() != code.Table() || k.Group() != code.Group() {
			return false
		}
		if code.Contains(k) {
			fn(e)
			return true
		}
		return !contiguous
	})
}

// lowerBound returns the smallest code that code can contain: the present
// levels of code with every absent level set to zero.
func lowerBound(code uniclass.Code) uniclass.Code {
	levels := make([]int, 3)
	for i, fn := range []func() (uint8, bool){code.SubGroup, code.Section, code.Object} {
		if v, ok := fn(); ok {
			levels[i] = int(v)
		}
	}
	lb, err := uniclass.NewSparse(code.Table(), int(code.Group()), levels...)
	if err != nil {
		return code
	}
	return lb
}
