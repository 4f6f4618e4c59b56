// Package index provides a word index over catalog titles.
package index

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ssargent/uniclass/pkg/bptree"
	"github.com/ssargent/uniclass/pkg/catalog"
	"github.com/ssargent/uniclass/pkg/uniclass"
)

const indexOrder = 64

// wordKey is the composite index key: a title word followed by the code of
// the entry whose title holds it, so the same word may appear once per code.
type wordKey struct {
	word string
	code uniclass.Code
}

func compareKeys(a, b wordKey) int {
	if c := strings.Compare(a.word, b.word); c != 0 {
		return c
	}
	return uniclass.Compare(a.code, b.code)
}

// TitleIndex finds catalog entries by the words of their titles. It is
// immutable once built and safe for concurrent use.
type TitleIndex struct {
	tree *bptree.BPlusTree[wordKey, catalog.Entry]
	size int
}

// Build indexes every entry of cat.
func Build(cat *catalog.Catalog) *TitleIndex {
	idx := &TitleIndex{tree: bptree.NewBPlusTree[wordKey, catalog.Entry](indexOrder, compareKeys)}
	cat.Ascend(func(e catalog.Entry) bool {
		for _, word := range Tokenize(e.Title) {
			idx.tree.Insert(wordKey{word: word, code: e.Code}, e)
		}
		idx.size++
		return true
	})
	return idx
}

// Len returns the number of indexed entries.
func (idx *TitleIndex) Len() int {
	return idx.size
}

// Words returns the number of distinct (word, code) pairs.
func (idx *TitleIndex) Words() int {
	return idx.tree.Len()
}

// Tokenize lower-cases s and splits it into runs of letters and digits.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Search returns the entries whose titles contain, for every term of query, a
// word starting with that term. Results are in code order; limit <= 0 means
// no limit. An empty query matches nothing.
func (idx *TitleIndex) Search(query string, limit int) []catalog.Entry {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	// The longest term is usually the most selective.
	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })

	seen := make(map[uniclass.Code]bool)
	var matches []catalog.Entry
	idx.tree.AscendFrom(wordKey{word: terms[0]}, func(k wordKey, e catalog.Entry) bool {
		if !strings.HasPrefix(k.word, terms[0]) {
			return false
		}
		if !seen[k.code] && matchesAll(Tokenize(e.Title), terms[1:]) {
			matches = append(matches, e)
		}
		seen[k.code] = true
		return true
	})

	sort.Slice(matches, func(i, j int) bool { return matches[i].Code.Less(matches[j].Code) })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func matchesAll(words, terms []string) bool {
	for _, term := range terms {
		found := false
		for _, w := range words {
			if strings.HasPrefix(w, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
