// Package storage persists the uniclass catalog in a Pebble database.
//
// Entries are keyed by the binary form of their code, so the key order matches
// code order and every descendant of a code shares its key prefix.
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/uniclass/pkg/catalog"
	"github.com/ssargent/uniclass/pkg/codec"
	"github.com/ssargent/uniclass/pkg/uniclass"
)

const (
	codePrefix byte = 'c'
	metaPrefix byte = 'm'
)

var lastImportKey = []byte{metaPrefix, 'i'}

// ErrNotFound is returned when a code or import record does not exist.
var ErrNotFound = errors.New("storage: not found")

// ImportInfo describes where an imported catalog came from.
type ImportInfo struct {
	Files  []string
	Digest string
}

// ImportMeta records a completed import.
type ImportMeta struct {
	ID      ksuid.KSUID
	Files   []string
	Digest  string
	Entries int
}

// Time returns when the import happened, as embedded in its KSUID.
func (m ImportMeta) Time() time.Time {
	return m.ID.Time()
}

type wireMeta struct {
	ID      string   `cbor:"1,keyasint"`
	Files   []string `cbor:"2,keyasint,omitempty"`
	Digest  string   `cbor:"3,keyasint,omitempty"`
	Entries int      `cbor:"4,keyasint"`
}

// Store is a persistent catalog.
type Store struct {
	db    *pebble.DB
	codec *codec.RecordCodec
}

// Open opens or creates a store in dir.
func Open(dir string) (*Store, error) {
	return OpenWithOptions(dir, &pebble.Options{})
}

// OpenWithOptions opens a store with explicit Pebble options, for example an
// in-memory filesystem in tests.
func OpenWithOptions(dir string, opts *pebble.Options) (*Store, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return &Store{db: db, codec: codec.NewRecordCodec()}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func codeKey(code uniclass.Code) []byte {
	key, _ := code.AppendBinary([]byte{codePrefix})
	return key
}

// prefixBounds returns the key range holding code and all of its descendants.
// Only the leading present levels take part in the prefix.
func prefixBounds(code uniclass.Code) (lower, upper []byte) {
	full := codeKey(code)
	n := 3 // prefix byte, table, group
	for _, fn := range []func() (uint8, bool){code.SubGroup, code.Section, code.Object} {
		if _, ok := fn(); !ok {
			break
		}
		n++
	}
	lower = append([]byte{}, full[:n]...)
	upper = append([]byte{}, lower...)
	upper[n-1]++
	return lower, upper
}

// ReplaceCatalog atomically replaces the stored catalog with cat and records a
// new import.
func (s *Store) ReplaceCatalog(cat *catalog.Catalog, info ImportInfo) (ImportMeta, error) {
	meta := ImportMeta{
		ID:      ksuid.New(),
		Files:   info.Files,
		Digest:  info.Digest,
		Entries: cat.Len(),
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange([]byte{codePrefix}, []byte{codePrefix + 1}, nil); err != nil {
		return ImportMeta{}, fmt.Errorf("failed to clear catalog: %w", err)
	}

	var writeErr error
	cat.Ascend(func(e catalog.Entry) bool {
		value, err := s.codec.Encode(codec.Record{
			Code:     e.Code,
			Title:    e.Title,
			Source:   e.Source,
			ImportID: meta.ID.String(),
		})
		if err != nil {
			writeErr = err
			return false
		}
		if err := batch.Set(codeKey(e.Code), value, nil); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return ImportMeta{}, fmt.Errorf("failed to write catalog: %w", writeErr)
	}

	metaValue, err := codec.Marshal(wireMeta{
		ID:      meta.ID.String(),
		Files:   meta.Files,
		Digest:  meta.Digest,
		Entries: meta.Entries,
	})
	if err != nil {
		return ImportMeta{}, fmt.Errorf("failed to encode import metadata: %w", err)
	}
	if err := batch.Set(lastImportKey, metaValue, nil); err != nil {
		return ImportMeta{}, fmt.Errorf("failed to write import metadata: %w", err)
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return ImportMeta{}, fmt.Errorf("failed to commit import: %w", err)
	}
	return meta, nil
}

// LastImport returns metadata for the most recent import.
func (s *Store) LastImport() (ImportMeta, error) {
	data, closer, err := s.db.Get(lastImportKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return ImportMeta{}, ErrNotFound
	}
	if err != nil {
		return ImportMeta{}, err
	}
	defer closer.Close()

	var wire wireMeta
	if err := codec.Unmarshal(data, &wire); err != nil {
		return ImportMeta{}, fmt.Errorf("failed to decode import metadata: %w", err)
	}
	id, err := ksuid.Parse(wire.ID)
	if err != nil {
		return ImportMeta{}, fmt.Errorf("invalid import id: %w", err)
	}
	return ImportMeta{ID: id, Files: wire.Files, Digest: wire.Digest, Entries: wire.Entries}, nil
}

// Get returns the stored record for code.
func (s *Store) Get(code uniclass.Code) (*codec.Record, error) {
	data, closer, err := s.db.Get(codeKey(code))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return s.codec.Decode(data)
}

// Scan calls fn for code and every stored descendant, in code order. code
// must be hierarchical.
func (s *Store) Scan(code uniclass.Code, fn func(*codec.Record) error) error {
	if !code.Hierarchical() {
		return fmt.Errorf("storage: scan requires a hierarchical code: %w", uniclass.ErrNonHierarchical)
	}
	lower, upper := prefixBounds(code)
	return s.scan(lower, upper, fn)
}

// ScanAll calls fn for every stored record, in code order.
func (s *Store) ScanAll(fn func(*codec.Record) error) error {
	return s.scan([]byte{codePrefix}, []byte{codePrefix + 1}, fn)
}

func (s *Store) scan(lower, upper []byte, fn func(*codec.Record) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		record, err := s.codec.Decode(iter.Value())
		if err != nil {
			return fmt.Errorf("corrupt record at key %x: %w", iter.Key(), err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return iter.Error()
}

// LoadCatalog reads the whole stored catalog into memory.
func (s *Store) LoadCatalog() (*catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Policy{Duplicates: catalog.DuplicateError})
	err := s.ScanAll(func(r *codec.Record) error {
		return b.Add(catalog.Entry{Code: r.Code, Title: r.Title, Source: r.Source})
	})
	if err != nil {
		return nil, err
	}
	return b.Build(), nil
}
