// Package storage persists a finished scan so reports can be
// re-rendered without re-crawling.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/codetrellis/depscan/internal/callgraph"
	"github.com/codetrellis/depscan/internal/depgraph"
)

// Key prefixes for the persisted scan.
const (
	prefixEdge  = "e:" // graph edges, sequence-keyed
	prefixEntry = "m:" // call registry entries, name-keyed
	keyMeta     = "meta"
	keyOrder    = "order" // registry name order
	keyDefs     = "defs"  // structure definitions
)

// Meta summarizes one persisted scan.
type Meta struct {
	Version   string    `json:"version"`
	Roots     []string  `json:"roots"`
	ScannedAt time.Time `json:"scanned_at"`
	Edges     int       `json:"edges"`
	Methods   int       `json:"methods"`
}

// DefaultDir returns the store location under a scanned root.
func DefaultDir(root string) string {
	return filepath.Join(root, ".depscan", "badger")
}

// Store is a badger-backed scan archive.
type Store struct {
	db *badger.DB
}

// Open opens or creates the store at dir. Reporting opens read-only.
func Open(dir string, readOnly bool) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithNumCompactors(2).
		WithLoggingLevel(badger.ERROR)
	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening scan store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Save replaces the store contents with one scan.
func (s *Store) Save(g *depgraph.Graph, r *callgraph.Registry, meta Meta) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("clearing previous scan: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	edges := g.Edges()
	for i, e := range edges {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshaling edge: %w", err)
		}
		if err := wb.Set(edgeKey(i), data); err != nil {
			return fmt.Errorf("writing edge: %w", err)
		}
	}

	defsData, err := json.Marshal(g.Definitions())
	if err != nil {
		return fmt.Errorf("marshaling definitions: %w", err)
	}
	if err := wb.Set([]byte(keyDefs), defsData); err != nil {
		return fmt.Errorf("writing definitions: %w", err)
	}

	names := r.Names()
	for _, name := range names {
		entry, ok := r.Find(name)
		if !ok {
			continue
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		if err := wb.Set([]byte(prefixEntry+name), data); err != nil {
			return fmt.Errorf("writing entry: %w", err)
		}
	}

	orderData, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("marshaling name order: %w", err)
	}
	if err := wb.Set([]byte(keyOrder), orderData); err != nil {
		return fmt.Errorf("writing name order: %w", err)
	}

	meta.Edges = len(edges)
	meta.Methods = len(names)
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling meta: %w", err)
	}
	if err := wb.Set([]byte(keyMeta), metaData); err != nil {
		return fmt.Errorf("writing meta: %w", err)
	}

	return wb.Flush()
}

// LoadGraph reads the persisted edges and structure definitions back
// into a graph.
func (s *Store) LoadGraph(logger *slog.Logger) (*depgraph.Graph, error) {
	var edges []depgraph.Edge
	var defs []depgraph.StructureDef

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEdge)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e depgraph.Edge
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("decoding edge %s: %w", it.Item().Key(), err)
			}
			edges = append(edges, e)
		}

		item, err := txn.Get([]byte(keyDefs))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &defs)
		})
	})
	if err != nil {
		return nil, err
	}
	return depgraph.FromEdges(edges, defs, logger), nil
}

// LoadRegistry reads the persisted call entries back into a registry,
// restoring first-registration order.
func (s *Store) LoadRegistry(logger *slog.Logger) (*callgraph.Registry, error) {
	var entries []*callgraph.Entry

	err := s.db.View(func(txn *badger.Txn) error {
		var names []string
		item, err := txn.Get([]byte(keyOrder))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &names)
		}); err != nil {
			return fmt.Errorf("decoding name order: %w", err)
		}

		for _, name := range names {
			item, err := txn.Get([]byte(prefixEntry + name))
			if err != nil {
				return fmt.Errorf("reading entry %s: %w", name, err)
			}
			var e callgraph.Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("decoding entry %s: %w", name, err)
			}
			entries = append(entries, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return callgraph.FromEntries(entries, logger), nil
}

// LoadMeta reads the scan summary.
func (s *Store) LoadMeta() (Meta, error) {
	var meta Meta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyMeta))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	return meta, err
}

// edgeKey builds a fixed-width sequence key so lexicographic iteration
// preserves ingestion order.
func edgeKey(i int) []byte {
	return []byte(fmt.Sprintf("%s%012d", prefixEdge, i))
}
