package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/devcircle/internal/domain"
	"github.com/google/uuid"
)

// Collection stores documents of one entity type under "<name>:<id>".
// Unique fields are indexed under "<name>#<field>:<value>" and kept in the same transaction as the document.
type Collection[T any, P interface {
	*T
	domain.Entity
}] struct {
	db     *badger.DB
	name   string
	unique map[string]func(P) string
	now    func() time.Time
}

func NewCollection[T any, P interface {
	*T
	domain.Entity
}](db *badger.DB, name string) *Collection[T, P] {
	return &Collection[T, P]{
		db:     db,
		name:   name,
		unique: map[string]func(P) string{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Unique declares field as unique. Empty values are not indexed.
func (c *Collection[T, P]) Unique(field string, value func(P) string) *Collection[T, P] {
	c.unique[field] = value
	return c
}

func (c *Collection[T, P]) Name() string { return c.name }

func (c *Collection[T, P]) docKey(id string) []byte {
	return []byte(c.name + ":" + id)
}

func (c *Collection[T, P]) prefix() []byte {
	return []byte(c.name + ":")
}

func (c *Collection[T, P]) indexKey(field, value string) []byte {
	return []byte(c.name + "#" + field + ":" + value)
}

// Insert assigns a fresh id and timestamps to doc and stores it.
func (c *Collection[T, P]) Insert(doc P) error {
	m := doc.Base()
	m.ID = uuid.NewString()
	m.CreatedAt = c.now()
	m.UpdatedAt = m.CreatedAt
	return c.db.Update(func(txn *badger.Txn) error {
		if err := c.claim(txn, doc, nil); err != nil {
			return err
		}
		return c.put(txn, doc)
	})
}

// Get loads the document with id.
func (c *Collection[T, P]) Get(id string) (P, error) {
	var out P
	err := c.db.View(func(txn *badger.Txn) error {
		doc, err := c.load(txn, id)
		out = doc
		return err
	})
	return out, err
}

// Replace overwrites the stored document with doc, keeping its id and creation time.
func (c *Collection[T, P]) Replace(doc P) error {
	m := doc.Base()
	return c.db.Update(func(txn *badger.Txn) error {
		old, err := c.load(txn, m.ID)
		if err != nil {
			return err
		}
		m.CreatedAt = old.Base().CreatedAt
		m.UpdatedAt = c.now()
		if err := c.claim(txn, doc, (*T)(old)); err != nil {
			return err
		}
		return c.put(txn, doc)
	})
}

// Delete removes the document with id and its index entries.
func (c *Collection[T, P]) Delete(id string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		old, err := c.load(txn, id)
		if err != nil {
			return err
		}
		for field, value := range c.unique {
			if v := value(old); v != "" {
				if err := txn.Delete(c.indexKey(field, v)); err != nil {
					return err
				}
			}
		}
		return txn.Delete(c.docKey(id))
	})
}

// FindBy looks a document up through a unique field.
func (c *Collection[T, P]) FindBy(field, value string) (P, error) {
	var out P
	if _, ok := c.unique[field]; !ok {
		return out, fmt.Errorf("%s: field %q is not indexed", c.name, field)
	}
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.indexKey(field, value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		doc, err := c.load(txn, string(id))
		out = doc
		return err
	})
	return out, err
}

// List returns every document accepted by keep (nil keeps all), newest first.
func (c *Collection[T, P]) List(keep func(P) bool) ([]P, error) {
	var out []P
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = c.prefix()
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			doc := P(new(T))
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, doc)
			}); err != nil {
				return fmt.Errorf("%s: decode %s: %w", c.name, it.Item().Key(), err)
			}
			if keep == nil || keep(doc) {
				out = append(out, doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b P) int {
		if d := b.Base().CreatedAt.Compare(a.Base().CreatedAt); d != 0 {
			return d
		}
		return strings.Compare(a.Base().ID, b.Base().ID)
	})
	return out, nil
}

func (c *Collection[T, P]) load(txn *badger.Txn, id string) (P, error) {
	var none P
	item, err := txn.Get(c.docKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return none, domain.ErrNotFound
	}
	if err != nil {
		return none, err
	}
	doc := P(new(T))
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, doc)
	}); err != nil {
		return none, fmt.Errorf("%s: decode %s: %w", c.name, id, err)
	}
	return doc, nil
}

func (c *Collection[T, P]) put(txn *badger.Txn, doc P) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: encode: %w", c.name, err)
	}
	return txn.Set(c.docKey(doc.Base().ID), data)
}

// claim points every unique index of doc at its id, releasing the entries old held.
func (c *Collection[T, P]) claim(txn *badger.Txn, doc P, old *T) error {
	id := doc.Base().ID
	for field, value := range c.unique {
		v := value(doc)
		var prev string
		if old != nil {
			prev = value(P(old))
		}
		if v == prev {
			continue
		}
		if v != "" {
			key := c.indexKey(field, v)
			item, err := txn.Get(key)
			switch {
			case err == nil:
				owner, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if string(owner) != id {
					return fmt.Errorf("%s %s %q: %w", c.name, field, v, domain.ErrConflict)
				}
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}
			if err := txn.Set(key, []byte(id)); err != nil {
				return err
			}
		}
		if prev != "" {
			if err := txn.Delete(c.indexKey(field, prev)); err != nil {
				return err
			}
		}
	}
	return nil
}
