// Package search keeps a Bluge full-text index over the directory listings.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blugelabs/bluge"
	"github.com/dkeye/devcircle/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	fieldKind     = "kind"
	fieldRef      = "ref"
	fieldCategory = "category"
	fieldTitle    = "title"
	fieldBody     = "body"
)

type Index struct {
	w *bluge.Writer
}

// Open opens the index at path. An empty path keeps it in memory.
func Open(path string) (*Index, error) {
	cfg := bluge.InMemoryOnlyConfig()
	if path != "" {
		cfg = bluge.DefaultConfig(path)
	}
	w, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("open bluge at %q: %w", path, err)
	}
	return &Index{w: w}, nil
}

func (ix *Index) Close() error { return ix.w.Close() }

func docID(kind, id string) string { return kind + "/" + id }

// Put indexes (or re-indexes) l under kind.
func (ix *Index) Put(kind string, l domain.Listing) error {
	id := l.Base().ID
	title, body := l.ListingText()
	doc := bluge.NewDocument(docID(kind, id)).
		AddField(bluge.NewKeywordField(fieldKind, kind)).
		AddField(bluge.NewKeywordField(fieldRef, id).StoreValue()).
		AddField(bluge.NewKeywordField(fieldCategory, l.ListingCategory())).
		AddField(bluge.NewTextField(fieldTitle, title)).
		AddField(bluge.NewTextField(fieldBody, body))
	return ix.w.Update(doc.ID(), doc)
}

func (ix *Index) Remove(kind, id string) error {
	return ix.w.Delete(bluge.Identifier(docID(kind, id)))
}

// Rebuild indexes every listing of kind. Used at startup so an in-memory index matches the store.
func Rebuild[L domain.Listing](ix *Index, kind string, items []L) error {
	for _, l := range items {
		if err := ix.Put(kind, l); err != nil {
			return err
		}
	}
	log.Info().Str("module", "search").Str("kind", kind).Int("docs", len(items)).Msg("index rebuilt")
	return nil
}

// Search returns the ids of every kind listing whose title or body match text.
func (ix *Index) Search(ctx context.Context, kind, text string) (map[string]struct{}, error) {
	text = strings.TrimSpace(text)
	hits := map[string]struct{}{}
	if text == "" {
		return hits, nil
	}
	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(kind).SetField(fieldKind)).
		AddShould(bluge.NewMatchQuery(text).SetField(fieldTitle)).
		AddShould(bluge.NewMatchQuery(text).SetField(fieldBody)).
		SetMinShould(1)

	r, err := ix.w.Reader()
	if err != nil {
		return nil, fmt.Errorf("search reader: %w", err)
	}
	defer func() { _ = r.Close() }()

	it, err := r.Search(ctx, bluge.NewAllMatches(q))
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}
	match, err := it.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == fieldRef {
				hits[string(value)] = struct{}{}
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = it.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}
	return hits, nil
}
