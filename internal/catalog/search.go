package catalog

import (
	"context"
	"errors"
	"log"
	"strings"

	"jsa/api/internal/jsa"
)

// Indexed is the facade that ranks searches through the index when it is
// healthy and falls back to the backing catalog's substring match otherwise.
type Indexed struct {
	Catalog
	index Index
}

// NewIndexed wraps backing. index may be nil if Meilisearch is not configured.
func NewIndexed(backing Catalog, index Index) *Indexed {
	return &Indexed{Catalog: backing, index: index}
}

// Ping reports the backing catalog's health when it has one.
func (s *Indexed) Ping(ctx context.Context) error {
	if p, ok := s.Catalog.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Search matches nothing for a blank query, whichever backend serves it.
func (s *Indexed) Search(ctx context.Context, query string, limit int) ([]jsa.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []jsa.Document{}, nil
	}
	if s.index != nil && s.index.Healthy() {
		docs, err := s.searchIndex(ctx, query, limit)
		if err == nil {
			return docs, nil
		}
		log.Printf("catalog: meilisearch error, falling back to substring search: %v", err)
	}
	return s.Catalog.Search(ctx, query, limit)
}

func (s *Indexed) searchIndex(ctx context.Context, query string, limit int) ([]jsa.Document, error) {
	ids, err := s.index.SearchIDs(query, limit)
	if err != nil {
		return nil, err
	}
	docs := make([]jsa.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.Catalog.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Stale index entry.
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Reindex pushes every template of the backing catalog into the index.
func (s *Indexed) Reindex(ctx context.Context) {
	if s.index == nil || !s.index.Healthy() {
		return
	}
	docs, err := s.Catalog.List(ctx)
	if err != nil {
		log.Printf("catalog: reindex load failed: %v", err)
		return
	}
	records := make([]TemplateRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, RecordOf(doc))
	}
	if err := s.index.IndexTemplates(records); err != nil {
		log.Printf("catalog: reindex templates: %v", err)
	}
}
