package catalog

import (
	"context"

	"jsa/api/internal/jsa"
)

// Static serves the seeds from memory.
type Static struct {
	templates []jsa.Document
	locations []jsa.Location
	projects  []string
}

func NewStatic(seeds Seeds) *Static {
	return &Static{
		templates: cloneAll(seeds.Templates),
		locations: append([]jsa.Location(nil), seeds.Locations...),
		projects:  append([]string(nil), seeds.Projects...),
	}
}

func (s *Static) List(context.Context) ([]jsa.Document, error) {
	return cloneAll(s.templates), nil
}

func (s *Static) Search(_ context.Context, query string, limit int) ([]jsa.Document, error) {
	limit = limitOf(limit)
	out := []jsa.Document{}
	for _, doc := range s.templates {
		if len(out) == limit {
			break
		}
		if Matches(doc, query) {
			out = append(out, jsa.Clone(doc))
		}
	}
	return out, nil
}

func (s *Static) Get(_ context.Context, id string) (jsa.Document, error) {
	for _, doc := range s.templates {
		if doc.ID == id {
			return jsa.Clone(doc), nil
		}
	}
	return jsa.Document{}, ErrNotFound
}

func (s *Static) Fallback(context.Context) (*jsa.Document, error) {
	if len(s.templates) == 0 {
		return nil, nil
	}
	doc := jsa.Clone(s.templates[0])
	return &doc, nil
}

func (s *Static) Locations(context.Context) ([]jsa.Location, error) {
	return append([]jsa.Location{}, s.locations...), nil
}

func (s *Static) Projects(_ context.Context, query string) ([]string, error) {
	return FilterProjects(s.projects, query), nil
}
