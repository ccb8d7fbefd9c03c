package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"jsa/api/internal/jsa"
	"jsa/api/internal/store"
)

// Postgres serves templates from the jsa_templates table.
type Postgres struct {
	templates *store.TemplateStore
}

func NewPostgres(templates *store.TemplateStore) *Postgres {
	return &Postgres{templates: templates}
}

// Bootstrap seeds an empty catalog and directory.
func (p *Postgres) Bootstrap(ctx context.Context, seeds Seeds) error {
	count, err := p.templates.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		log.Printf("catalog: seeding %d templates", len(seeds.Templates))
		if err := p.templates.Seed(ctx, seeds.Templates); err != nil {
			return fmt.Errorf("seed templates: %w", err)
		}
	}
	locations, err := p.templates.Locations(ctx)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		if err := p.templates.SeedDirectory(ctx, seeds.Locations, seeds.Projects); err != nil {
			return fmt.Errorf("seed directory: %w", err)
		}
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]jsa.Document, error) {
	return p.templates.List(ctx)
}

func (p *Postgres) Search(ctx context.Context, query string, limit int) ([]jsa.Document, error) {
	if strings.TrimSpace(query) == "" {
		return []jsa.Document{}, nil
	}
	docs, err := p.templates.Search(ctx, query, limitOf(limit))
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []jsa.Document{}
	}
	return docs, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (jsa.Document, error) {
	doc, err := p.templates.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return jsa.Document{}, ErrNotFound
	}
	return doc, err
}

func (p *Postgres) Fallback(ctx context.Context) (*jsa.Document, error) {
	doc, err := p.templates.First(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (p *Postgres) Locations(ctx context.Context) ([]jsa.Location, error) {
	locations, err := p.templates.Locations(ctx)
	if err != nil {
		return nil, err
	}
	if locations == nil {
		locations = []jsa.Location{}
	}
	return locations, nil
}

func (p *Postgres) Projects(ctx context.Context, query string) ([]string, error) {
	projects, err := p.templates.Projects(ctx)
	if err != nil {
		return nil, err
	}
	return FilterProjects(projects, query), nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.templates.Ping(ctx)
}
