// Package catalog serves the read-only JSA templates, the location directory
// and the project list.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"jsa/api/internal/jsa"
)

var ErrNotFound = errors.New("template not found")

const DefaultLimit = 20

//go:embed seeds.json
var seedsJSON []byte

// Catalog looks up templates. Every returned document is a private deep copy.
type Catalog interface {
	List(ctx context.Context) ([]jsa.Document, error)
	Search(ctx context.Context, query string, limit int) ([]jsa.Document, error)
	Get(ctx context.Context, id string) (jsa.Document, error)
	// Fallback is the template used when generation fails; nil when the
	// catalog is empty.
	Fallback(ctx context.Context) (*jsa.Document, error)
}

// Directory supplies the location list injected into new documents and the
// project names offered while typing.
type Directory interface {
	Locations(ctx context.Context) ([]jsa.Location, error)
	Projects(ctx context.Context, query string) ([]string, error)
}

// Seeds is the bundled starting content.
type Seeds struct {
	Locations []jsa.Location `json:"locations"`
	Projects  []string       `json:"projects"`
	Templates []jsa.Document `json:"templates"`
}

// LoadSeeds parses the embedded seed file. Templates without locations get
// the directory, and stale risk scores are recomputed.
func LoadSeeds() (Seeds, error) {
	return ParseSeeds(seedsJSON)
}

func ParseSeeds(data []byte) (Seeds, error) {
	var seeds Seeds
	if err := json.Unmarshal(data, &seeds); err != nil {
		return Seeds{}, fmt.Errorf("parse seeds: %w", err)
	}
	for i, doc := range seeds.Templates {
		if len(doc.Locations) == 0 {
			doc.Locations = append([]jsa.Location(nil), seeds.Locations...)
		}
		fixed, err := Recompute(doc)
		if err != nil {
			return Seeds{}, fmt.Errorf("seed %s: %w", doc.ID, err)
		}
		if err := fixed.Validate(); err != nil {
			return Seeds{}, fmt.Errorf("seed %s: %w", doc.ID, err)
		}
		seeds.Templates[i] = fixed.Normalized()
	}
	return seeds, nil
}

// Recompute rebuilds both risk scores from their factors.
func Recompute(doc jsa.Document) (jsa.Document, error) {
	initial, err := jsa.NewRiskScore(doc.InitialRisk.Likelihood, doc.InitialRisk.Severity)
	if err != nil {
		return doc, fmt.Errorf("initial risk: %w", err)
	}
	residual, err := jsa.NewRiskScore(doc.ResidualRisk.Likelihood, doc.ResidualRisk.Severity)
	if err != nil {
		return doc, fmt.Errorf("residual risk: %w", err)
	}
	doc.InitialRisk = initial
	doc.ResidualRisk = residual
	return doc, nil
}

// Matches reports a case-insensitive substring hit on any of the three titles.
func Matches(doc jsa.Document, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	for _, lang := range jsa.Languages {
		if strings.Contains(strings.ToLower(doc.Title.In(lang)), q) {
			return true
		}
	}
	return false
}

// FilterProjects keeps the names containing query, case-insensitively. An
// empty query keeps everything.
func FilterProjects(projects []string, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p), q) {
			out = append(out, p)
		}
	}
	return out
}

func cloneAll(docs []jsa.Document) []jsa.Document {
	out := make([]jsa.Document, len(docs))
	for i, doc := range docs {
		out[i] = jsa.Clone(doc)
	}
	return out
}

func limitOf(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
