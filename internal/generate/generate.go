// Package generate drafts JSA documents with a chat completion model and
// checks the draft before it reaches an editor.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jsa/api/internal/jsa"
	"jsa/api/internal/util"
)

var (
	// ErrGenerationFailed covers transport errors, timeouts and drafts that fail validation.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrNotConfigured is returned by a generator without credentials.
	ErrNotConfigured = errors.New("generation not configured")
)

// Exact section sizes a draft must have.
const (
	HazardCount  = 12
	ToolCount    = 8
	ControlCount = 8
	StepCount    = 12
)

// Generator drafts a document for a job title. The result is validated but not
// yet enriched with ids, metadata or locations.
type Generator interface {
	Generate(ctx context.Context, jobTitle string, lang jsa.Language) (jsa.Document, error)
}

// Draft is the wire shape the model is asked to produce.
type Draft struct {
	Title           jsa.Title     `json:"title"`
	Category        string        `json:"category"`
	Hazards         []jsa.Hazard  `json:"hazards"`
	Tools           []jsa.Tool    `json:"tools"`
	Controls        []jsa.Control `json:"controls"`
	Steps           []jsa.Step    `json:"steps"`
	InitialRisk     jsa.RiskScore `json:"initialRisk"`
	ResidualRisk    jsa.RiskScore `json:"residualRisk"`
	RequiredPermits []string      `json:"requiredPermits"`
}

// ParseDraft decodes and validates model output. Scores and levels are
// recomputed from the factors; the model's own arithmetic is discarded.
func ParseDraft(content string) (jsa.Document, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return jsa.Document{}, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	var d Draft
	if err := json.Unmarshal([]byte(content), &d); err != nil {
		return jsa.Document{}, fmt.Errorf("%w: decode draft: %v", ErrGenerationFailed, err)
	}

	problems := checkDraft(d)
	initial, err := jsa.NewRiskScore(d.InitialRisk.Likelihood, d.InitialRisk.Severity)
	if err != nil {
		problems = append(problems, "initialRisk: "+err.Error())
	}
	residual, err := jsa.NewRiskScore(d.ResidualRisk.Likelihood, d.ResidualRisk.Severity)
	if err != nil {
		problems = append(problems, "residualRisk: "+err.Error())
	}
	if len(problems) > 0 {
		return jsa.Document{}, fmt.Errorf("%w: %s", ErrGenerationFailed, strings.Join(problems, "; "))
	}

	doc := jsa.Document{
		Title:           d.Title,
		Category:        d.Category,
		Hazards:         d.Hazards,
		Tools:           d.Tools,
		Controls:        d.Controls,
		Steps:           d.Steps,
		InitialRisk:     initial,
		ResidualRisk:    residual,
		RequiredPermits: d.RequiredPermits,
	}
	return doc.Normalized(), nil
}

func checkDraft(d Draft) []string {
	var problems []string
	count := func(name string, got, want int) {
		if got != want {
			problems = append(problems, fmt.Sprintf("%s: expected %d, got %d", name, want, got))
		}
	}
	count("hazards", len(d.Hazards), HazardCount)
	count("tools", len(d.Tools), ToolCount)
	count("controls", len(d.Controls), ControlCount)
	count("steps", len(d.Steps), StepCount)

	for _, lang := range jsa.Languages {
		if strings.TrimSpace(d.Title.In(lang)) == "" {
			problems = append(problems, fmt.Sprintf("title.%s is blank", lang))
		}
	}

	seen := map[string]bool{}
	unique := func(kind, id string) {
		if id == "" || seen[kind+id] {
			problems = append(problems, fmt.Sprintf("%s id %q missing or repeated", kind, id))
		}
		seen[kind+id] = true
	}
	for _, h := range d.Hazards {
		unique("hazard", h.ID)
	}
	for _, t := range d.Tools {
		unique("tool", t.ID)
	}
	for i, c := range d.Controls {
		unique("control", c.ID)
		if !c.Type.Valid() {
			problems = append(problems, fmt.Sprintf("control %d: invalid type %q", i, c.Type))
		}
	}
	steps := map[int]bool{}
	for i, s := range d.Steps {
		if steps[s.ID] {
			problems = append(problems, fmt.Sprintf("step %d reuses id %d", i, s.ID))
		}
		steps[s.ID] = true
	}
	return problems
}

// Enrichment fills in what the model does not produce.
type Enrichment struct {
	Company   string
	Locations []jsa.Location
	Now       func() time.Time
}

// Enrich stamps an AI id, resets metadata to the company defaults and
// injects the location directory.
func Enrich(doc jsa.Document, e Enrichment) jsa.Document {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	out := jsa.Clone(doc)
	out.ID = util.StampID("ai", now())
	out.Metadata = jsa.Metadata{Company: e.Company, TeamMembers: []string{}}
	out.Locations = append([]jsa.Location{}, e.Locations...)
	return out.Normalized()
}

// Fallback turns a template into the stand-in document used when generation
// fails: every title becomes the job title and the id is stamped demo-.
func Fallback(template jsa.Document, jobTitle string, now time.Time) jsa.Document {
	out := template.CloneAs(util.StampID("demo", now))
	out.Title = jsa.Title{EN: jobTitle, FR: jobTitle, AR: jobTitle}
	return out.Normalized()
}
