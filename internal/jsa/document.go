// Package jsa holds the Job Safety Analysis document model, the risk score
// engine and the typed edit operations applied to a live document.
package jsa

import (
	"fmt"
	"strings"
)

type Language string

const (
	LangEN Language = "en"
	LangFR Language = "fr"
	LangAR Language = "ar"
)

var Languages = []Language{LangEN, LangFR, LangAR}

func ParseLanguage(value string) (Language, error) {
	switch lang := Language(strings.ToLower(strings.TrimSpace(value))); lang {
	case LangEN, LangFR, LangAR:
		return lang, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, value)
	}
}

// RTL reports whether the language is written right to left.
func (l Language) RTL() bool {
	return l == LangAR
}

type Title struct {
	EN string `json:"en"`
	FR string `json:"fr"`
	AR string `json:"ar"`
}

func (t Title) In(lang Language) string {
	switch lang {
	case LangFR:
		return t.FR
	case LangAR:
		return t.AR
	default:
		return t.EN
	}
}

func (t Title) Set(lang Language, value string) (Title, error) {
	switch lang {
	case LangEN:
		t.EN = value
	case LangFR:
		t.FR = value
	case LangAR:
		t.AR = value
	default:
		return Title{}, fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	return t, nil
}

type Metadata struct {
	Company     string   `json:"company"`
	Project     string   `json:"project"`
	WorkOrder   string   `json:"workOrder"`
	TeamLeader  string   `json:"teamLeader"`
	TeamMembers []string `json:"teamMembers"`
}

type Location struct {
	Name           string `json:"name"`
	EmergencyPhone string `json:"emergencyPhone"`
	MusterPoint    string `json:"musterPoint"`
}

type Hazard struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Limit       string `json:"limit"`
}

type Tool struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BrandModel string `json:"brandModel"`
}

type ControlType string

const (
	ControlPPE       ControlType = "PPE"
	ControlProcedure ControlType = "PROCEDURE"
	ControlStandard  ControlType = "STANDARD"
)

func ParseControlType(value string) (ControlType, error) {
	switch ct := ControlType(strings.ToUpper(strings.TrimSpace(value))); ct {
	case ControlPPE, ControlProcedure, ControlStandard:
		return ct, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidControlType, value)
	}
}

func (c ControlType) Valid() bool {
	switch c {
	case ControlPPE, ControlProcedure, ControlStandard:
		return true
	default:
		return false
	}
}

type Control struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Type        ControlType `json:"type"`
	StandardRef string      `json:"standardRef,omitempty"`
}

// Step.HazardRef is a free-text cross reference to a hazard description, not a hazard id.
type Step struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	HazardRef   string `json:"hazardRef,omitempty"`
}

type Document struct {
	ID              string     `json:"id"`
	Title           Title      `json:"title"`
	Metadata        Metadata   `json:"metadata"`
	Category        string     `json:"category"`
	Locations       []Location `json:"locations"`
	Hazards         []Hazard   `json:"hazards"`
	Tools           []Tool     `json:"tools"`
	Controls        []Control  `json:"controls"`
	Steps           []Step     `json:"steps"`
	InitialRisk     RiskScore  `json:"initialRisk"`
	ResidualRisk    RiskScore  `json:"residualRisk"`
	RequiredPermits []string   `json:"requiredPermits"`
}

// Clone returns a deep structural copy; no slice is shared with the source.
func Clone(doc Document) Document {
	out := doc
	out.Metadata.TeamMembers = cloneSlice(doc.Metadata.TeamMembers)
	out.Locations = cloneSlice(doc.Locations)
	out.Hazards = cloneSlice(doc.Hazards)
	out.Tools = cloneSlice(doc.Tools)
	out.Controls = cloneSlice(doc.Controls)
	out.Steps = cloneSlice(doc.Steps)
	out.RequiredPermits = cloneSlice(doc.RequiredPermits)
	return out
}

// Normalized replaces nil collections with empty ones so the document always
// serializes its collections as arrays.
func (d Document) Normalized() Document {
	out := Clone(d)
	if out.Metadata.TeamMembers == nil {
		out.Metadata.TeamMembers = []string{}
	}
	if out.Locations == nil {
		out.Locations = []Location{}
	}
	if out.Hazards == nil {
		out.Hazards = []Hazard{}
	}
	if out.Tools == nil {
		out.Tools = []Tool{}
	}
	if out.Controls == nil {
		out.Controls = []Control{}
	}
	if out.Steps == nil {
		out.Steps = []Step{}
	}
	if out.RequiredPermits == nil {
		out.RequiredPermits = []string{}
	}
	return out
}

// CloneAs promotes a template to a live document under a fresh id.
func (d Document) CloneAs(id string) Document {
	out := Clone(d)
	out.ID = id
	return out
}

// PrimaryLocation is the active location: the first directory entry.
func (d Document) PrimaryLocation() Location {
	if len(d.Locations) == 0 {
		return Location{}
	}
	return d.Locations[0]
}

// Validate checks the structural invariants every live document must hold.
func (d Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDocument)
	}
	if !d.InitialRisk.Consistent() {
		return fmt.Errorf("%w: initial risk is inconsistent", ErrInvalidDocument)
	}
	if !d.ResidualRisk.Consistent() {
		return fmt.Errorf("%w: residual risk is inconsistent", ErrInvalidDocument)
	}
	seen := map[string]bool{}
	for i, h := range d.Hazards {
		if h.ID == "" || seen["h:"+h.ID] {
			return fmt.Errorf("%w: hazard %d has a missing or duplicate id", ErrInvalidDocument, i)
		}
		seen["h:"+h.ID] = true
	}
	for i, t := range d.Tools {
		if t.ID == "" || seen["t:"+t.ID] {
			return fmt.Errorf("%w: tool %d has a missing or duplicate id", ErrInvalidDocument, i)
		}
		seen["t:"+t.ID] = true
	}
	for i, c := range d.Controls {
		if c.ID == "" || seen["c:"+c.ID] {
			return fmt.Errorf("%w: control %d has a missing or duplicate id", ErrInvalidDocument, i)
		}
		seen["c:"+c.ID] = true
		if !c.Type.Valid() {
			return fmt.Errorf("%w: control %d: %v %q", ErrInvalidDocument, i, ErrInvalidControlType, c.Type)
		}
	}
	steps := map[int]bool{}
	for i, s := range d.Steps {
		if steps[s.ID] {
			return fmt.Errorf("%w: step %d reuses id %d", ErrInvalidDocument, i, s.ID)
		}
		steps[s.ID] = true
	}
	return nil
}

// ExportIssues lists what keeps a structurally valid document from being
// export-ready. Blank titles are allowed while editing.
func (d Document) ExportIssues() []string {
	var issues []string
	for _, lang := range Languages {
		if strings.TrimSpace(d.Title.In(lang)) == "" {
			issues = append(issues, fmt.Sprintf("title.%s is blank", lang))
		}
	}
	return issues
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
