package layout

import (
	"fmt"

	"jsa/api/internal/jsa"
)

type Kind string

const (
	KindOverview     Kind = "overview"
	KindSteps        Kind = "steps"
	KindContinuation Kind = "continuation"
)

type Header struct {
	Reference  string `json:"reference"`
	Company    string `json:"company"`
	Project    string `json:"project"`
	WorkOrder  string `json:"workOrder"`
	Date       string `json:"date"`
	JobTitle   string `json:"jobTitle"`
	Location   string `json:"location"`
	TeamLeader string `json:"teamLeader"`
	// Light headers carry only the title and reference.
	Light bool `json:"light"`
}

type Signer struct {
	Slot      jsa.SignerRole `json:"slot"`
	Signature Signature      `json:"signature"`
}

// Page is everything printed on one sheet. Sections that do not belong on a
// page kind are left empty.
type Page struct {
	Number   int          `json:"number"`
	Total    int          `json:"total"`
	Kind     Kind         `json:"kind"`
	Language jsa.Language `json:"language"`
	Header   Header       `json:"header"`

	Tools        []jsa.Tool     `json:"tools,omitempty"`
	HiddenTools  int            `json:"hiddenTools,omitempty"`
	TeamMembers  []string       `json:"teamMembers,omitempty"`
	InitialRisk  *jsa.RiskScore `json:"initialRisk,omitempty"`
	ResidualRisk *jsa.RiskScore `json:"residualRisk,omitempty"`
	Hazards      []jsa.Hazard   `json:"hazards,omitempty"`
	Controls     []jsa.Control  `json:"controls,omitempty"`

	Steps       []jsa.Step    `json:"steps,omitempty"`
	HiddenSteps int           `json:"hiddenSteps,omitempty"`
	Emergency   *jsa.Location `json:"emergency,omitempty"`
	Permits     []string      `json:"permits,omitempty"`
	Signers     []Signer      `json:"signers,omitempty"`
}

func (p Page) RTL() bool { return p.Language.RTL() }

type Input struct {
	Document   jsa.Document
	Language   jsa.Language
	Creator    jsa.SignatureRecord
	Supervisor jsa.SignatureRecord
	// Date is printed in the header, already formatted.
	Date   string
	Limits Limits
}

// Paginate lays a document onto pages: page 1 is the overview, page 2 the
// steps, emergency and sign-off block. With OverflowPaginate, step rows past
// MaxSteps continue on further pages.
func Paginate(in Input) ([]Page, error) {
	if err := in.Limits.Validate(); err != nil {
		return nil, err
	}
	lang, err := jsa.ParseLanguage(string(in.Language))
	if err != nil {
		return nil, err
	}
	doc := in.Document.Normalized()
	overflow, _ := ParseOverflow(string(in.Limits.Overflow))

	header := Header{
		Reference:  doc.ID,
		Company:    doc.Metadata.Company,
		Project:    doc.Metadata.Project,
		WorkOrder:  doc.Metadata.WorkOrder,
		Date:       in.Date,
		JobTitle:   doc.Title.In(lang),
		Location:   doc.PrimaryLocation().Name,
		TeamLeader: doc.Metadata.TeamLeader,
	}
	light := Header{Reference: doc.ID, JobTitle: header.JobTitle, Date: in.Date, Light: true}

	initial, residual := doc.InitialRisk, doc.ResidualRisk
	tools, hiddenTools := head(doc.Tools, in.Limits.MaxTools)
	overview := Page{
		Kind:         KindOverview,
		Header:       header,
		Tools:        tools,
		HiddenTools:  hiddenTools,
		TeamMembers:  doc.Metadata.TeamMembers,
		InitialRisk:  &initial,
		ResidualRisk: &residual,
		Hazards:      doc.Hazards,
		Controls:     doc.Controls,
	}

	steps, rest := head(doc.Steps, in.Limits.MaxSteps)
	second := Page{
		Kind:    KindSteps,
		Header:  light,
		Steps:   steps,
		Permits: doc.RequiredPermits,
		Signers: []Signer{
			{Slot: jsa.SignerCreator, Signature: EffectiveSignature(in.Creator)},
			{Slot: jsa.SignerSupervisor, Signature: EffectiveSignature(in.Supervisor)},
		},
	}
	if len(doc.Locations) > 0 {
		primary := doc.Locations[0]
		second.Emergency = &primary
	}

	pages := []Page{overview, second}
	if overflow == OverflowPaginate {
		remaining := doc.Steps[len(steps):]
		for len(remaining) > 0 {
			chunk, _ := head(remaining, in.Limits.MaxSteps)
			pages = append(pages, Page{Kind: KindContinuation, Header: light, Steps: chunk})
			remaining = remaining[len(chunk):]
		}
	} else {
		pages[1].HiddenSteps = rest
	}

	for i := range pages {
		pages[i].Number = i + 1
		pages[i].Total = len(pages)
		pages[i].Language = lang
	}
	return pages, nil
}

// head returns the first n items and how many were left out.
func head[T any](items []T, n int) ([]T, int) {
	if len(items) <= n {
		return items, 0
	}
	return items[:n], len(items) - n
}

// PageAt returns page number n (1-based).
func PageAt(pages []Page, n int) (Page, error) {
	if n < 1 || n > len(pages) {
		return Page{}, fmt.Errorf("%w: page %d of %d", jsa.ErrIndexOutOfRange, n, len(pages))
	}
	return pages[n-1], nil
}
