// Package session holds the presentation state machine of one form session
// and the stores that keep it between requests.
package session

import (
	"errors"
	"fmt"
	"time"

	"jsa/api/internal/jsa"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrBusy              = errors.New("generation already in progress")
	ErrNotFound          = errors.New("session not found")
)

type Mode string

const (
	ModeSearch  Mode = "search"
	ModeEdit    Mode = "edit"
	ModePreview Mode = "preview"
)

type Tab string

const (
	TabGeneral Tab = "general"
	TabDetails Tab = "details"
	TabSteps   Tab = "steps"
	TabFinish  Tab = "finish"
)

var Tabs = []Tab{TabGeneral, TabDetails, TabSteps, TabFinish}

func ParseTab(value string) (Tab, error) {
	for _, t := range Tabs {
		if string(t) == value {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: tab %q", jsa.ErrUnknownField, value)
}

// Next is the wizard progression; the last tab stays put.
func (t Tab) Next() Tab {
	for i, tab := range Tabs {
		if tab == t && i+1 < len(Tabs) {
			return Tabs[i+1]
		}
	}
	return TabFinish
}

type Signatures struct {
	Creator    jsa.SignatureRecord `json:"creator"`
	Supervisor jsa.SignatureRecord `json:"supervisor"`
	Manager    jsa.SignatureRecord `json:"manager"`
}

func (s *Signatures) slot(role jsa.SignerRole) (*jsa.SignatureRecord, error) {
	switch role {
	case jsa.SignerCreator:
		return &s.Creator, nil
	case jsa.SignerSupervisor:
		return &s.Supervisor, nil
	case jsa.SignerManager:
		return &s.Manager, nil
	default:
		return nil, fmt.Errorf("%w: signer %q", jsa.ErrUnknownField, role)
	}
}

func (s Signatures) Get(role jsa.SignerRole) (jsa.SignatureRecord, error) {
	rec, err := s.slot(role)
	if err != nil {
		return jsa.SignatureRecord{}, err
	}
	return *rec, nil
}

// State is one user's presentation state. Document is nil exactly when Mode
// is search.
type State struct {
	ID         string        `json:"id"`
	Mode       Mode          `json:"mode"`
	Language   jsa.Language  `json:"language"`
	Document   *jsa.Document `json:"document"`
	Signatures Signatures    `json:"signatures"`
	Loading    bool          `json:"loading"`
	ActiveTab  Tab           `json:"activeTab"`
	Notice     string        `json:"notice,omitempty"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

func New(id string, lang jsa.Language) *State {
	return &State{
		ID:        id,
		Mode:      ModeSearch,
		Language:  lang,
		ActiveTab: TabGeneral,
	}
}

func transition(from, to Mode) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Open makes doc the live document and enters Edit on the first tab.
func (s *State) Open(doc jsa.Document) error {
	if s.Mode != ModeSearch {
		return transition(s.Mode, ModeEdit)
	}
	if s.Loading {
		return ErrBusy
	}
	s.enter(doc)
	return nil
}

func (s *State) enter(doc jsa.Document) {
	live := jsa.Clone(doc).Normalized()
	s.Document = &live
	s.Mode = ModeEdit
	s.ActiveTab = TabGeneral
}

// BeginGeneration raises the loading flag; a second request while one is
// outstanding fails with ErrBusy.
func (s *State) BeginGeneration() error {
	if s.Mode != ModeSearch {
		return transition(s.Mode, ModeEdit)
	}
	if s.Loading {
		return ErrBusy
	}
	s.Loading = true
	s.Notice = ""
	return nil
}

func (s *State) CompleteGeneration(doc jsa.Document) error {
	if !s.Loading || s.Mode != ModeSearch {
		return fmt.Errorf("%w: no generation in progress", ErrInvalidTransition)
	}
	s.Loading = false
	s.enter(doc)
	return nil
}

// FailGeneration clears the loading flag and enters Edit with the fallback.
// Without a fallback the session stays in Search carrying the notice.
func (s *State) FailGeneration(fallback *jsa.Document, notice string) error {
	if !s.Loading || s.Mode != ModeSearch {
		return fmt.Errorf("%w: no generation in progress", ErrInvalidTransition)
	}
	s.Loading = false
	s.Notice = notice
	if fallback != nil {
		s.enter(*fallback)
	}
	return nil
}

func (s *State) Preview() error {
	if s.Mode != ModeEdit {
		return transition(s.Mode, ModePreview)
	}
	s.Mode = ModePreview
	return nil
}

// Back returns from Preview to Edit.
func (s *State) Back() error {
	if s.Mode != ModePreview {
		return transition(s.Mode, ModeEdit)
	}
	s.Mode = ModeEdit
	return nil
}

// Close discards the live document and resets every signature.
func (s *State) Close() error {
	if s.Mode == ModeSearch {
		return transition(s.Mode, ModeSearch)
	}
	s.Mode = ModeSearch
	s.Document = nil
	s.Signatures = Signatures{}
	s.ActiveTab = TabGeneral
	s.Notice = ""
	return nil
}

// Apply runs one edit against the live document.
func (s *State) Apply(edit jsa.Edit, ids jsa.IDSource) error {
	if err := s.editing(); err != nil {
		return err
	}
	next, err := s.Document.Apply(edit, ids)
	if err != nil {
		return err
	}
	s.Document = &next
	return nil
}

func (s *State) SetTab(tab Tab) error {
	if err := s.editing(); err != nil {
		return err
	}
	if _, err := ParseTab(string(tab)); err != nil {
		return err
	}
	s.ActiveTab = tab
	return nil
}

func (s *State) NextTab() error {
	if err := s.editing(); err != nil {
		return err
	}
	s.ActiveTab = s.ActiveTab.Next()
	return nil
}

func (s *State) SetLanguage(lang jsa.Language) {
	s.Language = lang
}

// UpdateSignature replaces one signer's record through fn.
func (s *State) UpdateSignature(role jsa.SignerRole, fn func(jsa.SignatureRecord) jsa.SignatureRecord) error {
	if err := s.editing(); err != nil {
		return err
	}
	slot, err := s.Signatures.slot(role)
	if err != nil {
		return err
	}
	*slot = fn(*slot)
	return nil
}

func (s *State) SetSignatureName(role jsa.SignerRole, name string) error {
	return s.UpdateSignature(role, func(r jsa.SignatureRecord) jsa.SignatureRecord {
		r.Name = name
		return r
	})
}

func (s *State) SetSignatureRole(role jsa.SignerRole, title string) error {
	return s.UpdateSignature(role, func(r jsa.SignatureRecord) jsa.SignatureRecord {
		r.Role = title
		return r
	})
}

func (s *State) SetSignatureDate(role jsa.SignerRole, date string) error {
	return s.UpdateSignature(role, func(r jsa.SignatureRecord) jsa.SignatureRecord {
		r.Date = date
		return r
	})
}

// SetSignatureImage stores a committed pad image; "" clears it.
func (s *State) SetSignatureImage(role jsa.SignerRole, image string) error {
	return s.UpdateSignature(role, func(r jsa.SignatureRecord) jsa.SignatureRecord {
		return r.WithImage(image)
	})
}

func (s *State) editing() error {
	if s.Mode != ModeEdit || s.Document == nil {
		return fmt.Errorf("%w: %s mode is read-only", ErrInvalidTransition, s.Mode)
	}
	return nil
}

// Consistent reports whether the document slot agrees with the mode.
func (s *State) Consistent() bool {
	return (s.Document == nil) == (s.Mode == ModeSearch)
}
