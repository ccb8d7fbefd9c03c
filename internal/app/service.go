package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"jsa/api/internal/catalog"
	"jsa/api/internal/config"
	"jsa/api/internal/export"
	"jsa/api/internal/generate"
	"jsa/api/internal/jsa"
	"jsa/api/internal/layout"
	"jsa/api/internal/session"
	"jsa/api/internal/signature"
	"jsa/api/internal/util"
)

const dateLayout = "2006-01-02"

// Pinger is implemented by backends that take part in readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the backends a Service runs on. Generator and Artifacts are optional.
type Deps struct {
	Sessions  session.Store
	Catalog   catalog.Catalog
	Directory catalog.Directory
	Generator generate.Generator
	Exporter  *export.Service
	Artifacts export.ArtifactStore
}

type Service struct {
	cfg       config.Config
	sessions  session.Store
	locks     *session.Locks
	catalog   catalog.Catalog
	directory catalog.Directory
	generator generate.Generator
	exporter  *export.Service
	artifacts export.ArtifactStore

	now        func() time.Time
	sessionID  func() string
	documentID func() string
	elementID  jsa.IDSource
}

func New(cfg config.Config, deps Deps) *Service {
	return &Service{
		cfg:        cfg,
		sessions:   deps.Sessions,
		locks:      session.NewLocks(),
		catalog:    deps.Catalog,
		directory:  deps.Directory,
		generator:  deps.Generator,
		exporter:   deps.Exporter,
		artifacts:  deps.Artifacts,
		now:        time.Now,
		sessionID:  func() string { return util.NewID("sess") },
		documentID: func() string { return util.NewID("jsa") },
		elementID:  util.Token,
	}
}

// TemplateSummary is one search suggestion.
type TemplateSummary struct {
	ID       string    `json:"id"`
	Title    jsa.Title `json:"title"`
	Category string    `json:"category"`
}

type SignatureInput struct {
	Name  *string `json:"name"`
	Role  *string `json:"role"`
	Date  *string `json:"date"`
	Image *string `json:"signatureImage"`
}

type StrokeInput struct {
	Bounds signature.Bounds  `json:"bounds"`
	Events []signature.Event `json:"events"`
	Width  int               `json:"width"`
	Height int               `json:"height"`
}

// Ping checks the session store and, when it can be pinged, the catalog.
func (s *Service) Ping(ctx context.Context) map[string]error {
	checks := map[string]error{"sessions": s.sessions.Ping(ctx)}
	if p, ok := s.catalog.(Pinger); ok {
		checks["catalog"] = p.Ping(ctx)
	}
	return checks
}

func (s *Service) language(value string) (jsa.Language, error) {
	if strings.TrimSpace(value) == "" {
		value = s.cfg.DefaultLanguage
	}
	lang, err := jsa.ParseLanguage(value)
	if err != nil {
		return "", validation(err)
	}
	return lang, nil
}

func (s *Service) CreateSession(ctx context.Context, lang string) (*session.State, error) {
	l, err := s.language(lang)
	if err != nil {
		return nil, err
	}
	state := session.New(s.sessionID(), l)
	state.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return state, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*session.State, error) {
	return s.sessions.Get(ctx, id)
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	if _, err := s.sessions.Get(ctx, id); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

// mutate loads a session under its lock, applies fn and saves the result.
// Nothing is saved when fn fails.
func (s *Service) mutate(ctx context.Context, id string, fn func(*session.State) error) (*session.State, error) {
	unlock := s.locks.Lock(id)
	defer unlock()
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	state.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return state, nil
}

func (s *Service) SetLanguage(ctx context.Context, id, lang string) (*session.State, error) {
	l, err := s.language(lang)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(state *session.State) error {
		state.SetLanguage(l)
		return nil
	})
}

func (s *Service) Suggest(ctx context.Context, query string, limit int) ([]TemplateSummary, error) {
	if limit <= 0 || limit > catalog.DefaultLimit {
		limit = catalog.DefaultLimit
	}
	docs, err := s.catalog.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search templates: %w", err)
	}
	out := make([]TemplateSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, TemplateSummary{ID: d.ID, Title: d.Title, Category: d.Category})
	}
	return out, nil
}

func (s *Service) Projects(ctx context.Context, query string) ([]string, error) {
	return s.directory.Projects(ctx, query)
}

func (s *Service) Locations(ctx context.Context) ([]jsa.Location, error) {
	return s.directory.Locations(ctx)
}

// SelectTemplate opens a copy of a catalog template, under a new id, as the
// live document.
func (s *Service) SelectTemplate(ctx context.Context, id, templateID string) (*session.State, error) {
	tpl, err := s.catalog.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(state *session.State) error {
		return state.Open(tpl.CloneAs(s.documentID()))
	})
}

// Generate drafts a document for jobTitle. The model call runs outside the
// session lock with the loading flag set; any failure degrades to the
// fallback template. A generation that never finishes, including one that
// panics, clears the loading flag on the way out.
func (s *Service) Generate(ctx context.Context, id, jobTitle string) (*session.State, error) {
	jobTitle = strings.TrimSpace(jobTitle)
	if jobTitle == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "jobTitle is required", nil)
	}
	state, err := s.mutate(ctx, id, func(state *session.State) error {
		return state.BeginGeneration()
	})
	if err != nil {
		return nil, err
	}
	finished := false
	defer func() {
		if finished {
			return
		}
		_, err := s.mutate(context.WithoutCancel(ctx), id, func(state *session.State) error {
			return state.FailGeneration(nil, "AI generation was interrupted")
		})
		if err != nil {
			log.Printf("generate: session=%s clear loading: %v", id, err)
		}
	}()

	doc, genErr := s.draft(ctx, jobTitle, state.Language)
	var fallback *jsa.Document
	notice := ""
	if genErr != nil {
		log.Printf("generate: session=%s falling back: %v", id, genErr)
		fallback, err = s.fallback(ctx, jobTitle)
		if err != nil {
			log.Printf("generate: session=%s fallback unavailable: %v", id, err)
		}
		notice = "AI generation unavailable; a template was loaded instead"
		if fallback == nil {
			notice = "AI generation unavailable and no template to fall back to"
		}
	}

	result, err := s.mutate(context.WithoutCancel(ctx), id, func(state *session.State) error {
		if genErr != nil {
			return state.FailGeneration(fallback, notice)
		}
		return state.CompleteGeneration(doc)
	})
	finished = err == nil
	return result, err
}

func (s *Service) draft(ctx context.Context, jobTitle string, lang jsa.Language) (jsa.Document, error) {
	if s.generator == nil {
		return jsa.Document{}, generate.ErrNotConfigured
	}
	doc, err := s.generator.Generate(ctx, jobTitle, lang)
	if err != nil {
		return jsa.Document{}, err
	}
	locations, err := s.directory.Locations(ctx)
	if err != nil {
		return jsa.Document{}, fmt.Errorf("load locations: %w", err)
	}
	return generate.Enrich(doc, generate.Enrichment{Company: s.cfg.Company, Locations: locations, Now: s.now}), nil
}

func (s *Service) fallback(ctx context.Context, jobTitle string) (*jsa.Document, error) {
	tpl, err := s.catalog.Fallback(ctx)
	if err != nil || tpl == nil {
		return nil, err
	}
	doc := generate.Fallback(*tpl, jobTitle, s.now())
	return &doc, nil
}

func (s *Service) ApplyEdit(ctx context.Context, id string, body []byte) (*session.State, error) {
	edit, err := jsa.DecodeEdit(body)
	if err != nil {
		if errors.Is(err, jsa.ErrInvalidRiskInput) || errors.Is(err, jsa.ErrIndexOutOfRange) {
			return nil, err
		}
		return nil, validation(err)
	}
	return s.mutate(ctx, id, func(state *session.State) error {
		return state.Apply(edit, s.elementID)
	})
}

// SetTab moves to the named tab; "next" advances one tab.
func (s *Service) SetTab(ctx context.Context, id, tab string) (*session.State, error) {
	return s.mutate(ctx, id, func(state *session.State) error {
		if tab == "next" {
			return state.NextTab()
		}
		t, err := session.ParseTab(tab)
		if err != nil {
			return err
		}
		return state.SetTab(t)
	})
}

func (s *Service) Preview(ctx context.Context, id string) (*session.State, error) {
	return s.mutate(ctx, id, (*session.State).Preview)
}

func (s *Service) Back(ctx context.Context, id string) (*session.State, error) {
	return s.mutate(ctx, id, (*session.State).Back)
}

func (s *Service) CloseDocument(ctx context.Context, id string) (*session.State, error) {
	return s.mutate(ctx, id, (*session.State).Close)
}

// UpdateSignature sets the supplied fields of one signer. A non-empty image is
// decoded and scaled to the pad size before it is stored.
func (s *Service) UpdateSignature(ctx context.Context, id, roleValue string, in SignatureInput) (*session.State, error) {
	role, err := jsa.ParseSignerRole(roleValue)
	if err != nil {
		return nil, err
	}
	var image string
	if in.Image != nil && *in.Image != "" {
		image, err = signature.Normalize(*in.Image, signature.DefaultWidth, signature.DefaultHeight)
		if err != nil {
			return nil, validation(err)
		}
	}
	return s.mutate(ctx, id, func(state *session.State) error {
		return state.UpdateSignature(role, func(r jsa.SignatureRecord) jsa.SignatureRecord {
			if in.Name != nil {
				r.Name = *in.Name
			}
			if in.Role != nil {
				r.Role = *in.Role
			}
			if in.Date != nil {
				r.Date = *in.Date
			}
			if in.Image != nil {
				r = r.WithImage(image)
			}
			return r
		})
	})
}

// ReplayStrokes drives a fresh pad through recorded pointer and touch events
// and stores the last committed image. A replay that ends with a clear removes
// the signature.
func (s *Service) ReplayStrokes(ctx context.Context, id, roleValue string, in StrokeInput) (*session.State, error) {
	role, err := jsa.ParseSignerRole(roleValue)
	if err != nil {
		return nil, err
	}
	if err := signature.CheckSize(in.Width, in.Height); err != nil {
		return nil, validation(err)
	}
	committed, last := false, ""
	pad := signature.NewPad(in.Width, in.Height, func(uri string) {
		committed, last = true, uri
	})
	if err := pad.Replay(in.Bounds, in.Events); err != nil {
		return nil, validation(err)
	}
	if !committed {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "no stroke was committed", nil)
	}
	return s.mutate(ctx, id, func(state *session.State) error {
		return state.SetSignatureImage(role, last)
	})
}

// SignaturePreview renders the signer's typed name as a PNG.
func (s *Service) SignaturePreview(ctx context.Context, id, roleValue string) ([]byte, error) {
	role, err := jsa.ParseSignerRole(roleValue)
	if err != nil {
		return nil, err
	}
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := state.Signatures.Get(role)
	if err != nil {
		return nil, err
	}
	uri, err := signature.RenderTypedName(rec.Name, signature.DefaultWidth, signature.DefaultHeight, signature.DefaultColor)
	if err != nil {
		return nil, validation(err)
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
}

func (s *Service) job(state *session.State) (export.Job, error) {
	if state.Document == nil {
		return export.Job{}, fmt.Errorf("%w: no document in %s mode", session.ErrInvalidTransition, state.Mode)
	}
	return export.Job{
		Document:   *state.Document,
		Language:   state.Language,
		Creator:    state.Signatures.Creator,
		Supervisor: state.Signatures.Supervisor,
		Date:       s.now().Format(dateLayout),
	}, nil
}

// Pages lays out the live document as it would print.
func (s *Service) Pages(ctx context.Context, id string) ([]layout.Page, error) {
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	job, err := s.job(state)
	if err != nil {
		return nil, err
	}
	return s.exporter.Pages(job)
}

func (s *Service) PageHTML(ctx context.Context, id string, n int) (string, error) {
	pages, err := s.Pages(ctx, id)
	if err != nil {
		return "", err
	}
	p, err := layout.PageAt(pages, n)
	if err != nil {
		return "", err
	}
	return layout.RenderHTML(p, s.exporter.Geometry())
}

// Export prints the previewed document. With store set and an artifact store
// configured, the PDF is also uploaded and Result.URL carries its link.
func (s *Service) Export(ctx context.Context, id string, store bool) (*export.Result, error) {
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if state.Mode != session.ModePreview {
		return nil, fmt.Errorf("%w: export requires preview, session is in %s", session.ErrInvalidTransition, state.Mode)
	}
	job, err := s.job(state)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.Export(ctx, job)
	if err != nil {
		return nil, err
	}
	if store && s.artifacts != nil {
		name := export.ObjectName(job.Document.ID, result.Filename, s.now())
		url, err := s.artifacts.Store(ctx, name, result.Data, result.MimeType)
		if err != nil {
			return nil, fmt.Errorf("store export: %w", err)
		}
		result.URL = url
	}
	return result, nil
}

func (s *Service) ArtifactsEnabled() bool { return s.artifacts != nil }
