package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"jsa/api/internal/jsa"
)

func template(t *testing.T) jsa.Document {
	t.Helper()
	risk, err := jsa.NewRiskScore(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	return jsa.Document{
		ID:           "seed-1",
		Title:        jsa.Title{EN: "Lifting", FR: "Levage", AR: "رفع"},
		Hazards:      []jsa.Hazard{{ID: "h1", Description: "Load swing"}},
		InitialRisk:  risk,
		ResidualRisk: risk,
	}
}

func editingState(t *testing.T) *State {
	t.Helper()
	s := New("sess-1", jsa.LangEN)
	if err := s.Open(template(t)); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.SetSignatureName(jsa.SignerCreator, "Nadia"); err != nil {
		t.Fatalf("SetSignatureName failed: %v", err)
	}
	return s
}

func TestTransitionTable(t *testing.T) {
	s := New("sess", jsa.LangAR)
	if s.Mode != ModeSearch || s.Document != nil || s.Language != jsa.LangAR {
		t.Fatalf("unexpected initial state %+v", s)
	}

	steps := []struct {
		name string
		do   func() error
		want Mode
		err  error
	}{
		{"preview from search", s.Preview, ModeSearch, ErrInvalidTransition},
		{"close from search", s.Close, ModeSearch, ErrInvalidTransition},
		{"open", func() error { return s.Open(template(t)) }, ModeEdit, nil},
		{"open twice", func() error { return s.Open(template(t)) }, ModeEdit, ErrInvalidTransition},
		{"generate from edit", s.BeginGeneration, ModeEdit, ErrInvalidTransition},
		{"back from edit", s.Back, ModeEdit, ErrInvalidTransition},
		{"preview", s.Preview, ModePreview, nil},
		{"preview twice", s.Preview, ModePreview, ErrInvalidTransition},
		{"back", s.Back, ModeEdit, nil},
		{"preview again", s.Preview, ModePreview, nil},
		{"close from preview", s.Close, ModeSearch, nil},
	}
	for _, step := range steps {
		err := step.do()
		if !errors.Is(err, step.err) {
			t.Fatalf("%s: expected error %v, got %v", step.name, step.err, err)
		}
		if s.Mode != step.want {
			t.Fatalf("%s: expected mode %s, got %s", step.name, step.want, s.Mode)
		}
		if !s.Consistent() {
			t.Fatalf("%s: document slot disagrees with mode", step.name)
		}
	}
}

func TestOpenClonesTemplate(t *testing.T) {
	tpl := template(t)
	s := New("sess", jsa.LangEN)
	s.ActiveTab = TabSteps
	if err := s.Open(tpl); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.ActiveTab != TabGeneral {
		t.Errorf("expected general tab, got %s", s.ActiveTab)
	}
	if err := s.Apply(jsa.Update{Collection: jsa.CollectionHazards, Index: 0, Field: jsa.FieldDescription, Value: "Dropped load"}, nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if tpl.Hazards[0].Description != "Load swing" {
		t.Error("editing the live document changed the template")
	}
	if s.Document.Tools == nil {
		t.Error("expected normalized collections on open")
	}
}

func TestGenerationLifecycle(t *testing.T) {
	s := New("sess", jsa.LangEN)
	if err := s.CompleteGeneration(template(t)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition without pending generation, got %v", err)
	}
	if err := s.BeginGeneration(); err != nil {
		t.Fatalf("BeginGeneration failed: %v", err)
	}
	if err := s.BeginGeneration(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := s.Open(template(t)); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for open while loading, got %v", err)
	}
	doc := template(t)
	doc.ID = "ai-1"
	if err := s.CompleteGeneration(doc); err != nil {
		t.Fatalf("CompleteGeneration failed: %v", err)
	}
	if s.Loading || s.Mode != ModeEdit || s.Document.ID != "ai-1" {
		t.Errorf("unexpected state after generation %+v", s)
	}
}

func TestFailGeneration(t *testing.T) {
	s := New("sess", jsa.LangEN)
	_ = s.BeginGeneration()
	fallback := template(t).CloneAs("demo-1")
	if err := s.FailGeneration(&fallback, "generation failed, using template"); err != nil {
		t.Fatalf("FailGeneration failed: %v", err)
	}
	if s.Loading || s.Mode != ModeEdit || s.Document.ID != "demo-1" || s.Notice == "" {
		t.Errorf("unexpected state after fallback %+v", s)
	}

	empty := New("sess-2", jsa.LangEN)
	_ = empty.BeginGeneration()
	if err := empty.FailGeneration(nil, "no template available"); err != nil {
		t.Fatalf("FailGeneration failed: %v", err)
	}
	if empty.Loading || empty.Mode != ModeSearch || empty.Document != nil || empty.Notice != "no template available" {
		t.Errorf("expected search with notice, got %+v", empty)
	}
}

func TestCloseResetsSignatures(t *testing.T) {
	s := editingState(t)
	if err := s.SetSignatureImage(jsa.SignerSupervisor, "data:image/png;base64,AAAA"); err != nil {
		t.Fatalf("SetSignatureImage failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if s.Signatures != (Signatures{}) {
		t.Errorf("expected signatures reset, got %+v", s.Signatures)
	}
}

func TestPreviewIsReadOnly(t *testing.T) {
	s := editingState(t)
	_ = s.Preview()
	if err := s.Apply(jsa.SetCategory{Value: "Civil"}, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected edit rejection in preview, got %v", err)
	}
	if err := s.SetSignatureDate(jsa.SignerCreator, "2024-06-01"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected signature rejection in preview, got %v", err)
	}
	if err := s.NextTab(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected tab rejection in preview, got %v", err)
	}
	s.SetLanguage(jsa.LangFR)
	if s.Language != jsa.LangFR {
		t.Error("language is switchable in every mode")
	}
}

func TestTabs(t *testing.T) {
	s := editingState(t)
	for _, want := range []Tab{TabDetails, TabSteps, TabFinish, TabFinish} {
		if err := s.NextTab(); err != nil {
			t.Fatalf("NextTab failed: %v", err)
		}
		if s.ActiveTab != want {
			t.Fatalf("expected %s, got %s", want, s.ActiveTab)
		}
	}
	if err := s.SetTab(TabGeneral); err != nil || s.ActiveTab != TabGeneral {
		t.Fatalf("SetTab failed: %v", err)
	}
	if err := s.SetTab("summary"); !errors.Is(err, jsa.ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestSignatureFields(t *testing.T) {
	s := editingState(t)
	_ = s.SetSignatureRole(jsa.SignerManager, "HSE Manager")
	_ = s.SetSignatureDate(jsa.SignerManager, "2024-06-01")
	_ = s.SetSignatureImage(jsa.SignerManager, "data:image/png;base64,AAAA")

	rec, err := s.Signatures.Get(jsa.SignerManager)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Role != "HSE Manager" || rec.Date != "2024-06-01" || !rec.HasImage() {
		t.Errorf("unexpected record %+v", rec)
	}
	_ = s.SetSignatureImage(jsa.SignerManager, "")
	if rec, _ := s.Signatures.Get(jsa.SignerManager); rec.Image != nil {
		t.Error("expected empty image to clear the signature")
	}
	if err := s.SetSignatureName("witness", "x"); !errors.Is(err, jsa.ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	state := editingState(t)
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := store.Get(ctx, state.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got.Document.Category = "changed"
	again, _ := store.Get(ctx, state.ID)
	if again.Document.Category == "changed" {
		t.Error("expected Get to return an independent copy")
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, state.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after ttl, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected expired entry removed, got %d", store.Len())
	}

	_ = store.Save(ctx, New("x", jsa.LangEN))
	_ = store.Delete(ctx, "x")
	if _, err := store.Get(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLocksSerializePerKey(t *testing.T) {
	locks := NewLocks()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Lock("same")
			defer release()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("expected 50 serialized increments, got %d", counter)
	}
	if len(locks.locks) != 0 {
		t.Errorf("expected lock table drained, got %d", len(locks.locks))
	}
}
