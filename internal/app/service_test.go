package app

import (
	"context"
	"reflect"
	"testing"

	"jsa/api/internal/session"
)

func TestSelectTemplateMintsDocumentID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tpl, err := env.service.catalog.Get(ctx, "seed-hot-work")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	first, err := env.service.CreateSession(ctx, "en")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	opened, err := env.service.SelectTemplate(ctx, first.ID, tpl.ID)
	if err != nil {
		t.Fatalf("SelectTemplate failed: %v", err)
	}
	live := *opened.Document
	if live.ID == tpl.ID || live.ID == "" {
		t.Fatalf("expected a fresh document id, got %q", live.ID)
	}
	live.ID = tpl.ID
	if !reflect.DeepEqual(live, tpl) {
		t.Fatalf("expected the live document to match the template apart from its id")
	}

	if _, err := env.service.CloseDocument(ctx, first.ID); err != nil {
		t.Fatalf("CloseDocument failed: %v", err)
	}
	reopened, err := env.service.SelectTemplate(ctx, first.ID, tpl.ID)
	if err != nil {
		t.Fatalf("SelectTemplate failed: %v", err)
	}
	second, err := env.service.CreateSession(ctx, "en")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	other, err := env.service.SelectTemplate(ctx, second.ID, tpl.ID)
	if err != nil {
		t.Fatalf("SelectTemplate failed: %v", err)
	}
	if reopened.Document.ID == opened.Document.ID || other.Document.ID == reopened.Document.ID {
		t.Fatalf("expected distinct ids per opening, got %q %q %q", opened.Document.ID, reopened.Document.ID, other.Document.ID)
	}

	again, err := env.service.catalog.Get(ctx, tpl.ID)
	if err != nil || again.ID != "seed-hot-work" {
		t.Fatalf("expected the template to keep its id, got %q (%v)", again.ID, err)
	}
}

func TestGeneratePanicClearsLoading(t *testing.T) {
	env := newTestEnv(t)
	env.generator.panics = true
	ctx := context.Background()
	created, err := env.service.CreateSession(ctx, "en")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected the generator panic to propagate")
			}
		}()
		_, _ = env.service.Generate(ctx, created.ID, "Pipe rack inspection")
	}()

	state, err := env.service.GetSession(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if state.Loading || state.Mode != session.ModeSearch || state.Notice == "" {
		t.Fatalf("expected an idle search session with a notice, got %+v", state)
	}

	env.generator.panics = false
	state, err = env.service.Generate(ctx, created.ID, "Pipe rack inspection")
	if err != nil {
		t.Fatalf("Generate after a crash failed: %v", err)
	}
	if state.Mode != session.ModeEdit {
		t.Fatalf("expected edit mode, got %s", state.Mode)
	}
}
