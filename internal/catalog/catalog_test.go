package catalog

import (
	"context"
	"errors"
	"testing"

	"jsa/api/internal/jsa"
)

func loadStatic(t *testing.T) *Static {
	t.Helper()
	seeds, err := LoadSeeds()
	if err != nil {
		t.Fatalf("LoadSeeds failed: %v", err)
	}
	return NewStatic(seeds)
}

func TestLoadSeeds(t *testing.T) {
	seeds, err := LoadSeeds()
	if err != nil {
		t.Fatalf("LoadSeeds failed: %v", err)
	}
	if len(seeds.Templates) < 3 || len(seeds.Locations) == 0 || len(seeds.Projects) == 0 {
		t.Fatalf("unexpected seed sizes: %d templates, %d locations, %d projects",
			len(seeds.Templates), len(seeds.Locations), len(seeds.Projects))
	}
	for _, doc := range seeds.Templates {
		if err := doc.Validate(); err != nil {
			t.Errorf("seed %s invalid: %v", doc.ID, err)
		}
		if issues := doc.ExportIssues(); len(issues) != 0 {
			t.Errorf("seed %s not export ready: %v", doc.ID, issues)
		}
		if len(doc.Locations) != len(seeds.Locations) {
			t.Errorf("seed %s missing directory locations", doc.ID)
		}
	}
}

func TestParseSeedsRecomputesRisk(t *testing.T) {
	data := []byte(`{"templates":[{"id":"x","initialRisk":{"likelihood":3,"severity":5,"score":1,"level":"LOW"},
		"residualRisk":{"likelihood":1,"severity":2}}]}`)
	seeds, err := ParseSeeds(data)
	if err != nil {
		t.Fatalf("ParseSeeds failed: %v", err)
	}
	got := seeds.Templates[0].InitialRisk
	if got.Score != 15 || got.Level != jsa.RiskExtreme {
		t.Errorf("expected 15/EXTREME, got %+v", got)
	}

	if _, err := ParseSeeds([]byte(`{"templates":[{"id":"x","initialRisk":{"likelihood":9,"severity":1}}]}`)); !errors.Is(err, jsa.ErrInvalidRiskInput) {
		t.Errorf("expected ErrInvalidRiskInput, got %v", err)
	}
}

func TestStaticSearch(t *testing.T) {
	c := loadStatic(t)
	ctx := context.Background()

	cases := []struct {
		query string
		want  string
	}{
		{"height", "seed-working-at-height"},
		{"HAUTEUR", "seed-working-at-height"},
		{"اللحام", "seed-hot-work"},
		{"confined", "seed-confined-space"},
	}
	for _, tc := range cases {
		docs, err := c.Search(ctx, tc.query, 10)
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", tc.query, err)
		}
		if len(docs) != 1 || docs[0].ID != tc.want {
			t.Errorf("Search(%q): expected %s, got %d results", tc.query, tc.want, len(docs))
		}
	}

	docs, _ := c.Search(ctx, "   ", 10)
	if len(docs) != 0 {
		t.Errorf("expected no suggestions for a blank query, got %d", len(docs))
	}
	docs, _ = c.Search(ctx, "e", 1)
	if len(docs) != 1 {
		t.Errorf("expected limit to cap results, got %d", len(docs))
	}
}

func TestStaticReturnsClones(t *testing.T) {
	c := loadStatic(t)
	ctx := context.Background()

	doc, err := c.Get(ctx, "seed-hot-work")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	doc.Hazards[0].Description = "mutated"
	again, _ := c.Get(ctx, "seed-hot-work")
	if again.Hazards[0].Description == "mutated" {
		t.Fatal("template mutated through a returned copy")
	}

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	fallback, err := c.Fallback(ctx)
	if err != nil || fallback == nil || fallback.ID != "seed-working-at-height" {
		t.Fatalf("expected first seed as fallback, got %v (%v)", fallback, err)
	}

	empty := NewStatic(Seeds{})
	if fb, err := empty.Fallback(ctx); err != nil || fb != nil {
		t.Errorf("expected nil fallback for empty catalog, got %v (%v)", fb, err)
	}
}

func TestProjects(t *testing.T) {
	c := loadStatic(t)
	ctx := context.Background()

	all, _ := c.Projects(ctx, "")
	jorf, _ := c.Projects(ctx, "jorf")
	if len(all) != 6 {
		t.Errorf("expected all 6 projects for empty query, got %d", len(all))
	}
	if len(jorf) != 2 {
		t.Errorf("expected 2 Jorf Lasfar projects, got %v", jorf)
	}
	none, _ := c.Projects(ctx, "nowhere")
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil list, got %v", none)
	}

	locations, _ := c.Locations(ctx)
	locations[0].Name = "changed"
	again, _ := c.Locations(ctx)
	if again[0].Name == "changed" {
		t.Error("directory mutated through a returned copy")
	}
}

type fakeIndex struct {
	healthy  bool
	ids      []string
	err      error
	indexed  []TemplateRecord
	searched int
}

func (f *fakeIndex) Healthy() bool { return f.healthy }

func (f *fakeIndex) SearchIDs(string, int) ([]string, error) {
	f.searched++
	return f.ids, f.err
}

func (f *fakeIndex) IndexTemplates(records []TemplateRecord) error {
	f.indexed = append(f.indexed, records...)
	return nil
}

func TestIndexedUsesIndexRanking(t *testing.T) {
	idx := &fakeIndex{healthy: true, ids: []string{"seed-hot-work", "gone", "seed-working-at-height"}}
	c := NewIndexed(loadStatic(t), idx)

	docs, err := c.Search(context.Background(), "welding", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "seed-hot-work" || docs[1].ID != "seed-working-at-height" {
		t.Fatalf("expected index order with stale id skipped, got %v", docs)
	}
}

func TestIndexedFallsBack(t *testing.T) {
	ctx := context.Background()

	failing := &fakeIndex{healthy: true, err: errors.New("boom")}
	docs, err := NewIndexed(loadStatic(t), failing).Search(ctx, "height", 10)
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected substring fallback on index error, got %v (%v)", docs, err)
	}

	down := &fakeIndex{healthy: false, ids: []string{"seed-hot-work"}}
	docs, _ = NewIndexed(loadStatic(t), down).Search(ctx, "height", 10)
	if down.searched != 0 || len(docs) != 1 || docs[0].ID != "seed-working-at-height" {
		t.Fatalf("expected unhealthy index to be skipped, got %v", docs)
	}

	docs, _ = NewIndexed(loadStatic(t), nil).Search(ctx, "height", 10)
	if len(docs) != 1 {
		t.Fatalf("expected nil index to use substring search, got %v", docs)
	}
}

func TestIndexedBlankQuery(t *testing.T) {
	idx := &fakeIndex{healthy: true, ids: []string{"seed-hot-work", "seed-working-at-height"}}
	c := NewIndexed(loadStatic(t), idx)
	for _, q := range []string{"", "  \t"} {
		docs, err := c.Search(context.Background(), q, 10)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if docs == nil || len(docs) != 0 {
			t.Fatalf("expected an empty result for %q, got %v", q, docs)
		}
	}
	if idx.searched != 0 {
		t.Errorf("expected the index not to be queried, got %d searches", idx.searched)
	}

	docs, err := NewIndexed(loadStatic(t), nil).Search(context.Background(), "  height ", 10)
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected a padded query to be trimmed, got %v (%v)", docs, err)
	}
}

func TestReindex(t *testing.T) {
	idx := &fakeIndex{healthy: true}
	c := NewIndexed(loadStatic(t), idx)
	c.Reindex(context.Background())
	if len(idx.indexed) != 3 {
		t.Fatalf("expected 3 records indexed, got %d", len(idx.indexed))
	}
	rec := idx.indexed[0]
	if rec.ID != "seed-working-at-height" || rec.TitleFR != "Travail en hauteur" || len(rec.Hazards) == 0 {
		t.Errorf("unexpected record %+v", rec)
	}
}
