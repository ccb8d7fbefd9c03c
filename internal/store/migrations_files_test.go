package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestMigrationsHaveMatchingUpAndDownFiles(t *testing.T) {
	migrationsDir := filepath.Join("..", "..", "db", "migrations")
	migrations, err := LoadMigrations(os.DirFS(migrationsDir))
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("no migrations discovered")
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i-1].Version >= migrations[i].Version {
			t.Fatalf("migrations out of order: %s before %s", migrations[i-1].Version, migrations[i].Version)
		}
	}
}

func TestTemplatesMigrationCreatesCatalogTable(t *testing.T) {
	sqlBytes, err := os.ReadFile(filepath.Join("..", "..", "db", "migrations", "0001_jsa_templates.up.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sqlText := string(sqlBytes)
	for _, snippet := range []string{"CREATE TABLE IF NOT EXISTS jsa_templates", "body JSONB NOT NULL", "title_ar"} {
		if !strings.Contains(sqlText, snippet) {
			t.Fatalf("expected migration to contain %q", snippet)
		}
	}
}

func TestLoadMigrationsRejectsMissingDown(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.up.sql":   {Data: []byte("SELECT 1")},
		"0001_a.down.sql": {Data: []byte("SELECT 1")},
		"0002_b.up.sql":   {Data: []byte("SELECT 1")},
		"README.md":       {Data: []byte("ignored")},
	}
	if _, err := LoadMigrations(fsys); err == nil {
		t.Fatal("expected error for version without a down file")
	}

	delete(fsys, "0002_b.up.sql")
	migrations, err := LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(migrations) != 1 || migrations[0].Up != "0001_a.up.sql" || migrations[0].Down != "0001_a.down.sql" {
		t.Fatalf("unexpected migrations %+v", migrations)
	}
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"height":     "height",
		" 100% tie ": `100\% tie`,
		"work_order": `work\_order`,
		`back\slash`: `back\\slash`,
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}
