package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"jsa/api/internal/jsa"
)

// TemplateStore reads and seeds the jsa_templates, jsa_locations and
// jsa_projects tables.
type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) DB() *sql.DB {
	return s.db
}

func (s *TemplateStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *TemplateStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jsa_templates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return n, nil
}

func (s *TemplateStore) List(ctx context.Context) ([]jsa.Document, error) {
	return s.query(ctx, `SELECT body FROM jsa_templates ORDER BY position`)
}

// Search is a case-insensitive substring match over the three titles, in
// catalog order. A blank query matches nothing.
func (s *TemplateStore) Search(ctx context.Context, text string, limit int) ([]jsa.Document, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []jsa.Document{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(text) + "%"
	return s.query(ctx, `
		SELECT body FROM jsa_templates
		WHERE title_en ILIKE $1 OR title_fr ILIKE $1 OR title_ar ILIKE $1
		ORDER BY position
		LIMIT $2
	`, pattern, limit)
}

func (s *TemplateStore) Get(ctx context.Context, id string) (jsa.Document, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM jsa_templates WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return jsa.Document{}, ErrNotFound
	}
	if err != nil {
		return jsa.Document{}, fmt.Errorf("get template %s: %w", id, err)
	}
	return decodeTemplate(body)
}

// First returns the template with the lowest position, or ErrNotFound on an
// empty catalog.
func (s *TemplateStore) First(ctx context.Context) (jsa.Document, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM jsa_templates ORDER BY position LIMIT 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return jsa.Document{}, ErrNotFound
	}
	if err != nil {
		return jsa.Document{}, fmt.Errorf("first template: %w", err)
	}
	return decodeTemplate(body)
}

// Seed inserts the templates in the given order. Existing ids are left alone.
func (s *TemplateStore) Seed(ctx context.Context, docs []jsa.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal template %s: %w", doc.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO jsa_templates (id, position, title_en, title_fr, title_ar, category, body)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`, doc.ID, i, doc.Title.EN, doc.Title.FR, doc.Title.AR, doc.Category, body); err != nil {
			return fmt.Errorf("insert template %s: %w", doc.ID, err)
		}
	}
	return tx.Commit()
}

func (s *TemplateStore) Locations(ctx context.Context) ([]jsa.Location, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, emergency_phone, muster_point FROM jsa_locations ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []jsa.Location
	for rows.Next() {
		var loc jsa.Location
		if err := rows.Scan(&loc.Name, &loc.EmergencyPhone, &loc.MusterPoint); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (s *TemplateStore) Projects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM jsa_projects ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// SeedDirectory fills the location and project tables when they are empty.
func (s *TemplateStore) SeedDirectory(ctx context.Context, locations []jsa.Location, projects []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin directory tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, loc := range locations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO jsa_locations (name, position, emergency_phone, muster_point)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO NOTHING
		`, loc.Name, i, loc.EmergencyPhone, loc.MusterPoint); err != nil {
			return fmt.Errorf("insert location %s: %w", loc.Name, err)
		}
	}
	for i, name := range projects {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO jsa_projects (name, position) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, name, i); err != nil {
			return fmt.Errorf("insert project %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (s *TemplateStore) query(ctx context.Context, query string, args ...any) ([]jsa.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var out []jsa.Document
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		doc, err := decodeTemplate(body)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func decodeTemplate(body []byte) (jsa.Document, error) {
	var doc jsa.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return jsa.Document{}, fmt.Errorf("decode template: %w", err)
	}
	return doc, nil
}

func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.TrimSpace(value))
}
