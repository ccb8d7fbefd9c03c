package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"jsa/api/internal/jsa"
)

const idxTemplates = "jsa_templates"

// TemplateRecord is the data we index for a template.
type TemplateRecord struct {
	ID       string   `json:"id"`
	TitleEN  string   `json:"titleEn"`
	TitleFR  string   `json:"titleFr"`
	TitleAR  string   `json:"titleAr"`
	Category string   `json:"category"`
	Hazards  []string `json:"hazards"`
}

func RecordOf(doc jsa.Document) TemplateRecord {
	hazards := make([]string, 0, len(doc.Hazards))
	for _, h := range doc.Hazards {
		hazards = append(hazards, h.Description)
	}
	return TemplateRecord{
		ID:       doc.ID,
		TitleEN:  doc.Title.EN,
		TitleFR:  doc.Title.FR,
		TitleAR:  doc.Title.AR,
		Category: doc.Category,
		Hazards:  hazards,
	}
}

// Index is a ranked full-text template index.
type Index interface {
	Healthy() bool
	SearchIDs(query string, limit int) ([]string, error)
	IndexTemplates(records []TemplateRecord) error
}

// Meili implements Index via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the template index.
// An unreachable server leaves the client unhealthy; the health loop keeps
// probing.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("catalog: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxTemplates,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("catalog: create index %s (may already exist): %v", idxTemplates, err)
	}

	index := m.client.Index(idxTemplates)
	filterable := []interface{}{"category"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("catalog: update filterable attrs for %s: %v", idxTemplates, err)
	}
	searchable := []string{"titleEn", "titleFr", "titleAr", "hazards"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("catalog: update searchable attrs for %s: %v", idxTemplates, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("catalog: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// SearchIDs returns matching template ids in rank order.
func (m *Meili) SearchIDs(query string, limit int) ([]string, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID:             idxTemplates,
			Query:                query,
			Limit:                int64(limitOf(limit)),
			AttributesToRetrieve: []string{"id"},
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	var ids []string
	for _, sr := range resp.Results {
		for _, hit := range sr.Hits {
			if id := decodeString(hit, "id"); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// IndexTemplates bulk-indexes template records.
func (m *Meili) IndexTemplates(records []TemplateRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxTemplates).AddDocuments(records, nil)
	return err
}
