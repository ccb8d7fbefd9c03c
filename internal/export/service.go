package export

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"jsa/api/internal/jsa"
	"jsa/api/internal/layout"
)

// ReadinessError lists why a document cannot be exported yet.
type ReadinessError struct {
	Issues []string
}

func (e *ReadinessError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotExportReady, strings.Join(e.Issues, "; "))
}

func (e *ReadinessError) Unwrap() error { return ErrNotExportReady }

// Service provides document export functionality
type Service struct {
	raster   Rasterizer
	geometry layout.Geometry
	limits   layout.Limits
}

// NewService creates a new export service
func NewService(raster Rasterizer, geometry layout.Geometry, limits layout.Limits) *Service {
	return &Service{raster: raster, geometry: geometry, limits: limits}
}

func (s *Service) Geometry() layout.Geometry { return s.geometry }
func (s *Service) Limits() layout.Limits     { return s.limits }

// Pages lays out a job without rasterizing it.
func (s *Service) Pages(job Job) ([]layout.Page, error) {
	return layout.Paginate(layout.Input{
		Document:   job.Document,
		Language:   job.Language,
		Creator:    job.Creator,
		Supervisor: job.Supervisor,
		Date:       job.Date,
		Limits:     s.limits,
	})
}

// Export renders every page, rasterizes them in order and returns the PDF.
// Nothing is returned unless every page was captured.
func (s *Service) Export(ctx context.Context, job Job) (*Result, error) {
	if s == nil || s.raster == nil {
		return nil, fmt.Errorf("%w: no rasterizer configured", ErrExportUnavailable)
	}
	if err := job.Document.Validate(); err != nil {
		return nil, err
	}
	if issues := job.Document.ExportIssues(); len(issues) > 0 {
		return nil, &ReadinessError{Issues: issues}
	}

	pages, err := s.Pages(job)
	if err != nil {
		return nil, err
	}
	rendered := make([]string, 0, len(pages))
	for _, p := range pages {
		html, err := layout.RenderHTML(p, s.geometry)
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, html)
	}

	started := time.Now()
	if opener, ok := s.raster.(BrowserOpener); ok {
		browserCtx, cancel, err := opener.Open(ctx)
		if err != nil {
			return nil, err
		}
		defer cancel()
		ctx = browserCtx
	}

	images, err := s.raster.Capture(ctx, rendered, s.geometry)
	if err != nil {
		return nil, err
	}
	if len(images) != len(rendered) {
		return nil, fmt.Errorf("%w: captured %d of %d pages", ErrRasterize, len(images), len(rendered))
	}
	data, err := s.raster.Assemble(ctx, images, s.geometry)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrRasterize)
	}

	log.Printf("export: document=%s pages=%d bytes=%d took=%s",
		job.Document.ID, len(pages), len(data), time.Since(started).Round(time.Millisecond))
	return &Result{
		Data:     data,
		Filename: Filename(job.Document.Title.In(jsa.LangEN)),
		MimeType: MimePDF,
		Pages:    len(pages),
	}, nil
}
