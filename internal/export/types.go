// Package export rasterizes laid-out JSA pages and assembles them into a PDF.
package export

import (
	"context"
	"errors"

	"jsa/api/internal/jsa"
	"jsa/api/internal/layout"
)

const MimePDF = "application/pdf"

// Job is one export request: the document, the two printed signatures and the
// header date.
type Job struct {
	Document   jsa.Document
	Language   jsa.Language
	Creator    jsa.SignatureRecord
	Supervisor jsa.SignatureRecord
	Date       string
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
	Pages    int
	// URL is set when the file was also stored as an artifact.
	URL string
}

// Rasterizer turns rendered pages into images and images into a document.
// Capture must process pages in order.
type Rasterizer interface {
	Capture(ctx context.Context, pages []string, geometry layout.Geometry) ([][]byte, error)
	Assemble(ctx context.Context, images [][]byte, geometry layout.Geometry) ([]byte, error)
}

var (
	// ErrExportUnavailable indicates the rasterizer runtime is missing.
	ErrExportUnavailable = errors.New("export unavailable")
	// ErrNotExportReady indicates a document that cannot be printed yet.
	ErrNotExportReady = errors.New("document not export ready")
	// ErrRasterize indicates a capture or assembly failure.
	ErrRasterize = errors.New("rasterize failed")
)
