package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jsa/api/internal/session"
)

const maxBodyBytes = 4 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "artifacts": s.service.ArtifactsEnabled()})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/templates" {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err := s.service.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/projects" {
		items, err := s.service.Projects(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/locations" {
		items, err := s.service.Locations(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/sessions" {
		var body struct {
			Language string `json:"language"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		state, err := s.service.CreateSession(r.Context(), body.Language)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, state)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "sessions" {
		s.handleSession(w, r, parts[2], parts[3:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{}
	for name, err := range s.service.Ping(ctx) {
		if err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks[name] = map[string]any{"status": "error", "error": err.Error()}
			continue
		}
		checks[name] = map[string]any{"status": "ok"}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request, id string, rest []string) {
	ctx := r.Context()
	route := strings.Join(rest, "/")

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		s.respond(w)(s.service.GetSession(ctx, id))
	case len(rest) == 0 && r.Method == http.MethodDelete:
		if err := s.service.DeleteSession(ctx, id); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case route == "language" && r.Method == http.MethodPut:
		var body struct {
			Language string `json:"language"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		s.respond(w)(s.service.SetLanguage(ctx, id, body.Language))

	case route == "select" && r.Method == http.MethodPost:
		var body struct {
			TemplateID string `json:"templateId"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		s.respond(w)(s.service.SelectTemplate(ctx, id, body.TemplateID))

	case route == "generate" && r.Method == http.MethodPost:
		var body struct {
			JobTitle string `json:"jobTitle"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		s.respond(w)(s.service.Generate(ctx, id, body.JobTitle))

	case route == "edits" && r.Method == http.MethodPost:
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "unreadable body", nil)
			return
		}
		s.respond(w)(s.service.ApplyEdit(ctx, id, payload))

	case route == "tab" && r.Method == http.MethodPut:
		var body struct {
			Tab string `json:"tab"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		s.respond(w)(s.service.SetTab(ctx, id, body.Tab))

	case route == "preview" && r.Method == http.MethodPost:
		s.respond(w)(s.service.Preview(ctx, id))
	case route == "edit" && r.Method == http.MethodPost:
		s.respond(w)(s.service.Back(ctx, id))
	case route == "close" && r.Method == http.MethodPost:
		s.respond(w)(s.service.CloseDocument(ctx, id))

	case len(rest) == 2 && rest[0] == "signatures" && r.Method == http.MethodPut:
		var body SignatureInput
		if !s.decode(w, r, &body) {
			return
		}
		s.respond(w)(s.service.UpdateSignature(ctx, id, rest[1], body))

	case len(rest) == 3 && rest[0] == "signatures" && rest[2] == "strokes" && r.Method == http.MethodPost:
		var body StrokeInput
		if !s.decode(w, r, &body) {
			return
		}
		s.respond(w)(s.service.ReplayStrokes(ctx, id, rest[1], body))

	case len(rest) == 3 && rest[0] == "signatures" && rest[2] == "preview" && r.Method == http.MethodGet:
		png, err := s.service.SignaturePreview(ctx, id, rest[1])
		if err != nil {
			s.fail(w, err)
			return
		}
		writeBytes(w, "image/png", png)

	case route == "pages" && r.Method == http.MethodGet:
		pages, err := s.service.Pages(ctx, id)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pages": pages})

	case len(rest) == 2 && rest[0] == "pages" && r.Method == http.MethodGet:
		n, err := strconv.Atoi(rest[1])
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PAGE", "page must be a number", nil)
			return
		}
		html, err := s.service.PageHTML(ctx, id, n)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeBytes(w, "text/html; charset=utf-8", []byte(html))

	case route == "export" && r.Method == http.MethodPost:
		s.handleExport(w, r, id)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	}
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, id string) {
	store := r.URL.Query().Get("store") == "true"
	result, err := s.service.Export(r.Context(), id, store)
	if err != nil {
		s.fail(w, err)
		return
	}
	if result.URL != "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"url":      result.URL,
			"filename": result.Filename,
			"pages":    result.Pages,
		})
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	writeBytes(w, result.MimeType, result.Data)
}

func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeBody(r, target); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return false
	}
	return true
}

// respond writes the session state returned by a service call, or its error.
func (s *HTTPServer) respond(w http.ResponseWriter) func(*session.State, error) {
	return func(state *session.State, err error) {
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func (s *HTTPServer) fail(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Printf("http: %s: %v", code, err)
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
