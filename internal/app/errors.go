package app

import (
	"errors"
	"fmt"
	"net/http"

	"jsa/api/internal/catalog"
	"jsa/api/internal/export"
	"jsa/api/internal/jsa"
	"jsa/api/internal/layout"
	"jsa/api/internal/session"
	"jsa/api/internal/signature"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func validation(err error) *DomainError {
	return &DomainError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "VALIDATION_ERROR",
		Message: err.Error(),
		Err:     err,
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var readiness *export.ReadinessError
	if errors.As(err, &readiness) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Document is not ready for export", readiness.Issues
	}
	switch {
	case errors.Is(err, jsa.ErrInvalidRiskInput):
		return http.StatusUnprocessableEntity, "INVALID_RISK_INPUT", err.Error(), nil
	case errors.Is(err, jsa.ErrIndexOutOfRange):
		return http.StatusUnprocessableEntity, "INDEX_OUT_OF_RANGE", err.Error(), nil
	case errors.Is(err, jsa.ErrInvalidControlType),
		errors.Is(err, jsa.ErrUnknownField),
		errors.Is(err, jsa.ErrInvalidLanguage),
		errors.Is(err, jsa.ErrInvalidDocument),
		errors.Is(err, layout.ErrInvalidLimits),
		errors.Is(err, signature.ErrInvalidImage),
		errors.Is(err, signature.ErrInvalidSize),
		errors.Is(err, signature.ErrEmptyName):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "BUSY", "A generation request is already in progress", nil
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Session not found", nil
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Template not found", nil
	case errors.Is(err, export.ErrExportUnavailable):
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available on this server", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
