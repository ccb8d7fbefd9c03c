package jsa

import "errors"

var (
	// ErrInvalidRiskInput indicates a likelihood or severity outside 1..5.
	ErrInvalidRiskInput = errors.New("invalid risk input")
	// ErrIndexOutOfRange indicates a collection operation on a position that does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidControlType indicates a control type other than PPE, PROCEDURE or STANDARD.
	ErrInvalidControlType = errors.New("invalid control type")
	// ErrUnknownField indicates an edit naming a field or collection that does not exist.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidLanguage indicates a language code other than en, fr or ar.
	ErrInvalidLanguage = errors.New("invalid language")
	// ErrInvalidDocument indicates a document that violates a structural invariant.
	ErrInvalidDocument = errors.New("invalid document")
)
