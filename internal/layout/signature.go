package layout

import (
	"strings"

	"jsa/api/internal/jsa"
)

type SignatureKind string

const (
	SignatureImage SignatureKind = "image"
	SignatureTyped SignatureKind = "typed"
	SignatureBlank SignatureKind = "blank"
)

// Signature is what a signer slot shows on paper.
type Signature struct {
	Kind  SignatureKind `json:"kind"`
	Image string        `json:"image,omitempty"`
	Name  string        `json:"name"`
	Role  string        `json:"role"`
	Date  string        `json:"date"`
}

// EffectiveSignature picks the drawn image, then the typed name, then nothing.
func EffectiveSignature(rec jsa.SignatureRecord) Signature {
	sig := Signature{
		Kind: SignatureBlank,
		Name: strings.TrimSpace(rec.Name),
		Role: rec.Role,
		Date: rec.Date,
	}
	switch {
	case rec.HasImage():
		sig.Kind = SignatureImage
		sig.Image = *rec.Image
	case sig.Name != "":
		sig.Kind = SignatureTyped
	}
	return sig
}
