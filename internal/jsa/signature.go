package jsa

import "fmt"

type SignerRole string

const (
	SignerCreator    SignerRole = "creator"
	SignerSupervisor SignerRole = "supervisor"
	SignerManager    SignerRole = "manager"
)

func ParseSignerRole(value string) (SignerRole, error) {
	switch role := SignerRole(value); role {
	case SignerCreator, SignerSupervisor, SignerManager:
		return role, nil
	default:
		return "", fmt.Errorf("%w: signer %q", ErrUnknownField, value)
	}
}

// SignatureRecord is what one signer supplied. Image is a PNG data URI or nil;
// a typed Name with no Image is rendered as a stylized name at display time.
type SignatureRecord struct {
	Name  string  `json:"name"`
	Role  string  `json:"role"`
	Date  string  `json:"date"`
	Image *string `json:"signatureImage"`
}

func (r SignatureRecord) HasImage() bool {
	return r.Image != nil && *r.Image != ""
}

// WithImage stores a committed pad image; an empty image clears the signature.
func (r SignatureRecord) WithImage(image string) SignatureRecord {
	if image == "" {
		r.Image = nil
		return r
	}
	r.Image = &image
	return r
}
