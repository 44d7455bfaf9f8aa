package models

// Photo is an optional participant picture attached to a registration.
type Photo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// Size returns the photo size in bytes.
func (p *Photo) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Data)
}

// CreateRegistrationRequest is the multipart payload sent to the backend.
type CreateRegistrationRequest struct {
	Name       string
	Village    string
	District   string
	Block      string
	Mobile     string
	NationalID string
	Category   string
	Photo      *Photo
}

// Registration is the stored projection the backend returns.
type Registration struct {
	Code       string `json:"qrCode"`
	Name       string `json:"name"`
	Mobile     string `json:"mobile"`
	NationalID string `json:"aadhaar"`
	Category   string `json:"category"`
	Village    string `json:"village"`
	District   string `json:"district"`
	Block      string `json:"block"`
	PhotoURL   string `json:"photoUrl,omitempty"`
}

// CheckResult answers whether a national identifier is already registered.
type CheckResult struct {
	Exists bool   `json:"exists"`
	Code   string `json:"qrCode,omitempty"`
}
