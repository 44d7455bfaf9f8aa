// Package intake implements the registration form: the draft, its ordered
// validation rules and the Editing/Reviewing/Submitting state machine.
package intake

import (
	"regdesk/internal/common/errors"
	"regdesk/internal/models"
)

const (
	MobileLength     = 10
	NationalIDLength = 12

	// MaxPhotoBytes is the largest photo accepted with a registration.
	MaxPhotoBytes = 5 << 20
)

// FieldID names a draft field in validation results.
type FieldID string

const (
	FieldFullName   FieldID = "fullName"
	FieldVillage    FieldID = "village"
	FieldDistrict   FieldID = "districtId"
	FieldBlock      FieldID = "blockId"
	FieldCategory   FieldID = "category"
	FieldMobile     FieldID = "mobile"
	FieldNationalID FieldID = "nationalId"
	FieldPhoto      FieldID = "photo"
)

// Draft is the in-progress registration held at the desk until submission.
// Use the setters for district, mobile and national ID so the block and digit
// invariants hold.
type Draft struct {
	FullName   string
	Village    string
	DistrictID string
	BlockID    string
	Mobile     string
	NationalID string
	Category   string
	Photo      *models.Photo
}

// SetDistrict selects a district. Choosing a different district clears the block.
func (d *Draft) SetDistrict(id string) {
	if id == d.DistrictID {
		return
	}
	d.DistrictID = id
	d.BlockID = ""
}

func (d *Draft) SetMobile(raw string) {
	d.Mobile = NormalizeDigits(raw, MobileLength)
}

func (d *Draft) SetNationalID(raw string) {
	d.NationalID = NormalizeDigits(raw, NationalIDLength)
}

// AttachPhoto sets the photo, rejecting anything over MaxPhotoBytes. A nil
// photo removes the current one.
func (d *Draft) AttachPhoto(p *models.Photo) error {
	if p.Size() > MaxPhotoBytes {
		return errors.NewPhotoTooLargeError(p.Size(), MaxPhotoBytes)
	}
	d.Photo = p
	return nil
}

// Reset empties the draft.
func (d *Draft) Reset() {
	*d = Draft{}
}

// Clone returns a copy that shares no photo metadata with d.
func (d Draft) Clone() Draft {
	if d.Photo != nil {
		p := *d.Photo
		d.Photo = &p
	}
	return d
}

// Request maps the draft onto the gateway's create payload.
func (d Draft) Request() models.CreateRegistrationRequest {
	return models.CreateRegistrationRequest{
		Name:       d.FullName,
		Village:    d.Village,
		District:   d.DistrictID,
		Block:      d.BlockID,
		Mobile:     d.Mobile,
		NationalID: d.NationalID,
		Category:   d.Category,
		Photo:      d.Photo,
	}
}
