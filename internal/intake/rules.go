package intake

import (
	"regexp"

	"regdesk/internal/catalog"
	"regdesk/internal/common/errors"
)

var (
	mobilePattern     = regexp.MustCompile(`^[6-9]\d{9}$`)
	nationalIDPattern = regexp.MustCompile(`^\d{12}$`)
)

// ValidationResult is either OK or names the first failing field.
type ValidationResult struct {
	OK      bool
	Field   FieldID
	Message string
}

// Err converts a failed result into a LOCAL_VALIDATION error.
func (r ValidationResult) Err() error {
	if r.OK {
		return nil
	}
	return errors.NewLocalValidationError(string(r.Field), r.Message)
}

type rule struct {
	field   FieldID
	message string
	pass    func(d *Draft) bool
}

// Order matters: the first failing rule is the one reported. Emptiness checks
// do not trim, so a name of only spaces passes.
var rules = []rule{
	{FieldFullName, "Please enter full name", func(d *Draft) bool { return d.FullName != "" }},
	{FieldVillage, "Please enter village", func(d *Draft) bool { return d.Village != "" }},
	{FieldDistrict, "Please select district", func(d *Draft) bool { return d.DistrictID != "" }},
	{FieldBlock, "Please select block", func(d *Draft) bool { return d.BlockID != "" }},
	{FieldCategory, "Please select category", func(d *Draft) bool { return d.Category != "" }},
	{FieldMobile, "Mobile number must be 10 digits", func(d *Draft) bool { return len(d.Mobile) == MobileLength }},
	{FieldMobile, "Please enter a valid mobile number", func(d *Draft) bool { return mobilePattern.MatchString(d.Mobile) }},
	{FieldNationalID, "Aadhaar number must be 12 digits", func(d *Draft) bool { return len(d.NationalID) == NationalIDLength }},
	{FieldNationalID, "Aadhaar number must contain only digits", func(d *Draft) bool { return nationalIDPattern.MatchString(d.NationalID) }},
}

// Validator runs the fixed rules and, when it has a catalogue, membership
// checks against it. Catalogue checks come after the fixed rules.
type Validator struct {
	catalog *catalog.Catalog
}

// NewValidator binds a catalogue. A nil catalogue skips membership checks.
func NewValidator(cat *catalog.Catalog) *Validator {
	return &Validator{catalog: cat}
}

// Validate applies the fixed rules and the photo size limit, without a catalogue.
func Validate(d Draft) ValidationResult {
	return (*Validator)(nil).Validate(d)
}

func (v *Validator) Validate(d Draft) ValidationResult {
	for _, r := range rules {
		if !r.pass(&d) {
			return ValidationResult{Field: r.field, Message: r.message}
		}
	}
	for _, r := range v.extraRules() {
		if !r.pass(&d) {
			return ValidationResult{Field: r.field, Message: r.message}
		}
	}
	return ValidationResult{OK: true}
}

// CheckField runs only the rules for one field, for on-blur feedback.
func (v *Validator) CheckField(d Draft, field FieldID) ValidationResult {
	for _, r := range append(append([]rule(nil), rules...), v.extraRules()...) {
		if r.field == field && !r.pass(&d) {
			return ValidationResult{Field: r.field, Message: r.message}
		}
	}
	return ValidationResult{OK: true}
}

func (v *Validator) extraRules() []rule {
	var out []rule
	if v != nil && v.catalog != nil {
		cat := v.catalog
		out = append(out,
			rule{FieldDistrict, "Please select a valid district", func(d *Draft) bool {
				return cat.HasDistrict(d.DistrictID)
			}},
			rule{FieldBlock, "Selected block does not belong to the district", func(d *Draft) bool {
				return cat.HasBlock(d.DistrictID, d.BlockID)
			}},
			rule{FieldCategory, "Please select a valid category", func(d *Draft) bool {
				return cat.HasCategory(d.Category)
			}},
		)
	}
	return append(out, rule{FieldPhoto, "Photo must be 5 MB or smaller", func(d *Draft) bool {
		return d.Photo.Size() <= MaxPhotoBytes
	}})
}
