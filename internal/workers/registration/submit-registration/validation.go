package submitregistration

import "regdesk/internal/common/validation"

// GetInputSchema only checks shape. Field rules and their messages belong to
// the intake validator, so empty strings are allowed through here.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"name", "village", "district", "block", "mobile", "aadhaar", "category"},
		Properties: map[string]validation.Property{
			"name": {
				Type:        "string",
				Description: "Registrant full name",
				MaxLength:   intPtr(200),
			},
			"village": {
				Type:        "string",
				Description: "Village of residence",
				MaxLength:   intPtr(200),
			},
			"district": {
				Type:        "string",
				Description: "District identifier",
				MaxLength:   intPtr(100),
			},
			"block": {
				Type:        "string",
				Description: "Block within the district",
				MaxLength:   intPtr(100),
			},
			"mobile": {
				Type:        "string",
				Description: "Mobile number, non-digits are dropped",
				MaxLength:   intPtr(32),
			},
			"aadhaar": {
				Type:        "string",
				Description: "National identifier, non-digits are dropped",
				MaxLength:   intPtr(32),
			},
			"category": {
				Type:        "string",
				Description: "Registrant category",
				MaxLength:   intPtr(100),
			},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"registrationSubmitted": {
				Type:        "boolean",
				Description: "Whether the backend stored the registration",
			},
			"registrationMessage": {
				Type:        "string",
				Description: "Success notice or normalized failure message",
			},
			"registrationCode": {
				Type:        "string",
				Description: "Code printed on the entry pass",
			},
		},
	}
}

func intPtr(i int) *int {
	return &i
}
