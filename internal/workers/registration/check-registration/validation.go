package checkregistration

import "regdesk/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"aadhaar"},
		Properties: map[string]validation.Property{
			"aadhaar": {
				Type:        "string",
				Description: "National identifier to look up, non-digits are dropped",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(32),
			},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"registrationFound": {Type: "boolean", Description: "Whether the identifier is registered"},
			"registrationCode":  {Type: "string", Description: "Code of the stored registration"},
			"registration":      {Type: "object", Description: "Stored registration projection"},
			"lookupMessage":     {Type: "string", Description: "Message shown when nothing was found"},
		},
	}
}

func intPtr(i int) *int {
	return &i
}
