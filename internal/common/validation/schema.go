// Package validation checks workflow job variables against a declared schema
// before a worker acts on them.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// JSONSchema describes the variables a worker accepts.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Pattern     *string  `json:"pattern,omitempty"`
	MinLength   *int     `json:"minLength,omitempty"`
	MaxLength   *int     `json:"maxLength,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

// ValidateInput validates job variables against schema. Errors are reported
// in a stable field order.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	var errs []ValidationError

	for _, field := range schema.Required {
		if v, ok := input[field]; !ok || v == nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := input[name]
		prop, ok := schema.Properties[name]
		if !ok {
			if !schema.AdditionalProperties {
				errs = append(errs, ValidationError{
					Field:   name,
					Message: "field not allowed in schema",
					Code:    "EXTRA_FIELD",
				})
			}
			continue
		}
		if value == nil {
			continue
		}
		errs = append(errs, validateField(name, value, prop)...)
	}

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func validateField(name string, value interface{}, prop Property) []ValidationError {
	if err := validateType(value, prop.Type); err != nil {
		return []ValidationError{{Field: name, Message: err.Error(), Code: "INVALID_TYPE"}}
	}

	str, ok := value.(string)
	if !ok {
		return nil
	}

	var errs []ValidationError
	if prop.MinLength != nil && len(str) < *prop.MinLength {
		errs = append(errs, ValidationError{
			Field:   name,
			Message: fmt.Sprintf("value must be at least %d characters", *prop.MinLength),
			Code:    "MIN_LENGTH_VIOLATION",
		})
	}
	if prop.MaxLength != nil && len(str) > *prop.MaxLength {
		errs = append(errs, ValidationError{
			Field:   name,
			Message: fmt.Sprintf("value must be at most %d characters", *prop.MaxLength),
			Code:    "MAX_LENGTH_VIOLATION",
		})
	}
	if prop.Pattern != nil {
		re, err := compile(*prop.Pattern)
		if err != nil || !re.MatchString(str) {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: fmt.Sprintf("value must match pattern %s", *prop.Pattern),
				Code:    "PATTERN_MISMATCH",
			})
		}
	}
	if len(prop.Enum) > 0 && !contains(prop.Enum, str) {
		errs = append(errs, ValidationError{
			Field:   name,
			Message: fmt.Sprintf("value must be one of %v", prop.Enum),
			Code:    "INVALID_ENUM_VALUE",
		})
	}
	return errs
}

// validateType accepts the shapes produced by decoding job variables from JSON.
func validateType(value interface{}, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("expected number, got %T", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	}
	return nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok := patternCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache[pattern] = re
	return re, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var taskTypePattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)

// ValidateTaskType checks the domain.subdomain.action naming of job types.
func ValidateTaskType(taskType string) error {
	if !taskTypePattern.MatchString(taskType) {
		return fmt.Errorf("task type %q must follow domain.subdomain.action", taskType)
	}
	return nil
}

// GetErrorMessages returns "field: message" for every error.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

func StringPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }
