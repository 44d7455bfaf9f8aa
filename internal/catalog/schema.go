package catalog

// documentSchema constrains catalogue files before they are trusted.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["districts", "categories"],
  "properties": {
    "version": {"type": "string"},
    "districts": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name", "blocks"],
        "properties": {
          "id":   {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "blocks": {
            "type": "array",
            "minItems": 1,
            "uniqueItems": true,
            "items": {"type": "string", "minLength": 1}
          }
        },
        "additionalProperties": false
      }
    },
    "categories": {
      "type": "array",
      "minItems": 1,
      "uniqueItems": true,
      "items": {"type": "string", "minLength": 1}
    }
  },
  "additionalProperties": false
}`
