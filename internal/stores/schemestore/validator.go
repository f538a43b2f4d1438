// internal/stores/schemestore/validator.go
package schemestore

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	stderrors "yojana-workers/internal/common/errors"
)

// catalogSchema is the structural contract a scheme-catalog document must
// satisfy before any entry reaches the store. Semantic checks (min above
// max etc.) stay in the qualifier, which re-validates per call.
const catalogSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["schemes"],
  "properties": {
    "schemes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "benefitAmount", "deadline", "isActive"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "category": {"type": "string"},
          "benefitAmount": {"type": "number", "minimum": 0},
          "deadline": {"type": "string", "format": "date-time"},
          "isActive": {"type": "boolean"},
          "applyUrl": {"type": "string"},
          "criteria": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "minAge": {"type": "integer", "minimum": 0},
              "maxAge": {"type": "integer", "minimum": 0},
              "maxIncome": {"type": "number", "minimum": 0},
              "minEducation": {
                "type": "string",
                "enum": ["below_primary", "primary", "middle", "secondary", "senior_secondary", "diploma", "graduate", "post_graduate", "doctorate"]
              },
              "states": {"type": "array", "items": {"type": "string"}},
              "districts": {"type": "array", "items": {"type": "string"}},
              "categories": {
                "type": "array",
                "items": {"type": "string", "enum": ["general", "obc", "sc", "st", "ews"]}
              }
            }
          }
        }
      }
    }
  }
}`

// ValidateCatalog checks a raw catalog document against the schema and
// returns a single error listing every violation.
func ValidateCatalog(doc []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(catalogSchema)
	docLoader := gojsonschema.NewBytesLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return stderrors.NewCatalogValidationFailedError(err.Error())
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return stderrors.NewCatalogValidationFailedError(strings.Join(problems, "; "))
}
