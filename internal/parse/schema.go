package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recordSchema is the target shape for model output. No field is required
// (partial extraction is expected) but an empty object is not an extraction.
const recordSchema = `{
  "type": "object",
  "minProperties": 1,
  "additionalProperties": false,
  "properties": {
    "document_type": {"type": "string"},
    "invoice_number": {"type": "string"},
    "issue_date": {"type": "string"},
    "due_date": {"type": "string"},
    "currency": {"type": "string"},
    "vendor": {"$ref": "#/$defs/party"},
    "customer": {"$ref": "#/$defs/party"},
    "line_items": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "description": {"type": "string"},
          "quantity": {"type": ["number", "string"]},
          "unit_price": {"type": ["number", "string"]},
          "total": {"type": ["number", "string"]},
          "tax_rate": {"type": ["number", "string"]}
        }
      }
    },
    "totals": {
      "type": "object",
      "properties": {
        "subtotal": {"type": ["number", "string"]},
        "tax_total": {"type": ["number", "string"]},
        "total": {"type": ["number", "string"]},
        "tax_breakdown": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "rate": {"type": ["number", "string"]},
              "base": {"type": ["number", "string"]},
              "amount": {"type": ["number", "string"]}
            }
          }
        }
      }
    },
    "payment": {
      "type": "object",
      "properties": {
        "bank_account": {"type": "string"},
        "iban": {"type": "string"},
        "variable_symbol": {"type": "string"},
        "payment_method": {"type": "string"}
      }
    }
  },
  "$defs": {
    "party": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "registry_id": {"type": "string"},
        "tax_id": {"type": "string"},
        "address": {"type": "string"}
      }
    }
  }
}`

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", strings.NewReader(recordSchema)); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		return nil, fmt.Errorf("compiling record schema: %w", err)
	}
	return schema, nil
}

// validateAgainstSchema checks candidate JSON against the record schema.
func validateAgainstSchema(schema *jsonschema.Schema, data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshaling candidate: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("candidate does not match record schema: %w", err)
	}
	return nil
}
