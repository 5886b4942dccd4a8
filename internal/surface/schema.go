package surface

import (
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	messageSchemaOnce sync.Once
	messageSchema     *jsonschema.Schema
	messageSchemaErr  error
)

func compiledMessageSchema() (*jsonschema.Schema, error) {
	messageSchemaOnce.Do(func() {
		messageSchema, messageSchemaErr = jsonschema.CompileString("message", messageSchemaJSON)
	})
	return messageSchema, messageSchemaErr
}

// validateMessageLine checks one wire record against the message union
// schema. Used only in strict decode mode.
func validateMessageLine(raw []byte) error {
	schema, err := compiledMessageSchema()
	if err != nil {
		return err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return schema.Validate(payload)
}

const messageSchemaJSON = `{
  "type": "object",
  "required": ["kind", "surfaceId"],
  "properties": {
    "kind": { "enum": ["surfaceUpdate", "dataModelUpdate", "beginRendering"] },
    "surfaceId": { "type": "string", "minLength": 1 }
  },
  "allOf": [
    {
      "if": { "properties": { "kind": { "const": "surfaceUpdate" } } },
      "then": {
        "required": ["nodes"],
        "properties": {
          "nodes": {
            "type": "object",
            "minProperties": 1,
            "additionalProperties": {
              "type": "object",
              "required": ["kind"],
              "properties": {
                "kind": {
                  "enum": ["text", "button", "card", "row", "column", "divider", "icon", "progress", "image"]
                },
                "children": {
                  "type": "array",
                  "items": { "type": "string", "minLength": 1 }
                },
                "action": {
                  "type": "object",
                  "required": ["name"],
                  "properties": {
                    "name": { "type": "string", "minLength": 1 },
                    "args": { "type": "object" }
                  },
                  "additionalProperties": true
                }
              },
              "additionalProperties": true
            }
          }
        }
      }
    },
    {
      "if": { "properties": { "kind": { "const": "dataModelUpdate" } } },
      "then": {
        "required": ["path"],
        "properties": {
          "path": { "type": "string", "minLength": 1 },
          "value": {}
        }
      }
    }
  ],
  "additionalProperties": true
}`
