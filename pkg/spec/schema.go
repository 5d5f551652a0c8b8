package spec

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSON Schemas applied before unmarshalling. These catch shape errors
// (wrong types, missing required keys) early with readable messages;
// cross-reference checks happen afterwards in Loader.validate.

const inventorySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["devices"],
  "properties": {
    "version": {"type": "string"},
    "devices": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["mgmt_ip", "platform"],
        "properties": {
          "mgmt_ip": {"type": "string"},
          "platform": {"type": "string"},
          "site": {"type": "string"},
          "description": {"type": "string"},
          "ssh_user": {"type": "string"},
          "ssh_pass": {"type": "string"},
          "ssh_port": {"type": "integer", "minimum": 0, "maximum": 65535}
        }
      }
    }
  }
}`

const topologySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["devices"],
  "properties": {
    "version": {"type": "string"},
    "description": {"type": "string"},
    "devices": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["interfaces"],
        "properties": {
          "interfaces": {
            "type": "object",
            "additionalProperties": {
              "type": "object",
              "required": ["role"],
              "properties": {
                "role": {"type": "string", "enum": ["socket", "uplink", "passthrough"]},
                "untagged_vlan": {"type": "integer", "minimum": 1, "maximum": 4094},
                "description": {"type": "string"}
              }
            }
          }
        }
      }
    },
    "links": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["a", "z"],
        "properties": {
          "a": {"type": "string", "pattern": "^[^:]+:.+$"},
          "z": {"type": "string", "pattern": "^[^:]+:.+$"}
        }
      }
    }
  }
}`

// validateSchema checks raw JSON against a schema and folds any failures
// into a single error.
func validateSchema(schema string, document []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("schema validation: %s", strings.Join(msgs, "; "))
}
