package ops

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
)

// Batch is a serialized list of operations.
type Batch struct {
	Operations []Op `json:"operations"`
}

const batchSchemaURL = "https://modelshelf.dev/schemas/batch.json"

// BatchSchema is the JSON schema of a serialized Batch.
const BatchSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["operations"],
  "additionalProperties": false,
  "properties": {
    "operations": {
      "type": "array",
      "maxItems": 100,
      "items": {"$ref": "#/$defs/op"}
    }
  },
  "$defs": {
    "op": {
      "type": "object",
      "required": ["kind", "target"],
      "additionalProperties": false,
      "properties": {
        "kind": {"enum": ["delete", "edit"]},
        "target": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "tags": {
          "oneOf": [
            {"type": "array", "items": {"type": "string"}},
            {"type": "string"}
          ]
        },
        "new_id": {"type": "string", "pattern": "^[a-z0-9]+(-[a-z0-9]+)*$"}
      },
      "if": {"properties": {"kind": {"const": "edit"}}},
      "then": {"required": ["name"], "properties": {"name": {"minLength": 1}}}
    }
  }
}`

var compileBatchSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(BatchSchema))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(batchSchemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(batchSchemaURL)
})

// ParseBatch validates data against BatchSchema and decodes it. Every op
// is also checked with Op.Validate.
func ParseBatch(data []byte) (*Batch, error) {
	schema, err := compileBatchSchema()
	if err != nil {
		return nil, pkgerrors.NewConfigError("ops", "compile batch schema", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.WrapParse("json", "", err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, pkgerrors.NewValidationError("batch", nil, err.Error())
	}

	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, pkgerrors.WrapParse("json", "", err)
	}
	for i, op := range b.Operations {
		if err := op.Validate(); err != nil {
			return nil, pkgerrors.NewValidationError("operations", i, err.Error())
		}
	}
	return &b, nil
}
