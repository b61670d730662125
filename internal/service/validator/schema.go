package validator

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resultSchema describes the shape the system prompt asks the model for.
// Parsed results are checked against it for telemetry only; a mismatch is
// logged and never alters the response envelope.
var resultSchema = mustCompileResultSchema()

const resultSchemaJSON = `{
	"type": "object",
	"properties": {
		"documentType": {"type": "string"},
		"extractedFields": {"type": "object"},
		"validationStatus": {"enum": ["PASS", "WARNING", "FAIL"]},
		"issues": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"field": {"type": "string"},
					"severity": {"enum": ["ERROR", "WARNING"]},
					"message": {"type": "string"}
				},
				"required": ["field", "severity", "message"]
			}
		},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

func mustCompileResultSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("result.json", strings.NewReader(resultSchemaJSON)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("result.json")
}

// checkResultShape validates a parsed result against the prompt schema and
// logs divergence. The model is an unreliable text oracle, so this is
// observability, not enforcement.
func checkResultShape(reqID string, raw json.RawMessage) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return
	}
	if err := resultSchema.Validate(value); err != nil {
		log.Printf("validate shape req_id=%s conforms=false reason=%v", reqID, err)
	}
}
