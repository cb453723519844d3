// Package wire validates receipt JSON against a published JSON Schema
// before a replayer ingests a log file, the way the teacher's
// pkg/firewall compiles and applies a per-tool jsonschema.Schema before a
// call is allowed to reach the dispatcher. Here the guarded boundary is a
// receipt log file, not a tool call, but the shape is the same: compile
// once, validate every record, fail closed on the first schema violation
// rather than let a malformed record reach pkg/replay.
package wire

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const receiptSchemaURL = "https://gtk.schemas.local/receipt.schema.json"

// receiptSchema is the published shape of a wire-format receipt record
// (spec §6, "External interfaces"). Only the fields every variant carries
// are required; witness/params_version are Rich-only and left optional.
const receiptSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://gtk.schemas.local/receipt.schema.json",
  "type": "object",
  "required": [
    "version", "prev_state_hash", "next_state_hash",
    "risk_before", "risk_after", "risk_delta_plus",
    "budget_before", "budget_after", "budget_delta",
    "kappa", "projected", "reject_code",
    "prev_receipt_id", "receipt_id", "chain_prev", "chain_next"
  ],
  "properties": {
    "version": {"type": "string"},
    "prev_state_hash": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
    "next_state_hash": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
    "risk_before": {"type": "integer", "minimum": 0},
    "risk_after": {"type": "integer", "minimum": 0},
    "risk_delta_plus": {"type": "integer", "minimum": 0},
    "budget_before": {"type": "integer", "minimum": 0},
    "budget_after": {"type": "integer", "minimum": 0},
    "budget_delta": {"type": "integer"},
    "kappa": {"type": "integer", "minimum": 0},
    "projected": {"type": "boolean"},
    "reject_code": {"type": "string"},
    "prev_receipt_id": {"type": "string"},
    "receipt_id": {"type": "string"},
    "chain_prev": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
    "chain_next": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
    "params_version": {"type": "string"},
    "witness": {"type": "object"}
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func receiptSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(receiptSchemaURL, strings.NewReader(receiptSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("wire: loading receipt schema: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(receiptSchemaURL)
	})
	return compiledSchema, compileErr
}

// ValidateReceiptJSON checks a single receipt record's raw JSON bytes
// against the published schema, failing closed on any decode or schema
// violation so a malformed record never silently reaches a replayer.
func ValidateReceiptJSON(raw []byte) error {
	schema, err := receiptSchema()
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("wire: receipt record is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("wire: receipt record failed schema validation: %w", err)
	}
	return nil
}

// ValidateReceiptLog validates every record of a JSON array log file in one
// pass, returning the index of the first invalid record.
func ValidateReceiptLog(raw []byte) error {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("wire: receipt log is not a JSON array: %w", err)
	}
	for i, rec := range records {
		if err := ValidateReceiptJSON(rec); err != nil {
			return fmt.Errorf("wire: record %d: %w", i, err)
		}
	}
	return nil
}
