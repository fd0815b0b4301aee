package vision

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	stringFields = []string{
		"shipper_name", "shipper_address",
		"consignee_name", "consignee_address",
		"bill_to_name", "bill_to_address",
		"bol_number", "pro_number", "po_number",
		"pickup_date", "delivery_date",
		"handwritten_notes",
	}
	numberFields = []string{"total_weight_lbs", "quantity", "pieces"}
)

// BuildRawPageJSONSchema returns the documented page shape as a JSON-Schema map.
// Unknown keys are allowed; the model sometimes echoes a page index.
func BuildRawPageJSONSchema() map[string]any {
	props := map[string]any{
		"document_type": map[string]any{
			"type": []string{"string", "null"},
			"enum": []any{"BOL", "POD", "RATE_CONFIRMATION", "UNKNOWN", nil},
		},
	}
	for _, f := range stringFields {
		props[f] = map[string]any{"type": []string{"string", "null"}}
	}
	for _, f := range numberFields {
		props[f] = map[string]any{"type": []string{"number", "null"}}
	}
	required := []string{"document_type", "shipper_name", "consignee_name", "bol_number", "pro_number", "po_number"}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

var (
	rawPageSchemaOnce sync.Once
	rawPageSchema     *jsonschema.Schema
	rawPageSchemaErr  error
)

func compiledRawPageSchema() (*jsonschema.Schema, error) {
	rawPageSchemaOnce.Do(func() {
		b, err := json.Marshal(BuildRawPageJSONSchema())
		if err != nil {
			rawPageSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("raw_page.json", bytes.NewReader(b)); err != nil {
			rawPageSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		rawPageSchema, rawPageSchemaErr = compiler.Compile("raw_page.json")
		if rawPageSchemaErr != nil {
			rawPageSchemaErr = fmt.Errorf("compile schema: %w", rawPageSchemaErr)
		}
	})
	return rawPageSchema, rawPageSchemaErr
}

// ValidateRawPage checks model output against the documented page shape.
// A mismatch is informational: decoding stays lenient either way.
func ValidateRawPage(data []byte) error {
	schema, err := compiledRawPageSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
