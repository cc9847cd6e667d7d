// Package billschema проверяет JSON-документ обновления заметки по JSON-Schema
// до его декодирования в models.BillPatch.
package billschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "bill-patch.json"

// Patch JSON-Schema документа PATCH /bills/{id}. Поля id и createdAt допускаются,
// так как клиент отправляет заметку целиком, но игнорируются.
const Patch = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "id":           {"type": "string"},
    "createdAt":    {"type": "string"},
    "email":        {"type": "string"},
    "type":         {"type": "string"},
    "name":         {"type": "string"},
    "amount":       {"type": "integer"},
    "date":         {"type": "string"},
    "vat":          {"type": "string"},
    "pct":          {"type": "integer"},
    "commentary":   {"type": "string"},
    "commentAdmin": {"type": "string"},
    "fileUrl":      {"type": "string"},
    "fileName":     {"type": "string"},
    "status":       {"enum": ["pending", "accepted", "refused"]}
  }
}`

var (
	once     sync.Once
	compiled *jsonschema.Schema
	errInit  error
)

func schema() (*jsonschema.Schema, error) {
	once.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader([]byte(Patch))); err != nil {
			errInit = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, errInit = compiler.Compile(schemaURL)
	})
	return compiled, errInit
}

// ValidatePatch проверяет документ data по схеме Patch.
func ValidatePatch(data []byte) error {
	const op = "billschema.ValidatePatch"

	s, err := schema()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
