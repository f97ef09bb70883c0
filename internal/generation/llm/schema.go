package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/flashgen/question-service/internal/question"
)

// Schema names a JSON schema sent as the response format and checked locally.
type Schema struct {
	Name       string
	Definition map[string]any
}

var schemas = map[question.Kind]*Schema{
	question.KindMultipleChoice: {
		Name: "multiple_choice_question",
		Definition: object(map[string]any{
			"prompt":      str(),
			"explanation": text(),
			"options": map[string]any{
				"type":     "array",
				"items":    str(),
				"minItems": 4,
				"maxItems": 4,
			},
			"correct_option": map[string]any{"type": "integer", "minimum": 1, "maximum": 4},
		}),
	},
	question.KindValueBased: {
		Name: "value_based_question",
		Definition: object(map[string]any{
			"prompt":         str(),
			"explanation":    text(),
			"expected_value": num(),
			"unit":           str(),
			"tolerance":      map[string]any{"type": "number", "minimum": 0},
			"range_min":      num(),
			"range_max":      num(),
		}),
	},
	question.KindOpenEnded: {
		Name: "open_ended_question",
		Definition: object(map[string]any{
			"prompt":      str(),
			"explanation": text(),
			"required_keywords": map[string]any{
				"type":     "array",
				"items":    str(),
				"minItems": 1,
			},
			"model_answer": str(),
			"min_words":    map[string]any{"type": "integer", "minimum": 1},
		}),
	},
}

// object builds a strict-mode object: every property required, nothing extra.
func object(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func str() map[string]any { return map[string]any{"type": "string", "minLength": 1} }
func text() map[string]any { return map[string]any{"type": "string"} }
func num() map[string]any { return map[string]any{"type": "number"} }

// localOnly lists bounds checked by validateOutput but left out of the
// response format; several OpenAI-compatible backends reject them in strict
// mode.
var localOnly = map[string]bool{
	"minLength": true,
	"maxLength": true,
	"minimum":   true,
	"maximum":   true,
	"minItems":  true,
	"maxItems":  true,
}

// Wire returns the definition to send as the response format.
func (s *Schema) Wire() map[string]any {
	return stripLocal(s.Definition).(map[string]any)
}

func stripLocal(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if localOnly[k] {
				continue
			}
			out[k] = stripLocal(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = stripLocal(val)
		}
		return out
	default:
		return v
	}
}

// schemaCache caches compiled schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

func validateOutput(schema *Schema, raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	compiled, err := compiledSchema(schema)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func compiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants decoded JSON values, not Go maps with typed members.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, err
	}
	var def any
	if err := json.Unmarshal(defBytes, &def); err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}
