package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"

	"github.com/reasm-dev/reasm/internal/analysis"
)

// MalformedResponseError reports model output that could not be used.
type MalformedResponseError struct {
	Reason string
	Cause  error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed gemini response: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed gemini response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Cause }

// Kind treats unusable output like an unavailable provider: the caller may retry.
func (e *MalformedResponseError) Kind() analysis.Kind { return analysis.KindProviderUnavailable }

// responseSchema validates model output against a compiled JSON schema.
type responseSchema struct {
	schema *gojsonschema.Schema
}

func mustSchema(source string) *responseSchema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema: %v", err))
	}
	return &responseSchema{schema: schema}
}

// decode cleans raw, validates it and decodes it leniently into target.
func (s *responseSchema) decode(raw string, target any) error {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return &MalformedResponseError{Reason: "no JSON object found"}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return &MalformedResponseError{Reason: "invalid JSON", Cause: err}
	}

	result, err := s.schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return &MalformedResponseError{Reason: "schema validation", Cause: err}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			problems = append(problems, fmt.Sprintf("%s: %s", field, desc.Description()))
		}
		return &MalformedResponseError{Reason: "schema mismatch: " + strings.Join(problems, "; ")}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(data); err != nil {
		return &MalformedResponseError{Reason: "decode", Cause: err}
	}
	return nil
}

// extractJSON strips markdown fences and any prose around the outermost object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return ""
	}
	return raw[start : end+1]
}
