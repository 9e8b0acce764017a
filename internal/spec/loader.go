package spec

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Format identifies the serialization of a specification file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	FormatError     ErrorCode = "FormatError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured error with the failing location attached.
type SpecError struct {
	Code     ErrorCode
	Message  string
	Location string // file path
	Cause    error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

var yamlExtensions = map[string]bool{".yaml": true, ".yml": true}
var jsonExtensions = map[string]bool{".json": true}

// InferFormat derives the serialization format from the file extension.
// It fails when the extension is not a known YAML or JSON one; callers must
// then pass the format explicitly.
func InferFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case yamlExtensions[ext]:
		return FormatYAML, nil
	case jsonExtensions[ext]:
		return FormatJSON, nil
	default:
		return "", &SpecError{
			Code:     FormatError,
			Message:  fmt.Sprintf("spec: could not infer format from %q; use --spec-format to specify it explicitly", filepath.Base(path)),
			Location: path,
		}
	}
}

// Load reads a specification file and returns the immutable Document the
// compiler works on. Swagger 2.0 documents are used directly; OpenAPI 3
// documents are validated and down-converted via kin-openapi so the compiler
// always sees the v2 shape (basePath, definitions, body/formData parameters).
//
// format may be empty, in which case it is inferred from the file extension.
func Load(ctx context.Context, path string, format Format) (*Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input path is empty"}
	}
	if format == "" {
		inferred, err := InferFormat(path)
		if err != nil {
			return nil, err
		}
		format = inferred
	}
	switch format {
	case FormatYAML, FormatJSON:
	default:
		return nil, &SpecError{Code: FormatError, Message: fmt.Sprintf("spec: unknown format %q (allowed: yaml, json)", format), Location: path}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: path, Cause: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}

	raw, err := decodeRaw(data, format)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse spec: %v", err), Location: abs, Cause: err}
	}

	version, err := detectSpecVersion(raw)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: abs}
	}

	switch version {
	case 2:
		if err := checkV2(raw); err != nil {
			return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse swagger 2.0 document: %v", err), Location: abs, Cause: err}
		}
		return NewDocument(raw), nil
	case 3:
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(data)
		if err != nil {
			return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("load openapi 3 document: %v", err), Location: abs, Cause: err}
		}
		if err := doc.Validate(ctx); err != nil {
			return nil, &SpecError{Code: ValidationError, Message: fmt.Sprintf("validate openapi 3 document: %v", err), Location: abs, Cause: err}
		}
		v2doc, err := openapi2conv.FromV3(doc)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v3 document: %v", err), Location: abs, Cause: err}
		}
		converted, err := rawFromTyped(v2doc)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("rebuild document after conversion: %v", err), Location: abs, Cause: err}
		}
		return NewDocument(converted), nil
	default:
		return nil, &SpecError{Code: ParseError, Message: "spec: unknown or unsupported OpenAPI/Swagger version", Location: abs}
	}
}

func decodeRaw(data []byte, format Format) (map[string]any, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("document is empty")
	}
	return raw, nil
}

// detectSpecVersion returns 2 for Swagger v2, 3 for OpenAPI v3, else an error.
func detectSpecVersion(raw map[string]any) (int, error) {
	if v, ok := raw["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2, nil
		}
	}
	if v, ok := raw["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	return 0, fmt.Errorf("spec: missing or unknown version (expected 'swagger: 2.0' or 'openapi: 3.x')")
}

// checkV2 round-trips the raw graph through the typed kin-openapi v2 document
// as a structural check. The typed form is discarded; the compiler works on
// the raw graph, but a document that cannot round-trip is rejected before
// compilation starts.
func checkV2(raw map[string]any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	var v2 openapi2.T
	return json.Unmarshal(buf, &v2)
}

func rawFromTyped(v2 *openapi2.T) (map[string]any, error) {
	buf, err := json.Marshal(v2)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
