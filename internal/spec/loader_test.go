package spec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleV2YAML = `swagger: "2.0"
info:
  title: Sample
  version: "1.0.0"
basePath: /api
paths:
  "/widgets":
    get:
      operationId: list_widgets
      responses:
        "200":
          description: ok
          schema:
            type: array
            items:
              $ref: "#/definitions/Widget"
definitions:
  Widget:
    type: object
    properties:
      name:
        type: string
`

const sampleV2JSON = `{
  "swagger": "2.0",
  "info": {"title": "Sample", "version": "1.0.0"},
  "paths": {
    "/widgets": {
      "get": {"responses": {"200": {"description": "ok"}}}
    }
  }
}`

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

func TestInferFormat(t *testing.T) {
	t.Parallel()
	cases := []struct {
		path string
		want Format
	}{
		{"spec.yaml", FormatYAML},
		{"spec.yml", FormatYAML},
		{"SPEC.YAML", FormatYAML},
		{"spec.json", FormatJSON},
	}
	for _, tc := range cases {
		got, err := InferFormat(tc.path)
		if err != nil {
			t.Fatalf("infer %q: %v", tc.path, err)
		}
		if got != tc.want {
			t.Errorf("infer %q: got %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestInferFormat_UnknownExtension(t *testing.T) {
	t.Parallel()
	_, err := InferFormat("spec.txt")
	if err == nil {
		t.Fatalf("expected error for unknown extension")
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != FormatError {
		t.Fatalf("expected FormatError, got %v (%T)", err, err)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "  ", "")
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_UnknownExtensionFailsFast(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "spec.txt", sampleV2YAML)
	_, err := Load(context.Background(), path, "")
	var se *SpecError
	if !errors.As(err, &se) || se.Code != FormatError {
		t.Fatalf("expected FormatError, got %v (%T)", err, err)
	}
}

func TestLoad_ExplicitFormatOverridesExtension(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "spec.txt", sampleV2YAML)
	doc, err := Load(context.Background(), path, FormatYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.BasePath() != "/api" {
		t.Errorf("base path: got %q", doc.BasePath())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"), "")
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_V2YAML(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "swagger.yaml", sampleV2YAML)
	doc, err := Load(context.Background(), path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := doc.Paths(); len(got) != 1 || got[0] != "/widgets" {
		t.Fatalf("paths: got %v", got)
	}
	if id, ok := doc.OperationID("/widgets", "get"); !ok || id != "list_widgets" {
		t.Errorf("operation id: got %q (%v)", id, ok)
	}
	if _, ok := doc.Definitions().Lookup("definitions", "Widget"); !ok {
		t.Errorf("definitions: missing Widget")
	}
}

func TestLoad_V2JSON(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "swagger.json", sampleV2JSON)
	doc, err := Load(context.Background(), path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := doc.Paths(); len(got) != 1 || got[0] != "/widgets" {
		t.Fatalf("paths: got %v", got)
	}
}

func TestLoad_Unparseable(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "bad.json", "{not json")
	_, err := Load(context.Background(), path, "")
	var se *SpecError
	if !errors.As(err, &se) || se.Code != ParseError {
		t.Fatalf("expected ParseError, got %v (%T)", err, err)
	}
	if se.Location == "" {
		t.Errorf("expected location to be set")
	}
}

func TestLoad_UnknownVersion(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "odd.yaml", "title: no version here\n")
	_, err := Load(context.Background(), path, "")
	var se *SpecError
	if !errors.As(err, &se) || se.Code != ParseError {
		t.Fatalf("expected ParseError, got %v (%T)", err, err)
	}
}

func TestLoad_V3Converts(t *testing.T) {
	t.Parallel()
	content := strings.TrimSpace(`openapi: 3.0.0
info:
  title: Sample
  version: "1.0.0"
paths:
  "/hello":
    get:
      responses:
        "200":
          description: ok
`) + "\n"
	path := writeSpec(t, "openapi.yaml", content)
	doc, err := Load(context.Background(), path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := doc.Paths(); len(got) != 1 || got[0] != "/hello" {
		t.Fatalf("paths after conversion: got %v", got)
	}
	if len(doc.Operations("/hello")) != 1 {
		t.Fatalf("expected one operation after conversion")
	}
}

func TestLoad_V3Invalid(t *testing.T) {
	t.Parallel()
	content := strings.TrimSpace(`openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`) + "\n"
	path := writeSpec(t, "bad.yaml", content)
	_, err := Load(context.Background(), path, "")
	if err == nil {
		t.Fatalf("expected validation error for empty responses")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != ValidationError && se.Code != ParseError {
		t.Fatalf("expected ValidationError/ParseError, got %v", se.Code)
	}
}
