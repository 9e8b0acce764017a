// Package render turns the compiler's IR into the textual source artifacts.
// Each artifact has one embedded template; the IR's typed schema expressions
// are converted to Python expressions here, never earlier.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/mark3labs/swagger2django/internal/compiler"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates *template.Template

func init() {
	var err error
	templates, err = template.New("").
		Funcs(templateFuncs).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		panic(err)
	}
}

var templateFuncs = template.FuncMap{
	"pyschema":  pySchemaExpr,
	"stubsig":   stubSignature,
	"callargs":  callArgs,
	"formnames": formNames,
}

// URLEntry is one routing table row.
type URLEntry struct {
	Pattern string
	Class   string
}

// VerbView pairs a verb with its descriptor for template iteration.
type VerbView struct {
	Verb       string
	Descriptor *compiler.Descriptor
}

// ClassView is one generated view class with its verbs in sorted order.
type ClassView struct {
	Name  string
	Verbs []VerbView
}

// SchemaEntry is one named definition with its pretty-printed body.
type SchemaEntry struct {
	Name string
	JSON string
}

// URLs renders the routing artifact from the URL-entry mapping.
func URLs(ir *compiler.IR, module string) ([]byte, error) {
	entries := make([]URLEntry, 0, len(ir.URLEntries))
	for pattern, class := range ir.URLEntries {
		entries = append(entries, URLEntry{Pattern: pattern, Class: class})
	}
	// Reverse-sorted so longer patterns are evaluated first.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Pattern > entries[j].Pattern })
	return execute("urls.py.tmpl", struct {
		Module  string
		Entries []URLEntry
	}{Module: module, Entries: entries})
}

// Views renders the request-handling artifact from the full descriptor
// mapping plus a serialized copy of the resolved specification.
func Views(ir *compiler.IR, module string, specJSON []byte) ([]byte, error) {
	// Backslashes would be re-interpreted inside the generated triple-quoted
	// string, so they are escaped once here.
	escaped := strings.ReplaceAll(string(specJSON), `\`, `\\`)
	return execute("views.py.tmpl", struct {
		Module  string
		Spec    string
		Classes []ClassView
	}{Module: module, Spec: escaped, Classes: classViews(ir)})
}

// Schemas renders the schema artifact from the flat name → resolved-body map.
func Schemas(ir *compiler.IR) ([]byte, error) {
	entries := make([]SchemaEntry, 0, len(ir.Schemas))
	for name, body := range ir.Schemas {
		pretty, err := json.MarshalIndent(body, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("marshal schema %s: %w", name, err)
		}
		entries = append(entries, SchemaEntry{Name: name, JSON: string(pretty)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return execute("schemas.py.tmpl", struct{ Schemas []SchemaEntry }{Schemas: entries})
}

// Stubs renders the handler-stub artifact from the descriptor mapping.
func Stubs(ir *compiler.IR, module string) ([]byte, error) {
	return execute("stubs.py.tmpl", struct {
		Module  string
		Classes []ClassView
	}{Module: module, Classes: classViews(ir)})
}

// Utils renders the static utility artifact; it takes no IR input.
func Utils() ([]byte, error) {
	return execute("utils.py.tmpl", nil)
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func classViews(ir *compiler.IR) []ClassView {
	names := make([]string, 0, len(ir.Classes))
	for name := range ir.Classes {
		names = append(names, name)
	}
	sort.Strings(names)

	views := make([]ClassView, 0, len(names))
	for _, name := range names {
		verbs := ir.Classes[name]
		verbNames := make([]string, 0, len(verbs))
		for verb := range verbs {
			verbNames = append(verbNames, verb)
		}
		sort.Strings(verbNames)
		cv := ClassView{Name: name}
		for _, verb := range verbNames {
			cv.Verbs = append(cv.Verbs, VerbView{Verb: verb, Descriptor: verbs[verb]})
		}
		views = append(views, cv)
	}
	return views
}

// pySchemaExpr converts a typed schema expression to the Python expression
// embedded in generated code.
func pySchemaExpr(expr compiler.SchemaExpr) (string, error) {
	switch e := expr.(type) {
	case nil:
		return "schemas.__UNSPECIFIED__", nil
	case compiler.NamedSchemaRef:
		return "schemas." + e.Name, nil
	case compiler.InlineSchema:
		pretty, err := json.MarshalIndent(e.Tree, "", "    ")
		if err != nil {
			return "", fmt.Errorf("marshal inline schema: %w", err)
		}
		return "json.loads(\"\"\"\n" + string(pretty) + "\n\"\"\")", nil
	default:
		return "", fmt.Errorf("unknown schema expression %T", expr)
	}
}

// stubSignature builds the stub method parameter list for a descriptor.
func stubSignature(d *compiler.Descriptor) string {
	parts := []string{"request"}
	if d.Body != nil {
		parts = append(parts, "body")
	}
	if len(d.FormData) > 0 {
		parts = append(parts, "form_data")
	}
	for _, p := range d.RequiredArgs {
		parts = append(parts, p.Name)
	}
	for _, p := range d.OptionalArgs {
		parts = append(parts, p.Name+"=None")
	}
	parts = append(parts, "*args", "**kwargs")
	return strings.Join(parts, ", ")
}

// callArgs builds the argument list the generated view passes to its stub.
func callArgs(d *compiler.Descriptor) string {
	parts := []string{"request"}
	if d.Body != nil {
		parts = append(parts, "body")
	}
	if len(d.FormData) > 0 {
		parts = append(parts, "form_data")
	}
	for _, p := range d.RequiredArgs {
		parts = append(parts, fmt.Sprintf("kwargs.get(%q, request.GET.get(%q))", p.Name, p.Name))
	}
	for _, p := range d.OptionalArgs {
		parts = append(parts, fmt.Sprintf("%s=request.GET.get(%q)", p.Name, p.Name))
	}
	return strings.Join(parts, ", ")
}

func formNames(params []compiler.Parameter) string {
	quoted := make([]string, 0, len(params))
	for _, p := range params {
		quoted = append(quoted, fmt.Sprintf("%q", p.Name))
	}
	return strings.Join(quoted, ", ")
}
