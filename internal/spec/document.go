package spec

import (
	"encoding/json"
	"sort"
)

// verbOrder is the fixed iteration order for operations under a path.
var verbOrder = []string{"get", "post", "put", "delete", "patch", "head", "options"}

// OperationKey identifies an operation within a document.
type OperationKey struct {
	Path string
	Verb string
}

// VerbOperation pairs an HTTP verb with its raw operation definition.
type VerbOperation struct {
	Verb string
	Raw  map[string]any
}

// Definitions is the document's reusable definitions table, indexed by
// section ("definitions", "parameters", "responses") and name. It must never
// be mutated: body and response resolution may look up any definition at any
// point of a compilation pass.
type Definitions struct {
	root map[string]any
}

// Lookup returns the raw body of the named definition.
func (d Definitions) Lookup(section, name string) (map[string]any, bool) {
	sec, ok := d.root[section].(map[string]any)
	if !ok {
		return nil, false
	}
	body, ok := sec[name].(map[string]any)
	return body, ok
}

// Names returns the sorted names of the top-level reusable schema definitions.
func (d Definitions) Names() []string {
	sec, ok := d.root["definitions"].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(sec))
	for name := range sec {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Document is the loaded specification. It is immutable once constructed;
// the raw graph backs the definitions table and the serialized copy embedded
// in generated code, so nothing downstream may write into it.
type Document struct {
	raw            map[string]any
	basePath       string
	paths          []string
	operationIDs   map[OperationKey]string
	globalSecurity bool
}

// NewDocument wraps a raw Swagger 2.0 object graph. The operation-ID index is
// built here, once, and handed to the builder as a plain lookup table.
func NewDocument(raw map[string]any) *Document {
	d := &Document{
		raw:          raw,
		operationIDs: make(map[OperationKey]string),
	}
	if bp, ok := raw["basePath"].(string); ok {
		d.basePath = bp
	}
	_, d.globalSecurity = raw["security"]

	if paths, ok := raw["paths"].(map[string]any); ok {
		for path := range paths {
			d.paths = append(d.paths, path)
		}
		sort.Strings(d.paths)
		for _, path := range d.paths {
			item, _ := paths[path].(map[string]any)
			for _, verb := range verbOrder {
				op, ok := item[verb].(map[string]any)
				if !ok {
					continue
				}
				if id, ok := op["operationId"].(string); ok && id != "" {
					d.operationIDs[OperationKey{Path: path, Verb: verb}] = id
				}
			}
		}
	}
	return d
}

// BasePath returns the document's base path, or "" when absent.
func (d *Document) BasePath() string { return d.basePath }

// Paths returns the path templates in sorted order.
func (d *Document) Paths() []string { return d.paths }

// Operations returns the operations declared under path in fixed verb order.
func (d *Document) Operations(path string) []VerbOperation {
	paths, _ := d.raw["paths"].(map[string]any)
	item, _ := paths[path].(map[string]any)
	var ops []VerbOperation
	for _, verb := range verbOrder {
		if op, ok := item[verb].(map[string]any); ok {
			ops = append(ops, VerbOperation{Verb: verb, Raw: op})
		}
	}
	return ops
}

// Definitions returns the reusable definitions table.
func (d *Document) Definitions() Definitions { return Definitions{root: d.raw} }

// OperationID returns the explicitly declared operation identifier, if any.
func (d *Document) OperationID(path, verb string) (string, bool) {
	id, ok := d.operationIDs[OperationKey{Path: path, Verb: verb}]
	return id, ok
}

// GlobalSecurity reports whether the document declares a top-level security
// requirement. When true, every operation is flagged secure.
func (d *Document) GlobalSecurity() bool { return d.globalSecurity }

// OperationSecurity reports whether the given operation declares its own
// security requirement.
func (d *Document) OperationSecurity(path, verb string) bool {
	paths, _ := d.raw["paths"].(map[string]any)
	item, _ := paths[path].(map[string]any)
	op, _ := item[verb].(map[string]any)
	_, ok := op["security"]
	return ok
}

// MarshalIndentJSON returns the serialized document for embedding into
// generated code. Map keys are emitted sorted, so the output is stable.
func (d *Document) MarshalIndentJSON() ([]byte, error) {
	return json.MarshalIndent(d.raw, "", "    ")
}
