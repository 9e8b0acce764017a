package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/swagger2django/internal/spec"
)

// Backend selects the target framework for the generated artifacts. It only
// influences the URL parameter-placeholder syntax; everything else in the IR
// is backend-neutral.
type Backend string

const BackendDjango Backend = "django"

// KnownBackend reports whether the backend selector is supported.
func KnownBackend(b Backend) bool { return b == BackendDjango }

// FixupURL rewrites the spec's brace-wrapped parameters into the backend's
// route-pattern syntax, e.g. "foo/{bar_id}" -> "foo/(?P<bar_id>.+)".
func FixupURL(url string, backend Backend) string {
	if backend == BackendDjango {
		return strings.ReplaceAll(strings.ReplaceAll(url, "{", "(?P<"), "}", ">.+)")
	}
	return url
}

// Build runs one sequential pass over every (path, verb) pair of the loaded
// document and assembles the IR. Reference-resolution failures are fatal;
// unsupported parameter locations and class-name collisions are recorded as
// warnings and compilation continues.
func Build(doc *spec.Document, backend Backend, logger *slog.Logger) (*IR, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ir := &IR{
		Classes:    make(map[string]map[string]*Descriptor),
		URLEntries: make(map[string]string),
		Schemas:    make(map[string]map[string]any),
	}
	defs := doc.Definitions()

	// Two distinct templates can canonicalize onto one class name; verbs are
	// merged, and a verb conflict is reported with the later descriptor kept.
	classOrigin := make(map[string]string)

	for _, path := range doc.Paths() {
		className := ClassName(path)
		if origin, seen := classOrigin[className]; seen {
			w := Warning{
				Operation: className,
				Message:   fmt.Sprintf("paths %q and %q both map to class %s; merging operations", origin, path, className),
			}
			ir.Warnings = append(ir.Warnings, w)
			logger.Warn("class name collision", "class", className, "path", path, "previous", origin)
		} else {
			classOrigin[className] = path
		}
		verbs := ir.Classes[className]
		if verbs == nil {
			verbs = make(map[string]*Descriptor)
			ir.Classes[className] = verbs
		}

		for _, op := range doc.Operations(path) {
			operation, ok := doc.OperationID(path, op.Verb)
			if !ok {
				operation = OperationName(path, op.Verb)
			}

			rawParams, _ := op.Raw["parameters"].([]any)
			set, err := ClassifyParameters(operation, rawParams, defs)
			if err != nil {
				return nil, err
			}
			ir.Warnings = append(ir.Warnings, set.Warnings...)
			for _, w := range set.Warnings {
				logger.Warn("skipped parameter", "operation", w.Operation, "detail", w.Message)
			}

			rawResponses, _ := op.Raw["responses"].(map[string]any)
			response, err := SelectResponse(rawResponses, defs)
			if err != nil {
				return nil, fmt.Errorf("operation %s: %w", operation, err)
			}

			if _, dup := verbs[op.Verb]; dup {
				ir.Warnings = append(ir.Warnings, Warning{
					Operation: operation,
					Message:   fmt.Sprintf("verb %q already defined on class %s; descriptor replaced", op.Verb, className),
				})
			}
			verbs[op.Verb] = &Descriptor{
				Operation:      operation,
				RequiredArgs:   set.Required,
				OptionalArgs:   set.Optional,
				FormData:       set.Form,
				Body:           set.Body,
				ResponseSchema: response,
				Secure:         doc.GlobalSecurity() || doc.OperationSecurity(path, op.Verb),
			}
		}

		ir.URLEntries[FixupURL(strings.TrimPrefix(path, "/"), backend)] = className
	}

	// Flat schema table: every top-level reusable definition, resolved on a
	// private copy so the canonical table stays pristine.
	for _, name := range defs.Names() {
		body, _ := defs.Lookup("definitions", name)
		resolved, err := Resolve(body, defs)
		if err != nil {
			return nil, fmt.Errorf("definition %s: %w", name, err)
		}
		ir.Schemas[name] = resolved
	}

	return ir, nil
}
