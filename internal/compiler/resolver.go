package compiler

import (
	"fmt"
	"strings"

	"github.com/mohae/deepcopy"
)

// maxRefDepth caps resolution depth for deeply nested (but non-circular)
// reference chains.
const maxRefDepth = 100

// DefinitionSource is the read-only definitions table the resolver looks
// references up in.
type DefinitionSource interface {
	Lookup(section, name string) (map[string]any, bool)
}

// CircularRefError reports a reference cycle in the definitions graph.
type CircularRefError struct {
	Chain []string
}

func (e *CircularRefError) Error() string {
	return fmt.Sprintf("circular schema reference: %s", strings.Join(e.Chain, " -> "))
}

// MissingDefinitionError reports a reference whose target is absent from the
// definitions table.
type MissingDefinitionError struct {
	Section string
	Name    string
}

func (e *MissingDefinitionError) Error() string {
	return fmt.Sprintf("schema reference target %s/%s not found", e.Section, e.Name)
}

// Resolve returns a copy of fragment with every $ref node replaced by the
// full body of the definition it points to, recursively. The input fragment
// and the definitions table are never mutated. Resolution is idempotent: a
// fragment with no references comes back equal to its input.
func Resolve(fragment map[string]any, defs DefinitionSource) (map[string]any, error) {
	if fragment == nil {
		return nil, nil
	}
	out := deepcopy.Copy(fragment).(map[string]any)
	r := &resolver{defs: defs, expanding: make(map[string]bool)}
	if err := r.walk(out, 0, nil); err != nil {
		return nil, err
	}
	return out, nil
}

type resolver struct {
	defs DefinitionSource
	// expanding tracks the definitions currently on the recursion stack, so
	// a cycle is caught instead of recursing without bound.
	expanding map[string]bool
}

func (r *resolver) walk(node map[string]any, depth int, chain []string) error {
	if depth > maxRefDepth {
		return fmt.Errorf("schema reference nesting exceeds %d levels", maxRefDepth)
	}

	var expanded string
	if ref, ok := node["$ref"].(string); ok {
		section, name, err := splitRef(ref)
		if err != nil {
			return err
		}
		key := section + "/" + name
		if r.expanding[key] {
			return &CircularRefError{Chain: append(append([]string{}, chain...), key)}
		}
		target, ok := r.defs.Lookup(section, name)
		if !ok {
			return &MissingDefinitionError{Section: section, Name: name}
		}
		delete(node, "$ref")
		// Definition fields take precedence over whatever sits beside the ref.
		body := deepcopy.Copy(target).(map[string]any)
		for k, v := range body {
			node[k] = v
		}
		r.expanding[key] = true
		expanded = key
		chain = append(chain, key)
	}

	for _, value := range node {
		if child, ok := value.(map[string]any); ok {
			if err := r.walk(child, depth+1, chain); err != nil {
				return err
			}
		}
	}

	if expanded != "" {
		delete(r.expanding, expanded)
	}
	return nil
}

// splitRef extracts the (section, name) pair from a reference locator such as
// "#/definitions/Widget"; only the last two path segments matter.
func splitRef(ref string) (section, name string, err error) {
	parts := strings.Split(ref, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("malformed schema reference %q", ref)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
