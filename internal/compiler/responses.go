package compiler

import (
	"fmt"
	"sort"
	"strconv"
)

// SelectResponse picks the single canonical success schema from an
// operation's response set. The "default" key is skipped; among the numeric
// codes in [200, 300) that declare a schema, the lowest code wins, which
// keeps selection deterministic when a spec declares more than one. A nil
// result means no qualifying response exists.
func SelectResponse(responses map[string]any, defs DefinitionSource) (SchemaExpr, error) {
	type candidate struct {
		code   int
		schema map[string]any
	}
	var candidates []candidate
	for name, value := range responses {
		if name == "default" {
			continue
		}
		code, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		if code < 200 || code >= 300 {
			continue
		}
		detail, ok := value.(map[string]any)
		if !ok {
			continue
		}
		schema, ok := detail["schema"].(map[string]any)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{code: code, schema: schema})
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].code < candidates[j].code })

	expr, err := schemaExprFor(candidates[0].schema, defs)
	if err != nil {
		return nil, fmt.Errorf("response %d: %w", candidates[0].code, err)
	}
	return expr, nil
}
