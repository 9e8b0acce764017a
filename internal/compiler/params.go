package compiler

import (
	"fmt"
)

// Location is the closed set of parameter locations the compiler handles.
// Anything else classifies as LocationUnsupported and is reported, not fatal.
type Location int

const (
	LocationPath Location = iota
	LocationQuery
	LocationBody
	LocationFormData
	LocationUnsupported
)

func (l Location) String() string {
	switch l {
	case LocationPath:
		return "path"
	case LocationQuery:
		return "query"
	case LocationBody:
		return "body"
	case LocationFormData:
		return "formData"
	default:
		return "unsupported"
	}
}

// ParseLocation maps a declared "in" value onto the closed variant.
func ParseLocation(in string) Location {
	switch in {
	case "path":
		return LocationPath
	case "query":
		return LocationQuery
	case "body":
		return LocationBody
	case "formData":
		return LocationFormData
	default:
		return LocationUnsupported
	}
}

// ParamSet is the classified view of an operation's parameters.
type ParamSet struct {
	Required []Parameter
	Optional []Parameter
	Form     []Parameter
	Body     *Body
	Warnings []Warning
}

// ClassifyParameters partitions an operation's declared parameters by
// location. Path and query parameters split into required/optional argument
// lists, preserving declaration order. Form parameters collect unsplit.
// The at-most-one body parameter keeps a symbolic reference when its schema
// is a $ref, and is fully resolved and embedded when inline. An unsupported
// location produces a warning and the parameter is skipped.
func ClassifyParameters(operation string, rawParams []any, defs DefinitionSource) (ParamSet, error) {
	var set ParamSet
	for _, entry := range rawParams {
		detail, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := detail["name"].(string)
		in, _ := detail["in"].(string)
		required, _ := detail["required"].(bool)

		switch loc := ParseLocation(in); loc {
		case LocationPath, LocationQuery:
			param := paramFromRaw(name, loc, required, detail)
			if required {
				set.Required = append(set.Required, param)
			} else {
				set.Optional = append(set.Optional, param)
			}
		case LocationBody:
			schema, _ := detail["schema"].(map[string]any)
			expr, err := schemaExprFor(schema, defs)
			if err != nil {
				return ParamSet{}, fmt.Errorf("body parameter %q of %s: %w", name, operation, err)
			}
			set.Body = &Body{Name: name, Required: required, Schema: expr}
		case LocationFormData:
			set.Form = append(set.Form, paramFromRaw(name, loc, required, detail))
		default:
			set.Warnings = append(set.Warnings, Warning{
				Operation: operation,
				Message:   fmt.Sprintf("parameter %q: location %q is not supported; parameter skipped", name, in),
			})
		}
	}
	return set, nil
}

// schemaExprFor implements the shared ref-or-inline policy: a referenced
// schema stays a symbolic lookup into the named-schema table; an inline
// schema is resolved in full and embedded.
func schemaExprFor(schema map[string]any, defs DefinitionSource) (SchemaExpr, error) {
	if schema == nil {
		return nil, nil
	}
	if ref, ok := schema["$ref"].(string); ok {
		_, name, err := splitRef(ref)
		if err != nil {
			return nil, err
		}
		return NamedSchemaRef{Name: name}, nil
	}
	resolved, err := Resolve(schema, defs)
	if err != nil {
		return nil, err
	}
	return InlineSchema{Tree: resolved}, nil
}

func paramFromRaw(name string, loc Location, required bool, detail map[string]any) Parameter {
	p := Parameter{
		Name:     name,
		Location: loc,
		Required: required,
		Raw:      detail,
	}
	p.Type, _ = detail["type"].(string)
	p.Format, _ = detail["format"].(string)
	p.Description, _ = detail["description"].(string)
	p.CollectionFormat, _ = detail["collectionFormat"].(string)
	return p
}
