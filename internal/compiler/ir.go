package compiler

// Intermediate representation handed to the rendering stage.

// SchemaExpr is the schema slot of a descriptor: either a symbolic reference
// into the shared named-schema table, or a fully resolved inline tree. A nil
// SchemaExpr means no schema was specified.
type SchemaExpr interface {
	schemaExpr()
}

// NamedSchemaRef points at a reusable definition by name. The rendering stage
// emits a lookup into the generated schema module instead of inlining it.
type NamedSchemaRef struct {
	Name string
}

func (NamedSchemaRef) schemaExpr() {}

// InlineSchema carries a fully resolved schema tree with no references left.
type InlineSchema struct {
	Tree map[string]any
}

func (InlineSchema) schemaExpr() {}

// Parameter is a classified path, query, or form parameter.
type Parameter struct {
	Name             string
	Location         Location
	Required         bool
	Type             string
	Format           string
	Description      string
	CollectionFormat string
	// Raw keeps the declared fragment for downstream schema cleaning.
	Raw map[string]any
}

// Body is the single body payload of an operation.
type Body struct {
	Name     string
	Required bool
	Schema   SchemaExpr
}

// Descriptor is the per-operation unit consumed by rendering, keyed by
// (class name, verb) in the IR.
type Descriptor struct {
	Operation      string
	RequiredArgs   []Parameter
	OptionalArgs   []Parameter
	FormData       []Parameter
	Body           *Body
	ResponseSchema SchemaExpr
	Secure         bool
}

// Warning is a recoverable condition reported during compilation.
type Warning struct {
	Operation string
	Message   string
}

// IR is the compiler's output: the class→verb→descriptor mapping plus the
// auxiliary maps each artifact is rendered from.
type IR struct {
	// Classes maps class name → verb → descriptor.
	Classes map[string]map[string]*Descriptor
	// URLEntries maps the backend-ready URL pattern to its class name.
	URLEntries map[string]string
	// Schemas maps definition name → fully resolved schema body.
	Schemas map[string]map[string]any
	// Warnings collects the recoverable conditions hit during the pass.
	Warnings []Warning
}
