package solgraph

import (
	"encoding/json"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ASTNode is one node of a build's syntax graph. The core fields every
// navigation query needs are lifted out of the document; everything else the
// compiler attached stays in Attrs as raw JSON, so schema additions across
// compiler releases survive a round trip untouched.
//
// Nodes are frozen once their build is constructed. ChildIDs preserves
// document order exactly as the fields appeared in the input.
type ASTNode struct {
	ID       int64
	NodeType string
	Src      string

	// Name is the declared or referenced identifier, "" when the node has
	// none. Member accesses on qualified types carry dotted names like
	// "Pool.State".
	Name string

	// NameLocations holds one span per dotted segment of Name, in segment
	// order. Empty when the compiler did not emit per-segment locations.
	NameLocations []string

	// ReferencedDeclaration is the id of the declaration this node points
	// at, nil for non-reference nodes.
	ReferencedDeclaration *int64

	ParentID *int64
	ChildIDs []int64

	// Attrs holds every input field not lifted into a core field, keyed by
	// attribute name, values verbatim from the document.
	Attrs map[string]json.RawMessage

	depth int
}

// Span decodes the node's src attribute.
func (n *ASTNode) Span() (Span, error) {
	sp, err := ParseSpan(n.Src)
	if err != nil {
		return Span{}, errors.Errorf("node %d: %w", n.ID, err)
	}
	return sp, nil
}

// NameSegments splits a dotted name into its segments. A plain name yields
// one segment; an empty name yields none.
func (n *ASTNode) NameSegments() []string {
	if n.Name == "" {
		return nil
	}
	return strings.Split(n.Name, ".")
}

// Attr returns the raw JSON of an uninterpreted attribute, nil when absent.
func (n *ASTNode) Attr(key string) json.RawMessage {
	return n.Attrs[key]
}

// attrString decodes a string-valued attribute, returning "" when the
// attribute is absent or not a string.
func (n *ASTNode) attrString(key string) string {
	raw, ok := n.Attrs[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// attrIDs decodes an attribute holding a list of node ids, nil when absent
// or not a list of integers.
func (n *ASTNode) attrIDs(key string) []int64 {
	raw, ok := n.Attrs[key]
	if !ok {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}
	return ids
}

// SymbolKind classifies a declaration by what it introduces.
type SymbolKind string

const (
	KindContract    SymbolKind = "contract"
	KindInterface   SymbolKind = "interface"
	KindLibrary     SymbolKind = "library"
	KindFunction    SymbolKind = "function"
	KindConstructor SymbolKind = "constructor"
	KindModifier    SymbolKind = "modifier"
	KindEvent       SymbolKind = "event"
	KindError       SymbolKind = "error"
	KindStruct      SymbolKind = "struct"
	KindEnum        SymbolKind = "enum"
	KindEnumValue   SymbolKind = "enum_value"
	KindVariable    SymbolKind = "variable"
	KindValueType   SymbolKind = "value_type"
	KindImport      SymbolKind = "import"
)

// SymbolKinds lists every kind in a stable order, for CLI flag validation.
func SymbolKinds() []SymbolKind {
	return []SymbolKind{
		KindContract, KindInterface, KindLibrary, KindFunction,
		KindConstructor, KindModifier, KindEvent, KindError,
		KindStruct, KindEnum, KindEnumValue, KindVariable,
		KindValueType, KindImport,
	}
}

// declarationKind maps a node to the symbol kind it declares. The second
// return is false for nodes that declare nothing.
func declarationKind(n *ASTNode) (SymbolKind, bool) {
	switch n.NodeType {
	case "ContractDefinition":
		switch n.attrString("contractKind") {
		case "interface":
			return KindInterface, true
		case "library":
			return KindLibrary, true
		default:
			return KindContract, true
		}
	case "FunctionDefinition":
		switch n.attrString("kind") {
		case "constructor":
			return KindConstructor, true
		default:
			return KindFunction, true
		}
	case "ModifierDefinition":
		return KindModifier, true
	case "EventDefinition":
		return KindEvent, true
	case "ErrorDefinition":
		return KindError, true
	case "StructDefinition":
		return KindStruct, true
	case "EnumDefinition":
		return KindEnum, true
	case "EnumValue":
		return KindEnumValue, true
	case "VariableDeclaration":
		return KindVariable, true
	case "UserDefinedValueTypeDefinition":
		return KindValueType, true
	case "ImportDirective":
		return KindImport, true
	}
	return "", false
}

// DeclarationSymbol is an entry in a build's declaration index: a node that
// introduces a symbol other nodes can reference by id.
type DeclarationSymbol struct {
	// ID is the declaring node's id, the value referencedDeclaration links
	// carry.
	ID   int64      `json:"id"`
	Name string     `json:"name"`
	Kind SymbolKind `json:"kind"`

	// QualifiedName is the enclosing declaration names outermost first,
	// ending with Name. ["Pool", "State"] for a struct State nested in
	// contract Pool.
	QualifiedName []string `json:"qualifiedName,omitempty"`
}

// Qualified joins the qualified name with dots.
func (d DeclarationSymbol) Qualified() string {
	return strings.Join(d.QualifiedName, ".")
}

// declarationName names a declaring node. Constructors, fallback, and
// receive functions have no identifier in source, so their kind attribute
// stands in; import directives answer to their unit alias or target path.
func declarationName(n *ASTNode) string {
	if n.Name != "" {
		return n.Name
	}
	switch n.NodeType {
	case "FunctionDefinition":
		return n.attrString("kind")
	case "ImportDirective":
		if alias := n.attrString("unitAlias"); alias != "" {
			return alias
		}
		return n.attrString("absolutePath")
	}
	return ""
}
