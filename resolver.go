package solgraph

import (
	"encoding/json"
	"regexp"
	"strconv"

	"gitlab.com/tozd/go/errors"
)

// Type identifiers embed the declaration ids of user-defined types, e.g.
// "t_struct$_State_$4805_storage". The first marker is the type's own
// declaration.
var typeIDPattern = regexp.MustCompile(`\$(\d+)`)

// ResolveReference resolves the declaration a node points at. An explicit
// referencedDeclaration link wins; nodes without one, or whose link targets
// something outside the declaration index, fall back to the first $<id>
// marker in typeDescriptions.typeIdentifier. Built-in symbols carry
// negative link ids that match no declaration, so they surface as
// ErrUnresolvedReference rather than a guessed location.
func (b *Build) ResolveReference(nodeID int64) (*DeclarationSymbol, error) {
	n, ok := b.graph.Node(nodeID)
	if !ok {
		return nil, errors.Errorf("%w: node %d not in build %s", ErrUnresolvedReference, nodeID, b.id)
	}
	if n.ReferencedDeclaration != nil {
		if decl, ok := b.graph.Declaration(*n.ReferencedDeclaration); ok {
			return decl, nil
		}
	}
	if target, ok := typeIdentifierTarget(n); ok {
		if decl, ok := b.graph.Declaration(target); ok {
			return decl, nil
		}
	}
	if n.ReferencedDeclaration != nil {
		return nil, errors.Errorf("%w: node %d links to %d, which is not in the declaration index",
			ErrUnresolvedReference, nodeID, *n.ReferencedDeclaration)
	}
	return nil, errors.Errorf("%w: node %d carries no declaration link", ErrUnresolvedReference, nodeID)
}

func typeIdentifierTarget(n *ASTNode) (int64, bool) {
	raw := n.Attrs["typeDescriptions"]
	if raw == nil {
		return 0, false
	}
	var td struct {
		TypeIdentifier string `json:"typeIdentifier"`
	}
	if err := json.Unmarshal(raw, &td); err != nil {
		return 0, false
	}
	m := typeIDPattern.FindStringSubmatch(td.TypeIdentifier)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ResolveSegment returns the span of one dotted-name segment. A node named
// "Pool.State" with two nameLocations entries resolves segment 1 to the
// span covering "State".
func (b *Build) ResolveSegment(nodeID int64, segment int) (Span, error) {
	n, ok := b.graph.Node(nodeID)
	if !ok {
		return Span{}, errors.Errorf("%w: node %d not in build %s", ErrUnresolvedReference, nodeID, b.id)
	}
	if segment < 0 || segment >= len(n.NameLocations) {
		return Span{}, errors.Errorf("%w: node %d has no location for segment %d of %q",
			ErrUnresolvedReference, nodeID, segment, n.Name)
	}
	sp, err := ParseSpan(n.NameLocations[segment])
	if err != nil {
		return Span{}, errors.Errorf("node %d segment %d: %w", nodeID, segment, err)
	}
	return sp, nil
}

// ResolveSegmentDeclaration resolves one dotted-name segment to the
// declaration it names. The final segment is the node's own reference
// target; earlier segments walk outward from that target through its
// enclosing declarations, so segment 0 of "Pool.State" lands on the
// contract enclosing the struct. A walk whose enclosing declaration does
// not carry the segment's name fails with ErrUnresolvedReference instead
// of guessing.
func (b *Build) ResolveSegmentDeclaration(nodeID int64, segment int) (*DeclarationSymbol, error) {
	n, ok := b.graph.Node(nodeID)
	if !ok {
		return nil, errors.Errorf("%w: node %d not in build %s", ErrUnresolvedReference, nodeID, b.id)
	}
	segs := n.NameSegments()
	if segment < 0 || segment >= len(segs) {
		return nil, errors.Errorf("%w: node %d has no segment %d of %q",
			ErrUnresolvedReference, nodeID, segment, n.Name)
	}
	final, err := b.ResolveReference(nodeID)
	if err != nil {
		return nil, err
	}
	if segment == len(segs)-1 {
		return final, nil
	}

	cur, _ := b.graph.Node(final.ID)
	for hops := len(segs) - 1 - segment; hops > 0 && cur != nil; hops-- {
		cur = b.enclosingDeclarationNode(cur)
	}
	if cur == nil {
		return nil, errors.Errorf("%w: node %d: no enclosing declaration for segment %d of %q",
			ErrUnresolvedReference, nodeID, segment, n.Name)
	}
	decl, ok := b.graph.Declaration(cur.ID)
	if !ok {
		return nil, errors.Errorf("%w: node %d: enclosing node %d is not a declaration",
			ErrUnresolvedReference, nodeID, cur.ID)
	}
	if decl.Name != segs[segment] {
		return nil, errors.Errorf("%w: segment %d of %q names %q but the enclosing declaration is %q",
			ErrUnresolvedReference, segment, n.Name, segs[segment], decl.Name)
	}
	return decl, nil
}

// enclosingDeclarationNode walks the parent chain to the nearest ancestor
// that is itself a declaration, nil when the chain tops out first.
func (b *Build) enclosingDeclarationNode(n *ASTNode) *ASTNode {
	for p := b.graph.Parent(n.ID); p != nil; p = b.graph.Parent(p.ID) {
		if _, ok := declarationKind(p); ok {
			return p
		}
	}
	return nil
}

// DefinitionLocation resolves a declaration id to the presentable
// definition site: path, start and end positions, and byte length. For
// definers carrying per-segment name locations the final segment wins; it
// covers the identifier a reader calls the definition. Everything else
// reports the defining node's own span.
func (b *Build) DefinitionLocation(declID int64) (Location, error) {
	if _, ok := b.graph.Declaration(declID); !ok {
		return Location{}, errors.Errorf("%w: declaration %d not in build %s", ErrUnresolvedReference, declID, b.id)
	}
	n, _ := b.graph.Node(declID)
	var (
		sp  Span
		err error
	)
	if len(n.NameLocations) > 0 {
		sp, err = ParseSpan(n.NameLocations[len(n.NameLocations)-1])
	} else {
		sp, err = n.Span()
	}
	if err != nil {
		return Location{}, err
	}
	return b.spanLocation(sp)
}

// NodeLocation resolves a node's own span to a location.
func (b *Build) NodeLocation(nodeID int64) (Location, error) {
	n, ok := b.graph.Node(nodeID)
	if !ok {
		return Location{}, errors.Errorf("%w: node %d not in build %s", ErrUnresolvedReference, nodeID, b.id)
	}
	sp, err := n.Span()
	if err != nil {
		return Location{}, err
	}
	return b.spanLocation(sp)
}

func (b *Build) spanLocation(sp Span) (Location, error) {
	f, err := b.sources.File(sp.FileIndex)
	if err != nil {
		return Location{}, err
	}
	start, err := f.Position(sp.Start)
	if err != nil {
		return Location{}, err
	}
	end, err := f.Position(sp.End())
	if err != nil {
		return Location{}, err
	}
	return Location{Path: f.Path, Start: start, End: end, Length: sp.Length}, nil
}
