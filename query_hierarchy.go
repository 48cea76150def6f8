package solgraph

// ContractHierarchy is the inheritance view for one contract, interface, or
// library.
type ContractHierarchy struct {
	Symbol SymbolInfo `json:"symbol"`

	// Bases lists inherited contracts in C3-linearized order, most derived
	// first, the queried contract itself excluded. This is the compiler's
	// linearizedBaseContracts order, the order modifier and super lookups
	// follow.
	Bases []SymbolInfo `json:"bases"`

	// Derived lists contracts that inherit the queried one, directly or
	// transitively, in document order.
	Derived []SymbolInfo `json:"derived"`
}

// ContractHierarchy returns the inheritance hierarchy around a contract
// declaration. Returns nil with no error when the id is not a contract-like
// declaration in the build.
func (x *Index) ContractHierarchy(buildID string, contractID int64) (*ContractHierarchy, error) {
	b, err := x.Build(buildID)
	if err != nil {
		return nil, err
	}
	decl, ok := b.Declaration(contractID)
	if !ok || !contractKind(decl.Kind) {
		return nil, nil
	}

	h := &ContractHierarchy{
		Symbol:  x.symbolInfo(b, decl),
		Bases:   []SymbolInfo{},
		Derived: []SymbolInfo{},
	}

	node, _ := b.Node(contractID)
	for _, baseID := range node.attrIDs("linearizedBaseContracts") {
		if baseID == contractID {
			continue
		}
		if base, ok := b.Declaration(baseID); ok {
			h.Bases = append(h.Bases, x.symbolInfo(b, base))
		}
	}

	for _, decl := range b.Declarations() {
		if decl.ID == contractID || !contractKind(decl.Kind) {
			continue
		}
		n, ok := b.Node(decl.ID)
		if !ok {
			continue
		}
		for _, baseID := range n.attrIDs("linearizedBaseContracts") {
			if baseID == contractID {
				h.Derived = append(h.Derived, x.symbolInfo(b, decl))
				break
			}
		}
	}
	return h, nil
}

func contractKind(k SymbolKind) bool {
	switch k {
	case KindContract, KindInterface, KindLibrary:
		return true
	}
	return false
}

// symbolInfo builds the listing row for a declaration, shared by the
// hierarchy and call-graph queries.
func (x *Index) symbolInfo(b *Build, decl *DeclarationSymbol) SymbolInfo {
	sym := SymbolInfo{
		DeclarationSymbol: *decl,
		BuildID:           b.ID(),
		RefCount:          len(b.graph.ReferencesTo(decl.ID)),
	}
	if n, ok := b.Node(decl.ID); ok {
		if sp, err := definerSpan(n); err == nil {
			sym.Span = sp
			if path, err := b.sources.ResolvePath(sp.FileIndex); err == nil {
				sym.Path = path
			}
		}
	}
	return sym
}
