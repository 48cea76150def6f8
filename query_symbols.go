package solgraph

import (
	"sort"
	"strings"
)

// SymbolInfo is one ListSymbols row: a declaration plus where it sits and
// how often the build references it.
type SymbolInfo struct {
	DeclarationSymbol
	BuildID  string `json:"buildId"`
	Path     string `json:"path,omitempty"`
	Span     Span   `json:"span"`
	RefCount int    `json:"refCount"`
}

// SymbolFilter narrows a symbol listing. Zero-value fields do not filter.
type SymbolFilter struct {
	// Kinds keeps only the listed symbol kinds.
	Kinds []SymbolKind

	// Name is a glob over symbol names, '*' matching any run of characters.
	Name string

	// Path keeps only symbols defined in the matching file, by exact path
	// or path suffix.
	Path string
}

func (f SymbolFilter) matches(sym SymbolInfo) bool {
	if len(f.Kinds) > 0 {
		ok := false
		for _, k := range f.Kinds {
			if sym.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Name != "" && !matchGlob(f.Name, sym.Name) {
		return false
	}
	if f.Path != "" && sym.Path != f.Path && !strings.HasSuffix(sym.Path, f.Path) {
		return false
	}
	return true
}

// SortField selects what a symbol listing orders by.
type SortField string

const (
	SortByName SortField = "name"
	SortByKind SortField = "kind"
	SortByPath SortField = "path"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort pairs a field with a direction. The zero value sorts by name
// ascending.
type Sort struct {
	Field SortField
	Order SortOrder
}

// Pagination controls result paging. A nil Limit means the default page
// size.
type Pagination struct {
	Limit  *int
	Offset int
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

func (p Pagination) normalize() Pagination {
	if p.Limit == nil {
		l := defaultLimit
		p.Limit = &l
	} else if *p.Limit > maxLimit {
		l := maxLimit
		p.Limit = &l
	} else if *p.Limit < 0 {
		l := 0
		p.Limit = &l
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// PagedResult carries one page of items plus the total matching count.
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

// ListSymbols lists a build's declarations, filtered, sorted, and paged.
// TotalCount reports matches before paging.
func (x *Index) ListSymbols(buildID string, filter SymbolFilter, sortBy Sort, page Pagination) (*PagedResult[SymbolInfo], error) {
	b, err := x.Build(buildID)
	if err != nil {
		return nil, err
	}
	page = page.normalize()

	var items []SymbolInfo
	for _, decl := range b.Declarations() {
		sym := x.symbolInfo(b, decl)
		if filter.matches(sym) {
			items = append(items, sym)
		}
	}

	sortSymbols(items, sortBy)
	totalCount := len(items)
	start := page.Offset
	if start > len(items) {
		start = len(items)
	}
	end := start + *page.Limit
	if end > len(items) {
		end = len(items)
	}
	paged := make([]SymbolInfo, end-start)
	copy(paged, items[start:end])
	return &PagedResult[SymbolInfo]{Items: paged, TotalCount: totalCount}, nil
}

// definerSpan is the span a declaration is presented at: the final name
// location when the compiler recorded per-segment spans, else the node's
// own span.
func definerSpan(n *ASTNode) (Span, error) {
	if len(n.NameLocations) > 0 {
		return ParseSpan(n.NameLocations[len(n.NameLocations)-1])
	}
	return n.Span()
}

func sortSymbols(items []SymbolInfo, s Sort) {
	field := s.Field
	switch field {
	case SortByName, SortByKind, SortByPath:
	default:
		field = SortByName
	}
	desc := s.Order == SortDesc
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if desc {
			a, b = b, a
		}
		switch field {
		case SortByKind:
			if a.Kind != b.Kind {
				return a.Kind < b.Kind
			}
		case SortByPath:
			if a.Path != b.Path {
				return a.Path < b.Path
			}
		default:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		}
		return a.ID < b.ID
	})
}

// matchGlob reports whether name matches a pattern where '*' matches any
// run of characters. Matching is case-sensitive and anchored at both ends.
func matchGlob(pattern, name string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return name == pattern
	}
	if !strings.HasPrefix(name, parts[0]) {
		return false
	}
	name = name[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(name, part)
		if idx < 0 {
			return false
		}
		name = name[idx+len(part):]
	}
	return strings.HasSuffix(name, parts[len(parts)-1])
}
