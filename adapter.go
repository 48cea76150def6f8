package solgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"runtime"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// ParseOptions configures adapter behavior. The zero value is partial mode
// with serial parsing.
type ParseOptions struct {
	// Strict aborts on the first per-file error instead of logging, skipping
	// the file, and continuing with the rest of the document.
	Strict bool

	// Parallel walks independent build entries concurrently. Only build-tool
	// documents have independent entries; combined documents always parse
	// serially.
	Parallel bool
}

// DetectFormat sniffs which adapter can decode a document from its
// top-level keys.
func DetectFormat(data []byte) (SourceFormat, error) {
	var probe struct {
		BuildInfos json.RawMessage `json:"build_infos"`
		Sources    json.RawMessage `json:"sources"`
		SourceList json.RawMessage `json:"sourceList"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", errors.Errorf("%w: %v", ErrSchema, err)
	}
	switch {
	case probe.BuildInfos != nil:
		return FormatBuildInfo, nil
	case probe.Sources != nil && probe.SourceList != nil:
		return FormatCombined, nil
	}
	return "", errors.Errorf("%w: document has neither build_infos nor sources+sourceList", ErrSchema)
}

// --- Ordered document walking ---

// The compiler's JSON is open-ended: node objects mix known attributes with
// fields this package has never seen, and child order is significant. A
// plain map unmarshal would scramble field order, so the walker reads
// objects token by token, preserving document order end to end.

type fieldEntry struct {
	key   string
	value json.RawMessage
}

func decodeFields(data json.RawMessage) ([]fieldEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var fields []fieldEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("object key is not a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		fields = append(fields, fieldEntry{key: key, value: raw})
	}
	return fields, nil
}

func decodeElements(data json.RawMessage) ([]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var elems []json.RawMessage
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		elems = append(elems, raw)
	}
	return elems, nil
}

func firstByte(data json.RawMessage) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

// astWalker flattens source AST documents into a NodeGraph.
type astWalker struct {
	graph *NodeGraph
}

// walkRoot indexes one source unit document. The document must contribute
// at least one node; an object with no recognizable nodes is a schema
// error, not an empty file.
func (w *astWalker) walkRoot(doc json.RawMessage) error {
	before := w.graph.Len()
	if err := w.walkValue(doc, nil, 0); err != nil {
		return err
	}
	if w.graph.Len() == before {
		return errors.Errorf("%w: source AST contains no nodes", ErrSchema)
	}
	return nil
}

func (w *astWalker) walkValue(raw json.RawMessage, parent *ASTNode, depth int) error {
	switch firstByte(raw) {
	case '{':
		fields, err := decodeFields(raw)
		if err != nil {
			return errors.Errorf("%w: %v", ErrSchema, err)
		}
		return w.walkObject(fields, parent, depth)
	case '[':
		elems, err := decodeElements(raw)
		if err != nil {
			return errors.Errorf("%w: %v", ErrSchema, err)
		}
		for _, e := range elems {
			if err := w.walkValue(e, parent, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *astWalker) walkObject(fields []fieldEntry, parent *ASTNode, depth int) error {
	n, ok := liftNode(fields)
	if !ok {
		// Not a node: a wrapper like typeDescriptions or symbolAliases.
		// Walk through it without a graph entry; nodes inside keep the
		// current parent.
		for _, f := range fields {
			if err := w.walkValue(f.value, parent, depth); err != nil {
				return err
			}
		}
		return nil
	}

	if len(n.NameLocations) > 0 && len(n.NameLocations) != len(n.NameSegments()) {
		return errors.Errorf("%w: node %d: %d name locations for %d name segments",
			ErrSchema, n.ID, len(n.NameLocations), len(n.NameSegments()))
	}

	n.depth = depth
	if parent != nil {
		pid := parent.ID
		n.ParentID = &pid
	}
	if err := w.graph.register(n); err != nil {
		return err
	}
	if parent != nil {
		parent.ChildIDs = append(parent.ChildIDs, n.ID)
	} else {
		w.graph.addRoot(n.ID)
	}
	for _, f := range fields {
		if err := w.walkValue(f.value, n, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// --- Walk scheduling ---

// walkJob is one source document awaiting indexing.
type walkJob struct {
	path string
	ast  json.RawMessage
}

type walkResult struct {
	graph *NodeGraph
	err   error
}

// walkAll walks every job into its own staging graph and returns per-job
// results in input order. Walks are pure, so parallel mode fans them out
// over an errgroup bounded by CPU count; callers merge the staging graphs
// serially afterwards and decide what each recorded failure costs. In
// strict mode the first failing job cancels the rest.
func walkAll(ctx context.Context, jobs []walkJob, opts ParseOptions) ([]walkResult, error) {
	results := make([]walkResult, len(jobs))
	run := func(i int) error {
		job := jobs[i]
		staging := newNodeGraph()
		w := &astWalker{graph: staging}
		var err error
		if job.ast == nil {
			err = errors.Errorf("%w: source %s has no AST", ErrSchema, job.path)
		} else if err = w.walkRoot(job.ast); err != nil {
			err = errors.Errorf("source %s: %w", job.path, err)
		}
		if err != nil {
			results[i] = walkResult{err: err}
			if opts.Strict {
				return err
			}
			return nil
		}
		results[i] = walkResult{graph: staging}
		return nil
	}

	if !opts.Parallel || len(jobs) < 2 {
		for i := range jobs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := run(i); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.NumCPU(), len(jobs)))
	for i := range jobs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return run(i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// liftNode decides whether an object is an AST node and, if so, pulls the
// core attributes out of it. A node carries an integer id plus at least one
// of nodeType or src; everything else the object holds lands in Attrs
// verbatim. Objects without node identity return false.
func liftNode(fields []fieldEntry) (*ASTNode, bool) {
	var (
		id       int64
		hasID    bool
		nodeType string
		src      string
		hasSrc   bool
	)
	n := &ASTNode{Attrs: make(map[string]json.RawMessage, len(fields))}
	for _, f := range fields {
		switch f.key {
		case "id":
			if err := json.Unmarshal(f.value, &id); err == nil {
				hasID = true
				continue
			}
		case "nodeType":
			if err := json.Unmarshal(f.value, &nodeType); err == nil {
				continue
			}
		case "src":
			if err := json.Unmarshal(f.value, &src); err == nil {
				hasSrc = true
				continue
			}
		case "name":
			if err := json.Unmarshal(f.value, &n.Name); err == nil {
				continue
			}
		case "nameLocations":
			if err := json.Unmarshal(f.value, &n.NameLocations); err == nil {
				continue
			}
		case "referencedDeclaration":
			if err := json.Unmarshal(f.value, &n.ReferencedDeclaration); err == nil {
				continue
			}
		}
		n.Attrs[f.key] = f.value
	}
	if !hasID || (nodeType == "" && !hasSrc) {
		return nil, false
	}
	if nodeType == "" {
		nodeType = "Unknown"
	}
	n.ID = id
	n.NodeType = nodeType
	n.Src = src
	return n, true
}
