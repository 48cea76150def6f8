package solgraph

import (
	"gitlab.com/tozd/go/errors"
)

// Sentinel errors for the failure classes surfaced by adapters, graph
// construction, and queries. Callers classify with errors.Is; the wrapped
// message carries the offending value (span text, node id, file index).
var (
	// ErrSchema marks structurally invalid input: a required top-level key
	// is missing, or a source entry cannot be decoded at all.
	ErrSchema = errors.Base("invalid document schema")

	// ErrMalformedSpan marks a src attribute that is not three
	// colon-separated integers.
	ErrMalformedSpan = errors.Base("malformed source span")

	// ErrUnknownFileIndex marks a span whose file index has no entry in the
	// build's source registry.
	ErrUnknownFileIndex = errors.Base("unknown file index")

	// ErrDuplicateID marks two nodes of one build claiming the same id.
	// Always fatal for the affected build.
	ErrDuplicateID = errors.Base("duplicate node id")

	// ErrUnresolvedReference marks a node that carries no usable declaration
	// link, or a link whose target is absent from the declaration index.
	ErrUnresolvedReference = errors.Base("unresolved reference")

	// ErrUnsupportedVersion marks compiler output older than the minimum
	// supported release. Reported as a warning diagnostic, never fatal.
	ErrUnsupportedVersion = errors.Base("unsupported compiler version")

	// ErrUnknownBuild marks a query against a build id the index does not
	// hold.
	ErrUnknownBuild = errors.Base("unknown build")

	// ErrNoSource marks an operation that needs source text for a file whose
	// content is neither seeded nor readable from disk.
	ErrNoSource = errors.Base("source text unavailable")
)
