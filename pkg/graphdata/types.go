// Package graphdata defines the canonical payload produced by one run of the
// DepViz analysis service: the dependency graph nodes and edges plus summary
// metadata. A GraphData value is an immutable snapshot; a new upload replaces
// it wholesale rather than mutating it in place.
package graphdata

import "strings"

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Node kinds after wire normalization.
const (
	KindFile     = "file"
	KindExternal = "external"
)

// Edge kinds. The analysis service currently only reports import edges.
const (
	EdgeKindImport = "import"
)

// InitMarkerLabel is the conventional package-boundary placeholder file.
// Nodes carrying this label can be hidden via the show-inits toggle.
const InitMarkerLabel = "__init__.py"

// =============================================================================
// Node
// =============================================================================

// Node is one vertex of the dependency graph. For internal files ID is the
// repo-relative path; for external packages it is the package name. The wire
// field for the kind is "type" and carries per-language values ("python",
// "cpp", ...) for internal files; only "external" is significant, everything
// else normalizes to KindFile.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Kind returns the normalized node kind, KindFile or KindExternal.
func (n Node) Kind() string {
	if n.Type == KindExternal {
		return KindExternal
	}
	return KindFile
}

// IsExternal returns true for third-party package nodes.
func (n Node) IsExternal() bool { return n.Kind() == KindExternal }

// IsInitMarker returns true if the node's label marks a package boundary.
func (n Node) IsInitMarker() bool {
	return strings.TrimSpace(n.Label) == InitMarkerLabel
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a directed import dependency between two nodes.
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

// =============================================================================
// Meta
// =============================================================================

// Meta carries the summary counters and cycle report for one analysis run.
// Counters pass through to the UI unmodified.
type Meta struct {
	InternalFiles int        `json:"internal_files"`
	ExternalPkgs  int        `json:"external_pkgs"`
	SkippedFiles  int        `json:"skipped_files"`
	Cycles        [][]string `json:"cycles"`
	DurationMS    int        `json:"duration_ms"`
}

// =============================================================================
// GraphData
// =============================================================================

// GraphData is the full node/edge/metadata payload for one analysis run.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Meta  Meta   `json:"meta"`
}

// Empty returns true when no analysis result has been loaded. The UI shows
// an explicit "no data" state for empty graphs; emptiness is not an error.
func (g GraphData) Empty() bool {
	return len(g.Nodes) == 0 && len(g.Edges) == 0
}

// CleanID trims surrounding whitespace and reports whether the result is a
// valid identifier. Entries with invalid ids are best-effort noise from
// upstream and are dropped silently by consumers, never surfaced as errors.
func CleanID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	return id, id != ""
}
