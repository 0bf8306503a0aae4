// Package viewmodel projects an analysis payload through display options into
// the set of elements a rendering surface should draw.
//
// The projection is a pure function over untrusted upstream data: malformed
// entries are dropped silently, the same inputs always yield the same
// elements, and the result is rebuilt from scratch on every change rather
// than patched incrementally.
package viewmodel

import (
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/graphdata"
)

// =============================================================================
// Options
// =============================================================================

// FilterOptions controls which graph elements are visible.
type FilterOptions struct {
	// ShowExternal includes third-party package nodes and their edges.
	ShowExternal bool
	// ShowInits includes package-boundary placeholder files (__init__.py).
	ShowInits bool
}

// DefaultOptions returns the UI defaults: externals shown, init markers hidden.
func DefaultOptions() FilterOptions {
	return FilterOptions{ShowExternal: true, ShowInits: false}
}

// =============================================================================
// Render Elements
// =============================================================================

// NodeView is a display-ready node.
type NodeView struct {
	ID    string
	Label string
	Kind  string // graphdata.KindFile or graphdata.KindExternal
}

// EdgeView is a display-ready directed edge. Source and Target are always
// keys of the surrounding RenderElements.VisibleNodes.
type EdgeView struct {
	ID       string
	Source   string
	Target   string
	Kind     string
	External bool
}

// RenderElements is the filtered, de-duplicated, cycle-annotated projection
// of one GraphData snapshot for a given FilterOptions.
type RenderElements struct {
	// VisibleNodes maps node id to its view. If upstream repeats an id, the
	// last occurrence wins.
	VisibleNodes map[string]NodeView
	// NodeOrder lists the keys of VisibleNodes in first-admission order.
	NodeOrder []string
	// VisibleEdges holds edges whose endpoints are both visible, unique by
	// id, in first-admission order.
	VisibleEdges []EdgeView
	// CycleMembers is the set of visible node ids that belong to a reported
	// import cycle. Hidden nodes are never tagged.
	CycleMembers map[string]bool
}

// Empty returns true when nothing is visible.
func (r RenderElements) Empty() bool { return len(r.VisibleNodes) == 0 }

// =============================================================================
// Projection
// =============================================================================

// FilterAndProject computes the RenderElements for a graph under the given
// options. It never fails: entries with invalid ids or dangling endpoints are
// treated as droppable noise from upstream, not as errors of this stage.
func FilterAndProject(g graphdata.GraphData, opts FilterOptions) RenderElements {
	out := RenderElements{
		VisibleNodes: make(map[string]NodeView, len(g.Nodes)),
		CycleMembers: make(map[string]bool),
	}

	// Node admission. Order among admitted nodes follows the input; a
	// repeated id keeps its first position but takes the last content.
	for _, n := range g.Nodes {
		id, ok := graphdata.CleanID(n.ID)
		if !ok {
			continue
		}
		if n.IsExternal() && !opts.ShowExternal {
			continue
		}
		if n.IsInitMarker() && !opts.ShowInits {
			continue
		}
		if _, seen := out.VisibleNodes[id]; !seen {
			out.NodeOrder = append(out.NodeOrder, id)
		}
		out.VisibleNodes[id] = NodeView{ID: id, Label: n.DisplayLabel(), Kind: n.Kind()}
	}

	// Edge admission. An edge is visible iff both endpoints were admitted;
	// there is no ghost-edge allowance for hidden externals.
	edgeIdx := make(map[string]int, len(g.Edges))
	for _, e := range g.Edges {
		id, ok := graphdata.CleanID(e.ID)
		if !ok {
			continue
		}
		src, ok := graphdata.CleanID(e.Source)
		if !ok {
			continue
		}
		dst, ok := graphdata.CleanID(e.Target)
		if !ok {
			continue
		}
		if _, ok := out.VisibleNodes[src]; !ok {
			continue
		}
		if _, ok := out.VisibleNodes[dst]; !ok {
			continue
		}
		view := EdgeView{ID: id, Source: src, Target: dst, Kind: e.Kind, External: e.External}
		if i, seen := edgeIdx[id]; seen {
			out.VisibleEdges[i] = view
			continue
		}
		edgeIdx[id] = len(out.VisibleEdges)
		out.VisibleEdges = append(out.VisibleEdges, view)
	}

	// Cycle tagging. Only drawn nodes carry the tag.
	for _, cycle := range g.Meta.Cycles {
		for _, raw := range cycle {
			id, ok := graphdata.CleanID(raw)
			if !ok {
				continue
			}
			if _, visible := out.VisibleNodes[id]; visible {
				out.CycleMembers[id] = true
			}
		}
	}

	return out
}
