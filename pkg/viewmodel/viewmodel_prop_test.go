package viewmodel

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/graphdata"
)

// graphGen draws arbitrary, deliberately messy graph payloads: ids may be
// empty or padded, edges may dangle, node ids may repeat.
func graphGen() *rapid.Generator[graphdata.GraphData] {
	id := rapid.SampledFrom([]string{
		"", " ", "a", "b", "c", " a ", "pkg", "src/m.py", "ghost",
	})
	label := rapid.SampledFrom([]string{"", "a.py", "__init__.py", "pkg", "m.py"})
	typ := rapid.SampledFrom([]string{"", "python", "cpp", "external"})

	node := rapid.Custom(func(t *rapid.T) graphdata.Node {
		return graphdata.Node{
			ID:    id.Draw(t, "id"),
			Label: label.Draw(t, "label"),
			Type:  typ.Draw(t, "type"),
		}
	})
	edge := rapid.Custom(func(t *rapid.T) graphdata.Edge {
		return graphdata.Edge{
			ID:       id.Draw(t, "eid"),
			Source:   id.Draw(t, "src"),
			Target:   id.Draw(t, "dst"),
			Kind:     graphdata.EdgeKindImport,
			External: rapid.Bool().Draw(t, "ext"),
		}
	})

	return rapid.Custom(func(t *rapid.T) graphdata.GraphData {
		return graphdata.GraphData{
			Nodes: rapid.SliceOfN(node, 0, 12).Draw(t, "nodes"),
			Edges: rapid.SliceOfN(edge, 0, 12).Draw(t, "edges"),
			Meta: graphdata.Meta{
				Cycles: rapid.SliceOfN(rapid.SliceOfN(id, 0, 4), 0, 3).Draw(t, "cycles"),
			},
		}
	})
}

func optionsGen() *rapid.Generator[FilterOptions] {
	return rapid.Custom(func(t *rapid.T) FilterOptions {
		return FilterOptions{
			ShowExternal: rapid.Bool().Draw(t, "showExternal"),
			ShowInits:    rapid.Bool().Draw(t, "showInits"),
		}
	})
}

// Every projected edge must reference two projected nodes. This is the
// referential integrity guarantee surfaces rely on.
func TestProjectionReferentialIntegrity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := graphGen().Draw(t, "graph")
		opts := optionsGen().Draw(t, "opts")

		out := FilterAndProject(g, opts)
		for _, e := range out.VisibleEdges {
			if _, ok := out.VisibleNodes[e.Source]; !ok {
				t.Fatalf("edge %q references hidden source %q", e.ID, e.Source)
			}
			if _, ok := out.VisibleNodes[e.Target]; !ok {
				t.Fatalf("edge %q references hidden target %q", e.ID, e.Target)
			}
		}
	})
}

// NodeOrder must be exactly the keys of VisibleNodes, without repeats.
func TestProjectionOrderMatchesNodes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		out := FilterAndProject(graphGen().Draw(t, "graph"), optionsGen().Draw(t, "opts"))

		if len(out.NodeOrder) != len(out.VisibleNodes) {
			t.Fatalf("order has %d entries, map has %d", len(out.NodeOrder), len(out.VisibleNodes))
		}
		seen := make(map[string]bool, len(out.NodeOrder))
		for _, id := range out.NodeOrder {
			if seen[id] {
				t.Fatalf("id %q repeated in node order", id)
			}
			seen[id] = true
			if _, ok := out.VisibleNodes[id]; !ok {
				t.Fatalf("ordered id %q not in visible nodes", id)
			}
		}
	})
}

// Cycle tags may only land on visible nodes, and filters must actually hold:
// no external node when ShowExternal is off, no init marker when ShowInits is
// off.
func TestProjectionFiltersHold(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		opts := optionsGen().Draw(t, "opts")
		out := FilterAndProject(graphGen().Draw(t, "graph"), opts)

		for id := range out.CycleMembers {
			if _, ok := out.VisibleNodes[id]; !ok {
				t.Fatalf("cycle tag on hidden node %q", id)
			}
		}
		for id, n := range out.VisibleNodes {
			if !opts.ShowExternal && n.Kind == graphdata.KindExternal {
				t.Fatalf("external node %q visible with externals hidden", id)
			}
			if !opts.ShowInits && n.Label == graphdata.InitMarkerLabel {
				t.Fatalf("init marker %q visible with inits hidden", id)
			}
		}
	})
}

// Turning a filter off only removes nodes, never adds them.
func TestProjectionFilterMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := graphGen().Draw(t, "graph")

		all := FilterAndProject(g, FilterOptions{ShowExternal: true, ShowInits: true})
		restricted := FilterAndProject(g, optionsGen().Draw(t, "opts"))

		for id := range restricted.VisibleNodes {
			if _, ok := all.VisibleNodes[id]; !ok {
				t.Fatalf("node %q visible under restriction but not under full visibility", id)
			}
		}
	})
}
