// Package term implements a rendering surface for the interactive terminal
// panel. Positions come from a force-directed layout pass (gonum's Eades
// spring embedder); drawing maps those positions onto a styled cell grid.
package term

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/graphdata"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/viewmodel"
)

// layoutSeed keeps positions reproducible across reconciles of the same
// elements, so toggling a filter doesn't scramble the whole picture.
const layoutSeed = 42

// layoutUpdates bounds the spring-embedder iterations per layout pass.
const layoutUpdates = 60

// Node glyphs.
const (
	glyphFile     = "●"
	glyphExternal = "◇"
)

var (
	styleFile     = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	styleExternal = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleCycle    = lipgloss.NewStyle().Foreground(lipgloss.Color("167")).Bold(true)
	styleSelected = lipgloss.NewStyle().Reverse(true)
)

// Surface renders graph elements onto a terminal cell grid.
// It implements controller.Surface.
type Surface struct {
	nodes  []viewmodel.NodeView
	edges  []viewmodel.EdgeView
	cycles map[string]bool

	ids       map[string]int64
	positions map[string]r2.Vec

	// viewport in layout units, valid after Fit
	minX, minY, maxX, maxY float64
	fitted                 bool

	selected string

	onSelect func(nodeID string)
	onClear  func()
}

// New creates an empty terminal surface.
func New() *Surface {
	return &Surface{cycles: make(map[string]bool)}
}

// Clear removes every element, position, and the current selection.
func (s *Surface) Clear() {
	s.nodes = s.nodes[:0]
	s.edges = s.edges[:0]
	s.cycles = make(map[string]bool)
	s.ids = nil
	s.positions = nil
	s.fitted = false
	s.selected = ""
}

// AddNode inserts a node.
func (s *Surface) AddNode(n viewmodel.NodeView) { s.nodes = append(s.nodes, n) }

// AddEdge inserts an edge. Both endpoints must already be present.
func (s *Surface) AddEdge(e viewmodel.EdgeView) { s.edges = append(s.edges, e) }

// TagCycleMember marks a node as part of an import cycle.
func (s *Surface) TagCycleMember(id string) { s.cycles[id] = true }

// Layout runs the Eades spring embedder over the current elements and keeps
// the resulting coordinates. Isolated nodes and self-loops are handled; the
// pass is deterministic for a given element set.
func (s *Surface) Layout(ctx context.Context) error {
	s.ids = make(map[string]int64, len(s.nodes))
	s.positions = make(map[string]r2.Vec, len(s.nodes))
	s.fitted = false
	if len(s.nodes) == 0 {
		return nil
	}

	g := simple.NewUndirectedGraph()
	for i, n := range s.nodes {
		id := int64(i)
		s.ids[n.ID] = id
		g.AddNode(simple.Node(id))
	}
	for _, e := range s.edges {
		from, to := s.ids[e.Source], s.ids[e.Target]
		if from == to {
			continue // self-loop carries no layout information
		}
		g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	eades := layout.EadesR2{
		Repulsion: 1,
		Rate:      1,
		Updates:   layoutUpdates,
		Theta:     0.1,
		Src:       rand.NewPCG(layoutSeed, layoutSeed),
	}
	optimizer := layout.NewOptimizerR2(g, eades.Update)
	for optimizer.Update() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	for nodeID, id := range s.ids {
		s.positions[nodeID] = optimizer.Coord2(id)
	}
	return nil
}

// Fit sets the viewport to the bounding box of the laid-out elements grown
// by padding on every side, in layout units.
func (s *Surface) Fit(padding float64) {
	if len(s.positions) == 0 {
		s.fitted = false
		return
	}
	s.minX, s.minY = math.Inf(1), math.Inf(1)
	s.maxX, s.maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range s.positions {
		s.minX = math.Min(s.minX, p.X)
		s.minY = math.Min(s.minY, p.Y)
		s.maxX = math.Max(s.maxX, p.X)
		s.maxY = math.Max(s.maxY, p.Y)
	}
	s.minX -= padding
	s.minY -= padding
	s.maxX += padding
	s.maxY += padding
	s.fitted = true
}

// OnSelectionChanged registers the handler fired when a node is selected.
func (s *Surface) OnSelectionChanged(fn func(nodeID string)) { s.onSelect = fn }

// OnSelectionCleared registers the handler fired when selection is cleared.
func (s *Surface) OnSelectionCleared(fn func()) { s.onClear = fn }

// Select marks nodeID as selected and fires the matching handler
// synchronously. An empty id clears the selection.
func (s *Surface) Select(nodeID string) {
	s.selected = nodeID
	if nodeID == "" {
		if s.onClear != nil {
			s.onClear()
		}
		return
	}
	if s.onSelect != nil {
		s.onSelect(nodeID)
	}
}

// Selected returns the currently selected node id, or "".
func (s *Surface) Selected() string { return s.selected }

// Release frees the surface.
func (s *Surface) Release() {
	s.Clear()
	s.onSelect = nil
	s.onClear = nil
}

// Render draws the fitted elements into a width×height cell grid and returns
// it as styled lines. Before a layout pass it returns an empty string.
func (s *Surface) Render(width, height int) string {
	if !s.fitted || width < 4 || height < 2 {
		return ""
	}

	type cell struct {
		glyph string
		style lipgloss.Style
	}
	grid := make([]*cell, width*height)

	spanX := s.maxX - s.minX
	spanY := s.maxY - s.minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	for _, n := range s.nodes {
		p, ok := s.positions[n.ID]
		if !ok {
			continue
		}
		col := int((p.X - s.minX) / spanX * float64(width-1))
		row := int((p.Y - s.minY) / spanY * float64(height-1))
		col = min(max(col, 0), width-1)
		row = min(max(row, 0), height-1)

		glyph := glyphFile
		style := styleFile
		if n.Kind == graphdata.KindExternal {
			glyph = glyphExternal
			style = styleExternal
		}
		if s.cycles[n.ID] {
			style = styleCycle
		}
		if n.ID == s.selected {
			style = styleSelected
		}
		grid[row*width+col] = &cell{glyph: glyph, style: style}
	}

	var b []byte
	for row := range height {
		for col := range width {
			if c := grid[row*width+col]; c != nil {
				b = append(b, c.style.Render(c.glyph)...)
			} else {
				b = append(b, ' ')
			}
		}
		if row < height-1 {
			b = append(b, '\n')
		}
	}
	return string(b)
}
