// Package dot implements a rendering surface backed by Graphviz. Elements
// accumulate as a DOT document, the layout pass runs the force-directed fdp
// engine, and the viewport fit rewrites the SVG frame to the render panel
// geometry: fixed height, fluid width.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/graphdata"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/viewmodel"
)

// PanelHeight is the fixed height of the render panel in viewport units.
// Width stays fluid so the panel can fill its container.
const PanelHeight = 560

// Surface accumulates render elements and produces an SVG document.
// It implements controller.Surface.
type Surface struct {
	nodes  []viewmodel.NodeView
	edges  []viewmodel.EdgeView
	cycles map[string]bool

	svg []byte

	onSelect func(nodeID string)
	onClear  func()
}

// New creates an empty SVG surface.
func New() *Surface {
	return &Surface{cycles: make(map[string]bool)}
}

// Clear removes every element and any rendered output.
func (s *Surface) Clear() {
	s.nodes = s.nodes[:0]
	s.edges = s.edges[:0]
	s.cycles = make(map[string]bool)
	s.svg = nil
}

// AddNode inserts a node.
func (s *Surface) AddNode(n viewmodel.NodeView) { s.nodes = append(s.nodes, n) }

// AddEdge inserts an edge. Both endpoints must already be present.
func (s *Surface) AddEdge(e viewmodel.EdgeView) { s.edges = append(s.edges, e) }

// TagCycleMember marks a node as part of an import cycle. Tagged nodes are
// drawn with the cycle highlight color.
func (s *Surface) TagCycleMember(id string) { s.cycles[id] = true }

// DOT returns the current elements as a Graphviz DOT document. Output is
// deterministic for a given insertion order.
func (s *Surface) DOT() string {
	var buf bytes.Buffer
	buf.WriteString("digraph deps {\n")
	buf.WriteString("  layout=fdp;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  edge [arrowsize=0.6, color=grey40];\n")
	buf.WriteString("\n")

	for _, n := range s.nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(s.nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.edges {
		attrs := ""
		if e.External {
			attrs = " [style=dashed]"
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.Source, e.Target, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func (s *Surface) nodeAttrs(n viewmodel.NodeView) []string {
	attrs := []string{fmt.Sprintf("label=%q", n.Label)}
	if n.Kind == graphdata.KindExternal {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	if s.cycles[n.ID] {
		attrs = append(attrs, "color=\"#c0392b\"", "fontcolor=\"#c0392b\"", "penwidth=2")
	}
	return attrs
}

// Layout runs the fdp force-directed engine over the current elements and
// stores the rendered SVG.
func (s *Surface) Layout(ctx context.Context) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.FDP)

	g, err := graphviz.ParseBytes([]byte(s.DOT()))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	s.svg = buf.Bytes()
	return nil
}

// Fit rewrites the SVG frame so the drawing fills the render panel: the
// viewBox grows by padding on every side, height is pinned to PanelHeight,
// and width is declared fluid.
func (s *Surface) Fit(padding float64) {
	if s.svg == nil {
		return
	}
	s.svg = fitViewBox(s.svg, padding)
}

// SVG returns the rendered document, or nil before the first layout pass.
func (s *Surface) SVG() []byte { return s.svg }

// RenderPNG rasterizes the current elements through the fdp engine. It is a
// separate render pass and does not touch the stored SVG.
func (s *Surface) RenderPNG(ctx context.Context) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.FDP)

	g, err := graphviz.ParseBytes([]byte(s.DOT()))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// OnSelectionChanged registers the selection handler. The SVG surface is a
// static export target, so the handler only fires via Select.
func (s *Surface) OnSelectionChanged(fn func(nodeID string)) { s.onSelect = fn }

// OnSelectionCleared registers the selection-cleared handler.
func (s *Surface) OnSelectionCleared(fn func()) { s.onClear = fn }

// Select fires the selection handlers as a user click would.
func (s *Surface) Select(nodeID string) {
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

// Release frees the surface.
func (s *Surface) Release() {
	s.Clear()
	s.onSelect = nil
	s.onClear = nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// fitViewBox expands the SVG viewBox by padding and pins the panel geometry.
func fitViewBox(svg []byte, padding float64) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	x, _ := strconv.ParseFloat(string(match[1]), 64)
	y, _ := strconv.ParseFloat(string(match[2]), 64)
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	frame := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.2f %.2f %.2f %.2f" width="100%%" height="%d">`,
		x-padding, y-padding, w+2*padding, h+2*padding, PanelHeight)

	return svgTagRe.ReplaceAll(svg, []byte(frame))
}
