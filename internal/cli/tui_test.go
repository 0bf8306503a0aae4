package cli

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/config"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/graphdata"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/viewmodel"
)

func testCLI() *CLI {
	return &CLI{
		Logger: log.New(io.Discard),
		Config: config.Default(),
	}
}

func testGraph() graphdata.GraphData {
	return graphdata.GraphData{
		Nodes: []graphdata.Node{
			{ID: "a", Label: "a.py", Type: "python"},
			{ID: "b", Label: "__init__.py", Type: "python"},
			{ID: "pkg", Label: "pkg", Type: "external"},
		},
		Edges: []graphdata.Edge{
			{ID: "e1", Source: "a", Target: "pkg", Kind: "import", External: true},
		},
		Meta: graphdata.Meta{InternalFiles: 2, ExternalPkgs: 1},
	}
}

func newTestViewer(t *testing.T) viewerModel {
	t.Helper()
	m := newViewerModel(testCLI(), viewerSetup{
		filters: viewmodel.DefaultOptions(),
		graph:   testGraph(),
	})
	if m.errText != "" {
		t.Fatalf("viewer failed to initialize: %s", m.errText)
	}
	return m
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m viewerModel, msg tea.Msg) viewerModel {
	t.Helper()
	next, _ := m.Update(msg)
	vm, ok := next.(viewerModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return vm
}

func TestViewerInitialProjection(t *testing.T) {
	m := newTestViewer(t)

	// defaults: externals shown, init marker hidden
	if len(m.elements.VisibleNodes) != 2 {
		t.Errorf("visible nodes = %d, want 2", len(m.elements.VisibleNodes))
	}
	if _, ok := m.elements.VisibleNodes["b"]; ok {
		t.Error("init marker should start hidden")
	}
}

func TestViewerToggleExternal(t *testing.T) {
	m := newTestViewer(t)

	m = update(t, m, keyPress('e'))
	if _, ok := m.elements.VisibleNodes["pkg"]; ok {
		t.Error("external node should be hidden after toggle")
	}
	if len(m.elements.VisibleEdges) != 0 {
		t.Error("edge to hidden external must disappear")
	}

	m = update(t, m, keyPress('e'))
	if _, ok := m.elements.VisibleNodes["pkg"]; !ok {
		t.Error("external node should return after second toggle")
	}
}

func TestViewerToggleInits(t *testing.T) {
	m := newTestViewer(t)

	m = update(t, m, keyPress('i'))
	if _, ok := m.elements.VisibleNodes["b"]; !ok {
		t.Error("init marker should be visible after toggle")
	}
}

func TestViewerSelectionNavigation(t *testing.T) {
	m := newTestViewer(t)

	m = update(t, m, keyPress('j'))
	if got := m.surface.Selected(); got != m.elements.NodeOrder[0] {
		t.Errorf("first j should select first node, got %q", got)
	}

	m = update(t, m, keyPress('j'))
	if got := m.surface.Selected(); got != m.elements.NodeOrder[1] {
		t.Errorf("second j should select second node, got %q", got)
	}

	// clamped at the end
	m = update(t, m, keyPress('j'))
	if got := m.surface.Selected(); got != m.elements.NodeOrder[1] {
		t.Errorf("cursor must clamp at last node, got %q", got)
	}

	m = update(t, m, keyPress('k'))
	if got := m.surface.Selected(); got != m.elements.NodeOrder[0] {
		t.Errorf("k should move back, got %q", got)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.surface.Selected(); got != "" {
		t.Errorf("esc should clear selection, got %q", got)
	}
}

func TestViewerSelectionSurvivesCompatibleToggle(t *testing.T) {
	m := newTestViewer(t)

	m = update(t, m, keyPress('j')) // selects "a"
	m = update(t, m, keyPress('i'))
	if got := m.surface.Selected(); got != "a" {
		t.Errorf("selection of still-visible node must survive, got %q", got)
	}
}

func TestViewerSelectionClearedWhenHidden(t *testing.T) {
	m := newTestViewer(t)

	// select the external node, then hide externals
	m.surface.Select("pkg")
	m.cursor = nodeIndex(m.elements.NodeOrder, "pkg")
	m = update(t, m, keyPress('e'))

	if got := m.surface.Selected(); got != "" {
		t.Errorf("selection of hidden node must clear, got %q", got)
	}
}

func TestViewerAnalysisErrorKeepsGraph(t *testing.T) {
	m := newTestViewer(t)
	before := len(m.elements.VisibleNodes)

	m = update(t, m, analysisMsg{uploadID: "x", err: io.ErrUnexpectedEOF})

	if m.errText == "" {
		t.Error("failed upload must surface an error")
	}
	if len(m.elements.VisibleNodes) != before {
		t.Error("failed upload must keep the previous graph")
	}
}

func TestViewerAppliesResultsInCompletionOrder(t *testing.T) {
	m := newTestViewer(t)
	m.lastUpload = "new"
	m.uploading = true

	older := graphdata.GraphData{Nodes: []graphdata.Node{{ID: "old", Label: "old.py"}}}
	m = update(t, m, analysisMsg{uploadID: "old", graph: older})

	if _, ok := m.elements.VisibleNodes["old"]; !ok {
		t.Error("every completed upload applies, regardless of start order")
	}
	if !m.uploading {
		t.Error("still waiting on the most recent upload")
	}

	newest := graphdata.GraphData{Nodes: []graphdata.Node{{ID: "new", Label: "new.py"}}}
	m = update(t, m, analysisMsg{uploadID: "new", graph: newest})

	if _, ok := m.elements.VisibleNodes["new"]; !ok {
		t.Error("latest completion wins the displayed graph")
	}
	if m.uploading {
		t.Error("upload indicator must clear once the latest round completes")
	}
}

func TestViewerViewStates(t *testing.T) {
	m := newTestViewer(t)
	m.width, m.height = 60, 20

	view := m.View()
	if !strings.Contains(view, "DepViz") {
		t.Error("view missing title")
	}
	if !strings.Contains(view, "internal 2") {
		t.Error("view missing summary counters")
	}

	empty := newViewerModel(testCLI(), viewerSetup{
		filters: viewmodel.DefaultOptions(),
	})
	empty.width, empty.height = 60, 20
	if !strings.Contains(empty.View(), "no visible nodes") {
		t.Error("empty graph must show the no-data state")
	}
}

func TestViewerQuitTearsDown(t *testing.T) {
	m := newTestViewer(t)

	next, cmd := m.Update(keyPress('q'))
	vm := next.(viewerModel)
	if cmd == nil {
		t.Fatal("q must return tea.Quit")
	}
	if vm.ctrl.Initialized(panelContainer) {
		t.Error("quit must tear the surface down")
	}
}
