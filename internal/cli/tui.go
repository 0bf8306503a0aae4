package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/archive"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/controller"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/graphdata"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/surface/term"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/viewmodel"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/watcher"
)

// panelContainer names the single display panel the viewer owns.
const panelContainer = "terminal-panel"

// =============================================================================
// Messages
// =============================================================================

// analysisMsg carries the outcome of one upload round trip. Responses are
// applied in completion order: when uploads overlap, whichever finishes last
// determines the displayed graph, regardless of start order.
type analysisMsg struct {
	uploadID string
	graph    graphdata.GraphData
	err      error
}

// sourceChangedMsg signals a debounced change in the watched source tree.
type sourceChangedMsg struct{}

// =============================================================================
// ViewerModel - Interactive graph panel
// =============================================================================

// viewerSetup bundles everything runView resolved before starting the panel.
type viewerSetup struct {
	dir     string
	server  string
	noCache bool
	filters viewmodel.FilterOptions
	graph   graphdata.GraphData
	watch   *watcher.Watcher
}

// viewerModel is the bubbletea model for the interactive graph panel.
type viewerModel struct {
	cli     *CLI
	dir     string
	server  string
	noCache bool
	watch   *watcher.Watcher

	filters  viewmodel.FilterOptions
	graph    graphdata.GraphData
	elements viewmodel.RenderElements

	ctrl    *controller.Controller
	surface *term.Surface

	cursor  int
	width   int
	height  int
	errText string

	// id of the most recently started upload; uploading stays true until
	// that one completes, even if older uploads finish in between
	lastUpload string
	uploading  bool
}

// newViewerModel creates the viewer, initializes its rendering surface, and
// reconciles the initial graph onto it.
func newViewerModel(c *CLI, setup viewerSetup) viewerModel {
	surf := term.New()
	ctrl := controller.New(func(container string) (controller.Surface, error) {
		return surf, nil
	}, c.Logger)

	m := viewerModel{
		cli:     c,
		dir:     setup.dir,
		server:  setup.server,
		noCache: setup.noCache,
		watch:   setup.watch,
		filters: setup.filters,
		graph:   setup.graph,
		ctrl:    ctrl,
		surface: surf,
		cursor:  -1,
	}

	if err := ctrl.Initialize(panelContainer, func(nodeID string, selected bool) {
		if selected {
			c.Logger.Debug("node selected", "id", nodeID)
		} else {
			c.Logger.Debug("selection cleared")
		}
	}); err != nil {
		m.errText = err.Error()
		return m
	}

	m.applyGraph(setup.graph)
	return m
}

// applyGraph projects graph through the current filters and reconciles the
// panel. A selection that survives the projection is kept; one that does not
// is cleared rather than left pointing at a hidden node.
func (m *viewerModel) applyGraph(g graphdata.GraphData) {
	m.graph = g
	m.elements = viewmodel.FilterAndProject(g, m.filters)

	if err := m.ctrl.Reconcile(context.Background(), m.elements); err != nil {
		m.errText = err.Error()
		return
	}
	m.errText = ""

	if sel := m.surface.Selected(); sel != "" {
		if _, ok := m.elements.VisibleNodes[sel]; ok {
			m.surface.Select(sel)
			m.cursor = nodeIndex(m.elements.NodeOrder, sel)
			return
		}
	}
	m.surface.Select("")
	m.cursor = -1
}

func nodeIndex(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func (m viewerModel) Init() tea.Cmd {
	if m.watch != nil {
		return m.waitForChange()
	}
	return nil
}

// waitForChange blocks on the watcher's debounced change channel.
func (m viewerModel) waitForChange() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.watch.Changes(); !ok {
			return nil
		}
		return sourceChangedMsg{}
	}
}

// startUpload kicks off a re-analysis of the source tree. Each upload carries
// its own id so overlapping rounds can be told apart in the logs.
func (m *viewerModel) startUpload() tea.Cmd {
	if m.dir == "" {
		return nil
	}
	id := uuid.NewString()[:8]
	m.lastUpload = id
	m.uploading = true
	m.cli.Logger.Debug("upload started", "upload", id)

	client := m.cli.newTransport(m.server, m.noCache)
	dir := m.dir
	return func() tea.Msg {
		data, _, err := archive.Pack(dir)
		if err != nil {
			return analysisMsg{uploadID: id, err: err}
		}
		g, err := client.Analyze(context.Background(), data, true)
		return analysisMsg{uploadID: id, graph: g, err: err}
	}
}

func (m viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctrl.Teardown()
			return m, tea.Quit
		case "e":
			m.filters.ShowExternal = !m.filters.ShowExternal
			m.applyGraph(m.graph)
		case "i":
			m.filters.ShowInits = !m.filters.ShowInits
			m.applyGraph(m.graph)
		case "down", "j":
			m.moveCursor(1)
		case "up", "k":
			m.moveCursor(-1)
		case "esc":
			m.surface.Select("")
			m.cursor = -1
		case "r":
			if cmd := m.startUpload(); cmd != nil {
				return m, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sourceChangedMsg:
		m.cli.Logger.Debug("source tree changed", "dir", m.dir)
		return m, tea.Batch(m.startUpload(), m.waitForChange())

	case analysisMsg:
		if msg.uploadID == m.lastUpload {
			m.uploading = false
		}
		if msg.err != nil {
			m.cli.Logger.Warn("upload failed", "upload", msg.uploadID, "err", msg.err)
			m.errText = msg.err.Error()
			return m, nil
		}
		m.cli.Logger.Debug("upload applied", "upload", msg.uploadID,
			"nodes", len(msg.graph.Nodes), "edges", len(msg.graph.Edges))
		m.applyGraph(msg.graph)
	}

	return m, nil
}

// moveCursor steps the selection through the projected node order.
func (m *viewerModel) moveCursor(delta int) {
	n := len(m.elements.NodeOrder)
	if n == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	m.surface.Select(m.elements.NodeOrder[m.cursor])
}

func (m viewerModel) View() string {
	var b strings.Builder

	target := m.dir
	if target == "" {
		target = "saved graph"
	}
	b.WriteString(StyleTitle.Render("DepViz") + " " + StyleDim.Render(target))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	panelH := m.height - 7
	if panelH < 3 {
		panelH = 3
	}
	panelW := m.width
	if panelW < 10 {
		panelW = 10
	}

	if m.elements.Empty() {
		b.WriteString(StyleDim.Render("  no visible nodes"))
		b.WriteString(strings.Repeat("\n", panelH-1))
	} else {
		b.WriteString(m.surface.Render(panelW, panelH))
	}
	b.WriteString("\n\n")
	b.WriteString(m.footer())

	return b.String()
}

// statusLine reports upload progress, errors, and the selected node.
func (m viewerModel) statusLine() string {
	switch {
	case m.uploading:
		return StyleWarning.Render("uploading…")
	case m.errText != "":
		return StyleWarning.Render(m.errText)
	}
	if sel := m.surface.Selected(); sel != "" {
		n := m.elements.VisibleNodes[sel]
		line := "selected: " + StyleValue.Render(n.Label)
		if m.elements.CycleMembers[sel] {
			line += " " + StyleCycle.Render("(in cycle)")
		}
		return line
	}
	return StyleDim.Render(fmt.Sprintf("%d nodes · %d edges visible",
		len(m.elements.VisibleNodes), len(m.elements.VisibleEdges)))
}

// footer shows the summary counters and the key legend.
func (m viewerModel) footer() string {
	meta := m.graph.Meta
	counters := StyleDim.Render(fmt.Sprintf(
		"internal %d · external %d · skipped %d · cycles %d · %d ms",
		meta.InternalFiles, meta.ExternalPkgs, meta.SkippedFiles, len(meta.Cycles), meta.DurationMS))

	ext := "off"
	if m.filters.ShowExternal {
		ext = "on"
	}
	inits := "off"
	if m.filters.ShowInits {
		inits = "on"
	}
	keys := StyleDim.Render(fmt.Sprintf(
		"e external[%s]  i inits[%s]  j/k select  esc clear  r re-upload  q quit", ext, inits))

	return counters + "\n" + keys
}
