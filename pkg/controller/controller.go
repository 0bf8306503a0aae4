// Package controller reconciles projected render elements onto a live
// rendering surface and relays node selection back to the application.
package controller

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/errors"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/viewmodel"
)

// FitPadding is the viewport padding, in surface units, applied after layout.
const FitPadding = 20

// SelectionFunc receives the selected node id, or selected=false when the
// selection was cleared.
type SelectionFunc func(nodeID string, selected bool)

// Surface is the low-level drawing and layout capability. It accepts nodes
// and edges and produces positions and pixels; the controller never reaches
// below this interface.
//
// A Surface must only be mutated from the UI goroutine. Selection handlers
// fire synchronously from user interaction events.
type Surface interface {
	// Clear removes every element currently on the surface.
	Clear()
	// AddNode inserts a node. Nodes must exist before edges referencing them.
	AddNode(n viewmodel.NodeView)
	// AddEdge inserts a directed edge between two present nodes.
	AddEdge(e viewmodel.EdgeView)
	// TagCycleMember applies the distinguishing cycle visual to a node.
	TagCycleMember(id string)
	// Layout runs a force-directed layout pass over the current elements.
	Layout(ctx context.Context) error
	// Fit adjusts the viewport to the element bounds with the given padding.
	Fit(padding float64)
	// OnSelectionChanged registers the handler invoked with a node id when
	// the user selects a node. A nil handler detaches.
	OnSelectionChanged(fn func(nodeID string))
	// OnSelectionCleared registers the handler invoked when the selection is
	// cleared. A nil handler detaches.
	OnSelectionCleared(fn func())
	// Release frees the surface. The surface must not be used afterwards.
	Release()
}

// Factory creates the surface for a display panel container.
type Factory func(container string) (Surface, error)

// Controller owns exactly one live rendering-surface instance per display
// panel and keeps it consistent with the latest render elements.
//
// All methods must be called from the UI goroutine; the controller performs
// no locking because there is no concurrent access by design of the shell.
type Controller struct {
	newSurface Factory
	logger     *log.Logger

	container string
	surface   Surface
	onSelect  SelectionFunc
}

// New creates a controller that builds surfaces with factory.
// A nil logger falls back to log.Default().
func New(factory Factory, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{newSurface: factory, logger: logger}
}

// Initialize lazily creates the rendering surface for container and registers
// the selection handlers. Re-initializing the same container is a no-op;
// initializing a different container releases the previous surface first.
func (c *Controller) Initialize(container string, onSelect SelectionFunc) error {
	if c.surface != nil {
		if c.container == container {
			return nil
		}
		c.Teardown()
	}

	s, err := c.newSurface(container)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSurface, err, "create surface for %q", container)
	}

	c.surface = s
	c.container = container
	c.onSelect = onSelect

	s.OnSelectionChanged(func(nodeID string) {
		if c.onSelect != nil {
			c.onSelect(nodeID, true)
		}
	})
	s.OnSelectionCleared(func() {
		if c.onSelect != nil {
			c.onSelect("", false)
		}
	})

	c.logger.Debug("surface initialized", "container", container)
	return nil
}

// Reconcile replaces the surface contents with elements: every current
// element is removed, nodes are inserted before the edges that reference
// them, cycle members get their visual tag, then a force-directed layout pass
// runs and the viewport is fit to the new bounds.
//
// This is a full replace-and-relayout on every change, not an incremental
// diff. Graphs are bounded by upstream ingestion limits, so correctness and
// simplicity win over incremental updates.
func (c *Controller) Reconcile(ctx context.Context, elements viewmodel.RenderElements) error {
	if c.surface == nil {
		return errors.New(errors.ErrCodeSurface, "controller has no initialized surface")
	}

	c.surface.Clear()
	for _, id := range elements.NodeOrder {
		c.surface.AddNode(elements.VisibleNodes[id])
	}
	for _, e := range elements.VisibleEdges {
		c.surface.AddEdge(e)
	}
	for _, id := range elements.NodeOrder {
		if elements.CycleMembers[id] {
			c.surface.TagCycleMember(id)
		}
	}

	if err := c.surface.Layout(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeSurface, err, "layout pass")
	}
	c.surface.Fit(FitPadding)

	c.logger.Debug("surface reconciled",
		"nodes", len(elements.VisibleNodes),
		"edges", len(elements.VisibleEdges),
		"cycle_members", len(elements.CycleMembers))
	return nil
}

// Teardown detaches the selection handlers and releases the surface.
// Safe to call when nothing is initialized.
func (c *Controller) Teardown() {
	if c.surface == nil {
		return
	}
	c.surface.OnSelectionChanged(nil)
	c.surface.OnSelectionCleared(nil)
	c.surface.Release()
	c.logger.Debug("surface released", "container", c.container)
	c.surface = nil
	c.container = ""
	c.onSelect = nil
}

// Initialized reports whether a live surface exists for container.
func (c *Controller) Initialized(container string) bool {
	return c.surface != nil && c.container == container
}
