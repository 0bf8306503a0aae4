package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/controller"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/errors"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/graphdata"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/surface/dot"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/viewmodel"
)

// validExportFormats is the set of supported export formats.
var validExportFormats = map[string]bool{"svg": true, "png": true, "dot": true}

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	server       string // analysis service base URL (overrides config)
	noCache      bool   // disable the response cache entirely
	refresh      bool   // bypass cached responses
	output       string // output file path (derived from input if empty)
	format       string // output format: svg, png, dot
	showExternal bool   // include external package nodes
	showInits    bool   // include __init__.py marker nodes
}

// exportCommand creates the export command for static graph images.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{
		format:       "svg",
		showExternal: c.Config.View.ShowExternal,
		showInits:    c.Config.View.ShowInits,
	}

	cmd := &cobra.Command{
		Use:   "export <directory-or-graph.json>",
		Short: "Export a dependency graph as SVG, PNG, or DOT",
		Long: `Export renders a dependency graph to a static file. Given a directory,
the tree is uploaded for analysis first; given a saved graph JSON file, the
export runs offline.

Examples:
  depviz export ./myproject                    # myproject.svg
  depviz export graph.json -o deps.png -f png
  depviz export graph.json --show-inits`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validExportFormats[opts.format] {
				return errors.New(errors.ErrCodeInvalidFormat,
					"invalid format: %s (must be 'svg', 'png', or 'dot')", opts.format)
			}
			return c.runExport(cmd.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "", "analysis service URL (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached responses")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (derived from input if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), png, dot")
	cmd.Flags().BoolVar(&opts.showExternal, "show-external", opts.showExternal, "show external package nodes")
	cmd.Flags().BoolVar(&opts.showInits, "show-inits", opts.showInits, "show __init__.py marker nodes")

	return cmd
}

// runExport loads the graph, projects it through the filters, and renders it
// through the Graphviz surface.
func (c *CLI) runExport(ctx context.Context, opts *exportOpts, target string) error {
	logger := loggerFromContext(ctx)

	info, err := os.Stat(target)
	if err != nil {
		return err
	}

	var graph graphdata.GraphData
	if info.IsDir() {
		client := c.newTransport(opts.server, opts.noCache)
		graph, err = analyzeTree(ctx, client, target, opts.refresh)
	} else {
		graph, err = graphdata.ReadFile(target)
	}
	if err != nil {
		return err
	}

	prog := newProgress(logger)

	elements := viewmodel.FilterAndProject(graph, viewmodel.FilterOptions{
		ShowExternal: opts.showExternal,
		ShowInits:    opts.showInits,
	})
	if elements.Empty() {
		return fmt.Errorf("no visible nodes to export")
	}

	surf := dot.New()
	ctrl := controller.New(func(string) (controller.Surface, error) {
		return surf, nil
	}, c.Logger)
	if err := ctrl.Initialize("svg-export", nil); err != nil {
		return err
	}
	defer ctrl.Teardown()

	if err := ctrl.Reconcile(ctx, elements); err != nil {
		return err
	}

	var data []byte
	switch opts.format {
	case "dot":
		data = []byte(surf.DOT())
	case "png":
		data, err = surf.RenderPNG(ctx)
		if err != nil {
			return err
		}
	default:
		data = surf.SVG()
	}

	path := opts.output
	if path == "" {
		path = exportPath(target, opts.format)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Rendered %s with %d nodes, %d edges",
		opts.format, len(elements.VisibleNodes), len(elements.VisibleEdges)))
	printSuccess("exported %d nodes, %d edges", len(elements.VisibleNodes), len(elements.VisibleEdges))
	printFile(path)
	return nil
}

// exportPath derives the output file name from the input path and format.
func exportPath(input, format string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "graph"
	}
	return base + "." + format
}
