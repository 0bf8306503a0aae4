package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/graphdata"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/viewmodel"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/watcher"
)

// viewOpts holds the command-line flags for the view command.
type viewOpts struct {
	server       string // analysis service base URL (overrides config)
	noCache      bool   // disable the response cache entirely
	refresh      bool   // bypass cached responses for the initial upload
	watch        bool   // re-upload on source changes
	showExternal bool   // include external package nodes
	showInits    bool   // include __init__.py marker nodes
}

// viewCommand creates the view command. It opens the interactive terminal
// panel on either a source directory (uploaded for analysis first) or a
// previously saved graph JSON file.
func (c *CLI) viewCommand() *cobra.Command {
	opts := viewOpts{
		showExternal: c.Config.View.ShowExternal,
		showInits:    c.Config.View.ShowInits,
	}

	cmd := &cobra.Command{
		Use:   "view <directory-or-graph.json>",
		Short: "Visualize a dependency graph interactively",
		Long: `View opens an interactive terminal panel for a dependency graph.

Given a directory, the tree is packaged and uploaded to the analysis service
first. Given a graph JSON file (saved by "depviz analyze -o"), the panel opens
offline without contacting the service.

Keys inside the panel:
  e          toggle external packages
  i          toggle __init__.py markers
  j/k, ↑/↓   move selection
  esc        clear selection
  r          re-upload (directory mode)
  q          quit

Examples:
  depviz view ./myproject            # Upload and view
  depviz view ./myproject --watch    # Re-upload when files change
  depviz view graph.json             # View a saved graph offline`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "", "analysis service URL (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached responses")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-upload when the source tree changes")
	cmd.Flags().BoolVar(&opts.showExternal, "show-external", opts.showExternal, "show external package nodes")
	cmd.Flags().BoolVar(&opts.showInits, "show-inits", opts.showInits, "show __init__.py marker nodes")

	return cmd
}

// runView resolves the target (directory or saved graph), fetches the initial
// graph, and hands off to the interactive viewer.
func (c *CLI) runView(ctx context.Context, opts *viewOpts, target string) error {
	logger := loggerFromContext(ctx)

	filters := viewmodel.FilterOptions{
		ShowExternal: opts.showExternal,
		ShowInits:    opts.showInits,
	}

	info, err := os.Stat(target)
	if err != nil {
		return err
	}

	var (
		graph graphdata.GraphData
		dir   string
		w     *watcher.Watcher
	)
	if info.IsDir() {
		dir = target
		client := c.newTransport(opts.server, opts.noCache)
		graph, err = analyzeTree(ctx, client, dir, opts.refresh)
		if err != nil {
			return err
		}
		if opts.watch {
			w, err = watcher.New(dir, watcher.DefaultQuietPeriod)
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Start(ctx); err != nil {
				return err
			}
			logger.Debug("watching for changes", "dir", dir)
		}
	} else {
		if opts.watch {
			return fmt.Errorf("--watch requires a source directory, not a graph file")
		}
		graph, err = graphdata.ReadFile(target)
		if err != nil {
			return err
		}
		logger.Debug("loaded saved graph", "path", target, "nodes", len(graph.Nodes))
	}

	m := newViewerModel(c, viewerSetup{
		dir:     dir,
		server:  opts.server,
		noCache: opts.noCache,
		filters: filters,
		graph:   graph,
		watch:   w,
	})

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = prog.Run()
	return err
}
