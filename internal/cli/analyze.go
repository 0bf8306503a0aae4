package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/archive"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/graphdata"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/transport"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	server  string // analysis service base URL (overrides config)
	noCache bool   // disable the response cache entirely
	refresh bool   // bypass cached responses for this run
	output  string // output file path (stdout if empty)
}

// analyzeCommand creates the analyze command. It packages a source tree,
// uploads it to the analysis service, and writes the returned dependency
// graph as JSON.
func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "analyze <directory>",
		Short: "Analyze a source tree and save its dependency graph",
		Long: `Analyze packages a source directory, uploads it to the DepViz analysis
service, and writes the resulting dependency graph as JSON.

Examples:
  depviz analyze ./myproject                    # Print graph to stdout
  depviz analyze ./myproject -o graph.json      # Save for later viewing
  depviz analyze ./myproject --refresh          # Bypass the response cache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "", "analysis service URL (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached responses")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

// runAnalyze packs the directory, uploads it, and writes the graph.
func (c *CLI) runAnalyze(ctx context.Context, opts *analyzeOpts, dir string) error {
	logger := loggerFromContext(ctx)
	client := c.newTransport(opts.server, opts.noCache)

	g, err := analyzeTree(ctx, client, dir, opts.refresh)
	if err != nil {
		return err
	}

	printMeta(g.Meta)

	if opts.output == "" {
		return writeGraph(g, os.Stdout)
	}
	if err := graphdata.WriteFile(g, opts.output); err != nil {
		return err
	}
	logger.Info("wrote graph", "path", opts.output)
	printFile(opts.output)
	return nil
}

// analyzeTree packs dir into a zip archive and runs it through the analysis
// client, reporting progress via a spinner.
func analyzeTree(ctx context.Context, client *transport.Client, dir string, refresh bool) (graphdata.GraphData, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return graphdata.GraphData{}, err
	}
	if !info.IsDir() {
		return graphdata.GraphData{}, fmt.Errorf("%s is not a directory", dir)
	}

	logger := loggerFromContext(ctx)

	spin := newSpinnerWithContext(ctx, fmt.Sprintf("packaging %s", dir))
	spin.Start()

	data, stats, err := archive.Pack(dir)
	if err != nil {
		spin.StopWithError(err.Error())
		return graphdata.GraphData{}, err
	}
	logger.Debug("packaged tree", "files", stats.Files, "bytes", stats.TotalBytes)

	spin.SetMessage(fmt.Sprintf("analyzing %d files via %s", stats.Files, client.BaseURL()))
	g, err := client.Analyze(ctx, data, refresh)
	if err != nil {
		spin.StopWithError(err.Error())
		return graphdata.GraphData{}, err
	}
	spin.StopWithSuccess(fmt.Sprintf("analyzed %d files: %d nodes, %d edges",
		stats.Files, len(g.Nodes), len(g.Edges)))

	return g, nil
}

// writeGraph serializes g as JSON to w.
func writeGraph(g graphdata.GraphData, w io.Writer) error {
	data, err := graphdata.Marshal(g)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
