// Package cli implements the depviz command-line interface.
//
// depviz is the interactive client for the DepViz analysis service. The CLI
// packages a source tree, uploads it for analysis, and visualizes the
// resulting dependency graph either in an interactive terminal panel or as
// an SVG export. Commands support --verbose (-v) for debug-level logging;
// loggers travel through context.Context.
package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/buildinfo"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/config"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/httputil"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/transport"
)

// appName is the application name used for directories and display.
const appName = "depviz"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config
}

// New creates a new CLI instance with a default logger and loaded config.
func New(w *os.File, level log.Level) *CLI {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	c := &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: cfg,
	}
	if err != nil {
		c.Logger.Warn("config ignored", "err", err)
	}
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "DepViz visualizes code dependency graphs",
		Long:         `DepViz is an interactive client for the DepViz analysis service: it uploads a source tree for dependency analysis and visualizes the resulting import graph, with cycle highlighting and external-package filtering.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newTransport creates the analysis client, honoring the cache settings.
func (c *CLI) newTransport(server string, noCache bool) *transport.Client {
	if server == "" {
		server = c.Config.Server
	}
	var respCache *httputil.Cache
	if c.Config.Cache.Enabled && !noCache {
		respCache, _ = c.openCache()
	}
	return transport.NewClient(server, respCache)
}

// openCache opens the response cache with the configured TTL.
func (c *CLI) openCache() (*httputil.Cache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(c.Config.Cache.TTLHours) * time.Hour
	return httputil.NewCache(dir, ttl)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/depviz/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
