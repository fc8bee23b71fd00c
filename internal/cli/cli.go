package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/splitdelegation/pkg/buildinfo"
	"github.com/matzehuels/splitdelegation/pkg/cache"
	"github.com/matzehuels/splitdelegation/pkg/config"
	sdio "github.com/matzehuels/splitdelegation/pkg/io"
	"github.com/matzehuels/splitdelegation/pkg/pipeline"
	"github.com/matzehuels/splitdelegation/pkg/source"
	"github.com/matzehuels/splitdelegation/pkg/source/local"
	"github.com/matzehuels/splitdelegation/pkg/source/subgraph"
	"github.com/matzehuels/splitdelegation/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "splitdelegation"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath   string
	snapshotsDir string
	subgraphURL  string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Split-delegation voting power engine",
		Long: `splitdelegation replays delegation registry actions, builds the weighted
delegation graph of a space and computes every address's voting power.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/splitdelegation/config.toml)")
	root.PersistentFlags().StringVar(&c.snapshotsDir, "snapshots", "", "directory of <space>.json snapshots")
	root.PersistentFlags().StringVar(&c.subgraphURL, "subgraph", "", "GraphQL endpoint serving delegation actions")

	root.AddCommand(c.computeCommand())
	root.AddCommand(c.topCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.registryCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and environment, then applies flags.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.snapshotsDir != "" {
		cfg.Source.Dir = c.snapshotsDir
	}
	if c.subgraphURL != "" {
		cfg.Source.Subgraph = c.subgraphURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts selects where a runner reads snapshots from.
type runnerOpts struct {
	file    string // single snapshot file, overrides the configured source
	noCache bool
	store   bool // attach the configured result store
}

// newRunner creates a pipeline runner for CLI use. When opts.file is set the
// returned space is the one the file declares.
func (c *CLI) newRunner(ctx context.Context, opts runnerOpts) (*pipeline.Runner, string, error) {
	ch, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return nil, "", err
	}

	var src source.Loader
	var space string
	if opts.file != "" {
		snap, err := sdio.ImportJSON(opts.file)
		if err != nil {
			_ = ch.Close()
			return nil, "", err
		}
		space = snap.Space
		if space == "" {
			space = strings.TrimSuffix(filepath.Base(opts.file), filepath.Ext(opts.file))
		}
		src = source.Static{space: snap}
	} else if src, err = c.newSource(ch); err != nil {
		_ = ch.Close()
		return nil, "", err
	}

	r := pipeline.NewRunner(src, ch, nil, c.Logger)
	if opts.store {
		if r.Store, err = c.newStore(ctx); err != nil {
			_ = r.Close()
			return nil, "", err
		}
	}
	return r, space, nil
}

func (c *CLI) newSource(ch cache.Cache) (source.Loader, error) {
	dir := local.NewDir(c.Config.Source.Dir)
	if c.Config.Source.Subgraph == "" {
		return dir, nil
	}
	return subgraph.New(subgraph.Options{
		Endpoint: c.Config.Source.Subgraph,
		Scores:   dir,
		Cache:    ch,
		TTL:      cache.TTLHTTP,
		PageSize: c.Config.Source.PageSize,
	})
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case "memory":
		return cache.NewMemoryCache(cfg.Size)
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   appName + ":",
		})
	case "none":
		return cache.NewNullCache(), nil
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

func (c *CLI) newStore(ctx context.Context) (storage.Store, error) {
	cfg := c.Config.Storage
	switch cfg.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "file":
		return storage.NewFileStore(cfg.Dir)
	case "mongo":
		return storage.NewMongoStore(ctx, storage.MongoOptions{URI: cfg.MongoURI, Database: cfg.Database})
	}
	return nil, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/splitdelegation/).
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

// =============================================================================
// Flag Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// parseList splits a comma-separated flag value, dropping empty entries.
func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// spaceArg resolves the space from args, or from the snapshot file.
func spaceArg(args []string, file string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if file != "" {
		return "", nil
	}
	return "", fmt.Errorf("a space or --file is required")
}
