// Package cli implements the stackreqs command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackreqs/pkg/buildinfo"
	"github.com/matzehuels/stackreqs/pkg/cache"
	"github.com/matzehuels/stackreqs/pkg/config"
	"github.com/matzehuels/stackreqs/pkg/registry"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "stackreqs"

	// registryEnv overrides the default registry source.
	registryEnv = "STACKREQS_REGISTRY"

	// cacheEnv selects a shared Redis descriptor cache.
	cacheEnv = "STACKREQS_CACHE_URL"

	// defaultCacheTTL bounds how long remote descriptors are served from cache.
	defaultCacheTTL = time.Hour
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

	configDir string
	source    string
	noCache   bool
	cacheURL  string
	cacheTTL  time.Duration
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stackreqs resolves component load order and requirements",
		Long: `Stackreqs reads a configuration directory, works out which components it
enables, and resolves the order they must be loaded in together with the
package requirements they declare.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template(config.SchemaVersion))

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configDir, "config", "c", defaultConfigDir(), "configuration directory")
	flags.StringVar(&c.source, "registry", os.Getenv(registryEnv), "component registry: directory, redis:// or mongodb:// URL (default <config>/components)")
	flags.BoolVar(&c.noCache, "no-cache", false, "do not cache descriptors from remote registries")
	flags.StringVar(&c.cacheURL, "cache-url", os.Getenv(cacheEnv), "redis:// URL of a shared descriptor cache (default file cache)")
	flags.DurationVar(&c.cacheTTL, "cache-ttl", defaultCacheTTL, "how long cached descriptors stay valid")

	root.AddCommand(c.reqsCommand())
	root.AddCommand(c.orderCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.componentsCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.registryCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Registry Factory
// =============================================================================

// registrySource returns the --registry value, falling back to the
// components directory inside the configuration directory.
func (c *CLI) registrySource() string {
	if c.source != "" {
		return c.source
	}
	return filepath.Join(c.configDir, "components")
}

// openRegistry opens the configured registry. Remote registries are layered
// over the descriptor cache; manifest directories are always read directly.
func (c *CLI) openRegistry(ctx context.Context) (registry.Backend, error) {
	source := c.registrySource()
	opts := registry.Options{Logger: loggerFromContext(ctx), TTL: c.cacheTTL}
	if isRemote(source) {
		cc, err := newCache(ctx, c.noCache, c.cacheURL)
		if err != nil {
			return nil, err
		}
		opts.Cache = cc
	}
	return registry.Open(ctx, source, opts)
}

func isRemote(source string) bool {
	return strings.Contains(source, "://") && !strings.HasPrefix(source, "file://")
}

// newCache returns the descriptor cache: none with --no-cache, Redis when a
// cache URL is given, else the file cache under cacheDir.
func newCache(ctx context.Context, noCache bool, url string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if url != "" {
		rc, err := cache.NewRedisCache(ctx, url)
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/stackreqs/).
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

// defaultConfigDir returns ~/.config/stackreqs, honouring XDG_CONFIG_HOME.
func defaultConfigDir() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appName
	}
	return filepath.Join(home, ".config", appName)
}
