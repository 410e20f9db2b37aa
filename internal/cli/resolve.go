package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackreqs/pkg/config"
	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
	"github.com/matzehuels/stackreqs/pkg/loadorder"
)

// reqsCommand prints every requirement of the configured components, one
// per line, in load order.
func (c *CLI) reqsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "reqs",
		Short: "Print the package requirements of the configured components",
		Long: `Load the configuration, resolve the components it enables and print the
requirements they declare, dependencies first. Duplicates are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.resolve(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeResultJSON(cmd, res)
			}
			printLines(cmd.OutOrStdout(), res.Requirements)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print requested components, order and requirements as JSON")
	return cmd
}

// orderCommand prints the load order, one component per line.
func (c *CLI) orderCommand() *cobra.Command {
	var (
		asJSON bool
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the order the configured components load in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.resolve(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeResultJSON(cmd, res)
			}
			printLines(cmd.OutOrStdout(), res.Order)
			if stats {
				printStats(cmd.ErrOrStderr(), res.Stats.Components, res.Stats.Edges, len(res.Requirements))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print requested components, order and requirements as JSON")
	cmd.Flags().BoolVar(&stats, "stats", false, "print graph statistics to stderr")
	return cmd
}

// resolve loads the configuration and runs the resolver against the
// configured registry.
func (c *CLI) resolve(ctx context.Context) (*loadorder.Result, error) {
	logger := loggerFromContext(ctx)

	c.checkVersion(ctx)

	cfg, err := config.Load(c.configDir)
	if errors.Is(err, config.ErrNotExist) {
		return nil, stackerrors.New(stackerrors.ErrCodeFileNotFound, "Config does not exist: %s", config.Path(c.configDir))
	}
	if err != nil {
		return nil, stackerrors.New(stackerrors.ErrCodeInvalidConfig, "Fatal error while loading config: %s", stackerrors.UserMessage(err))
	}
	logger.Debug("loaded config", "path", cfg.Path, "keys", len(cfg.Keys))

	reg, err := c.openRegistry(ctx)
	if err != nil {
		return nil, err
	}
	defer reg.Close()

	prog := newProgress(logger)
	res, err := loadorder.NewRunner(reg, logger).Run(ctx, cfg.Requested())
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Resolved %d components", len(res.Order)))
	return res, nil
}

// checkVersion warns when the configuration was written for a different
// schema version. It never blocks resolution.
func (c *CLI) checkVersion(ctx context.Context) {
	logger := loggerFromContext(ctx)

	check, err := config.CheckVersion(c.configDir, config.SchemaVersion)
	if err != nil {
		logger.Warn("unreadable config version", "file", config.VersionFileName, "err", err)
		return
	}
	switch check.Status {
	case config.VersionOlder:
		logger.Warn("configuration needs upgrade", "recorded", check.Recorded, "current", check.Current)
	case config.VersionNewer:
		logger.Warn("configuration was written by a newer version", "recorded", check.Recorded, "current", check.Current)
	case config.VersionUnknown:
		logger.Debug("no config version recorded", "file", config.VersionFileName)
	}
}

type resultJSON struct {
	Requested    []string `json:"requested"`
	Order        []string `json:"order"`
	Requirements []string `json:"requirements"`
}

func writeResultJSON(cmd *cobra.Command, res *loadorder.Result) error {
	out := resultJSON{
		Requested:    nonNil(res.Requested),
		Order:        nonNil(res.Order),
		Requirements: nonNil(res.Requirements),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
