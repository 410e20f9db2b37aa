package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
	"github.com/matzehuels/stackreqs/pkg/registry"
	"github.com/matzehuels/stackreqs/pkg/registry/manifest"
)

// registryCommand groups commands that modify a writable registry.
func (c *CLI) registryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage a writable (redis or mongo) registry",
	}

	cmd.AddCommand(c.registryPushCommand())
	cmd.AddCommand(c.registryDeleteCommand())

	return cmd
}

// writer opens the configured registry and returns it with its write
// interface. The caller must close the backend.
func (c *CLI) writer(cmd *cobra.Command) (registry.Backend, registry.Writer, error) {
	reg, err := c.openRegistry(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	w, ok := registry.AsWriter(reg)
	if !ok {
		reg.Close()
		return nil, nil, stackerrors.New(stackerrors.ErrCodeUnsupported, "registry %q (%s) is read-only", c.registrySource(), reg.Name())
	}
	return reg, w, nil
}

// invalidate drops cached copies of id so the next lookup sees the write.
func invalidate(cmd *cobra.Command, reg registry.Backend, id string) {
	cached, ok := reg.(*registry.Cached)
	if !ok {
		return
	}
	if err := cached.Invalidate(cmd.Context(), id); err != nil {
		loggerFromContext(cmd.Context()).Warn("cache invalidation failed", "component", id, "err", err)
	}
}

// registryPushCommand copies every descriptor from a manifest directory
// into the configured registry.
func (c *CLI) registryPushCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "push <dir>",
		Short:   "Copy manifest descriptors from a directory into the registry",
		Example: `  stackreqs --registry redis://localhost:6379/0 registry push ./components`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			src, err := manifest.New(args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			reg, w, err := c.writer(cmd)
			if err != nil {
				return err
			}
			defer reg.Close()

			ids, err := src.List(ctx)
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			for _, id := range ids {
				d, err := src.Lookup(ctx, id)
				if err != nil {
					return fmt.Errorf("read %s: %w", id, err)
				}
				if err := w.Put(ctx, d); err != nil {
					return fmt.Errorf("push %s: %w", id, err)
				}
				invalidate(cmd, reg, id)
				logger.Debug("pushed component", "id", id, "deps", len(d.Dependencies), "reqs", len(d.Requirements))
			}
			prog.done(fmt.Sprintf("Pushed %d components", len(ids)))
			printSuccess(cmd.OutOrStdout(), "Pushed %d components to %s", len(ids), reg.Name())
			return nil
		},
	}
}

// registryDeleteCommand removes descriptors from the configured registry.
func (c *CLI) registryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Remove components from the registry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, w, err := c.writer(cmd)
			if err != nil {
				return err
			}
			defer reg.Close()

			for _, id := range args {
				if err := stackerrors.ValidateComponentID(id); err != nil {
					return err
				}
				if err := w.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				invalidate(cmd, reg, id)
			}
			printSuccess(cmd.OutOrStdout(), "Deleted %d components", len(args))
			return nil
		},
	}
}
