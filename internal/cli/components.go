package cli

import (
	"github.com/spf13/cobra"
)

// componentsCommand lists the components known to the registry.
func (c *CLI) componentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List components known to the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer reg.Close()

			ids, err := reg.List(cmd.Context())
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("listed components", "backend", reg.Name(), "count", len(ids))
			printLines(cmd.OutOrStdout(), ids)
			return nil
		},
	}
}
