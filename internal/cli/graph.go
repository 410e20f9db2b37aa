package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
	"github.com/matzehuels/stackreqs/pkg/render"
)

const (
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatJSON = "json"
)

// graphCommand exports the dependency graph of the configured components.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the dependency graph as DOT, SVG or JSON",
		Long: `Resolve the configured components and export their dependency graph.
Nodes are emitted in load order; requested components are drawn bold.`,
		Example: `  stackreqs graph > deps.dot
  stackreqs graph --format svg -o deps.svg
  stackreqs graph --format json --detailed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.resolve(cmd.Context())
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case formatDOT:
				data = []byte(render.ToDOT(res.Graph, res.Order, render.Options{Detailed: detailed}))
			case formatSVG:
				dot := render.ToDOT(res.Graph, res.Order, render.Options{Detailed: detailed})
				if data, err = render.RenderSVG(cmd.Context(), dot); err != nil {
					return err
				}
			case formatJSON:
				if data, err = render.ToJSON(res.Graph, res.Order); err != nil {
					return err
				}
			default:
				return stackerrors.New(stackerrors.ErrCodeInvalidInput, "unknown format %q (want dot, svg or json)", format)
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess(cmd.ErrOrStderr(), "Exported %d components", len(res.Order))
			printFile(cmd.ErrOrStderr(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include load position and requirements in DOT labels")
	return cmd
}
