package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	modelio "github.com/matzehuels/modelir/pkg/io"
	"github.com/matzehuels/modelir/pkg/pipeline"
)

// renderCommand creates the render command for drawing a model graph.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		opts    pipeline.RenderOptions
	)

	cmd := &cobra.Command{
		Use:   "render [model.json]",
		Short: "Draw a model graph as SVG, PNG, or DOT",
		Long: `Draw a model graph as a node-link diagram.

Operators are drawn as boxes and values as labeled edges. Graph inputs and
outputs are drawn as ellipses. Rendering runs Graphviz in-process, so no
Graphviz installation is needed. Rendered images are cached.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + opts.Format
			}
			return c.runRender(cmd.Context(), args[0], output, opts, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <input>.<format>)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", pipeline.FormatSVG, "output format: svg, png, dot")
	cmd.Flags().StringVar(&opts.RankDir, "rankdir", "", "layout direction: TB (default), LR")
	cmd.Flags().BoolVar(&opts.Initializers, "initializers", false, "draw initializers as nodes")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include node attributes in labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, output string, opts pipeline.RenderOptions, noCache bool) error {
	prog := newProgress(c.Logger)

	m, err := modelio.ImportJSON(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	data, err := runner.Render(ctx, m, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	prog.done("rendered graph", "format", opts.Format, "bytes", len(data))

	printSuccess("Rendered %s", StyleValue.Render(m.Graph.Name))
	printFile(output)
	return nil
}
