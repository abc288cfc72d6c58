package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	modelio "github.com/matzehuels/modelir/pkg/io"
	"github.com/matzehuels/modelir/pkg/pipeline"
)

// optimizeOpts holds the command-line flags for the optimize command.
type optimizeOpts struct {
	output        string // output model path
	passes        string // comma-separated pass names; empty uses the config
	externalData  bool   // move large initializers to a sidecar file
	sizeThreshold int    // minimum initializer size moved to the sidecar
	noCache       bool
	refresh       bool
	showPasses    bool // print the per-pass table
}

// optimizeCommand creates the optimize command.
func (c *CLI) optimizeCommand() *cobra.Command {
	var opts optimizeOpts

	cmd := &cobra.Command{
		Use:   "optimize [model.json]",
		Short: "Run rewrite passes over a model and save the result",
		Long: `Run rewrite passes over a model and save the result.

The model is decoded, every selected pass runs in order, and the graph is
topologically sorted before it is written. A model whose graph has a cycle
is rejected and nothing is written.

Results are cached by input content and pass list, so re-running on an
unchanged model is instant. Use --refresh to recompute.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags that were not set fall back to the config file.
			if !cmd.Flags().Changed("external-data") {
				opts.externalData = c.Config.Output.ExternalData
			}
			if !cmd.Flags().Changed("size-threshold") {
				opts.sizeThreshold = c.Config.Output.SizeThreshold
			}
			return c.runOptimize(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <input>.opt.json)")
	cmd.Flags().StringVarP(&opts.passes, "passes", "p", "", "comma-separated passes to run (see 'modelir passes')")
	cmd.Flags().BoolVar(&opts.externalData, "external-data", false, "store large initializers in <output>.data")
	cmd.Flags().IntVar(&opts.sizeThreshold, "size-threshold", modelio.DefaultSizeThreshold, "minimum initializer bytes moved by --external-data")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.showPasses, "stats", false, "print per-pass statistics")

	return cmd
}

func (c *CLI) runOptimize(ctx context.Context, input string, opts optimizeOpts) error {
	prog := newProgress(c.Logger)

	// Read through the file importer so external data next to the input is
	// resolved, then hand the self-contained encoding to the pipeline.
	m, err := modelio.ImportJSON(input)
	if err != nil {
		return err
	}
	data, err := modelio.Encode(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	passes := parseList(opts.passes)
	if len(passes) == 0 {
		passes = c.Config.Passes
	}

	result, err := runner.Execute(ctx, data, pipeline.Options{
		Passes:   passes,
		Refresh:  opts.refresh,
		Logger:   c.Logger,
		CacheTTL: c.Config.Cache.TTL,
	})
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = defaultOutputPath(input)
	}
	if err := modelio.Save(result.Model, output, modelio.SaveOptions{
		ExternalData:  opts.externalData,
		SizeThreshold: opts.sizeThreshold,
	}); err != nil {
		return err
	}
	prog.done("saved model", "path", output, "run", result.RunID)

	printSuccess("Optimized %s", StyleValue.Render(result.Model.Graph.Name))
	fmt.Println(statsLine(result.Stats, result.CacheHit))
	printFile(output)
	if sidecar := modelio.ExternalDataPath(output); opts.externalData && fileExists(sidecar) {
		printFile(sidecar)
	}
	if opts.showPasses && len(result.Passes) > 0 {
		fmt.Println(passTable(result.Passes))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
