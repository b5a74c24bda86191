package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/funcanvas/internal/config"
	"github.com/imamik/funcanvas/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Apply filters to every image in a directory",
	Long: `Place each image of the input directory alone on a canvas with the requested
filters and export the cropped result to the output directory.`,
	RunE: runBatch,
}

var (
	batchInput       string
	batchOutput      string
	batchConcurrency int
)

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "Input directory (required)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Output directory (required)")
	batchCmd.Flags().StringArrayVarP(&filterArgs, "filter", "F", nil, "Filter to apply, or Type_param=value (repeatable)")
	batchCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Export format: png, jpeg, gif, bmp, tiff")
	batchCmd.Flags().StringVar(&frameName, "frame", "", "Mount each export on a frame")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "Images processed at once (default: number of CPUs)")
	batchCmd.MarkFlagRequired("input")
	batchCmd.MarkFlagRequired("output")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(func(cfg *config.Config) {
		applyFlags(cmd)(cfg)
		if cmd.Flags().Changed("concurrency") {
			cfg.Batch.Concurrency = batchConcurrency
		}
	})
	if err != nil {
		return err
	}
	bag, err := pipeline.ParseAssignments(filterArgs)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := pipeline.Batch(cmd.Context(), cfg, batchInput, batchOutput, bag, pipeline.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	out := cmd.OutOrStdout()
	processed := 0
	for i, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "[%d] %s FAILED: %v\n", i+1, r.Input, r.Err)
			continue
		}
		fmt.Fprintf(out, "[%d] %s -> %s\n", i+1, r.Input, r.Output)
		processed++
	}
	fmt.Fprintf(out, "\nBatch complete: %d of %d images processed (%dms)\n", processed, len(results), time.Since(start).Milliseconds())
	return nil
}
