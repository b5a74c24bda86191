package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/imamik/funcanvas/internal/config"
	"github.com/imamik/funcanvas/internal/export"
	"github.com/imamik/funcanvas/internal/filters"
	"github.com/imamik/funcanvas/internal/registry"
)

// BatchResult is the outcome for one input file. Err is set when that file
// failed; the other files are still processed.
type BatchResult struct {
	Input  string
	Output string
	Bounds export.Bounds
	Err    error
}

// ImageFiles lists the files in dir whose extension imaging can decode, in
// name order.
func ImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := imaging.FormatFromFilename(e.Name()); err != nil {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// Batch places every image of inputDir alone on a fresh canvas with the
// filters requested in bag and saves the cropped export to outputDir in the
// configured format. Up to cfg.Batch.Concurrency images are processed at once.
// The returned error is only set when the batch itself could not run or was
// cancelled.
func Batch(ctx context.Context, cfg *config.Config, inputDir, outputDir string, bag map[string]any, opts ...Option) ([]BatchResult, error) {
	files, err := ImageFiles(inputDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	probe := &Composer{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(probe)
	}
	logger := probe.logger
	reg := probe.reg
	if reg == nil {
		reg = registry.New(filters.Builtin(), registry.WithLogger(logger))
	}
	opts = append(opts, WithRegistry(reg))

	logger.Info("starting batch", "files", len(files), "concurrency", cfg.Batch.Concurrency)
	start := time.Now()

	results := make([]BatchResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Batch.Concurrency)
	for i, in := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
			res := BatchResult{Input: in}
			c := New(cfg, opts...)
			if _, err := c.AddImage(ctx, in, bag); err != nil {
				res.Err = err
			} else {
				res.Output, res.Bounds, res.Err = c.Save(ctx, filepath.Join(outputDir, name+"."+cfg.Export.Format))
			}
			if res.Err != nil {
				logger.Warn("batch item failed", "input", in, "error", res.Err)
			}
			// Each goroutine owns its own index.
			results[i] = res
			return nil
		})
	}
	err = g.Wait()
	logger.Info("batch complete", "files", len(files), "elapsed", time.Since(start))
	return results, err
}
