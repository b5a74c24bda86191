package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/imamik/funcanvas/internal/config"
	"github.com/imamik/funcanvas/internal/export"
	"github.com/imamik/funcanvas/internal/frames"
	"github.com/imamik/funcanvas/internal/pipeline"
	"github.com/imamik/funcanvas/internal/store"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Build a scene and export it",
	Long: `Place images, shapes and text on a new canvas, then export the content
cropped to its bounding box.

Filters are requested with -F, either by type (-F Sepia) or as a parameter
override (-F Blur_blur=0.4). Shapes are given as type[:key=value,...], for
example --shape rect:fill=#ff0000,width=200. Free-hand strokes are given as
points in canvas coordinates, for example --path "100,100 300,160 500,100".`,
	RunE: runCompose,
}

var renderCmd = &cobra.Command{
	Use:   "render <scene>",
	Short: "Export a stored scene",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var (
	images         []string
	filterArgs     []string
	shapes         []string
	paths          []string
	texts          []string
	watermark      string
	outputPath     string
	rawPath        string
	saveName       string
	exportFormat   string
	frameName      string
	zoomLevel      float64
	containerWidth float64
)

var errNoOutput = errors.New("nothing to do: give --output, --raw or --save")

func init() {
	composeCmd.Flags().StringArrayVarP(&images, "image", "i", nil, "Image file or data URL to add (repeatable)")
	composeCmd.Flags().StringArrayVarP(&filterArgs, "filter", "F", nil, "Filter to apply to added images, or Type_param=value (repeatable)")
	composeCmd.Flags().StringArrayVar(&shapes, "shape", nil, "Shape to add: rect, circle or fText, with optional :key=value,... (repeatable)")
	composeCmd.Flags().StringArrayVar(&paths, "path", nil, "Free-hand stroke through space separated x,y points (repeatable)")
	composeCmd.Flags().StringArrayVar(&texts, "text", nil, "Text to add (repeatable)")
	composeCmd.Flags().StringVar(&watermark, "watermark", "", "Watermark text across the canvas")
	composeCmd.Flags().StringVar(&saveName, "save", "", "Store the scene under this name")
	addOutputFlags(composeCmd)

	addOutputFlags(renderCmd)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output image file")
	cmd.Flags().StringVar(&rawPath, "raw", "", "Write the raw crop over a checkerboard to this PNG file")
	cmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Export format when --output has no extension: png, jpeg, gif, bmp, tiff")
	cmd.Flags().StringVar(&frameName, "frame", "", "Mount the export on a frame: polaroid_600, instax_mini, instax_square, instax_wide")
	cmd.Flags().Float64Var(&zoomLevel, "zoom", 0, "Zoom level between 0.1 and 4")
	cmd.Flags().Float64Var(&containerWidth, "container-width", 0, "Width of the display container")
}

// applyFlags copies the output flags that were set onto cfg.
func applyFlags(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("format") {
			cfg.Export.Format = strings.ToLower(exportFormat)
		}
		if flags.Changed("frame") {
			cfg.Export.Frame = frames.Preset(frameName)
		}
		if flags.Changed("zoom") {
			cfg.Canvas.Zoom = zoomLevel
		}
		if flags.Changed("container-width") {
			cfg.Canvas.ContainerWidth = containerWidth
		}
	}
}

func parseShape(spec string) (string, map[string]any, error) {
	typ, rest, _ := strings.Cut(spec, ":")
	if rest == "" {
		return typ, nil, nil
	}
	props, err := pipeline.ParseAssignments(strings.Split(rest, ","))
	if err != nil {
		return "", nil, fmt.Errorf("invalid shape %q: %w", spec, err)
	}
	return typ, props, nil
}

func runCompose(cmd *cobra.Command, args []string) error {
	if outputPath == "" && rawPath == "" && saveName == "" {
		return errNoOutput
	}
	cfg, logger, err := loadConfig(applyFlags(cmd))
	if err != nil {
		return err
	}
	bag, err := pipeline.ParseAssignments(filterArgs)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	start := time.Now()

	c := pipeline.New(cfg, pipeline.WithLogger(logger))
	for _, src := range images {
		if _, err := c.AddImage(ctx, src, bag); err != nil {
			return err
		}
	}
	for _, spec := range shapes {
		typ, props, err := parseShape(spec)
		if err != nil {
			return err
		}
		if _, err := c.AddShape(typ, props); err != nil {
			return err
		}
	}
	for _, spec := range paths {
		points, err := pipeline.ParsePoints(spec)
		if err != nil {
			return err
		}
		if _, err := c.AddPath(points, nil); err != nil {
			return err
		}
	}
	for _, text := range texts {
		if _, err := c.AddText(text, nil); err != nil {
			return err
		}
	}
	if watermark != "" {
		if _, err := c.AddWatermark(watermark); err != nil {
			return err
		}
	}

	if saveName != "" {
		st, err := store.Open(cfg.Store.Dir)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := c.SaveScene(ctx, st, saveName); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored scene %q\n", saveName)
	}

	if err := writeOutputs(ctx, c, cmd.OutOrStdout()); err != nil {
		return err
	}
	logger.Info("compose complete", "elapsed", time.Since(start))
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	if outputPath == "" && rawPath == "" {
		return errNoOutput
	}
	cfg, logger, err := loadConfig(applyFlags(cmd))
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store.Dir)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	c := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err := c.LoadScene(ctx, st, args[0]); err != nil {
		return err
	}
	return writeOutputs(ctx, c, cmd.OutOrStdout())
}

func writeOutputs(ctx context.Context, c *pipeline.Composer, out io.Writer) error {
	if outputPath != "" {
		path, b, err := c.Save(ctx, outputPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s (content %dx%d at %d,%d)\n", path, b.Width, b.Height, b.Left, b.Top)
	}
	if rawPath != "" {
		res, err := c.Export(ctx, true)
		if err != nil {
			return err
		}
		if err := imaging.Save(export.Preview(res.Raw), rawPath); err != nil {
			return fmt.Errorf("failed to save preview: %w", err)
		}
		fmt.Fprintf(out, "raw %s (%d bytes, %dx%d at %d,%d)\n",
			rawPath, len(res.Raw.Data), res.Raw.Width, res.Raw.Height, res.Raw.Left, res.Raw.Top)
	}
	return nil
}
