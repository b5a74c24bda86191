package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/imamik/funcanvas/internal/filters"
	"github.com/imamik/funcanvas/internal/picture"
	"github.com/imamik/funcanvas/internal/registry"
)

var filtersCmd = &cobra.Command{
	Use:   "filters [type]",
	Short: "List the selectable filters or describe one",
	Long: `Without arguments, list the selectable filter types. With a type, show its
editable parameters and their defaults.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilters,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <image>",
	Short: "Show the size and EXIF tags of an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var catalogMarkdown bool

func init() {
	filtersCmd.Flags().BoolVar(&catalogMarkdown, "markdown", false, "Write the whole catalog as Markdown")
}

func runFilters(cmd *cobra.Command, args []string) error {
	_, logger, err := loadConfig(nil)
	if err != nil {
		return err
	}
	reg := registry.New(filters.Builtin(), registry.WithLogger(logger))
	out := cmd.OutOrStdout()

	if catalogMarkdown {
		return reg.WriteMarkdown(out)
	}
	if len(args) == 0 {
		for _, typ := range reg.Types() {
			fmt.Fprintln(out, typ)
		}
		return nil
	}

	typ := args[0]
	schema, err := reg.Schema(typ)
	if err != nil {
		return err
	}
	defaults, err := reg.Defaults(typ)
	if err != nil {
		return err
	}
	if len(schema) == 0 {
		fmt.Fprintf(out, "%s has no parameters\n", typ)
	}
	for _, p := range schema {
		switch p.Kind {
		case registry.ParamRange:
			fmt.Fprintf(out, "%-12s %-6s %g..%g step %g  default %v\n", p.Name, p.Kind, p.Min, p.Max, p.Step, defaults[p.Name])
		case registry.ParamSelect:
			fmt.Fprintf(out, "%-12s %-6s %v  default %v\n", p.Name, p.Kind, p.Options, defaults[p.Name])
		default:
			fmt.Fprintf(out, "%-12s %-6s default %v\n", p.Name, p.Kind, defaults[p.Name])
		}
	}
	// Parameters the kind accepts without a control.
	extra := slices.DeleteFunc(slices.Sorted(maps.Keys(defaults)), func(k string) bool {
		return slices.ContainsFunc(schema, func(p registry.Param) bool { return p.Name == k })
	})
	for _, k := range extra {
		fmt.Fprintf(out, "%-12s %-6s default %v\n", k, "-", defaults[k])
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	_, logger, err := loadConfig(nil)
	if err != nil {
		return err
	}
	src := args[0]
	ctx := cmd.Context()

	img, err := picture.FileDecoder{}.Decode(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	out := cmd.OutOrStdout()
	b := img.Bounds()
	fmt.Fprintf(out, "size: %dx%d\n", b.Dx(), b.Dy())

	tags, err := picture.ReadTags(ctx, src)
	if err != nil {
		logger.Warn("could not read EXIF tags", "src", src, "error", err)
		fmt.Fprintln(out, "EXIF: unreadable")
		return nil
	}
	if len(tags) == 0 {
		fmt.Fprintln(out, "no EXIF tags")
		return nil
	}
	for _, tag := range tags {
		fmt.Fprintf(out, "%-10s %-28s %s\n", tag.IFD, tag.Name, tag.Value)
	}
	return nil
}
