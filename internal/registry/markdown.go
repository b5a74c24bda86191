package registry

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
)

// WriteMarkdown renders the catalog as one table of parameters per filter type.
func (r *Registry) WriteMarkdown(w io.Writer) error {
	md := markdown.NewMarkdown(w)
	md.H1("Filters")
	md.PlainText("")

	for _, typ := range r.types {
		schema, err := r.Schema(typ)
		if err != nil {
			return err
		}
		defaults, err := r.Defaults(typ)
		if err != nil {
			return err
		}

		md.H2(typ)
		md.PlainText("")
		if len(schema) == 0 {
			md.PlainText("Toggle only, no parameters.")
			md.PlainText("")
			continue
		}

		rows := make([][]string, 0, len(schema))
		for _, p := range schema {
			rows = append(rows, []string{
				"`" + p.Name + "`",
				string(p.Kind),
				valueRange(p),
				fmt.Sprint(defaults[p.Name]),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Parameter", "Control", "Range", "Default"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to write filter catalog: %w", err)
	}
	return nil
}

func valueRange(p Param) string {
	switch p.Kind {
	case ParamRange:
		return formatFloat(p.Min) + " to " + formatFloat(p.Max) + " step " + formatFloat(p.Step)
	case ParamSelect:
		return strings.Join(p.Options, ", ")
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
