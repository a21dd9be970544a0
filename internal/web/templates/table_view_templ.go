package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// TableViewData is one table restricted to its visible columns.
type TableViewData struct {
	Name      string
	Columns   []string
	Rows      [][]string
	Total     int // Rows in the table before truncation
	Hidden    int // Columns hidden by visibility settings
	ExportURL string
}

// TableView renders a table's rows.
func TableView(d TableViewData) templ.Component {
	return Layout(d.Name, tableViewBody(d))
}

func tableViewBody(d TableViewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1>`)
		w.text(d.Name)
		w.raw(`</h1><p class="muted">`)
		w.text(rowSummary(d))
		w.raw(` · <a href="`)
		w.text(d.ExportURL)
		w.raw(`">Download CSV</a></p>`)

		w.raw(`<table><thead><tr>`)
		for _, c := range d.Columns {
			w.raw(`<th>`)
			w.text(c)
			w.raw(`</th>`)
		}
		w.raw(`</tr></thead><tbody>`)
		for _, row := range d.Rows {
			w.raw(`<tr>`)
			for _, v := range row {
				w.raw(`<td>`)
				w.text(v)
				w.raw(`</td>`)
			}
			w.raw(`</tr>`)
		}
		w.raw(`</tbody></table>`)
		return w.err
	})
}
