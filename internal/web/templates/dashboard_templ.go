package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/devicebulk/internal/core"
)

// DashboardData is everything the landing page shows.
type DashboardData struct {
	Root    string
	Tables  []core.TableSummary
	Limiter core.LimiterStatus
	Recent  []*core.Result
}

// Dashboard lists the working set and offers the batch upload form.
func Dashboard(d DashboardData) templ.Component {
	return Layout("Tables", dashboardBody(d))
}

func dashboardBody(d DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}

		w.raw(`<h1>`)
		w.text(d.Root)
		w.raw(` and its child tables</h1>`)

		if d.Limiter.Active > 0 {
			w.raw(`<div class="alert warn">A batch is being applied. New batches wait for it to finish.</div>`)
		}

		w.component(ctx, batchForm())

		w.raw(`<table><thead><tr><th>Table</th><th>Key</th><th>Linked by</th><th>Rows</th><th>Columns</th><th>Templates</th><th>Visible</th></tr></thead><tbody>`)
		for _, t := range d.Tables {
			w.raw(`<tr><td><a href="`)
			w.text(string(tableURL(t.Name)))
			w.raw(`">`)
			w.text(t.Name)
			w.raw(`</a>`)
			if t.Root {
				w.raw(` <span class="muted">(root)</span>`)
			}
			w.raw(`</td><td>`)
			w.text(t.PrimaryKey)
			w.raw(`</td><td>`)
			w.text(joinNonEmpty([]string{t.ForeignKey, t.FKColumn}, " on "))
			w.raw(`</td><td>`)
			w.text(strconv.Itoa(t.Rows))
			w.raw(`</td><td>`)
			w.text(strconv.Itoa(len(t.Columns)))
			w.raw(`</td><td>`)
			w.text(strconv.Itoa(t.Templates))
			w.raw(`</td><td>`)
			w.text(yesNo(t.Visible))
			w.raw(`</td></tr>`)
		}
		w.raw(`</tbody></table>`)

		if len(d.Recent) > 0 {
			w.raw(`<h2>Recent batches</h2>`)
			w.component(ctx, HistoryTable(d.Recent))
		}
		return w.err
	})
}

func batchForm() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<form class="batch" method="post" action="/batches" enctype="multipart/form-data">`)
		w.raw(`<select name="operation">`)
		for _, op := range operations {
			w.raw(`<option value="`)
			w.text(string(op))
			w.raw(`">`)
			w.text(string(op))
			w.raw(`</option>`)
		}
		w.raw(`</select><input type="file" name="file" accept=".csv,.txt,.xlsx,.xlsm" required>`)
		w.raw(`<button type="submit">Apply batch</button>`)
		w.raw(`<a href="/api/batch-template">Download header template</a></form>`)
		return w.err
	})
}
