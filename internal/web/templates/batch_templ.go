package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/devicebulk/internal/core"
)

// BatchResultPage shows the outcome of a batch submitted from the dashboard.
func BatchResultPage(res *core.Result) templ.Component {
	return Layout("Batch "+string(res.Operation), BatchResult(res))
}

// BatchResult renders counts, per-table write status and warnings.
func BatchResult(res *core.Result) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}

		if res.Complete() {
			w.raw(`<div class="alert ok">Batch applied.</div>`)
		} else {
			w.raw(`<div class="alert error">Batch stopped at a failed write. Tables marked written keep their new contents.</div>`)
		}

		w.raw(`<h1>`)
		w.text(string(res.Operation))
		w.raw(` `)
		w.text(res.Source)
		w.raw(`</h1><p class="muted">Batch `)
		w.text(res.BatchID)
		w.raw(`</p>`)

		w.raw(`<table><tbody>`)
		for _, c := range resultCounts(res) {
			w.raw(`<tr><th>`)
			w.text(c.label)
			w.raw(`</th><td>`)
			w.text(strconv.Itoa(c.n))
			w.raw(`</td></tr>`)
		}
		w.raw(`</tbody></table>`)

		if len(res.Writes) > 0 {
			w.raw(`<h2>Writes</h2><table><thead><tr><th>Table</th><th>Rows</th><th>Status</th><th>Error</th></tr></thead><tbody>`)
			for _, tw := range res.Writes {
				w.raw(`<tr><td>`)
				w.text(tw.Table)
				w.raw(`</td><td>`)
				w.text(strconv.Itoa(tw.Rows))
				w.raw(`</td><td>`)
				w.text(string(tw.Status))
				w.raw(`</td><td>`)
				w.text(tw.Error)
				w.raw(`</td></tr>`)
			}
			w.raw(`</tbody></table>`)
		}

		if len(res.Warnings) > 0 {
			w.raw(`<h2>Warnings</h2><ul>`)
			for _, msg := range res.Warnings {
				w.raw(`<li>`)
				w.text(msg)
				w.raw(`</li>`)
			}
			w.raw(`</ul>`)
		}
		return w.err
	})
}

// HistoryTable lists batch results, newest first.
func HistoryTable(results []*core.Result) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<table><thead><tr><th>Batch</th><th>Operation</th><th>Source</th><th>Applied</th><th>Skipped</th><th>Status</th></tr></thead><tbody>`)
		for _, res := range results {
			w.raw(`<tr><td>`)
			w.text(res.BatchID)
			w.raw(`</td><td>`)
			w.text(string(res.Operation))
			w.raw(`</td><td>`)
			w.text(res.Source)
			w.raw(`</td><td>`)
			w.text(strconv.Itoa(res.Applied))
			w.raw(`</td><td>`)
			w.text(strconv.Itoa(res.Skipped))
			w.raw(`</td><td>`)
			w.text(resultStatus(res))
			w.raw(`</td></tr>`)
		}
		w.raw(`</tbody></table>`)
		return w.err
	})
}

// HistoryPage is the full batch history view.
func HistoryPage(results []*core.Result) templ.Component {
	return Layout("History", historyBody(results))
}

func historyBody(results []*core.Result) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1>Batch history</h1>`)
		if len(results) == 0 {
			w.raw(`<p class="muted">No batches since the server started.</p>`)
			return w.err
		}
		w.component(ctx, HistoryTable(results))
		return w.err
	})
}
