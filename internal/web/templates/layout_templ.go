package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps a page body in the shared document shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<title>`)
		w.text(title)
		w.raw(` · Device Bulk</title><style>`)
		w.raw(styles)
		w.raw(`</style></head><body><header><a href="/">Device Bulk</a>`)
		w.raw(`<nav><a href="/">Tables</a><a href="/history">History</a><a href="/settings">Settings</a></nav></header><main>`)
		w.component(ctx, body)
		w.raw(`</main></body></html>`)
		return w.err
	})
}

// ErrorAlert renders an operator-facing error with its code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="alert error" role="alert"><strong>`)
		w.text(message)
		w.raw(`</strong>`)
		if action != "" {
			w.raw(`<p>`)
			w.text(action)
			w.raw(`</p>`)
		}
		if code != "" {
			w.raw(`<small>Code: `)
			w.text(code)
			w.raw(`</small>`)
		}
		w.raw(`</div>`)
		return w.err
	})
}
