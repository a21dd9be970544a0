// Package templates renders the operator pages as templ components.
//
// Markup lives in the .templ files. The matching _templ.go files hold the
// compiled components and are replaced by `templ generate`.
package templates

//go:generate templ generate

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/devicebulk/internal/core"
	"github.com/JonMunkholm/devicebulk/internal/defaults"
)

// writer collects the first write error so components can render without
// checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) component(ctx context.Context, c templ.Component) {
	if w.err == nil && c != nil {
		w.err = c.Render(ctx, w.w)
	}
}

// Concat renders components one after another.
func Concat(components ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		for _, c := range components {
			w.component(ctx, c)
		}
		return w.err
	})
}

var operations = []core.Operation{core.OpInsert, core.OpUpdate, core.OpDelete}

func tableURL(name string) templ.SafeURL {
	return templ.URL("/tables/" + url.PathEscape(name))
}

func joinNonEmpty(parts []string, sep string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

type count struct {
	label string
	n     int
}

// resultCounts lists the summary rows of a batch result, child tables last.
func resultCounts(res *core.Result) []count {
	counts := []count{
		{"Supplied", res.Supplied},
		{"Applied", res.Applied},
		{"Unchanged", res.Unchanged},
		{"Skipped", res.Skipped},
	}
	for _, name := range res.ChildTables() {
		counts = append(counts, count{name + " rows", res.ChildRows[name]})
	}
	return counts
}

func resultStatus(res *core.Result) string {
	if res.Complete() {
		return "complete"
	}
	return "partial"
}

type settingsSection struct {
	title, endpoint string
	doc             any
}

func settingsSections(settings defaults.Settings, detected defaults.Set) []settingsSection {
	return []settingsSection{
		{"User defaults", "/api/defaults", settings.Defaults},
		{"Child-row templates", "/api/child-templates", settings.Templates},
		{"Visibility", "/api/visibility", settings.Visibility},
		{"Detected defaults", "/api/defaults/detected", detected},
	}
}

func prettyJSON(v any) (string, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	return string(body), err
}

func rowSummary(d TableViewData) string {
	s := strconv.Itoa(d.Total) + " rows"
	if d.Hidden > 0 {
		s += ", " + strconv.Itoa(d.Hidden) + " hidden columns"
	}
	if len(d.Rows) < d.Total {
		s += ", showing the first " + strconv.Itoa(len(d.Rows))
	}
	return s
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;color:#1f2933;background:#f5f7fa}
header{display:flex;gap:2rem;align-items:center;padding:.75rem 1.5rem;background:#243b53}
header a{color:#fff;text-decoration:none;font-weight:600}
nav a{margin-right:1rem;font-weight:400}
main{padding:1.5rem}
table{border-collapse:collapse;background:#fff;margin-bottom:1.5rem}
th,td{border:1px solid #d9e2ec;padding:.35rem .6rem;text-align:left;font-size:.9rem}
th{background:#f0f4f8}
.alert{padding:.75rem 1rem;border-radius:4px;margin-bottom:1rem}
.error{background:#ffe3e3;border:1px solid #e12d39}
.warn{background:#fff3c4;border:1px solid #f0b429}
.ok{background:#e3f9e5;border:1px solid #3f9142}
.muted{color:#829ab1}
form.batch{display:flex;gap:.75rem;align-items:center;margin-bottom:1.5rem}
`
