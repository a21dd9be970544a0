package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/devicebulk/internal/defaults"
)

// SettingsPage shows the three settings documents and the detected defaults.
// Editing goes through the JSON API.
func SettingsPage(settings defaults.Settings, detected defaults.Set) templ.Component {
	return Layout("Settings", settingsBody(settings, detected))
}

func settingsBody(settings defaults.Settings, detected defaults.Set) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1>Settings</h1>`)
		for _, sec := range settingsSections(settings, detected) {
			body, err := prettyJSON(sec.doc)
			if err != nil {
				return err
			}
			w.raw(`<h2>`)
			w.text(sec.title)
			w.raw(`</h2><p class="muted">`)
			w.text(sec.endpoint)
			w.raw(`</p><pre>`)
			w.text(body)
			w.raw(`</pre>`)
		}
		return w.err
	})
}
