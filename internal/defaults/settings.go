package defaults

import "context"

// Settings is everything an operator configures outside the tables.
type Settings struct {
	Defaults   Set        `json:"defaults" yaml:"defaults"`
	Templates  Templates  `json:"childTemplates" yaml:"childTemplates"`
	Visibility Visibility `json:"visibility" yaml:"visibility"`
}

// Empty returns settings with non-nil maps.
func Empty() Settings {
	return Settings{
		Defaults:   make(Set),
		Templates:  make(Templates),
		Visibility: make(Visibility),
	}
}

// SettingsStore persists the three settings documents independently.
type SettingsStore interface {
	// Load reads all documents. A missing document is empty. On error the
	// returned settings still hold every document that could be read.
	Load(ctx context.Context) (Settings, error)
	SaveDefaults(ctx context.Context, s Set) error
	SaveTemplates(ctx context.Context, t Templates) error
	SaveVisibility(ctx context.Context, v Visibility) error
	Close() error
}
