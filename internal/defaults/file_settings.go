package defaults

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/devicebulk/internal/csvio"
)

// FileSettingsStore keeps each settings document in its own file. Files ending
// in .yaml or .yml are YAML; anything else is indented JSON.
type FileSettingsStore struct {
	DefaultsPath   string
	TemplatesPath  string
	VisibilityPath string
}

// NewFileSettingsStore returns a store over the three document paths.
func NewFileSettingsStore(defaultsPath, templatesPath, visibilityPath string) *FileSettingsStore {
	return &FileSettingsStore{
		DefaultsPath:   defaultsPath,
		TemplatesPath:  templatesPath,
		VisibilityPath: visibilityPath,
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func readDocument(path string, out any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	data, _ = csvio.Decode(data)
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, out)
	} else {
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeDocument(path string, doc any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	return csvio.ReplaceFile(path, func(w io.Writer) error {
		if isYAML(path) {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encode %s: %w", path, err)
			}
			return enc.Close()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		return nil
	})
}

func (s *FileSettingsStore) Load(ctx context.Context) (Settings, error) {
	out := Empty()
	if err := ctx.Err(); err != nil {
		return out, err
	}

	var errs []error
	if err := readDocument(s.DefaultsPath, &out.Defaults); err != nil {
		errs = append(errs, err)
	}
	if err := readDocument(s.TemplatesPath, &out.Templates); err != nil {
		errs = append(errs, err)
	}
	if err := readDocument(s.VisibilityPath, &out.Visibility); err != nil {
		errs = append(errs, err)
	}

	// A document containing "null" decodes to a nil map.
	if out.Defaults == nil {
		out.Defaults = make(Set)
	}
	if out.Templates == nil {
		out.Templates = make(Templates)
	}
	if out.Visibility == nil {
		out.Visibility = make(Visibility)
	}
	return out, errors.Join(errs...)
}

func (s *FileSettingsStore) SaveDefaults(ctx context.Context, d Set) error {
	return writeDocument(s.DefaultsPath, d)
}

func (s *FileSettingsStore) SaveTemplates(ctx context.Context, t Templates) error {
	return writeDocument(s.TemplatesPath, t)
}

func (s *FileSettingsStore) SaveVisibility(ctx context.Context, v Visibility) error {
	return writeDocument(s.VisibilityPath, v)
}

func (s *FileSettingsStore) Close() error { return nil }
