package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/devicebulk/internal/core"
	"github.com/JonMunkholm/devicebulk/internal/defaults"
)

// settingsDoc describes one settings document for the get/set subcommands.
type settingsDoc[T any] struct {
	name  string
	short string
	get   func(defaults.Settings) T
	set   func(ctx context.Context, svc *core.Service, doc T) error
}

func (d settingsDoc[T]) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   d.name,
		Short: d.short,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the current " + d.name + " document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *core.Service) error {
				return printDocument(cmd, d.get(svc.Settings()))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set FILE",
		Short: "Replace the " + d.name + " document from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc T
			if err := readDocument(args[0], &doc); err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *core.Service) error {
				if err := d.set(ctx, svc, doc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s saved\n", d.name)
				return nil
			})
		},
	})
	return cmd
}

var detectedCmd = &cobra.Command{
	Use:   "detected",
	Short: "Print the defaults detected from the current tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			return printDocument(cmd, svc.DetectedDefaults())
		})
	},
}

func init() {
	defaultsCmd := settingsDoc[defaults.Set]{
		name:  "defaults",
		short: "Show or replace user defaults (table -> column -> value)",
		get:   func(s defaults.Settings) defaults.Set { return s.Defaults },
		set: func(ctx context.Context, svc *core.Service, doc defaults.Set) error {
			return svc.SetDefaults(ctx, doc)
		},
	}.command()
	defaultsCmd.AddCommand(detectedCmd)

	rootCmd.AddCommand(
		defaultsCmd,
		settingsDoc[defaults.Templates]{
			name:  "templates",
			short: "Show or replace child-row templates (child table -> rows)",
			get:   func(s defaults.Settings) defaults.Templates { return s.Templates },
			set: func(ctx context.Context, svc *core.Service, doc defaults.Templates) error {
				return svc.SetTemplates(ctx, doc)
			},
		}.command(),
		settingsDoc[defaults.Visibility]{
			name:  "visibility",
			short: "Show or replace table and column visibility",
			get:   func(s defaults.Settings) defaults.Visibility { return s.Visibility },
			set: func(ctx context.Context, svc *core.Service, doc defaults.Visibility) error {
				return svc.SetVisibility(ctx, doc)
			},
		}.command(),
	)
}

// readDocument decodes a JSON or YAML file, chosen by extension.
func readDocument(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func printDocument(cmd *cobra.Command, doc any) error {
	enc := json.NewEncoder(stdout(cmd))
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
