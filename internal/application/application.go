// Package application wires configuration into a ready core.Service. Both
// binaries start from here.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/devicebulk/internal/config"
	"github.com/JonMunkholm/devicebulk/internal/core"
	"github.com/JonMunkholm/devicebulk/internal/defaults"
	"github.com/JonMunkholm/devicebulk/internal/schema"
	"github.com/JonMunkholm/devicebulk/internal/table"
)

// CatalogLoader reads the relation file on every call and applies the
// configured tie-break policy.
func CatalogLoader(cfg config.DataConfig) (core.CatalogLoader, error) {
	policy, err := schema.ParseTieBreak(cfg.TieBreak)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (*schema.Catalog, error) {
		catalog, err := schema.LoadCatalogFile(cfg.RelationFile)
		if err != nil {
			return nil, err
		}
		catalog.SetTieBreak(policy, cfg.Canonical)
		return catalog, nil
	}, nil
}

// OpenSettings returns the settings store selected by SETTINGS_BACKEND.
func OpenSettings(cfg config.SettingsConfig) (defaults.SettingsStore, error) {
	switch cfg.Backend {
	case "", "file":
		return defaults.NewFileSettingsStore(cfg.DefaultsPath, cfg.TemplatesPath, cfg.VisibilityPath), nil
	case "bolt":
		return defaults.OpenBoltSettingsStore(cfg.BoltPath)
	default:
		return nil, fmt.Errorf("unknown settings backend %q", cfg.Backend)
	}
}

// OpenAudit connects the PostgreSQL audit sink when a database URL is set.
// Without one, audit entries go to the log.
func OpenAudit(ctx context.Context, cfg config.AuditConfig) (core.AuditSink, error) {
	if cfg.URL == "" {
		slog.Info("no audit database configured, auditing to log")
		return core.LogAuditSink{}, nil
	}

	sink, err := core.NewPgAuditSink(ctx, core.PgAuditOptions{
		URL:      cfg.URL,
		MaxConns: int32(cfg.MaxConns),
		MinConns: int32(cfg.MinConns),
	})
	if err != nil {
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to audit database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to audit database")
	}
	return sink, nil
}

// Open builds the service: settings store, audit sink, table store and the
// initial working set. On error everything opened so far is released.
func Open(ctx context.Context, cfg *config.Config) (*core.Service, error) {
	loader, err := CatalogLoader(cfg.Data)
	if err != nil {
		return nil, err
	}

	settings, err := OpenSettings(cfg.Settings)
	if err != nil {
		return nil, err
	}

	audit, err := OpenAudit(ctx, cfg.Audit)
	if err != nil {
		settings.Close()
		return nil, err
	}

	service, err := core.NewService(ctx, core.ServiceOptions{
		Root:         cfg.Data.RootTable,
		LoadCatalog:  loader,
		Store:        table.NewFileStore(cfg.Data.Dir, cfg.Data.WriteBOM),
		Settings:     settings,
		Audit:        audit,
		BatchMaxWait: cfg.Batch.MaxWait,
		BatchTimeout: cfg.Batch.Timeout,
		HistorySize:  cfg.Batch.HistorySize,
	})
	if err != nil {
		audit.Close()
		settings.Close()
		return nil, err
	}
	return service, nil
}
