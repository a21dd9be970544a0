package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/devicebulk/internal/batch"
	"github.com/JonMunkholm/devicebulk/internal/defaults"
	"github.com/JonMunkholm/devicebulk/internal/logging"
	"github.com/JonMunkholm/devicebulk/internal/schema"
	"github.com/JonMunkholm/devicebulk/internal/table"
)

// DefaultBatchTimeout is the maximum duration of one batch, waiting excluded.
const DefaultBatchTimeout = 10 * time.Minute

// DefaultHistorySize is how many batch results the service remembers.
const DefaultHistorySize = 20

// CatalogLoader produces a fresh relation catalog, tie-break policy applied.
type CatalogLoader func(ctx context.Context) (*schema.Catalog, error)

// ServiceOptions wires a Service.
type ServiceOptions struct {
	Root         string
	LoadCatalog  CatalogLoader
	Store        table.Store
	Settings     defaults.SettingsStore
	Audit        AuditSink // Defaults to LogAuditSink
	BatchMaxWait time.Duration
	BatchTimeout time.Duration
	HistorySize  int
}

// ErrAuditUnavailable is returned by RecentAudit when the audit sink keeps no
// queryable history.
var ErrAuditUnavailable = errors.New("audit history unavailable")

// AuditReader is implemented by sinks that can list recent entries.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
}

// Service is the entry point for every caller: it owns the current working
// set and the operator settings, runs batches one at a time and reloads all
// tables after each batch.
type Service struct {
	root          string
	loadCatalog   CatalogLoader
	store         table.Store
	settingsStore defaults.SettingsStore
	audit         AuditSink
	limiter       *BatchLimiter
	batchTimeout  time.Duration
	historySize   int

	mu       sync.RWMutex
	ws       *WorkingSet
	settings defaults.Settings
	history  []*Result // Newest first
}

// NewService loads settings, the catalog and the working set. A catalog or
// root-table failure is fatal; unreadable settings documents are logged and
// treated as empty.
func NewService(ctx context.Context, opts ServiceOptions) (*Service, error) {
	switch {
	case opts.Root == "":
		return nil, errors.New("service: root table name is required")
	case opts.LoadCatalog == nil:
		return nil, errors.New("service: catalog loader is required")
	case opts.Store == nil:
		return nil, errors.New("service: table store is required")
	case opts.Settings == nil:
		return nil, errors.New("service: settings store is required")
	}
	if opts.Audit == nil {
		opts.Audit = LogAuditSink{}
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = DefaultBatchTimeout
	}

	s := &Service{
		root:          schema.NormalizeTableName(opts.Root),
		loadCatalog:   opts.LoadCatalog,
		store:         opts.Store,
		settingsStore: opts.Settings,
		audit:         opts.Audit,
		limiter:       NewBatchLimiter(1, opts.BatchMaxWait),
		batchTimeout:  opts.BatchTimeout,
		historySize:   opts.HistorySize,
	}

	settings, err := opts.Settings.Load(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("settings partially loaded", "error", err)
	}
	s.settings = settings

	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the relation catalog and every table of the working set,
// waiting for a running batch first.
func (s *Service) Reload(ctx context.Context) error {
	if err := s.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer s.limiter.Release()
	return s.reload(ctx)
}

func (s *Service) reload(ctx context.Context) error {
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}
	ws, err := LoadWorkingSet(ctx, s.store, catalog, s.root)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ws = ws
	s.mu.Unlock()
	return nil
}

// Root returns the root table name.
func (s *Service) Root() string { return s.root }

// WorkingSet returns the current working set. Callers must not modify it.
func (s *Service) WorkingSet() *WorkingSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ws
}

// Insert applies an insert batch.
func (s *Service) Insert(ctx context.Context, b *batch.Batch) (*Result, error) {
	return s.Apply(ctx, OpInsert, b)
}

// Update applies an update batch.
func (s *Service) Update(ctx context.Context, b *batch.Batch) (*Result, error) {
	return s.Apply(ctx, OpUpdate, b)
}

// Delete applies a delete batch.
func (s *Service) Delete(ctx context.Context, b *batch.Batch) (*Result, error) {
	return s.Apply(ctx, OpDelete, b)
}

// Apply runs one batch. It waits for any running batch to finish first.
//
// A batch rejected before writing returns a nil result. Otherwise the result
// is returned even when a table write failed, together with that error.
func (s *Service) Apply(ctx context.Context, op Operation, b *batch.Batch) (*Result, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.batchTimeout)
	defer cancel()

	s.mu.RLock()
	ws, settings := s.ws, s.settings
	s.mu.RUnlock()

	next, res, err := NewEngine(s.store, settings).Run(ctx, op, ws, b)
	if res == nil {
		return nil, err
	}

	if auditErr := s.audit.Record(ctx, newAuditEntry(ctx, s.root, res, err)); auditErr != nil {
		logging.WithFields(ctx, "batch_id", res.BatchID).Error("audit record failed", "error", auditErr)
	}

	if len(res.WrittenTables()) > 0 {
		if reloadErr := s.reload(ctx); reloadErr != nil {
			logging.WithFields(ctx, "batch_id", res.BatchID).
				Warn("reload after batch failed, keeping in-memory state", "error", reloadErr)
			s.mu.Lock()
			s.ws = next
			s.mu.Unlock()
		}
	}

	s.remember(res)
	return res, err
}

func (s *Service) remember(res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append([]*Result{res}, s.history...)
	if len(s.history) > s.historySize {
		s.history = s.history[:s.historySize]
	}
}

// History returns recent batch results, newest first.
func (s *Service) History() []*Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Result(nil), s.history...)
}

// RecentAudit lists the newest audit entries when the sink supports it.
func (s *Service) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	reader, ok := s.audit.(AuditReader)
	if !ok {
		return nil, ErrAuditUnavailable
	}
	return reader.Recent(ctx, limit)
}

// LimiterStatus reports whether a batch is running.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// TableSummary describes one loaded table.
type TableSummary struct {
	Name           string   `json:"name"`
	Root           bool     `json:"root"`
	PrimaryKey     string   `json:"primaryKey"`
	Columns        []string `json:"columns"`
	Rows           int      `json:"rows"`
	ForeignKey     string   `json:"foreignKey,omitempty"`
	FKColumn       string   `json:"fkColumn,omitempty"`
	Visible        bool     `json:"visible"`
	VisibleColumns []string `json:"visibleColumns"`
	Templates      int      `json:"templates"`
}

// Tables summarizes the working set, root first.
func (s *Service) Tables() []TableSummary {
	s.mu.RLock()
	ws, settings := s.ws, s.settings
	s.mu.RUnlock()

	links := make(map[string]schema.Relation)
	if children, _, err := ws.Children(); err == nil {
		for _, c := range children {
			links[schema.TableKey(c.Table.Name)] = c.Relation
		}
	}

	var out []TableSummary
	for _, name := range ws.Names() {
		t, _ := ws.Table(name)
		vis := settings.Visibility.For(t.Name)
		sum := TableSummary{
			Name:           t.Name,
			Root:           schema.SameTable(t.Name, ws.Root),
			PrimaryKey:     t.PrimaryKey(),
			Columns:        t.Columns,
			Rows:           t.Len(),
			Visible:        vis.TableVisible(),
			VisibleColumns: settings.Visibility.VisibleColumns(t.Name, t.Columns),
			Templates:      len(settings.Templates.For(t.Name)),
		}
		if rel, ok := links[schema.TableKey(t.Name)]; ok {
			sum.ForeignKey = rel.ForeignKeyName
			sum.FKColumn = rel.ParentColumn
		}
		out = append(out, sum)
	}
	return out
}

// Table returns a copy of a loaded table.
func (s *Service) Table(name string) (*table.Table, error) {
	t, ok := s.WorkingSet().Table(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", table.ErrTableNotFound, schema.NormalizeTableName(name))
	}
	return t.Clone(), nil
}

// Settings returns the current operator settings.
func (s *Service) Settings() defaults.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// DetectedDefaults returns the defaults detected from the current tables.
func (s *Service) DetectedDefaults() defaults.Set {
	return s.WorkingSet().Detected
}

// SetDefaults persists and activates new user defaults.
func (s *Service) SetDefaults(ctx context.Context, d defaults.Set) error {
	if d == nil {
		d = make(defaults.Set)
	}
	if err := s.settingsStore.SaveDefaults(ctx, d); err != nil {
		return fmt.Errorf("save defaults: %w", err)
	}
	s.mu.Lock()
	s.settings.Defaults = d
	s.mu.Unlock()

	s.auditSettings(ctx, ActionDefaultsEdit, len(d))
	return nil
}

// SetTemplates persists and activates new child-row templates.
func (s *Service) SetTemplates(ctx context.Context, t defaults.Templates) error {
	if t == nil {
		t = make(defaults.Templates)
	}
	if err := s.settingsStore.SaveTemplates(ctx, t); err != nil {
		return fmt.Errorf("save child templates: %w", err)
	}
	s.mu.Lock()
	s.settings.Templates = t
	s.mu.Unlock()

	s.auditSettings(ctx, ActionTemplatesEdit, len(t))
	return nil
}

// SetVisibility persists new visibility settings.
func (s *Service) SetVisibility(ctx context.Context, v defaults.Visibility) error {
	if v == nil {
		v = make(defaults.Visibility)
	}
	if err := s.settingsStore.SaveVisibility(ctx, v); err != nil {
		return fmt.Errorf("save visibility: %w", err)
	}
	s.mu.Lock()
	s.settings.Visibility = v
	s.mu.Unlock()

	s.auditSettings(ctx, ActionVisibilityEdit, len(v))
	return nil
}

func (s *Service) auditSettings(ctx context.Context, action AuditAction, tables int) {
	meta := RequestMetaFrom(ctx)
	entry := AuditEntry{
		Action:    action,
		Severity:  auditSeverity(action, false),
		Table:     s.root,
		Applied:   tables,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Actor:     meta.Actor,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		logging.FromContext(ctx).Error("audit record failed", "action", action, "error", err)
	}
}

// Close waits for a running batch, then releases the settings store and audit sink.
func (s *Service) Close(ctx context.Context) error {
	drainErr := s.limiter.WaitForDrain(ctx)
	s.audit.Close()
	return errors.Join(drainErr, s.settingsStore.Close())
}
