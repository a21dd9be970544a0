package table

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/devicebulk/internal/csvio"
	"github.com/JonMunkholm/devicebulk/internal/schema"
)

// FileStore keeps one CSV file per table in a directory. A file serves the
// table whose name equals the file's base name after normalization, so
// "dbo_Device.csv" serves "Device".
type FileStore struct {
	dir     string
	withBOM bool

	mu    sync.Mutex
	paths map[string]string // TableKey -> path the table was loaded from
}

// NewFileStore returns a store over dir. withBOM controls whether written
// files start with a UTF-8 byte-order mark.
func NewFileStore(dir string, withBOM bool) *FileStore {
	return &FileStore{
		dir:     dir,
		withBOM: withBOM,
		paths:   make(map[string]string),
	}
}

// Dir returns the data directory.
func (s *FileStore) Dir() string { return s.dir }

// Tables lists normalized table names for every CSV file in the directory.
func (s *FileStore) Tables(ctx context.Context) ([]string, error) {
	files, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.name)
	}
	sort.Strings(names)
	return names, nil
}

type tableFile struct {
	name string
	path string
}

func (s *FileStore) scan(ctx context.Context) ([]tableFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	var files []tableFile
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), csvio.TempPrefix) {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !strings.EqualFold(ext, ".csv") {
			continue
		}
		files = append(files, tableFile{
			name: schema.NormalizeTableName(strings.TrimSuffix(e.Name(), ext)),
			path: filepath.Join(s.dir, e.Name()),
		})
	}
	return files, nil
}

func (s *FileStore) locate(ctx context.Context, name string) (string, error) {
	key := schema.TableKey(name)

	s.mu.Lock()
	path, ok := s.paths[key]
	s.mu.Unlock()
	if ok {
		return path, nil
	}

	files, err := s.scan(ctx)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if schema.TableKey(f.name) == key {
			s.mu.Lock()
			s.paths[key] = f.path
			s.mu.Unlock()
			return f.path, nil
		}
	}
	return "", ErrTableNotFound
}

// Load reads the table file serving name.
func (s *FileStore) Load(ctx context.Context, name string) (*Table, error) {
	norm := schema.NormalizeTableName(name)

	path, err := s.locate(ctx, name)
	if err != nil {
		return nil, &IoError{Table: norm, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Table: norm, Path: path, Err: err}
	}
	defer f.Close()

	records, info, err := csvio.ReadRecords(f)
	if err != nil {
		return nil, &IoError{Table: norm, Path: path, Err: err}
	}
	if len(records) == 0 {
		return nil, &IoError{Table: norm, Path: path, Err: errors.New("empty file")}
	}
	for i, rec := range records[1:] {
		if len(rec) > len(records[0]) {
			return nil, &IoError{Table: norm, Path: path,
				Err: fmt.Errorf("row %d has %d fields, header has %d", i+1, len(rec), len(records[0]))}
		}
	}
	if info.Sanitized {
		slog.Warn("table contained invalid UTF-8, replaced with U+FFFD", "table", norm, "path", path)
	}

	return FromRecords(norm, records), nil
}

// Replace atomically rewrites the table's file. A table that was never
// loaded is written to "<Name>.csv".
func (s *FileStore) Replace(ctx context.Context, t *Table) error {
	path, err := s.locate(ctx, t.Name)
	if errors.Is(err, ErrTableNotFound) {
		path = filepath.Join(s.dir, t.Name+".csv")
		err = nil
	}
	if err != nil {
		return &WriteError{Table: t.Name, Err: err}
	}

	records := t.Records()
	err = csvio.ReplaceFile(path, func(w io.Writer) error {
		return csvio.WriteRecords(w, records, s.withBOM)
	})
	if err != nil {
		return &WriteError{Table: t.Name, Path: path, Err: err}
	}

	s.mu.Lock()
	s.paths[schema.TableKey(t.Name)] = path
	s.mu.Unlock()
	return nil
}
