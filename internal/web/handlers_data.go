package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/devicebulk/internal/csvio"
	"github.com/JonMunkholm/devicebulk/internal/logging"
	"github.com/JonMunkholm/devicebulk/internal/schema"
)

// TableResponse is one table as served by the API.
type TableResponse struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
}

// handleListTables summarizes the working set, root first.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.Tables())
}

// handleGetTable returns a table's rows. ?limit= caps the row count and
// ?visible=true restricts columns to the visible ones.
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.Table(chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	columns := t.Columns
	if r.URL.Query().Get("visible") == "true" {
		columns = s.service.Settings().Visibility.VisibleColumns(t.Name, t.Columns)
	}

	limit := parseIntParam(r, "limit", t.Len())
	rows := make([][]string, 0, min(limit, t.Len()))
	for i := 0; i < t.Len() && i < limit; i++ {
		row := make([]string, len(columns))
		for c, col := range columns {
			row[c] = t.Value(i, col)
		}
		rows = append(rows, row)
	}

	writeJSON(w, r, TableResponse{Name: t.Name, Columns: columns, Rows: rows, Total: t.Len()})
}

// handleExportTable downloads a table as CSV, exactly as the store holds it.
func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.Table(chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, t.Name))
	if err := csvio.WriteRecords(w, t.Records(), s.cfg.Data.WriteBOM); err != nil {
		logging.FromContext(r.Context()).Error("export table", "table", t.Name, "error", err)
	}
}

// handleBatchTemplate downloads an empty batch with every header a batch may
// carry: bare root columns, then Child.Column for each linked child table.
func (s *Server) handleBatchTemplate(w http.ResponseWriter, r *http.Request) {
	var headers []string
	for _, sum := range s.service.Tables() {
		for _, col := range sum.Columns {
			if sum.Root {
				headers = append(headers, col)
				continue
			}
			if sum.ForeignKey == "" || col == sum.FKColumn {
				continue
			}
			headers = append(headers, schema.ColumnPath{Table: sum.Name, Column: col}.String())
		}
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_batch.csv"`, s.service.Root()))
	if err := csvio.WriteRecords(w, [][]string{headers}, s.cfg.Data.WriteBOM); err != nil {
		logging.FromContext(r.Context()).Error("write batch template", "error", err)
	}
}

// handleReload re-reads the catalog and every table from disk.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Reload(r.Context()); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, s.service.Tables())
}
