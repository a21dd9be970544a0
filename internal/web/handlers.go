package web

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/devicebulk/internal/logging"
	"github.com/JonMunkholm/devicebulk/internal/web/templates"
)

// tableViewRows caps the rows rendered on a table page.
const tableViewRows = 500

// dashboardHistory is how many recent batches the dashboard lists.
const dashboardHistory = 5

// render serves a page component. Pages render to a buffer first; a failed
// render answers 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	templ.Handler(c, templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "failed to render page", http.StatusInternalServerError)
		})
	})).ServeHTTP(w, r)
}

// handleDashboard renders the main page with the working set summary.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	recent := s.service.History()
	if len(recent) > dashboardHistory {
		recent = recent[:dashboardHistory]
	}

	s.render(w, r, templates.Dashboard(templates.DashboardData{
		Root:    s.service.Root(),
		Tables:  s.service.Tables(),
		Limiter: s.service.LimiterStatus(),
		Recent:  recent,
	}))
}

// handleTableView renders one table, visible columns only.
func (s *Server) handleTableView(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.Table(chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	columns := s.service.Settings().Visibility.VisibleColumns(t.Name, t.Columns)
	limit := parseIntParam(r, "limit", tableViewRows)

	var rows [][]string
	for i := 0; i < t.Len() && i < limit; i++ {
		row := make([]string, len(columns))
		for c, col := range columns {
			row[c] = t.Value(i, col)
		}
		rows = append(rows, row)
	}

	s.render(w, r, templates.TableView(templates.TableViewData{
		Name:      t.Name,
		Columns:   columns,
		Rows:      rows,
		Total:     t.Len(),
		Hidden:    len(t.Columns) - len(columns),
		ExportURL: "/api/tables/" + t.Name + "/export",
	}))
}

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, templates.HistoryPage(s.service.History()))
}

func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, templates.SettingsPage(s.service.Settings(), s.service.DetectedDefaults()))
}
