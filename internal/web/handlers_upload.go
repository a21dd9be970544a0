package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/devicebulk/internal/core"
	"github.com/JonMunkholm/devicebulk/internal/logging"
	"github.com/JonMunkholm/devicebulk/internal/web/templates"
)

// handleBatch applies an uploaded batch: POST /api/batches/{op} with a
// multipart "file" field (.csv or .xlsx).
//
// A batch that stops at a failed table write answers 500 with the partial
// result, so the caller can see which tables were written.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	op, err := core.ParseOperation(chi.URLParam(r, "op"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	b, err := s.readBatch(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Apply(ctx, op, b)
	if err != nil {
		s.respondBatchError(w, r, err, statusFor(err), res)
		return
	}

	logging.WithFields(ctx, "batch_id", res.BatchID).Info("batch applied via API",
		"operation", op, "source", b.Source, "applied", res.Applied)
	writeJSON(w, r, res)
}

// handleBatchForm is the dashboard form variant of handleBatch. The
// operation comes from the "operation" form field and the outcome is
// rendered as a page.
func (s *Server) handleBatchForm(w http.ResponseWriter, r *http.Request) {
	b, err := s.readBatch(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	op, err := core.ParseOperation(r.FormValue("operation"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	res, err := s.service.Apply(WithRequestMetadata(r.Context(), r), op, b)
	if err != nil {
		s.respondBatchError(w, r, err, statusFor(err), res)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.BatchResultPage(res).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render batch result", "error", err)
	}
}
