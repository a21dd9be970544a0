// Package web provides HTTP handlers for the bulk editing application.
// This file contains shared utilities used across handlers.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/devicebulk/internal/batch"
	"github.com/JonMunkholm/devicebulk/internal/logging"
)

// maxSettingsBody caps settings documents sent to the API.
const maxSettingsBody = 1 << 20

// multipartMemory is how much of an upload is held in memory before spilling to disk.
const multipartMemory = 32 << 20

var errNoFile = errors.New("no file provided")

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// readBatch parses the "file" field of a multipart upload into a batch.
func (s *Server) readBatch(w http.ResponseWriter, r *http.Request) (*batch.Batch, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Batch.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbErr *http.MaxBytesError
		if errors.As(err, &mbErr) {
			return nil, fmt.Errorf("file too large: %w", err)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, errNoFile
		}
		return nil, fmt.Errorf("parse upload: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	return batch.Read(header.Filename, file)
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSettingsBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &settingsError{details: []string{err.Error()}}
	}
	return nil
}

// writeJSON encodes v as JSON with status 200.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	writeJSONStatus(w, r, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
