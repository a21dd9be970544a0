package web

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/devicebulk/internal/defaults"
)

// settingsError reports a settings document that failed validation.
type settingsError struct {
	details []string
}

func (e *settingsError) Error() string {
	return "invalid settings: " + strings.Join(e.details, "; ")
}

// settingsCell is one validated entry of a settings document.
type settingsCell struct {
	Table  string `validate:"required,max=128"`
	Column string `validate:"required,max=128"`
	Value  string `validate:"max=4096"`
}

// templateTable caps the child rows one table may get per new root row.
type templateTable struct {
	Table string `validate:"required,max=128"`
	Rows  int    `validate:"min=0,max=100"`
}

// check runs struct validation and turns failures into readable details.
func (s *Server) check(where string, v any, details []string) []string {
	err := s.validate.Struct(v)
	if err == nil {
		return details
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return append(details, fmt.Sprintf("%s: %v", where, err))
	}
	for _, fe := range fieldErrs {
		detail := fmt.Sprintf("%s: %s failed %s", where, fe.Field(), fe.Tag())
		if fe.Param() != "" {
			detail += "=" + fe.Param()
		}
		details = append(details, detail)
	}
	return details
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Server) validateDefaults(d defaults.Set) error {
	var details []string
	for _, tbl := range sortedKeys(d) {
		for _, col := range sortedKeys(d[tbl]) {
			cell := settingsCell{Table: strings.TrimSpace(tbl), Column: strings.TrimSpace(col), Value: d[tbl][col]}
			details = s.check(fmt.Sprintf("defaults[%q][%q]", tbl, col), cell, details)
		}
	}
	if len(details) > 0 {
		return &settingsError{details: details}
	}
	return nil
}

func (s *Server) validateTemplates(t defaults.Templates) error {
	var details []string
	for _, tbl := range sortedKeys(t) {
		rows := t[tbl]
		details = s.check(fmt.Sprintf("childTemplates[%q]", tbl), templateTable{Table: strings.TrimSpace(tbl), Rows: len(rows)}, details)
		for i, row := range rows {
			for _, col := range sortedKeys(row) {
				cell := settingsCell{Table: strings.TrimSpace(tbl), Column: strings.TrimSpace(col), Value: row[col]}
				details = s.check(fmt.Sprintf("childTemplates[%q][%d][%q]", tbl, i, col), cell, details)
			}
		}
	}
	if len(details) > 0 {
		return &settingsError{details: details}
	}
	return nil
}

func (s *Server) validateVisibility(v defaults.Visibility) error {
	var details []string
	for _, tbl := range sortedKeys(v) {
		for _, col := range sortedKeys(v[tbl]) {
			cell := settingsCell{Table: strings.TrimSpace(tbl), Column: strings.TrimSpace(col)}
			details = s.check(fmt.Sprintf("visibility[%q][%q]", tbl, col), cell, details)
		}
	}
	if len(details) > 0 {
		return &settingsError{details: details}
	}
	return nil
}

func (s *Server) handleGetDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.Settings().Defaults)
}

// handlePutDefaults replaces the user defaults document.
func (s *Server) handlePutDefaults(w http.ResponseWriter, r *http.Request) {
	var doc defaults.Set
	if err := decodeJSON(w, r, &doc); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.validateDefaults(doc); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.service.SetDefaults(WithRequestMetadata(r.Context(), r), doc); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, s.service.Settings().Defaults)
}

func (s *Server) handleDetectedDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.DetectedDefaults())
}

func (s *Server) handleGetTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.Settings().Templates)
}

// handlePutTemplates replaces the child-row templates document.
func (s *Server) handlePutTemplates(w http.ResponseWriter, r *http.Request) {
	var doc defaults.Templates
	if err := decodeJSON(w, r, &doc); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.validateTemplates(doc); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.service.SetTemplates(WithRequestMetadata(r.Context(), r), doc); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, s.service.Settings().Templates)
}

func (s *Server) handleGetVisibility(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.Settings().Visibility)
}

// handlePutVisibility replaces the visibility document.
func (s *Server) handlePutVisibility(w http.ResponseWriter, r *http.Request) {
	var doc defaults.Visibility
	if err := decodeJSON(w, r, &doc); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.validateVisibility(doc); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.service.SetVisibility(WithRequestMetadata(r.Context(), r), doc); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, s.service.Settings().Visibility)
}
