package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/catalogio/internal/catalog"
	"github.com/JonMunkholm/catalogio/internal/core"
	"github.com/JonMunkholm/catalogio/internal/logging"
)

// exportFormat reads ?format=, defaulting to simple.
func exportFormat(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	return string(catalog.FormatSimple)
}

// handleExport downloads every product as CSV in the requested format.
// The file is rendered before any header is sent so store errors still
// produce a proper error response.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	def, err := catalog.ParseFormat(exportFormat(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	var buf bytes.Buffer
	n, err := s.service.Export(ctx, string(def.Key), &buf)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.FromContext(ctx).Info("export downloaded", "format", def.Key, "products", n)

	w.Header().Set("Content-Type", core.ExportContentType)
	w.Header().Set("Content-Disposition", attachment(core.ExportFileName(def.Key, s.now())))
	w.Header().Set("X-Product-Count", strconv.Itoa(n))
	w.Write(buf.Bytes())
}

// handlePublishExport renders an export and uploads it to storage.
func (s *Server) handlePublishExport(w http.ResponseWriter, r *http.Request) {
	def, err := catalog.ParseFormat(exportFormat(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	now := s.now()
	ctx := WithRequestMetadata(r.Context(), r)
	url, err := s.service.PublishExport(ctx, string(def.Key), now)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"url":       url,
		"file_name": core.ExportFileName(def.Key, now),
		"format":    string(def.Key),
	})
}

// handleTemplate serves an empty import template: a header-only CSV for
// /templates/{format}, or a workbook with a sample row for {format}.xlsx.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "format")
	key, xlsx := strings.CutSuffix(name, ".xlsx")
	key = strings.TrimSuffix(key, ".csv")

	def, err := catalog.ParseFormat(key)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	if !xlsx {
		w.Header().Set("Content-Type", core.ExportContentType)
		w.Header().Set("Content-Disposition", attachment(fmt.Sprintf("%s_template.csv", def.Key)))
		w.Write([]byte(catalog.CSVTemplate(def)))
		return
	}

	var buf bytes.Buffer
	if err := catalog.WriteXLSXTemplate(&buf, def); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", catalog.XLSXContentType)
	w.Header().Set("Content-Disposition", attachment(fmt.Sprintf("%s_template.xlsx", def.Key)))
	w.Write(buf.Bytes())
}

// handleHealth reports liveness and import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.LimiterStatus(),
	})
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
