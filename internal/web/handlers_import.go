package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/catalogio/internal/core"
	"github.com/JonMunkholm/catalogio/internal/logging"
	"github.com/JonMunkholm/catalogio/internal/web/templates"
)

// multipartOverhead is the allowance for form boundaries and headers on
// top of the file size limit.
const multipartOverhead = 1 << 20

// handleStartImport accepts a multipart upload in the "file" field and
// queues it for background import.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, fmt.Errorf("%w: upload exceeds %d bytes", core.ErrFileTooLarge, maxSize), 0)
			return
		}
		s.respondError(w, r, fmt.Errorf("no file provided: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("no file provided: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		s.respondError(w, r, fmt.Errorf("%w: %d bytes exceeds limit of %d", core.ErrFileTooLarge, header.Size, maxSize), 0)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	importID, err := s.service.StartImport(ctx, header.Filename, data)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.WithFields(r.Context(),
		"import_id", importID,
		"file", header.Filename,
	).Info("import accepted", "bytes", len(data))

	w.Header().Set("Location", "/api/imports/"+importID)
	writeJSON(w, http.StatusAccepted, map[string]string{"import_id": importID})
}

// handleImportProgress streams progress as server-sent events until the
// import finishes.
//
// The event id is the progress percentage. A reconnecting client sends it
// back (Last-Event-ID header or lastEventId query) and earlier updates are
// skipped.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")

	lastEventIDStr := r.Header.Get("Last-Event-ID")
	if lastEventIDStr == "" {
		lastEventIDStr = r.URL.Query().Get("lastEventId")
	}
	lastEventID := -1
	if lastEventIDStr != "" {
		if n, err := strconv.Atoi(lastEventIDStr); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeProgress(importID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				rc.Flush()
				return
			}

			percent := progress.Percent()
			terminal := progress.Phase == core.PhaseComplete || progress.Phase == core.PhaseFailed
			if percent < lastEventID || (percent == lastEventID && !terminal) {
				continue
			}
			lastEventID = percent

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", percent, data)
			if err := rc.Flush(); err != nil {
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}

// handleImportResult returns the final result of an import, waiting for a
// running job within the request timeout. HTMX requests get the summary panel.
func (s *Server) handleImportResult(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")

	result, err := s.service.GetImportResult(r.Context(), importID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.ImportSummary(result).Render(r.Context(), w); err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}
