package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/fracture/internal/align"
	"github.com/dgallion1/fracture/internal/outline"
	"github.com/dgallion1/fracture/internal/pipeline"
	"github.com/dgallion1/fracture/internal/segment"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	win, err := formWindow(r, s.cfg.StartDepth)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var boundary segment.Boundary
	if v := r.FormValue("boundary"); v != "" {
		if boundary, err = segment.ParseBoundary(v); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	var mode align.Mode
	if v := r.FormValue("align"); v != "" {
		m, ok := align.ParseMode(v)
		if !ok {
			jsonError(w, fmt.Sprintf("unknown align mode %q (want bracket or level)", v), http.StatusBadRequest)
			return
		}
		mode = m
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		jsonError(w, "file is empty", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(filename, data, win)
	job.Boundary = boundary
	job.Align = mode

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":       job.ID,
		"status":       pipeline.StatusQueued,
		"content_hash": job.ContentHash,
		"poll_url":     fmt.Sprintf("/api/split/%s/status", job.ID),
	})
}

// formWindow reads the start and end depth fields. Missing start uses
// defaultStart; missing end means no limit.
func formWindow(r *http.Request, defaultStart int) (outline.Window, error) {
	win := outline.Window{Start: max(defaultStart, 1)}
	if v := r.FormValue("start"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return win, fmt.Errorf("start must be an integer")
		}
		win.Start = n
	}
	if v := r.FormValue("end"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return win, fmt.Errorf("end must be an integer")
		}
		win.End = n
	}
	return win, win.Validate()
}

func (s *Server) handleSplitStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed.pdf"
	}
	return name
}
