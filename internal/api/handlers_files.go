package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dgallion1/fracture/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type fileEntry struct {
	Index int      `json:"index"`
	Title string   `json:"title"`
	Start int      `json:"start_page"`
	End   int      `json:"end_page"`
	Files []string `json:"files"`
}

// handleListFiles lists the segment files of a finished job.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	job, ok := s.finishedJob(w, r)
	if !ok {
		return
	}

	entries := []fileEntry{}
	for _, out := range job.Outputs() {
		e := fileEntry{Index: out.Index, Title: out.Title, Start: out.Start, End: out.End}
		for _, f := range out.Files {
			e.Files = append(e.Files, filepath.Base(f))
		}
		entries = append(entries, e)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"segments": entries,
	})
}

// handleDownload streams one segment file. Only names the job produced are
// served.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := s.finishedJob(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	var path string
	for _, out := range job.Outputs() {
		for _, f := range out.Files {
			if filepath.Base(f) == name {
				path = f
			}
		}
	}
	if path == "" {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.log.Error("open segment file", "job_id", job.ID, "path", path, "error", err)
		jsonError(w, "file unavailable", http.StatusGone)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		jsonError(w, "file unavailable", http.StatusGone)
		return
	}

	w.Header().Set("Content-Type", contentType(name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) finishedJob(w http.ResponseWriter, r *http.Request) (*pipeline.Job, bool) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	if st := job.Snapshot().Status; st != pipeline.StatusCompleted {
		jsonError(w, "job is "+string(st), http.StatusConflict)
		return nil, false
	}
	return job, true
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".pdf":
		return "application/pdf"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}
