package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/linkln33/garden-buddy-sub000/internal/importer"
	"github.com/linkln33/garden-buddy-sub000/internal/logging"
)

// handleImport accepts a raw dataset export in the request body, runs
// the parse-and-reconcile pipeline synchronously, and returns the run
// report. The caller owns file acquisition; this endpoint only consumes
// the blob.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "dataset exceeds maximum size")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	run, err := s.imports.Run(r.Context(), string(body))
	if err != nil {
		if errors.Is(err, importer.ErrTooManyImports) {
			w.Header().Set("Retry-After", "30")
			writeError(w, http.StatusTooManyRequests, "too many concurrent imports")
			return
		}
		logger.Error("import run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	status := http.StatusOK
	if run.Report.Empty() && run.Report.RowsSeen == 0 {
		// Nothing to import is a result, not an error, but flag it.
		logger.Info("import received empty dataset")
	}
	writeJSON(w, status, run)
}

// handleGetRun returns the report of a finished import run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	run, ok := s.imports.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleHealth reports liveness and store reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error("store ping failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"active_imports": s.imports.ActiveCount(),
	})
}
