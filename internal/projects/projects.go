// Package projects stores and retrieves saved analysis runs per user.
package projects

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"Clevis/internal/analysis"
	"Clevis/internal/auth"
	"Clevis/internal/repo"
	"Clevis/internal/thread"
	"Clevis/internal/units"
)

type Handler struct {
	Repo     repo.Repository
	Resolver *thread.Resolver
	Registry *units.Registry
}

type saveRequest struct {
	Name     string         `json:"name"`
	Analysis analysis.Input `json:"analysis"`
}

type saveResponse struct {
	ID     int             `json:"id"`
	Result analysis.Result `json:"result"`
}

// SaveRun computes the analysis server-side and persists both the request
// and the result. Stored results are never recomputed on read.
func (h *Handler) SaveRun(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Run name required", http.StatusBadRequest)
		return
	}

	res, err := analysis.Calculate(h.Resolver, h.Registry, req.Analysis)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	inputJSON, err := json.Marshal(req.Analysis)
	if err != nil {
		http.Error(w, "Encoding error", http.StatusInternalServerError)
		return
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		http.Error(w, "Encoding error", http.StatusInternalServerError)
		return
	}

	id, err := h.Repo.SaveRun(r.Context(), userID, req.Name, inputJSON, resultJSON)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(saveResponse{ID: id, Result: res})
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	runs, err := h.Repo.ListRuns(r.Context(), userID)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []repo.RunSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	runID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid run id", http.StatusBadRequest)
		return
	}

	run, err := h.Repo.GetRun(r.Context(), userID, runID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	runID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid run id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.DeleteRun(r.Context(), userID, runID); err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
