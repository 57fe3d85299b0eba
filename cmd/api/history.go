package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/andresuchdata/inbound-planner/internal/repository"
)

// historyHandler serves recorded runs out of the history database. Rows
// come from the drive ingest flow or from the analytics backfill tool.
type historyHandler struct {
	repo repository.RunHistoryRepository
}

func (h *historyHandler) registerRoutes(router *mux.Router) {
	router.HandleFunc("/api/history/runs", h.listRuns).Methods("GET")
	router.HandleFunc("/api/history/runs/{id}", h.getRun).Methods("GET")
	router.HandleFunc("/api/history/runs/{id}/scenarios", h.getScenarios).Methods("GET")
	router.HandleFunc("/api/history/best", h.bestScenarios).Methods("GET")
}

func (h *historyHandler) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repo.ListRuns(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (h *historyHandler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.repo.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, run)
}

func (h *historyHandler) getScenarios(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.repo.GetRun(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	scenarios, err := h.repo.GetScenarios(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, scenarios)
}

func (h *historyHandler) bestScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.repo.GetBestScenarios(r.Context(), queryInt(r, "limit"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, scenarios)
}

// queryInt reads a non-negative integer query parameter, zero when absent
// or malformed. The repository applies its own defaults for zero.
func queryInt(r *http.Request, name string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
