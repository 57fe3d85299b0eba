package drive

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/andresuchdata/inbound-planner/internal/domain"
)

const ingestDateLayout = "2006-01-02"

type Handler struct {
	service *Service
	ingest  *IngestService
}

func NewHandler(service *Service, ingest *IngestService) *Handler {
	return &Handler{
		service: service,
		ingest:  ingest,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/drive/files/download", h.DownloadFile).Methods("GET")
	router.HandleFunc("/api/drive/ingest", h.IngestFolder).Methods("POST")
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")
	folderPath := query.Get("path")

	var err error
	if folderPath != "" {
		folderID, err = h.service.FindFolderByPath(folderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	files, err := h.service.ListFiles(folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=data.csv")

	if err := h.service.DownloadFile(fileID, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type ingestRequest struct {
	FolderID      string `json:"folder_id"`
	FolderPath    string `json:"folder_path"`
	RTStart       int    `json:"rt_start"`
	RTStop        int    `json:"rt_stop"`
	DOIStart      int    `json:"doi_start"`
	DOIStop       int    `json:"doi_stop"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	DailyCapacity int    `json:"daily_capacity"`
	TotalCapacity int    `json:"total_capacity"`
	LeadTimeDays  int    `json:"default_lead_time_days"`
	Workers       int    `json:"workers"`
	SaveTraces    bool   `json:"save_detailed_traces"`
}

type ingestResponse struct {
	Run  domain.Run              `json:"run"`
	Best *domain.ScenarioSummary `json:"best,omitempty"`
}

// IngestFolder resolves the requested folder, downloads its datasets and
// runs a sweep synchronously. Drive ingests are operator-triggered batch
// jobs, so the request blocks until the sweep finishes.
func (h *Handler) IngestFolder(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	params, err := req.runParams()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	folderID := req.FolderID
	if req.FolderPath != "" {
		folderID, err = h.service.FindFolderByPath(req.FolderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}
	if folderID == "" {
		http.Error(w, "folder_id or folder_path is required", http.StatusBadRequest)
		return
	}

	run, result, err := h.ingest.IngestFolder(r.Context(), folderID, params)
	if err != nil {
		http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusInternalServerError)
		return
	}

	resp := ingestResponse{Run: run}
	if result != nil {
		resp.Best = result.Best
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (req ingestRequest) runParams() (domain.RunParams, error) {
	if req.RTStart < 1 || req.RTStop < req.RTStart {
		return domain.RunParams{}, fmt.Errorf("rt_start and rt_stop must define an ascending range from 1")
	}
	if req.DOIStart < 1 || req.DOIStop < req.DOIStart {
		return domain.RunParams{}, fmt.Errorf("doi_start and doi_stop must define an ascending range from 1")
	}

	start, err := time.Parse(ingestDateLayout, req.StartDate)
	if err != nil {
		return domain.RunParams{}, fmt.Errorf("start_date must be formatted as %s", ingestDateLayout)
	}
	end, err := time.Parse(ingestDateLayout, req.EndDate)
	if err != nil {
		return domain.RunParams{}, fmt.Errorf("end_date must be formatted as %s", ingestDateLayout)
	}
	if end.Before(start) {
		return domain.RunParams{}, fmt.Errorf("end_date must not precede start_date")
	}

	return domain.RunParams{
		Grid: domain.GridSpec{
			RTStart:  req.RTStart,
			RTStop:   req.RTStop,
			DOIStart: req.DOIStart,
			DOIStop:  req.DOIStop,
		},
		Range:               domain.DateRange{Start: start, End: end},
		DailyCapacity:       req.DailyCapacity,
		TotalCapacity:       req.TotalCapacity,
		DefaultLeadTimeDays: req.LeadTimeDays,
		Workers:             req.Workers,
		SaveDetailedTraces:  req.SaveTraces,
	}, nil
}
