// Package analysis serves the trigger and read endpoints of deal analyses.
package analysis

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"deal_diligence/pkg/api"
	"deal_diligence/pkg/core/logger"
	"deal_diligence/pkg/core/pipeline"
	"deal_diligence/pkg/core/store"
	"deal_diligence/pkg/models"
)

// Dispatcher starts a background analysis job.
type Dispatcher interface {
	Dispatch(dealID int64) (jobID string, started bool)
}

// ResultsReader builds the per-type result view of a deal.
type ResultsReader interface {
	Results(ctx context.Context, dealID int64) (pipeline.DealResults, error)
}

type Handler struct {
	Store   store.Repository
	Jobs    Dispatcher
	Results ResultsReader
}

func NewHandler(repo store.Repository, jobs Dispatcher, results ResultsReader) *Handler {
	return &Handler{Store: repo, Jobs: jobs, Results: results}
}

type TriggerResponse struct {
	Status models.DealStatus `json:"status"`
	DealID int64             `json:"deal_id"`
	JobID  string            `json:"job_id"`
}

type ListResponse struct {
	Analyses []models.AnalysisRecord `json:"analyses"`
}

type ResultsResponse struct {
	DealID  int64                `json:"deal_id"`
	Status  models.DealStatus    `json:"status"`
	Results pipeline.DealResults `json:"results"`
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/deals/{id:[0-9]+}/analyze", h.HandleTrigger).Methods(http.MethodPost)
	r.HandleFunc("/api/deals/{id:[0-9]+}/analysis", h.HandleList).Methods(http.MethodGet)
	r.HandleFunc("/api/deals/{id:[0-9]+}/analysis/{type}", h.HandleGet).Methods(http.MethodGet)
	r.HandleFunc("/api/deals/{id:[0-9]+}/results", h.HandleResults).Methods(http.MethodGet)
}

// HandleTrigger marks the deal analyzing and hands it to the dispatcher. The
// pipeline itself runs after the response is written.
func (h *Handler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	dealID, ok := dealIDFrom(w, r)
	if !ok {
		return
	}
	sess, err := h.Store.Open(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer sess.Close()

	if _, err := sess.LoadDeal(r.Context(), dealID); err != nil {
		writeStoreError(w, err, "Deal not found")
		return
	}
	if err := sess.SetDealStatus(r.Context(), dealID, models.DealAnalyzing); err != nil {
		writeStoreError(w, err, "Deal not found")
		return
	}

	jobID, started := h.Jobs.Dispatch(dealID)
	logger.Deal(dealID).WithField("job_id", jobID).WithField("started", started).Info("analysis triggered")
	api.WriteJSON(w, http.StatusAccepted, TriggerResponse{Status: models.DealAnalyzing, DealID: dealID, JobID: jobID})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	dealID, ok := dealIDFrom(w, r)
	if !ok {
		return
	}
	sess, err := h.Store.Open(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer sess.Close()

	if _, err := sess.LoadDeal(r.Context(), dealID); err != nil {
		writeStoreError(w, err, "Deal not found")
		return
	}
	records, err := sess.ListAnalyses(r.Context(), dealID)
	if err != nil {
		writeStoreError(w, err, "Deal not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, ListResponse{Analyses: records})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	dealID, ok := dealIDFrom(w, r)
	if !ok {
		return
	}
	typ, known := models.ParseAnalysisType(mux.Vars(r)["type"])
	if !known {
		api.WriteError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	sess, err := h.Store.Open(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer sess.Close()

	rec, err := sess.GetAnalysis(r.Context(), dealID, typ)
	if err != nil {
		writeStoreError(w, err, "Analysis not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	dealID, ok := dealIDFrom(w, r)
	if !ok {
		return
	}
	results, err := h.Results.Results(r.Context(), dealID)
	if err != nil {
		writeStoreError(w, err, "Deal not found")
		return
	}

	resp := ResultsResponse{DealID: dealID, Results: results}
	if sess, err := h.Store.Open(r.Context()); err == nil {
		if deal, err := sess.LoadDeal(r.Context(), dealID); err == nil {
			resp.Status = deal.Status
		}
		sess.Close()
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

func dealIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid deal id")
		return 0, false
	}
	return id, true
}

func writeStoreError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, notFound)
		return
	}
	logger.Log.WithError(err).Error("store request failed")
	api.WriteError(w, http.StatusInternalServerError, "internal error")
}
