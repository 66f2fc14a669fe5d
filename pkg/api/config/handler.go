package config

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"deal_diligence/pkg/api"
	"deal_diligence/pkg/core/agent"
)

type Response struct {
	ActiveProvider string   `json:"active_provider"`
	Available      []string `json:"available"`
}

type SwitchRequest struct {
	Provider string `json:"provider"`
}

// Handler exposes the model routing of the agent manager.
type Handler struct {
	AgentMgr *agent.Manager
}

func NewHandler(agentMgr *agent.Manager) *Handler {
	return &Handler{
		AgentMgr: agentMgr,
	}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/config", h.HandleConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/config/switch", h.HandleSwitch).Methods(http.MethodPost)
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, Response{
		ActiveProvider: h.AgentMgr.GetActiveProvider(),
		Available:      h.AgentMgr.Available(),
	})
}

// HandleSwitch changes the provider used by every role without an override.
// Only affects components that resolve their provider per call.
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.AgentMgr.SetGlobalProvider(req.Provider); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.HandleConfig(w, r)
}
