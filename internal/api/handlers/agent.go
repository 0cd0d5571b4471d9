package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/veridex-ai/veridex/internal/api"
	"github.com/veridex-ai/veridex/internal/domain"
)

type AgentService interface {
	Create(ctx context.Context, displayName string) (*domain.Agent, error)
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	List(ctx context.Context) ([]*domain.Agent, error)
}

type AgentTrustService interface {
	UpdateAgentTrust(ctx context.Context, agentID string) (float64, error)
}

type AgentHandler struct {
	svc   AgentService
	trust AgentTrustService
}

func NewAgentHandler(svc AgentService, trust AgentTrustService) *AgentHandler {
	return &AgentHandler{svc: svc, trust: trust}
}

type CreateAgentRequest struct {
	DisplayName string `json:"display_name"`
}

type AgentResponse struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"display_name"`
	TrustScore   float64 `json:"trust_score"`
	CreatedAt    string  `json:"created_at"`
	LastActiveAt string  `json:"last_active_at,omitempty"`
}

func agentToResponse(a *domain.Agent) *AgentResponse {
	resp := &AgentResponse{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		TrustScore:  a.TrustScore,
		CreatedAt:   a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if !a.LastActiveAt.IsZero() {
		resp.LastActiveAt = a.LastActiveAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DisplayName == "" {
		api.Error(w, http.StatusBadRequest, "display_name is required")
		return
	}

	agent, err := h.svc.Create(r.Context(), req.DisplayName)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, agentToResponse(agent))
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	agent, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, agentToResponse(agent))
}

type AgentListResponse struct {
	Items []*AgentResponse `json:"items"`
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.svc.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*AgentResponse, len(agents))
	for i, a := range agents {
		responses[i] = agentToResponse(a)
	}

	api.Success(w, http.StatusOK, AgentListResponse{Items: responses})
}

type TrustRecomputeResponse struct {
	AgentID    string  `json:"agent_id"`
	TrustScore float64 `json:"trust_score"`
}

func (h *AgentHandler) RecomputeTrust(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	score, err := h.trust.UpdateAgentTrust(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, TrustRecomputeResponse{
		AgentID:    id,
		TrustScore: score,
	})
}
