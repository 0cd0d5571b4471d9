package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/veridex-ai/veridex/internal/api"
	"github.com/veridex-ai/veridex/internal/api/middleware"
	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/veridex-ai/veridex/internal/service"
)

type ValidationService interface {
	Validate(ctx context.Context, input service.ValidateInput) (*domain.Validation, error)
	Summary(ctx context.Context, insightID string) (domain.ValidationSummary, error)
	ListByInsight(ctx context.Context, insightID string) ([]*domain.Validation, error)
}

type ValidationHandler struct {
	svc ValidationService
}

func NewValidationHandler(svc ValidationService) *ValidationHandler {
	return &ValidationHandler{svc: svc}
}

type ValidateRequest struct {
	Signal  string `json:"signal"`
	Context string `json:"context"`
}

type ValidationResponse struct {
	ID        string `json:"id"`
	InsightID string `json:"insight_id"`
	AgentID   string `json:"agent_id"`
	Signal    string `json:"signal"`
	Context   string `json:"context,omitempty"`
	CreatedAt string `json:"created_at"`
}

func validationToResponse(v *domain.Validation) *ValidationResponse {
	return &ValidationResponse{
		ID:        v.ID,
		InsightID: v.InsightID,
		AgentID:   v.AgentID,
		Signal:    string(v.Signal),
		Context:   v.Context,
		CreatedAt: v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *ValidationHandler) Create(w http.ResponseWriter, r *http.Request) {
	agentID := middleware.GetAgentID(r.Context())
	if agentID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	insightID := chi.URLParam(r, "id")
	if insightID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.ValidateInput{
		InsightID: insightID,
		AgentID:   agentID,
		Signal:    domain.ValidationSignal(req.Signal),
		Context:   req.Context,
	}

	validation, err := h.svc.Validate(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, validationToResponse(validation))
}

type ValidationListResponse struct {
	Items   []*ValidationResponse    `json:"items"`
	Summary domain.ValidationSummary `json:"summary"`
}

func (h *ValidationHandler) ListByInsight(w http.ResponseWriter, r *http.Request) {
	insightID := chi.URLParam(r, "id")
	if insightID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	validations, err := h.svc.ListByInsight(r.Context(), insightID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	summary, err := h.svc.Summary(r.Context(), insightID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ValidationResponse, len(validations))
	for i, v := range validations {
		responses[i] = validationToResponse(v)
	}

	api.Success(w, http.StatusOK, ValidationListResponse{
		Items:   responses,
		Summary: summary,
	})
}
