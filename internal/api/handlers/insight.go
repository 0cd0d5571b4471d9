package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/veridex-ai/veridex/internal/api"
	"github.com/veridex-ai/veridex/internal/api/middleware"
	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/veridex-ai/veridex/internal/service"
)

type InsightService interface {
	Create(ctx context.Context, input service.CreateInsightInput) (*domain.Insight, error)
	GetByID(ctx context.Context, id string) (*domain.Insight, error)
	Update(ctx context.Context, input service.UpdateInsightInput) (*domain.Insight, error)
	Delete(ctx context.Context, insightID, agentID string) error
	List(ctx context.Context, input service.ListInsightsInput) (*service.InsightPageResult, error)
}

type InsightTrustService interface {
	ComputeInsightTrust(ctx context.Context, insightID string) (*service.InsightTrust, error)
}

type InsightHandler struct {
	svc   InsightService
	trust InsightTrustService
}

func NewInsightHandler(svc InsightService, trust InsightTrustService) *InsightHandler {
	return &InsightHandler{svc: svc, trust: trust}
}

type CreateInsightRequest struct {
	Claim         string   `json:"claim"`
	Reasoning     string   `json:"reasoning"`
	Applicability string   `json:"applicability"`
	Limitations   string   `json:"limitations"`
	Confidence    float64  `json:"confidence"`
	DomainTags    []string `json:"domain_tags"`
}

type UpdateInsightRequest struct {
	Claim         *string  `json:"claim"`
	Reasoning     *string  `json:"reasoning"`
	Applicability *string  `json:"applicability"`
	Limitations   *string  `json:"limitations"`
	Confidence    *float64 `json:"confidence"`
	DomainTags    []string `json:"domain_tags"`
}

type InsightResponse struct {
	ID            string   `json:"id"`
	AuthorID      string   `json:"author_id"`
	Claim         string   `json:"claim"`
	Reasoning     string   `json:"reasoning"`
	Applicability string   `json:"applicability"`
	Limitations   string   `json:"limitations,omitempty"`
	Confidence    float64  `json:"confidence"`
	DomainTags    []string `json:"domain_tags"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func insightToResponse(in *domain.Insight) *InsightResponse {
	return &InsightResponse{
		ID:            in.ID,
		AuthorID:      in.AuthorID,
		Claim:         in.Claim,
		Reasoning:     in.Reasoning,
		Applicability: in.Applicability,
		Limitations:   in.Limitations,
		Confidence:    in.Confidence,
		DomainTags:    in.DomainTags,
		CreatedAt:     in.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     in.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *InsightHandler) Create(w http.ResponseWriter, r *http.Request) {
	agentID := middleware.GetAgentID(r.Context())
	if agentID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateInsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.CreateInsightInput{
		AuthorID:      agentID,
		Claim:         req.Claim,
		Reasoning:     req.Reasoning,
		Applicability: req.Applicability,
		Limitations:   req.Limitations,
		Confidence:    req.Confidence,
		DomainTags:    req.DomainTags,
	}

	insight, err := h.svc.Create(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, insightToResponse(insight))
}

func (h *InsightHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	insight, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, insightToResponse(insight))
}

func (h *InsightHandler) Update(w http.ResponseWriter, r *http.Request) {
	agentID := middleware.GetAgentID(r.Context())
	if agentID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpdateInsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.UpdateInsightInput{
		InsightID:     id,
		AgentID:       agentID,
		Claim:         req.Claim,
		Reasoning:     req.Reasoning,
		Applicability: req.Applicability,
		Limitations:   req.Limitations,
		Confidence:    req.Confidence,
		DomainTags:    req.DomainTags,
	}

	insight, err := h.svc.Update(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, insightToResponse(insight))
}

func (h *InsightHandler) Delete(w http.ResponseWriter, r *http.Request) {
	agentID := middleware.GetAgentID(r.Context())
	if agentID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id, agentID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

type InsightListResponse struct {
	Items   []*InsightResponse `json:"items"`
	Cursor  string             `json:"cursor,omitempty"`
	HasMore bool               `json:"has_more"`
}

func (h *InsightHandler) List(w http.ResponseWriter, r *http.Request) {
	authorID := r.URL.Query().Get("author_id")
	domainTag := r.URL.Query().Get("domain_tag")
	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	input := service.ListInsightsInput{
		AuthorID:  authorID,
		DomainTag: domainTag,
		Cursor:    cursor,
		Limit:     limit,
	}

	output, err := h.svc.List(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*InsightResponse, len(output.Items))
	for i, in := range output.Items {
		responses[i] = insightToResponse(in)
	}

	api.Success(w, http.StatusOK, InsightListResponse{
		Items:   responses,
		Cursor:  output.NextCursor,
		HasMore: output.HasMore,
	})
}

type InsightTrustResponse struct {
	InsightID   string                   `json:"insight_id"`
	Score       float64                  `json:"score"`
	Base        float64                  `json:"base"`
	Boost       float64                  `json:"boost"`
	Validations domain.ValidationSummary `json:"validations"`
}

func (h *InsightHandler) Trust(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	trust, err := h.trust.ComputeInsightTrust(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, InsightTrustResponse{
		InsightID:   id,
		Score:       trust.Score,
		Base:        trust.Base,
		Boost:       trust.Boost,
		Validations: trust.Validations,
	})
}
