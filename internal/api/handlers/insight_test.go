package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/veridex-ai/veridex/internal/api"
	"github.com/veridex-ai/veridex/internal/api/middleware"
	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/veridex-ai/veridex/internal/service"
)

type MockInsightService struct {
	mock.Mock
}

func (m *MockInsightService) Create(ctx context.Context, input service.CreateInsightInput) (*domain.Insight, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Insight), args.Error(1)
}

func (m *MockInsightService) GetByID(ctx context.Context, id string) (*domain.Insight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Insight), args.Error(1)
}

func (m *MockInsightService) Update(ctx context.Context, input service.UpdateInsightInput) (*domain.Insight, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Insight), args.Error(1)
}

func (m *MockInsightService) Delete(ctx context.Context, insightID, agentID string) error {
	args := m.Called(ctx, insightID, agentID)
	return args.Error(0)
}

func (m *MockInsightService) List(ctx context.Context, input service.ListInsightsInput) (*service.InsightPageResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InsightPageResult), args.Error(1)
}

type MockInsightTrustService struct {
	mock.Mock
}

func (m *MockInsightTrustService) ComputeInsightTrust(ctx context.Context, insightID string) (*service.InsightTrust, error) {
	args := m.Called(ctx, insightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InsightTrust), args.Error(1)
}

func newTestInsight() *domain.Insight {
	now := time.Now().UTC()
	return &domain.Insight{
		ID:         "ins-123",
		AuthorID:   "agent-456",
		Claim:      "connection pooling cuts tail latency",
		Reasoning:  "dial overhead dominates short queries",
		Confidence: 0.8,
		DomainTags: []string{"database"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func requestWithAgentID(method, url string, body []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.AgentIDKey, "agent-456")
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestInsightHandler_Create_Success(t *testing.T) {
	mockSvc := new(MockInsightService)
	handler := NewInsightHandler(mockSvc, new(MockInsightTrustService))

	expected := newTestInsight()
	mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(input service.CreateInsightInput) bool {
		return input.AuthorID == "agent-456" && input.Claim == expected.Claim
	})).Return(expected, nil)

	body, _ := json.Marshal(CreateInsightRequest{
		Claim:      expected.Claim,
		Reasoning:  expected.Reasoning,
		Confidence: 0.8,
		DomainTags: []string{"database"},
	})
	req := requestWithAgentID(http.MethodPost, "/insights", body)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data InsightResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ins-123", resp.Data.ID)
	assert.Equal(t, "agent-456", resp.Data.AuthorID)
	mockSvc.AssertExpectations(t)
}

func TestInsightHandler_Create_NoAgent(t *testing.T) {
	handler := NewInsightHandler(new(MockInsightService), new(MockInsightTrustService))

	req := httptest.NewRequest(http.MethodPost, "/insights", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInsightHandler_Create_InvalidBody(t *testing.T) {
	handler := NewInsightHandler(new(MockInsightService), new(MockInsightTrustService))

	req := requestWithAgentID(http.MethodPost, "/insights", []byte(`{not json`))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsightHandler_Create_Duplicate(t *testing.T) {
	mockSvc := new(MockInsightService)
	handler := NewInsightHandler(mockSvc, new(MockInsightTrustService))

	mockSvc.On("Create", mock.Anything, mock.Anything).
		Return(nil, domain.NewDuplicateError("ins-existing", 0.97))

	body, _ := json.Marshal(CreateInsightRequest{Claim: "dup", Confidence: 0.8})
	req := requestWithAgentID(http.MethodPost, "/insights", body)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ins-existing", resp.ExistingID)
}

func TestInsightHandler_Get_Success(t *testing.T) {
	mockSvc := new(MockInsightService)
	handler := NewInsightHandler(mockSvc, new(MockInsightTrustService))

	mockSvc.On("GetByID", mock.Anything, "ins-123").Return(newTestInsight(), nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/insights/ins-123", nil), "id", "ins-123")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInsightHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockInsightService)
	handler := NewInsightHandler(mockSvc, new(MockInsightTrustService))

	mockSvc.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrInsightNotFound)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/insights/missing", nil), "id", "missing")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInsightHandler_Update_NotOwned(t *testing.T) {
	mockSvc := new(MockInsightService)
	handler := NewInsightHandler(mockSvc, new(MockInsightTrustService))

	mockSvc.On("Update", mock.Anything, mock.Anything).Return(nil, domain.ErrInsightNotOwned)

	body, _ := json.Marshal(UpdateInsightRequest{})
	req := withURLParam(requestWithAgentID(http.MethodPut, "/insights/ins-123", body), "id", "ins-123")
	w := httptest.NewRecorder()

	handler.Update(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInsightHandler_Delete_Success(t *testing.T) {
	mockSvc := new(MockInsightService)
	handler := NewInsightHandler(mockSvc, new(MockInsightTrustService))

	mockSvc.On("Delete", mock.Anything, "ins-123", "agent-456").Return(nil)

	req := withURLParam(requestWithAgentID(http.MethodDelete, "/insights/ins-123", nil), "id", "ins-123")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	mockSvc.AssertExpectations(t)
}

func TestInsightHandler_List_QueryParams(t *testing.T) {
	mockSvc := new(MockInsightService)
	handler := NewInsightHandler(mockSvc, new(MockInsightTrustService))

	mockSvc.On("List", mock.Anything, service.ListInsightsInput{
		AuthorID:  "agent-456",
		DomainTag: "database",
		Limit:     5,
	}).Return(&service.InsightPageResult{
		Items:      []*domain.Insight{newTestInsight()},
		NextCursor: "next",
		HasMore:    true,
	}, nil)

	req := requestWithAgentID(http.MethodGet, "/insights?author_id=agent-456&domain_tag=database&limit=5", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data InsightListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "next", resp.Data.Cursor)
	assert.True(t, resp.Data.HasMore)
}

func TestInsightHandler_Trust(t *testing.T) {
	mockTrust := new(MockInsightTrustService)
	handler := NewInsightHandler(new(MockInsightService), mockTrust)

	mockTrust.On("ComputeInsightTrust", mock.Anything, "ins-123").Return(&service.InsightTrust{
		Score: 0.45,
		Base:  0.40,
		Boost: 0.05,
		Validations: domain.ValidationSummary{
			Refined: 1,
		},
	}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/insights/ins-123/trust", nil), "id", "ins-123")
	w := httptest.NewRecorder()

	handler.Trust(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data InsightTrustResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ins-123", resp.Data.InsightID)
	assert.Equal(t, 0.45, resp.Data.Score)
	assert.Equal(t, 1, resp.Data.Validations.Refined)
}
