//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veridex-ai/veridex/internal/api/handlers"
	"github.com/veridex-ai/veridex/internal/repository"
	"github.com/veridex-ai/veridex/internal/server"
	"github.com/veridex-ai/veridex/internal/service"
	"github.com/veridex-ai/veridex/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with a database container
// and a running server wired to a deterministic embedding client.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// RegisterAgent creates an agent and returns its ID
func (e *E2ETestEnv) RegisterAgent(displayName string) string {
	resp, err := e.Post("/agents", map[string]string{"display_name": displayName}, "")
	if err != nil {
		e.T.Fatalf("failed to register agent %q: %v", displayName, err)
	}

	var agent struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &agent); err != nil {
		e.T.Fatalf("failed to parse agent response: %v", err)
	}
	return agent.ID
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request as the given agent
func (e *E2ETestEnv) Get(path, agentID string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil, agentID)
}

// Post performs a POST request as the given agent
func (e *E2ETestEnv) Post(path string, body interface{}, agentID string) (*APIResponse, error) {
	return e.doRequest("POST", path, body, agentID)
}

// Put performs a PUT request as the given agent
func (e *E2ETestEnv) Put(path string, body interface{}, agentID string) (*APIResponse, error) {
	return e.doRequest("PUT", path, body, agentID)
}

// Delete performs a DELETE request as the given agent
func (e *E2ETestEnv) Delete(path, agentID string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil, agentID)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, agentID string) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if agentID != "" {
		req.Header.Set("X-Agent-ID", agentID)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return &APIResponse{}, nil
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// startServer starts the HTTP server with all handlers
func startServer(t *testing.T, pool *pgxpool.Pool, port int) (string, func()) {
	insightRepo := repository.NewInsightRepository(pool)
	validationRepo := repository.NewValidationRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	trustJobRepo := repository.NewTrustJobRepository(pool)

	embedding := &hashEmbeddingClient{}

	insightSvc := service.NewInsightService(insightRepo, agentRepo, embedding)
	searchSvc := service.NewSearchService(insightRepo, validationRepo, agentRepo, embedding)
	validationSvc := service.NewValidationService(insightRepo, validationRepo, trustJobRepo)
	agentSvc := service.NewAgentService(agentRepo)
	trustSvc := service.NewTrustService(insightRepo, validationRepo, agentRepo)

	cfg := server.RouterConfig{
		AgentResolver:     agentSvc,
		InsightHandler:    handlers.NewInsightHandler(insightSvc, trustSvc),
		SearchHandler:     handlers.NewSearchHandler(searchSvc),
		ValidationHandler: handlers.NewValidationHandler(validationSvc),
		AgentHandler:      handlers.NewAgentHandler(agentSvc, trustSvc),
	}

	router := server.NewRouter(cfg)
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// hashEmbeddingClient produces deterministic unit vectors from text content.
// Identical texts map to identical vectors, so duplicate detection and
// vector ranking behave predictably without a live embedding provider.
type hashEmbeddingClient struct{}

func (c *hashEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return hashVector(text), nil
}

func (c *hashEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = hashVector(text)
	}
	return vectors, nil
}

func hashVector(text string) []float32 {
	vec := make([]float32, 1536)
	seed := sha256.Sum256([]byte(text))

	var norm float64
	for i := range vec {
		h := sha256.Sum256(append(seed[:], byte(i), byte(i>>8)))
		v := float64(int32(binary.LittleEndian.Uint32(h[:4]))) / float64(math.MaxInt32)
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
