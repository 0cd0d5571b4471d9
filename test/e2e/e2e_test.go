//go:build e2e

package e2e

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insightBody(claim string) map[string]interface{} {
	return map[string]interface{}{
		"claim":         claim,
		"reasoning":     "Observed repeatedly under production load",
		"applicability": "Applies to read-heavy storage workloads",
		"confidence":    0.8,
		"domain_tags":   []string{"storage", "performance"},
	}
}

// TestE2E_AgentLifecycle tests agent registration and listing
func TestE2E_AgentLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("register agent", func(t *testing.T) {
		resp, err := env.Post("/agents", map[string]string{"display_name": "planner"}, "")
		require.NoError(t, err)

		var agent struct {
			ID          string  `json:"id"`
			DisplayName string  `json:"display_name"`
			TrustScore  float64 `json:"trust_score"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &agent))
		assert.NotEmpty(t, agent.ID)
		assert.Equal(t, "planner", agent.DisplayName)
		assert.Equal(t, 0.5, agent.TrustScore)
	})

	t.Run("get and list agents", func(t *testing.T) {
		agentID := env.RegisterAgent("researcher")

		resp, err := env.Get("/agents/"+agentID, agentID)
		require.NoError(t, err)

		var agent struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &agent))
		assert.Equal(t, agentID, agent.ID)
		assert.Equal(t, "researcher", agent.DisplayName)

		listResp, err := env.Get("/agents", agentID)
		require.NoError(t, err)

		var list struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(listResp.Data, &list))
		assert.NotEmpty(t, list.Items)
	})

	t.Run("identity header required", func(t *testing.T) {
		_, err := env.Get("/agents", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

// TestE2E_InsightLifecycle tests insight CRUD and the duplicate guard
func TestE2E_InsightLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	author := env.RegisterAgent("author")
	other := env.RegisterAgent("other")

	t.Run("create and get insight", func(t *testing.T) {
		resp, err := env.Post("/insights", insightBody("Write batching halves p99 latency"), author)
		require.NoError(t, err)

		var insight struct {
			ID       string `json:"id"`
			AuthorID string `json:"author_id"`
			Claim    string `json:"claim"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &insight))
		assert.NotEmpty(t, insight.ID)
		assert.Equal(t, author, insight.AuthorID)

		getResp, err := env.Get("/insights/"+insight.ID, other)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(getResp.Data, &insight))
		assert.Equal(t, "Write batching halves p99 latency", insight.Claim)
	})

	t.Run("duplicate claim rejected with existing id", func(t *testing.T) {
		body := insightBody("Retry storms amplify partial outages")
		resp, err := env.Post("/insights", body, author)
		require.NoError(t, err)

		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &created))

		_, err = env.Post("/insights", body, other)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "409")
		assert.Contains(t, err.Error(), created.ID)
	})

	t.Run("only the author can update or delete", func(t *testing.T) {
		resp, err := env.Post("/insights", insightBody("Connection pools mask latency spikes"), author)
		require.NoError(t, err)

		var insight struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &insight))

		_, err = env.Put("/insights/"+insight.ID, map[string]interface{}{"confidence": 0.9}, other)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")

		updateResp, err := env.Put("/insights/"+insight.ID, map[string]interface{}{"confidence": 0.9}, author)
		require.NoError(t, err)

		var updated struct {
			Confidence float64 `json:"confidence"`
		}
		require.NoError(t, json.Unmarshal(updateResp.Data, &updated))
		assert.Equal(t, 0.9, updated.Confidence)

		_, err = env.Delete("/insights/"+insight.ID, other)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")

		_, err = env.Delete("/insights/"+insight.ID, author)
		require.NoError(t, err)

		_, err = env.Get("/insights/"+insight.ID, author)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}

// TestE2E_Validations tests validation recording and trust effects
func TestE2E_Validations(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	author := env.RegisterAgent("author")
	reviewer := env.RegisterAgent("reviewer")

	resp, err := env.Post("/insights", insightBody("Idempotency keys make retries safe"), author)
	require.NoError(t, err)

	var insight struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &insight))

	t.Run("self validation rejected", func(t *testing.T) {
		_, err := env.Post("/insights/"+insight.ID+"/validations",
			map[string]string{"signal": "confirmed"}, author)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")
	})

	t.Run("peer validation recorded and overwritten", func(t *testing.T) {
		_, err := env.Post("/insights/"+insight.ID+"/validations",
			map[string]string{"signal": "confirmed", "context": "reproduced in staging"}, reviewer)
		require.NoError(t, err)

		// Same reviewer changes their mind: one validation per agent per insight
		_, err = env.Post("/insights/"+insight.ID+"/validations",
			map[string]string{"signal": "refined", "context": "holds only for idempotent handlers"}, reviewer)
		require.NoError(t, err)

		listResp, err := env.Get("/insights/"+insight.ID+"/validations", author)
		require.NoError(t, err)

		var list struct {
			Items []struct {
				Signal string `json:"signal"`
			} `json:"items"`
			Summary struct {
				Confirmed int `json:"confirmed"`
				Refined   int `json:"refined"`
			} `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(listResp.Data, &list))
		require.Len(t, list.Items, 1)
		assert.Equal(t, "refined", list.Items[0].Signal)
		assert.Equal(t, 0, list.Summary.Confirmed)
		assert.Equal(t, 1, list.Summary.Refined)
	})

	t.Run("insight trust reflects validations", func(t *testing.T) {
		trustResp, err := env.Get("/insights/"+insight.ID+"/trust", reviewer)
		require.NoError(t, err)

		var trust struct {
			Score float64 `json:"score"`
			Base  float64 `json:"base"`
			Boost float64 `json:"boost"`
		}
		require.NoError(t, json.Unmarshal(trustResp.Data, &trust))
		// base = 0.5 (initial author trust) x 0.8 confidence, boost = +0.05 refined
		assert.InDelta(t, 0.4, trust.Base, 1e-9)
		assert.InDelta(t, 0.05, trust.Boost, 1e-9)
		assert.InDelta(t, 0.45, trust.Score, 1e-9)
	})

	t.Run("agent trust recompute", func(t *testing.T) {
		// A refined-only record is neutral; a confirmed one steps trust up
		resp, err := env.Post("/insights", insightBody("Backpressure beats unbounded queues"), author)
		require.NoError(t, err)

		var confirmed struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &confirmed))

		_, err = env.Post("/insights/"+confirmed.ID+"/validations",
			map[string]string{"signal": "confirmed"}, reviewer)
		require.NoError(t, err)

		recomputeResp, err := env.Post("/agents/"+author+"/trust/recompute", nil, reviewer)
		require.NoError(t, err)

		var recompute struct {
			AgentID    string  `json:"agent_id"`
			TrustScore float64 `json:"trust_score"`
		}
		require.NoError(t, json.Unmarshal(recomputeResp.Data, &recompute))
		assert.Equal(t, author, recompute.AgentID)
		// 0.5 + 0.02 for the confirmed insight, nothing for the refined one
		assert.InDelta(t, 0.52, recompute.TrustScore, 1e-9)
	})
}

// TestE2E_Search tests retrieval across modes
func TestE2E_Search(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	author := env.RegisterAgent("author")
	searcher := env.RegisterAgent("searcher")

	claims := []string{
		"Caching reduces database load significantly",
		"Sharding spreads database write pressure",
		"Compression trades CPU for network bandwidth",
	}
	for _, claim := range claims {
		_, err := env.Post("/insights", insightBody(claim), author)
		require.NoError(t, err)
	}

	t.Run("vector search returns ranked results", func(t *testing.T) {
		resp, err := env.Post("/search", map[string]interface{}{
			"question": "How can I reduce database load?",
			"mode":     "vector",
		}, searcher)
		require.NoError(t, err)

		var out struct {
			Results []struct {
				Relevance float64 `json:"relevance"`
			} `json:"results"`
			TotalMatches int    `json:"total_matches"`
			TrustLevel   string `json:"trust_level"`
			Notice       string `json:"notice"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &out))
		assert.NotEmpty(t, out.Results)
		assert.Positive(t, out.TotalMatches)
		assert.Equal(t, "unverified", out.TrustLevel)
		assert.NotEmpty(t, out.Notice)
		for i := 1; i < len(out.Results); i++ {
			assert.GreaterOrEqual(t, out.Results[i-1].Relevance, out.Results[i].Relevance)
		}
	})

	t.Run("lexical search matches keywords", func(t *testing.T) {
		resp, err := env.Post("/search", map[string]interface{}{
			"question": "database load",
			"mode":     "lexical",
		}, searcher)
		require.NoError(t, err)

		var out struct {
			Results []struct {
				Insight struct {
					Claim string `json:"claim"`
				} `json:"insight"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &out))
		require.NotEmpty(t, out.Results)
		for _, res := range out.Results {
			assert.True(t, strings.Contains(strings.ToLower(res.Insight.Claim), "database"),
				"claim %q should mention database", res.Insight.Claim)
		}
	})

	t.Run("hybrid search fuses both rankings", func(t *testing.T) {
		resp, err := env.Post("/search", map[string]interface{}{
			"question":    "database write pressure",
			"mode":        "hybrid",
			"max_results": 2,
		}, searcher)
		require.NoError(t, err)

		var out struct {
			Results []json.RawMessage `json:"results"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &out))
		assert.NotEmpty(t, out.Results)
		assert.LessOrEqual(t, len(out.Results), 2)
	})

	t.Run("expansion reports lenses", func(t *testing.T) {
		resp, err := env.Post("/search", map[string]interface{}{
			"question": "scaling databases",
			"mode":     "vector",
			"expand":   true,
		}, searcher)
		require.NoError(t, err)

		var out struct {
			Expansions struct {
				LensesUsed       []string `json:"lenses_used"`
				TotalBeforeDedup int      `json:"total_before_dedup"`
			} `json:"expansions"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &out))
		assert.Len(t, out.Expansions.LensesUsed, 4)
		assert.Positive(t, out.Expansions.TotalBeforeDedup)
	})

	t.Run("domain filter narrows results", func(t *testing.T) {
		_, err := env.Post("/insights", map[string]interface{}{
			"claim":         "Blue-green deploys cut rollback time",
			"reasoning":     "Traffic flips instantly between environments",
			"applicability": "Applies to stateless services",
			"confidence":    0.7,
			"domain_tags":   []string{"deployment"},
		}, author)
		require.NoError(t, err)

		resp, err := env.Post("/search", map[string]interface{}{
			"question":    "deployment strategies",
			"mode":        "vector",
			"domain_tags": []string{"deployment"},
		}, searcher)
		require.NoError(t, err)

		var out struct {
			Results []struct {
				Insight struct {
					DomainTags []string `json:"domain_tags"`
				} `json:"insight"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &out))
		require.NotEmpty(t, out.Results)
		for _, res := range out.Results {
			assert.Contains(t, res.Insight.DomainTags, "deployment")
		}
	})
}
