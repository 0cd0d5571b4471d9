package middleware

import (
	"context"
	"net/http"

	"github.com/veridex-ai/veridex/internal/api"
)

type contextKey string

const AgentIDKey contextKey = "agent_id"

type AgentResolver interface {
	TouchLastActive(ctx context.Context, agentID string) error
}

// AgentIdentity extracts the calling agent from the X-Agent-ID header and
// stores it in the request context. The resolver records agent activity;
// a resolver failure rejects the request.
func AgentIdentity(resolver AgentResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agentID := r.Header.Get("X-Agent-ID")
			if agentID == "" {
				api.Error(w, http.StatusUnauthorized, "missing X-Agent-ID header")
				return
			}

			if resolver != nil {
				if err := resolver.TouchLastActive(r.Context(), agentID); err != nil {
					api.HandleError(w, err)
					return
				}
			}

			ctx := context.WithValue(r.Context(), AgentIDKey, agentID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAgentID returns the calling agent ID from context.
func GetAgentID(ctx context.Context) string {
	agentID, _ := ctx.Value(AgentIDKey).(string)
	return agentID
}
