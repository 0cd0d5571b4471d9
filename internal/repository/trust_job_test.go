//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/veridex-ai/veridex/internal/testutil"
)

func TestTrustJobRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	agentRepo := NewAgentRepository(pool)
	jobRepo := NewTrustJobRepository(pool)

	agent := createTestAgent(ctx, t, agentRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	older := domain.NewTrustJob(uuid.NewString(), agent.ID, now.Add(-time.Minute))
	newer := domain.NewTrustJob(uuid.NewString(), agent.ID, now)
	require.NoError(t, jobRepo.Create(ctx, older))
	require.NoError(t, jobRepo.Create(ctx, newer))

	pending, err := jobRepo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older.ID, pending[0].ID, "oldest pending job first")

	require.NoError(t, jobRepo.UpdateStatus(ctx, older.ID, domain.TrustJobStatusCompleted, ""))

	pending, err = jobRepo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, newer.ID, pending[0].ID)
}

func TestTrustJobRepository_GetPending_Limit(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	agentRepo := NewAgentRepository(pool)
	jobRepo := NewTrustJobRepository(pool)
	agent := createTestAgent(ctx, t, agentRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		job := domain.NewTrustJob(uuid.NewString(), agent.ID, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, jobRepo.Create(ctx, job))
	}

	pending, err := jobRepo.GetPending(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestTrustJobRepository_FailureTracking(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	agentRepo := NewAgentRepository(pool)
	jobRepo := NewTrustJobRepository(pool)
	agent := createTestAgent(ctx, t, agentRepo)

	job := domain.NewTrustJob(uuid.NewString(), agent.ID, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, jobRepo.Create(ctx, job))

	require.NoError(t, jobRepo.IncrementRetries(ctx, job.ID))
	require.NoError(t, jobRepo.UpdateStatus(ctx, job.ID, domain.TrustJobStatusFailed, "agent lookup failed"))

	pending, err := jobRepo.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed jobs are not re-dispatched")

	assert.ErrorIs(t, jobRepo.UpdateStatus(ctx, uuid.NewString(), domain.TrustJobStatusCompleted, ""), ErrTrustJobNotFound)
	assert.ErrorIs(t, jobRepo.IncrementRetries(ctx, uuid.NewString()), ErrTrustJobNotFound)
}
