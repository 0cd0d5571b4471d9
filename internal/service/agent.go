package service

import (
	"context"
	"sync"
	"time"

	"github.com/veridex-ai/veridex/internal/domain"
)

// lastActiveWriteInterval throttles last-active writes per agent
const lastActiveWriteInterval = 5 * time.Minute

// AgentRepositoryInterface defines the repository interface for agent persistence
type AgentRepositoryInterface interface {
	Create(ctx context.Context, a *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Agent, error)
	List(ctx context.Context) ([]*domain.Agent, error)
	UpdateLastActive(ctx context.Context, id string, at time.Time) error
}

// AgentService handles agent records. It owns an instance-scoped throttle
// map for last-active writes rather than a process-global one.
type AgentService struct {
	repo    AgentRepositoryInterface
	uuidGen UUIDGenerator

	mu            sync.Mutex
	lastActiveSet map[string]time.Time
}

// NewAgentService creates a new AgentService instance
func NewAgentService(repo AgentRepositoryInterface) *AgentService {
	return NewAgentServiceWithUUIDGen(repo, &DefaultUUIDGenerator{})
}

// NewAgentServiceWithUUIDGen creates a new AgentService with a custom UUID
// generator (for testing)
func NewAgentServiceWithUUIDGen(repo AgentRepositoryInterface, uuidGen UUIDGenerator) *AgentService {
	return &AgentService{
		repo:          repo,
		uuidGen:       uuidGen,
		lastActiveSet: make(map[string]time.Time),
	}
}

// Create creates a new agent with the initial trust score
func (s *AgentService) Create(ctx context.Context, displayName string) (*domain.Agent, error) {
	agent := domain.NewAgent(s.uuidGen.NewString(), displayName, time.Now().UTC())

	if err := domain.ValidateAgent(agent); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, agent); err != nil {
		return nil, err
	}

	return agent, nil
}

// GetByID retrieves an agent by ID
func (s *AgentService) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all agents
func (s *AgentService) List(ctx context.Context) ([]*domain.Agent, error) {
	return s.repo.List(ctx)
}

// TouchLastActive records agent activity, writing through at most once per
// interval per agent. Best effort: write failures are returned but leave
// the throttle entry unset so the next touch retries.
func (s *AgentService) TouchLastActive(ctx context.Context, id string) error {
	now := time.Now().UTC()

	s.mu.Lock()
	last, ok := s.lastActiveSet[id]
	if ok && now.Sub(last) < lastActiveWriteInterval {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.repo.UpdateLastActive(ctx, id, now); err != nil {
		return err
	}

	s.mu.Lock()
	s.lastActiveSet[id] = now
	s.mu.Unlock()
	return nil
}
