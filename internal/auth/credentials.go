package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bmcgrane302/properview/internal/models"
)

var (
	// ErrInvalidCredentials is returned when no agent matches the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAgentNotFound is returned by FindAgentByID for unknown ids.
	ErrAgentNotFound = errors.New("agent not found")
)

// ICredentialStore resolves agent identities. Swap the demo store for a real
// identity provider without touching the services that consume it.
type ICredentialStore interface {
	Authenticate(ctx context.Context, email, password string) (*models.Agent, error)
	FindAgentByID(ctx context.Context, agentID string) (*models.Agent, error)
}

// DemoAccount is one fixed login.
type DemoAccount struct {
	Agent    models.Agent
	Password string
}

// DefaultDemoPassword is shared by the built-in demo accounts.
const DefaultDemoPassword = "demo123"

// DefaultDemoAccounts are the three seeded agents.
func DefaultDemoAccounts() []DemoAccount {
	return []DemoAccount{
		{Agent: models.Agent{ID: "agent1", Email: "agent@properview.com", Name: "John Smith", Role: "Senior Agent"}, Password: DefaultDemoPassword},
		{Agent: models.Agent{ID: "agent2", Email: "agent2@properview.com", Name: "Sarah Johnson", Role: "Real Estate Agent"}, Password: DefaultDemoPassword},
		{Agent: models.Agent{ID: "agent3", Email: "agent3@properview.com", Name: "Mike Wilson", Role: "Property Specialist"}, Password: DefaultDemoPassword},
	}
}

type demoEntry struct {
	agent        models.Agent
	passwordHash string
}

// DemoCredentialStore is an in-memory ICredentialStore over a fixed account table.
type DemoCredentialStore struct {
	byEmail map[string]demoEntry
	byID    map[string]models.Agent
}

// NewDemoCredentialStore hashes the account passwords once at construction.
func NewDemoCredentialStore(accounts []DemoAccount) (*DemoCredentialStore, error) {
	s := &DemoCredentialStore{
		byEmail: make(map[string]demoEntry, len(accounts)),
		byID:    make(map[string]models.Agent, len(accounts)),
	}
	for _, acc := range accounts {
		hash, err := HashPassword(acc.Password)
		if err != nil {
			return nil, fmt.Errorf("demo account %s: %w", acc.Agent.ID, err)
		}
		s.byEmail[normalizeEmail(acc.Agent.Email)] = demoEntry{agent: acc.Agent, passwordHash: hash}
		s.byID[acc.Agent.ID] = acc.Agent
	}
	return s, nil
}

// Authenticate returns the agent for a matching email/password pair.
func (s *DemoCredentialStore) Authenticate(ctx context.Context, email, password string) (*models.Agent, error) {
	entry, ok := s.byEmail[normalizeEmail(email)]
	if !ok || !CheckPasswordHash(password, entry.passwordHash) {
		return nil, ErrInvalidCredentials
	}
	agent := entry.agent
	return &agent, nil
}

// FindAgentByID looks up an agent by id.
func (s *DemoCredentialStore) FindAgentByID(ctx context.Context, agentID string) (*models.Agent, error) {
	agent, ok := s.byID[agentID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", agentID, ErrAgentNotFound)
	}
	return &agent, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
