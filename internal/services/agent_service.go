package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bmcgrane302/properview/internal/auth"
	"github.com/bmcgrane302/properview/internal/config"
	"github.com/bmcgrane302/properview/internal/models"
)

// AgentSession is returned by a successful login.
type AgentSession struct {
	Agent     models.Agent `json:"agent"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// IAgentService is the agent-facing surface: managing the agent's own listings and
// reading the inquiries they received.
type IAgentService interface {
	Authenticate(ctx context.Context, email, password string) (*AgentSession, error)
	ListOwnedProperties(ctx context.Context, agentID string) ([]models.Property, error)
	ListInquiries(ctx context.Context, agentID string) ([]models.InquiryView, error)
	CreateOwned(ctx context.Context, agentID string, input models.PropertyInput) (*models.Property, error)
	UpdateOwned(ctx context.Context, agentID, id string, updates map[string]interface{}) (*models.Property, error)
	DeleteOwned(ctx context.Context, agentID, id string) error
}

// agentService implements IAgentService.
type agentService struct {
	cfg         *config.Config
	properties  IPropertyService
	inquiries   IInquiryService
	credentials auth.ICredentialStore
}

// NewAgentService creates a new AgentService.
func NewAgentService(cfg *config.Config, properties IPropertyService, inquiries IInquiryService, credentials auth.ICredentialStore) IAgentService {
	return &agentService{
		cfg:         cfg,
		properties:  properties,
		inquiries:   inquiries,
		credentials: credentials,
	}
}

// Authenticate checks the credentials and issues a session token.
func (s *agentService) Authenticate(ctx context.Context, email, password string) (*AgentSession, error) {
	if strings.TrimSpace(email) == "" {
		return nil, newRequiredError("email")
	}
	if password == "" {
		return nil, newRequiredError("password")
	}

	agent, err := s.credentials.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	ttl := s.cfg.JwtTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	token, err := auth.GenerateJWT(agent.ID, agent.Email, s.cfg.JwtSecret, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token for agent %s: %w", agent.ID, err)
	}

	return &AgentSession{
		Agent:     *agent,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

// ListOwnedProperties returns every property owned by agentID, in any status.
func (s *agentService) ListOwnedProperties(ctx context.Context, agentID string) ([]models.Property, error) {
	return s.properties.ListProperties(ctx, models.PropertyFilter{AgentID: &agentID})
}

// ListInquiries returns the inquiries received on agentID's properties.
func (s *agentService) ListInquiries(ctx context.Context, agentID string) ([]models.InquiryView, error) {
	return s.inquiries.ListInquiriesForAgent(ctx, agentID)
}

// CreateOwned creates a property assigned to agentID.
func (s *agentService) CreateOwned(ctx context.Context, agentID string, input models.PropertyInput) (*models.Property, error) {
	input.AgentID = agentID
	return s.properties.CreateProperty(ctx, input)
}

// UpdateOwned updates a property. Under enforced ownership the property must belong to
// agentID and cannot be handed to another agent.
func (s *agentService) UpdateOwned(ctx context.Context, agentID, id string, updates map[string]interface{}) (*models.Property, error) {
	if s.cfg.EnforceOwnership() {
		if err := s.checkOwnership(ctx, agentID, id); err != nil {
			return nil, err
		}
		if v, ok := updates["agentId"]; ok {
			if str, _ := v.(string); strings.TrimSpace(str) != agentID {
				return nil, newInvalidFieldError("agentId", "cannot be reassigned")
			}
		}
	}
	return s.properties.UpdateProperty(ctx, id, updates)
}

// DeleteOwned deletes a property, subject to the same ownership rule as UpdateOwned.
func (s *agentService) DeleteOwned(ctx context.Context, agentID, id string) error {
	if s.cfg.EnforceOwnership() {
		if err := s.checkOwnership(ctx, agentID, id); err != nil {
			return err
		}
	}
	return s.properties.DeleteProperty(ctx, id)
}

func (s *agentService) checkOwnership(ctx context.Context, agentID, id string) error {
	property, err := s.properties.FindPropertyByID(ctx, id)
	if err != nil {
		return err
	}
	if property.AgentID != agentID {
		return fmt.Errorf("property %s owned by %s, requested by %s: %w", id, property.AgentID, agentID, ErrNotOwner)
	}
	return nil
}
