package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bmcgrane302/properview/internal/models"
)

// --- Mock PropertyService ---
type mockPropertyService struct {
	mock.Mock
}

func (m *mockPropertyService) CreateProperty(ctx context.Context, input models.PropertyInput) (*models.Property, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *mockPropertyService) FindPropertyByID(ctx context.Context, id string) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *mockPropertyService) ListProperties(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *mockPropertyService) UpdateProperty(ctx context.Context, id string, updates map[string]interface{}) (*models.Property, error) {
	args := m.Called(ctx, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *mockPropertyService) DeleteProperty(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockPropertyService) AddImageToProperty(ctx context.Context, id primitive.ObjectID, imageKey string) error {
	args := m.Called(ctx, id, imageKey)
	return args.Error(0)
}

// --- Mock InquiryService ---
type mockInquiryService struct {
	mock.Mock
}

func (m *mockInquiryService) CreateInquiry(ctx context.Context, input models.InquiryInput) (*models.Inquiry, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}

func (m *mockInquiryService) ListInquiriesForAgent(ctx context.Context, agentID string) ([]models.InquiryView, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InquiryView), args.Error(1)
}

// --- Mock CredentialStore ---
type mockCredentialStore struct {
	mock.Mock
}

func (m *mockCredentialStore) Authenticate(ctx context.Context, email, password string) (*models.Agent, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *mockCredentialStore) FindAgentByID(ctx context.Context, agentID string) (*models.Agent, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

// --- Mock InquiryNotifier ---
type mockInquiryNotifier struct {
	mock.Mock
}

func (m *mockInquiryNotifier) NotifyNewInquiry(ctx context.Context, inquiry *models.Inquiry, property *models.Property) error {
	args := m.Called(ctx, inquiry, property)
	return args.Error(0)
}
