package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bmcgrane302/properview/internal/config"
	"github.com/bmcgrane302/properview/internal/db"
	"github.com/bmcgrane302/properview/internal/models"
	"github.com/bmcgrane302/properview/internal/utils"
)

// InquiryNotifier is told about every stored inquiry so the owning agent can be alerted.
type InquiryNotifier interface {
	NotifyNewInquiry(ctx context.Context, inquiry *models.Inquiry, property *models.Property) error
}

// IInquiryService defines the interface for inquiry operations.
type IInquiryService interface {
	CreateInquiry(ctx context.Context, input models.InquiryInput) (*models.Inquiry, error)
	ListInquiriesForAgent(ctx context.Context, agentID string) ([]models.InquiryView, error)
}

// inquiryService implements IInquiryService.
type inquiryService struct {
	db         *mongo.Database
	cfg        *config.Config
	properties IPropertyService
	notifier   InquiryNotifier
	now        func() time.Time
}

// NewInquiryService creates a new InquiryService. notifier may be nil.
func NewInquiryService(db *mongo.Database, cfg *config.Config, properties IPropertyService, notifier InquiryNotifier) IInquiryService {
	return &inquiryService{
		db:         db,
		cfg:        cfg,
		properties: properties,
		notifier:   notifier,
		now:        storeNow,
	}
}

// CreateInquiry validates the submission, checks the property exists and stores the inquiry.
func (s *inquiryService) CreateInquiry(ctx context.Context, input models.InquiryInput) (*models.Inquiry, error) {
	input, err := normalizeInquiryInput(input)
	if err != nil {
		return nil, err
	}

	property, err := s.properties.FindPropertyByID(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}

	inquiry := &models.Inquiry{
		Base:       models.NewBase(),
		PropertyID: property.ID,
		Name:       input.Name,
		Email:      input.Email,
		Message:    input.Message,
		CreatedAt:  s.now(),
	}
	if input.Phone != "" {
		phone := input.Phone
		inquiry.Phone = &phone
	}

	collection := s.db.Collection(db.InquiriesCollection)
	if _, err := collection.InsertOne(ctx, inquiry); err != nil {
		return nil, fmt.Errorf("failed to insert inquiry for property %s: %w", property.ID.Hex(), err)
	}

	var stored models.Inquiry
	if err := collection.FindOne(ctx, bson.M{"_id": inquiry.ID}).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to read back inquiry %s: %w", inquiry.ID.Hex(), err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyNewInquiry(ctx, &stored, property); err != nil {
			log.Printf("Failed to queue notification for inquiry %s: %v", stored.ID.Hex(), err)
		}
	}

	return &stored, nil
}

// ListInquiriesForAgent returns inquiries on properties currently owned by agentID, newest first.
// Inquiries whose property no longer exists are omitted.
func (s *inquiryService) ListInquiriesForAgent(ctx context.Context, agentID string) ([]models.InquiryView, error) {
	cursor, err := s.db.Collection(db.InquiriesCollection).Aggregate(ctx, agentInquiriesPipeline(agentID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate inquiries for agent %s: %w", agentID, err)
	}
	defer cursor.Close(ctx)

	views := []models.InquiryView{}
	if err := cursor.All(ctx, &views); err != nil {
		return nil, fmt.Errorf("failed to decode inquiries for agent %s: %w", agentID, err)
	}
	if views == nil {
		views = []models.InquiryView{}
	}
	return views, nil
}

func agentInquiriesPipeline(agentID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: db.PropertiesCollection},
			{Key: "localField", Value: "propertyId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "property"},
		}}},
		{{Key: "$unwind", Value: "$property"}},
		{{Key: "$match", Value: bson.D{{Key: "property.agentId", Value: agentID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
	}
}

// normalizeInquiryInput trims every field, lower-cases the email and checks required fields
// in a fixed order so the first missing one is reported.
func normalizeInquiryInput(input models.InquiryInput) (models.InquiryInput, error) {
	out := models.InquiryInput{
		PropertyID: strings.TrimSpace(input.PropertyID),
		Name:       strings.TrimSpace(input.Name),
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:      strings.TrimSpace(input.Phone),
		Message:    strings.TrimSpace(input.Message),
	}

	required := []struct {
		field string
		value string
	}{
		{"propertyId", out.PropertyID},
		{"name", out.Name},
		{"email", out.Email},
		{"message", out.Message},
	}
	for _, r := range required {
		if r.value == "" {
			return models.InquiryInput{}, newRequiredError(r.field)
		}
	}

	if !utils.IsValidObjectID(out.PropertyID) {
		return models.InquiryInput{}, fmt.Errorf("property id %q: %w", out.PropertyID, ErrInvalidID)
	}
	return out, nil
}

