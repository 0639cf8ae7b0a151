package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bmcgrane302/properview/internal/config"
	"github.com/bmcgrane302/properview/internal/db"
	"github.com/bmcgrane302/properview/internal/models"
	"github.com/bmcgrane302/properview/internal/utils"
)

// IPropertyService defines the persistence operations on property records.
type IPropertyService interface {
	CreateProperty(ctx context.Context, input models.PropertyInput) (*models.Property, error)
	FindPropertyByID(ctx context.Context, id string) (*models.Property, error)
	ListProperties(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error)
	UpdateProperty(ctx context.Context, id string, updates map[string]interface{}) (*models.Property, error)
	DeleteProperty(ctx context.Context, id string) error
	AddImageToProperty(ctx context.Context, id primitive.ObjectID, imageKey string) error
}

// propertyService implements IPropertyService.
type propertyService struct {
	db  *mongo.Database
	cfg *config.Config
	now func() time.Time
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(db *mongo.Database, cfg *config.Config) IPropertyService {
	return &propertyService{db: db, cfg: cfg, now: storeNow}
}

// storeNow returns the current UTC time at the millisecond precision MongoDB keeps.
func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// CreateProperty validates and coerces the input, inserts it and returns the stored record.
func (s *propertyService) CreateProperty(ctx context.Context, input models.PropertyInput) (*models.Property, error) {
	property, err := buildProperty(input, s.cfg.DefaultAgentID, s.now())
	if err != nil {
		return nil, err
	}

	collection := s.db.Collection(db.PropertiesCollection)
	if _, err := collection.InsertOne(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to insert property for agent %s: %w", property.AgentID, err)
	}

	return s.findByObjectID(ctx, property.ID)
}

// FindPropertyByID returns the property with the given hex id regardless of status.
func (s *propertyService) FindPropertyByID(ctx context.Context, id string) (*models.Property, error) {
	objID, err := parsePropertyID(id)
	if err != nil {
		return nil, err
	}
	return s.findByObjectID(ctx, objID)
}

func (s *propertyService) findByObjectID(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	var property models.Property
	err := s.db.Collection(db.PropertiesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("property %s: %w", id.Hex(), ErrNotFound)
		}
		return nil, fmt.Errorf("error finding property by ID %s: %w", id.Hex(), err)
	}
	return &property, nil
}

// ListProperties returns the properties matching filter, newest first.
func (s *propertyService) ListProperties(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := s.db.Collection(db.PropertiesCollection).Find(ctx, buildListFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute property list query: %w", err)
	}
	defer cursor.Close(ctx)

	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, fmt.Errorf("failed to decode property list results: %w", err)
	}
	if properties == nil {
		properties = []models.Property{}
	}
	return properties, nil
}

// UpdateProperty applies a partial update and returns the updated record.
// `updates` is keyed by the JSON field names of models.Property.
func (s *propertyService) UpdateProperty(ctx context.Context, id string, updates map[string]interface{}) (*models.Property, error) {
	objID, err := parsePropertyID(id)
	if err != nil {
		return nil, err
	}

	set, err := buildPropertyUpdate(updates)
	if err != nil {
		return nil, err
	}
	set["updatedAt"] = s.now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Property
	err = s.db.Collection(db.PropertiesCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": set}, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("property %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update property %s: %w", id, err)
	}

	return &updated, nil
}

// DeleteProperty removes the property permanently. Inquiries that reference it are left in place.
func (s *propertyService) DeleteProperty(ctx context.Context, id string) error {
	objID, err := parsePropertyID(id)
	if err != nil {
		return err
	}

	result, err := s.db.Collection(db.PropertiesCollection).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete property %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("property %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddImageToProperty records a processed image key on the property.
func (s *propertyService) AddImageToProperty(ctx context.Context, id primitive.ObjectID, imageKey string) error {
	update := bson.M{
		"$addToSet": bson.M{"images": imageKey},
		"$set":      bson.M{"updatedAt": s.now()},
	}
	result, err := s.db.Collection(db.PropertiesCollection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to add image to property %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("property %s: %w", id.Hex(), ErrNotFound)
	}
	return nil
}

func parsePropertyID(id string) (primitive.ObjectID, error) {
	objID, err := utils.ParseObjectID(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("property id %q: %w", id, ErrInvalidID)
	}
	return objID, nil
}

// buildProperty turns a creation payload into a ready-to-insert record.
func buildProperty(input models.PropertyInput, defaultAgentID string, now time.Time) (*models.Property, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, newRequiredError("title")
	}
	if hasControlChars(title) {
		return nil, newInvalidFieldError("title", "must not contain control characters")
	}

	price, err := coerceCount("price", input.Price)
	if err != nil {
		return nil, err
	}
	bedrooms, err := coerceCount("bedrooms", input.Bedrooms)
	if err != nil {
		return nil, err
	}
	bathrooms, err := coerceCount("bathrooms", input.Bathrooms)
	if err != nil {
		return nil, err
	}

	status := models.PropertyStatusActive
	if s := strings.TrimSpace(input.Status); s != "" {
		status = models.PropertyStatus(s)
		if !status.Valid() {
			return nil, newInvalidFieldError("status", "must be one of active, pending, sold")
		}
	}

	agentID := strings.TrimSpace(input.AgentID)
	if agentID == "" {
		agentID = defaultAgentID
	}

	return &models.Property{
		Base:        models.NewBase(),
		Title:       title,
		Price:       price,
		Address:     input.Address,
		Bedrooms:    bedrooms,
		Bathrooms:   bathrooms,
		Description: input.Description,
		Status:      status,
		AgentID:     agentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// buildPropertyUpdate validates an update map and returns the $set document.
// Server-managed fields are dropped silently.
func buildPropertyUpdate(updates map[string]interface{}) (bson.M, error) {
	set := bson.M{}
	for key, value := range updates {
		switch key {
		case "title", "address", "description":
			str, ok := value.(string)
			if !ok {
				return nil, newInvalidFieldError(key, "must be a string")
			}
			if key == "title" {
				if strings.TrimSpace(str) == "" {
					return nil, newRequiredError("title")
				}
				if hasControlChars(str) {
					return nil, newInvalidFieldError("title", "must not contain control characters")
				}
			}
			set[key] = str
		case "price", "bedrooms", "bathrooms":
			n, err := coerceCount(key, value)
			if err != nil {
				return nil, err
			}
			set[key] = n
		case "status":
			str, _ := value.(string)
			status := models.PropertyStatus(strings.TrimSpace(str))
			if !status.Valid() {
				return nil, newInvalidFieldError("status", "must be one of active, pending, sold")
			}
			set[key] = status
		case "agentId":
			str, _ := value.(string)
			if strings.TrimSpace(str) == "" {
				return nil, newRequiredError("agentId")
			}
			set[key] = strings.TrimSpace(str)
		case "_id", "id", "createdAt", "updatedAt", "images":
			// server-managed
		default:
			return nil, newInvalidFieldError(key, "cannot be updated")
		}
	}
	return set, nil
}

// buildListFilter translates a PropertyFilter into a MongoDB query document.
func buildListFilter(filter models.PropertyFilter) bson.M {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.AgentID != nil {
		query["agentId"] = *filter.AgentID
	}

	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}

	if filter.Bedrooms != nil {
		query["bedrooms"] = *filter.Bedrooms
	}
	if filter.Address != nil {
		if addr := strings.TrimSpace(*filter.Address); addr != "" {
			query["address"] = primitive.Regex{Pattern: regexp.QuoteMeta(addr), Options: "i"}
		}
	}
	return query
}

// hasControlChars reports whether s contains a control character such as CR or LF.
func hasControlChars(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

func coerceCount(field string, v interface{}) (int, error) {
	n, err := utils.CoerceInt(v)
	if err != nil {
		if errors.Is(err, utils.ErrMissingValue) {
			return 0, newRequiredError(field)
		}
		return 0, newInvalidFieldError(field, "must be a number")
	}
	if n < 0 {
		return 0, newInvalidFieldError(field, "must not be negative")
	}
	return n, nil
}
