package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PropertyStatus is the lifecycle stage of a listing.
type PropertyStatus string

const (
	PropertyStatusActive  PropertyStatus = "active"
	PropertyStatusPending PropertyStatus = "pending"
	PropertyStatusSold    PropertyStatus = "sold"
)

// Valid reports whether s is one of the known statuses.
func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusActive, PropertyStatusPending, PropertyStatusSold:
		return true
	}
	return false
}

// Property represents a real-estate listing.
type Property struct {
	Base        `bson:",inline"`
	Title       string         `bson:"title" json:"title"`
	Price       int            `bson:"price" json:"price"` // whole currency units
	Address     string         `bson:"address" json:"address"`
	Bedrooms    int            `bson:"bedrooms" json:"bedrooms"`
	Bathrooms   int            `bson:"bathrooms" json:"bathrooms"`
	Description string         `bson:"description" json:"description"`
	Status      PropertyStatus `bson:"status" json:"status"`
	AgentID     string         `bson:"agentId" json:"agentId"`
	Images      []string       `bson:"images,omitempty" json:"images,omitempty"` // S3 keys
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// PropertyInput is the loosely typed creation payload. Numeric fields accept
// JSON numbers or numeric strings and are coerced by the property service.
type PropertyInput struct {
	Title       string      `json:"title"`
	Price       interface{} `json:"price"`
	Address     string      `json:"address"`
	Bedrooms    interface{} `json:"bedrooms"`
	Bathrooms   interface{} `json:"bathrooms"`
	Description string      `json:"description"`
	Status      string      `json:"status,omitempty"`
	AgentID     string      `json:"agentId,omitempty"`
}

// PropertyFilter narrows a property listing. A nil field places no constraint.
type PropertyFilter struct {
	Status   *PropertyStatus
	MinPrice *int
	MaxPrice *int
	Bedrooms *int
	Address  *string // case-insensitive substring
	AgentID  *string // authenticated agent path only
}

// PropertySummary is the slice of a property shown alongside an inquiry.
type PropertySummary struct {
	ID      primitive.ObjectID `bson:"_id" json:"_id"`
	Title   string             `bson:"title" json:"title"`
	Address string             `bson:"address" json:"address"`
	Status  PropertyStatus     `bson:"status" json:"status"`
	AgentID string             `bson:"agentId" json:"agentId"`
	Price   int                `bson:"price" json:"price"`
}
