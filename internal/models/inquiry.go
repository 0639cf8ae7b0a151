package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Inquiry is a buyer's message about a single property.
type Inquiry struct {
	Base       `bson:",inline"`
	PropertyID primitive.ObjectID `bson:"propertyId" json:"propertyId"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Phone      *string            `bson:"phone" json:"phone"` // null when not supplied
	Message    string             `bson:"message" json:"message"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// InquiryInput is the submission payload from the public inquiry form.
type InquiryInput struct {
	PropertyID string `json:"propertyId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Message    string `json:"message"`
}

// InquiryView is an inquiry joined with the property it refers to.
type InquiryView struct {
	Inquiry  `bson:",inline"`
	Property PropertySummary `bson:"property" json:"property"`
}
