package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bmcgrane302/properview/internal/utils"
)

// Base carries the document identifier, generated client-side before insert.
type Base struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
}

func NewBase() Base {
	return Base{
		ID: utils.NewObjectID(),
	}
}
