package utils

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrMalformedID is returned when a string is not a 24-character hex ObjectID.
var ErrMalformedID = errors.New("malformed object id")

// ObjectIDHookFunc defines the signature for the NewObjectID test hook.
// It returns an ObjectID and a boolean indicating whether to override the default generation.
type ObjectIDHookFunc func() (id primitive.ObjectID, override bool)

// NewObjectIDHook is a package-level variable that tests can set to override NewObjectID behavior.
var NewObjectIDHook ObjectIDHookFunc

// NewObjectID creates a new ObjectID unless a test hook overrides it.
func NewObjectID() primitive.ObjectID {
	if NewObjectIDHook != nil {
		if id, override := NewObjectIDHook(); override {
			return id
		}
	}
	return primitive.NewObjectID()
}

// ParseObjectID parses the hex form of an ObjectID, tolerating surrounding whitespace.
func ParseObjectID(s string) (primitive.ObjectID, error) {
	s = strings.TrimSpace(s)
	if len(s) != 24 {
		return primitive.NilObjectID, ErrMalformedID
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrMalformedID
	}
	return id, nil
}

// IsValidObjectID reports whether s parses as an ObjectID.
func IsValidObjectID(s string) bool {
	_, err := ParseObjectID(s)
	return err == nil
}
