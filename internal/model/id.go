// Package model defines domain entities for the application.
package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh 24-character hex identifier.
// Every store backend uses ObjectID-shaped ids so that id validation
// behaves the same regardless of where documents live.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether id is a well-formed identifier.
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
