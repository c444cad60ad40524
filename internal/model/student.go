// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Student is a roster entry. The ID is assigned by the caller
// (typically a student number), not generated.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName joins first and last name the way names are stored.
func FullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
