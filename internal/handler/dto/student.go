// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// CreateStudentRequest represents the request body for creating a student.
type CreateStudentRequest struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// UpdateStudentRequest represents the request body for renaming a student.
type UpdateStudentRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
