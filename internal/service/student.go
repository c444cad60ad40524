// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rosterwatch/rosterwatch/internal/model"
	"github.com/rosterwatch/rosterwatch/internal/repository"
)

// Service errors.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrStudentNotFound = errors.New("student not found")
	ErrStudentExists   = errors.New("student already exists")
)

const (
	maxIDLength   = 255
	maxNameLength = 255
)

// StudentStore is the persistence the student service needs.
type StudentStore interface {
	ListStudents(ctx context.Context) ([]*model.Student, error)
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	CreateStudent(ctx context.Context, id, name string) (*model.Student, error)
	UpdateStudentName(ctx context.Context, id, name string) (*model.Student, error)
	DeleteStudent(ctx context.Context, id string) error
}

// StudentService handles roster business logic.
type StudentService struct {
	store StudentStore
}

// NewStudentService creates a new StudentService.
func NewStudentService(store StudentStore) *StudentService {
	return &StudentService{store: store}
}

// CreateStudentInput defines input for creating a student.
type CreateStudentInput struct {
	ID        string
	FirstName string
	LastName  string
}

// UpdateStudentInput defines input for renaming a student.
type UpdateStudentInput struct {
	FirstName string
	LastName  string
}

// ValidationError lists every problem found in an input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// List returns all students, oldest first.
func (s *StudentService) List(ctx context.Context) ([]*model.Student, error) {
	return s.store.ListStudents(ctx)
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*model.Student, error) {
	student, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return student, nil
}

// Create validates input and stores a new student.
func (s *StudentService) Create(ctx context.Context, input CreateStudentInput) (*model.Student, error) {
	id := strings.TrimSpace(input.ID)

	var problems []string
	if id == "" {
		problems = append(problems, "id is required")
	} else if len(id) > maxIDLength {
		problems = append(problems, fmt.Sprintf("id must be at most %d characters", maxIDLength))
	}
	problems = append(problems, validateName(input.FirstName, input.LastName)...)
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	student, err := s.store.CreateStudent(ctx, id, model.FullName(input.FirstName, input.LastName))
	if err != nil {
		return nil, mapStoreError(err)
	}
	return student, nil
}

// Update renames an existing student.
func (s *StudentService) Update(ctx context.Context, id string, input UpdateStudentInput) (*model.Student, error) {
	if problems := validateName(input.FirstName, input.LastName); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	student, err := s.store.UpdateStudentName(ctx, id, model.FullName(input.FirstName, input.LastName))
	if err != nil {
		return nil, mapStoreError(err)
	}
	return student, nil
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	return mapStoreError(s.store.DeleteStudent(ctx, id))
}

func validateName(first, last string) []string {
	var problems []string
	if strings.TrimSpace(first) == "" {
		problems = append(problems, "firstName is required")
	}
	if strings.TrimSpace(last) == "" {
		problems = append(problems, "lastName is required")
	}
	if len(problems) == 0 && len(model.FullName(first, last)) > maxNameLength {
		problems = append(problems, fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	return problems
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrStudentNotFound):
		return ErrStudentNotFound
	case errors.Is(err, repository.ErrStudentExists):
		return ErrStudentExists
	default:
		return err
	}
}
