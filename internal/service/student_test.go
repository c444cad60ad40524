package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rosterwatch/rosterwatch/internal/model"
	"github.com/rosterwatch/rosterwatch/internal/repository"
)

type memStore struct {
	students map[string]*model.Student
	err      error
}

func newMemStore() *memStore {
	return &memStore{students: make(map[string]*model.Student)}
}

func (m *memStore) ListStudents(ctx context.Context) ([]*model.Student, error) {
	out := make([]*model.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, m.err
}

func (m *memStore) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.students[id]
	if !ok {
		return nil, repository.ErrStudentNotFound
	}
	return s, nil
}

func (m *memStore) CreateStudent(ctx context.Context, id, name string) (*model.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.students[id]; ok {
		return nil, repository.ErrStudentExists
	}
	now := time.Now().UTC()
	s := &model.Student{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
	m.students[id] = s
	return s, nil
}

func (m *memStore) UpdateStudentName(ctx context.Context, id, name string) (*model.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, repository.ErrStudentNotFound
	}
	s.Name = name
	return s, nil
}

func (m *memStore) DeleteStudent(ctx context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return repository.ErrStudentNotFound
	}
	delete(m.students, id)
	return nil
}

func TestCreateValidationErrors(t *testing.T) {
	svc := NewStudentService(newMemStore())

	tests := []struct {
		name        string
		input       CreateStudentInput
		wantProblem string
	}{
		{"missing_id", CreateStudentInput{FirstName: "A", LastName: "B"}, "id is required"},
		{"blank_id", CreateStudentInput{ID: "  ", FirstName: "A", LastName: "B"}, "id is required"},
		{"long_id", CreateStudentInput{ID: strings.Repeat("9", maxIDLength+1), FirstName: "A", LastName: "B"}, "id must be at most"},
		{"missing_first", CreateStudentInput{ID: "1", LastName: "B"}, "firstName is required"},
		{"blank_last", CreateStudentInput{ID: "1", FirstName: "A", LastName: "\t"}, "lastName is required"},
		{"long_name", CreateStudentInput{ID: "1", FirstName: strings.Repeat("a", 200), LastName: strings.Repeat("b", 200)}, "name must be at most"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), test.input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), test.wantProblem) {
				t.Errorf("error %q does not mention %q", err.Error(), test.wantProblem)
			}
		})
	}
}

func TestCreateReportsAllProblems(t *testing.T) {
	svc := NewStudentService(newMemStore())

	_, err := svc.Create(context.Background(), CreateStudentInput{})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Problems) != 3 {
		t.Errorf("problems = %v, want 3 entries", verr.Problems)
	}
}

func TestCreateStoresTrimmedName(t *testing.T) {
	store := newMemStore()
	svc := NewStudentService(store)

	s, err := svc.Create(context.Background(), CreateStudentInput{ID: " 6401001 ", FirstName: " Somchai ", LastName: "Jaidee "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID != "6401001" || s.Name != "Somchai Jaidee" {
		t.Errorf("stored %+v", s)
	}
}

func TestCreateDuplicate(t *testing.T) {
	svc := NewStudentService(newMemStore())
	ctx := context.Background()
	input := CreateStudentInput{ID: "1", FirstName: "A", LastName: "B"}

	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, input); !errors.Is(err, ErrStudentExists) {
		t.Fatalf("expected ErrStudentExists, got %v", err)
	}
}

func TestNotFoundMapping(t *testing.T) {
	svc := NewStudentService(newMemStore())
	ctx := context.Background()

	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("Get: expected ErrStudentNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, "nope", UpdateStudentInput{FirstName: "A", LastName: "B"}); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("Update: expected ErrStudentNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "nope"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("Delete: expected ErrStudentNotFound, got %v", err)
	}
}

func TestUpdateValidatesBeforeStore(t *testing.T) {
	store := newMemStore()
	svc := NewStudentService(store)

	_, err := svc.Update(context.Background(), "nope", UpdateStudentInput{FirstName: "A"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStoreErrorsPassThrough(t *testing.T) {
	boom := errors.New("connection reset")
	store := newMemStore()
	store.err = boom
	svc := NewStudentService(store)

	if _, err := svc.Get(context.Background(), "1"); !errors.Is(err, boom) {
		t.Errorf("expected store error, got %v", err)
	}
}
