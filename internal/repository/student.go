package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/rosterwatch/rosterwatch/internal/metrics"
	"github.com/rosterwatch/rosterwatch/internal/model"
)

const studentsTable = "students"

// Student repository errors.
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrStudentExists   = errors.New("student already exists")
)

const studentColumns = `id, name, created_at, updated_at`

// ListStudents returns every student ordered by creation time.
func (r *Repository) ListStudents(ctx context.Context) ([]*model.Student, error) {
	students, err := metrics.TrackOperation(r.metrics, metrics.OpSelect, studentsTable, func() ([]*model.Student, error) {
		rows, err := r.pool.Query(ctx, `SELECT `+studentColumns+` FROM students ORDER BY created_at ASC, id ASC`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		students := make([]*model.Student, 0)
		for rows.Next() {
			s, err := scanStudent(rows)
			if err != nil {
				return nil, err
			}
			students = append(students, s)
		}
		return students, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	return students, nil
}

// GetStudent retrieves a student by ID.
// A missing row is a successful query; the caller sees ErrStudentNotFound.
func (r *Repository) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	student, err := metrics.TrackOperation(r.metrics, metrics.OpSelect, studentsTable, func() (*model.Student, error) {
		s, err := scanStudent(r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	return student, nil
}

// CreateStudent inserts a student and returns the stored row.
func (r *Repository) CreateStudent(ctx context.Context, id, name string) (*model.Student, error) {
	student, err := metrics.TrackOperation(r.metrics, metrics.OpInsert, studentsTable, func() (*model.Student, error) {
		return scanStudent(r.pool.QueryRow(ctx,
			`INSERT INTO students (id, name) VALUES ($1, $2) RETURNING `+studentColumns,
			id, name,
		))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrStudentExists
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	return student, nil
}

// UpdateStudentName renames a student and bumps updated_at.
func (r *Repository) UpdateStudentName(ctx context.Context, id, name string) (*model.Student, error) {
	student, err := metrics.TrackOperation(r.metrics, metrics.OpUpdate, studentsTable, func() (*model.Student, error) {
		s, err := scanStudent(r.pool.QueryRow(ctx,
			`UPDATE students SET name = $2, updated_at = NOW() WHERE id = $1 RETURNING `+studentColumns,
			id, name,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update student: %w", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	return student, nil
}

// DeleteStudent removes a student.
func (r *Repository) DeleteStudent(ctx context.Context, id string) error {
	tag, err := metrics.TrackOperation(r.metrics, metrics.OpDelete, studentsTable, func() (pgconn.CommandTag, error) {
		return r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}

	return nil
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	var s model.Student
	if err := row.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pq.ErrorCode(pgErr.Code).Name() == "unique_violation"
}
