package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Operation is the kind of database statement being tracked.
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Error kinds reported when nothing more specific is known.
const (
	KindUnknown          = "UnknownError"
	KindConnection       = "ConnectionError"
	KindNoRows           = "NoRows"
	KindDeadlineExceeded = "DeadlineExceeded"
	KindCanceled         = "Canceled"
)

type kinder interface {
	Kind() string
}

type kindError struct {
	err  error
	kind string
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }
func (e *kindError) Kind() string  { return e.kind }

// WithKind annotates err with an explicit classification. It returns nil for
// a nil err.
func WithKind(err error, kind string) error {
	if err == nil {
		return nil
	}
	return &kindError{err: err, kind: kind}
}

// ErrorKind returns a stable, low-cardinality name for err.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var k kinder
	if errors.As(err, &k) {
		if kind := k.Kind(); kind != "" {
			return kind
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if name := pq.ErrorCode(pgErr.Code).Name(); name != "" {
			return name
		}
		if pgErr.Code != "" {
			return pgErr.Code
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return KindConnection
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return KindNoRows
	case errors.Is(err, context.DeadlineExceeded):
		return KindDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}

	return KindUnknown
}

// TrackOperation runs fn and records its outcome against the database
// instruments. The result and error of fn are returned unchanged. A nil
// Registry runs fn without recording.
func TrackOperation[T any](reg *Registry, op Operation, table string, fn func() (T, error)) (T, error) {
	if reg == nil {
		return fn()
	}

	reg.DBActiveConnections.Inc()
	defer reg.DBActiveConnections.Dec()

	start := time.Now()
	result, err := fn()
	elapsed := time.Since(start).Seconds()

	reg.DBQueryDuration.WithLabelValues(string(op), table).Observe(elapsed)
	if err != nil {
		reg.DBQueryErrorsTotal.WithLabelValues(string(op), table, ErrorKind(err)).Inc()
		return result, err
	}

	reg.DBQueriesTotal.WithLabelValues(string(op), table).Inc()
	return result, nil
}

// Track is TrackOperation for work that returns only an error.
func Track(reg *Registry, op Operation, table string, fn func() error) error {
	_, err := TrackOperation(reg, op, table, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
