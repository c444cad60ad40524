package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rosterwatch/rosterwatch/internal/emitter"
	"github.com/rosterwatch/rosterwatch/internal/handler/dto"
	"github.com/rosterwatch/rosterwatch/internal/model"
)

// statusError is a non-2xx API response.
type statusError struct {
	Method string
	Path   string
	Code   int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}

// Kind classifies the error for reported error events.
func (e *statusError) Kind() string {
	return "HTTP" + strconv.Itoa(e.Code)
}

// summary counts iteration outcomes.
type summary struct {
	Iterations atomic.Int64
	Failed     atomic.Int64
}

type runner struct {
	sc     Scenario
	base   string
	em     *emitter.Client
	logger *slog.Logger
	stats  summary
}

func newRunner(sc Scenario, em *emitter.Client, logger *slog.Logger) *runner {
	return &runner{
		sc:     sc,
		base:   strings.TrimRight(sc.BaseURL, "/"),
		em:     em,
		logger: logger,
	}
}

// Run plays every iteration, at most Concurrency at a time. Iteration
// failures are logged and counted; only cancellation stops the run.
func (r *runner) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(r.sc.Concurrency)

	for i := 0; i < r.sc.Iterations; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r.stats.Iterations.Add(1)
			if err := r.iteration(ctx, i); err != nil {
				r.stats.Failed.Add(1)
				r.logger.Warn("iteration failed", "iteration", i, "error", err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

// iteration walks one student through its whole lifecycle.
func (r *runner) iteration(ctx context.Context, i int) error {
	for _, page := range r.sc.Pages {
		r.em.TrackPageView(page, "")
	}

	id := ulid.Make().String()
	first, last := "Student", strconv.Itoa(i)

	if _, err := emitter.TrackAction(r.em, "create_student", func() (*model.Student, error) {
		var st model.Student
		err := r.call(ctx, http.MethodPost, "/api/students",
			dto.CreateStudentRequest{ID: id, FirstName: first, LastName: last}, &st)
		return &st, err
	}); err != nil {
		return err
	}

	if _, err := emitter.TrackAction(r.em, "list_students", func() ([]model.Student, error) {
		var list []model.Student
		err := r.call(ctx, http.MethodGet, "/api/students", nil, &list)
		return list, err
	}); err != nil {
		return err
	}

	if _, err := emitter.TrackAction(r.em, "rename_student", func() (*model.Student, error) {
		var st model.Student
		err := r.call(ctx, http.MethodPatch, "/api/students/"+id,
			dto.UpdateStudentRequest{FirstName: first, LastName: last + "-renamed"}, &st)
		return &st, err
	}); err != nil {
		return err
	}

	if _, err := emitter.TrackAction(r.em, "get_student", func() (*model.Student, error) {
		var st model.Student
		err := r.call(ctx, http.MethodGet, "/api/students/"+id, nil, &st)
		return &st, err
	}); err != nil {
		return err
	}

	// Expected to fail at the configured rate; not an iteration failure.
	_, _ = emitter.TrackAction(r.em, "mock_error", func() (struct{}, error) {
		path := "/api/mock-error?rate=" + strconv.Itoa(r.sc.MockErrorRate)
		return struct{}{}, r.call(ctx, http.MethodGet, path, nil, nil)
	})

	if _, err := emitter.TrackAction(r.em, "delete_student", func() (struct{}, error) {
		return struct{}{}, r.call(ctx, http.MethodDelete, "/api/students/"+id, nil, nil)
	}); err != nil {
		return err
	}

	return sleepCtx(ctx, r.sc.ThinkTime)
}

// call sends an API request through the emitter and decodes a 2xx JSON body
// into out when out is non-nil.
func (r *runner) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.em.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &statusError{Method: method, Path: req.URL.Path, Code: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
