package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestShutdown_RunsHooksInReverseOrder(t *testing.T) {
	srv := New(http.NotFoundHandler(), Options{ShutdownTimeout: time.Second}, testLogger())

	var order []string
	for _, name := range []string{"postgres", "redis", "emitter"} {
		name := name
		srv.OnShutdown(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	want := []string{"emitter", "redis", "postgres"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestShutdown_JoinsErrors(t *testing.T) {
	srv := New(http.NotFoundHandler(), Options{ShutdownTimeout: time.Second}, testLogger())

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := 0
	srv.OnShutdown("a", func(ctx context.Context) error { ran++; return errA })
	srv.OnShutdown("b", func(ctx context.Context) error { ran++; return errB })
	srv.OnShutdown("c", func(ctx context.Context) error { ran++; return nil })

	err := srv.Shutdown(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Shutdown() error = %v, want both component errors", err)
	}
	if ran != 3 {
		t.Errorf("ran %d hooks, want 3", ran)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := New(http.NotFoundHandler(), Options{Port: 0, ShutdownTimeout: time.Second}, testLogger())

	stopped := make(chan struct{})
	srv.OnShutdown("marker", func(ctx context.Context) error {
		close(stopped)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	select {
	case <-stopped:
	default:
		t.Error("shutdown hook did not run")
	}
}

func TestAddr(t *testing.T) {
	srv := New(http.NotFoundHandler(), Options{Port: 8080}, testLogger())
	if srv.Addr() != ":8080" {
		t.Errorf("Addr() = %q, want :8080", srv.Addr())
	}
}
