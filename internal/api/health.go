package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is satisfied by the repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessReporter reports whether the assistant's content is cached.
type ReadinessReporter interface {
	Ready() bool
}

// HealthHandler reports database connectivity and content readiness.
type HealthHandler struct {
	db      Pinger
	content ReadinessReporter
}

// NewHealthHandler creates a health handler. content may be nil.
func NewHealthHandler(db Pinger, content ReadinessReporter) *HealthHandler {
	return &HealthHandler{db: db, content: content}
}

// RegisterHealth registers GET /health.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.ServeHealth)
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Content  string `json:"content"`
}

// Check returns nil when the service can serve requests. Content that has not
// been fetched yet does not make the service unhealthy.
func (h *HealthHandler) Check(ctx context.Context) error {
	if h.db == nil {
		return errors.New("no database configured")
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

// ServeHealth handles GET /health.
func (h *HealthHandler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok", Content: "pending"}
	if h.content != nil && h.content.Ready() {
		resp.Content = "ready"
	}

	if err := h.Check(r.Context()); err != nil {
		slog.Warn("Health check failed", "error", err)
		resp.Status = "unhealthy"
		resp.Database = "unreachable"
		JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	JSON(w, http.StatusOK, resp)
}

// StartGRPCHealth serves the standard gRPC health service on addr, refreshing
// its status from checker every interval until ctx ends. It returns the
// address actually bound.
func StartGRPCHealth(ctx context.Context, addr string, checker *HealthHandler, interval time.Duration) (net.Addr, error) {
	lis, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen grpc health: %w", err)
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if err := checker.Check(ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", status)
	}
	update()

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			slog.Error("gRPC health server failed", "error", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				update()
			case <-ctx.Done():
				hs.Shutdown()
				srv.GracefulStop()
				slog.Info("gRPC health server stopped")
				return
			}
		}
	}()

	slog.Info("gRPC health server listening", "addr", lis.Addr().String())
	return lis.Addr(), nil
}
