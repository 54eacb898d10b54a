package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"pricingboard/internal/api"
	"pricingboard/internal/config"
	"pricingboard/internal/logging"
)

type apiServer struct {
	bind    string
	root    *slog.Logger
	logger  *slog.Logger
	daemon  *Daemon
	maxBody int64

	handler http.Handler
	server  *http.Server

	mu       sync.Mutex
	listener net.Listener
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:    strings.TrimSpace(cfg.Paths.APIBind),
		root:    logger,
		logger:  logging.NewComponentLogger(logger, "api-server"),
		daemon:  d,
		maxBody: cfg.MaxUploadBytes() + 1<<20,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", srv.handleRegister)
	mux.Handle("GET /api/status", srv.authed(srv.handleStatus))
	mux.Handle("GET /api/board", srv.authed(srv.handleBoard))
	mux.Handle("GET /api/archive", srv.authed(srv.handleArchiveList))
	mux.Handle("POST /api/archive/sweep", srv.authed(srv.handleSweep))
	mux.Handle("POST /api/tasks", srv.authed(srv.handleCreate))
	mux.Handle("GET /api/tasks/{id}", srv.authed(srv.handleTask))
	mux.Handle("POST /api/tasks/{id}/edit", srv.authed(srv.handleEdit))
	mux.Handle("POST /api/tasks/{id}/move", srv.authed(srv.handleMove))
	mux.Handle("DELETE /api/tasks/{id}", srv.authed(srv.handleRemove))
	mux.Handle("POST /api/tasks/{id}/archive", srv.authed(srv.handleArchive))
	mux.Handle("POST /api/tasks/{id}/unarchive", srv.authed(srv.handleUnarchive))
	mux.Handle("GET /api/users", srv.authed(srv.handleUsers))
	mux.Handle("POST /api/users/{id}/role", srv.authed(srv.handleAssignRole))
	mux.Handle("DELETE /api/users/{id}", srv.authed(srv.handleRemoveUser))
	mux.Handle("GET /files/{location...}", srv.authed(srv.handleFile))

	srv.handler = withRequestID(mux)
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.logger.Info("api server disabled")
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	s.mu.Unlock()
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

// fail maps err to a status code and logs server-side failures.
func (s *apiServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("request failed",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
