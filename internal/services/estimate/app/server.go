// Package server hosts the estimate HTTP and WebSocket process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	platformgrpc "github.com/louisbranch/estimate.space/internal/platform/grpc"
	"github.com/louisbranch/estimate.space/internal/platform/telemetry"
	"github.com/louisbranch/estimate.space/internal/platform/timeouts"
	"github.com/louisbranch/estimate.space/internal/random"
	"github.com/louisbranch/estimate.space/internal/services/estimate/room"
	"github.com/louisbranch/estimate.space/internal/services/estimate/storage/sqlite"
)

const (
	// HealthService is the gRPC health service name reported by the process.
	HealthService = "estimate"

	journalQueueSize = 1024
)

// Config defines the inputs for the estimate server.
type Config struct {
	HTTPAddr string
	// GRPCAddr enables the gRPC health server when set.
	GRPCAddr           string
	IdleTimeout        time.Duration
	ReapInterval       time.Duration
	AgreementThreshold float64
	DefaultCardSet     []string
	// JournalPath enables the audit journal when set.
	JournalPath string
	MCPEnabled  bool
	// Seed drives icons and session id suggestions; zero picks a random seed.
	Seed              int64
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the estimate HTTP/WebSocket process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	service         *room.Service
	hub             *wsHub
	reaper          *room.Reaper
	health          *platformgrpc.HealthServer
	journalStore    *sqlite.Store
	journalQueue    *telemetry.Queue
}

// NewServer builds a configured estimate server.
func NewServer(config Config) (*Server, error) {
	return NewServerWithContext(context.Background(), config)
}

// NewServerWithContext builds a configured estimate server with an explicit context.
func NewServerWithContext(ctx context.Context, config Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	if config.Seed == 0 {
		seed, err := random.NewSeed()
		if err != nil {
			return nil, err
		}
		config.Seed = seed
	}

	server := &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		hub:             newWSHub(),
	}

	roomConfig := room.Config{
		Transport:          server.hub,
		Seed:               config.Seed,
		AgreementThreshold: config.AgreementThreshold,
		DefaultCardSet:     room.NormalizeCardSet(config.DefaultCardSet, room.DefaultCardSet),
	}
	if path := strings.TrimSpace(config.JournalPath); path != "" {
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		server.journalStore = store
		server.journalQueue = telemetry.NewQueue(telemetry.NewEmitter(store), journalQueueSize)
		roomConfig.Journal = server.journalQueue
	}

	service, err := room.NewService(roomConfig)
	if err != nil {
		server.Close()
		return nil, err
	}
	server.service = service
	server.reaper = service.NewReaper(config.ReapInterval, config.IdleTimeout)

	if addr := strings.TrimSpace(config.GRPCAddr); addr != "" {
		health, err := platformgrpc.NewHealthServer(addr)
		if err != nil {
			server.Close()
			return nil, fmt.Errorf("init grpc health: %w", err)
		}
		server.health = health
	}

	handlers := handlerConfig{service: service, hub: server.hub}
	if server.journalStore != nil {
		handlers.journal = server.journalStore
	}
	if config.MCPEnabled {
		handlers.mcp = newMCPHandler(service)
	}
	server.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           newHandler(handlers),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	return server, nil
}

// Run creates and serves an estimate server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServerWithContext(ctx, config)
	if err != nil {
		return fmt.Errorf("init estimate server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve estimate: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server, the reaper and the optional health
// server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("estimate server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	runCtx, cancel := context.WithCancel(ctx)
	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		s.reaper.Run(runCtx)
	}()
	defer func() {
		cancel()
		<-reaperDone
	}()

	healthErr := make(chan error, 1)
	if s.health != nil {
		go func() {
			healthErr <- s.health.Serve(runCtx)
		}()
		s.health.SetServing("", true)
		s.health.SetServing(HealthService, true)
		log.Printf("estimate health server listening on %s", s.health.Addr())
	}

	serveErr := make(chan error, 1)
	log.Printf("estimate server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.health.SetServing("", false)
		s.health.SetServing(HealthService, false)
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancelShutdown()
		s.hub.closeAll()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-healthErr:
		_ = s.httpServer.Close()
		s.hub.closeAll()
		if err != nil {
			return fmt.Errorf("serve grpc health: %w", err)
		}
		return errors.New("grpc health server stopped")
	case err := <-serveErr:
		s.hub.closeAll()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Service exposes the room engine.
func (s *Server) Service() *room.Service {
	if s == nil {
		return nil
	}
	return s.service
}

// Close releases server resources. The journal queue is drained before the
// store closes.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.health.Close()
	if s.journalQueue != nil {
		s.journalQueue.Close()
		if dropped := s.journalQueue.Dropped(); dropped > 0 {
			log.Printf("estimate: journal dropped %d entries", dropped)
		}
	}
	if s.journalStore != nil {
		if err := s.journalStore.Close(); err != nil {
			log.Printf("close journal store: %v", err)
		}
	}
}
