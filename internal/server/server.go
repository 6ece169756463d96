package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/andymarkow/bonustier/internal/auth"
	"github.com/andymarkow/bonustier/internal/domain/tiers"
	"github.com/andymarkow/bonustier/internal/server/router"
	"github.com/andymarkow/bonustier/internal/storage"
)

type Server struct {
	srv *http.Server
	log *slog.Logger
}

type Options struct {
	serverAddr   string
	jwtSecretKey []byte
	jwtTokenTTL  time.Duration
	log          *slog.Logger
}

type Option func(o *Options)

func WithServerAddr(addr string) Option {
	return func(o *Options) {
		o.serverAddr = addr
	}
}

func WithJWTSecretKey(secret []byte) Option {
	return func(o *Options) {
		o.jwtSecretKey = secret
	}
}

func WithJWTTokenTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.jwtTokenTTL = ttl
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.log = logger
	}
}

func NewServer(store storage.Storage, catalog *tiers.Catalog, opts ...Option) *Server {
	srvOpts := Options{
		serverAddr:  "0.0.0.0:8080",
		jwtTokenTTL: time.Hour,
		log:         slog.Default(),
	}

	for _, opt := range opts {
		opt(&srvOpts)
	}

	r := router.NewRouter(store, catalog,
		router.WithLogger(srvOpts.log),
		router.WithSecret(srvOpts.jwtSecretKey),
		router.WithAuthOptions(auth.WithTokenTTL(srvOpts.jwtTokenTTL)),
	)

	srv := &http.Server{
		Addr:              srvOpts.serverAddr,
		Handler:           r,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return &Server{
		srv: srv,
		log: srvOpts.log,
	}
}

func (s *Server) Start() error {
	s.log.Info(fmt.Sprintf("Starting server on %s", s.srv.Addr))

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}

	return nil
}
