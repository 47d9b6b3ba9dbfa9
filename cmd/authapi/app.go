package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nkiryanov/authapi/internal/db"
	"github.com/nkiryanov/authapi/internal/handlers"
	"github.com/nkiryanov/authapi/internal/handlers/credentials"
	"github.com/nkiryanov/authapi/internal/handlers/middleware"
	"github.com/nkiryanov/authapi/internal/logger"
	"github.com/nkiryanov/authapi/internal/metrics"
	"github.com/nkiryanov/authapi/internal/repository/postgres"
	"github.com/nkiryanov/authapi/internal/service/auth"
	"github.com/nkiryanov/authapi/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/authapi/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Release resources acquired on start
	close func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.SecretKey,
		RefreshSecret: c.RefreshSecretKey,
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(auth.BcryptHasher{}, storage)

	// Initialize http layer
	transport, err := credentials.New(c.TokenTransport, c.Environment == logger.EnvProduction)
	if err != nil {
		pool.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)
	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig(), collector, l)

	router := handlers.NewRouter(
		authService,
		userService,
		transport,
		limiter,
		collector,
		metrics.Handler(registry),
		l,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    router,
		logger:     l,
		close: func() {
			limiter.Stop()
			pool.Close()
		},
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
