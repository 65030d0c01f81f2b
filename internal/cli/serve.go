package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/themizzi/scenariorunner/internal/config"
	"github.com/themizzi/scenariorunner/internal/handlers"
)

// ServerDependencies holds all dependencies needed for the stub target server
type ServerDependencies struct {
	ServerConfig      config.ServerConfig
	Logger            *zap.Logger
	HomeHandler       http.Handler
	RegisterHandler   http.Handler
	LoginHandler      http.Handler
	LogoutHandler     http.Handler
	DashboardHandler  http.Handler
	RetosHandler      http.Handler
	AnaliticasHandler http.Handler
	ModulosHandler    http.Handler
}

// BuildServerDependencies creates the stub target handlers sharing one account store
func BuildServerDependencies(cfg config.ServerConfig, logger *zap.Logger) (ServerDependencies, error) {
	deps := ServerDependencies{ServerConfig: cfg, Logger: logger}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	auth := handlers.NewAuth(cfg.DemoEmail, cfg.DemoPassword)

	home, err := handlers.NewHomeHandler(auth)
	if err != nil {
		return deps, fmt.Errorf("failed to create home handler: %w", err)
	}
	deps.HomeHandler = home

	register, err := handlers.NewRegisterHandler(auth, deps.Logger)
	if err != nil {
		return deps, fmt.Errorf("failed to create register handler: %w", err)
	}
	deps.RegisterHandler = register

	login, err := handlers.NewLoginHandler(auth, deps.Logger)
	if err != nil {
		return deps, fmt.Errorf("failed to create login handler: %w", err)
	}
	deps.LoginHandler = login
	deps.LogoutHandler = handlers.NewLogoutHandler(auth)

	dashboard, err := handlers.NewDashboardHandler(auth)
	if err != nil {
		return deps, fmt.Errorf("failed to create dashboard handler: %w", err)
	}
	deps.DashboardHandler = dashboard

	retos, err := handlers.NewSectionHandler(auth, "retos.html", "Retos")
	if err != nil {
		return deps, fmt.Errorf("failed to create retos handler: %w", err)
	}
	deps.RetosHandler = retos

	analiticas, err := handlers.NewSectionHandler(auth, "analiticas.html", "Analíticas")
	if err != nil {
		return deps, fmt.Errorf("failed to create analiticas handler: %w", err)
	}
	deps.AnaliticasHandler = analiticas

	deps.ModulosHandler = handlers.BlankHandler{}

	return deps, nil
}

// RunServe starts the stub target server and blocks until a shutdown signal
func RunServe(deps ServerDependencies) error {
	listener, server, err := StartServer(deps)
	if err != nil {
		return err
	}
	defer listener.Close()

	return WaitForShutdown(server, nil, deps.Logger)
}

// StartServer creates and starts the HTTP server, returning the listener and server
func StartServer(deps ServerDependencies) (net.Listener, *http.Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set up routes
	mux := http.NewServeMux()
	mux.Handle("/", deps.HomeHandler)
	mux.Handle("/register", deps.RegisterHandler)
	mux.Handle("/login", deps.LoginHandler)
	mux.Handle("/logout", deps.LogoutHandler)
	mux.Handle("/panel-de-control", deps.DashboardHandler)
	mux.Handle("/retos", deps.RetosHandler)
	mux.Handle("/analiticas", deps.AnaliticasHandler)
	mux.Handle("/modulos", deps.ModulosHandler)

	// Create listener
	addr := fmt.Sprintf(":%s", deps.ServerConfig.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create listener: %w", err)
	}

	// Create HTTP server
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", zap.String("addr", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	return listener, server, nil
}

// WaitForShutdown waits for a shutdown signal and gracefully shuts down the server.
// If shutdown channel is nil, a new channel is created and registered with signal.Notify.
func WaitForShutdown(server *http.Server, shutdown chan os.Signal, logger *zap.Logger) error {
	return WaitForShutdownWithTimeout(server, shutdown, 30*time.Second, logger)
}

// WaitForShutdownWithTimeout allows specifying a custom shutdown timeout (primarily for testing)
func WaitForShutdownWithTimeout(server *http.Server, shutdown chan os.Signal, shutdownTimeout time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Channel to listen for interrupt or terminate signals
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(shutdown)
	}

	// Wait for shutdown signal
	sig := <-shutdown
	logger.Info("shutting down server", zap.String("signal", sig.String()))

	// Give outstanding requests time to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown, then force close
	if err := server.Shutdown(ctx); err != nil {
		if err := server.Close(); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
