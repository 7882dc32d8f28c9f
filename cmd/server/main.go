// Package main initializes and starts the lotmarket HTTP server,
// setting up configuration, logging, the file-backed stores, the image
// ingestor, services, and handlers.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	nethttp "net/http"

	"github.com/atinyakov/lotmarket/internal/auth"
	"github.com/atinyakov/lotmarket/internal/config"
	"github.com/atinyakov/lotmarket/internal/images"
	"github.com/atinyakov/lotmarket/internal/logger"
	"github.com/atinyakov/lotmarket/internal/repository"
	"github.com/atinyakov/lotmarket/internal/server/handler/http"
	"github.com/atinyakov/lotmarket/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// orDefault returns a if it is non-empty, otherwise b (cmp.Or for
// strings; the build toolchain predates Go 1.22's cmp.Or).
func orDefault(a, b string) string {
	if a == "" {
		return b
	}
	return a
}

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", orDefault(version, "N/A"))
	fmt.Printf("Build date: %s\n", orDefault(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	if err := os.MkdirAll(options.DataDir, 0o750); err != nil {
		zapLogger.Fatal("cannot create data directory", zap.Error(err))
	}

	// Open the file-backed stores. A corrupt backing file halts startup
	// rather than silently starting empty and overwriting good data.
	userStore, err := repository.NewUserStore(filepath.Join(options.DataDir, "users.json"))
	if err != nil {
		zapLogger.Fatal("cannot open users store", zap.Error(err))
	}
	lotStore, err := repository.NewLotStore(filepath.Join(options.DataDir, "lots.json"), userStore)
	if err != nil {
		zapLogger.Fatal("cannot open lots store", zap.Error(err))
	}

	// Initialize the image ingestor serving refs under /static/uploads.
	ingestor, err := images.New(options.UploadsDir, "/static/uploads")
	if err != nil {
		zapLogger.Fatal("cannot init image store", zap.Error(err))
	}

	if options.JWTSecret == "" {
		zapLogger.Fatal("a JWT secret is required (-s flag or JWT_SECRET)")
	}
	tokens := auth.NewTokenManager(options.JWTSecret, "lotmarket", options.TokenTTL)

	// Initialize business-logic services.
	authService := service.NewAuthService(userStore)
	lotService := service.NewLotService(lotStore, ingestor)

	// Create HTTP handlers for auth and lot endpoints.
	authHandler := &http.AuthHandler{AuthService: authService, Tokens: tokens}
	lotHandler := &http.LotHandler{Lots: lotService, Auth: authService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, lotHandler, tokens, options.UploadsDir, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Address,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
