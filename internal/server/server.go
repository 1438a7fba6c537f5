// Package server assembles the HTTP API: services, middleware, and routes.
package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"launchos/internal/entitlements"
	"launchos/internal/generate"
	"launchos/internal/models"
	"launchos/internal/ratelimit"
	"launchos/internal/session"
	"launchos/internal/tracking"
)

// Default budget for the public tracking endpoint, per client IP per minute.
const defaultTrackRateLimit = 120

type Server struct {
	port         int
	db           *models.DB
	sessions     *session.Manager
	checker      *entitlements.Checker
	generator    *generate.Service
	tracker      *tracking.Service
	trackLimiter *ratelimit.FixedWindowLimiter
	logger       *zap.Logger
}

func (s *Server) GetDB() *models.DB                              { return s.db }
func (s *Server) GetSessions() *session.Manager                  { return s.sessions }
func (s *Server) GetChecker() *entitlements.Checker              { return s.checker }
func (s *Server) GetGenerator() *generate.Service                { return s.generator }
func (s *Server) GetTracker() *tracking.Service                  { return s.tracker }
func (s *Server) GetTrackLimiter() *ratelimit.FixedWindowLimiter { return s.trackLimiter }
func (s *Server) GetLogger() *zap.Logger                         { return s.logger }

// NewServer wires the services together and returns the configured HTTP
// server.
func NewServer(db *models.DB, logger *zap.Logger) *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	checker := entitlements.NewChecker(db)

	// Rate limiting for /track is optional; without Redis the endpoint is
	// open.
	var trackLimiter *ratelimit.FixedWindowLimiter
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		limit := defaultTrackRateLimit
		if v, err := strconv.Atoi(os.Getenv("TRACK_RATE_LIMIT")); err == nil && v > 0 {
			limit = v
		}
		var err error
		trackLimiter, err = ratelimit.NewFixedWindowLimiter(addr, os.Getenv("REDIS_PASSWORD"), limit, time.Minute)
		if err != nil {
			logger.Fatal("could not initialize rate limiter", zap.Error(err))
		}
	} else {
		logger.Warn("REDIS_ADDR not set, /track is not rate limited")
	}

	srv := &Server{
		port:         port,
		db:           db,
		sessions:     session.NewManager(logger),
		checker:      checker,
		generator:    generate.NewService(db, checker, logger),
		tracker:      tracking.NewService(db, logger),
		trackLimiter: trackLimiter,
		logger:       logger,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", srv.port),
		Handler:      srv.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
