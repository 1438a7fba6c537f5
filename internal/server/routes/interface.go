// Package routes holds the HTTP handlers, grouped by area, behind a narrow
// interface to the server's services.
package routes

import (
	"go.uber.org/zap"

	"launchos/internal/entitlements"
	"launchos/internal/generate"
	"launchos/internal/models"
	"launchos/internal/ratelimit"
	"launchos/internal/session"
	"launchos/internal/tracking"
)

// ServerInterface is what route groups need from the server.
type ServerInterface interface {
	GetDB() *models.DB
	GetSessions() *session.Manager
	GetChecker() *entitlements.Checker
	GetGenerator() *generate.Service
	GetTracker() *tracking.Service
	GetTrackLimiter() *ratelimit.FixedWindowLimiter
	GetLogger() *zap.Logger
}
