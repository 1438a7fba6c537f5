package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"launchos/internal/models"
)

type TrackRoutes struct {
	server ServerInterface
}

func NewTrackRoutes(server ServerInterface) *TrackRoutes {
	return &TrackRoutes{server: server}
}

func (tr *TrackRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(tr.server)

	// Public: variant links are shared with anonymous visitors.
	r.POST("/track", tr.trackHandler)

	r.GET("/experiments/:experimentID/stats", middleware.AuthMiddleware(), tr.experimentStatsHandler)
}

// trackHandler ingests one event from a public variant link. Unauthenticated
// and rate limited per client IP.
func (tr *TrackRoutes) trackHandler(c *gin.Context) {
	if !tr.server.GetTrackLimiter().Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"ok": false})
		return
	}

	var req struct {
		VariantID uuid.UUID `json:"variant_id" binding:"required"`
		Type      string    `json:"type" binding:"required"`
		Email     string    `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false})
		return
	}

	eventType, ok := models.AsEventType(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false})
		return
	}

	if err := tr.server.GetTracker().Record(req.VariantID, eventType, req.Email); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false})
			return
		}
		tr.server.GetLogger().Error("could not record tracking event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (tr *TrackRoutes) experimentStatsHandler(c *gin.Context) {
	membership := currentMembership(c)
	experimentID, err := uuid.Parse(c.Param("experimentID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid experiment id."})
		return
	}

	stats, err := tr.server.GetTracker().Stats(membership.WorkspaceID, experimentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
