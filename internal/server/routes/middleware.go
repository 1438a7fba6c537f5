package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"launchos/internal/models"
)

type Middleware struct {
	server ServerInterface
}

func NewMiddleware(server ServerInterface) *Middleware {
	return &Middleware{server: server}
}

// AuthMiddleware verifies the session cookie and loads the user and their
// membership in the session's workspace. The role always comes from the
// membership row, never from the token, so promotions and removals apply to
// the very next request.
func (m *Middleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := m.server.GetSessions().FromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		db := m.server.GetDB()
		user, err := db.Users.Get(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		membership, err := db.Memberships.GetByUserAndWorkspace(claims.UserID, claims.WorkspaceID)
		if err != nil {
			// Removed from the workspace since the cookie was issued.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No access to this workspace"})
			return
		}

		c.Set("user", user)
		c.Set("membership", membership)
		c.Next()
	}
}

// OwnerMiddleware gates a route to workspace owners. Must run after
// AuthMiddleware.
func (m *Middleware) OwnerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		membership := c.MustGet("membership").(*models.Membership)
		if !membership.IsOwner() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Only workspace owners can do that"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet("user").(*models.User)
}

func currentMembership(c *gin.Context) *models.Membership {
	return c.MustGet("membership").(*models.Membership)
}
