package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"launchos/internal/entitlements"
	"launchos/internal/models"
)

// writeError maps domain errors to HTTP responses. Plan limit violations get
// 402 with the limit details so clients can render an upgrade prompt.
func writeError(c *gin.Context, err error) {
	var planErr *entitlements.PlanLimitError
	if errors.As(err, &planErr) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": planErr.Error(),
			"plan":  planErr.Tier,
			"limit": planErr.Limit,
			"max":   planErr.Max,
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	case errors.Is(err, models.ErrAlreadyMember):
		c.JSON(http.StatusConflict, gin.H{"error": "That email is already a member."})
	case errors.Is(err, models.ErrAlreadyOwner):
		c.JSON(http.StatusConflict, gin.H{"error": "That member is already an OWNER."})
	case errors.Is(err, models.ErrNotOwner):
		c.JSON(http.StatusConflict, gin.H{"error": "That member is not an OWNER."})
	case errors.Is(err, models.ErrLastOwner):
		c.JSON(http.StatusConflict, gin.H{"error": "Workspace must keep at least one OWNER."})
	case errors.Is(err, models.ErrSelfRemove):
		c.JSON(http.StatusConflict, gin.H{"error": "You cannot remove yourself. Leave the workspace instead."})
	case errors.Is(err, models.ErrInviteInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invite is invalid."})
	case errors.Is(err, models.ErrInviteExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Invite expired."})
	case errors.Is(err, models.ErrEmailMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "Invite email does not match your account email."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
	}
}
