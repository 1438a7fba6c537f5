package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"launchos/internal/models"
)

const bcryptCost = 10

type AuthRoutes struct {
	server ServerInterface
}

func NewAuthRoutes(server ServerInterface) *AuthRoutes {
	return &AuthRoutes{server: server}
}

func (ar *AuthRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(ar.server)

	r.POST("/auth/signup", ar.signupHandler)
	r.POST("/auth/login", ar.loginHandler)
	r.POST("/auth/logout", ar.logoutHandler)
	r.GET("/auth/me", middleware.AuthMiddleware(), ar.meHandler)
}

// signupHandler creates an account. With an invite token the user joins the
// inviting workspace; otherwise a fresh workspace is created with them as
// OWNER.
func (ar *AuthRoutes) signupHandler(c *gin.Context) {
	var req struct {
		Email         string `json:"email" binding:"required"`
		Password      string `json:"password" binding:"required"`
		WorkspaceName string `json:"workspace_name"`
		InviteToken   string `json:"invite_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
		return
	}

	db := ar.server.GetDB()
	email := models.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid email."})
		return
	}

	taken, err := db.Users.EmailTaken(email)
	if err != nil {
		writeError(c, err)
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already in use. Try logging in instead."})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		writeError(c, err)
		return
	}
	// The user row and their first membership commit together. A rejected
	// invite rolls the whole signup back, so no account exists without a
	// workspace.
	user := &models.User{Email: email, PasswordHash: string(hash)}
	var workspaceID uuid.UUID
	err = db.Transaction(func(tx *models.DB) error {
		if err := tx.Users.Create(user); err != nil {
			return err
		}
		if token := strings.TrimSpace(req.InviteToken); token != "" {
			// Joining via invite, no new workspace.
			wid, aerr := tx.Invites.Accept(token, user, ar.server.GetChecker().CanAddMember)
			if aerr != nil {
				return aerr
			}
			workspaceID = wid
			return nil
		}
		name := strings.TrimSpace(req.WorkspaceName)
		if name == "" {
			name = "My Workspace"
		}
		workspace, werr := models.CreateWorkspaceWithOwner(tx.DB, name, user.ID)
		if werr != nil {
			return werr
		}
		workspaceID = workspace.ID
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}

	ar.startSession(c, user, workspaceID)
}

func (ar *AuthRoutes) loginHandler(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		Password    string `json:"password" binding:"required"`
		InviteToken string `json:"invite_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
		return
	}

	db := ar.server.GetDB()
	user, err := db.Users.GetByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials."})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials."})
		return
	}

	var workspaceID uuid.UUID
	if token := strings.TrimSpace(req.InviteToken); token != "" {
		workspaceID, err = db.Invites.Accept(token, user, ar.server.GetChecker().CanAddMember)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	ar.startSession(c, user, workspaceID)
}

// startSession issues the cookie. A zero workspaceID falls back to the user's
// oldest membership.
func (ar *AuthRoutes) startSession(c *gin.Context, user *models.User, workspaceID uuid.UUID) {
	db := ar.server.GetDB()
	if workspaceID == uuid.Nil {
		membership, err := db.Memberships.EarliestForUser(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "No workspace membership found."})
			return
		}
		workspaceID = membership.WorkspaceID
	}

	sessions := ar.server.GetSessions()
	token, err := sessions.Create(user.ID, workspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	sessions.SetCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"workspace_id": workspaceID,
	})
}

func (ar *AuthRoutes) logoutHandler(c *gin.Context) {
	ar.server.GetSessions().ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (ar *AuthRoutes) meHandler(c *gin.Context) {
	user := currentUser(c)
	membership := currentMembership(c)
	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"workspace_id": membership.WorkspaceID,
		"role":         membership.Role,
	})
}
