package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"launchos/internal/entitlements"
	"launchos/internal/models"
)

type WorkspaceRoutes struct {
	server ServerInterface
}

func NewWorkspaceRoutes(server ServerInterface) *WorkspaceRoutes {
	return &WorkspaceRoutes{server: server}
}

func (wr *WorkspaceRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(wr.server)
	auth := middleware.AuthMiddleware()
	owner := middleware.OwnerMiddleware()

	r.GET("/workspaces", auth, wr.listWorkspacesHandler)
	r.POST("/workspaces/switch", auth, wr.switchWorkspaceHandler)

	r.GET("/workspace", auth, wr.getWorkspaceHandler)
	r.PUT("/workspace", auth, owner, wr.updateWorkspaceHandler)
	r.PUT("/workspace/plan", auth, owner, wr.setPlanHandler)
	r.PUT("/workspace/ai", auth, owner, wr.saveAISettingsHandler)

	r.GET("/workspace/members", auth, wr.listMembersHandler)
	r.POST("/workspace/members/:membershipID/promote", auth, owner, wr.promoteMemberHandler)
	r.POST("/workspace/members/:membershipID/demote", auth, owner, wr.demoteOwnerHandler)
	r.DELETE("/workspace/members/:membershipID", auth, owner, wr.removeMemberHandler)
	r.POST("/workspace/transfer", auth, owner, wr.transferOwnershipHandler)
	r.POST("/workspace/leave", auth, wr.leaveWorkspaceHandler)

	r.GET("/workspace/invites", auth, owner, wr.listInvitesHandler)
	r.POST("/workspace/invites", auth, owner, wr.createInviteHandler)
	r.POST("/workspace/invites/:inviteID/resend", auth, owner, wr.resendInviteHandler)
	r.DELETE("/workspace/invites/:inviteID", auth, owner, wr.revokeInviteHandler)
	r.POST("/invites/:token/accept", auth, wr.acceptInviteHandler)
}

// listWorkspacesHandler returns every workspace the user belongs to
func (wr *WorkspaceRoutes) listWorkspacesHandler(c *gin.Context) {
	user := currentUser(c)
	workspaces, err := user.GetWorkspaces(wr.server.GetDB().DB)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// switchWorkspaceHandler reissues the session cookie for another workspace the
// user is a member of.
func (wr *WorkspaceRoutes) switchWorkspaceHandler(c *gin.Context) {
	user := currentUser(c)

	var req struct {
		WorkspaceID uuid.UUID `json:"workspace_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Workspace required."})
		return
	}

	db := wr.server.GetDB()
	membership, err := db.Memberships.GetByUserAndWorkspace(user.ID, req.WorkspaceID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of that workspace."})
		return
	}

	sessions := wr.server.GetSessions()
	token, err := sessions.Create(user.ID, membership.WorkspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	sessions.SetCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"workspace_id": membership.WorkspaceID, "role": membership.Role})
}

// getWorkspaceHandler returns the active workspace with its plan and limits
func (wr *WorkspaceRoutes) getWorkspaceHandler(c *gin.Context) {
	membership := currentMembership(c)
	db := wr.server.GetDB()

	workspace, err := db.Workspaces.Get(membership.WorkspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	tier, err := db.Workspaces.GetTier(membership.WorkspaceID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspace": workspace,
		"role":      membership.Role,
		"plan":      tier,
		"limits":    entitlements.LimitsFor(tier),
	})
}

func (wr *WorkspaceRoutes) updateWorkspaceHandler(c *gin.Context) {
	membership := currentMembership(c)
	db := wr.server.GetDB()

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required."})
		return
	}

	workspace, err := db.Workspaces.Get(membership.WorkspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	workspace.Name = strings.TrimSpace(req.Name)
	if err := db.Workspaces.Update(workspace); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspace": workspace})
}

// setPlanHandler upserts the workspace's plan tier. There is no billing
// integration; owners pick a tier directly.
func (wr *WorkspaceRoutes) setPlanHandler(c *gin.Context) {
	membership := currentMembership(c)

	var req struct {
		Tier string `json:"tier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tier is required."})
		return
	}

	tier := models.AsPlanTier(req.Tier)
	if err := wr.server.GetDB().Workspaces.SetTier(membership.WorkspaceID, tier); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": tier, "limits": entitlements.LimitsFor(tier)})
}

// saveAISettingsHandler stores the workspace's AI provider configuration. An
// empty key clears it, which sends generation back to mock output.
func (wr *WorkspaceRoutes) saveAISettingsHandler(c *gin.Context) {
	membership := currentMembership(c)
	db := wr.server.GetDB()

	var req struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
		Key      string `json:"key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request."})
		return
	}

	workspace, err := db.Workspaces.Get(membership.WorkspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	workspace.AIProvider = models.AsAIProvider(req.Provider)
	workspace.AIModel = strings.TrimSpace(req.Model)
	workspace.AIKey = strings.TrimSpace(req.Key)
	if err := db.Workspaces.Update(workspace); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": workspace.AIProvider, "model": workspace.AIModel})
}

func (wr *WorkspaceRoutes) listMembersHandler(c *gin.Context) {
	membership := currentMembership(c)
	workspace := models.Workspace{ID: membership.WorkspaceID}
	members, err := workspace.GetMembersWithEmails(wr.server.GetDB().DB)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (wr *WorkspaceRoutes) promoteMemberHandler(c *gin.Context) {
	membership := currentMembership(c)
	membershipID, err := uuid.Parse(c.Param("membershipID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership id."})
		return
	}
	if err := wr.server.GetDB().Memberships.Promote(membershipID, membership.WorkspaceID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member promoted to OWNER."})
}

func (wr *WorkspaceRoutes) demoteOwnerHandler(c *gin.Context) {
	membership := currentMembership(c)
	membershipID, err := uuid.Parse(c.Param("membershipID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership id."})
		return
	}
	if err := wr.server.GetDB().Memberships.Demote(membershipID, membership.WorkspaceID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Owner demoted to MEMBER."})
}

func (wr *WorkspaceRoutes) removeMemberHandler(c *gin.Context) {
	user := currentUser(c)
	membership := currentMembership(c)
	membershipID, err := uuid.Parse(c.Param("membershipID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership id."})
		return
	}
	if err := wr.server.GetDB().Memberships.Remove(membershipID, membership.WorkspaceID, user.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed."})
}

func (wr *WorkspaceRoutes) transferOwnershipHandler(c *gin.Context) {
	user := currentUser(c)
	membership := currentMembership(c)

	var req struct {
		TargetMembershipID uuid.UUID `json:"target_membership_id" binding:"required"`
		DemoteSelf         bool      `json:"demote_self"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Choose a member to transfer ownership to."})
		return
	}

	err := wr.server.GetDB().Memberships.TransferOwnership(
		req.TargetMembershipID, membership.WorkspaceID, user.ID, req.DemoteSelf)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ownership transferred."})
}

// leaveWorkspaceHandler removes the caller's own membership and clears their
// session. A sole OWNER is rejected until ownership is transferred.
func (wr *WorkspaceRoutes) leaveWorkspaceHandler(c *gin.Context) {
	user := currentUser(c)
	membership := currentMembership(c)

	if err := wr.server.GetDB().Memberships.Leave(user.ID, membership.WorkspaceID); err != nil {
		writeError(c, err)
		return
	}
	wr.server.GetSessions().ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "You left the workspace."})
}

func (wr *WorkspaceRoutes) listInvitesHandler(c *gin.Context) {
	membership := currentMembership(c)
	invites, err := wr.server.GetDB().Invites.PendingForWorkspace(membership.WorkspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// createInviteHandler invites an email to the workspace. An existing pending
// invite for that email is refreshed rather than duplicated.
func (wr *WorkspaceRoutes) createInviteHandler(c *gin.Context) {
	membership := currentMembership(c)

	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid email."})
		return
	}
	email := models.NormalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid email."})
		return
	}

	result, err := wr.server.GetDB().Invites.Create(
		membership.WorkspaceID, email, wr.server.GetChecker().CanAddMember)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	message := "Invite created."
	if result.Refreshed {
		status = http.StatusOK
		message = "Invite refreshed (expiration extended)."
	}
	c.JSON(status, gin.H{"invite": result.Invite, "message": message})
}

// resendInviteHandler extends the invite's expiry without rotating the token,
// so the originally sent link keeps working.
func (wr *WorkspaceRoutes) resendInviteHandler(c *gin.Context) {
	membership := currentMembership(c)
	inviteID, err := uuid.Parse(c.Param("inviteID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invite id."})
		return
	}

	db := wr.server.GetDB()
	invite, err := db.Invites.Get(inviteID, membership.WorkspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := db.Invites.Refresh(invite); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invite": invite, "message": "Invite resent (expiration extended)."})
}

func (wr *WorkspaceRoutes) revokeInviteHandler(c *gin.Context) {
	membership := currentMembership(c)
	inviteID, err := uuid.Parse(c.Param("inviteID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invite id."})
		return
	}

	db := wr.server.GetDB()
	if _, err := db.Invites.Get(inviteID, membership.WorkspaceID); err != nil {
		writeError(c, err)
		return
	}
	if err := db.Invites.Revoke(inviteID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invite revoked."})
}

// acceptInviteHandler redeems an invite token for the logged-in user and
// switches their session to the joined workspace.
func (wr *WorkspaceRoutes) acceptInviteHandler(c *gin.Context) {
	user := currentUser(c)
	token := c.Param("token")

	db := wr.server.GetDB()
	workspaceID, err := db.Invites.Accept(token, user, wr.server.GetChecker().CanAddMember)
	if err != nil {
		writeError(c, err)
		return
	}

	sessions := wr.server.GetSessions()
	sessionToken, err := sessions.Create(user.ID, workspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	sessions.SetCookie(c, sessionToken)
	c.JSON(http.StatusOK, gin.H{"workspace_id": workspaceID})
}
