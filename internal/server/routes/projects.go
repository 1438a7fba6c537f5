package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"launchos/internal/models"
)

type ProjectRoutes struct {
	server ServerInterface
}

func NewProjectRoutes(server ServerInterface) *ProjectRoutes {
	return &ProjectRoutes{server: server}
}

func (pr *ProjectRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(pr.server)
	auth := middleware.AuthMiddleware()

	r.GET("/projects", auth, pr.listProjectsHandler)
	r.POST("/projects", auth, pr.createProjectHandler)
	r.GET("/projects/:projectID", auth, pr.getProjectHandler)
	r.POST("/projects/:projectID/sources", auth, pr.addSourceHandler)
	r.GET("/projects/:projectID/assets", auth, pr.listAssetsHandler)
}

func (pr *ProjectRoutes) listProjectsHandler(c *gin.Context) {
	membership := currentMembership(c)
	projects, err := pr.server.GetDB().Projects.ListForWorkspace(membership.WorkspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// createProjectHandler creates a project, subject to the plan's project limit.
func (pr *ProjectRoutes) createProjectHandler(c *gin.Context) {
	membership := currentMembership(c)

	var req struct {
		Name           string `json:"name" binding:"required"`
		NicheKeywords  string `json:"niche_keywords" binding:"required"`
		ICPGuess       string `json:"icp_guess"`
		CompetitorURLs string `json:"competitor_urls"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and niche keywords are required."})
		return
	}

	if err := pr.server.GetChecker().CanCreateProject(membership.WorkspaceID); err != nil {
		writeError(c, err)
		return
	}

	project := &models.Project{
		WorkspaceID:    membership.WorkspaceID,
		Name:           strings.TrimSpace(req.Name),
		NicheKeywords:  strings.TrimSpace(req.NicheKeywords),
		ICPGuess:       strings.TrimSpace(req.ICPGuess),
		CompetitorURLs: strings.TrimSpace(req.CompetitorURLs),
	}
	if err := pr.server.GetDB().Projects.Create(project); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// getProjectHandler returns a project with sources, clusters, positioning,
// assets, and experiments preloaded.
func (pr *ProjectRoutes) getProjectHandler(c *gin.Context) {
	membership := currentMembership(c)
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id."})
		return
	}

	project, err := pr.server.GetDB().Projects.GetDetailed(projectID, membership.WorkspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// addSourceHandler appends pasted research text to a project
func (pr *ProjectRoutes) addSourceHandler(c *gin.Context) {
	membership := currentMembership(c)
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id."})
		return
	}

	var req struct {
		Type    string `json:"type"`
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and content are required."})
		return
	}

	db := pr.server.GetDB()
	if _, err := db.Projects.Get(projectID, membership.WorkspaceID); err != nil {
		writeError(c, err)
		return
	}

	source := &models.Source{
		ProjectID: projectID,
		Type:      models.AsSourceType(req.Type),
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
	}
	if err := db.Projects.AddSource(source); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"source": source})
}

func (pr *ProjectRoutes) listAssetsHandler(c *gin.Context) {
	membership := currentMembership(c)
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id."})
		return
	}

	db := pr.server.GetDB()
	if _, err := db.Projects.Get(projectID, membership.WorkspaceID); err != nil {
		writeError(c, err)
		return
	}
	assets, err := db.Assets.ListForProject(projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets})
}
