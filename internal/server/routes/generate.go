package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"launchos/internal/models"
)

type GenerateRoutes struct {
	server ServerInterface
}

func NewGenerateRoutes(server ServerInterface) *GenerateRoutes {
	return &GenerateRoutes{server: server}
}

func (gr *GenerateRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(gr.server)
	auth := middleware.AuthMiddleware()

	r.POST("/projects/:projectID/generate/insights", auth, gr.generateInsightsHandler)
	r.POST("/projects/:projectID/generate/positioning", auth, gr.generatePositioningHandler)
	r.POST("/projects/:projectID/generate/asset", auth, gr.generateAssetHandler)
	r.POST("/projects/:projectID/experiments", auth, gr.createExperimentHandler)
}

func projectParam(c *gin.Context) (uuid.UUID, bool) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id."})
		return uuid.Nil, false
	}
	return projectID, true
}

func (gr *GenerateRoutes) generateInsightsHandler(c *gin.Context) {
	membership := currentMembership(c)
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	result, err := gr.server.GetGenerator().GenerateInsights(c.Request.Context(), membership.WorkspaceID, projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wedge": result.Wedge, "clusters": result.Clusters})
}

func (gr *GenerateRoutes) generatePositioningHandler(c *gin.Context) {
	membership := currentMembership(c)
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	positioning, err := gr.server.GetGenerator().GeneratePositioning(c.Request.Context(), membership.WorkspaceID, projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positioning": positioning})
}

func (gr *GenerateRoutes) generateAssetHandler(c *gin.Context) {
	membership := currentMembership(c)
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	var req struct {
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Asset type is required."})
		return
	}
	assetType, ok := models.AsAssetType(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown asset type."})
		return
	}

	asset, err := gr.server.GetGenerator().GenerateAsset(c.Request.Context(), membership.WorkspaceID, projectID, assetType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// createExperimentHandler generates an A/B variant pair and creates a running
// experiment from it.
func (gr *GenerateRoutes) createExperimentHandler(c *gin.Context) {
	membership := currentMembership(c)
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	var req struct {
		Name   string `json:"name"`
		AngleA string `json:"angle_a"`
		AngleB string `json:"angle_b"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request."})
		return
	}

	experiment, err := gr.server.GetGenerator().CreateExperiment(
		c.Request.Context(), membership.WorkspaceID, projectID, req.Name, req.AngleA, req.AngleB)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"experiment": experiment})
}
