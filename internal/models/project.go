package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Project is a launch project inside a workspace. It owns sources, clusters,
// positioning, assets, and experiments.
type Project struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID    uuid.UUID `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	NicheKeywords  string    `gorm:"column:niche_keywords;not null" json:"niche_keywords"`
	ICPGuess       string    `gorm:"column:icp_guess" json:"icp_guess"`
	CompetitorURLs string    `gorm:"column:competitor_urls" json:"competitor_urls"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Associations
	Sources     []Source         `gorm:"foreignKey:ProjectID" json:"sources,omitempty"`
	Clusters    []InsightCluster `gorm:"foreignKey:ProjectID" json:"clusters,omitempty"`
	Positioning *Positioning     `gorm:"foreignKey:ProjectID" json:"positioning,omitempty"`
	Assets      []Asset          `gorm:"foreignKey:ProjectID" json:"assets,omitempty"`
	Experiments []Experiment     `gorm:"foreignKey:ProjectID" json:"experiments,omitempty"`
}

// TableName specifies the table name for the Project model
func (Project) TableName() string {
	return "projects"
}

// Source is raw pasted research input, append-only from the UI.
type Source struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	Type      SourceType `gorm:"column:type;not null;default:'NOTES'" json:"type"`
	Title     string     `gorm:"column:title;not null" json:"title"`
	Content   string     `gorm:"column:content;not null" json:"content"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for the Source model
func (Source) TableName() string {
	return "sources"
}

// InsightCluster is one pain cluster produced by insight generation. The set
// for a project is fully replaced on each generation, never merged.
type InsightCluster struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID       uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Label           string    `gorm:"column:label;not null" json:"label"`
	Summary         string    `gorm:"column:summary;not null" json:"summary"`
	Who             string    `gorm:"column:who" json:"who"`
	Severity        int       `gorm:"column:severity;not null" json:"severity"`
	Frequency       int       `gorm:"column:frequency;not null" json:"frequency"`
	EvidenceJSON    string    `gorm:"column:evidence_json" json:"evidence_json"`
	WorkaroundsJSON string    `gorm:"column:workarounds_json" json:"workarounds_json"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for the InsightCluster model
func (InsightCluster) TableName() string {
	return "insight_clusters"
}

// Positioning holds a project's positioning output, one row per project,
// replaced in place on each generation. Structured parts live in JSON blobs.
type Positioning struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID           uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"project_id"`
	ICPJSON             string    `gorm:"column:icp_json" json:"icp_json"`
	ProblemStatement    string    `gorm:"column:problem_statement" json:"problem_statement"`
	ValueProp           string    `gorm:"column:value_prop" json:"value_prop"`
	WhyNowJSON          string    `gorm:"column:why_now_json" json:"why_now_json"`
	DifferentiatorsJSON string    `gorm:"column:differentiators_json" json:"differentiators_json"`
	ObjectionsJSON      string    `gorm:"column:objections_json" json:"objections_json"`
	OptionsJSON         string    `gorm:"column:options_json" json:"options_json"`
	RecommendedAngle    string    `gorm:"column:recommended_angle" json:"recommended_angle"`
	PricingJSON         string    `gorm:"column:pricing_json" json:"pricing_json"`
	OfferJSON           string    `gorm:"column:offer_json" json:"offer_json"`
	CreatedAt           time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the Positioning model
func (Positioning) TableName() string {
	return "positionings"
}

// ProjectManager provides ORM methods for Project and its owned rows
type ProjectManager struct {
	db *gorm.DB
}

// NewProjectManager creates a new ProjectManager instance
func NewProjectManager(db *gorm.DB) *ProjectManager {
	return &ProjectManager{db: db}
}

// Create creates a new project
func (m *ProjectManager) Create(project *Project) error {
	return m.db.Create(project).Error
}

// Get retrieves a project by ID scoped to a workspace. Projects in other
// workspaces report not found.
func (m *ProjectManager) Get(id, workspaceID uuid.UUID) (*Project, error) {
	var project Project
	err := m.db.Where("id = ? AND workspace_id = ?", id, workspaceID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetDetailed retrieves a project with all owned rows preloaded
func (m *ProjectManager) GetDetailed(id, workspaceID uuid.UUID) (*Project, error) {
	var project Project
	err := m.db.Where("id = ? AND workspace_id = ?", id, workspaceID).
		Preload("Sources", func(db *gorm.DB) *gorm.DB { return db.Order("sources.created_at ASC") }).
		Preload("Clusters").
		Preload("Positioning").
		Preload("Assets.Items").
		Preload("Experiments.Variants").
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListForWorkspace retrieves all projects in a workspace, newest first
func (m *ProjectManager) ListForWorkspace(workspaceID uuid.UUID) ([]Project, error) {
	var projects []Project
	err := m.db.Where("workspace_id = ?", workspaceID).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// CountForWorkspace counts projects in a workspace for entitlement checks
func (m *ProjectManager) CountForWorkspace(workspaceID uuid.UUID) (int64, error) {
	var count int64
	err := m.db.Model(&Project{}).Where("workspace_id = ?", workspaceID).Count(&count).Error
	return count, err
}

// AddSource appends a research source to the project
func (m *ProjectManager) AddSource(source *Source) error {
	return m.db.Create(source).Error
}

// ReplaceClusters atomically swaps the project's cluster set: the previous
// clusters are deleted and the new ones inserted in one transaction, so no
// reader observes an empty intermediate state.
func (m *ProjectManager) ReplaceClusters(projectID uuid.UUID, clusters []InsightCluster) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&InsightCluster{}, "project_id = ?", projectID).Error; err != nil {
			return err
		}
		for i := range clusters {
			clusters[i].ProjectID = projectID
		}
		if len(clusters) == 0 {
			return nil
		}
		return tx.Create(&clusters).Error
	})
}

// UpsertPositioning replaces the project's positioning row in place
func (m *ProjectManager) UpsertPositioning(pos *Positioning) error {
	return m.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"icp_json", "problem_statement", "value_prop", "why_now_json",
			"differentiators_json", "objections_json", "options_json",
			"recommended_angle", "pricing_json", "offer_json", "updated_at",
		}),
	}).Create(pos).Error
}
