package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Workspace is the tenancy boundary. Every entity except User traces back to
// exactly one workspace, directly or via Project.
type Workspace struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name       string     `gorm:"column:name;not null" json:"name"`
	AIProvider AIProvider `gorm:"column:ai_provider;default:'MOCK'" json:"ai_provider"`
	AIModel    string     `gorm:"column:ai_model" json:"ai_model"`
	// AIKey is stored in cleartext; there is no secret vault in this design.
	AIKey     string    `gorm:"column:ai_key" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Associations
	Memberships []Membership      `gorm:"foreignKey:WorkspaceID" json:"memberships,omitempty"`
	Invites     []WorkspaceInvite `gorm:"foreignKey:WorkspaceID" json:"invites,omitempty"`
	Projects    []Project         `gorm:"foreignKey:WorkspaceID" json:"projects,omitempty"`
	Plan        *Plan             `gorm:"foreignKey:WorkspaceID" json:"plan,omitempty"`
}

// TableName specifies the table name for the Workspace model
func (Workspace) TableName() string {
	return "workspaces"
}

// Plan holds the billing tier for a workspace, one row per workspace.
type Plan struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"workspace_id"`
	Tier        PlanTier  `gorm:"column:tier;default:'FREE'" json:"tier"`
	Status      string    `gorm:"column:status;default:'active'" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the Plan model
func (Plan) TableName() string {
	return "plans"
}

// WorkspaceManager provides ORM methods for Workspace
type WorkspaceManager struct {
	db *gorm.DB
}

// NewWorkspaceManager creates a new WorkspaceManager instance
func NewWorkspaceManager(db *gorm.DB) *WorkspaceManager {
	return &WorkspaceManager{db: db}
}

// Get retrieves a workspace by ID
func (m *WorkspaceManager) Get(id uuid.UUID) (*Workspace, error) {
	var workspace Workspace
	err := m.db.First(&workspace, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

// Update updates a workspace
func (m *WorkspaceManager) Update(workspace *Workspace) error {
	return m.db.Save(workspace).Error
}

// GetTier returns the workspace's plan tier, FREE when no plan row exists.
func (m *WorkspaceManager) GetTier(workspaceID uuid.UUID) (PlanTier, error) {
	var plan Plan
	err := m.db.Where("workspace_id = ?", workspaceID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TierFree, nil
	}
	if err != nil {
		return TierFree, err
	}
	return plan.Tier, nil
}

// SetTier upserts the workspace's plan row to the given tier.
func (m *WorkspaceManager) SetTier(workspaceID uuid.UUID, tier PlanTier) error {
	plan := Plan{WorkspaceID: workspaceID, Tier: tier, Status: "active"}
	return m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tier", "updated_at"}),
	}).Create(&plan).Error
}

// CreateWorkspaceWithOwner creates a workspace, an OWNER membership for the
// user, and a FREE plan in one transaction.
func CreateWorkspaceWithOwner(db *gorm.DB, name string, userID uuid.UUID) (*Workspace, error) {
	workspace := &Workspace{Name: name, AIProvider: ProviderMock}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(workspace).Error; err != nil {
			return err
		}
		membership := &Membership{
			WorkspaceID: workspace.ID,
			UserID:      userID,
			Role:        RoleOwner,
		}
		if err := tx.Create(membership).Error; err != nil {
			return err
		}
		plan := &Plan{WorkspaceID: workspace.ID, Tier: TierFree, Status: "active"}
		return tx.Create(plan).Error
	})
	if err != nil {
		return nil, err
	}
	return workspace, nil
}

// OwnerCount returns the number of OWNER memberships in the workspace.
func (w *Workspace) OwnerCount(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Membership{}).
		Where("workspace_id = ? AND role = ?", w.ID, RoleOwner).
		Count(&count).Error
	return count, err
}

// MemberCount returns the number of accepted memberships in the workspace.
// Pending invites never count toward member limits.
func (w *Workspace) MemberCount(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Membership{}).Where("workspace_id = ?", w.ID).Count(&count).Error
	return count, err
}

// HasMemberEmail checks whether an email already maps to a membership here.
func (w *Workspace) HasMemberEmail(db *gorm.DB, email string) (bool, error) {
	var count int64
	err := db.Model(&Membership{}).
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.workspace_id = ? AND users.email = ?", w.ID, NormalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

// GetMembersWithEmails retrieves all memberships with user emails, oldest first.
func (w *Workspace) GetMembersWithEmails(db *gorm.DB) ([]WorkspaceMember, error) {
	var members []WorkspaceMember
	query := `
		SELECT m.id AS membership_id, u.id AS user_id, u.email, m.role, m.created_at AS joined_at
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.workspace_id = ?
		ORDER BY m.created_at ASC
	`
	err := db.Raw(query, w.ID).Scan(&members).Error
	return members, err
}

// WorkspaceMember is a member view with the user's email and role.
type WorkspaceMember struct {
	MembershipID uuid.UUID      `json:"membership_id"`
	UserID       uuid.UUID      `json:"user_id"`
	Email        string         `json:"email"`
	Role         MembershipRole `json:"role"`
	JoinedAt     time.Time      `json:"joined_at"`
}
