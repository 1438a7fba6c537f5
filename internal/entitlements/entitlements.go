// Package entitlements enforces the per-tier plan limits. Every check reads
// current usage from the database and compares it against the tier's ceiling,
// so limits apply immediately after an up- or downgrade.
package entitlements

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"launchos/internal/models"
)

// Limits describes the ceilings a plan tier grants.
type Limits struct {
	MaxProjects            int64 `json:"max_projects"`
	MaxGenerationsPerMonth int64 `json:"max_generations_per_month"`
	MaxExperiments         int64 `json:"max_experiments"`
	MaxMembers             int64 `json:"max_members"`
}

var limitsByTier = map[models.PlanTier]Limits{
	models.TierFree:   {MaxProjects: 1, MaxGenerationsPerMonth: 10, MaxExperiments: 0, MaxMembers: 1},
	models.TierSolo:   {MaxProjects: 3, MaxGenerationsPerMonth: 100, MaxExperiments: 3, MaxMembers: 1},
	models.TierTeam:   {MaxProjects: 10, MaxGenerationsPerMonth: 500, MaxExperiments: 20, MaxMembers: 3},
	models.TierAgency: {MaxProjects: 50, MaxGenerationsPerMonth: 3000, MaxExperiments: 10000, MaxMembers: 10},
}

// LimitsFor returns the limits for a tier. Unknown tiers get FREE limits.
func LimitsFor(tier models.PlanTier) Limits {
	if l, ok := limitsByTier[tier]; ok {
		return l
	}
	return limitsByTier[models.TierFree]
}

// PlanLimitError reports that an operation would exceed a plan ceiling.
type PlanLimitError struct {
	Tier  models.PlanTier
	Limit string
	Max   int64
}

func (e *PlanLimitError) Error() string {
	return fmt.Sprintf("plan %s limit reached: %s (max %d)", e.Tier, e.Limit, e.Max)
}

// Checker answers "may this workspace do X right now" questions.
type Checker struct {
	db *models.DB
}

// NewChecker creates a new entitlement checker
func NewChecker(db *models.DB) *Checker {
	return &Checker{db: db}
}

// handle returns the DB handle a check runs on: the caller's transaction when
// one is given, the checker's own connection otherwise.
func (c *Checker) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db.DB
}

// lockWorkspace takes a row lock on the workspace. Concurrent checks inside
// transactions serialize on it, so two of them cannot both read the same
// pre-commit count and both pass.
func lockWorkspace(tx *gorm.DB, workspaceID uuid.UUID) error {
	var workspace models.Workspace
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", workspaceID).First(&workspace).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return err
}

func (c *Checker) limits(db *gorm.DB, workspaceID uuid.UUID) (models.PlanTier, Limits, error) {
	tier, err := models.NewWorkspaceManager(db).GetTier(workspaceID)
	if err != nil {
		return "", Limits{}, err
	}
	return tier, LimitsFor(tier), nil
}

// CanCreateProject checks the project ceiling for a workspace
func (c *Checker) CanCreateProject(workspaceID uuid.UUID) error {
	tier, limits, err := c.limits(c.db.DB, workspaceID)
	if err != nil {
		return err
	}
	count, err := c.db.Projects.CountForWorkspace(workspaceID)
	if err != nil {
		return err
	}
	if count >= limits.MaxProjects {
		return &PlanLimitError{Tier: tier, Limit: "maxProjects", Max: limits.MaxProjects}
	}
	return nil
}

// CanGenerate checks the monthly generation quota. The window is the current
// UTC calendar month. With a nil tx this is an advisory pre-check; run inside
// the persisting transaction it takes the workspace lock first, so concurrent
// generations at the ceiling serialize and the losers are rejected before
// writing anything.
func (c *Checker) CanGenerate(tx *gorm.DB, workspaceID uuid.UUID, now time.Time) error {
	if tx != nil {
		if err := lockWorkspace(tx, workspaceID); err != nil {
			return err
		}
	}
	db := c.handle(tx)
	tier, limits, err := c.limits(db, workspaceID)
	if err != nil {
		return err
	}
	start, end := MonthBounds(now)
	count, err := models.NewExperimentManager(db).CountGenerationsBetween(workspaceID, start, end)
	if err != nil {
		return err
	}
	if count >= limits.MaxGenerationsPerMonth {
		return &PlanLimitError{Tier: tier, Limit: "maxGenerationsPerMonth", Max: limits.MaxGenerationsPerMonth}
	}
	return nil
}

// CanCreateExperiment checks the per-project experiment ceiling
func (c *Checker) CanCreateExperiment(workspaceID, projectID uuid.UUID) error {
	tier, limits, err := c.limits(c.db.DB, workspaceID)
	if err != nil {
		return err
	}
	count, err := c.db.Experiments.CountForProject(projectID)
	if err != nil {
		return err
	}
	if count >= limits.MaxExperiments {
		return &PlanLimitError{Tier: tier, Limit: "maxExperiments", Max: limits.MaxExperiments}
	}
	return nil
}

// CanAddMember checks the member ceiling. Pending invites do not count toward
// it; only accepted memberships do. Run inside the accepting transaction it
// takes the workspace lock first, so two concurrent accepts cannot both
// squeeze into the last seat.
func (c *Checker) CanAddMember(tx *gorm.DB, workspaceID uuid.UUID) error {
	if tx != nil {
		if err := lockWorkspace(tx, workspaceID); err != nil {
			return err
		}
	}
	db := c.handle(tx)
	tier, limits, err := c.limits(db, workspaceID)
	if err != nil {
		return err
	}
	workspace := &models.Workspace{ID: workspaceID}
	count, err := workspace.MemberCount(db)
	if err != nil {
		return err
	}
	if count >= limits.MaxMembers {
		return &PlanLimitError{Tier: tier, Limit: "maxMembers", Max: limits.MaxMembers}
	}
	return nil
}

// MonthBounds returns [start, end) of the UTC calendar month containing t.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
