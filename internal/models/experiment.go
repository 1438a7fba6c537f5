package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Experiment is an A/B test on a project. It owns exactly two variants keyed
// "A" and "B".
type Experiment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Status    string    `gorm:"column:status;default:'running'" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`

	// Associations
	Variants []Variant `gorm:"foreignKey:ExperimentID" json:"variants,omitempty"`
	Project  Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// TableName specifies the table name for the Experiment model
func (Experiment) TableName() string {
	return "experiments"
}

// Variant is one arm of an experiment, exposed via a public link.
type Variant struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ExperimentID        uuid.UUID `gorm:"type:uuid;not null;index" json:"experiment_id"`
	Key                 string    `gorm:"column:key;not null" json:"key"`
	Headline            string    `gorm:"column:headline;not null" json:"headline"`
	Subhead             string    `gorm:"column:subhead" json:"subhead"`
	CTA                 string    `gorm:"column:cta" json:"cta"`
	LandingCopyMarkdown string    `gorm:"column:landing_copy_markdown" json:"landing_copy_markdown"`

	// Associations
	Experiment Experiment `gorm:"foreignKey:ExperimentID" json:"experiment,omitempty"`
}

// TableName specifies the table name for the Variant model
func (Variant) TableName() string {
	return "variants"
}

// Event is the append-only usage and analytics log. Workspace, project, and
// experiment IDs are denormalized onto the row so reads avoid joins.
type Event struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_events_workspace_type_created" json:"workspace_id"`
	ProjectID    *uuid.UUID `gorm:"type:uuid" json:"project_id,omitempty"`
	ExperimentID *uuid.UUID `gorm:"type:uuid" json:"experiment_id,omitempty"`
	VariantID    *uuid.UUID `gorm:"type:uuid;index" json:"variant_id,omitempty"`
	Type         EventType  `gorm:"column:type;not null;index:idx_events_workspace_type_created" json:"type"`
	MetaJSON     string     `gorm:"column:meta_json" json:"meta_json,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;index:idx_events_workspace_type_created" json:"created_at"`
}

// TableName specifies the table name for the Event model
func (Event) TableName() string {
	return "events"
}

// Lead is a captured signup, kept separate from events for query convenience.
// Leads are the canonical source for signup counts; SIGNUP events are audit
// records only.
type Lead struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	VariantID uuid.UUID `gorm:"type:uuid;not null;index" json:"variant_id"`
	Email     string    `gorm:"column:email;not null" json:"email"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for the Lead model
func (Lead) TableName() string {
	return "leads"
}

// ExperimentManager provides ORM methods for Experiment, Variant, Event, Lead
type ExperimentManager struct {
	db *gorm.DB
}

// NewExperimentManager creates a new ExperimentManager instance
func NewExperimentManager(db *gorm.DB) *ExperimentManager {
	return &ExperimentManager{db: db}
}

// CreateWithVariants creates an experiment and its variants in one transaction
func (m *ExperimentManager) CreateWithVariants(experiment *Experiment, variants []Variant) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(experiment).Error; err != nil {
			return err
		}
		for i := range variants {
			variants[i].ExperimentID = experiment.ID
		}
		if err := tx.Create(&variants).Error; err != nil {
			return err
		}
		experiment.Variants = variants
		return nil
	})
}

// CountForProject counts experiments on a project for entitlement checks
func (m *ExperimentManager) CountForProject(projectID uuid.UUID) (int64, error) {
	var count int64
	err := m.db.Model(&Experiment{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

// GetVariant retrieves a variant by ID
func (m *ExperimentManager) GetVariant(id uuid.UUID) (*Variant, error) {
	var variant Variant
	err := m.db.First(&variant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// ResolveVariantChain walks variant -> experiment -> project and returns the
// denormalized IDs used to stamp event rows.
func (m *ExperimentManager) ResolveVariantChain(variantID uuid.UUID) (workspaceID, projectID, experimentID uuid.UUID, err error) {
	var variant Variant
	err = m.db.Preload("Experiment.Project").First(&variant, "id = ?", variantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, uuid.Nil, uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}
	return variant.Experiment.Project.WorkspaceID, variant.Experiment.ProjectID, variant.ExperimentID, nil
}

// RecordEvent appends an event row
func (m *ExperimentManager) RecordEvent(event *Event) error {
	return m.db.Create(event).Error
}

// CountGenerationsBetween counts GENERATION events in [start, end) for quota
// enforcement.
func (m *ExperimentManager) CountGenerationsBetween(workspaceID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := m.db.Model(&Event{}).
		Where("workspace_id = ? AND type = ? AND created_at >= ? AND created_at < ?",
			workspaceID, EventGeneration, start, end).
		Count(&count).Error
	return count, err
}

// VariantStats is the aggregated conversion view for one variant.
type VariantStats struct {
	VariantID  uuid.UUID `json:"variant_id"`
	Key        string    `json:"key"`
	Views      int64     `json:"views"`
	CTAs       int64     `json:"ctas"`
	Signups    int64     `json:"signups"`
	CTARate    float64   `json:"cta_rate"`
	SignupRate float64   `json:"signup_rate"`
}

// StatsForExperiment aggregates per-variant conversion numbers. Views and CTA
// clicks come from events; signups come from leads.
func (m *ExperimentManager) StatsForExperiment(experimentID uuid.UUID) ([]VariantStats, error) {
	var variants []Variant
	if err := m.db.Where("experiment_id = ?", experimentID).Order("key ASC").Find(&variants).Error; err != nil {
		return nil, err
	}

	stats := make([]VariantStats, 0, len(variants))
	for _, v := range variants {
		s := VariantStats{VariantID: v.ID, Key: v.Key}
		if err := m.db.Model(&Event{}).
			Where("variant_id = ? AND type = ?", v.ID, EventView).
			Count(&s.Views).Error; err != nil {
			return nil, err
		}
		if err := m.db.Model(&Event{}).
			Where("variant_id = ? AND type = ?", v.ID, EventCTA).
			Count(&s.CTAs).Error; err != nil {
			return nil, err
		}
		if err := m.db.Model(&Lead{}).
			Where("variant_id = ?", v.ID).
			Count(&s.Signups).Error; err != nil {
			return nil, err
		}
		if s.Views > 0 {
			s.CTARate = float64(s.CTAs) / float64(s.Views)
			s.SignupRate = float64(s.Signups) / float64(s.Views)
		}
		stats = append(stats, s)
	}
	return stats, nil
}
