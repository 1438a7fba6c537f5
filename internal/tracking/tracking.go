// Package tracking records public experiment events and aggregates per-variant
// conversion stats.
package tracking

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"launchos/internal/models"
)

// Service handles event ingestion from public variant links.
type Service struct {
	db     *models.DB
	logger *zap.Logger
}

// NewService creates a tracking service
func NewService(db *models.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Record appends one event for a variant. The workspace, project, and
// experiment IDs are resolved from the variant and denormalized onto the row.
// A SIGNUP with an email also inserts a lead, in the same transaction as the
// event so the two never diverge.
func (s *Service) Record(variantID uuid.UUID, eventType models.EventType, email string) error {
	workspaceID, projectID, experimentID, err := s.db.Experiments.ResolveVariantChain(variantID)
	if err != nil {
		return err
	}

	email = strings.TrimSpace(email)
	metaJSON := ""
	if email != "" {
		b, merr := json.Marshal(map[string]string{"email": email})
		if merr != nil {
			return merr
		}
		metaJSON = string(b)
	}

	event := &models.Event{
		WorkspaceID:  workspaceID,
		ProjectID:    &projectID,
		ExperimentID: &experimentID,
		VariantID:    &variantID,
		Type:         eventType,
		MetaJSON:     metaJSON,
	}

	return s.db.Transaction(func(tx *models.DB) error {
		if err := tx.Experiments.RecordEvent(event); err != nil {
			return err
		}
		if eventType == models.EventSignup && email != "" {
			lead := &models.Lead{ProjectID: projectID, VariantID: variantID, Email: email}
			if err := tx.Create(lead).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Stats returns per-variant conversion numbers for an experiment scoped to a
// workspace. Experiments outside the workspace report not found.
func (s *Service) Stats(workspaceID, experimentID uuid.UUID) ([]models.VariantStats, error) {
	var experiment models.Experiment
	err := s.db.Preload("Project").First(&experiment, "id = ?", experimentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if experiment.Project.WorkspaceID != workspaceID {
		return nil, models.ErrNotFound
	}
	return s.db.Experiments.StatsForExperiment(experimentID)
}
