package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Asset is one generated marketing asset. At most one asset exists per
// (project, type); generation replaces the previous one of the same type.
type Asset struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Type      AssetType `gorm:"column:type;not null" json:"type"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`

	// Associations
	Items []AssetItem `gorm:"foreignKey:AssetID" json:"items,omitempty"`
}

// TableName specifies the table name for the Asset model
func (Asset) TableName() string {
	return "assets"
}

// AssetItem is one markdown section of an asset.
type AssetItem struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AssetID         uuid.UUID `gorm:"type:uuid;not null;index" json:"asset_id"`
	SectionKey      string    `gorm:"column:section_key;not null" json:"section_key"`
	ContentMarkdown string    `gorm:"column:content_markdown;not null" json:"content_markdown"`
}

// TableName specifies the table name for the AssetItem model
func (AssetItem) TableName() string {
	return "asset_items"
}

// AssetManager provides ORM methods for Asset
type AssetManager struct {
	db *gorm.DB
}

// NewAssetManager creates a new AssetManager instance
func NewAssetManager(db *gorm.DB) *AssetManager {
	return &AssetManager{db: db}
}

// Get retrieves an asset with its items
func (m *AssetManager) Get(id uuid.UUID) (*Asset, error) {
	var asset Asset
	err := m.db.Preload("Items").First(&asset, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// ListForProject retrieves all assets of a project with items, newest first
func (m *AssetManager) ListForProject(projectID uuid.UUID) ([]Asset, error) {
	var assets []Asset
	err := m.db.Preload("Items").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&assets).Error
	return assets, err
}

// Replace deletes any prior asset of the same type for the project and inserts
// the new one with its items, all in one transaction. This is what enforces
// the at-most-one-per-type rule.
func (m *AssetManager) Replace(asset *Asset, items []AssetItem) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var old []Asset
		if err := tx.Where("project_id = ? AND type = ?", asset.ProjectID, asset.Type).Find(&old).Error; err != nil {
			return err
		}
		for _, a := range old {
			if err := tx.Delete(&AssetItem{}, "asset_id = ?", a.ID).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&Asset{}, "project_id = ? AND type = ?", asset.ProjectID, asset.Type).Error; err != nil {
			return err
		}
		if err := tx.Create(asset).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].AssetID = asset.ID
		}
		if len(items) == 0 {
			return nil
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		asset.Items = items
		return nil
	})
}
