// Package models provides the GORM-based data layer: one model plus a
// Manager per entity, aggregated behind DB.
package models

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection and all model managers
type DB struct {
	*gorm.DB
	Users       *UserManager
	Workspaces  *WorkspaceManager
	Memberships *MembershipManager
	Invites     *InviteManager
	Projects    *ProjectManager
	Assets      *AssetManager
	Experiments *ExperimentManager
}

// NewDB creates a new database connection and initializes all managers
func NewDB() (*DB, error) {
	dsn := os.Getenv("DB_STRING")
	if dsn == "" {
		return nil, fmt.Errorf("DB_STRING environment variable not set")
	}
	return NewDBFromDSN(dsn)
}

// NewDBFromDSN creates a database connection from an explicit DSN, used by
// tests that point at a container.
func NewDBFromDSN(dsn string) (*DB, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	gormDB, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return wrap(gormDB), nil
}

func wrap(gormDB *gorm.DB) *DB {
	return &DB{
		DB:          gormDB,
		Users:       NewUserManager(gormDB),
		Workspaces:  NewWorkspaceManager(gormDB),
		Memberships: NewMembershipManager(gormDB),
		Invites:     NewInviteManager(gormDB),
		Projects:    NewProjectManager(gormDB),
		Assets:      NewAssetManager(gormDB),
		Experiments: NewExperimentManager(gormDB),
	}
}

// AutoMigrate runs GORM auto-migration for all models
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&User{},
		&Workspace{},
		&Plan{},
		&Membership{},
		&WorkspaceInvite{},
		&Project{},
		&Source{},
		&InsightCluster{},
		&Positioning{},
		&Asset{},
		&AssetItem{},
		&Experiment{},
		&Variant{},
		&Event{},
		&Lead{},
	)
}

// Transaction runs a function within a database transaction
func (db *DB) Transaction(fn func(*DB) error) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		return fn(wrap(tx))
	})
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
