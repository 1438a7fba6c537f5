package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account. Email is unique case-insensitively; it is
// normalized to lower case before every read and write.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Associations
	Memberships []Membership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BeforeCreate normalizes the email
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// UserManager provides ORM methods for User
type UserManager struct {
	db *gorm.DB
}

// NewUserManager creates a new UserManager instance
func NewUserManager(db *gorm.DB) *UserManager {
	return &UserManager{db: db}
}

// Create creates a new user
func (m *UserManager) Create(user *User) error {
	return m.db.Create(user).Error
}

// Get retrieves a user by ID
func (m *UserManager) Get(id uuid.UUID) (*User, error) {
	var user User
	err := m.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by normalized email
func (m *UserManager) GetByEmail(email string) (*User, error) {
	var user User
	err := m.db.Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken checks whether an email already has an account
func (m *UserManager) EmailTaken(email string) (bool, error) {
	var count int64
	err := m.db.Model(&User{}).Where("email = ?", NormalizeEmail(email)).Count(&count).Error
	return count > 0, err
}

// GetMemberships retrieves all workspace memberships for the user, oldest first
func (u *User) GetMemberships(db *gorm.DB) ([]Membership, error) {
	var memberships []Membership
	err := db.Where("user_id = ?", u.ID).Order("created_at ASC").Find(&memberships).Error
	return memberships, err
}

// GetWorkspaces retrieves all workspaces the user belongs to, oldest membership first
func (u *User) GetWorkspaces(db *gorm.DB) ([]Workspace, error) {
	var workspaces []Workspace
	err := db.Joins("JOIN memberships ON memberships.workspace_id = workspaces.id").
		Where("memberships.user_id = ?", u.ID).
		Order("memberships.created_at ASC").
		Find(&workspaces).Error
	return workspaces, err
}
