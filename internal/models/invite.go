package models

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InviteTTL is how long an invite (or a refresh of one) stays acceptable.
const InviteTTL = 7 * 24 * time.Hour

// WorkspaceInvite is an invitation to join a workspace, tied to an email and
// an unguessable token. Expiry is derived from ExpiresAt, never stored as a
// status; revocation deletes the row.
type WorkspaceInvite struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID uuid.UUID      `gorm:"type:uuid;not null" json:"workspace_id"`
	Email       string         `gorm:"column:email;not null" json:"email"`
	Role        MembershipRole `gorm:"column:role;not null;default:'MEMBER'" json:"role"`
	Token       string         `gorm:"column:token;uniqueIndex;not null" json:"token"`
	ExpiresAt   time.Time      `gorm:"column:expires_at;not null" json:"expires_at"`
	AcceptedAt  *time.Time     `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at" json:"updated_at"`

	// Associations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
}

// TableName specifies the table name for the WorkspaceInvite model
func (WorkspaceInvite) TableName() string {
	return "workspace_invites"
}

// BeforeCreate generates the token and default expiry
func (wi *WorkspaceInvite) BeforeCreate(tx *gorm.DB) error {
	if wi.Token == "" {
		tokenBytes := make([]byte, 24)
		if _, err := rand.Read(tokenBytes); err != nil {
			return err
		}
		wi.Token = hex.EncodeToString(tokenBytes)
	}
	if wi.ExpiresAt.IsZero() {
		wi.ExpiresAt = time.Now().Add(InviteTTL)
	}
	wi.Email = NormalizeEmail(wi.Email)
	return nil
}

// IsExpired reports whether the invite can no longer be accepted.
func (wi *WorkspaceInvite) IsExpired() bool {
	return !time.Now().Before(wi.ExpiresAt)
}

// IsAccepted reports whether the invite has already been used.
func (wi *WorkspaceInvite) IsAccepted() bool {
	return wi.AcceptedAt != nil
}

// InviteManager provides ORM methods for WorkspaceInvite
type InviteManager struct {
	db *gorm.DB
}

// NewInviteManager creates a new InviteManager instance
func NewInviteManager(db *gorm.DB) *InviteManager {
	return &InviteManager{db: db}
}

// Get retrieves an invite by ID scoped to a workspace
func (m *InviteManager) Get(id, workspaceID uuid.UUID) (*WorkspaceInvite, error) {
	var invite WorkspaceInvite
	err := m.db.Where("id = ? AND workspace_id = ?", id, workspaceID).First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// GetByToken retrieves an invite by its token
func (m *InviteManager) GetByToken(token string) (*WorkspaceInvite, error) {
	var invite WorkspaceInvite
	err := m.db.Where("token = ?", token).First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInviteInvalid
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// PendingForWorkspace retrieves unaccepted, unexpired invites, newest first.
func (m *InviteManager) PendingForWorkspace(workspaceID uuid.UUID) ([]WorkspaceInvite, error) {
	var invites []WorkspaceInvite
	err := m.db.Where("workspace_id = ? AND accepted_at IS NULL AND expires_at > ?", workspaceID, time.Now()).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

// CreateResult says whether Create made a new invite or refreshed a pending one.
type CreateResult struct {
	Invite    *WorkspaceInvite
	Refreshed bool
}

// Create makes an invite for an email, idempotently by email: an existing
// pending invite is refreshed (expiry extended, same token) instead of
// duplicated. canInvite runs only when a new invite row would be created;
// refreshing never consumes member headroom. A nil tx is passed to the
// callback since no membership row is written here. Membership conflicts are
// rejected here.
func (m *InviteManager) Create(workspaceID uuid.UUID, email string, canInvite func(tx *gorm.DB, workspaceID uuid.UUID) error) (*CreateResult, error) {
	email = NormalizeEmail(email)

	workspace := Workspace{ID: workspaceID}
	isMember, err := workspace.HasMemberEmail(m.db, email)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, ErrAlreadyMember
	}

	var existing WorkspaceInvite
	err = m.db.Where("workspace_id = ? AND email = ? AND accepted_at IS NULL AND expires_at > ?",
		workspaceID, email, time.Now()).First(&existing).Error
	if err == nil {
		if err := m.Refresh(&existing); err != nil {
			return nil, err
		}
		return &CreateResult{Invite: &existing, Refreshed: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if canInvite != nil {
		if err := canInvite(nil, workspaceID); err != nil {
			return nil, err
		}
	}

	invite := &WorkspaceInvite{
		WorkspaceID: workspaceID,
		Email:       email,
		Role:        RoleMember,
		ExpiresAt:   time.Now().Add(InviteTTL),
	}
	if err := m.db.Create(invite).Error; err != nil {
		return nil, err
	}
	return &CreateResult{Invite: invite}, nil
}

// Refresh extends an invite's expiry by the full TTL without rotating the
// token, so previously sent links stay valid.
func (m *InviteManager) Refresh(invite *WorkspaceInvite) error {
	if invite.IsAccepted() {
		return ErrInviteInvalid
	}
	invite.ExpiresAt = time.Now().Add(InviteTTL)
	return m.db.Model(invite).Update("expires_at", invite.ExpiresAt).Error
}

// Revoke hard-deletes an invite regardless of state.
func (m *InviteManager) Revoke(id uuid.UUID) error {
	return m.db.Delete(&WorkspaceInvite{}, "id = ?", id).Error
}

// Accept redeems an invite token for a user. Already-accepted invites return
// the workspace without error; expired tokens and email mismatches fail. The
// member-limit check runs again at accept time via canJoin, since limits may
// have tightened since the invite was created. canJoin receives the accepting
// transaction so the count and the membership insert commit atomically; two
// concurrent accepts serialize on the workspace lock the checker takes, and
// the loser is rejected when only one seat was free.
func (m *InviteManager) Accept(token string, user *User, canJoin func(tx *gorm.DB, workspaceID uuid.UUID) error) (uuid.UUID, error) {
	invite, err := m.GetByToken(token)
	if err != nil {
		return uuid.Nil, err
	}
	if invite.IsAccepted() {
		return invite.WorkspaceID, nil
	}
	if invite.IsExpired() {
		return uuid.Nil, ErrInviteExpired
	}
	if NormalizeEmail(user.Email) != invite.Email {
		return uuid.Nil, ErrEmailMismatch
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if canJoin != nil {
			if err := canJoin(tx, invite.WorkspaceID); err != nil {
				return err
			}
		}
		members := NewMembershipManager(tx)
		if err := members.UpsertMember(tx, user.ID, invite.WorkspaceID); err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(invite).Update("accepted_at", now).Error
	})
	if err != nil {
		return uuid.Nil, err
	}
	return invite.WorkspaceID, nil
}
