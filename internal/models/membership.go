package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Membership is the (user, workspace, role) relationship. The invariant after
// any mutation: every workspace keeps at least one OWNER.
type Membership struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_workspace" json:"user_id"`
	WorkspaceID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_workspace" json:"workspace_id"`
	Role        MembershipRole `gorm:"column:role;not null;default:'MEMBER'" json:"role"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at" json:"updated_at"`

	// Associations
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
}

// TableName specifies the table name for the Membership model
func (Membership) TableName() string {
	return "memberships"
}

// IsOwner checks if the membership has the OWNER role
func (m *Membership) IsOwner() bool {
	return m.Role == RoleOwner
}

// MembershipManager provides ORM methods for Membership
type MembershipManager struct {
	db *gorm.DB
}

// NewMembershipManager creates a new MembershipManager instance
func NewMembershipManager(db *gorm.DB) *MembershipManager {
	return &MembershipManager{db: db}
}

// Get retrieves a membership by ID scoped to a workspace. Cross-workspace
// lookups report not found rather than leaking other tenants' rows.
func (m *MembershipManager) Get(id, workspaceID uuid.UUID) (*Membership, error) {
	var membership Membership
	err := m.db.Where("id = ? AND workspace_id = ?", id, workspaceID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// GetByUserAndWorkspace retrieves a membership by user and workspace
func (m *MembershipManager) GetByUserAndWorkspace(userID, workspaceID uuid.UUID) (*Membership, error) {
	var membership Membership
	err := m.db.Where("user_id = ? AND workspace_id = ?", userID, workspaceID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// EarliestForUser retrieves the user's oldest membership, used as the default
// active workspace when a session is created without one.
func (m *MembershipManager) EarliestForUser(userID uuid.UUID) (*Membership, error) {
	var membership Membership
	err := m.db.Where("user_id = ?", userID).Order("created_at ASC").First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// lockWorkspaceMemberships takes row locks on all memberships of a workspace
// so owner-count checks and the mutation commit atomically.
func lockWorkspaceMemberships(tx *gorm.DB, workspaceID uuid.UUID) ([]Membership, error) {
	var memberships []Membership
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("workspace_id = ?", workspaceID).
		Find(&memberships).Error
	return memberships, err
}

func ownerCountLocked(memberships []Membership) int {
	owners := 0
	for _, m := range memberships {
		if m.Role == RoleOwner {
			owners++
		}
	}
	return owners
}

// Promote raises a membership to OWNER. Rejects if already OWNER.
func (m *MembershipManager) Promote(membershipID, workspaceID uuid.UUID) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var target Membership
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND workspace_id = ?", membershipID, workspaceID).
			First(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if target.Role == RoleOwner {
			return ErrAlreadyOwner
		}
		return tx.Model(&target).Update("role", RoleOwner).Error
	})
}

// Demote lowers an OWNER membership to MEMBER. The owner count is re-checked
// under row locks inside the same transaction so two concurrent demotions
// cannot strip the last owner.
func (m *MembershipManager) Demote(membershipID, workspaceID uuid.UUID) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		memberships, err := lockWorkspaceMemberships(tx, workspaceID)
		if err != nil {
			return err
		}
		var target *Membership
		for i := range memberships {
			if memberships[i].ID == membershipID {
				target = &memberships[i]
				break
			}
		}
		if target == nil {
			return ErrNotFound
		}
		if target.Role != RoleOwner {
			return ErrNotOwner
		}
		if ownerCountLocked(memberships) <= 1 {
			return ErrLastOwner
		}
		return tx.Model(target).Update("role", RoleMember).Error
	})
}

// Remove deletes a membership. The acting user cannot remove themselves, and
// removing an OWNER is rejected when they are the last one.
func (m *MembershipManager) Remove(membershipID, workspaceID, actingUserID uuid.UUID) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		memberships, err := lockWorkspaceMemberships(tx, workspaceID)
		if err != nil {
			return err
		}
		var target *Membership
		for i := range memberships {
			if memberships[i].ID == membershipID {
				target = &memberships[i]
				break
			}
		}
		if target == nil {
			return ErrNotFound
		}
		if target.UserID == actingUserID {
			return ErrSelfRemove
		}
		if target.Role == RoleOwner && ownerCountLocked(memberships) <= 1 {
			return ErrLastOwner
		}
		return tx.Delete(&Membership{}, "id = ?", target.ID).Error
	})
}

// Leave removes the acting user's own membership. A sole OWNER must transfer
// ownership first.
func (m *MembershipManager) Leave(userID, workspaceID uuid.UUID) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		memberships, err := lockWorkspaceMemberships(tx, workspaceID)
		if err != nil {
			return err
		}
		var own *Membership
		for i := range memberships {
			if memberships[i].UserID == userID {
				own = &memberships[i]
				break
			}
		}
		if own == nil {
			return ErrNotFound
		}
		if own.Role == RoleOwner && ownerCountLocked(memberships) <= 1 {
			return ErrLastOwner
		}
		return tx.Delete(&Membership{}, "id = ?", own.ID).Error
	})
}

// TransferOwnership promotes the target membership to OWNER and optionally
// demotes the acting user, keeping the owner count at one or more throughout.
func (m *MembershipManager) TransferOwnership(targetMembershipID, workspaceID, actingUserID uuid.UUID, demoteSelf bool) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		memberships, err := lockWorkspaceMemberships(tx, workspaceID)
		if err != nil {
			return err
		}
		var target, own *Membership
		for i := range memberships {
			if memberships[i].ID == targetMembershipID {
				target = &memberships[i]
			}
			if memberships[i].UserID == actingUserID {
				own = &memberships[i]
			}
		}
		if target == nil || own == nil {
			return ErrNotFound
		}
		if target.Role != RoleOwner {
			if err := tx.Model(target).Update("role", RoleOwner).Error; err != nil {
				return err
			}
			target.Role = RoleOwner
		}
		// Target is an OWNER at this point, so demoting the acting user
		// cannot drop the owner count below one.
		if demoteSelf && own.ID != target.ID {
			return tx.Model(own).Update("role", RoleMember).Error
		}
		return nil
	})
}

// UpsertMember creates a MEMBER membership or keeps an existing row, used by
// invite acceptance so re-accepting a token stays idempotent.
func (m *MembershipManager) UpsertMember(tx *gorm.DB, userID, workspaceID uuid.UUID) error {
	membership := Membership{UserID: userID, WorkspaceID: workspaceID, Role: RoleMember}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "workspace_id"}},
		DoNothing: true,
	}).Create(&membership).Error
}
