package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestUserEmailNormalization(t *testing.T) {
	email := uniqueEmail("Mixed.Case")
	user := &User{Email: "  " + email + "  ", PasswordHash: "x"}
	if err := testDB.Users.Create(user); err != nil {
		t.Fatalf("could not create user: %v", err)
	}
	if user.Email != NormalizeEmail(email) {
		t.Errorf("expected normalized email %q, got %q", NormalizeEmail(email), user.Email)
	}

	found, err := testDB.Users.GetByEmail("  " + email + "  ")
	if err != nil {
		t.Fatalf("lookup with unnormalized email failed: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, found.ID)
	}

	taken, err := testDB.Users.EmailTaken(email)
	if err != nil {
		t.Fatalf("EmailTaken failed: %v", err)
	}
	if !taken {
		t.Error("expected email to be taken")
	}
}

func TestCreateWorkspaceWithOwner(t *testing.T) {
	user := createTestUser(t, uniqueEmail("owner"))
	workspace := createTestWorkspace(t, "Acme", user)

	membership, err := testDB.Memberships.GetByUserAndWorkspace(user.ID, workspace.ID)
	if err != nil {
		t.Fatalf("expected owner membership: %v", err)
	}
	if membership.Role != RoleOwner {
		t.Errorf("expected OWNER role, got %s", membership.Role)
	}

	tier, err := testDB.Workspaces.GetTier(workspace.ID)
	if err != nil {
		t.Fatalf("GetTier failed: %v", err)
	}
	if tier != TierFree {
		t.Errorf("expected FREE tier for new workspace, got %s", tier)
	}
}

func TestSetTierUpserts(t *testing.T) {
	user := createTestUser(t, uniqueEmail("tier"))
	workspace := createTestWorkspace(t, "Tiered", user)

	if err := testDB.Workspaces.SetTier(workspace.ID, TierTeam); err != nil {
		t.Fatalf("SetTier failed: %v", err)
	}
	if err := testDB.Workspaces.SetTier(workspace.ID, TierAgency); err != nil {
		t.Fatalf("second SetTier failed: %v", err)
	}

	tier, err := testDB.Workspaces.GetTier(workspace.ID)
	if err != nil {
		t.Fatalf("GetTier failed: %v", err)
	}
	if tier != TierAgency {
		t.Errorf("expected AGENCY, got %s", tier)
	}

	var count int64
	if err := testDB.DB.Model(&Plan{}).Where("workspace_id = ?", workspace.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one plan row, got %d", count)
	}
}

func TestPromoteAndDemote(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	member := createTestUser(t, uniqueEmail("member"))
	workspace := createTestWorkspace(t, "Promo", owner)

	if err := testDB.Memberships.UpsertMember(testDB.DB, member.ID, workspace.ID); err != nil {
		t.Fatalf("could not add member: %v", err)
	}
	memberMembership, err := testDB.Memberships.GetByUserAndWorkspace(member.ID, workspace.ID)
	if err != nil {
		t.Fatalf("member lookup failed: %v", err)
	}

	if err := testDB.Memberships.Promote(memberMembership.ID, workspace.ID); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if err := testDB.Memberships.Promote(memberMembership.ID, workspace.ID); !errors.Is(err, ErrAlreadyOwner) {
		t.Errorf("expected ErrAlreadyOwner, got %v", err)
	}

	if err := testDB.Memberships.Demote(memberMembership.ID, workspace.ID); err != nil {
		t.Fatalf("Demote failed: %v", err)
	}
	if err := testDB.Memberships.Demote(memberMembership.ID, workspace.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestDemoteLastOwnerRejected(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("solo-owner"))
	workspace := createTestWorkspace(t, "Solo", owner)

	membership, err := testDB.Memberships.GetByUserAndWorkspace(owner.ID, workspace.ID)
	if err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if err := testDB.Memberships.Demote(membership.ID, workspace.ID); !errors.Is(err, ErrLastOwner) {
		t.Errorf("expected ErrLastOwner, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	member := createTestUser(t, uniqueEmail("member"))
	workspace := createTestWorkspace(t, "Removal", owner)

	if err := testDB.Memberships.UpsertMember(testDB.DB, member.ID, workspace.ID); err != nil {
		t.Fatalf("could not add member: %v", err)
	}
	ownerMembership, _ := testDB.Memberships.GetByUserAndWorkspace(owner.ID, workspace.ID)
	memberMembership, _ := testDB.Memberships.GetByUserAndWorkspace(member.ID, workspace.ID)

	if err := testDB.Memberships.Remove(ownerMembership.ID, workspace.ID, owner.ID); !errors.Is(err, ErrSelfRemove) {
		t.Errorf("expected ErrSelfRemove, got %v", err)
	}

	if err := testDB.Memberships.Remove(memberMembership.ID, workspace.ID, owner.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := testDB.Memberships.GetByUserAndWorkspace(member.ID, workspace.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected membership gone, got %v", err)
	}
}

func TestRemoveLastOwnerRejected(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	member := createTestUser(t, uniqueEmail("member"))
	workspace := createTestWorkspace(t, "LastOwner", owner)

	if err := testDB.Memberships.UpsertMember(testDB.DB, member.ID, workspace.ID); err != nil {
		t.Fatalf("could not add member: %v", err)
	}
	ownerMembership, _ := testDB.Memberships.GetByUserAndWorkspace(owner.ID, workspace.ID)

	if err := testDB.Memberships.Remove(ownerMembership.ID, workspace.ID, member.ID); !errors.Is(err, ErrLastOwner) {
		t.Errorf("expected ErrLastOwner, got %v", err)
	}
}

func TestLeave(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	member := createTestUser(t, uniqueEmail("member"))
	workspace := createTestWorkspace(t, "Leavers", owner)

	if err := testDB.Memberships.UpsertMember(testDB.DB, member.ID, workspace.ID); err != nil {
		t.Fatalf("could not add member: %v", err)
	}

	// Sole owner must transfer first.
	if err := testDB.Memberships.Leave(owner.ID, workspace.ID); !errors.Is(err, ErrLastOwner) {
		t.Errorf("expected ErrLastOwner, got %v", err)
	}

	if err := testDB.Memberships.Leave(member.ID, workspace.ID); err != nil {
		t.Fatalf("member Leave failed: %v", err)
	}
	if _, err := testDB.Memberships.GetByUserAndWorkspace(member.ID, workspace.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected membership gone, got %v", err)
	}
}

func TestTransferOwnership(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	member := createTestUser(t, uniqueEmail("member"))
	workspace := createTestWorkspace(t, "Transfer", owner)

	if err := testDB.Memberships.UpsertMember(testDB.DB, member.ID, workspace.ID); err != nil {
		t.Fatalf("could not add member: %v", err)
	}
	memberMembership, _ := testDB.Memberships.GetByUserAndWorkspace(member.ID, workspace.ID)

	if err := testDB.Memberships.TransferOwnership(memberMembership.ID, workspace.ID, owner.ID, true); err != nil {
		t.Fatalf("TransferOwnership failed: %v", err)
	}

	target, _ := testDB.Memberships.GetByUserAndWorkspace(member.ID, workspace.ID)
	if target.Role != RoleOwner {
		t.Errorf("expected target to be OWNER, got %s", target.Role)
	}
	previous, _ := testDB.Memberships.GetByUserAndWorkspace(owner.ID, workspace.ID)
	if previous.Role != RoleMember {
		t.Errorf("expected previous owner demoted to MEMBER, got %s", previous.Role)
	}

	// Former owner can now leave.
	if err := testDB.Memberships.Leave(owner.ID, workspace.ID); err != nil {
		t.Errorf("Leave after transfer failed: %v", err)
	}
}

func TestTransferOwnershipWithoutDemote(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	member := createTestUser(t, uniqueEmail("member"))
	workspace := createTestWorkspace(t, "CoOwners", owner)

	if err := testDB.Memberships.UpsertMember(testDB.DB, member.ID, workspace.ID); err != nil {
		t.Fatalf("could not add member: %v", err)
	}
	memberMembership, _ := testDB.Memberships.GetByUserAndWorkspace(member.ID, workspace.ID)

	if err := testDB.Memberships.TransferOwnership(memberMembership.ID, workspace.ID, owner.ID, false); err != nil {
		t.Fatalf("TransferOwnership failed: %v", err)
	}

	ws := Workspace{ID: workspace.ID}
	owners, err := ws.OwnerCount(testDB.DB)
	if err != nil {
		t.Fatalf("OwnerCount failed: %v", err)
	}
	if owners != 2 {
		t.Errorf("expected 2 owners, got %d", owners)
	}
}

func TestGetMembersWithEmails(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	member := createTestUser(t, uniqueEmail("member"))
	workspace := createTestWorkspace(t, "Roster", owner)

	if err := testDB.Memberships.UpsertMember(testDB.DB, member.ID, workspace.ID); err != nil {
		t.Fatalf("could not add member: %v", err)
	}

	ws := Workspace{ID: workspace.ID}
	members, err := ws.GetMembersWithEmails(testDB.DB)
	if err != nil {
		t.Fatalf("GetMembersWithEmails failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	// Oldest first: the owner joined at workspace creation.
	if members[0].UserID != owner.ID || members[0].Role != RoleOwner {
		t.Errorf("expected owner first, got %+v", members[0])
	}
	if members[1].Email != member.Email {
		t.Errorf("expected member email %q, got %q", member.Email, members[1].Email)
	}
}

func TestMembershipGetScopedToWorkspace(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	other := createTestUser(t, uniqueEmail("other"))
	workspace := createTestWorkspace(t, "Scoped", owner)
	otherWorkspace := createTestWorkspace(t, "Other", other)

	membership, _ := testDB.Memberships.GetByUserAndWorkspace(owner.ID, workspace.ID)
	if _, err := testDB.Memberships.Get(membership.ID, otherWorkspace.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected cross-workspace lookup to be not found, got %v", err)
	}
}

func TestEarliestForUser(t *testing.T) {
	user := createTestUser(t, uniqueEmail("multi"))
	first := createTestWorkspace(t, "First", user)
	createTestWorkspace(t, "Second", user)

	earliest, err := testDB.Memberships.EarliestForUser(user.ID)
	if err != nil {
		t.Fatalf("EarliestForUser failed: %v", err)
	}
	if earliest.WorkspaceID != first.ID {
		t.Errorf("expected earliest workspace %s, got %s", first.ID, earliest.WorkspaceID)
	}

	if _, err := testDB.Memberships.EarliestForUser(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for user without memberships, got %v", err)
	}
}
