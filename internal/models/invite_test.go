package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestInviteCreateAndRefresh(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	workspace := createTestWorkspace(t, "Invites", owner)
	email := uniqueEmail("invitee")

	result, err := testDB.Invites.Create(workspace.ID, email, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if result.Refreshed {
		t.Error("first invite should not be a refresh")
	}
	if result.Invite.Token == "" {
		t.Error("expected a generated token")
	}
	if result.Invite.Email != NormalizeEmail(email) {
		t.Errorf("expected normalized email, got %q", result.Invite.Email)
	}

	// Re-inviting the same email refreshes the pending invite and keeps the
	// token, so the first link stays valid.
	again, err := testDB.Invites.Create(workspace.ID, email, nil)
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if !again.Refreshed {
		t.Error("expected a refresh for the same email")
	}
	if again.Invite.Token != result.Invite.Token {
		t.Error("refresh must not rotate the token")
	}
	if again.Invite.ID != result.Invite.ID {
		t.Error("refresh must reuse the invite row")
	}
}

func TestInviteCreateRejectsExistingMember(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	workspace := createTestWorkspace(t, "Members", owner)

	if _, err := testDB.Invites.Create(workspace.ID, owner.Email, nil); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestInviteLimitCheckedOnlyForNewInvites(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	workspace := createTestWorkspace(t, "Limited", owner)
	email := uniqueEmail("invitee")

	if _, err := testDB.Invites.Create(workspace.ID, email, nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	limitErr := errors.New("limit reached")
	deny := func(*gorm.DB, uuid.UUID) error { return limitErr }

	// Refreshing the pending invite never consumes headroom.
	result, err := testDB.Invites.Create(workspace.ID, email, deny)
	if err != nil {
		t.Fatalf("refresh should bypass the limit check: %v", err)
	}
	if !result.Refreshed {
		t.Error("expected a refresh")
	}

	// A new email does hit the check.
	if _, err := testDB.Invites.Create(workspace.ID, uniqueEmail("blocked"), deny); !errors.Is(err, limitErr) {
		t.Errorf("expected limit error for new invite, got %v", err)
	}
}

func TestInviteAccept(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	workspace := createTestWorkspace(t, "Joinable", owner)
	email := uniqueEmail("invitee")
	invitee := createTestUser(t, email)

	result, err := testDB.Invites.Create(workspace.ID, email, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	workspaceID, err := testDB.Invites.Accept(result.Invite.Token, invitee, nil)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if workspaceID != workspace.ID {
		t.Errorf("expected workspace %s, got %s", workspace.ID, workspaceID)
	}

	membership, err := testDB.Memberships.GetByUserAndWorkspace(invitee.ID, workspace.ID)
	if err != nil {
		t.Fatalf("expected membership after accept: %v", err)
	}
	if membership.Role != RoleMember {
		t.Errorf("expected MEMBER role, got %s", membership.Role)
	}

	// Re-accepting is idempotent.
	workspaceID, err = testDB.Invites.Accept(result.Invite.Token, invitee, nil)
	if err != nil {
		t.Fatalf("re-accept failed: %v", err)
	}
	if workspaceID != workspace.ID {
		t.Errorf("expected workspace %s on re-accept, got %s", workspace.ID, workspaceID)
	}
}

func TestInviteAcceptEmailMismatch(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	workspace := createTestWorkspace(t, "Strict", owner)
	stranger := createTestUser(t, uniqueEmail("stranger"))

	result, err := testDB.Invites.Create(workspace.ID, uniqueEmail("invitee"), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := testDB.Invites.Accept(result.Invite.Token, stranger, nil); !errors.Is(err, ErrEmailMismatch) {
		t.Errorf("expected ErrEmailMismatch, got %v", err)
	}
}

func TestInviteAcceptExpired(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	workspace := createTestWorkspace(t, "Stale", owner)
	email := uniqueEmail("late")
	invitee := createTestUser(t, email)

	result, err := testDB.Invites.Create(workspace.ID, email, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	expired := time.Now().Add(-time.Hour)
	if err := testDB.DB.Model(result.Invite).Update("expires_at", expired).Error; err != nil {
		t.Fatalf("could not backdate invite: %v", err)
	}

	if _, err := testDB.Invites.Accept(result.Invite.Token, invitee, nil); !errors.Is(err, ErrInviteExpired) {
		t.Errorf("expected ErrInviteExpired, got %v", err)
	}
}

func TestInviteAcceptLimitCheck(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	workspace := createTestWorkspace(t, "Full", owner)
	email := uniqueEmail("invitee")
	invitee := createTestUser(t, email)

	result, err := testDB.Invites.Create(workspace.ID, email, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	limitErr := errors.New("workspace full")
	deny := func(tx *gorm.DB, _ uuid.UUID) error {
		if tx == nil {
			t.Error("accept must run the limit check inside its transaction")
		}
		return limitErr
	}
	if _, err := testDB.Invites.Accept(result.Invite.Token, invitee, deny); !errors.Is(err, limitErr) {
		t.Errorf("expected limit error at accept time, got %v", err)
	}
	if _, err := testDB.Memberships.GetByUserAndWorkspace(invitee.ID, workspace.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected no membership after rejected accept, got %v", err)
	}
}

func TestInviteAcceptUnknownToken(t *testing.T) {
	user := createTestUser(t, uniqueEmail("nobody"))
	if _, err := testDB.Invites.Accept("no-such-token", user, nil); !errors.Is(err, ErrInviteInvalid) {
		t.Errorf("expected ErrInviteInvalid, got %v", err)
	}
}

func TestInviteRevoke(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	workspace := createTestWorkspace(t, "Revocable", owner)

	result, err := testDB.Invites.Create(workspace.ID, uniqueEmail("gone"), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := testDB.Invites.Revoke(result.Invite.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := testDB.Invites.GetByToken(result.Invite.Token); !errors.Is(err, ErrInviteInvalid) {
		t.Errorf("expected revoked token to be invalid, got %v", err)
	}
}

func TestPendingForWorkspaceExcludesAcceptedAndExpired(t *testing.T) {
	owner := createTestUser(t, uniqueEmail("owner"))
	workspace := createTestWorkspace(t, "Pending", owner)

	pendingResult, err := testDB.Invites.Create(workspace.ID, uniqueEmail("pending"), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	acceptedEmail := uniqueEmail("accepted")
	acceptedUser := createTestUser(t, acceptedEmail)
	acceptedResult, err := testDB.Invites.Create(workspace.ID, acceptedEmail, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := testDB.Invites.Accept(acceptedResult.Invite.Token, acceptedUser, nil); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	expiredResult, err := testDB.Invites.Create(workspace.ID, uniqueEmail("expired"), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := testDB.DB.Model(expiredResult.Invite).Update("expires_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("could not backdate invite: %v", err)
	}

	pending, err := testDB.Invites.PendingForWorkspace(workspace.ID)
	if err != nil {
		t.Fatalf("PendingForWorkspace failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending invite, got %d", len(pending))
	}
	if pending[0].ID != pendingResult.Invite.ID {
		t.Errorf("expected the pending invite, got %s", pending[0].ID)
	}
}
