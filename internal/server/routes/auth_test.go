package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"launchos/internal/entitlements"
	"launchos/internal/generate"
	"launchos/internal/models"
	"launchos/internal/ratelimit"
	"launchos/internal/session"
	"launchos/internal/tracking"
)

var testDB *models.DB

func mustStartPostgresContainer() (func(context.Context, ...testcontainers.TerminateOption) error, string, error) {
	var (
		dbName = "test_db"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, "", fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, "", fmt.Errorf("failed to get container mapped port: %w", err)
	}

	connStr := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPwd, host, port.Port(), dbName)

	return dbContainer.Terminate, connStr, nil
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	teardown, connStr, err := mustStartPostgresContainer()
	if err != nil {
		log.Fatalf("could not start postgres container for tests: %v", err)
	}

	testDB, err = models.NewDBFromDSN(connStr)
	if err != nil {
		log.Fatalf("could not connect to test database: %v", err)
	}
	if err := testDB.AutoMigrate(); err != nil {
		log.Fatalf("could not migrate test database: %v", err)
	}

	exitCode := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
	os.Exit(exitCode)
}

// testServer satisfies ServerInterface over the test database. Services the
// auth routes never touch stay nil.
type testServer struct {
	db       *models.DB
	sessions *session.Manager
	checker  *entitlements.Checker
	logger   *zap.Logger
}

func (s *testServer) GetDB() *models.DB                              { return s.db }
func (s *testServer) GetSessions() *session.Manager                  { return s.sessions }
func (s *testServer) GetChecker() *entitlements.Checker              { return s.checker }
func (s *testServer) GetGenerator() *generate.Service                { return nil }
func (s *testServer) GetTracker() *tracking.Service                  { return nil }
func (s *testServer) GetTrackLimiter() *ratelimit.FixedWindowLimiter { return nil }
func (s *testServer) GetLogger() *zap.Logger                         { return s.logger }

func newAuthRouter() *gin.Engine {
	srv := &testServer{
		db:       testDB,
		sessions: session.NewManagerWithSecret("test-secret"),
		checker:  entitlements.NewChecker(testDB),
		logger:   zap.NewNop(),
	}
	r := gin.New()
	NewAuthRoutes(srv).RegisterRoutes(r)
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}

func emailTaken(t *testing.T, email string) bool {
	t.Helper()
	taken, err := testDB.Users.EmailTaken(email)
	if err != nil {
		t.Fatalf("EmailTaken failed: %v", err)
	}
	return taken
}

func TestSignupCreatesWorkspaceAndSession(t *testing.T) {
	r := newAuthRouter()
	email := uniqueEmail("founder")

	w := postJSON(r, "/auth/signup", gin.H{
		"email":          email,
		"password":       "hunter22",
		"workspace_name": "Acme",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signup status = %d, body %s", w.Code, w.Body.String())
	}
	if sessionCookie(w) == nil {
		t.Error("expected a session cookie on signup")
	}

	user, err := testDB.Users.GetByEmail(email)
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	membership, err := testDB.Memberships.EarliestForUser(user.ID)
	if err != nil {
		t.Fatalf("expected a membership: %v", err)
	}
	if membership.Role != models.RoleOwner {
		t.Errorf("role = %s, want OWNER", membership.Role)
	}
}

func TestSignupWithUnknownInviteLeavesNoAccount(t *testing.T) {
	r := newAuthRouter()
	email := uniqueEmail("ghost")

	w := postJSON(r, "/auth/signup", gin.H{
		"email":        email,
		"password":     "hunter22",
		"invite_token": "no-such-token",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("signup status = %d, want 400", w.Code)
	}
	if sessionCookie(w) != nil {
		t.Error("no session should be issued on a failed signup")
	}
	if emailTaken(t, email) {
		t.Error("failed signup must not leave a user row behind")
	}

	// The email is still free, so a normal signup goes through afterwards.
	w = postJSON(r, "/auth/signup", gin.H{"email": email, "password": "hunter22"})
	if w.Code != http.StatusOK {
		t.Errorf("retry signup status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestSignupWithExpiredInviteLeavesNoAccount(t *testing.T) {
	r := newAuthRouter()

	owner := &models.User{Email: uniqueEmail("owner"), PasswordHash: "x"}
	if err := testDB.Users.Create(owner); err != nil {
		t.Fatalf("could not create owner: %v", err)
	}
	workspace, err := models.CreateWorkspaceWithOwner(testDB.DB, "Stale", owner.ID)
	if err != nil {
		t.Fatalf("could not create workspace: %v", err)
	}

	email := uniqueEmail("late")
	result, err := testDB.Invites.Create(workspace.ID, email, nil)
	if err != nil {
		t.Fatalf("could not create invite: %v", err)
	}
	if err := testDB.DB.Model(result.Invite).Update("expires_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("could not backdate invite: %v", err)
	}

	w := postJSON(r, "/auth/signup", gin.H{
		"email":        email,
		"password":     "hunter22",
		"invite_token": result.Invite.Token,
	})
	if w.Code != http.StatusGone {
		t.Fatalf("signup status = %d, want 410", w.Code)
	}
	if emailTaken(t, email) {
		t.Error("failed signup must not leave a user row behind")
	}
}

func TestSignupAtMemberLimitLeavesNoAccount(t *testing.T) {
	r := newAuthRouter()

	owner := &models.User{Email: uniqueEmail("owner"), PasswordHash: "x"}
	if err := testDB.Users.Create(owner); err != nil {
		t.Fatalf("could not create owner: %v", err)
	}
	// FREE allows one member, already taken by the owner.
	workspace, err := models.CreateWorkspaceWithOwner(testDB.DB, "Full", owner.ID)
	if err != nil {
		t.Fatalf("could not create workspace: %v", err)
	}

	email := uniqueEmail("overflow")
	result, err := testDB.Invites.Create(workspace.ID, email, nil)
	if err != nil {
		t.Fatalf("could not create invite: %v", err)
	}

	w := postJSON(r, "/auth/signup", gin.H{
		"email":        email,
		"password":     "hunter22",
		"invite_token": result.Invite.Token,
	})
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("signup status = %d, want 402", w.Code)
	}
	if emailTaken(t, email) {
		t.Error("rejected signup must not leave a user row behind")
	}
}

func TestSignupThenLoginWithInvite(t *testing.T) {
	r := newAuthRouter()

	owner := &models.User{Email: uniqueEmail("owner"), PasswordHash: "x"}
	if err := testDB.Users.Create(owner); err != nil {
		t.Fatalf("could not create owner: %v", err)
	}
	workspace, err := models.CreateWorkspaceWithOwner(testDB.DB, "Team", owner.ID)
	if err != nil {
		t.Fatalf("could not create workspace: %v", err)
	}
	if err := testDB.Workspaces.SetTier(workspace.ID, models.TierTeam); err != nil {
		t.Fatalf("could not set tier: %v", err)
	}

	email := uniqueEmail("member")
	result, err := testDB.Invites.Create(workspace.ID, email, nil)
	if err != nil {
		t.Fatalf("could not create invite: %v", err)
	}

	w := postJSON(r, "/auth/signup", gin.H{
		"email":        email,
		"password":     "hunter22",
		"invite_token": result.Invite.Token,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signup status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		WorkspaceID uuid.UUID `json:"workspace_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode response: %v", err)
	}
	if resp.WorkspaceID != workspace.ID {
		t.Errorf("workspace = %s, want %s", resp.WorkspaceID, workspace.ID)
	}

	w = postJSON(r, "/auth/login", gin.H{"email": email, "password": "hunter22"})
	if w.Code != http.StatusOK {
		t.Errorf("login status = %d, body %s", w.Code, w.Body.String())
	}
	if sessionCookie(w) == nil {
		t.Error("expected a session cookie on login")
	}
}
