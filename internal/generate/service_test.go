package generate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"launchos/internal/ai"
	"launchos/internal/entitlements"
	"launchos/internal/models"
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

// setupGenerationProject creates a workspace configured for a real provider
// (so the generator path runs) and a project in it.
func setupGenerationProject(t *testing.T) (*models.Workspace, *models.Project) {
	t.Helper()
	user := &models.User{
		Email:        fmt.Sprintf("founder-%s@example.com", uuid.NewString()[:8]),
		PasswordHash: "x",
	}
	if err := testDB.Users.Create(user); err != nil {
		t.Fatalf("could not create user: %v", err)
	}
	workspace, err := models.CreateWorkspaceWithOwner(testDB.DB, "Gen Lab", user.ID)
	if err != nil {
		t.Fatalf("could not create workspace: %v", err)
	}
	workspace.AIProvider = models.ProviderOpenAI
	workspace.AIModel = "gpt-4o-mini"
	workspace.AIKey = "sk-test"
	if err := testDB.Workspaces.Update(workspace); err != nil {
		t.Fatalf("could not configure workspace provider: %v", err)
	}
	project := &models.Project{WorkspaceID: workspace.ID, Name: "Acme", NicheKeywords: "mobile detailing"}
	if err := testDB.Projects.Create(project); err != nil {
		t.Fatalf("could not create project: %v", err)
	}
	return workspace, project
}

// newTestService builds a service over the test database with the provider
// client replaced by gen.
func newTestService(gen ai.TextGenerator) *Service {
	svc := NewService(testDB, entitlements.NewChecker(testDB), zap.NewNop())
	svc.newGenerator = func(ai.Config) ai.TextGenerator { return gen }
	return svc
}

func generationEvents(t *testing.T, workspaceID uuid.UUID) []models.Event {
	t.Helper()
	var events []models.Event
	err := testDB.DB.Where("workspace_id = ? AND type = ?", workspaceID, models.EventGeneration).
		Find(&events).Error
	if err != nil {
		t.Fatalf("could not load events: %v", err)
	}
	return events
}

func clusterCount(t *testing.T, projectID uuid.UUID) int64 {
	t.Helper()
	var count int64
	err := testDB.DB.Model(&models.InsightCluster{}).Where("project_id = ?", projectID).Count(&count).Error
	if err != nil {
		t.Fatalf("could not count clusters: %v", err)
	}
	return count
}

func TestGenerateInsightsProviderFailureFallsBack(t *testing.T) {
	workspace, project := setupGenerationProject(t)
	svc := newTestService(&fakeGenerator{err: errors.New("provider down")})

	// A stale cluster from an earlier run must not survive the regeneration.
	stale := &models.InsightCluster{ProjectID: project.ID, Label: "stale", Summary: "old", Severity: 1, Frequency: 1}
	if err := testDB.DB.Create(stale).Error; err != nil {
		t.Fatalf("could not seed cluster: %v", err)
	}

	result, err := svc.GenerateInsights(context.Background(), workspace.ID, project.ID)
	if err != nil {
		t.Fatalf("GenerateInsights failed: %v", err)
	}
	if len(result.Clusters) == 0 {
		t.Fatal("expected mock clusters in the result")
	}

	if count := clusterCount(t, project.ID); count != int64(len(result.Clusters)) {
		t.Errorf("persisted clusters = %d, want %d (full replacement)", count, len(result.Clusters))
	}
	var remaining int64
	if err := testDB.DB.Model(&models.InsightCluster{}).Where("id = ?", stale.ID).Count(&remaining).Error; err != nil {
		t.Fatalf("could not check stale cluster: %v", err)
	}
	if remaining != 0 {
		t.Error("stale cluster survived regeneration")
	}

	events := generationEvents(t, workspace.ID)
	if len(events) != 1 {
		t.Fatalf("generation events = %d, want exactly 1", len(events))
	}
	if !strings.Contains(events[0].MetaJSON, `"kind":"insights"`) {
		t.Errorf("event meta = %q, want insights kind", events[0].MetaJSON)
	}
}

func TestGenerateInsightsAtQuotaWritesNothing(t *testing.T) {
	workspace, project := setupGenerationProject(t)
	svc := newTestService(&fakeGenerator{err: errors.New("provider down")})

	quota := entitlements.LimitsFor(models.TierFree).MaxGenerationsPerMonth
	for i := int64(0); i < quota; i++ {
		event := &models.Event{WorkspaceID: workspace.ID, Type: models.EventGeneration}
		if err := testDB.Experiments.RecordEvent(event); err != nil {
			t.Fatalf("could not seed event: %v", err)
		}
	}

	_, err := svc.GenerateInsights(context.Background(), workspace.ID, project.ID)
	var planErr *entitlements.PlanLimitError
	if !errors.As(err, &planErr) {
		t.Fatalf("expected plan limit error, got %v", err)
	}
	if planErr.Limit != "maxGenerationsPerMonth" {
		t.Errorf("limit = %q, want maxGenerationsPerMonth", planErr.Limit)
	}

	if count := clusterCount(t, project.ID); count != 0 {
		t.Errorf("clusters = %d, want 0 after rejected generation", count)
	}
	if events := generationEvents(t, workspace.ID); int64(len(events)) != quota {
		t.Errorf("generation events = %d, want %d (rejection must not record usage)", len(events), quota)
	}
}

func TestCreateExperimentRecordsOneGeneration(t *testing.T) {
	workspace, project := setupGenerationProject(t)
	if err := testDB.Workspaces.SetTier(workspace.ID, models.TierTeam); err != nil {
		t.Fatalf("could not set tier: %v", err)
	}
	svc := newTestService(&fakeGenerator{err: errors.New("provider down")})

	experiment, err := svc.CreateExperiment(context.Background(), workspace.ID, project.ID, "Test", "A", "B")
	if err != nil {
		t.Fatalf("CreateExperiment failed: %v", err)
	}
	if len(experiment.Variants) != 2 {
		t.Errorf("variants = %d, want 2", len(experiment.Variants))
	}

	events := generationEvents(t, workspace.ID)
	if len(events) != 1 {
		t.Fatalf("generation events = %d, want exactly 1", len(events))
	}
	if !strings.Contains(events[0].MetaJSON, `"kind":"variants"`) {
		t.Errorf("event meta = %q, want variants kind", events[0].MetaJSON)
	}
}
