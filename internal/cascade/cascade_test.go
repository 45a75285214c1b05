package cascade

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorchestrator/mcp-server/internal/config"
	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/repository/memory"
	"github.com/taskorchestrator/mcp-server/internal/status"
	"github.com/taskorchestrator/mcp-server/internal/validator"
	"github.com/taskorchestrator/mcp-server/internal/workflow"
)

func newTestCascadeService(cfg config.AutoCascadeConfig, cleanupCfg config.CleanupConfig) (*Service, repository.Repositories) {
	store := memory.NewStore(nil)
	repos := store.Repositories()
	progression := workflow.NewService(workflow.NewRegistry(), repos)
	v := validator.New(progression)
	cleanup := NewCleanupService(repos, cleanupCfg)
	return New(repos, progression, v, cleanup, cfg, nil), repos
}

func TestDetectFromTaskFirstTaskStartedAdvancesFeature(t *testing.T) {
	svc, repos := newTestCascadeService(config.AutoCascadeConfig{MaxDepth: 3}, config.CleanupConfig{})
	ctx := context.Background()

	featRes := repos.Features.Create(ctx, &domain.Feature{Name: "f", Status: status.FeaturePlanning})
	feat, ok := featRes.Value()
	require.True(t, ok)

	fid := feat.ID
	taskRes := repos.Tasks.Create(ctx, &domain.Task{Title: "t", Status: status.TaskInProgress, FeatureID: &fid})
	task, ok := taskRes.Value()
	require.True(t, ok)

	events := svc.DetectCascadeEvents(ctx, task.ID, status.Task)
	require.Len(t, events, 1)
	assert.Equal(t, FirstTaskStarted, events[0].Kind)
	assert.Equal(t, feat.ID, events[0].TargetID)
}

func TestDetectFromTaskAllTasksCompleteAdvancesFeature(t *testing.T) {
	svc, repos := newTestCascadeService(config.AutoCascadeConfig{MaxDepth: 3}, config.CleanupConfig{})
	ctx := context.Background()

	featRes := repos.Features.Create(ctx, &domain.Feature{Name: "f", Status: status.FeatureInDevelopment})
	feat, ok := featRes.Value()
	require.True(t, ok)
	fid := feat.ID

	taskRes := repos.Tasks.Create(ctx, &domain.Task{Title: "t", Status: status.TaskInProgress, FeatureID: &fid})
	task, ok := taskRes.Value()
	require.True(t, ok)

	task.Status = status.TaskCompleted
	_, ok = repos.Tasks.Update(ctx, task).Value()
	require.True(t, ok)

	events := svc.DetectCascadeEvents(ctx, task.ID, status.Task)
	require.Len(t, events, 1)
	assert.Equal(t, AllTasksComplete, events[0].Kind)
	assert.Equal(t, status.FeatureCompleted, events[0].SuggestedStatus)
}

func TestDetectFromTaskNoEventsWithoutFeature(t *testing.T) {
	svc, repos := newTestCascadeService(config.AutoCascadeConfig{MaxDepth: 3}, config.CleanupConfig{})
	ctx := context.Background()

	taskRes := repos.Tasks.Create(ctx, &domain.Task{Title: "t", Status: status.TaskInProgress})
	task, ok := taskRes.Value()
	require.True(t, ok)

	events := svc.DetectCascadeEvents(ctx, task.ID, status.Task)
	assert.Empty(t, events)
}

func TestDetectFromFeatureAllFeaturesCompleteAdvancesProject(t *testing.T) {
	svc, repos := newTestCascadeService(config.AutoCascadeConfig{MaxDepth: 3}, config.CleanupConfig{})
	ctx := context.Background()

	projRes := repos.Projects.Create(ctx, &domain.Project{Name: "p", Status: status.ProjectInDevelopment})
	proj, ok := projRes.Value()
	require.True(t, ok)
	pid := proj.ID

	featRes := repos.Features.Create(ctx, &domain.Feature{Name: "f", Status: status.FeatureCompleted, ProjectID: &pid})
	feat, ok := featRes.Value()
	require.True(t, ok)

	events := svc.DetectCascadeEvents(ctx, feat.ID, status.Feature)
	require.Len(t, events, 1)
	assert.Equal(t, AllFeaturesComplete, events[0].Kind)
	assert.Equal(t, proj.ID, events[0].TargetID)
}

func TestDetectFromFeatureNoEventWhenSiblingStillOpen(t *testing.T) {
	svc, repos := newTestCascadeService(config.AutoCascadeConfig{MaxDepth: 3}, config.CleanupConfig{})
	ctx := context.Background()

	projRes := repos.Projects.Create(ctx, &domain.Project{Name: "p", Status: status.ProjectInDevelopment})
	proj, ok := projRes.Value()
	require.True(t, ok)
	pid := proj.ID

	featRes := repos.Features.Create(ctx, &domain.Feature{Name: "f1", Status: status.FeatureCompleted, ProjectID: &pid})
	feat, ok := featRes.Value()
	require.True(t, ok)

	_, ok = repos.Features.Create(ctx, &domain.Feature{Name: "f2", Status: status.FeatureInDevelopment, ProjectID: &pid}).Value()
	require.True(t, ok)

	events := svc.DetectCascadeEvents(ctx, feat.ID, status.Feature)
	assert.Empty(t, events)
}

func TestApplyCascadesWritesStatusAndRecurses(t *testing.T) {
	svc, repos := newTestCascadeService(config.AutoCascadeConfig{MaxDepth: 3}, config.CleanupConfig{})
	ctx := context.Background()

	projRes := repos.Projects.Create(ctx, &domain.Project{Name: "p", Status: status.ProjectInDevelopment})
	proj, ok := projRes.Value()
	require.True(t, ok)
	pid := proj.ID

	featRes := repos.Features.Create(ctx, &domain.Feature{Name: "f", Status: status.FeatureInDevelopment, ProjectID: &pid})
	feat, ok := featRes.Value()
	require.True(t, ok)
	fid := feat.ID

	taskRes := repos.Tasks.Create(ctx, &domain.Task{Title: "t", Status: status.TaskInProgress, FeatureID: &fid})
	task, ok := taskRes.Value()
	require.True(t, ok)
	task.Status = status.TaskCompleted
	_, ok = repos.Tasks.Update(ctx, task).Value()
	require.True(t, ok)

	applied := svc.ApplyCascades(ctx, task.ID, status.Task, 0)
	require.Len(t, applied, 1)
	assert.True(t, applied[0].Applied)
	assert.Equal(t, AllTasksComplete, applied[0].Event.Kind)

	updatedFeat, ok := repos.Features.GetByID(ctx, feat.ID).Value()
	require.True(t, ok)
	assert.Equal(t, status.FeatureCompleted, updatedFeat.Status)

	// Cascades from the feature into the project should have been applied
	// recursively within the same call.
	updatedProj, ok := repos.Projects.GetByID(ctx, proj.ID).Value()
	require.True(t, ok)
	assert.Equal(t, status.ProjectCompleted, updatedProj.Status)
}

func TestApplyCascadesDepthGuardStopsRecursion(t *testing.T) {
	svc, repos := newTestCascadeService(config.AutoCascadeConfig{MaxDepth: 1}, config.CleanupConfig{})
	ctx := context.Background()

	projRes := repos.Projects.Create(ctx, &domain.Project{Name: "p", Status: status.ProjectInDevelopment})
	proj, ok := projRes.Value()
	require.True(t, ok)
	pid := proj.ID

	featRes := repos.Features.Create(ctx, &domain.Feature{Name: "f", Status: status.FeatureInDevelopment, ProjectID: &pid})
	feat, ok := featRes.Value()
	require.True(t, ok)
	fid := feat.ID

	taskRes := repos.Tasks.Create(ctx, &domain.Task{Title: "t", Status: status.TaskInProgress, FeatureID: &fid})
	task, ok := taskRes.Value()
	require.True(t, ok)
	task.Status = status.TaskCompleted
	_, ok = repos.Tasks.Update(ctx, task).Value()
	require.True(t, ok)

	applied := svc.ApplyCascades(ctx, task.ID, status.Task, 0)
	require.Len(t, applied, 1)
	assert.True(t, applied[0].Applied)
	// depth guard stops the recursive ApplyCascades call into the feature,
	// so it reports no child cascades even though the project would have advanced too.
	assert.Empty(t, applied[0].ChildCascades)

	updatedProj, ok := repos.Projects.GetByID(ctx, proj.ID).Value()
	require.True(t, ok)
	assert.Equal(t, status.ProjectInDevelopment, updatedProj.Status)
}

func TestFindNewlyUnblockedTasksReturnsDownstreamOnceBlockerTerminal(t *testing.T) {
	svc, repos := newTestCascadeService(config.AutoCascadeConfig{MaxDepth: 3}, config.CleanupConfig{})
	ctx := context.Background()

	blockerRes := repos.Tasks.Create(ctx, &domain.Task{Title: "blocker", Status: status.TaskCompleted})
	blocker, ok := blockerRes.Value()
	require.True(t, ok)

	downstreamRes := repos.Tasks.Create(ctx, &domain.Task{Title: "downstream", Status: status.TaskPending})
	downstream, ok := downstreamRes.Value()
	require.True(t, ok)

	_, ok = repos.Dependencies.Create(ctx, &domain.Dependency{FromTaskID: blocker.ID, ToTaskID: downstream.ID, Type: domain.DepBlocks}).Value()
	require.True(t, ok)

	unblocked := svc.FindNewlyUnblockedTasks(ctx, blocker.ID)
	require.Len(t, unblocked, 1)
	assert.Equal(t, downstream.ID, unblocked[0].TaskID)
}

func TestFindNewlyUnblockedTasksSkipsStillBlockedDownstream(t *testing.T) {
	svc, repos := newTestCascadeService(config.AutoCascadeConfig{MaxDepth: 3}, config.CleanupConfig{})
	ctx := context.Background()

	blockerA := mustCreateTask(t, repos, "blockerA", status.TaskCompleted)
	blockerB := mustCreateTask(t, repos, "blockerB", status.TaskInProgress)
	downstream := mustCreateTask(t, repos, "downstream", status.TaskPending)

	_, ok := repos.Dependencies.Create(ctx, &domain.Dependency{FromTaskID: blockerA.ID, ToTaskID: downstream.ID, Type: domain.DepBlocks}).Value()
	require.True(t, ok)
	_, ok = repos.Dependencies.Create(ctx, &domain.Dependency{FromTaskID: blockerB.ID, ToTaskID: downstream.ID, Type: domain.DepBlocks}).Value()
	require.True(t, ok)

	unblocked := svc.FindNewlyUnblockedTasks(ctx, blockerA.ID)
	assert.Empty(t, unblocked)
}

func mustCreateTask(t *testing.T, repos repository.Repositories, title, st string) *domain.Task {
	t.Helper()
	task, ok := repos.Tasks.Create(context.Background(), &domain.Task{Title: title, Status: st}).Value()
	require.True(t, ok)
	return task
}

func TestCleanupFeatureTasksDeletesNonRetainedTasks(t *testing.T) {
	_, repos := newTestCascadeService(config.AutoCascadeConfig{}, config.CleanupConfig{})
	cleanup := NewCleanupService(repos, config.CleanupConfig{Enabled: true, KeepTags: []string{"keep"}})
	ctx := context.Background()

	featRes := repos.Features.Create(ctx, &domain.Feature{Name: "f", Status: status.FeatureInDevelopment})
	feat, ok := featRes.Value()
	require.True(t, ok)
	fid := feat.ID

	plain := mustCreateTaskInFeature(t, repos, "plain", status.TaskCompleted, fid)

	verified := mustCreateTaskInFeature(t, repos, "verified", status.TaskCompleted, fid)
	verified.RequiresVerification = true
	verified, ok = repos.Tasks.Update(ctx, verified).Value()
	require.True(t, ok)

	tagged := mustCreateTaskInFeature(t, repos, "tagged", status.TaskCompleted, fid)
	tagged.Tags = []string{"keep"}
	tagged, ok = repos.Tasks.Update(ctx, tagged).Value()
	require.True(t, ok)

	result := cleanup.CleanupFeatureTasks(ctx, fid, status.FeatureCompleted)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.TasksDeleted)
	assert.Equal(t, 2, result.TasksRetained)
	assert.ElementsMatch(t, []uuid.UUID{verified.ID, tagged.ID}, result.RetainedTaskIDs)

	_, ok = repos.Tasks.GetByID(ctx, plain.ID).Value()
	assert.False(t, ok)
}

func mustCreateTaskInFeature(t *testing.T, repos repository.Repositories, title, st string, featureID uuid.UUID) *domain.Task {
	t.Helper()
	task, ok := repos.Tasks.Create(context.Background(), &domain.Task{Title: title, Status: st, FeatureID: &featureID}).Value()
	require.True(t, ok)
	return task
}

func TestCleanupFeatureTasksNoopWhenDisabled(t *testing.T) {
	_, repos := newTestCascadeService(config.AutoCascadeConfig{}, config.CleanupConfig{})
	cleanup := NewCleanupService(repos, config.CleanupConfig{Enabled: false})
	ctx := context.Background()

	featRes := repos.Features.Create(ctx, &domain.Feature{Name: "f", Status: status.FeatureInDevelopment})
	feat, ok := featRes.Value()
	require.True(t, ok)

	result := cleanup.CleanupFeatureTasks(ctx, feat.ID, status.FeatureCompleted)
	assert.Nil(t, result)
}

func TestCleanupFeatureTasksNoopWhenTargetNotTerminal(t *testing.T) {
	_, repos := newTestCascadeService(config.AutoCascadeConfig{}, config.CleanupConfig{})
	cleanup := NewCleanupService(repos, config.CleanupConfig{Enabled: true})
	ctx := context.Background()

	featRes := repos.Features.Create(ctx, &domain.Feature{Name: "f", Status: status.FeaturePlanning})
	feat, ok := featRes.Value()
	require.True(t, ok)

	result := cleanup.CleanupFeatureTasks(ctx, feat.ID, status.FeatureInDevelopment)
	assert.Nil(t, result)
}
