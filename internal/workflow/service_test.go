package workflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/repository/memory"
	"github.com/taskorchestrator/mcp-server/internal/status"
)

func newTestService() (*Service, repository.Repositories) {
	store := memory.NewStore(nil)
	repos := store.Repositories()
	return NewService(NewRegistry(), repos), repos
}

func TestGetNextStatusReadyAdvancesOneStep(t *testing.T) {
	svc, _ := newTestService()

	rec := svc.GetNextStatus(context.Background(), status.Task, nil, status.TaskPending, uuid.Nil)
	assert.Equal(t, Ready, rec.Kind)
	assert.Equal(t, status.TaskInProgress, rec.RecommendedStatus)
	assert.Equal(t, status.RoleWork, rec.Role)
}

func TestGetNextStatusAtTerminal(t *testing.T) {
	svc, _ := newTestService()
	rec := svc.GetNextStatus(context.Background(), status.Task, nil, status.TaskCompleted, uuid.Nil)
	assert.Equal(t, AtTerminal, rec.Kind)
}

func TestGetNextStatusNoFlowForUnknownStatus(t *testing.T) {
	svc, _ := newTestService()
	rec := svc.GetNextStatus(context.Background(), status.Task, nil, "BOGUS", uuid.Nil)
	assert.Equal(t, NoFlow, rec.Kind)
}

func TestGetNextStatusBlockedByUnfinishedDependency(t *testing.T) {
	svc, repos := newTestService()
	ctx := context.Background()

	blockerRes := repos.Tasks.Create(ctx, &domain.Task{Title: "blocker", Status: status.TaskInProgress})
	blocker, ok := blockerRes.Value()
	require.True(t, ok)

	targetRes := repos.Tasks.Create(ctx, &domain.Task{Title: "target", Status: status.TaskPending})
	target, ok := targetRes.Value()
	require.True(t, ok)

	depRes := repos.Dependencies.Create(ctx, &domain.Dependency{FromTaskID: blocker.ID, ToTaskID: target.ID, Type: domain.DepBlocks})
	require.True(t, depRes.IsSuccess())

	rec := svc.GetNextStatus(ctx, status.Task, nil, status.TaskPending, target.ID)
	require.Equal(t, Blocked, rec.Kind)
	assert.Contains(t, rec.Blockers, blocker.ID.String())
}

func TestGetNextStatusUnblockedOnceBlockerCompletes(t *testing.T) {
	svc, repos := newTestService()
	ctx := context.Background()

	blockerRes := repos.Tasks.Create(ctx, &domain.Task{Title: "blocker", Status: status.TaskCompleted})
	blocker, ok := blockerRes.Value()
	require.True(t, ok)

	targetRes := repos.Tasks.Create(ctx, &domain.Task{Title: "target", Status: status.TaskPending})
	target, ok := targetRes.Value()
	require.True(t, ok)

	depRes := repos.Dependencies.Create(ctx, &domain.Dependency{FromTaskID: blocker.ID, ToTaskID: target.ID, Type: domain.DepBlocks})
	require.True(t, depRes.IsSuccess())

	rec := svc.GetNextStatus(ctx, status.Task, nil, status.TaskPending, target.ID)
	assert.Equal(t, Ready, rec.Kind)
}

func TestGetNextStatusIgnoresRelatesToEdges(t *testing.T) {
	svc, repos := newTestService()
	ctx := context.Background()

	relatedRes := repos.Tasks.Create(ctx, &domain.Task{Title: "related", Status: status.TaskPending})
	related, ok := relatedRes.Value()
	require.True(t, ok)

	targetRes := repos.Tasks.Create(ctx, &domain.Task{Title: "target", Status: status.TaskPending})
	target, ok := targetRes.Value()
	require.True(t, ok)

	depRes := repos.Dependencies.Create(ctx, &domain.Dependency{FromTaskID: related.ID, ToTaskID: target.ID, Type: domain.DepRelatesTo})
	require.True(t, depRes.IsSuccess())

	rec := svc.GetNextStatus(ctx, status.Task, nil, status.TaskPending, target.ID)
	assert.Equal(t, Ready, rec.Kind)
}

func TestEffectiveUnblockRoleDefaultsToTerminal(t *testing.T) {
	dep := &domain.Dependency{}
	assert.Equal(t, status.RoleTerminal, EffectiveUnblockRole(dep))
}

func TestEffectiveUnblockRoleHonorsOverride(t *testing.T) {
	role := string(status.RoleReview)
	dep := &domain.Dependency{UnblockAt: &role}
	assert.Equal(t, status.RoleReview, EffectiveUnblockRole(dep))
}

func TestGetRoleForStatusFallsBackWithoutFlow(t *testing.T) {
	svc := NewService(&Registry{flows: make(map[status.ContainerType][]flowDef)}, repository.Repositories{})
	role := svc.GetRoleForStatus(status.Task, nil, status.TaskCompleted)
	assert.Equal(t, status.DefaultRole(status.TaskCompleted), role)
}
