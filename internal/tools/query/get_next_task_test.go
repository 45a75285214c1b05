package query

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/status"
)

func TestGetNextTaskReturnsHighestPriorityUnblockedTask(t *testing.T) {
	repos, progression := newTestQueryDeps()
	tool := NewGetNextTask(repos, progression)
	ctx := context.Background()

	_, ok := repos.Tasks.Create(ctx, &domain.Task{Title: "low", Status: status.TaskPending, Priority: domain.PriorityLow}).Value()
	require.True(t, ok)
	high, ok := repos.Tasks.Create(ctx, &domain.Task{Title: "high", Status: status.TaskPending, Priority: domain.PriorityHigh}).Value()
	require.True(t, ok)

	result, err := tool.Execute(ctx, json.RawMessage(`{}`))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body struct {
		Task *domain.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &body))
	require.NotNil(t, body.Task)
	assert.Equal(t, high.ID, body.Task.ID)
}

func TestGetNextTaskSkipsBlockedTask(t *testing.T) {
	repos, progression := newTestQueryDeps()
	tool := NewGetNextTask(repos, progression)
	ctx := context.Background()

	blockerRes := repos.Tasks.Create(ctx, &domain.Task{Title: "blocker", Status: status.TaskInProgress})
	blocker, ok := blockerRes.Value()
	require.True(t, ok)

	targetRes := repos.Tasks.Create(ctx, &domain.Task{Title: "target", Status: status.TaskPending, Priority: domain.PriorityHigh})
	target, ok := targetRes.Value()
	require.True(t, ok)

	_, ok = repos.Dependencies.Create(ctx, &domain.Dependency{FromTaskID: blocker.ID, ToTaskID: target.ID, Type: domain.DepBlocks}).Value()
	require.True(t, ok)

	result, err := tool.Execute(ctx, json.RawMessage(`{}`))
	require.NoError(t, err)

	var body struct {
		Task   *domain.Task `json:"task"`
		Reason string       `json:"reason"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &body))
	assert.Nil(t, body.Task)
	assert.NotEmpty(t, body.Reason)
}

func TestGetNextTaskSkipsTasksAlreadyInProgress(t *testing.T) {
	repos, progression := newTestQueryDeps()
	tool := NewGetNextTask(repos, progression)
	ctx := context.Background()

	_, ok := repos.Tasks.Create(ctx, &domain.Task{Title: "t", Status: status.TaskInProgress}).Value()
	require.True(t, ok)

	result, err := tool.Execute(ctx, json.RawMessage(`{}`))
	require.NoError(t, err)

	var body struct {
		Task *domain.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &body))
	assert.Nil(t, body.Task)
}

func TestGetNextTaskScopesToFeature(t *testing.T) {
	repos, progression := newTestQueryDeps()
	tool := NewGetNextTask(repos, progression)
	ctx := context.Background()

	feat, ok := repos.Features.Create(ctx, &domain.Feature{Name: "f"}).Value()
	require.True(t, ok)
	fid := feat.ID

	inFeature, ok := repos.Tasks.Create(ctx, &domain.Task{Title: "in", Status: status.TaskPending, FeatureID: &fid}).Value()
	require.True(t, ok)
	_, ok = repos.Tasks.Create(ctx, &domain.Task{Title: "out", Status: status.TaskPending}).Value()
	require.True(t, ok)

	params, err := json.Marshal(map[string]any{"featureId": fid.String()})
	require.NoError(t, err)

	result, err := tool.Execute(ctx, params)
	require.NoError(t, err)

	var body struct {
		Task *domain.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &body))
	require.NotNil(t, body.Task)
	assert.Equal(t, inFeature.ID, body.Task.ID)
}
