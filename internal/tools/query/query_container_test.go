package query

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/repository/memory"
	"github.com/taskorchestrator/mcp-server/internal/status"
	"github.com/taskorchestrator/mcp-server/internal/workflow"
)

func newTestQueryDeps() (repository.Repositories, *workflow.Service) {
	store := memory.NewStore(nil)
	repos := store.Repositories()
	progression := workflow.NewService(workflow.NewRegistry(), repos)
	return repos, progression
}

func TestQueryContainerFetchOneAnnotatesRoleAndStatus(t *testing.T) {
	repos, progression := newTestQueryDeps()
	tool := NewQueryContainer(repos, progression)
	ctx := context.Background()

	task, ok := repos.Tasks.Create(ctx, &domain.Task{Title: "t", Status: status.TaskInProgress}).Value()
	require.True(t, ok)

	params, err := json.Marshal(map[string]any{"containerType": "task", "id": task.ID.String()})
	require.NoError(t, err)

	result, err := tool.Execute(ctx, params)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &body))
	assert.Equal(t, string(status.RoleWork), body["role"])
	assert.Equal(t, "in-progress", body["status"])
}

func TestQueryContainerFetchOneUnknownIDReturnsError(t *testing.T) {
	repos, progression := newTestQueryDeps()
	tool := NewQueryContainer(repos, progression)

	params, err := json.Marshal(map[string]any{"containerType": "task", "id": "00000000-0000-0000-0000-000000000001"})
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestQueryContainerListFiltersByStatusAndTag(t *testing.T) {
	repos, progression := newTestQueryDeps()
	tool := NewQueryContainer(repos, progression)
	ctx := context.Background()

	_, ok := repos.Tasks.Create(ctx, &domain.Task{Title: "a", Status: status.TaskPending, Tags: []string{"bug"}}).Value()
	require.True(t, ok)
	_, ok = repos.Tasks.Create(ctx, &domain.Task{Title: "b", Status: status.TaskCompleted, Tags: []string{"bug"}}).Value()
	require.True(t, ok)
	_, ok = repos.Tasks.Create(ctx, &domain.Task{Title: "c", Status: status.TaskPending, Tags: []string{"feature"}}).Value()
	require.True(t, ok)

	params, err := json.Marshal(map[string]any{"containerType": "task", "status": "pending", "tag": "bug"})
	require.NoError(t, err)

	result, err := tool.Execute(ctx, params)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body struct {
		Tasks []annotated `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &body))
	require.Len(t, body.Tasks, 1)
}

func TestQueryContainerUnknownTypeReturnsError(t *testing.T) {
	repos, progression := newTestQueryDeps()
	tool := NewQueryContainer(repos, progression)

	params, err := json.Marshal(map[string]any{"containerType": "bogus"})
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSortTasksByPriorityOrdersHighFirstThenByCreation(t *testing.T) {
	tasks := []*domain.Task{
		{Title: "low", Priority: domain.PriorityLow},
		{Title: "high", Priority: domain.PriorityHigh},
		{Title: "medium", Priority: domain.PriorityMedium},
	}
	sortTasksByPriority(tasks)
	assert.Equal(t, "high", tasks[0].Title)
	assert.Equal(t, "medium", tasks[1].Title)
	assert.Equal(t, "low", tasks[2].Title)
}
