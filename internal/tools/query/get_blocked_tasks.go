package query

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/mcp"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/status"
	"github.com/taskorchestrator/mcp-server/internal/workflow"
)

type getBlockedTasksParams struct {
	ProjectID string `json:"projectId,omitempty"`
}

// blockedTask annotates a task with the blockers still standing in its way.
type blockedTask struct {
	Task     *domain.Task `json:"task"`
	Blockers []blocker    `json:"blockers"`
}

type blocker struct {
	TaskID        string `json:"taskId"`
	TaskTitle     string `json:"taskTitle"`
	CurrentRole   string `json:"currentRole"`
	RequiredRole  string `json:"requiredRole"`
}

// GetBlockedTasks lists tasks with at least one unsatisfied BLOCKS
// dependency, annotated with the blocking task ids and the role they still
// need to reach.
type GetBlockedTasks struct {
	repos       repository.Repositories
	progression *workflow.Service
}

// NewGetBlockedTasks builds the get_blocked_tasks tool.
func NewGetBlockedTasks(repos repository.Repositories, progression *workflow.Service) *GetBlockedTasks {
	return &GetBlockedTasks{repos: repos, progression: progression}
}

func (t *GetBlockedTasks) Name() string { return "get_blocked_tasks" }
func (t *GetBlockedTasks) Description() string {
	return "List tasks currently blocked by an unsatisfied BLOCKS dependency, optionally scoped to a project."
}
func (t *GetBlockedTasks) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "projectId": {"type": "string"}
  }
}`)
}

func (t *GetBlockedTasks) Execute(ctx context.Context, raw json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p getBlockedTasksParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	var tasks []*domain.Task
	if p.ProjectID != "" {
		pid, err := uuid.Parse(p.ProjectID)
		if err != nil {
			return mcp.ErrorResult(fmt.Sprintf("invalid projectId: %v", err)), nil
		}
		res := t.repos.Tasks.FindByProjectID(ctx, pid)
		tasks, _ = res.Value()
	} else {
		res := t.repos.Tasks.FindAll(ctx, 0)
		tasks, _ = res.Value()
	}

	var blocked []blockedTask
	for _, tk := range tasks {
		blockers := t.unmetBlockers(ctx, tk)
		if len(blockers) > 0 {
			blocked = append(blocked, blockedTask{Task: tk, Blockers: blockers})
		}
	}

	return mcp.JSONResult(map[string]any{"blockedTasks": blocked})
}

func (t *GetBlockedTasks) unmetBlockers(ctx context.Context, task *domain.Task) []blocker {
	depsRes := t.repos.Dependencies.FindByToTaskID(ctx, task.ID)
	deps, ok := depsRes.Value()
	if !ok {
		return nil
	}

	var out []blocker
	for _, dep := range deps {
		if dep.Type != domain.DepBlocks {
			continue
		}
		blockerRes := t.repos.Tasks.GetByID(ctx, dep.FromTaskID)
		blockerTask, ok := blockerRes.Value()
		if !ok {
			continue
		}
		threshold := workflow.EffectiveUnblockRole(dep)
		role := t.progression.GetRoleForStatus(status.Task, blockerTask.Tags, blockerTask.Status)
		if status.IsRoleAtOrBeyond(role, threshold) {
			continue
		}
		out = append(out, blocker{
			TaskID:       blockerTask.ID.String(),
			TaskTitle:    blockerTask.Title,
			CurrentRole:  string(role),
			RequiredRole: string(threshold),
		})
	}
	return out
}
