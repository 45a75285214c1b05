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

type getNextTaskParams struct {
	ProjectID string `json:"projectId,omitempty"`
	FeatureID string `json:"featureId,omitempty"`
}

// GetNextTask returns the highest-priority task that is not yet started
// (role below work) and has every BLOCKS dependency satisfied.
type GetNextTask struct {
	repos       repository.Repositories
	progression *workflow.Service
}

// NewGetNextTask builds the get_next_task tool.
func NewGetNextTask(repos repository.Repositories, progression *workflow.Service) *GetNextTask {
	return &GetNextTask{repos: repos, progression: progression}
}

func (t *GetNextTask) Name() string { return "get_next_task" }
func (t *GetNextTask) Description() string {
	return "Return the highest-priority unblocked pending task, optionally scoped to a project or feature."
}
func (t *GetNextTask) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "projectId": {"type": "string"},
    "featureId": {"type": "string"}
  }
}`)
}

func (t *GetNextTask) Execute(ctx context.Context, raw json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p getNextTaskParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	candidates, err := t.candidateTasks(ctx, p)
	if err != nil {
		return mcp.ErrorResult(err.Error()), nil
	}

	var unblocked []*domain.Task
	for _, tk := range candidates {
		role := t.progression.GetRoleForStatus(status.Task, tk.Tags, tk.Status)
		if status.IsRoleAtOrBeyond(role, status.RoleWork) {
			continue
		}
		if t.allBlockersSatisfied(ctx, tk) {
			unblocked = append(unblocked, tk)
		}
	}
	if len(unblocked) == 0 {
		return mcp.JSONResult(map[string]any{"task": nil, "reason": "no unblocked pending tasks"})
	}

	sortTasksByPriority(unblocked)
	return mcp.JSONResult(map[string]any{"task": unblocked[0]})
}

func (t *GetNextTask) candidateTasks(ctx context.Context, p getNextTaskParams) ([]*domain.Task, error) {
	switch {
	case p.FeatureID != "":
		fid, err := uuid.Parse(p.FeatureID)
		if err != nil {
			return nil, fmt.Errorf("invalid featureId: %w", err)
		}
		res := t.repos.Tasks.FindByFeatureID(ctx, fid)
		tasks, _ := res.Value()
		return tasks, nil
	case p.ProjectID != "":
		pid, err := uuid.Parse(p.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("invalid projectId: %w", err)
		}
		res := t.repos.Tasks.FindByProjectID(ctx, pid)
		tasks, _ := res.Value()
		return tasks, nil
	default:
		res := t.repos.Tasks.FindAll(ctx, 0)
		tasks, _ := res.Value()
		return tasks, nil
	}
}

// allBlockersSatisfied mirrors workflow.Service.unmetBlockers: a task is
// unblocked when every incoming BLOCKS dependency's source task has reached
// at least effectiveUnblockRole(dep).
func (t *GetNextTask) allBlockersSatisfied(ctx context.Context, task *domain.Task) bool {
	depsRes := t.repos.Dependencies.FindByToTaskID(ctx, task.ID)
	deps, ok := depsRes.Value()
	if !ok {
		return true
	}
	for _, dep := range deps {
		if dep.Type != domain.DepBlocks {
			continue
		}
		blockerRes := t.repos.Tasks.GetByID(ctx, dep.FromTaskID)
		blocker, ok := blockerRes.Value()
		if !ok {
			continue
		}
		threshold := workflow.EffectiveUnblockRole(dep)
		role := t.progression.GetRoleForStatus(status.Task, blocker.Tags, blocker.Status)
		if !status.IsRoleAtOrBeyond(role, threshold) {
			return false
		}
	}
	return true
}
