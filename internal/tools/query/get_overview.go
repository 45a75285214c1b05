package query

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/mcp"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/status"
	"github.com/taskorchestrator/mcp-server/internal/workflow"
)

type getOverviewParams struct {
	ProjectID string `json:"projectId"`
}

// roleCounts tallies entities by role.
type roleCounts struct {
	Planning int `json:"planning"`
	Work     int `json:"work"`
	Review   int `json:"review"`
	Terminal int `json:"terminal"`
	Total    int `json:"total"`
}

func (c *roleCounts) add(r status.Role) {
	c.Total++
	switch r {
	case status.RolePlanning:
		c.Planning++
	case status.RoleWork:
		c.Work++
	case status.RoleReview:
		c.Review++
	case status.RoleTerminal:
		c.Terminal++
	}
}

// GetOverview rolls up a project's features and tasks by role, mirroring the
// count rollups the cascade detector uses internally.
type GetOverview struct {
	repos       repository.Repositories
	progression *workflow.Service
}

// NewGetOverview builds the get_overview tool.
func NewGetOverview(repos repository.Repositories, progression *workflow.Service) *GetOverview {
	return &GetOverview{repos: repos, progression: progression}
}

func (t *GetOverview) Name() string { return "get_overview" }
func (t *GetOverview) Description() string {
	return "Return a project's feature and task counts broken down by role (planning/work/review/terminal)."
}
func (t *GetOverview) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "projectId": {"type": "string"}
  },
  "required": ["projectId"]
}`)
}

func (t *GetOverview) Execute(ctx context.Context, raw json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p getOverviewParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	pid, err := uuid.Parse(p.ProjectID)
	if err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid projectId: %v", err)), nil
	}

	projRes := t.repos.Projects.GetByID(ctx, pid)
	project, ok := projRes.Value()
	if !ok {
		return mcp.ErrorResult(projRes.Error().Message), nil
	}

	featsRes := t.repos.Features.FindByProjectID(ctx, pid)
	features, _ := featsRes.Value()

	tasksRes := t.repos.Tasks.FindByProjectID(ctx, pid)
	tasks, _ := tasksRes.Value()

	var featureCounts, taskCounts roleCounts
	for _, f := range features {
		featureCounts.add(t.progression.GetRoleForStatus(status.Feature, f.Tags, f.Status))
	}
	for _, tk := range tasks {
		taskCounts.add(t.progression.GetRoleForStatus(status.Task, tk.Tags, tk.Status))
	}

	projectRole := t.progression.GetRoleForStatus(status.Project, project.Tags, project.Status)

	return mcp.JSONResult(map[string]any{
		"project": map[string]any{
			"id":     project.ID,
			"name":   project.Name,
			"status": status.Normalize(project.Status),
			"role":   string(projectRole),
		},
		"features": featureCounts,
		"tasks":    taskCounts,
	})
}
