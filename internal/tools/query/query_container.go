// Package query implements the read-path tools (C12): query_container,
// get_next_task, get_blocked_tasks, get_overview.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/mcp"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/status"
	"github.com/taskorchestrator/mcp-server/internal/workflow"
)

type queryContainerParams struct {
	ContainerType string `json:"containerType"`
	ID            string `json:"id,omitempty"`
	ProjectID     string `json:"projectId,omitempty"`
	FeatureID     string `json:"featureId,omitempty"`
	Status        string `json:"status,omitempty"`
	Tag           string `json:"tag,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// QueryContainer fetches a single project/feature/task by id, or lists them
// filtered by parent, status, or tag.
type QueryContainer struct {
	repos       repository.Repositories
	progression *workflow.Service
}

// NewQueryContainer builds the query_container tool.
func NewQueryContainer(repos repository.Repositories, progression *workflow.Service) *QueryContainer {
	return &QueryContainer{repos: repos, progression: progression}
}

func (t *QueryContainer) Name() string { return "query_container" }
func (t *QueryContainer) Description() string {
	return "Fetch a project, feature, or task by id, or list them filtered by parent, status, or tag."
}
func (t *QueryContainer) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "containerType": {"type": "string", "enum": ["project", "feature", "task"]},
    "id": {"type": "string", "description": "Fetch a single entity by id"},
    "projectId": {"type": "string", "description": "Filter features/tasks to this project"},
    "featureId": {"type": "string", "description": "Filter tasks to this feature"},
    "status": {"type": "string", "description": "Filter by status, either kebab-case or UPPER_SNAKE"},
    "tag": {"type": "string", "description": "Filter to entities carrying this tag"},
    "limit": {"type": "integer", "default": 50}
  },
  "required": ["containerType"]
}`)
}

func (t *QueryContainer) Execute(ctx context.Context, raw json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p queryContainerParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	containerType := status.ContainerType(p.ContainerType)

	if p.ID != "" {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return mcp.ErrorResult(fmt.Sprintf("invalid id: %v", err)), nil
		}
		return t.fetchOne(ctx, containerType, id)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	switch containerType {
	case status.Project:
		res := t.repos.Projects.FindAll(ctx, limit)
		projects, ok := res.Value()
		if !ok {
			return mcp.ErrorResult(res.Error().Message), nil
		}
		if p.Status != "" {
			projects = filterProjectsByStatus(projects, p.Status)
		}
		if p.Tag != "" {
			projects = filterProjectsByTag(projects, p.Tag)
		}
		return mcp.JSONResult(map[string]any{"projects": t.annotateProjects(projects)})

	case status.Feature:
		var features []*domain.Feature
		if p.ProjectID != "" {
			pid, err := uuid.Parse(p.ProjectID)
			if err != nil {
				return mcp.ErrorResult(fmt.Sprintf("invalid projectId: %v", err)), nil
			}
			res := t.repos.Features.FindByProjectID(ctx, pid)
			features, _ = res.Value()
		} else {
			res := t.repos.Features.FindAll(ctx, limit)
			features, _ = res.Value()
		}
		if p.Status != "" {
			features = filterFeaturesByStatus(features, p.Status)
		}
		if p.Tag != "" {
			features = filterFeaturesByTag(features, p.Tag)
		}
		return mcp.JSONResult(map[string]any{"features": t.annotateFeatures(features)})

	case status.Task:
		var tasks []*domain.Task
		switch {
		case p.FeatureID != "":
			fid, err := uuid.Parse(p.FeatureID)
			if err != nil {
				return mcp.ErrorResult(fmt.Sprintf("invalid featureId: %v", err)), nil
			}
			res := t.repos.Tasks.FindByFeatureID(ctx, fid)
			tasks, _ = res.Value()
		case p.ProjectID != "":
			pid, err := uuid.Parse(p.ProjectID)
			if err != nil {
				return mcp.ErrorResult(fmt.Sprintf("invalid projectId: %v", err)), nil
			}
			res := t.repos.Tasks.FindByProjectID(ctx, pid)
			tasks, _ = res.Value()
		default:
			res := t.repos.Tasks.FindAll(ctx, limit)
			tasks, _ = res.Value()
		}
		if p.Status != "" {
			tasks = filterTasksByStatus(tasks, p.Status)
		}
		if p.Tag != "" {
			tasks = filterTasksByTag(tasks, p.Tag)
		}
		return mcp.JSONResult(map[string]any{"tasks": t.annotateTasks(tasks)})

	default:
		return mcp.ErrorResult(fmt.Sprintf("unknown containerType %q", p.ContainerType)), nil
	}
}

func (t *QueryContainer) fetchOne(ctx context.Context, containerType status.ContainerType, id uuid.UUID) (*mcp.ToolsCallResult, error) {
	switch containerType {
	case status.Project:
		res := t.repos.Projects.GetByID(ctx, id)
		p, ok := res.Value()
		if !ok {
			return mcp.ErrorResult(res.Error().Message), nil
		}
		return mcp.JSONResult(t.annotateProject(p))
	case status.Feature:
		res := t.repos.Features.GetByID(ctx, id)
		f, ok := res.Value()
		if !ok {
			return mcp.ErrorResult(res.Error().Message), nil
		}
		return mcp.JSONResult(t.annotateFeature(f))
	case status.Task:
		res := t.repos.Tasks.GetByID(ctx, id)
		tk, ok := res.Value()
		if !ok {
			return mcp.ErrorResult(res.Error().Message), nil
		}
		return mcp.JSONResult(t.annotateTask(tk))
	default:
		return mcp.ErrorResult(fmt.Sprintf("unknown containerType %q", containerType)), nil
	}
}

// annotated adds the role and canonical status string alongside the raw
// entity, since callers reason about work using roles, not internal statuses.
type annotated struct {
	Entity any    `json:"entity"`
	Status string `json:"status"`
	Role   string `json:"role"`
}

func (t *QueryContainer) annotateProject(p *domain.Project) annotated {
	role := t.progression.GetRoleForStatus(status.Project, p.Tags, p.Status)
	return annotated{Entity: p, Status: status.Normalize(p.Status), Role: string(role)}
}

func (t *QueryContainer) annotateFeature(f *domain.Feature) annotated {
	role := t.progression.GetRoleForStatus(status.Feature, f.Tags, f.Status)
	return annotated{Entity: f, Status: status.Normalize(f.Status), Role: string(role)}
}

func (t *QueryContainer) annotateTask(tk *domain.Task) annotated {
	role := t.progression.GetRoleForStatus(status.Task, tk.Tags, tk.Status)
	return annotated{Entity: tk, Status: status.Normalize(tk.Status), Role: string(role)}
}

func (t *QueryContainer) annotateProjects(projects []*domain.Project) []annotated {
	out := make([]annotated, len(projects))
	for i, p := range projects {
		out[i] = t.annotateProject(p)
	}
	return out
}

func (t *QueryContainer) annotateFeatures(features []*domain.Feature) []annotated {
	out := make([]annotated, len(features))
	for i, f := range features {
		out[i] = t.annotateFeature(f)
	}
	return out
}

func (t *QueryContainer) annotateTasks(tasks []*domain.Task) []annotated {
	out := make([]annotated, len(tasks))
	for i, tk := range tasks {
		out[i] = t.annotateTask(tk)
	}
	return out
}

func filterProjectsByStatus(in []*domain.Project, want string) []*domain.Project {
	want = status.Denormalize(want)
	var out []*domain.Project
	for _, p := range in {
		if p.Status == want {
			out = append(out, p)
		}
	}
	return out
}

func filterFeaturesByStatus(in []*domain.Feature, want string) []*domain.Feature {
	want = status.Denormalize(want)
	var out []*domain.Feature
	for _, f := range in {
		if f.Status == want {
			out = append(out, f)
		}
	}
	return out
}

func filterTasksByStatus(in []*domain.Task, want string) []*domain.Task {
	want = status.Denormalize(want)
	var out []*domain.Task
	for _, tk := range in {
		if tk.Status == want {
			out = append(out, tk)
		}
	}
	return out
}

func filterProjectsByTag(in []*domain.Project, tag string) []*domain.Project {
	var out []*domain.Project
	for _, p := range in {
		if hasTag(p.Tags, tag) {
			out = append(out, p)
		}
	}
	return out
}

func filterFeaturesByTag(in []*domain.Feature, tag string) []*domain.Feature {
	var out []*domain.Feature
	for _, f := range in {
		if hasTag(f.Tags, tag) {
			out = append(out, f)
		}
	}
	return out
}

func filterTasksByTag(in []*domain.Task, tag string) []*domain.Task {
	var out []*domain.Task
	for _, tk := range in {
		if hasTag(tk.Tags, tag) {
			out = append(out, tk)
		}
	}
	return out
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

func sortTasksByPriority(tasks []*domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		pi, pj := priorityRank(tasks[i].Priority), priorityRank(tasks[j].Priority)
		if pi != pj {
			return pi > pj
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}

func priorityRank(p domain.Priority) int {
	switch p {
	case domain.PriorityHigh:
		return 3
	case domain.PriorityMedium:
		return 2
	case domain.PriorityLow:
		return 1
	default:
		return 0
	}
}
