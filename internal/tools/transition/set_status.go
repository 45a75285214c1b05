package transition

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/mcp"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/status"
)

type setStatusParams struct {
	ID        string `json:"id"`
	NewStatus string `json:"newStatus"`
	Force     bool   `json:"force,omitempty"`
}

// SetStatus is a thin convenience over RequestTransition: it resolves id's
// container type by probing the repositories (project, then feature, then
// task — first hit wins) so callers don't need to know the container type.
type SetStatus struct {
	repos      repository.Repositories
	transition *RequestTransition
}

// NewSetStatus builds the set_status tool over an existing RequestTransition.
func NewSetStatus(repos repository.Repositories, rt *RequestTransition) *SetStatus {
	return &SetStatus{repos: repos, transition: rt}
}

func (t *SetStatus) Name() string { return "set_status" }
func (t *SetStatus) Description() string {
	return "Set a container's status without specifying its type; resolves project, then feature, then task by id."
}
func (t *SetStatus) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {"type": "string"},
    "newStatus": {"type": "string"},
    "force": {"type": "boolean"}
  },
  "required": ["id", "newStatus"]
}`)
}

func (t *SetStatus) Execute(ctx context.Context, raw json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p setStatusParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid id: %v", err)), nil
	}

	containerType, ok := t.resolveContainerType(ctx, id)
	if !ok {
		return mcp.ErrorResult(fmt.Sprintf("no project, feature, or task found with id %s", id)), nil
	}

	result := t.transition.transition(ctx, containerType, id, p.NewStatus, p.Force)
	return mcp.JSONResult(result)
}

func (t *SetStatus) resolveContainerType(ctx context.Context, id uuid.UUID) (status.ContainerType, bool) {
	if res := t.repos.Projects.GetByID(ctx, id); res.IsSuccess() {
		return status.Project, true
	}
	if res := t.repos.Features.GetByID(ctx, id); res.IsSuccess() {
		return status.Feature, true
	}
	if res := t.repos.Tasks.GetByID(ctx, id); res.IsSuccess() {
		return status.Task, true
	}
	return "", false
}
