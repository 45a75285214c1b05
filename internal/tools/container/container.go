// Package container implements ManageContainer (C8): the single batched
// write path for creating, updating, and deleting projects, features, and
// tasks.
package container

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/cascade"
	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/guards"
	"github.com/taskorchestrator/mcp-server/internal/lock"
	"github.com/taskorchestrator/mcp-server/internal/mcp"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/status"
	"github.com/taskorchestrator/mcp-server/internal/template"
	"github.com/taskorchestrator/mcp-server/internal/validator"
	"github.com/taskorchestrator/mcp-server/internal/workflow"
)

// item is one entry of ManageContainer's items array. Fields are shared
// across create/update/delete; which ones matter depends on operation.
type item struct {
	ID                   string   `json:"id,omitempty"`
	Name                 string   `json:"name,omitempty"`
	Description          string   `json:"description,omitempty"`
	Summary              string   `json:"summary,omitempty"`
	Status               string   `json:"status,omitempty"`
	Priority             string   `json:"priority,omitempty"`
	Complexity           int      `json:"complexity,omitempty"`
	ProjectID            string   `json:"projectId,omitempty"`
	FeatureID            string   `json:"featureId,omitempty"`
	RequiresVerification bool     `json:"requiresVerification,omitempty"`
	Tags                 []string `json:"tags,omitempty"`
	TemplateIDs          []string `json:"templateIds,omitempty"`
	Force                bool     `json:"force,omitempty"`
	DeleteSections       *bool    `json:"deleteSections,omitempty"`
}

// deleteSectionsOrDefault reports whether an item's own sections should be
// removed on delete. Unset means true.
func deleteSectionsOrDefault(it item) bool {
	return it.DeleteSections == nil || *it.DeleteSections
}

// params is the input for ManageContainer.
type params struct {
	Operation     string `json:"operation"`
	ContainerType string `json:"containerType"`
	Items         []item `json:"items"`
}

// itemResult reports what happened to one item.
type itemResult struct {
	OK         bool   `json:"ok"`
	ID         string `json:"id,omitempty"`
	Error      string `json:"error,omitempty"`
	Advisories string `json:"advisories,omitempty"`
}

// ManageContainer is the C8 tool.
type ManageContainer struct {
	repos       repository.Repositories
	templates   *template.Engine
	runner      *guards.Runner
	locks       *lock.Registry
	validator   *validator.Validator
	cascade     *cascade.Service
	progression *workflow.Service
	autoCascade bool
	log         *slog.Logger
}

// New builds the ManageContainer tool.
func New(repos repository.Repositories, templates *template.Engine, locks *lock.Registry, v *validator.Validator, c *cascade.Service, progression *workflow.Service, autoCascade bool, log *slog.Logger) *ManageContainer {
	if log == nil {
		log = slog.Default()
	}
	return &ManageContainer{
		repos:       repos,
		templates:   templates,
		runner:      guards.NewRunner(),
		locks:       locks,
		validator:   v,
		cascade:     c,
		progression: progression,
		autoCascade: autoCascade,
		log:         log,
	}
}

func (t *ManageContainer) Name() string { return "manage_container" }

func (t *ManageContainer) Description() string {
	return "Batched create/update/delete across project, feature, and task containers. Create applies templates and runs suggestion-level guards; update validates status transitions and reports resulting cascade suggestions without applying them; delete runs blocking guards and cascades the removal in FK-safe order."
}

func (t *ManageContainer) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "operation": {"type": "string", "enum": ["create", "update", "delete"]},
    "containerType": {"type": "string", "enum": ["project", "feature", "task"]},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string", "description": "Required for update/delete"},
          "name": {"type": "string", "description": "Project/feature name, or task title"},
          "description": {"type": "string"},
          "summary": {"type": "string"},
          "status": {"type": "string", "description": "Target status (update only)"},
          "priority": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH"]},
          "complexity": {"type": "integer", "minimum": 1, "maximum": 10, "description": "Task only"},
          "projectId": {"type": "string", "description": "Feature/task parent project"},
          "featureId": {"type": "string", "description": "Task parent feature"},
          "requiresVerification": {"type": "boolean"},
          "tags": {"type": "array", "items": {"type": "string"}},
          "templateIds": {"type": "array", "items": {"type": "string"}, "description": "Create only"},
          "force": {"type": "boolean", "description": "Override soft-block guards"},
          "deleteSections": {"type": "boolean", "description": "Delete only; default true"}
        }
      }
    }
  },
  "required": ["operation", "containerType", "items"]
}`)
}

func (t *ManageContainer) Execute(ctx context.Context, raw json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p params
	if err := json.Unmarshal(raw, &p); err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	containerType := status.ContainerType(p.ContainerType)
	switch containerType {
	case status.Project, status.Feature, status.Task:
	default:
		return mcp.ErrorResult(fmt.Sprintf("unknown containerType %q", p.ContainerType)), nil
	}

	var results []itemResult
	var cascadeEvents []cascade.Event
	var unblockedTasks []cascade.UnblockedTask
	switch p.Operation {
	case "create":
		results = t.createItems(ctx, containerType, p.Items)
	case "update":
		results, cascadeEvents, unblockedTasks = t.updateItems(ctx, containerType, p.Items)
	case "delete":
		results = t.deleteItems(ctx, containerType, p.Items)
	default:
		return mcp.ErrorResult(fmt.Sprintf("unknown operation %q", p.Operation)), nil
	}

	return mcp.JSONResult(map[string]any{
		"results":        results,
		"cascadeEvents":  cascadeEvents,
		"unblockedTasks": unblockedTasks,
	})
}

func normalizeTags(tags []string) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = strings.ToLower(strings.TrimSpace(tag))
	}
	return out
}

func entityTypeFor(containerType status.ContainerType) domain.EntityType {
	switch containerType {
	case status.Project:
		return domain.EntityProject
	case status.Feature:
		return domain.EntityFeature
	default:
		return domain.EntityTask
	}
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
