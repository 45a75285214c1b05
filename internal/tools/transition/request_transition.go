// Package transition implements the write-path status tools (C13):
// request_transition and set_status.
package transition

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/cascade"
	"github.com/taskorchestrator/mcp-server/internal/lock"
	"github.com/taskorchestrator/mcp-server/internal/mcp"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/status"
	"github.com/taskorchestrator/mcp-server/internal/validator"
)

type requestTransitionParams struct {
	ContainerType string `json:"containerType"`
	ID            string `json:"id"`
	NewStatus     string `json:"newStatus"`
	Force         bool   `json:"force,omitempty"`
}

type requestTransitionResult struct {
	OK       bool              `json:"ok"`
	ID       string            `json:"id"`
	Status   string            `json:"status,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Cascades []cascade.Applied `json:"cascades,omitempty"`
}

// RequestTransition is the request_transition tool: validates a status
// change, writes it, and on success applies any cascades it triggers.
type RequestTransition struct {
	repos       repository.Repositories
	validator   *validator.Validator
	cascade     *cascade.Service
	locks       *lock.Registry
	autoCascade bool
	log         *slog.Logger
}

// New builds the request_transition tool.
func New(repos repository.Repositories, v *validator.Validator, c *cascade.Service, locks *lock.Registry, autoCascade bool, log *slog.Logger) *RequestTransition {
	if log == nil {
		log = slog.Default()
	}
	return &RequestTransition{repos: repos, validator: v, cascade: c, locks: locks, autoCascade: autoCascade, log: log}
}

func (t *RequestTransition) Name() string { return "request_transition" }
func (t *RequestTransition) Description() string {
	return "Request a status change for a project, feature, or task. Validates the transition, writes it on success, and applies any resulting cascades when auto-cascade is enabled."
}
func (t *RequestTransition) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "containerType": {"type": "string", "enum": ["project", "feature", "task"]},
    "id": {"type": "string"},
    "newStatus": {"type": "string"},
    "force": {"type": "boolean", "description": "Proceed even if validation reports the transition invalid"}
  },
  "required": ["containerType", "id", "newStatus"]
}`)
}

func (t *RequestTransition) Execute(ctx context.Context, raw json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p requestTransitionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	containerType := status.ContainerType(p.ContainerType)
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid id: %v", err)), nil
	}

	result := t.transition(ctx, containerType, id, p.NewStatus, p.Force)
	return mcp.JSONResult(result)
}

func (t *RequestTransition) transition(ctx context.Context, containerType status.ContainerType, id uuid.UUID, newStatus string, force bool) requestTransitionResult {
	holder := uuid.New().String()
	handle := t.locks.Acquire(string(containerType), id.String(), holder)
	defer handle.Release()

	vctx := validator.Context{
		Projects: t.repos.Projects,
		Features: t.repos.Features,
		Tasks:    t.repos.Tasks,
		Deps:     t.repos.Dependencies,
	}

	switch containerType {
	case status.Project:
		res := t.repos.Projects.GetByID(ctx, id)
		p, ok := res.Value()
		if !ok {
			return requestTransitionResult{OK: false, ID: id.String(), Reason: res.Error().Message}
		}
		outcome := t.validator.ValidateTransition(ctx, status.Project, id, p.Status, newStatus, p.Tags, vctx)
		if !outcome.Valid && !force {
			return requestTransitionResult{OK: false, ID: id.String(), Reason: outcome.Reason}
		}
		p.Status = status.Denormalize(newStatus)
		if writeRes := t.repos.Projects.Update(ctx, p); !writeRes.IsSuccess() {
			return requestTransitionResult{OK: false, ID: id.String(), Reason: writeRes.Error().Message}
		}
		return requestTransitionResult{OK: true, ID: id.String(), Status: status.Normalize(p.Status), Cascades: t.applyCascades(ctx, id, status.Project)}

	case status.Feature:
		res := t.repos.Features.GetByID(ctx, id)
		f, ok := res.Value()
		if !ok {
			return requestTransitionResult{OK: false, ID: id.String(), Reason: res.Error().Message}
		}
		outcome := t.validator.ValidateTransition(ctx, status.Feature, id, f.Status, newStatus, f.Tags, vctx)
		if !outcome.Valid && !force {
			return requestTransitionResult{OK: false, ID: id.String(), Reason: outcome.Reason}
		}
		f.Status = status.Denormalize(newStatus)
		if writeRes := t.repos.Features.Update(ctx, f); !writeRes.IsSuccess() {
			return requestTransitionResult{OK: false, ID: id.String(), Reason: writeRes.Error().Message}
		}
		return requestTransitionResult{OK: true, ID: id.String(), Status: status.Normalize(f.Status), Cascades: t.applyCascades(ctx, id, status.Feature)}

	case status.Task:
		res := t.repos.Tasks.GetByID(ctx, id)
		tk, ok := res.Value()
		if !ok {
			return requestTransitionResult{OK: false, ID: id.String(), Reason: res.Error().Message}
		}
		outcome := t.validator.ValidateTransition(ctx, status.Task, id, tk.Status, newStatus, tk.Tags, vctx)
		if !outcome.Valid && !force {
			return requestTransitionResult{OK: false, ID: id.String(), Reason: outcome.Reason}
		}
		tk.Status = status.Denormalize(newStatus)
		if writeRes := t.repos.Tasks.Update(ctx, tk); !writeRes.IsSuccess() {
			return requestTransitionResult{OK: false, ID: id.String(), Reason: writeRes.Error().Message}
		}
		return requestTransitionResult{OK: true, ID: id.String(), Status: status.Normalize(tk.Status), Cascades: t.applyCascades(ctx, id, status.Task)}

	default:
		return requestTransitionResult{OK: false, ID: id.String(), Reason: fmt.Sprintf("unknown container type %q", containerType)}
	}
}

func (t *RequestTransition) applyCascades(ctx context.Context, id uuid.UUID, containerType status.ContainerType) []cascade.Applied {
	if !t.autoCascade || t.cascade == nil {
		return nil
	}
	return t.cascade.ApplyCascades(ctx, id, containerType, 0)
}
