// Package validator implements the StatusValidator (C4): status legality
// checks, flow-adjacency transition rules, and role-aware prerequisite
// guards, generalized across container types and tag-selected flows rather
// than one hand-written validator per entity type.
package validator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/status"
	"github.com/taskorchestrator/mcp-server/internal/workflow"
)

// Common errors. ValidateStatus and ValidateTransition do not return these;
// they report failures as Outcome.Reason strings.
var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrUnknownStatus     = errors.New("unknown status for container type")
)

// Outcome is the Valid | Invalid(reason) result of validateTransition and
// validateStatus.
type Outcome struct {
	Valid  bool
	Reason string
}

func valid() Outcome              { return Outcome{Valid: true} }
func invalid(format string, args ...any) Outcome {
	return Outcome{Valid: false, Reason: fmt.Sprintf(format, args...)}
}

// Context bundles the repositories validateTransition needs to run
// prerequisite checks, mirroring spec.md §4.4's "context bundles the four
// main repositories".
type Context struct {
	Projects repository.ProjectRepository
	Features repository.FeatureRepository
	Tasks    repository.TaskRepository
	Deps     repository.DependencyRepository
}

// Validator is the StatusValidator (C4).
type Validator struct {
	progression *workflow.Service
}

// New builds a Validator that consults progression for flow resolution and
// role-aware prerequisite checks.
func New(progression *workflow.Service) *Validator {
	return &Validator{progression: progression}
}

// ValidateStatus checks that candidate (either external or internal form)
// parses into a legal status for containerType.
func (v *Validator) ValidateStatus(containerType status.ContainerType, candidate string) Outcome {
	if _, ok := status.ValidateStatus(containerType, candidate); !ok {
		return invalid("%q is not a valid status for %s", candidate, containerType)
	}
	return valid()
}

// GetAllowedStatuses returns the canonical external form of every legal
// status for containerType.
func (v *Validator) GetAllowedStatuses(containerType status.ContainerType) []string {
	return status.AllowedStatuses(containerType)
}

// ValidateTransition applies the four transition rules from spec.md §4.4:
// legality, flow-adjacency-or-terminal, role-aware prerequisites, and the
// same-status no-op.
func (v *Validator) ValidateTransition(ctx context.Context, containerType status.ContainerType, containerID uuid.UUID, currentStatus, newStatus string, tags []string, repos Context) Outcome {
	current := status.Denormalize(currentStatus)
	next := status.Denormalize(newStatus)

	if current == next {
		return valid()
	}

	if _, ok := status.ValidateStatus(containerType, next); !ok {
		return invalid("%q is not a valid status for %s", newStatus, containerType)
	}

	flow, ok := v.progression.GetFlowPath(containerType, tags)
	if !ok {
		return invalid("no flow configured for %s", containerType)
	}

	if !isFlowAdjacentOrTerminal(flow, current, next) {
		return invalid("cannot move %s from %q to %q: not adjacent in the active flow and not a terminal status", containerType, currentStatus, newStatus)
	}

	return v.checkPrerequisites(ctx, containerType, containerID, next, repos)
}

// isFlowAdjacentOrTerminal implements rule 2: newStatus must be the
// immediate successor of currentStatus, the immediate predecessor
// (backward moves are permitted one step only), or a terminal status of the
// flow.
func isFlowAdjacentOrTerminal(flow workflow.FlowPath, current, next string) bool {
	if flow.IsTerminal(next) {
		return true
	}
	ci, ni := flow.IndexOf(current), flow.IndexOf(next)
	if ci < 0 || ni < 0 {
		return false
	}
	return ni == ci+1 || ni == ci-1
}

// checkPrerequisites implements rule 3. It is role-aware: Task advancement
// checks incoming BLOCKS dependencies via the progression service; Feature
// and Project advancement to a terminal status check their children.
func (v *Validator) checkPrerequisites(ctx context.Context, containerType status.ContainerType, containerID uuid.UUID, next string, repos Context) Outcome {
	switch containerType {
	case status.Task:
		return v.checkTaskBlockers(ctx, containerID, repos)

	case status.Feature:
		if !status.IsTerminal(next) || repos.Tasks == nil {
			return valid()
		}
		return v.checkFeatureChildrenTerminal(ctx, containerID, repos)

	case status.Project:
		if !status.IsTerminal(next) || repos.Features == nil {
			return valid()
		}
		return v.checkProjectChildrenTerminal(ctx, containerID, repos)
	}
	return valid()
}

func (v *Validator) checkTaskBlockers(ctx context.Context, taskID uuid.UUID, repos Context) Outcome {
	if repos.Deps == nil || repos.Tasks == nil || taskID == uuid.Nil {
		return valid()
	}
	depsRes := repos.Deps.FindByToTaskID(ctx, taskID)
	deps, ok := depsRes.Value()
	if !ok {
		return valid()
	}

	var blockers []string
	for _, dep := range deps {
		if dep.Type != domain.DepBlocks {
			continue
		}
		blockerRes := repos.Tasks.GetByID(ctx, dep.FromTaskID)
		blocker, ok := blockerRes.Value()
		if !ok {
			continue
		}
		threshold := workflow.EffectiveUnblockRole(dep)
		role := v.progression.GetRoleForStatus(status.Task, blocker.Tags, blocker.Status)
		if !v.progression.IsRoleAtOrBeyond(role, threshold) {
			blockers = append(blockers, fmt.Sprintf("%s (%s)", blocker.ID, blocker.Title))
		}
	}
	if len(blockers) > 0 {
		return invalid("task %s is blocked by: %v", taskID, blockers)
	}
	return valid()
}

func (v *Validator) checkFeatureChildrenTerminal(ctx context.Context, featureID uuid.UUID, repos Context) Outcome {
	tasksRes := repos.Tasks.FindByFeatureID(ctx, featureID)
	tasks, ok := tasksRes.Value()
	if !ok {
		return valid()
	}
	for _, t := range tasks {
		if !status.IsTerminal(t.Status) {
			return invalid("feature %s cannot complete: task %s (%s) is not terminal", featureID, t.ID, t.Title)
		}
	}
	return valid()
}

func (v *Validator) checkProjectChildrenTerminal(ctx context.Context, projectID uuid.UUID, repos Context) Outcome {
	featsRes := repos.Features.FindByProjectID(ctx, projectID)
	feats, ok := featsRes.Value()
	if !ok {
		return valid()
	}
	for _, f := range feats {
		if !status.IsTerminal(f.Status) {
			return invalid("project %s cannot complete: feature %s (%s) is not terminal", projectID, f.ID, f.Name)
		}
	}
	return valid()
}
