package container

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/cascade"
	"github.com/taskorchestrator/mcp-server/internal/status"
	"github.com/taskorchestrator/mcp-server/internal/validator"
)

// updateItems applies each item's update, then — when auto-cascade is
// enabled, per successful item whose update carried a status, including one
// equal to the current status — collects cascade suggestions. Detection is
// not limited to items whose status actually changed, so repeating an
// identical status update reports the same suggestions again. It never
// applies them; applying a suggested transition is request_transition's job
// (C13).
func (t *ManageContainer) updateItems(ctx context.Context, containerType status.ContainerType, items []item) ([]itemResult, []cascade.Event, []cascade.UnblockedTask) {
	results := make([]itemResult, 0, len(items))
	var events []cascade.Event
	var unblocked []cascade.UnblockedTask

	for _, it := range items {
		res, id, statusChanged := t.updateOne(ctx, containerType, it)
		results = append(results, res)
		if !res.OK || !statusChanged || t.cascade == nil || !t.autoCascade {
			continue
		}
		events = append(events, t.cascade.DetectCascadeEvents(ctx, id, containerType)...)
		if containerType == status.Task && t.taskReachedTerminal(ctx, id) {
			unblocked = append(unblocked, t.cascade.FindNewlyUnblockedTasks(ctx, id)...)
		}
	}
	return results, events, unblocked
}

func (t *ManageContainer) updateOne(ctx context.Context, containerType status.ContainerType, it item) (itemResult, uuid.UUID, bool) {
	if it.ID == "" {
		return itemResult{OK: false, Error: "id is required for update"}, uuid.Nil, false
	}
	id, err := parseUUID(it.ID)
	if err != nil {
		return itemResult{OK: false, Error: fmt.Sprintf("invalid id: %v", err)}, uuid.Nil, false
	}

	holder := uuid.New().String()
	handle := t.locks.Acquire(string(containerType), it.ID, holder)
	defer handle.Release()

	switch containerType {
	case status.Project:
		res, changed := t.updateProject(ctx, id, it)
		return res, id, changed
	case status.Feature:
		res, changed := t.updateFeature(ctx, id, it)
		return res, id, changed
	case status.Task:
		res, changed := t.updateTask(ctx, id, it)
		return res, id, changed
	default:
		return itemResult{OK: false, Error: "unknown container type"}, id, false
	}
}

func (t *ManageContainer) updateProject(ctx context.Context, id uuid.UUID, it item) (itemResult, bool) {
	res := t.repos.Projects.GetByID(ctx, id)
	p, ok := res.Value()
	if !ok {
		return itemResult{OK: false, Error: res.Error().Message}, false
	}
	applyCommonFields(&p.Name, &p.Description, &p.Summary, &p.Tags, it)

	statusChanging := it.Status != ""
	if statusChanging {
		outcome := t.validator.ValidateTransition(ctx, status.Project, id, p.Status, it.Status, p.Tags, validator.Context{
			Projects: t.repos.Projects,
			Features: t.repos.Features,
			Tasks:    t.repos.Tasks,
			Deps:     t.repos.Dependencies,
		})
		if !outcome.Valid && !it.Force {
			return itemResult{OK: false, Error: outcome.Reason}, false
		}
		p.Status = status.Denormalize(it.Status)
	}

	if writeRes := t.repos.Projects.Update(ctx, p); !writeRes.IsSuccess() {
		return itemResult{OK: false, Error: writeRes.Error().Message}, false
	}
	return itemResult{OK: true, ID: id.String()}, statusChanging
}

func (t *ManageContainer) updateFeature(ctx context.Context, id uuid.UUID, it item) (itemResult, bool) {
	res := t.repos.Features.GetByID(ctx, id)
	f, ok := res.Value()
	if !ok {
		return itemResult{OK: false, Error: res.Error().Message}, false
	}
	applyCommonFields(&f.Name, &f.Description, &f.Summary, &f.Tags, it)
	if it.Priority != "" {
		priority, err := validatePriority(it.Priority)
		if err != nil {
			return itemResult{OK: false, Error: err.Error()}, false
		}
		f.Priority = priority
	}

	statusChanging := it.Status != ""
	if statusChanging {
		outcome := t.validator.ValidateTransition(ctx, status.Feature, id, f.Status, it.Status, f.Tags, validator.Context{
			Projects: t.repos.Projects,
			Features: t.repos.Features,
			Tasks:    t.repos.Tasks,
			Deps:     t.repos.Dependencies,
		})
		if !outcome.Valid && !it.Force {
			return itemResult{OK: false, Error: outcome.Reason}, false
		}
		f.Status = status.Denormalize(it.Status)
	}

	if writeRes := t.repos.Features.Update(ctx, f); !writeRes.IsSuccess() {
		return itemResult{OK: false, Error: writeRes.Error().Message}, false
	}
	return itemResult{OK: true, ID: id.String()}, statusChanging
}

func (t *ManageContainer) updateTask(ctx context.Context, id uuid.UUID, it item) (itemResult, bool) {
	res := t.repos.Tasks.GetByID(ctx, id)
	tk, ok := res.Value()
	if !ok {
		return itemResult{OK: false, Error: res.Error().Message}, false
	}
	applyCommonFields(&tk.Title, &tk.Description, &tk.Summary, &tk.Tags, it)
	if it.Priority != "" {
		priority, err := validatePriority(it.Priority)
		if err != nil {
			return itemResult{OK: false, Error: err.Error()}, false
		}
		tk.Priority = priority
	}
	if it.Complexity != 0 {
		if it.Complexity < 1 || it.Complexity > 10 {
			return itemResult{OK: false, Error: fmt.Sprintf("complexity must be between 1 and 10, got %d", it.Complexity)}, false
		}
		tk.Complexity = it.Complexity
	}

	statusChanging := it.Status != ""
	if statusChanging {
		outcome := t.validator.ValidateTransition(ctx, status.Task, id, tk.Status, it.Status, tk.Tags, validator.Context{
			Projects: t.repos.Projects,
			Features: t.repos.Features,
			Tasks:    t.repos.Tasks,
			Deps:     t.repos.Dependencies,
		})
		if !outcome.Valid && !it.Force {
			return itemResult{OK: false, Error: outcome.Reason}, false
		}
		tk.Status = status.Denormalize(it.Status)
	}

	if writeRes := t.repos.Tasks.Update(ctx, tk); !writeRes.IsSuccess() {
		return itemResult{OK: false, Error: writeRes.Error().Message}, false
	}
	return itemResult{OK: true, ID: id.String()}, statusChanging
}

func applyCommonFields(name, description, summary *string, tags *[]string, it item) {
	if it.Name != "" {
		*name = it.Name
	}
	if it.Description != "" {
		*description = it.Description
	}
	if it.Summary != "" {
		*summary = it.Summary
	}
	if it.Tags != nil {
		*tags = normalizeTags(it.Tags)
	}
}

// taskReachedTerminal reports whether the task's current (post-write)
// status resolves to the terminal role, the trigger for checking whether
// it unblocked any downstream task.
func (t *ManageContainer) taskReachedTerminal(ctx context.Context, id uuid.UUID) bool {
	res := t.repos.Tasks.GetByID(ctx, id)
	tk, ok := res.Value()
	if !ok {
		return false
	}
	role := t.progression.GetRoleForStatus(status.Task, tk.Tags, tk.Status)
	return t.progression.IsRoleAtOrBeyond(role, status.RoleTerminal)
}
