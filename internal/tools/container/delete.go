package container

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/guards"
	"github.com/taskorchestrator/mcp-server/internal/status"
)

func (t *ManageContainer) deleteItems(ctx context.Context, containerType status.ContainerType, items []item) []itemResult {
	results := make([]itemResult, 0, len(items))
	for _, it := range items {
		results = append(results, t.deleteOne(ctx, containerType, it))
	}
	return results
}

func (t *ManageContainer) deleteOne(ctx context.Context, containerType status.ContainerType, it item) itemResult {
	if it.ID == "" {
		return itemResult{OK: false, Error: "id is required for delete"}
	}
	id, err := parseUUID(it.ID)
	if err != nil {
		return itemResult{OK: false, Error: fmt.Sprintf("invalid id: %v", err)}
	}

	holder := uuid.New().String()
	handle := t.locks.Acquire(string(containerType), it.ID, holder)
	defer handle.Release()

	deleteSections := deleteSectionsOrDefault(it)
	switch containerType {
	case status.Project:
		return t.deleteProject(ctx, id, it.Force, deleteSections)
	case status.Feature:
		return t.deleteFeature(ctx, id, it.Force, deleteSections)
	case status.Task:
		return t.deleteTask(ctx, id, it.Force, deleteSections)
	default:
		return itemResult{OK: false, Error: "unknown container type"}
	}
}

func (t *ManageContainer) deleteProject(ctx context.Context, id uuid.UUID, force, deleteSections bool) itemResult {
	featsRes := t.repos.Features.FindByProjectID(ctx, id)
	feats, _ := featsRes.Value()

	gctx := &guards.GuardContext{Operation: "delete", ContainerType: "project", Force: force, HasChildren: len(feats) > 0}
	outcome := t.runner.Run(ctx, gctx, guards.DeleteGuards("project"))
	if outcome.Blocked {
		return itemResult{OK: false, Error: outcome.FormatBlockMessage()}
	}

	for _, f := range feats {
		if res := t.deleteFeatureCascade(ctx, f.ID, deleteSections); !res.OK {
			return res
		}
	}

	if deleteSections {
		t.repos.Sections.DeleteSectionsForEntity(ctx, entityTypeFor(status.Project), id)
	}

	if res := t.repos.Projects.Delete(ctx, id); !res.IsSuccess() {
		return itemResult{OK: false, Error: res.Error().Message}
	}
	return itemResult{OK: true, ID: id.String()}
}

func (t *ManageContainer) deleteFeature(ctx context.Context, id uuid.UUID, force, deleteSections bool) itemResult {
	tasksRes := t.repos.Tasks.FindByFeatureID(ctx, id)
	tasks, _ := tasksRes.Value()

	gctx := &guards.GuardContext{Operation: "delete", ContainerType: "feature", Force: force, HasChildren: len(tasks) > 0}
	outcome := t.runner.Run(ctx, gctx, guards.DeleteGuards("feature"))
	if outcome.Blocked {
		return itemResult{OK: false, Error: outcome.FormatBlockMessage()}
	}
	return t.deleteFeatureCascade(ctx, id, deleteSections)
}

// deleteFeatureCascade deletes a feature and its tasks without re-running
// guards; callers (deleteFeature, deleteProject) have already authorized it.
func (t *ManageContainer) deleteFeatureCascade(ctx context.Context, id uuid.UUID, deleteSections bool) itemResult {
	tasksRes := t.repos.Tasks.FindByFeatureID(ctx, id)
	tasks, _ := tasksRes.Value()
	for _, tk := range tasks {
		if res := t.deleteTaskCascade(ctx, tk.ID, deleteSections); !res.OK {
			return res
		}
	}
	if deleteSections {
		t.repos.Sections.DeleteSectionsForEntity(ctx, entityTypeFor(status.Feature), id)
	}
	if res := t.repos.Features.Delete(ctx, id); !res.IsSuccess() {
		return itemResult{OK: false, Error: res.Error().Message}
	}
	return itemResult{OK: true, ID: id.String()}
}

func (t *ManageContainer) deleteTask(ctx context.Context, id uuid.UUID, force, deleteSections bool) itemResult {
	depsRes := t.repos.Dependencies.FindByTaskID(ctx, id)
	deps, _ := depsRes.Value()

	gctx := &guards.GuardContext{
		Operation:       "delete",
		ContainerType:   "task",
		Force:           force,
		HasDependencies: len(deps) > 0,
	}
	outcome := t.runner.Run(ctx, gctx, guards.DeleteGuards("task"))
	if outcome.Blocked {
		return itemResult{OK: false, Error: outcome.FormatBlockMessage()}
	}
	return t.deleteTaskCascade(ctx, id, deleteSections)
}

// deleteTaskCascade deletes dependencies, then sections, then the task row,
// in FK-safe order — dependency edges and sections reference the task, so
// they must go first.
func (t *ManageContainer) deleteTaskCascade(ctx context.Context, id uuid.UUID, deleteSections bool) itemResult {
	t.repos.Dependencies.DeleteByTaskID(ctx, id)
	if deleteSections {
		t.repos.Sections.DeleteSectionsForEntity(ctx, entityTypeFor(status.Task), id)
	}
	if res := t.repos.Tasks.Delete(ctx, id); !res.IsSuccess() {
		return itemResult{OK: false, Error: res.Error().Message}
	}
	return itemResult{OK: true, ID: id.String()}
}
