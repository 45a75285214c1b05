package cascade

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/config"
	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/status"
)

// CleanupResult is the outcome of CompletionCleanupService.CleanupFeatureTasks.
type CleanupResult struct {
	TasksDeleted        int
	TasksRetained       int
	RetainedTaskIDs      []uuid.UUID
	SectionsDeleted     int
	DependenciesDeleted int
	Reason              string
	Performed           bool
}

// CleanupService is the CompletionCleanupService (C6).
type CleanupService struct {
	repos repository.Repositories
	cfg   config.CleanupConfig
}

// NewCleanupService builds a CompletionCleanupService.
func NewCleanupService(repos repository.Repositories, cfg config.CleanupConfig) *CleanupService {
	return &CleanupService{repos: repos, cfg: cfg}
}

// CleanupFeatureTasks implements §4.6. Returns nil when targetStatus is not
// terminal or cleanup is disabled.
func (c *CleanupService) CleanupFeatureTasks(ctx context.Context, featureID uuid.UUID, targetStatus string) *CleanupResult {
	if !status.IsTerminal(status.Denormalize(targetStatus)) {
		return nil
	}
	if !c.cfg.Enabled {
		return nil
	}

	tasksRes := c.repos.Tasks.FindByFeatureID(ctx, featureID)
	tasks, ok := tasksRes.Value()
	if !ok {
		return nil
	}

	keep := make(map[string]bool, len(c.cfg.KeepTags))
	for _, t := range c.cfg.KeepTags {
		keep[t] = true
	}

	result := &CleanupResult{Performed: true, Reason: "feature reached a terminal status"}

	for _, task := range tasks {
		if task.RequiresVerification || hasAnyTag(task.Tags, keep) {
			result.TasksRetained++
			result.RetainedTaskIDs = append(result.RetainedTaskIDs, task.ID)
			continue
		}

		// FK-safe deletion order: dependency edges, then sections, then the
		// task row itself (see §3 lifecycle).
		if depsRes := c.repos.Dependencies.DeleteByTaskID(ctx, task.ID); depsRes.IsSuccess() {
			n, _ := depsRes.Value()
			result.DependenciesDeleted += n
		}
		if secsRes := c.repos.Sections.DeleteSectionsForEntity(ctx, domain.EntityTask, task.ID); secsRes.IsSuccess() {
			n, _ := secsRes.Value()
			result.SectionsDeleted += n
		}
		if c.repos.Tasks.Delete(ctx, task.ID).IsSuccess() {
			result.TasksDeleted++
		}
	}

	return result
}

func hasAnyTag(tags []string, keep map[string]bool) bool {
	for _, t := range tags {
		if keep[t] {
			return true
		}
	}
	return false
}
