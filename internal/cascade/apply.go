package cascade

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/status"
	"github.com/taskorchestrator/mcp-server/internal/validator"
	"github.com/taskorchestrator/mcp-server/internal/workflow"
)

// ApplyCascades implements §4.5.2. depth starts at 0 from tool callers.
func (s *Service) ApplyCascades(ctx context.Context, containerID uuid.UUID, containerType status.ContainerType, depth int) []Applied {
	maxDepth := s.cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if depth >= maxDepth {
		s.log.Warn("applyCascades depth guard triggered", "container_id", containerID, "container_type", containerType, "depth", depth)
		return nil
	}

	events := s.DetectCascadeEvents(ctx, containerID, containerType)
	results := make([]Applied, 0, len(events))

	for _, event := range events {
		results = append(results, s.applyOne(ctx, event, depth, maxDepth))
	}
	return results
}

func (s *Service) applyOne(ctx context.Context, event Event, depth, maxDepth int) Applied {
	current, tags, ok := s.readCurrentStatus(ctx, event.TargetType, event.TargetID)
	if !ok {
		return Applied{Event: event, Applied: false, Error: "target entity no longer exists"}
	}

	if status.Denormalize(current) == status.Denormalize(event.SuggestedStatus) {
		return Applied{Event: event, Applied: false}
	}

	outcome := s.validator.ValidateTransition(ctx, event.TargetType, event.TargetID, current, event.SuggestedStatus, tags, validator.Context{
		Projects: s.repos.Projects,
		Features: s.repos.Features,
		Tasks:    s.repos.Tasks,
		Deps:     s.repos.Dependencies,
	})
	if !outcome.Valid {
		return Applied{Event: event, Applied: false, Error: outcome.Reason}
	}

	if err := s.writeStatus(ctx, event.TargetType, event.TargetID, event.SuggestedStatus); err != nil {
		return Applied{Event: event, Applied: false, Error: err.Error()}
	}

	applied := Applied{Event: event, Applied: true}

	if event.TargetType == status.Task {
		newRole := s.progression.GetRoleForStatus(status.Task, tags, status.Denormalize(event.SuggestedStatus))
		if s.progression.IsRoleAtOrBeyond(newRole, status.RoleTerminal) {
			applied.Unblocked = s.FindNewlyUnblockedTasks(ctx, event.TargetID)
		}
	}

	if event.TargetType == status.Feature && s.cleanup != nil {
		applied.Cleanup = s.cleanup.CleanupFeatureTasks(ctx, event.TargetID, event.SuggestedStatus)
	}

	applied.ChildCascades = s.ApplyCascades(ctx, event.TargetID, event.TargetType, depth+1)

	return applied
}

func (s *Service) readCurrentStatus(ctx context.Context, containerType status.ContainerType, id uuid.UUID) (string, []string, bool) {
	switch containerType {
	case status.Project:
		res := s.repos.Projects.GetByID(ctx, id)
		p, ok := res.Value()
		if !ok {
			return "", nil, false
		}
		return p.Status, p.Tags, true
	case status.Feature:
		res := s.repos.Features.GetByID(ctx, id)
		f, ok := res.Value()
		if !ok {
			return "", nil, false
		}
		return f.Status, f.Tags, true
	case status.Task:
		res := s.repos.Tasks.GetByID(ctx, id)
		t, ok := res.Value()
		if !ok {
			return "", nil, false
		}
		return t.Status, t.Tags, true
	default:
		return "", nil, false
	}
}

func (s *Service) writeStatus(ctx context.Context, containerType status.ContainerType, id uuid.UUID, newStatus string) error {
	switch containerType {
	case status.Project:
		res := s.repos.Projects.GetByID(ctx, id)
		p, ok := res.Value()
		if !ok {
			return res.Error()
		}
		p.Status = status.Denormalize(newStatus)
		return s.repos.Projects.Update(ctx, p).Error().AsError()
	case status.Feature:
		res := s.repos.Features.GetByID(ctx, id)
		f, ok := res.Value()
		if !ok {
			return res.Error()
		}
		f.Status = status.Denormalize(newStatus)
		return s.repos.Features.Update(ctx, f).Error().AsError()
	case status.Task:
		res := s.repos.Tasks.GetByID(ctx, id)
		t, ok := res.Value()
		if !ok {
			return res.Error()
		}
		t.Status = status.Denormalize(newStatus)
		return s.repos.Tasks.Update(ctx, t).Error().AsError()
	default:
		return nil
	}
}

// FindNewlyUnblockedTasks implements §4.5.3.
func (s *Service) FindNewlyUnblockedTasks(ctx context.Context, completedTaskID uuid.UUID) []UnblockedTask {
	outRes := s.repos.Dependencies.FindByFromTaskID(ctx, completedTaskID)
	outgoing, ok := outRes.Value()
	if !ok {
		return nil
	}

	var unblocked []UnblockedTask
	seen := make(map[uuid.UUID]bool)

	for _, edge := range outgoing {
		if edge.Type != domain.DepBlocks || seen[edge.ToTaskID] {
			continue
		}
		seen[edge.ToTaskID] = true

		downRes := s.repos.Tasks.GetByID(ctx, edge.ToTaskID)
		downstream, ok := downRes.Value()
		if !ok {
			continue
		}

		role := s.progression.GetRoleForStatus(status.Task, downstream.Tags, downstream.Status)
		if s.progression.IsRoleAtOrBeyond(role, status.RoleTerminal) {
			continue
		}

		if s.allBlockersSatisfied(ctx, downstream) {
			unblocked = append(unblocked, UnblockedTask{TaskID: downstream.ID, Title: downstream.Title})
		}
	}

	return unblocked
}

func (s *Service) allBlockersSatisfied(ctx context.Context, task *domain.Task) bool {
	inRes := s.repos.Dependencies.FindByToTaskID(ctx, task.ID)
	incoming, ok := inRes.Value()
	if !ok {
		return true
	}

	for _, edge := range incoming {
		if edge.Type != domain.DepBlocks {
			continue
		}
		blockerRes := s.repos.Tasks.GetByID(ctx, edge.FromTaskID)
		blocker, ok := blockerRes.Value()
		if !ok {
			continue // missing blockers are treated as satisfied
		}
		threshold := workflow.EffectiveUnblockRole(edge)
		role := s.progression.GetRoleForStatus(status.Task, blocker.Tags, blocker.Status)
		if !s.progression.IsRoleAtOrBeyond(role, threshold) {
			return false
		}
	}
	return true
}
