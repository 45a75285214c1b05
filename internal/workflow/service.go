package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/status"
)

// RecommendationKind discriminates the NextStatusRecommendation variants
// from spec.md §4.3.
type RecommendationKind string

const (
	Ready      RecommendationKind = "ready"
	Blocked    RecommendationKind = "blocked"
	AtTerminal RecommendationKind = "at_terminal"
	NoFlow     RecommendationKind = "no_flow"
)

// NextStatusRecommendation is the result of getNextStatus. Only the fields
// relevant to Kind are populated.
type NextStatusRecommendation struct {
	Kind              RecommendationKind
	RecommendedStatus string // internal form
	ActiveFlow        string
	Role              status.Role
	Reason            string
	Blockers          []string
}

// Service is the StatusProgressionService (C3). It consults the repository
// bundle only to evaluate role-aware prerequisites when recommending the
// next status for a task.
type Service struct {
	registry *Registry
	repos    repository.Repositories
}

// NewService builds a StatusProgressionService over the given flow registry
// and repository bundle.
func NewService(registry *Registry, repos repository.Repositories) *Service {
	return &Service{registry: registry, repos: repos}
}

// GetFlowPath selects the active flow for a container, given its tags.
func (s *Service) GetFlowPath(containerType status.ContainerType, tags []string) (FlowPath, bool) {
	def, ok := s.registry.resolve(containerType, tags)
	if !ok {
		return FlowPath{}, false
	}
	return toFlowPath(def), true
}

// GetRoleForStatus returns the role internalStatus maps to under the flow
// active for containerType+tags.
func (s *Service) GetRoleForStatus(containerType status.ContainerType, tags []string, internalStatus string) status.Role {
	flow, ok := s.GetFlowPath(containerType, tags)
	if !ok {
		return status.DefaultRole(internalStatus)
	}
	return flow.RoleFor(internalStatus)
}

// IsRoleAtOrBeyond is kept on the service, rather than called directly
// against the status package, so that a future flow-local role order could
// override it without a second copy of the ordering logic appearing at call
// sites. The current implementation delegates straight through.
func (s *Service) IsRoleAtOrBeyond(r, threshold status.Role) bool {
	return status.IsRoleAtOrBeyond(r, threshold)
}

// GetNextStatus recommends the next status for a container currently at
// currentStatus (internal form). containerID is consulted only when role-
// aware prerequisite checks are needed (task dependency blockers).
func (s *Service) GetNextStatus(ctx context.Context, containerType status.ContainerType, tags []string, currentStatus string, containerID uuid.UUID) NextStatusRecommendation {
	flow, ok := s.GetFlowPath(containerType, tags)
	if !ok {
		return NextStatusRecommendation{Kind: NoFlow}
	}

	if flow.IsTerminal(currentStatus) {
		return NextStatusRecommendation{Kind: AtTerminal, ActiveFlow: flow.Name}
	}

	idx := flow.IndexOf(currentStatus)
	if idx < 0 {
		return NextStatusRecommendation{Kind: NoFlow}
	}
	if idx+1 >= len(flow.Sequence) {
		return NextStatusRecommendation{Kind: AtTerminal, ActiveFlow: flow.Name}
	}

	next := flow.Sequence[idx+1]
	role := flow.RoleFor(next)

	if containerType == status.Task {
		if blockers := s.unmetBlockers(ctx, containerID); len(blockers) > 0 {
			return NextStatusRecommendation{
				Kind:       Blocked,
				ActiveFlow: flow.Name,
				Reason:     fmt.Sprintf("task %s is blocked by %d unfinished dependency task(s)", containerID, len(blockers)),
				Blockers:   blockers,
			}
		}
	}

	return NextStatusRecommendation{
		Kind:              Ready,
		RecommendedStatus: next,
		ActiveFlow:        flow.Name,
		Role:              role,
	}
}

// unmetBlockers returns the string IDs of tasks that block taskID via a
// BLOCKS dependency and have not reached effectiveUnblockRole(dep), per
// spec.md §4.4 rule 3. RELATES_TO edges are ignored.
func (s *Service) unmetBlockers(ctx context.Context, taskID uuid.UUID) []string {
	if taskID == uuid.Nil || s.repos.Dependencies == nil || s.repos.Tasks == nil {
		return nil
	}

	depsRes := s.repos.Dependencies.FindByToTaskID(ctx, taskID)
	deps, ok := depsRes.Value()
	if !ok {
		return nil
	}

	var blockers []string
	for _, dep := range deps {
		if dep.Type != domain.DepBlocks {
			continue
		}
		blockerRes := s.repos.Tasks.GetByID(ctx, dep.FromTaskID)
		blocker, ok := blockerRes.Value()
		if !ok {
			continue
		}
		threshold := EffectiveUnblockRole(dep)
		role := s.GetRoleForStatus(status.Task, blocker.Tags, blocker.Status)
		if !s.IsRoleAtOrBeyond(role, threshold) {
			blockers = append(blockers, blocker.ID.String())
		}
	}
	return blockers
}

// EffectiveUnblockRole returns the role a blocker task must reach before dep
// is considered satisfied: dep.UnblockAt if set, else terminal.
func EffectiveUnblockRole(dep *domain.Dependency) status.Role {
	if dep.UnblockAt != nil && *dep.UnblockAt != "" {
		return status.Role(*dep.UnblockAt)
	}
	return status.RoleTerminal
}
