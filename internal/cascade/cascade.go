// Package cascade implements the CascadeService (C5) and
// CompletionCleanupService (C6): detecting status changes that should
// propagate to other entities, optionally applying them recursively, and
// cleaning up a feature's tasks once it reaches a terminal status.
package cascade

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/config"
	"github.com/taskorchestrator/mcp-server/internal/repository"
	"github.com/taskorchestrator/mcp-server/internal/status"
	"github.com/taskorchestrator/mcp-server/internal/validator"
	"github.com/taskorchestrator/mcp-server/internal/workflow"
)

// EventKind names a detected cascade event per spec.md §4.5.1.
type EventKind string

const (
	FirstTaskStarted     EventKind = "first_task_started"
	AllTasksComplete     EventKind = "all_tasks_complete"
	RoleAggregationMet   EventKind = "role_aggregation_threshold"
	AllFeaturesComplete  EventKind = "all_features_complete"
)

// Event is a suggestion that some other entity should change status. The
// detector never writes; only applyCascades does.
type Event struct {
	Kind             EventKind
	TargetType       status.ContainerType
	TargetID         uuid.UUID
	TargetName       string
	CurrentStatus    string
	SuggestedStatus  string
	Flow             string
	Automatic        bool
	Reason           string
}

// UnblockedTask is one entry of findNewlyUnblockedTasks's result.
type UnblockedTask struct {
	TaskID uuid.UUID
	Title  string
}

// Applied records the outcome of applying one Event during applyCascades.
type Applied struct {
	Event         Event
	Applied       bool
	Error         string
	Unblocked     []UnblockedTask
	Cleanup       *CleanupResult
	ChildCascades []Applied
}

// Service is the CascadeService (C5).
type Service struct {
	repos       repository.Repositories
	progression *workflow.Service
	validator   *validator.Validator
	cleanup     *CleanupService
	cfg         config.AutoCascadeConfig
	log         *slog.Logger
}

// New builds a CascadeService.
func New(repos repository.Repositories, progression *workflow.Service, v *validator.Validator, cleanup *CleanupService, cfg config.AutoCascadeConfig, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repos: repos, progression: progression, validator: v, cleanup: cleanup, cfg: cfg, log: log}
}

// DetectCascadeEvents implements §4.5.1. It never writes.
func (s *Service) DetectCascadeEvents(ctx context.Context, containerID uuid.UUID, containerType status.ContainerType) []Event {
	switch containerType {
	case status.Task:
		return s.detectFromTask(ctx, containerID)
	case status.Feature:
		return s.detectFromFeature(ctx, containerID)
	default:
		return nil
	}
}

func (s *Service) detectFromTask(ctx context.Context, taskID uuid.UUID) []Event {
	taskRes := s.repos.Tasks.GetByID(ctx, taskID)
	task, ok := taskRes.Value()
	if !ok || task.FeatureID == nil {
		return nil
	}

	featRes := s.repos.Features.GetByID(ctx, *task.FeatureID)
	feature, ok := featRes.Value()
	if !ok {
		return nil
	}

	countsRes := s.repos.Features.GetTaskCountsByFeatureID(ctx, feature.ID)
	counts, ok := countsRes.Value()
	if !ok || counts.Total == 0 {
		return nil
	}

	var events []Event

	taskRole := s.progression.GetRoleForStatus(status.Task, task.Tags, task.Status)
	if taskRole == status.RoleWork {
		tasksRes := s.repos.Tasks.FindByFeatureID(ctx, feature.ID)
		tasks, _ := tasksRes.Value()
		workCount := 0
		for _, t := range tasks {
			if s.progression.GetRoleForStatus(status.Task, t.Tags, t.Status) == status.RoleWork {
				workCount++
			}
		}
		flow, flowOK := s.progression.GetFlowPath(status.Feature, feature.Tags)
		if workCount == 1 && flowOK && flow.First(status.Denormalize(feature.Status)) {
			rec := s.progression.GetNextStatus(ctx, status.Feature, feature.Tags, status.Denormalize(feature.Status), feature.ID)
			if rec.Kind == workflow.Ready && rec.RecommendedStatus != status.Denormalize(feature.Status) {
				events = append(events, Event{
					Kind:            FirstTaskStarted,
					TargetType:      status.Feature,
					TargetID:        feature.ID,
					TargetName:      feature.Name,
					CurrentStatus:   feature.Status,
					SuggestedStatus: rec.RecommendedStatus,
					Flow:            rec.ActiveFlow,
					Automatic:       true,
					Reason:          fmt.Sprintf("task %s started; first task in feature", task.Title),
				})
			}
		}
	}

	if s.progression.IsRoleAtOrBeyond(taskRole, status.RoleTerminal) {
		if counts.Completed+counts.Cancelled == counts.Total {
			rec := s.progression.GetNextStatus(ctx, status.Feature, feature.Tags, status.Denormalize(feature.Status), feature.ID)
			if rec.Kind == workflow.Ready && rec.RecommendedStatus != status.Denormalize(feature.Status) {
				events = append(events, Event{
					Kind:            AllTasksComplete,
					TargetType:      status.Feature,
					TargetID:        feature.ID,
					TargetName:      feature.Name,
					CurrentStatus:   feature.Status,
					SuggestedStatus: rec.RecommendedStatus,
					Flow:            rec.ActiveFlow,
					Automatic:       true,
					Reason:          "all tasks in feature are completed or cancelled",
				})
			}
		}
	}

	if s.cfg.RoleAggregation.Enabled {
		tasksRes := s.repos.Tasks.FindByFeatureID(ctx, feature.ID)
		tasks, _ := tasksRes.Value()
		for _, rule := range s.cfg.RoleAggregation.Rules {
			threshold := status.Role(rule.RoleThreshold)
			atOrBeyond := 0
			for _, t := range tasks {
				if s.progression.IsRoleAtOrBeyond(s.progression.GetRoleForStatus(status.Task, t.Tags, t.Status), threshold) {
					atOrBeyond++
				}
			}
			if counts.Total == 0 {
				continue
			}
			pct := float64(atOrBeyond) / float64(counts.Total)
			if pct >= rule.Percentage && status.Denormalize(feature.Status) != status.Denormalize(rule.TargetFeatureStatus) {
				events = append(events, Event{
					Kind:            RoleAggregationMet,
					TargetType:      status.Feature,
					TargetID:        feature.ID,
					TargetName:      feature.Name,
					CurrentStatus:   feature.Status,
					SuggestedStatus: status.Denormalize(rule.TargetFeatureStatus),
					Automatic:       true,
					Reason: fmt.Sprintf("%.0f%% of tasks at role %q or beyond (threshold: %.0f%%)",
						pct*100, rule.RoleThreshold, rule.Percentage*100),
				})
			}
		}
	}

	return events
}

func (s *Service) detectFromFeature(ctx context.Context, featureID uuid.UUID) []Event {
	featRes := s.repos.Features.GetByID(ctx, featureID)
	feature, ok := featRes.Value()
	if !ok || feature.ProjectID == nil || !status.IsTerminal(feature.Status) {
		return nil
	}

	projRes := s.repos.Projects.GetByID(ctx, *feature.ProjectID)
	project, ok := projRes.Value()
	if !ok || status.Denormalize(project.Status) == status.ProjectCompleted {
		return nil
	}

	featsRes := s.repos.Features.FindByProjectID(ctx, project.ID)
	feats, ok := featsRes.Value()
	if !ok {
		return nil
	}
	for _, f := range feats {
		if status.Denormalize(f.Status) != status.FeatureCompleted {
			return nil
		}
	}

	rec := s.progression.GetNextStatus(ctx, status.Project, project.Tags, status.Denormalize(project.Status), project.ID)
	if rec.Kind != workflow.Ready || rec.RecommendedStatus == status.Denormalize(project.Status) {
		return nil
	}

	return []Event{{
		Kind:            AllFeaturesComplete,
		TargetType:      status.Project,
		TargetID:        project.ID,
		TargetName:      project.Name,
		CurrentStatus:   project.Status,
		SuggestedStatus: rec.RecommendedStatus,
		Flow:            rec.ActiveFlow,
		Automatic:       true,
		Reason:          "all features in project are completed",
	}}
}
