package container

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/guards"
	"github.com/taskorchestrator/mcp-server/internal/status"
)

func (t *ManageContainer) createItems(ctx context.Context, containerType status.ContainerType, items []item) []itemResult {
	entityType := entityTypeFor(containerType)
	templatesExist := t.templates.ExistsForType(ctx, entityType)

	results := make([]itemResult, 0, len(items))
	for _, it := range items {
		results = append(results, t.createOne(ctx, containerType, entityType, templatesExist, it))
	}
	return results
}

func (t *ManageContainer) createOne(ctx context.Context, containerType status.ContainerType, entityType domain.EntityType, templatesExist bool, it item) itemResult {
	if err := t.validateCreateItem(containerType, it); err != nil {
		return itemResult{OK: false, Error: err.Error()}
	}

	id := uuid.New()

	gctx := &guards.GuardContext{
		Operation:             "create",
		ContainerType:         string(containerType),
		Force:                 it.Force,
		TemplateIDsProvided:   len(it.TemplateIDs),
		TemplatesExistForType: templatesExist,
	}
	outcome := t.runner.Run(ctx, gctx, guards.CreateGuards())
	if outcome.Blocked {
		return itemResult{OK: false, Error: outcome.FormatBlockMessage()}
	}

	var createErr error
	switch containerType {
	case status.Project:
		createErr = t.createProject(ctx, id, it)
	case status.Feature:
		createErr = t.createFeature(ctx, id, it)
	case status.Task:
		createErr = t.createTask(ctx, id, it)
	}
	if createErr != nil {
		return itemResult{OK: false, Error: createErr.Error()}
	}

	if len(it.TemplateIDs) > 0 {
		ids := make([]uuid.UUID, 0, len(it.TemplateIDs))
		for _, s := range it.TemplateIDs {
			if parsed, err := parseUUID(s); err == nil {
				ids = append(ids, parsed)
			}
		}
		if res := t.templates.ApplyMultipleTemplates(ctx, ids, entityType, id); !res.IsSuccess() {
			return itemResult{OK: true, ID: id.String(), Advisories: "template application failed: " + res.Error().Message}
		}
	}

	res := itemResult{OK: true, ID: id.String()}
	if advisory := outcome.FormatAdvisoryMessage(); advisory != "" {
		res.Advisories = advisory
	}
	return res
}

// validateCreateItem runs the field-level checks spec.md §4.8 Create step 1
// requires before an item is built and written: name/title, status,
// priority, and complexity. UUID fields (projectId/featureId) are validated
// where they're parsed, in createFeature/createTask.
func (t *ManageContainer) validateCreateItem(containerType status.ContainerType, it item) error {
	if it.Name == "" {
		return fmt.Errorf("name is required")
	}
	if it.Status != "" {
		if outcome := t.validator.ValidateStatus(containerType, it.Status); !outcome.Valid {
			return fmt.Errorf("%s", outcome.Reason)
		}
	}
	if _, err := validatePriority(it.Priority); err != nil {
		return err
	}
	if containerType == status.Task && it.Complexity != 0 && (it.Complexity < 1 || it.Complexity > 10) {
		return fmt.Errorf("complexity must be between 1 and 10, got %d", it.Complexity)
	}
	return nil
}

// initialStatus resolves the entity's starting status: the item's own
// status if one was given (already validated by validateCreateItem), else
// the container type's planning-equivalent default.
func initialStatus(containerType status.ContainerType, it item) string {
	if it.Status != "" {
		return status.Denormalize(it.Status)
	}
	switch containerType {
	case status.Project:
		return status.ProjectPlanning
	case status.Feature:
		return status.FeaturePlanning
	default:
		return status.TaskPending
	}
}

func (t *ManageContainer) createProject(ctx context.Context, id uuid.UUID, it item) error {
	p := &domain.Project{
		ID:          id,
		Name:        it.Name,
		Description: it.Description,
		Summary:     it.Summary,
		Status:      initialStatus(status.Project, it),
		Tags:        normalizeTags(it.Tags),
	}
	return t.repos.Projects.Create(ctx, p).Error().AsError()
}

func (t *ManageContainer) createFeature(ctx context.Context, id uuid.UUID, it item) error {
	priority, err := validatePriority(it.Priority)
	if err != nil {
		return err
	}
	f := &domain.Feature{
		ID:                   id,
		Name:                 it.Name,
		Description:          it.Description,
		Summary:              it.Summary,
		Status:               initialStatus(status.Feature, it),
		Priority:             priority,
		RequiresVerification: it.RequiresVerification,
		Tags:                 normalizeTags(it.Tags),
	}
	if it.ProjectID != "" {
		pid, err := parseUUID(it.ProjectID)
		if err != nil {
			return err
		}
		f.ProjectID = &pid
	}
	return t.repos.Features.Create(ctx, f).Error().AsError()
}

func (t *ManageContainer) createTask(ctx context.Context, id uuid.UUID, it item) error {
	priority, err := validatePriority(it.Priority)
	if err != nil {
		return err
	}
	tk := &domain.Task{
		ID:                   id,
		Title:                it.Name,
		Description:          it.Description,
		Summary:              it.Summary,
		Status:               initialStatus(status.Task, it),
		Priority:             priority,
		Complexity:           it.Complexity,
		RequiresVerification: it.RequiresVerification,
		Tags:                 normalizeTags(it.Tags),
	}
	if it.ProjectID != "" {
		pid, err := parseUUID(it.ProjectID)
		if err != nil {
			return err
		}
		tk.ProjectID = &pid
	}
	if it.FeatureID != "" {
		fid, err := parseUUID(it.FeatureID)
		if err != nil {
			return err
		}
		tk.FeatureID = &fid
	}
	return t.repos.Tasks.Create(ctx, tk).Error().AsError()
}

func validatePriority(p string) (domain.Priority, error) {
	if p == "" {
		return domain.PriorityMedium, nil
	}
	switch domain.Priority(p) {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
		return domain.Priority(p), nil
	default:
		return "", fmt.Errorf("invalid priority %q", p)
	}
}
