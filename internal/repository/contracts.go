package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/domain"
)

// ProjectRepository is the storage contract for Project entities.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) Result[*domain.Project]
	Create(ctx context.Context, p *domain.Project) Result[*domain.Project]
	Update(ctx context.Context, p *domain.Project) Result[*domain.Project]
	Delete(ctx context.Context, id uuid.UUID) Result[bool]
	FindAll(ctx context.Context, limit int) Result[[]*domain.Project]
	FindByStatus(ctx context.Context, status string, limit int) Result[[]*domain.Project]
	GetFeatureCountsByProjectID(ctx context.Context, id uuid.UUID) Result[domain.ProjectFeatureCounts]
}

// FeatureRepository is the storage contract for Feature entities.
type FeatureRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) Result[*domain.Feature]
	Create(ctx context.Context, f *domain.Feature) Result[*domain.Feature]
	Update(ctx context.Context, f *domain.Feature) Result[*domain.Feature]
	Delete(ctx context.Context, id uuid.UUID) Result[bool]
	FindAll(ctx context.Context, limit int) Result[[]*domain.Feature]
	FindByProjectID(ctx context.Context, projectID uuid.UUID) Result[[]*domain.Feature]
	FindByStatus(ctx context.Context, status string, limit int) Result[[]*domain.Feature]
	GetTaskCountsByFeatureID(ctx context.Context, id uuid.UUID) Result[domain.FeatureTaskCounts]
}

// TaskRepository is the storage contract for Task entities.
type TaskRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) Result[*domain.Task]
	Create(ctx context.Context, t *domain.Task) Result[*domain.Task]
	Update(ctx context.Context, t *domain.Task) Result[*domain.Task]
	Delete(ctx context.Context, id uuid.UUID) Result[bool]
	FindAll(ctx context.Context, limit int) Result[[]*domain.Task]
	FindByFeatureID(ctx context.Context, featureID uuid.UUID) Result[[]*domain.Task]
	FindByProjectID(ctx context.Context, projectID uuid.UUID) Result[[]*domain.Task]
	FindByStatus(ctx context.Context, status string, limit int) Result[[]*domain.Task]
}

// DependencyRepository is the storage contract for Dependency edges.
type DependencyRepository interface {
	Create(ctx context.Context, d *domain.Dependency) Result[*domain.Dependency]
	FindByFromTaskID(ctx context.Context, taskID uuid.UUID) Result[[]*domain.Dependency]
	FindByToTaskID(ctx context.Context, taskID uuid.UUID) Result[[]*domain.Dependency]
	FindByTaskID(ctx context.Context, taskID uuid.UUID) Result[[]*domain.Dependency]
	DeleteByTaskID(ctx context.Context, taskID uuid.UUID) Result[int]
}

// SectionRepository is the storage contract for Section content blocks.
type SectionRepository interface {
	GetSection(ctx context.Context, id uuid.UUID) Result[*domain.Section]
	GetSectionsForEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) Result[[]*domain.Section]
	AddSection(ctx context.Context, s *domain.Section) Result[*domain.Section]
	UpdateSection(ctx context.Context, s *domain.Section) Result[*domain.Section]
	DeleteSection(ctx context.Context, id uuid.UUID) Result[bool]
	DeleteSectionsForEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) Result[int]
}

// TemplateRepository is the storage contract for Templates and their
// section definitions.
type TemplateRepository interface {
	GetTemplate(ctx context.Context, id uuid.UUID) Result[*domain.Template]
	GetTemplateSections(ctx context.Context, templateID uuid.UUID) Result[[]*domain.TemplateSection]
	FindByTargetType(ctx context.Context, targetType domain.EntityType) Result[[]*domain.Template]
	CreateTemplate(ctx context.Context, t *domain.Template, sections []*domain.TemplateSection) Result[*domain.Template]
	ApplyTemplate(ctx context.Context, templateID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) Result[[]*domain.Section]
	ApplyMultipleTemplates(ctx context.Context, templateIDs []uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) Result[map[uuid.UUID][]*domain.Section]
}

// Repositories bundles every repository the workflow engine depends on.
// Services take this as an explicit configuration record injected at
// startup rather than looking collaborators up through a service locator.
type Repositories struct {
	Projects     ProjectRepository
	Features     FeatureRepository
	Tasks        TaskRepository
	Dependencies DependencyRepository
	Sections     SectionRepository
	Templates    TemplateRepository
}
