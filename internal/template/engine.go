// Package template implements the template engine (C7): applying a
// template's section definitions to a newly created entity, and seeding the
// built-in template catalog (C16).
package template

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/repository"
)

// Engine is a thin service wrapper over TemplateRepository, kept as its own
// component so ManageContainer depends on one name ("apply this template")
// rather than reaching into the repository layer directly.
type Engine struct {
	templates repository.TemplateRepository
}

// New builds a template Engine over the given repository.
func New(templates repository.TemplateRepository) *Engine {
	return &Engine{templates: templates}
}

// ApplyTemplate clones templateID's section definitions onto entityID,
// preserving ordinal order, appended after any existing sections.
func (e *Engine) ApplyTemplate(ctx context.Context, templateID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) repository.Result[[]*domain.Section] {
	return e.templates.ApplyTemplate(ctx, templateID, entityType, entityID)
}

// ApplyMultipleTemplates applies each of templateIDs in turn and returns the
// sections created per template.
func (e *Engine) ApplyMultipleTemplates(ctx context.Context, templateIDs []uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) repository.Result[map[uuid.UUID][]*domain.Section] {
	return e.templates.ApplyMultipleTemplates(ctx, templateIDs, entityType, entityID)
}

// ExistsForType reports whether any enabled template targets entityType, for
// the "created without templates" guard nudge.
func (e *Engine) ExistsForType(ctx context.Context, entityType domain.EntityType) bool {
	res := e.templates.FindByTargetType(ctx, entityType)
	tmpls, ok := res.Value()
	return ok && len(tmpls) > 0
}
