// Package memory provides a process-local, map-backed implementation of the
// repository contracts. It exists to make the workflow engine runnable and
// testable end to end; it is a reference adapter, not a persistence design
// (schema, migrations, and an ORM remain out of scope per spec.md §1).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/repository"
)

// Store aggregates every in-memory table behind one set of locks, the way a
// single SQLite connection would. Each entity kind still gets its own
// typed repository wrapper below to satisfy the individual interfaces.
type Store struct {
	mu sync.RWMutex

	projects map[uuid.UUID]*domain.Project
	features map[uuid.UUID]*domain.Feature
	tasks    map[uuid.UUID]*domain.Task
	deps     map[uuid.UUID]*domain.Dependency
	sections map[uuid.UUID]*domain.Section

	templates map[uuid.UUID]*domain.Template
	tmplSecs  map[uuid.UUID][]*domain.TemplateSection // templateID -> sections

	now func() time.Time
}

// NewStore creates an empty in-memory store. nowFn lets tests supply a
// deterministic clock; a nil nowFn uses time.Now.
func NewStore(nowFn func() time.Time) *Store {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Store{
		projects:  make(map[uuid.UUID]*domain.Project),
		features:  make(map[uuid.UUID]*domain.Feature),
		tasks:     make(map[uuid.UUID]*domain.Task),
		deps:      make(map[uuid.UUID]*domain.Dependency),
		sections:  make(map[uuid.UUID]*domain.Section),
		templates: make(map[uuid.UUID]*domain.Template),
		tmplSecs:  make(map[uuid.UUID][]*domain.TemplateSection),
		now:       nowFn,
	}
}

// Repositories returns a repository.Repositories bundle backed by this store.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Projects:     &projectRepo{s},
		Features:     &featureRepo{s},
		Tasks:        &taskRepo{s},
		Dependencies: &dependencyRepo{s},
		Sections:     &sectionRepo{s},
		Templates:    &templateRepo{s},
	}
}

// --- Projects ---

type projectRepo struct{ s *Store }

func (r *projectRepo) GetByID(_ context.Context, id uuid.UUID) repository.Result[*domain.Project] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return repository.Err[*domain.Project](repository.NotFound, "project %s not found", id)
	}
	cp := *p
	return repository.Ok(&cp)
}

func (r *projectRepo) Create(_ context.Context, p *domain.Project) repository.Result[*domain.Project] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := r.s.now()
	p.CreatedAt, p.ModifiedAt = now, now
	cp := *p
	r.s.projects[p.ID] = &cp
	out := cp
	return repository.Ok(&out)
}

func (r *projectRepo) Update(_ context.Context, p *domain.Project) repository.Result[*domain.Project] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[p.ID]; !ok {
		return repository.Err[*domain.Project](repository.NotFound, "project %s not found", p.ID)
	}
	p.ModifiedAt = r.s.now()
	cp := *p
	r.s.projects[p.ID] = &cp
	out := cp
	return repository.Ok(&out)
}

func (r *projectRepo) Delete(_ context.Context, id uuid.UUID) repository.Result[bool] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return repository.Err[bool](repository.NotFound, "project %s not found", id)
	}
	delete(r.s.projects, id)
	return repository.Ok(true)
}

func (r *projectRepo) FindAll(_ context.Context, limit int) repository.Result[[]*domain.Project] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		cp := *p
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return repository.Ok(out)
}

func (r *projectRepo) FindByStatus(_ context.Context, status string, limit int) repository.Result[[]*domain.Project] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Project, 0)
	for _, p := range r.s.projects {
		if p.Status != status {
			continue
		}
		cp := *p
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return repository.Ok(out)
}

func (r *projectRepo) GetFeatureCountsByProjectID(_ context.Context, id uuid.UUID) repository.Result[domain.ProjectFeatureCounts] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var counts domain.ProjectFeatureCounts
	for _, f := range r.s.features {
		if f.ProjectID == nil || *f.ProjectID != id {
			continue
		}
		counts.Total++
		if f.Status == "COMPLETED" {
			counts.Completed++
		}
	}
	return repository.Ok(counts)
}

// --- Features ---

type featureRepo struct{ s *Store }

func (r *featureRepo) GetByID(_ context.Context, id uuid.UUID) repository.Result[*domain.Feature] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.features[id]
	if !ok {
		return repository.Err[*domain.Feature](repository.NotFound, "feature %s not found", id)
	}
	cp := *f
	return repository.Ok(&cp)
}

func (r *featureRepo) Create(_ context.Context, f *domain.Feature) repository.Result[*domain.Feature] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	now := r.s.now()
	f.CreatedAt, f.ModifiedAt = now, now
	cp := *f
	r.s.features[f.ID] = &cp
	out := cp
	return repository.Ok(&out)
}

func (r *featureRepo) Update(_ context.Context, f *domain.Feature) repository.Result[*domain.Feature] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.features[f.ID]; !ok {
		return repository.Err[*domain.Feature](repository.NotFound, "feature %s not found", f.ID)
	}
	f.ModifiedAt = r.s.now()
	cp := *f
	r.s.features[f.ID] = &cp
	out := cp
	return repository.Ok(&out)
}

func (r *featureRepo) Delete(_ context.Context, id uuid.UUID) repository.Result[bool] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.features[id]; !ok {
		return repository.Err[bool](repository.NotFound, "feature %s not found", id)
	}
	delete(r.s.features, id)
	return repository.Ok(true)
}

func (r *featureRepo) FindAll(_ context.Context, limit int) repository.Result[[]*domain.Feature] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Feature, 0, len(r.s.features))
	for _, f := range r.s.features {
		cp := *f
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return repository.Ok(out)
}

func (r *featureRepo) FindByProjectID(_ context.Context, projectID uuid.UUID) repository.Result[[]*domain.Feature] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Feature, 0)
	for _, f := range r.s.features {
		if f.ProjectID != nil && *f.ProjectID == projectID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return repository.Ok(out)
}

func (r *featureRepo) FindByStatus(_ context.Context, status string, limit int) repository.Result[[]*domain.Feature] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Feature, 0)
	for _, f := range r.s.features {
		if f.Status != status {
			continue
		}
		cp := *f
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return repository.Ok(out)
}

func (r *featureRepo) GetTaskCountsByFeatureID(_ context.Context, id uuid.UUID) repository.Result[domain.FeatureTaskCounts] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var counts domain.FeatureTaskCounts
	for _, t := range r.s.tasks {
		if t.FeatureID == nil || *t.FeatureID != id {
			continue
		}
		counts.Total++
		switch t.Status {
		case "COMPLETED":
			counts.Completed++
		case "CANCELLED":
			counts.Cancelled++
		case "DEFERRED":
			counts.Deferred++
		case "IN_PROGRESS":
			counts.InProgress++
		default:
			counts.Pending++
		}
	}
	return repository.Ok(counts)
}

// --- Tasks ---

type taskRepo struct{ s *Store }

func (r *taskRepo) GetByID(_ context.Context, id uuid.UUID) repository.Result[*domain.Task] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return repository.Err[*domain.Task](repository.NotFound, "task %s not found", id)
	}
	cp := *t
	return repository.Ok(&cp)
}

func (r *taskRepo) Create(_ context.Context, t *domain.Task) repository.Result[*domain.Task] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := r.s.now()
	t.CreatedAt, t.ModifiedAt = now, now
	cp := *t
	r.s.tasks[t.ID] = &cp
	out := cp
	return repository.Ok(&out)
}

func (r *taskRepo) Update(_ context.Context, t *domain.Task) repository.Result[*domain.Task] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[t.ID]; !ok {
		return repository.Err[*domain.Task](repository.NotFound, "task %s not found", t.ID)
	}
	t.ModifiedAt = r.s.now()
	cp := *t
	r.s.tasks[t.ID] = &cp
	out := cp
	return repository.Ok(&out)
}

func (r *taskRepo) Delete(_ context.Context, id uuid.UUID) repository.Result[bool] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return repository.Err[bool](repository.NotFound, "task %s not found", id)
	}
	delete(r.s.tasks, id)
	return repository.Ok(true)
}

func (r *taskRepo) FindAll(_ context.Context, limit int) repository.Result[[]*domain.Task] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Task, 0, len(r.s.tasks))
	for _, t := range r.s.tasks {
		cp := *t
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return repository.Ok(out)
}

func (r *taskRepo) FindByFeatureID(_ context.Context, featureID uuid.UUID) repository.Result[[]*domain.Task] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Task, 0)
	for _, t := range r.s.tasks {
		if t.FeatureID != nil && *t.FeatureID == featureID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return repository.Ok(out)
}

func (r *taskRepo) FindByProjectID(_ context.Context, projectID uuid.UUID) repository.Result[[]*domain.Task] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Task, 0)
	for _, t := range r.s.tasks {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return repository.Ok(out)
}

func (r *taskRepo) FindByStatus(_ context.Context, status string, limit int) repository.Result[[]*domain.Task] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Task, 0)
	for _, t := range r.s.tasks {
		if t.Status != status {
			continue
		}
		cp := *t
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return repository.Ok(out)
}

// --- Dependencies ---

type dependencyRepo struct{ s *Store }

func (r *dependencyRepo) Create(_ context.Context, d *domain.Dependency) repository.Result[*domain.Dependency] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if d.FromTaskID == d.ToTaskID {
		return repository.Err[*domain.Dependency](repository.ValidationError, "a task cannot depend on itself")
	}
	for _, existing := range r.s.deps {
		if existing.FromTaskID == d.FromTaskID && existing.ToTaskID == d.ToTaskID && existing.Type == d.Type {
			return repository.Err[*domain.Dependency](repository.ConflictError, "dependency already exists")
		}
	}

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = r.s.now()
	cp := *d
	r.s.deps[d.ID] = &cp
	out := cp
	return repository.Ok(&out)
}

func (r *dependencyRepo) FindByFromTaskID(_ context.Context, taskID uuid.UUID) repository.Result[[]*domain.Dependency] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Dependency, 0)
	for _, d := range r.s.deps {
		if d.FromTaskID == taskID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return repository.Ok(out)
}

func (r *dependencyRepo) FindByToTaskID(_ context.Context, taskID uuid.UUID) repository.Result[[]*domain.Dependency] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Dependency, 0)
	for _, d := range r.s.deps {
		if d.ToTaskID == taskID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return repository.Ok(out)
}

func (r *dependencyRepo) FindByTaskID(_ context.Context, taskID uuid.UUID) repository.Result[[]*domain.Dependency] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Dependency, 0)
	for _, d := range r.s.deps {
		if d.FromTaskID == taskID || d.ToTaskID == taskID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return repository.Ok(out)
}

func (r *dependencyRepo) DeleteByTaskID(_ context.Context, taskID uuid.UUID) repository.Result[int] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, d := range r.s.deps {
		if d.FromTaskID == taskID || d.ToTaskID == taskID {
			delete(r.s.deps, id)
			n++
		}
	}
	return repository.Ok(n)
}

// --- Sections ---

type sectionRepo struct{ s *Store }

func (r *sectionRepo) GetSection(_ context.Context, id uuid.UUID) repository.Result[*domain.Section] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sec, ok := r.s.sections[id]
	if !ok {
		return repository.Err[*domain.Section](repository.NotFound, "section %s not found", id)
	}
	cp := *sec
	return repository.Ok(&cp)
}

func (r *sectionRepo) GetSectionsForEntity(_ context.Context, entityType domain.EntityType, entityID uuid.UUID) repository.Result[[]*domain.Section] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Section, 0)
	for _, sec := range r.s.sections {
		if sec.EntityType == entityType && sec.EntityID == entityID {
			cp := *sec
			out = append(out, &cp)
		}
	}
	return repository.Ok(out)
}

func (r *sectionRepo) AddSection(_ context.Context, sec *domain.Section) repository.Result[*domain.Section] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sec.ID == uuid.Nil {
		sec.ID = uuid.New()
	}
	now := r.s.now()
	sec.CreatedAt, sec.ModifiedAt = now, now
	cp := *sec
	r.s.sections[sec.ID] = &cp
	out := cp
	return repository.Ok(&out)
}

func (r *sectionRepo) UpdateSection(_ context.Context, sec *domain.Section) repository.Result[*domain.Section] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sections[sec.ID]; !ok {
		return repository.Err[*domain.Section](repository.NotFound, "section %s not found", sec.ID)
	}
	sec.ModifiedAt = r.s.now()
	cp := *sec
	r.s.sections[sec.ID] = &cp
	out := cp
	return repository.Ok(&out)
}

func (r *sectionRepo) DeleteSection(_ context.Context, id uuid.UUID) repository.Result[bool] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sections[id]; !ok {
		return repository.Err[bool](repository.NotFound, "section %s not found", id)
	}
	delete(r.s.sections, id)
	return repository.Ok(true)
}

func (r *sectionRepo) DeleteSectionsForEntity(_ context.Context, entityType domain.EntityType, entityID uuid.UUID) repository.Result[int] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, sec := range r.s.sections {
		if sec.EntityType == entityType && sec.EntityID == entityID {
			delete(r.s.sections, id)
			n++
		}
	}
	return repository.Ok(n)
}

// --- Templates ---

type templateRepo struct{ s *Store }

func (r *templateRepo) GetTemplate(_ context.Context, id uuid.UUID) repository.Result[*domain.Template] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.templates[id]
	if !ok {
		return repository.Err[*domain.Template](repository.NotFound, "template %s not found", id)
	}
	cp := *t
	return repository.Ok(&cp)
}

func (r *templateRepo) GetTemplateSections(_ context.Context, templateID uuid.UUID) repository.Result[[]*domain.TemplateSection] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	secs, ok := r.s.tmplSecs[templateID]
	if !ok {
		return repository.Ok([]*domain.TemplateSection{})
	}
	out := make([]*domain.TemplateSection, len(secs))
	copy(out, secs)
	return repository.Ok(out)
}

func (r *templateRepo) FindByTargetType(_ context.Context, targetType domain.EntityType) repository.Result[[]*domain.Template] {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Template
	for _, t := range r.s.templates {
		if t.TargetEntityType == targetType && t.IsEnabled {
			cp := *t
			out = append(out, &cp)
		}
	}
	return repository.Ok(out)
}

func (r *templateRepo) CreateTemplate(_ context.Context, t *domain.Template, sections []*domain.TemplateSection) repository.Result[*domain.Template] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := r.s.now()
	t.CreatedAt, t.ModifiedAt = now, now
	cp := *t
	r.s.templates[t.ID] = &cp

	for _, sec := range sections {
		if sec.ID == uuid.Nil {
			sec.ID = uuid.New()
		}
		sec.TemplateID = t.ID
	}
	r.s.tmplSecs[t.ID] = sections

	out := cp
	return repository.Ok(&out)
}

func (r *templateRepo) ApplyTemplate(_ context.Context, templateID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) repository.Result[[]*domain.Section] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.templates[templateID]; !ok {
		return repository.Err[[]*domain.Section](repository.NotFound, "template %s not found", templateID)
	}
	defs := r.s.tmplSecs[templateID]

	// Append after any existing sections for this entity, preserving ordinal order.
	existingMax := -1
	for _, sec := range r.s.sections {
		if sec.EntityType == entityType && sec.EntityID == entityID && sec.Ordinal > existingMax {
			existingMax = sec.Ordinal
		}
	}

	created := make([]*domain.Section, 0, len(defs))
	now := r.s.now()
	for i, def := range defs {
		sec := &domain.Section{
			ID:               uuid.New(),
			EntityType:       entityType,
			EntityID:         entityID,
			Title:            def.Title,
			UsageDescription: def.UsageDescription,
			Content:          def.ContentSample,
			ContentFormat:    def.ContentFormat,
			Ordinal:          existingMax + 1 + i,
			Tags:             def.Tags,
			CreatedAt:        now,
			ModifiedAt:       now,
		}
		r.s.sections[sec.ID] = sec
		cp := *sec
		created = append(created, &cp)
	}
	return repository.Ok(created)
}

func (r *templateRepo) ApplyMultipleTemplates(ctx context.Context, templateIDs []uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) repository.Result[map[uuid.UUID][]*domain.Section] {
	out := make(map[uuid.UUID][]*domain.Section, len(templateIDs))
	for _, id := range templateIDs {
		res := r.ApplyTemplate(ctx, id, entityType, entityID)
		if !res.IsSuccess() {
			return repository.ErrFrom[map[uuid.UUID][]*domain.Section](res.Error())
		}
		secs, _ := res.Value()
		out[id] = secs
	}
	return repository.Ok(out)
}
