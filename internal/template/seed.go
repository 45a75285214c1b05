package template

import (
	"context"
	"fmt"

	"github.com/taskorchestrator/mcp-server/internal/domain"
	"github.com/taskorchestrator/mcp-server/internal/repository"
)

// sectionSeed defines one section definition of a built-in template.
type sectionSeed struct {
	Title            string
	UsageDescription string
	ContentSample    string
	ContentFormat    domain.ContentFormat
	IsRequired       bool
}

// templateSeed defines a built-in template from the standard catalog.
type templateSeed struct {
	Name             string
	Description      string
	TargetEntityType domain.EntityType
	Tags             []string
	Sections         []sectionSeed
}

// standardTemplates is the built-in template catalog.
var standardTemplates = []templateSeed{
	{
		Name:             "project-charter",
		Description:      "Baseline sections for a new project: goals, scope, and stakeholders.",
		TargetEntityType: domain.EntityProject,
		Tags:             []string{"standard"},
		Sections: []sectionSeed{
			{Title: "Goals", UsageDescription: "What this project is trying to achieve", ContentFormat: domain.FormatMarkdown, IsRequired: true},
			{Title: "Scope", UsageDescription: "What is explicitly in and out of scope", ContentFormat: domain.FormatMarkdown, IsRequired: true},
			{Title: "Stakeholders", UsageDescription: "Who cares about this project and why", ContentFormat: domain.FormatMarkdown},
		},
	},
	{
		Name:             "feature-spec",
		Description:      "Baseline sections for a new feature: problem, approach, acceptance criteria.",
		TargetEntityType: domain.EntityFeature,
		Tags:             []string{"standard"},
		Sections: []sectionSeed{
			{Title: "Problem", UsageDescription: "What user or system problem this feature solves", ContentFormat: domain.FormatMarkdown, IsRequired: true},
			{Title: "Approach", UsageDescription: "The intended implementation approach", ContentFormat: domain.FormatMarkdown},
			{Title: "Acceptance Criteria", UsageDescription: "Conditions that must hold for this feature to be done", ContentFormat: domain.FormatMarkdown, IsRequired: true},
		},
	},
	{
		Name:             "bug-fix-task",
		Description:      "Baseline sections for a task that fixes a reported defect.",
		TargetEntityType: domain.EntityTask,
		Tags:             []string{"bug"},
		Sections: []sectionSeed{
			{Title: "Repro Steps", UsageDescription: "How to reproduce the defect", ContentFormat: domain.FormatMarkdown, IsRequired: true},
			{Title: "Root Cause", UsageDescription: "Why the defect occurs", ContentFormat: domain.FormatMarkdown},
			{Title: "Verification", UsageDescription: "How the fix was confirmed", ContentFormat: domain.FormatMarkdown, IsRequired: true},
		},
	},
	{
		Name:             "implementation-task",
		Description:      "Baseline sections for a standard implementation task.",
		TargetEntityType: domain.EntityTask,
		Tags:             []string{"standard"},
		Sections: []sectionSeed{
			{Title: "Approach", UsageDescription: "The intended implementation approach", ContentFormat: domain.FormatMarkdown},
			{Title: "Verification", UsageDescription: "How to verify the task is complete", ContentFormat: domain.FormatMarkdown, IsRequired: true},
		},
	},
}

// SeedResult reports what Seed did.
type SeedResult struct {
	Created []string
	Skipped []string
}

// Seed creates the built-in templates that do not already exist by name
// (unless force is true, in which case every built-in template is
// recreated). Existing user-defined templates with colliding names are left
// untouched when force is false.
func Seed(ctx context.Context, templates repository.TemplateRepository, existing []*domain.Template, force bool) (SeedResult, error) {
	byName := make(map[string]bool, len(existing))
	for _, t := range existing {
		byName[t.Name] = true
	}

	var result SeedResult
	for _, seed := range standardTemplates {
		if byName[seed.Name] && !force {
			result.Skipped = append(result.Skipped, seed.Name)
			continue
		}

		tmpl := &domain.Template{
			Name:             seed.Name,
			Description:      seed.Description,
			TargetEntityType: seed.TargetEntityType,
			IsBuiltIn:        true,
			IsProtected:      true,
			IsEnabled:        true,
			Tags:             seed.Tags,
		}
		sections := make([]*domain.TemplateSection, len(seed.Sections))
		for i, s := range seed.Sections {
			sections[i] = &domain.TemplateSection{
				Title:            s.Title,
				UsageDescription: s.UsageDescription,
				ContentSample:    s.ContentSample,
				ContentFormat:    s.ContentFormat,
				Ordinal:          i,
				IsRequired:       s.IsRequired,
			}
		}

		res := templates.CreateTemplate(ctx, tmpl, sections)
		if !res.IsSuccess() {
			return result, fmt.Errorf("seeding template %q: %s", seed.Name, res.Error().Message)
		}
		result.Created = append(result.Created, seed.Name)
	}

	return result, nil
}
