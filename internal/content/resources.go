package content

import "github.com/taskorchestrator/mcp-server/internal/mcp"

// --- taskorchestrator://entity-model resource ---

// EntityModelResource exposes the container/dependency/template schema as a
// reference resource. LLMs can read this to understand the data model.
type EntityModelResource struct{}

func (r *EntityModelResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         "taskorchestrator://entity-model",
		Name:        "Task Orchestrator Entity Model",
		Description: "Reference of container types, statuses, roles, and dependency types used by the workflow engine",
		MimeType:    "text/markdown",
	}
}

func (r *EntityModelResource) Read() (*mcp.ResourcesReadResult, error) {
	return &mcp.ResourcesReadResult{
		Contents: []mcp.ResourceContent{
			{
				URI:      "taskorchestrator://entity-model",
				MimeType: "text/markdown",
				Text:     entityModelContent,
			},
		},
	}, nil
}

// --- taskorchestrator://guardrails resource ---

// GuardrailsResource exposes the guard checks run around ManageContainer
// writes as a reference resource.
type GuardrailsResource struct{}

func (r *GuardrailsResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         "taskorchestrator://guardrails",
		Name:        "Task Orchestrator Guardrails",
		Description: "Reference of all guard checks, their severity levels, and when they run",
		MimeType:    "text/markdown",
	}
}

func (r *GuardrailsResource) Read() (*mcp.ResourcesReadResult, error) {
	return &mcp.ResourcesReadResult{
		Contents: []mcp.ResourceContent{
			{
				URI:      "taskorchestrator://guardrails",
				MimeType: "text/markdown",
				Text:     guardrailsContent,
			},
		},
	}, nil
}

// --- taskorchestrator://tool-reference resource ---

// ToolReferenceResource exposes a quick-reference card for all registered
// tools.
type ToolReferenceResource struct{}

func (r *ToolReferenceResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         "taskorchestrator://tool-reference",
		Name:        "Task Orchestrator Tool Reference",
		Description: "Quick-reference card for all task orchestrator tools with parameters and usage notes",
		MimeType:    "text/markdown",
	}
}

func (r *ToolReferenceResource) Read() (*mcp.ResourcesReadResult, error) {
	return &mcp.ResourcesReadResult{
		Contents: []mcp.ResourceContent{
			{
				URI:      "taskorchestrator://tool-reference",
				MimeType: "text/markdown",
				Text:     toolReferenceContent,
			},
		},
	}, nil
}

// --- Static content ---

const entityModelContent = `# Task Orchestrator Entity Model

## Container Hierarchy

**Project → Feature → Task**

Each container level carries:
- id (uuid), name, status (string), tags ([]string)
- createdAt, modifiedAt (time)

Tasks additionally carry:
- priority (LOW/MEDIUM/HIGH)
- requiresVerification (bool) — when true, the task survives completion
  cleanup instead of being deleted
- sections ([]Section) — ordered free-text blocks, optionally seeded from a
  template

## Status Flows

A flow is an ordered sequence of statuses plus a terminal set, selected per
container type by matching the container's tags against registered flows
(exact-tag-match-first, default flow otherwise; ties broken
lexicographically by flow name). Every status maps to exactly one role in
the ordered lattice:

**planning < work < review < terminal**

` + "`isRoleAtOrBeyond(role, threshold)`" + ` is the only function that compares
roles — nothing else duplicates this ordering.

Default flows:
- **Project**: planning → in_development → completed (completed/archived
  are terminal)
- **Feature**: planning → in_development → completed (completed/archived
  are terminal)
- **Task**: pending → in_progress → completed (completed, cancelled and
  deferred are terminal)

## Dependencies

A Dependency is a directed edge between two tasks:
- fromTaskId "blocks"/"relates_to" toTaskId
- unblockAt (role, optional) — the role the blocking task must reach before
  the dependent task is considered unblocked; defaults to terminal

Only BLOCKS edges gate ` + "`get_next_task`" + ` and transition validation.
RELATES_TO edges are informational only.

## Templates

A Template targets one container type (project/feature/task) and carries an
ordered list of TemplateSection definitions (title, usage description,
content sample, content format, required flag). Applying a template to a
container clones its sections, appended after any existing sections.

## Cascades

Four event kinds are detected after a write: first_task_started,
all_tasks_complete, all_features_complete, role_aggregation_threshold.
Detected events are applied up to a bounded recursion depth
(default 3), each application going through the same validator as a
manual transition.
`

const guardrailsContent = `# Task Orchestrator Guardrails Reference

## Overview

Guards are composable checks run around a ManageContainer write. Each guard
returns a result with one of four severity levels.

## Severity Levels

| Level | Meaning | Override |
|-------|---------|---------|
| HARD_BLOCK | Cannot proceed | Must fix the issue |
| SOFT_BLOCK | Should not proceed | Use force=true |
| WARNING | Advisory | Recommended action |
| SUGGESTION | Informational | No action needed |

## Create Guards

| Guard | Severity | Checks |
|-------|----------|--------|
| templates_applied | SUGGESTION | Flags creating a feature/task without applying any template, when templates exist for that container type |

## Delete Guards

| Guard | Severity | Checks |
|-------|----------|--------|
| no_orphaned_children | SOFT_BLOCK | Project/feature still has children beneath it |
| no_broken_dependencies | SOFT_BLOCK | Task still participates in a dependency edge |

## Transition Validation (not a guard — runs inside request_transition)

- Same-status transitions are a no-op, always valid.
- The target status must be legal for the container type.
- The target must be flow-adjacent (one step forward, or one step back to
  the immediate predecessor), or terminal.
- Task: all BLOCKS dependencies must be satisfied at their unblock role.
- Feature/Project advancing to a terminal status: all children must already
  be at a terminal status, unless force=true.
`

const toolReferenceContent = `# Task Orchestrator Tool Quick Reference

## Write Tools

### manage_container
Batched create/update/delete across project, feature, and task containers.
- **Required**: operation ("create"/"update"/"delete"), containerType, items
- **Create**: applies requested templates, runs create guards, returns the
  created containers plus any suggestion-level advisories.
- **Update**: validates the status transition if status is changing, writes,
  and reports resulting cascade suggestions and newly unblocked tasks
  without applying them.
- **Delete**: runs delete guards (override with force=true), then cascades
  the deletion in FK-safe order (dependencies, then sections, then the row).

### request_transition
- **Required**: containerType, id, newStatus
- **Optional**: force (bool)
- **Returns**: transition result plus any cascades applied as a result.

### set_status
- **Required**: id, newStatus
- **Optional**: force (bool)
- Resolves the container type automatically, then delegates to
  request_transition.

## Query Tools

### query_container
- **Required**: containerType
- **Optional**: id, projectId, featureId, status, tag, limit
- **Returns**: one container by id, or a filtered list.

### get_next_task
- **Optional**: projectId, featureId
- **Returns**: the highest-priority pending task with all BLOCKS
  dependencies satisfied.

### get_blocked_tasks
- **Optional**: projectId
- **Returns**: tasks with at least one unsatisfied BLOCKS dependency,
  annotated with blocker ids and the role each must still reach.

### get_overview
- **Required**: projectId
- **Returns**: project, feature, and task counts grouped by role.
`
