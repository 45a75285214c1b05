// Package content provides MCP prompts and resources for the task
// orchestrator server.
package content

import "github.com/taskorchestrator/mcp-server/internal/mcp"

// --- plan-project prompt ---

// PlanProjectPrompt guides an LLM through standing up a new project: seeding
// a project container, breaking it into features and tasks, and wiring
// dependencies before work starts.
type PlanProjectPrompt struct{}

func (p *PlanProjectPrompt) Definition() mcp.PromptDefinition {
	return mcp.PromptDefinition{
		Name:        "plan-project",
		Description: "Interactive guide for standing up a new project: create the project container, break it into features and tasks, and wire dependencies before work starts.",
		Arguments:   []mcp.PromptArgument{},
	}
}

func (p *PlanProjectPrompt) Get(arguments map[string]string) (*mcp.PromptsGetResult, error) {
	return &mcp.PromptsGetResult{
		Description: "Guide for planning a new project",
		Messages: []mcp.PromptMessage{
			{
				Role:    "user",
				Content: mcp.TextContent(planProjectGuide),
			},
		},
	}, nil
}

const planProjectGuide = `# Plan a New Project

You are helping a user stand up a new project in the task orchestrator.

## Container Hierarchy

**Project → Feature → Task**

A project holds one or more features; a feature holds one or more tasks.
Each level has its own status flow and moves through it independently —
progress rolls up, it does not cascade down.

## Step 1: Create the Project

Ask:
- What is this project called? What is its goal?
- Any tags that will matter later (team, area, priority)?

Call ` + "`manage_container`" + ` with operation "create", containerType
"project". Leave templateIds empty unless a project-charter template exists
and the user wants its standard sections pre-populated.

## Step 2: Break Into Features

Ask:
- What are the major pieces of work inside this project?
- Does each piece map to one feature, or should some be split further?

Create one feature per piece with ` + "`manage_container`" + `
(containerType "feature", projectId set to the project). Features can be
created in a single batched call — the tool accepts multiple items per
request.

## Step 3: Break Features Into Tasks

For each feature, ask what concrete, independently completable steps it
needs. Create tasks with ` + "`manage_container`" + ` (containerType "task",
featureId set to the feature). Apply the ` + "`bug-fix-task`" + ` or
` + "`implementation-task`" + ` built-in template where it fits — it is a
suggestion, not a requirement.

## Step 4: Wire Dependencies

If a task cannot start until another finishes, add a BLOCKS dependency
between them (fromTaskId blocks toTaskId). The dependent task will not be
surfaced by ` + "`get_next_task`" + ` until its blocker clears the dependency's
unblock role (default: terminal).

## Step 5: Check Readiness

Call ` + "`get_overview`" + ` on the project to see status counts per role, and
` + "`get_next_task`" + ` to confirm at least one task is immediately actionable.

## Common Mistakes

- Creating tasks before the feature that owns them exists.
- Wiring a dependency in the wrong direction (fromTaskId is the blocker).
- Expecting a feature to advance automatically when its tasks complete —
  advancement is cascade-detected, not instantaneous; check
  ` + "`get_overview`" + ` after completing the last task in a feature.

## Start Now!

Ask: "What are you building, and what's the first milestone?"
`

// --- advance-status prompt ---

// AdvanceStatusPrompt guides an LLM through moving a container forward in
// its status flow, including handling blocked transitions and cascades.
type AdvanceStatusPrompt struct{}

func (p *AdvanceStatusPrompt) Definition() mcp.PromptDefinition {
	return mcp.PromptDefinition{
		Name:        "advance-status",
		Description: "Guide for moving a project, feature, or task forward in its status flow, including handling blocked transitions and downstream cascades.",
		Arguments:   []mcp.PromptArgument{},
	}
}

func (p *AdvanceStatusPrompt) Get(arguments map[string]string) (*mcp.PromptsGetResult, error) {
	return &mcp.PromptsGetResult{
		Description: "Guide for advancing container status",
		Messages: []mcp.PromptMessage{
			{
				Role:    "user",
				Content: mcp.TextContent(advanceStatusGuide),
			},
		},
	}, nil
}

const advanceStatusGuide = `# Advance a Container's Status

## Step 1: Find Out What's Next

Call ` + "`get_next_task`" + ` (or inspect the container directly with
` + "`query_container`" + `) to see its current status and the recommended next
status for its flow.

## Step 2: Request the Transition

Call ` + "`request_transition`" + ` with the container's id and the target
status. If the container is a task with unmet BLOCKS dependencies, the
response reports which blockers are unmet and at what role they need to
reach — resolve those first, or pass force=true only if you are deliberately
overriding (this does not clear the dependency, it only skips the check).

## Step 3: Read the Cascade Result

A successful transition response includes any cascades the engine applied
automatically as a result — for example, a feature advancing because all of
its tasks reached a terminal status, or tasks becoming unblocked because
their blocker just completed. Read the ` + "`Unblocked`" + ` and
` + "`ChildCascades`" + ` fields of each ` + "`cascades`" + ` entry rather than
re-querying immediately after.

## Step 4: Re-check the Overview

After a batch of transitions, call ` + "`get_overview`" + ` to confirm the
project's aggregate state matches expectations — cascades can ripple further
than the single transition you requested.
`
