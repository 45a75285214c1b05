package guards

import "context"

// --- Create-time guards ---

// TemplatesApplied gives the "created without templates" heuristic nudge
// named in spec.md §4.8 step 6. It is a SUGGESTION — creating a feature or
// task without any template is never wrong, just worth flagging.
var TemplatesApplied = NewGuardFunc("templates_applied", func(_ context.Context, gctx *GuardContext) Result {
	if gctx.TemplateIDsProvided > 0 {
		return Pass("templates_applied")
	}
	if !gctx.TemplatesExistForType {
		return Pass("templates_applied") // nothing to suggest applying
	}
	return Fail("templates_applied", Suggestion,
		"Created without applying any template, though templates exist for this container type.",
		"Pass templateIds to seed standard sections, or ignore if this entity is a one-off.",
	)
})

// CreateGuards returns the guard set run for ManageContainer create items.
func CreateGuards() []Guard {
	return []Guard{TemplatesApplied}
}

// --- Delete-time guards ---

// NoOrphanedChildren blocks deleting a project/feature that still has
// children unless force=true.
var NoOrphanedChildren = NewGuardFunc("no_orphaned_children", func(_ context.Context, gctx *GuardContext) Result {
	if !gctx.HasChildren {
		return Pass("no_orphaned_children")
	}
	return Fail("no_orphaned_children", SoftBlock,
		"This "+gctx.ContainerType+" still has child entities beneath it.",
		"Pass force=true to cascade-delete its children, or delete/reassign them first.",
	)
})

// NoBrokenDependencies blocks deleting a task with live dependency edges
// unless force=true.
var NoBrokenDependencies = NewGuardFunc("no_broken_dependencies", func(_ context.Context, gctx *GuardContext) Result {
	if !gctx.HasDependencies {
		return Pass("no_broken_dependencies")
	}
	return Fail("no_broken_dependencies", SoftBlock,
		"This task has dependency edges to other tasks.",
		"Pass force=true to delete the task and its dependency edges; downstream tasks will lose this blocker.",
	)
})

// DeleteGuards returns the guard set run for ManageContainer delete items.
func DeleteGuards(containerType string) []Guard {
	if containerType == "task" {
		return []Guard{NoBrokenDependencies}
	}
	return []Guard{NoOrphanedChildren}
}
