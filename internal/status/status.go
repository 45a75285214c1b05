// Package status defines the container taxonomy, status enumerations, and
// role lattice that the rest of the workflow engine builds on.
package status

import "strings"

// ContainerType identifies which of the three work-item kinds a status
// belongs to.
type ContainerType string

const (
	Project ContainerType = "project"
	Feature ContainerType = "feature"
	Task    ContainerType = "task"
)

// Role is a coarse categorical label attached to a status. Flows may declare
// additional intermediate roles beyond the four below; isRoleAtOrBeyond is
// the single source of truth for ordering them, never duplicated elsewhere.
type Role string

const (
	RolePlanning Role = "planning"
	RoleWork     Role = "work"
	RoleReview   Role = "review"
	RoleTerminal Role = "terminal"
)

// defaultRoleOrder ranks the four built-in roles. Unknown roles rank below
// every known role, including planning, so they never satisfy a threshold.
var defaultRoleOrder = map[Role]int{
	RolePlanning: 1,
	RoleWork:     2,
	RoleReview:   3,
	RoleTerminal: 4,
}

// RoleOrder returns the rank of a role under the default lattice. Unknown
// roles rank 0, below planning.
func RoleOrder(r Role) int {
	return defaultRoleOrder[r]
}

// IsRoleAtOrBeyond reports whether r is at or beyond threshold in the role
// lattice. It is monotone and total: for any r, IsRoleAtOrBeyond(r, r) is
// true.
func IsRoleAtOrBeyond(r, threshold Role) bool {
	return RoleOrder(r) >= RoleOrder(threshold)
}

// Default status enumerations (spec.md §3). Canonical external form is
// kebab-case; Normalize/Denormalize convert between external and internal
// representations.
const (
	ProjectPlanning      = "PLANNING"
	ProjectInDevelopment = "IN_DEVELOPMENT"
	ProjectCompleted     = "COMPLETED"
	ProjectArchived      = "ARCHIVED"

	FeaturePlanning      = "PLANNING"
	FeatureInDevelopment = "IN_DEVELOPMENT"
	FeatureCompleted     = "COMPLETED"
	FeatureArchived      = "ARCHIVED"

	TaskPending     = "PENDING"
	TaskInProgress  = "IN_PROGRESS"
	TaskCompleted   = "COMPLETED"
	TaskCancelled   = "CANCELLED"
	TaskDeferred    = "DEFERRED"
)

// allowedStatuses maps each container type to its internal (upper-snake)
// status values, in canonical declaration order.
var allowedStatuses = map[ContainerType][]string{
	Project: {ProjectPlanning, ProjectInDevelopment, ProjectCompleted, ProjectArchived},
	Feature: {FeaturePlanning, FeatureInDevelopment, FeatureCompleted, FeatureArchived},
	Task:    {TaskPending, TaskInProgress, TaskCompleted, TaskCancelled, TaskDeferred},
}

// AllowedStatuses returns the canonical external (kebab-case) form of every
// legal status for containerType.
func AllowedStatuses(containerType ContainerType) []string {
	internal := allowedStatuses[containerType]
	out := make([]string, len(internal))
	for i, s := range internal {
		out[i] = Normalize(s)
	}
	return out
}

// ValidateStatus reports whether status (in either form) is a legal value
// for containerType, after normalization.
func ValidateStatus(containerType ContainerType, candidate string) (string, bool) {
	want := Denormalize(candidate)
	for _, s := range allowedStatuses[containerType] {
		if s == want {
			return s, true
		}
	}
	return "", false
}

// Normalize converts an internal (UPPER_SNAKE) status into the canonical
// external kebab-case form. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", "-")
}

// Denormalize converts an external (kebab-case) or internal status string
// into the internal UPPER_SNAKE form, accepting either form as input.
func Denormalize(s string) string {
	return strings.ReplaceAll(strings.ToUpper(s), "-", "_")
}

// defaultRoleForStatus maps each built-in internal status to its role under
// the default (untagged) flow. Custom flows may override these mappings;
// see workflow.FlowPath.RoleFor.
var defaultRoleForStatus = map[string]Role{
	ProjectPlanning:      RolePlanning,
	ProjectInDevelopment: RoleWork,
	ProjectCompleted:     RoleTerminal,
	ProjectArchived:      RoleTerminal,

	FeaturePlanning:      RolePlanning,
	FeatureInDevelopment: RoleWork,
	FeatureCompleted:     RoleTerminal,
	FeatureArchived:      RoleTerminal,

	TaskPending:    RolePlanning,
	TaskInProgress: RoleWork,
	TaskCompleted:  RoleTerminal,
	TaskCancelled:  RoleTerminal,
	TaskDeferred:   RolePlanning,
}

// DefaultRole returns the role a status maps to in the absence of a
// flow-specific override. Unknown statuses return the empty role, which
// ranks below every known role.
func DefaultRole(internalStatus string) Role {
	if r, ok := defaultRoleForStatus[internalStatus]; ok {
		return r
	}
	return Role("")
}

// IsTerminal reports whether internalStatus's default role is terminal.
func IsTerminal(internalStatus string) bool {
	return DefaultRole(internalStatus) == RoleTerminal
}
