package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRoleAtOrBeyond(t *testing.T) {
	assert.True(t, IsRoleAtOrBeyond(RoleTerminal, RolePlanning))
	assert.True(t, IsRoleAtOrBeyond(RoleWork, RoleWork))
	assert.False(t, IsRoleAtOrBeyond(RolePlanning, RoleWork))
	assert.False(t, IsRoleAtOrBeyond(RoleReview, RoleTerminal))
}

func TestIsRoleAtOrBeyondUnknownRoleRanksBelowEverything(t *testing.T) {
	assert.False(t, IsRoleAtOrBeyond(Role("bogus"), RolePlanning))
	assert.True(t, IsRoleAtOrBeyond(RolePlanning, Role("bogus")))
}

func TestNormalizeDenormalizeRoundTrip(t *testing.T) {
	assert.Equal(t, "in-progress", Normalize("IN_PROGRESS"))
	assert.Equal(t, "IN_PROGRESS", Denormalize("in-progress"))
	assert.Equal(t, "IN_PROGRESS", Denormalize("IN_PROGRESS"))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once := Normalize("IN_PROGRESS")
	twice := Normalize(once)
	assert.Equal(t, once, twice)
}

func TestValidateStatusAcceptsEitherForm(t *testing.T) {
	internal, ok := ValidateStatus(Task, "in-progress")
	assert.True(t, ok)
	assert.Equal(t, TaskInProgress, internal)

	internal, ok = ValidateStatus(Task, "IN_PROGRESS")
	assert.True(t, ok)
	assert.Equal(t, TaskInProgress, internal)
}

func TestValidateStatusRejectsUnknownStatus(t *testing.T) {
	_, ok := ValidateStatus(Task, "not-a-status")
	assert.False(t, ok)
}

func TestValidateStatusIsScopedToContainerType(t *testing.T) {
	// ARCHIVED is valid for project/feature but not a task status.
	_, ok := ValidateStatus(Task, "archived")
	assert.False(t, ok)

	_, ok = ValidateStatus(Project, "archived")
	assert.True(t, ok)
}

func TestAllowedStatusesReturnsCanonicalForm(t *testing.T) {
	got := AllowedStatuses(Project)
	assert.Equal(t, []string{"planning", "in-development", "completed", "archived"}, got)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(TaskCompleted))
	assert.True(t, IsTerminal(TaskCancelled))
	assert.False(t, IsTerminal(TaskPending))
	assert.False(t, IsTerminal("unknown"))
}
