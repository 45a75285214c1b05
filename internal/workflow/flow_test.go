package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorchestrator/mcp-server/internal/status"
)

func TestNewRegistryDefaultFlows(t *testing.T) {
	r := NewRegistry()

	for _, ct := range []status.ContainerType{status.Project, status.Feature, status.Task} {
		def, ok := r.resolve(ct, nil)
		require.True(t, ok, "expected a default flow for %s", ct)
		assert.Equal(t, "default", def.name)
	}
}

func TestFlowPathFirstAndTerminal(t *testing.T) {
	fp := toFlowPath(flowDef{
		name:     "default",
		sequence: []string{status.TaskPending, status.TaskInProgress, status.TaskCompleted},
		terminal: []string{status.TaskCompleted, status.TaskCancelled},
	})

	assert.True(t, fp.First(status.TaskPending))
	assert.False(t, fp.First(status.TaskInProgress))
	assert.True(t, fp.IsTerminal(status.TaskCompleted))
	assert.True(t, fp.IsTerminal(status.TaskCancelled))
	assert.False(t, fp.IsTerminal(status.TaskInProgress))
}

func TestFlowPathIndexOf(t *testing.T) {
	fp := toFlowPath(flowDef{sequence: []string{"A", "B", "C"}})
	assert.Equal(t, 0, fp.IndexOf("A"))
	assert.Equal(t, 2, fp.IndexOf("C"))
	assert.Equal(t, -1, fp.IndexOf("Z"))
}

func TestFlowPathRoleForOverridesDefault(t *testing.T) {
	fp := toFlowPath(flowDef{
		sequence: []string{status.TaskPending, status.TaskInProgress},
		roles:    map[string]status.Role{status.TaskPending: status.RoleWork},
	})
	assert.Equal(t, status.RoleWork, fp.RoleFor(status.TaskPending))
	// no override registered for in-progress: falls back to the package default.
	assert.Equal(t, status.DefaultRole(status.TaskInProgress), fp.RoleFor(status.TaskInProgress))
}

func TestRegistryResolveTagExactMatchBeatsDefault(t *testing.T) {
	r := NewRegistry()
	r.RegisterTaggedFlow(status.Task, "urgent", []string{status.TaskPending, status.TaskCompleted}, []string{status.TaskCompleted}, nil)

	def, ok := r.resolve(status.Task, []string{"urgent"})
	require.True(t, ok)
	assert.Equal(t, "urgent", def.name)

	def, ok = r.resolve(status.Task, []string{"unrelated"})
	require.True(t, ok)
	assert.Equal(t, "default", def.name)
}

func TestRegistryResolveLexicographicTieBreak(t *testing.T) {
	r := NewRegistry()
	r.RegisterTaggedFlow(status.Task, "zeta", []string{status.TaskPending}, nil, nil)
	r.RegisterTaggedFlow(status.Task, "alpha", []string{status.TaskPending}, nil, nil)

	def, ok := r.resolve(status.Task, []string{"zeta", "alpha"})
	require.True(t, ok)
	assert.Equal(t, "alpha", def.name)
}

func TestRegistryRegisterReplacesSameTag(t *testing.T) {
	r := &Registry{flows: make(map[status.ContainerType][]flowDef)}
	r.register(status.Task, flowDef{name: "v1", tag: "x", sequence: []string{"A"}})
	r.register(status.Task, flowDef{name: "v2", tag: "x", sequence: []string{"B"}})

	def, ok := r.resolve(status.Task, []string{"x"})
	require.True(t, ok)
	assert.Equal(t, "v2", def.name)
	assert.Len(t, r.flows[status.Task], 1)
}
