// Package workflow implements the StatusProgressionService: flow
// resolution, next-status recommendation, and role lookup. It is the single
// chokepoint that decides "what comes next" so that cascade detection can
// stay oblivious to concrete status names.
package workflow

import (
	"sort"

	"github.com/taskorchestrator/mcp-server/internal/status"
)

// FlowPath is one container type's ordered status sequence plus its
// terminal-status set, selected for a specific entity by tag.
type FlowPath struct {
	Name             string
	Sequence         []string // internal (UPPER_SNAKE) statuses, entry first
	Terminal         map[string]bool
	roleOverride     map[string]status.Role
}

// First reports whether s is the flow's entry status.
func (f FlowPath) First(s string) bool {
	return len(f.Sequence) > 0 && f.Sequence[0] == s
}

// IsTerminal reports whether s is one of the flow's terminal statuses.
func (f FlowPath) IsTerminal(s string) bool {
	return f.Terminal[s]
}

// IndexOf returns s's position in the sequence, or -1 if absent.
func (f FlowPath) IndexOf(s string) int {
	for i, v := range f.Sequence {
		if v == s {
			return i
		}
	}
	return -1
}

// RoleFor returns the role s maps to under this flow: a flow-local override
// if one is registered, otherwise the container-wide default.
func (f FlowPath) RoleFor(s string) status.Role {
	if r, ok := f.roleOverride[s]; ok {
		return r
	}
	return status.DefaultRole(s)
}

// flowDef is the registration-time shape of a flow: a tag selector (empty
// string means "default, used when no tagged flow matches") plus sequence
// and terminal set.
type flowDef struct {
	name      string
	tag       string
	sequence  []string
	terminal  []string
	roles     map[string]status.Role
}

// Registry holds the set of flows known for each container type. NewRegistry
// registers the default flow for each container type; RegisterTaggedFlow
// adds tag-selected flows. Configuration loading registers no flows.
type Registry struct {
	flows map[status.ContainerType][]flowDef
}

// NewRegistry builds a Registry seeded with the default (untagged) flow for
// each container type. Each sequence lists only the forward path; archived,
// cancelled and deferred appear only in the terminal sets.
func NewRegistry() *Registry {
	r := &Registry{flows: make(map[status.ContainerType][]flowDef)}

	r.register(status.Project, flowDef{
		name:     "default",
		sequence: []string{status.ProjectPlanning, status.ProjectInDevelopment, status.ProjectCompleted},
		terminal: []string{status.ProjectCompleted, status.ProjectArchived},
	})
	r.register(status.Feature, flowDef{
		name:     "default",
		sequence: []string{status.FeaturePlanning, status.FeatureInDevelopment, status.FeatureCompleted},
		terminal: []string{status.FeatureCompleted, status.FeatureArchived},
	})
	r.register(status.Task, flowDef{
		name:     "default",
		sequence: []string{status.TaskPending, status.TaskInProgress, status.TaskCompleted},
		terminal: []string{status.TaskCompleted, status.TaskCancelled, status.TaskDeferred},
	})

	return r
}

// register adds a flow definition for a container type. Later calls with the
// same tag replace an earlier one, which lets operators override a default
// flow without duplicating registry plumbing.
func (r *Registry) register(ct status.ContainerType, def flowDef) {
	flows := r.flows[ct]
	for i, existing := range flows {
		if existing.tag == def.tag {
			flows[i] = def
			r.flows[ct] = flows
			return
		}
	}
	r.flows[ct] = append(flows, def)
}

// RegisterTaggedFlow adds a flow selected when an entity carries tag. Exists
// so operators can configure additional flows beyond the three defaults
// without touching service code.
func (r *Registry) RegisterTaggedFlow(ct status.ContainerType, tag string, sequence, terminal []string, roles map[string]status.Role) {
	r.register(ct, flowDef{name: tag, tag: tag, sequence: sequence, terminal: terminal, roles: roles})
}

// resolve selects a flow for ct given tags: exact tag match first, then the
// default (tag == ""), with a lexicographic tie-break on flow name when more
// than one tagged flow matches.
func (r *Registry) resolve(ct status.ContainerType, tags []string) (flowDef, bool) {
	candidates := r.flows[ct]
	if len(candidates) == 0 {
		return flowDef{}, false
	}

	tagSet := make(map[string]bool, len(tags))
	for _, t := range tags {
		tagSet[t] = true
	}

	var matched []flowDef
	for _, def := range candidates {
		if def.tag != "" && tagSet[def.tag] {
			matched = append(matched, def)
		}
	}
	if len(matched) > 0 {
		sort.Slice(matched, func(i, j int) bool { return matched[i].name < matched[j].name })
		return matched[0], true
	}

	for _, def := range candidates {
		if def.tag == "" {
			return def, true
		}
	}
	return flowDef{}, false
}

func toFlowPath(def flowDef) FlowPath {
	terminal := make(map[string]bool, len(def.terminal))
	for _, s := range def.terminal {
		terminal[s] = true
	}
	return FlowPath{Name: def.name, Sequence: def.sequence, Terminal: terminal, roleOverride: def.roles}
}
