// Package guards implements the task orchestrator's advisory guardrail
// system.
//
// Guards are composable checks that run around a ManageContainer write.
// Each guard returns a result with a severity level that determines how the
// system responds:
//
//   - HARD_BLOCK: Stops execution. Caller cannot proceed.
//   - SOFT_BLOCK: Stops execution by default but can be overridden with force=true.
//   - WARNING: Operation proceeds but includes an advisory message in the response.
//   - SUGGESTION: Operation proceeds with an optional recommendation.
//
// Guards are grouped into sets run for a specific operation (container
// create, container delete). The Runner executes a set and aggregates
// results.
package guards

import (
	"context"
	"fmt"
	"strings"
)

// Severity indicates how a guard failure affects execution.
type Severity int

const (
	// Suggestion is advisory — operation proceeds, message included in response.
	Suggestion Severity = iota
	// Warning is advisory — operation proceeds, message included in response.
	Warning
	// SoftBlock stops execution unless force=true is provided.
	SoftBlock
	// HardBlock stops execution unconditionally.
	HardBlock
)

func (s Severity) String() string {
	switch s {
	case Suggestion:
		return "SUGGESTION"
	case Warning:
		return "WARNING"
	case SoftBlock:
		return "SOFT_BLOCK"
	case HardBlock:
		return "HARD_BLOCK"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of a single guard check.
type Result struct {
	GuardName string   `json:"guard_name"`
	Passed    bool     `json:"passed"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Remedy    string   `json:"remedy,omitempty"`
}

// Outcome is the aggregated result of running a guard set.
type Outcome struct {
	Blocked bool     `json:"blocked"`
	Results []Result `json:"results"`
}

// HardBlocks returns all hard block results.
func (o *Outcome) HardBlocks() []Result { return o.filterSeverity(HardBlock) }

// SoftBlocks returns all soft block results.
func (o *Outcome) SoftBlocks() []Result { return o.filterSeverity(SoftBlock) }

// Warnings returns all warning results.
func (o *Outcome) Warnings() []Result { return o.filterSeverity(Warning) }

// Suggestions returns all suggestion results.
func (o *Outcome) Suggestions() []Result { return o.filterSeverity(Suggestion) }

func (o *Outcome) filterSeverity(sev Severity) []Result {
	var out []Result
	for _, r := range o.Results {
		if !r.Passed && r.Severity == sev {
			out = append(out, r)
		}
	}
	return out
}

// FormatBlockMessage returns a human-readable message describing why the
// operation was blocked.
func (o *Outcome) FormatBlockMessage() string {
	if !o.Blocked {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Operation blocked by guards:\n")

	for _, r := range o.HardBlocks() {
		sb.WriteString(fmt.Sprintf("\n[HARD_BLOCK] %s: %s", r.GuardName, r.Message))
		if r.Remedy != "" {
			sb.WriteString(fmt.Sprintf("\n  Remedy: %s", r.Remedy))
		}
	}

	for _, r := range o.SoftBlocks() {
		sb.WriteString(fmt.Sprintf("\n[SOFT_BLOCK] %s: %s", r.GuardName, r.Message))
		if r.Remedy != "" {
			sb.WriteString(fmt.Sprintf("\n  Remedy: %s", r.Remedy))
		}
	}

	if len(o.SoftBlocks()) > 0 {
		sb.WriteString("\n\nUse force=true to override soft blocks.")
	}

	return sb.String()
}

// FormatAdvisoryMessage returns a human-readable message for warnings and
// suggestions, one line per result, for ManageContainer's response.
func (o *Outcome) FormatAdvisoryMessage() string {
	warnings := o.Warnings()
	suggestions := o.Suggestions()
	if len(warnings) == 0 && len(suggestions) == 0 {
		return ""
	}

	var sb strings.Builder
	if len(warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, r := range warnings {
			sb.WriteString(fmt.Sprintf("  - %s: %s", r.GuardName, r.Message))
			if r.Remedy != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", r.Remedy))
			}
			sb.WriteString("\n")
		}
	}
	if len(suggestions) > 0 {
		sb.WriteString("Suggestions:\n")
		for _, r := range suggestions {
			sb.WriteString(fmt.Sprintf("  - %s: %s", r.GuardName, r.Message))
			if r.Remedy != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", r.Remedy))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// Guard is a single check that can be composed into a guard set.
type Guard interface {
	Name() string
	Check(ctx context.Context, gctx *GuardContext) Result
}

// GuardContext carries the data guards need to judge a ManageContainer
// write, populated by the tool layer before running the guard set.
type GuardContext struct {
	// Operation is "create", "update", or "delete".
	Operation string
	// ContainerType is "project", "feature", or "task".
	ContainerType string
	// Force allows overriding soft blocks.
	Force bool

	// Create-time state.
	TemplateIDsProvided int  // len(item.TemplateIDs) for the item being checked
	TemplatesExistForType bool // at least one enabled template targets ContainerType

	// Delete-time state.
	HasChildren      bool // project/feature has features/tasks beneath it
	HasDependencies  bool // task participates in any BLOCKS/RELATES_TO edge
	IncomingDepCount int
	OutgoingDepCount int
}

// GuardFunc is a function-based guard for simple checks.
type GuardFunc struct {
	name  string
	check func(ctx context.Context, gctx *GuardContext) Result
}

// NewGuardFunc creates a guard from a function.
func NewGuardFunc(name string, fn func(ctx context.Context, gctx *GuardContext) Result) *GuardFunc {
	return &GuardFunc{name: name, check: fn}
}

func (g *GuardFunc) Name() string { return g.name }
func (g *GuardFunc) Check(ctx context.Context, gctx *GuardContext) Result {
	return g.check(ctx, gctx)
}

// Pass returns a passing result for the given guard name.
func Pass(guardName string) Result {
	return Result{GuardName: guardName, Passed: true}
}

// Fail returns a failing result with the given severity and message.
func Fail(guardName string, severity Severity, message, remedy string) Result {
	return Result{GuardName: guardName, Passed: false, Severity: severity, Message: message, Remedy: remedy}
}

// Runner executes a set of guards and aggregates results.
type Runner struct{}

// NewRunner creates a guard runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes the given guards against the context and returns an
// aggregated outcome.
func (r *Runner) Run(ctx context.Context, gctx *GuardContext, guardSet []Guard) *Outcome {
	outcome := &Outcome{}

	for _, g := range guardSet {
		result := g.Check(ctx, gctx)
		outcome.Results = append(outcome.Results, result)

		if !result.Passed {
			switch result.Severity {
			case HardBlock:
				outcome.Blocked = true
			case SoftBlock:
				if !gctx.Force {
					outcome.Blocked = true
				}
			}
		}
	}

	return outcome
}
