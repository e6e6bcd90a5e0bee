package migration

import (
	"github.com/plotset-corp/migration-gl-to-gh/internal/progress"
)

const (
	outcomeCompletedNameConstant = "completed"
	outcomeAdvancedNameConstant  = "advanced"
	outcomeFailedNameConstant    = "failed"
	outcomeSkippedNameConstant   = "skipped"
)

// OutcomeKind classifies the result of driving a repository's pending steps.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeCompleted OutcomeKind = OutcomeKind(outcomeCompletedNameConstant)
	OutcomeAdvanced  OutcomeKind = OutcomeKind(outcomeAdvancedNameConstant)
	OutcomeFailed    OutcomeKind = OutcomeKind(outcomeFailedNameConstant)
	OutcomeSkipped   OutcomeKind = OutcomeKind(outcomeSkippedNameConstant)
)

// Outcome reports the result of one step-executor invocation.
type Outcome struct {
	Kind  OutcomeKind
	Step  progress.Step
	Cause error
}

// CompletedOutcome reports that no steps remained.
func CompletedOutcome() Outcome {
	return Outcome{Kind: OutcomeCompleted}
}

// AdvancedOutcome reports one successfully completed step.
func AdvancedOutcome(step progress.Step) Outcome {
	return Outcome{Kind: OutcomeAdvanced, Step: step}
}

// FailedOutcome reports the step that failed together with its cause.
func FailedOutcome(step progress.Step, cause error) Outcome {
	return Outcome{Kind: OutcomeFailed, Step: step, Cause: cause}
}

// RepositoryResult captures the terminal outcome for one repository in a batch.
type RepositoryResult struct {
	Slug       string      `yaml:"slug"`
	SourceURL  string      `yaml:"source_url"`
	Outcome    OutcomeKind `yaml:"outcome"`
	FailedStep string      `yaml:"failed_step,omitempty"`
	Detail     string      `yaml:"detail,omitempty"`
}

// Summary tallies terminal outcomes across a batch run.
type Summary struct {
	Completed    int                `yaml:"completed"`
	Failed       int                `yaml:"failed"`
	Skipped      int                `yaml:"skipped"`
	Repositories []RepositoryResult `yaml:"repositories"`
}

func (summary *Summary) recordResult(result RepositoryResult) {
	switch result.Outcome {
	case OutcomeCompleted:
		summary.Completed++
	case OutcomeFailed:
		summary.Failed++
	case OutcomeSkipped:
		summary.Skipped++
	}
	summary.Repositories = append(summary.Repositories, result)
}
