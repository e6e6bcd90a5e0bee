package migration

import (
	"github.com/plotset-corp/migration-gl-to-gh/internal/progress"
)

// StepRecorder abstracts where a repository's completed steps are tracked.
// The store-backed implementation re-reads the backing file on every call so
// a batch tolerates concurrent external edits; the in-memory implementation
// serves single-target runs that never touch the store.
type StepRecorder interface {
	NextPendingStep(slug string) (progress.Step, bool, error)
	MarkStepComplete(slug string, step progress.Step) error
}

// memoryStepRecorder tracks completions for one synthesized record.
type memoryStepRecorder struct {
	record progress.Record
}

func newMemoryStepRecorder(record progress.Record) *memoryStepRecorder {
	return &memoryStepRecorder{record: record}
}

func (recorder *memoryStepRecorder) NextPendingStep(string) (progress.Step, bool, error) {
	pendingStep, stepPending := recorder.record.NextPendingStep()
	return pendingStep, stepPending, nil
}

func (recorder *memoryStepRecorder) MarkStepComplete(_ string, step progress.Step) error {
	recorder.record = recorder.record.WithCompletedStep(step)
	return nil
}
