package progress

import (
	"strings"
)

const (
	clonedStepNameConstant    = "cloned"
	pushedStepNameConstant    = "pushed"
	stepDelimiterConstant     = ">"
	fieldDelimiterConstant    = ","
	sourceURLFieldIndex       = 0
	slugFieldIndex            = 1
	completedStepsFieldIndex  = 2
	recordFieldCountConstant  = 3
	emptyStepsSerializedValue = ""
)

// Step names one unit of migration work tracked to completion per repository.
type Step string

// Steps in execution order.
const (
	StepCloned Step = Step(clonedStepNameConstant)
	StepPushed Step = Step(pushedStepNameConstant)
)

// StepSequence returns the fixed ordered sequence of migration steps.
func StepSequence() []Step {
	return []Step{StepCloned, StepPushed}
}

// Record captures one repository's migration state.
type Record struct {
	SourceURL      string
	Slug           string
	CompletedSteps []Step
}

// HasCompletedStep reports whether the record already contains the step.
func (record Record) HasCompletedStep(step Step) bool {
	for _, completedStep := range record.CompletedSteps {
		if completedStep == step {
			return true
		}
	}
	return false
}

// NextPendingStep returns the first step in sequence order not yet completed.
// The boolean is false when every step has completed.
func (record Record) NextPendingStep() (Step, bool) {
	for _, sequencedStep := range StepSequence() {
		if !record.HasCompletedStep(sequencedStep) {
			return sequencedStep, true
		}
	}
	return Step(emptyStepsSerializedValue), false
}

// WithCompletedStep returns a copy of the record with the step appended when absent.
func (record Record) WithCompletedStep(step Step) Record {
	if record.HasCompletedStep(step) {
		return record
	}
	updatedRecord := record
	updatedRecord.CompletedSteps = append(append([]Step{}, record.CompletedSteps...), step)
	return updatedRecord
}

// ParseSteps deserializes a delimiter-joined list of step names, dropping
// blank entries and duplicates while preserving first-completion order.
func ParseSteps(serializedSteps string) []Step {
	parsedSteps := []Step{}
	for _, stepName := range strings.Split(serializedSteps, stepDelimiterConstant) {
		trimmedStepName := strings.TrimSpace(stepName)
		if len(trimmedStepName) == 0 {
			continue
		}
		candidateStep := Step(trimmedStepName)
		duplicate := false
		for _, parsedStep := range parsedSteps {
			if parsedStep == candidateStep {
				duplicate = true
				break
			}
		}
		if !duplicate {
			parsedSteps = append(parsedSteps, candidateStep)
		}
	}
	return parsedSteps
}

// FormatSteps serializes steps into the delimiter-joined store representation.
func FormatSteps(steps []Step) string {
	stepNames := make([]string, 0, len(steps))
	for _, serializedStep := range steps {
		stepNames = append(stepNames, string(serializedStep))
	}
	return strings.Join(stepNames, stepDelimiterConstant)
}

// parseRecordLine converts a raw data row into a Record, tolerating missing
// trailing fields so malformed rows surface as skippable records rather than errors.
func parseRecordLine(rawLine string) Record {
	trimmedLine := strings.TrimRight(rawLine, "\r")
	fields := strings.Split(trimmedLine, fieldDelimiterConstant)

	parsedRecord := Record{}
	if len(fields) > sourceURLFieldIndex {
		parsedRecord.SourceURL = strings.TrimSpace(fields[sourceURLFieldIndex])
	}
	if len(fields) > slugFieldIndex {
		parsedRecord.Slug = strings.TrimSpace(fields[slugFieldIndex])
	}
	if len(fields) > completedStepsFieldIndex {
		parsedRecord.CompletedSteps = ParseSteps(fields[completedStepsFieldIndex])
	}
	return parsedRecord
}

// formatRecordLine serializes a Record back into its store row representation.
func formatRecordLine(record Record) string {
	fields := make([]string, recordFieldCountConstant)
	fields[sourceURLFieldIndex] = record.SourceURL
	fields[slugFieldIndex] = record.Slug
	fields[completedStepsFieldIndex] = FormatSteps(record.CompletedSteps)
	return strings.Join(fields, fieldDelimiterConstant)
}
