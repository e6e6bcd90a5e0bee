package migration

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/plotset-corp/migration-gl-to-gh/internal/progress"
)

const (
	singleRunStartedMessageConstant = "Running single-repository migration"
)

// RunSingle migrates one ad-hoc repository supplied directly, without
// consulting or mutating the progress store. Completions are tracked in
// memory only, so re-running re-attempts every step from the beginning.
func (service *Service) RunSingle(executionContext context.Context, options MigrationOptions, sourceURL string, slug string) (Outcome, error) {
	if validationError := validateCommonOptions(options); validationError != nil {
		return Outcome{}, validationError
	}
	if len(strings.TrimSpace(sourceURL)) == 0 {
		return Outcome{}, InvalidInputError{FieldName: sourceURLFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(slug)) == 0 {
		return Outcome{}, InvalidInputError{FieldName: slugFieldNameConstant, Message: requiredValueMessageConstant}
	}

	service.logger.Info(
		singleRunStartedMessageConstant,
		zap.String(logFieldSourceURLConstant, sourceURL),
		zap.String(logFieldSlugConstant, slug),
	)

	synthesizedRecord := progress.Record{SourceURL: strings.TrimSpace(sourceURL), Slug: strings.TrimSpace(slug)}
	recorder := newMemoryStepRecorder(synthesizedRecord)

	for {
		outcome := service.ExecutePendingSteps(executionContext, options, synthesizedRecord, recorder)
		switch outcome.Kind {
		case OutcomeAdvanced:
			continue
		default:
			return outcome, nil
		}
	}
}
