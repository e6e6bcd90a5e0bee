package migration

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/plotset-corp/migration-gl-to-gh/internal/gitrepo"
	"github.com/plotset-corp/migration-gl-to-gh/internal/progress"
)

const (
	skipReasonEmptySlugConstant        = "empty slug"
	skipReasonSourceMismatchConstant   = "source url does not match the configured source host"
	recordSkippedMessageConstant       = "Skipping migration record"
	repositoryCompletedMessageConstant = "Repository migration complete"
	batchSummaryMessageConstant        = "Migration batch finished"
	logFieldSkipReasonConstant         = "reason"
	logFieldCompletedCountConstant     = "completed"
	logFieldFailedCountConstant        = "failed"
	logFieldSkippedCountConstant       = "skipped"
)

// RunBatch reads the work batch from the progress store and drives every
// record to a terminal outcome, sequentially. A repository failure is isolated
// and the batch continues; store access failures halt the batch because state
// can no longer be trusted.
func (service *Service) RunBatch(executionContext context.Context, options MigrationOptions) (Summary, error) {
	if service.store == nil {
		return Summary{}, ErrStoreNotConfigured
	}
	if validationError := validateCommonOptions(options); validationError != nil {
		return Summary{}, validationError
	}
	if len(strings.TrimSpace(options.SourceHost)) == 0 {
		return Summary{}, InvalidInputError{FieldName: sourceHostFieldNameConstant, Message: requiredValueMessageConstant}
	}

	workBatch, loadError := service.store.LoadRecords()
	if loadError != nil {
		return Summary{}, loadError
	}

	summary := Summary{}
	for _, batchRecord := range workBatch {
		if skipReason, skipped := service.shouldSkip(options, batchRecord); skipped {
			service.logger.Warn(
				recordSkippedMessageConstant,
				zap.String(logFieldSourceURLConstant, batchRecord.SourceURL),
				zap.String(logFieldSlugConstant, batchRecord.Slug),
				zap.String(logFieldSkipReasonConstant, skipReason),
			)
			summary.recordResult(RepositoryResult{
				Slug:      batchRecord.Slug,
				SourceURL: batchRecord.SourceURL,
				Outcome:   OutcomeSkipped,
				Detail:    skipReason,
			})
			continue
		}

		repositoryResult, storeFailure := service.driveToTerminalOutcome(executionContext, options, batchRecord, service.store)
		if storeFailure != nil {
			return summary, storeFailure
		}
		summary.recordResult(repositoryResult)
	}

	service.logger.Info(
		batchSummaryMessageConstant,
		zap.Int(logFieldCompletedCountConstant, summary.Completed),
		zap.Int(logFieldFailedCountConstant, summary.Failed),
		zap.Int(logFieldSkippedCountConstant, summary.Skipped),
	)
	return summary, nil
}

// driveToTerminalOutcome repeatedly executes pending steps until the
// repository completes or fails. Store access failures are escalated to the
// caller instead of being folded into the repository outcome.
func (service *Service) driveToTerminalOutcome(executionContext context.Context, options MigrationOptions, record progress.Record, recorder StepRecorder) (RepositoryResult, error) {
	for {
		outcome := service.ExecutePendingSteps(executionContext, options, record, recorder)
		switch outcome.Kind {
		case OutcomeAdvanced:
			continue
		case OutcomeCompleted:
			service.logger.Info(
				repositoryCompletedMessageConstant,
				zap.String(logFieldSlugConstant, record.Slug),
			)
			return RepositoryResult{Slug: record.Slug, SourceURL: record.SourceURL, Outcome: OutcomeCompleted}, nil
		default:
			storeFailure := progress.StoreAccessError{}
			if errors.As(outcome.Cause, &storeFailure) {
				return RepositoryResult{}, outcome.Cause
			}
			repositoryResult := RepositoryResult{
				Slug:       record.Slug,
				SourceURL:  record.SourceURL,
				Outcome:    OutcomeFailed,
				FailedStep: string(outcome.Step),
			}
			if outcome.Cause != nil {
				repositoryResult.Detail = outcome.Cause.Error()
			}
			return repositoryResult, nil
		}
	}
}

func (service *Service) shouldSkip(options MigrationOptions, record progress.Record) (string, bool) {
	if len(strings.TrimSpace(record.Slug)) == 0 {
		return skipReasonEmptySlugConstant, true
	}
	if !gitrepo.MatchesHost(record.SourceURL, options.SourceHost) {
		return skipReasonSourceMismatchConstant, true
	}
	return "", false
}
