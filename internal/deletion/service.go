package deletion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/plotset-corp/migration-gl-to-gh/internal/progress"
)

const (
	deleterMissingMessageConstant           = "repository deleter not configured"
	storeMissingMessageConstant             = "progress store not configured"
	organizationFieldNameConstant           = "destination_organization"
	slugFieldNameConstant                   = "slug"
	requiredValueMessageConstant            = "value required"
	invalidInputErrorTemplateConstant       = "%s: %s"
	repositoryIdentifierTemplateConstant    = "%s/%s"
	deletionFailureTemplateConstant         = "unable to delete %s: %w"
	skipReasonEmptySlugConstant             = "empty slug"
	repositoryDeletedMessageConstant        = "Destination repository deleted"
	repositoryDeletionFailedMessageConstant = "Destination repository deletion failed"
	recordSkippedMessageConstant            = "Skipping deletion record"
	deletionSummaryMessageConstant          = "Deletion batch finished"
	logFieldRepositoryConstant              = "repository"
	logFieldSkipReasonConstant              = "reason"
	logFieldDeletedCountConstant            = "deleted"
	logFieldFailedCountConstant             = "failed"
	logFieldSkippedCountConstant            = "skipped"
)

// RepositoryDeleter is the destination capability required for deletions.
type RepositoryDeleter interface {
	DeleteRepository(executionContext context.Context, repository string) error
}

// ServiceDependencies describes required collaborators for deletion.
type ServiceDependencies struct {
	Logger  *zap.Logger
	Deleter RepositoryDeleter
	Store   *progress.Store
}

// DeletionOptions configures one deletion run.
type DeletionOptions struct {
	DestinationOrganization string
}

// Summary tallies the outcome of a batch deletion run.
type Summary struct {
	Deleted int
	Failed  int
	Skipped int
}

// InvalidInputError describes deletion option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

var (
	errDeleterMissing = errors.New(deleterMissingMessageConstant)
	// ErrStoreNotConfigured indicates batch deletion was requested without a store.
	ErrStoreNotConfigured = errors.New(storeMissingMessageConstant)
)

// Service removes destination repositories created by earlier migrations. It
// reads slugs from the progress store but never mutates it; deletions act on
// the destination hosting provider only.
type Service struct {
	logger  *zap.Logger
	deleter RepositoryDeleter
	store   *progress.Store
}

// NewService constructs a deletion Service. The store is optional; batch
// deletion requires it.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Deleter == nil {
		return nil, errDeleterMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:  logger,
		deleter: dependencies.Deleter,
		store:   dependencies.Store,
	}, nil
}

// DeleteAll deletes the destination repository for every slug listed in the
// progress store. Individual failures are isolated so the batch continues.
func (service *Service) DeleteAll(executionContext context.Context, options DeletionOptions) (Summary, error) {
	if service.store == nil {
		return Summary{}, ErrStoreNotConfigured
	}
	if validationError := validateOptions(options); validationError != nil {
		return Summary{}, validationError
	}

	storedRecords, loadError := service.store.LoadRecords()
	if loadError != nil {
		return Summary{}, loadError
	}

	summary := Summary{}
	for _, storedRecord := range storedRecords {
		if len(strings.TrimSpace(storedRecord.Slug)) == 0 {
			service.logger.Warn(
				recordSkippedMessageConstant,
				zap.String(logFieldSkipReasonConstant, skipReasonEmptySlugConstant),
			)
			summary.Skipped++
			continue
		}

		if deletionError := service.deleteOne(executionContext, options, storedRecord.Slug); deletionError != nil {
			summary.Failed++
			continue
		}
		summary.Deleted++
	}

	service.logger.Info(
		deletionSummaryMessageConstant,
		zap.Int(logFieldDeletedCountConstant, summary.Deleted),
		zap.Int(logFieldFailedCountConstant, summary.Failed),
		zap.Int(logFieldSkippedCountConstant, summary.Skipped),
	)
	return summary, nil
}

// DeleteSingle deletes the destination repository for one slug.
func (service *Service) DeleteSingle(executionContext context.Context, options DeletionOptions, slug string) error {
	if validationError := validateOptions(options); validationError != nil {
		return validationError
	}
	if len(strings.TrimSpace(slug)) == 0 {
		return InvalidInputError{FieldName: slugFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return service.deleteOne(executionContext, options, strings.TrimSpace(slug))
}

func (service *Service) deleteOne(executionContext context.Context, options DeletionOptions, slug string) error {
	repositoryIdentifier := fmt.Sprintf(repositoryIdentifierTemplateConstant, options.DestinationOrganization, slug)

	if deletionError := service.deleter.DeleteRepository(executionContext, repositoryIdentifier); deletionError != nil {
		service.logger.Error(
			repositoryDeletionFailedMessageConstant,
			zap.String(logFieldRepositoryConstant, repositoryIdentifier),
			zap.Error(deletionError),
		)
		return fmt.Errorf(deletionFailureTemplateConstant, repositoryIdentifier, deletionError)
	}

	service.logger.Info(
		repositoryDeletedMessageConstant,
		zap.String(logFieldRepositoryConstant, repositoryIdentifier),
	)
	return nil
}

func validateOptions(options DeletionOptions) error {
	if len(strings.TrimSpace(options.DestinationOrganization)) == 0 {
		return InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}
