package migration

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/plotset-corp/migration-gl-to-gh/internal/githubcli"
	"github.com/plotset-corp/migration-gl-to-gh/internal/gitrepo"
	"github.com/plotset-corp/migration-gl-to-gh/internal/progress"
	"github.com/plotset-corp/migration-gl-to-gh/internal/rewrite"
)

const (
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	hostingClientMissingMessageConstant     = "hosting provider client not configured"
	progressStoreMissingMessageConstant     = "progress store not configured"
	sourceURLFieldNameConstant              = "source_url"
	slugFieldNameConstant                   = "slug"
	sourceHostFieldNameConstant             = "source_host"
	organizationFieldNameConstant           = "destination_organization"
	cloneDirectoryFieldNameConstant         = "clone_directory"
	requiredValueMessageConstant            = "value required"
	invalidInputErrorTemplateConstant       = "%s: %s"
	mirrorDirectorySuffixConstant           = ".git"
	unknownStepTemplateConstant             = "unknown migration step: %s"
	cloneFailureTemplateConstant            = "clone failed: %w"
	createFailureTemplateConstant           = "destination creation failed: %w"
	rewriteFailureTemplateConstant          = "authorship rewrite failed: %w"
	primaryBranchFailureTemplateConstant    = "primary branch detection failed: %w"
	branchEnumerationFailureTemplate        = "branch enumeration failed: %w"
	tagEnumerationFailureTemplateConstant   = "tag enumeration failed: %w"
	verificationFailureTemplateConstant     = "destination verification failed: %w"
	repositoryIdentifierTemplateConstant    = "%s/%s"
	pushFailureTemplateConstant             = "push failed: %w"
	recordCompletionFailureTemplate         = "unable to record step completion: %w"
	stepCompletedMessageConstant            = "Migration step completed"
	stepFailedMessageConstant               = "Migration step failed"
	destinationExistsMessageConstant        = "Destination repository already exists; continuing"
	pushInventoryMessageConstant            = "Pushing mirrored references"
	destinationVerifiedMessageConstant      = "Destination repository verified"
	logFieldSlugConstant                    = "slug"
	logFieldStepConstant                    = "step"
	logFieldSourceURLConstant               = "source_url"
	logFieldBranchCountConstant             = "branch_count"
	logFieldTagCountConstant                = "tag_count"
	logFieldRepositoryConstant              = "repository"
	logFieldDefaultBranchConstant           = "default_branch"
)

// RepositoryMirror is the git capability the step executor depends on.
type RepositoryMirror interface {
	CloneMirror(executionContext context.Context, remoteURL string, destinationPath string) error
	PrimaryBranch(executionContext context.Context, repositoryPath string) (string, error)
	ListBranches(executionContext context.Context, repositoryPath string) ([]string, error)
	ListTags(executionContext context.Context, repositoryPath string) ([]string, error)
	PushBranch(executionContext context.Context, repositoryPath string, destinationURL string, branchName string) error
	PushAllBranches(executionContext context.Context, repositoryPath string, destinationURL string) error
	PushAllTags(executionContext context.Context, repositoryPath string, destinationURL string) error
}

// HostingProvider is the destination repository capability: creation plus the
// metadata lookup used to verify a completed push.
type HostingProvider interface {
	CreateRepository(executionContext context.Context, organization string, name string, visibility githubcli.RepositoryVisibility) error
	ViewRepository(executionContext context.Context, repository string) (githubcli.RepositoryMetadata, error)
}

// HistoryRewriter is the optional authorship-scrubbing capability.
type HistoryRewriter interface {
	RewriteAuthorship(executionContext context.Context, repositoryPath string, identity rewrite.AuthorIdentity) error
}

// ServiceDependencies describes required collaborators for migration.
type ServiceDependencies struct {
	Logger            *zap.Logger
	RepositoryManager RepositoryMirror
	HostingClient     HostingProvider
	HistoryRewriter   HistoryRewriter
	Store             *progress.Store
}

// MigrationOptions configures one migration run.
type MigrationOptions struct {
	SourceHost              string
	SourceToken             string
	DestinationHost         string
	DestinationOrganization string
	CloneDirectory          string
	RepositoryVisibility    githubcli.RepositoryVisibility
	AuthorIdentity          rewrite.AuthorIdentity
}

// InvalidInputError describes migration option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

var (
	errRepositoryManagerMissing = errors.New(repositoryManagerMissingMessageConstant)
	errHostingClientMissing     = errors.New(hostingClientMissingMessageConstant)
	// ErrStoreNotConfigured indicates batch operations were requested without a store.
	ErrStoreNotConfigured = errors.New(progressStoreMissingMessageConstant)
)

// Service executes migration steps for repositories, one step at a time,
// recording each completion durably before the next step is considered.
type Service struct {
	logger            *zap.Logger
	repositoryManager RepositoryMirror
	hostingClient     HostingProvider
	historyRewriter   HistoryRewriter
	store             *progress.Store
}

// NewService constructs a Service with the provided dependencies. The history
// rewriter and the store are optional; batch operations require the store.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.RepositoryManager == nil {
		return nil, errRepositoryManagerMissing
	}
	if dependencies.HostingClient == nil {
		return nil, errHostingClientMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:            logger,
		repositoryManager: dependencies.RepositoryManager,
		hostingClient:     dependencies.HostingClient,
		historyRewriter:   dependencies.HistoryRewriter,
		store:             dependencies.Store,
	}, nil
}

// ExecutePendingSteps advances the repository by at most one step. It consults
// the recorder immediately before acting so externally updated state is
// honored, and returns Completed when nothing remains, Advanced after one
// successful step, or Failed with the step and cause.
func (service *Service) ExecutePendingSteps(executionContext context.Context, options MigrationOptions, record progress.Record, recorder StepRecorder) Outcome {
	pendingStep, stepPending, stepLookupError := recorder.NextPendingStep(record.Slug)
	if stepLookupError != nil {
		return FailedOutcome(pendingStep, stepLookupError)
	}
	if !stepPending {
		return CompletedOutcome()
	}

	if stepError := service.executeStep(executionContext, options, record, pendingStep); stepError != nil {
		service.logger.Error(
			stepFailedMessageConstant,
			zap.String(logFieldSlugConstant, record.Slug),
			zap.String(logFieldStepConstant, string(pendingStep)),
			zap.Error(stepError),
		)
		return FailedOutcome(pendingStep, stepError)
	}

	if recordError := recorder.MarkStepComplete(record.Slug, pendingStep); recordError != nil {
		return FailedOutcome(pendingStep, fmt.Errorf(recordCompletionFailureTemplate, recordError))
	}

	service.logger.Info(
		stepCompletedMessageConstant,
		zap.String(logFieldSlugConstant, record.Slug),
		zap.String(logFieldStepConstant, string(pendingStep)),
	)
	return AdvancedOutcome(pendingStep)
}

func (service *Service) executeStep(executionContext context.Context, options MigrationOptions, record progress.Record, step progress.Step) error {
	switch step {
	case progress.StepCloned:
		return service.executeCloneStep(executionContext, options, record)
	case progress.StepPushed:
		return service.executePushStep(executionContext, options, record)
	default:
		return fmt.Errorf(unknownStepTemplateConstant, step)
	}
}

func (service *Service) executeCloneStep(executionContext context.Context, options MigrationOptions, record progress.Record) error {
	authenticatedURL, buildError := gitrepo.BuildAuthenticatedCloneURL(record.SourceURL, options.SourceToken)
	if buildError != nil {
		return fmt.Errorf(cloneFailureTemplateConstant, buildError)
	}

	if cloneError := service.repositoryManager.CloneMirror(executionContext, authenticatedURL, service.mirrorPath(options, record.Slug)); cloneError != nil {
		return fmt.Errorf(cloneFailureTemplateConstant, cloneError)
	}
	return nil
}

// executePushStep performs the full destination publication sequence. Any
// sub-operation failure fails the whole step; the step is recorded complete
// only after creation, optional rewrite, every push, and the destination
// verification succeed.
func (service *Service) executePushStep(executionContext context.Context, options MigrationOptions, record progress.Record) error {
	createError := service.hostingClient.CreateRepository(executionContext, options.DestinationOrganization, record.Slug, options.RepositoryVisibility)
	if createError != nil {
		if !errors.Is(createError, githubcli.ErrRepositoryAlreadyExists) {
			return fmt.Errorf(createFailureTemplateConstant, createError)
		}
		service.logger.Info(
			destinationExistsMessageConstant,
			zap.String(logFieldSlugConstant, record.Slug),
		)
	}

	mirrorPath := service.mirrorPath(options, record.Slug)

	if service.historyRewriter != nil && options.AuthorIdentity.IsConfigured() {
		if rewriteError := service.historyRewriter.RewriteAuthorship(executionContext, mirrorPath, options.AuthorIdentity); rewriteError != nil {
			return fmt.Errorf(rewriteFailureTemplateConstant, rewriteError)
		}
	}

	branchNames, branchEnumerationError := service.repositoryManager.ListBranches(executionContext, mirrorPath)
	if branchEnumerationError != nil {
		return fmt.Errorf(branchEnumerationFailureTemplate, branchEnumerationError)
	}
	tagNames, tagEnumerationError := service.repositoryManager.ListTags(executionContext, mirrorPath)
	if tagEnumerationError != nil {
		return fmt.Errorf(tagEnumerationFailureTemplateConstant, tagEnumerationError)
	}
	service.logger.Info(
		pushInventoryMessageConstant,
		zap.String(logFieldSlugConstant, record.Slug),
		zap.Int(logFieldBranchCountConstant, len(branchNames)),
		zap.Int(logFieldTagCountConstant, len(tagNames)),
	)

	primaryBranch, primaryBranchError := service.repositoryManager.PrimaryBranch(executionContext, mirrorPath)
	if primaryBranchError != nil {
		return fmt.Errorf(primaryBranchFailureTemplateConstant, primaryBranchError)
	}

	destinationURL, destinationURLError := gitrepo.BuildDestinationPushURL(options.DestinationHost, options.DestinationOrganization, record.Slug)
	if destinationURLError != nil {
		return fmt.Errorf(pushFailureTemplateConstant, destinationURLError)
	}

	if pushError := service.repositoryManager.PushBranch(executionContext, mirrorPath, destinationURL, primaryBranch); pushError != nil {
		return fmt.Errorf(pushFailureTemplateConstant, pushError)
	}
	if pushError := service.repositoryManager.PushAllBranches(executionContext, mirrorPath, destinationURL); pushError != nil {
		return fmt.Errorf(pushFailureTemplateConstant, pushError)
	}
	if pushError := service.repositoryManager.PushAllTags(executionContext, mirrorPath, destinationURL); pushError != nil {
		return fmt.Errorf(pushFailureTemplateConstant, pushError)
	}

	repositoryIdentifier := fmt.Sprintf(repositoryIdentifierTemplateConstant, options.DestinationOrganization, record.Slug)
	repositoryMetadata, verificationError := service.hostingClient.ViewRepository(executionContext, repositoryIdentifier)
	if verificationError != nil {
		return fmt.Errorf(verificationFailureTemplateConstant, verificationError)
	}
	service.logger.Info(
		destinationVerifiedMessageConstant,
		zap.String(logFieldRepositoryConstant, repositoryMetadata.NameWithOwner),
		zap.String(logFieldDefaultBranchConstant, repositoryMetadata.DefaultBranch),
	)
	return nil
}

func (service *Service) mirrorPath(options MigrationOptions, slug string) string {
	return filepath.Join(options.CloneDirectory, slug+mirrorDirectorySuffixConstant)
}

func validateCommonOptions(options MigrationOptions) error {
	if len(strings.TrimSpace(options.DestinationOrganization)) == 0 {
		return InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.CloneDirectory)) == 0 {
		return InvalidInputError{FieldName: cloneDirectoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}
