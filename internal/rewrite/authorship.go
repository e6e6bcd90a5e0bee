package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/plotset-corp/migration-gl-to-gh/internal/execshell"
)

const (
	forceFlagConstant                    = "--force"
	nameCallbackFlagConstant             = "--name-callback"
	emailCallbackFlagConstant            = "--email-callback"
	callbackReturnTemplateConstant       = "return b%q"
	executorNotConfiguredMessageConstant = "filter-repo executor not configured"
	repositoryPathFieldNameConstant      = "repository_path"
	requiredValueMessageConstant         = "value required"
	invalidInputErrorTemplateConstant    = "%s: %s"
	rewriteStartedMessageConstant        = "Rewriting commit authorship"
	rewriteCompletedMessageConstant      = "Commit authorship rewritten"
	logFieldRepositoryPathConstant       = "repository_path"
	logFieldAuthorNameConstant           = "author_name"
)

// FilterRepoExecutor is the minimal interface required from execshell.ShellExecutor.
type FilterRepoExecutor interface {
	ExecuteFilterRepo(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// AuthorIdentity describes the replacement identity applied across history.
type AuthorIdentity struct {
	Name  string
	Email string
}

// IsConfigured reports whether the identity carries both a name and an email.
func (identity AuthorIdentity) IsConfigured() bool {
	return len(strings.TrimSpace(identity.Name)) > 0 && len(strings.TrimSpace(identity.Email)) > 0
}

// ErrExecutorNotConfigured indicates the rewriter was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// InvalidInputError surfaces validation issues for rewrite inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// AuthorshipRewriter scrubs commit authorship across a repository's history
// by driving git-filter-repo with name and email callbacks.
type AuthorshipRewriter struct {
	logger   *zap.Logger
	executor FilterRepoExecutor
}

// NewAuthorshipRewriter constructs an AuthorshipRewriter with the provided executor.
func NewAuthorshipRewriter(logger *zap.Logger, executor FilterRepoExecutor) (*AuthorshipRewriter, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorshipRewriter{logger: logger, executor: executor}, nil
}

// RewriteAuthorship replaces every author and committer identity in the
// repository's history with the supplied identity.
func (rewriter *AuthorshipRewriter) RewriteAuthorship(executionContext context.Context, repositoryPath string, identity AuthorIdentity) error {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return InvalidInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	rewriter.logger.Info(
		rewriteStartedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, trimmedRepositoryPath),
		zap.String(logFieldAuthorNameConstant, identity.Name),
	)

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			forceFlagConstant,
			nameCallbackFlagConstant,
			fmt.Sprintf(callbackReturnTemplateConstant, identity.Name),
			emailCallbackFlagConstant,
			fmt.Sprintf(callbackReturnTemplateConstant, identity.Email),
		},
		WorkingDirectory: trimmedRepositoryPath,
	}

	if _, executionError := rewriter.executor.ExecuteFilterRepo(executionContext, commandDetails); executionError != nil {
		return executionError
	}

	rewriter.logger.Info(
		rewriteCompletedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, trimmedRepositoryPath),
	)
	return nil
}
