package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/plotset-corp/migration-gl-to-gh/internal/execshell"
)

const (
	cloneSubcommandConstant              = "clone"
	mirrorFlagConstant                   = "--mirror"
	symbolicRefSubcommandConstant        = "symbolic-ref"
	shortFlagConstant                    = "--short"
	headReferenceConstant                = "HEAD"
	pushSubcommandConstant               = "push"
	allBranchesFlagConstant              = "--all"
	tagsFlagConstant                     = "--tags"
	forEachRefSubcommandConstant         = "for-each-ref"
	forEachRefFormatFlagConstant         = "--format=%(refname:short)"
	branchRefPatternConstant             = "refs/heads"
	tagRefPatternConstant                = "refs/tags"
	executorNotConfiguredMessageConstant = "git executor not configured"
	primaryBranchEmptyMessageConstant    = "unable to determine primary branch"
	repositoryPathFieldNameConstant      = "repository_path"
	remoteURLFieldNameConstant           = "remote_url"
	destinationPathFieldNameConstant     = "destination_path"
	branchNameFieldNameConstant          = "branch_name"
	invalidManagerInputTemplateConstant  = "%s: %s"
)

// InvalidInputError surfaces validation issues for manager operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidManagerInputTemplateConstant, inputError.FieldName, inputError.Message)
}

// GitExecutor is the minimal interface required from execshell.ShellExecutor.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ErrExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrPrimaryBranchUndetected indicates HEAD did not resolve to a branch name.
var ErrPrimaryBranchUndetected = errors.New(primaryBranchEmptyMessageConstant)

// RepositoryManager performs git operations for repository migration through execshell.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager with the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CloneMirror clones the remote as a bare mirror, fetching all branches and tags.
func (manager *RepositoryManager) CloneMirror(executionContext context.Context, remoteURL string, destinationPath string) error {
	if validationError := requireValue(remoteURLFieldNameConstant, remoteURL); validationError != nil {
		return validationError
	}
	if validationError := requireValue(destinationPathFieldNameConstant, destinationPath); validationError != nil {
		return validationError
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{cloneSubcommandConstant, mirrorFlagConstant, remoteURL, destinationPath},
	})
	return executionError
}

// PrimaryBranch resolves the branch HEAD points at inside a bare mirror clone,
// which mirrors the source repository's default branch.
func (manager *RepositoryManager) PrimaryBranch(executionContext context.Context, repositoryPath string) (string, error) {
	if validationError := requireValue(repositoryPathFieldNameConstant, repositoryPath); validationError != nil {
		return "", validationError
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{symbolicRefSubcommandConstant, shortFlagConstant, headReferenceConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}

	primaryBranch := strings.TrimSpace(executionResult.StandardOutput)
	if len(primaryBranch) == 0 {
		return "", ErrPrimaryBranchUndetected
	}
	return primaryBranch, nil
}

// ListBranches enumerates local branch names in the repository.
func (manager *RepositoryManager) ListBranches(executionContext context.Context, repositoryPath string) ([]string, error) {
	return manager.listReferences(executionContext, repositoryPath, branchRefPatternConstant)
}

// ListTags enumerates tag names in the repository.
func (manager *RepositoryManager) ListTags(executionContext context.Context, repositoryPath string) ([]string, error) {
	return manager.listReferences(executionContext, repositoryPath, tagRefPatternConstant)
}

// PushBranch pushes a single branch to the destination URL.
func (manager *RepositoryManager) PushBranch(executionContext context.Context, repositoryPath string, destinationURL string, branchName string) error {
	if validationError := requireValue(branchNameFieldNameConstant, branchName); validationError != nil {
		return validationError
	}
	return manager.push(executionContext, repositoryPath, destinationURL, branchName)
}

// PushAllBranches pushes every branch to the destination URL.
func (manager *RepositoryManager) PushAllBranches(executionContext context.Context, repositoryPath string, destinationURL string) error {
	return manager.push(executionContext, repositoryPath, destinationURL, allBranchesFlagConstant)
}

// PushAllTags pushes every tag to the destination URL.
func (manager *RepositoryManager) PushAllTags(executionContext context.Context, repositoryPath string, destinationURL string) error {
	return manager.push(executionContext, repositoryPath, destinationURL, tagsFlagConstant)
}

func (manager *RepositoryManager) push(executionContext context.Context, repositoryPath string, destinationURL string, refArgument string) error {
	if validationError := requireValue(repositoryPathFieldNameConstant, repositoryPath); validationError != nil {
		return validationError
	}
	if validationError := requireValue(remoteURLFieldNameConstant, destinationURL); validationError != nil {
		return validationError
	}

	pushArguments := []string{pushSubcommandConstant, destinationURL}
	if strings.HasPrefix(refArgument, "-") {
		pushArguments = []string{pushSubcommandConstant, refArgument, destinationURL}
	} else {
		pushArguments = append(pushArguments, refArgument)
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        pushArguments,
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

func (manager *RepositoryManager) listReferences(executionContext context.Context, repositoryPath string, refPattern string) ([]string, error) {
	if validationError := requireValue(repositoryPathFieldNameConstant, repositoryPath); validationError != nil {
		return nil, validationError
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{forEachRefSubcommandConstant, forEachRefFormatFlagConstant, refPattern},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, executionError
	}

	referenceNames := []string{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) > 0 {
			referenceNames = append(referenceNames, trimmedLine)
		}
	}
	return referenceNames, nil
}

func requireValue(fieldName string, fieldValue string) error {
	if len(strings.TrimSpace(fieldValue)) == 0 {
		return InvalidInputError{FieldName: fieldName, Message: requiredValueMessageConstant}
	}
	return nil
}
