package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/plotset-corp/migration-gl-to-gh/internal/execshell"
)

const (
	repoSubcommandConstant                   = "repo"
	viewSubcommandConstant                   = "view"
	createSubcommandConstant                 = "create"
	deleteSubcommandConstant                 = "delete"
	confirmDeletionFlagConstant              = "--yes"
	privateVisibilityFlagConstant            = "--private"
	publicVisibilityFlagConstant             = "--public"
	internalVisibilityFlagConstant           = "--internal"
	jsonFlagConstant                         = "--json"
	repoViewJSONFieldsConstant               = "name,nameWithOwner,defaultBranchRef"
	ownerRepositoryTemplateConstant          = "%s/%s"
	organizationFieldNameConstant            = "organization"
	repositoryFieldNameConstant              = "repository"
	repositoryNameFieldNameConstant          = "repository_name"
	requiredValueMessageConstant             = "value required"
	executorNotConfiguredMessageConstant     = "github cli executor not configured"
	repositoryAlreadyExistsMessageConstant   = "destination repository already exists"
	alreadyExistsStandardErrorMarkerConstant = "already exists"
	nameAlreadyExistsMarkerConstant          = "name already exists"
	operationErrorMessageTemplateConstant    = "%s operation failed"
	operationErrorWithCauseTemplateConstant  = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant    = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant        = "%s: %s"
	createRepositoryOperationNameConstant    = OperationName("CreateRepository")
	viewRepositoryOperationNameConstant      = OperationName("ViewRepository")
	deleteRepositoryOperationNameConstant    = OperationName("DeleteRepository")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// RepositoryVisibility enumerates supported destination repository visibilities.
type RepositoryVisibility string

// Repository visibility enumerations.
const (
	RepositoryVisibilityPrivate  RepositoryVisibility = RepositoryVisibility("private")
	RepositoryVisibilityPublic   RepositoryVisibility = RepositoryVisibility("public")
	RepositoryVisibilityInternal RepositoryVisibility = RepositoryVisibility("internal")
)

var visibilityFlagMapping = map[RepositoryVisibility]string{
	RepositoryVisibilityPrivate:  privateVisibilityFlagConstant,
	RepositoryVisibilityPublic:   publicVisibilityFlagConstant,
	RepositoryVisibilityInternal: internalVisibilityFlagConstant,
}

// RepositoryMetadata contains key details resolved from GitHub.
type RepositoryMetadata struct {
	Name          string
	NameWithOwner string
	DefaultBranch string
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrRepositoryAlreadyExists indicates repository creation collided with an existing destination.
	ErrRepositoryAlreadyExists = errors.New(repositoryAlreadyExistsMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// CreateRepository creates a repository inside the organization using gh repo create.
// A destination that already exists surfaces as ErrRepositoryAlreadyExists so
// retried migrations can treat the collision as progress rather than failure.
func (client *Client) CreateRepository(executionContext context.Context, organization string, name string, visibility RepositoryVisibility) error {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 {
		return InvalidInputError{FieldName: repositoryNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	visibilityFlag, visibilityKnown := visibilityFlagMapping[visibility]
	if !visibilityKnown {
		visibilityFlag = privateVisibilityFlagConstant
	}

	repositoryIdentifier := fmt.Sprintf(ownerRepositoryTemplateConstant, trimmedOrganization, trimmedName)
	commandDetails := execshell.CommandDetails{
		Arguments: []string{repoSubcommandConstant, createSubcommandConstant, repositoryIdentifier, visibilityFlag},
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		if isAlreadyExistsFailure(executionError) {
			return ErrRepositoryAlreadyExists
		}
		return OperationError{Operation: createRepositoryOperationNameConstant, Cause: executionError}
	}
	return nil
}

// ViewRepository retrieves metadata for a repository using gh repo view.
func (client *Client) ViewRepository(executionContext context.Context, repository string) (RepositoryMetadata, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return RepositoryMetadata{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{repoSubcommandConstant, viewSubcommandConstant, repositoryIdentifier, jsonFlagConstant, repoViewJSONFieldsConstant},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return RepositoryMetadata{}, OperationError{Operation: viewRepositoryOperationNameConstant, Cause: executionError}
	}

	var response struct {
		Name             string `json:"name"`
		NameWithOwner    string `json:"nameWithOwner"`
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return RepositoryMetadata{}, ResponseDecodingError{Operation: viewRepositoryOperationNameConstant, Cause: decodingError}
	}

	return RepositoryMetadata{
		Name:          response.Name,
		NameWithOwner: response.NameWithOwner,
		DefaultBranch: response.DefaultBranchRef.Name,
	}, nil
}

// DeleteRepository removes a destination repository using gh repo delete.
func (client *Client) DeleteRepository(executionContext context.Context, repository string) error {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{repoSubcommandConstant, deleteSubcommandConstant, repositoryIdentifier, confirmDeletionFlagConstant},
	}

	if _, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails); executionError != nil {
		return OperationError{Operation: deleteRepositoryOperationNameConstant, Cause: executionError}
	}
	return nil
}

// isAlreadyExistsFailure inspects gh stderr for the name-collision message.
func isAlreadyExistsFailure(executionError error) bool {
	var commandFailure execshell.CommandFailedError
	if !errors.As(executionError, &commandFailure) {
		return false
	}
	standardError := strings.ToLower(commandFailure.Result.StandardError)
	return strings.Contains(standardError, nameAlreadyExistsMarkerConstant) ||
		strings.Contains(standardError, alreadyExistsStandardErrorMarkerConstant)
}
