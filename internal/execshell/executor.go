package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandFailedTemplateConstant             = "%s command failed with exit code %d%s"
	commandExecutionTemplateConstant          = "%s command could not be executed: %s"
	standardErrorDetailTemplateConstant       = ": %s"
	commandStartedLogMessageConstant          = "Executing external command"
	commandCompletedLogMessageConstant        = "External command completed"
	commandFailedLogMessageConstant           = "External command failed"
	logFieldCommandNameConstant               = "command_name"
	logFieldCommandArgumentsConstant          = "command_arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
)

const (
	gitToolNameConstant        = "git"
	githubToolNameConstant     = "gh"
	filterRepoToolNameConstant = "git-filter-repo"
)

// CommandName identifies a supported external executable.
type CommandName string

// Supported external tools.
const (
	CommandGit        CommandName = CommandName(gitToolNameConstant)
	CommandGitHub     CommandName = CommandName(githubToolNameConstant)
	CommandFilterRepo CommandName = CommandName(filterRepoToolNameConstant)
)

// CommandDetails describes the arguments and environment for one invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines a CommandName with invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of running a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// Sentinel construction errors.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that ran and exited non-zero.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the non-zero exit.
func (failure CommandFailedError) Error() string {
	standardErrorDetail := ""
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		standardErrorDetail = fmt.Sprintf(standardErrorDetailTemplateConstant, trimmedStandardError)
	}
	return fmt.Sprintf(commandFailedTemplateConstant, failure.Command.Name, failure.Result.ExitCode, standardErrorDetail)
}

// CommandExecutionError reports a command that could not be started or run.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionTemplateConstant, failure.Command.Name, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ShellExecutor runs external tools with structured logging and typed failures.
type ShellExecutor struct {
	logger               *zap.Logger
	commandRunner        CommandRunner
	eventObserver        CommandEventObserver
	humanReadableLogging bool
	messageFormatter     commandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor and validates its dependencies.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, humanReadableLogging bool) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	return &ShellExecutor{
		logger:               logger,
		commandRunner:        commandRunner,
		eventObserver:        noopCommandEventObserver{},
		humanReadableLogging: humanReadableLogging,
		messageFormatter:     commandMessageFormatter{},
	}, nil
}

// SetEventObserver replaces the lifecycle observer; nil restores the no-op observer.
func (executor *ShellExecutor) SetEventObserver(observer CommandEventObserver) {
	if observer == nil {
		executor.eventObserver = noopCommandEventObserver{}
		return
	}
	executor.eventObserver = observer
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteGitHubCLI runs the GitHub CLI with the provided details.
func (executor *ShellExecutor) ExecuteGitHubCLI(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGitHub, Details: details})
}

// ExecuteFilterRepo runs git-filter-repo with the provided details.
func (executor *ShellExecutor) ExecuteFilterRepo(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandFilterRepo, Details: details})
}

// Execute runs an arbitrary supported command and converts failures into typed errors.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logCommandStarted(command)
	executor.eventObserver.CommandStarted(command)

	executionResult, executionError := executor.commandRunner.Run(executionContext, command)
	if executionError != nil {
		executor.logExecutionFailure(command, executionError)
		executor.eventObserver.CommandExecutionFailed(command, executionError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: executionError}
	}

	executor.eventObserver.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logCommandFailed(command, executionResult)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logCommandCompleted(command, executionResult)
	return executionResult, nil
}

func (executor *ShellExecutor) logCommandStarted(command ShellCommand) {
	if executor.humanReadableLogging {
		executor.logger.Info(executor.messageFormatter.startedMessage(command))
		return
	}
	executor.logger.Debug(
		commandStartedLogMessageConstant,
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)
}

func (executor *ShellExecutor) logCommandCompleted(command ShellCommand, result ExecutionResult) {
	if executor.humanReadableLogging {
		executor.logger.Info(executor.messageFormatter.successMessage(command))
		return
	}
	executor.logger.Debug(
		commandCompletedLogMessageConstant,
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
	)
}

func (executor *ShellExecutor) logCommandFailed(command ShellCommand, result ExecutionResult) {
	if executor.humanReadableLogging {
		executor.logger.Warn(executor.messageFormatter.failureMessage(command, result))
		return
	}
	executor.logger.Warn(
		commandFailedLogMessageConstant,
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
	)
}

func (executor *ShellExecutor) logExecutionFailure(command ShellCommand, failure error) {
	if executor.humanReadableLogging {
		executor.logger.Error(executor.messageFormatter.executionFailureMessage(command, failure))
		return
	}
	executor.logger.Error(
		commandFailedLogMessageConstant,
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
		zap.Error(failure),
	)
}
