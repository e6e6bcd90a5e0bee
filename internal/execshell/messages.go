package execshell

import (
	"fmt"
	"strings"
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	flagArgumentPrefixConstant              = "-"
)

const (
	gitCloneSubcommandNameConstant     = "clone"
	gitPushSubcommandNameConstant      = "push"
	gitLSRemoteSubcommandNameConstant  = "ls-remote"
	githubRepoSubcommandNameConstant   = "repo"
	githubRepoCreateSubcommandConstant = "create"
	githubRepoDeleteSubcommandConstant = "delete"
	gitCloneStartTemplateConstant      = "Cloning %s"
	gitCloneSuccessTemplateConstant    = "Cloned %s"
	gitPushStartTemplateConstant       = "Pushing %s"
	gitPushSuccessTemplateConstant     = "Pushed %s"
	gitLSRemoteStartTemplateConstant   = "Querying remote references on %s"
	gitLSRemoteSuccessTemplateConstant = "Queried remote references on %s"
	repoCreateStartTemplateConstant    = "Creating repository %s"
	repoCreateSuccessTemplateConstant  = "Created repository %s"
	repoDeleteStartTemplateConstant    = "Deleting repository %s"
	repoDeleteSuccessTemplateConstant  = "Deleted repository %s"
	filterRepoStartTemplateConstant    = "Rewriting history%s"
	filterRepoSuccessTemplateConstant  = "Rewrote history%s"
)

// commandMessageFormatter renders human-readable lifecycle messages for known tools.
type commandMessageFormatter struct{}

func (formatter commandMessageFormatter) startedMessage(command ShellCommand) string {
	if specializedMessage, recognized := formatter.specializedMessage(command, true); recognized {
		return specializedMessage
	}
	return fmt.Sprintf(genericStartTemplateConstant, formatter.commandLabel(command))
}

func (formatter commandMessageFormatter) successMessage(command ShellCommand) string {
	if specializedMessage, recognized := formatter.specializedMessage(command, false); recognized {
		return specializedMessage
	}
	return fmt.Sprintf(genericSuccessTemplateConstant, formatter.commandLabel(command))
}

func (formatter commandMessageFormatter) failureMessage(command ShellCommand, result ExecutionResult) string {
	return fmt.Sprintf(genericFailureTemplateConstant, formatter.commandLabel(command), result.ExitCode, formatter.standardErrorSuffix(result.StandardError))
}

func (formatter commandMessageFormatter) executionFailureMessage(command ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(genericExecutionFailureTemplateConstant, formatter.commandLabel(command), failureMessage)
}

func (formatter commandMessageFormatter) specializedMessage(command ShellCommand, started bool) (string, bool) {
	switch command.Name {
	case CommandGit:
		if len(command.Details.Arguments) == 0 {
			return emptyStringConstant, false
		}
		switch command.Details.Arguments[0] {
		case gitCloneSubcommandNameConstant:
			return formatter.stageMessage(started, gitCloneStartTemplateConstant, gitCloneSuccessTemplateConstant, formatter.subjectArgument(command)), true
		case gitPushSubcommandNameConstant:
			return formatter.stageMessage(started, gitPushStartTemplateConstant, gitPushSuccessTemplateConstant, formatter.subjectArgument(command)), true
		case gitLSRemoteSubcommandNameConstant:
			return formatter.stageMessage(started, gitLSRemoteStartTemplateConstant, gitLSRemoteSuccessTemplateConstant, formatter.subjectArgument(command)), true
		}
	case CommandGitHub:
		if len(command.Details.Arguments) < 2 || command.Details.Arguments[0] != githubRepoSubcommandNameConstant {
			return emptyStringConstant, false
		}
		switch command.Details.Arguments[1] {
		case githubRepoCreateSubcommandConstant:
			return formatter.stageMessage(started, repoCreateStartTemplateConstant, repoCreateSuccessTemplateConstant, formatter.subjectArgument(command)), true
		case githubRepoDeleteSubcommandConstant:
			return formatter.stageMessage(started, repoDeleteStartTemplateConstant, repoDeleteSuccessTemplateConstant, formatter.subjectArgument(command)), true
		}
	case CommandFilterRepo:
		return formatter.stageMessage(started, filterRepoStartTemplateConstant, filterRepoSuccessTemplateConstant, formatter.workingDirectorySuffix(command)), true
	}

	return emptyStringConstant, false
}

func (formatter commandMessageFormatter) stageMessage(started bool, startTemplate string, successTemplate string, subject string) string {
	if started {
		return fmt.Sprintf(startTemplate, subject)
	}
	return fmt.Sprintf(successTemplate, subject)
}

// subjectArgument picks the last non-flag argument after the subcommand word,
// which for clone, push, and repo operations names the repository involved.
func (formatter commandMessageFormatter) subjectArgument(command ShellCommand) string {
	subject := emptyStringConstant
	for argumentIndex := 1; argumentIndex < len(command.Details.Arguments); argumentIndex++ {
		argumentValue := command.Details.Arguments[argumentIndex]
		if strings.HasPrefix(argumentValue, flagArgumentPrefixConstant) {
			continue
		}
		subject = argumentValue
	}
	if len(subject) == 0 {
		return formatter.commandLabel(command)
	}
	return subject
}

func (formatter commandMessageFormatter) commandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, strings.Join(commandParts, commandArgumentsJoinSeparatorConstant), formatter.workingDirectorySuffix(command))
}

func (formatter commandMessageFormatter) workingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter commandMessageFormatter) standardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}
