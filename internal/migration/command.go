package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/plotset-corp/migration-gl-to-gh/internal/execshell"
	"github.com/plotset-corp/migration-gl-to-gh/internal/githubcli"
	"github.com/plotset-corp/migration-gl-to-gh/internal/gitrepo"
	"github.com/plotset-corp/migration-gl-to-gh/internal/progress"
	"github.com/plotset-corp/migration-gl-to-gh/internal/rewrite"
	"github.com/plotset-corp/migration-gl-to-gh/internal/ui"
	"github.com/plotset-corp/migration-gl-to-gh/internal/utils"
)

const (
	batchCommandUseConstant                     = "migrate"
	batchCommandShortDescriptionConstant        = "Migrate every repository listed in the progress store"
	batchCommandLongDescriptionConstant         = "migrate reads the CSV progress store, drives each pending repository through clone and push, and records every completed step durably so interrupted runs resume where they stopped."
	singleCommandUseConstant                    = "migrate-single <source-url> <slug>"
	singleCommandAliasConstant                  = "direct"
	singleCommandShortDescriptionConstant       = "Migrate one repository supplied on the command line"
	singleCommandLongDescriptionConstant        = "migrate-single mirrors a single repository from the supplied source URL into the destination organization without consulting or mutating the progress store."
	singleCommandArgumentCountConstant          = 2
	sourceURLArgumentIndexConstant              = 0
	slugArgumentIndexConstant                   = 1
	reportFlagNameConstant                      = "report"
	reportFlagUsageConstant                     = "Write a YAML summary of the batch outcome to the given path"
	repositoryManagerCreationErrorTemplate      = "unable to construct repository manager: %w"
	hostingClientCreationErrorTemplate          = "unable to construct hosting client: %w"
	historyRewriterCreationErrorTemplate        = "unable to construct history rewriter: %w"
	progressStoreCreationErrorTemplate          = "unable to open progress store: %w"
	batchCommandExecutionErrorTemplateConstant  = "migration batch failed: %w"
	batchFailureCountErrorTemplateConstant      = "migration batch finished with %d failed repository(ies)"
	singleCommandExecutionErrorTemplateConstant = "migration failed: %w"
	singleStepFailureTemplateConstant           = "migration failed at step %s: %w"
	storePathFieldNameConstant                  = "store_path"
	configurationFileInUseMessageConstant       = "Using configuration file"
	logFieldConfigurationFileConstant           = "configuration_file"
)

var commandContextAccessor = utils.NewCommandContextAccessor()

// MigrationExecutor drives migrations on behalf of the Cobra commands.
type MigrationExecutor interface {
	RunBatch(executionContext context.Context, options MigrationOptions) (Summary, error)
	RunSingle(executionContext context.Context, options MigrationOptions, sourceURL string, slug string) (Outcome, error)
}

// CommandExecutor is the shell capability used to build default collaborators.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteFilterRepo(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ServiceProvider constructs a migration executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (MigrationExecutor, error)

// CommandBuilder assembles the migrate and migrate-single Cobra commands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     CommandExecutor
	ServiceProvider              ServiceProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the batch migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           batchCommandUseConstant,
		Short:         batchCommandShortDescriptionConstant,
		Long:          batchCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runBatch,
	}

	command.Flags().String(reportFlagNameConstant, "", reportFlagUsageConstant)

	return command, nil
}

// BuildSingle constructs the migrate-single command.
func (builder *CommandBuilder) BuildSingle() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           singleCommandUseConstant,
		Aliases:       []string{singleCommandAliasConstant},
		Short:         singleCommandShortDescriptionConstant,
		Long:          singleCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(singleCommandArgumentCountConstant),
		RunE:          builder.runSingle,
	}

	return command, nil
}

func (builder *CommandBuilder) runBatch(command *cobra.Command, _ []string) error {
	configuration := builder.resolveConfiguration()
	logger := builder.resolveLogger(configuration.EnableDebugLogging)
	logActiveConfigurationFile(command, logger)

	progressStore, storeError := builder.resolveStore(configuration)
	if storeError != nil {
		return storeError
	}

	service, serviceError := builder.assembleService(logger, progressStore)
	if serviceError != nil {
		return serviceError
	}

	summary, batchError := service.RunBatch(command.Context(), buildMigrationOptions(configuration))
	if batchError != nil {
		return fmt.Errorf(batchCommandExecutionErrorTemplateConstant, batchError)
	}

	if reportError := builder.writeReportWhenRequested(command, summary); reportError != nil {
		return reportError
	}

	if summary.Failed > 0 {
		return fmt.Errorf(batchFailureCountErrorTemplateConstant, summary.Failed)
	}
	return nil
}

func (builder *CommandBuilder) runSingle(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	logger := builder.resolveLogger(configuration.EnableDebugLogging)
	logActiveConfigurationFile(command, logger)

	service, serviceError := builder.assembleService(logger, nil)
	if serviceError != nil {
		return serviceError
	}

	outcome, runError := service.RunSingle(
		command.Context(),
		buildMigrationOptions(configuration),
		arguments[sourceURLArgumentIndexConstant],
		arguments[slugArgumentIndexConstant],
	)
	if runError != nil {
		return fmt.Errorf(singleCommandExecutionErrorTemplateConstant, runError)
	}
	if outcome.Kind == OutcomeFailed {
		return fmt.Errorf(singleStepFailureTemplateConstant, outcome.Step, outcome.Cause)
	}
	return nil
}

func logActiveConfigurationFile(command *cobra.Command, logger *zap.Logger) {
	configurationFilePath, configurationFileAvailable := commandContextAccessor.ConfigurationFilePath(command.Context())
	if !configurationFileAvailable || len(strings.TrimSpace(configurationFilePath)) == 0 {
		return
	}
	logger.Debug(
		configurationFileInUseMessageConstant,
		zap.String(logFieldConfigurationFileConstant, configurationFilePath),
	)
}

func (builder *CommandBuilder) writeReportWhenRequested(command *cobra.Command, summary Summary) error {
	reportPath, _ := command.Flags().GetString(reportFlagNameConstant)
	if len(strings.TrimSpace(reportPath)) == 0 {
		return nil
	}
	return WriteSummaryReport(reportPath, summary)
}

func (builder *CommandBuilder) assembleService(logger *zap.Logger, progressStore *progress.Store) (MigrationExecutor, error) {
	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return nil, executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return nil, fmt.Errorf(repositoryManagerCreationErrorTemplate, managerError)
	}

	hostingClient, clientError := githubcli.NewClient(executor)
	if clientError != nil {
		return nil, fmt.Errorf(hostingClientCreationErrorTemplate, clientError)
	}

	historyRewriter, rewriterError := rewrite.NewAuthorshipRewriter(logger, executor)
	if rewriterError != nil {
		return nil, fmt.Errorf(historyRewriterCreationErrorTemplate, rewriterError)
	}

	return builder.resolveService(ServiceDependencies{
		Logger:            logger,
		RepositoryManager: repositoryManager,
		HostingClient:     hostingClient,
		HistoryRewriter:   historyRewriter,
		Store:             progressStore,
	})
}

func (builder *CommandBuilder) resolveStore(configuration CommandConfiguration) (*progress.Store, error) {
	if len(strings.TrimSpace(configuration.StorePath)) == 0 {
		return nil, InvalidInputError{FieldName: storePathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	progressStore, storeError := progress.NewStore(configuration.StorePath)
	if storeError != nil {
		return nil, fmt.Errorf(progressStoreCreationErrorTemplate, storeError)
	}
	return progressStore, nil
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	if humanReadableLogging {
		shellExecutor.SetEventObserver(ui.NewConsoleCommandEventLogger(logger))
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) (MigrationExecutor, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func buildMigrationOptions(configuration CommandConfiguration) MigrationOptions {
	return MigrationOptions{
		SourceHost:              configuration.SourceHost,
		SourceToken:             configuration.SourceToken,
		DestinationHost:         configuration.DestinationHost,
		DestinationOrganization: configuration.DestinationOrganization,
		CloneDirectory:          configuration.CloneDirectory,
		RepositoryVisibility:    githubcli.RepositoryVisibility(strings.ToLower(configuration.RepositoryVisibility)),
		AuthorIdentity: rewrite.AuthorIdentity{
			Name:  configuration.RewriteAuthorName,
			Email: configuration.RewriteAuthorEmail,
		},
	}
}
