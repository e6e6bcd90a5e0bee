package deletion

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/plotset-corp/migration-gl-to-gh/internal/execshell"
	"github.com/plotset-corp/migration-gl-to-gh/internal/githubcli"
	"github.com/plotset-corp/migration-gl-to-gh/internal/progress"
	"github.com/plotset-corp/migration-gl-to-gh/internal/ui"
	"github.com/plotset-corp/migration-gl-to-gh/internal/utils"
	pathutils "github.com/plotset-corp/migration-gl-to-gh/internal/utils/path"
)

const (
	batchCommandUseConstant               = "delete"
	batchCommandShortDescriptionConstant  = "Delete every destination repository listed in the progress store"
	batchCommandLongDescriptionConstant   = "delete removes the destination repository for each slug in the progress store. The store itself is never modified, so a later migrate run can rebuild everything."
	singleCommandUseConstant              = "delete-single <slug>"
	singleCommandShortDescriptionConstant = "Delete one destination repository by slug"
	singleCommandLongDescriptionConstant  = "delete-single removes the destination repository for the supplied slug without consulting the progress store."
	singleCommandArgumentCountConstant    = 1
	slugArgumentIndexConstant             = 0
	hostingClientCreationErrorTemplate    = "unable to construct hosting client: %w"
	progressStoreCreationErrorTemplate    = "unable to open progress store: %w"
	batchFailureCountErrorTemplate        = "deletion batch finished with %d failure(s)"
	storePathFieldNameConstant            = "store_path"
	configurationFileInUseMessageConstant = "Using configuration file"
	logFieldConfigurationFileConstant     = "configuration_file"
)

var commandContextAccessor = utils.NewCommandContextAccessor()

// DeletionExecutor performs deletions on behalf of the Cobra commands.
type DeletionExecutor interface {
	DeleteAll(executionContext context.Context, options DeletionOptions) (Summary, error)
	DeleteSingle(executionContext context.Context, options DeletionOptions, slug string) error
}

// CommandExecutor is the shell capability used to build the default deleter.
type CommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ServiceProvider constructs a deletion executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (DeletionExecutor, error)

// CommandConfiguration captures persisted configuration for deletion commands.
type CommandConfiguration struct {
	EnableDebugLogging      bool   `mapstructure:"debug"`
	DestinationOrganization string `mapstructure:"github_organization"`
	StorePath               string `mapstructure:"store_path"`
}

var homePathExpander = pathutils.NewHomeExpander()

// Sanitize trims configured values and expands home-relative store paths.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.DestinationOrganization = strings.TrimSpace(configuration.DestinationOrganization)
	sanitized.StorePath = homePathExpander.Expand(strings.TrimSpace(configuration.StorePath))
	return sanitized
}

// CommandBuilder assembles the delete and delete-single Cobra commands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     CommandExecutor
	ServiceProvider              ServiceProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the batch delete command.
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

	return command, nil
}

// BuildSingle constructs the delete-single command.
func (builder *CommandBuilder) BuildSingle() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           singleCommandUseConstant,
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

	summary, batchError := service.DeleteAll(command.Context(), buildDeletionOptions(configuration))
	if batchError != nil {
		return batchError
	}
	if summary.Failed > 0 {
		return fmt.Errorf(batchFailureCountErrorTemplate, summary.Failed)
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

	return service.DeleteSingle(command.Context(), buildDeletionOptions(configuration), arguments[slugArgumentIndexConstant])
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

func (builder *CommandBuilder) assembleService(logger *zap.Logger, progressStore *progress.Store) (DeletionExecutor, error) {
	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return nil, executorError
	}

	hostingClient, clientError := githubcli.NewClient(executor)
	if clientError != nil {
		return nil, fmt.Errorf(hostingClientCreationErrorTemplate, clientError)
	}

	dependencies := ServiceDependencies{
		Logger:  logger,
		Deleter: hostingClient,
		Store:   progressStore,
	}
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
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

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{}
	}
	return builder.ConfigurationProvider().Sanitize()
}

func buildDeletionOptions(configuration CommandConfiguration) DeletionOptions {
	return DeletionOptions{DestinationOrganization: configuration.DestinationOrganization}
}
