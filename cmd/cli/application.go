package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/buildstamp/internal/execshell"
	"github.com/temirov/buildstamp/internal/provenance"
	"github.com/temirov/buildstamp/internal/utils"
)

const (
	applicationNameConstant                 = "buildstamp"
	applicationShortDescriptionConstant     = "Resolve build-time repository provenance for artifact stamping"
	applicationLongDescriptionConstant      = "buildstamp queries the git executable for commit, status, and branch metadata and prints a stable provenance record for build scripts."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	projectRootFlagNameConstant             = "project-root"
	projectRootFlagUsageConstant            = "Repository root whose provenance should be resolved."
	releaseVersionFlagNameConstant          = "release-version"
	releaseVersionFlagUsageConstant         = "Externally supplied version recorded in the provenance output."
	gitExecutableFlagNameConstant           = "git-executable"
	gitExecutableFlagUsageConstant          = "Path to the git executable; skips the platform lookup when set."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	stampConfigurationKeyConstant           = "stamp"
	stampProjectRootConfigKeyConstant       = stampConfigurationKeyConstant + ".project_root"
	stampReleaseVersionConfigKeyConstant    = stampConfigurationKeyConstant + ".release_version"
	stampGitExecutableConfigKeyConstant     = stampConfigurationKeyConstant + ".git_executable"
	environmentPrefixConstant               = "BUILDSTAMP"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	defaultProjectRootConstant              = "."
	statusResolvedMessageConstant           = "repository status resolved"
	statusOutputErrorTemplateConstant       = "unable to render repository status: %w"
	logFieldVersionConstant                 = "version"
	logFieldBranchConstant                  = "branch"
	logFieldWorkTreeStatusConstant          = "work_tree_status"
	consoleOutputLineTemplateConstant       = "%s=%s\n"
)

// Console output keys, emitted in a fixed order for script consumption.
var consoleOutputFieldNames = []string{
	"version",
	"long_commit_hash",
	"short_commit_hash",
	"commit_date",
	"status",
	"branch",
}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Stamp  StampConfiguration             `mapstructure:"stamp"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// StampConfiguration stores provenance resolution inputs.
type StampConfiguration struct {
	ProjectRoot    string `mapstructure:"project_root"`
	ReleaseVersion string `mapstructure:"release_version"`
	GitExecutable  string `mapstructure:"git_executable"`
}

type repoStatusOutput struct {
	Version         string `json:"version"`
	LongCommitHash  string `json:"long_commit_hash"`
	ShortCommitHash string `json:"short_commit_hash"`
	CommitDate      string `json:"commit_date"`
	Status          string `json:"status"`
	Branch          string `json:"branch"`
}

// Application wires the Cobra root command, configuration loader, structured logger, and provenance pipeline.
type Application struct {
	rootCommand             *cobra.Command
	configurationLoader     *utils.ConfigurationLoader
	loggerFactory           *utils.LoggerFactory
	logger                  *zap.Logger
	configuration           ApplicationConfiguration
	configurationMetadata   utils.LoadedConfiguration
	configurationFilePath   string
	logLevelFlagValue       string
	logFormatFlagValue      string
	projectRootFlagValue    string
	releaseVersionFlagValue string
	gitExecutableFlagValue  string
	statusCache             *provenance.StatusCache
	statusProviderFactory   func() (provenance.StatusProvider, error)
	outputWriter            io.Writer
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		outputWriter:        os.Stdout,
	}
	application.statusProviderFactory = application.buildStatusProvider

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.Flags().StringVar(&application.projectRootFlagValue, projectRootFlagNameConstant, "", projectRootFlagUsageConstant)
	cobraCommand.Flags().StringVar(&application.releaseVersionFlagValue, releaseVersionFlagNameConstant, "", releaseVersionFlagUsageConstant)
	cobraCommand.Flags().StringVar(&application.gitExecutableFlagValue, gitExecutableFlagNameConstant, "", gitExecutableFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:      string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:     string(utils.LogFormatStructured),
		stampProjectRootConfigKeyConstant:    defaultProjectRootConstant,
		stampReleaseVersionConfigKeyConstant: "",
		stampGitExecutableConfigKeyConstant:  "",
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	if command != nil && command.Flags().Changed(projectRootFlagNameConstant) {
		application.configuration.Stamp.ProjectRoot = application.projectRootFlagValue
	}

	if command != nil && command.Flags().Changed(releaseVersionFlagNameConstant) {
		application.configuration.Stamp.ReleaseVersion = application.releaseVersionFlagValue
	}

	if command != nil && command.Flags().Changed(gitExecutableFlagNameConstant) {
		application.configuration.Stamp.GitExecutable = application.gitExecutableFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	if application.statusCache == nil {
		statusProvider, providerCreationError := application.statusProviderFactory()
		if providerCreationError != nil {
			return providerCreationError
		}

		statusCache, cacheCreationError := provenance.NewStatusCache(statusProvider)
		if cacheCreationError != nil {
			return cacheCreationError
		}
		application.statusCache = statusCache
	}

	resolutionRequest := provenance.ResolutionRequest{
		ProjectRoot: application.configuration.Stamp.ProjectRoot,
		Version:     application.configuration.Stamp.ReleaseVersion,
	}

	resolvedStatus, initializationError := application.statusCache.Initialize(command.Context(), resolutionRequest)
	if initializationError != nil {
		return initializationError
	}

	application.logger.Info(
		statusResolvedMessageConstant,
		zap.String(logFieldVersionConstant, resolvedStatus.Version),
		zap.String(logFieldBranchConstant, resolvedStatus.Branch),
		zap.String(logFieldWorkTreeStatusConstant, string(resolvedStatus.WorkTreeStatus)),
	)

	return application.printRepoStatus(resolvedStatus)
}

func (application *Application) buildStatusProvider() (provenance.StatusProvider, error) {
	shellExecutor, executorCreationError := execshell.NewShellExecutor(application.logger, execshell.NewOSCommandRunner())
	if executorCreationError != nil {
		return nil, executorCreationError
	}

	executableLocator, locatorCreationError := provenance.NewGitExecutableLocator(
		provenance.LocatorDependencies{Logger: application.logger, LookupExecutor: shellExecutor},
		provenance.LocatorOptions{OverridePath: application.configuration.Stamp.GitExecutable},
	)
	if locatorCreationError != nil {
		return nil, locatorCreationError
	}

	return provenance.NewStatusResolver(provenance.ResolverDependencies{
		Logger:            application.logger,
		ExecutableLocator: executableLocator,
		GitExecutor:       shellExecutor,
	})
}

func (application *Application) printRepoStatus(resolvedStatus provenance.RepoStatus) error {
	statusOutput := repoStatusOutput{
		Version:         resolvedStatus.Version,
		LongCommitHash:  resolvedStatus.LongCommitHash,
		ShortCommitHash: resolvedStatus.ShortCommitHash,
		CommitDate:      resolvedStatus.CommitDate,
		Status:          string(resolvedStatus.WorkTreeStatus),
		Branch:          resolvedStatus.Branch,
	}

	if application.humanReadableLoggingEnabled() {
		outputValues := []string{
			statusOutput.Version,
			statusOutput.LongCommitHash,
			statusOutput.ShortCommitHash,
			statusOutput.CommitDate,
			statusOutput.Status,
			statusOutput.Branch,
		}
		for fieldIndex, fieldName := range consoleOutputFieldNames {
			if _, writeError := fmt.Fprintf(application.outputWriter, consoleOutputLineTemplateConstant, fieldName, outputValues[fieldIndex]); writeError != nil {
				return fmt.Errorf(statusOutputErrorTemplateConstant, writeError)
			}
		}
		return nil
	}

	encodedOutput, encodingError := json.Marshal(statusOutput)
	if encodingError != nil {
		return fmt.Errorf(statusOutputErrorTemplateConstant, encodingError)
	}
	if _, writeError := fmt.Fprintln(application.outputWriter, string(encodedOutput)); writeError != nil {
		return fmt.Errorf(statusOutputErrorTemplateConstant, writeError)
	}
	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
