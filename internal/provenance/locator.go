package provenance

import (
	"context"
	"errors"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/buildstamp/internal/execshell"
)

const (
	windowsOperatingSystemNameConstant          = "windows"
	windowsLookupTargetConstant                 = "git.exe"
	posixLookupTargetConstant                   = "git"
	lookupOutputLineSeparatorConstant           = "\n"
	locatorLoggerNotConfiguredMessageConstant   = "locator logger not configured"
	locatorExecutorNotConfiguredMessageConstant = "lookup executor not configured"
	executableLookupFailedMessageConstant       = "git executable could not be located"
	logFieldLookupErrorConstant                 = "error"
	logFieldOperatingSystemConstant             = "operating_system"
)

// Locator construction errors.
var (
	ErrLocatorLoggerNotConfigured  = errors.New(locatorLoggerNotConfiguredMessageConstant)
	ErrLookupExecutorNotConfigured = errors.New(locatorExecutorNotConfiguredMessageConstant)
)

// LookupExecutor runs the platform executable lookup commands.
type LookupExecutor interface {
	ExecuteWhere(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteWhich(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// LocatorDependencies lists the collaborators required by GitExecutableLocator.
type LocatorDependencies struct {
	Logger         *zap.Logger
	LookupExecutor LookupExecutor
}

// LocatorOptions carries optional locator configuration.
type LocatorOptions struct {
	// OverridePath is returned unverified when non-empty.
	OverridePath string
	// OperatingSystem selects the lookup command; defaults to runtime.GOOS.
	OperatingSystem string
}

// GitExecutableLocator finds the git executable on the current platform.
type GitExecutableLocator struct {
	logger          *zap.Logger
	lookupExecutor  LookupExecutor
	overridePath    string
	operatingSystem string
}

// NewGitExecutableLocator validates dependencies and constructs a locator.
func NewGitExecutableLocator(dependencies LocatorDependencies, options LocatorOptions) (*GitExecutableLocator, error) {
	if dependencies.Logger == nil {
		return nil, ErrLocatorLoggerNotConfigured
	}
	if dependencies.LookupExecutor == nil {
		return nil, ErrLookupExecutorNotConfigured
	}

	operatingSystem := strings.TrimSpace(options.OperatingSystem)
	if len(operatingSystem) == 0 {
		operatingSystem = runtime.GOOS
	}

	return &GitExecutableLocator{
		logger:          dependencies.Logger,
		lookupExecutor:  dependencies.LookupExecutor,
		overridePath:    strings.TrimSpace(options.OverridePath),
		operatingSystem: operatingSystem,
	}, nil
}

// Locate returns the git executable path and whether one could be determined.
//
// Lookup failures are soft: they are logged as warnings and reported as
// absence rather than propagated.
func (locator *GitExecutableLocator) Locate(executionContext context.Context) (string, bool) {
	if len(locator.overridePath) > 0 {
		return locator.overridePath, true
	}

	lookupResult, lookupError := locator.runPlatformLookup(executionContext)
	if lookupError != nil {
		locator.logger.Warn(
			executableLookupFailedMessageConstant,
			zap.String(logFieldOperatingSystemConstant, locator.operatingSystem),
			zap.String(logFieldLookupErrorConstant, lookupError.Error()),
		)
		return "", false
	}

	executablePath := locator.selectExecutablePath(lookupResult.StandardOutput)
	if len(executablePath) == 0 {
		return "", false
	}
	return executablePath, true
}

func (locator *GitExecutableLocator) runPlatformLookup(executionContext context.Context) (execshell.ExecutionResult, error) {
	if locator.operatingSystem == windowsOperatingSystemNameConstant {
		return locator.lookupExecutor.ExecuteWhere(executionContext, execshell.CommandDetails{Arguments: []string{windowsLookupTargetConstant}})
	}
	return locator.lookupExecutor.ExecuteWhich(executionContext, execshell.CommandDetails{Arguments: []string{posixLookupTargetConstant}})
}

// selectExecutablePath reduces lookup output to a single path; multi-result
// lookup commands print one match per line and the first one wins.
func (locator *GitExecutableLocator) selectExecutablePath(lookupOutput string) string {
	trimmedOutput := strings.TrimSpace(lookupOutput)
	if len(trimmedOutput) == 0 {
		return ""
	}
	outputLines := strings.Split(trimmedOutput, lookupOutputLineSeparatorConstant)
	return strings.TrimSpace(outputLines[0])
}
