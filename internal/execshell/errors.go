package execshell

import (
	"errors"
	"fmt"
	"strings"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandFailedTemplateConstant             = "%s failed with exit code %d%s"
	commandExecutionTemplateConstant          = "%s failed: %s"
	failureDetailSuffixTemplateConstant       = ": %s"
	unknownFailureMessageConstant             = "unknown error"
	commandLabelSeparatorConstant             = " "
)

// Sentinel errors reported during executor construction.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError indicates a command completed with a non-zero exit code.
type CommandFailedError struct {
	Command    ShellCommand
	ExitCode   int
	FailureOut string
}

// Error describes the failed command, preferring captured stderr over stdout.
func (failure CommandFailedError) Error() string {
	detailSuffix := ""
	if len(failure.FailureOut) > 0 {
		detailSuffix = fmt.Sprintf(failureDetailSuffixTemplateConstant, failure.FailureOut)
	}
	return fmt.Sprintf(commandFailedTemplateConstant, formatCommandLabel(failure.Command), failure.ExitCode, detailSuffix)
}

// CommandExecutionError indicates the command could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure including the underlying cause.
func (failure CommandExecutionError) Error() string {
	causeDescription := unknownFailureMessageConstant
	if failure.Cause != nil {
		causeDescription = failure.Cause.Error()
	}
	return fmt.Sprintf(commandExecutionTemplateConstant, formatCommandLabel(failure.Command), causeDescription)
}

// Unwrap exposes the underlying execution failure.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// newCommandFailedError builds a CommandFailedError selecting stderr when present, stdout otherwise.
func newCommandFailedError(command ShellCommand, result ExecutionResult) CommandFailedError {
	failureOutput := strings.TrimSpace(result.StandardError)
	if len(failureOutput) == 0 {
		failureOutput = strings.TrimSpace(result.StandardOutput)
	}
	return CommandFailedError{Command: command, ExitCode: result.ExitCode, FailureOut: failureOutput}
}

func formatCommandLabel(command ShellCommand) string {
	labelComponents := append([]string{string(command.Name)}, command.Details.Arguments...)
	return strings.Join(labelComponents, commandLabelSeparatorConstant)
}
