package execshell

import (
	"context"

	"go.uber.org/zap"
)

const (
	logFieldCommandConstant  = "command"
	logFieldExitCodeConstant = "exit_code"
)

// ShellExecutor coordinates command execution with structured lifecycle logging.
type ShellExecutor struct {
	logger           *zap.Logger
	commandRunner    CommandRunner
	messageFormatter CommandMessageFormatter
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	return &ShellExecutor{
		logger:           logger,
		commandRunner:    commandRunner,
		messageFormatter: CommandMessageFormatter{},
	}, nil
}

// Execute runs the supplied command and converts failures into typed errors.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logger.Debug(
		executor.messageFormatter.BuildStartedMessage(command),
		zap.String(logFieldCommandConstant, formatCommandLabel(command)),
	)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	if runError != nil {
		executionError := CommandExecutionError{Command: command, Cause: runError}
		executor.logger.Warn(
			executor.messageFormatter.BuildExecutionFailureMessage(command, runError),
			zap.String(logFieldCommandConstant, formatCommandLabel(command)),
		)
		return ExecutionResult{}, executionError
	}

	if executionResult.ExitCode != 0 {
		failure := newCommandFailedError(command, executionResult)
		executor.logger.Warn(
			executor.messageFormatter.BuildFailureMessage(command, executionResult),
			zap.String(logFieldCommandConstant, formatCommandLabel(command)),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		)
		return ExecutionResult{}, failure
	}

	executor.logger.Debug(
		executor.messageFormatter.BuildSuccessMessage(command, executionResult),
		zap.String(logFieldCommandConstant, formatCommandLabel(command)),
	)

	return executionResult, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteWhere runs the Windows multi-result lookup tool with the provided details.
func (executor *ShellExecutor) ExecuteWhere(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandWhere, Details: details})
}

// ExecuteWhich runs the POSIX single-result lookup tool with the provided details.
func (executor *ShellExecutor) ExecuteWhich(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandWhich, Details: details})
}
