package execshell

import "context"

const (
	gitCommandNameConstant           = "git"
	windowsLookupCommandNameConstant = "where.exe"
	posixLookupCommandNameConstant   = "which"
)

// CommandName identifies a supported executable.
type CommandName string

// Supported command enumerations.
const (
	CommandGit   CommandName = CommandName(gitCommandNameConstant)
	CommandWhere CommandName = CommandName(windowsLookupCommandNameConstant)
	CommandWhich CommandName = CommandName(posixLookupCommandNameConstant)
)

// CommandDetails describes a tool invocation.
type CommandDetails struct {
	Arguments        []string
	WorkingDirectory string
}

// ShellCommand combines a CommandName with specific invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner represents the ability to run shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}
