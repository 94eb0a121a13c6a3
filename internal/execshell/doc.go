// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with lifecycle logging via ShellExecutor, exposes
// OSCommandRunner for default process execution, and defines the command
// abstractions buildstamp uses to run git and the executable lookup tools in
// a testable manner.
package execshell
