package provenance_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/buildstamp/internal/execshell"
	"github.com/temirov/buildstamp/internal/provenance"
)

const (
	testReleaseVersionConstant      = "1.4.0"
	testShortCommitHashConstant     = "ab12cd34e"
	testLongCommitHashConstant      = "ab12cd34e5f6ab12cd34e5f6ab12cd34e5f6ab12"
	testCommitDateConstant          = "2024-01-01 12:00:00 +0000"
	testBranchNameConstant          = "main"
	testGitLogOutputConstant        = testShortCommitHashConstant + " " + testLongCommitHashConstant + " " + testCommitDateConstant
	testDirtyStatusOutputConstant   = " M internal/provenance/resolver.go\n?? notes.txt\n"
	testNotARepositoryStderrMessage = "fatal: not a git repository"
)

type stubExecutableLocator struct {
	executablePath  string
	executableFound bool
}

func (locator *stubExecutableLocator) Locate(context.Context) (string, bool) {
	return locator.executablePath, locator.executableFound
}

type scriptedGitResponse struct {
	result execshell.ExecutionResult
	err    error
}

type scriptedGitExecutor struct {
	responses        []scriptedGitResponse
	recordedCommands []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	if len(executor.responses) == 0 {
		return execshell.ExecutionResult{}, nil
	}
	nextResponse := executor.responses[0]
	executor.responses = executor.responses[1:]
	return nextResponse.result, nextResponse.err
}

func newRepositoryRoot(testInstance *testing.T) string {
	testInstance.Helper()
	repositoryRoot := testInstance.TempDir()
	require.NoError(testInstance, os.Mkdir(filepath.Join(repositoryRoot, ".git"), 0o755))
	return repositoryRoot
}

func newResolverForTest(testInstance *testing.T, locator provenance.ExecutableLocator, gitExecutor provenance.GitExecutor, logger *zap.Logger) *provenance.StatusResolver {
	testInstance.Helper()
	resolver, creationError := provenance.NewStatusResolver(provenance.ResolverDependencies{
		Logger:            logger,
		ExecutableLocator: locator,
		GitExecutor:       gitExecutor,
	})
	require.NoError(testInstance, creationError)
	return resolver
}

func TestStatusResolverInitializationValidation(testInstance *testing.T) {
	locator := &stubExecutableLocator{}
	gitExecutor := &scriptedGitExecutor{}

	_, missingLoggerError := provenance.NewStatusResolver(provenance.ResolverDependencies{ExecutableLocator: locator, GitExecutor: gitExecutor})
	require.ErrorIs(testInstance, missingLoggerError, provenance.ErrResolverLoggerNotConfigured)

	_, missingLocatorError := provenance.NewStatusResolver(provenance.ResolverDependencies{Logger: zap.NewNop(), GitExecutor: gitExecutor})
	require.ErrorIs(testInstance, missingLocatorError, provenance.ErrLocatorNotConfigured)

	_, missingExecutorError := provenance.NewStatusResolver(provenance.ResolverDependencies{Logger: zap.NewNop(), ExecutableLocator: locator})
	require.ErrorIs(testInstance, missingExecutorError, provenance.ErrGitExecutorNotConfigured)
}

func TestStatusResolverReturnsDefaultsWithoutExecutable(testInstance *testing.T) {
	gitExecutor := &scriptedGitExecutor{}
	resolver := newResolverForTest(testInstance, &stubExecutableLocator{executableFound: false}, gitExecutor, zap.NewNop())

	resolvedStatus := resolver.Resolve(context.Background(), newRepositoryRoot(testInstance), testReleaseVersionConstant)

	require.Equal(testInstance, provenance.NewDefaultRepoStatus(testReleaseVersionConstant), resolvedStatus)
	require.Empty(testInstance, gitExecutor.recordedCommands)
}

func TestStatusResolverReturnsDefaultsWithoutRepositoryMetadata(testInstance *testing.T) {
	gitExecutor := &scriptedGitExecutor{}
	resolver := newResolverForTest(testInstance, &stubExecutableLocator{executablePath: "/usr/bin/git", executableFound: true}, gitExecutor, zap.NewNop())

	resolvedStatus := resolver.Resolve(context.Background(), testInstance.TempDir(), testReleaseVersionConstant)

	require.Equal(testInstance, provenance.NewDefaultRepoStatus(testReleaseVersionConstant), resolvedStatus)
	require.Empty(testInstance, gitExecutor.recordedCommands)
}

func TestStatusResolverResolvesCompleteStatus(testInstance *testing.T) {
	repositoryRoot := newRepositoryRoot(testInstance)
	gitExecutor := &scriptedGitExecutor{
		responses: []scriptedGitResponse{
			{result: execshell.ExecutionResult{StandardOutput: testGitLogOutputConstant}},
			{result: execshell.ExecutionResult{StandardOutput: ""}},
			{result: execshell.ExecutionResult{StandardOutput: testBranchNameConstant + "\n"}},
		},
	}
	resolver := newResolverForTest(testInstance, &stubExecutableLocator{executablePath: "/usr/bin/git", executableFound: true}, gitExecutor, zap.NewNop())

	resolvedStatus := resolver.Resolve(context.Background(), repositoryRoot, testReleaseVersionConstant)

	require.Equal(testInstance, testReleaseVersionConstant, resolvedStatus.Version)
	require.Equal(testInstance, testShortCommitHashConstant, resolvedStatus.ShortCommitHash)
	require.Equal(testInstance, testLongCommitHashConstant, resolvedStatus.LongCommitHash)
	require.Equal(testInstance, testCommitDateConstant, resolvedStatus.CommitDate)
	require.Equal(testInstance, provenance.WorkTreeStatusClean, resolvedStatus.WorkTreeStatus)
	require.Equal(testInstance, testBranchNameConstant, resolvedStatus.Branch)

	require.Len(testInstance, gitExecutor.recordedCommands, 3)
	for _, recordedCommand := range gitExecutor.recordedCommands {
		require.Equal(testInstance, repositoryRoot, recordedCommand.WorkingDirectory)
	}
	require.Equal(testInstance, []string{"log", "-1", "--format=format:%h %H %cd", "--date=iso", "--abbrev=9"}, gitExecutor.recordedCommands[0].Arguments)
	require.Equal(testInstance, []string{"status", "--porcelain"}, gitExecutor.recordedCommands[1].Arguments)
	require.Equal(testInstance, []string{"rev-parse", "--abbrev-ref", "HEAD"}, gitExecutor.recordedCommands[2].Arguments)
}

func TestStatusResolverMarksDirtyWorkingTree(testInstance *testing.T) {
	repositoryRoot := newRepositoryRoot(testInstance)
	gitExecutor := &scriptedGitExecutor{
		responses: []scriptedGitResponse{
			{result: execshell.ExecutionResult{StandardOutput: testGitLogOutputConstant}},
			{result: execshell.ExecutionResult{StandardOutput: testDirtyStatusOutputConstant}},
			{result: execshell.ExecutionResult{StandardOutput: testBranchNameConstant + "\n"}},
		},
	}
	resolver := newResolverForTest(testInstance, &stubExecutableLocator{executablePath: "/usr/bin/git", executableFound: true}, gitExecutor, zap.NewNop())

	resolvedStatus := resolver.Resolve(context.Background(), repositoryRoot, testReleaseVersionConstant)

	require.Equal(testInstance, provenance.WorkTreeStatusDirty, resolvedStatus.WorkTreeStatus)
}

func TestStatusResolverKeepsDefaultsOnEmptyLogOutput(testInstance *testing.T) {
	repositoryRoot := newRepositoryRoot(testInstance)
	gitExecutor := &scriptedGitExecutor{
		responses: []scriptedGitResponse{
			{result: execshell.ExecutionResult{StandardOutput: ""}},
			{result: execshell.ExecutionResult{StandardOutput: ""}},
			{result: execshell.ExecutionResult{StandardOutput: testBranchNameConstant + "\n"}},
		},
	}
	resolver := newResolverForTest(testInstance, &stubExecutableLocator{executablePath: "/usr/bin/git", executableFound: true}, gitExecutor, zap.NewNop())

	resolvedStatus := resolver.Resolve(context.Background(), repositoryRoot, testReleaseVersionConstant)

	defaultStatus := provenance.NewDefaultRepoStatus(testReleaseVersionConstant)
	require.Equal(testInstance, defaultStatus.ShortCommitHash, resolvedStatus.ShortCommitHash)
	require.Equal(testInstance, defaultStatus.LongCommitHash, resolvedStatus.LongCommitHash)
	require.Equal(testInstance, defaultStatus.CommitDate, resolvedStatus.CommitDate)
	require.Equal(testInstance, provenance.WorkTreeStatusClean, resolvedStatus.WorkTreeStatus)
	require.Equal(testInstance, testBranchNameConstant, resolvedStatus.Branch)
	require.Len(testInstance, gitExecutor.recordedCommands, 3)
}

func TestStatusResolverAbortsPipelineOnFirstFailure(testInstance *testing.T) {
	repositoryRoot := newRepositoryRoot(testInstance)
	failingCommand := execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"log"}}}
	gitExecutor := &scriptedGitExecutor{
		responses: []scriptedGitResponse{
			{err: execshell.CommandFailedError{Command: failingCommand, ExitCode: 128, FailureOut: testNotARepositoryStderrMessage}},
		},
	}

	observerCore, observerLogs := observer.New(zap.WarnLevel)
	resolver := newResolverForTest(testInstance, &stubExecutableLocator{executablePath: "/usr/bin/git", executableFound: true}, gitExecutor, zap.New(observerCore))

	resolvedStatus := resolver.Resolve(context.Background(), repositoryRoot, testReleaseVersionConstant)

	require.Equal(testInstance, provenance.NewDefaultRepoStatus(testReleaseVersionConstant), resolvedStatus)
	require.Len(testInstance, gitExecutor.recordedCommands, 1)

	warningEntries := observerLogs.All()
	require.Len(testInstance, warningEntries, 1)
	require.Contains(testInstance, warningEntries[0].ContextMap()["error"], testNotARepositoryStderrMessage)
}

func TestStatusResolverKeepsEarlierFieldsWhenLaterStepFails(testInstance *testing.T) {
	repositoryRoot := newRepositoryRoot(testInstance)
	failingCommand := execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"status"}}}
	gitExecutor := &scriptedGitExecutor{
		responses: []scriptedGitResponse{
			{result: execshell.ExecutionResult{StandardOutput: testGitLogOutputConstant}},
			{err: execshell.CommandFailedError{Command: failingCommand, ExitCode: 1, FailureOut: "status unavailable"}},
		},
	}
	resolver := newResolverForTest(testInstance, &stubExecutableLocator{executablePath: "/usr/bin/git", executableFound: true}, gitExecutor, zap.NewNop())

	resolvedStatus := resolver.Resolve(context.Background(), repositoryRoot, testReleaseVersionConstant)

	require.Equal(testInstance, testShortCommitHashConstant, resolvedStatus.ShortCommitHash)
	require.Equal(testInstance, testLongCommitHashConstant, resolvedStatus.LongCommitHash)
	require.Equal(testInstance, testCommitDateConstant, resolvedStatus.CommitDate)
	require.Equal(testInstance, provenance.WorkTreeStatusUnknown, resolvedStatus.WorkTreeStatus)
	require.Equal(testInstance, provenance.NewDefaultRepoStatus(testReleaseVersionConstant).Branch, resolvedStatus.Branch)
	require.Len(testInstance, gitExecutor.recordedCommands, 2)
}
