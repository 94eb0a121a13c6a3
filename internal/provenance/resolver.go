package provenance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/buildstamp/internal/execshell"
)

const (
	gitMetadataDirectoryNameConstant = ".git"

	gitLogSubcommandConstant       = "log"
	gitLogSingleCommitFlagConstant = "-1"
	gitLogFormatFlagConstant       = "--format=format:%h %H %cd"
	gitLogDateFlagConstant         = "--date=iso"
	gitLogAbbrevFlagConstant       = "--abbrev=9"
	gitStatusSubcommandConstant    = "status"
	gitStatusPorcelainFlagConstant = "--porcelain"
	gitRevParseSubcommandConstant  = "rev-parse"
	gitRevParseAbbrevFlagConstant  = "--abbrev-ref"
	gitHeadReferenceConstant       = "HEAD"
	commitDateTokenJoinSeparator   = " "
	logOutputMinimumTokenCount     = 5
	commitDateFirstTokenIndex      = 2
	commitDateTokenBoundaryIndex   = 5

	resolverLoggerNotConfiguredMessageConstant   = "resolver logger not configured"
	resolverLocatorNotConfiguredMessageConstant  = "executable locator not configured"
	resolverExecutorNotConfiguredMessageConstant = "git executor not configured"

	resolutionAbortedMessageConstant     = "repository status resolution aborted"
	dirtyWorkTreeDetectedMessageConstant = "working tree has uncommitted changes"
	logFieldProjectRootConstant          = "project_root"
	logFieldResolutionErrorConstant      = "error"
	logFieldWorkTreeChangesConstant      = "changes"
)

// Resolver construction errors.
var (
	ErrResolverLoggerNotConfigured = errors.New(resolverLoggerNotConfiguredMessageConstant)
	ErrLocatorNotConfigured        = errors.New(resolverLocatorNotConfiguredMessageConstant)
	ErrGitExecutorNotConfigured    = errors.New(resolverExecutorNotConfiguredMessageConstant)
)

// GitExecutor runs git commands and surfaces typed failures.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ExecutableLocator reports the git executable path when one is available.
type ExecutableLocator interface {
	Locate(executionContext context.Context) (string, bool)
}

// ResolverDependencies lists the collaborators required by StatusResolver.
type ResolverDependencies struct {
	Logger            *zap.Logger
	ExecutableLocator ExecutableLocator
	GitExecutor       GitExecutor
}

// StatusResolver runs the fixed repository query pipeline and assembles a RepoStatus.
type StatusResolver struct {
	logger            *zap.Logger
	executableLocator ExecutableLocator
	gitExecutor       GitExecutor
}

// NewStatusResolver validates dependencies and constructs a resolver.
func NewStatusResolver(dependencies ResolverDependencies) (*StatusResolver, error) {
	if dependencies.Logger == nil {
		return nil, ErrResolverLoggerNotConfigured
	}
	if dependencies.ExecutableLocator == nil {
		return nil, ErrLocatorNotConfigured
	}
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}

	return &StatusResolver{
		logger:            dependencies.Logger,
		executableLocator: dependencies.ExecutableLocator,
		gitExecutor:       dependencies.GitExecutor,
	}, nil
}

// Resolve determines the repository status for the supplied project root.
//
// Resolution is best effort: when the executable or repository is missing the
// defaults are returned immediately, and the first failing query aborts the
// remaining ones while keeping every field assigned so far. Resolve never
// returns an error; partial failures surface only as warning log lines.
func (resolver *StatusResolver) Resolve(executionContext context.Context, projectRoot string, version string) RepoStatus {
	resolvedStatus := NewDefaultRepoStatus(version)

	if _, executableAvailable := resolver.executableLocator.Locate(executionContext); !executableAvailable {
		return resolvedStatus
	}

	if !resolver.repositoryMetadataPresent(projectRoot) {
		return resolvedStatus
	}

	resolutionSteps := []func(context.Context, string, *RepoStatus) error{
		resolver.applyCommitMetadata,
		resolver.applyWorkTreeStatus,
		resolver.applyBranchName,
	}

	for _, resolutionStep := range resolutionSteps {
		stepError := resolutionStep(executionContext, projectRoot, &resolvedStatus)
		if stepError != nil {
			resolver.logger.Warn(
				resolutionAbortedMessageConstant,
				zap.String(logFieldProjectRootConstant, projectRoot),
				zap.String(logFieldResolutionErrorConstant, stepError.Error()),
			)
			break
		}
	}

	return resolvedStatus
}

func (resolver *StatusResolver) repositoryMetadataPresent(projectRoot string) bool {
	metadataPath := filepath.Join(projectRoot, gitMetadataDirectoryNameConstant)
	_, statError := os.Stat(metadataPath)
	return statError == nil
}

func (resolver *StatusResolver) applyCommitMetadata(executionContext context.Context, projectRoot string, resolvedStatus *RepoStatus) error {
	executionResult, executionError := resolver.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{
			gitLogSubcommandConstant,
			gitLogSingleCommitFlagConstant,
			gitLogFormatFlagConstant,
			gitLogDateFlagConstant,
			gitLogAbbrevFlagConstant,
		},
		WorkingDirectory: projectRoot,
	})
	if executionError != nil {
		return executionError
	}

	logOutputTokens := strings.Fields(executionResult.StandardOutput)
	if len(logOutputTokens) < logOutputMinimumTokenCount {
		return nil
	}

	resolvedStatus.ShortCommitHash = logOutputTokens[0]
	resolvedStatus.LongCommitHash = logOutputTokens[1]
	resolvedStatus.CommitDate = strings.Join(logOutputTokens[commitDateFirstTokenIndex:commitDateTokenBoundaryIndex], commitDateTokenJoinSeparator)
	return nil
}

func (resolver *StatusResolver) applyWorkTreeStatus(executionContext context.Context, projectRoot string, resolvedStatus *RepoStatus) error {
	executionResult, executionError := resolver.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant},
		WorkingDirectory: projectRoot,
	})
	if executionError != nil {
		return executionError
	}

	porcelainOutput := strings.TrimSpace(executionResult.StandardOutput)
	if len(porcelainOutput) == 0 {
		resolvedStatus.WorkTreeStatus = WorkTreeStatusClean
		return nil
	}

	resolvedStatus.WorkTreeStatus = WorkTreeStatusDirty
	resolver.logger.Debug(
		dirtyWorkTreeDetectedMessageConstant,
		zap.String(logFieldProjectRootConstant, projectRoot),
		zap.String(logFieldWorkTreeChangesConstant, porcelainOutput),
	)
	return nil
}

func (resolver *StatusResolver) applyBranchName(executionContext context.Context, projectRoot string, resolvedStatus *RepoStatus) error {
	executionResult, executionError := resolver.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitRevParseAbbrevFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: projectRoot,
	})
	if executionError != nil {
		return executionError
	}

	branchName := strings.TrimSpace(executionResult.StandardOutput)
	if len(branchName) > 0 {
		resolvedStatus.Branch = branchName
	}
	return nil
}
