package provenance

import (
	"context"
	"errors"
)

const (
	doubleInitializationMessageConstant       = "repository status resolved more than once in this process"
	cacheProviderNotConfiguredMessageConstant = "status provider not configured"
)

// ErrStatusProviderNotConfigured reports cache construction without a provider.
var ErrStatusProviderNotConfigured = errors.New(cacheProviderNotConfiguredMessageConstant)

// DoubleInitializationError signals that the resolution pipeline was wired
// into more than one place; it marks a configuration defect rather than a
// runtime condition and must not be swallowed.
type DoubleInitializationError struct{}

// Error describes the double-initialization defect.
func (DoubleInitializationError) Error() string {
	return doubleInitializationMessageConstant
}

// StatusProvider computes a RepoStatus for a project root and version.
type StatusProvider interface {
	Resolve(executionContext context.Context, projectRoot string, version string) RepoStatus
}

// ResolutionRequest describes the inputs of a repository status computation.
type ResolutionRequest struct {
	ProjectRoot string
	Version     string
}

// StatusCache computes the repository status at most once per process and
// hands out the stored value afterwards.
//
// The initialization gate is a plain boolean: the surrounding build phase is
// single threaded and concurrent first-time calls are not supported.
type StatusCache struct {
	statusProvider StatusProvider
	resolvedStatus RepoStatus
	initialized    bool
}

// NewStatusCache validates the provider and constructs an empty cache.
func NewStatusCache(statusProvider StatusProvider) (*StatusCache, error) {
	if statusProvider == nil {
		return nil, ErrStatusProviderNotConfigured
	}
	return &StatusCache{statusProvider: statusProvider}, nil
}

// Initialize computes and stores the repository status.
//
// Entering the initializing path a second time fails with
// DoubleInitializationError.
func (cache *StatusCache) Initialize(executionContext context.Context, request ResolutionRequest) (RepoStatus, error) {
	if cache.initialized {
		return RepoStatus{}, DoubleInitializationError{}
	}

	cache.resolvedStatus = cache.statusProvider.Resolve(executionContext, request.ProjectRoot, request.Version)
	cache.initialized = true
	return cache.resolvedStatus, nil
}

// Get returns the stored status, computing it on first use.
func (cache *StatusCache) Get(executionContext context.Context, request ResolutionRequest) (RepoStatus, error) {
	if cache.initialized {
		return cache.resolvedStatus, nil
	}
	return cache.Initialize(executionContext, request)
}

// Current reports the stored status and whether initialization has happened.
func (cache *StatusCache) Current() (RepoStatus, bool) {
	return cache.resolvedStatus, cache.initialized
}
