package provenance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/buildstamp/internal/provenance"
)

const (
	testCachedVersionConstant     = "2.1.0"
	testCachedProjectRootConstant = "/workspace/project"
	testCachedBranchNameConstant  = "release/2.1"
)

type countingStatusProvider struct {
	providedStatus  provenance.RepoStatus
	resolutionCount int
}

func (provider *countingStatusProvider) Resolve(_ context.Context, projectRoot string, version string) provenance.RepoStatus {
	provider.resolutionCount++
	resolvedStatus := provider.providedStatus
	resolvedStatus.Version = version
	return resolvedStatus
}

func newCachedStatusFixture() provenance.RepoStatus {
	resolvedStatus := provenance.NewDefaultRepoStatus(testCachedVersionConstant)
	resolvedStatus.Branch = testCachedBranchNameConstant
	resolvedStatus.WorkTreeStatus = provenance.WorkTreeStatusClean
	return resolvedStatus
}

func TestStatusCacheInitializationValidation(testInstance *testing.T) {
	_, creationError := provenance.NewStatusCache(nil)
	require.ErrorIs(testInstance, creationError, provenance.ErrStatusProviderNotConfigured)
}

func TestStatusCacheInitializeComputesOnce(testInstance *testing.T) {
	statusProvider := &countingStatusProvider{providedStatus: newCachedStatusFixture()}
	statusCache, creationError := provenance.NewStatusCache(statusProvider)
	require.NoError(testInstance, creationError)

	resolutionRequest := provenance.ResolutionRequest{ProjectRoot: testCachedProjectRootConstant, Version: testCachedVersionConstant}

	initializedStatus, initializationError := statusCache.Initialize(context.Background(), resolutionRequest)
	require.NoError(testInstance, initializationError)
	require.Equal(testInstance, testCachedBranchNameConstant, initializedStatus.Branch)
	require.Equal(testInstance, 1, statusProvider.resolutionCount)

	_, secondInitializationError := statusCache.Initialize(context.Background(), resolutionRequest)
	require.Error(testInstance, secondInitializationError)
	require.IsType(testInstance, provenance.DoubleInitializationError{}, secondInitializationError)
	require.Equal(testInstance, 1, statusProvider.resolutionCount)
}

func TestStatusCacheGetReturnsStoredValue(testInstance *testing.T) {
	statusProvider := &countingStatusProvider{providedStatus: newCachedStatusFixture()}
	statusCache, creationError := provenance.NewStatusCache(statusProvider)
	require.NoError(testInstance, creationError)

	resolutionRequest := provenance.ResolutionRequest{ProjectRoot: testCachedProjectRootConstant, Version: testCachedVersionConstant}

	firstStatus, firstError := statusCache.Get(context.Background(), resolutionRequest)
	require.NoError(testInstance, firstError)

	secondStatus, secondError := statusCache.Get(context.Background(), resolutionRequest)
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, firstStatus, secondStatus)
	require.Equal(testInstance, 1, statusProvider.resolutionCount)
}

func TestStatusCacheCurrentReportsInitializationState(testInstance *testing.T) {
	statusProvider := &countingStatusProvider{providedStatus: newCachedStatusFixture()}
	statusCache, creationError := provenance.NewStatusCache(statusProvider)
	require.NoError(testInstance, creationError)

	_, initializedBefore := statusCache.Current()
	require.False(testInstance, initializedBefore)

	resolutionRequest := provenance.ResolutionRequest{ProjectRoot: testCachedProjectRootConstant, Version: testCachedVersionConstant}
	initializedStatus, initializationError := statusCache.Initialize(context.Background(), resolutionRequest)
	require.NoError(testInstance, initializationError)

	currentStatus, initializedAfter := statusCache.Current()
	require.True(testInstance, initializedAfter)
	require.Equal(testInstance, initializedStatus, currentStatus)
}
