package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/steps"
	"github.com/j2clbuild/buildgraph/pkg/workers"
)

// buildEmptyGraph constructs a Root artifact with a dependency, neither of
// which has any real source/archive content. Every step aborts for lack of
// input without ever needing to invoke an external tool, so a zero-value
// Toolset is sufficient.
func buildEmptyGraph(req *artifact.BuildRequest) *artifact.Artifact {
	dep := &artifact.Artifact{
		Coords:  artifact.Coords{Group: "g", Name: "dep", Version: "1.0"},
		Kind:    artifact.Dependency,
		Request: req,
	}
	root := &artifact.Artifact{
		Coords:     artifact.Coords{Group: "g", Name: "root", Version: "1.0"},
		Kind:       artifact.Root,
		DirectDeps: []*artifact.Artifact{dep},
		Request:    req,
	}
	return root
}

func TestRunAdvancesEntireChainToCompletion(t *testing.T) {
	req := artifact.NewBuildRequest(t.TempDir(), t.TempDir())
	req.Parallelism = 2
	root := buildEmptyGraph(req)

	cacheLayout, err := cache.New(req.BaseCacheDir)
	require.NoError(t, err)

	sched := New(cacheLayout, req, workers.Toolset{})
	err = sched.Run(context.Background(), root)
	require.NoError(t, err)
	assert.False(t, req.Cancelled())

	hash, err := root.Hash()
	require.NoError(t, err)
	slot := cacheLayout.Slot(root.Coords.SanitizedKey(), hash, steps.Assemble)
	result, ok, err := slot.ReadMarker()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, result.AdvancesChain())
}

func TestRunIsCacheStableOnSecondInvocation(t *testing.T) {
	req := artifact.NewBuildRequest(t.TempDir(), t.TempDir())
	root := buildEmptyGraph(req)
	cacheLayout, err := cache.New(req.BaseCacheDir)
	require.NoError(t, err)

	sched1 := New(cacheLayout, req, workers.Toolset{})
	require.NoError(t, sched1.Run(context.Background(), root))

	// A fresh scheduler against the same on-disk cache must short-circuit
	// via the already-written result markers instead of recomputing.
	sched2 := New(cacheLayout, req, workers.Toolset{})
	require.NoError(t, sched2.Run(context.Background(), root))
}

func TestRunPropagatesDependencyFailure(t *testing.T) {
	req := artifact.NewBuildRequest(t.TempDir(), t.TempDir())
	dep := &artifact.Artifact{
		Coords:  artifact.Coords{Group: "g", Name: "broken-dep", Version: "1.0"},
		Kind:    artifact.Dependency,
		Request: req,
	}
	// A self-referential dependency list makes Hash() detect a cycle; the
	// resulting error must surface as a Failed, cancelling, top-level error.
	dep.DirectDeps = []*artifact.Artifact{dep}

	root := &artifact.Artifact{
		Coords:     artifact.Coords{Group: "g", Name: "root", Version: "1.0"},
		Kind:       artifact.Root,
		DirectDeps: []*artifact.Artifact{dep},
		Request:    req,
	}

	cacheLayout, err := cache.New(req.BaseCacheDir)
	require.NoError(t, err)

	sched := New(cacheLayout, req, workers.Toolset{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = sched.Run(ctx, root)
	require.Error(t, err)
	assert.True(t, req.Cancelled())
}
