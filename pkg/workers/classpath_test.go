package workers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/steps"
)

func newTestDep(t *testing.T, kind artifact.Kind) *artifact.Artifact {
	t.Helper()
	req := artifact.NewBuildRequest(t.TempDir(), t.TempDir())
	return &artifact.Artifact{
		Coords:  artifact.Coords{Group: "g", Name: "dep", Version: "1.0"},
		Kind:    kind,
		Request: req,
	}
}

func TestClasspathEntryPrefersShadeOutput(t *testing.T) {
	dep := newTestDep(t, artifact.Dependency)
	cacheLayout, err := cache.New(t.TempDir())
	require.NoError(t, err)

	hash, err := dep.Hash()
	require.NoError(t, err)
	slot := cacheLayout.Slot(dep.Coords.SanitizedKey(), hash, steps.CompileStripped)
	shadeOut := filepath.Join(slot.Path, shadeOutputDirName)
	require.NoError(t, os.MkdirAll(shadeOut, 0o755))
	require.NoError(t, os.MkdirAll(slot.OutputDir(), 0o755))

	entry, err := ClasspathEntry(cacheLayout, dep)
	require.NoError(t, err)
	assert.Equal(t, shadeOut, entry)
}

func TestClasspathEntryFallsBackToCompileStrippedOutput(t *testing.T) {
	dep := newTestDep(t, artifact.Dependency)
	cacheLayout, err := cache.New(t.TempDir())
	require.NoError(t, err)

	hash, err := dep.Hash()
	require.NoError(t, err)
	slot := cacheLayout.Slot(dep.Coords.SanitizedKey(), hash, steps.CompileStripped)
	require.NoError(t, os.MkdirAll(slot.OutputDir(), 0o755))

	entry, err := ClasspathEntry(cacheLayout, dep)
	require.NoError(t, err)
	assert.Equal(t, slot.OutputDir(), entry)
}

func TestClasspathEntryFallsBackToRawArtifactFile(t *testing.T) {
	dep := newTestDep(t, artifact.Dependency)
	dep.ArtifactFile = "/somewhere/dep.jar"
	cacheLayout, err := cache.New(t.TempDir())
	require.NoError(t, err)

	entry, err := ClasspathEntry(cacheLayout, dep)
	require.NoError(t, err)
	assert.Equal(t, "/somewhere/dep.jar", entry)
}

func TestClasspathEntryIgnoredKindAlwaysUsesArtifactFile(t *testing.T) {
	dep := newTestDep(t, artifact.Ignored)
	dep.ArtifactFile = "/somewhere/ignored.jar"
	cacheLayout, err := cache.New(t.TempDir())
	require.NoError(t, err)

	entry, err := ClasspathEntry(cacheLayout, dep)
	require.NoError(t, err)
	assert.Equal(t, "/somewhere/ignored.jar", entry)
}

func TestClasspathResolvesEachDependencyInOrder(t *testing.T) {
	depA := newTestDep(t, artifact.Ignored)
	depA.Coords.Name = "a"
	depA.ArtifactFile = "/a.jar"
	depB := newTestDep(t, artifact.Ignored)
	depB.Coords.Name = "b"
	depB.ArtifactFile = "/b.jar"

	cacheLayout, err := cache.New(t.TempDir())
	require.NoError(t, err)

	entries, err := Classpath(cacheLayout, []*artifact.Artifact{depA, depB})
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.jar", "/b.jar"}, entries)
}
