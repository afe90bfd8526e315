package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
)

func TestLoadWithoutOverrideReturnsBuiltinDefaults(t *testing.T) {
	d, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "compile", d.ClasspathScope)
	assert.Equal(t, "ADVANCED", d.OptimizationLevel)
	assert.Equal(t, 4, d.Parallelism)
	assert.True(t, d.Formatting.SourceMaps)
}

func TestLoadMissingOverrideFileFallsBackToBuiltin(t *testing.T) {
	d, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "compile", d.ClasspathScope)
}

func TestLoadOverrideLayersOverBuiltin(t *testing.T) {
	override := filepath.Join(t.TempDir(), "override.yaml")
	require.NoError(t, os.WriteFile(override, []byte("parallelism: 8\n"), 0o644))

	d, err := Load(override)
	require.NoError(t, err)
	assert.Equal(t, 8, d.Parallelism)
	// Fields not present in the override keep the builtin value.
	assert.Equal(t, "compile", d.ClasspathScope)
}

func TestLoadOverrideRejectsUnknownFields(t *testing.T) {
	override := filepath.Join(t.TempDir(), "override.yaml")
	require.NoError(t, os.WriteFile(override, []byte("bogusField: true\n"), 0o644))

	_, err := Load(override)
	assert.Error(t, err)
}

func TestApplyToCopiesDefaultsOntoRequest(t *testing.T) {
	d, err := Load("")
	require.NoError(t, err)

	req := artifact.NewBuildRequest(t.TempDir(), t.TempDir())
	d.ApplyTo(req)

	assert.Equal(t, artifact.ClasspathScope("compile"), req.ClasspathScope)
	assert.Equal(t, "ADVANCED", req.OptimizationLevel)
	assert.Equal(t, 4, req.Parallelism)
	assert.True(t, req.Formatting.SourceMaps)
}

func TestApplyToLeavesParallelismUnchangedWhenZero(t *testing.T) {
	req := artifact.NewBuildRequest(t.TempDir(), t.TempDir())
	req.Parallelism = 16

	d := &Defaults{}
	d.ApplyTo(req)

	assert.Equal(t, 16, req.Parallelism)
}

func TestValidateManifestAcceptsMinimalDocument(t *testing.T) {
	raw := []byte(`{"group":"g","name":"n","version":"1.0"}`)
	assert.Empty(t, ValidateManifest(raw))
}

func TestValidateManifestRejectsMissingRequiredFields(t *testing.T) {
	raw := []byte(`{"group":"g"}`)
	errs := ValidateManifest(raw)
	assert.NotEmpty(t, errs)
}

func TestValidateManifestRejectsUnknownKind(t *testing.T) {
	raw := []byte(`{"group":"g","name":"n","version":"1.0","kind":"not-a-real-kind"}`)
	errs := ValidateManifest(raw)
	assert.NotEmpty(t, errs)
}
