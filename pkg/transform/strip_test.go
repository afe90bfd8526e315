package transform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passthroughStripper struct {
	called bool
}

func (s *passthroughStripper) Strip(ctx context.Context, sourceRoot, outputDir string, logger *logrus.Logger) (StripResult, error) {
	s.called = true
	return StripResult{Success: true}, nil
}

func TestStripSourcesAbortsWhenNoJavaFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("x"), 0o644))
	out := filepath.Join(t.TempDir(), "out")

	stripper := &passthroughStripper{}
	found, result, err := StripSources(context.Background(), []string{root}, out, stripper, logrus.New(), nil)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, result.Success)
	assert.False(t, stripper.called)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestStripSourcesCopiesJavaAndPlainJSAndInvokesStripper(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "A.java"), []byte("class A{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.js"), []byte("var x=1;"), 0o644))
	out := filepath.Join(t.TempDir(), "out")

	stripper := &passthroughStripper{}
	found, result, err := StripSources(context.Background(), []string{root}, out, stripper, logrus.New(), nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, result.Success)
	assert.True(t, stripper.called)
	assert.FileExists(t, filepath.Join(out, "A.java"))
	assert.FileExists(t, filepath.Join(out, "b.js"))
}

func TestStripSourcesMultiRootOverwriteCallback(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rootA, "Same.java"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(rootB, "Same.java"), []byte("b"), 0o644))
	out := filepath.Join(t.TempDir(), "out")

	var overwritten []string
	stripper := &passthroughStripper{}
	_, _, err := StripSources(context.Background(), []string{rootA, rootB}, out, stripper, logrus.New(), func(rel string) {
		overwritten = append(overwritten, rel)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Same.java"}, overwritten)
}
