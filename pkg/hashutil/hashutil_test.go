package hashutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDeterministic(t *testing.T) {
	build := func() string {
		b := New()
		b.AppendString("alpha")
		b.AppendStrings([]string{"x", "y"})
		b.AppendSortedPairs(map[string]string{"b": "2", "a": "1"})
		return b.Finalize()
	}
	assert.Equal(t, build(), build())
}

func TestBuilderSensitiveToOrderOfUnsortedAppends(t *testing.T) {
	a := New()
	a.AppendString("foo")
	a.AppendString("bar")

	b := New()
	b.AppendString("bar")
	b.AppendString("foo")

	assert.NotEqual(t, a.Finalize(), b.Finalize())
}

func TestBuilderSortedPairsOrderIndependent(t *testing.T) {
	a := New()
	a.AppendSortedPairs(map[string]string{"k1": "v1", "k2": "v2"})

	b := New()
	b.AppendSortedPairs(map[string]string{"k2": "v2", "k1": "v1"})

	assert.Equal(t, a.Finalize(), b.Finalize())
}

func TestBuilderLengthPrefixedFramingAvoidsAmbiguity(t *testing.T) {
	// Without length-prefixed framing, "ab"+"c" and "a"+"bc" would collide.
	a := New()
	a.AppendString("ab")
	a.AppendString("c")

	b := New()
	b.AppendString("a")
	b.AppendString("bc")

	assert.NotEqual(t, a.Finalize(), b.Finalize())
}

func TestAppendFileSensitiveToContent(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	a := New()
	require.NoError(t, a.AppendFile(p))

	require.NoError(t, os.WriteFile(p, []byte("world"), 0o644))
	b := New()
	require.NoError(t, b.AppendFile(p))

	assert.NotEqual(t, a.Finalize(), b.Finalize())
}

func TestAppendPathContentsSensitiveToTreeContent(t *testing.T) {
	dir1 := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir1, "a.txt"), []byte("1"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir1, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir1, "sub", "b.txt"), []byte("2"), 0o644))

	dir2 := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir2, "a.txt"), []byte("1"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir2, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir2, "sub", "b.txt"), []byte("different"), 0o644))

	a := New()
	require.NoError(t, a.AppendPathContents(dir1))

	b := New()
	require.NoError(t, b.AppendPathContents(dir2))

	assert.NotEqual(t, a.Finalize(), b.Finalize())
}
