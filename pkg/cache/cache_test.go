package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j2clbuild/buildgraph/pkg/steps"
)

func TestSlotMarkerRoundTrip(t *testing.T) {
	layout, err := New(t.TempDir())
	require.NoError(t, err)

	slot := layout.Slot("g_n_1_0", "abc123", steps.Compile)
	require.NoError(t, slot.EnsureDir())

	_, ok, err := slot.ReadMarker()
	require.NoError(t, err)
	assert.False(t, ok, "no marker written yet")

	require.NoError(t, slot.WriteMarker(steps.Success))
	result, ok, err := slot.ReadMarker()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, steps.Success, result)
}

func TestWriteMarkerClearsPriorMarker(t *testing.T) {
	layout, err := New(t.TempDir())
	require.NoError(t, err)
	slot := layout.Slot("g_n_1_0", "abc123", steps.Compile)
	require.NoError(t, slot.EnsureDir())

	require.NoError(t, slot.WriteMarker(steps.Failed))
	require.NoError(t, slot.WriteMarker(steps.Success))

	result, ok, err := slot.ReadMarker()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, steps.Success, result)
}

func TestTryLockIsSingleWriter(t *testing.T) {
	layout, err := New(t.TempDir())
	require.NoError(t, err)
	slot := layout.Slot("g_n_1_0", "abc123", steps.Compile)

	lock, err := slot.TryLock()
	require.NoError(t, err)
	require.NotNil(t, lock)

	_, err = slot.TryLock()
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, lock.Unlock())

	lock2, err := slot.TryLock()
	require.NoError(t, err)
	require.NoError(t, lock2.Unlock())
}

func TestWriteHashFailureLogWritesUnderBaseDirNotSlot(t *testing.T) {
	base := t.TempDir()
	path, err := WriteHashFailureLog(base, "g_n_1_0", assertErr("boom"))
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, base, filepath.Dir(path))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
