package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushWritesBufferedTranscriptToFile(t *testing.T) {
	tl := NewTaskLogger(logrus.InfoLevel)
	tl.Info("hello")
	tl.Info("world")

	logFile := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, tl.Flush(logFile, false, nil))

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "hello")
	assert.Contains(t, string(content), "world")
}

func TestFlushDoesNotEchoToGlobalOnSuccess(t *testing.T) {
	tl := NewTaskLogger(logrus.InfoLevel)
	tl.Info("quiet success")

	var globalBuf bytes.Buffer
	global := logrus.New()
	global.SetOutput(&globalBuf)

	logFile := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, tl.Flush(logFile, false, global))

	assert.Empty(t, globalBuf.String())
}

func TestFlushEchoesToGlobalOnFailure(t *testing.T) {
	tl := NewTaskLogger(logrus.InfoLevel)
	tl.Info("line one")
	tl.Info("line two")

	var globalBuf bytes.Buffer
	global := logrus.New()
	global.SetOutput(&globalBuf)

	logFile := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, tl.Flush(logFile, true, global))

	assert.Contains(t, globalBuf.String(), "line one")
	assert.Contains(t, globalBuf.String(), "line two")
}

func TestFlushOnFailureWithNilGlobalDoesNotPanic(t *testing.T) {
	tl := NewTaskLogger(logrus.InfoLevel)
	tl.Info("line")
	logFile := filepath.Join(t.TempDir(), "log.txt")
	assert.NotPanics(t, func() {
		require.NoError(t, tl.Flush(logFile, true, nil))
	})
}

func TestSplitLinesHandlesTrailingAndMissingNewline(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{}, append([]string{}, splitLines("")...))
}
