// Package logging provides the per-task buffered logger required by §5:
// each task accumulates lines into a per-task buffer, flushed to the
// step's log file on success and additionally echoed to the global sink on
// failure. Concurrent writes to the global sink are line-atomic because
// logrus serializes Fire calls through its own internal mutex.
package logging

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// TaskLogger is a per-(artifact, step) logger that buffers output in
// memory until Flush is called.
type TaskLogger struct {
	*logrus.Logger
	buf *bytes.Buffer
}

// NewTaskLogger returns a TaskLogger at the given level, writing only to
// its private buffer until Flush.
func NewTaskLogger(level logrus.Level) *TaskLogger {
	buf := &bytes.Buffer{}
	l := logrus.New()
	l.SetOutput(buf)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &TaskLogger{Logger: l, buf: buf}
}

// Flush writes the buffered transcript to logFile. If failed, it also
// echoes the transcript to global, line-atomically (logrus itself
// serializes concurrent Fire calls from multiple goroutines).
func (t *TaskLogger) Flush(logFile string, failed bool, global *logrus.Logger) error {
	if err := os.WriteFile(logFile, t.buf.Bytes(), 0o644); err != nil {
		return err
	}
	if failed && global != nil {
		for _, line := range splitLines(t.buf.String()) {
			if line != "" {
				global.Error(line)
			}
		}
	}
	return nil
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
