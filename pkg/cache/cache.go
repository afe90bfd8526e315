// Package cache implements CacheLayout: the on-disk, content-addressed
// directory structure for (artifact, step) slots, including result markers,
// per-slot logs, and the single-writer lock protocol (§5, §6).
package cache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/j2clbuild/buildgraph/pkg/steps"
)

// lockFileName is the exclusive lock file created inside a slot while a
// worker is computing it (§4.5 point 3).
const lockFileName = ".lock"

// Layout is the on-disk cache rooted at BaseDir.
type Layout struct {
	BaseDir string
}

// New returns a Layout rooted at baseDir, creating it if absent.
func New(baseDir string) (*Layout, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating cache base dir %s", baseDir)
	}
	return &Layout{BaseDir: baseDir}, nil
}

// Slot is a handle to one (artifact, step) cache directory.
type Slot struct {
	Path string
}

// Slot returns the handle for the given coordinate key, hash, and step. It
// does not create the directory; call EnsureDir for that.
func (l *Layout) Slot(coordsKey, hashHex string, k steps.Kind) *Slot {
	return &Slot{Path: steps.SlotPath(l.BaseDir, coordsKey, hashHex, k)}
}

// EnsureDir creates the slot directory if absent.
func (s *Slot) EnsureDir() error {
	if err := os.MkdirAll(s.Path, 0o755); err != nil {
		return errors.Wrapf(err, "creating slot %s", s.Path)
	}
	return nil
}

// OutputDir is the slot's output payload directory.
func (s *Slot) OutputDir() string { return steps.OutputDir(s.Path) }

// LogFile is the slot's log file path.
func (s *Slot) LogFile() string { return steps.LogFile(s.Path) }

// ReadMarker inspects the slot for an existing result marker. ok is false
// if no marker file is present (§3 StepSlot invariant: absent marker means
// not yet computed).
func (s *Slot) ReadMarker() (result steps.Result, ok bool, err error) {
	for _, r := range []steps.Result{steps.Success, steps.Failed, steps.Aborted, steps.Skipped} {
		p := filepath.Join(s.Path, r.MarkerFileName())
		if _, statErr := os.Stat(p); statErr == nil {
			return r, true, nil
		} else if !os.IsNotExist(statErr) {
			return 0, false, errors.Wrapf(statErr, "statting marker %s", p)
		}
	}
	return 0, false, nil
}

// WriteMarker clears any previous marker files and writes the zero-byte
// marker for result. It is called only by the current lock holder, after
// output/ (if any) has been fully written, so that "marker present" always
// implies "output complete" (§3 invariant).
func (s *Slot) WriteMarker(result steps.Result) error {
	for _, r := range []steps.Result{steps.Success, steps.Failed, steps.Aborted, steps.Skipped} {
		_ = os.Remove(filepath.Join(s.Path, r.MarkerFileName()))
	}
	p := filepath.Join(s.Path, result.MarkerFileName())
	f, err := os.Create(p)
	if err != nil {
		return errors.Wrapf(err, "writing marker %s", p)
	}
	return f.Close()
}

// ErrLocked is returned by TryLock when another actor already holds the
// slot's lock.
var ErrLocked = errors.New("cache: slot is locked by another actor")

// Lock is a handle to a held slot lock; Unlock releases it.
type Lock struct {
	path string
}

// TryLock attempts to become the exclusive writer for the slot by creating
// its lock file with O_EXCL. Returns ErrLocked if another actor holds it
// (§4.5 point 3: single-writer per slot, inter- and intra-process).
func (s *Slot) TryLock() (*Lock, error) {
	if err := s.EnsureDir(); err != nil {
		return nil, err
	}
	p := filepath.Join(s.Path, lockFileName)
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLocked
		}
		return nil, errors.Wrapf(err, "creating lock file %s", p)
	}
	_ = f.Close()
	return &Lock{path: p}, nil
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "releasing lock %s", l.path)
	}
	return nil
}

// WriteHashFailureLog handles §7's special case: a Hash-step failure may
// occur before the slot directory exists at all, so the log is written to
// a timestamped file directly under the cache base directory instead of
// inside the (not-yet-created) slot.
func WriteHashFailureLog(baseDir, coordsKey string, cause error) (string, error) {
	name := filepath.Join(baseDir, fileSafeTimestamp()+"-"+coordsKey+"-hash-failure.log")
	if err := os.WriteFile(name, []byte(cause.Error()+"\n"), 0o644); err != nil {
		return "", errors.Wrapf(err, "writing hash failure log %s", name)
	}
	return name, nil
}

func fileSafeTimestamp() string {
	return time.Now().UTC().Format("20060102T150405.000000000Z")
}
