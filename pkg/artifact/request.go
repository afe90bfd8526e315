package artifact

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/j2clbuild/buildgraph/pkg/hashutil"
)

// ClasspathScope selects which dependency scope feeds the compile/transpile
// classpath (§4.2 point 1: "classpath-scope tag").
type ClasspathScope string

const (
	ScopeCompile  ClasspathScope = "compile"
	ScopeRuntime  ClasspathScope = "runtime"
	ScopeTest     ClasspathScope = "test"
)

// FormattingOptions mirrors the closure-compiler output formatting knobs
// that are part of every output's fingerprint (§4.2 point 1).
type FormattingOptions struct {
	PrettyPrint bool
	SourceMaps  bool
}

// BuildRequest is process-wide configuration, constructed once per build and
// read by every artifact and worker. Everything is immutable after
// construction except the cancellation state (monotone, atomic). Hash
// memoization is not held here: each Artifact keeps its own memoized hash
// under its own lock.
type BuildRequest struct {
	BaseCacheDir string
	TargetDir    string

	ClasspathScope    ClasspathScope
	OptimizationLevel string
	Defines           map[string]string
	Externs           []string
	Formatting        FormattingOptions
	LanguageOut       string

	// TestID, when non-empty, marks this request as a Test-variant build
	// (§4.2 point 6); it deliberately breaks the cache versus a non-test
	// request with otherwise identical parameters.
	TestID string

	Parallelism int
	Logger      *logrus.Logger

	cancelled int32
	cancelMu  sync.Mutex
	cancelErr error
}

// NewBuildRequest constructs a BuildRequest with sane defaults. Per §9's
// design note on test-request reuse, callers needing a "Test" variant should
// construct a fresh BuildRequest (cheap: it is a plain record) rather than
// mutating and reusing one, so that each Artifact's hash memoization starts
// from a clean slate.
func NewBuildRequest(baseCacheDir, targetDir string) *BuildRequest {
	return &BuildRequest{
		BaseCacheDir:   baseCacheDir,
		TargetDir:      targetDir,
		ClasspathScope: ScopeCompile,
		Defines:        map[string]string{},
		Parallelism:    4,
		Logger:         logrus.StandardLogger(),
	}
}

// appendGlobalParams appends the request-wide parameters that influence
// every artifact's output (§4.2 point 1), in a fixed, documented order.
func (r *BuildRequest) appendGlobalParams(b *hashutil.Builder) {
	b.AppendString(r.OptimizationLevel)
	b.AppendSortedPairs(r.Defines)

	externs := append([]string(nil), r.Externs...)
	sort.Strings(externs)
	b.AppendStrings(externs)

	b.AppendString(boolToken(r.Formatting.PrettyPrint))
	b.AppendString(boolToken(r.Formatting.SourceMaps))
	b.AppendString(r.LanguageOut)
	b.AppendString(string(r.ClasspathScope))
}

func boolToken(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// Cancel marks the build cancelled, capturing the first cause. Idempotent:
// subsequent calls are no-ops and do not overwrite the recorded cause
// (§5 Cancellation, §7 Propagation policy).
func (r *BuildRequest) Cancel(cause error) {
	if atomic.CompareAndSwapInt32(&r.cancelled, 0, 1) {
		r.cancelMu.Lock()
		r.cancelErr = cause
		r.cancelMu.Unlock()
	}
}

// Cancelled reports whether the build has been cancelled.
func (r *BuildRequest) Cancelled() bool {
	return atomic.LoadInt32(&r.cancelled) != 0
}

// CancelCause returns the first cause passed to Cancel, or nil if the
// build has not been cancelled.
func (r *BuildRequest) CancelCause() error {
	r.cancelMu.Lock()
	defer r.cancelMu.Unlock()
	return r.cancelErr
}
