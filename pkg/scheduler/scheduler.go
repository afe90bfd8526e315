// Package scheduler drives the per-(artifact, step) task graph to
// completion (§4.5): it respects the StepKind chain's sequential order
// within a single artifact, the DAG's dependency order across artifacts,
// content-addressed cache reuse, the single-writer-per-slot protocol, and
// cancel-on-first-failure. Where the pipeline's original hand-rolled
// sync.WaitGroup/error-channel fan-out (stages.go) submitted a fixed batch
// and waited for all of it, this scheduler submits tasks lazily as their
// predecessors resolve, using golang.org/x/sync/errgroup to fan out across
// an artifact's dependency set and a semaphore to cap overall concurrency
// to BuildRequest.Parallelism.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/j2clbuild/buildgraph/internal/pkg/logging"
	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/steps"
	"github.com/j2clbuild/buildgraph/pkg/workers"
)

// lockPollInterval is how often a task re-checks a slot it lost the
// TryLock race for (§4.5 point 3: "the loser awaits the winner's result").
const lockPollInterval = 20 * time.Millisecond

// Scheduler runs a build graph to completion against a cache.Layout.
type Scheduler struct {
	Cache   *cache.Layout
	Request *artifact.BuildRequest
	Tools   workers.Toolset

	sem chan struct{}

	mu    sync.Mutex
	tasks map[string]*taskState
}

type taskState struct {
	done   chan struct{}
	result steps.Result
	err    error
}

// New constructs a Scheduler. The request's Parallelism bounds the number
// of worker invocations in flight at once; a nil request or a Parallelism
// <= 0 falls back to 4.
func New(cacheLayout *cache.Layout, req *artifact.BuildRequest, tools workers.Toolset) *Scheduler {
	n := 4
	if req != nil && req.Parallelism > 0 {
		n = req.Parallelism
	}
	return &Scheduler{
		Cache:   cacheLayout,
		Request: req,
		Tools:   tools,
		sem:     make(chan struct{}, n),
		tasks:   make(map[string]*taskState),
	}
}

// Run drives root through every step of the chain and returns the first
// error encountered, if any (§4.5: "cancellation on first failure").
func (s *Scheduler) Run(ctx context.Context, root *artifact.Artifact) error {
	_, err := s.ensureStep(ctx, root, steps.Assemble)
	return err
}

// ensureStep returns the terminal result for (a, k), running it (and
// everything it transitively depends on) at most once regardless of how
// many concurrent callers request it — diamond dependencies are resolved
// by the de-duplicating task map, not by rerunning the work.
func (s *Scheduler) ensureStep(ctx context.Context, a *artifact.Artifact, k steps.Kind) (steps.Result, error) {
	key := fmt.Sprintf("%s#%s", a.Coords.String(), k.String())

	s.mu.Lock()
	t, exists := s.tasks[key]
	if !exists {
		t = &taskState{done: make(chan struct{})}
		s.tasks[key] = t
	}
	s.mu.Unlock()

	if !exists {
		go s.runTask(ctx, a, k, t)
	}

	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return steps.Failed, ctx.Err()
	}
}

func (s *Scheduler) runTask(ctx context.Context, a *artifact.Artifact, k steps.Kind, t *taskState) {
	defer close(t.done)

	if prev, ok := predecessor(k); ok {
		res, err := s.ensureStep(ctx, a, prev)
		if err != nil {
			t.result, t.err = steps.Failed, err
			return
		}
		if !res.AdvancesChain() {
			t.result = steps.Failed
			return
		}
	}

	// Hashing before the dependency fan-out surfaces a dependency cycle as
	// a hash error, instead of a task waiting on itself through the graph.
	if k == steps.Hash {
		if _, err := a.Hash(); err != nil {
			s.failHash(a, err, t)
			return
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, dep := range a.DirectDeps {
		dep := dep
		g.Go(func() error {
			res, err := s.ensureStep(gctx, dep, k)
			if err != nil {
				return err
			}
			if !res.AdvancesChain() {
				return fmt.Errorf("scheduler: dependency %s failed at step %s", dep.Coords, k)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if s.Request != nil {
			s.Request.Cancel(err)
		}
		t.result, t.err = steps.Failed, err
		return
	}

	if s.Request != nil && s.Request.Cancelled() {
		t.result = steps.Aborted
		return
	}

	if k.ShouldSkip(a) {
		s.recordSkip(a, k, t)
		return
	}

	s.runWorker(ctx, a, k, t)
}

func predecessor(k steps.Kind) (steps.Kind, bool) {
	if k == steps.Hash {
		return 0, false
	}
	return k - 1, true
}

func (s *Scheduler) recordSkip(a *artifact.Artifact, k steps.Kind, t *taskState) {
	hash, err := a.Hash()
	if err != nil {
		s.failHash(a, err, t)
		return
	}
	slot := s.Cache.Slot(a.Coords.SanitizedKey(), hash, k)
	if err := slot.EnsureDir(); err != nil {
		t.result, t.err = steps.Failed, err
		return
	}
	if err := slot.WriteMarker(steps.Success); err != nil {
		t.result, t.err = steps.Failed, err
		return
	}
	t.result = steps.Success
}

// failHash implements §7's special case: a Hash-step failure can occur
// before any slot directory exists (the hash itself is what names the
// slot), so its log goes to a timestamped file directly under the cache
// base directory instead of inside a slot.
func (s *Scheduler) failHash(a *artifact.Artifact, err error, t *taskState) {
	if s.Cache != nil {
		_, _ = cache.WriteHashFailureLog(s.Cache.BaseDir, a.Coords.SanitizedKey(), err)
	}
	if s.Request != nil {
		s.Request.Cancel(err)
	}
	t.result, t.err = steps.Failed, err
}

func (s *Scheduler) runWorker(ctx context.Context, a *artifact.Artifact, k steps.Kind, t *taskState) {
	hash, err := a.Hash()
	if err != nil {
		s.failHash(a, err, t)
		return
	}
	slot := s.Cache.Slot(a.Coords.SanitizedKey(), hash, k)

	if marker, ok, err := slot.ReadMarker(); err == nil && ok && marker != steps.Failed {
		t.result = marker
		return
	}

	lock, err := s.acquireOrAwait(ctx, slot)
	if err != nil {
		t.result, t.err = steps.Failed, err
		return
	}
	if lock == nil {
		// Another actor finished the slot while we awaited its lock.
		marker, ok, err := slot.ReadMarker()
		if err != nil {
			t.result, t.err = steps.Failed, err
			return
		}
		if ok {
			t.result = marker
			return
		}
		t.result, t.err = steps.Failed, fmt.Errorf("scheduler: slot %s unlocked with no marker", slot.Path)
		return
	}
	defer func() { _ = lock.Unlock() }()

	// Re-check under the lock: a prior writer may have completed and
	// released the lock between our initial ReadMarker and TryLock.
	if marker, ok, err := slot.ReadMarker(); err == nil && ok && marker != steps.Failed {
		t.result = marker
		return
	}

	if s.Request != nil && s.Request.Cancelled() {
		t.result = steps.Aborted
		return
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		t.result, t.err = steps.Failed, ctx.Err()
		return
	}
	defer func() { <-s.sem }()

	if err := slot.EnsureDir(); err != nil {
		t.result, t.err = steps.Failed, err
		return
	}

	taskLogger := logging.NewTaskLogger(logrus.DebugLevel)
	var global *logrus.Logger
	if a.Request != nil && a.Request.Logger != nil {
		global = a.Request.Logger
	}

	result, runErr := workers.Execute(ctx, k, a, slot, s.Cache, s.Tools, taskLogger.Logger)
	failed := runErr != nil || result == steps.Failed
	_ = taskLogger.Flush(slot.LogFile(), failed, global)

	if failed {
		if runErr == nil {
			runErr = fmt.Errorf("scheduler: step %s failed for %s", k, a.Coords)
		}
		if s.Request != nil {
			s.Request.Cancel(runErr)
		}
		_ = slot.WriteMarker(steps.Failed)
		t.result, t.err = steps.Failed, runErr
		return
	}

	if err := slot.WriteMarker(result); err != nil {
		t.result, t.err = steps.Failed, err
		return
	}
	t.result = result
}

// acquireOrAwait tries to become the slot's writer. If another actor
// already holds the lock, it polls until either the holder has written a
// non-Failed result marker, returning (nil, nil) in that case, or the lock
// is released and can be taken.
func (s *Scheduler) acquireOrAwait(ctx context.Context, slot *cache.Slot) (*cache.Lock, error) {
	for {
		lock, err := slot.TryLock()
		if err == nil {
			return lock, nil
		}
		if err != cache.ErrLocked {
			return nil, err
		}
		if marker, ok, rerr := slot.ReadMarker(); rerr == nil && ok && marker != steps.Failed {
			return nil, nil
		}
		select {
		case <-time.After(lockPollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
