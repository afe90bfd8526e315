package workers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/steps"
)

// Execute dispatches to the worker for step k (§4.4), given the already-
// created, already-locked slot. Callers (pkg/scheduler) are responsible for
// the skip-predicate short-circuit (§4.3), cache-hit check, and lock
// acquisition (§4.5) — Execute's only job is to actually run the step.
func Execute(ctx context.Context, k steps.Kind, a *artifact.Artifact, slot *cache.Slot, cacheLayout *cache.Layout, tools Toolset, logger *logrus.Logger) (steps.Result, error) {
	switch k {
	case steps.Hash:
		return runHash(ctx, a, slot, logger)
	case steps.Unpack:
		return runUnpack(ctx, a, slot, logger)
	case steps.Compile:
		return runCompile(ctx, a, slot, cacheLayout, tools, logger)
	case steps.Strip:
		return runStrip(ctx, a, slot, cacheLayout, tools, logger)
	case steps.CompileStripped:
		return runCompileStripped(ctx, a, slot, cacheLayout, tools, logger)
	case steps.Transpile:
		return runTranspile(ctx, a, slot, cacheLayout, tools, logger)
	case steps.Closure:
		return runClosure(ctx, a, slot, cacheLayout, tools, logger)
	case steps.Assemble:
		return runAssemble(ctx, a, slot, cacheLayout, logger)
	default:
		return steps.Failed, fmt.Errorf("workers: unknown step kind %v", k)
	}
}
