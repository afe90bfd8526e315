package workers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/pathops"
	"github.com/j2clbuild/buildgraph/pkg/steps"
)

// collectTranspileOutputs gathers every reachable artifact's Transpile
// output directory (root first, then transitive dependencies in a
// deterministic DFS order), skipping artifacts whose Transpile slot has no
// output (skipped/aborted/bootstrap-or-JRE exempt).
func collectTranspileOutputs(cacheLayout *cache.Layout, root *artifact.Artifact) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	var visit func(a *artifact.Artifact) error
	visit = func(a *artifact.Artifact) error {
		key := a.Coords.String()
		if seen[key] {
			return nil
		}
		seen[key] = true

		hash, err := a.Hash()
		if err != nil {
			return err
		}
		slot := cacheLayout.Slot(a.Coords.SanitizedKey(), hash, steps.Transpile)
		if dir, ok := pathops.Exists(slot.OutputDir()); ok {
			out = append(out, dir)
		}
		for _, dep := range a.DirectDeps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}
	return out, nil
}

// runClosure implements §4.4 Closure: only ever invoked for Root (the
// SkipForNonRoot predicate short-circuits every other artifact before this
// worker runs).
func runClosure(ctx context.Context, a *artifact.Artifact, slot *cache.Slot, cacheLayout *cache.Layout, tools Toolset, logger *logrus.Logger) (steps.Result, error) {
	jsRoots, err := collectTranspileOutputs(cacheLayout, a)
	if err != nil {
		return steps.Failed, err
	}
	if len(jsRoots) == 0 {
		return steps.Aborted, nil
	}

	outDir := slot.OutputDir()
	if err := pathops.CreateIfAbsent(outDir); err != nil {
		return steps.Failed, err
	}

	defines := map[string]string{}
	var externs []string
	if a.Request != nil {
		defines = a.Request.Defines
		externs = a.Request.Externs
	}

	res, err := tools.Closure.Optimize(ctx, jsRoots, defines, externs, outDir, slot.Path, logger)
	if err != nil {
		return steps.Failed, err
	}
	if !res.Success || res.HasErrors() {
		return steps.Failed, diagnosticsError(res)
	}
	return steps.Success, nil
}
