package workers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/pathops"
	"github.com/j2clbuild/buildgraph/pkg/steps"
)

// runAssemble implements §4.4 Assemble: copy the Closure slot's output to
// the request's configured final target directory. Only ever invoked for
// Root, like Closure.
func runAssemble(ctx context.Context, a *artifact.Artifact, slot *cache.Slot, cacheLayout *cache.Layout, logger *logrus.Logger) (steps.Result, error) {
	hash, err := a.Hash()
	if err != nil {
		return steps.Failed, err
	}
	closureSlot := cacheLayout.Slot(a.Coords.SanitizedKey(), hash, steps.Closure)

	srcDir, ok := pathops.Exists(closureSlot.OutputDir())
	if !ok {
		return steps.Aborted, nil
	}

	target := srcDir
	if a.Request != nil && a.Request.TargetDir != "" {
		target = a.Request.TargetDir
	}

	files, err := pathops.Gather(srcDir, pathops.IncludeAll)
	if err != nil {
		return steps.Failed, err
	}
	if len(files) == 0 {
		return steps.Aborted, nil
	}
	if err := pathops.Copy(srcDir, files, target, nil); err != nil {
		return steps.Failed, err
	}

	outDir := slot.OutputDir()
	if err := pathops.CreateIfAbsent(outDir); err != nil {
		return steps.Failed, err
	}
	if err := pathops.Copy(srcDir, files, outDir, nil); err != nil {
		return steps.Failed, err
	}

	return steps.Success, nil
}
