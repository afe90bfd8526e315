package workers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/pathops"
	"github.com/j2clbuild/buildgraph/pkg/steps"
	"github.com/j2clbuild/buildgraph/pkg/transform"
)

// stripperAdapter adapts a workers.AnnotationStripper to transform.Stripper
// so pkg/transform stays free of any dependency on pkg/workers.
type stripperAdapter struct {
	inner AnnotationStripper
}

func (s stripperAdapter) Strip(ctx context.Context, sourceRoot, outputDir string, logger *logrus.Logger) (transform.StripResult, error) {
	res, err := s.inner.Strip(ctx, sourceRoot, outputDir, logger)
	if err != nil {
		return transform.StripResult{}, err
	}
	var diags []string
	for _, d := range res.Diagnostics {
		diags = append(diags, d.Message)
	}
	return transform.StripResult{Success: res.Success, Diagnostics: diags}, nil
}

// runStrip implements §4.4 Strip by delegating to pkg/transform's
// StripSources over this artifact's Unpack output.
func runStrip(ctx context.Context, a *artifact.Artifact, slot *cache.Slot, cacheLayout *cache.Layout, tools Toolset, logger *logrus.Logger) (steps.Result, error) {
	unpackSlot := cacheLayoutMustHash(cacheLayout, a, steps.Unpack)
	if _, ok := pathops.Exists(unpackSlot.OutputDir()); !ok {
		return steps.Aborted, nil
	}

	found, res, err := transform.StripSources(
		ctx,
		[]string{unpackSlot.OutputDir()},
		slot.OutputDir(),
		stripperAdapter{inner: tools.Stripper},
		logger,
		func(rel string) {
			logger.WithField("path", rel).Debug("strip source root overwrote a prior root's file")
		},
	)
	if err != nil {
		return steps.Failed, err
	}
	if !found {
		return steps.Aborted, nil
	}
	if !res.Success {
		return steps.Failed, &ToolError{Diagnostics: res.Diagnostics}
	}
	return steps.Success, nil
}
