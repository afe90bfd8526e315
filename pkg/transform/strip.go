// Package transform implements the two file-tree transforms central to
// cache correctness (§4.6): GwtIncompatibleStrip (ignore-file-honoring copy
// plus annotation stripper invocation) and Shade (package rename across
// source text and class references).
package transform

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/j2clbuild/buildgraph/pkg/pathops"
)

// javaExts/jsExts classify gathered files by role during Strip (§4.4).
var javaExts = pathops.IncludeExt(".java")
var jsExts = pathops.IncludeExt(".js")

// Stripper is the minimal surface StripSources needs from an annotation
// stripper adapter, kept separate from pkg/workers so pkg/transform has no
// import-cycle dependency on it.
type Stripper interface {
	Strip(ctx context.Context, sourceRoot, outputDir string, logger *logrus.Logger) (StripResult, error)
}

// StripResult mirrors workers.ToolResult's shape without importing it.
type StripResult struct {
	Success     bool
	Diagnostics []string
}

// OverwriteLogger receives a callback for every relative path that a later
// source root overwrites when copying from multiple roots (§9(c)).
type OverwriteLogger func(relPath string)

// StripSources implements the Strip step's transform (§4.4, §4.6.1):
//  1. gather+copy every source root into outputDir, honoring each
//     directory's ignore file, later roots winning on path collision;
//  2. invoke the annotation stripper in place on the copy;
//  3. copy `.js` files verbatim from the same source roots (not subject to
//     stripping, but still ignore-file filtered).
//
// Returns (false, nil) with outputDir removed if no Java sources were found
// at all (§4.4: "If no Java files were found, returns Aborted").
func StripSources(ctx context.Context, sourceRoots []string, outputDir string, stripper Stripper, logger *logrus.Logger, onOverwrite OverwriteLogger) (found bool, result StripResult, err error) {
	javaSeen := false
	for _, root := range sourceRoots {
		files, gErr := pathops.Gather(root, javaExts)
		if gErr != nil {
			return false, StripResult{}, gErr
		}
		if len(files) > 0 {
			javaSeen = true
		}
	}
	if !javaSeen {
		_ = pathops.RemoveAll(outputDir)
		return false, StripResult{}, nil
	}

	if err := pathops.CopyFromRoots(sourceRoots, javaExts, outputDir, nil, onOverwrite); err != nil {
		return true, StripResult{}, errors.Wrap(err, "copying source roots for strip")
	}

	res, err := stripper.Strip(ctx, outputDir, outputDir, logger)
	if err != nil {
		return true, StripResult{}, errors.Wrap(err, "invoking annotation stripper")
	}
	if !res.Success {
		return true, res, nil
	}

	if err := pathops.CopyFromRoots(sourceRoots, jsExts, outputDir, nil, onOverwrite); err != nil {
		return true, StripResult{}, errors.Wrap(err, "copying verbatim js sources for strip")
	}

	return true, res, nil
}
