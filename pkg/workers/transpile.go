package workers

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/pathops"
	"github.com/j2clbuild/buildgraph/pkg/steps"
)

// ownSourceInput resolves the source tree this artifact itself should be
// transpiled from: its own shade output if shading ran, else the stripped
// source (§4.6.2, §4.4).
func ownSourceInput(cacheLayout *cache.Layout, a *artifact.Artifact) (string, error) {
	hash, err := a.Hash()
	if err != nil {
		return "", err
	}
	stripSlot := cacheLayout.Slot(a.Coords.SanitizedKey(), hash, steps.Strip)
	compiledSlot := cacheLayout.Slot(a.Coords.SanitizedKey(), hash, steps.CompileStripped)

	shadeOut := compiledSlot.Path + "/" + shadeOutputDirName
	if _, ok := pathops.Exists(shadeOut); ok {
		return shadeOut, nil
	}
	return stripSlot.OutputDir(), nil
}

func isNativeJS(relPath string) bool  { return strings.HasSuffix(strings.ToLower(relPath), ".native.js") }
func isPlainJS(relPath string) bool {
	lower := strings.ToLower(relPath)
	return strings.HasSuffix(lower, ".js") && !strings.HasSuffix(lower, ".native.js")
}

// runTranspile implements §4.4 Transpile: partition by extension, invoke
// the transpiler over .java + .native.js, then copy plain .js verbatim.
func runTranspile(ctx context.Context, a *artifact.Artifact, slot *cache.Slot, cacheLayout *cache.Layout, tools Toolset, logger *logrus.Logger) (steps.Result, error) {
	sourceDir, err := ownSourceInput(cacheLayout, a)
	if err != nil {
		return steps.Failed, err
	}
	if _, ok := pathops.Exists(sourceDir); !ok {
		return steps.Aborted, nil
	}

	javaFiles, err := pathops.Gather(sourceDir, pathops.IncludeExt(".java"))
	if err != nil {
		return steps.Failed, err
	}
	nativeFiles, err := pathops.Gather(sourceDir, isNativeJS)
	if err != nil {
		return steps.Failed, err
	}
	plainJSFiles, err := pathops.Gather(sourceDir, isPlainJS)
	if err != nil {
		return steps.Failed, err
	}

	if len(javaFiles) == 0 && len(nativeFiles) == 0 && len(plainJSFiles) == 0 {
		return steps.Aborted, nil
	}

	classpath, err := Classpath(cacheLayout, a.DirectDeps)
	if err != nil {
		return steps.Failed, err
	}

	outDir := slot.OutputDir()
	if err := pathops.CreateIfAbsent(outDir); err != nil {
		return steps.Failed, err
	}

	if len(javaFiles) > 0 || len(nativeFiles) > 0 {
		res, err := tools.Transpiler.Transpile(ctx, javaFiles, nativeFiles, classpath, outDir, slot.Path, logger)
		if err != nil {
			return steps.Failed, err
		}
		if !res.Success || res.HasErrors() {
			return steps.Failed, diagnosticsError(res)
		}
	}

	if len(plainJSFiles) > 0 {
		if err := pathops.Copy(sourceDir, plainJSFiles, outDir, nil); err != nil {
			return steps.Failed, err
		}
	}

	return steps.Success, nil
}
