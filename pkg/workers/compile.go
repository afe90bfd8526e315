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

// bootstrapClasspath collects the raw artifact files of every JavacBootstrap
// dependency reachable from a, used as the compiler's fixed bootstrap
// classpath (§4.4 Compile: "bootstrap classpath").
func bootstrapClasspath(a *artifact.Artifact) []string {
	seen := make(map[string]bool)
	var out []string
	var visit func(*artifact.Artifact)
	visit = func(n *artifact.Artifact) {
		for _, d := range n.DirectDeps {
			key := d.Coords.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			if d.Kind == artifact.JavacBootstrap && d.ArtifactFile != "" {
				out = append(out, d.ArtifactFile)
			}
			visit(d)
		}
	}
	visit(a)
	return out
}

// runCompileFrom compiles sourceDir (the output of a prior step) into
// slot's output directory, using the shared classpath assembly rule for
// this artifact's transitive dependencies (§4.4 Compile/CompileStripped).
func runCompileFrom(ctx context.Context, a *artifact.Artifact, slot *cache.Slot, sourceDir string, cacheLayout *cache.Layout, tools Toolset, logger *logrus.Logger) (steps.Result, error) {
	if _, ok := pathops.Exists(sourceDir); !ok {
		return steps.Aborted, nil
	}

	userCP, err := Classpath(cacheLayout, a.DirectDeps)
	if err != nil {
		return steps.Failed, err
	}
	bootCP := bootstrapClasspath(a)

	outDir := slot.OutputDir()
	if err := pathops.CreateIfAbsent(outDir); err != nil {
		return steps.Failed, err
	}

	res, err := tools.Compiler.Compile(ctx, bootCP, userCP, []string{sourceDir}, outDir, slot.Path, logger)
	if err != nil {
		return steps.Failed, err
	}
	if !res.Success || res.HasErrors() {
		return steps.Failed, diagnosticsError(res)
	}
	return steps.Success, nil
}

func runCompile(ctx context.Context, a *artifact.Artifact, slot *cache.Slot, cacheLayout *cache.Layout, tools Toolset, logger *logrus.Logger) (steps.Result, error) {
	unpackSlot := cacheLayoutMustHash(cacheLayout, a, steps.Unpack)
	return runCompileFrom(ctx, a, slot, unpackSlot.OutputDir(), cacheLayout, tools, logger)
}

// runCompileStripped compiles the Strip step's output and, when the
// artifact declares shade mappings, additionally runs Shade against the
// Strip step's source tree into the slot's shade-output subdirectory
// (§4.6.2), consulted first by the classpath assembly rule.
func runCompileStripped(ctx context.Context, a *artifact.Artifact, slot *cache.Slot, cacheLayout *cache.Layout, tools Toolset, logger *logrus.Logger) (steps.Result, error) {
	stripSlot := cacheLayoutMustHash(cacheLayout, a, steps.Strip)
	result, err := runCompileFrom(ctx, a, slot, stripSlot.OutputDir(), cacheLayout, tools, logger)
	if err != nil || result == steps.Failed {
		return result, err
	}

	if len(a.ShadeMappings) == 0 {
		return result, nil
	}

	// Shade rewrites the stripped SOURCE tree (not the compiled class
	// output of this same step): the rewritten .java source is what
	// downstream CompileStripped/Transpile invocations of *dependents*
	// actually need on their classpath/sourcepath (§4.6.2, §4.4's
	// classpath assembly rule).
	shadeOut := slot.Path + "/" + shadeOutputDirName
	status, err := transform.Shade(stripSlot.OutputDir(), a.ShadeMappings, shadeOut)
	if err != nil {
		return steps.Failed, err
	}
	logger.WithFields(logrus.Fields{
		"artifact": a.Coords.String(),
		"shaded":   status == transform.ShadeRan,
	}).Debug("shade transform applied")
	return result, nil
}

func cacheLayoutMustHash(cacheLayout *cache.Layout, a *artifact.Artifact, k steps.Kind) *cache.Slot {
	hash, err := a.Hash()
	if err != nil {
		// Hash errors are caught by the Hash step itself, which must
		// run (and succeed) before any later step is scheduled; a
		// failure here indicates an invariant violation.
		panic(err)
	}
	return cacheLayout.Slot(a.Coords.SanitizedKey(), hash, k)
}
