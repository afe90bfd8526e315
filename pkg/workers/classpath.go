package workers

import (
	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/pathops"
	"github.com/j2clbuild/buildgraph/pkg/steps"
)

// shadeOutputDirName is the CompileStripped slot's optional sub-directory
// holding Shade's output, consulted first by the classpath assembly rule
// (§4.4 "Classpath assembly rule").
const shadeOutputDirName = "shade-output"

// ClasspathEntry resolves the single best-available classpath entry for dep,
// applying §4.4's shared assembly rule: prefer the dependency's shade
// output, then its compiled-stripped output, then its raw artifact file.
func ClasspathEntry(cacheLayout *cache.Layout, dep *artifact.Artifact) (string, error) {
	if dep.Kind == artifact.Ignored || dep.Kind.IsBootstrapOrJre() {
		return dep.ArtifactFile, nil
	}

	hash, err := dep.Hash()
	if err != nil {
		return "", err
	}
	slot := cacheLayout.Slot(dep.Coords.SanitizedKey(), hash, steps.CompileStripped)

	shadeOut := slot.Path + "/" + shadeOutputDirName
	if _, ok := pathops.Exists(shadeOut); ok {
		return shadeOut, nil
	}
	if _, ok := pathops.Exists(slot.OutputDir()); ok {
		return slot.OutputDir(), nil
	}
	return dep.ArtifactFile, nil
}

// Classpath resolves ClasspathEntry for every transitive dependency reachable
// from deps, depth-first in declared order, each dependency once, skipping
// empty entries.
func Classpath(cacheLayout *cache.Layout, deps []*artifact.Artifact) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	var visit func([]*artifact.Artifact) error
	visit = func(deps []*artifact.Artifact) error {
		for _, dep := range deps {
			if seen[dep.Coords.String()] {
				continue
			}
			seen[dep.Coords.String()] = true
			entry, err := ClasspathEntry(cacheLayout, dep)
			if err != nil {
				return err
			}
			if entry != "" {
				out = append(out, entry)
			}
			if err := visit(dep.DirectDeps); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(deps); err != nil {
		return nil, err
	}
	return out, nil
}
