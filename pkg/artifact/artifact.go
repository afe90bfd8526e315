package artifact

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/j2clbuild/buildgraph/pkg/hashutil"
)

// Kind classifies an artifact; classification drives the per-step skip
// predicates in pkg/steps.
type Kind int

const (
	// Dependency is an ordinary transitive dependency of the root.
	Dependency Kind = iota
	// Root is the artifact the build was requested for.
	Root
	// JavacBootstrap is a prebuilt compiler bootstrap classpath artifact.
	JavacBootstrap
	// JreBinary is a prebuilt JRE/standard-library artifact.
	JreBinary
	// Ignored artifacts always contribute their raw artifactFile to
	// downstream classpaths (workers.ClasspathEntry). The step skip
	// predicates do not single them out: they pass through the pipeline
	// like a Dependency.
	Ignored
)

func (k Kind) String() string {
	switch k {
	case Root:
		return "root"
	case JavacBootstrap:
		return "javac-bootstrap"
	case JreBinary:
		return "jre-binary"
	case Ignored:
		return "ignored"
	default:
		return "dependency"
	}
}

// IsBootstrapOrJre reports whether the artifact is exempt from most
// pipeline steps per §4.3.
func (k Kind) IsBootstrapOrJre() bool {
	return k == JavacBootstrap || k == JreBinary
}

// ShadeMapping renames a source-package prefix to a replacement prefix. An
// empty Replacement moves the package to the classpath root (§4.6.2).
type ShadeMapping struct {
	Find    string
	Replace string
}

// Artifact is a resolved node in the build graph. It is immutable after
// graph construction except for its lazily-computed, memoized hash.
type Artifact struct {
	Coords        Coords
	Kind          Kind
	DirectDeps    []*Artifact
	ShadeMappings []ShadeMapping

	// ProcessingSkipped records a resolver decision to exclude this
	// artifact's own source from the pipeline. The scheduler and workers
	// do not read it: setting it does not by itself skip any step.
	ProcessingSkipped bool

	// ArtifactFile is the path to the distributable archive, populated
	// for Dependency/JRE/Bootstrap/Ignored kinds.
	ArtifactFile string

	// SourceRoots is populated by the resolver for Root artifacts: the
	// directories containing the user's own, already-checked-out source,
	// as opposed to an archive that must be unpacked.
	SourceRoots []string

	Request *BuildRequest

	hashMu    sync.Mutex
	hashDone  bool
	hashVal   string
	hashErr   error
}

// Hash returns the memoized artifact fingerprint, computing it on first
// access per §4.2. Safe for concurrent use: the write-once cell is guarded
// by a per-artifact lock that is released while the value is computed, so
// concurrent first callers may each compute it, but only the first result
// to finish is stored and every caller returns that stored value.
func (a *Artifact) Hash() (string, error) {
	return a.hashWithVisiting(nil)
}

// hashWithVisiting is the recursion-aware entry point used both externally
// (Hash, with a fresh stack) and internally (by a dependent computing its
// own hash). visiting is the set of coordinate keys currently being
// computed on the current call stack; re-entering one is a cycle, which the
// DAG invariant says cannot happen organically but which implementers MUST
// still detect defensively (§4.2).
func (a *Artifact) hashWithVisiting(visiting map[string]bool) (string, error) {
	a.hashMu.Lock()
	if a.hashDone {
		defer a.hashMu.Unlock()
		return a.hashVal, a.hashErr
	}

	key := a.Coords.String()
	if visiting[key] {
		a.hashMu.Unlock()
		return "", errors.Errorf("artifact: cycle detected computing hash of %s", key)
	}
	nextVisiting := make(map[string]bool, len(visiting)+1)
	for k := range visiting {
		nextVisiting[k] = true
	}
	nextVisiting[key] = true

	// Release the lock while computing so that independent artifacts
	// (including diamond-shared dependencies reached via a different
	// path) can be hashed concurrently; re-lock to publish the result.
	a.hashMu.Unlock()
	val, err := a.computeHash(nextVisiting)

	a.hashMu.Lock()
	defer a.hashMu.Unlock()
	if !a.hashDone {
		a.hashVal, a.hashErr, a.hashDone = val, err, true
	}
	return a.hashVal, a.hashErr
}

// computeHash implements §4.2's ordered fingerprint definition.
func (a *Artifact) computeHash(visiting map[string]bool) (string, error) {
	b := hashutil.New()

	if a.Request != nil {
		a.Request.appendGlobalParams(b)
	}

	b.AppendString(a.Coords.String())

	for _, dep := range a.DirectDeps {
		depHash, err := dep.hashWithVisiting(visiting)
		if err != nil {
			return "", err
		}
		b.AppendString(depHash)
	}

	if a.Kind != Root {
		if a.ArtifactFile != "" {
			if err := b.AppendFile(a.ArtifactFile); err != nil {
				return "", err
			}
		}
	}

	shadePairs := make(map[string]string, len(a.ShadeMappings))
	for _, m := range a.ShadeMappings {
		shadePairs[m.Find] = m.Replace
	}
	b.AppendSortedPairs(shadePairs)

	if a.Request != nil && a.Request.TestID != "" {
		b.AppendString(fmt.Sprintf("test:%s", a.Request.TestID))
	}

	return b.Finalize(), nil
}
