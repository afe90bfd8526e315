// Package steps defines the fixed pipeline chain (§4.3): the ordered
// enumeration of StepKinds, their per-step skip predicates, their on-disk
// directory naming, and the Result type and slot path helpers the
// scheduler and workers share.
package steps

import (
	"fmt"
	"path/filepath"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
)

// Kind is one stage of the fixed pipeline chain.
type Kind int

const (
	Hash Kind = iota
	Unpack
	Compile
	Strip
	CompileStripped
	Transpile
	Closure
	Assemble

	numKinds
)

// All returns the fixed chain in order.
func All() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// descriptor holds the per-kind static metadata from §4.3's table.
type descriptor struct {
	suffix                 string
	skipForBootstrapOrJre  bool
	skipForNonRoot         bool
}

var descriptors = [numKinds]descriptor{
	Hash:            {suffix: "0-hash", skipForBootstrapOrJre: false, skipForNonRoot: false},
	Unpack:          {suffix: "1-unpack", skipForBootstrapOrJre: true, skipForNonRoot: false},
	Compile:         {suffix: "2-compile", skipForBootstrapOrJre: true, skipForNonRoot: false},
	Strip:           {suffix: "3-gwt-incompatible-stripped-source", skipForBootstrapOrJre: true, skipForNonRoot: false},
	CompileStripped: {suffix: "4-compile-gwt-incompatible-stripped", skipForBootstrapOrJre: true, skipForNonRoot: false},
	Transpile:       {suffix: "5-transpile", skipForBootstrapOrJre: true, skipForNonRoot: false},
	Closure:         {suffix: "6-closure", skipForBootstrapOrJre: true, skipForNonRoot: true},
	Assemble:        {suffix: "7-output-assembler", skipForBootstrapOrJre: true, skipForNonRoot: true},
}

var kindNames = [numKinds]string{
	Hash: "hash", Unpack: "unpack", Compile: "compile", Strip: "strip",
	CompileStripped: "compile-stripped", Transpile: "transpile",
	Closure: "closure", Assemble: "assemble",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// DirSuffix returns the step's on-disk directory suffix, part of the
// external filesystem contract (§6).
func (k Kind) DirSuffix() string { return descriptors[k].suffix }

// SkipForBootstrapOrJre reports whether this step is always skipped for
// JavacBootstrap/JreBinary artifacts.
func (k Kind) SkipForBootstrapOrJre() bool { return descriptors[k].skipForBootstrapOrJre }

// SkipForNonRoot reports whether this step is skipped for any artifact that
// is not the build's Root.
func (k Kind) SkipForNonRoot() bool { return descriptors[k].skipForNonRoot }

// Successor returns the next step in the chain, and false if k is terminal.
func (k Kind) Successor() (Kind, bool) {
	if k+1 >= numKinds {
		return 0, false
	}
	return k + 1, true
}

// ShouldSkip evaluates this step's predicates against a, per §4.3: a
// predicate match means the step records Success without invoking its
// worker.
func (k Kind) ShouldSkip(a *artifact.Artifact) bool {
	if k.SkipForBootstrapOrJre() && a.Kind.IsBootstrapOrJre() {
		return true
	}
	if k.SkipForNonRoot() && a.Kind != artifact.Root {
		return true
	}
	return false
}

// Result is the terminal outcome of a single (artifact, step) execution.
type Result int

const (
	Success Result = iota
	Failed
	Aborted
	Skipped
)

func (r Result) String() string {
	switch r {
	case Success:
		return "SUCCESS"
	case Failed:
		return "FAILED"
	case Aborted:
		return "ABORTED"
	case Skipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// AdvancesChain reports whether this result permits moving to the
// successor step (§3 StepResult: only Success and Skipped do; Aborted also
// advances per §4.3/§4.4, Failed does not).
func (r Result) AdvancesChain() bool {
	return r == Success || r == Skipped || r == Aborted
}

// MarkerFileName returns the zero-byte marker file name for r (§6).
func (r Result) MarkerFileName() string {
	return "result." + r.String()
}

// SlotPath returns the on-disk directory for the (coordsKey, hashHex, step)
// triple, per §6's filesystem layout.
func SlotPath(baseDir, coordsKey, hashHex string, k Kind) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s-%s", coordsKey, hashHex), k.DirSuffix())
}

// OutputDir returns the slot's output payload directory.
func OutputDir(slotPath string) string {
	return filepath.Join(slotPath, "output")
}

// LogFile returns the slot's log file path.
func LogFile(slotPath string) string {
	return filepath.Join(slotPath, "log.txt")
}
