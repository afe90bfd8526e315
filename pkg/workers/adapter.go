// Package workers implements the StepWorkers component (§4.4): one adapter
// per pipeline step, dispatching either to an in-process file-tree
// transform (pkg/transform) or to an external-tool adapter (§6) for the
// third-party compiler front-ends this spec treats as opaque collaborators.
package workers

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Severity tags a single diagnostic message from an external tool.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Diagnostic is one message reported by an external tool invocation.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// ToolResult is what an external-tool adapter returns (§6): either success,
// or a list of severity-tagged diagnostics (at least one of which is
// SeverityError when Success is false).
type ToolResult struct {
	Success     bool
	Diagnostics []Diagnostic
}

// HasErrors reports whether any diagnostic is error-severity (§4.4 Compile:
// "Failed on any compiler diagnostic of error severity").
func (r ToolResult) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ToolAdapter is the external-tool adapter interface from §6: it writes to
// outputDir only, receiving a caller-supplied scratch directory for any
// temporary files it needs.
type ToolAdapter interface {
	Invoke(ctx context.Context, inputs []string, outputDir, scratchDir string, logger *logrus.Logger) (ToolResult, error)
}

// JavaCompiler wraps a javac-compatible front end.
type JavaCompiler interface {
	Compile(ctx context.Context, bootstrapClasspath, userClasspath []string, sourceRoots []string, outputDir, scratchDir string, logger *logrus.Logger) (ToolResult, error)
}

// AnnotationStripper wraps the GWT-incompatible annotation preprocessor; it
// rewrites Java sources in place on a copy (§4.4 Strip).
type AnnotationStripper interface {
	Strip(ctx context.Context, sourceRoot, outputDir string, logger *logrus.Logger) (ToolResult, error)
}

// Transpiler wraps the Java-to-JavaScript transpiler front end (§4.4
// Transpile).
type Transpiler interface {
	Transpile(ctx context.Context, javaFiles, nativeJSFiles []string, classpath []string, outputDir, scratchDir string, logger *logrus.Logger) (ToolResult, error)
}

// ClosureOptimizer wraps the whole-program JS optimizer (§4.4 Closure).
type ClosureOptimizer interface {
	Optimize(ctx context.Context, jsRoots []string, defines map[string]string, externs []string, outputDir, scratchDir string, logger *logrus.Logger) (ToolResult, error)
}
