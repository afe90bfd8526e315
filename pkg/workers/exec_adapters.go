package workers

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/j2clbuild/buildgraph/internal/pkg/toolexec"
)

// parseDiagnostics turns a captured tool transcript into diagnostics using
// the conventional "severity: message" line grammar shared by javac, j2cl,
// and closure-compiler-style front ends. A bare non-zero exit with no
// recognizable diagnostic line still yields a single SeverityError entry so
// that HasErrors() is never false for a failed invocation.
func parseDiagnostics(output string, failed bool) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "error:"):
			diags = append(diags, Diagnostic{Severity: SeverityError, Message: line})
		case strings.Contains(lower, "warning:"):
			diags = append(diags, Diagnostic{Severity: SeverityWarning, Message: line})
		}
	}
	if failed && !hasError(diags) {
		diags = append(diags, Diagnostic{Severity: SeverityError, Message: strings.TrimSpace(output)})
	}
	return diags
}

func hasError(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ExecJavaCompiler invokes a javac-compatible binary.
type ExecJavaCompiler struct {
	Bin string
}

func (e ExecJavaCompiler) Compile(ctx context.Context, bootstrapClasspath, userClasspath, sourceRoots []string, outputDir, scratchDir string, logger *logrus.Logger) (ToolResult, error) {
	cp := strings.Join(append(append([]string{}, bootstrapClasspath...), userClasspath...), ":")
	args := []string{"-d", outputDir}
	if cp != "" {
		args = append(args, "-cp", cp)
	}
	args = append(args, sourceRoots...)
	res := toolexec.Run(ctx, toolexec.Invocation{Name: "javac", Bin: firstNonEmpty(e.Bin, "javac"), Args: args}, logger)
	if res.Err != nil {
		return ToolResult{}, res.Err
	}
	failed := res.ExitCode != 0
	return ToolResult{Success: !failed, Diagnostics: parseDiagnostics(res.Output, failed)}, nil
}

// ExecAnnotationStripper invokes the GWT-incompatible annotation stripper.
type ExecAnnotationStripper struct {
	Bin string
}

func (e ExecAnnotationStripper) Strip(ctx context.Context, sourceRoot, outputDir string, logger *logrus.Logger) (ToolResult, error) {
	args := []string{"-d", outputDir, sourceRoot}
	res := toolexec.Run(ctx, toolexec.Invocation{Name: "gwt-incompatible-stripper", Bin: firstNonEmpty(e.Bin, "gwt-incompatible-stripper"), Args: args}, logger)
	if res.Err != nil {
		return ToolResult{}, res.Err
	}
	failed := res.ExitCode != 0
	return ToolResult{Success: !failed, Diagnostics: parseDiagnostics(res.Output, failed)}, nil
}

// ExecTranspiler invokes the Java-to-JS transpiler (j2cl-style).
type ExecTranspiler struct {
	Bin string
}

func (e ExecTranspiler) Transpile(ctx context.Context, javaFiles, nativeJSFiles, classpath []string, outputDir, scratchDir string, logger *logrus.Logger) (ToolResult, error) {
	args := []string{"-d", outputDir}
	if len(classpath) > 0 {
		args = append(args, "-cp", strings.Join(classpath, ":"))
	}
	args = append(args, javaFiles...)
	args = append(args, nativeJSFiles...)
	res := toolexec.Run(ctx, toolexec.Invocation{Name: "j2cl", Bin: firstNonEmpty(e.Bin, "j2cl"), Args: args}, logger)
	if res.Err != nil {
		return ToolResult{}, res.Err
	}
	failed := res.ExitCode != 0
	return ToolResult{Success: !failed, Diagnostics: parseDiagnostics(res.Output, failed)}, nil
}

// ExecClosureOptimizer invokes the closure-compiler-style JS optimizer.
type ExecClosureOptimizer struct {
	Bin string
}

func (e ExecClosureOptimizer) Optimize(ctx context.Context, jsRoots []string, defines map[string]string, externs []string, outputDir, scratchDir string, logger *logrus.Logger) (ToolResult, error) {
	args := []string{"--js_output_file", outputDir}
	for k, v := range defines {
		args = append(args, "--define", k+"="+v)
	}
	for _, e := range externs {
		args = append(args, "--externs", e)
	}
	args = append(args, jsRoots...)
	res := toolexec.Run(ctx, toolexec.Invocation{Name: "closure-compiler", Bin: firstNonEmpty(e.Bin, "closure-compiler"), Args: args}, logger)
	if res.Err != nil {
		return ToolResult{}, res.Err
	}
	failed := res.ExitCode != 0
	return ToolResult{Success: !failed, Diagnostics: parseDiagnostics(res.Output, failed)}, nil
}

func firstNonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
