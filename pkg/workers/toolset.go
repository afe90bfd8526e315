package workers

// Toolset bundles the external-tool adapters a build needs. Each field is
// one of §6's opaque collaborators; callers typically supply Exec*
// implementations (exec_adapters.go) or test doubles.
type Toolset struct {
	Compiler   JavaCompiler
	Stripper   AnnotationStripper
	Transpiler Transpiler
	Closure    ClosureOptimizer
}

// DefaultToolset returns a Toolset backed by the conventional binary names
// on $PATH, suitable for a production build where the real front ends are
// installed.
func DefaultToolset() Toolset {
	return Toolset{
		Compiler:   ExecJavaCompiler{},
		Stripper:   ExecAnnotationStripper{},
		Transpiler: ExecTranspiler{},
		Closure:    ExecClosureOptimizer{},
	}
}
