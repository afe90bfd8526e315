package workers

import "strings"

// diagnosticsError renders a ToolResult's error-severity diagnostics into a
// single ToolError; if there are none, the error carries a generic failure
// message instead.
func diagnosticsError(res ToolResult) error {
	var lines []string
	for _, d := range res.Diagnostics {
		if d.Severity == SeverityError {
			lines = append(lines, d.Message)
		}
	}
	if len(lines) == 0 {
		lines = []string{"tool reported failure with no diagnostics"}
	}
	return &ToolError{Diagnostics: lines}
}

// ToolError is §7's ToolError kind: the external tool reported error-
// severity diagnostics.
type ToolError struct {
	Diagnostics []string
}

func (e *ToolError) Error() string {
	return "tool error: " + strings.Join(e.Diagnostics, "; ")
}
