package engine

import (
	"fmt"
	"strings"
)

// RunError reports which jobs of a completed run failed. Step-level
// diagnostics live in the per-job outcome logs, not here.
type RunError struct {
	Failed []string
	Total  int
}

func (e *RunError) Error() string {
	return fmt.Sprintf("execution failed for %d of %d jobs: %s",
		len(e.Failed), e.Total, strings.Join(e.Failed, ", "))
}
