package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/vk/pipegrid/internal/engine"
)

// renderReport writes the final per-job report: every matrix cell with its
// status and, for failed jobs, the first failing step with its diagnostic.
// Failures are never silently swallowed; this table is the operator's view
// of the run.
func renderReport(w io.Writer, results []*engine.JobResult) {
	width := 0
	for _, r := range results {
		if l := len(r.Spec.ID()); l > width {
			width = l
		}
	}

	fmt.Fprintln(w, "Job results:")
	for _, r := range results {
		fmt.Fprintf(w, "  %-*s  %s\n", width, r.Spec.ID(), r.Status)
		if failure, ok := r.FirstFailure(); ok {
			fmt.Fprintf(w, "  %-*s    first failure in step '%s'", width, "", failure.Step)
			if failure.Diagnostic != "" {
				fmt.Fprintf(w, ": %s", indentDiagnostic(failure.Diagnostic, width))
			}
			fmt.Fprintln(w)
		}
	}
}

// indentDiagnostic keeps multi-line diagnostics (e.g. shell output tails)
// aligned under their job row.
func indentDiagnostic(diag string, width int) string {
	pad := "\n  " + strings.Repeat(" ", width) + "    "
	return strings.ReplaceAll(strings.TrimRight(diag, "\n"), "\n", pad)
}
