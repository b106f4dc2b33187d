package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/engine"
	"github.com/vk/pipegrid/internal/matrix"
)

func runResults(t *testing.T) []*engine.JobResult {
	t.Helper()
	specs, err := matrix.Expand([]matrix.Axis{
		{Name: "os", Values: []string{"A", "B"}},
		{Name: "version", Values: []string{"1", "2"}},
	})
	require.NoError(t, err)

	results := make([]*engine.JobResult, len(specs))
	for i, s := range specs {
		results[i] = &engine.JobResult{Spec: s, Status: engine.Success}
	}
	results[0].Status = engine.Failure
	results[0].Outcomes = []engine.StepOutcome{
		{Step: "install", Status: engine.Success},
		{Step: "build", Status: engine.Failure, Diagnostic: "exit status 2\nmake: *** [all] Error 2"},
	}
	return results
}

func TestRenderReport_ListsEveryCell(t *testing.T) {
	var out strings.Builder
	renderReport(&out, runResults(t))
	report := out.String()

	assert.Contains(t, report, "os=A,version=1")
	assert.Contains(t, report, "os=A,version=2")
	assert.Contains(t, report, "os=B,version=1")
	assert.Contains(t, report, "os=B,version=2")
	assert.Equal(t, 1, strings.Count(report, "failure"))
	assert.Equal(t, 3, strings.Count(report, "success"))
}

func TestRenderReport_ShowsFirstFailureWithDiagnostic(t *testing.T) {
	var out strings.Builder
	renderReport(&out, runResults(t))
	report := out.String()

	assert.Contains(t, report, "first failure in step 'build'")
	assert.Contains(t, report, "exit status 2")
	assert.Contains(t, report, "make: *** [all] Error 2")
	assert.NotContains(t, report, "install'", "succeeding steps are not reported as failures")
}

func TestRenderReport_SingleDefaultJob(t *testing.T) {
	specs, err := matrix.Expand(nil)
	require.NoError(t, err)

	var out strings.Builder
	renderReport(&out, []*engine.JobResult{{Spec: specs[0], Status: engine.Success}})

	assert.Contains(t, out.String(), "default  success")
}
