package publish

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/engine"
	"github.com/vk/pipegrid/internal/matrix"
)

type recordingSink struct {
	artifacts []Artifact
	err       error
}

func (s *recordingSink) Publish(_ context.Context, a Artifact) error {
	s.artifacts = append(s.artifacts, a)
	return s.err
}

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func expr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	e, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), "parse %q: %s", src, diags)
	return e
}

func completedRun(t *testing.T) []*engine.JobResult {
	t.Helper()
	specs, err := matrix.Expand([]matrix.Axis{
		{Name: "os", Values: []string{"linux", "macos"}},
		{Name: "python", Values: []string{"3.10", "3.12"}},
	})
	require.NoError(t, err)

	results := make([]*engine.JobResult, len(specs))
	for i, s := range specs {
		results[i] = &engine.JobResult{Spec: s, Status: engine.Success}
	}
	return results
}

func TestRun_PublishesTheRepresentativeCellOnce(t *testing.T) {
	sink := &recordingSink{}
	p := New(&config.Publish{
		When:     expr(t, `matrix.os == "linux" && matrix.python == "3.12"`),
		Artifact: expr(t, `"coverage-${matrix.os}-${matrix.python}.xml"`),
	}, sink)

	attempted, err := p.Run(testContext(), completedRun(t))
	require.NoError(t, err)
	assert.True(t, attempted)

	require.Len(t, sink.artifacts, 1)
	assert.Equal(t, "os=linux,python=3.12", sink.artifacts[0].Job)
	assert.Equal(t, "coverage-linux-3.12.xml", sink.artifacts[0].Ref)
}

func TestRun_NoMatchIsANoOp(t *testing.T) {
	sink := &recordingSink{}
	p := New(&config.Publish{
		When:     expr(t, `matrix.os == "freebsd"`),
		Artifact: expr(t, `"coverage.xml"`),
	}, sink)

	attempted, err := p.Run(testContext(), completedRun(t))
	assert.NoError(t, err)
	assert.False(t, attempted)
	assert.Empty(t, sink.artifacts)
}

func TestRun_MultipleMatchesIsAmbiguous(t *testing.T) {
	sink := &recordingSink{}
	p := New(&config.Publish{
		When:     expr(t, `matrix.os == "linux"`),
		Artifact: expr(t, `"coverage.xml"`),
	}, sink)

	attempted, err := p.Run(testContext(), completedRun(t))
	assert.False(t, attempted)
	assert.Empty(t, sink.artifacts, "ambiguity must never publish")

	var ambiguous *AmbiguousTargetError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, []string{"os=linux,python=3.10", "os=linux,python=3.12"}, ambiguous.Matches)
}

func TestRun_FailedRepresentativeWithholdsPublication(t *testing.T) {
	results := completedRun(t)
	for _, r := range results {
		if r.Spec.ID() == "os=linux,python=3.12" {
			r.Status = engine.Failure
		}
	}

	sink := &recordingSink{}
	p := New(&config.Publish{
		When:     expr(t, `matrix.os == "linux" && matrix.python == "3.12"`),
		Artifact: expr(t, `"coverage.xml"`),
	}, sink)

	attempted, err := p.Run(testContext(), results)
	assert.NoError(t, err, "a failed representative is a no-op, not an error")
	assert.False(t, attempted)
	assert.Empty(t, sink.artifacts)
}

func TestRun_SinkErrorIsReportedAsAttempted(t *testing.T) {
	sink := &recordingSink{err: errors.New("503 Service Unavailable")}
	p := New(&config.Publish{
		When:     expr(t, `matrix.os == "macos" && matrix.python == "3.10"`),
		Artifact: expr(t, `"report.json"`),
	}, sink)

	attempted, err := p.Run(testContext(), completedRun(t))
	assert.True(t, attempted, "the attempt happened even though the sink failed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503 Service Unavailable")
}

func TestRun_NonBooleanPredicateIsAnError(t *testing.T) {
	sink := &recordingSink{}
	p := New(&config.Publish{
		When:     expr(t, `matrix.os`),
		Artifact: expr(t, `"coverage.xml"`),
	}, sink)

	attempted, err := p.Run(testContext(), completedRun(t))
	assert.False(t, attempted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boolean")
	assert.Empty(t, sink.artifacts)
}
