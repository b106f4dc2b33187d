package integration_tests

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/testutil"
)

type sinkRecorder struct {
	mu   sync.Mutex
	jobs []string
}

func (s *sinkRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.jobs = append(s.jobs, r.FormValue("job"))
		s.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}
}

func (s *sinkRecorder) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.jobs...)
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coverage.xml")
	require.NoError(t, os.WriteFile(path, []byte("<coverage/>"), 0o644))
	return path
}

func TestPublication_UploadsTheRepresentativeCellOnce(t *testing.T) {
	recorder := &sinkRecorder{}
	server := httptest.NewServer(recorder.handler())
	defer server.Close()

	pipelineHCL := `
pipeline "ci" {
  matrix {
    axis "os"     { values = ["linux", "macos"] }
    axis "python" { values = ["3.10", "3.12"] }
  }

  step "spy" "build" {}

  publish {
    when     = matrix.os == "linux" && matrix.python == "3.12"
    artifact = "` + writeArtifact(t) + `"
    url      = "` + server.URL + `"
  }
}
`
	spy := &testutil.SpyModule{Name: "spy"}
	result := testutil.RunPipelineTest(t, "pipeline.hcl", pipelineHCL, nil, spy)

	require.NoError(t, result.Err)
	assert.Equal(t, 4, spy.Calls())
	assert.Equal(t, []string{"os=linux,python=3.12"}, recorder.received())
}

func TestPublication_NoMatchingCellIsANoOp(t *testing.T) {
	recorder := &sinkRecorder{}
	server := httptest.NewServer(recorder.handler())
	defer server.Close()

	pipelineHCL := `
pipeline "ci" {
  matrix {
    axis "os" { values = ["linux", "macos"] }
  }

  step "spy" "build" {}

  publish {
    when     = matrix.os == "freebsd"
    artifact = "coverage.xml"
    url      = "` + server.URL + `"
  }
}
`
	result := testutil.RunPipelineTest(t, "pipeline.hcl", pipelineHCL, nil, &testutil.SpyModule{Name: "spy"})

	require.NoError(t, result.Err, "an unmatched predicate does not fail the run")
	assert.Empty(t, recorder.received())
}

func TestPublication_AmbiguousPredicateFailsTheRun(t *testing.T) {
	recorder := &sinkRecorder{}
	server := httptest.NewServer(recorder.handler())
	defer server.Close()

	pipelineHCL := `
pipeline "ci" {
  matrix {
    axis "os"     { values = ["linux", "macos"] }
    axis "python" { values = ["3.10", "3.12"] }
  }

  step "spy" "build" {}

  publish {
    when     = matrix.os == "linux"
    artifact = "coverage.xml"
    url      = "` + server.URL + `"
  }
}
`
	result := testutil.RunPipelineTest(t, "pipeline.hcl", pipelineHCL, nil, &testutil.SpyModule{Name: "spy"})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "ambiguous")
	assert.Empty(t, recorder.received(), "ambiguity must never publish")
}

func TestPublication_SinkFailureIsFatalByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusInsufficientStorage)
	}))
	defer server.Close()

	pipelineHCL := `
pipeline "ci" {
  step "spy" "build" {}

  publish {
    when     = true
    artifact = "` + writeArtifact(t) + `"
    url      = "` + server.URL + `"
  }
}
`
	result := testutil.RunPipelineTest(t, "pipeline.hcl", pipelineHCL, nil, &testutil.SpyModule{Name: "spy"})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "sink rejected")
}

func TestPublication_SinkFailureCanBeNonFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusInsufficientStorage)
	}))
	defer server.Close()

	pipelineHCL := `
pipeline "ci" {
  step "spy" "build" {}

  publish {
    when     = true
    artifact = "` + writeArtifact(t) + `"
    url      = "` + server.URL + `"
    fatal    = false
  }
}
`
	result := testutil.RunPipelineTest(t, "pipeline.hcl", pipelineHCL, nil, &testutil.SpyModule{Name: "spy"})

	require.NoError(t, result.Err, "non-fatal publication failures leave the run result intact")
	assert.Contains(t, result.LogOutput, "Publication failed")
}

func TestPublication_YAMLWorkflowArtifactTemplate(t *testing.T) {
	recorder := &sinkRecorder{}
	server := httptest.NewServer(recorder.handler())
	defer server.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coverage-linux.xml"), []byte("<coverage/>"), 0o644))

	workflowYAML := `
name: ci
matrix:
  os: [linux, macos]
steps:
  - name: build
    action: spy
publish:
  when: matrix.os == "linux"
  artifact: ` + dir + `/coverage-${matrix.os}.xml
  url: ` + server.URL + `
`
	result := testutil.RunPipelineTest(t, "workflow.yml", workflowYAML, nil, &testutil.SpyModule{Name: "spy"})

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"os=linux"}, recorder.received())
}
