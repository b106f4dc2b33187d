package publish

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coverage.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHTTPSink_UploadsMultipartForm(t *testing.T) {
	var gotJob, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		gotJob = r.FormValue("job")

		file, _, err := r.FormFile("artifact")
		require.NoError(t, err)
		defer file.Close()
		buf := make([]byte, 64)
		n, _ := file.Read(buf)
		gotBody = string(buf[:n])

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sink := NewHTTPSink(server.URL)
	defer sink.Close()

	path := writeArtifact(t, "<coverage/>")
	err := sink.Publish(testContext(), Artifact{Job: "os=linux,python=3.12", Ref: path})
	require.NoError(t, err)

	assert.Equal(t, "os=linux,python=3.12", gotJob)
	assert.Equal(t, "<coverage/>", gotBody)
}

func TestHTTPSink_ErrorStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	sink := NewHTTPSink(server.URL)
	defer sink.Close()

	path := writeArtifact(t, "data")
	err := sink.Publish(testContext(), Artifact{Job: "default", Ref: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestHTTPSink_MissingArtifactFileIsAnError(t *testing.T) {
	sink := NewHTTPSink("http://127.0.0.1:0")
	defer sink.Close()

	err := sink.Publish(testContext(), Artifact{Job: "default", Ref: "/nonexistent/coverage.xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not readable")
}
