package publish

import (
	"context"
	"fmt"
	"os"
	"time"

	"resty.dev/v3"

	"github.com/vk/pipegrid/internal/ctxlog"
)

// HTTPSink uploads the artifact file to a reporting endpoint as a multipart
// POST, with the producing job's identity in the form fields. Transient
// upstream failures are retried client-side; whether a final failure fails
// the whole run is the publish rule's decision, not the sink's.
type HTTPSink struct {
	client *resty.Client
	url    string
}

// NewHTTPSink builds a sink for one endpoint URL.
func NewHTTPSink(url string) *HTTPSink {
	client := resty.New().
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second).
		SetTimeout(60 * time.Second)
	return &HTTPSink{client: client, url: url}
}

// Publish implements Sink.
func (s *HTTPSink) Publish(ctx context.Context, artifact Artifact) error {
	logger := ctxlog.FromContext(ctx)

	if _, err := os.Stat(artifact.Ref); err != nil {
		return fmt.Errorf("artifact '%s' is not readable: %w", artifact.Ref, err)
	}

	logger.Debug("Uploading artifact to reporting sink.", "url", s.url, "artifact", artifact.Ref)
	resp, err := s.client.R().
		SetContext(ctx).
		SetFile("artifact", artifact.Ref).
		SetFormData(map[string]string{"job": artifact.Job}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("uploading to sink: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sink rejected artifact: %s", resp.Status())
	}
	logger.Debug("Sink accepted artifact.", "status", resp.Status())
	return nil
}

// Close releases the underlying HTTP client.
func (s *HTTPSink) Close() error {
	return s.client.Close()
}
