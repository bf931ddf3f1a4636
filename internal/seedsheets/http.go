package seedsheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// PostFile performs a multipart POST uploading one file under the given
// field name.
func (c *HTTPClient) PostFile(ctx context.Context, url, field, path string) (*http.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// uploadSheets uploads the sheet files concurrently, preserving
// position order in the returned refs.
func uploadSheets(ctx context.Context, config *Config, paths []string, stats *Stats) ([]string, error) {
	logger.Get().Info(ctx, "uploading sheets", logger.Int("count", len(paths)))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/uploads"
	refs := make([]string, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			ref, err := uploadSingleSheet(ctx, client, url, path)
			if err != nil {
				return fmt.Errorf("upload %d: %w", i+1, err)
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.SheetsUploaded = len(refs)
	logger.Get().Info(ctx, "sheets uploaded", logger.Int("count", len(refs)))

	return refs, nil
}

// uploadSingleSheet uploads one sheet and returns its storage ref.
func uploadSingleSheet(ctx context.Context, client *HTTPClient, url, path string) (string, error) {
	resp, err := client.PostFile(ctx, url, "file", path)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusCreated {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var out uploadResponse
	if err := unmarshalJSON(body, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Ref == "" {
		return "", fmt.Errorf("upload accepted without a ref")
	}

	return out.Ref, nil
}

// submitJob submits the uploaded refs as one compilation job.
func submitJob(ctx context.Context, config *Config, refs []string) (string, error) {
	logger.Get().Info(ctx, "submitting compilation job", logger.Int("refs", len(refs)))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/jobs"

	resp, err := client.Post(ctx, url, submitRequest{Refs: refs})
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusAccepted {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var out submitResponse
	if err := unmarshalJSON(body, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	logger.Get().Info(ctx, "job accepted", logger.String("jobID", out.JobID))
	return out.JobID, nil
}
