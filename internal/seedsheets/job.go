package seedsheets

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/types"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
)

// waitForJob polls the job until it reaches a terminal state.
func waitForJob(ctx context.Context, config *Config, jobID string) (types.JobView, error) {
	logger.Get().Info(ctx, "waiting for job to finish", logger.String("jobID", jobID))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/jobs/" + jobID

	ctx, cancel := context.WithTimeout(ctx, config.PollTimeout)
	defer cancel()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		view, err := fetchJob(ctx, client, url)
		if err != nil {
			return types.JobView{}, err
		}

		switch view.Status {
		case string(model.StatusComplete):
			logger.Get().Info(ctx, "job completed", logger.String("jobID", jobID))
			return view, nil
		case string(model.StatusError):
			return types.JobView{}, fmt.Errorf("job failed: %s", view.Error)
		}

		select {
		case <-ctx.Done():
			return types.JobView{}, fmt.Errorf("job did not finish in time: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// fetchJob retrieves one job snapshot.
func fetchJob(ctx context.Context, client *HTTPClient, url string) (types.JobView, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return types.JobView{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return types.JobView{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return types.JobView{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var view types.JobView
	if err := unmarshalJSON(body, &view); err != nil {
		return types.JobView{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return view, nil
}

// downloadReport fetches the compiled workbook and stores it next to
// the generated sheets.
func downloadReport(ctx context.Context, config *Config, jobID string) (string, error) {
	logger.Get().Info(ctx, "downloading report", logger.String("jobID", jobID))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/jobs/" + jobID + "/report"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	name := reportFilename(resp.Header.Get("Content-Disposition"), jobID)
	path := filepath.Join(config.OutDir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close report file", logger.Error(err))
		}
	}()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	logger.Get().Info(ctx, "report saved", logger.String("path", path))
	return path, nil
}

// reportFilename extracts the server's suggested download name, falling
// back to a job-derived one.
func reportFilename(disposition, jobID string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := params["filename"]; name != "" {
			return filepath.Base(name)
		}
	}
	return "compiled_results_" + jobID + ".xlsx"
}
