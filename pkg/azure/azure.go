// Package azure submits fine-tuning jobs to an Azure OpenAI resource and
// streams completions from deployed models. Raw typed client against the
// REST surface, no SDK.
package azure

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
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultAPIVersion = "2023-09-15-preview"
	DefaultTimeout    = 2 * time.Minute
)

// UploadedFile is the service's record of an uploaded training file.
type UploadedFile struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Bytes    int64  `json:"bytes"`
}

// FineTuneJob is the service's record of a fine-tuning job. The service
// owns all state transitions; movetune only submits and reads.
type FineTuneJob struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Model        string `json:"model"`
	TrainingFile string `json:"training_file"`
	CreatedAt    int64  `json:"created_at"`
}

type createFineTuneRequest struct {
	TrainingFile string `json:"training_file"`
	Model        string `json:"model"`
}

// Config configures a Client. Endpoint is the resource URL
// (https://<resource>.openai.azure.com); APIVersion defaults to
// 2023-09-15-preview.
type Config struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls the Azure OpenAI files, fine-tuning, and completions
// surfaces.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
}

// UploadFile uploads the dataset at path with purpose fine-tune and returns
// the service's file record.
func (c *Client) UploadFile(ctx context.Context, path string) (UploadedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadedFile{}, &SubmissionError{Op: "upload", Err: fmt.Errorf("opening dataset: %w", err)}
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("purpose", "fine-tune"); err != nil {
		return UploadedFile{}, &SubmissionError{Op: "upload", Err: fmt.Errorf("building form: %w", err)}
	}

	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return UploadedFile{}, &SubmissionError{Op: "upload", Err: fmt.Errorf("building form: %w", err)}
	}
	if _, err := io.Copy(part, f); err != nil {
		return UploadedFile{}, &SubmissionError{Op: "upload", Err: fmt.Errorf("reading dataset: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return UploadedFile{}, &SubmissionError{Op: "upload", Err: fmt.Errorf("building form: %w", err)}
	}

	url := fmt.Sprintf("%s/openai/files?api-version=%s", c.endpoint, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return UploadedFile{}, &SubmissionError{Op: "upload", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("api-key", c.apiKey)

	var uploaded UploadedFile
	if err := c.do(req, &uploaded, "upload"); err != nil {
		return UploadedFile{}, err
	}

	c.logger.Debug("uploaded training file",
		zap.String("file_id", uploaded.ID),
		zap.Int64("bytes", uploaded.Bytes),
	)

	return uploaded, nil
}

// CreateFineTune starts a fine-tuning job for an uploaded training file on
// baseModel and returns the job handle.
func (c *Client) CreateFineTune(ctx context.Context, fileID, baseModel string) (FineTuneJob, error) {
	body, err := json.Marshal(createFineTuneRequest{TrainingFile: fileID, Model: baseModel})
	if err != nil {
		return FineTuneJob{}, &SubmissionError{Op: "create", Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/openai/fine_tuning/jobs?api-version=%s", c.endpoint, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return FineTuneJob{}, &SubmissionError{Op: "create", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	var job FineTuneJob
	if err := c.do(req, &job, "create"); err != nil {
		return FineTuneJob{}, err
	}

	c.logger.Debug("created fine-tune job",
		zap.String("job_id", job.ID),
		zap.String("status", job.Status),
	)

	return job, nil
}

// GetFineTune returns the current state of a fine-tuning job.
func (c *Client) GetFineTune(ctx context.Context, jobID string) (FineTuneJob, error) {
	url := fmt.Sprintf("%s/openai/fine_tuning/jobs/%s?api-version=%s", c.endpoint, jobID, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FineTuneJob{}, &SubmissionError{Op: "status", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("api-key", c.apiKey)

	var job FineTuneJob
	if err := c.do(req, &job, "status"); err != nil {
		return FineTuneJob{}, err
	}

	return job, nil
}

// do executes a management request and decodes the JSON response into v.
func (c *Client) do(req *http.Request, v any, op string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &SubmissionError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &SubmissionError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &SubmissionError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("azure API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &SubmissionError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	return nil
}
