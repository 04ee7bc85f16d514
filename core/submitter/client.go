package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"review-reconciler/core/models"

	"go.uber.org/zap"
)

const githubPrefix = "https://github.com/"

// NetworkErrorMessage is shown when the analysis API cannot be reached at all
const NetworkErrorMessage = "Network error reaching the analysis API. Check the API base URL."

// ErrInvalidRepoURL is returned before any call is made for a non-GitHub URL
var ErrInvalidRepoURL = errors.New("invalid repository URL. Must start with https://github.com/")

// SubmissionError is an upstream rejection. Message is meant to be shown verbatim.
type SubmissionError struct {
	StatusCode int
	Message    string
}

func (e *SubmissionError) Error() string {
	return e.Message
}

// Handle is what a successful submission returns
type Handle struct {
	RunID         string `json:"run_id"`
	ReportsBucket string `json:"reports_bucket"`
	Region        string `json:"region"`
	Message       string `json:"message"`
}

// StoreLocation returns the content store base to poll for this handle
func (h Handle) StoreLocation(backend string) string {
	if backend == "s3" {
		return h.ReportsBucket
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com", h.ReportsBucket)
}

// analyzeResponse covers both a plain JSON body and a proxied {statusCode, body} envelope
type analyzeResponse struct {
	Handle
	StatusCode int             `json:"statusCode"`
	Status     string          `json:"status"`
	Body       json.RawMessage `json:"body"`
}

// Client submits analysis jobs to the analysis API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new submission client
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// ValidateRepoURL checks that a repository URL points at GitHub
func ValidateRepoURL(repoURL string) error {
	if !strings.HasPrefix(repoURL, githubPrefix) || strings.Trim(strings.TrimPrefix(repoURL, githubPrefix), "/") == "" {
		return ErrInvalidRepoURL
	}
	return nil
}

// Submit triggers an analysis of repoURL
func (c *Client) Submit(ctx context.Context, repoURL string) (*Handle, error) {
	if err := ValidateRepoURL(repoURL); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{"repo_url": repoURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("analysis API unreachable", zap.String("repo", repoURL), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", NetworkErrorMessage, errors.Join(models.ErrStoreUnreachable, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", NetworkErrorMessage, errors.Join(models.ErrStoreUnreachable, err))
	}

	var data analyzeResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		if resp.StatusCode >= 400 {
			return nil, c.reject(repoURL, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return nil, fmt.Errorf("%s: %w", NetworkErrorMessage,
			errors.Join(models.ErrStoreUnreachable, fmt.Errorf("undecodable response: %v", err)))
	}

	statusCode := resp.StatusCode
	if data.StatusCode != 0 {
		statusCode = data.StatusCode
	}

	// A proxied envelope carries the real payload as a JSON string in body
	if len(data.Body) > 0 && data.ReportsBucket == "" {
		var inner string
		if json.Unmarshal(data.Body, &inner) == nil {
			var nested analyzeResponse
			if json.Unmarshal([]byte(inner), &nested) == nil {
				data.Handle = nested.Handle
				if nested.Status != "" {
					data.Status = nested.Status
				}
			}
		}
	}

	if statusCode >= 400 || data.Status == "error" {
		return nil, c.reject(repoURL, statusCode, errorMessage(data))
	}
	if data.ReportsBucket == "" {
		return nil, c.reject(repoURL, statusCode, "Backend Error: response carried no reports bucket")
	}

	c.logger.Info("analysis submitted",
		zap.String("repo", repoURL),
		zap.String("run_id", data.RunID),
		zap.String("bucket", data.ReportsBucket))
	return &data.Handle, nil
}

func (c *Client) reject(repoURL string, statusCode int, message string) error {
	if message == "" {
		message = "Backend Error"
	}
	c.logger.Warn("analysis rejected",
		zap.String("repo", repoURL),
		zap.Int("status", statusCode),
		zap.String("message", message))
	return &SubmissionError{StatusCode: statusCode, Message: message}
}

// errorMessage picks message, then body, then a generic fallback
func errorMessage(data analyzeResponse) string {
	if data.Message != "" {
		return data.Message
	}
	if len(data.Body) > 0 {
		var text string
		if json.Unmarshal(data.Body, &text) == nil {
			return text
		}
		return string(data.Body)
	}
	return "Backend Error"
}
