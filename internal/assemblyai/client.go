// Package assemblyai is a minimal client for the AssemblyAI v2 REST API:
// upload an audio file, submit a transcription job, poll it to completion.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var (
	ErrUploadFailed         = errors.New("failed to upload audio")
	ErrSubmitFailed         = errors.New("failed to submit transcription")
	ErrTranscriptionFailed  = errors.New("transcription failed")
	ErrTranscriptionTimeout = errors.New("transcription timed out")
)

// JobStatus is the provider-reported state of a transcription job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusError      JobStatus = "error"
)

// Config holds configuration for the AssemblyAI client.
type Config struct {
	APIKey          string
	BaseURL         string        // default: "https://api.assemblyai.com"
	PollInterval    time.Duration // default: 3s
	MaxPollAttempts int           // default: 120 (a 6-minute ceiling)
}

// Client talks to the AssemblyAI REST API. The job lifecycle is owned by
// the provider; the client only observes it.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleep      func(ctx context.Context) error
}

// NewClient creates a Client with sensible defaults applied.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.assemblyai.com"
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.MaxPollAttempts == 0 {
		cfg.MaxPollAttempts = 120
	}
	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
	c.sleep = func(ctx context.Context) error {
		t := time.NewTimer(c.cfg.PollInterval)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
	return c
}

// Upload streams the audio file to the provider and returns the upload URL
// to reference in a transcription job.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/upload", f)
	if err != nil {
		return "", err
	}
	req.Header.Set("authorization", c.cfg.APIKey)
	req.Header.Set("content-type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, string(body))
	}

	var uploadResp struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.Unmarshal(body, &uploadResp); err != nil {
		return "", fmt.Errorf("parse upload response: %w", err)
	}
	return uploadResp.UploadURL, nil
}

// Submit creates a transcription job for a previously uploaded resource and
// returns the provider's job id.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("authorization", c.cfg.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read submit response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrSubmitFailed, string(body))
	}

	var submitResp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &submitResp); err != nil {
		return "", fmt.Errorf("parse submit response: %w", err)
	}
	return submitResp.ID, nil
}

// PollUntilDone polls the job at a fixed interval until it completes, the
// provider reports an error, the attempt budget is exhausted, or ctx is
// cancelled. A provider-reported error is terminal and fails immediately.
func (c *Client) PollUntilDone(ctx context.Context, jobID string) (string, error) {
	endpoint := c.cfg.BaseURL + "/v2/transcript/" + jobID

	for attempt := 0; attempt < c.cfg.MaxPollAttempts; attempt++ {
		job, err := c.getTranscript(ctx, endpoint)
		if err != nil {
			return "", err
		}

		switch job.Status {
		case StatusCompleted:
			return job.Text, nil
		case StatusError:
			detail := job.Error
			if detail == "" {
				detail = "unknown error"
			}
			return "", fmt.Errorf("%w: %s", ErrTranscriptionFailed, detail)
		}

		if err := c.sleep(ctx); err != nil {
			return "", err
		}
	}

	return "", ErrTranscriptionTimeout
}

type transcript struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
	Text   string    `json:"text"`
	Error  string    `json:"error"`
}

func (c *Client) getTranscript(ctx context.Context, endpoint string) (*transcript, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("authorization", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll request: %w", err)
	}
	defer resp.Body.Close()

	var job transcript
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("parse poll response: %w", err)
	}
	return &job, nil
}
