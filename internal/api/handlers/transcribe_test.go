package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flowhq/flow-backend/internal/youtube"
)

type fakeFetcher struct {
	title         string
	asset         *youtube.AudioAsset
	downloadErr   error
	downloadCalls int
}

func (f *fakeFetcher) FetchTitle(ctx context.Context, url string) string {
	return f.title
}

func (f *fakeFetcher) DownloadAudio(ctx context.Context, url string) (*youtube.AudioAsset, error) {
	f.downloadCalls++
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.asset, nil
}

type fakeTranscriber struct {
	uploadURL   string
	uploadErr   error
	jobID       string
	submitErr   error
	text        string
	pollErr     error
	uploadCalls int
}

func (f *fakeTranscriber) Upload(ctx context.Context, path string) (string, error) {
	f.uploadCalls++
	return f.uploadURL, f.uploadErr
}

func (f *fakeTranscriber) Submit(ctx context.Context, audioURL string) (string, error) {
	return f.jobID, f.submitErr
}

func (f *fakeTranscriber) PollUntilDone(ctx context.Context, jobID string) (string, error) {
	return f.text, f.pollErr
}

// tempAsset creates a real file on disk so cleanup can be observed.
func tempAsset(t *testing.T) *youtube.AudioAsset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt_audio_test.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &youtube.AudioAsset{Path: path, Format: "mp3"}
}

func postTranscribe(t *testing.T, h *TranscribeHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe-youtube", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Transcribe(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	return body
}

func TestTranscribeMissingURL(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"empty object", "{}"},
		{"empty url", `{"url": ""}`},
		{"invalid json", "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			h := NewTranscribeHandler(fetcher, &fakeTranscriber{})

			rec := postTranscribe(t, h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["error"] != "Missing 'url' in request body" {
				t.Errorf("error = %q", body["error"])
			}
			if fetcher.downloadCalls != 0 {
				t.Error("downloader should not run for a missing url")
			}
		})
	}
}

func TestTranscribeInvalidURL(t *testing.T) {
	fetcher := &fakeFetcher{}
	h := NewTranscribeHandler(fetcher, &fakeTranscriber{})

	rec := postTranscribe(t, h, `{"url": "https://vimeo.com/123456"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Invalid YouTube URL" {
		t.Errorf("error = %q", body["error"])
	}
	if fetcher.downloadCalls != 0 {
		t.Error("downloader should not run for an invalid url")
	}
}

func TestTranscribeSuccess(t *testing.T) {
	asset := tempAsset(t)
	fetcher := &fakeFetcher{title: "Test Video", asset: asset}
	client := &fakeTranscriber{uploadURL: "https://cdn.example/u/1", jobID: "job-42", text: "hello world"}
	h := NewTranscribeHandler(fetcher, client)

	rec := postTranscribe(t, h, `{"url": "https://www.youtube.com/watch?v=abc123&t=5s"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Error("success should be true")
	}
	if body["transcript"] != "hello world" {
		t.Errorf("transcript = %q", body["transcript"])
	}
	if body["title"] != "Test Video" {
		t.Errorf("title = %q", body["title"])
	}
	if body["videoId"] != "abc123" {
		t.Errorf("videoId = %q", body["videoId"])
	}

	if _, err := os.Stat(asset.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("temp audio file should be removed after the request")
	}
}

func TestTranscribeDownloadFailure(t *testing.T) {
	fetcher := &fakeFetcher{downloadErr: errors.New("yt-dlp error: video unavailable")}
	client := &fakeTranscriber{}
	h := NewTranscribeHandler(fetcher, client)

	rec := postTranscribe(t, h, `{"url": "https://youtu.be/xyz987"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "yt-dlp error: video unavailable" {
		t.Errorf("error = %q", body["error"])
	}
	if client.uploadCalls != 0 {
		t.Error("upload should not run when the download fails")
	}
}

func TestTranscribeUploadFailureStillCleansUp(t *testing.T) {
	asset := tempAsset(t)
	fetcher := &fakeFetcher{title: "Test Video", asset: asset}
	client := &fakeTranscriber{uploadErr: errors.New("failed to upload audio: 401")}
	h := NewTranscribeHandler(fetcher, client)

	rec := postTranscribe(t, h, `{"url": "https://youtu.be/xyz987"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if _, err := os.Stat(asset.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("temp audio file should be removed when the upload fails")
	}
}

func TestTranscribePollFailureStillCleansUp(t *testing.T) {
	asset := tempAsset(t)
	fetcher := &fakeFetcher{title: "Test Video", asset: asset}
	client := &fakeTranscriber{
		uploadURL: "https://cdn.example/u/1",
		jobID:     "job-42",
		pollErr:   errors.New("transcription failed: audio duration too short"),
	}
	h := NewTranscribeHandler(fetcher, client)

	rec := postTranscribe(t, h, `{"url": "https://youtu.be/xyz987"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "transcription failed: audio duration too short" {
		t.Errorf("error = %q", body["error"])
	}
	if _, err := os.Stat(asset.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("temp audio file should be removed when polling fails")
	}
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler()
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" || body["service"] != "flow-backend" {
		t.Errorf("body = %v", body)
	}
}
