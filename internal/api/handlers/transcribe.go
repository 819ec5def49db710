package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/flowhq/flow-backend/internal/youtube"
)

// audioFetcher retrieves titles and audio tracks for video URLs.
type audioFetcher interface {
	FetchTitle(ctx context.Context, url string) string
	DownloadAudio(ctx context.Context, url string) (*youtube.AudioAsset, error)
}

// transcriber runs the provider-side transcription lifecycle.
type transcriber interface {
	Upload(ctx context.Context, path string) (string, error)
	Submit(ctx context.Context, audioURL string) (string, error)
	PollUntilDone(ctx context.Context, jobID string) (string, error)
}

type TranscribeRequest struct {
	URL string `json:"url"`
}

type TranscribeResponse struct {
	Success    bool   `json:"success"`
	Transcript string `json:"transcript"`
	Title      string `json:"title"`
	VideoID    string `json:"videoId"`
}

type TranscribeHandler struct {
	fetcher audioFetcher
	client  transcriber
}

func NewTranscribeHandler(fetcher audioFetcher, client transcriber) *TranscribeHandler {
	return &TranscribeHandler{fetcher: fetcher, client: client}
}

// Transcribe runs the full workflow for one video: extract the id, fetch
// the title, download the audio, upload it to the provider, submit a job,
// and poll it to completion. The temporary audio file is removed on every
// exit path once it exists.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req TranscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "Missing 'url' in request body")
		return
	}

	videoID, ok := youtube.ExtractVideoID(req.URL)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid YouTube URL")
		return
	}

	ctx := r.Context()

	// Best-effort: a failed title lookup never aborts the request.
	title := h.fetcher.FetchTitle(ctx, req.URL)

	slog.Info("downloading audio", "video_id", videoID)
	asset, err := h.fetcher.DownloadAudio(ctx, req.URL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() {
		if err := asset.Remove(); err != nil {
			slog.Warn("failed to remove temp audio file", "path", asset.Path, "error", err)
		}
	}()
	slog.Info("audio downloaded", "video_id", videoID, "path", asset.Path, "format", asset.Format)

	slog.Info("uploading audio", "video_id", videoID)
	uploadURL, err := h.client.Upload(ctx, asset.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("transcription started", "video_id", videoID)
	jobID, err := h.client.Submit(ctx, uploadURL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	text, err := h.client.PollUntilDone(ctx, jobID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	slog.Info("transcription complete", "video_id", videoID, "chars", len(text))

	writeJSON(w, http.StatusOK, TranscribeResponse{
		Success:    true,
		Transcript: text,
		Title:      title,
		VideoID:    videoID,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
