package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FallbackTitle is returned when the title lookup fails for any reason.
// Title retrieval is best-effort and never aborts a request.
const FallbackTitle = "YouTube Video"

// Audio container extensions yt-dlp may produce when it ignores the
// requested format. Probed in order after a reported success.
var altExtensions = []string{".mp3", ".m4a", ".webm", ".opus"}

var (
	ErrDownloadFailed  = errors.New("yt-dlp error")
	ErrDownloadTimeout = errors.New("timeout while downloading video")
	ErrToolUnavailable = errors.New("yt-dlp not installed")
	ErrAudioNotFound   = errors.New("audio file not found after download")
)

// AudioAsset is one downloaded audio file. It is owned by the request that
// created it and must be removed exactly once when the request finishes.
type AudioAsset struct {
	Path   string
	Format string
}

// Remove deletes the audio file from disk.
func (a *AudioAsset) Remove() error {
	return os.Remove(a.Path)
}

// DownloaderConfig holds configuration for the yt-dlp downloader.
type DownloaderConfig struct {
	BinPath         string        // default: "yt-dlp"
	TempDir         string        // default: os.TempDir()
	TitleTimeout    time.Duration // default: 15s
	DownloadTimeout time.Duration // default: 120s
}

// commandResult captures one external command invocation.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Downloader fetches YouTube audio tracks and titles via the yt-dlp tool.
type Downloader struct {
	cfg    DownloaderConfig
	runner commandRunner
	stat   func(name string) (os.FileInfo, error)
}

// NewDownloader creates a Downloader with defaults applied.
func NewDownloader(cfg DownloaderConfig) *Downloader {
	if cfg.BinPath == "" {
		cfg.BinPath = "yt-dlp"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.TitleTimeout == 0 {
		cfg.TitleTimeout = 15 * time.Second
	}
	if cfg.DownloadTimeout == 0 {
		cfg.DownloadTimeout = 120 * time.Second
	}
	return &Downloader{
		cfg:    cfg,
		runner: execRunner{},
		stat:   os.Stat,
	}
}

// FetchTitle returns the video's title, or FallbackTitle on any failure.
func (d *Downloader) FetchTitle(ctx context.Context, url string) string {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.TitleTimeout)
	defer cancel()

	result, err := d.runner.Run(ctx, d.cfg.BinPath, "--get-title", "--no-warnings", url)
	if err != nil {
		return FallbackTitle
	}
	if title := strings.TrimSpace(result.Stdout); title != "" {
		return title
	}
	return FallbackTitle
}

// DownloadAudio extracts the best available audio track to a uniquely named
// temporary file and returns the asset. The caller owns the file and is
// responsible for removing it.
func (d *Downloader) DownloadAudio(ctx context.Context, url string) (*AudioAsset, error) {
	basePath := filepath.Join(d.cfg.TempDir, "yt_audio_"+uuid.NewString())
	outputPath := basePath + ".mp3"

	ctx, cancel := context.WithTimeout(ctx, d.cfg.DownloadTimeout)
	defer cancel()

	result, err := d.runner.Run(ctx, d.cfg.BinPath,
		"-f", "bestaudio",
		"-x",
		"--audio-format", "mp3",
		"-o", outputPath,
		"--no-warnings",
		url,
	)
	if err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return nil, fmt.Errorf("%w: install it and make sure it is on PATH", ErrToolUnavailable)
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, ErrDownloadTimeout
		default:
			return nil, fmt.Errorf("%w: %s", ErrDownloadFailed, strings.TrimSpace(result.Stderr))
		}
	}

	// yt-dlp may append its own extension or pick a different container.
	for _, path := range []string{outputPath, outputPath + ".mp3"} {
		if _, err := d.stat(path); err == nil {
			return &AudioAsset{Path: path, Format: "mp3"}, nil
		}
	}
	for _, ext := range altExtensions {
		path := basePath + ext
		if _, err := d.stat(path); err == nil {
			return &AudioAsset{Path: path, Format: strings.TrimPrefix(ext, ".")}, nil
		}
	}

	return nil, ErrAudioNotFound
}
