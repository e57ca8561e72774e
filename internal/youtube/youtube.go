package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/fingerprint"
)

const oembedEndpoint = "https://noembed.com/embed"

// VideoInfo is the subset of the oEmbed response the ingest flow uses.
type VideoInfo struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Client fetches video metadata and downloads audio via the external yt-dlp
// binary.
type Client struct {
	cfg  *config.Config
	http *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchVideoInfo resolves title, channel and thumbnail through the public
// noembed proxy, which needs no API key.
func (c *Client) FetchVideoInfo(ctx context.Context, videoURL string) (*VideoInfo, error) {
	endpoint := oembedEndpoint + "?url=" + url.QueryEscape(videoURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oembed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed status %d", resp.StatusCode)
	}

	var info struct {
		VideoInfo
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("oembed decode: %w", err)
	}
	// noembed reports lookup failures as 200 with an error field
	if info.Error != "" {
		return nil, fmt.Errorf("oembed: %s", info.Error)
	}
	return &info.VideoInfo, nil
}

// Download extracts the audio track of a video into destDir as MP3 and
// returns the file path. The video ID names the file so retries overwrite
// instead of piling up.
func (c *Client) Download(ctx context.Context, videoURL, destDir string) (string, error) {
	videoID := fingerprint.ExtractVideoID(videoURL)
	if videoID == "" {
		return "", fmt.Errorf("no video id in url %q", videoURL)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	if _, ok := ctx.Deadline(); !ok {
		timeout := time.Duration(c.cfg.YouTube.DownloadTimeoutSeconds) * time.Second
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	outTemplate := filepath.Join(destDir, videoID+".%(ext)s")
	cmd := exec.CommandContext(ctx, c.cfg.YouTube.YtdlpPath,
		"-x",
		"--audio-format", "mp3",
		"--no-playlist",
		"-o", outTemplate,
		videoURL)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp download: %w", err)
	}

	audioPath := filepath.Join(destDir, videoID+".mp3")
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("yt-dlp finished but %s is missing: %w", audioPath, err)
	}
	return audioPath, nil
}
