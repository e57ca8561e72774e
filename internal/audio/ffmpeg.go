package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
)

// Transcoder wraps the external ffmpeg/ffprobe binaries.
type Transcoder struct {
	cfg *config.Config
}

func NewTranscoder(cfg *config.Config) *Transcoder {
	return &Transcoder{cfg: cfg}
}

// ConvertToHLS transcodes a source file into an HLS rendition under outDir
// and returns the playlist path. list_size 0 keeps every segment in the
// playlist so the result is a complete on-demand stream, not a live window.
func (t *Transcoder) ConvertToHLS(ctx context.Context, inputPath, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create hls dir: %w", err)
	}

	playlist := filepath.Join(outDir, "index.m3u8")
	segments := filepath.Join(outDir, "segment_%03d.ts")

	args := []string{
		"-y",
		"-loglevel", "error",
		"-i", inputPath,

		"-vn",           // No Video
		"-map", "0:a:0", // Audio Only

		"-c:a", t.cfg.HLS.AudioCodec,
		"-b:a", t.cfg.HLS.Bitrate,

		"-f", "hls",
		"-hls_time", t.cfg.HLS.SegmentTime,
		"-hls_list_size", "0",
		"-hls_segment_filename", segments,

		playlist,
	}

	cmd := exec.CommandContext(ctx, t.cfg.HLS.FFmpegPath, args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg hls transcode: %w", err)
	}

	log.Printf("🎬 HLS rendition written (codec: %s, bitrate: %s, seg: %ss)",
		t.cfg.HLS.AudioCodec, t.cfg.HLS.Bitrate, t.cfg.HLS.SegmentTime)
	return playlist, nil
}

// ProbeInfo is what ffprobe reports about a source file.
type ProbeInfo struct {
	DurationSeconds int
	Bitrate         int
	Format          string
}

type ffprobeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}

// Probe reads duration, bitrate and container format via ffprobe.
func (t *Transcoder) Probe(ctx context.Context, path string) (*ProbeInfo, error) {
	cmd := exec.CommandContext(ctx, t.cfg.HLS.FFprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		path)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("ffprobe output: %w", err)
	}

	info := &ProbeInfo{}
	if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
		info.DurationSeconds = int(math.Round(d))
	}
	if b, err := strconv.Atoi(parsed.Format.BitRate); err == nil {
		info.Bitrate = b
	}
	// format_name can be a comma list like "mov,mp4,m4a"; keep the first
	if name := parsed.Format.FormatName; name != "" {
		info.Format = strings.SplitN(name, ",", 2)[0]
	}
	return info, nil
}

// Validate checks the file is plausibly a complete track and decodable.
func (t *Transcoder) Validate(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	// Anything under 100KB is a failed download, not a song
	if info.Size() < 100*1024 {
		log.Printf("⚠️ File too small (%d bytes). Likely a failed download.", info.Size())
		return os.ErrInvalid
	}

	// Truncated streams fail here with a non-zero exit
	cmd := exec.CommandContext(ctx, t.cfg.HLS.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err := cmd.Run(); err != nil {
		log.Printf("❌ Integrity check failed (corrupt stream): %v", err)
		return err
	}
	return nil
}

// IsSupportedFormat reports whether the filename looks like an audio upload
// we can process.
func IsSupportedFormat(filename string) bool {
	extensions := []string{
		".mp3", ".flac", ".wav", ".ogg", ".m4a", ".aac", ".wma", ".aiff", ".alac", ".opus",
	}
	lower := strings.ToLower(filename)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
