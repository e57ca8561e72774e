package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/audio"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/fingerprint"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/library"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/metadata"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/storage"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/youtube"
)

// Checker decides whether incoming audio already exists in the catalog.
type Checker interface {
	CheckDuplicate(ctx context.Context, in fingerprint.CheckInput) (*fingerprint.Verdict, error)
}

// Media transcodes and inspects audio files.
type Media interface {
	ConvertToHLS(ctx context.Context, inputPath, outDir string) (string, error)
	Probe(ctx context.Context, path string) (*audio.ProbeInfo, error)
	Validate(ctx context.Context, path string) error
}

// MediaStore persists processed renditions.
type MediaStore interface {
	UploadMediaDir(localDir, keyPrefix string) error
}

// Catalog writes song rows.
type Catalog interface {
	Create(ctx context.Context, song *models.Song) error
}

// VideoSource resolves and downloads YouTube audio.
type VideoSource interface {
	FetchVideoInfo(ctx context.Context, videoURL string) (*youtube.VideoInfo, error)
	Download(ctx context.Context, videoURL, destDir string) (string, error)
}

// Service runs the full ingest pipeline: duplicate check, tag stamping, HLS
// transcode, storage upload, catalog row.
type Service struct {
	catalog Catalog
	checker Checker
	media   Media
	store   MediaStore
	videos  VideoSource
	cfg     *config.Config
}

func NewService(
	repo *library.SongRepository,
	detector *fingerprint.Detector,
	transcoder *audio.Transcoder,
	store *storage.Client,
	videos *youtube.Client,
	cfg *config.Config,
) *Service {
	return &Service{
		catalog: repo,
		checker: detector,
		media:   transcoder,
		store:   store,
		videos:  videos,
		cfg:     cfg,
	}
}

// Outcome is the result of an ingest attempt. Exactly one of Song or
// Duplicate is set; a duplicate is an answer, not an error.
type Outcome struct {
	Song      *models.Song         `json:"song,omitempty"`
	Duplicate *fingerprint.Verdict `json:"duplicate,omitempty"`
}

// DeviceInput describes a direct file upload.
type DeviceInput struct {
	LocalPath string
	Tags      metadata.Tags
	GenreID   string
	ArtistID  string
	UserID    string
	SkipCheck bool
}

// AddFromDevice ingests an uploaded file already sitting on local disk.
func (s *Service) AddFromDevice(ctx context.Context, in DeviceInput) (*Outcome, error) {
	timer := prometheus.NewTimer(ingestDuration)
	defer timer.ObserveDuration()

	if err := s.media.Validate(ctx, in.LocalPath); err != nil {
		ingestJobs.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("invalid upload: %w", err)
	}

	verdict, err := s.checker.CheckDuplicate(ctx, fingerprint.CheckInput{
		AudioPath: in.LocalPath,
		Skip:      in.SkipCheck || s.cfg.Fingerprint.SkipDuplicateCheck,
	})
	if err != nil {
		ingestJobs.WithLabelValues("failure").Inc()
		return nil, err
	}
	if verdict.IsDuplicate {
		ingestJobs.WithLabelValues("duplicate").Inc()
		duplicatesDetected.WithLabelValues(verdict.Reason).Inc()
		return &Outcome{Duplicate: verdict}, nil
	}

	title := in.Tags.Title
	if title == "" {
		base := filepath.Base(in.LocalPath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	song := &models.Song{
		ID:     uuid.NewString(),
		Title:  title,
		Source: models.SourceDevice,
	}
	applyRefs(song, in.GenreID, in.ArtistID, in.UserID)

	if err := s.finishIngest(ctx, song, in.LocalPath, in.Tags, verdict); err != nil {
		ingestJobs.WithLabelValues("failure").Inc()
		return nil, err
	}

	ingestJobs.WithLabelValues("success").Inc()
	return &Outcome{Song: song}, nil
}

// YoutubeInput describes an ingest-by-link request.
type YoutubeInput struct {
	URL       string
	GenreID   string
	UserID    string
	SkipCheck bool
}

// AddFromYoutube downloads a video's audio and runs it through the pipeline.
// The identity check runs before the download so an already-ingested video
// costs one DB query, not a multi-minute yt-dlp run.
func (s *Service) AddFromYoutube(ctx context.Context, in YoutubeInput) (*Outcome, error) {
	timer := prometheus.NewTimer(ingestDuration)
	defer timer.ObserveDuration()

	videoID := fingerprint.ExtractVideoID(in.URL)
	if videoID == "" {
		ingestJobs.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("unrecognized youtube url %q", in.URL)
	}

	skip := in.SkipCheck || s.cfg.Fingerprint.SkipDuplicateCheck

	// Pre-download check: with no audio path only the ID stage can fire
	verdict, err := s.checker.CheckDuplicate(ctx, fingerprint.CheckInput{
		YoutubeURL: in.URL,
		Skip:       skip,
	})
	if err != nil {
		ingestJobs.WithLabelValues("failure").Inc()
		return nil, err
	}
	if verdict.IsDuplicate {
		ingestJobs.WithLabelValues("duplicate").Inc()
		duplicatesDetected.WithLabelValues(verdict.Reason).Inc()
		return &Outcome{Duplicate: verdict}, nil
	}

	tags := metadata.Tags{}
	coverURL := ""
	if info, err := s.videos.FetchVideoInfo(ctx, in.URL); err != nil {
		log.Printf("⚠️ Video info lookup failed for %s: %v", videoID, err)
	} else {
		tags.Title = info.Title
		tags.Artist = info.AuthorName
		coverURL = info.ThumbnailURL
	}

	audioPath, err := s.videos.Download(ctx, in.URL, s.cfg.Server.TempDir)
	if err != nil {
		ingestJobs.WithLabelValues("failure").Inc()
		return nil, err
	}
	defer os.Remove(audioPath)

	// Full check now that the audio exists
	verdict, err = s.checker.CheckDuplicate(ctx, fingerprint.CheckInput{
		AudioPath:  audioPath,
		YoutubeURL: in.URL,
		Skip:       skip,
	})
	if err != nil {
		ingestJobs.WithLabelValues("failure").Inc()
		return nil, err
	}
	if verdict.IsDuplicate {
		ingestJobs.WithLabelValues("duplicate").Inc()
		duplicatesDetected.WithLabelValues(verdict.Reason).Inc()
		return &Outcome{Duplicate: verdict}, nil
	}

	title := tags.Title
	if title == "" {
		title = videoID
	}

	song := &models.Song{
		ID:        uuid.NewString(),
		Title:     title,
		Source:    models.SourceYoutube,
		YoutubeID: &videoID,
		CoverURL:  coverURL,
	}
	applyRefs(song, in.GenreID, "", in.UserID)

	if err := s.finishIngest(ctx, song, audioPath, tags, verdict); err != nil {
		ingestJobs.WithLabelValues("failure").Inc()
		return nil, err
	}

	ingestJobs.WithLabelValues("success").Inc()
	return &Outcome{Song: song}, nil
}

// finishIngest is the shared back half: stamp tags, probe, transcode, upload,
// persist.
func (s *Service) finishIngest(ctx context.Context, song *models.Song, audioPath string, tags metadata.Tags, verdict *fingerprint.Verdict) error {
	stampTags(audioPath, tags)

	if info, err := s.media.Probe(ctx, audioPath); err != nil {
		log.Printf("⚠️ Probe failed for %s: %v", song.Title, err)
	} else {
		song.Bitrate = info.Bitrate
		song.Format = info.Format
		if verdict.DurationSeconds == 0 && info.DurationSeconds > 0 {
			verdict.DurationSeconds = info.DurationSeconds
		}
	}

	hlsDir := filepath.Join(s.cfg.Server.TempDir, "hls_"+song.ID)
	defer os.RemoveAll(hlsDir)

	if _, err := s.media.ConvertToHLS(ctx, audioPath, hlsDir); err != nil {
		return err
	}

	keyPrefix := "songs/" + song.ID
	if err := s.store.UploadMediaDir(hlsDir, keyPrefix); err != nil {
		return err
	}
	song.FileURL = keyPrefix + "/index.m3u8"

	if verdict.Fingerprint != "" {
		song.Fingerprint = &verdict.Fingerprint
	}
	if verdict.DurationSeconds > 0 {
		d := verdict.DurationSeconds
		song.DurationSeconds = &d
	}

	return s.catalog.Create(ctx, song)
}

// stampTags writes tags into the file before transcoding. Best effort; an
// untagged source is still worth ingesting.
func stampTags(path string, tags metadata.Tags) {
	if tags == (metadata.Tags{}) {
		return
	}
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		err = metadata.StampMP3(path, tags)
	case ".flac":
		err = metadata.StampFLAC(path, tags)
	default:
		return
	}
	if err != nil {
		log.Printf("⚠️ Tag stamping failed for %s: %v", filepath.Base(path), err)
	}
}

func applyRefs(song *models.Song, genreID, artistID, userID string) {
	if genreID != "" {
		song.GenreID = &genreID
	}
	if artistID != "" {
		song.ArtistID = &artistID
	}
	if userID != "" {
		song.UploadedBy = &userID
	}
}
