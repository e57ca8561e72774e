package fingerprint

import (
	"context"
	"log/slog"
)

// Dedup verdict reasons, surfaced verbatim in API responses.
const (
	ReasonYoutubeIDMatch   = "YOUTUBE_ID_MATCH"
	ReasonFingerprintMatch = "FINGERPRINT_MATCH"
)

// DefaultDurationTolerance is the candidate pre-filter window in seconds.
// Two uploads of the same recording rarely differ by more than a few seconds
// of silence padding.
const DefaultDurationTolerance = 5

// Candidate is the minimal projection of a stored song the detector needs:
// identity for reporting plus fingerprint and duration for comparison.
type Candidate struct {
	ID              string
	Title           string
	Fingerprint     string
	DurationSeconds int
}

// Index is the catalog lookup surface the detector runs against.
type Index interface {
	// FindByYoutubeID returns the song previously ingested from this video,
	// or nil when none exists.
	FindByYoutubeID(ctx context.Context, youtubeID string) (*Candidate, error)
	// FindBySimilarDuration returns all fingerprinted songs whose duration
	// lies within tolerance seconds of duration.
	FindBySimilarDuration(ctx context.Context, duration, tolerance int) ([]Candidate, error)
}

// AudioExtractor produces a fingerprint for a local audio file, nil when the
// file cannot be fingerprinted.
type AudioExtractor interface {
	Extract(ctx context.Context, audioPath string) *Result
}

// Verdict is the outcome of one duplicate check. When IsDuplicate is set,
// Existing names the matched song and Similarity carries the match score;
// otherwise Fingerprint and DurationSeconds hold whatever was extracted so
// the caller can persist them with the new song.
type Verdict struct {
	IsDuplicate bool       `json:"is_duplicate"`
	Reason      string     `json:"reason,omitempty"`
	Existing    *Candidate `json:"existing_song,omitempty"`
	Similarity  float64    `json:"similarity,omitempty"`

	Fingerprint     string `json:"-"`
	DurationSeconds int    `json:"-"`
}

// DetectorConfig carries the two tunables of the pipeline. Zero values fall
// back to the package defaults.
type DetectorConfig struct {
	SimilarityThreshold float64
	DurationTolerance   int
}

// Detector runs the duplicate-check pipeline: a cheap YouTube-ID identity
// lookup first, then acoustic comparison against duration-filtered
// candidates.
type Detector struct {
	index     Index
	extractor AudioExtractor
	cfg       DetectorConfig
}

func NewDetector(index Index, extractor AudioExtractor, cfg DetectorConfig) *Detector {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.DurationTolerance <= 0 {
		cfg.DurationTolerance = DefaultDurationTolerance
	}
	return &Detector{index: index, extractor: extractor, cfg: cfg}
}

// CheckInput describes the song about to be ingested. YoutubeURL is empty for
// device uploads. Skip bypasses the whole pipeline.
type CheckInput struct {
	AudioPath  string
	YoutubeURL string
	Skip       bool
}

// CheckDuplicate decides whether the incoming audio already exists in the
// catalog. Fingerprint extraction failures degrade to a not-duplicate
// verdict; only index query errors propagate, because a half-checked catalog
// must not admit a song as new.
func (d *Detector) CheckDuplicate(ctx context.Context, in CheckInput) (*Verdict, error) {
	if in.Skip {
		return &Verdict{}, nil
	}

	// Stage 1: same-video identity. Exact and cheap, so it runs before any
	// audio work.
	if in.YoutubeURL != "" {
		if videoID := ExtractVideoID(in.YoutubeURL); videoID != "" {
			existing, err := d.index.FindByYoutubeID(ctx, videoID)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				slog.Info("duplicate: youtube id already ingested",
					"video_id", videoID, "song_id", existing.ID)
				return &Verdict{
					IsDuplicate: true,
					Reason:      ReasonYoutubeIDMatch,
					Existing:    existing,
					Similarity:  1.0,
				}, nil
			}
		}
	}

	// Stage 2: acoustic comparison.
	res := d.extractor.Extract(ctx, in.AudioPath)
	if res == nil {
		// Nothing to compare against; the song goes in unfingerprinted.
		return &Verdict{}, nil
	}

	candidates, err := d.index.FindBySimilarDuration(ctx, res.DurationSeconds, d.cfg.DurationTolerance)
	if err != nil {
		return nil, err
	}

	for _, c := range candidates {
		if AreSimilar(res.Fingerprint, c.Fingerprint, d.cfg.SimilarityThreshold) {
			match := c
			slog.Info("duplicate: fingerprint match",
				"song_id", c.ID, "title", c.Title)
			return &Verdict{
				IsDuplicate: true,
				Reason:      ReasonFingerprintMatch,
				Existing:    &match,
				Similarity:  d.cfg.SimilarityThreshold,
			}, nil
		}
	}

	return &Verdict{
		Fingerprint:     res.Fingerprint,
		DurationSeconds: res.DurationSeconds,
	}, nil
}
