package fingerprint

import (
	"context"
	"errors"
	"testing"
)

// fakeIndex records how often each lookup runs so tests can assert the
// pipeline short-circuits where it should.
type fakeIndex struct {
	byYoutube     *Candidate
	byYoutubeErr  error
	candidates    []Candidate
	candidatesErr error

	youtubeCalls  int
	durationCalls int
	lastDuration  int
	lastTolerance int
}

func (f *fakeIndex) FindByYoutubeID(ctx context.Context, youtubeID string) (*Candidate, error) {
	f.youtubeCalls++
	return f.byYoutube, f.byYoutubeErr
}

func (f *fakeIndex) FindBySimilarDuration(ctx context.Context, duration, tolerance int) ([]Candidate, error) {
	f.durationCalls++
	f.lastDuration = duration
	f.lastTolerance = tolerance
	return f.candidates, f.candidatesErr
}

type fakeExtractor struct {
	result *Result
	calls  int
}

func (f *fakeExtractor) Extract(ctx context.Context, audioPath string) *Result {
	f.calls++
	return f.result
}

func TestCheckDuplicateSkip(t *testing.T) {
	idx := &fakeIndex{}
	ext := &fakeExtractor{}
	d := NewDetector(idx, ext, DetectorConfig{})

	v, err := d.CheckDuplicate(context.Background(), CheckInput{
		AudioPath:  "/tmp/song.mp3",
		YoutubeURL: "https://youtu.be/dQw4w9WgXcQ",
		Skip:       true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsDuplicate {
		t.Error("skip must never report a duplicate")
	}
	if idx.youtubeCalls != 0 || idx.durationCalls != 0 || ext.calls != 0 {
		t.Errorf("skip ran pipeline stages: youtube=%d duration=%d extract=%d",
			idx.youtubeCalls, idx.durationCalls, ext.calls)
	}
}

func TestCheckDuplicateYoutubeIDMatch(t *testing.T) {
	existing := &Candidate{ID: "song-1", Title: "Already Here"}
	idx := &fakeIndex{byYoutube: existing}
	ext := &fakeExtractor{result: &Result{Fingerprint: "1,2,3", DurationSeconds: 200}}
	d := NewDetector(idx, ext, DetectorConfig{})

	v, err := d.CheckDuplicate(context.Background(), CheckInput{
		AudioPath:  "/tmp/song.mp3",
		YoutubeURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !v.IsDuplicate || v.Reason != ReasonYoutubeIDMatch {
		t.Fatalf("want YOUTUBE_ID_MATCH duplicate, got %+v", v)
	}
	if v.Existing != existing {
		t.Error("verdict should carry the matched song")
	}
	if v.Similarity != 1.0 {
		t.Errorf("identity match similarity = %v, want 1.0", v.Similarity)
	}

	// Identity match must short-circuit: no audio work, no candidate scan
	if ext.calls != 0 {
		t.Errorf("extractor ran %d times after ID match", ext.calls)
	}
	if idx.durationCalls != 0 {
		t.Errorf("duration lookup ran %d times after ID match", idx.durationCalls)
	}
}

func TestCheckDuplicateFingerprintMatch(t *testing.T) {
	// Candidate fingerprint identical to the extracted one: score 1.0, but
	// the verdict reports the configured threshold, not the raw score.
	idx := &fakeIndex{candidates: []Candidate{
		{ID: "song-2", Title: "Close Enough", Fingerprint: "10,20,30", DurationSeconds: 181},
	}}
	ext := &fakeExtractor{result: &Result{Fingerprint: "10,20,30", DurationSeconds: 180}}
	d := NewDetector(idx, ext, DetectorConfig{})

	v, err := d.CheckDuplicate(context.Background(), CheckInput{AudioPath: "/tmp/song.mp3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !v.IsDuplicate || v.Reason != ReasonFingerprintMatch {
		t.Fatalf("want FINGERPRINT_MATCH duplicate, got %+v", v)
	}
	if v.Existing == nil || v.Existing.ID != "song-2" {
		t.Errorf("wrong matched song: %+v", v.Existing)
	}
	if v.Similarity != DefaultSimilarityThreshold {
		t.Errorf("reported similarity = %v, want threshold %v", v.Similarity, DefaultSimilarityThreshold)
	}

	// Device upload: no YouTube stage at all
	if idx.youtubeCalls != 0 {
		t.Errorf("youtube lookup ran %d times for a device upload", idx.youtubeCalls)
	}
	if idx.lastDuration != 180 || idx.lastTolerance != DefaultDurationTolerance {
		t.Errorf("candidate filter got (%d, %d), want (180, %d)",
			idx.lastDuration, idx.lastTolerance, DefaultDurationTolerance)
	}
}

func TestCheckDuplicateNoMatch(t *testing.T) {
	idx := &fakeIndex{candidates: []Candidate{
		{ID: "song-3", Fingerprint: "0,0,0", DurationSeconds: 182},
	}}
	ext := &fakeExtractor{result: &Result{Fingerprint: "-1,-1,-1", DurationSeconds: 180}}
	d := NewDetector(idx, ext, DetectorConfig{})

	v, err := d.CheckDuplicate(context.Background(), CheckInput{AudioPath: "/tmp/song.mp3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsDuplicate {
		t.Fatalf("dissimilar candidate reported as duplicate: %+v", v)
	}

	// Not-duplicate verdict hands back the extraction so it can be stored
	if v.Fingerprint != "-1,-1,-1" || v.DurationSeconds != 180 {
		t.Errorf("verdict lost extraction: fp=%q dur=%d", v.Fingerprint, v.DurationSeconds)
	}
}

func TestCheckDuplicateExtractionFailure(t *testing.T) {
	idx := &fakeIndex{}
	ext := &fakeExtractor{result: nil}
	d := NewDetector(idx, ext, DetectorConfig{})

	v, err := d.CheckDuplicate(context.Background(), CheckInput{AudioPath: "/tmp/broken.mp3"})
	if err != nil {
		t.Fatalf("extraction failure must not be an error, got: %v", err)
	}
	if v.IsDuplicate {
		t.Error("unfingerprintable audio must pass as not duplicate")
	}
	if idx.durationCalls != 0 {
		t.Error("candidate lookup ran without a fingerprint to compare")
	}
}

func TestCheckDuplicateIndexErrors(t *testing.T) {
	boom := errors.New("db down")

	t.Run("Youtube Lookup", func(t *testing.T) {
		idx := &fakeIndex{byYoutubeErr: boom}
		d := NewDetector(idx, &fakeExtractor{}, DetectorConfig{})

		_, err := d.CheckDuplicate(context.Background(), CheckInput{
			AudioPath:  "/tmp/song.mp3",
			YoutubeURL: "https://youtu.be/dQw4w9WgXcQ",
		})
		if !errors.Is(err, boom) {
			t.Errorf("want store error to propagate, got: %v", err)
		}
	})

	t.Run("Candidate Lookup", func(t *testing.T) {
		idx := &fakeIndex{candidatesErr: boom}
		ext := &fakeExtractor{result: &Result{Fingerprint: "1,2,3", DurationSeconds: 90}}
		d := NewDetector(idx, ext, DetectorConfig{})

		_, err := d.CheckDuplicate(context.Background(), CheckInput{AudioPath: "/tmp/song.mp3"})
		if !errors.Is(err, boom) {
			t.Errorf("want store error to propagate, got: %v", err)
		}
	})
}

func TestCheckDuplicateCustomThreshold(t *testing.T) {
	// 0 vs 15: one element, 28/32 = 0.875
	idx := &fakeIndex{candidates: []Candidate{
		{ID: "song-4", Fingerprint: "15", DurationSeconds: 60},
	}}
	ext := &fakeExtractor{result: &Result{Fingerprint: "0", DurationSeconds: 60}}

	strict := NewDetector(idx, ext, DetectorConfig{SimilarityThreshold: 0.9})
	v, err := strict.CheckDuplicate(context.Background(), CheckInput{AudioPath: "/tmp/a.mp3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsDuplicate {
		t.Error("0.875 score should not match at 0.9 threshold")
	}

	lenient := NewDetector(idx, ext, DetectorConfig{SimilarityThreshold: 0.8})
	v, err = lenient.CheckDuplicate(context.Background(), CheckInput{AudioPath: "/tmp/a.mp3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsDuplicate {
		t.Error("0.875 score should match at 0.8 threshold")
	}
	if v.Similarity != 0.8 {
		t.Errorf("reported similarity = %v, want configured threshold 0.8", v.Similarity)
	}
}
