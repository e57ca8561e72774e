package fingerprint

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

// DefaultExtractTimeout bounds one fpcalc run. Chromaprint normally finishes
// in well under a second; anything longer means a wedged subprocess.
const DefaultExtractTimeout = 30 * time.Second

var (
	fingerprintRe = regexp.MustCompile(`FINGERPRINT=(.+)`)
	durationRe    = regexp.MustCompile(`DURATION=(\d+)`)
)

// Result is the outcome of one successful extraction. Fingerprint is the raw
// Chromaprint feature vector: comma-separated signed 32-bit integers ordered
// by time.
type Result struct {
	Fingerprint     string
	DurationSeconds int
}

// Extractor wraps the external Chromaprint fpcalc binary. Extraction is
// best-effort by design: a missing binary, unreadable file, crash or timeout
// all degrade to "no fingerprint" so ingestion can still proceed.
type Extractor struct {
	// FpcalcPath is the fpcalc binary, resolved via $PATH when bare.
	FpcalcPath string
	// Timeout is the subprocess ceiling; DefaultExtractTimeout when zero.
	Timeout time.Duration
}

func NewExtractor(fpcalcPath string, timeout time.Duration) *Extractor {
	if fpcalcPath == "" {
		fpcalcPath = "fpcalc"
	}
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}
	return &Extractor{FpcalcPath: fpcalcPath, Timeout: timeout}
}

// Extract runs fpcalc in raw mode on the audio file and parses the
// FINGERPRINT= and DURATION= lines from its output. It returns nil when no
// fingerprint could be produced; that is an outcome, not an error.
func (e *Extractor) Extract(ctx context.Context, audioPath string) *Result {
	if _, err := os.Stat(audioPath); err != nil {
		slog.Warn("fingerprint: audio file not readable", "path", audioPath, "error", err)
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.FpcalcPath, "-raw", audioPath)
	out, err := cmd.Output()
	if err != nil {
		// Covers binary-not-found, non-zero exit and the context deadline;
		// all of them mean "no fingerprint available".
		slog.Warn("fingerprint: fpcalc failed", "path", audioPath, "error", err)
		return nil
	}

	m := fingerprintRe.FindSubmatch(out)
	if m == nil {
		slog.Warn("fingerprint: no FINGERPRINT line in fpcalc output", "path", audioPath)
		return nil
	}

	res := &Result{Fingerprint: string(trimSpace(m[1]))}
	if d := durationRe.FindSubmatch(out); d != nil {
		res.DurationSeconds, _ = strconv.Atoi(string(d[1]))
	}
	return res
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r' || b[len(b)-1] == ' ') {
		b = b[:len(b)-1]
	}
	return b
}
