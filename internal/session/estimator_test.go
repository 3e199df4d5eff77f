package session

import (
	"testing"

	"ytgrab/internal/ytdlp"
)

func feed(t *testing.T, e *Estimator, lines ...string) {
	t.Helper()
	for _, l := range lines {
		e.Observe(ytdlp.ParseLine(l))
	}
}

func TestEstimatorSingleFile(t *testing.T) {
	e := &Estimator{}
	feed(t, e,
		"[youtube] abc: Downloading webpage",
		"[download] Destination: clip.mp4",
		"[download]  25.0% of 10.00MiB at 1.00MiB/s ETA 00:08",
		"[download]  80.0% of 10.00MiB at 1.00MiB/s ETA 00:02",
		"[download] 100% of 10.00MiB in 00:10",
	)
	if got := e.Percent(); got != 100 {
		t.Errorf("percent = %.1f, want 100", got)
	}
	if got := e.Files(); got != 1 {
		t.Errorf("files = %d, want 1", got)
	}
}

func TestEstimatorIgnoresBackwardPercent(t *testing.T) {
	e := &Estimator{}
	feed(t, e,
		"[download] Destination: clip.mp4",
		"[download]  60.0% of 10.00MiB at 1.00MiB/s ETA 00:04",
	)
	if e.Observe(ytdlp.ParseLine("[download]  40.0% of 10.00MiB at 1.00MiB/s ETA 00:06")) {
		t.Error("stale percent reported as a change")
	}
	if got := e.Percent(); got != 60 {
		t.Errorf("percent = %.1f, want 60", got)
	}
}

func TestEstimatorResetsAtFileBoundary(t *testing.T) {
	e := &Estimator{}
	feed(t, e,
		"[download] Destination: one.mp4",
		"[download]  90.0% of 10.00MiB at 1.00MiB/s ETA 00:01",
		"[download] Destination: two.mp4",
	)
	if got := e.Percent(); got != 0 {
		t.Errorf("percent after boundary = %.1f, want 0", got)
	}
	feed(t, e, "[download]  10.0% of 4.00MiB at 1.00MiB/s ETA 00:03")
	if got := e.Percent(); got != 10 {
		t.Errorf("percent = %.1f, want 10", got)
	}
	if got := e.Files(); got != 2 {
		t.Errorf("files = %d, want 2", got)
	}
}

func TestEstimatorDedupsRepeatedDestination(t *testing.T) {
	e := &Estimator{}
	feed(t, e,
		"[download] Destination: clip.mp4",
		"[download]  70.0% of 10.00MiB at 1.00MiB/s ETA 00:03",
		"[download] Destination: clip.mp4",
	)
	if got := e.Files(); got != 1 {
		t.Errorf("files = %d, want 1 (re-announced destination is not a new file)", got)
	}
	if got := e.Percent(); got != 70 {
		t.Errorf("percent = %.1f, want 70 (dedup must not reset)", got)
	}
}

func TestEstimatorPlaylistItemBoundaries(t *testing.T) {
	e := &Estimator{}
	feed(t, e,
		"[download] Downloading item 1 of 3",
		"[download]  50.0% of 10.00MiB at 1.00MiB/s ETA 00:05",
		"[download] Downloading item 2 of 3",
		"[download]  20.0% of 8.00MiB at 1.00MiB/s ETA 00:06",
	)
	if got := e.Files(); got != 2 {
		t.Errorf("files = %d, want 2", got)
	}
	if got := e.Percent(); got != 20 {
		t.Errorf("percent = %.1f, want 20", got)
	}
}

func TestEstimatorCountsDoublyAnnouncedEntriesOnce(t *testing.T) {
	// yt-dlp announces each playlist entry with an item line followed by
	// its Destination line; the pair is one boundary, not two.
	e := &Estimator{}
	feed(t, e,
		"[download] Downloading item 1 of 2",
		"[download] Destination: one.mp4",
		"[download]  40.0% of 10.00MiB at 1.00MiB/s ETA 00:06",
		"[download] 100% of 10.00MiB in 00:10",
		"[download] Downloading item 2 of 2",
		"[download] Destination: two.mp4",
	)
	if got := e.Files(); got != 2 {
		t.Errorf("files = %d, want 2 (one boundary per playlist entry)", got)
	}
	if got := e.Percent(); got != 0 {
		t.Errorf("percent after second boundary = %.1f, want 0", got)
	}
	feed(t, e, "[download]  15.0% of 6.00MiB at 1.00MiB/s ETA 00:05")
	if got := e.Percent(); got != 15 {
		t.Errorf("percent = %.1f, want 15", got)
	}
	if got := e.Files(); got != 2 {
		t.Errorf("files = %d, want 2 after progress on the second entry", got)
	}
}

func TestEstimatorImplicitFirstFile(t *testing.T) {
	e := &Estimator{}
	feed(t, e, "[download]  30.0% of 10.00MiB at 1.00MiB/s ETA 00:07")
	if got := e.Files(); got != 1 {
		t.Errorf("files = %d, want 1 (percent before any boundary implies a file)", got)
	}
}

func TestEstimatorClampsOverflow(t *testing.T) {
	e := &Estimator{}
	feed(t, e, "[download] 104.3% of 10.00MiB at 1.00MiB/s ETA 00:00")
	if got := e.Percent(); got != 100 {
		t.Errorf("percent = %.1f, want clamp to 100", got)
	}
}
