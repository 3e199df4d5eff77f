package session

import "ytgrab/internal/ytdlp"

// Estimator folds downloader output events into a bounded 0..100 progress
// value. Within one file the percentage never decreases; it resets to zero
// only when a new per-file boundary is observed, which is how playlist
// transfers report without the backward jump looking like an error.
type Estimator struct {
	pct      float64
	files    int
	lastDest string
	advanced bool // progress observed since the last boundary
}

// Observe feeds one parsed event. It reports whether the estimate changed.
func (e *Estimator) Observe(ev ytdlp.Event) bool {
	switch ev.Kind {
	case ytdlp.EventFile:
		if ev.Destination != "" && ev.Destination == e.lastDest {
			// Resumed or re-announced destination, not a new file.
			return false
		}
		if ev.Destination != "" {
			e.lastDest = ev.Destination
		}
		if e.files > 0 && !e.advanced {
			// yt-dlp announces a playlist entry twice, "Downloading item
			// i of n" and then its "Destination:" line. No progress in
			// between means this is still the same entry.
			return false
		}
		e.files++
		e.pct = 0
		e.advanced = false
		return true
	case ytdlp.EventProgress:
		if ev.Percent < 0 {
			return false
		}
		e.advanced = true
		if e.files == 0 {
			// Percent before any boundary line: first file is implicit.
			e.files = 1
		}
		p := ev.Percent
		if p > 100 {
			p = 100
		}
		if p < e.pct {
			// Stale line within the current file; keep monotonic.
			return false
		}
		e.pct = p
		return true
	}
	return false
}

// Percent returns the current estimate for the file in transfer.
func (e *Estimator) Percent() float64 { return e.pct }

// Files returns how many per-file boundaries have been observed.
func (e *Estimator) Files() int { return e.files }
