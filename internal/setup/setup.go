// Package setup checks for the external tools the app depends on and can
// install the missing ones: the yt-dlp binary from its release feed and
// ffmpeg through the platform package manager.
package setup

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"ytgrab/internal/ytdlp"
)

// Report is the result of a dependency check.
type Report struct {
	Downloader string // resolved yt-dlp path, empty when missing
	Managed    bool   // true when Downloader lives in the app bin dir
	FFmpeg     string // resolved ffmpeg path, empty when missing
	Missing    []string
}

// Ready reports whether everything needed for a download is present.
// ffmpeg is only required for merge and post-processing, so it is listed
// in Missing but does not gate readiness.
func (r Report) Ready() bool { return r.Downloader != "" }

// Check probes for the downloader and ffmpeg. It never modifies anything.
func Check(custom, binDir string) Report {
	var rep Report
	if p, err := ytdlp.Find(custom, binDir); err == nil {
		rep.Downloader = p
		rep.Managed = binDir != "" && strings.HasPrefix(p, binDir+string(filepath.Separator))
	} else {
		rep.Missing = append(rep.Missing, "yt-dlp")
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		rep.FFmpeg = p
	} else {
		rep.Missing = append(rep.Missing, "ffmpeg")
	}
	return rep
}

// NetworkError marks a failure to reach or read from the release feed.
// These are transient; retrying is reasonable.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("fetching %s: %v", e.URL, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }
