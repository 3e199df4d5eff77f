package ytdlp

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrNotFound means no usable downloader executable could be located.
var ErrNotFound = errors.New("downloader not found")

// BinaryName returns the downloader binary filename for this platform.
func BinaryName() string {
	if runtime.GOOS == "windows" {
		return "yt-dlp.exe"
	}
	return "yt-dlp"
}

// Find locates the yt-dlp executable to run. A custom path or command name
// takes priority; otherwise the managed copy in managedDir wins over PATH,
// with youtube-dl as a last resort.
func Find(custom, managedDir string) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		if p, err := exec.LookPath(custom); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("%w: %q is not a file or command", ErrNotFound, custom)
	}
	if managedDir != "" {
		managed := filepath.Join(managedDir, BinaryName())
		if info, err := os.Stat(managed); err == nil && !info.IsDir() {
			return managed, nil
		}
	}
	if p, err := exec.LookPath("yt-dlp"); err == nil {
		return p, nil
	}
	if p, err := exec.LookPath("youtube-dl"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: yt-dlp is not installed; run the setup command", ErrNotFound)
}
