package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const desktopEntry = `[Desktop Entry]
Type=Application
Name=ytgrab
Comment=Download videos with yt-dlp
Exec=%s tui
Terminal=true
Categories=AudioVideo;Network;
`

// WriteShortcut installs a launcher that opens the interactive UI. It is an
// explicit user action, never done implicitly. Returns the path written.
func WriteShortcut(exePath string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "linux":
		dir := filepath.Join(home, ".local", "share", "applications")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		path := filepath.Join(dir, "ytgrab.desktop")
		if err := os.WriteFile(path, []byte(fmt.Sprintf(desktopEntry, exePath)), 0o644); err != nil {
			return "", err
		}
		return path, nil
	case "darwin":
		path := filepath.Join(home, "Desktop", "ytgrab.command")
		script := fmt.Sprintf("#!/bin/sh\nexec %q tui\n", exePath)
		if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
			return "", err
		}
		return path, nil
	default:
		return "", fmt.Errorf("desktop shortcuts are not supported on %s", runtime.GOOS)
	}
}
