package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"ytgrab/internal/progress"
	"ytgrab/internal/util"
	"ytgrab/internal/ytdlp"
)

// DefaultReleaseURL is the yt-dlp project's latest-release download base.
const DefaultReleaseURL = "https://github.com/yt-dlp/yt-dlp/releases/latest/download"

// Installer fetches the yt-dlp binary into the app's managed bin dir.
type Installer struct {
	Client  *http.Client
	BaseURL string // release download base; tests point this at a local server
	DestDir string
	Logger  *zerolog.Logger
}

func NewInstaller(destDir string, logger *zerolog.Logger) *Installer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Installer{
		Client:  &http.Client{Timeout: 10 * time.Minute},
		BaseURL: DefaultReleaseURL,
		DestDir: destDir,
		Logger:  logger,
	}
}

// assetName maps the platform to the name yt-dlp publishes its standalone
// binary under.
func assetName() string {
	switch runtime.GOOS {
	case "windows":
		return "yt-dlp.exe"
	case "darwin":
		return "yt-dlp_macos"
	default:
		return "yt-dlp"
	}
}

// Install downloads the latest yt-dlp release binary and returns the path it
// was installed at. The download goes through a .part file so an interrupted
// fetch never leaves a half-written executable behind.
func (i *Installer) Install(ctx context.Context) (string, error) {
	url := i.BaseURL + "/" + assetName()
	i.Logger.Info().Str("url", url).Str("dest", i.DestDir).Msg("installing yt-dlp")

	if err := os.MkdirAll(i.DestDir, 0o755); err != nil {
		return "", fmt.Errorf("creating bin dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	resp, err := i.Client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	dest := filepath.Join(i.DestDir, ytdlp.BinaryName())
	part := dest + ".part"
	out, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", part, err)
	}

	n, err := io.Copy(out, resp.Body)
	cerr := out.Close()
	if err != nil || cerr != nil {
		_ = os.Remove(part)
		if err == nil {
			err = cerr
		}
		return "", &NetworkError{URL: url, Err: err}
	}

	if err := os.Chmod(part, 0o755); err != nil {
		_ = os.Remove(part)
		return "", fmt.Errorf("marking %s executable: %w", part, err)
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return "", fmt.Errorf("installing %s: %w", dest, err)
	}

	i.Logger.Info().Str("path", dest).Int64("bytes", n).Msg("yt-dlp installed")
	return dest, nil
}

// ErrNoPackageManager means ffmpeg has to be installed by hand.
var ErrNoPackageManager = errors.New("no supported package manager found; install ffmpeg manually")

// ffmpegCommand picks the platform package-manager invocation.
func ffmpegCommand() (util.CmdSpec, error) {
	type candidate struct {
		bin  string
		args []string
	}
	var candidates []candidate
	switch runtime.GOOS {
	case "darwin":
		candidates = []candidate{{"brew", []string{"install", "ffmpeg"}}}
	case "windows":
		candidates = []candidate{{"winget", []string{"install", "--id", "Gyan.FFmpeg", "-e", "--accept-source-agreements"}}}
	default:
		candidates = []candidate{
			{"apt-get", []string{"install", "-y", "ffmpeg"}},
			{"dnf", []string{"install", "-y", "ffmpeg"}},
			{"pacman", []string{"-S", "--noconfirm", "ffmpeg"}},
		}
	}
	for _, c := range candidates {
		if p, err := exec.LookPath(c.bin); err == nil {
			return util.CmdSpec{Path: p, Args: c.args}, nil
		}
	}
	return util.CmdSpec{}, ErrNoPackageManager
}

// InstallFFmpeg runs the platform package manager, streaming its output to
// rep the same way download output is streamed.
func InstallFFmpeg(ctx context.Context, runner util.CmdRunner, rep progress.Reporter) error {
	if runner == nil {
		runner = util.NewDefaultRunner()
	}
	if rep == nil {
		rep = progress.Nop()
	}
	spec, err := ffmpegCommand()
	if err != nil {
		return err
	}
	emit := func(line string) { rep.Log(progress.Log{Line: line}) }
	spec.StdoutLine = emit
	spec.StderrLine = emit

	if _, err := runner.Run(ctx, spec); err != nil {
		return fmt.Errorf("installing ffmpeg: %w", err)
	}
	return nil
}
