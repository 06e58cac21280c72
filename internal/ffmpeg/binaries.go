package ffmpeg

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	bundleVersion = "6.1"
	bundleBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"

	EnvFFmpeg  = "CUELINE_FFMPEG_PATH"
	EnvFFprobe = "CUELINE_FFPROBE_PATH"
)

// resolved tool locations
type Binaries struct {
	FFmpeg  string
	FFprobe string
}

var (
	resolveOnce sync.Once
	resolveErr  error
	resolved    Binaries
)

// Resolve finds ffmpeg and ffprobe once per process: explicit environment
// overrides first, then PATH, then a bundle cached under the user cache dir
// (downloaded on first use).
func Resolve() (Binaries, error) {
	resolveOnce.Do(func() {
		resolved, resolveErr = locate(lookupEnv, exec.LookPath, bundleDir())
		if resolveErr == nil {
			return
		}
		if !errors.Is(resolveErr, errBundleMissing) {
			return
		}
		resolved, resolveErr = installBundle(bundleDir())
	})
	return resolved, resolveErr
}

func FFmpegPath() (string, error) {
	bins, err := Resolve()
	if err != nil {
		return "", err
	}
	return bins.FFmpeg, nil
}

func FFprobePath() (string, error) {
	bins, err := Resolve()
	if err != nil {
		return "", err
	}
	return bins.FFprobe, nil
}

var errBundleMissing = errors.New("ffmpeg not found on PATH and no cached bundle")

func lookupEnv(key string) string { return os.Getenv(key) }

// locate resolves without touching the network
func locate(env func(string) string, look func(string) (string, error), cacheDir string) (Binaries, error) {
	bins := Binaries{FFmpeg: env(EnvFFmpeg), FFprobe: env(EnvFFprobe)}
	if bins.FFmpeg == "" {
		if found, err := look("ffmpeg"); err == nil {
			bins.FFmpeg = found
		}
	}
	if bins.FFprobe == "" {
		if found, err := look("ffprobe"); err == nil {
			bins.FFprobe = found
		}
	}
	if bins.FFmpeg != "" && bins.FFprobe != "" {
		return bins, nil
	}

	cached := bundlePaths(cacheDir)
	if bins.FFmpeg == "" && fileExists(cached.FFmpeg) {
		bins.FFmpeg = cached.FFmpeg
	}
	if bins.FFprobe == "" && fileExists(cached.FFprobe) {
		bins.FFprobe = cached.FFprobe
	}
	if bins.FFmpeg != "" && bins.FFprobe != "" {
		return bins, nil
	}
	return Binaries{}, errBundleMissing
}

func bundleDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil || cacheDir == "" {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, "cueline", "ffmpeg", bundleVersion, runtime.GOOS, runtime.GOARCH)
}

func bundlePaths(dir string) Binaries {
	return Binaries{
		FFmpeg:  filepath.Join(dir, "ffmpeg"+exeSuffix()),
		FFprobe: filepath.Join(dir, "ffprobe"+exeSuffix()),
	}
}

func installBundle(dir string) (Binaries, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Binaries{}, fmt.Errorf("failed to create ffmpeg cache dir: %w", err)
	}
	bins := bundlePaths(dir)
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		asset, err := bundleAsset(tool, runtime.GOOS, runtime.GOARCH)
		if err != nil {
			return Binaries{}, err
		}
		if err := download(asset, tool, dir); err != nil {
			return Binaries{}, err
		}
	}

	if !fileExists(bins.FFmpeg) || !fileExists(bins.FFprobe) {
		return Binaries{}, errors.New("ffmpeg binaries not found after extraction")
	}
	if runtime.GOOS != "windows" {
		for _, p := range []string{bins.FFmpeg, bins.FFprobe} {
			if err := os.Chmod(p, 0o755); err != nil {
				return Binaries{}, fmt.Errorf("failed to mark %s executable: %w", filepath.Base(p), err)
			}
		}
	}
	return bins, nil
}

// bundleAsset names the release archive holding tool for a platform
func bundleAsset(tool, goos, goarch string) (string, error) {
	var platform string
	switch goos + "/" + goarch {
	case "linux/amd64":
		platform = "linux-64"
	case "linux/arm64":
		platform = "linux-arm-64"
	case "darwin/amd64":
		platform = "macos-64"
	case "windows/amd64":
		platform = "win-64"
	default:
		return "", fmt.Errorf("no ffmpeg bundle for %s/%s, install ffmpeg or set %s", goos, goarch, EnvFFmpeg)
	}
	return fmt.Sprintf("%s-%s-%s.zip", tool, bundleVersion, platform), nil
}

func download(asset, tool, dir string) error {
	url := fmt.Sprintf("%s/v%s/%s", bundleBaseURL, bundleVersion, asset)
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", asset, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: unexpected status %s", asset, resp.Status)
	}

	tmp, err := os.CreateTemp("", "cueline-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}
	archive := tmp.Name()
	defer func() { _ = os.Remove(archive) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return unpack(archive, tool, dir)
}

// unpack copies the entry named tool out of a zip archive into dir
func unpack(archive, tool, dir string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("failed to open %s archive: %w", tool, err)
	}
	defer func() { _ = zr.Close() }()

	dest := filepath.Join(dir, tool+exeSuffix())
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || toolName(f.Name) != tool {
			continue
		}
		return copyEntry(f, dest)
	}
	return fmt.Errorf("%s archive is missing the %s binary", tool, tool)
}

func toolName(entry string) string {
	name := strings.ToLower(filepath.Base(entry))
	return strings.TrimSuffix(name, ".exe")
}

func copyEntry(f *zip.File, dest string) error {
	r, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer func() { _ = r.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return out.Close()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

func exeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
