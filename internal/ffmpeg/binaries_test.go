package ffmpeg

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noPath(string) (string, error) { return "", errors.New("not found") }

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLocatePrefersEnvironment(t *testing.T) {
	env := envOf(map[string]string{EnvFFmpeg: "/opt/ff/ffmpeg", EnvFFprobe: "/opt/ff/ffprobe"})
	look := func(name string) (string, error) { return "/usr/bin/" + name, nil }

	bins, err := locate(env, look, t.TempDir())
	if err != nil {
		t.Fatalf("locate returned error: %v", err)
	}
	if bins.FFmpeg != "/opt/ff/ffmpeg" || bins.FFprobe != "/opt/ff/ffprobe" {
		t.Errorf("unexpected binaries %+v", bins)
	}
}

func TestLocateMixesEnvironmentAndPath(t *testing.T) {
	env := envOf(map[string]string{EnvFFmpeg: "/opt/ff/ffmpeg"})
	look := func(name string) (string, error) { return "/usr/bin/" + name, nil }

	bins, err := locate(env, look, t.TempDir())
	if err != nil {
		t.Fatalf("locate returned error: %v", err)
	}
	if bins.FFmpeg != "/opt/ff/ffmpeg" || bins.FFprobe != "/usr/bin/ffprobe" {
		t.Errorf("unexpected binaries %+v", bins)
	}
}

func TestLocateUsesCachedBundle(t *testing.T) {
	dir := t.TempDir()
	cached := bundlePaths(dir)
	for _, p := range []string{cached.FFmpeg, cached.FFprobe} {
		if err := os.WriteFile(p, []byte("bin"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	bins, err := locate(envOf(nil), noPath, dir)
	if err != nil {
		t.Fatalf("locate returned error: %v", err)
	}
	if bins != cached {
		t.Errorf("expected cached bundle %+v, got %+v", cached, bins)
	}
}

func TestLocateMissing(t *testing.T) {
	_, err := locate(envOf(nil), noPath, t.TempDir())
	if !errors.Is(err, errBundleMissing) {
		t.Errorf("expected errBundleMissing, got %v", err)
	}
}

func TestBundleAsset(t *testing.T) {
	tests := []struct {
		tool, goos, goarch string
		want               string
		wantErr            bool
	}{
		{"ffmpeg", "linux", "amd64", "ffmpeg-6.1-linux-64.zip", false},
		{"ffprobe", "linux", "arm64", "ffprobe-6.1-linux-arm-64.zip", false},
		{"ffmpeg", "darwin", "amd64", "ffmpeg-6.1-macos-64.zip", false},
		{"ffprobe", "windows", "amd64", "ffprobe-6.1-win-64.zip", false},
		{"ffmpeg", "plan9", "386", "", true},
	}
	for _, tt := range tests {
		got, err := bundleAsset(tt.tool, tt.goos, tt.goarch)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s/%s: error = %v, wantErr %v", tt.goos, tt.goarch, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("%s/%s: got %q, want %q", tt.goos, tt.goarch, got, tt.want)
		}
	}
}

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUnpack(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"bin/ffprobe": "ffprobe-binary",
		"README.txt":  "ignored",
	})
	dir := t.TempDir()
	if err := unpack(archive, "ffprobe", dir); err != nil {
		t.Fatalf("unpack returned error: %v", err)
	}
	got, err := os.ReadFile(bundlePaths(dir).FFprobe)
	if err != nil {
		t.Fatalf("ffprobe not extracted: %v", err)
	}
	if string(got) != "ffprobe-binary" {
		t.Errorf("unexpected ffprobe content %q", got)
	}
}

func TestUnpackMissingBinary(t *testing.T) {
	archive := writeZip(t, map[string]string{"ffmpeg": "wrong tool"})
	err := unpack(archive, "ffprobe", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("expected missing binaries error, got %v", err)
	}
}
