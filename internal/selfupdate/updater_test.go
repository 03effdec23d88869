package selfupdate

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetFor(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		goarch  string
		want    string
		wantErr bool
	}{
		{"linux amd64", "linux", "amd64", "solvenext_linux_amd64.tar.gz", false},
		{"linux arm64", "linux", "arm64", "solvenext_linux_arm64.tar.gz", false},
		{"darwin amd64", "darwin", "amd64", "solvenext_darwin_amd64.tar.gz", false},
		{"darwin arm64", "darwin", "arm64", "solvenext_darwin_arm64.tar.gz", false},
		{"windows amd64", "windows", "amd64", "solvenext_windows_amd64.zip", false},
		{"unsupported os", "freebsd", "amd64", "", true},
		{"unsupported arch", "linux", "mips", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := assetFor(tt.goos, tt.goarch)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecksumFor(t *testing.T) {
	sums := []byte("abc123  solvenext_linux_amd64.tar.gz\n" +
		"badline\n" +
		"def456  solvenext_darwin_arm64.tar.gz\n")

	t.Run("found", func(t *testing.T) {
		got, err := checksumFor(sums, "solvenext_darwin_arm64.tar.gz")
		require.NoError(t, err)
		assert.Equal(t, "def456", got)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := checksumFor(sums, "solvenext_windows_amd64.zip")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no checksum")
	})
}

func TestExtractBinary(t *testing.T) {
	content := []byte("#!/bin/sh\necho solvenext")

	t.Run("tar.gz", func(t *testing.T) {
		archive := buildTarGz(t, "solvenext", content)
		got, err := extractBinary(archive, "solvenext_linux_amd64.tar.gz")
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("missing binary", func(t *testing.T) {
		archive := buildTarGz(t, "README.md", content)
		_, err := extractBinary(archive, "solvenext_linux_amd64.tar.gz")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestReplaceExecutable(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "solvenext")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0755))

	newData := []byte("new-binary-content")
	require.NoError(t, replaceExecutable(target, newData))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, newData, got)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestCheck(t *testing.T) {
	t.Run("update available", func(t *testing.T) {
		server := releaseServer(t, "v2.0.0", nil, nil)
		checker := NewChecker(WithAPIBaseURL(server.URL))

		res, err := checker.Check(context.Background(), &CheckInput{Version: "v1.0.0"})
		require.NoError(t, err)
		assert.True(t, res.UpdateAvailable)
		assert.Equal(t, "v2.0.0", res.LatestVersion)
	})

	t.Run("already latest", func(t *testing.T) {
		server := releaseServer(t, "v1.0.0", nil, nil)
		checker := NewChecker(WithAPIBaseURL(server.URL))

		res, err := checker.Check(context.Background(), &CheckInput{Version: "v1.0.0"})
		require.NoError(t, err)
		assert.False(t, res.UpdateAvailable)
	})

	t.Run("dev build counts as outdated", func(t *testing.T) {
		server := releaseServer(t, "v1.0.0", nil, nil)
		checker := NewChecker(WithAPIBaseURL(server.URL))

		res, err := checker.Check(context.Background(), &CheckInput{Version: "deadbeef-dirty"})
		require.NoError(t, err)
		assert.True(t, res.UpdateAvailable)
	})
}

func TestUpdate(t *testing.T) {
	asset, err := assetFor(runtime.GOOS, runtime.GOARCH)
	require.NoError(t, err)

	binaryName := "solvenext"
	if runtime.GOOS == "windows" {
		binaryName = "solvenext.exe"
	}
	binaryContent := []byte("new-solvenext-binary")
	archive := buildTarGz(t, binaryName, binaryContent)
	archiveHash := sha256.Sum256(archive)
	sums := fmt.Sprintf("%s  %s\n", hex.EncodeToString(archiveHash[:]), asset)

	newTarget := func(t *testing.T) string {
		target := filepath.Join(t.TempDir(), binaryName)
		require.NoError(t, os.WriteFile(target, []byte("old"), 0755))
		return target
	}

	t.Run("happy path", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("tar.gz fixture")
		}
		target := newTarget(t)
		server := releaseServer(t, "v2.0.0", map[string][]byte{
			asset:           archive,
			"checksums.txt": []byte(sums),
		}, nil)
		checker := NewChecker(
			WithAPIBaseURL(server.URL),
			WithExecPath(func() (string, error) { return target, nil }),
		)

		var stages []string
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(p UpdateProgress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, err)

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, binaryContent, got)
		assert.Equal(t, []string{"resolve", "download", "verify", "apply", "done"}, stages)
	})

	t.Run("pinned version uses the tag endpoint", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("tar.gz fixture")
		}
		target := newTarget(t)
		var taggedPath string
		server := releaseServer(t, "v1.2.3", map[string][]byte{
			asset:           archive,
			"checksums.txt": []byte(sums),
		}, &taggedPath)
		checker := NewChecker(
			WithAPIBaseURL(server.URL),
			WithExecPath(func() (string, error) { return target, nil }),
		)

		err := checker.Update(context.Background(), &UpdateInput{
			CurrentVersion: "v2.0.0", // Newer than the pin: still honored.
			TargetVersion:  "v1.2.3",
		}, func(UpdateProgress) {})
		require.NoError(t, err)
		assert.Equal(t, "/repos/noooah2000/solve-next/releases/tags/v1.2.3", taggedPath)

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, binaryContent, got)
	})

	t.Run("dev build", func(t *testing.T) {
		checker := NewChecker()
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "(devel)"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrDevBuild)
	})

	t.Run("already latest", func(t *testing.T) {
		server := releaseServer(t, "v1.0.0", nil, nil)
		checker := NewChecker(WithAPIBaseURL(server.URL))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrAlreadyLatest)
	})

	t.Run("platform asset missing from release", func(t *testing.T) {
		server := releaseServer(t, "v2.0.0", map[string][]byte{
			"checksums.txt": []byte(sums),
		}, nil)
		checker := NewChecker(WithAPIBaseURL(server.URL))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(UpdateProgress) {})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no asset")
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		badSums := fmt.Sprintf("%064d  %s\n", 0, asset)
		server := releaseServer(t, "v2.0.0", map[string][]byte{
			asset:           archive,
			"checksums.txt": []byte(badSums),
		}, nil)
		checker := NewChecker(WithAPIBaseURL(server.URL))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("download failure", func(t *testing.T) {
		// The release lists the asset but the download URL 404s.
		server := releaseServer(t, "v2.0.0", map[string][]byte{
			asset:           nil,
			"checksums.txt": []byte(sums),
		}, nil)
		checker := NewChecker(WithAPIBaseURL(server.URL))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(UpdateProgress) {})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "download archive")
	})
}

// releaseServer serves a GitHub-shaped release whose asset download URLs
// point back at the server. A nil asset body produces a 404 on download.
// When taggedPath is non-nil it records the path of any /releases/tags/
// request.
func releaseServer(t *testing.T, tag string, assets map[string][]byte, taggedPath *string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/repos/noooah2000/solve-next/releases/latest",
			strings.HasPrefix(r.URL.Path, "/repos/noooah2000/solve-next/releases/tags/"):
			if taggedPath != nil && strings.Contains(r.URL.Path, "/tags/") {
				*taggedPath = r.URL.Path
			}
			body := fmt.Sprintf(`{"tag_name":%q,"assets":[`, tag)
			first := true
			for name := range assets {
				if !first {
					body += ","
				}
				first = false
				body += fmt.Sprintf(`{"name":%q,"browser_download_url":%q}`,
					name, server.URL+"/dl/"+name)
			}
			body += "]}"
			_, _ = w.Write([]byte(body))
		case strings.HasPrefix(r.URL.Path, "/dl/"):
			data, ok := assets[strings.TrimPrefix(r.URL.Path, "/dl/")]
			if !ok || data == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(data)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// buildTarGz creates a tar.gz archive containing a single file.
func buildTarGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: name,
		Size: int64(len(content)),
		Mode: 0755,
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}
