package media

import (
	"bytes"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/wanglei-dev/goodscut/internal/models"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(8, 8, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDownloadCachesResult(t *testing.T) {
	data := pngBytes(t)
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(data)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	downloader, err := NewDownloader(cacheDir, DefaultRetries)
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	asset := models.ProductAsset{ID: "3", URL: server.URL + "/img.png", Format: "png"}
	img, err := downloader.Download(asset)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
		t.Errorf("image bounds = %v, want 8x8", img.Bounds())
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1", hits)
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("cache holds %d files, want exactly 1", len(entries))
	}
	if filepath.Join(cacheDir, entries[0].Name()) != downloader.CachePath(asset) {
		t.Errorf("cache file %q not at computed path %q", entries[0].Name(), downloader.CachePath(asset))
	}

	// Second download must come from cache without network I/O.
	if _, err := downloader.Download(asset); err != nil {
		t.Fatalf("cached Download returned error: %v", err)
	}
	if hits != 1 {
		t.Errorf("server hit %d times after cache hit, want still 1", hits)
	}
}

func TestDownloadCacheHitSkipsNetwork(t *testing.T) {
	cacheDir := t.TempDir()
	downloader, err := NewDownloader(cacheDir, 0)
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	asset := models.ProductAsset{ID: "9", URL: "http://unreachable.invalid/img.png"}
	cached := imaging.New(4, 4, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	if err := imaging.Save(cached, downloader.CachePath(asset)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	img, err := downloader.Download(asset)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("image width = %d, want cached 4", img.Bounds().Dx())
	}
}

func TestDownloadRetriesThenFails(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	downloader, err := NewDownloader(cacheDir, 2)
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	asset := models.ProductAsset{ID: "5", URL: server.URL + "/img.png"}
	_, err = downloader.Download(asset)
	if !errors.Is(err, ErrDownload) {
		t.Fatalf("error = %v, want ErrDownload", err)
	}
	if hits != 3 {
		t.Errorf("server hit %d times, want 3 attempts", hits)
	}

	entries, readErr := os.ReadDir(cacheDir)
	if readErr != nil {
		t.Fatalf("read cache dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("cache holds %d files after failed download, want 0", len(entries))
	}
}

func TestDownloadDecodeFailureRetries(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("definitely not an image"))
	}))
	defer server.Close()

	downloader, err := NewDownloader("", 1)
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	_, err = downloader.Download(models.ProductAsset{ID: "1", URL: server.URL})
	if !errors.Is(err, ErrDownload) {
		t.Fatalf("error = %v, want ErrDownload", err)
	}
	if hits != 2 {
		t.Errorf("server hit %d times, want 2", hits)
	}
}

func TestCachePath(t *testing.T) {
	downloader := &Downloader{CacheDir: "/tmp/cache"}

	tests := []struct {
		name    string
		asset   models.ProductAsset
		pattern string
	}{
		{
			name:    "default format",
			asset:   models.ProductAsset{ID: "0", URL: "http://cdn.example.com/a"},
			pattern: `^0_[0-9a-f]+\.png$`,
		},
		{
			name:    "format lower-cased with query stripped",
			asset:   models.ProductAsset{ID: "7", URL: "http://cdn.example.com/b", Format: "JPEG?x-expires=1"},
			pattern: `^7_[0-9a-f]+\.jpeg$`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filepath.Base(downloader.CachePath(tt.asset))
			if !regexp.MustCompile(tt.pattern).MatchString(got) {
				t.Errorf("CachePath base = %q, want match for %q", got, tt.pattern)
			}
		})
	}

	t.Run("deterministic", func(t *testing.T) {
		asset := models.ProductAsset{ID: "1", URL: "http://cdn.example.com/a.png"}
		if downloader.CachePath(asset) != downloader.CachePath(asset) {
			t.Error("CachePath is not deterministic")
		}
	})

	t.Run("disabled without cache dir", func(t *testing.T) {
		bare := &Downloader{}
		if got := bare.CachePath(models.ProductAsset{ID: "1", URL: "u"}); got != "" {
			t.Errorf("CachePath = %q, want empty when caching disabled", got)
		}
	})
}
