package media

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/wanglei-dev/goodscut/internal/models"
)

const (
	// DefaultRetries is the retry budget per asset, so three attempts total.
	DefaultRetries = 2

	downloadTimeout = 20 * time.Second

	defaultFormat = "png"
)

// ErrDownload marks an asset that failed to download after exhausting the
// retry budget.
var ErrDownload = errors.New("asset download failed")

// Downloader fetches product assets, decoding each into a 4-channel image.
// When a cache directory is configured, downloads are content-addressed by
// asset URL and reused across runs.
type Downloader struct {
	HTTPClient *http.Client
	CacheDir   string
	Retries    int
}

// NewDownloader creates a downloader. cacheDir may be empty to disable
// caching; when set, the directory is created up front.
func NewDownloader(cacheDir string, retries int) (*Downloader, error) {
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	return &Downloader{
		HTTPClient: &http.Client{Timeout: downloadTimeout},
		CacheDir:   cacheDir,
		Retries:    retries,
	}, nil
}

// Download returns the decoded image for an asset, from cache when possible.
// A cache hit performs no network I/O. A miss downloads with up to
// Retries+1 attempts and persists the result before returning it.
func (d *Downloader) Download(asset models.ProductAsset) (*image.NRGBA, error) {
	cachePath := d.CachePath(asset)
	if cachePath != "" {
		if _, err := os.Stat(cachePath); err == nil {
			cached, err := imaging.Open(cachePath)
			if err == nil {
				slog.Debug("Using cached asset", "url", asset.URL, "path", cachePath)
				return imaging.Clone(cached), nil
			}
			slog.Warn("Cached asset unreadable, re-downloading", "path", cachePath, "error", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= d.Retries+1; attempt++ {
		slog.Debug("Downloading asset", "url", asset.URL, "attempt", attempt)
		img, err := d.fetch(asset.URL)
		if err != nil {
			slog.Warn("Failed to download asset", "url", asset.URL, "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		if cachePath != "" {
			if err := imaging.Save(img, cachePath); err != nil {
				slog.Warn("Unable to cache asset", "path", cachePath, "error", err)
			}
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrDownload, asset.URL, lastErr)
}

func (d *Downloader) fetch(rawURL string) (*image.NRGBA, error) {
	resp, err := d.HTTPClient.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode image from %s: %w", rawURL, err)
	}
	return imaging.Clone(img), nil
}

// CachePath computes the content-addressed location for an asset, or ""
// when caching is disabled. The key combines the asset id with a hash of
// its URL and the declared format extension.
func (d *Downloader) CachePath(asset models.ProductAsset) string {
	if d.CacheDir == "" {
		return ""
	}
	hasher := fnv.New64a()
	hasher.Write([]byte(asset.URL))
	ext := cacheExt(asset.Format)
	return filepath.Join(d.CacheDir, fmt.Sprintf("%s_%x.%s", asset.ID, hasher.Sum64(), ext))
}

func cacheExt(format string) string {
	ext := strings.ToLower(format)
	if i := strings.Index(ext, "?"); i >= 0 {
		ext = ext[:i]
	}
	if ext == "" {
		return defaultFormat
	}
	return ext
}
