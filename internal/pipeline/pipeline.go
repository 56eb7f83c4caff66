// Package pipeline transforms downloaded product assets into persisted
// cutouts: background removal, bounded upscaling, PNG output.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/wanglei-dev/goodscut/internal/models"
)

// ErrOutputNotConfigured is returned when processing is invoked without an
// output directory.
var ErrOutputNotConfigured = errors.New("output directory not configured")

// AssetDownloader yields the decoded image for one product asset.
type AssetDownloader interface {
	Download(asset models.ProductAsset) (*image.NRGBA, error)
}

// Pipeline drives download, background removal, and enhancement per asset,
// persisting each result as <asset-id>.png.
type Pipeline struct {
	downloader AssetDownloader
	remover    *BackgroundRemover
	enhancer   *Enhancer
	outputDir  string
}

// New creates a pipeline. outputDir is created up front when non-empty;
// leaving it empty makes Process fail with ErrOutputNotConfigured.
func New(downloader AssetDownloader, remover *BackgroundRemover, enhancer *Enhancer, outputDir string) (*Pipeline, error) {
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	return &Pipeline{
		downloader: downloader,
		remover:    remover,
		enhancer:   enhancer,
		outputDir:  outputDir,
	}, nil
}

// Process handles every asset in input order. A failing asset aborts the
// remaining batch; results produced before the failure are returned
// alongside the error, and nothing already written is rolled back.
func (p *Pipeline) Process(assets []models.ProductAsset) ([]models.ProcessedImage, error) {
	if p.outputDir == "" {
		return nil, ErrOutputNotConfigured
	}

	var processed []models.ProcessedImage
	for _, asset := range assets {
		slog.Info("Processing asset", "id", asset.ID, "url", asset.URL)
		img, err := p.downloader.Download(asset)
		if err != nil {
			return processed, fmt.Errorf("asset %s: %w", asset.ID, err)
		}

		cutout := p.remover.Remove(img)
		enhanced := p.enhancer.Enhance(cutout)

		path := filepath.Join(p.outputDir, asset.ID+".png")
		if err := imaging.Save(enhanced, path); err != nil {
			return processed, fmt.Errorf("asset %s: save %s: %w", asset.ID, path, err)
		}
		slog.Info("Stored processed image", "id", asset.ID, "path", path)
		processed = append(processed, models.ProcessedImage{Asset: asset, Path: path})
	}
	return processed, nil
}
