package models

// ResolvedProduct captures the outcome of resolving raw share input down to
// a canonical product id. It is immutable once produced.
type ResolvedProduct struct {
	Input     string `json:"input"`
	URL       string `json:"url"`
	FinalURL  string `json:"final_url"`
	ProductID string `json:"product_id"`
}

// ProductAsset describes one remote product image prior to download.
// ID and URL are always non-empty.
type ProductAsset struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format,omitempty"`
}

// ProcessedImage is the terminal artifact for one asset: the background-free,
// enhanced image persisted to disk.
type ProcessedImage struct {
	Asset ProductAsset `json:"asset"`
	Path  string       `json:"path"`
}
