package douyin

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks input that cannot be normalized into a link.
	ErrInvalidInput = errors.New("invalid input")

	// ErrResolution marks a failed share-link or product-page request.
	ErrResolution = errors.New("share link resolution failed")

	// ErrAssetFetch marks exhaustion of every product-detail endpoint variant.
	ErrAssetFetch = errors.New("unable to fetch product detail")

	// ErrNoImages marks a product-detail payload with zero usable images.
	ErrNoImages = errors.New("no images detected in product detail")
)

// ProductIDError reports that every product-id extraction strategy failed.
// It carries the last URL examined and a truncated markup snippet so the
// failing page can be diagnosed from logs alone.
type ProductIDError struct {
	URL     string
	Snippet string
}

func (e *ProductIDError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("unable to determine product id from %s", e.URL)
	}
	return fmt.Sprintf("unable to determine product id from %s (page snippet: %s)", e.URL, e.Snippet)
}
