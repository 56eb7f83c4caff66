package douyin

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/wanglei-dev/goodscut/internal/models"
)

const (
	webDetailEndpoint  = "https://www.douyin.com/aweme/v1/web/product/detail/"
	ecomDetailEndpoint = "https://ec.snssdk.com/product/goods/detail/v2"

	detailReferer = "https://www.douyin.com/"

	fetchTimeout = 15 * time.Second
)

// Client fetches product metadata from the Douyin detail APIs.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	Cookie     string

	// Endpoints overrides the default web + ecommerce endpoint pair,
	// tried in order.
	Endpoints []string
}

// NewClient creates a product-detail client holding the given credential.
func NewClient(cookie string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: fetchTimeout},
		UserAgent:  DefaultUserAgent,
		Cookie:     cookie,
	}
}

// FetchAssets queries the detail endpoints for a product and extracts its
// image descriptors. Each endpoint is tried with a base parameter set and a
// scene=detail variant; the first payload that parses wins. Only after every
// pair fails does the call fail.
func (c *Client) FetchAssets(productID, cookie string) ([]models.ProductAsset, error) {
	variants := []url.Values{
		{"product_id": []string{productID}},
		{"product_id": []string{productID}, "scene": []string{"detail"}},
	}

	var lastErr error
	for _, endpoint := range c.endpoints() {
		for _, params := range variants {
			payload, err := c.fetchDetail(endpoint, params, cookie)
			if err != nil {
				slog.Warn("Product detail attempt failed", "endpoint", endpoint, "params", params.Encode(), "error", err)
				lastErr = err
				continue
			}

			assets := extractAssets(payload)
			if len(assets) == 0 {
				return nil, fmt.Errorf("%w: product %s", ErrNoImages, productID)
			}
			slog.Info("Extracted product assets", "endpoint", endpoint, "product_id", productID, "count", len(assets))
			return assets, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: product %s: %w", ErrAssetFetch, productID, lastErr)
	}
	return nil, fmt.Errorf("%w: product %s", ErrAssetFetch, productID)
}

func (c *Client) fetchDetail(endpoint string, params url.Values, cookie string) (map[string]any, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Referer", detailReferer)
	if ck := c.activeCookie(cookie); ck != "" {
		req.Header.Set("Cookie", ck)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s returned status %d", endpoint, resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode JSON from %s: %w", endpoint, err)
	}
	return payload, nil
}

func (c *Client) endpoints() []string {
	if len(c.Endpoints) > 0 {
		return c.Endpoints
	}
	return []string{webDetailEndpoint, ecomDetailEndpoint}
}

func (c *Client) activeCookie(override string) string {
	if override != "" {
		return override
	}
	return c.Cookie
}
