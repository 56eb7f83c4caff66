package douyin

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wanglei-dev/goodscut/internal/models"
)

const (
	// DefaultUserAgent is sent on every outbound request.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	// DefaultShortHost is the platform's dedicated short-link domain.
	DefaultShortHost = "v.douyin.com"

	maxSnippetLen = 300

	resolveTimeout = 15 * time.Second
)

// Resolver turns raw share input (free-form text, long link, short link, or
// bare numeric id) into a canonical product id.
type Resolver struct {
	HTTPClient *http.Client
	UserAgent  string

	// ShortHost is the short-link domain matched by host suffix.
	ShortHost string

	// Cookie is the instance-level credential. A non-empty per-call value
	// takes precedence over it.
	Cookie string
}

// NewResolver creates a resolver holding the given credential. An empty
// cookie means unauthenticated requests.
func NewResolver(cookie string) *Resolver {
	return &Resolver{
		HTTPClient: &http.Client{Timeout: resolveTimeout},
		UserAgent:  DefaultUserAgent,
		ShortHost:  DefaultShortHost,
		Cookie:     cookie,
	}
}

// ResolveProduct runs the full input-to-product chain: normalize the input,
// follow a short link, then try query, path, and page-markup strategies in
// order until one yields a product id.
func (r *Resolver) ResolveProduct(input, cookie string) (*models.ResolvedProduct, error) {
	if IsProductID(input) {
		id := strings.TrimSpace(input)
		slog.Debug("Input is a bare product id", "product_id", id)
		return &models.ResolvedProduct{Input: input, ProductID: id}, nil
	}

	normalized, err := NormalizeShareText(input)
	if err != nil {
		return nil, err
	}

	finalURL, err := r.ResolveShareLink(normalized, cookie)
	if err != nil {
		return nil, err
	}

	if id := ProductIDFromURL(finalURL); id != "" {
		slog.Debug("Resolved product id from URL", "product_id", id, "url", finalURL)
		return &models.ResolvedProduct{Input: input, URL: normalized, FinalURL: finalURL, ProductID: id}, nil
	}

	slog.Info("No product id in URL, falling back to page markup", "url", finalURL)
	body, landedURL, err := r.fetchPage(finalURL, cookie)
	if err != nil {
		return nil, err
	}

	if landedURL != finalURL {
		if id := ProductIDFromURL(landedURL); id != "" {
			slog.Debug("Resolved product id from redirected URL", "product_id", id, "url", landedURL)
			return &models.ResolvedProduct{Input: input, URL: normalized, FinalURL: landedURL, ProductID: id}, nil
		}
	}

	if id := ProductIDFromMarkup(body); id != "" {
		slog.Debug("Resolved product id from page markup", "product_id", id)
		return &models.ResolvedProduct{Input: input, URL: normalized, FinalURL: landedURL, ProductID: id}, nil
	}

	return nil, &ProductIDError{URL: landedURL, Snippet: snippet(body)}
}

// ResolveShareLink follows redirects for short links and returns the final
// landed URL. Non-short links are returned unchanged without network I/O.
func (r *Resolver) ResolveShareLink(rawURL, cookie string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: parse %q: %w", ErrInvalidInput, rawURL, err)
	}
	if !r.isShortLink(parsed) {
		return rawURL, nil
	}

	slog.Debug("Resolving share link", "url", rawURL)
	resp, err := r.get(rawURL, cookie)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL.String()
	slog.Debug("Share link resolved", "url", rawURL, "final_url", finalURL)
	return finalURL, nil
}

func (r *Resolver) fetchPage(rawURL, cookie string) (body, landedURL string, err error) {
	resp, err := r.get(rawURL, cookie)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("%w: read %s: %w", ErrResolution, rawURL, err)
	}
	return string(data), resp.Request.URL.String(), nil
}

// get issues an authenticated GET with redirect-following. The cookie header
// is attached only when a credential is in effect: per-call value first,
// instance value otherwise.
func (r *Resolver) get(rawURL, cookie string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %w", ErrResolution, rawURL, err)
	}
	req.Header.Set("User-Agent", r.UserAgent)
	if c := r.activeCookie(cookie); c != "" {
		req.Header.Set("Cookie", c)
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrResolution, rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrResolution, rawURL, resp.StatusCode)
	}
	return resp, nil
}

func (r *Resolver) activeCookie(override string) string {
	if override != "" {
		return override
	}
	return r.Cookie
}

func (r *Resolver) isShortLink(u *url.URL) bool {
	host := u.Hostname()
	return host == r.ShortHost || strings.HasSuffix(host, "."+r.ShortHost)
}

// snippet collapses whitespace and truncates markup for error diagnostics.
func snippet(body string) string {
	collapsed := strings.Join(strings.Fields(body), " ")
	if runes := []rune(collapsed); len(runes) > maxSnippetLen {
		return string(runes[:maxSnippetLen])
	}
	return collapsed
}
