package douyin

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func shortHostFor(t *testing.T, server *httptest.Server) string {
	t.Helper()
	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	return parsed.Hostname()
}

func TestResolveProductFromShareText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/share/abc123/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/product/3573742169462999153?from=share", http.StatusFound)
	})
	mux.HandleFunc("/product/3573742169462999153", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	resolver := NewResolver("")
	resolver.ShortHost = shortHostFor(t, server)

	input := "爆款好物 " + server.URL + "/share/abc123/，马上开抢！"
	resolved, err := resolver.ResolveProduct(input, "")
	if err != nil {
		t.Fatalf("ResolveProduct returned error: %v", err)
	}

	if resolved.ProductID != "3573742169462999153" {
		t.Errorf("ProductID = %q, want %q", resolved.ProductID, "3573742169462999153")
	}
	if want := server.URL + "/share/abc123/"; resolved.URL != want {
		t.Errorf("URL = %q, want %q", resolved.URL, want)
	}
	if !strings.Contains(resolved.FinalURL, "/product/3573742169462999153") {
		t.Errorf("FinalURL = %q, want product path", resolved.FinalURL)
	}
}

func TestResolveProductBareNumericID(t *testing.T) {
	resolver := NewResolver("")
	resolver.HTTPClient = nil // any network use would panic

	resolved, err := resolver.ResolveProduct("  3573742169462999153  ", "")
	if err != nil {
		t.Fatalf("ResolveProduct returned error: %v", err)
	}
	if resolved.ProductID != "3573742169462999153" {
		t.Errorf("ProductID = %q, want bare id", resolved.ProductID)
	}
	if resolved.FinalURL != "" {
		t.Errorf("FinalURL = %q, want empty for bare id", resolved.FinalURL)
	}
}

func TestResolveProductMarkupFallback(t *testing.T) {
	tests := []struct {
		name           string
		instanceCookie string
		callCookie     string
		wantCookie     string
		wantHeader     bool
	}{
		{name: "no credential", wantHeader: false},
		{name: "instance credential", instanceCookie: "session=abc", wantCookie: "session=abc", wantHeader: true},
		{name: "call override wins", instanceCookie: "session=abc", callCookie: "session=xyz", wantCookie: "session=xyz", wantHeader: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCookie []string
			var hadHeader bool
			mux := http.NewServeMux()
			mux.HandleFunc("/detail/page", func(w http.ResponseWriter, r *http.Request) {
				gotCookie = r.Header["Cookie"]
				hadHeader = len(gotCookie) > 0
				fmt.Fprint(w, `<html><body><div data-product-id="99887766">x</div></body></html>`)
			})
			server := httptest.NewServer(mux)
			defer server.Close()

			resolver := NewResolver(tt.instanceCookie)
			resolved, err := resolver.ResolveProduct(server.URL+"/detail/page", tt.callCookie)
			if err != nil {
				t.Fatalf("ResolveProduct returned error: %v", err)
			}
			if resolved.ProductID != "99887766" {
				t.Errorf("ProductID = %q, want %q", resolved.ProductID, "99887766")
			}
			if hadHeader != tt.wantHeader {
				t.Fatalf("cookie header present = %v, want %v", hadHeader, tt.wantHeader)
			}
			if tt.wantHeader && gotCookie[0] != tt.wantCookie {
				t.Errorf("Cookie = %q, want %q", gotCookie[0], tt.wantCookie)
			}
		})
	}
}

func TestResolveProductMarkupFetchRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/detail/page", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/product/4242", http.StatusFound)
	})
	mux.HandleFunc("/product/4242", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>no ids here</body></html>")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	resolver := NewResolver("")
	resolved, err := resolver.ResolveProduct(server.URL+"/detail/page", "")
	if err != nil {
		t.Fatalf("ResolveProduct returned error: %v", err)
	}
	if resolved.ProductID != "4242" {
		t.Errorf("ProductID = %q, want id from redirected URL", resolved.ProductID)
	}
}

func TestResolveProductExhausted(t *testing.T) {
	body := "<html>  <body>\n\n  nothing   to\tsee " + strings.Repeat("padding ", 100) + "</body></html>"
	mux := http.NewServeMux()
	mux.HandleFunc("/detail/page", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	resolver := NewResolver("")
	_, err := resolver.ResolveProduct(server.URL+"/detail/page", "")
	if err == nil {
		t.Fatal("ResolveProduct succeeded, want ProductIDError")
	}

	var idErr *ProductIDError
	if !errors.As(err, &idErr) {
		t.Fatalf("error = %v, want ProductIDError", err)
	}
	if !strings.Contains(idErr.URL, "/detail/page") {
		t.Errorf("ProductIDError.URL = %q, want detail page URL", idErr.URL)
	}
	if len([]rune(idErr.Snippet)) > 300 {
		t.Errorf("snippet length = %d, want at most 300", len([]rune(idErr.Snippet)))
	}
	if strings.ContainsAny(idErr.Snippet, "\n\t") {
		t.Errorf("snippet %q contains uncollapsed whitespace", idErr.Snippet)
	}
}

func TestResolveShareLinkPassThrough(t *testing.T) {
	resolver := NewResolver("")
	resolver.HTTPClient = nil // a long link must not trigger network I/O

	got, err := resolver.ResolveShareLink("https://haohuo.douyin.com/product/123", "")
	if err != nil {
		t.Fatalf("ResolveShareLink returned error: %v", err)
	}
	if got != "https://haohuo.douyin.com/product/123" {
		t.Errorf("ResolveShareLink = %q, want input unchanged", got)
	}
}

func TestResolveShareLinkHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resolver := NewResolver("")
	resolver.ShortHost = shortHostFor(t, server)

	_, err := resolver.ResolveShareLink(server.URL+"/gone", "")
	if !errors.Is(err, ErrResolution) {
		t.Fatalf("error = %v, want ErrResolution", err)
	}
}
