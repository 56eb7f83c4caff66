package douyin

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// queryIDKeys are checked in order; the first key whose value is numeric
// wins. Key comparison is case-insensitive.
var queryIDKeys = []string{"product_id", "goods_id", "item_id", "id"}

// pathIDPatterns are tried in order against the full URL string.
var pathIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)product/(\d+)`),
	regexp.MustCompile(`(?i)goods/(\d+)`),
	regexp.MustCompile(`(?i)item/(\d+)`),
	regexp.MustCompile(`(?i)product_id=(\d+)`),
	regexp.MustCompile(`(?i)goods_id=(\d+)`),
	regexp.MustCompile(`(?i)item_id=(\d+)`),
	regexp.MustCompile(`(?i)index\.html\?id=(\d+)`),
}

// markupIDPatterns cover the id markers Douyin embeds in product pages.
// The data-product-id attribute is handled separately via goquery.
var markupIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"product_id":"(\d+)"`),
	regexp.MustCompile(`"productId":"(\d+)"`),
	regexp.MustCompile(`"goods_id":"(\d+)"`),
}

// idStrategy extracts a product id from the current final URL, returning ""
// when it does not apply. Strategies run in order and short-circuit on the
// first hit, so adding a new heuristic is a pure addition to the list.
type idStrategy struct {
	name    string
	extract func(rawURL string) string
}

var urlIDStrategies = []idStrategy{
	{name: "query", extract: idFromQuery},
	{name: "path", extract: idFromPath},
}

// ProductIDFromURL runs the URL-based extraction strategies and returns the
// first product id found, or "".
func ProductIDFromURL(rawURL string) string {
	for _, strategy := range urlIDStrategies {
		if id := strategy.extract(rawURL); id != "" {
			return id
		}
	}
	return ""
}

func idFromQuery(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	query := parsed.Query()
	for _, key := range queryIDKeys {
		for actual, values := range query {
			if !strings.EqualFold(actual, key) {
				continue
			}
			for _, value := range values {
				if numericPattern.MatchString(value) {
					return value
				}
			}
		}
	}
	return ""
}

func idFromPath(rawURL string) string {
	for _, pattern := range pathIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// ProductIDFromMarkup searches fetched page markup for embedded product id
// markers, in marker priority order.
func ProductIDFromMarkup(body string) string {
	if m := markupIDPatterns[0].FindStringSubmatch(body); m != nil {
		return m[1]
	}
	if m := markupIDPatterns[1].FindStringSubmatch(body); m != nil {
		return m[1]
	}
	if id := idFromDataAttr(body); id != "" {
		return id
	}
	if m := markupIDPatterns[2].FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

func idFromDataAttr(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	id := ""
	doc.Find("[data-product-id]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		value, _ := sel.Attr("data-product-id")
		if numericPattern.MatchString(value) {
			id = value
			return false
		}
		return true
	})
	return id
}
