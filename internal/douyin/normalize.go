package douyin

import (
	"fmt"
	"regexp"
	"strings"
)

// urlPattern matches the URL-legal ASCII charset so a link embedded in CJK
// share text ends at the first full-width character.
var urlPattern = regexp.MustCompile(`https?://[A-Za-z0-9\-._~:/?#\[\]@!$&'()*+,;=%]+`)

var numericPattern = regexp.MustCompile(`^\d+$`)

// trailingJunk holds punctuation that share text commonly appends to a link,
// both ASCII and full-width CJK forms.
const trailingJunk = ",.;:!?'\")]}>，。；：！？、）】》＂＇"

// NormalizeShareText extracts the first HTTP(S) link from free-form share
// text, trimming surrounding quotes and trailing punctuation.
func NormalizeShareText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("%w: input must be a non-empty string", ErrInvalidInput)
	}

	match := urlPattern.FindString(trimmed)
	if match == "" {
		return "", fmt.Errorf("%w: no http(s) link found in %q", ErrInvalidInput, trimmed)
	}

	return strings.TrimRight(match, trailingJunk), nil
}

// IsProductID reports whether the input is a bare numeric product id, which
// bypasses link resolution entirely.
func IsProductID(input string) bool {
	return numericPattern.MatchString(strings.TrimSpace(input))
}
