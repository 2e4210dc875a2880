package report

import (
	"strings"

	"github.com/radiusdt/vector-insights/internal/models"
)

// isAllDigits reports whether s is non-empty and purely numeric.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// firstDigitRun extracts the first contiguous run of digits from s.
func firstDigitRun(s string) string {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
		} else if start >= 0 {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}

func hasReverseDomainPrefix(id string) bool {
	return strings.HasPrefix(id, "com.") ||
		strings.HasPrefix(id, "org.") ||
		strings.HasPrefix(id, "net.")
}

// StoreLinks derives App Store and Play Store URLs from a bundle
// identifier. platformHint, when non-empty, overrides platform
// inference. Pure: no lookups, no network.
//
// Numeric ids belong to the App Store family; reverse-domain ids to
// the Play Store. Both links may legitimately be non-nil at once.
func StoreLinks(bundleID, platformHint string) models.StoreLinks {
	var links models.StoreLinks

	id := strings.TrimSpace(bundleID)
	if id == "" {
		return links
	}

	platform := strings.ToLower(strings.TrimSpace(platformHint))
	if platform == "" {
		switch {
		case hasReverseDomainPrefix(id):
			platform = "android"
		case strings.HasPrefix(id, "id") || isAllDigits(id):
			platform = "ios"
		default:
			platform = "unknown"
		}
	}

	if platform == "ios" || isAllDigits(id) {
		numeric := id
		if !isAllDigits(numeric) {
			numeric = firstDigitRun(id)
		}
		if numeric != "" {
			url := "https://apps.apple.com/app/id" + numeric
			links.AppStore = &url
		}
	}

	if platform == "android" || hasReverseDomainPrefix(id) {
		url := "https://play.google.com/store/apps/details?id=" + id
		links.PlayStore = &url
	}

	return links
}
