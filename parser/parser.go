// Package parser validates Chrome Web Store URLs and sanitizes item records.
package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/aluiziolira/go-webstore-lister/models"
)

const (
	// StoreHost is the catalog's fixed domain.
	StoreHost = "chromewebstore.google.com"

	// BrandName is the bare store brand; names reduced to it carry no
	// information and are rejected.
	BrandName = "Chrome Web Store"

	// BrandSuffix is appended to every store page title.
	BrandSuffix = " - Chrome Web Store"

	detailSegment = "/detail/"
	maxNameLength = 200
	itemIDLength  = 32
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	itemIDPattern     = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	detailPathPattern = regexp.MustCompile(`/detail/([^/]+)/([^/?]+)`)
)

// ValidateURL reports whether a URL is well formed, uses http or https, and
// does not point at a loopback or private-range host. The private-range
// prefix checks are deliberately coarse (all of 172.* is blocked, not just
// 172.16/12); the permissive surface is kept as observed behavior.
func ValidateURL(raw string) bool {
	if raw == "" {
		return false
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return false
	}
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" {
		return false
	}
	if strings.HasPrefix(hostname, "192.168.") ||
		strings.HasPrefix(hostname, "10.") ||
		strings.HasPrefix(hostname, "172.") {
		return false
	}

	return true
}

// IsStoreDetailURL reports whether a URL points at a store item detail page.
func IsStoreDetailURL(raw string) bool {
	if !ValidateURL(raw) {
		return false
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Hostname() == StoreHost && strings.Contains(parsed.Path, detailSegment)
}

// SplitDetailPath extracts the name slug and item id from a detail URL path.
// Detail URLs look like https://chromewebstore.google.com/detail/{slug}/{id},
// optionally followed by further path segments or a query string.
func SplitDetailPath(raw string) (slug, id string, ok bool) {
	match := detailPathPattern.FindStringSubmatch(raw)
	if match == nil {
		return "", "", false
	}
	return match[1], match[2], true
}

// ValidateItemID reports whether an id has the canonical 32-character
// alphanumeric shape.
func ValidateItemID(id string) bool {
	return len(id) == itemIDLength && itemIDPattern.MatchString(id)
}

// CleanName strips HTML tags, percent-decodes, and bounds an item name.
func CleanName(name string) string {
	name = strings.TrimSpace(name)
	name = htmlTagPattern.ReplaceAllString(name, "")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if runes := []rune(name); len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}
	return strings.TrimSpace(name)
}

// SanitizeItem re-validates every field of an assembled item. It returns the
// cleaned record, or an error naming the first field that failed; a record is
// either fully valid or rejected whole.
func SanitizeItem(item models.Item) (models.Item, error) {
	id := strings.TrimSpace(item.ID)
	if !ValidateItemID(id) {
		return models.Item{}, fmt.Errorf("invalid item id %q", id)
	}

	name := CleanName(item.Name)
	if name == "" {
		return models.Item{}, fmt.Errorf("empty name for item %s", id)
	}
	if name == BrandName {
		return models.Item{}, fmt.Errorf("placeholder name for item %s", id)
	}

	if !ValidateURL(item.Page) || !IsStoreDetailURL(item.Page) {
		return models.Item{}, fmt.Errorf("invalid page URL %q", item.Page)
	}
	if !ValidateURL(item.File) {
		return models.Item{}, fmt.Errorf("invalid file URL %q", item.File)
	}

	return models.Item{
		ID:   id,
		Name: name,
		Page: item.Page,
		File: item.File,
	}, nil
}
