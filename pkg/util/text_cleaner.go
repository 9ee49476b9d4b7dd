package util

import (
	"regexp"
	"strings"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

var (
	// htmlTagPattern matches HTML tags like <span>, </span>, <br/>, etc.
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
	// multiSpacePattern matches multiple consecutive whitespace characters
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// CleanAsset removes HTML remnants and normalizes the text fields of an asset.
// Cost, ID and CreatedAt are returned untouched.
func CleanAsset(a model.Asset) model.Asset {
	a.Description = CleanField(a.Description)
	a.Department = CleanField(a.Department)
	a.Location = CleanField(a.Location)
	return a
}

// CleanField removes HTML tags, escape sequences, and normalizes whitespace.
func CleanField(s string) string {
	if s == "" {
		return ""
	}

	// 1. Fix escaped HTML closing tags: <\/ -> </
	s = strings.ReplaceAll(s, `<\/`, `</`)

	// 2. Fix escaped forward slashes
	s = strings.ReplaceAll(s, `\/`, `/`)

	// 3. Remove HTML tags
	s = htmlTagPattern.ReplaceAllString(s, "")

	// 4. Decode common HTML entities
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&nbsp;", " ")

	// 5. Literal escape sequences left behind by spreadsheet imports
	s = strings.ReplaceAll(s, `\n`, " ")
	s = strings.ReplaceAll(s, `\t`, " ")

	// 6. Normalize whitespace (collapse multiple spaces/newlines into single space)
	s = multiSpacePattern.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

// NeedsCleanup checks if an asset's text fields contain remnants that CleanAsset would change.
func NeedsCleanup(a model.Asset) bool {
	for _, f := range []string{a.Description, a.Department, a.Location} {
		if f != CleanField(f) {
			return true
		}
	}
	return false
}
