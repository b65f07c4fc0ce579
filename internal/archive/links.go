package archive

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var innerWhitespace = regexp.MustCompile(`\s+`)

// text returns the trimmed text of a selection with whitespace runs collapsed.
func text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(sel.Text(), " "))
}

// DiscoverLinks returns the absolute targets of every anchor under sel whose
// href starts with prefix, in document order with duplicates removed.
// Relative targets are resolved by prefixing base.
func DiscoverLinks(sel *goquery.Selection, prefix, base string) []string {
	links := []string{}
	if sel == nil || prefix == "" {
		return links
	}

	seen := make(map[string]struct{})
	sel.Find(fmt.Sprintf("a[href^=%q]", prefix)).Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}

		link := absolute(href, base)
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	return links
}

func absolute(href, base string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasSuffix(base, "/") && strings.HasPrefix(href, "/") {
		return base + strings.TrimPrefix(href, "/")
	}
	return base + href
}

// TrailingID returns the value after the last '=' in a season or game URL,
// e.g. "41" for ".../showseason.php?season=41".
func TrailingID(link string) string {
	idx := strings.LastIndex(link, "=")
	if idx < 0 {
		return ""
	}
	return link[idx+1:]
}
