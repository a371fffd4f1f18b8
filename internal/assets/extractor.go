package assets

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/quantmind-br/yuqueback-go/internal/utils"
)

// linkPattern matches URL-shaped text embedded in document bodies.
// Matches end at the first non-alphanumeric path character, so a
// matched link may be a prefix of the full URL in the text.
var linkPattern = regexp.MustCompile(`(https://www\.|http://www\.|https://|http://)?[a-zA-Z0-9]{2,}(\.[a-zA-Z0-9]{2,})(\.[a-zA-Z0-9]{2,})?/[a-zA-Z0-9]{2,}`)

// ExtractLinks returns every unique link match in a document body.
func ExtractLinks(body string) []string {
	return dedupe(linkPattern.FindAllString(body, -1))
}

// ExtractHTMLAssets returns the src of every image in rendered HTML.
func ExtractHTMLAssets(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var sources []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, exists := sel.Attr("src")
		if !exists || src == "" {
			return
		}
		sources = append(sources, src)
	})
	return dedupe(sources)
}

// SameHost filters candidates down to URLs on the given host.
// Scheme-less candidates parse with an empty host and are dropped.
func SameHost(host *url.URL, candidates []string) []string {
	var matched []string
	for _, candidate := range candidates {
		u, err := url.Parse(candidate)
		if err != nil {
			continue
		}
		if u.Host != "" && u.Host == host.Host {
			matched = append(matched, candidate)
		}
	}
	return matched
}

// ResourceName derives the local filename for a resource URL from its
// last path segment.
func ResourceName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	name := segments[len(segments)-1]
	if name == "" {
		name = u.Host
	}
	return utils.SanitizeFilename(name)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
