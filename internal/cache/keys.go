package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// PrefixResource namespaces keys for mirrored document attachments.
const PrefixResource = "res"

// ResourceKey derives the cache key for one attachment URL.
func ResourceKey(rawURL string) string {
	return PrefixResource + ":" + GenerateKey(rawURL)
}

// GenerateKey hashes a normalized URL into a fixed-length hex key, so
// equivalent spellings of the same attachment URL share one entry.
func GenerateKey(rawURL string) string {
	sum := sha256.Sum256([]byte(normalizeForKey(rawURL)))
	return hex.EncodeToString(sum[:])
}

func normalizeForKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Host = strings.ToLower(u.Host)
	if port := u.Port(); (port == "80" && u.Scheme == "http") || (port == "443" && u.Scheme == "https") {
		u.Host = u.Hostname()
	}
	if u.Path == "" {
		u.Path = "/"
	} else {
		// Clean drops duplicate and trailing slashes.
		u.Path = path.Clean(u.Path)
	}
	u.Fragment = ""
	return u.String()
}
