// CLAUDE:SUMMARY URL normalization and registrable-domain derivation for dedup across search and crawl.
// CLAUDE:EXPORTS Normalize, Domain
// Package urlx holds the URL canonicalization shared by the search
// aggregator (dedup keys, novelty tracking) and the spider (frontier
// dedup, same-host checks).
package urlx

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL into its dedup key: lowercased scheme
// and host, trailing slashes stripped (the root path collapses to the
// bare host), query and fragment dropped. Two results pointing at the
// same page under cosmetic URL variations collapse to one key.
func Normalize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("urlx: empty URL")
	}

	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("urlx: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "" {
		// Bare host like "example.com/page" — assume https.
		parsed, err = url.Parse("https://" + strings.TrimSpace(raw))
		if err != nil {
			return "", fmt.Errorf("urlx: %w", err)
		}
		scheme = "https"
	}
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("urlx: unsupported scheme %q", scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("urlx: missing host")
	}

	parsed.Scheme = scheme
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.RawQuery = ""
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	return parsed.String(), nil
}

// Domain derives the registrable domain used for novelty bonuses and
// seen-domain tracking: the lowercased host with any port and a single
// leading "www." removed. No public-suffix handling; subdomains beyond
// www are kept as distinct domains.
func Domain(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := parsed.Hostname()
	if host == "" {
		// Bare host input.
		if parsed, err = url.Parse("https://" + strings.TrimSpace(raw)); err != nil {
			return ""
		}
		host = parsed.Hostname()
	}
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

// SameHost reports whether a URL belongs to the given host, treating
// www, bare, and port-qualified variants as equal.
func SameHost(rawURL, host string) bool {
	d := Domain(rawURL)
	return d != "" && d == Domain(host)
}
