// Package normalize canonicalizes URLs and titles so that formatting drift
// between feed fetches does not defeat duplicate detection.
package normalize

import (
	"net/url"
	"strings"
)

const (
	defaultScheme = "https"
	rootPath      = "/"
)

// Canonicalize returns the comparison key for rawURL: lowercased, scheme
// defaulted (and upgraded) to https, query and fragment dropped, trailing
// path slashes removed. Input that does not parse into a URL with a host
// yields "", which must never be treated as a match.
func Canonicalize(rawURL string) string {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	if s == "" {
		return ""
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}

	if u.Scheme == "" {
		if u.Host == "" {
			u, err = url.Parse(defaultScheme + "://" + s)
			if err != nil {
				return ""
			}
		}
		u.Scheme = defaultScheme
	}

	if u.Scheme == "http" {
		u.Scheme = defaultScheme
	}

	if u.Host == "" {
		return ""
	}

	return u.Scheme + "://" + u.Host + cleanPath(u.EscapedPath())
}

// cleanPath strips trailing slashes while keeping "/" for bare hosts, so
// "https://b.com" and "https://b.com/" share a key.
func cleanPath(p string) string {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return rootPath
	}
	return trimmed
}

// Title folds a title for the same-date comparison tier.
func Title(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// SameTitle reports whether two titles are equal after trimming and case
// folding. Blank titles never match.
func SameTitle(a, b string) bool {
	na, nb := Title(a), Title(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

// SameURL reports whether two URLs share a non-empty canonical key.
func SameURL(a, b string) bool {
	ka := Canonicalize(a)
	if ka == "" {
		return false
	}
	return ka == Canonicalize(b)
}
