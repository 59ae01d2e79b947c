package model

import "strings"

// NormalizeDomain lowercases and strips scheme, www prefix, path and
// trailing slash from a URL or domain string.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(d, ".")
}

// DomainFromEmail returns the normalized domain part of an email address,
// or "" when the address has no domain part.
func DomainFromEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return NormalizeDomain(email[at+1:])
}

// LooksLikeDomain reports whether a string reads as a bare domain rather
// than a company name (contains a dot, no spaces).
func LooksLikeDomain(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && strings.Contains(s, ".") && !strings.Contains(s, " ")
}
