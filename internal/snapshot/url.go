package snapshot

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	canonicalHost = "www.linkedin.com"
	rootDomain    = "linkedin.com"
)

// NormalizeURL rewrites regional LinkedIn hosts (uk.linkedin.com,
// linkedin.com) to the canonical host and defaults the scheme to https.
// Path, query and fragment are kept. It is idempotent.
//
// Only LinkedIn hosts with an /in/<slug> profile path are accepted.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}
	if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "//") {
		raw = "//" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", eris.Wrapf(ErrInvalidURL, "%q: %v", raw, err)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", eris.Wrapf(ErrInvalidURL, "%q: unsupported scheme", raw)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host != rootDomain && !strings.HasSuffix(host, "."+rootDomain) {
		return "", eris.Wrapf(ErrInvalidURL, "%q is not a LinkedIn host", raw)
	}
	if port := u.Port(); port != "" && !defaultPort(u.Scheme, port) {
		return "", eris.Wrapf(ErrInvalidURL, "%q: unexpected port %s", raw, port)
	}
	if !hasProfileSlug(u.Path) {
		return "", eris.Wrapf(ErrInvalidURL, "%q has no /in/ profile path", raw)
	}

	u.Host = canonicalHost
	return u.String(), nil
}

func defaultPort(scheme, port string) bool {
	return (scheme == "https" && port == "443") || (scheme == "http" && port == "80")
}

// hasProfileSlug reports whether path holds an "in" segment followed by a
// non-empty slug.
func hasProfileSlug(path string) bool {
	segs := strings.Split(path, "/")
	for i := 0; i+1 < len(segs); i++ {
		if strings.EqualFold(segs[i], "in") && strings.TrimSpace(segs[i+1]) != "" {
			return true
		}
	}
	return false
}
