package util

import (
	"net"
	"net/url"
	"strings"
)

var blockedHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"0.0.0.0":   true,
	"::1":       true,
}

var privatePrefixes = []string{
	"10.",
	"192.168.",
	"172.16.", "172.17.", "172.18.", "172.19.", "172.20.", "172.21.", "172.22.", "172.23.",
	"172.24.", "172.25.", "172.26.", "172.27.", "172.28.", "172.29.", "172.30.", "172.31.",
}

// IsSafeURL reports whether rawURL may be fetched. It fails closed: anything
// that does not parse to an http(s) URL with a public-looking host is unsafe.
// The check is lexical; hostnames are not resolved.
func IsSafeURL(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := strings.ToLower(strings.TrimSuffix(parsed.Hostname(), "."))
	if host == "" || blockedHosts[host] {
		return false
	}

	for _, prefix := range privatePrefixes {
		if strings.HasPrefix(host, prefix) {
			return false
		}
	}

	// IP literals the prefix list does not spell out (::ffff:127.0.0.1, fe80::, 169.254.x).
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return false
		}
	}

	return true
}
