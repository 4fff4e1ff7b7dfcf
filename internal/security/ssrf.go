package security

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

var urlRe = regexp.MustCompile(`https?://[^\s<>"'\x60]+`)

// blockedRanges covers address space that must never be fetched on behalf of
// a caller: loopback, RFC1918, link-local (cloud metadata lives here),
// "current network", shared address space, and the benchmarking range.
var blockedRanges = func() []*net.IPNet {
	cidrs := []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"0.0.0.0/8",
		"100.64.0.0/10",
		"198.18.0.0/15",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic("security: bad blocked CIDR " + c)
		}
		nets = append(nets, n)
	}
	return nets
}()

var internalHostSuffixes = []string{
	".internal",
	".local",
	".localdomain",
	".intranet",
	".corp",
}

var internalHostnames = map[string]bool{
	"localhost":                true,
	"metadata":                 true,
	"metadata.google.internal": true,
	"instance-data":            true,
}

// lookupIP is swapped in tests to avoid real DNS.
var lookupIP = net.LookupIP

// ExtractURLs returns deduplicated http/https URLs found in text, in order of
// first appearance, with any URL resolving to private or internal network
// space removed. Filtering happens before any dial, never after.
func ExtractURLs(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range urlRe.FindAllString(text, -1) {
		raw = strings.TrimRight(raw, ".,;:!?)]}")
		if seen[raw] {
			continue
		}
		seen[raw] = true
		if IsPrivateURL(raw) {
			continue
		}
		out = append(out, raw)
	}
	return out
}

// IsPrivateURL reports whether rawURL points at loopback, private, link-local
// or otherwise internal address space. Unparseable URLs are treated as
// private (reject rather than fetch).
func IsPrivateURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return true
	}

	if internalHostnames[host] {
		return true
	}
	for _, suffix := range internalHostSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		return isBlockedIP(ip)
	}

	// Hostname: every resolved address must be checked. Resolution failure
	// means the URL cannot be safely fetched.
	ips, err := lookupIP(host)
	if err != nil || len(ips) == 0 {
		return true
	}
	for _, ip := range ips {
		if isBlockedIP(ip) {
			return true
		}
	}
	return false
}

func isBlockedIP(ip net.IP) bool {
	for _, n := range blockedRanges {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
