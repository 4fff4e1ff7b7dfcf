package security

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubDNS(t *testing.T, hosts map[string][]string) {
	t.Helper()
	orig := lookupIP
	lookupIP = func(host string) ([]net.IP, error) {
		addrs, ok := hosts[host]
		if !ok {
			return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
		}
		ips := make([]net.IP, 0, len(addrs))
		for _, a := range addrs {
			ips = append(ips, net.ParseIP(a))
		}
		return ips, nil
	}
	t.Cleanup(func() { lookupIP = orig })
}

func TestIsPrivateURLLiteralIPs(t *testing.T) {
	private := []string{
		"http://127.0.0.1/admin",
		"http://10.0.0.1/",
		"http://172.16.0.1/x",
		"http://192.168.1.1",
		"http://169.254.169.254/latest/meta-data/",
		"http://0.0.0.0:8080",
		"http://100.64.0.1",
		"http://198.18.0.5",
		"http://[::1]/",
		"http://[fe80::1]/",
	}
	for _, u := range private {
		assert.True(t, IsPrivateURL(u), "expected private: %s", u)
	}
}

func TestIsPrivateURLPublicHost(t *testing.T) {
	stubDNS(t, map[string][]string{"example.com": {"93.184.216.34"}})
	assert.False(t, IsPrivateURL("https://example.com/page"))
	assert.False(t, IsPrivateURL("http://8.8.8.8/"))
}

func TestIsPrivateURLInternalHostnames(t *testing.T) {
	assert.True(t, IsPrivateURL("http://localhost:3000"))
	assert.True(t, IsPrivateURL("http://metadata.google.internal/computeMetadata/v1/"))
	assert.True(t, IsPrivateURL("http://db.internal/status"))
	assert.True(t, IsPrivateURL("http://printer.local"))
}

func TestIsPrivateURLResolvedToPrivate(t *testing.T) {
	stubDNS(t, map[string][]string{
		"evil.example.org": {"93.184.216.34", "10.0.0.7"},
		"gone.example.org": nil,
	})
	// One private A record poisons the whole hostname.
	assert.True(t, IsPrivateURL("https://evil.example.org/payload"))
	// Unresolvable hosts are rejected, not fetched.
	assert.True(t, IsPrivateURL("https://nxdomain.example.net/"))
}

func TestExtractURLs(t *testing.T) {
	stubDNS(t, map[string][]string{
		"phish.example.com": {"203.0.113.9"},
		"shop.example.com":  {"203.0.113.10"},
	})

	text := "Click https://phish.example.com/win now! Also http://169.254.169.254/meta " +
		"and again https://phish.example.com/win plus https://shop.example.com/item."

	urls := ExtractURLs(text)
	assert.Equal(t, []string{
		"https://phish.example.com/win",
		"https://shop.example.com/item",
	}, urls)
}

func TestExtractURLsNone(t *testing.T) {
	assert.Empty(t, ExtractURLs("no links here, just ftp://old.example.com style text"))
}
