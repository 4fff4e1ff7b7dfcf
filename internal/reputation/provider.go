// Package reputation checks submitted URLs against independent threat-intel
// providers, caching per-URL results in Redis.
package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider answers whether each URL in a batch is known-malicious.
// Implementations must honor ctx deadlines; the checker gives each provider
// its own timeout so a slow provider cannot stall the batch.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, urls []string) (map[string]bool, error)
}

const providerTimeout = 5 * time.Second

// SafeBrowsingProvider queries the Google Safe Browsing v4 threatMatches API.
type SafeBrowsingProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewSafeBrowsingProvider builds a Safe Browsing provider. An empty apiKey
// disables it (Lookup reports no signal).
func NewSafeBrowsingProvider(endpoint, apiKey string, client *http.Client) *SafeBrowsingProvider {
	if client == nil {
		client = &http.Client{Timeout: providerTimeout}
	}
	return &SafeBrowsingProvider{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (p *SafeBrowsingProvider) Name() string { return "safe_browsing" }

type sbThreatEntry struct {
	URL string `json:"url"`
}

type sbRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string        `json:"threatTypes"`
		PlatformTypes    []string        `json:"platformTypes"`
		ThreatEntryTypes []string        `json:"threatEntryTypes"`
		ThreatEntries    []sbThreatEntry `json:"threatEntries"`
	} `json:"threatInfo"`
}

type sbResponse struct {
	Matches []struct {
		Threat sbThreatEntry `json:"threat"`
	} `json:"matches"`
}

// Lookup posts the batch to threatMatches:find and marks every matched URL.
func (p *SafeBrowsingProvider) Lookup(ctx context.Context, urls []string) (map[string]bool, error) {
	if p.apiKey == "" || len(urls) == 0 {
		return map[string]bool{}, nil
	}

	var req sbRequest
	req.Client.ClientID = "scamshield"
	req.Client.ClientVersion = "1.0"
	req.ThreatInfo.ThreatTypes = []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"}
	req.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	req.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	for _, u := range urls {
		req.ThreatInfo.ThreatEntries = append(req.ThreatInfo.ThreatEntries, sbThreatEntry{URL: u})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("reputation: marshal safe browsing request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"?key="+url.QueryEscape(p.apiKey), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("reputation: build safe browsing request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("reputation: safe browsing call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reputation: safe browsing status %d", resp.StatusCode)
	}

	var parsed sbResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("reputation: decode safe browsing response: %w", err)
	}

	out := make(map[string]bool, len(urls))
	for _, u := range urls {
		out[u] = false
	}
	for _, m := range parsed.Matches {
		out[m.Threat.URL] = true
	}
	return out, nil
}

// URLHausProvider queries the abuse.ch URLhaus lookup API, one URL at a time
// (the API has no batch endpoint).
type URLHausProvider struct {
	endpoint string
	client   *http.Client
}

func NewURLHausProvider(endpoint string, client *http.Client) *URLHausProvider {
	if client == nil {
		client = &http.Client{Timeout: providerTimeout}
	}
	return &URLHausProvider{endpoint: endpoint, client: client}
}

func (p *URLHausProvider) Name() string { return "urlhaus" }

type urlhausResponse struct {
	QueryStatus string `json:"query_status"`
	URLStatus   string `json:"url_status"`
}

// Lookup checks each URL individually. A per-URL failure fails the whole
// lookup; the checker treats that as "no signal" from this provider.
func (p *URLHausProvider) Lookup(ctx context.Context, urls []string) (map[string]bool, error) {
	out := make(map[string]bool, len(urls))
	for _, u := range urls {
		malicious, err := p.lookupOne(ctx, u)
		if err != nil {
			return nil, err
		}
		out[u] = malicious
	}
	return out, nil
}

func (p *URLHausProvider) lookupOne(ctx context.Context, target string) (bool, error) {
	form := url.Values{"url": {target}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("reputation: build urlhaus request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("reputation: urlhaus call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("reputation: urlhaus status %d", resp.StatusCode)
	}

	var parsed urlhausResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("reputation: decode urlhaus response: %w", err)
	}

	return parsed.QueryStatus == "ok" && parsed.URLStatus == "online", nil
}
