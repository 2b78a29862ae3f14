package providers

import (
	"context"
	"net/url"
	"slices"

	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/urlnorm"
)

// DefaultSafeBrowsingURL is the Google Safe Browsing v4 endpoint.
const DefaultSafeBrowsingURL = "https://safebrowsing.googleapis.com"

var (
	malwareThreats = []string{"MALWARE", "UNWANTED_SOFTWARE", "POTENTIALLY_HARMFUL_APPLICATION"}
	phishingThreat = "SOCIAL_ENGINEERING"
)

type threatEntry struct {
	URL string `json:"url"`
}

type safeBrowsingRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string      `json:"threatTypes"`
		PlatformTypes    []string      `json:"platformTypes"`
		ThreatEntryTypes []string      `json:"threatEntryTypes"`
		ThreatEntries    []threatEntry `json:"threatEntries"`
	} `json:"threatInfo"`
}

type safeBrowsingResponse struct {
	Matches []struct {
		ThreatType string      `json:"threatType"`
		Threat     threatEntry `json:"threat"`
	} `json:"matches"`
}

// MalwareCheck looks a URL up in the Safe Browsing threat lists. It is a
// filter: its weight is zero and a match forces the verdict to zero.
type MalwareCheck struct {
	client *Client
	weight int
}

func NewMalwareCheck(client *Client, weight int) *MalwareCheck {
	return &MalwareCheck{client: client, weight: weight}
}

func (c *MalwareCheck) Type() domain.SignalType { return domain.SignalMalware }

func (c *MalwareCheck) Check(ctx context.Context, normalizedURL string) (domain.SignalResult, error) {
	host := urlnorm.Domain(normalizedURL)

	var req safeBrowsingRequest
	req.Client.ClientID = "storetrust"
	req.Client.ClientVersion = "1.0"
	req.ThreatInfo.ThreatTypes = append(slices.Clone(malwareThreats), phishingThreat)
	req.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	req.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	req.ThreatInfo.ThreatEntries = []threatEntry{
		{URL: normalizedURL},
		{URL: "https://" + host + "/"},
		{URL: "http://" + host + "/"},
	}

	var resp safeBrowsingResponse
	path := "/v4/threatMatches:find?key=" + url.QueryEscape(c.client.APIKey())
	if err := c.client.PostJSON(ctx, path, req, &resp); err != nil {
		return domain.SignalResult{}, err
	}

	details := domain.MalwareDetails{}
	for _, m := range resp.Matches {
		if !slices.Contains(details.Threats, m.ThreatType) {
			details.Threats = append(details.Threats, m.ThreatType)
		}
		switch {
		case m.ThreatType == phishingThreat:
			details.IsPhishing = true
		case slices.Contains(malwareThreats, m.ThreatType):
			details.IsMalware = true
		}
	}

	r := domain.SignalResult{
		Type:    domain.SignalMalware,
		Status:  domain.StatusSafe,
		Score:   100,
		Weight:  c.weight,
		Message: "No malware or phishing reports",
		Details: details,
	}
	switch {
	case details.IsPhishing:
		r.Status, r.Score, r.Message = domain.StatusDanger, 0, "Reported as a phishing site"
	case details.IsMalware:
		r.Status, r.Score, r.Message = domain.StatusDanger, 0, "Reported for distributing malware"
	case len(details.Threats) > 0:
		r.Status, r.Score, r.Message = domain.StatusWarning, 50, "Listed by a threat feed"
	}
	return r, nil
}
