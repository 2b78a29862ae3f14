package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jonesrussell/storetrust/internal/domain"
)

// DefaultReputationURL is the IPQualityScore API root.
const DefaultReputationURL = "https://www.ipqualityscore.com/api/json/url"

const (
	fraudDanger  = 85
	fraudWarning = 60
)

type reputationResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	FraudScore int    `json:"risk_score"`
	Phishing   bool   `json:"phishing"`
	Malware    bool   `json:"malware"`
	Suspicious bool   `json:"suspicious"`
}

// ReputationCheck asks a fraud-scoring API for the URL's risk.
type ReputationCheck struct {
	client *Client
	weight int
}

func NewReputationCheck(client *Client, weight int) *ReputationCheck {
	return &ReputationCheck{client: client, weight: weight}
}

func (c *ReputationCheck) Type() domain.SignalType { return domain.SignalReputation }

func (c *ReputationCheck) Check(ctx context.Context, normalizedURL string) (domain.SignalResult, error) {
	var resp reputationResponse
	path := "/" + url.PathEscape(c.client.APIKey()) + "/" + url.PathEscape(normalizedURL)
	if err := c.client.GetJSON(ctx, path, &resp); err != nil {
		return domain.SignalResult{}, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "unsuccessful lookup"
		}
		return domain.SignalResult{}, fmt.Errorf("%s: %w", c.client.Name(), errors.New(msg))
	}

	fraud := max(0, min(resp.FraudScore, 100))
	r := domain.SignalResult{
		Type:   domain.SignalReputation,
		Score:  100 - fraud,
		Weight: c.weight,
		Details: domain.ReputationDetails{
			FraudScore: fraud,
			Phishing:   resp.Phishing,
			Malware:    resp.Malware,
			Suspicious: resp.Suspicious,
		},
	}

	switch {
	case fraud >= fraudDanger || resp.Phishing || resp.Malware:
		r.Status = domain.StatusDanger
		r.Message = fmt.Sprintf("High fraud risk (risk score %d/100)", fraud)
	case fraud >= fraudWarning || resp.Suspicious:
		r.Status = domain.StatusWarning
		r.Message = fmt.Sprintf("Elevated fraud risk (risk score %d/100)", fraud)
	default:
		r.Status = domain.StatusSafe
		r.Message = fmt.Sprintf("Low fraud risk (risk score %d/100)", fraud)
	}
	return r, nil
}
