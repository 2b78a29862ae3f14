package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Details is the signal-specific payload of a SignalResult. Each variant
// reports the signal type it belongs to.
type Details interface {
	SignalType() SignalType
}

// MalwareDetails is produced by the malware-filter check.
type MalwareDetails struct {
	IsMalware  bool     `json:"isMalware"`
	IsPhishing bool     `json:"isPhishing"`
	Threats    []string `json:"threats,omitempty"`
}

func (MalwareDetails) SignalType() SignalType { return SignalMalware }

// Flagged reports whether either threat flag is set.
func (d MalwareDetails) Flagged() bool { return d.IsMalware || d.IsPhishing }

// DomainAgeDetails is produced by the domain-age check.
type DomainAgeDetails struct {
	AgeDays      int       `json:"ageDays"`
	RegisteredAt time.Time `json:"registeredAt,omitzero"`
	Registrar    string    `json:"registrar,omitempty"`
}

func (DomainAgeDetails) SignalType() SignalType { return SignalDomainAge }

// CertificateDetails is produced by the certificate check.
type CertificateDetails struct {
	Valid         bool      `json:"valid"`
	Issuer        string    `json:"issuer,omitempty"`
	NotAfter      time.Time `json:"notAfter,omitzero"`
	DaysRemaining int       `json:"daysRemaining"`
	Error         string    `json:"error,omitempty"`
}

func (CertificateDetails) SignalType() SignalType { return SignalCertificate }

// ReputationDetails is produced by the fraud-reputation check.
type ReputationDetails struct {
	FraudScore int  `json:"fraudScore"`
	Phishing   bool `json:"phishing"`
	Malware    bool `json:"malware"`
	Suspicious bool `json:"suspicious"`
}

func (ReputationDetails) SignalType() SignalType { return SignalReputation }

// ReviewSourceResult is one review provider's contribution.
type ReviewSourceResult struct {
	Source string  `json:"source"`
	Rating float64 `json:"rating"`
	Count  int     `json:"count"`
}

// ReviewsDetails is produced by the reviews check.
type ReviewsDetails struct {
	Count   int                  `json:"count"`
	Rating  float64              `json:"rating"`
	Sources []ReviewSourceResult `json:"sources,omitempty"`
	// Unavailable names sources that failed while others answered.
	Unavailable []string `json:"unavailable,omitempty"`
}

func (ReviewsDetails) SignalType() SignalType { return SignalReviews }

// Severity of a single heuristics sub-check.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Finding is the outcome of one heuristics sub-check.
type Finding struct {
	Check    string   `json:"check"`
	Penalty  int      `json:"penalty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message,omitempty"`
}

// PaymentInfo describes the payment methods observed on a storefront.
type PaymentInfo struct {
	Methods    []string `json:"methods,omitempty"`
	CryptoOnly bool     `json:"cryptoOnly"`
}

// HeuristicsDetails is produced by the heuristics check.
type HeuristicsDetails struct {
	Label        string       `json:"label"`
	TLD          string       `json:"tld,omitempty"`
	TotalPenalty int          `json:"totalPenalty"`
	Findings     []Finding    `json:"findings"`
	Payment      *PaymentInfo `json:"payment,omitempty"`
	// PaymentUnavailable is set when the storefront scan was attempted and failed.
	PaymentUnavailable bool `json:"paymentUnavailable,omitempty"`
}

func (HeuristicsDetails) SignalType() SignalType { return SignalHeuristics }

// CryptoOnly reports whether a payment scan found only crypto payment methods.
func (d HeuristicsDetails) CryptoOnly() bool {
	return d.Payment != nil && d.Payment.CryptoOnly
}

func decodeDetails(t SignalType, data []byte) (Details, error) {
	switch t {
	case SignalMalware:
		return decodeInto[MalwareDetails](data)
	case SignalDomainAge:
		return decodeInto[DomainAgeDetails](data)
	case SignalCertificate:
		return decodeInto[CertificateDetails](data)
	case SignalReputation:
		return decodeInto[ReputationDetails](data)
	case SignalReviews:
		return decodeInto[ReviewsDetails](data)
	case SignalHeuristics:
		return decodeInto[HeuristicsDetails](data)
	default:
		return nil, fmt.Errorf("unknown signal type %q", t)
	}
}

func decodeInto[T Details](data []byte) (Details, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
