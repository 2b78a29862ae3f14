// Package domain holds the value types shared by every stage of an evaluation.
package domain

import (
	"encoding/json"
	"fmt"
)

// SignalType identifies one independent trust indicator.
type SignalType string

const (
	SignalMalware     SignalType = "malware-filter"
	SignalDomainAge   SignalType = "domain-age"
	SignalCertificate SignalType = "certificate"
	SignalReputation  SignalType = "reputation"
	SignalReviews     SignalType = "reviews"
	SignalHeuristics  SignalType = "heuristics"
)

// PriorityOrder is the tie-break order used when ranking signals.
var PriorityOrder = []SignalType{
	SignalMalware,
	SignalDomainAge,
	SignalCertificate,
	SignalReviews,
	SignalReputation,
	SignalHeuristics,
}

// Priority returns the index of t in PriorityOrder, or len(PriorityOrder) if unknown.
func (t SignalType) Priority() int {
	for i, p := range PriorityOrder {
		if p == t {
			return i
		}
	}
	return len(PriorityOrder)
}

func (t SignalType) Valid() bool {
	return t.Priority() < len(PriorityOrder)
}

// Status is a signal's own verdict.
type Status string

const (
	StatusSafe    Status = "safe"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
	StatusUnknown Status = "unknown"
)

// Rank orders statuses worst first: danger < warning < unknown < safe.
func (s Status) Rank() int {
	switch s {
	case StatusDanger:
		return 0
	case StatusWarning:
		return 1
	case StatusUnknown:
		return 2
	case StatusSafe:
		return 3
	default:
		return 2
	}
}

// UnavailableMessage is the message of a placeholder result.
const UnavailableMessage = "check unavailable"

// NeutralScore is the score assumed for a signal that could not be produced.
const NeutralScore = 50

// SignalResult is the common shape every signal check produces.
type SignalResult struct {
	Type    SignalType `json:"signalType"`
	Status  Status     `json:"status"`
	Score   int        `json:"score"`
	Weight  int        `json:"weight"`
	Message string     `json:"message"`
	Details Details    `json:"details,omitempty"`
}

// Placeholder is the neutral result substituted for a failed or missing check.
func Placeholder(t SignalType, weight int) SignalResult {
	return SignalResult{
		Type:    t,
		Status:  StatusUnknown,
		Score:   NeutralScore,
		Weight:  weight,
		Message: UnavailableMessage,
	}
}

// IsPlaceholder reports whether r was produced by Placeholder.
func (r SignalResult) IsPlaceholder() bool {
	return r.Status == StatusUnknown && r.Details == nil && r.Message == UnavailableMessage
}

type signalResultJSON struct {
	Type    SignalType      `json:"signalType"`
	Status  Status          `json:"status"`
	Score   int             `json:"score"`
	Weight  int             `json:"weight"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// UnmarshalJSON decodes details into the variant selected by signalType.
func (r *SignalResult) UnmarshalJSON(data []byte) error {
	var raw signalResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = SignalResult{
		Type:    raw.Type,
		Status:  raw.Status,
		Score:   raw.Score,
		Weight:  raw.Weight,
		Message: raw.Message,
	}

	if len(raw.Details) == 0 || string(raw.Details) == "null" {
		return nil
	}

	details, err := decodeDetails(raw.Type, raw.Details)
	if err != nil {
		return fmt.Errorf("decode %s details: %w", raw.Type, err)
	}
	r.Details = details
	return nil
}
