package domain

import "time"

// Level is the three-band verdict of an aggregate result.
type Level string

const (
	LevelSafe    Level = "safe"
	LevelCaution Level = "caution"
	LevelDanger  Level = "danger"
)

// Level thresholds, inclusive at the lower bound.
const (
	SafeThreshold    = 70
	CautionThreshold = 40
)

// LevelForScore maps a 0-100 score to its band.
func LevelForScore(score int) Level {
	switch {
	case score >= SafeThreshold:
		return LevelSafe
	case score >= CautionThreshold:
		return LevelCaution
	default:
		return LevelDanger
	}
}

// Icon is the pictogram shown next to a bullet.
type Icon string

const (
	IconCheck   Icon = "check"
	IconWarning Icon = "warning"
	IconDanger  Icon = "danger"
)

// IconForStatus maps a signal status to a bullet icon; unknown maps to warning.
func IconForStatus(s Status) Icon {
	switch s {
	case StatusSafe:
		return IconCheck
	case StatusDanger:
		return IconDanger
	default:
		return IconWarning
	}
}

// Bullet is one line of the verdict explanation.
type Bullet struct {
	Icon Icon   `json:"icon"`
	Text string `json:"text"`
}

// AggregateResult is the final verdict for a URL.
type AggregateResult struct {
	URL        string         `json:"url"`
	Domain     string         `json:"domain"`
	Score      int            `json:"score"`
	Level      Level          `json:"level"`
	Bullets    []Bullet       `json:"bullets"`
	Signals    []SignalResult `json:"signals"`
	Policy     string         `json:"policy,omitempty"`
	Overrides  []string       `json:"overrides,omitempty"`
	ComputedAt time.Time      `json:"computedAt"`
}

// Signal returns the result of type t, if present.
func (a AggregateResult) Signal(t SignalType) (SignalResult, bool) {
	for _, s := range a.Signals {
		if s.Type == t {
			return s, true
		}
	}
	return SignalResult{}, false
}
