// Package scoring blends signal results into a single verdict.
package scoring

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/heuristics"
)

const maxBullets = 4

// Override names recorded on an AggregateResult.
const (
	OverrideMalware     = "malware"
	OverrideYoungDomain = "young-domain"
	OverrideCryptoOnly  = "crypto-only-payment"
	OverrideFewReviews  = "insufficient-reviews"
)

// Engine computes aggregate results under one policy.
type Engine struct {
	policy   Policy
	detector *heuristics.Detector
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine validates the policy. A nil detector gets the default one.
func NewEngine(policy Policy, detector *heuristics.Detector, opts ...Option) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if detector == nil {
		detector = heuristics.New()
	}
	e := &Engine{policy: policy, detector: detector, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Score builds the aggregate result for domainName. Missing signals are
// filled with neutral placeholders; a missing heuristics signal is computed
// from the domain. The only error is ErrWeightInvariant.
func (e *Engine) Score(url, domainName string, signals []domain.SignalResult) (domain.AggregateResult, error) {
	complete := e.complete(domainName, signals)

	weights := e.policy.Weights(reviewCount(complete))
	sum := 0
	for i := range complete {
		complete[i].Weight = weights[complete[i].Type]
		complete[i].Score = clamp(complete[i].Score)
		sum += complete[i].Weight
	}
	if sum != totalWeight {
		return domain.AggregateResult{}, fmt.Errorf("%w: policy %s assigned %d", ErrWeightInvariant, e.policy.Version, sum)
	}

	score, applied := e.applyOverrides(blend(complete), complete)

	return domain.AggregateResult{
		URL:        url,
		Domain:     domainName,
		Score:      score,
		Level:      domain.LevelForScore(score),
		Bullets:    bullets(complete),
		Signals:    complete,
		Policy:     e.policy.Version,
		Overrides:  applied,
		ComputedAt: e.now().UTC(),
	}, nil
}

// complete returns one result per signal type in priority order.
func (e *Engine) complete(domainName string, signals []domain.SignalResult) []domain.SignalResult {
	byType := make(map[domain.SignalType]domain.SignalResult, len(signals))
	for _, s := range signals {
		if _, seen := byType[s.Type]; !seen && s.Type.Valid() {
			byType[s.Type] = s
		}
	}

	out := make([]domain.SignalResult, 0, len(domain.PriorityOrder))
	for _, t := range domain.PriorityOrder {
		s, ok := byType[t]
		switch {
		case ok:
		case t == domain.SignalHeuristics:
			s = e.detector.Detect(domainName)
		default:
			s = domain.Placeholder(t, e.policy.Weight(t))
		}
		out = append(out, s)
	}
	return out
}

// reviewCount returns -1 when no review count was reported.
func reviewCount(signals []domain.SignalResult) int {
	if d, ok := detailsOf[domain.ReviewsDetails](signals); ok {
		return d.Count
	}
	return -1
}

func blend(signals []domain.SignalResult) int {
	weighted, weights := 0, 0
	for _, s := range signals {
		weighted += s.Score * s.Weight
		weights += s.Weight
	}
	if weights == 0 {
		return domain.NeutralScore
	}
	return clamp(int(math.Round(float64(weighted) / float64(weights))))
}

// applyOverrides never raises the score. Rules run in a fixed order and the
// malware rule is terminal.
func (e *Engine) applyOverrides(score int, signals []domain.SignalResult) (int, []string) {
	o := e.policy.Overrides
	var applied []string

	if d, ok := detailsOf[domain.MalwareDetails](signals); ok && d.Flagged() {
		return 0, []string{OverrideMalware}
	}

	if d, ok := detailsOf[domain.DomainAgeDetails](signals); ok && d.AgeDays < o.YoungDomainDays {
		if score > o.YoungDomainCap {
			score = o.YoungDomainCap
		}
		applied = append(applied, OverrideYoungDomain)
	}

	if d, ok := detailsOf[domain.HeuristicsDetails](signals); ok && d.CryptoOnly() {
		score = max(0, score-o.CryptoPenalty)
		applied = append(applied, OverrideCryptoOnly)
	}

	if d, ok := detailsOf[domain.ReviewsDetails](signals); ok && d.Count < o.MinReviews {
		if score > o.FewReviewsCap {
			score = o.FewReviewsCap
		}
		applied = append(applied, OverrideFewReviews)
	}

	return score, applied
}

// detailsOf returns the first details payload of variant T.
func detailsOf[T domain.Details](signals []domain.SignalResult) (T, bool) {
	for _, s := range signals {
		if d, ok := s.Details.(T); ok {
			return d, true
		}
	}
	var zero T
	return zero, false
}

// bullets ranks worst status first, then by signal priority.
func bullets(signals []domain.SignalResult) []domain.Bullet {
	ranked := slices.Clone(signals)
	slices.SortStableFunc(ranked, func(a, b domain.SignalResult) int {
		if d := a.Status.Rank() - b.Status.Rank(); d != 0 {
			return d
		}
		return a.Type.Priority() - b.Type.Priority()
	})

	n := min(len(ranked), maxBullets)
	out := make([]domain.Bullet, 0, n)
	for _, s := range ranked[:n] {
		out = append(out, domain.Bullet{Icon: domain.IconForStatus(s.Status), Text: s.Message})
	}
	return out
}

func clamp(score int) int {
	return max(0, min(score, 100))
}
