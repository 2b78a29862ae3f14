package scoring

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jonesrussell/storetrust/internal/domain"
)

var (
	// ErrInvalidPolicy is returned when a policy's weights cannot sum to 100.
	ErrInvalidPolicy = errors.New("invalid weighting policy")
	// ErrWeightInvariant is returned when the weights assigned to a result set do not sum to 100.
	ErrWeightInvariant = errors.New("signal weights do not sum to 100")
)

// Policy versions.
const (
	VersionFixed         = "v1"
	VersionComplementary = "v2"
	DefaultVersion       = VersionComplementary
)

const totalWeight = 100

// ReviewTier assigns the complementary pool split for review counts at or
// above MinCount (up to the next tier's MinCount).
type ReviewTier struct {
	MinCount   int
	Reviews    int
	Reputation int
}

// Overrides holds the post-blend rule parameters.
type Overrides struct {
	YoungDomainDays int
	YoungDomainCap  int
	CryptoPenalty   int
	MinReviews      int
	FewReviewsCap   int
}

// Policy is a versioned weighting scheme.
type Policy struct {
	Version string
	// Fixed weights by signal type. Reviews and reputation are absent when
	// the policy splits them through ReviewTiers.
	Fixed       map[domain.SignalType]int
	ReviewTiers []ReviewTier
	Overrides   Overrides
}

func defaultOverrides() Overrides {
	return Overrides{
		YoungDomainDays: 30,
		YoungDomainCap:  50,
		CryptoPenalty:   20,
		MinReviews:      20,
		FewReviewsCap:   60,
	}
}

// PolicyV2 splits a pool between reviews and reputation by review volume:
// few reviews lean on automated reputation, many reviews lean on user feedback.
func PolicyV2() Policy {
	return Policy{
		Version: VersionComplementary,
		Fixed: map[domain.SignalType]int{
			domain.SignalMalware:     0,
			domain.SignalDomainAge:   15,
			domain.SignalCertificate: 15,
			domain.SignalHeuristics:  15,
		},
		ReviewTiers: []ReviewTier{
			{MinCount: 0, Reviews: 10, Reputation: 45},
			{MinCount: 50, Reviews: 20, Reputation: 35},
			{MinCount: 201, Reviews: 30, Reputation: 25},
		},
		Overrides: defaultOverrides(),
	}
}

// PolicyV1 is the superseded fixed-percentage scheme.
func PolicyV1() Policy {
	return Policy{
		Version: VersionFixed,
		Fixed: map[domain.SignalType]int{
			domain.SignalMalware:     0,
			domain.SignalDomainAge:   20,
			domain.SignalCertificate: 20,
			domain.SignalReputation:  20,
			domain.SignalReviews:     20,
			domain.SignalHeuristics:  20,
		},
		Overrides: defaultOverrides(),
	}
}

// Lookup returns the built-in policy for version.
func Lookup(version string) (Policy, error) {
	switch version {
	case VersionComplementary, "":
		return PolicyV2(), nil
	case VersionFixed:
		return PolicyV1(), nil
	default:
		return Policy{}, fmt.Errorf("%w: unknown version %q", ErrInvalidPolicy, version)
	}
}

// Validate checks that every review tier yields weights summing to 100.
func (p Policy) Validate() error {
	for t, w := range p.Fixed {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown signal type %q", ErrInvalidPolicy, t)
		}
		if w < 0 || w > totalWeight {
			return fmt.Errorf("%w: weight %d for %s out of range", ErrInvalidPolicy, w, t)
		}
	}

	if len(p.ReviewTiers) == 0 {
		for _, t := range domain.PriorityOrder {
			if _, ok := p.Fixed[t]; !ok {
				return fmt.Errorf("%w: no weight for %s", ErrInvalidPolicy, t)
			}
		}
		if sum := p.fixedSum(); sum != totalWeight {
			return fmt.Errorf("%w: weights sum to %d", ErrInvalidPolicy, sum)
		}
		return nil
	}

	if _, ok := p.Fixed[domain.SignalReviews]; ok {
		return fmt.Errorf("%w: reviews has both fixed and tiered weights", ErrInvalidPolicy)
	}
	if _, ok := p.Fixed[domain.SignalReputation]; ok {
		return fmt.Errorf("%w: reputation has both fixed and tiered weights", ErrInvalidPolicy)
	}
	if p.ReviewTiers[0].MinCount != 0 {
		return fmt.Errorf("%w: first review tier must start at 0", ErrInvalidPolicy)
	}
	if !slices.IsSortedFunc(p.ReviewTiers, func(a, b ReviewTier) int { return a.MinCount - b.MinCount }) {
		return fmt.Errorf("%w: review tiers out of order", ErrInvalidPolicy)
	}
	for _, tier := range p.ReviewTiers {
		if tier.Reviews < 0 || tier.Reputation < 0 {
			return fmt.Errorf("%w: negative tier weight", ErrInvalidPolicy)
		}
		if sum := p.fixedSum() + tier.Reviews + tier.Reputation; sum != totalWeight {
			return fmt.Errorf("%w: weights for %d+ reviews sum to %d", ErrInvalidPolicy, tier.MinCount, sum)
		}
	}
	return nil
}

// Weights returns the weight of every signal type for a given review count.
// A negative count means unknown and selects the lowest tier.
func (p Policy) Weights(reviewCount int) map[domain.SignalType]int {
	w := make(map[domain.SignalType]int, len(domain.PriorityOrder))
	for t, v := range p.Fixed {
		w[t] = v
	}
	if len(p.ReviewTiers) == 0 {
		return w
	}

	tier := p.ReviewTiers[0]
	for _, candidate := range p.ReviewTiers {
		if reviewCount >= candidate.MinCount {
			tier = candidate
		}
	}
	w[domain.SignalReviews] = tier.Reviews
	w[domain.SignalReputation] = tier.Reputation
	return w
}

// Weight returns the configured weight of t when no review count is known.
func (p Policy) Weight(t domain.SignalType) int {
	return p.Weights(-1)[t]
}

func (p Policy) fixedSum() int {
	sum := 0
	for _, v := range p.Fixed {
		sum += v
	}
	return sum
}
