package providers

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/urlnorm"
	"golang.org/x/sync/errgroup"
)

// maxRating is the scale every source is normalized to.
const maxRating = 5.0

// ReviewSource reports a store's rating on one review platform.
type ReviewSource interface {
	Name() string
	Fetch(ctx context.Context, domainName string) (domain.ReviewSourceResult, error)
}

// ReviewWeightFunc returns the reviews signal weight for a review count.
type ReviewWeightFunc func(count int) int

// ReviewsCheck averages ratings across sources, weighted by each source's
// review count.
type ReviewsCheck struct {
	sources []ReviewSource
	weight  ReviewWeightFunc
	logger  logger.Logger
}

func NewReviewsCheck(sources []ReviewSource, weight ReviewWeightFunc, log logger.Logger) *ReviewsCheck {
	return &ReviewsCheck{sources: sources, weight: weight, logger: log}
}

func (c *ReviewsCheck) Type() domain.SignalType { return domain.SignalReviews }

// Check fails only when every source fails. When only some fail, the
// verdict is capped at warning and the missing sources are noted.
func (c *ReviewsCheck) Check(ctx context.Context, normalizedURL string) (domain.SignalResult, error) {
	if len(c.sources) == 0 {
		return domain.SignalResult{}, errors.New("no review sources configured")
	}
	host := urlnorm.Domain(normalizedURL)

	results := make([]domain.ReviewSourceResult, len(c.sources))
	errs := make([]error, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			r, err := src.Fetch(gctx, host)
			if err != nil {
				c.logger.Debug("Review source failed",
					logger.String("source", src.Name()),
					logger.Domain(host),
					logger.Error(err),
				)
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				return nil
			}
			r.Source = src.Name()
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	answered := make([]domain.ReviewSourceResult, 0, len(results))
	var unavailable []string
	for i, r := range results {
		if errs[i] != nil {
			unavailable = append(unavailable, c.sources[i].Name())
			continue
		}
		answered = append(answered, r)
	}
	if len(answered) == 0 {
		return domain.SignalResult{}, errors.Join(errs...)
	}

	result := c.combine(answered)
	if len(unavailable) > 0 {
		result = c.partial(result, unavailable)
	}
	return result, nil
}

// partial keeps a rating built from a subset of sources out of the safe band.
func (c *ReviewsCheck) partial(r domain.SignalResult, unavailable []string) domain.SignalResult {
	details, _ := r.Details.(domain.ReviewsDetails)
	details.Unavailable = unavailable
	r.Details = details

	if r.Status == domain.StatusSafe {
		r.Status = domain.StatusWarning
		r.Score = min(r.Score, domain.SafeThreshold-1)
	}
	r.Message = fmt.Sprintf("%s (%d of %d review sources unavailable)", r.Message, len(unavailable), len(c.sources))
	return r
}

func (c *ReviewsCheck) combine(sources []domain.ReviewSourceResult) domain.SignalResult {
	total := 0
	weighted := 0.0
	for _, s := range sources {
		if s.Count <= 0 {
			continue
		}
		total += s.Count
		weighted += s.Rating * float64(s.Count)
	}

	details := domain.ReviewsDetails{Count: total, Sources: sources}
	if total == 0 {
		return domain.SignalResult{
			Type:    domain.SignalReviews,
			Status:  domain.StatusUnknown,
			Score:   domain.NeutralScore,
			Weight:  c.weight(0),
			Message: "No customer reviews found",
			Details: details,
		}
	}

	rating := weighted / float64(total)
	details.Rating = math.Round(rating*10) / 10
	score := int(math.Round(rating / maxRating * 100))

	status := domain.StatusSafe
	switch {
	case score < domain.CautionThreshold:
		status = domain.StatusDanger
	case score < domain.SafeThreshold:
		status = domain.StatusWarning
	}

	return domain.SignalResult{
		Type:    domain.SignalReviews,
		Status:  status,
		Score:   max(0, min(score, 100)),
		Weight:  c.weight(total),
		Message: fmt.Sprintf("Rated %.1f/5 from %d customer reviews", details.Rating, total),
		Details: details,
	}
}
