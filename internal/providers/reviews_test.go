package providers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name   string
	result domain.ReviewSourceResult
	err    error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(context.Context, string) (domain.ReviewSourceResult, error) {
	return s.result, s.err
}

// weightByCount mirrors the tiered review weighting.
func weightByCount(count int) int {
	switch {
	case count > 200:
		return 30
	case count >= 50:
		return 20
	default:
		return 10
	}
}

func TestReviewsCheck_CountWeightedAverage(t *testing.T) {
	check := NewReviewsCheck([]ReviewSource{
		stubSource{name: "alpha", result: domain.ReviewSourceResult{Rating: 4.0, Count: 100}},
		stubSource{name: "beta", result: domain.ReviewSourceResult{Rating: 5.0, Count: 300}},
	}, weightByCount, logger.NewNop())

	r, err := check.Check(context.Background(), "https://shop.example/")
	require.NoError(t, err)

	assert.Equal(t, domain.SignalReviews, r.Type)
	assert.Equal(t, domain.StatusSafe, r.Status)
	assert.Equal(t, 95, r.Score)
	assert.Equal(t, 30, r.Weight)

	d, ok := r.Details.(domain.ReviewsDetails)
	require.True(t, ok)
	assert.Equal(t, 400, d.Count)
	assert.InDelta(t, 4.8, d.Rating, 0.001)
	require.Len(t, d.Sources, 2)
	assert.Equal(t, "alpha", d.Sources[0].Source)
}

func TestReviewsCheck_PartialFailure(t *testing.T) {
	check := NewReviewsCheck([]ReviewSource{
		stubSource{name: "down", err: errors.New("timeout")},
		stubSource{name: "up", result: domain.ReviewSourceResult{Rating: 2.0, Count: 12}},
	}, weightByCount, logger.NewNop())

	r, err := check.Check(context.Background(), "https://shop.example/")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusWarning, r.Status)
	assert.Equal(t, 40, r.Score)
	assert.Equal(t, 10, r.Weight)
	assert.Contains(t, r.Message, "1 of 2 review sources unavailable")
}

func TestReviewsCheck_PartialFailureCapsSafeRating(t *testing.T) {
	check := NewReviewsCheck([]ReviewSource{
		stubSource{name: "down", err: errors.New("timeout")},
		stubSource{name: "up", result: domain.ReviewSourceResult{Rating: 4.8, Count: 250}},
	}, weightByCount, logger.NewNop())

	r, err := check.Check(context.Background(), "https://shop.example/")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusWarning, r.Status)
	assert.Equal(t, domain.SafeThreshold-1, r.Score)
	assert.Equal(t, 30, r.Weight)
	assert.Equal(t, "Rated 4.8/5 from 250 customer reviews (1 of 2 review sources unavailable)", r.Message)

	d, ok := r.Details.(domain.ReviewsDetails)
	require.True(t, ok)
	assert.Equal(t, []string{"down"}, d.Unavailable)
	assert.InDelta(t, 4.8, d.Rating, 0.001)
}

func TestReviewsCheck_AllSourcesFail(t *testing.T) {
	boom := errors.New("boom")
	check := NewReviewsCheck([]ReviewSource{
		stubSource{name: "a", err: boom},
		stubSource{name: "b", err: errors.New("down")},
	}, weightByCount, logger.NewNop())

	_, err := check.Check(context.Background(), "https://shop.example/")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestReviewsCheck_NoReviews(t *testing.T) {
	check := NewReviewsCheck([]ReviewSource{
		stubSource{name: "a", result: domain.ReviewSourceResult{Rating: 0, Count: 0}},
	}, weightByCount, logger.NewNop())

	r, err := check.Check(context.Background(), "https://shop.example/")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusUnknown, r.Status)
	assert.Equal(t, domain.NeutralScore, r.Score)
	assert.Equal(t, 10, r.Weight)
	assert.Equal(t, "No customer reviews found", r.Message)
}

func TestReviewsCheck_NoSources(t *testing.T) {
	_, err := NewReviewsCheck(nil, weightByCount, logger.NewNop()).Check(context.Background(), "https://shop.example/")
	assert.Error(t, err)
}

func TestAPIReviewSource(t *testing.T) {
	client := newTestClient(t, "reviews-api", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reviews/shop.example", r.URL.Path)
		_, _ = w.Write([]byte(`{"rating": 7.5, "count": 42}`))
	})

	got, err := NewAPIReviewSource("reviews-api", client).Fetch(context.Background(), "shop.example")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got.Rating, 0.001, "ratings are clamped to five stars")
	assert.Equal(t, 42, got.Count)
}
