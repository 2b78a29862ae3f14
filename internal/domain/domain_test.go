package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  domain.Level
	}{
		{100, domain.LevelSafe},
		{70, domain.LevelSafe},
		{69, domain.LevelCaution},
		{40, domain.LevelCaution},
		{39, domain.LevelDanger},
		{0, domain.LevelDanger},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.LevelForScore(tt.score), "score %d", tt.score)
	}
}

func TestIconForStatus(t *testing.T) {
	assert.Equal(t, domain.IconCheck, domain.IconForStatus(domain.StatusSafe))
	assert.Equal(t, domain.IconWarning, domain.IconForStatus(domain.StatusWarning))
	assert.Equal(t, domain.IconWarning, domain.IconForStatus(domain.StatusUnknown))
	assert.Equal(t, domain.IconDanger, domain.IconForStatus(domain.StatusDanger))
}

func TestPlaceholder(t *testing.T) {
	p := domain.Placeholder(domain.SignalReputation, 35)

	assert.Equal(t, domain.StatusUnknown, p.Status)
	assert.Equal(t, 50, p.Score)
	assert.Equal(t, 35, p.Weight)
	assert.Equal(t, "check unavailable", p.Message)
	assert.True(t, p.IsPlaceholder())
}

func TestSignalResult_DetailsDecodeToTaggedVariant(t *testing.T) {
	in := domain.SignalResult{
		Type:    domain.SignalReviews,
		Status:  domain.StatusSafe,
		Score:   90,
		Weight:  20,
		Message: "4.5 stars from 180 reviews",
		Details: domain.ReviewsDetails{Count: 180, Rating: 4.5},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out domain.SignalResult
	require.NoError(t, json.Unmarshal(data, &out))

	details, ok := out.Details.(domain.ReviewsDetails)
	require.True(t, ok, "details decoded as %T", out.Details)
	assert.Equal(t, 180, details.Count)
	assert.Equal(t, in, out)
}

func TestSignalResult_UnknownTypeWithDetailsFails(t *testing.T) {
	var out domain.SignalResult
	err := json.Unmarshal([]byte(`{"signalType":"bogus","details":{"x":1}}`), &out)
	require.Error(t, err)
}

func TestSignalResult_NoDetails(t *testing.T) {
	var out domain.SignalResult
	require.NoError(t, json.Unmarshal([]byte(`{"signalType":"reputation","status":"unknown","score":50,"weight":35,"message":"check unavailable"}`), &out))
	assert.Nil(t, out.Details)
	assert.True(t, out.IsPlaceholder())
}

func TestStatusRank_WorstFirst(t *testing.T) {
	assert.Less(t, domain.StatusDanger.Rank(), domain.StatusWarning.Rank())
	assert.Less(t, domain.StatusWarning.Rank(), domain.StatusUnknown.Rank())
	assert.Less(t, domain.StatusUnknown.Rank(), domain.StatusSafe.Rank())
}
