package providers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReputationCheck(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus domain.Status
		wantScore  int
	}{
		{"low risk", `{"success":true,"risk_score":12}`, domain.StatusSafe, 88},
		{"suspicious", `{"success":true,"risk_score":30,"suspicious":true}`, domain.StatusWarning, 70},
		{"elevated", `{"success":true,"risk_score":65}`, domain.StatusWarning, 35},
		{"high", `{"success":true,"risk_score":90}`, domain.StatusDanger, 10},
		{"phishing flag", `{"success":true,"risk_score":40,"phishing":true}`, domain.StatusDanger, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, "ipqs", func(w http.ResponseWriter, r *http.Request) {
				assert.True(t, strings.HasPrefix(r.URL.Path, "/test-key/"))
				_, _ = w.Write([]byte(tt.body))
			})

			r, err := NewReputationCheck(client, 35).Check(context.Background(), "https://shop.example/")
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, r.Status)
			assert.Equal(t, tt.wantScore, r.Score)
			assert.Equal(t, 35, r.Weight)
			_, ok := r.Details.(domain.ReputationDetails)
			assert.True(t, ok)
		})
	}
}

func TestReputationCheck_Unsuccessful(t *testing.T) {
	client := newTestClient(t, "ipqs", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid key"}`))
	})

	_, err := NewReputationCheck(client, 35).Check(context.Background(), "https://shop.example/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid key")
}
