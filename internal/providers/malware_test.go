package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMalwareCheck(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantStatus domain.Status
		wantScore  int
		wantDetail domain.MalwareDetails
	}{
		{
			name:       "clean",
			response:   `{}`,
			wantStatus: domain.StatusSafe,
			wantScore:  100,
			wantDetail: domain.MalwareDetails{},
		},
		{
			name:       "phishing",
			response:   `{"matches":[{"threatType":"SOCIAL_ENGINEERING","threat":{"url":"https://bad.example/"}}]}`,
			wantStatus: domain.StatusDanger,
			wantScore:  0,
			wantDetail: domain.MalwareDetails{IsPhishing: true, Threats: []string{"SOCIAL_ENGINEERING"}},
		},
		{
			name: "malware twice",
			response: `{"matches":[{"threatType":"MALWARE","threat":{"url":"https://bad.example/"}},
				{"threatType":"MALWARE","threat":{"url":"http://bad.example/"}}]}`,
			wantStatus: domain.StatusDanger,
			wantScore:  0,
			wantDetail: domain.MalwareDetails{IsMalware: true, Threats: []string{"MALWARE"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, "safebrowsing", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v4/threatMatches:find", r.URL.Path)
				assert.Equal(t, "test-key", r.URL.Query().Get("key"))

				var req safeBrowsingRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Len(t, req.ThreatInfo.ThreatEntries, 3)
				_, _ = w.Write([]byte(tt.response))
			})

			r, err := NewMalwareCheck(client, 0).Check(context.Background(), "https://bad.example/cart")
			require.NoError(t, err)

			assert.Equal(t, domain.SignalMalware, r.Type)
			assert.Equal(t, tt.wantStatus, r.Status)
			assert.Equal(t, tt.wantScore, r.Score)
			assert.Equal(t, 0, r.Weight)
			assert.Equal(t, tt.wantDetail, r.Details)
		})
	}
}

func TestMalwareCheck_ProviderFailure(t *testing.T) {
	client := newTestClient(t, "safebrowsing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := NewMalwareCheck(client, 0).Check(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ErrProviderStatus)
}
