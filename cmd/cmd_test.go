package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() domain.AggregateResult {
	return domain.AggregateResult{
		URL:    "https://shop.example",
		Domain: "shop.example",
		Score:  0,
		Level:  domain.LevelDanger,
		Bullets: []domain.Bullet{
			{Icon: domain.IconDanger, Text: "Flagged for malware"},
			{Icon: domain.IconCheck, Text: "Registered 12 years ago"},
		},
		Signals: []domain.SignalResult{
			{Type: domain.SignalMalware, Status: domain.StatusDanger, Score: 0, Weight: 0, Message: "Flagged for malware"},
			{Type: domain.SignalDomainAge, Status: domain.StatusSafe, Score: 100, Weight: 15, Message: "Registered 12 years ago"},
		},
		Policy:     "v2",
		Overrides:  []string{"malware"},
		ComputedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRender_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, render(&buf, outputTable, []domain.AggregateResult{sampleResult()}))

	out := buf.String()
	assert.Contains(t, out, "shop.example")
	assert.Contains(t, out, "domain-age")
	assert.Contains(t, out, "Registered 12 years ago")
	assert.Contains(t, out, "[!!]")
	assert.Contains(t, out, "[ok]")
	assert.Contains(t, strings.ToLower(out), "overrides: malware")
}

func TestRender_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, render(&buf, outputJSON, []domain.AggregateResult{sampleResult()}))

	var got []domain.AggregateResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "shop.example", got[0].Domain)
	assert.Equal(t, []string{"malware"}, got[0].Overrides)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "storetrust dev\n", out.String())
}

func TestEvaluateCommand_RejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"no url", []string{"evaluate"}},
		{"unknown output", []string{"evaluate", "-o", "xml", "example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := NewRootCommand()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(tt.args)
			assert.Error(t, root.Execute())
		})
	}
}

// TestEvaluateCommand_JSON runs the full pipeline offline: RDAP and the
// review API are served locally, every other network check is disabled.
func TestEvaluateCommand_JSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/domain/example.com", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events": [{"eventAction": "registration", "eventDate": "2005-03-01T00:00:00Z"}]}`))
	})
	mux.HandleFunc("/reviews/example.com", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rating": 4.5, "count": 300}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	cfgBody := `service:
  check_timeout: 2s
cache:
  backend: none
providers:
  safe_browsing: {disabled: true}
  reputation: {disabled: true}
  certificate: {disabled: true}
  payment: {disabled: true}
  rdap:
    base_url: ` + srv.URL + `
  reviews:
    - name: stub
      kind: api
      url: ` + srv.URL + `
logging:
  level: error
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgBody), 0o600))
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("SCORING_POLICY", "")

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"evaluate", "--config", cfgPath, "-o", "json", "https://www.example.com/shop"})
	require.NoError(t, root.Execute())

	var results []domain.AggregateResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "example.com", r.Domain)
	assert.Len(t, r.Signals, len(domain.PriorityOrder))

	age, ok := r.Signal(domain.SignalDomainAge)
	require.True(t, ok)
	assert.Equal(t, domain.StatusSafe, age.Status)
	assert.Equal(t, 100, age.Score)

	reviews, ok := r.Signal(domain.SignalReviews)
	require.True(t, ok)
	assert.Equal(t, 90, reviews.Score)
	assert.Equal(t, 30, reviews.Weight)
}

func TestEvaluateCommand_TimeoutReturnsPromptly(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	cfgBody := `service:
  check_timeout: 5s
cache:
  backend: none
providers:
  safe_browsing: {disabled: true}
  reputation: {disabled: true}
  certificate: {disabled: true}
  payment: {disabled: true}
  rdap:
    base_url: ` + srv.URL + `
  reviews:
    - name: stub
      kind: api
      url: ` + srv.URL + `
logging:
  level: error
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgBody), 0o600))
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("SCORING_POLICY", "")

	root := NewRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"evaluate", "--config", cfgPath, "--timeout", "50ms", "slow.example"})

	start := time.Now()
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out after 50ms")
	assert.Less(t, time.Since(start), 3*time.Second)
}
