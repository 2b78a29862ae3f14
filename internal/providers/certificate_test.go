package providers

import (
	"context"
	"crypto/x509"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTLSTarget(t *testing.T) (*httptest.Server, *x509.CertPool) {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	t.Cleanup(srv.Close)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	return srv, pool
}

func dialTo(srv *httptest.Server) CertificateOption {
	return WithDialAddress(func(string) string { return srv.Listener.Addr().String() })
}

func TestCertificateCheck_Valid(t *testing.T) {
	srv, pool := newTLSTarget(t)
	check := NewCertificateCheck(15, WithRootCAs(pool), dialTo(srv))

	r, err := check.Check(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSafe, r.Status)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, 15, r.Weight)
	d, ok := r.Details.(domain.CertificateDetails)
	require.True(t, ok)
	assert.True(t, d.Valid)
	assert.Positive(t, d.DaysRemaining)
}

func TestCertificateCheck_ExpiringSoon(t *testing.T) {
	srv, pool := newTLSTarget(t)
	soon := srv.Certificate().NotAfter.Add(-72 * time.Hour)
	check := NewCertificateCheck(15, WithRootCAs(pool), dialTo(srv), WithCertificateClock(func() time.Time { return soon }))

	r, err := check.Check(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusWarning, r.Status)
	assert.Equal(t, 60, r.Score)
}

func TestCertificateCheck_Expired(t *testing.T) {
	srv, pool := newTLSTarget(t)
	later := srv.Certificate().NotAfter.Add(24 * time.Hour)
	check := NewCertificateCheck(15, WithRootCAs(pool), dialTo(srv), WithCertificateClock(func() time.Time { return later }))

	r, err := check.Check(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDanger, r.Status)
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, "Security certificate has expired", r.Message)
}

func TestCertificateCheck_Untrusted(t *testing.T) {
	srv, _ := newTLSTarget(t)
	check := NewCertificateCheck(15, WithRootCAs(x509.NewCertPool()), dialTo(srv))

	r, err := check.Check(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDanger, r.Status)
	d, ok := r.Details.(domain.CertificateDetails)
	require.True(t, ok)
	assert.False(t, d.Valid)
	assert.NotEmpty(t, d.Error)
}

func TestCertificateCheck_HostnameMismatch(t *testing.T) {
	srv, pool := newTLSTarget(t)
	check := NewCertificateCheck(15, WithRootCAs(pool), dialTo(srv))

	r, err := check.Check(context.Background(), "https://not-the-cert-host.test/")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDanger, r.Status)
}

func TestCertificateCheck_Unreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	check := NewCertificateCheck(15, WithDialAddress(func(string) string { return addr }))
	_, err = check.Check(context.Background(), "https://example.com/")
	assert.Error(t, err, "network failures are errors, not danger verdicts")
}
