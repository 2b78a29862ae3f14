package providers

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/urlnorm"
)

const (
	defaultTLSPort        = "443"
	expiringSoonDays      = 7
	defaultHandshakeLimit = 5 * time.Second
)

// CertificateCheck performs a verified TLS handshake with the storefront
// and inspects the leaf certificate.
type CertificateCheck struct {
	weight  int
	roots   *x509.CertPool
	address func(host string) string
	now     func() time.Time
	timeout time.Duration
}

// CertificateOption configures a CertificateCheck.
type CertificateOption func(*CertificateCheck)

// WithRootCAs replaces the system trust store.
func WithRootCAs(pool *x509.CertPool) CertificateOption {
	return func(c *CertificateCheck) { c.roots = pool }
}

// WithDialAddress overrides the host:port dialled for a host.
func WithDialAddress(fn func(host string) string) CertificateOption {
	return func(c *CertificateCheck) { c.address = fn }
}

// WithCertificateClock overrides the time used for expiry math.
func WithCertificateClock(now func() time.Time) CertificateOption {
	return func(c *CertificateCheck) { c.now = now }
}

func NewCertificateCheck(weight int, opts ...CertificateOption) *CertificateCheck {
	c := &CertificateCheck{
		weight:  weight,
		address: func(host string) string { return net.JoinHostPort(host, defaultTLSPort) },
		now:     time.Now,
		timeout: defaultHandshakeLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CertificateCheck) Type() domain.SignalType { return domain.SignalCertificate }

// Check reports an invalid certificate as danger. Network failures are
// returned as errors.
func (c *CertificateCheck) Check(ctx context.Context, normalizedURL string) (domain.SignalResult, error) {
	host := urlnorm.Domain(normalizedURL)

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: c.timeout},
		Config: &tls.Config{
			ServerName: host,
			RootCAs:    c.roots,
			MinVersion: tls.VersionTLS12,
			Time:       c.now,
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp", c.address(host))
	if err != nil {
		var verr *tls.CertificateVerificationError
		if errors.As(err, &verr) {
			return c.invalid(verr), nil
		}
		return domain.SignalResult{}, fmt.Errorf("tls handshake with %s: %w", host, err)
	}
	defer conn.Close()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return domain.SignalResult{}, fmt.Errorf("tls handshake with %s: unexpected connection type %T", host, conn)
	}
	certs := tlsConn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return domain.SignalResult{}, fmt.Errorf("tls handshake with %s: no peer certificate", host)
	}
	leaf := certs[0]

	days := int(leaf.NotAfter.Sub(c.now()).Hours() / 24)
	details := domain.CertificateDetails{
		Valid:         true,
		Issuer:        issuerName(leaf),
		NotAfter:      leaf.NotAfter.UTC(),
		DaysRemaining: days,
	}

	if days < expiringSoonDays {
		return domain.SignalResult{
			Type:    domain.SignalCertificate,
			Status:  domain.StatusWarning,
			Score:   60,
			Weight:  c.weight,
			Message: fmt.Sprintf("Security certificate expires in %d days", days),
			Details: details,
		}, nil
	}

	return domain.SignalResult{
		Type:    domain.SignalCertificate,
		Status:  domain.StatusSafe,
		Score:   100,
		Weight:  c.weight,
		Message: "Valid security certificate issued by " + details.Issuer,
		Details: details,
	}, nil
}

func (c *CertificateCheck) invalid(verr *tls.CertificateVerificationError) domain.SignalResult {
	details := domain.CertificateDetails{Valid: false, Error: verr.Err.Error()}
	if len(verr.UnverifiedCertificates) > 0 {
		leaf := verr.UnverifiedCertificates[0]
		details.Issuer = issuerName(leaf)
		details.NotAfter = leaf.NotAfter.UTC()
		details.DaysRemaining = int(leaf.NotAfter.Sub(c.now()).Hours() / 24)
	}

	message := "Security certificate is not valid"
	var invalid x509.CertificateInvalidError
	if errors.As(verr.Err, &invalid) && invalid.Reason == x509.Expired {
		message = "Security certificate has expired"
	}

	return domain.SignalResult{
		Type:    domain.SignalCertificate,
		Status:  domain.StatusDanger,
		Score:   0,
		Weight:  c.weight,
		Message: message,
		Details: details,
	}
}

func issuerName(cert *x509.Certificate) string {
	if len(cert.Issuer.Organization) > 0 {
		return cert.Issuer.Organization[0]
	}
	return cert.Issuer.CommonName
}
