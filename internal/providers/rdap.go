package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/urlnorm"
	"golang.org/x/net/publicsuffix"
)

// DefaultRDAPURL is the RDAP bootstrap redirector.
const DefaultRDAPURL = "https://rdap.org"

var errNoRegistrationDate = errors.New("rdap record has no registration event")

type rdapResponse struct {
	Events []struct {
		EventAction string    `json:"eventAction"`
		EventDate   time.Time `json:"eventDate"`
	} `json:"events"`
	Entities []struct {
		Roles      []string `json:"roles"`
		VCardArray []any    `json:"vcardArray"`
	} `json:"entities"`
}

// DomainAgeCheck derives registration age from an RDAP domain record.
type DomainAgeCheck struct {
	client *Client
	weight int
	now    func() time.Time
}

func NewDomainAgeCheck(client *Client, weight int) *DomainAgeCheck {
	return &DomainAgeCheck{client: client, weight: weight, now: time.Now}
}

func (c *DomainAgeCheck) Type() domain.SignalType { return domain.SignalDomainAge }

func (c *DomainAgeCheck) Check(ctx context.Context, normalizedURL string) (domain.SignalResult, error) {
	host := urlnorm.Domain(normalizedURL)
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return domain.SignalResult{}, fmt.Errorf("registrable domain of %q: %w", host, err)
	}

	var resp rdapResponse
	if err := c.client.GetJSON(ctx, "/domain/"+url.PathEscape(registrable), &resp); err != nil {
		return domain.SignalResult{}, err
	}

	var registered time.Time
	for _, e := range resp.Events {
		if e.EventAction == "registration" {
			registered = e.EventDate
			break
		}
	}
	if registered.IsZero() {
		return domain.SignalResult{}, errNoRegistrationDate
	}

	days := max(0, int(c.now().Sub(registered).Hours()/24))
	status, score := ageRating(days)

	return domain.SignalResult{
		Type:    domain.SignalDomainAge,
		Status:  status,
		Score:   score,
		Weight:  c.weight,
		Message: ageMessage(days),
		Details: domain.DomainAgeDetails{
			AgeDays:      days,
			RegisteredAt: registered.UTC(),
			Registrar:    registrarName(resp),
		},
	}, nil
}

func ageRating(days int) (domain.Status, int) {
	switch {
	case days < 30:
		return domain.StatusDanger, 10
	case days < 180:
		return domain.StatusWarning, 50
	case days < 365:
		return domain.StatusWarning, 70
	case days < 730:
		return domain.StatusSafe, 85
	default:
		return domain.StatusSafe, 100
	}
}

func ageMessage(days int) string {
	switch {
	case days < 30:
		return fmt.Sprintf("Domain registered only %d days ago", days)
	case days < 365:
		return fmt.Sprintf("Domain registered %d months ago", days/30)
	default:
		years := days / 365
		if years == 1 {
			return "Domain registered over a year ago"
		}
		return fmt.Sprintf("Domain registered %d years ago", years)
	}
}

// registrarName reads the "fn" property of the registrar entity's jCard.
func registrarName(resp rdapResponse) string {
	for _, e := range resp.Entities {
		if !containsFold(e.Roles, "registrar") || len(e.VCardArray) < 2 {
			continue
		}
		props, ok := e.VCardArray[1].([]any)
		if !ok {
			continue
		}
		for _, p := range props {
			fields, ok := p.([]any)
			if !ok || len(fields) < 4 {
				continue
			}
			if name, _ := fields[0].(string); name == "fn" {
				value, _ := fields[3].(string)
				return value
			}
		}
	}
	return ""
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
