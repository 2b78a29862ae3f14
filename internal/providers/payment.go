package providers

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/jonesrussell/storetrust/internal/domain"
)

var (
	conventionalMarkers = []string{
		"visa", "mastercard", "american express", "amex", "maestro", "discover",
		"paypal", "apple pay", "google pay", "credit card", "debit card",
		"bank transfer", "klarna", "afterpay", "stripe", "shop pay",
	}
	cryptoMarkers = []string{
		"bitcoin", "btc", "ethereum", "usdt", "tether", "litecoin", "monero",
		"cryptocurrency", "crypto wallet", "coinbase commerce", "binance pay",
	}
)

// PaymentScanner scans a storefront page for the payment methods it advertises.
type PaymentScanner struct {
	client  *Client
	markers []string
	crypto  map[string]bool

	// the matcher keeps per-call state
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
}

func NewPaymentScanner(client *Client) *PaymentScanner {
	markers := append(slices.Clone(conventionalMarkers), cryptoMarkers...)
	crypto := make(map[string]bool, len(cryptoMarkers))
	for _, m := range cryptoMarkers {
		crypto[m] = true
	}
	return &PaymentScanner{
		client:  client,
		markers: markers,
		crypto:  crypto,
		matcher: ahocorasick.NewStringMatcher(markers),
	}
}

// Scan fetches normalizedURL and classifies the payment markers it finds.
// CryptoOnly is set only when crypto markers appear with no conventional method.
func (p *PaymentScanner) Scan(ctx context.Context, normalizedURL string) (domain.PaymentInfo, error) {
	page, err := p.client.Fetch(ctx, normalizedURL)
	if err != nil {
		return domain.PaymentInfo{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return domain.PaymentInfo{}, fmt.Errorf("parse storefront: %w", err)
	}
	return p.classify(visibleText(doc)), nil
}

func (p *PaymentScanner) classify(text string) domain.PaymentInfo {
	p.mu.Lock()
	hits := p.matcher.Match([]byte(text))
	p.mu.Unlock()

	var info domain.PaymentInfo
	sawCrypto, sawConventional := false, false
	for _, i := range hits {
		m := p.markers[i]
		if p.crypto[m] {
			sawCrypto = true
		} else {
			sawConventional = true
		}
		if !slices.Contains(info.Methods, m) {
			info.Methods = append(info.Methods, m)
		}
	}
	slices.Sort(info.Methods)
	info.CryptoOnly = sawCrypto && !sawConventional
	return info
}

// visibleText joins page text with image alt and title attributes, where
// payment logos usually carry their names.
func visibleText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	b.WriteString(doc.Find("body").Text())
	doc.Find("img[alt], [title], [aria-label]").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range []string{"alt", "title", "aria-label"} {
			if v, ok := sel.Attr(attr); ok {
				b.WriteByte(' ')
				b.WriteString(v)
			}
		}
	})
	return strings.ToLower(b.String())
}
