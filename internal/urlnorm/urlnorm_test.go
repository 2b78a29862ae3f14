package urlnorm_test

import (
	"testing"

	"github.com/jonesrussell/storetrust/internal/urlnorm"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantDomain string
		wantURL    string
	}{
		{"bare host", "example.com", "example.com", "https://example.com"},
		{"www stripped", "https://www.Example.COM/path?q=1", "example.com", "https://example.com/path?q=1"},
		{"http kept", "http://shop.example.com", "shop.example.com", "http://shop.example.com"},
		{"port kept in url", "example.com:8443/x", "example.com", "https://example.com:8443/x"},
		{"trailing dot", "example.com.", "example.com", "https://example.com"},
		{"fragment dropped", "example.com/#top", "example.com", "https://example.com/"},
		{"whitespace", "  www.example.com  ", "example.com", "https://example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := urlnorm.Normalize(tt.raw)
			assert.Equal(t, tt.wantDomain, got.Domain)
			assert.Equal(t, tt.wantURL, got.URL)
		})
	}
}

func TestNormalize_EquivalentSpellingsShareDomain(t *testing.T) {
	spellings := []string{
		"amazon.com",
		"www.amazon.com",
		"https://www.amazon.com/",
		"HTTP://AMAZON.COM/dp/123",
	}
	for _, s := range spellings {
		assert.Equal(t, "amazon.com", urlnorm.Domain(s), s)
	}
}

func TestNormalize_NeverFails(t *testing.T) {
	inputs := []string{"", "%%%", "http://", "://", "not a url at all", "ht!tp://bad host/"}
	for _, in := range inputs {
		assert.NotPanics(t, func() { urlnorm.Normalize(in) }, in)
	}
	assert.Equal(t, "", urlnorm.Normalize("").Domain)
	assert.Equal(t, "%%%", urlnorm.Normalize("%%%").Domain)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		domain, label, suffix string
	}{
		{"amazon.com", "amazon", "com"},
		{"shop.amazon.co.uk", "amazon", "co.uk"},
		{"localhost", "localhost", ""},
		{"", "", ""},
		{"paypal-secure.xyz", "paypal-secure", "xyz"},
	}
	for _, tt := range tests {
		label, suffix := urlnorm.Split(tt.domain)
		assert.Equal(t, tt.label, label, tt.domain)
		assert.Equal(t, tt.suffix, suffix, tt.domain)
	}
}

func TestTLD(t *testing.T) {
	assert.Equal(t, "uk", urlnorm.TLD("amazon.co.uk"))
	assert.Equal(t, "", urlnorm.TLD("localhost"))
}

func TestUnicode(t *testing.T) {
	assert.Equal(t, "bücher.de", urlnorm.Unicode("xn--bcher-kva.de"))
	assert.Equal(t, "example.com", urlnorm.Unicode("example.com"))
}
