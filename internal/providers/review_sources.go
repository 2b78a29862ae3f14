package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/storetrust/internal/domain"
)

var errNoRating = errors.New("no aggregate rating on page")

// JSONLDReviewSource scrapes a review platform's page for the store and reads
// its schema.org AggregateRating, from JSON-LD or microdata.
type JSONLDReviewSource struct {
	name        string
	client      *Client
	urlTemplate string
}

// NewJSONLDReviewSource reads ratings from pages at urlTemplate, where %s
// is replaced by the domain, e.g. "https://www.trustpilot.com/review/%s".
func NewJSONLDReviewSource(name string, client *Client, urlTemplate string) *JSONLDReviewSource {
	return &JSONLDReviewSource{name: name, client: client, urlTemplate: urlTemplate}
}

func (s *JSONLDReviewSource) Name() string { return s.name }

func (s *JSONLDReviewSource) Fetch(ctx context.Context, domainName string) (domain.ReviewSourceResult, error) {
	page, err := s.client.Fetch(ctx, fmt.Sprintf(s.urlTemplate, url.PathEscape(domainName)))
	if err != nil {
		return domain.ReviewSourceResult{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return domain.ReviewSourceResult{}, fmt.Errorf("parse page: %w", err)
	}
	return extractRating(doc)
}

func extractRating(doc *goquery.Document) (domain.ReviewSourceResult, error) {
	var found *aggregateRating
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var v any
		if err := json.Unmarshal([]byte(sel.Text()), &v); err != nil {
			return true
		}
		found = findAggregateRating(v)
		return found == nil
	})
	if found == nil {
		found = microdataRating(doc)
	}
	if found == nil {
		return domain.ReviewSourceResult{}, errNoRating
	}
	return found.normalized()
}

type aggregateRating struct {
	ratingValue string
	bestRating  string
	count       string
}

func (a aggregateRating) normalized() (domain.ReviewSourceResult, error) {
	rating, err := strconv.ParseFloat(strings.TrimSpace(a.ratingValue), 64)
	if err != nil {
		return domain.ReviewSourceResult{}, fmt.Errorf("rating value %q: %w", a.ratingValue, err)
	}
	best := maxRating
	if b, err := strconv.ParseFloat(strings.TrimSpace(a.bestRating), 64); err == nil && b > 0 {
		best = b
	}
	count, _ := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(a.count), ",", ""))

	return domain.ReviewSourceResult{
		Rating: rating / best * maxRating,
		Count:  max(count, 0),
	}, nil
}

// findAggregateRating walks decoded JSON-LD, including @graph arrays, for
// the first aggregateRating object.
func findAggregateRating(v any) *aggregateRating {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if r := findAggregateRating(item); r != nil {
				return r
			}
		}
	case map[string]any:
		if hasType(t["@type"], "AggregateRating") {
			return ratingFromMap(t)
		}
		if ar, ok := t["aggregateRating"].(map[string]any); ok {
			return ratingFromMap(ar)
		}
		for _, key := range []string{"@graph", "mainEntity", "itemReviewed"} {
			if child, ok := t[key]; ok {
				if r := findAggregateRating(child); r != nil {
					return r
				}
			}
		}
	}
	return nil
}

// hasType matches a JSON-LD @type given as a single name or a list of names.
func hasType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return t == want
	case []any:
		for _, item := range t {
			if name, _ := item.(string); name == want {
				return true
			}
		}
	}
	return false
}

func ratingFromMap(m map[string]any) *aggregateRating {
	r := &aggregateRating{
		ratingValue: scalar(m["ratingValue"]),
		bestRating:  scalar(m["bestRating"]),
		count:       scalar(m["reviewCount"]),
	}
	if r.count == "" {
		r.count = scalar(m["ratingCount"])
	}
	if r.ratingValue == "" {
		return nil
	}
	return r
}

func microdataRating(doc *goquery.Document) *aggregateRating {
	scope := doc.Find(`[itemtype*="schema.org/AggregateRating"]`).First()
	if scope.Length() == 0 {
		scope = doc.Selection
	}
	value := itemprop(scope, "ratingValue")
	if value == "" {
		return nil
	}
	count := itemprop(scope, "reviewCount")
	if count == "" {
		count = itemprop(scope, "ratingCount")
	}
	return &aggregateRating{ratingValue: value, bestRating: itemprop(scope, "bestRating"), count: count}
}

func itemprop(scope *goquery.Selection, name string) string {
	sel := scope.Find(`[itemprop="` + name + `"]`).First()
	if content, ok := sel.Attr("content"); ok {
		return content
	}
	return strings.TrimSpace(sel.Text())
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// APIReviewSource reads {"rating": 4.2, "count": 310} from a JSON endpoint.
type APIReviewSource struct {
	name   string
	client *Client
}

func NewAPIReviewSource(name string, client *Client) *APIReviewSource {
	return &APIReviewSource{name: name, client: client}
}

func (s *APIReviewSource) Name() string { return s.name }

func (s *APIReviewSource) Fetch(ctx context.Context, domainName string) (domain.ReviewSourceResult, error) {
	var resp struct {
		Rating float64 `json:"rating"`
		Count  int     `json:"count"`
	}
	if err := s.client.GetJSON(ctx, "/reviews/"+url.PathEscape(domainName), &resp); err != nil {
		return domain.ReviewSourceResult{}, err
	}
	return domain.ReviewSourceResult{Rating: max(0, min(resp.Rating, maxRating)), Count: max(resp.Count, 0)}, nil
}
