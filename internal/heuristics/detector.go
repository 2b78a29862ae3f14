// Package heuristics scores a domain name on lexical fraud indicators alone.
package heuristics

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/urlnorm"
)

// DefaultWeight is the blend weight carried by a heuristics result.
const DefaultWeight = 15

const (
	typosquatExactPenalty = 50
	typosquatED1Penalty   = 40
	typosquatED2Penalty   = 25
	decoySuffixPenalty    = 30
	minLenED1             = 4
	minLenED2             = 6

	highAbuseTLDPenalty = 25
	trustedTLDBonus     = -5

	longLabelLen        = 30
	longLabelPenalty    = 20
	mediumLabelLen      = 20
	mediumLabelPenalty  = 10
	manyHyphens         = 3
	manyHyphensPenalty  = 20
	someHyphens         = 2
	someHyphensPenalty  = 10
	digitRatioThreshold = 0.3
	digitRatioPenalty   = 15
	consonantRunLen     = 5
	consonantRunPenalty = 15
	keywordPenalty      = 10
	patternCap          = 40
	patternWarningAt    = 20

	knownBrandBonus = -20
)

// Sub-check names as recorded in HeuristicsDetails.Findings.
const (
	CheckTyposquatting = "typosquatting"
	CheckTLD           = "tld"
	CheckLength        = "length"
	CheckPatterns      = "patterns"
	CheckKnownBrand    = "known-brand"
)

const neutralMessage = "No suspicious patterns detected in domain name"

// Detector runs the lexical sub-checks. It is safe for concurrent use.
type Detector struct {
	brands        []string
	brandSet      map[string]struct{}
	decoySuffixes []string
	highAbuse     map[string]struct{}
	trusted       map[string]struct{}
	keywords      []string

	// the matcher keeps per-call state
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
}

// New builds a detector over the default vocabularies.
func New() *Detector {
	return NewWithLists(DefaultLists())
}

// NewWithLists builds a detector over custom vocabularies.
func NewWithLists(l Lists) *Detector {
	d := &Detector{
		brands:        lowerAll(l.Brands),
		decoySuffixes: lowerAll(l.DecoySuffixes),
		highAbuse:     toSet(l.HighAbuseTLDs),
		trusted:       toSet(l.TrustedTLDs),
		keywords:      lowerAll(l.ScamKeywords),
	}
	d.brandSet = toSet(d.brands)
	if len(d.keywords) > 0 {
		d.matcher = ahocorasick.NewStringMatcher(d.keywords)
	}
	return d
}

// Detect scores a domain. It performs no I/O and is deterministic.
func (d *Detector) Detect(host string) domain.SignalResult {
	host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
	label, _ := urlnorm.Split(host)
	label = unicodeLabel(label)
	tld := urlnorm.TLD(host)

	findings := []domain.Finding{
		d.typosquatting(label),
		d.checkTLD(tld),
		checkLength(label),
		d.patterns(label),
		d.knownBrand(label),
	}

	total := 0
	for _, f := range findings {
		total += f.Penalty
	}
	score := clamp(100-total, 0, 100)

	status, message := domain.StatusSafe, neutralMessage
	if f, ok := firstWithSeverity(findings, domain.SeverityDanger); ok {
		status, message = domain.StatusDanger, f.Message
	} else if f, ok := firstWithSeverity(findings, domain.SeverityWarning); ok {
		status, message = domain.StatusWarning, f.Message
	}

	return domain.SignalResult{
		Type:    domain.SignalHeuristics,
		Status:  status,
		Score:   score,
		Weight:  DefaultWeight,
		Message: message,
		Details: domain.HeuristicsDetails{
			Label:        label,
			TLD:          tld,
			TotalPenalty: total,
			Findings:     findings,
		},
	}
}

// typosquatting applies the rules strongest first; the first rule that
// matches any brand wins.
func (d *Detector) typosquatting(label string) domain.Finding {
	none := domain.Finding{Check: CheckTyposquatting, Severity: domain.SeverityInfo}
	literal := strings.ToLower(label)
	if _, ok := d.brandSet[literal]; ok {
		return none
	}

	normalized := normalizeLabel(label)
	if normalized == "" {
		return none
	}

	for _, brand := range d.brands {
		if normalized == brand {
			return typosquatFinding(typosquatExactPenalty, domain.SeverityDanger, brand)
		}
	}

	n := utf8.RuneCountInString(normalized)
	distances := make([]int, len(d.brands))
	for i, brand := range d.brands {
		distances[i] = levenshtein.ComputeDistance(normalized, brand)
	}

	if n >= minLenED1 {
		for i, brand := range d.brands {
			if distances[i] == 1 {
				return typosquatFinding(typosquatED1Penalty, domain.SeverityDanger, brand)
			}
		}
	}
	if n >= minLenED2 {
		for i, brand := range d.brands {
			if distances[i] == 2 {
				return typosquatFinding(typosquatED2Penalty, domain.SeverityWarning, brand)
			}
		}
	}

	for _, brand := range d.brands {
		for _, suffix := range d.decoySuffixes {
			if strings.Contains(normalized, brand+suffix) {
				return domain.Finding{
					Check:    CheckTyposquatting,
					Penalty:  decoySuffixPenalty,
					Severity: domain.SeverityWarning,
					Message:  fmt.Sprintf("Domain combines brand %q with decoy suffix %q", brand, suffix),
				}
			}
		}
	}
	return none
}

func typosquatFinding(penalty int, sev domain.Severity, brand string) domain.Finding {
	return domain.Finding{
		Check:    CheckTyposquatting,
		Penalty:  penalty,
		Severity: sev,
		Message:  "Possible typosquatting of " + brand,
	}
}

func (d *Detector) checkTLD(tld string) domain.Finding {
	if _, ok := d.highAbuse[tld]; ok {
		return domain.Finding{
			Check:    CheckTLD,
			Penalty:  highAbuseTLDPenalty,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("Top-level domain .%s is frequently used for abuse", tld),
		}
	}
	if _, ok := d.trusted[tld]; ok {
		return domain.Finding{
			Check:    CheckTLD,
			Penalty:  trustedTLDBonus,
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("Established top-level domain .%s", tld),
		}
	}
	return domain.Finding{Check: CheckTLD, Severity: domain.SeverityInfo}
}

func checkLength(label string) domain.Finding {
	n := utf8.RuneCountInString(label)
	switch {
	case n > longLabelLen:
		return domain.Finding{
			Check:    CheckLength,
			Penalty:  longLabelPenalty,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("Unusually long domain name (%d characters)", n),
		}
	case n > mediumLabelLen:
		return domain.Finding{
			Check:    CheckLength,
			Penalty:  mediumLabelPenalty,
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("Long domain name (%d characters)", n),
		}
	default:
		return domain.Finding{Check: CheckLength, Severity: domain.SeverityInfo}
	}
}

func (d *Detector) patterns(label string) domain.Finding {
	lower := strings.ToLower(label)
	penalty := 0
	var issues []string

	switch hyphens := strings.Count(lower, "-"); {
	case hyphens >= manyHyphens:
		penalty += manyHyphensPenalty
		issues = append(issues, fmt.Sprintf("%d hyphens", hyphens))
	case hyphens >= someHyphens:
		penalty += someHyphensPenalty
		issues = append(issues, fmt.Sprintf("%d hyphens", hyphens))
	}

	if n := utf8.RuneCountInString(lower); n > 0 {
		digits := 0
		for _, r := range lower {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if float64(digits)/float64(n) > digitRatioThreshold {
			penalty += digitRatioPenalty
			issues = append(issues, "high proportion of digits")
		}
	}

	if longestConsonantRun(lower) >= consonantRunLen {
		penalty += consonantRunPenalty
		issues = append(issues, "long run of consonants")
	}

	if kw, ok := d.firstKeyword(lower); ok {
		penalty += keywordPenalty
		issues = append(issues, fmt.Sprintf("scam keyword %q", kw))
	}

	penalty = min(penalty, patternCap)
	if penalty == 0 {
		return domain.Finding{Check: CheckPatterns, Severity: domain.SeverityInfo}
	}

	sev := domain.SeverityInfo
	if penalty >= patternWarningAt {
		sev = domain.SeverityWarning
	}
	return domain.Finding{
		Check:    CheckPatterns,
		Penalty:  penalty,
		Severity: sev,
		Message:  "Suspicious domain patterns: " + strings.Join(issues, ", "),
	}
}

// firstKeyword returns the matched keyword that appears earliest in the list.
func (d *Detector) firstKeyword(s string) (string, bool) {
	if d.matcher == nil || s == "" {
		return "", false
	}
	d.mu.Lock()
	hits := d.matcher.Match([]byte(s))
	d.mu.Unlock()
	if len(hits) == 0 {
		return "", false
	}
	return d.keywords[slices.Min(hits)], true
}

func (d *Detector) knownBrand(label string) domain.Finding {
	literal := strings.ToLower(label)
	if _, ok := d.brandSet[literal]; !ok {
		return domain.Finding{Check: CheckKnownBrand, Severity: domain.SeverityInfo}
	}
	return domain.Finding{
		Check:    CheckKnownBrand,
		Penalty:  knownBrandBonus,
		Severity: domain.SeverityInfo,
		Message:  "Recognized brand " + literal,
	}
}

func longestConsonantRun(s string) int {
	longest, run := 0, 0
	for _, r := range s {
		if r >= 'a' && r <= 'z' && !strings.ContainsRune("aeiouy", r) {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return longest
}

func firstWithSeverity(findings []domain.Finding, sev domain.Severity) (domain.Finding, bool) {
	for _, f := range findings {
		if f.Severity == sev && f.Penalty > 0 {
			return f, true
		}
	}
	return domain.Finding{}, false
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toSet(in []string) map[string]struct{} {
	set := make(map[string]struct{}, len(in))
	for _, s := range lowerAll(in) {
		set[s] = struct{}{}
	}
	return set
}
