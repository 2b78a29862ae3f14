package signals

import (
	"context"

	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/heuristics"
	"github.com/jonesrussell/storetrust/internal/urlnorm"
)

const cryptoOnlyMessage = "Store appears to accept cryptocurrency payments only"

// PaymentScanner inspects a storefront for the payment methods it offers.
type PaymentScanner interface {
	Scan(ctx context.Context, normalizedURL string) (domain.PaymentInfo, error)
}

// HeuristicsCheck runs the lexical detector and, when a scanner is set,
// attaches the storefront's payment methods.
type HeuristicsCheck struct {
	detector *heuristics.Detector
	scanner  PaymentScanner
	logger   logger.Logger
}

// NewHeuristicsCheck creates the check; scanner may be nil.
func NewHeuristicsCheck(detector *heuristics.Detector, scanner PaymentScanner, log logger.Logger) *HeuristicsCheck {
	return &HeuristicsCheck{detector: detector, scanner: scanner, logger: log}
}

func (h *HeuristicsCheck) Type() domain.SignalType { return domain.SignalHeuristics }

// Check never fails: a failed scan leaves payment information unknown.
func (h *HeuristicsCheck) Check(ctx context.Context, normalizedURL string) (domain.SignalResult, error) {
	domainName := urlnorm.Domain(normalizedURL)
	r := h.detector.Detect(domainName)
	if h.scanner == nil {
		return r, nil
	}

	info, err := h.scanner.Scan(ctx, normalizedURL)
	if err != nil {
		h.logger.Debug("Payment scan failed",
			logger.Domain(domainName),
			logger.Error(err),
		)
		details, _ := r.Details.(domain.HeuristicsDetails)
		details.PaymentUnavailable = true
		r.Details = details
		return r, nil
	}

	details, _ := r.Details.(domain.HeuristicsDetails)
	details.Payment = &info
	r.Details = details

	if info.CryptoOnly && r.Status == domain.StatusSafe {
		r.Status = domain.StatusWarning
		r.Message = cryptoOnlyMessage
	}
	return r, nil
}
