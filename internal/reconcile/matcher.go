package reconcile

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/repository"
	"github.com/gearflip/resaleapi/pkg/errors"
)

// Confidence values for the exact-identifier tiers.
const (
	ConfidenceExactSKU     = 100
	ConfidenceExactOrder   = 95
	ConfidenceExactListing = 90
)

// Acceptance thresholds for the heuristic tiers. These encode accepted
// business risk tolerances; do not tune them without revisiting the
// historical match data they were calibrated against.
const (
	fuzzyAcceptScore    = 80
	fuzzyTentativeScore = 65
	buyerAcceptScore    = 80
	buyerTentativeScore = 70
	buyerBaseScore      = 60
)

// Fuzzy candidate window bounds.
const (
	minPriceTolerance  = 5.0
	priceTolerancePct  = 0.10
	saleLookbackDays   = 120
	fallbackWindowDays = 183 // ~6 months when the return date is implausible
)

// MatchResult is the outcome of linking a return to inventory
type MatchResult struct {
	Item       *domain.InventoryItem
	Strategy   string
	Confidence int
}

type Matcher struct {
	inventory repository.InventoryRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewMatcher creates a new inventory matcher
func NewMatcher(inventory repository.InventoryRepository, logger *zap.Logger) *Matcher {
	return &Matcher{
		inventory: inventory,
		logger:    logger,
		now:       time.Now,
	}
}

// Match finds the best-matching inventory item for a normalized return using
// a tiered strategy: exact SKU, exact order id, exact listing id, fuzzy
// scoring over sold items, then buyer-name fallback. A nil result with a nil
// error means no confident match was found; the caller must treat that as
// "requires manual linking", never as an error.
func (m *Matcher) Match(ctx context.Context, userID uuid.UUID, ret *domain.Return) (*MatchResult, error) {
	// Tier 1: exact SKU
	if ret.SKU != nil {
		item, err := m.inventory.GetBySKU(ctx, userID, *ret.SKU)
		if err == nil {
			return &MatchResult{Item: item, Strategy: domain.StrategyExactSKU, Confidence: ConfidenceExactSKU}, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}

	// Tier 2: exact order id
	if ret.OrderID != nil {
		item, err := m.inventory.GetByOrderID(ctx, userID, *ret.OrderID)
		if err == nil {
			return &MatchResult{Item: item, Strategy: domain.StrategyExactOrder, Confidence: ConfidenceExactOrder}, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}

	// Tier 3: exact external listing id
	if ret.ItemID != nil {
		item, err := m.inventory.GetByEbayID(ctx, userID, *ret.ItemID)
		if err == nil {
			return &MatchResult{Item: item, Strategy: domain.StrategyExactListing, Confidence: ConfidenceExactListing}, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}

	// Tier 4: fuzzy scoring over sold items near the refund amount
	if result, err := m.fuzzyMatch(ctx, userID, ret); err != nil || result != nil {
		return result, err
	}

	// Tier 5: buyer-name fallback
	return m.buyerMatch(ctx, userID, ret)
}

func (m *Matcher) fuzzyMatch(ctx context.Context, userID uuid.UUID, ret *domain.Return) (*MatchResult, error) {
	if ret.RefundAmount == nil {
		return nil, nil
	}
	refund := *ret.RefundAmount

	tolerance := math.Max(minPriceTolerance, refund*priceTolerancePct)
	from, to := m.saleWindow(ret.CreationDate)

	candidates, err := m.inventory.ListSoldInPriceWindow(ctx, userID, refund-tolerance, refund+tolerance, from, to)
	if err != nil {
		return nil, err
	}

	// All candidates are scored and the global maximum wins. (Taking the
	// first candidate over a threshold is sensitive to iteration order and
	// mislinks on ambiguous data.)
	var best *domain.InventoryItem
	bestScore := 0
	for _, item := range candidates {
		score := m.scoreCandidate(ret, item, tolerance)
		m.logger.Debug("Fuzzy match candidate",
			zap.String("return_id", ret.EbayReturnID),
			zap.String("sku", item.SKU),
			zap.Int("score", score),
		)
		if score > bestScore {
			best, bestScore = item, score
		}
	}

	if best == nil {
		return nil, nil
	}

	switch {
	case bestScore >= fuzzyAcceptScore:
		return &MatchResult{Item: best, Strategy: domain.StrategyFuzzyMatch, Confidence: capScore(bestScore)}, nil
	case bestScore >= fuzzyTentativeScore:
		return &MatchResult{Item: best, Strategy: domain.StrategyFuzzyMatchLow, Confidence: capScore(bestScore)}, nil
	default:
		m.logger.Debug("Fuzzy match below threshold",
			zap.String("return_id", ret.EbayReturnID),
			zap.Int("best_score", bestScore),
		)
		return nil, nil
	}
}

func (m *Matcher) buyerMatch(ctx context.Context, userID uuid.UUID, ret *domain.Return) (*MatchResult, error) {
	if ret.BuyerLoginName == nil {
		return nil, nil
	}

	candidates, err := m.inventory.ListSoldByBuyer(ctx, userID, *ret.BuyerLoginName)
	if err != nil {
		return nil, err
	}

	var best *domain.InventoryItem
	bestScore := 0
	for _, item := range candidates {
		score := buyerBaseScore
		if ret.RefundAmount != nil && item.PriceSold != nil {
			tolerance := math.Max(minPriceTolerance, *ret.RefundAmount*priceTolerancePct)
			score += priceProximityScore(*ret.RefundAmount, *item.PriceSold, tolerance)
		}
		score += titleOverlapScore(ret, item)
		score += dateProximityScore(ret.CreationDate, item.DateSold)

		m.logger.Debug("Buyer match candidate",
			zap.String("return_id", ret.EbayReturnID),
			zap.String("sku", item.SKU),
			zap.Int("score", score),
		)
		if score > bestScore {
			best, bestScore = item, score
		}
	}

	if best == nil {
		return nil, nil
	}

	switch {
	case bestScore >= buyerAcceptScore:
		return &MatchResult{Item: best, Strategy: domain.StrategyBuyerMatch, Confidence: capScore(bestScore)}, nil
	case bestScore >= buyerTentativeScore:
		return &MatchResult{Item: best, Strategy: domain.StrategyBuyerTentative, Confidence: capScore(bestScore)}, nil
	default:
		return nil, nil
	}
}

// saleWindow bounds the date range candidate sales must fall in. An absent or
// implausible (future) return date falls back to the last six months.
func (m *Matcher) saleWindow(creation *time.Time) (time.Time, time.Time) {
	now := m.now()
	if creation == nil || creation.After(now.Add(24*time.Hour)) {
		return now.AddDate(0, 0, -fallbackWindowDays), now
	}
	return creation.AddDate(0, 0, -saleLookbackDays), creation.Add(24 * time.Hour)
}

// scoreCandidate accumulates heuristic evidence that a sold item is the one
// this return refers to.
func (m *Matcher) scoreCandidate(ret *domain.Return, item *domain.InventoryItem, tolerance float64) int {
	score := 0

	if ret.RefundAmount != nil && item.PriceSold != nil {
		score += priceProximityScore(*ret.RefundAmount, *item.PriceSold, tolerance)
	}
	score += titleOverlapScore(ret, item)
	score += dateProximityScore(ret.CreationDate, item.DateSold)

	if ret.BuyerLoginName != nil && item.Buyer != nil {
		if strings.EqualFold(strings.TrimSpace(*ret.BuyerLoginName), strings.TrimSpace(*item.Buyer)) {
			score += 25
		} else if looseContains(*ret.BuyerLoginName, *item.Buyer) {
			score += 5
		}
	}

	// Exact external-id agreement is near-conclusive on its own.
	if ret.OrderID != nil && item.OrderID != nil && *ret.OrderID == *item.OrderID {
		score += 35
	}
	if ret.ItemID != nil && item.EbayID != nil && *ret.ItemID == *item.EbayID {
		score += 30
	}

	return score
}

// priceProximityScore awards 10-30 points for how close the sale price sits
// to the refund amount. Candidates are already inside the tolerance window.
func priceProximityScore(refund, priceSold, tolerance float64) int {
	diff := math.Abs(refund - priceSold)
	switch {
	case diff <= 1:
		return 30
	case diff <= minPriceTolerance:
		return 20
	case diff <= tolerance:
		return 10
	default:
		return 0
	}
}

// titleOverlapScore awards 10-25 points for token overlap between the
// return's listing title and the item title. Skipped gracefully when either
// side has no title.
func titleOverlapScore(ret *domain.Return, item *domain.InventoryItem) int {
	if ret.ItemTitle == nil || item.Title == "" {
		return 0
	}
	ratio := tokenOverlapRatio(*ret.ItemTitle, item.Title)
	switch {
	case ratio >= 0.8:
		return 25
	case ratio >= 0.5:
		return 15
	case ratio >= 0.3:
		return 10
	default:
		return 0
	}
}

// dateProximityScore awards 5-15 points for the sale date sitting close to
// the return's creation date.
func dateProximityScore(creation, dateSold *time.Time) int {
	if creation == nil || dateSold == nil {
		return 0
	}
	days := math.Abs(creation.Sub(*dateSold).Hours() / 24)
	switch {
	case days <= 30:
		return 15
	case days <= 60:
		return 10
	case days <= 90:
		return 5
	default:
		return 0
	}
}

func tokenOverlapRatio(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	set := make(map[string]bool, len(tokensA))
	for _, t := range tokensA {
		set[t] = true
	}
	common := 0
	for _, t := range tokensB {
		if set[t] {
			common++
			set[t] = false
		}
	}

	smaller := len(tokensA)
	if len(tokensB) < smaller {
		smaller = len(tokensB)
	}
	return float64(common) / float64(smaller)
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?()[]\"'")
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

func looseContains(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func capScore(score int) int {
	if score > 100 {
		return 100
	}
	return score
}

func isNotFound(err error) bool {
	_, ok := err.(*errors.ErrNotFound)
	return ok
}
