package profile

import (
	"github.com/shopspring/decimal"

	"github.com/voxic/multi-odl-demo/internal/domain"
)

// Classifier maps aggregate figures to the profile's classification bands.
// The bands are business policy; the engine only requires that the function
// is pure.
type Classifier func(totalBalance decimal.Decimal, txCount int) domain.RiskAssessment

const (
	BandLow    = "LOW"
	BandMedium = "MEDIUM"
	BandHigh   = "HIGH"

	ActivityDormant = "DORMANT"
	ActivityLow     = "LOW"
	ActivityNormal  = "NORMAL"
	ActivityHigh    = "HIGH"
)

var (
	mediumBalanceFloor = decimal.NewFromInt(1_000)
	highBalanceFloor   = decimal.NewFromInt(25_000)
)

// DefaultClassifier applies the stock threshold rules: balance bands over the
// summed major-unit account balances, activity bands over the recent
// transaction count.
func DefaultClassifier(totalBalance decimal.Decimal, txCount int) domain.RiskAssessment {
	risk := domain.RiskAssessment{BalanceBand: BandLow, ActivityBand: ActivityDormant}

	switch {
	case totalBalance.GreaterThanOrEqual(highBalanceFloor):
		risk.BalanceBand = BandHigh
	case totalBalance.GreaterThanOrEqual(mediumBalanceFloor):
		risk.BalanceBand = BandMedium
	}

	switch {
	case txCount >= 20:
		risk.ActivityBand = ActivityHigh
	case txCount >= 5:
		risk.ActivityBand = ActivityNormal
	case txCount >= 1:
		risk.ActivityBand = ActivityLow
	}

	return risk
}
