package profile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDefaultClassifier(t *testing.T) {
	tests := []struct {
		name        string
		balance     string
		txCount     int
		wantBalance string
		wantActive  string
	}{
		{"empty customer", "0", 0, BandLow, ActivityDormant},
		{"small balance few transactions", "999.99", 3, BandLow, ActivityLow},
		{"medium floor", "1000", 5, BandMedium, ActivityNormal},
		{"medium band", "24999.99", 19, BandMedium, ActivityNormal},
		{"high floor", "25000", 20, BandHigh, ActivityHigh},
		{"negative balance", "-500", 1, BandLow, ActivityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultClassifier(decimal.RequireFromString(tt.balance), tt.txCount)
			assert.Equal(t, tt.wantBalance, got.BalanceBand)
			assert.Equal(t, tt.wantActive, got.ActivityBand)
		})
	}
}
