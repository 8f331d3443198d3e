package cashcow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rowsWithFlatBalance(startingCash, monthlyBurn float64, months int) []ForecastRow {
	rows := make([]ForecastRow, months)
	balance := startingCash
	cumulative := 0.0
	for i := 0; i < months; i++ {
		cumulative -= monthlyBurn
		balance = startingCash + cumulative
		rows[i] = ForecastRow{
			Period:             addMonths(date("2026-01-01"), i),
			TotalExpenses:      monthlyBurn,
			NetCashFlow:        -monthlyBurn,
			CumulativeCashFlow: cumulative,
			CashBalance:        balance,
		}
	}
	return rows
}

// spec E5: starting_cash=30,000, flat 10,000/month burn, runway hits exactly
// 3.0 at the month the balance first reaches zero.
func TestRunwayMonthsExactCrossing(t *testing.T) {
	rows := rowsWithFlatBalance(30_000, 10_000, 6)
	runway := runwayMonths(rows, 30_000, 10_000)
	assert.InDelta(t, 3.0, runway, 1e-9)
}

// spec E1: starting_cash=0 with an immediate deficit yields a runway very
// close to zero, not undefined or negative.
func TestRunwayMonthsImmediateDeficit(t *testing.T) {
	rows := rowsWithFlatBalance(0, 13_000, 3)
	runway := runwayMonths(rows, 0, 13_000)
	assert.InDelta(t, 0.0, runway, 1e-9)
}

func TestRunwayMonthsNeverGoesNegativeWhenSolvent(t *testing.T) {
	rows := make([]ForecastRow, 12)
	for i := range rows {
		rows[i] = ForecastRow{CashBalance: 100_000 + float64(i)*1_000, NetCashFlow: 1_000}
	}
	runway := runwayMonths(rows, 100_000, 0)
	assert.Greater(t, runway, 0.0)
}

// invariant #8 (first clause): a constant revenue series has zero growth.
func TestRevenueGrowthRateZeroForConstantSeries(t *testing.T) {
	rows := make([]ForecastRow, 12)
	for i := range rows {
		rows[i] = ForecastRow{TotalRevenue: 10_000}
	}
	rate := revenueGrowthRateCAGR(rows)
	assert.InDelta(t, 0.0, rate, 1e-9)
}

func TestRevenueGrowthRatePositiveForGrowingSeries(t *testing.T) {
	rows := make([]ForecastRow, 12)
	for i := range rows {
		rows[i] = ForecastRow{TotalRevenue: 10_000 * float64(i+1)}
	}
	rate := revenueGrowthRateCAGR(rows)
	assert.Greater(t, rate, 0.0)
}

func TestRevenueDiversificationZeroForSingleSource(t *testing.T) {
	rows := []ForecastRow{{GrantRevenue: 50_000}, {GrantRevenue: 50_000}}
	div := revenueDiversification(rows)
	assert.InDelta(t, 0.0, div, 1e-9)
}

func TestRevenueDiversificationHighForEvenSplit(t *testing.T) {
	rows := []ForecastRow{
		{GrantRevenue: 25_000, InvestmentRevenue: 25_000, SalesRevenue: 25_000, ServiceRevenue: 25_000},
	}
	div := revenueDiversification(rows)
	assert.InDelta(t, 0.75, div, 1e-9)
}

func alertLevelPresent(alerts []Alert, level AlertLevel, metric string) bool {
	for _, a := range alerts {
		if a.Level == level && a.Metric == metric {
			return true
		}
	}
	return false
}

// invariant #7: alert thresholds are monotone — a runway reading in the
// warning band raises a warning, and a deeper reading escalates the same
// metric's alert to critical (replacing the warning, not adding to it).
func TestAlertThresholdsAreMonotone(t *testing.T) {
	warn := evaluateAlerts(map[string]float64{"runway_months": 5}, nil)
	critical := evaluateAlerts(map[string]float64{"runway_months": 1}, nil)
	assert.True(t, alertLevelPresent(warn, AlertWarning, "runway_months"))
	assert.True(t, alertLevelPresent(critical, AlertCritical, "runway_months"))
}

func TestAlertsAbsentWhenHealthy(t *testing.T) {
	alerts := evaluateAlerts(map[string]float64{"runway_months": 24, "burn_rate": 1_000}, nil)
	assert.Empty(t, alerts)
}

func TestCashEfficiencyOmittedWhenNoBurn(t *testing.T) {
	rows := []ForecastRow{{TotalRevenue: 1_000, NetCashFlow: 1_000}}
	_, ok := cashEfficiency(rows)
	assert.False(t, ok)
}

func TestComputeKPIsEndToEnd(t *testing.T) {
	table := &ForecastTable{Rows: rowsWithFlatBalance(30_000, 10_000, 6), StartingCash: 30_000}
	result := ComputeKPIs(table, 30_000)
	assert.InDelta(t, 3.0, result.Metrics["runway_months"], 1e-9)
	assert.InDelta(t, 10_000.0, result.Metrics["burn_rate"], 1e-9)

	// runway of exactly 3.0 is not below the critical threshold of 3, so it
	// lands in the warning band.
	var sawWarning bool
	for _, a := range result.Alerts {
		if a.Metric == "runway_months" && a.Level == AlertWarning {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning)
}
