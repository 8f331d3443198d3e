package cashcow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ctxAt(d time.Time) CalculationContext {
	return CalculationContext{AsOfDate: d}
}

func date(s string) time.Time {
	d, err := parseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// spec E2: a grant with both milestones and an amount recognizes only the
// milestone payouts — the even-split fallback never applies.
func TestGrantMilestonesTakePrecedenceOverAmount(t *testing.T) {
	e, err := LoadEntity(Document{
		"type": "grant", "name": "seed", "start_date": "2026-01-01", "end_date": "2026-12-01",
		"amount": 120_000.0,
		"milestones": []any{
			map[string]any{"date": "2026-03-01", "amount": 25_000.0, "status": "completed"},
		},
	})
	require.NoError(t, err)

	jan, err := DefaultRegistry.Calculate(e, "disbursement_calc", ctxAt(date("2026-01-01")))
	require.NoError(t, err)
	assert.Equal(t, 0.0, *jan)

	mar, err := DefaultRegistry.Calculate(e, "milestone_calc", ctxAt(date("2026-03-01")))
	require.NoError(t, err)
	assert.Equal(t, 25_000.0, *mar)

	feb, err := DefaultRegistry.Calculate(e, "milestone_calc", ctxAt(date("2026-02-01")))
	require.NoError(t, err)
	assert.Equal(t, 0.0, *feb)
}

func TestGrantEvenSplitFallbackWithoutMilestones(t *testing.T) {
	e, err := LoadEntity(Document{
		"type": "grant", "name": "runway", "start_date": "2026-01-01", "end_date": "2026-04-01",
		"amount": 40_000.0,
	})
	require.NoError(t, err)

	v, err := DefaultRegistry.Calculate(e, "disbursement_calc", ctxAt(date("2026-02-01")))
	require.NoError(t, err)
	assert.InDelta(t, 10_000.0, *v, 1e-9)
}

// spec E3: a sale with no payment_schedule recognizes its full amount in the
// delivery month, not the start month.
func TestSaleRecognizesFullAmountAtDeliveryMonth(t *testing.T) {
	e, err := LoadEntity(Document{
		"type": "sale", "name": "enterprise_deal", "start_date": "2026-01-01",
		"amount": 250_000.0, "delivery_date": "2026-06-01",
	})
	require.NoError(t, err)

	start, err := DefaultRegistry.Calculate(e, "revenue_calc", ctxAt(date("2026-01-01")))
	require.NoError(t, err)
	assert.Equal(t, 0.0, *start)

	delivery, err := DefaultRegistry.Calculate(e, "revenue_calc", ctxAt(date("2026-06-01")))
	require.NoError(t, err)
	assert.Equal(t, 250_000.0, *delivery)
}

func TestSaleWithPaymentScheduleIgnoresDeliveryDate(t *testing.T) {
	e, err := LoadEntity(Document{
		"type": "sale", "name": "installments", "start_date": "2026-01-01", "delivery_date": "2026-06-01",
		"payment_schedule": []any{
			map[string]any{"date": "2026-02-01", "amount": 5_000.0},
			map[string]any{"date": "2026-03-01", "amount": 5_000.0},
		},
	})
	require.NoError(t, err)

	feb, err := DefaultRegistry.Calculate(e, "revenue_calc", ctxAt(date("2026-02-01")))
	require.NoError(t, err)
	assert.Equal(t, 5_000.0, *feb)

	june, err := DefaultRegistry.Calculate(e, "revenue_calc", ctxAt(date("2026-06-01")))
	require.NoError(t, err)
	assert.Equal(t, 0.0, *june)
}

// spec E4: a service with a flat monthly_amount recurs identically every
// active month.
func TestServiceRecursFlatAmount(t *testing.T) {
	e, err := LoadEntity(Document{
		"type": "service", "name": "support", "start_date": "2026-01-01", "monthly_amount": 8_000.0,
	})
	require.NoError(t, err)

	for _, m := range []string{"2026-01-01", "2026-02-01", "2026-09-01"} {
		v, err := DefaultRegistry.Calculate(e, "recurring_calc", ctxAt(date(m)))
		require.NoError(t, err)
		assert.Equal(t, 8_000.0, *v)
	}
}

func TestEquipmentStraightLineDepreciation(t *testing.T) {
	e, err := LoadEntity(Document{
		"type": "equipment", "name": "servers", "start_date": "2026-01-01",
		"cost": 48_000.0, "purchase_date": "2026-01-01", "depreciation_years": 4.0,
		"depreciation_method": "straight_line",
	})
	require.NoError(t, err)

	v, err := DefaultRegistry.Calculate(e, "depreciation_calc", ctxAt(date("2026-06-01")))
	require.NoError(t, err)
	assert.InDelta(t, 48_000.0/4/12, *v, 1e-9)

	after, err := DefaultRegistry.Calculate(e, "depreciation_calc", ctxAt(date("2031-01-01")))
	require.NoError(t, err)
	assert.Equal(t, 0.0, *after)
}

func TestEquipmentDecliningBalanceNeverDropsBelowResidual(t *testing.T) {
	e, err := LoadEntity(Document{
		"type": "equipment", "name": "servers", "start_date": "2026-01-01",
		"cost": 48_000.0, "purchase_date": "2026-01-01", "depreciation_years": 4.0,
		"residual_value": 4_000.0, "depreciation_method": "declining_balance",
	})
	require.NoError(t, err)

	months := monthlyPeriods(date("2026-01-01"), date("2029-12-01"))
	bookValue := 48_000.0
	for _, m := range months {
		v, err := DefaultRegistry.Calculate(e, "depreciation_calc", ctxAt(m))
		require.NoError(t, err)
		bookValue -= *v
		assert.GreaterOrEqual(t, bookValue, 4_000.0-1e-6)
	}
}

func TestEquipmentOneTimeOutlayOnlyInPurchaseMonth(t *testing.T) {
	e, err := LoadEntity(Document{
		"type": "equipment", "name": "servers", "start_date": "2026-01-01",
		"cost": 10_000.0, "purchase_date": "2026-03-01",
	})
	require.NoError(t, err)

	jan, err := DefaultRegistry.Calculate(e, "one_time_calc", ctxAt(date("2026-01-01")))
	require.NoError(t, err)
	assert.Equal(t, 0.0, *jan)

	mar, err := DefaultRegistry.Calculate(e, "one_time_calc", ctxAt(date("2026-03-01")))
	require.NoError(t, err)
	assert.Equal(t, 10_000.0, *mar)
}

func TestProjectEvenBurnAcrossPlannedWindow(t *testing.T) {
	e, err := LoadEntity(Document{
		"type": "project", "name": "platform_v2", "start_date": "2026-01-01",
		"total_budget": 120_000.0, "planned_end_date": "2026-12-01",
	})
	require.NoError(t, err)

	v, err := DefaultRegistry.Calculate(e, "burn_calc", ctxAt(date("2026-06-01")))
	require.NoError(t, err)
	assert.InDelta(t, 10_000.0, *v, 1e-9)
}

func TestProjectMilestoneSegmentsAllocateIndependently(t *testing.T) {
	e, err := LoadEntity(Document{
		"type": "project", "name": "platform_v2", "start_date": "2026-01-01",
		"milestones": []any{
			map[string]any{"date": "2026-03-01", "budget": 30_000.0},
			map[string]any{"date": "2026-06-01", "budget": 60_000.0},
		},
	})
	require.NoError(t, err)

	// first segment: Jan-Mar (3 months) covering 30,000
	jan, err := DefaultRegistry.Calculate(e, "burn_calc", ctxAt(date("2026-01-01")))
	require.NoError(t, err)
	assert.InDelta(t, 10_000.0, *jan, 1e-9)

	// second segment: Apr-Jun (3 months) covering 60,000, no bleed from the first
	may, err := DefaultRegistry.Calculate(e, "burn_calc", ctxAt(date("2026-05-01")))
	require.NoError(t, err)
	assert.InDelta(t, 20_000.0, *may, 1e-9)
}
