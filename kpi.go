package cashcow

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AlertLevel is the severity of a KPI alert (spec §3.4).
type AlertLevel string

const (
	AlertCritical AlertLevel = "critical"
	AlertWarning  AlertLevel = "warning"
	AlertInfo     AlertLevel = "info"
)

// Alert is a single threshold breach surfaced alongside the KPI metrics map.
type Alert struct {
	Level          AlertLevel
	Metric         string
	Message        string
	Recommendation string
}

// KPIResult is the output of the KPI calculator: a flat metrics map plus
// any alerts the metrics triggered (spec §3.4). cash_efficiency,
// months_to_breakeven, and the ratio metrics are absent from the map when
// they are undefined for the given table (zero denominator, no breakeven).
// revenue_growth_rate, revenue_trend, revenue_diversification, and
// cash_flow_volatility report 0 in the corresponding cases instead.
type KPIResult struct {
	Metrics map[string]float64
	Alerts  []Alert
}

const epsilon = 1e-9

// ComputeKPIs derives the full metrics set from a completed ForecastTable
// (spec §4.7) and then evaluates the alert thresholds against it.
func ComputeKPIs(table *ForecastTable, startingCash float64) KPIResult {
	m := make(map[string]float64)
	rows := table.Rows

	computeFinancialMetrics(m, rows, startingCash)
	computeGrowthMetrics(m, rows)
	computeOperationalMetrics(m, rows)

	return KPIResult{Metrics: m, Alerts: evaluateAlerts(m, rows)}
}

func computeFinancialMetrics(m map[string]float64, rows []ForecastRow, startingCash float64) {
	burnRate := burnRate(rows)
	m["burn_rate"] = burnRate
	m["runway_months"] = runwayMonths(rows, startingCash, burnRate)
	m["cash_flow_volatility"] = cashFlowVolatility(rows)

	if eff, ok := cashEfficiency(rows); ok {
		m["cash_efficiency"] = eff
	}
	if months, ok := monthsToBreakeven(rows); ok {
		m["months_to_breakeven"] = months
	}
}

// runwayMonths locates the first row where cash_balance <= 0 and linearly
// interpolates the fractional month within that row (spec §4.7). The
// "previous" balance for row 0 is startingCash itself, so a deficit that
// exists from the very first month still yields a runway close to zero
// rather than an undefined lookup before the table.
func runwayMonths(rows []ForecastRow, startingCash, burn float64) float64 {
	prevBalance := startingCash
	for i, row := range rows {
		if row.CashBalance <= 0 {
			denom := prevBalance - row.CashBalance
			fraction := 0.0
			if denom != 0 {
				fraction = prevBalance / denom
			}
			return float64(i) + fraction
		}
		prevBalance = row.CashBalance
	}
	return startingCash / math.Max(burn, epsilon)
}

func burnRate(rows []ForecastRow) float64 {
	total, count := 0.0, 0
	for _, r := range rows {
		if r.NetCashFlow < 0 {
			total += -r.NetCashFlow
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func cashEfficiency(rows []ForecastRow) (float64, bool) {
	var revenue, negativeFlow float64
	for _, r := range rows {
		revenue += r.TotalRevenue
		if r.NetCashFlow < 0 {
			negativeFlow += -r.NetCashFlow
		}
	}
	if negativeFlow == 0 {
		return 0, false
	}
	return revenue / negativeFlow, true
}

func monthsToBreakeven(rows []ForecastRow) (float64, bool) {
	negativeSeen := false
	for i, r := range rows {
		if r.CumulativeCashFlow < 0 {
			negativeSeen = true
			continue
		}
		if negativeSeen && r.CumulativeCashFlow >= 0 {
			return float64(i), true
		}
	}
	return 0, false
}

func cashFlowVolatility(rows []ForecastRow) float64 {
	if len(rows) < 2 {
		return 0
	}
	flows := make([]float64, len(rows))
	for i, r := range rows {
		flows[i] = r.NetCashFlow
	}
	return stat.StdDev(flows, nil)
}

func computeGrowthMetrics(m map[string]float64, rows []ForecastRow) {
	m["revenue_growth_rate"] = revenueGrowthRateCAGR(rows)
	m["revenue_trend"] = revenueTrend(rows)
	m["revenue_diversification"] = revenueDiversification(rows)
}

// revenueGrowthRateCAGR compares the mean total_revenue of the first and
// last quarter (or the whole window, if shorter than a quarter) as a
// monthly compound rate (spec §4.7).
func revenueGrowthRateCAGR(rows []ForecastRow) float64 {
	n := len(rows)
	if n < 2 {
		return 0
	}
	quarter := 3
	if quarter > n {
		quarter = n
	}
	early := meanRevenue(rows[:quarter])
	recent := meanRevenue(rows[n-quarter:])
	if early <= 0 {
		return 0
	}
	periods := float64(n - 1)
	return math.Pow(recent/early, 1/periods) - 1
}

func meanRevenue(rows []ForecastRow) float64 {
	total := 0.0
	for _, r := range rows {
		total += r.TotalRevenue
	}
	return total / float64(len(rows))
}

func revenueTrend(rows []ForecastRow) float64 {
	if len(rows) < 2 {
		return 0
	}
	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	for i, r := range rows {
		xs[i] = float64(i)
		ys[i] = r.TotalRevenue
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}

func revenueDiversification(rows []ForecastRow) float64 {
	var grant, investment, sales, service float64
	for _, r := range rows {
		grant += r.GrantRevenue
		investment += r.InvestmentRevenue
		sales += r.SalesRevenue
		service += r.ServiceRevenue
	}
	total := grant + investment + sales + service
	if total <= 0 {
		return 0
	}
	shares := []float64{grant / total, investment / total, sales / total, service / total}
	sumSquares := 0.0
	for _, s := range shares {
		sumSquares += s * s
	}
	return 1 - sumSquares
}

func computeOperationalMetrics(m map[string]float64, rows []ForecastRow) {
	if len(rows) == 0 {
		return
	}

	var peakEmployees int
	var sumEmployees, totalRevenue, totalExpenses, projectCosts, employeeCosts float64
	var grant, investment float64
	for _, r := range rows {
		sumEmployees += float64(r.ActiveEmployees)
		if r.ActiveEmployees > peakEmployees {
			peakEmployees = r.ActiveEmployees
		}
		totalRevenue += r.TotalRevenue
		totalExpenses += r.TotalExpenses
		projectCosts += r.ProjectCosts
		employeeCosts += r.EmployeeCosts
		grant += r.GrantRevenue
		investment += r.InvestmentRevenue
	}
	n := float64(len(rows))

	m["mean_active_employees"] = sumEmployees / n
	m["peak_active_employees"] = float64(peakEmployees)

	if totalExpenses > 0 {
		m["rd_percentage"] = projectCosts / totalExpenses
	}
	meanEmployees := sumEmployees / n
	if meanEmployees > 0 {
		m["revenue_per_employee"] = totalRevenue / meanEmployees
		m["cost_per_employee"] = totalExpenses / meanEmployees
	}
	if employeeCosts > 0 {
		m["employee_cost_efficiency"] = totalRevenue / employeeCosts
	}
	if totalRevenue > 0 {
		m["funding_dependency"] = (grant + investment) / totalRevenue
	}

	first, last := rows[0], rows[len(rows)-1]
	if dRev, ok := percentChange(first.TotalRevenue, last.TotalRevenue); ok {
		if dExp, ok := percentChange(first.TotalExpenses, last.TotalExpenses); ok && dExp != 0 {
			m["operating_leverage"] = dRev / dExp
		}
	}

	buckets := []float64{grant, investment}
	var sales, service float64
	for _, r := range rows {
		sales += r.SalesRevenue
		service += r.ServiceRevenue
	}
	buckets = append(buckets, sales, service)
	if totalRevenue > 0 {
		maxBucket := 0.0
		for _, b := range buckets {
			if b > maxBucket {
				maxBucket = b
			}
		}
		m["revenue_concentration_risk"] = maxBucket / totalRevenue
	}
}

func percentChange(from, to float64) (float64, bool) {
	if from == 0 {
		return 0, false
	}
	return (to - from) / from, true
}

// evaluateAlerts is a pure function of the metrics map and the table it was
// derived from (for the mean(|net_cash_flow|) threshold), with no side
// effects (spec §4.7).
func evaluateAlerts(m map[string]float64, rows []ForecastRow) []Alert {
	var alerts []Alert

	if v, ok := m["runway_months"]; ok {
		switch {
		case v < 3:
			alerts = append(alerts, Alert{AlertCritical, "runway_months", "Runway below 3 months", "Reduce burn or raise funding immediately"})
		case v < 6:
			alerts = append(alerts, Alert{AlertWarning, "runway_months", "Runway below 6 months", "Plan a funding round or cut discretionary spend"})
		}
	}

	if v, ok := m["burn_rate"]; ok && v > 100_000 {
		alerts = append(alerts, Alert{AlertWarning, "burn_rate", "High burn rate", "Review largest expense categories"})
	}

	if v, ok := m["revenue_concentration_risk"]; ok && v > 0.8 {
		alerts = append(alerts, Alert{AlertWarning, "revenue_concentration_risk", "Revenue highly concentrated", "Diversify revenue sources"})
	}

	if v, ok := m["cash_flow_volatility"]; ok {
		meanAbsFlow := meanAbsNetCashFlow(rows)
		if v > 2*meanAbsFlow {
			alerts = append(alerts, Alert{AlertInfo, "cash_flow_volatility", "High cash-flow volatility", "Smooth revenue recognition or build a cash buffer"})
		}
	}

	if v, ok := m["rd_percentage"]; ok && v > 0.4 {
		alerts = append(alerts, Alert{AlertInfo, "rd_percentage", "R&D spend above 40%", "Confirm R&D investment matches funding runway"})
	}

	return alerts
}

func meanAbsNetCashFlow(rows []ForecastRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range rows {
		total += math.Abs(r.NetCashFlow)
	}
	return total / float64(len(rows))
}
