package pricing

import (
	"math"

	"github.com/molokoedovmp/anonpaysub/internal/domain"
)

// Итог (₽) = ceil( ( base × (fx + deltaRate) × (1 + 0.03 + 0.001×base) + fixedFee ) / 10 ) × 10
//
// Комиссия растёт линейно с размером заказа - заградительный процент
// против мелких заказов. Округление всегда вверх до 10 ₽: продавец
// никогда не недополучает.

const (
	DefaultDeltaRate = 4.0   // надбавка к биржевому курсу, ₽
	DefaultFixedFee  = 750.0 // фиксированный сбор, ₽

	baseCommission   = 0.03
	linearCommission = 0.001
	roundStep        = 10.0
)

// ComputePrice считает итоговую цену в рублях. Чистая функция без I/O.
// Возвращает 0 при неположительном курсе или нулевой сумме заказа -
// никогда не паникует на таких входах.
func ComputePrice(monthlyUSD float64, months int, fx, deltaRate, fixedFee float64) float64 {
	base := monthlyUSD * float64(months)
	if fx <= 0 || base <= 0 {
		return 0
	}

	commission := baseCommission + linearCommission*base
	gross := base * (fx + deltaRate)
	withCommission := gross * (1 + commission)
	final := withCommission + fixedFee

	return math.Ceil(final/roundStep) * roundStep
}

// CommissionPct возвращает долю комиссии для суммы заказа в USD
func CommissionPct(baseUSD float64) float64 {
	return baseCommission + linearCommission*baseUSD
}

// BuildQuote фиксирует полный расчёт цены для заказа по живому курсу.
// Quote неизменяема после возврата.
func BuildQuote(monthlyUSD float64, plan domain.Plan, fx float64) *domain.Quote {
	months := plan.Months()
	if monthlyUSD < 0 {
		monthlyUSD = 0
	}
	baseUSD := monthlyUSD * float64(months)

	quote := &domain.Quote{
		UsdToRub: fx,
		Months:   months,
		BaseUSD:  baseUSD,
	}

	if fx <= 0 || baseUSD <= 0 {
		return quote
	}

	quote.CommissionPct = CommissionPct(baseUSD)
	quote.BaseRub = baseUSD * (fx + DefaultDeltaRate)
	quote.CommissionRub = quote.BaseRub * quote.CommissionPct
	quote.TotalRub = ComputePrice(monthlyUSD, months, fx, DefaultDeltaRate, DefaultFixedFee)

	return quote
}
