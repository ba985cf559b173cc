package domain

// Quote рассчитанная цена заказа. Неизменяема после расчёта:
// все поля фиксируются в момент получения курса.
type Quote struct {
	UsdToRub      float64 // использованный курс USD/RUB
	CommissionPct float64 // комиссия как доля (0.03 + 0.001*BaseUSD)
	Months        int
	BaseUSD       float64 // сумма в USD за весь период
	BaseRub       float64 // сумма в RUB до комиссии (по курсу с надбавкой)
	CommissionRub float64 // комиссия в RUB
	TotalRub      float64 // итог к оплате, всегда кратен 10
}

// IsZero цена нулевая: нулевой заказ либо курс недоступен
func (q *Quote) IsZero() bool {
	return q == nil || q.TotalRub <= 0
}
