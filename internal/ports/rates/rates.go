package rates

import "context"

// IRateProvider источник живого курса USD/RUB
type IRateProvider interface {
	// FetchRate возвращает положительный курс либо ошибку последнего источника
	FetchRate(ctx context.Context) (float64, error)
}
