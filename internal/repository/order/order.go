package orderRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
	"github.com/molokoedovmp/anonpaysub/internal/ports/persistence"
	ports "github.com/molokoedovmp/anonpaysub/internal/ports/repository"
)

const allColumns = `id, service, login, password, creator_url, plan, monthly_price_usd, notes,
	payment_method, user_id, usd_to_rub, commission_pct, months, base_usd, total_rub,
	payment_id, payment_status, notified_at, created_at`

type Repository struct {
	db  persistence.Persistence
	Log *slog.Logger
}

// New создаёт репозиторий реестра заказов
func New(db persistence.Persistence, log *slog.Logger) ports.IOrderRepo {
	return &Repository{
		db:  db,
		Log: log,
	}
}

// Create сохраняет новый заказ вместе с зафиксированным расчётом цены
func (r *Repository) Create(ctx context.Context, record *domain.OrderRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	query := fmt.Sprintf(`INSERT INTO orders (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		allColumns,
	)

	err := r.db.Exec(ctx, query,
		record.ID,
		record.Service,
		record.Login,
		record.Password,
		record.CreatorURL,
		string(record.Plan),
		record.MonthlyPriceUSD,
		record.Notes,
		string(record.PaymentMethod),
		record.UserID,
		record.UsdToRub,
		record.CommissionPct,
		record.Months,
		record.BaseUSD,
		record.TotalRub,
		record.PaymentID,
		statusValue(record.PaymentStatus),
		record.NotifiedAt,
		record.CreatedAt,
	)
	if err != nil {
		r.Log.Error("failed to create order record",
			"error", err,
			"order_id", record.ID,
		)
		return fmt.Errorf("failed to create order record: %w", err)
	}

	return nil
}

// GetByID возвращает заказ по внутреннему id
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, allColumns)

	var record domain.OrderRecord
	if err := r.db.Get(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by id: %w", err)
	}

	return &record, nil
}

// GetByPaymentID возвращает заказ по id платежа у провайдера
func (r *Repository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.OrderRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE payment_id = $1`, allColumns)

	var record domain.OrderRecord
	if err := r.db.Get(ctx, &record, query, paymentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by payment id: %w", err)
	}

	return &record, nil
}

// SetPayment привязывает созданный у провайдера платёж к заказу
func (r *Repository) SetPayment(ctx context.Context, id uuid.UUID, paymentID string, status domain.PaymentStatus) error {
	query := `UPDATE orders SET payment_id = $2, payment_status = $3 WHERE id = $1`

	rows, err := r.db.ExecWithResult(ctx, query, id, paymentID, string(status))
	if err != nil {
		return fmt.Errorf("failed to set payment: %w", err)
	}
	if rows == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// UpdatePaymentStatus обновляет статус платежа по payment_id.
// Вызывается из обоих каналов наблюдения (webhook и poll) - повторное
// выставление того же статуса безвредно.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) error {
	query := `UPDATE orders SET payment_status = $2 WHERE payment_id = $1`

	if err := r.db.Exec(ctx, query, paymentID, string(status)); err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	return nil
}

// MarkNotified помечает заказ как уведомлённый. Условие notified_at IS NULL
// делает операцию атомарным compare-and-set: true получает ровно один вызвавший.
func (r *Repository) MarkNotified(ctx context.Context, paymentID string) (bool, error) {
	query := `UPDATE orders SET notified_at = NOW() WHERE payment_id = $1 AND notified_at IS NULL`

	rows, err := r.db.ExecWithResult(ctx, query, paymentID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notified: %w", err)
	}

	return rows > 0, nil
}

func statusValue(status *domain.PaymentStatus) interface{} {
	if status == nil {
		return nil
	}
	return string(*status)
}
