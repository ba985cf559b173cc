package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"log/slog"

	"github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/telegram"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
	"github.com/molokoedovmp/anonpaysub/internal/ports/service"
)

// messageSender surface Telegram-клиента, нужная нотификатору
type messageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageHTML(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error
}

// Service отправка уведомлений оператору и покупателю.
// Каждое уведомление - один запрос без ретраев; дедупликацией
// управляет вызывающий use case.
type Service struct {
	sender      messageSender
	adminChatID int64
	log         *slog.Logger
}

// New создаёт сервис уведомлений
func New(sender messageSender, adminChatID int64, log *slog.Logger) *Service {
	return &Service{
		sender:      sender,
		adminChatID: adminChatID,
		log:         log,
	}
}

var _ service.INotifierService = (*Service)(nil)

// OrderReceived уведомляет оператора о новом заказе
func (s *Service) OrderReceived(ctx context.Context, order *domain.Order, user *domain.WebAppUser, quote *domain.Quote) error {
	text := formatOrderMessage(order, user, quote)
	if err := s.sender.SendMessage(ctx, s.adminChatID, text); err != nil {
		return fmt.Errorf("failed to notify admin about order: %w", err)
	}
	return nil
}

// ManualOrderReceived ручная оплата: оператору - заказ с кнопками активации,
// покупателю - подтверждение приёма заявки
func (s *Service) ManualOrderReceived(ctx context.Context, order *domain.Order, user *domain.WebAppUser, quote *domain.Quote) error {
	text := formatOrderMessage(order, user, quote)

	var keyboard *telegram.InlineKeyboardMarkup
	if user != nil && user.ID != 0 {
		total := 0.0
		if quote != nil {
			total = quote.TotalRub
		}
		keyboard = activationKeyboard(user.ID, total)
	}

	if err := s.sender.SendMessageHTML(ctx, s.adminChatID, text, keyboard); err != nil {
		return fmt.Errorf("failed to notify admin about manual order: %w", err)
	}

	if user != nil && user.ID != 0 {
		buyerMsg := "✅ Заявка получена!\n" +
			"Оператор свяжется с вами для оплаты и оформит подписку вручную. " +
			"Если будут вопросы - просто ответьте в этом чате."
		if err := s.sender.SendMessage(ctx, user.ID, buyerMsg); err != nil {
			// оператор уже уведомлён, заявка принята
			s.log.Warn("failed to send buyer notice for manual order",
				"error", err,
				"user_id", user.ID,
			)
		}
	}

	return nil
}

// PaidNotice уведомляет оператора, что клиент отметил заказ оплаченным
func (s *Service) PaidNotice(ctx context.Context, order *domain.Order, user *domain.WebAppUser, quote *domain.Quote) error {
	lines := []string{"ℹ️ Получено уведомление об оплате из WebApp."}
	if user != nil {
		lines = append(lines, fmt.Sprintf("👤 Пользователь: %d%s", user.ID, usernameSuffix(user)))
	}
	if order != nil {
		if order.Service != "" {
			lines = append(lines, "🛒 Сервис: "+order.Service)
		}
		if order.CreatorURL != "" {
			lines = append(lines, "🔗 Автор: "+order.CreatorURL)
		}
		if order.Plan != "" {
			lines = append(lines, "📅 Тариф: "+string(order.Plan))
		}
		if order.MonthlyPriceUSD > 0 {
			lines = append(lines, fmt.Sprintf("💵 Цена/мес: %s USD", trimFloat(order.MonthlyPriceUSD)))
		}
	}
	if quote != nil && quote.TotalRub > 0 {
		lines = append(lines, fmt.Sprintf("💰 Итого: %.0f ₽", quote.TotalRub))
	}

	if err := s.sender.SendMessage(ctx, s.adminChatID, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to send paid notice: %w", err)
	}
	return nil
}

// PaymentConfirmed успешный платёж: оператору - детали с кнопками,
// покупателю - мягкое подтверждение
func (s *Service) PaymentConfirmed(ctx context.Context, payment *domain.RemotePayment) error {
	md := payment.Metadata

	lines := []string{"🎉 <b>Оплата подтверждена!</b>"}
	if md["userId"] != "" {
		lines = append(lines, "<b>👤 Клиент:</b> id="+md["userId"])
	}
	if md["service"] != "" {
		lines = append(lines, "<b>🛒 Сервис:</b> "+md["service"])
	}
	if md["creator"] != "" {
		lines = append(lines, "<b>🔗 Автор:</b> <code>"+md["creator"]+"</code>")
	}
	if md["login"] != "" {
		lines = append(lines, "<b>📧 Логин:</b> <code>"+md["login"]+"</code>")
	}
	if md["password"] != "" {
		lines = append(lines, "<b>🔐 Пароль:</b> <code>"+md["password"]+"</code>")
	}
	if md["plan"] != "" {
		lines = append(lines, "<b>📅 Тариф:</b> "+md["plan"])
	}
	lines = append(lines,
		fmt.Sprintf("<b>💰 Сумма:</b> %s %s", payment.Amount.Value, payment.Amount.Currency),
		"",
		"После активации подписки используйте кнопки ниже.",
	)

	var keyboard *telegram.InlineKeyboardMarkup
	userID := parseUserID(md["userId"])
	if userID != 0 {
		amount, _ := strconv.ParseFloat(payment.Amount.Value, 64)
		keyboard = activationKeyboard(userID, amount)
	}

	if err := s.sender.SendMessageHTML(ctx, s.adminChatID, strings.Join(lines, "\n"), keyboard); err != nil {
		return fmt.Errorf("failed to notify admin about payment: %w", err)
	}

	// Мягкое уведомление клиента сразу после оплаты
	if userID != 0 {
		buyerMsg := "✅ Оплата получена!\n" +
			"В течение 15–60 минут мы оформим подписку. Если будут вопросы - просто ответьте в этом чате."
		if err := s.sender.SendMessage(ctx, userID, buyerMsg); err != nil {
			// оператор уже уведомлён, платёж завершён
			s.log.Warn("failed to send buyer confirmation",
				"error", err,
				"user_id", userID,
				"payment_id", payment.ID,
			)
		}
	}

	return nil
}

// formatOrderMessage собирает сообщение оператору о новом заказе.
// Пароль намеренно присутствует: это рабочий канал оператора;
// в логи эти данные не попадают.
func formatOrderMessage(order *domain.Order, user *domain.WebAppUser, quote *domain.Quote) string {
	userStr := "unknown user"
	if user != nil && user.ID != 0 {
		userStr = fmt.Sprintf("#user%d%s", user.ID, usernameSuffix(user))
	}

	lines := []string{
		fmt.Sprintf("Новый заказ от %s:", userStr),
		"Сервис: " + order.Service,
	}
	if order.CreatorURL != "" {
		lines = append(lines, "Автор: "+order.CreatorURL)
	}
	lines = append(lines,
		"Логин: "+order.Login,
		"Пароль: "+order.Password,
		fmt.Sprintf("Тариф: %s (%d мес.)", order.Plan, order.Plan.Months()),
		fmt.Sprintf("Цена/мес: %s USD", trimFloat(order.MonthlyPriceUSD)),
	)

	if quote != nil && !quote.IsZero() {
		lines = append(lines,
			fmt.Sprintf("Расчёт (курс %.2f₽): база %.0f₽ + комиссия %.0f%% → %.0f₽",
				quote.UsdToRub, quote.BaseRub, quote.CommissionPct*100, quote.CommissionRub),
			fmt.Sprintf("Итого к оплате: %.0f₽", quote.TotalRub),
		)
	}

	if order.PaymentMethod != "" {
		lines = append(lines, "Оплата: "+order.PaymentMethod.Label())
	}
	if order.Notes != "" {
		lines = append(lines, "Примечание: "+order.Notes)
	}

	return strings.Join(lines, "\n")
}

// activationKeyboard кнопки оператора: активация привязана к id покупателя
// и итоговой сумме, разбор ошибки - только к id
func activationKeyboard(userID int64, totalRub float64) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{
				Text:         "✅ Подписка активирована",
				CallbackData: fmt.Sprintf("subscribed:%d:%.0f", userID, totalRub),
			}},
			{{
				Text:         "⚠️ Возникли проблемы",
				CallbackData: fmt.Sprintf("issue:%d", userID),
			}},
		},
	}
}

func usernameSuffix(user *domain.WebAppUser) string {
	if user.Username == "" {
		return ""
	}
	return " (@" + user.Username + ")"
}

func parseUserID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
