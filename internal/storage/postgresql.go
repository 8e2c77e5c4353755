// Package storage реализует хранилище подписчиков на основе PostgreSQL.
// Предоставляет методы поиска и обновления подписчиков, работу с одноразовыми
// токенами входа, идемпотентный upsert при оплате и сериализованное
// присвоение early-bird номеров.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/premium-paywall/internal/models"
)

// ErrSubscriberNotFound возвращается, когда подписчик не найден.
// Обработчики не должны транслировать эту ошибку наружу дословно:
// существование учётной записи не раскрывается.
var ErrSubscriberNotFound = errors.New("subscriber not found")

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с подписчиками и настройками цен.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscribers'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table subscribers missing or query error: %w", err)
	}
	return nil
}

const subscriberColumns = `id, uid, email,
	COALESCE(billing_customer_id, ''), COALESCE(billing_subscription_id, ''),
	subscription_status, subscription_tier, price_cents,
	is_early_bird, early_bird_number,
	magic_link_token, magic_link_expires_at,
	COALESCE(current_period_start, 'epoch'::timestamptz),
	COALESCE(current_period_end, 'epoch'::timestamptz),
	cancelled_at, created_at, updated_at`

func scanSubscriber(row *sql.Row) (*models.Subscriber, error) {
	var s models.Subscriber
	err := row.Scan(&s.ID, &s.UID, &s.Email,
		&s.BillingCustomerID, &s.BillingSubscriptionID,
		&s.Status, &s.Tier, &s.PriceCents,
		&s.IsEarlyBird, &s.EarlyBirdNumber,
		&s.MagicLinkToken, &s.MagicLinkExpiresAt,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd,
		&s.CancelledAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ===== SUBSCRIBER LOOKUP =====

// FindByEmail возвращает подписчика по email (email уже в нижнем регистре).
func (s *Storage) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	const op = "storage.FindByEmail"

	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE email = $1`
	sub, err := scanSubscriber(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// FindByUID возвращает подписчика по его стабильному uuid.
func (s *Storage) FindByUID(ctx context.Context, uid string) (*models.Subscriber, error) {
	const op = "storage.FindByUID"

	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE uid = $1`
	sub, err := scanSubscriber(s.DB.QueryRowContext(ctx, query, uid))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// FindByTokenDigest возвращает подписчика по дайджесту одноразового токена.
// Совпадение засчитывается только при одновременном выполнении трёх условий:
// токен совпал, срок его действия не истёк и подписка активна.
func (s *Storage) FindByTokenDigest(ctx context.Context, digest string, now time.Time) (*models.Subscriber, error) {
	const op = "storage.FindByTokenDigest"

	query := `SELECT ` + subscriberColumns + ` FROM subscribers
			  WHERE magic_link_token = $1
			    AND magic_link_expires_at > $2
			    AND subscription_status = $3`
	sub, err := scanSubscriber(s.DB.QueryRowContext(ctx, query, digest, now, models.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ===== MAGIC LINK TOKENS =====

// SetMagicLink сохраняет дайджест нового одноразового токена и срок его
// действия, перетирая ранее выданный токен: живым остаётся не более одного.
func (s *Storage) SetMagicLink(ctx context.Context, subscriberID int, digest string, expiresAt time.Time) error {
	const op = "storage.SetMagicLink"

	query := `UPDATE subscribers
			  SET magic_link_token = $1, magic_link_expires_at = $2, updated_at = NOW()
			  WHERE id = $3`
	result, err := s.DB.ExecContext(ctx, query, digest, expiresAt, subscriberID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, ErrSubscriberNotFound)
	}
	return nil
}

// ClearMagicLink очищает токен и срок его действия (одноразовость).
func (s *Storage) ClearMagicLink(ctx context.Context, subscriberID int) error {
	const op = "storage.ClearMagicLink"

	query := `UPDATE subscribers
			  SET magic_link_token = NULL, magic_link_expires_at = NULL, updated_at = NOW()
			  WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, query, subscriberID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ===== WEBHOOK MUTATIONS =====

// UpsertOnPurchase вставляет или обновляет подписчика при успешной оплате.
// Повторная доставка того же события безопасна: запись получает те же
// значения, а присвоенный ранее early-bird номер и флаг сохраняются.
func (s *Storage) UpsertOnPurchase(ctx context.Context, up models.UpsertSubscriber) (*models.Subscriber, error) {
	const op = "storage.UpsertOnPurchase"

	query := `INSERT INTO subscribers (
				  uid, email, billing_customer_id, billing_subscription_id,
				  subscription_status, subscription_tier, price_cents,
				  current_period_start, current_period_end
			  ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  ON CONFLICT (email) DO UPDATE SET
				  billing_customer_id = EXCLUDED.billing_customer_id,
				  billing_subscription_id = EXCLUDED.billing_subscription_id,
				  subscription_status = EXCLUDED.subscription_status,
				  subscription_tier = EXCLUDED.subscription_tier,
				  price_cents = EXCLUDED.price_cents,
				  current_period_start = EXCLUDED.current_period_start,
				  current_period_end = EXCLUDED.current_period_end,
				  cancelled_at = NULL,
				  updated_at = NOW()
			  RETURNING ` + subscriberColumns
	sub, err := scanSubscriber(s.DB.QueryRowContext(ctx, query,
		uuid.New().String(), up.Email, up.BillingCustomerID, up.BillingSubscriptionID,
		models.StatusActive, up.Tier, up.PriceCents,
		up.CurrentPeriodStart, up.CurrentPeriodEnd))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// AssignEarlyBirdSlot присваивает подписчику следующий early-bird номер,
// если активных ранних подписчиков меньше лимита. Возвращает номер или nil,
// если мест не осталось.
//
// Присвоение сериализовано блокировкой строки-счётчика (SELECT ... FOR UPDATE):
// два конкурентных платежа не могут прочитать одно и то же значение счётчика.
// Номера монотонно растут и не переиспользуются; отмена раннего подписчика
// освобождает место, но не номер. Повторная доставка события идемпотентна:
// уже присвоенный номер возвращается без изменений.
func (s *Storage) AssignEarlyBirdSlot(ctx context.Context, email string, limit int) (*int, error) {
	const op = "storage.AssignEarlyBirdSlot"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing *int
	err = tx.QueryRowContext(ctx,
		`SELECT early_bird_number FROM subscribers WHERE email = $1 FOR UPDATE`,
		email).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrSubscriberNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		return existing, nil
	}

	// Блокировка счётчика сериализует конкурентные присвоения.
	var counter int
	err = tx.QueryRowContext(ctx,
		`SELECT value::INTEGER FROM premium_settings WHERE key = 'early_bird_counter' FOR UPDATE`).
		Scan(&counter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var activeCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscribers
		 WHERE is_early_bird = TRUE AND subscription_status = $1`,
		models.StatusActive).Scan(&activeCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if activeCount >= limit {
		return nil, tx.Commit()
	}

	next := counter + 1
	_, err = tx.ExecContext(ctx,
		`UPDATE premium_settings SET value = $1 WHERE key = 'early_bird_counter'`,
		strconv.Itoa(next))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE subscribers
		 SET is_early_bird = TRUE, early_bird_number = $1, updated_at = NOW()
		 WHERE email = $2`,
		next, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &next, nil
}

// ApplySubscriptionUpdate переносит статус и границы периода от провайдера.
// Поиск идёт по billing_customer_id: email мог смениться у провайдера.
// Возвращает количество обновлённых строк.
func (s *Storage) ApplySubscriptionUpdate(ctx context.Context, upd models.SubscriptionUpdate) (int64, error) {
	const op = "storage.ApplySubscriptionUpdate"

	query := `UPDATE subscribers
			  SET subscription_status = $1,
			      current_period_start = $2,
			      current_period_end = $3,
			      updated_at = NOW()
			  WHERE billing_customer_id = $4`
	result, err := s.DB.ExecContext(ctx, query,
		upd.Status, upd.CurrentPeriodStart, upd.CurrentPeriodEnd, upd.BillingCustomerID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}

// MarkCancelled помечает подписку отменённой и возвращает email подписчика
// для синхронизации с платформой рассылки. Запись не удаляется.
// Повторная доставка события перезаписывает те же значения.
func (s *Storage) MarkCancelled(ctx context.Context, billingCustomerID string, now time.Time) (string, error) {
	const op = "storage.MarkCancelled"

	query := `UPDATE subscribers
			  SET subscription_status = $1, cancelled_at = $2, updated_at = NOW()
			  WHERE billing_customer_id = $3
			  RETURNING email`
	var email string
	err := s.DB.QueryRowContext(ctx, query, models.StatusCancelled, now, billingCustomerID).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrSubscriberNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return email, nil
}

// ===== PRICING SETTINGS =====

// EarlyBirdStats возвращает лимит ранних мест и количество активных
// ранних подписчиков.
func (s *Storage) EarlyBirdStats(ctx context.Context) (*models.EarlyBirdStats, error) {
	const op = "storage.EarlyBirdStats"

	var stats models.EarlyBirdStats
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT value::INTEGER FROM premium_settings WHERE key = 'early_bird_limit'),
			(SELECT COUNT(*) FROM subscribers
			 WHERE is_early_bird = TRUE AND subscription_status = $1)`,
		models.StatusActive).Scan(&stats.Limit, &stats.ActiveCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &stats, nil
}

// PriceSettings возвращает ценовые настройки из premium_settings.
func (s *Storage) PriceSettings(ctx context.Context) (map[string]int, error) {
	const op = "storage.PriceSettings"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT key, value FROM premium_settings WHERE key LIKE '%_price_cents'`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	settings := make(map[string]int)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cents, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid value for %s: %w", op, key, err)
		}
		settings[key] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return settings, nil
}
