// Package pricing содержит бизнес-логику расчёта действующих цен
// и доступности early-bird мест.
package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-paywall/internal/models"
)

// CacheKey ключ кеша ценового ответа. Обработчик webhook-событий
// инвалидирует его при каждой новой оплате и отмене.
const CacheKey = "pricing:v1"

// cacheTTL время жизни ценового ответа в кеше.
const cacheTTL = 60 * time.Second

// Repository определяет методы чтения ценовых настроек из хранилища.
type Repository interface {
	// EarlyBirdStats возвращает лимит ранних мест и количество активных ранних подписчиков.
	EarlyBirdStats(ctx context.Context) (*models.EarlyBirdStats, error)
	// PriceSettings возвращает ценовые настройки в минорных единицах.
	PriceSettings(ctx context.Context) (map[string]int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// PriceIDs идентификаторы цен у платёжного провайдера.
type PriceIDs struct {
	Monthly          string
	Yearly           string
	EarlyBirdMonthly string
	EarlyBirdYearly  string
}

// Service реализует расчёт цен с коротким кешированием результата.
type Service struct {
	repo     Repository
	cache    Cache
	priceIDs PriceIDs
	log      *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, cache Cache, priceIDs PriceIDs, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		priceIDs: priceIDs,
		log:      log,
	}
}

// GetPricing возвращает таблицу цен и доступность early-bird мест.
// Чтение без побочных эффектов; результат кешируется на 60 секунд,
// поскольку доступность меняется только при новых оплатах.
func (s *Service) GetPricing(ctx context.Context) (*models.Pricing, error) {
	const op = "pricing.GetPricing"

	var cached models.Pricing
	found, err := s.cache.Get(CacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read pricing from cache", slog.Any("err", err))
	}
	if found {
		return &cached, nil
	}

	stats, err := s.repo.EarlyBirdStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	settings, err := s.repo.PriceSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	remaining := stats.Limit - stats.ActiveCount
	if remaining < 0 {
		remaining = 0
	}
	available := remaining > 0

	result := models.Pricing{
		IsEarlyBirdAvailable: available,
		EarlyBirdRemaining:   remaining,
		EarlyBirdLimit:       stats.Limit,
	}
	result.Prices.Monthly = tierPricing(
		settings["monthly_price_cents"], settings["early_bird_monthly_price_cents"],
		s.priceIDs.Monthly, s.priceIDs.EarlyBirdMonthly, available)
	result.Prices.Yearly = tierPricing(
		settings["yearly_price_cents"], settings["early_bird_yearly_price_cents"],
		s.priceIDs.Yearly, s.priceIDs.EarlyBirdYearly, available)

	if err := s.cache.Set(CacheKey, result, cacheTTL); err != nil {
		s.log.Warn("failed to cache pricing", slog.Any("err", err))
	}

	return &result, nil
}

// tierPricing собирает цены одного тарифа: действующая цена и priceId
// выбирают early-bird вариант, пока остались места.
func tierPricing(regular, earlyBird int, regularID, earlyBirdID string, available bool) models.TierPricing {
	p := models.TierPricing{
		Regular:   regular,
		EarlyBird: earlyBird,
		Current:   regular,
		PriceID:   regularID,
	}
	if available {
		p.Current = earlyBird
		p.PriceID = earlyBirdID
	}
	return p
}
