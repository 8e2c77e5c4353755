// Package magiclink содержит бизнес-логику беспарольной аутентификации:
// выпуск одноразовых токенов входа, их проверку и обмен на сессионный JWT.
package magiclink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/premium-paywall/internal/lib/jwt"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/token"
	"github.com/magabrotheeeer/premium-paywall/internal/models"
	"github.com/magabrotheeeer/premium-paywall/internal/storage"
)

// ErrInvalidToken возвращается, когда токен входа не найден, истёк
// или принадлежит неактивному подписчику. Причины снаружи неразличимы.
var ErrInvalidToken = errors.New("invalid or expired magic link token")

// Repository определяет методы хранилища, нужные для аутентификации.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	FindByTokenDigest(ctx context.Context, digest string, now time.Time) (*models.Subscriber, error)
	SetMagicLink(ctx context.Context, subscriberID int, digest string, expiresAt time.Time) error
	ClearMagicLink(ctx context.Context, subscriberID int) error
}

// Publisher публикует задание на отправку письма со ссылкой для входа.
type Publisher interface {
	PublishMagicLink(job models.MagicLinkEmail) error
}

// SessionStatus описывает результат проверки сессионной куки.
type SessionStatus struct {
	IsPremium       bool       `json:"isPremium"`
	Email           string     `json:"email,omitempty"`
	Tier            string     `json:"tier,omitempty"`
	IsEarlyBird     bool       `json:"isEarlyBird,omitempty"`
	EarlyBirdNumber *int       `json:"earlyBirdNumber,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
}

// Service реализует выпуск и проверку токенов входа.
type Service struct {
	repo        Repository
	publisher   Publisher
	jwtMaker    jwt.Maker
	requestTTL  time.Duration
	purchaseTTL time.Duration
	log         *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, publisher Publisher, jwtMaker jwt.Maker,
	requestTTL, purchaseTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		publisher:   publisher,
		jwtMaker:    jwtMaker,
		requestTTL:  requestTTL,
		purchaseTTL: purchaseTTL,
		log:         log,
	}
}

// NormalizeEmail приводит адрес к канонической форме для поиска в хранилище.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestLink выпускает токен входа для активного подписчика и публикует
// задание на отправку письма. Если подписчик не найден или неактивен,
// метод молча завершается без ошибки: ответ снаружи не должен выдавать,
// существует ли адрес в базе.
func (s *Service) RequestLink(ctx context.Context, email string) error {
	const op = "magiclink.RequestLink"

	email = NormalizeEmail(email)
	sub, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrSubscriberNotFound) {
			s.log.Info("magic link requested for unknown email")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if sub.Status != models.StatusActive {
		s.log.Info("magic link requested for inactive subscriber",
			slog.String("status", sub.Status))
		return nil
	}

	return s.issue(ctx, sub, s.requestTTL)
}

// IssuePurchaseToken выпускает токен входа сразу после оплаты.
// Его срок жизни длиннее обычного: письмо после покупки могут открыть
// не сразу.
func (s *Service) IssuePurchaseToken(ctx context.Context, sub *models.Subscriber) error {
	return s.issue(ctx, sub, s.purchaseTTL)
}

func (s *Service) issue(ctx context.Context, sub *models.Subscriber, ttl time.Duration) error {
	const op = "magiclink.issue"

	tokenStr, err := token.Generate()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	expiresAt := time.Now().UTC().Add(ttl)
	if err := s.repo.SetMagicLink(ctx, sub.ID, token.Digest(tokenStr), expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	job := models.MagicLinkEmail{
		Email:           sub.Email,
		Token:           tokenStr,
		EarlyBirdNumber: sub.EarlyBirdNumber,
	}
	if err := s.publisher.PublishMagicLink(job); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("magic link issued", slog.Time("expires_at", expiresAt))
	return nil
}

// VerifyToken проверяет токен входа и обменивает его на сессионный JWT.
// Токен одноразовый: после успешной проверки он стирается из хранилища.
func (s *Service) VerifyToken(ctx context.Context, tokenStr string) (string, error) {
	const op = "magiclink.VerifyToken"

	sub, err := s.repo.FindByTokenDigest(ctx, token.Digest(tokenStr), time.Now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrSubscriberNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	// Токен стирается до выпуска JWT: если стереть не удалось, сессия
	// не выдаётся, иначе токен остался бы рабочим после использования.
	if err := s.repo.ClearMagicLink(ctx, sub.ID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	sessionToken, err := s.jwtMaker.GenerateToken(sub)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return sessionToken, nil
}

// CheckSession проверяет сессионный JWT из куки. Метод никогда не
// возвращает ошибку: любая проблема с токеном означает IsPremium=false.
func (s *Service) CheckSession(tokenStr string) *SessionStatus {
	if tokenStr == "" {
		return &SessionStatus{IsPremium: false}
	}

	claims, err := s.jwtMaker.ParseToken(tokenStr)
	if err != nil {
		s.log.Debug("session token rejected", sl.Err(err))
		return &SessionStatus{IsPremium: false}
	}

	status := &SessionStatus{
		IsPremium:       true,
		Email:           claims.Email,
		Tier:            claims.Tier,
		IsEarlyBird:     claims.IsEarlyBird,
		EarlyBirdNumber: claims.EarlyBirdNumber,
	}
	if claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time
		status.ExpiresAt = &expires
	}
	return status
}
