// Package newsletter реализует клиента платформы рассылки.
// Обработчик webhook-событий через него включает и выключает
// премиум-статус адреса в списке рассылки.
package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client клиент HTTP API платформы рассылки.
type Client struct {
	apiKey        string
	apiURL        string
	publicationID string
	httpClient    *http.Client
}

// NewClient создаёт новый клиент платформы рассылки.
func NewClient(apiURL, apiKey, publicationID string) *Client {
	return &Client{
		apiKey:        apiKey,
		apiURL:        apiURL,
		publicationID: publicationID,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

type setPremiumRequest struct {
	Email   string `json:"email"`
	Premium bool   `json:"premium"`
}

// SetPremium включает или выключает премиум-статус адреса в рассылке.
func (c *Client) SetPremium(ctx context.Context, email string, premium bool) error {
	const op = "newsletter.SetPremium"

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(setPremiumRequest{Email: email, Premium: premium}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	path := "/publications/" + url.PathEscape(c.publicationID) + "/subscriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.apiURL+path, &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s: %w", op, errors.New("unexpected status: "+resp.Status))
	}
	return nil
}
