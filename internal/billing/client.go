// Package billing реализует клиента платёжного провайдера:
// создание checkout-сессии, сессии портала самообслуживания,
// чтение подписки и проверку подписи webhook-событий.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client клиент HTTP API платёжного провайдера.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент платёжного провайдера.
func NewClient(apiURL, secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, form url.Values) (*http.Request, error) {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.New("unexpected status: " + resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateCheckoutSession создаёт сессию оплаты подписки на hosted-странице
// провайдера и возвращает URL для редиректа покупателя.
func (c *Client) CreateCheckoutSession(ctx context.Context, email, priceID, successURL, cancelURL string) (*CheckoutSession, error) {
	const op = "billing.CreateCheckoutSession"

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("customer_email", email)
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	req, err := c.newRequest(ctx, http.MethodPost, "/checkout/sessions", form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var session CheckoutSession
	if err := c.do(req, &session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &session, nil
}

// CreatePortalSession создаёт сессию портала самообслуживания для клиента
// и возвращает URL для редиректа.
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	const op = "billing.CreatePortalSession"

	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", returnURL)

	req, err := c.newRequest(ctx, http.MethodPost, "/billing_portal/sessions", form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var session PortalSession
	if err := c.do(req, &session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &session, nil
}

// GetSubscription возвращает подписку провайдера по её ID.
// Используется обработчиком webhook-событий для получения цены,
// интервала оплаты и границ периода.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	const op = "billing.GetSubscription"

	req, err := c.newRequest(ctx, http.MethodGet, "/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}
