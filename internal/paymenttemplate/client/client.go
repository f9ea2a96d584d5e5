package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/billgate/purchasegw/internal/config"
	"github.com/billgate/purchasegw/internal/paymenttemplate/domain"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.PaymentTemplateURL,
		httpClient: &http.Client{
			Timeout: cfg.RemoteServiceTimeout,
		},
		log: log.Named("paymenttemplate.client"),
	}
}

func (c *Client) Retrieve(ctx context.Context, templateID string, sessionID string) (*domain.PaymentTemplate, error) {
	endpoint := fmt.Sprintf("%s/api/v1/payment-template/%s?sessionId=%s",
		c.baseURL,
		url.PathEscape(templateID),
		url.QueryEscape(sessionID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment template %s: %w", templateID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment template %s: unexpected status %d", templateID, resp.StatusCode)
	}

	var template domain.PaymentTemplate
	if err := json.NewDecoder(resp.Body).Decode(&template); err != nil {
		return nil, fmt.Errorf("payment template %s: decode: %w", templateID, err)
	}
	return &template, nil
}
