package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/billgate/purchasegw/internal/config"
	"github.com/billgate/purchasegw/internal/transaction/domain"
	"github.com/billgate/purchasegw/internal/transaction/translator"
	"go.uber.org/zap"
)

// Client fetches transaction detail over HTTP and normalizes the response.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.TransactionServiceURL,
		httpClient: &http.Client{
			Timeout: cfg.RemoteServiceTimeout,
		},
		log: log.Named("transaction.client"),
	}
}

func (c *Client) GetTransactionDataBy(ctx context.Context, transactionID string, sessionID string) (domain.Result, error) {
	endpoint := fmt.Sprintf("%s/api/v1/transaction/%s?sessionId=%s",
		c.baseURL,
		url.PathEscape(transactionID),
		url.QueryEscape(sessionID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transaction lookup %s: %w", transactionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.EmptyResult{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transaction lookup %s: unexpected status %d", transactionID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transaction lookup %s: read body: %w", transactionID, err)
	}

	legacy := resp.Header.Get("X-Legacy-Format") == "1"
	result, err := translator.Translate(body, legacy)
	if err != nil {
		c.log.Error("unrecognized transaction response",
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
		return nil, err
	}
	return result, nil
}
