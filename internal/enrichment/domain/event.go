package domain

import (
	"time"

	catalogdomain "github.com/billgate/purchasegw/internal/catalog/domain"
	transactiondomain "github.com/billgate/purchasegw/internal/transaction/domain"
)

const (
	EventTypePurchaseIntegration = "purchase_integration_event"
	EventTypePurchaseEnriched    = "purchase_processed_enriched"
	EventTypeRebillSuccessful    = "rebill_successful"
	EventTypeRebillUnsuccessful  = "rebill_unsuccessful"
)

// PurchaseItem is one imported line of a purchase integration event, merging
// outcome state, transaction detail, bundle detail, and site detail.
// Field names are stable contract surface for the legacy import.
type PurchaseItem struct {
	SiteID            string                    `json:"site_id"`
	SiteName          string                    `json:"site_name"`
	BundleID          string                    `json:"bundle_id"`
	AddOnID           string                    `json:"add_on_id"`
	AddOnType         string                    `json:"add_on_type"`
	SubscriptionID    string                    `json:"subscriptionId"`
	TransactionID     string                    `json:"transactionId"`
	BillerName        string                    `json:"billerName"`
	Status            string                    `json:"status"`
	Amount            float64                   `json:"amount"`
	RebillAmount      float64                   `json:"rebillAmount"`
	CurrencyCode      string                    `json:"currencyCode"`
	IsNSF             bool                      `json:"isNsf"`
	SecuredWithThreeD bool                      `json:"securedWithThreeD"`
	ImportedByAPI     bool                      `json:"importedByApi"`
	IsCrossSale       bool                      `json:"isCrossSale"`
	Member            *transactiondomain.Member `json:"member,omitempty"`
	BillerFields      map[string]string         `json:"billerFields,omitempty"`
}

// PurchaseIntegrationEvent is the flat multi-item projection consumed by the
// legacy billing import.
type PurchaseIntegrationEvent struct {
	AggregateID string         `json:"aggregate_id"`
	SessionID   string         `json:"sessionId"`
	MemberID    string         `json:"memberId"`
	OccurredOn  time.Time      `json:"occurred_on"`
	Items       []PurchaseItem `json:"items"`
}

func (PurchaseIntegrationEvent) EventType() string { return EventTypePurchaseIntegration }

// EnrichedItem is one bundle reference inside the enriched projection.
type EnrichedItem struct {
	BundleID       string `json:"bundle_id"`
	AddOnID        string `json:"add_on_id"`
	AddOnType      string `json:"add_on_type"`
	SubscriptionID string `json:"subscriptionId"`
	IsNSF          bool   `json:"isNsf"`
	IsCrossSale    bool   `json:"isCrossSale"`
}

// PurchaseProcessedEnriched is the single-event member profile projection.
type PurchaseProcessedEnriched struct {
	AggregateID    string              `json:"aggregate_id"`
	SessionID      string              `json:"sessionId"`
	MemberID       string              `json:"memberId"`
	SubscriptionID string              `json:"subscriptionId"`
	TransactionID  string              `json:"transactionId"`
	BillerName     string              `json:"billerName"`
	Status         string              `json:"status"`
	Amount         float64             `json:"amount"`
	OccurredOn     time.Time           `json:"occurred_on"`
	Site           *catalogdomain.Site `json:"site,omitempty"`
	Items          []EnrichedItem      `json:"items"`
}

func (PurchaseProcessedEnriched) EventType() string { return EventTypePurchaseEnriched }

// RebillEvent carries the outcome of a recurring charge on an existing
// subscription. Successful and unsuccessful rebills share one shape and
// differ only in event type.
type RebillEvent struct {
	AggregateID    string    `json:"aggregate_id"`
	SessionID      string    `json:"sessionId"`
	MemberID       string    `json:"memberId"`
	SubscriptionID string    `json:"subscriptionId"`
	TransactionID  string    `json:"transactionId"`
	BillerName     string    `json:"billerName"`
	Status         string    `json:"status"`
	Amount         float64   `json:"amount"`
	RebillAmount   float64   `json:"rebillAmount"`
	OccurredOn     time.Time `json:"occurred_on"`

	Successful bool `json:"-"`
}

func (e RebillEvent) EventType() string {
	if e.Successful {
		return EventTypeRebillSuccessful
	}
	return EventTypeRebillUnsuccessful
}
