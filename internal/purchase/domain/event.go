package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidEventBody = errors.New("invalid_event_body")

const (
	TransactionStateApproved = "approved"
	TransactionStateDeclined = "declined"
	TransactionStateAborted  = "aborted"
	TransactionStatePending  = "pending"
)

// EventTypePurchaseProcessed is the stored event type for purchase outcomes.
const EventTypePurchaseProcessed = "purchase_processed"

// TransactionRef is one attempt on an item. The collection is ordered; the
// last element is authoritative for the item's current state.
type TransactionRef struct {
	TransactionID string `json:"transactionId"`
	State         string `json:"state"`
}

// CrossSaleData describes one cross-sale offer attached to the purchase.
// Field names are contract surface shared with legacy consumers.
type CrossSaleData struct {
	SiteID                string           `json:"site_id"`
	BundleID              string           `json:"bundle_id"`
	AddOnID               string           `json:"add_on_id"`
	SubscriptionID        string           `json:"subscriptionId"`
	IsNSF                 bool             `json:"isNsf"`
	TransactionCollection []TransactionRef `json:"transactionCollection"`
}

// OutcomeEvent is the recorded, immutable fact of how a purchase attempt
// concluded. It is created once by the purchase-initialization subsystem and
// only ever read here.
type OutcomeEvent struct {
	AggregateID           string           `json:"aggregate_id"`
	OccurredOn            time.Time        `json:"occurred_on"`
	SessionID             string           `json:"sessionId"`
	MemberID              string           `json:"memberId"`
	SiteID                string           `json:"site_id"`
	BundleID              string           `json:"bundle_id"`
	AddOnID               string           `json:"add_on_id"`
	SubscriptionID        string           `json:"subscriptionId"`
	PaymentType           string           `json:"payment_type"`
	PaymentTemplateID     string           `json:"payment_template_id,omitempty"`
	IsNSF                 bool             `json:"isNsf"`
	ImportedByAPI         bool             `json:"importedByApi"`
	TransactionCollection []TransactionRef `json:"transactionCollection"`
	CrossSalePurchaseData []CrossSaleData  `json:"crossSalePurchaseData"`
}

// DecodeOutcomeEvent parses a serialized purchase outcome event body.
func DecodeOutcomeEvent(body []byte) (*OutcomeEvent, error) {
	var event OutcomeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEventBody, err)
	}
	if event.AggregateID == "" {
		return nil, fmt.Errorf("%w: missing aggregate_id", ErrInvalidEventBody)
	}
	return &event, nil
}

// LastTransaction returns the authoritative transaction for the main item,
// or nil when the purchase never produced one.
func (e *OutcomeEvent) LastTransaction() *TransactionRef {
	return lastTransaction(e.TransactionCollection)
}

// UsedPaymentTemplate reports whether the purchase charged a stored payment method.
func (e *OutcomeEvent) UsedPaymentTemplate() bool {
	return e.PaymentTemplateID != ""
}

// LastTransaction returns the authoritative transaction for a cross-sale item.
func (c CrossSaleData) LastTransaction() *TransactionRef {
	return lastTransaction(c.TransactionCollection)
}

func lastTransaction(collection []TransactionRef) *TransactionRef {
	if len(collection) == 0 {
		return nil
	}
	return &collection[len(collection)-1]
}
