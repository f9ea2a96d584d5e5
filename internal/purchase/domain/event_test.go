package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeOutcomeEvent(t *testing.T) {
	body := []byte(`{
		"aggregate_id": "agg-1",
		"occurred_on": "2026-03-14T09:30:00Z",
		"sessionId": "sess-1",
		"memberId": "member-1",
		"site_id": "site-1",
		"bundle_id": "bundle-1",
		"add_on_id": "addon-1",
		"subscriptionId": "sub-1",
		"payment_type": "cc",
		"isNsf": true,
		"transactionCollection": [
			{"transactionId": "tx-1", "state": "declined"},
			{"transactionId": "tx-2", "state": "approved"}
		],
		"crossSalePurchaseData": [
			{"bundle_id": "bundle-2", "add_on_id": "addon-2", "transactionCollection": []}
		]
	}`)

	ev, err := DecodeOutcomeEvent(body)
	require.NoError(t, err)
	require.Equal(t, "agg-1", ev.AggregateID)
	require.True(t, ev.IsNSF)
	require.Len(t, ev.CrossSalePurchaseData, 1)
}

func TestDecodeOutcomeEventRejectsBadBodies(t *testing.T) {
	_, err := DecodeOutcomeEvent([]byte(`not-json`))
	require.ErrorIs(t, err, ErrInvalidEventBody)

	_, err = DecodeOutcomeEvent([]byte(`{"sessionId": "sess-1"}`))
	require.ErrorIs(t, err, ErrInvalidEventBody, "aggregate_id is mandatory")
}

func TestLastTransactionIsAuthoritative(t *testing.T) {
	ev := &OutcomeEvent{TransactionCollection: []TransactionRef{
		{TransactionID: "tx-1", State: TransactionStateDeclined},
		{TransactionID: "tx-2", State: TransactionStateApproved},
	}}

	last := ev.LastTransaction()
	require.NotNil(t, last)
	require.Equal(t, "tx-2", last.TransactionID)
	require.Equal(t, TransactionStateApproved, last.State)
}

func TestLastTransactionEmptyCollection(t *testing.T) {
	ev := &OutcomeEvent{}
	require.Nil(t, ev.LastTransaction())
	require.Nil(t, CrossSaleData{}.LastTransaction())
}

func TestUsedPaymentTemplate(t *testing.T) {
	require.False(t, (&OutcomeEvent{}).UsedPaymentTemplate())
	require.True(t, (&OutcomeEvent{PaymentTemplateID: "tmpl-1"}).UsedPaymentTemplate())
}
