package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidResponse is raised when the transaction service returns a
	// (biller, payment type) combination no canonical variant exists for.
	// This is a hard fault: the same payload will fail identically on replay.
	ErrInvalidResponse = errors.New("invalid_transaction_response")

	// ErrInvalidBillerFieldsData is raised when payment template fields cannot
	// be extracted from a canonical result.
	ErrInvalidBillerFieldsData = errors.New("invalid_biller_fields_data")
)

const (
	BillerRocketgate = "rocketgate"
	BillerNetbilling = "netbilling"
	BillerEpoch      = "epoch"
)

const (
	PaymentTypeCC     = "cc"
	PaymentTypeChecks = "checks"
)

const (
	StatusApproved = "approved"
	StatusDeclined = "declined"
	StatusAborted  = "aborted"
	StatusPending  = "pending"
)

const (
	BillerTransactionTypeAuth   = "auth"
	BillerTransactionTypeSale   = "sale"
	BillerTransactionTypeRebill = "rebill"
)

// BillerTransaction is a single step the biller executed for one transaction.
// The collection is ordered; the last entry is the most authoritative.
type BillerTransaction struct {
	BillerTransactionID string `json:"billerTransactionId"`
	Type                string `json:"type"`
	MemberID            string `json:"memberId,omitempty"`
}

// Member is the billing address snapshot attached to a transaction.
type Member struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

// BaseResult carries the fields every canonical variant shares.
type BaseResult struct {
	TransactionID      string
	BillerID           string
	BillerName         string
	PaymentType        string
	SecuredWithThreeD  bool
	BillerTransactions []BillerTransaction
	Member             *Member
	Amount             float64
	RebillAmount       float64
	CurrencyCode       string
	Status             string
	CreatedAt          time.Time
}

func (b BaseResult) Base() BaseResult { return b }

// LastBillerTransaction returns the authoritative biller step, or nil when
// no steps were recorded.
func (b BaseResult) LastBillerTransaction() *BillerTransaction {
	if len(b.BillerTransactions) == 0 {
		return nil
	}
	return &b.BillerTransactions[len(b.BillerTransactions)-1]
}

// IsRebill reports whether the authoritative biller step was a rebill charge.
func (b BaseResult) IsRebill() bool {
	last := b.LastBillerTransaction()
	return last != nil && last.Type == BillerTransactionTypeRebill
}

// Result is the closed set of canonical transaction shapes. New variants are
// added here and in the translator's factory; anything else is an
// ErrInvalidResponse upstream.
type Result interface {
	Base() BaseResult
	sealed()
}

// RocketgateCCResult is a Rocketgate credit card transaction. Its stored
// payment identity is the opaque card hash plus the merchant pair.
type RocketgateCCResult struct {
	BaseResult
	CardHash           string
	MerchantCustomerID string
	MerchantID         string
}

func (RocketgateCCResult) sealed() {}

// NetbillingCCResult is a Netbilling credit card transaction. The card hash
// is a base64-encoded "originId:binRouting" pair.
type NetbillingCCResult struct {
	BaseResult
	CardHash string
}

func (NetbillingCCResult) sealed() {}

// EpochCCResult is an Epoch credit card transaction. The biller member id
// lives on the biller transaction steps, not at the transaction level.
type EpochCCResult struct {
	BaseResult
}

func (EpochCCResult) sealed() {}

// RocketgateCheckResult is a Rocketgate ACH/check transaction.
type RocketgateCheckResult struct {
	BaseResult
	RoutingNumber       string
	AccountHash         string
	SavingsAccount      bool
	SocialSecurityLast4 string
}

func (RocketgateCheckResult) sealed() {}

// EmptyResult stands in when no transaction exists for the requested id.
type EmptyResult struct {
	BaseResult
}

func (EmptyResult) sealed() {}

// IsEmpty reports whether the result is the no-transaction placeholder.
func IsEmpty(r Result) bool {
	_, ok := r.(EmptyResult)
	return ok
}
