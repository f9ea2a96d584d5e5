package domain

import "context"

// Service looks up the authoritative transaction detail for an id.
// Implementations own their transport concerns; callers treat failures as
// generic errors.
type Service interface {
	GetTransactionDataBy(ctx context.Context, transactionID string, sessionID string) (Result, error)
}

// RawBillerTransaction mirrors one biller step in the transaction service payload.
type RawBillerTransaction struct {
	BillerTransactionID string `json:"billerTransactionId"`
	Type                string `json:"type"`
	MemberID            string `json:"memberId"`
}

// RawMember mirrors the member snapshot in the transaction service payload.
type RawMember struct {
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

// RawTransaction is the loosely typed record the transaction service returns.
type RawTransaction struct {
	TransactionID       string                 `json:"transactionId"`
	BillerID            string                 `json:"billerId"`
	BillerName          string                 `json:"billerName"`
	PaymentType         string                 `json:"paymentType"`
	SecuredWithThreeD   bool                   `json:"securedWithThreeD"`
	BillerTransactions  []RawBillerTransaction `json:"billerTransactions"`
	Member              *RawMember             `json:"member"`
	Amount              float64                `json:"amount"`
	RebillAmount        float64                `json:"rebillAmount"`
	CurrencyCode        string                 `json:"currencyCode"`
	Status              string                 `json:"status"`
	CreatedAt           string                 `json:"createdAt"`
	CardHash            string                 `json:"cardHash"`
	MerchantCustomerID  string                 `json:"merchantCustomerId"`
	MerchantID          string                 `json:"merchantId"`
	RoutingNumber       string                 `json:"routingNumber"`
	AccountHash         string                 `json:"accountHash"`
	SavingsAccount      bool                   `json:"savingsAccount"`
	SocialSecurityLast4 string                 `json:"socialSecurityLast4"`
}
