package translator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/billgate/purchasegw/internal/transaction/domain"
)

// legacyEnvelope wraps transaction payloads produced by the legacy
// third-party flow, which nests the record under a "data" key.
type legacyEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// Translate decodes a raw transaction service payload and selects exactly one
// canonical variant for its (payment type, biller) pair. Unknown pairs fail
// with ErrInvalidResponse; they mean the upstream changed shape and must not
// be retried.
func Translate(payload []byte, legacyThirdParty bool) (domain.Result, error) {
	if legacyThirdParty {
		var envelope legacyEnvelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, fmt.Errorf("%w: legacy envelope: %v", domain.ErrInvalidResponse, err)
		}
		if len(envelope.Data) == 0 {
			return nil, fmt.Errorf("%w: legacy envelope missing data", domain.ErrInvalidResponse)
		}
		payload = envelope.Data
	}

	var raw domain.RawTransaction
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}

	return Normalize(raw)
}

// Normalize maps a decoded transaction record into its canonical variant.
func Normalize(raw domain.RawTransaction) (domain.Result, error) {
	if strings.TrimSpace(raw.TransactionID) == "" {
		return domain.EmptyResult{}, nil
	}

	base := baseFrom(raw)
	biller := strings.ToLower(strings.TrimSpace(raw.BillerName))

	switch strings.ToLower(strings.TrimSpace(raw.PaymentType)) {
	case domain.PaymentTypeCC:
		switch biller {
		case domain.BillerRocketgate:
			return domain.RocketgateCCResult{
				BaseResult:         base,
				CardHash:           raw.CardHash,
				MerchantCustomerID: raw.MerchantCustomerID,
				MerchantID:         raw.MerchantID,
			}, nil
		case domain.BillerNetbilling:
			return domain.NetbillingCCResult{
				BaseResult: base,
				CardHash:   raw.CardHash,
			}, nil
		case domain.BillerEpoch:
			return domain.EpochCCResult{BaseResult: base}, nil
		default:
			return nil, fmt.Errorf("%w: cc biller %q", domain.ErrInvalidResponse, raw.BillerName)
		}
	case domain.PaymentTypeChecks:
		switch biller {
		case domain.BillerRocketgate:
			return domain.RocketgateCheckResult{
				BaseResult:          base,
				RoutingNumber:       raw.RoutingNumber,
				AccountHash:         raw.AccountHash,
				SavingsAccount:      raw.SavingsAccount,
				SocialSecurityLast4: raw.SocialSecurityLast4,
			}, nil
		default:
			return nil, fmt.Errorf("%w: checks biller %q", domain.ErrInvalidResponse, raw.BillerName)
		}
	default:
		return nil, fmt.Errorf("%w: payment type %q", domain.ErrInvalidResponse, raw.PaymentType)
	}
}

func baseFrom(raw domain.RawTransaction) domain.BaseResult {
	steps := make([]domain.BillerTransaction, 0, len(raw.BillerTransactions))
	for _, step := range raw.BillerTransactions {
		steps = append(steps, domain.BillerTransaction{
			BillerTransactionID: step.BillerTransactionID,
			Type:                strings.ToLower(strings.TrimSpace(step.Type)),
			MemberID:            step.MemberID,
		})
	}

	var member *domain.Member
	if raw.Member != nil {
		member = &domain.Member{
			FirstName: raw.Member.FirstName,
			LastName:  raw.Member.LastName,
			Email:     raw.Member.Email,
			Address:   raw.Member.Address,
			City:      raw.Member.City,
			State:     raw.Member.State,
			Zip:       raw.Member.Zip,
			Country:   raw.Member.Country,
			Phone:     raw.Member.Phone,
		}
	}

	createdAt := time.Time{}
	if raw.CreatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, raw.CreatedAt); err == nil {
			createdAt = parsed.UTC()
		}
	}

	return domain.BaseResult{
		TransactionID:      raw.TransactionID,
		BillerID:           raw.BillerID,
		BillerName:         strings.ToLower(strings.TrimSpace(raw.BillerName)),
		PaymentType:        strings.ToLower(strings.TrimSpace(raw.PaymentType)),
		SecuredWithThreeD:  raw.SecuredWithThreeD,
		BillerTransactions: steps,
		Member:             member,
		Amount:             raw.Amount,
		RebillAmount:       raw.RebillAmount,
		CurrencyCode:       strings.ToUpper(strings.TrimSpace(raw.CurrencyCode)),
		Status:             strings.ToLower(strings.TrimSpace(raw.Status)),
		CreatedAt:          createdAt,
	}
}
