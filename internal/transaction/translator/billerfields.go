package translator

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/billgate/purchasegw/internal/transaction/domain"
)

// BillerFields extracts the fields needed to create a stored payment template
// from a canonical result. Each biller family stores its identity differently;
// families without a stored-payment identity fail with ErrInvalidBillerFieldsData.
func BillerFields(result domain.Result) (map[string]string, error) {
	switch typed := result.(type) {
	case domain.RocketgateCCResult:
		if typed.CardHash == "" {
			return nil, fmt.Errorf("%w: rocketgate card hash missing", domain.ErrInvalidBillerFieldsData)
		}
		return map[string]string{
			"cardHash":           typed.CardHash,
			"merchantCustomerId": typed.MerchantCustomerID,
			"merchantId":         typed.MerchantID,
		}, nil

	case domain.NetbillingCCResult:
		originID, binRouting, err := decodeNetbillingCardHash(typed.CardHash)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"originId":   originID,
			"binRouting": binRouting,
			"cardHash":   typed.CardHash,
		}, nil

	case domain.EpochCCResult:
		// Later biller steps supersede earlier ones, so the member id is read
		// from the last entry in the collection.
		last := typed.LastBillerTransaction()
		if last == nil || last.MemberID == "" {
			return nil, fmt.Errorf("%w: epoch member id missing", domain.ErrInvalidBillerFieldsData)
		}
		return map[string]string{
			"memberId": last.MemberID,
		}, nil

	default:
		return nil, fmt.Errorf("%w: no template fields for %T", domain.ErrInvalidBillerFieldsData, result)
	}
}

// decodeNetbillingCardHash recovers the routing identity Netbilling encodes
// as base64("originId:binRouting").
func decodeNetbillingCardHash(cardHash string) (string, string, error) {
	decoded, err := base64.StdEncoding.DecodeString(cardHash)
	if err != nil {
		return "", "", fmt.Errorf("%w: netbilling card hash: %v", domain.ErrInvalidBillerFieldsData, err)
	}

	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: netbilling card hash format", domain.ErrInvalidBillerFieldsData)
	}
	return parts[0], parts[1], nil
}
