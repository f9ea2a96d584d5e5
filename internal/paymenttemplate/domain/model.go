package domain

import "context"

// PaymentTemplate is a stored payment method created from biller-specific fields.
type PaymentTemplate struct {
	TemplateID   string            `json:"templateId"`
	BillerName   string            `json:"billerName"`
	BillerFields map[string]string `json:"billerFields"`
}

// Service retrieves stored payment templates from the template vault.
type Service interface {
	Retrieve(ctx context.Context, templateID string, sessionID string) (*PaymentTemplate, error)
}
