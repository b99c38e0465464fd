package models

import "strings"

// BillingContact is collected field-by-field during checkout and read
// once when building the charge request and the invoice header.
type BillingContact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Complete reports whether every field is non-empty after trimming.
func (b BillingContact) Complete() bool {
	for _, v := range []string{b.Name, b.Email, b.Phone, b.Address} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// CardDetails is raw card input handed to the gateway for tokenization.
// Never persisted or logged.
type CardDetails struct {
	Number   string `json:"number"`
	ExpMonth int64  `json:"expMonth"`
	ExpYear  int64  `json:"expYear"`
	CVC      string `json:"cvc"`
}

// ChargeResult is the outcome of one submission attempt.
type ChargeResult struct {
	Success        bool   `json:"success"`
	ConfirmationID string `json:"confirmationId,omitempty"`
	Reason         string `json:"reason,omitempty"`
}
