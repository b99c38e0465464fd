package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem holds one invoice row. Quantity and Price keep the raw form
// input; they are parsed when validating and totalling so a half-typed
// value never breaks an edit.
type LineItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
}

// Amount returns quantity times price at full precision, or zero while
// either field does not parse yet.
func (li LineItem) Amount() decimal.Decimal {
	qty, err := strconv.ParseInt(strings.TrimSpace(li.Quantity), 10, 64)
	if err != nil {
		return decimal.Zero
	}
	price, err := decimal.NewFromString(strings.TrimSpace(li.Price))
	if err != nil {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(qty))
}

// InvoiceCustomer is the customer block printed in the invoice header.
type InvoiceCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Invoice is the session-local draft the composer edits. The serial
// number and issue date are fixed when the composer is created; the
// total is never stored, always recomputed from Items.
type Invoice struct {
	SerialNumber string          `json:"serialNumber"`
	IssueDate    time.Time       `json:"issueDate"`
	Customer     InvoiceCustomer `json:"customer"`
	Items        []LineItem      `json:"items"`
	Logo         []byte          `json:"-"`
}
