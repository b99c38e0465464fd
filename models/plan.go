package models

// Plan is the tier the user picked on the pricing page. It is immutable
// once chosen and only reset by an explicit cancellation.
type Plan string

const (
	PlanFree Plan = "Free"
	PlanPaid Plan = "Paid"
)

// RequiresPayment reports whether checkout must run before the invoice
// stage.
func (p Plan) RequiresPayment() bool {
	return p == PlanPaid
}

// Stage is the coarse phase of the checkout-to-invoice flow.
type Stage string

const (
	StagePlanSelection   Stage = "plan_selection"
	StagePaymentCheckout Stage = "payment_checkout"
	StageInvoice         Stage = "invoice"
)
