package services

import (
	"context"
	"sync"

	"invoicegen-backend/models"
)

// CheckoutState names a step of the payment checkout flow.
type CheckoutState string

const (
	StateCollectingContact CheckoutState = "collecting_contact"
	StateCollectingCard    CheckoutState = "collecting_card"
	StateSubmitting        CheckoutState = "submitting"
	StateSucceeded         CheckoutState = "succeeded"
	StateFailed            CheckoutState = "failed"
	StateCancelled         CheckoutState = "cancelled"
)

// CheckoutMachine drives one paid checkout: contact collection, card
// collection, then a single in-flight submission through the tokenizer
// and the charge relay. Failed is not terminal; the user resubmits from
// the card step or cancels.
type CheckoutMachine struct {
	mu             sync.Mutex
	state          CheckoutState
	plan           models.Plan
	contact        models.BillingContact
	card           *models.CardDetails
	attempt        uint64
	lastError      string
	confirmationID string

	tokenizer Tokenizer
	relay     ChargeRelay
}

func NewCheckoutMachine(plan models.Plan, tokenizer Tokenizer, relay ChargeRelay) *CheckoutMachine {
	return &CheckoutMachine{
		state:     StateCollectingContact,
		plan:      plan,
		tokenizer: tokenizer,
		relay:     relay,
	}
}

func (m *CheckoutMachine) State() CheckoutState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// FailureReason returns the message of the last failed attempt, empty
// once a new attempt starts.
func (m *CheckoutMachine) FailureReason() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

func (m *CheckoutMachine) ConfirmationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmationID
}

func (m *CheckoutMachine) Contact() models.BillingContact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contact
}

// SetContactField updates one billing contact field during the contact
// step.
func (m *CheckoutMachine) SetContactField(field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCollectingContact {
		return ErrWrongState
	}
	switch field {
	case "name":
		m.contact.Name = value
	case "email":
		m.contact.Email = value
	case "phone":
		m.contact.Phone = value
	case "address":
		m.contact.Address = value
	default:
		return &ValidationError{Msg: "unknown contact field: " + field}
	}
	return nil
}

// ProceedToCard advances to card collection. The transition is refused,
// without entering Failed, while any contact field is blank after
// trimming.
func (m *CheckoutMachine) ProceedToCard() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCollectingContact {
		return ErrWrongState
	}
	if !m.contact.Complete() {
		return &ValidationError{Msg: "all contact fields are required"}
	}
	m.state = StateCollectingCard
	return nil
}

// Back returns to the contact step, keeping everything already entered.
// It is only available from the card step; after a failed attempt the
// choices are resubmitting or cancelling.
func (m *CheckoutMachine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCollectingCard {
		return ErrWrongState
	}
	m.state = StateCollectingContact
	return nil
}

// SetCard stores the card input for the next submission.
func (m *CheckoutMachine) SetCard(card models.CardDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCollectingCard && m.state != StateFailed {
		return ErrWrongState
	}
	m.card = &card
	return nil
}

// Submit runs one tokenize-then-charge attempt. A second trigger while
// one is in flight is rejected, so a single user action can never
// produce two charge requests. The charge is only sent after a
// successful tokenization that has not been superseded by a cancel.
func (m *CheckoutMachine) Submit(ctx context.Context) (models.ChargeResult, error) {
	m.mu.Lock()
	if m.state == StateSubmitting {
		m.mu.Unlock()
		return models.ChargeResult{}, ErrSubmitInProgress
	}
	if m.state != StateCollectingCard && m.state != StateFailed {
		m.mu.Unlock()
		return models.ChargeResult{}, ErrWrongState
	}
	if m.tokenizer == nil || m.relay == nil || m.card == nil {
		m.mu.Unlock()
		return models.ChargeResult{}, ErrGatewayNotReady
	}
	m.state = StateSubmitting
	m.lastError = ""
	attempt := m.attempt
	card := *m.card
	contact := m.contact
	plan := m.plan
	m.mu.Unlock()

	handle, err := m.tokenizer.Tokenize(ctx, card)
	if err != nil {
		return m.fail(attempt, err.Error())
	}
	if m.superseded(attempt) {
		return models.ChargeResult{}, ErrStale
	}

	result, err := m.relay.Charge(ctx, ChargeRequest{
		PaymentMethodID: handle,
		SelectedPlan:    plan,
		Name:            contact.Name,
		Email:           contact.Email,
		Phone:           contact.Phone,
		Address:         contact.Address,
	})
	if err != nil {
		return m.fail(attempt, ErrNetwork.Error())
	}
	if !result.Success {
		return m.fail(attempt, result.Reason)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempt != attempt || m.state != StateSubmitting {
		return models.ChargeResult{}, ErrStale
	}
	m.state = StateSucceeded
	m.confirmationID = result.ConfirmationID
	return result, nil
}

// Cancel abandons the checkout and discards everything entered. Bumping
// the attempt counter invalidates any submission still in flight, so a
// late gateway result is dropped instead of applied.
func (m *CheckoutMachine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateSucceeded || m.state == StateCancelled {
		return ErrWrongState
	}
	m.attempt++
	m.state = StateCancelled
	m.contact = models.BillingContact{}
	m.card = nil
	m.lastError = ""
	return nil
}

func (m *CheckoutMachine) fail(attempt uint64, reason string) (models.ChargeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempt != attempt || m.state != StateSubmitting {
		return models.ChargeResult{}, ErrStale
	}
	m.state = StateFailed
	m.lastError = reason
	return models.ChargeResult{Success: false, Reason: reason}, nil
}

func (m *CheckoutMachine) superseded(attempt uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempt != attempt || m.state != StateSubmitting
}
