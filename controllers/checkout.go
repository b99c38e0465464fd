// controllers/checkout.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invoicegen-backend/config"
	"invoicegen-backend/models"
	"invoicegen-backend/services"
	"invoicegen-backend/utils"
)

// CheckoutController drives the session's checkout state machine and
// serves the server-side charge relay.
type CheckoutController struct {
	Gateway services.Charger
	Cfg     *config.Config
}

// ContactFieldInput defines the expected JSON structure for a contact edit
type ContactFieldInput struct {
	Field string `json:"field" binding:"required,oneof=name email phone address"`
	Value string `json:"value"`
}

// CardInput defines the expected JSON structure for card details
type CardInput struct {
	Number   string `json:"number" binding:"required"`
	ExpMonth int64  `json:"expMonth" binding:"required,min=1,max=12"`
	ExpYear  int64  `json:"expYear" binding:"required"`
	CVC      string `json:"cvc" binding:"required"`
}

// RelayInput defines the expected JSON structure for the charge relay.
// There is deliberately no amount field; the charge amount comes from
// the plan, server-side.
type RelayInput struct {
	PaymentMethodID string `json:"paymentMethodId" binding:"required"`
	SelectedPlan    string `json:"selectedPlan" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	Address         string `json:"address" binding:"required"`
}

func (cc *CheckoutController) machine(c *gin.Context) *services.CheckoutMachine {
	m := currentPipeline(c).Checkout()
	if m == nil {
		utils.RespondWithError(c, http.StatusConflict, "No payment in progress")
	}
	return m
}

// SetContactField updates one billing contact field.
func (cc *CheckoutController) SetContactField(c *gin.Context) {
	m := cc.machine(c)
	if m == nil {
		return
	}

	var input ContactFieldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := m.SetContactField(input.Field, input.Value); err != nil {
		respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": m.State()})
}

// ProceedToCard moves from contact to card collection when every contact
// field is filled.
func (cc *CheckoutController) ProceedToCard(c *gin.Context) {
	m := cc.machine(c)
	if m == nil {
		return
	}
	if err := m.ProceedToCard(); err != nil {
		respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": m.State()})
}

// Back returns to the contact step, keeping the entered values.
func (cc *CheckoutController) Back(c *gin.Context) {
	m := cc.machine(c)
	if m == nil {
		return
	}
	if err := m.Back(); err != nil {
		respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": m.State()})
}

// SetCard stores the card details for the next submission.
func (cc *CheckoutController) SetCard(c *gin.Context) {
	m := cc.machine(c)
	if m == nil {
		return
	}

	var input CardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := m.SetCard(models.CardDetails{
		Number:   input.Number,
		ExpMonth: input.ExpMonth,
		ExpYear:  input.ExpYear,
		CVC:      input.CVC,
	}); err != nil {
		respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": m.State()})
}

// Submit runs one tokenize-then-charge attempt. Declines come back with
// status 200 and the failed state; they are pipeline outcomes, not
// request errors.
func (cc *CheckoutController) Submit(c *gin.Context) {
	p := currentPipeline(c)
	m := p.Checkout()
	if m == nil {
		utils.RespondWithError(c, http.StatusConflict, "No payment in progress")
		return
	}

	result, err := m.Submit(c.Request.Context())
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	if !result.Success {
		c.JSON(http.StatusOK, gin.H{"state": m.State(), "error": result.Reason})
		return
	}

	if err := p.CompleteCheckout(); err != nil {
		utils.RespondWithError(c, http.StatusConflict, "Checkout is no longer active")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":          m.State(),
		"stage":          p.Stage(),
		"confirmationId": result.ConfirmationID,
	})
}

// Cancel abandons the checkout and returns the session to plan
// selection.
func (cc *CheckoutController) Cancel(c *gin.Context) {
	p := currentPipeline(c)
	if err := p.CancelCheckout(); err != nil {
		utils.RespondWithError(c, http.StatusConflict, "No payment in progress")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stage": p.Stage()})
}

// Relay is the server-side charge endpoint the state machine posts to.
// It confirms the charge with the gateway secret and the fixed per-plan
// amount; a client-supplied amount is never accepted.
func (cc *CheckoutController) Relay(c *gin.Context) {
	var input RelayInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if !strings.EqualFold(input.SelectedPlan, string(models.PlanPaid)) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "selected plan does not require payment"})
		return
	}

	intentID, err := cc.Gateway.ConfirmCharge(c.Request.Context(),
		input.PaymentMethodID, cc.Cfg.PaidPlanAmountCents, cc.Cfg.Currency)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "paymentIntent": intentID})
}

func respondCheckoutError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		utils.RespondWithError(c, http.StatusBadRequest, vErr.Msg)
	case errors.Is(err, services.ErrSubmitInProgress):
		utils.RespondWithError(c, http.StatusConflict, "A submission is already in progress")
	case errors.Is(err, services.ErrGatewayNotReady):
		utils.RespondWithError(c, http.StatusConflict, "Payment gateway not ready")
	case errors.Is(err, services.ErrStale):
		utils.RespondWithError(c, http.StatusConflict, "Checkout was cancelled")
	default:
		utils.RespondWithError(c, http.StatusConflict, "Operation not allowed in current checkout state")
	}
}
