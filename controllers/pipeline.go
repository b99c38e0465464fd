// controllers/pipeline.go
package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invoicegen-backend/config"
	"invoicegen-backend/models"
	"invoicegen-backend/utils"
)

// PipelineController exposes plan selection and the pipeline status the
// presentation layer renders from.
type PipelineController struct {
	Cfg *config.Config
}

// ClientConfig hands the presentation layer the publishable gateway key
// and currency. The secret key never leaves the server.
func (pc *PipelineController) ClientConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stripePublishableKey": pc.Cfg.StripePublishableKey,
		"currency":             pc.Cfg.Currency,
	})
}

// SelectPlanInput defines the expected JSON structure for choosing a plan
type SelectPlanInput struct {
	Plan string `json:"plan" binding:"required,oneof=free paid Free Paid"`
}

// SelectPlan records the chosen tier and advances the pipeline stage.
func (pc *PipelineController) SelectPlan(c *gin.Context) {
	var input SelectPlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	plan := models.PlanFree
	if strings.EqualFold(input.Plan, string(models.PlanPaid)) {
		plan = models.PlanPaid
	}

	p := currentPipeline(c)
	if err := p.SelectPlan(plan); err != nil {
		utils.RespondWithError(c, http.StatusConflict, "A plan has already been selected")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stage": p.Stage(), "plan": p.Plan()})
}

// Status reports the coarse pipeline stage plus the checkout state, so
// the UI is a pure function of this response.
func (pc *PipelineController) Status(c *gin.Context) {
	p := currentPipeline(c)

	out := gin.H{"stage": p.Stage()}
	if plan := p.Plan(); plan != "" {
		out["plan"] = plan
	}
	if m := p.Checkout(); m != nil {
		out["checkoutState"] = m.State()
		if reason := m.FailureReason(); reason != "" {
			out["checkoutError"] = reason
		}
	}

	c.JSON(http.StatusOK, out)
}

// Reset discards the session's pipeline back to plan selection.
func (pc *PipelineController) Reset(c *gin.Context) {
	p := currentPipeline(c)
	p.Reset()
	c.JSON(http.StatusOK, gin.H{"stage": p.Stage()})
}
