// controllers/invoice.go
package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"invoicegen-backend/services"
	"invoicegen-backend/utils"
)

// InvoiceController edits the session's invoice draft and renders the
// final document.
type InvoiceController struct {
	Render *services.RenderService
}

// CustomerFieldInput defines the expected JSON structure for a customer edit
type CustomerFieldInput struct {
	Field string `json:"field" binding:"required,oneof=name email phone"`
	Value string `json:"value"`
}

// ItemFieldInput defines the expected JSON structure for a line item edit
type ItemFieldInput struct {
	Field string `json:"field" binding:"required,oneof=description quantity price"`
	Value string `json:"value"`
}

func (ic *InvoiceController) composer(c *gin.Context) *services.Composer {
	comp := currentPipeline(c).Composer()
	if comp == nil {
		utils.RespondWithError(c, http.StatusConflict, "Invoice stage not active")
	}
	return comp
}

// GetInvoice returns the draft plus its recomputed total.
func (ic *InvoiceController) GetInvoice(c *gin.Context) {
	comp := ic.composer(c)
	if comp == nil {
		return
	}

	inv := comp.Invoice()
	c.JSON(http.StatusOK, gin.H{
		"serialNumber": inv.SerialNumber,
		"issueDate":    inv.IssueDate.Format("1/2/2006"),
		"customer":     inv.Customer,
		"items":        inv.Items,
		"total":        comp.ComputeTotal().StringFixed(2),
		"hasLogo":      len(inv.Logo) > 0,
	})
}

// UpdateCustomer sets one customer header field.
func (ic *InvoiceController) UpdateCustomer(c *gin.Context) {
	comp := ic.composer(c)
	if comp == nil {
		return
	}

	var input CustomerFieldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := comp.UpdateCustomerField(input.Field, input.Value); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": comp.ComputeTotal().StringFixed(2)})
}

// AddItem appends a blank line item.
func (ic *InvoiceController) AddItem(c *gin.Context) {
	comp := ic.composer(c)
	if comp == nil {
		return
	}
	comp.AddItem()
	c.JSON(http.StatusOK, gin.H{"items": comp.Invoice().Items})
}

// UpdateItem sets one field of the item at :index.
func (ic *InvoiceController) UpdateItem(c *gin.Context) {
	comp := ic.composer(c)
	if comp == nil {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid item index")
		return
	}

	var input ItemFieldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := comp.UpdateItem(index, input.Field, input.Value); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": comp.ComputeTotal().StringFixed(2)})
}

// RemoveItem deletes the item at :index; the last remaining item cannot
// be removed.
func (ic *InvoiceController) RemoveItem(c *gin.Context) {
	comp := ic.composer(c)
	if comp == nil {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid item index")
		return
	}

	if err := comp.RemoveItem(index); err != nil {
		if errors.Is(err, services.ErrLastItem) {
			utils.RespondWithError(c, http.StatusConflict, "An invoice must keep at least one item")
		} else {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": comp.Invoice().Items})
}

// UploadLogo stores the optional logo image on the draft.
func (ic *InvoiceController) UploadLogo(c *gin.Context) {
	comp := ic.composer(c)
	if comp == nil {
		return
	}

	file, err := c.FormFile("logo")
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "A logo file is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Failed to read logo file")
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Failed to read logo file")
		return
	}

	comp.SetLogo(data)
	c.JSON(http.StatusOK, gin.H{"hasLogo": true})
}

// RenderInvoice validates the draft and streams the rendered PDF under
// its fixed download name.
func (ic *InvoiceController) RenderInvoice(c *gin.Context) {
	comp := ic.composer(c)
	if comp == nil {
		return
	}

	pdf, err := ic.Render.Render(comp)
	if err != nil {
		var vErr *services.ValidationError
		var aErr *services.AssetLoadError
		switch {
		case errors.As(err, &vErr):
			utils.RespondWithError(c, http.StatusBadRequest, vErr.Msg)
		case errors.Is(err, services.ErrRenderInProgress):
			utils.RespondWithError(c, http.StatusConflict, "A render is already in progress")
		case errors.As(err, &aErr):
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load invoice background")
		default:
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to render invoice")
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+services.InvoiceFilename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
