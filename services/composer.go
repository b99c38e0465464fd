package services

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"invoicegen-backend/models"
	"invoicegen-backend/utils"
)

// Composer owns one invoice draft for the lifetime of a session's
// invoice stage. The serial number and issue date are fixed at
// construction and never regenerated.
type Composer struct {
	mu        sync.Mutex
	inv       models.Invoice
	rendering bool
}

// NewComposer seeds the draft with a fresh serial number, today's date
// and a single blank line item.
func NewComposer() *Composer {
	return &Composer{inv: models.Invoice{
		SerialNumber: fmt.Sprintf("INV-%d", time.Now().UnixMilli()),
		IssueDate:    time.Now(),
		Items:        []models.LineItem{emptyItem()},
	}}
}

func emptyItem() models.LineItem {
	return models.LineItem{Quantity: "1", Price: "0"}
}

// SeedCustomer prefills the customer block when billing contact details
// carry over from a paid checkout.
func (c *Composer) SeedCustomer(cust models.InvoiceCustomer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inv.Customer = cust
}

func (c *Composer) UpdateCustomerField(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch field {
	case "name":
		c.inv.Customer.Name = value
	case "email":
		c.inv.Customer.Email = value
	case "phone":
		c.inv.Customer.Phone = value
	default:
		return &ValidationError{Msg: "unknown customer field: " + field}
	}
	return nil
}

func (c *Composer) UpdateItem(index int, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.inv.Items) {
		return &ValidationError{Msg: fmt.Sprintf("no item at index %d", index)}
	}
	switch field {
	case "description":
		c.inv.Items[index].Description = value
	case "quantity":
		c.inv.Items[index].Quantity = value
	case "price":
		c.inv.Items[index].Price = value
	default:
		return &ValidationError{Msg: "unknown item field: " + field}
	}
	return nil
}

// AddItem appends a blank line item; display order is insertion order.
func (c *Composer) AddItem() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inv.Items = append(c.inv.Items, emptyItem())
}

// RemoveItem deletes the item at index. Removing the last remaining item
// is refused; an invoice always keeps at least one row.
func (c *Composer) RemoveItem(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inv.Items) == 1 {
		return ErrLastItem
	}
	if index < 0 || index >= len(c.inv.Items) {
		return &ValidationError{Msg: fmt.Sprintf("no item at index %d", index)}
	}
	c.inv.Items = append(c.inv.Items[:index], c.inv.Items[index+1:]...)
	return nil
}

func (c *Composer) SetLogo(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inv.Logo = data
}

// Invoice returns a snapshot of the draft with its own items slice.
func (c *Composer) Invoice() models.Invoice {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.inv
	snap.Items = append([]models.LineItem(nil), c.inv.Items...)
	return snap
}

// ComputeTotal sums quantity times price over the current items at full
// precision. Rounding to two decimals happens only where the total is
// displayed or rendered.
func (c *Composer) ComputeTotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, item := range c.inv.Items {
		total = total.Add(item.Amount())
	}
	return total
}

// beginRender claims this invoice's single render slot; false means one
// is already pending.
func (c *Composer) beginRender() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rendering {
		return false
	}
	c.rendering = true
	return true
}

func (c *Composer) endRender() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rendering = false
}

// Validate checks the draft and reports the first violated rule only.
func (c *Composer) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cust := c.inv.Customer
	if utils.Blank(cust.Name) {
		return &ValidationError{Msg: "customer name is required"}
	}
	if utils.Blank(cust.Email) {
		return &ValidationError{Msg: "customer email is required"}
	}
	if utils.Blank(cust.Phone) {
		return &ValidationError{Msg: "customer phone is required"}
	}
	for i, item := range c.inv.Items {
		n := i + 1
		if utils.Blank(item.Description) {
			return &ValidationError{Msg: fmt.Sprintf("item %d: description is required", n)}
		}
		qty, err := strconv.Atoi(strings.TrimSpace(item.Quantity))
		if err != nil || qty <= 0 {
			return &ValidationError{Msg: fmt.Sprintf("item %d: quantity must be a positive whole number", n)}
		}
		price, err := decimal.NewFromString(strings.TrimSpace(item.Price))
		if err != nil || price.IsNegative() {
			return &ValidationError{Msg: fmt.Sprintf("item %d: price must be a non-negative amount", n)}
		}
	}
	return nil
}
