package services

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"invoicegen-backend/models"
)

// Page geometry and text positions, in millimetres on an A4 portrait
// page. The layout is fixed-pitch: each item line advances the cursor by
// lineStep with no reflow.
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	marginX    = 20.0
	marginY    = 20.0
	lineStep   = 10.0

	serialY        = marginY + 50
	dateY          = marginY + 60
	customerHeadY  = marginY + 80
	customerNameY  = marginY + 90
	customerEmailY = marginY + 100
	customerPhoneY = marginY + 110
	itemsHeadY     = marginY + 130
	itemsStartY    = marginY + 140

	headingFontSize = 14.0
	bodyFontSize    = 12.0
)

// InvoiceFilename is the fixed download name for rendered documents.
const InvoiceFilename = "invoice.pdf"

// DocumentRenderer is the drawing surface the layout writes to. NextPage
// starts a fresh page, repainting the background, when the cursor runs
// out of room.
type DocumentRenderer interface {
	AddBackgroundImage(img []byte, pageW, pageH float64) error
	DrawText(text string, x, y, fontSize float64)
	NextPage() error
	Output() ([]byte, error)
}

// pdfRenderer draws with gofpdf onto A4 pages.
type pdfRenderer struct {
	pdf *gofpdf.Fpdf
	bg  []byte
}

func newPDFRenderer() *pdfRenderer {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", bodyFontSize)
	pdf.AddPage()
	return &pdfRenderer{pdf: pdf}
}

func (r *pdfRenderer) AddBackgroundImage(img []byte, pageW, pageH float64) error {
	r.bg = img
	return r.paintBackground(pageW, pageH)
}

func (r *pdfRenderer) paintBackground(pageW, pageH float64) error {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	r.pdf.RegisterImageOptionsReader("invoice-background", opts, bytes.NewReader(r.bg))
	r.pdf.ImageOptions("invoice-background", 0, 0, pageW, pageH, false, opts, 0, "")
	return r.pdf.Error()
}

func (r *pdfRenderer) DrawText(text string, x, y, fontSize float64) {
	r.pdf.SetFontSize(fontSize)
	r.pdf.Text(x, y, text)
}

func (r *pdfRenderer) NextPage() error {
	r.pdf.AddPage()
	if r.bg != nil {
		return r.paintBackground(pageWidth, pageHeight)
	}
	return nil
}

func (r *pdfRenderer) Output() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderService turns a validated invoice draft into a PDF document.
// Each invoice allows one render in flight at a time; a second request
// for the same invoice is rejected until the first completes. Renders of
// unrelated invoices proceed independently.
type RenderService struct {
	assets      *AssetCache
	newRenderer func() DocumentRenderer
}

func NewRenderService(assets *AssetCache) *RenderService {
	return &RenderService{
		assets:      assets,
		newRenderer: func() DocumentRenderer { return newPDFRenderer() },
	}
}

// Render validates the draft, loads the cached background and lays the
// invoice out. An asset load failure aborts the attempt; re-invoking
// Render retries it.
func (s *RenderService) Render(c *Composer) ([]byte, error) {
	if !c.beginRender() {
		return nil, ErrRenderInProgress
	}
	defer c.endRender()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	bg, err := s.assets.Background()
	if err != nil {
		return nil, err
	}

	r := s.newRenderer()
	if err := r.AddBackgroundImage(bg, pageWidth, pageHeight); err != nil {
		return nil, err
	}
	if err := layoutInvoice(r, c.Invoice(), c.ComputeTotal()); err != nil {
		return nil, err
	}
	return r.Output()
}

// layoutInvoice draws top to bottom: header, customer block, items
// heading, one line per item, then the total. Items advance a running
// cursor; when it would pass the bottom margin the cursor carries over
// to the top of a fresh page.
func layoutInvoice(r DocumentRenderer, inv models.Invoice, total decimal.Decimal) error {
	r.DrawText("Invoice Serial Number: "+inv.SerialNumber, marginX, serialY, bodyFontSize)
	r.DrawText("Date: "+inv.IssueDate.Format("1/2/2006"), marginX, dateY, bodyFontSize)

	r.DrawText("Customer Details:", marginX, customerHeadY, headingFontSize)
	r.DrawText("Name: "+inv.Customer.Name, marginX, customerNameY, bodyFontSize)
	r.DrawText("Email: "+inv.Customer.Email, marginX, customerEmailY, bodyFontSize)
	r.DrawText("Phone: "+inv.Customer.Phone, marginX, customerPhoneY, bodyFontSize)

	r.DrawText("Items:", marginX, itemsHeadY, headingFontSize)

	y := itemsStartY
	var err error
	for i, item := range inv.Items {
		if y, err = fitLine(r, y); err != nil {
			return err
		}
		line := fmt.Sprintf("%d. %s - Quantity: %s, Price: $%s",
			i+1, item.Description, item.Quantity, item.Price)
		r.DrawText(line, marginX, y, bodyFontSize)
		y += lineStep
	}

	y += lineStep
	if y, err = fitLine(r, y); err != nil {
		return err
	}
	r.DrawText("Total Amount: $"+total.StringFixed(2), marginX, y, headingFontSize)
	return nil
}

// fitLine returns a cursor position with room left on the current page,
// starting a new one when the bottom margin is exhausted.
func fitLine(r DocumentRenderer, y float64) (float64, error) {
	if y <= pageHeight-marginY {
		return y, nil
	}
	if err := r.NextPage(); err != nil {
		return 0, err
	}
	return marginY, nil
}
