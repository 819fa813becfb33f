package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"

	"cylinder-backend/internal/models"
	"cylinder-backend/internal/repositories"
)

// ReceiptService renders payment receipts as PDF.
type ReceiptService struct {
	Payments  *repositories.PaymentRepository
	Customers *repositories.CustomerRepository
}

func NewReceiptService(payments *repositories.PaymentRepository, customers *repositories.CustomerRepository) *ReceiptService {
	return &ReceiptService{Payments: payments, Customers: customers}
}

// PaymentReceipt generates a one-page receipt for the given payment ID.
func (s *ReceiptService) PaymentReceipt(ctx context.Context, paymentID string) ([]byte, error) {
	payment, err := s.Payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	customer, err := s.Customers.Get(ctx, payment.CustomerID)
	if err != nil {
		return nil, err
	}
	return renderPaymentReceipt(payment, customer)
}

func renderPaymentReceipt(p *models.Payment, c *models.Customer) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(180, 12, "Payment Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(180, 6, fmt.Sprintf("Receipt No: %s", p.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(180, 6, fmt.Sprintf("Date: %s", p.CreatedAt.Format("02 Jan 2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	// Customer block
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(180, 8, "Customer Details", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(50, 7, "Name", "1", 0, "L", false, 0, "")
	pdf.CellFormat(130, 7, c.Name, "1", 1, "L", false, 0, "")
	pdf.CellFormat(50, 7, "Phone", "1", 0, "L", false, 0, "")
	pdf.CellFormat(130, 7, c.Phone, "1", 1, "L", false, 0, "")
	if c.Address != "" {
		pdf.CellFormat(50, 7, "Address", "1", 0, "L", false, 0, "")
		pdf.CellFormat(130, 7, c.Address, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Payment block
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(180, 8, "Payment Details", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(50, 7, "Amount Received", "1", 0, "L", false, 0, "")
	pdf.CellFormat(130, 7, fmt.Sprintf("Rs. %s", p.Amount.StringFixed(0)), "1", 1, "L", false, 0, "")
	if p.SaleID != "" {
		pdf.CellFormat(50, 7, "Against Sale", "1", 0, "L", false, 0, "")
		pdf.CellFormat(130, 7, p.SaleID, "1", 1, "L", false, 0, "")
	}
	if p.Notes != "" {
		pdf.CellFormat(50, 7, "Notes", "1", 0, "L", false, 0, "")
		pdf.CellFormat(130, 7, p.Notes, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Balance after this payment, as currently recorded.
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(50, 8, "Outstanding Balance", "1", 0, "L", true, 0, "")
	pdf.CellFormat(130, 8, fmt.Sprintf("Rs. %s", c.OutstandingBalance.StringFixed(0)), "1", 1, "L", false, 0, "")

	pdf.Ln(15)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(180, 6, "This is a computer generated receipt.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate receipt PDF: %w", err)
	}
	return buf.Bytes(), nil
}
