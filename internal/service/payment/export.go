package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const exportSheet = "Payments"

var exportHeaders = []string{
	"ID", "User ID", "Reservation ID", "Amount", "Status", "Payment Type",
	"PayPal Transaction", "Discount Code", "Failure Reason", "Paid At", "Created At",
}

// Export renders every payment matching filter as an XLSX workbook.
func (s *Service) Export(ctx context.Context, filter model.PaymentFilter) ([]byte, error) {
	payments, err := s.listAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, style); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, p := range payments {
		row := []interface{}{
			p.ID.String(),
			p.UserID.String(),
			p.ReservationID.String(),
			p.Amount,
			string(p.Status),
			string(p.PaymentType),
			deref(p.PaypalTransactionID),
			deref(p.DiscountCode),
			deref(p.FailureReason),
			formatTime(p.PaymentTimestamp),
			p.CreatedAt.Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "C", 38)
	_ = f.SetColWidth(exportSheet, "D", "F", 14)
	_ = f.SetColWidth(exportSheet, "G", "K", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) listAll(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, error) {
	filter.PageSize = model.MaxPageSize
	var all []*model.Payment
	for page := 1; ; page++ {
		filter.Page = page
		batch, err := s.payments.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list payments for export: %w", err)
		}
		all = append(all, batch...)
		if len(batch) < filter.Limit() {
			return all, nil
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
