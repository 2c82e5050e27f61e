// Package export renders booking listings as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
)

const (
	sheetName   = "Bookings"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var columns = []string{"ID", "Name", "Email", "Hall", "Date", "Start", "End", "Status", "Payment", "Total Fee", "Slip"}

// WriteBookings writes one header row and one row per booking, dates in loc.
func WriteBookings(w io.Writer, bookings []domain.Booking, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		end, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheetName, "A1", end, style)
	}

	for r, b := range bookings {
		slip := "none"
		if b.HasSlip() {
			slip = "attached"
		}
		row := []interface{}{
			b.ID, b.Name, b.Email, b.Hall,
			domain.DateOf(b.Date, loc).String(),
			b.StartTime, b.EndTime,
			string(b.Status), string(b.PaymentStatus),
			b.TotalFee, slip,
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	return f.Write(w)
}
