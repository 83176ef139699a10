package http

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	billing "smartpark-iot/internal/billing/domain"
)

const reportDateLayout = "Jan 02, 2006"

var reservationCSVHeader = []string{"ID", "Slot", "Type", "User Email", "Date", "Status", "Duration (h)", "Amount", "Payment"}

func reservationRow(r billing.Reservation) []string {
	email := r.UserEmail
	if email == "" {
		email = "-"
	}
	amount := "-"
	if r.Amount != 0 {
		amount = "₹" + strconv.Itoa(r.Amount)
	}
	return []string{
		r.ID,
		r.SlotLabel,
		r.SlotType,
		email,
		r.ReservationDate.Format(reportDateLayout),
		string(r.Status),
		strconv.Itoa(r.DurationHours),
		amount,
		string(r.PaymentStatus),
	}
}

// WriteReservationsCSV writes the report rows with a header line.
func WriteReservationsCSV(w io.Writer, items []billing.Reservation) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(reservationCSVHeader); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write(reservationRow(item)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// BuildReservationsXLSX renders the report as a workbook with summary and items sheets.
func BuildReservationsXLSX(items []billing.Reservation, summary billing.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	itemsSheet := "reservations"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Reservation Report")
	_ = f.SetCellValue(summarySheet, "A3", "Reservations")
	_ = f.SetCellValue(summarySheet, "B3", len(items))
	_ = f.SetCellValue(summarySheet, "A4", "Completed")
	_ = f.SetCellValue(summarySheet, "B4", summary.Completed)
	_ = f.SetCellValue(summarySheet, "A5", "Active")
	_ = f.SetCellValue(summarySheet, "B5", summary.Active)
	_ = f.SetCellValue(summarySheet, "A6", "Total Revenue (INR)")
	_ = f.SetCellValue(summarySheet, "B6", summary.TotalRevenue)

	for col, title := range reservationCSVHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(itemsSheet, cell, title)
	}
	for i, item := range items {
		row := i + 2
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), item.ID)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.SlotLabel)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), item.SlotType)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), item.UserEmail)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("E%d", row), item.ReservationDate.Format(reportDateLayout))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("F%d", row), string(item.Status))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("G%d", row), item.DurationHours)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("H%d", row), item.Amount)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("I%d", row), string(item.PaymentStatus))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Parking Receipt</title>
<style>
body { font-family: Arial, sans-serif; max-width: 480px; margin: 40px auto; }
.receipt { border: 1px solid #ddd; padding: 20px; border-radius: 8px; }
.header { text-align: center; border-bottom: 2px solid #333; padding-bottom: 12px; margin-bottom: 16px; }
.logo { font-size: 22px; font-weight: bold; }
.row { display: flex; justify-content: space-between; margin: 8px 0; }
.total { font-weight: bold; border-top: 1px solid #ddd; padding-top: 8px; }
.paid { color: green; font-weight: bold; }
.footer { text-align: center; font-size: 12px; color: #666; margin-top: 16px; }
</style>
</head>
<body>
<div class="receipt">
<div class="header"><div class="logo">SmartParkIoT</div><div>Parking Receipt</div></div>
<div class="row"><span>Receipt ID:</span><span>{{.ID}}</span></div>
<div class="row"><span>Parking Spot:</span><span>{{.SlotLabel}} ({{.SlotType}})</span></div>
<div class="row"><span>Date &amp; Time:</span><span>{{.CreatedAt.Format "Jan 02, 2006 15:04 MST"}}</span></div>
<div class="row"><span>Duration:</span><span>{{.Hours}} hour(s)</span></div>
<div class="row"><span>Rate:</span><span>₹{{.Rate}}/hour</span></div>
<div class="row total"><span>Total Amount:</span><span>₹{{.Amount}}</span></div>
<div class="row"><span>Status:</span><span class="paid">PAID</span></div>
<div class="footer"><p>Thank you for using SmartParkIoT</p><p>This is an auto-generated receipt</p></div>
</div>
</body>
</html>
`))

// RenderReceiptHTML writes a standalone HTML receipt.
func RenderReceiptHTML(w io.Writer, receipt billing.Receipt) error {
	return receiptTemplate.Execute(w, receipt)
}

// BuildReceiptPDF renders a one-page PDF receipt.
func BuildReceiptPDF(receipt billing.Receipt) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetFont("Arial", "B", 16)
	pdf.AddPage()

	pdf.CellFormat(0, 10, "SmartParkIoT", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, "Parking Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Receipt ID", receipt.ID},
		{"Parking Spot", fmt.Sprintf("%s (%s)", receipt.SlotLabel, receipt.SlotType)},
		{"Date & Time", receipt.CreatedAt.Format(time.RFC1123)},
		{"Duration", fmt.Sprintf("%d hour(s)", receipt.Hours)},
		{"Rate", fmt.Sprintf("INR %d/hour", receipt.Rate)},
	}
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.CellFormat(40, 7, row[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, row[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(40, 9, "Total Amount:", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, fmt.Sprintf("INR %d", receipt.Amount), "T", 1, "R", false, 0, "")
	pdf.SetTextColor(0, 128, 0)
	pdf.CellFormat(0, 8, "PAID", "", 1, "R", false, 0, "")
	pdf.SetTextColor(100, 100, 100)
	pdf.SetFont("Arial", "", 8)
	pdf.Ln(6)
	pdf.CellFormat(0, 5, "Thank you for using SmartParkIoT", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "This is an auto-generated receipt", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
