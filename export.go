package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{"ID", "Date", "Type", "Category", "Description", "Amount"}

func exportRow(t TransactionDTO) []string {
	date := ""
	if t.Date != nil {
		date = t.Date.UTC().Format(DateTimeLayout)
	}
	return []string{
		fmt.Sprint(t.Id),
		date,
		t.Type,
		t.Category,
		t.Description,
		t.Amount.StringFixed(2),
	}
}

func WriteTransactionsCSV(w io.Writer, items []TransactionDTO) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeaders); err != nil {
		return err
	}
	for _, t := range items {
		if err := writer.Write(exportRow(t)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteTransactionsXLSX(w io.Writer, items []TransactionDTO, summary SummaryDTO) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Transactions"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for idx, t := range items {
		row := idx + 2
		values := exportRow(t)
		for col, v := range values[:len(values)-1] {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		amount, _ := t.Amount.Float64()
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), amount)
	}

	last := len(items) + 3
	totals := [][2]any{
		{"Income", summary.Income.InexactFloat64()},
		{"Expense", summary.Expense.InexactFloat64()},
		{"Balance", summary.Balance.InexactFloat64()},
	}
	for i, kv := range totals {
		f.SetCellValue(sheet, fmt.Sprintf("E%d", last+i), kv[0])
		f.SetCellValue(sheet, fmt.Sprintf("F%d", last+i), kv[1])
	}

	f.SetColWidth(sheet, "B", "B", 20)
	f.SetColWidth(sheet, "D", "D", 15)
	f.SetColWidth(sheet, "E", "E", 30)

	return f.Write(w)
}

func WriteTransactionsPDF(w io.Writer, username string, items []TransactionDTO, summary SummaryDTO) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Money Manager Statement", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Money Manager Statement")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("User: %s", username))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(DateTimeLayout)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(60, 7, fmt.Sprintf("Income: %s", summary.Income.StringFixed(2)))
	pdf.Cell(60, 7, fmt.Sprintf("Expense: %s", summary.Expense.StringFixed(2)))
	pdf.Cell(60, 7, fmt.Sprintf("Balance: %s", summary.Balance.StringFixed(2)))
	pdf.Ln(12)

	widths := []float64{40, 25, 35, 60, 25}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Date", "Type", "Category", "Description", "Amount"} {
		pdf.CellFormat(widths[i], 7, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 10)
	for _, t := range items {
		row := exportRow(t)[1:]
		for i, v := range row {
			align := "L"
			if i == len(row)-1 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, v, "", 0, align, false, 0, "")
		}
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

type exportFormat struct {
	contentType string
	ext         string
}

var exportFormats = map[string]exportFormat{
	"csv":  {"text/csv; charset=utf-8", "csv"},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"},
	"pdf":  {"application/pdf", "pdf"},
}

// renderExport builds the whole file in memory so that a failure can still be
// reported as a JSON error.
func (h *Handler) renderExport(ctx context.Context, format string, userID int64) ([]byte, error) {
	items, err := h.transactions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch format {
	case "csv":
		err = WriteTransactionsCSV(&buf, items)
	case "xlsx", "pdf":
		summary, serr := h.transactions.Summary(ctx, userID)
		if serr != nil {
			return nil, serr
		}
		if format == "xlsx" {
			err = WriteTransactionsXLSX(&buf, items, summary)
			break
		}
		username := fmt.Sprintf("#%d", userID)
		if u, uerr := h.users.GetUser(ctx, userID); uerr == nil {
			username = u.Username
		}
		err = WriteTransactionsPDF(&buf, username, items, summary)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func (h *Handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	ef, ok := exportFormats[format]
	if !ok {
		h.writeError(w, r, fmt.Errorf("%w: unsupported export format %q", ErrValidation, format))
		return
	}

	body, err := h.renderExport(r.Context(), format, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", ef.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%d_%s.%s\"",
		userID, time.Now().Format("20060102"), ef.ext))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
