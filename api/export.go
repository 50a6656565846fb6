package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clarity/middleware"
	"clarity/models"
	"clarity/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// TransactionLister is the read access the exports need
type TransactionLister interface {
	List(ctx context.Context, userID uint, filter store.TransactionFilter) ([]models.Transaction, error)
}

// ExportHandler writes the caller's transactions as files
type ExportHandler struct {
	transactions TransactionLister
}

// NewExportHandler creates the export handler
func NewExportHandler(transactions TransactionLister) *ExportHandler {
	return &ExportHandler{transactions: transactions}
}

var exportHeaders = []string{"ID", "Date", "Type", "Category", "Description", "Amount", "Created At"}

const exportTimeLayout = "2006-01-02 15:04:05"

func (h *ExportHandler) load(c *gin.Context, action string) ([]models.Transaction, bool) {
	userID := middleware.GetCurrentUserID(c)

	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, action, err, transactionNotFound)
		return nil, false
	}

	txs, err := h.transactions.List(storeContext(c), userID, filter)
	if err != nil {
		respondError(c, action, err, transactionNotFound)
		return nil, false
	}
	return txs, true
}

// csvText keeps spreadsheet apps from evaluating user text as a formula.
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func exportFilename(ext string) string {
	return fmt.Sprintf("transactions_%s.%s", time.Now().Format("20060102"), ext)
}

// ExportCSV exports the filtered transactions as CSV
// @Summary Export CSV
// @Description Exports the caller's transactions with the list filters applied
// @Tags export
// @Produce text/csv
// @Security BearerAuth
// @Param type query string false "income or expense"
// @Param category query string false "exact category"
// @Param startDate query string false "inclusive lower bound (YYYY-MM-DD)"
// @Param endDate query string false "inclusive upper bound (YYYY-MM-DD)"
// @Success 200 {file} file "CSV file"
// @Failure 400 {object} Response{data=FieldError} "bad filter"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/transactions/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	txs, ok := h.load(c, "export csv")
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	// BOM so spreadsheet apps detect UTF-8
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	if err := writer.Write(exportHeaders); err != nil {
		respondError(c, "export csv", err, transactionNotFound)
		return
	}
	for _, tx := range txs {
		row := []string{
			strconv.FormatUint(uint64(tx.ID), 10),
			tx.Date.Format(models.DateLayout),
			tx.Type,
			csvText(tx.Category),
			csvText(tx.Description),
			tx.Amount.StringFixed(2),
			tx.CreatedAt.Format(exportTimeLayout),
		}
		if err := writer.Write(row); err != nil {
			respondError(c, "export csv", err, transactionNotFound)
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		respondError(c, "export csv", err, transactionNotFound)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename("csv")))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel exports the filtered transactions as an xlsx workbook with a totals row
// @Summary Export Excel
// @Description Exports the caller's transactions with the list filters applied
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param type query string false "income or expense"
// @Param category query string false "exact category"
// @Param startDate query string false "inclusive lower bound (YYYY-MM-DD)"
// @Param endDate query string false "inclusive upper bound (YYYY-MM-DD)"
// @Success 200 {file} file "xlsx file"
// @Failure 400 {object} Response{data=FieldError} "bad filter"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/transactions/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	txs, ok := h.load(c, "export excel")
	if !ok {
		return
	}

	f, err := buildWorkbook(txs)
	if err != nil {
		respondError(c, "export excel", err, transactionNotFound)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		respondError(c, "export excel", err, transactionNotFound)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename("xlsx")))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

const exportSheet = "Transactions"

var cellBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
}

func buildWorkbook(txs []models.Transaction) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder,
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    cellBorder,
	})
	amountStyle, _ := f.NewStyle(&excelize.Style{
		NumFmt:    2, // 0.00
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    cellBorder,
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		NumFmt:    2,
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    cellBorder,
	})

	widths := map[string]float64{"A": 8, "B": 12, "C": 10, "D": 18, "E": 36, "F": 14, "G": 20}
	for col, w := range widths {
		_ = f.SetColWidth(exportSheet, col, col, w)
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, header)
	}
	_ = f.SetCellStyle(exportSheet, "A1", "G1", headerStyle)

	income, expense := decimal.Zero, decimal.Zero
	for i, tx := range txs {
		row := i + 2
		_ = f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", row), &[]interface{}{
			tx.ID,
			tx.Date.Format(models.DateLayout),
			tx.Type,
			tx.Category,
			tx.Description,
			tx.Amount.InexactFloat64(),
			tx.CreatedAt.Format(exportTimeLayout),
		})
		_ = f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), dataStyle)
		_ = f.SetCellStyle(exportSheet, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), amountStyle)

		if tx.Type == models.TypeIncome {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
	}

	// totals
	row := len(txs) + 2
	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Total income", income},
		{"Total expense", expense},
		{"Balance", income.Sub(expense)},
	}
	for _, t := range totals {
		_ = f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), t.label)
		_ = f.MergeCell(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row))
		_ = f.SetCellValue(exportSheet, fmt.Sprintf("F%d", row), t.value.InexactFloat64())
		_ = f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), summaryStyle)
		row++
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		log.Printf("freeze header row: %v", err)
	}

	return f, nil
}
