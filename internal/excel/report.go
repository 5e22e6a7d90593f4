package excel

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"billing/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetInventory    = "Inventory"
	SheetBills        = "Bills"
	SheetBillItems    = "Bill Items"
	SheetTransactions = "Stock Transactions"
	SheetClosing      = "Closing Balance"

	dateLayout = "2006-01-02"
)

var ErrNotClosingBalance = errors.New("transaction is not a closing balance")

// ReportData is the read-only snapshot exported to a workbook.
type ReportData struct {
	Inventory    []domain.InventoryItem
	Bills        []domain.Bill
	Transactions []domain.StockTransaction
}

// WriteReport writes the full export workbook. The inventory sheet is always
// present; the bill and transaction sheets only when there is data for them.
func WriteReport(w io.Writer, data ReportData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetInventory); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	rows := [][]any{{"Item Name", "Category", "Unit Price", "Current Stock", "Unit", "Min Stock", "Stock Value", "Status", "Description", "Created Date"}}
	for _, item := range data.Inventory {
		rows = append(rows, []any{
			item.Name,
			item.Category,
			money(item.Price),
			item.Stock,
			item.Unit,
			item.MinStock,
			money(item.Value()),
			statusTitle(item.Status()),
			item.Description,
			item.CreatedAt.Format(dateLayout),
		})
	}
	if err := writeRows(f, SheetInventory, rows); err != nil {
		return err
	}

	if len(data.Bills) > 0 {
		bills := [][]any{{"Bill Number", "Type", "Customer Name", "Customer Phone", "Date", "Items Count", "Subtotal", "Discount %", "Tax %", "Total Amount", "Notes"}}
		lines := [][]any{{"Bill Number", "Customer", "Item Name", "Quantity", "Unit Price", "Total", "Date"}}
		for _, bill := range data.Bills {
			date := bill.CreatedAt.Format(dateLayout)
			bills = append(bills, []any{
				bill.BillNumber,
				string(bill.Type),
				bill.CustomerName,
				bill.CustomerPhone,
				date,
				len(bill.Items),
				money(bill.Subtotal),
				bill.Discount.InexactFloat64(),
				bill.Tax.InexactFloat64(),
				money(bill.Total),
				bill.Notes,
			})
			for _, line := range bill.Items {
				lines = append(lines, []any{
					bill.BillNumber,
					bill.CustomerName,
					line.Name,
					line.Quantity,
					money(line.Price),
					money(line.Total),
					date,
				})
			}
		}
		if err := addSheet(f, SheetBills, bills); err != nil {
			return err
		}
		if err := addSheet(f, SheetBillItems, lines); err != nil {
			return err
		}
	}

	if len(data.Transactions) > 0 {
		rows := [][]any{{"Transaction ID", "Type", "Date", "Item Name", "Old Stock", "New Stock", "Difference", "Status"}}
		for _, tx := range data.Transactions {
			rows = append(rows, transactionRows(tx)...)
		}
		if err := addSheet(f, SheetTransactions, rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write report workbook: %w", err)
	}
	return nil
}

// WriteClosingBalance writes one closing_balance snapshot with a TOTAL row.
func WriteClosingBalance(w io.Writer, tx domain.StockTransaction) error {
	if tx.Type != domain.TransactionClosingBalance {
		return ErrNotClosingBalance
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetClosing); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	rows := [][]any{{"Item Name", "Category", "Current Stock", "Unit", "Unit Price", "Stock Value", "Min Stock", "Status"}}
	for _, e := range tx.Closings {
		rows = append(rows, []any{
			e.ItemName,
			e.Category,
			e.Stock,
			e.Unit,
			money(e.UnitPrice),
			money(e.TotalValue),
			e.MinStock,
			statusUpper(e.Status),
		})
	}
	total := decimal.Zero
	if tx.TotalValue != nil {
		total = *tx.TotalValue
	}
	rows = append(rows, []any{"TOTAL", "", "", "", "", money(total), "", ""})
	if err := writeRows(f, SheetClosing, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write closing balance workbook: %w", err)
	}
	return nil
}

func transactionRows(tx domain.StockTransaction) [][]any {
	kind := strings.ToUpper(strings.Replace(string(tx.Type), "_", " ", 1))
	date := tx.CreatedAt.Format(dateLayout)

	var rows [][]any
	for _, e := range tx.Sales {
		rows = append(rows, []any{tx.ID, kind, date, e.ItemName, e.RemainingStock + e.QuantitySold, e.RemainingStock, -e.QuantitySold, ""})
	}
	for _, e := range tx.Openings {
		rows = append(rows, []any{tx.ID, kind, date, e.ItemName, e.OldStock, e.NewStock, e.Difference, ""})
	}
	for _, e := range tx.Closings {
		rows = append(rows, []any{tx.ID, kind, date, e.ItemName, e.Stock, e.Stock, 0, string(e.Status)})
	}
	return rows
}

func addSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return writeRows(f, name, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	return domain.RoundMoney(d).InexactFloat64()
}

func statusTitle(s domain.StockStatus) string {
	switch s {
	case domain.StockStatusOut:
		return "Out of Stock"
	case domain.StockStatusLow:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

func statusUpper(s domain.StockStatus) string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "-", " "))
}
