package excel

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"billing/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var ErrEmptyFile = errors.New("input file is empty")

var headerAliases = map[string]string{
	"name":          "name",
	"item":          "name",
	"item name":     "name",
	"product":       "name",
	"product name":  "name",
	"category":      "category",
	"price":         "price",
	"unit price":    "price",
	"sell price":    "price",
	"stock":         "stock",
	"quantity":      "stock",
	"qty":           "stock",
	"min stock":     "min_stock",
	"minimum stock": "min_stock",
	"reorder level": "min_stock",
	"alarm":         "min_stock",
	"unit":          "unit",
	"uom":           "unit",
	"description":   "description",
	"notes":         "description",
}

// ParseCatalogRows reads catalog rows from an .xlsx or .csv upload. The
// first row is the header; name and price columns are required. Files with
// an unknown extension are tried as xlsx and then as csv.
func ParseCatalogRows(fileName string, reader io.Reader) ([]ledger.ItemInput, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	switch strings.ToLower(strings.TrimSpace(filepath.Ext(fileName))) {
	case ".csv":
		rows, err := parseCSVRows(data)
		if err != nil {
			return nil, err
		}
		return parseCatalogTable(rows)
	case ".xlsx", ".xlsm":
		rows, err := parseExcelRows(data)
		if err != nil {
			return nil, err
		}
		return parseCatalogTable(rows)
	default:
		if rows, err := parseExcelRows(data); err == nil {
			return parseCatalogTable(rows)
		}
		rows, err := parseCSVRows(data)
		if err != nil {
			return nil, fmt.Errorf("unsupported or invalid catalog file format")
		}
		return parseCatalogTable(rows)
	}
}

func parseCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv rows: %w", err)
	}
	return rows, nil
}

func parseExcelRows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	return rows, nil
}

func parseCatalogTable(rows [][]string) ([]ledger.ItemInput, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	colMap := mapColumns(rows[0])
	for _, required := range []string{"name", "price"} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	result := make([]ledger.ItemInput, 0, len(rows)-1)
	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		name := strings.TrimSpace(readCell(cells, colMap["name"]))
		if name == "" {
			continue
		}

		price, err := parsePrice(readCell(cells, colMap["price"]))
		if err != nil {
			return nil, fmt.Errorf("row %d invalid price: %w", index+1, err)
		}

		item := ledger.ItemInput{
			Name:        name,
			Price:       price,
			Category:    readOptional(cells, colMap, "category"),
			Unit:        readOptional(cells, colMap, "unit"),
			Description: readOptional(cells, colMap, "description"),
		}
		if raw := readOptional(cells, colMap, "stock"); raw != "" {
			if item.Stock, err = parseInt(raw); err != nil {
				return nil, fmt.Errorf("row %d invalid stock: %w", index+1, err)
			}
		}
		if raw := readOptional(cells, colMap, "min_stock"); raw != "" {
			if item.MinStock, err = parseInt(raw); err != nil {
				return nil, fmt.Errorf("row %d invalid min_stock: %w", index+1, err)
			}
		}
		result = append(result, item)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("catalog file has no valid data rows")
	}
	return result, nil
}

func mapColumns(header []string) map[string]int {
	mapped := make(map[string]int)
	for idx, col := range header {
		normalized := normalizeHeader(col)
		if normalized == "" {
			continue
		}
		canonical, ok := headerAliases[normalized]
		if !ok {
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", " ")
	value = strings.Join(strings.Fields(value), " ")
	return value
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func readOptional(row []string, colMap map[string]int, key string) string {
	idx, ok := colMap[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(readCell(row, idx))
}

func parseInt(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}

	asFloat, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.Mod(asFloat, 1) != 0 {
		return 0, fmt.Errorf("must be an integer")
	}
	if asFloat < math.MinInt32 || asFloat > math.MaxInt32 {
		return 0, fmt.Errorf("out of range")
	}
	return int(asFloat), nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, fmt.Errorf("value is empty")
	}
	value = strings.TrimPrefix(value, "$")
	parsed, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number")
	}
	return parsed, nil
}
