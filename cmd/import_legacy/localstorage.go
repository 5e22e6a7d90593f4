package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"billing/internal/domain"
	"billing/internal/repository"

	"github.com/shopspring/decimal"
)

// legacyDump is an export of the browser app's localStorage. Each key holds
// either the stored string (JSON inside a JSON string) or the decoded value.
type legacyDump map[string]json.RawMessage

type legacyBill struct {
	ID              json.Number      `json:"id"`
	BillNumber      string           `json:"billNumber"`
	Type            string           `json:"type"`
	CustomerName    string           `json:"customerName"`
	CustomerPhone   string           `json:"customerPhone"`
	CustomerAddress string           `json:"customerAddress"`
	Items           []legacyBillItem `json:"items"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	Discount        decimal.Decimal  `json:"discount"`
	DiscountAmount  decimal.Decimal  `json:"discountAmount"`
	Tax             decimal.Decimal  `json:"tax"`
	TaxAmount       decimal.Decimal  `json:"taxAmount"`
	Total           decimal.Decimal  `json:"total"`
	Notes           string           `json:"notes"`
	Date            string           `json:"date"`
}

type legacyBillItem struct {
	Name            string          `json:"name"`
	Quantity        float64         `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Total           decimal.Decimal `json:"total"`
	InventoryItemID *json.Number    `json:"inventoryItemId"`
}

type legacyItem struct {
	ID          json.Number     `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"minStock"`
	Unit        string          `json:"unit"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"createdAt"`
}

type legacyTransaction struct {
	ID         json.Number      `json:"id"`
	Type       string           `json:"type"`
	BillID     json.Number      `json:"billId"`
	BillNumber string           `json:"billNumber"`
	Date       string           `json:"date"`
	Entries    []legacyEntry    `json:"items"`
	TotalValue *decimal.Decimal `json:"totalValue"`
}

// legacyEntry is the union of the sale, opening and closing row shapes.
type legacyEntry struct {
	ItemID         json.Number     `json:"itemId"`
	ItemName       string          `json:"itemName"`
	QuantitySold   int             `json:"quantitySold"`
	RemainingStock int             `json:"remainingStock"`
	OldStock       int             `json:"oldStock"`
	NewStock       int             `json:"newStock"`
	Difference     int             `json:"difference"`
	Category       string          `json:"category"`
	CurrentStock   int             `json:"currentStock"`
	MinStock       int             `json:"minStock"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	Unit           string          `json:"unit"`
	Status         string          `json:"status"`
}

type legacyUser struct {
	ID        json.Number `json:"id"`
	Username  string      `json:"username"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      string      `json:"role"`
	Status    string      `json:"status"`
	CreatedAt string      `json:"createdAt"`
}

type legacySettings struct {
	BillLimit      int    `json:"billLimit"`
	CompanyName    string `json:"companyName"`
	CompanyAddress string `json:"companyAddress"`
	CompanyPhone   string `json:"companyPhone"`
	CompanyEmail   string `json:"companyEmail"`
}

type importSummary struct {
	Bills        int
	Items        int
	Transactions int
	Users        int
	Settings     bool
}

func readDump(r io.Reader) (legacyDump, error) {
	var dump legacyDump
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return nil, fmt.Errorf("decode localStorage dump: %w", err)
	}
	return dump, nil
}

func (d legacyDump) decode(key string, dst any) (bool, error) {
	raw, ok := d[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if raw[0] == '"' {
		var stored string
		if err := json.Unmarshal(raw, &stored); err != nil {
			return false, fmt.Errorf("decode %s: %w", key, err)
		}
		raw = json.RawMessage(stored)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// convertDump maps the localStorage collections onto ledger records. Bills,
// inventory and transactions are always part of the changeset; users and
// settings only when the dump holds them. The logged-in user record is not
// carried over.
func convertDump(dump legacyDump, now time.Time) (domain.Changeset, importSummary, error) {
	var (
		cs      domain.Changeset
		summary importSummary
	)

	var rawBills []legacyBill
	if _, err := dump.decode(repository.KeyBills, &rawBills); err != nil {
		return cs, summary, err
	}
	bills := make([]domain.Bill, 0, len(rawBills))
	seenBills := make(map[string]bool, len(rawBills))
	for i, raw := range rawBills {
		bill, err := convertBill(raw)
		if err != nil {
			return cs, summary, fmt.Errorf("bill %d: %w", i+1, err)
		}
		if seenBills[bill.ID] {
			return cs, summary, fmt.Errorf("bill %d: duplicate id %s", i+1, bill.ID)
		}
		seenBills[bill.ID] = true
		bills = append(bills, bill)
	}
	cs.SetBills(bills)
	summary.Bills = len(bills)

	var rawItems []legacyItem
	if _, err := dump.decode(repository.KeyInventory, &rawItems); err != nil {
		return cs, summary, err
	}
	items := make([]domain.InventoryItem, 0, len(rawItems))
	seenItems := make(map[int64]bool, len(rawItems))
	for i, raw := range rawItems {
		item, err := convertItem(raw, now)
		if err != nil {
			return cs, summary, fmt.Errorf("inventory item %d: %w", i+1, err)
		}
		if seenItems[item.ID] {
			return cs, summary, fmt.Errorf("inventory item %d: duplicate id %d", i+1, item.ID)
		}
		seenItems[item.ID] = true
		items = append(items, item)
	}
	cs.SetInventory(items)
	summary.Items = len(items)

	var rawTxs []legacyTransaction
	if _, err := dump.decode(repository.KeyTransactions, &rawTxs); err != nil {
		return cs, summary, err
	}
	txs := make([]domain.StockTransaction, 0, len(rawTxs))
	for i, raw := range rawTxs {
		tx, err := convertTransaction(raw)
		if err != nil {
			return cs, summary, fmt.Errorf("stock transaction %d: %w", i+1, err)
		}
		txs = append(txs, tx)
	}
	cs.SetTransactions(txs)
	summary.Transactions = len(txs)

	var rawUsers []legacyUser
	found, err := dump.decode(repository.KeyUsers, &rawUsers)
	if err != nil {
		return cs, summary, err
	}
	if found {
		users, err := convertUsers(rawUsers, now)
		if err != nil {
			return cs, summary, err
		}
		cs.SetUsers(users)
		summary.Users = len(users)
	}

	var rawSettings legacySettings
	found, err = dump.decode(repository.KeySettings, &rawSettings)
	if err != nil {
		return cs, summary, err
	}
	if found {
		if rawSettings.BillLimit < 1 {
			return cs, summary, fmt.Errorf("settings: bill limit %d must be at least 1", rawSettings.BillLimit)
		}
		cs.Settings = &domain.Settings{
			BillLimit:        rawSettings.BillLimit,
			CurrentBillCount: len(bills),
			CompanyName:      strings.TrimSpace(rawSettings.CompanyName),
			CompanyAddress:   strings.TrimSpace(rawSettings.CompanyAddress),
			CompanyPhone:     strings.TrimSpace(rawSettings.CompanyPhone),
			CompanyEmail:     strings.TrimSpace(rawSettings.CompanyEmail),
		}
		summary.Settings = true
	}

	return cs, summary, nil
}

func convertBill(raw legacyBill) (domain.Bill, error) {
	id, err := legacyID(raw.ID)
	if err != nil {
		return domain.Bill{}, err
	}
	billType := domain.BillType(strings.ToLower(strings.TrimSpace(raw.Type)))
	if !billType.Valid() {
		return domain.Bill{}, fmt.Errorf("unknown bill type %q", raw.Type)
	}
	if strings.TrimSpace(raw.BillNumber) == "" {
		return domain.Bill{}, fmt.Errorf("bill number is missing")
	}
	createdAt, err := legacyTime(raw.Date, time.UnixMilli(id))
	if err != nil {
		return domain.Bill{}, err
	}

	lines := make([]domain.BillLine, 0, len(raw.Items))
	for i, item := range raw.Items {
		if item.Quantity != float64(int(item.Quantity)) {
			return domain.Bill{}, fmt.Errorf("line %d: quantity %v is not a whole number", i+1, item.Quantity)
		}
		line := domain.BillLine{
			Name:     strings.TrimSpace(item.Name),
			Quantity: int(item.Quantity),
			Price:    item.Price,
			Total:    item.Total,
		}
		if item.InventoryItemID != nil {
			itemID, err := legacyID(*item.InventoryItemID)
			if err != nil {
				return domain.Bill{}, fmt.Errorf("line %d: %w", i+1, err)
			}
			line.InventoryItemID = &itemID
		}
		lines = append(lines, line)
	}

	return domain.Bill{
		ID:              strconv.FormatInt(id, 10),
		BillNumber:      strings.TrimSpace(raw.BillNumber),
		Type:            billType,
		CustomerName:    strings.TrimSpace(raw.CustomerName),
		CustomerPhone:   strings.TrimSpace(raw.CustomerPhone),
		CustomerAddress: strings.TrimSpace(raw.CustomerAddress),
		Items:           lines,
		Subtotal:        raw.Subtotal,
		Discount:        raw.Discount,
		DiscountAmount:  raw.DiscountAmount,
		Tax:             raw.Tax,
		TaxAmount:       raw.TaxAmount,
		Total:           raw.Total,
		Notes:           strings.TrimSpace(raw.Notes),
		CreatedAt:       createdAt,
	}, nil
}

func convertItem(raw legacyItem, now time.Time) (domain.InventoryItem, error) {
	id, err := legacyID(raw.ID)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	createdAt, err := legacyTime(raw.CreatedAt, now)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	return domain.InventoryItem{
		ID:          id,
		Name:        strings.TrimSpace(raw.Name),
		Category:    strings.TrimSpace(raw.Category),
		Price:       raw.Price,
		Stock:       max(raw.Stock, 0),
		MinStock:    max(raw.MinStock, 0),
		Unit:        strings.TrimSpace(raw.Unit),
		Description: strings.TrimSpace(raw.Description),
		CreatedAt:   createdAt,
	}, nil
}

func convertTransaction(raw legacyTransaction) (domain.StockTransaction, error) {
	id, err := legacyID(raw.ID)
	if err != nil {
		return domain.StockTransaction{}, err
	}
	createdAt, err := legacyTime(raw.Date, time.UnixMilli(id))
	if err != nil {
		return domain.StockTransaction{}, err
	}
	tx := domain.StockTransaction{
		ID:         strconv.FormatInt(id, 10),
		Type:       domain.TransactionType(raw.Type),
		CreatedAt:  createdAt,
		BillID:     raw.BillID.String(),
		BillNumber: raw.BillNumber,
	}

	for i, e := range raw.Entries {
		itemID, err := legacyID(e.ItemID)
		if err != nil {
			return domain.StockTransaction{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		switch tx.Type {
		case domain.TransactionBillSale:
			tx.Sales = append(tx.Sales, domain.SaleEntry{
				ItemID:         itemID,
				ItemName:       e.ItemName,
				QuantitySold:   e.QuantitySold,
				RemainingStock: e.RemainingStock,
			})
		case domain.TransactionOpeningBalance:
			tx.Openings = append(tx.Openings, domain.OpeningEntry{
				ItemID:     itemID,
				ItemName:   e.ItemName,
				OldStock:   e.OldStock,
				NewStock:   e.NewStock,
				Difference: e.Difference,
			})
		case domain.TransactionClosingBalance:
			if status := domain.StockStatus(e.Status); !status.Valid() {
				return domain.StockTransaction{}, fmt.Errorf("row %d: unknown stock status %q", i+1, e.Status)
			}
			tx.Closings = append(tx.Closings, domain.ClosingEntry{
				ItemID:     itemID,
				ItemName:   e.ItemName,
				Category:   e.Category,
				Stock:      e.CurrentStock,
				MinStock:   e.MinStock,
				UnitPrice:  e.UnitPrice,
				TotalValue: e.TotalValue,
				Unit:       e.Unit,
				Status:     domain.StockStatus(e.Status),
			})
		}
	}

	switch tx.Type {
	case domain.TransactionBillSale, domain.TransactionOpeningBalance:
	case domain.TransactionClosingBalance:
		tx.TotalValue = raw.TotalValue
	default:
		return domain.StockTransaction{}, fmt.Errorf("unknown transaction type %q", raw.Type)
	}
	return tx, nil
}

func convertUsers(raw []legacyUser, now time.Time) ([]domain.User, error) {
	users := make([]domain.User, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, u := range raw {
		id, err := legacyID(u.ID)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", i+1, err)
		}
		username := strings.TrimSpace(u.Username)
		if username == "" {
			return nil, fmt.Errorf("user %d: username is missing", i+1)
		}
		key := strings.ToLower(username)
		if seen[key] {
			return nil, fmt.Errorf("user %d: duplicate username %q", i+1, username)
		}
		seen[key] = true

		role := domain.UserRole(strings.ToLower(strings.TrimSpace(u.Role)))
		if role != domain.RoleAdmin && role != domain.RoleUser {
			return nil, fmt.Errorf("user %d: unknown role %q", i+1, u.Role)
		}
		status := domain.UserStatus(strings.ToLower(strings.TrimSpace(u.Status)))
		switch status {
		case "":
			status = domain.StatusActive
		case domain.StatusActive, domain.StatusInactive:
		default:
			return nil, fmt.Errorf("user %d: unknown status %q", i+1, u.Status)
		}
		createdAt, err := legacyTime(u.CreatedAt, now)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", i+1, err)
		}

		users = append(users, domain.User{
			ID:        id,
			Username:  username,
			Name:      strings.TrimSpace(u.Name),
			Email:     strings.TrimSpace(u.Email),
			Role:      role,
			Status:    status,
			CreatedAt: createdAt,
		})
	}
	return users, nil
}

// legacyID reads a Date.now() style numeric id.
func legacyID(n json.Number) (int64, error) {
	if n == "" {
		return 0, fmt.Errorf("id is missing")
	}
	id, err := n.Int64()
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id %s is not a positive integer", n)
	}
	return id, nil
}

// legacyTime parses toISOString output, using fallback when the field is
// empty.
func legacyTime(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t.UTC(), nil
}
