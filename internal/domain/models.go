package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillType string

const (
	BillTypeRetail    BillType = "retail"
	BillTypeWholesale BillType = "wholesale"
)

func (t BillType) Valid() bool {
	return t == BillTypeRetail || t == BillTypeWholesale
}

type Bill struct {
	ID              string          `json:"id"`
	BillNumber      string          `json:"bill_number"`
	Type            BillType        `json:"type"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	CustomerAddress string          `json:"customer_address,omitempty"`
	Items           []BillLine      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Tax             decimal.Decimal `json:"tax"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BillLine is the denormalised copy of a sold row. InventoryItemID is set
// only when the row was picked from the catalog.
type BillLine struct {
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Total           decimal.Decimal `json:"total"`
	InventoryItemID *int64          `json:"inventory_item_id,omitempty"`
}

type StockStatus string

const (
	StockStatusOut StockStatus = "out-of-stock"
	StockStatusLow StockStatus = "low-stock"
	StockStatusIn  StockStatus = "in-stock"
)

func (s StockStatus) Valid() bool {
	return s == StockStatusOut || s == StockStatusLow || s == StockStatusIn
}

type InventoryItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	Unit        string          `json:"unit"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (i InventoryItem) Status() StockStatus {
	switch {
	case i.Stock <= 0:
		return StockStatusOut
	case i.Stock <= i.MinStock:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

func (i InventoryItem) Value() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Stock)))
}

// Withdraw takes qty units out of stock. Stock never goes below zero.
func (i *InventoryItem) Withdraw(qty int) {
	i.Stock -= qty
	if i.Stock < 0 {
		i.Stock = 0
	}
}

type TransactionType string

const (
	TransactionBillSale       TransactionType = "bill_sale"
	TransactionOpeningBalance TransactionType = "opening_balance"
	TransactionClosingBalance TransactionType = "closing_balance"
)

// StockTransaction is an append-only audit record. Which of the entry slices
// is populated depends on Type.
type StockTransaction struct {
	ID         string           `json:"id"`
	Type       TransactionType  `json:"type"`
	CreatedAt  time.Time        `json:"created_at"`
	BillID     string           `json:"bill_id,omitempty"`
	BillNumber string           `json:"bill_number,omitempty"`
	Sales      []SaleEntry      `json:"sales,omitempty"`
	Openings   []OpeningEntry   `json:"openings,omitempty"`
	Closings   []ClosingEntry   `json:"closings,omitempty"`
	TotalValue *decimal.Decimal `json:"total_value,omitempty"`
}

type SaleEntry struct {
	ItemID         int64  `json:"item_id"`
	ItemName       string `json:"item_name"`
	QuantitySold   int    `json:"quantity_sold"`
	RemainingStock int    `json:"remaining_stock"`
}

type OpeningEntry struct {
	ItemID     int64  `json:"item_id"`
	ItemName   string `json:"item_name"`
	OldStock   int    `json:"old_stock"`
	NewStock   int    `json:"new_stock"`
	Difference int    `json:"difference"`
}

type ClosingEntry struct {
	ItemID     int64           `json:"item_id"`
	ItemName   string          `json:"item_name"`
	Category   string          `json:"category"`
	Stock      int             `json:"stock"`
	MinStock   int             `json:"min_stock"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalValue decimal.Decimal `json:"total_value"`
	Unit       string          `json:"unit"`
	Status     StockStatus     `json:"status"`
}

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
)

// BootstrapUserID is the default administrator seeded at first run.
const BootstrapUserID int64 = 1

type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      UserRole   `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Session is the persisted "logged-in user" record.
type Session struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	StartedAt time.Time `json:"started_at"`
}

type Settings struct {
	BillLimit        int    `json:"bill_limit"`
	CurrentBillCount int    `json:"current_bill_count"`
	CompanyName      string `json:"company_name"`
	CompanyAddress   string `json:"company_address"`
	CompanyPhone     string `json:"company_phone"`
	CompanyEmail     string `json:"company_email"`
}

// Changeset names the collections one ledger operation rewrites. Nil fields
// are left as they are in storage.
type Changeset struct {
	Bills        []Bill
	Inventory    []InventoryItem
	Transactions []StockTransaction
	Users        []User
	Settings     *Settings

	billsSet        bool
	inventorySet    bool
	transactionsSet bool
	usersSet        bool
	clearSession    bool
}

func (c *Changeset) SetBills(v []Bill) {
	c.Bills, c.billsSet = v, true
}

func (c *Changeset) SetInventory(v []InventoryItem) {
	c.Inventory, c.inventorySet = v, true
}

func (c *Changeset) SetTransactions(v []StockTransaction) {
	c.Transactions, c.transactionsSet = v, true
}

func (c *Changeset) SetUsers(v []User) {
	c.Users, c.usersSet = v, true
}

// ClearSession drops the logged-in user record together with the rest of
// the changeset.
func (c *Changeset) ClearSession() {
	c.clearSession = true
}

func (c Changeset) HasBills() bool        { return c.billsSet }
func (c Changeset) HasInventory() bool    { return c.inventorySet }
func (c Changeset) HasTransactions() bool { return c.transactionsSet }
func (c Changeset) HasUsers() bool        { return c.usersSet }
func (c Changeset) ClearsSession() bool   { return c.clearSession }

func (c Changeset) Empty() bool {
	return !c.billsSet && !c.inventorySet && !c.transactionsSet && !c.usersSet && c.Settings == nil && !c.clearSession
}
