package ledger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"billing/internal/domain"

	"github.com/shopspring/decimal"
)

// LineInput is one submitted bill row: either a CatalogLine picked from the
// inventory or a FreehandLine typed by the user.
type LineInput interface {
	lineInput()
}

type CatalogLine struct {
	ItemID   int64
	Quantity int
	Price    decimal.Decimal
}

type FreehandLine struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

func (CatalogLine) lineInput()  {}
func (FreehandLine) lineInput() {}

type BillInput struct {
	Type            domain.BillType
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Lines           []LineInput
	Discount        decimal.Decimal
	Tax             decimal.Decimal
	Notes           string
}

type BillSort string

const (
	SortByDate     BillSort = "date"
	SortByAmount   BillSort = "amount"
	SortByCustomer BillSort = "customer"
)

type BillFilter struct {
	Search string
	Type   domain.BillType
	SortBy BillSort
}

type Overview struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalBills       int             `json:"total_bills"`
	RetailBills      int             `json:"retail_bills"`
	WholesaleBills   int             `json:"wholesale_bills"`
	BillLimit        int             `json:"bill_limit"`
	CurrentBillCount int             `json:"current_bill_count"`
	NearLimit        bool            `json:"near_limit"`
	RecentBills      []domain.Bill   `json:"recent_bills"`
}

// CreateBill validates the submission, checks stock for every catalog line
// and then records the bill, the stock decrements and the bill_sale
// transaction in one commit.
func (l *Ledger) CreateBill(ctx context.Context, in BillInput) (domain.Bill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.bills) >= l.settings.BillLimit {
		return domain.Bill{}, ErrLimitReached
	}
	if !in.Type.Valid() {
		return domain.Bill{}, invalid("bill type must be retail or wholesale")
	}
	customer := strings.TrimSpace(in.CustomerName)
	if customer == "" {
		return domain.Bill{}, ErrMissingCustomer
	}
	if err := validateRates(in.Discount, in.Tax); err != nil {
		return domain.Bill{}, err
	}

	lines, err := l.resolveLines(in.Lines, true)
	if err != nil {
		return domain.Bill{}, err
	}

	inventory := slices.Clone(l.inventory)
	if err := checkStock(inventory, lines, l.findItem); err != nil {
		return domain.Bill{}, err
	}

	now := l.now().UTC()
	number, stamp := l.nextBillNumber(in.Type, now)
	totals := CalculateTotals(lines, in.Discount, in.Tax)
	bill := domain.Bill{
		ID:              l.newID(),
		BillNumber:      number,
		Type:            in.Type,
		CustomerName:    customer,
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		Items:           lines,
		Subtotal:        totals.Subtotal,
		Discount:        in.Discount,
		DiscountAmount:  totals.DiscountAmount,
		Tax:             in.Tax,
		TaxAmount:       totals.TaxAmount,
		Total:           totals.Total,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
	}

	var sold []int64
	for _, line := range lines {
		if line.InventoryItemID == nil {
			continue
		}
		idx := l.findItem(inventory, *line.InventoryItemID)
		inventory[idx].Withdraw(line.Quantity)
		sold = append(sold, *line.InventoryItemID)
	}

	bills := make([]domain.Bill, 0, len(l.bills)+1)
	bills = append(bills, l.bills...)
	bills = append(bills, bill)

	settings := l.settings
	settings.CurrentBillCount = len(bills)

	var cs domain.Changeset
	cs.SetBills(bills)
	cs.Settings = &settings
	if len(sold) > 0 {
		sale := domain.StockTransaction{
			ID:         l.newID(),
			Type:       domain.TransactionBillSale,
			CreatedAt:  now,
			BillID:     bill.ID,
			BillNumber: bill.BillNumber,
		}
		for _, line := range lines {
			if line.InventoryItemID == nil {
				continue
			}
			item := inventory[l.findItem(inventory, *line.InventoryItemID)]
			sale.Sales = append(sale.Sales, domain.SaleEntry{
				ItemID:         item.ID,
				ItemName:       item.Name,
				QuantitySold:   line.Quantity,
				RemainingStock: item.Stock,
			})
		}
		cs.SetInventory(inventory)
		cs.SetTransactions(l.appendTransaction(sale))
	}

	if err := l.commit(ctx, cs); err != nil {
		return domain.Bill{}, err
	}
	l.lastBillStamp = stamp

	l.log.Info().
		Str("bill_id", bill.ID).
		Str("bill_number", bill.BillNumber).
		Str("type", string(bill.Type)).
		Int("lines", len(bill.Items)).
		Str("total", domain.FormatMoney(bill.Total)).
		Msg("bill created")
	return bill, nil
}

// PreviewBill computes totals for a draft without validating stock or
// committing anything.
func (l *Ledger) PreviewBill(in BillInput) (Totals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := validateRates(in.Discount, in.Tax); err != nil {
		return Totals{}, err
	}
	lines, err := l.resolveLines(in.Lines, false)
	if err != nil {
		return Totals{}, err
	}
	return CalculateTotals(lines, in.Discount, in.Tax), nil
}

// DraftBill builds the bill CreateBill would record, without the limit and
// stock checks and without committing. The draft has no ID.
func (l *Ledger) DraftBill(in BillInput) (domain.Bill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !in.Type.Valid() {
		return domain.Bill{}, invalid("bill type must be retail or wholesale")
	}
	customer := strings.TrimSpace(in.CustomerName)
	if customer == "" {
		return domain.Bill{}, ErrMissingCustomer
	}
	if err := validateRates(in.Discount, in.Tax); err != nil {
		return domain.Bill{}, err
	}
	lines, err := l.resolveLines(in.Lines, true)
	if err != nil {
		return domain.Bill{}, err
	}

	now := l.now().UTC()
	number, _ := l.nextBillNumber(in.Type, now)
	totals := CalculateTotals(lines, in.Discount, in.Tax)
	return domain.Bill{
		BillNumber:      number,
		Type:            in.Type,
		CustomerName:    customer,
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		Items:           lines,
		Subtotal:        totals.Subtotal,
		Discount:        in.Discount,
		DiscountAmount:  totals.DiscountAmount,
		Tax:             in.Tax,
		TaxAmount:       totals.TaxAmount,
		Total:           totals.Total,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
	}, nil
}

func validateRates(discount, tax decimal.Decimal) error {
	if discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(100)) {
		return invalid("discount must be between 0 and 100")
	}
	if tax.IsNegative() {
		return invalid("tax cannot be negative")
	}
	return nil
}

// resolveLines drops incomplete rows and turns the rest into bill lines,
// copying the catalog name for catalog rows. With strict set, unknown
// catalog items and an empty result are errors; otherwise such rows are
// skipped.
func (l *Ledger) resolveLines(inputs []LineInput, strict bool) ([]domain.BillLine, error) {
	lines := make([]domain.BillLine, 0, len(inputs))
	var missing []int64
	for _, input := range inputs {
		switch in := input.(type) {
		case FreehandLine:
			name := strings.TrimSpace(in.Name)
			if !lineComplete(name, in.Quantity, in.Price) {
				continue
			}
			lines = append(lines, domain.BillLine{
				Name:     name,
				Quantity: in.Quantity,
				Price:    in.Price,
				Total:    lineTotal(in.Quantity, in.Price),
			})
		case CatalogLine:
			if in.Quantity < 1 || in.Price.IsNegative() {
				continue
			}
			idx := l.findItem(l.inventory, in.ItemID)
			if idx < 0 {
				missing = append(missing, in.ItemID)
				continue
			}
			itemID := in.ItemID
			lines = append(lines, domain.BillLine{
				Name:            l.inventory[idx].Name,
				Quantity:        in.Quantity,
				Price:           in.Price,
				Total:           lineTotal(in.Quantity, in.Price),
				InventoryItemID: &itemID,
			})
		}
	}
	if !strict {
		return lines, nil
	}
	if len(lines) == 0 && len(missing) == 0 {
		return nil, ErrNoValidItems
	}
	if len(missing) > 0 {
		return nil, notFound("inventory item", missing[0])
	}
	return lines, nil
}

// checkStock compares the total requested quantity per catalog item with
// the stock on hand and reports every shortfall.
func checkStock(inventory []domain.InventoryItem, lines []domain.BillLine, find func([]domain.InventoryItem, int64) int) error {
	requested := make(map[int64]int)
	var order []int64
	for _, line := range lines {
		if line.InventoryItemID == nil {
			continue
		}
		id := *line.InventoryItemID
		if _, seen := requested[id]; !seen {
			order = append(order, id)
		}
		requested[id] += line.Quantity
	}

	var errs []error
	for _, id := range order {
		item := inventory[find(inventory, id)]
		if requested[id] > item.Stock {
			errs = append(errs, &InsufficientStockError{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Available: item.Stock,
				Requested: requested[id],
			})
		}
	}
	return errors.Join(errs...)
}

// nextBillNumber formats TYPE-<unix millis>. The stamp is forced past the
// last issued one so two bills in the same millisecond never share a
// number.
func (l *Ledger) nextBillNumber(t domain.BillType, now time.Time) (string, int64) {
	stamp := now.UnixMilli()
	if stamp <= l.lastBillStamp {
		stamp = l.lastBillStamp + 1
	}
	return fmt.Sprintf("%s-%d", strings.ToUpper(string(t)), stamp), stamp
}

func (l *Ledger) GetBill(id string) (domain.Bill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, bill := range l.bills {
		if bill.ID == id {
			return bill, nil
		}
	}
	return domain.Bill{}, notFound("bill", id)
}

func (l *Ledger) ListBills(filter BillFilter) []domain.Bill {
	l.mu.Lock()
	defer l.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]domain.Bill, 0, len(l.bills))
	for _, bill := range l.bills {
		if filter.Type != "" && bill.Type != filter.Type {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(bill.CustomerName), search) &&
			!strings.Contains(strings.ToLower(bill.BillNumber), search) {
			continue
		}
		result = append(result, bill)
	}

	switch filter.SortBy {
	case SortByAmount:
		slices.SortStableFunc(result, func(a, b domain.Bill) int { return b.Total.Cmp(a.Total) })
	case SortByCustomer:
		slices.SortStableFunc(result, func(a, b domain.Bill) int {
			return cmp.Compare(strings.ToLower(a.CustomerName), strings.ToLower(b.CustomerName))
		})
	default:
		slices.SortStableFunc(result, func(a, b domain.Bill) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
	return result
}

func (l *Ledger) Overview() Overview {
	l.mu.Lock()
	defer l.mu.Unlock()

	ov := Overview{
		TotalRevenue:     decimal.Zero,
		TotalBills:       len(l.bills),
		BillLimit:        l.settings.BillLimit,
		CurrentBillCount: l.settings.CurrentBillCount,
	}
	for _, bill := range l.bills {
		ov.TotalRevenue = ov.TotalRevenue.Add(bill.Total)
		switch bill.Type {
		case domain.BillTypeRetail:
			ov.RetailBills++
		case domain.BillTypeWholesale:
			ov.WholesaleBills++
		}
	}
	ov.NearLimit = l.settings.BillLimit > 0 && ov.CurrentBillCount*10 >= l.settings.BillLimit*9

	start := max(len(l.bills)-5, 0)
	recent := slices.Clone(l.bills[start:])
	slices.Reverse(recent)
	ov.RecentBills = recent
	return ov
}
