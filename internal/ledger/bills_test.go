package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"billing/internal/domain"
)

func TestCreateBillWithCatalogLines(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l := openTest(t, store)
	widget := seedItem(t, l, "Widget", "10.00", 10, 2)

	bill, err := l.CreateBill(ctx, BillInput{
		Type:         domain.BillTypeRetail,
		CustomerName: "  Jane Doe ",
		Lines: []LineInput{
			CatalogLine{ItemID: widget.ID, Quantity: 3, Price: dec("10.00")},
			FreehandLine{Name: "Gift wrap", Quantity: 1, Price: dec("2.50")},
			FreehandLine{Name: "", Quantity: 1, Price: dec("9.00")},
		},
		Discount: dec("0"),
		Tax:      dec("0"),
	})
	if err != nil {
		t.Fatalf("CreateBill returned error: %v", err)
	}

	if bill.CustomerName != "Jane Doe" {
		t.Fatalf("customer = %q, want trimmed name", bill.CustomerName)
	}
	if len(bill.Items) != 2 {
		t.Fatalf("expected incomplete line to be dropped, got %d lines", len(bill.Items))
	}
	if bill.Items[0].Name != "Widget" || bill.Items[0].InventoryItemID == nil {
		t.Fatalf("catalog line not resolved: %+v", bill.Items[0])
	}
	if !bill.Total.Equal(dec("32.5")) {
		t.Fatalf("total = %s, want 32.5", bill.Total)
	}

	item, err := l.GetItem(widget.ID)
	if err != nil {
		t.Fatalf("GetItem returned error: %v", err)
	}
	if item.Stock != 7 {
		t.Fatalf("stock = %d, want 7", item.Stock)
	}

	txs := l.ListTransactions(domain.TransactionBillSale)
	if len(txs) != 1 {
		t.Fatalf("expected one bill_sale transaction, got %d", len(txs))
	}
	sale := txs[0]
	if sale.BillID != bill.ID || sale.BillNumber != bill.BillNumber {
		t.Fatalf("transaction not linked to bill: %+v", sale)
	}
	if len(sale.Sales) != 1 || sale.Sales[0].QuantitySold != 3 || sale.Sales[0].RemainingStock != 7 {
		t.Fatalf("unexpected sale entries: %+v", sale.Sales)
	}

	if got := l.Settings().CurrentBillCount; got != 1 {
		t.Fatalf("bill count = %d, want 1", got)
	}
	if store.settings == nil || store.settings.CurrentBillCount != 1 {
		t.Fatalf("stored settings not updated: %+v", store.settings)
	}
}

func TestCreateBillFreehandOnlySkipsTransaction(t *testing.T) {
	l := openTest(t, &fakeStore{})

	_, err := l.CreateBill(context.Background(), BillInput{
		Type:         domain.BillTypeWholesale,
		CustomerName: "Acme",
		Lines:        []LineInput{FreehandLine{Name: "Consulting", Quantity: 2, Price: dec("100")}},
	})
	if err != nil {
		t.Fatalf("CreateBill returned error: %v", err)
	}
	if txs := l.ListTransactions(""); len(txs) != 0 {
		t.Fatalf("expected no transactions, got %d", len(txs))
	}
}

func TestCreateBillValidation(t *testing.T) {
	ctx := context.Background()
	l := openTest(t, &fakeStore{})
	widget := seedItem(t, l, "Widget", "5", 3, 1)

	tests := []struct {
		name string
		in   BillInput
		want error
	}{
		{
			name: "missing customer",
			in: BillInput{
				Type:  domain.BillTypeRetail,
				Lines: []LineInput{FreehandLine{Name: "A", Quantity: 1, Price: dec("1")}},
			},
			want: ErrMissingCustomer,
		},
		{
			name: "no valid items",
			in: BillInput{
				Type:         domain.BillTypeRetail,
				CustomerName: "Bob",
				Lines:        []LineInput{FreehandLine{Name: "", Quantity: 1, Price: dec("1")}},
			},
			want: ErrNoValidItems,
		},
		{
			name: "bad type",
			in: BillInput{
				Type:         "export",
				CustomerName: "Bob",
				Lines:        []LineInput{FreehandLine{Name: "A", Quantity: 1, Price: dec("1")}},
			},
			want: ErrInvalidInput,
		},
		{
			name: "discount above 100",
			in: BillInput{
				Type:         domain.BillTypeRetail,
				CustomerName: "Bob",
				Lines:        []LineInput{FreehandLine{Name: "A", Quantity: 1, Price: dec("1")}},
				Discount:     dec("120"),
			},
			want: ErrInvalidInput,
		},
		{
			name: "unknown catalog item",
			in: BillInput{
				Type:         domain.BillTypeRetail,
				CustomerName: "Bob",
				Lines:        []LineInput{CatalogLine{ItemID: 999, Quantity: 1, Price: dec("1")}},
			},
			want: ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreateBill(ctx, tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if len(l.ListBills(BillFilter{})) != 0 {
		t.Fatalf("rejected bills must not be stored")
	}
	if item, _ := l.GetItem(widget.ID); item.Stock != 3 {
		t.Fatalf("stock changed by rejected bills: %d", item.Stock)
	}
}

func TestCreateBillInsufficientStockIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l := openTest(t, store)
	widget := seedItem(t, l, "Widget", "10", 5, 1)
	gadget := seedItem(t, l, "Gadget", "4", 1, 0)
	spare := seedItem(t, l, "Spare", "1", 50, 0)
	commits := store.commits

	_, err := l.CreateBill(ctx, BillInput{
		Type:         domain.BillTypeRetail,
		CustomerName: "Jane",
		Lines: []LineInput{
			CatalogLine{ItemID: spare.ID, Quantity: 2, Price: dec("1")},
			CatalogLine{ItemID: widget.ID, Quantity: 3, Price: dec("10")},
			CatalogLine{ItemID: widget.ID, Quantity: 3, Price: dec("10")},
			CatalogLine{ItemID: gadget.ID, Quantity: 2, Price: dec("4")},
		},
	})

	var shortfalls []*InsufficientStockError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			var ise *InsufficientStockError
			if errors.As(e, &ise) {
				shortfalls = append(shortfalls, ise)
			}
		}
	}
	if len(shortfalls) != 2 {
		t.Fatalf("expected two shortfalls, got %v", err)
	}
	if shortfalls[0].ItemID != widget.ID || shortfalls[0].Requested != 6 || shortfalls[0].Available != 5 {
		t.Fatalf("widget shortfall not aggregated: %+v", shortfalls[0])
	}
	if shortfalls[1].ItemID != gadget.ID {
		t.Fatalf("second shortfall = %+v, want gadget", shortfalls[1])
	}

	if store.commits != commits {
		t.Fatalf("rejected bill committed changes")
	}
	for _, id := range []int64{widget.ID, gadget.ID, spare.ID} {
		before := map[int64]int{widget.ID: 5, gadget.ID: 1, spare.ID: 50}[id]
		if item, _ := l.GetItem(id); item.Stock != before {
			t.Fatalf("item %d stock = %d, want %d", id, item.Stock, before)
		}
	}
	if len(l.ListTransactions("")) != 0 {
		t.Fatalf("rejected bill recorded a transaction")
	}
}

func TestCreateBillSellsExactRemainingStock(t *testing.T) {
	l := openTest(t, &fakeStore{})
	widget := seedItem(t, l, "Widget", "10", 4, 1)

	_, err := l.CreateBill(context.Background(), BillInput{
		Type:         domain.BillTypeRetail,
		CustomerName: "Jane",
		Lines: []LineInput{
			CatalogLine{ItemID: widget.ID, Quantity: 1, Price: dec("10")},
			CatalogLine{ItemID: widget.ID, Quantity: 3, Price: dec("10")},
		},
	})
	if err != nil {
		t.Fatalf("CreateBill returned error: %v", err)
	}
	item, _ := l.GetItem(widget.ID)
	if item.Stock != 0 || item.Status() != domain.StockStatusOut {
		t.Fatalf("item = %+v, want out of stock", item)
	}
	sale := l.ListTransactions(domain.TransactionBillSale)[0]
	for _, e := range sale.Sales {
		if e.RemainingStock != 0 {
			t.Fatalf("remaining stock = %d, want 0 after all lines", e.RemainingStock)
		}
	}
}

func TestCreateBillLimitReached(t *testing.T) {
	ctx := context.Background()
	defaults := DefaultSettings
	defaults.BillLimit = 2
	l := openTest(t, &fakeStore{}, WithDefaults(defaults))

	in := BillInput{
		Type:         domain.BillTypeRetail,
		CustomerName: "Jane",
		Lines:        []LineInput{FreehandLine{Name: "A", Quantity: 1, Price: dec("1")}},
	}
	for i := 0; i < 2; i++ {
		if _, err := l.CreateBill(ctx, in); err != nil {
			t.Fatalf("bill %d returned error: %v", i, err)
		}
	}
	if _, err := l.CreateBill(ctx, in); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
	if got := l.Settings().CurrentBillCount; got != 2 {
		t.Fatalf("bill count = %d, want 2", got)
	}

	if _, err := l.UpdateSettings(ctx, SettingsInput{BillLimit: 3, CompanyName: "Acme"}); err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}
	if _, err := l.CreateBill(ctx, in); err != nil {
		t.Fatalf("raised limit should allow another bill: %v", err)
	}
}

func TestCreateBillStoreFailureLeavesStateUnchanged(t *testing.T) {
	store := &fakeStore{}
	l := openTest(t, store)
	widget := seedItem(t, l, "Widget", "10", 5, 1)
	store.failCommit = true

	_, err := l.CreateBill(context.Background(), BillInput{
		Type:         domain.BillTypeRetail,
		CustomerName: "Jane",
		Lines:        []LineInput{CatalogLine{ItemID: widget.ID, Quantity: 2, Price: dec("10")}},
	})
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if item, _ := l.GetItem(widget.ID); item.Stock != 5 {
		t.Fatalf("stock = %d, want 5", item.Stock)
	}
	if len(l.ListBills(BillFilter{})) != 0 || l.Settings().CurrentBillCount != 0 {
		t.Fatalf("failed commit leaked into memory")
	}
}

func TestBillNumbersAreUniqueWithFrozenClock(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	l := openTest(t, &fakeStore{}, WithClock(func() time.Time { return frozen }))

	in := BillInput{
		CustomerName: "Jane",
		Lines:        []LineInput{FreehandLine{Name: "A", Quantity: 1, Price: dec("1")}},
	}
	in.Type = domain.BillTypeRetail
	first, err := l.CreateBill(ctx, in)
	if err != nil {
		t.Fatalf("first bill: %v", err)
	}
	in.Type = domain.BillTypeWholesale
	second, err := l.CreateBill(ctx, in)
	if err != nil {
		t.Fatalf("second bill: %v", err)
	}

	ms := frozen.UnixMilli()
	if want := fmt.Sprintf("RETAIL-%d", ms); first.BillNumber != want {
		t.Fatalf("first number = %s, want %s", first.BillNumber, want)
	}
	if want := fmt.Sprintf("WHOLESALE-%d", ms+1); second.BillNumber != want {
		t.Fatalf("second number = %s, want %s", second.BillNumber, want)
	}
}

func TestListBillsFilterAndSort(t *testing.T) {
	ctx := context.Background()
	l := openTest(t, &fakeStore{})

	create := func(typ domain.BillType, customer, price string) domain.Bill {
		t.Helper()
		b, err := l.CreateBill(ctx, BillInput{
			Type:         typ,
			CustomerName: customer,
			Lines:        []LineInput{FreehandLine{Name: "A", Quantity: 1, Price: dec(price)}},
		})
		if err != nil {
			t.Fatalf("CreateBill returned error: %v", err)
		}
		return b
	}
	carol := create(domain.BillTypeRetail, "Carol", "30")
	alice := create(domain.BillTypeWholesale, "alice", "90")
	bob := create(domain.BillTypeRetail, "Bob", "10")

	byDate := l.ListBills(BillFilter{})
	if byDate[0].ID != bob.ID || byDate[2].ID != carol.ID {
		t.Fatalf("default sort is not newest first")
	}
	byAmount := l.ListBills(BillFilter{SortBy: SortByAmount})
	if byAmount[0].ID != alice.ID || byAmount[2].ID != bob.ID {
		t.Fatalf("amount sort is not descending")
	}
	byCustomer := l.ListBills(BillFilter{SortBy: SortByCustomer})
	if byCustomer[0].ID != alice.ID || byCustomer[1].ID != bob.ID {
		t.Fatalf("customer sort is not case-insensitive ascending")
	}

	retail := l.ListBills(BillFilter{Type: domain.BillTypeRetail})
	if len(retail) != 2 {
		t.Fatalf("expected 2 retail bills, got %d", len(retail))
	}
	found := l.ListBills(BillFilter{Search: "ALI"})
	if len(found) != 1 || found[0].ID != alice.ID {
		t.Fatalf("search by customer failed: %+v", found)
	}
	found = l.ListBills(BillFilter{Search: bob.BillNumber})
	if len(found) != 1 || found[0].ID != bob.ID {
		t.Fatalf("search by bill number failed")
	}

	ov := l.Overview()
	if ov.TotalBills != 3 || ov.RetailBills != 2 || ov.WholesaleBills != 1 {
		t.Fatalf("unexpected overview counts: %+v", ov)
	}
	if !ov.TotalRevenue.Equal(dec("130")) {
		t.Fatalf("revenue = %s, want 130", ov.TotalRevenue)
	}
	if len(ov.RecentBills) != 3 || ov.RecentBills[0].ID != bob.ID {
		t.Fatalf("recent bills not newest first")
	}
}

func TestOverviewNearLimit(t *testing.T) {
	ctx := context.Background()
	defaults := DefaultSettings
	defaults.BillLimit = 10
	l := openTest(t, &fakeStore{}, WithDefaults(defaults))

	in := BillInput{
		Type:         domain.BillTypeRetail,
		CustomerName: "Jane",
		Lines:        []LineInput{FreehandLine{Name: "A", Quantity: 1, Price: dec("1")}},
	}
	for i := 0; i < 8; i++ {
		if _, err := l.CreateBill(ctx, in); err != nil {
			t.Fatalf("CreateBill returned error: %v", err)
		}
	}
	if l.Overview().NearLimit {
		t.Fatalf("8 of 10 should not be near the limit")
	}
	if _, err := l.CreateBill(ctx, in); err != nil {
		t.Fatalf("CreateBill returned error: %v", err)
	}
	ov := l.Overview()
	if !ov.NearLimit {
		t.Fatalf("9 of 10 should be near the limit")
	}
	if len(ov.RecentBills) != 5 {
		t.Fatalf("recent bills = %d, want 5", len(ov.RecentBills))
	}
}

func TestDraftBill(t *testing.T) {
	store := &fakeStore{}
	l := openTest(t, store)
	widget := seedItem(t, l, "Widget", "10", 1, 0)
	commits := store.commits

	draft, err := l.DraftBill(BillInput{
		Type:         domain.BillTypeWholesale,
		CustomerName: "Acme",
		Lines:        []LineInput{CatalogLine{ItemID: widget.ID, Quantity: 5, Price: dec("10")}},
		Discount:     dec("10"),
	})
	if err != nil {
		t.Fatalf("DraftBill returned error: %v", err)
	}
	if draft.ID != "" || !draft.Total.Equal(dec("45")) || draft.Items[0].Name != "Widget" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if store.commits != commits || len(l.ListBills(BillFilter{})) != 0 {
		t.Fatalf("draft was recorded")
	}

	if _, err := l.DraftBill(BillInput{Type: domain.BillTypeRetail}); !errors.Is(err, ErrMissingCustomer) {
		t.Fatalf("expected ErrMissingCustomer, got %v", err)
	}
}

func TestPreviewBillDoesNotCommit(t *testing.T) {
	store := &fakeStore{}
	l := openTest(t, store)
	widget := seedItem(t, l, "Widget", "10", 1, 0)
	commits := store.commits

	totals, err := l.PreviewBill(BillInput{
		Lines: []LineInput{
			CatalogLine{ItemID: widget.ID, Quantity: 5, Price: dec("10")},
			CatalogLine{ItemID: 404, Quantity: 1, Price: dec("10")},
		},
		Tax: dec("10"),
	})
	if err != nil {
		t.Fatalf("PreviewBill returned error: %v", err)
	}
	if !totals.Total.Equal(dec("55")) {
		t.Fatalf("total = %s, want 55", totals.Total)
	}
	if store.commits != commits {
		t.Fatalf("preview committed changes")
	}
}
