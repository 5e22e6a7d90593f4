package ledger

import (
	"context"
	"errors"
	"testing"

	"billing/internal/domain"
)

func TestSetOpeningBalance(t *testing.T) {
	ctx := context.Background()
	l := openTest(t, &fakeStore{})
	widget := seedItem(t, l, "Widget", "2.50", 10, 3)
	gadget := seedItem(t, l, "Gadget", "1", 4, 0)

	tx, err := l.SetOpeningBalance(ctx, map[int64]int{widget.ID: 15})
	if err != nil {
		t.Fatalf("SetOpeningBalance returned error: %v", err)
	}
	if tx.Type != domain.TransactionOpeningBalance {
		t.Fatalf("type = %s", tx.Type)
	}
	if len(tx.Openings) != 2 {
		t.Fatalf("expected every item recorded, got %d", len(tx.Openings))
	}
	want := map[int64]domain.OpeningEntry{
		widget.ID: {ItemID: widget.ID, ItemName: "Widget", OldStock: 10, NewStock: 15, Difference: 5},
		gadget.ID: {ItemID: gadget.ID, ItemName: "Gadget", OldStock: 4, NewStock: 4, Difference: 0},
	}
	for _, e := range tx.Openings {
		if e != want[e.ItemID] {
			t.Fatalf("entry = %+v, want %+v", e, want[e.ItemID])
		}
	}
	if item, _ := l.GetItem(widget.ID); item.Stock != 15 {
		t.Fatalf("stock = %d, want 15", item.Stock)
	}
	if got, err := l.GetTransaction(tx.ID); err != nil || got.ID != tx.ID {
		t.Fatalf("GetTransaction = %+v, %v", got, err)
	}
}

func TestSetOpeningBalanceErrors(t *testing.T) {
	ctx := context.Background()
	l := openTest(t, &fakeStore{})

	if _, err := l.SetOpeningBalance(ctx, map[int64]int{1: 5}); !errors.Is(err, ErrEmptyInventory) {
		t.Fatalf("expected ErrEmptyInventory, got %v", err)
	}

	widget := seedItem(t, l, "Widget", "1", 10, 0)
	if _, err := l.SetOpeningBalance(ctx, map[int64]int{widget.ID + 100: 5}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := l.SetOpeningBalance(ctx, map[int64]int{widget.ID: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if item, _ := l.GetItem(widget.ID); item.Stock != 10 {
		t.Fatalf("stock changed by rejected opening balance")
	}
	if len(l.ListTransactions("")) != 0 {
		t.Fatalf("rejected opening balance recorded a transaction")
	}
}

func TestGenerateClosingBalanceDoesNotMutateStock(t *testing.T) {
	ctx := context.Background()
	l := openTest(t, &fakeStore{})
	widget := seedItem(t, l, "Widget", "2.50", 10, 3)
	seedItem(t, l, "Gadget", "1.25", 2, 5)
	seedItem(t, l, "Empty", "9", 0, 1)
	before := l.ListItems(ItemFilter{})

	tx, err := l.GenerateClosingBalance(ctx)
	if err != nil {
		t.Fatalf("GenerateClosingBalance returned error: %v", err)
	}
	if tx.TotalValue == nil || !tx.TotalValue.Equal(dec("27.5")) {
		t.Fatalf("total value = %v, want 27.5", tx.TotalValue)
	}
	statuses := map[string]domain.StockStatus{}
	for _, e := range tx.Closings {
		statuses[e.ItemName] = e.Status
		if e.ItemID == widget.ID && !e.TotalValue.Equal(dec("25")) {
			t.Fatalf("widget value = %s, want 25", e.TotalValue)
		}
	}
	if statuses["Widget"] != domain.StockStatusIn || statuses["Gadget"] != domain.StockStatusLow || statuses["Empty"] != domain.StockStatusOut {
		t.Fatalf("unexpected statuses: %v", statuses)
	}

	after := l.ListItems(ItemFilter{})
	for i := range before {
		if before[i].Stock != after[i].Stock {
			t.Fatalf("closing balance changed stock of %s", before[i].Name)
		}
	}
	if got := l.ListTransactions(domain.TransactionClosingBalance); len(got) != 1 {
		t.Fatalf("expected one closing transaction, got %d", len(got))
	}
}

func TestGenerateClosingBalanceEmptyInventory(t *testing.T) {
	l := openTest(t, &fakeStore{})
	if _, err := l.GenerateClosingBalance(context.Background()); !errors.Is(err, ErrEmptyInventory) {
		t.Fatalf("expected ErrEmptyInventory, got %v", err)
	}
}
