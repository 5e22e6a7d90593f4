package ledger

import (
	"context"
	"errors"
	"testing"

	"billing/internal/domain"
)

func TestItemLifecycle(t *testing.T) {
	ctx := context.Background()
	l := openTest(t, &fakeStore{})

	item, err := l.CreateItem(ctx, ItemInput{Name: "  Bolt ", Category: "Hardware", Price: dec("0.10"), Stock: 100, MinStock: 20, Unit: "pcs"})
	if err != nil {
		t.Fatalf("CreateItem returned error: %v", err)
	}
	if item.Name != "Bolt" || item.ID != 1 {
		t.Fatalf("unexpected item: %+v", item)
	}

	updated, err := l.UpdateItem(ctx, item.ID, ItemInput{Name: "Bolt M6", Category: "Hardware", Price: dec("0.12"), Stock: 80, MinStock: 20, Unit: "pcs"})
	if err != nil {
		t.Fatalf("UpdateItem returned error: %v", err)
	}
	if updated.Name != "Bolt M6" || updated.Stock != 80 || !updated.CreatedAt.Equal(item.CreatedAt) {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if err := l.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteItem returned error: %v", err)
	}
	if _, err := l.GetItem(item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := l.DeleteItem(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	next, err := l.CreateItem(ctx, ItemInput{Name: "Nut", Price: dec("0.05"), Stock: 1})
	if err != nil {
		t.Fatalf("CreateItem returned error: %v", err)
	}
	if next.ID != 2 {
		t.Fatalf("deleted id reused: got %d", next.ID)
	}
}

func TestCreateItemValidation(t *testing.T) {
	l := openTest(t, &fakeStore{})
	inputs := []ItemInput{
		{Name: " ", Price: dec("1")},
		{Name: "A", Price: dec("-1")},
		{Name: "A", Price: dec("1"), Stock: -1},
		{Name: "A", Price: dec("1"), MinStock: -2},
	}
	for _, in := range inputs {
		if _, err := l.CreateItem(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("CreateItem(%+v) = %v, want ErrInvalidInput", in, err)
		}
	}
}

func TestImportItemsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	l := openTest(t, &fakeStore{})

	_, err := l.ImportItems(ctx, []ItemInput{
		{Name: "Good", Price: dec("1"), Stock: 1},
		{Name: "", Price: dec("1")},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got := l.ListItems(ItemFilter{}); len(got) != 0 {
		t.Fatalf("partial import stored %d items", len(got))
	}

	created, err := l.ImportItems(ctx, []ItemInput{
		{Name: "A", Price: dec("1"), Stock: 1},
		{Name: "B", Price: dec("2"), Stock: 2},
	})
	if err != nil {
		t.Fatalf("ImportItems returned error: %v", err)
	}
	if created[0].ID != 1 || created[1].ID != 2 {
		t.Fatalf("unexpected ids: %d, %d", created[0].ID, created[1].ID)
	}
}

func TestListItemsAndStats(t *testing.T) {
	l := openTest(t, &fakeStore{})
	ctx := context.Background()
	for _, in := range []ItemInput{
		{Name: "Copper wire", Category: "Electrical", Price: dec("3"), Stock: 10, MinStock: 2, Description: "1.5mm"},
		{Name: "Switch", Category: "Electrical", Price: dec("4.5"), Stock: 2, MinStock: 2},
		{Name: "Hammer", Category: "Tools", Price: dec("12"), Stock: 0, MinStock: 1, Description: "steel head"},
	} {
		if _, err := l.CreateItem(ctx, in); err != nil {
			t.Fatalf("CreateItem returned error: %v", err)
		}
	}

	if got := l.ListItems(ItemFilter{Category: "Electrical"}); len(got) != 2 {
		t.Fatalf("category filter returned %d items", len(got))
	}
	if got := l.ListItems(ItemFilter{Search: "STEEL"}); len(got) != 1 || got[0].Name != "Hammer" {
		t.Fatalf("description search failed: %+v", got)
	}
	if got := l.ListItems(ItemFilter{Status: domain.StockStatusLow}); len(got) != 1 || got[0].Name != "Switch" {
		t.Fatalf("status filter failed: %+v", got)
	}

	stats := l.InventoryStats()
	if stats.TotalItems != 3 || stats.LowStockItems != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.TotalStockValue.Equal(dec("39")) {
		t.Fatalf("stock value = %s, want 39", stats.TotalStockValue)
	}
}
