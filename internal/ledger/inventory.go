package ledger

import (
	"context"
	"slices"
	"strings"

	"billing/internal/domain"

	"github.com/shopspring/decimal"
)

type ItemInput struct {
	Name        string
	Category    string
	Price       decimal.Decimal
	Stock       int
	MinStock    int
	Unit        string
	Description string
}

type ItemFilter struct {
	Search   string
	Category string
	Status   domain.StockStatus
}

type InventoryStats struct {
	TotalItems      int             `json:"total_items"`
	LowStockItems   int             `json:"low_stock_items"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
}

func (in *ItemInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return invalid("item name is required")
	}
	if in.Price.IsNegative() {
		return invalid("price cannot be negative")
	}
	if in.Stock < 0 {
		return invalid("stock cannot be negative")
	}
	if in.MinStock < 0 {
		return invalid("min stock cannot be negative")
	}
	return nil
}

func (l *Ledger) CreateItem(ctx context.Context, in ItemInput) (domain.InventoryItem, error) {
	items, err := l.ImportItems(ctx, []ItemInput{in})
	if err != nil {
		return domain.InventoryItem{}, err
	}
	return items[0], nil
}

// ImportItems adds every row as a new catalog item. Either all rows are
// added or none.
func (l *Ledger) ImportItems(ctx context.Context, inputs []ItemInput) ([]domain.InventoryItem, error) {
	if len(inputs) == 0 {
		return nil, invalid("no items to import")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	created := make([]domain.InventoryItem, 0, len(inputs))
	nextID := l.lastItemID
	for _, in := range inputs {
		if err := in.normalize(); err != nil {
			return nil, err
		}
		nextID++
		created = append(created, domain.InventoryItem{
			ID:          nextID,
			Name:        in.Name,
			Category:    in.Category,
			Price:       in.Price,
			Stock:       in.Stock,
			MinStock:    in.MinStock,
			Unit:        in.Unit,
			Description: in.Description,
			CreatedAt:   now,
		})
	}

	inventory := make([]domain.InventoryItem, 0, len(l.inventory)+len(created))
	inventory = append(inventory, l.inventory...)
	inventory = append(inventory, created...)

	var cs domain.Changeset
	cs.SetInventory(inventory)
	if err := l.commit(ctx, cs); err != nil {
		return nil, err
	}
	l.lastItemID = nextID

	l.log.Info().Int("count", len(created)).Int64("last_item_id", nextID).Msg("inventory items created")
	return created, nil
}

// UpdateItem replaces every mutable field of the item.
func (l *Ledger) UpdateItem(ctx context.Context, id int64, in ItemInput) (domain.InventoryItem, error) {
	if err := in.normalize(); err != nil {
		return domain.InventoryItem{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findItem(l.inventory, id)
	if idx < 0 {
		return domain.InventoryItem{}, notFound("inventory item", id)
	}
	inventory := slices.Clone(l.inventory)
	item := &inventory[idx]
	item.Name = in.Name
	item.Category = in.Category
	item.Price = in.Price
	item.Stock = in.Stock
	item.MinStock = in.MinStock
	item.Unit = in.Unit
	item.Description = in.Description

	var cs domain.Changeset
	cs.SetInventory(inventory)
	if err := l.commit(ctx, cs); err != nil {
		return domain.InventoryItem{}, err
	}
	l.log.Info().Int64("item_id", id).Msg("inventory item updated")
	return *item, nil
}

// DeleteItem removes the item from the catalog. Bills keep their own copy
// of the sold rows, so history is unaffected.
func (l *Ledger) DeleteItem(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findItem(l.inventory, id)
	if idx < 0 {
		return notFound("inventory item", id)
	}
	inventory := slices.Delete(slices.Clone(l.inventory), idx, idx+1)

	var cs domain.Changeset
	cs.SetInventory(inventory)
	if err := l.commit(ctx, cs); err != nil {
		return err
	}
	l.log.Info().Int64("item_id", id).Msg("inventory item deleted")
	return nil
}

func (l *Ledger) GetItem(id int64) (domain.InventoryItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findItem(l.inventory, id)
	if idx < 0 {
		return domain.InventoryItem{}, notFound("inventory item", id)
	}
	return l.inventory[idx], nil
}

func (l *Ledger) ListItems(filter ItemFilter) []domain.InventoryItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	category := strings.TrimSpace(filter.Category)
	result := make([]domain.InventoryItem, 0, len(l.inventory))
	for _, item := range l.inventory {
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		if filter.Status != "" && item.Status() != filter.Status {
			continue
		}
		result = append(result, item)
	}
	return result
}

func (l *Ledger) InventoryStats() InventoryStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := InventoryStats{TotalItems: len(l.inventory), TotalStockValue: decimal.Zero}
	for _, item := range l.inventory {
		if item.Stock <= item.MinStock {
			stats.LowStockItems++
		}
		stats.TotalStockValue = stats.TotalStockValue.Add(item.Value())
	}
	return stats
}
