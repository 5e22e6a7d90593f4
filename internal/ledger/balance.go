package ledger

import (
	"context"
	"slices"

	"billing/internal/domain"

	"github.com/shopspring/decimal"
)

// SetOpeningBalance overwrites stock for the given items and records an
// opening_balance transaction covering the whole catalog. Items missing from
// newStock keep their stock and are recorded with a difference of zero.
func (l *Ledger) SetOpeningBalance(ctx context.Context, newStock map[int64]int) (domain.StockTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.inventory) == 0 {
		return domain.StockTransaction{}, ErrEmptyInventory
	}
	for id, stock := range newStock {
		if l.findItem(l.inventory, id) < 0 {
			return domain.StockTransaction{}, notFound("inventory item", id)
		}
		if stock < 0 {
			return domain.StockTransaction{}, invalid("opening stock for item %d cannot be negative", id)
		}
	}

	inventory := slices.Clone(l.inventory)
	tx := domain.StockTransaction{
		ID:        l.newID(),
		Type:      domain.TransactionOpeningBalance,
		CreatedAt: l.now().UTC(),
		Openings:  make([]domain.OpeningEntry, 0, len(inventory)),
	}
	for i := range inventory {
		item := &inventory[i]
		oldStock := item.Stock
		if stock, ok := newStock[item.ID]; ok {
			item.Stock = stock
		}
		tx.Openings = append(tx.Openings, domain.OpeningEntry{
			ItemID:     item.ID,
			ItemName:   item.Name,
			OldStock:   oldStock,
			NewStock:   item.Stock,
			Difference: item.Stock - oldStock,
		})
	}

	var cs domain.Changeset
	cs.SetInventory(inventory)
	cs.SetTransactions(l.appendTransaction(tx))
	if err := l.commit(ctx, cs); err != nil {
		return domain.StockTransaction{}, err
	}
	l.log.Info().Str("transaction_id", tx.ID).Int("items", len(tx.Openings)).Msg("opening balance saved")
	return tx, nil
}

// GenerateClosingBalance records a valuation snapshot of the catalog. Stock
// is not modified.
func (l *Ledger) GenerateClosingBalance(ctx context.Context) (domain.StockTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.inventory) == 0 {
		return domain.StockTransaction{}, ErrEmptyInventory
	}

	total := decimal.Zero
	tx := domain.StockTransaction{
		ID:        l.newID(),
		Type:      domain.TransactionClosingBalance,
		CreatedAt: l.now().UTC(),
		Closings:  make([]domain.ClosingEntry, 0, len(l.inventory)),
	}
	for _, item := range l.inventory {
		value := item.Value()
		total = total.Add(value)
		tx.Closings = append(tx.Closings, domain.ClosingEntry{
			ItemID:     item.ID,
			ItemName:   item.Name,
			Category:   item.Category,
			Stock:      item.Stock,
			MinStock:   item.MinStock,
			UnitPrice:  item.Price,
			TotalValue: value,
			Unit:       item.Unit,
			Status:     item.Status(),
		})
	}
	tx.TotalValue = &total

	var cs domain.Changeset
	cs.SetTransactions(l.appendTransaction(tx))
	if err := l.commit(ctx, cs); err != nil {
		return domain.StockTransaction{}, err
	}
	l.log.Info().
		Str("transaction_id", tx.ID).
		Str("total_value", domain.FormatMoney(total)).
		Msg("closing balance generated")
	return tx, nil
}

func (l *Ledger) ListTransactions(kind domain.TransactionType) []domain.StockTransaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]domain.StockTransaction, 0, len(l.transactions))
	for _, tx := range l.transactions {
		if kind != "" && tx.Type != kind {
			continue
		}
		result = append(result, tx)
	}
	return result
}

func (l *Ledger) GetTransaction(id string) (domain.StockTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, tx := range l.transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return domain.StockTransaction{}, notFound("stock transaction", id)
}
