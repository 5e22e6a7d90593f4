package ledger

import (
	"context"

	"billing/internal/domain"
)

// Store persists the ledger's collections. Load methods return nil slices
// when a collection was never saved. Commit must apply every collection in
// the changeset or none of them.
type Store interface {
	LoadBills(ctx context.Context) ([]domain.Bill, error)
	LoadInventory(ctx context.Context) ([]domain.InventoryItem, error)
	LoadTransactions(ctx context.Context) ([]domain.StockTransaction, error)
	LoadUsers(ctx context.Context) ([]domain.User, bool, error)
	LoadSettings(ctx context.Context) (*domain.Settings, error)
	LoadSession(ctx context.Context) (*domain.Session, error)

	Commit(ctx context.Context, changes domain.Changeset) error
	SaveSession(ctx context.Context, session *domain.Session) error
}
