package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"billing/internal/domain"
)

// Storage keys, one JSON document per collection.
const (
	KeyBills        = "bills"
	KeyInventory    = "inventory"
	KeyTransactions = "stockTransactions"
	KeySettings     = "billSettings"
	KeyUsers        = "billingUsers"
	KeySession      = "billingUser"
)

// Repository stores the ledger collections as JSON blobs.
type Repository struct {
	blobs Blobs
}

func New(blobs Blobs) *Repository {
	return &Repository{blobs: blobs}
}

func (r *Repository) LoadBills(ctx context.Context) ([]domain.Bill, error) {
	var bills []domain.Bill
	if _, err := r.load(ctx, KeyBills, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *Repository) LoadInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	if _, err := r.load(ctx, KeyInventory, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) LoadTransactions(ctx context.Context) ([]domain.StockTransaction, error) {
	var txs []domain.StockTransaction
	if _, err := r.load(ctx, KeyTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// LoadUsers reports found=false when the collection has never been written,
// which is different from an empty stored list.
func (r *Repository) LoadUsers(ctx context.Context) ([]domain.User, bool, error) {
	var users []domain.User
	found, err := r.load(ctx, KeyUsers, &users)
	if err != nil {
		return nil, false, err
	}
	return users, found, nil
}

func (r *Repository) LoadSettings(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	found, err := r.load(ctx, KeySettings, &settings)
	if err != nil || !found {
		return nil, err
	}
	return &settings, nil
}

func (r *Repository) LoadSession(ctx context.Context) (*domain.Session, error) {
	var session *domain.Session
	if _, err := r.load(ctx, KeySession, &session); err != nil {
		return nil, err
	}
	return session, nil
}

// Commit encodes every collection named by cs and saves them together.
func (r *Repository) Commit(ctx context.Context, cs domain.Changeset) error {
	blobs := make(map[string][]byte, 6)
	put := func(key string, v any) error {
		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		blobs[key] = body
		return nil
	}

	if cs.HasBills() {
		if err := put(KeyBills, nonNil(cs.Bills)); err != nil {
			return err
		}
	}
	if cs.HasInventory() {
		if err := put(KeyInventory, nonNil(cs.Inventory)); err != nil {
			return err
		}
	}
	if cs.HasTransactions() {
		if err := put(KeyTransactions, nonNil(cs.Transactions)); err != nil {
			return err
		}
	}
	if cs.HasUsers() {
		if err := put(KeyUsers, nonNil(cs.Users)); err != nil {
			return err
		}
	}
	if cs.Settings != nil {
		if err := put(KeySettings, cs.Settings); err != nil {
			return err
		}
	}
	if cs.ClearsSession() {
		blobs[KeySession] = []byte("null")
	}

	if err := r.blobs.Save(ctx, blobs); err != nil {
		return fmt.Errorf("save ledger collections: %w", err)
	}
	return nil
}

// SaveSession writes the logged-in user record; nil clears it.
func (r *Repository) SaveSession(ctx context.Context, session *domain.Session) error {
	if session == nil {
		if err := r.blobs.Delete(ctx, KeySession); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.blobs.Save(ctx, map[string][]byte{KeySession: body}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *Repository) load(ctx context.Context, key string, dst any) (bool, error) {
	body, found, err := r.blobs.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
