// Package ledger owns bills, inventory, stock transactions, users and
// settings. It is the only writer of inventory stock levels.
package ledger

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"billing/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultSettings mirrors the values a fresh installation starts with.
var DefaultSettings = domain.Settings{
	BillLimit:      100,
	CompanyName:    "Your Company",
	CompanyAddress: "123 Business St, City, State 12345",
	CompanyPhone:   "+1 (555) 123-4567",
	CompanyEmail:   "info@yourcompany.com",
}

type Option func(*Ledger)

func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// WithDefaults sets the settings used when storage holds none.
func WithDefaults(s domain.Settings) Option {
	return func(l *Ledger) { l.defaults = s }
}

type Ledger struct {
	mu       sync.Mutex
	store    Store
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
	defaults domain.Settings

	bills        []domain.Bill
	inventory    []domain.InventoryItem
	transactions []domain.StockTransaction
	users        []domain.User
	settings     domain.Settings
	session      *domain.Session

	lastBillStamp int64
	lastItemID    int64
	lastUserID    int64
}

// Open loads every collection from store, seeds the default administrator
// on first run and reconciles the bill counter with the stored bills.
func Open(ctx context.Context, store Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:    store,
		log:      zerolog.Nop(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		defaults: DefaultSettings,
	}
	for _, opt := range opts {
		opt(l)
	}

	var err error
	if l.bills, err = store.LoadBills(ctx); err != nil {
		return nil, fmt.Errorf("load bills: %w", err)
	}
	if l.inventory, err = store.LoadInventory(ctx); err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	if l.transactions, err = store.LoadTransactions(ctx); err != nil {
		return nil, fmt.Errorf("load stock transactions: %w", err)
	}
	users, usersFound, err := store.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	settings, err := store.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if l.session, err = store.LoadSession(ctx); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	l.settings = l.defaults
	if settings != nil {
		l.settings = *settings
	}
	l.settings.CurrentBillCount = len(l.bills)
	l.users = users
	l.recoverCounters()

	if !usersFound {
		admin := domain.User{
			ID:        domain.BootstrapUserID,
			Username:  "admin",
			Name:      "Administrator",
			Email:     "admin@company.com",
			Role:      domain.RoleAdmin,
			Status:    domain.StatusActive,
			CreatedAt: l.now().UTC(),
		}
		var cs domain.Changeset
		cs.SetUsers([]domain.User{admin})
		if err := l.commit(ctx, cs); err != nil {
			return nil, fmt.Errorf("seed default administrator: %w", err)
		}
		if l.lastUserID < admin.ID {
			l.lastUserID = admin.ID
		}
		l.log.Info().Int64("user_id", admin.ID).Msg("default administrator created")
	}

	l.log.Info().
		Int("bills", len(l.bills)).
		Int("inventory_items", len(l.inventory)).
		Int("stock_transactions", len(l.transactions)).
		Int("users", len(l.users)).
		Msg("ledger loaded")
	return l, nil
}

// recoverCounters derives id and bill-number high-water marks from stored
// data so identifiers are never reused after a restart or a delete.
func (l *Ledger) recoverCounters() {
	for _, bill := range l.bills {
		if idx := strings.LastIndex(bill.BillNumber, "-"); idx >= 0 {
			if stamp, err := strconv.ParseInt(bill.BillNumber[idx+1:], 10, 64); err == nil && stamp > l.lastBillStamp {
				l.lastBillStamp = stamp
			}
		}
		for _, line := range bill.Items {
			if line.InventoryItemID != nil && *line.InventoryItemID > l.lastItemID {
				l.lastItemID = *line.InventoryItemID
			}
		}
	}
	for _, item := range l.inventory {
		if item.ID > l.lastItemID {
			l.lastItemID = item.ID
		}
	}
	for _, tx := range l.transactions {
		for _, e := range tx.Sales {
			l.lastItemID = max(l.lastItemID, e.ItemID)
		}
		for _, e := range tx.Openings {
			l.lastItemID = max(l.lastItemID, e.ItemID)
		}
		for _, e := range tx.Closings {
			l.lastItemID = max(l.lastItemID, e.ItemID)
		}
	}
	for _, user := range l.users {
		if user.ID > l.lastUserID {
			l.lastUserID = user.ID
		}
	}
	if l.session != nil && l.session.UserID > l.lastUserID {
		l.lastUserID = l.session.UserID
	}
}

// commit persists the changeset and, only if that succeeds, swaps the new
// collections into memory. Callers hold l.mu.
func (l *Ledger) commit(ctx context.Context, cs domain.Changeset) error {
	if cs.Empty() {
		return nil
	}
	if err := l.store.Commit(ctx, cs); err != nil {
		return fmt.Errorf("commit ledger changes: %w", err)
	}
	if cs.HasBills() {
		l.bills = cs.Bills
	}
	if cs.HasInventory() {
		l.inventory = cs.Inventory
	}
	if cs.HasTransactions() {
		l.transactions = cs.Transactions
	}
	if cs.HasUsers() {
		l.users = cs.Users
	}
	if cs.Settings != nil {
		l.settings = *cs.Settings
	}
	if cs.ClearsSession() {
		l.session = nil
	}
	return nil
}

func (l *Ledger) findItem(items []domain.InventoryItem, id int64) int {
	return slices.IndexFunc(items, func(item domain.InventoryItem) bool { return item.ID == id })
}

func (l *Ledger) findUser(id int64) int {
	return slices.IndexFunc(l.users, func(u domain.User) bool { return u.ID == id })
}

func (l *Ledger) appendTransaction(tx domain.StockTransaction) []domain.StockTransaction {
	next := make([]domain.StockTransaction, 0, len(l.transactions)+1)
	next = append(next, l.transactions...)
	return append(next, tx)
}
