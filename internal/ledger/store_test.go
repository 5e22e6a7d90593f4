package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"billing/internal/domain"

	"github.com/shopspring/decimal"
)

var errStoreDown = errors.New("store down")

// fakeStore keeps collections in memory and can be told to fail commits.
type fakeStore struct {
	bills        []domain.Bill
	inventory    []domain.InventoryItem
	transactions []domain.StockTransaction
	users        []domain.User
	usersFound   bool
	settings     *domain.Settings
	session      *domain.Session

	failCommit bool
	commits    int
}

func (s *fakeStore) LoadBills(context.Context) ([]domain.Bill, error) {
	return slices.Clone(s.bills), nil
}

func (s *fakeStore) LoadInventory(context.Context) ([]domain.InventoryItem, error) {
	return slices.Clone(s.inventory), nil
}

func (s *fakeStore) LoadTransactions(context.Context) ([]domain.StockTransaction, error) {
	return slices.Clone(s.transactions), nil
}

func (s *fakeStore) LoadUsers(context.Context) ([]domain.User, bool, error) {
	return slices.Clone(s.users), s.usersFound, nil
}

func (s *fakeStore) LoadSettings(context.Context) (*domain.Settings, error) {
	return s.settings, nil
}

func (s *fakeStore) LoadSession(context.Context) (*domain.Session, error) {
	return s.session, nil
}

func (s *fakeStore) Commit(_ context.Context, cs domain.Changeset) error {
	if s.failCommit {
		return errStoreDown
	}
	s.commits++
	if cs.HasBills() {
		s.bills = slices.Clone(cs.Bills)
	}
	if cs.HasInventory() {
		s.inventory = slices.Clone(cs.Inventory)
	}
	if cs.HasTransactions() {
		s.transactions = slices.Clone(cs.Transactions)
	}
	if cs.HasUsers() {
		s.users = slices.Clone(cs.Users)
		s.usersFound = true
	}
	if cs.Settings != nil {
		copied := *cs.Settings
		s.settings = &copied
	}
	if cs.ClearsSession() {
		s.session = nil
	}
	return nil
}

func (s *fakeStore) SaveSession(_ context.Context, session *domain.Session) error {
	if s.failCommit {
		return errStoreDown
	}
	s.session = session
	return nil
}

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func openTest(t *testing.T, store *fakeStore, opts ...Option) *Ledger {
	t.Helper()
	opts = append([]Option{WithClock(stepClock()), WithIDGenerator(sequentialIDs())}, opts...)
	l, err := Open(context.Background(), store, opts...)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	return l
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedItem(t *testing.T, l *Ledger, name string, price string, stock, minStock int) domain.InventoryItem {
	t.Helper()
	item, err := l.CreateItem(context.Background(), ItemInput{
		Name:     name,
		Category: "General",
		Price:    dec(price),
		Stock:    stock,
		MinStock: minStock,
		Unit:     "pcs",
	})
	if err != nil {
		t.Fatalf("CreateItem(%s) returned error: %v", name, err)
	}
	return item
}
