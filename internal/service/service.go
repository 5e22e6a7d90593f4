package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"billing/internal/domain"
	"billing/internal/excel"
	"billing/internal/invoice"
	"billing/internal/ledger"
)

// Service joins the ledger with the spreadsheet and invoice collaborators.
type Service struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Service {
	return &Service{ledger: l}
}

func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}

func (s *Service) CreateBill(ctx context.Context, in ledger.BillInput) (domain.Bill, error) {
	in.Type = normalizeBillType(in.Type)
	return s.ledger.CreateBill(ctx, in)
}

func (s *Service) PreviewBill(in ledger.BillInput) (ledger.Totals, error) {
	return s.ledger.PreviewBill(in)
}

// RenderInvoice writes the printable invoice of a stored bill.
func (s *Service) RenderInvoice(w io.Writer, billID string) error {
	bill, err := s.ledger.GetBill(strings.TrimSpace(billID))
	if err != nil {
		return err
	}
	return invoice.Render(w, bill, s.ledger.Settings())
}

// RenderDraftInvoice writes the invoice a submission would produce, without
// recording it.
func (s *Service) RenderDraftInvoice(w io.Writer, in ledger.BillInput) error {
	in.Type = normalizeBillType(in.Type)
	draft, err := s.ledger.DraftBill(in)
	if err != nil {
		return err
	}
	return invoice.Render(w, draft, s.ledger.Settings())
}

// ImportCatalog parses an uploaded sheet and adds every row as a new item.
func (s *Service) ImportCatalog(ctx context.Context, fileName string, r io.Reader) ([]domain.InventoryItem, error) {
	rows, err := excel.ParseCatalogRows(fileName, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}
	return s.ledger.ImportItems(ctx, rows)
}

func (s *Service) ExportReport(w io.Writer) error {
	return excel.WriteReport(w, excel.ReportData{
		Inventory:    s.ledger.ListItems(ledger.ItemFilter{}),
		Bills:        s.ledger.ListBills(ledger.BillFilter{}),
		Transactions: s.ledger.ListTransactions(""),
	})
}

func (s *Service) ExportClosingBalance(w io.Writer, transactionID string) error {
	tx, err := s.ledger.GetTransaction(strings.TrimSpace(transactionID))
	if err != nil {
		return err
	}
	if tx.Type != domain.TransactionClosingBalance {
		return fmt.Errorf("%w: transaction %s is a %s", ledger.ErrInvalidInput, tx.ID, tx.Type)
	}
	return excel.WriteClosingBalance(w, tx)
}

// Login starts a session for the named active user.
func (s *Service) Login(ctx context.Context, username string) (domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Session{}, fmt.Errorf("%w: username is required", ledger.ErrInvalidInput)
	}
	user, err := s.ledger.UserByUsername(username)
	if err != nil {
		return domain.Session{}, err
	}
	return s.ledger.StartSession(ctx, user.ID)
}

func (s *Service) Logout(ctx context.Context) error {
	return s.ledger.EndSession(ctx)
}

func normalizeBillType(t domain.BillType) domain.BillType {
	value := domain.BillType(strings.ToLower(strings.TrimSpace(string(t))))
	if value == "" {
		return domain.BillTypeRetail
	}
	return value
}
