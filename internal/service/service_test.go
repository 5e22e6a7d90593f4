package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"billing/internal/domain"
	"billing/internal/ledger"
	"billing/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func newService(t *testing.T) *Service {
	t.Helper()
	l, err := ledger.Open(context.Background(), repository.New(repository.NewMemoryBlobs()))
	if err != nil {
		t.Fatalf("ledger.Open returned error: %v", err)
	}
	return New(l)
}

func TestImportCatalogAndExport(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	items, err := svc.ImportCatalog(ctx, "catalog.csv", strings.NewReader("name,price,stock,min stock\nBolt,0.10,500,50\nNut,0.05,20,50\n"))
	if err != nil {
		t.Fatalf("ImportCatalog returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("imported %d items, want 2", len(items))
	}

	if _, err := svc.ImportCatalog(ctx, "bad.csv", strings.NewReader("stock\n1\n")); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unusable file, got %v", err)
	}

	bill, err := svc.CreateBill(ctx, ledger.BillInput{
		Type:         " Retail ",
		CustomerName: "Jane",
		Lines:        []ledger.LineInput{ledger.CatalogLine{ItemID: items[0].ID, Quantity: 10, Price: decimal.RequireFromString("0.10")}},
	})
	if err != nil {
		t.Fatalf("CreateBill returned error: %v", err)
	}
	if bill.Type != domain.BillTypeRetail {
		t.Fatalf("type = %q, want retail", bill.Type)
	}

	var buf bytes.Buffer
	if err := svc.ExportReport(&buf); err != nil {
		t.Fatalf("ExportReport returned error: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	if got := len(f.GetSheetList()); got != 4 {
		t.Fatalf("export has %d sheets, want 4", got)
	}
}

func TestExportClosingBalance(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	l := svc.Ledger()
	item, err := l.CreateItem(ctx, ledger.ItemInput{Name: "Bolt", Price: decimal.RequireFromString("0.10"), Stock: 10})
	if err != nil {
		t.Fatalf("CreateItem returned error: %v", err)
	}

	opening, err := l.SetOpeningBalance(ctx, map[int64]int{item.ID: 12})
	if err != nil {
		t.Fatalf("SetOpeningBalance returned error: %v", err)
	}
	if err := svc.ExportClosingBalance(&bytes.Buffer{}, opening.ID); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for opening transaction, got %v", err)
	}
	if err := svc.ExportClosingBalance(&bytes.Buffer{}, "missing"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	closing, err := l.GenerateClosingBalance(ctx)
	if err != nil {
		t.Fatalf("GenerateClosingBalance returned error: %v", err)
	}
	var buf bytes.Buffer
	if err := svc.ExportClosingBalance(&buf, closing.ID); err != nil {
		t.Fatalf("ExportClosingBalance returned error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("empty workbook")
	}
}

func TestInvoices(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	in := ledger.BillInput{
		Type:         domain.BillTypeWholesale,
		CustomerName: "Acme",
		Lines:        []ledger.LineInput{ledger.FreehandLine{Name: "Consulting", Quantity: 3, Price: decimal.NewFromInt(100)}},
		Tax:          decimal.NewFromInt(5),
	}

	var draft strings.Builder
	if err := svc.RenderDraftInvoice(&draft, in); err != nil {
		t.Fatalf("RenderDraftInvoice returned error: %v", err)
	}
	if !strings.Contains(draft.String(), "Total: $315.00") {
		t.Fatalf("draft invoice missing total")
	}
	if n := len(svc.Ledger().ListBills(ledger.BillFilter{})); n != 0 {
		t.Fatalf("draft invoice recorded %d bills", n)
	}

	bill, err := svc.CreateBill(ctx, in)
	if err != nil {
		t.Fatalf("CreateBill returned error: %v", err)
	}
	var out strings.Builder
	if err := svc.RenderInvoice(&out, bill.ID); err != nil {
		t.Fatalf("RenderInvoice returned error: %v", err)
	}
	if !strings.Contains(out.String(), bill.BillNumber) || !strings.Contains(out.String(), "Your Company") {
		t.Fatalf("invoice missing bill number or company block")
	}
	if err := svc.RenderInvoice(&out, "nope"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	session, err := svc.Login(ctx, " ADMIN ")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if session.UserID != domain.BootstrapUserID {
		t.Fatalf("session user = %d", session.UserID)
	}
	if _, err := svc.Login(ctx, "ghost"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Login(ctx, ""); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if _, ok := svc.Ledger().CurrentSession(); ok {
		t.Fatalf("session still active after logout")
	}
}
