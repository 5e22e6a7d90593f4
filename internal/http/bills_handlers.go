package http

import (
	"bytes"
	"net/http"
	"strings"

	"billing/internal/domain"
	"billing/internal/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type billLineRequest struct {
	InventoryItemID *int64          `json:"inventory_item_id"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
}

type billRequest struct {
	Type            string            `json:"type"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerAddress string            `json:"customer_address"`
	Items           []billLineRequest `json:"items"`
	Discount        decimal.Decimal   `json:"discount"`
	Tax             decimal.Decimal   `json:"tax"`
	Notes           string            `json:"notes"`
}

func (req billRequest) toInput() ledger.BillInput {
	lines := make([]ledger.LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		if item.InventoryItemID != nil {
			lines = append(lines, ledger.CatalogLine{
				ItemID:   *item.InventoryItemID,
				Quantity: item.Quantity,
				Price:    item.Price,
			})
			continue
		}
		lines = append(lines, ledger.FreehandLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return ledger.BillInput{
		Type:            domain.BillType(req.Type),
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Lines:           lines,
		Discount:        req.Discount,
		Tax:             req.Tax,
		Notes:           req.Notes,
	}
}

func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ledger.BillFilter{
		Search: query.Get("search"),
		Type:   domain.BillType(strings.ToLower(strings.TrimSpace(query.Get("type")))),
		SortBy: ledger.BillSort(strings.ToLower(strings.TrimSpace(query.Get("sort")))),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		writeError(w, http.StatusBadRequest, "type must be retail or wholesale")
		return
	}
	switch filter.SortBy {
	case "", ledger.SortByDate, ledger.SortByAmount, ledger.SortByCustomer:
	default:
		writeError(w, http.StatusBadRequest, "sort must be date, amount or customer")
		return
	}

	bills := h.ledger.ListBills(filter)
	writeJSON(w, http.StatusOK, map[string]any{"items": bills, "count": len(bills)})
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := h.ledger.GetBill(chi.URLParam(r, "id"))
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill, err := h.svc.CreateBill(r.Context(), req.toInput())
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

// PreviewBill returns live totals for a draft, or the draft invoice when
// called with format=html.
func (h *Handler) PreviewBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("format")), "html") {
		var buf bytes.Buffer
		if err := h.svc.RenderDraftInvoice(&buf, req.toInput()); err != nil {
			h.writeLedgerError(w, r, err)
			return
		}
		writeHTML(w, buf.Bytes())
		return
	}

	totals, err := h.svc.PreviewBill(req.toInput())
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subtotal":        domain.FormatMoney(totals.Subtotal),
		"discount_amount": domain.FormatMoney(totals.DiscountAmount),
		"tax_amount":      domain.FormatMoney(totals.TaxAmount),
		"total":           domain.FormatMoney(totals.Total),
	})
}

func (h *Handler) BillInvoice(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.RenderInvoice(&buf, chi.URLParam(r, "id")); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeHTML(w, buf.Bytes())
}

func (h *Handler) Overview(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Overview())
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
