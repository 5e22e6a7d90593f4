package http

import (
	"net/http"
	"strings"

	"billing/internal/domain"
	"billing/internal/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type itemRequest struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	Unit        string          `json:"unit"`
	Description string          `json:"description"`
}

func (req itemRequest) toInput() ledger.ItemInput {
	return ledger.ItemInput{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		Unit:        req.Unit,
		Description: req.Description,
	}
}

type openingBalanceRequest struct {
	Items []struct {
		ItemID   int64 `json:"item_id"`
		NewStock int   `json:"new_stock"`
	} `json:"items"`
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ledger.ItemFilter{
		Search:   query.Get("search"),
		Category: query.Get("category"),
		Status:   domain.StockStatus(strings.ToLower(strings.TrimSpace(query.Get("status")))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be in-stock, low-stock or out-of-stock")
		return
	}

	items := h.ledger.ListItems(filter)
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.ledger.GetItem(id)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.ledger.CreateItem(r.Context(), req.toInput())
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.ledger.UpdateItem(r.Context(), id, req.toInput())
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.ledger.DeleteItem(r.Context(), id); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) InventoryStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.InventoryStats())
}

func (h *Handler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	created, err := h.svc.ImportCatalog(r.Context(), header.Filename, file)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file_name": header.Filename,
		"created":   len(created),
		"items":     created,
	})
}

func (h *Handler) SetOpeningBalance(w http.ResponseWriter, r *http.Request) {
	var req openingBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	newStock := make(map[int64]int, len(req.Items))
	for _, item := range req.Items {
		if _, dup := newStock[item.ItemID]; dup {
			writeError(w, http.StatusBadRequest, "each item may appear only once")
			return
		}
		newStock[item.ItemID] = item.NewStock
	}

	tx, err := h.ledger.SetOpeningBalance(r.Context(), newStock)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) GenerateClosingBalance(w http.ResponseWriter, r *http.Request) {
	tx, err := h.ledger.GenerateClosingBalance(r.Context())
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	kind := domain.TransactionType(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type"))))
	switch kind {
	case "", domain.TransactionBillSale, domain.TransactionOpeningBalance, domain.TransactionClosingBalance:
	default:
		writeError(w, http.StatusBadRequest, "type must be bill_sale, opening_balance or closing_balance")
		return
	}
	txs := h.ledger.ListTransactions(kind)
	writeJSON(w, http.StatusOK, map[string]any{"items": txs, "count": len(txs)})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.ledger.GetTransaction(chi.URLParam(r, "id"))
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
