package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.ExportReport(&buf); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeXLSX(w, fmt.Sprintf("Billing_Report_%s.xlsx", time.Now().Format("2006-01-02")), buf.Bytes())
}

func (h *Handler) ExportClosingBalance(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.ExportClosingBalance(&buf, chi.URLParam(r, "id")); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeXLSX(w, fmt.Sprintf("Closing_Balance_%s.xlsx", time.Now().Format("2006-01-02")), buf.Bytes())
}

func writeXLSX(w http.ResponseWriter, fileName string, body []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
