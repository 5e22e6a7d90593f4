package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"billing/internal/ledger"
	"billing/internal/service"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Handler struct {
	svc    *service.Service
	ledger *ledger.Ledger
	log    zerolog.Logger
}

func NewHandler(svc *service.Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, ledger: svc.Ledger(), log: log}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type shortfallView struct {
	ItemID    int64  `json:"item_id"`
	ItemName  string `json:"item_name"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// writeLedgerError maps ledger failures to status codes. Anything it does
// not recognise is logged and reported as a 500.
func (h *Handler) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	if shortfalls := stockShortfalls(err); len(shortfalls) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      err.Error(),
			"shortfalls": shortfalls,
		})
		return
	}

	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrLimitReached),
		errors.Is(err, ledger.ErrConflict),
		errors.Is(err, ledger.ErrProtectedAccount):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInactiveUser):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ledger.ErrMissingCustomer),
		errors.Is(err, ledger.ErrNoValidItems),
		errors.Is(err, ledger.ErrEmptyInventory):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func stockShortfalls(err error) []shortfallView {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else if err != nil {
		errs = []error{err}
	}

	var out []shortfallView
	for _, e := range errs {
		var ise *ledger.InsufficientStockError
		if errors.As(e, &ise) {
			out = append(out, shortfallView{
				ItemID:    ise.ItemID,
				ItemName:  ise.ItemName,
				Available: ise.Available,
				Requested: ise.Requested,
			})
		}
	}
	return out
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
