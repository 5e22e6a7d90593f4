package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger(handler.log))
	r.Use(Recoverer(handler.log))
	r.Use(Timeout)
	r.Use(CORS)

	r.Get("/healthz", handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/overview", handler.Overview)

		r.Get("/bills", handler.ListBills)
		r.Post("/bills", handler.CreateBill)
		r.Post("/bills/preview", handler.PreviewBill)
		r.Get("/bills/{id}", handler.GetBill)
		r.Get("/bills/{id}/invoice", handler.BillInvoice)

		r.Get("/inventory", handler.ListItems)
		r.Post("/inventory", handler.CreateItem)
		r.Get("/inventory/stats", handler.InventoryStats)
		r.Post("/inventory/import-excel", handler.ImportCatalog)
		r.Post("/inventory/opening-balance", handler.SetOpeningBalance)
		r.Post("/inventory/closing-balance", handler.GenerateClosingBalance)
		r.Get("/inventory/{id}", handler.GetItem)
		r.Put("/inventory/{id}", handler.UpdateItem)
		r.Delete("/inventory/{id}", handler.DeleteItem)

		r.Get("/transactions", handler.ListTransactions)
		r.Get("/transactions/{id}", handler.GetTransaction)

		r.Get("/users", handler.ListUsers)
		r.Post("/users", handler.CreateUser)
		r.Get("/users/stats", handler.UserStats)
		r.Get("/users/{id}", handler.GetUser)
		r.Put("/users/{id}", handler.UpdateUser)
		r.Delete("/users/{id}", handler.DeleteUser)
		r.Post("/users/{id}/toggle-status", handler.ToggleUserStatus)

		r.Get("/session", handler.CurrentSession)
		r.Post("/session", handler.StartSession)
		r.Delete("/session", handler.EndSession)

		r.Get("/settings", handler.GetSettings)
		r.Put("/settings", handler.UpdateSettings)

		r.Get("/reports/export.xlsx", handler.ExportReport)
		r.Get("/reports/closing-balance/{id}.xlsx", handler.ExportClosingBalance)
	})

	return r
}
