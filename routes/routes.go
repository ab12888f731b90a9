package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/amarinov1974/cmms-system-sub000/config"
	"github.com/amarinov1974/cmms-system-sub000/handlers"
	"github.com/amarinov1974/cmms-system-sub000/middleware"
	"github.com/amarinov1974/cmms-system-sub000/models"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/login", handlers.Login).Methods("POST")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)
	api.Use(middleware.SecurityMiddleware)

	api.HandleFunc("/profile", handlers.Profile).Methods("GET")

	ticketHandler := handlers.NewTicketHandler(config.DB)
	api.HandleFunc("/tickets", ticketHandler.CreateTicket).Methods("POST")
	api.HandleFunc("/tickets", ticketHandler.ListTickets).Methods("GET")
	api.HandleFunc("/tickets/{id}", ticketHandler.GetTicket).Methods("GET")
	api.Handle("/tickets/{id}/work-orders",
		middleware.RequireRole([]models.Role{models.RoleAreaMaintenanceManager},
			http.HandlerFunc(ticketHandler.SpawnWorkOrder))).Methods("POST")

	woHandler := handlers.NewWorkOrderHandler(config.DB)
	api.HandleFunc("/work-orders", woHandler.ListWorkOrders).Methods("GET")
	api.HandleFunc("/work-orders/{id}", woHandler.GetWorkOrder).Methods("GET")
	api.HandleFunc("/work-orders/{id}/actions", woHandler.ExecuteAction).Methods("POST")
	api.HandleFunc("/work-orders/{id}/history", woHandler.GetAuditHistory).Methods("GET")
	api.Handle("/work-orders/{id}/report-rows",
		middleware.RequireRole([]models.Role{models.RoleVendorTechnician},
			http.HandlerFunc(woHandler.AddReportRow))).Methods("POST")

	scanHandler := handlers.NewScanTokenHandler(config.DB)
	api.Handle("/work-orders/{id}/scan-tokens",
		middleware.RequireRole([]models.Role{models.RoleStoreManager},
			http.HandlerFunc(scanHandler.Issue))).Methods("POST")

	plHandler := handlers.NewPriceListHandler(config.DB)
	api.HandleFunc("/vendors/{companyId}/price-list", plHandler.ListItems).Methods("GET")
	api.HandleFunc("/vendors/{companyId}/price-list", plHandler.CreateItem).Methods("POST")
	api.HandleFunc("/vendors/{companyId}/price-list/{itemId}", plHandler.DeactivateItem).Methods("DELETE")

	batchHandler := handlers.NewInvoiceBatchHandler(config.DB)
	api.HandleFunc("/invoice-batches", batchHandler.CreateBatch).Methods("POST")
	api.HandleFunc("/invoice-batches", batchHandler.ListBatches).Methods("GET")
	api.HandleFunc("/invoice-batches/{id}/export", batchHandler.ExportBatch).Methods("GET")

	return r
}
