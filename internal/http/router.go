package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cylinder-backend/internal/handlers"
)

func NewRouter(
	customerHandler *handlers.CustomerHandler,
	vehicleHandler *handlers.VehicleHandler,
	saleHandler *handlers.SaleHandler,
	paymentHandler *handlers.PaymentHandler,
	cylinderHandler *handlers.CylinderHandler,
	dashboardHandler *handlers.DashboardHandler,
	healthHandler *handlers.HealthHandler,
) *mux.Router {
	r := mux.NewRouter()

	// Customers
	customersAPI := r.PathPrefix("/api/customers").Subrouter()
	customersAPI.HandleFunc("", customerHandler.ListCustomers).Methods("GET")
	customersAPI.HandleFunc("", customerHandler.CreateCustomer).Methods("POST")
	customersAPI.HandleFunc("/{id}", customerHandler.GetCustomer).Methods("GET")
	customersAPI.HandleFunc("/{id}/ledger", customerHandler.GetLedger).Methods("GET")
	customersAPI.HandleFunc("/{id}", customerHandler.UpdateCustomer).Methods("PUT")
	customersAPI.HandleFunc("/{id}", customerHandler.DeleteCustomer).Methods("DELETE")

	// Vehicles
	vehiclesAPI := r.PathPrefix("/api/vehicles").Subrouter()
	vehiclesAPI.HandleFunc("", vehicleHandler.ListVehicles).Methods("GET")
	vehiclesAPI.HandleFunc("", vehicleHandler.CreateVehicle).Methods("POST")
	vehiclesAPI.HandleFunc("/{id}", vehicleHandler.GetVehicle).Methods("GET")
	vehiclesAPI.HandleFunc("/{id}", vehicleHandler.UpdateVehicle).Methods("PUT")
	vehiclesAPI.HandleFunc("/{id}", vehicleHandler.DeleteVehicle).Methods("DELETE")

	// Sales
	salesAPI := r.PathPrefix("/api/sales").Subrouter()
	salesAPI.HandleFunc("", saleHandler.ListSales).Methods("GET")
	salesAPI.HandleFunc("", saleHandler.CreateSale).Methods("POST")
	salesAPI.HandleFunc("/{id}", saleHandler.GetSale).Methods("GET")
	salesAPI.HandleFunc("/{id}", saleHandler.UpdateSale).Methods("PUT")
	salesAPI.HandleFunc("/{id}", saleHandler.DeleteSale).Methods("DELETE")

	// Payments
	paymentsAPI := r.PathPrefix("/api/payments").Subrouter()
	paymentsAPI.HandleFunc("", paymentHandler.ListPayments).Methods("GET")
	paymentsAPI.HandleFunc("", paymentHandler.CreatePayment).Methods("POST")
	paymentsAPI.HandleFunc("/{id}", paymentHandler.GetPayment).Methods("GET")
	paymentsAPI.HandleFunc("/{id}", paymentHandler.UpdatePayment).Methods("PUT")
	paymentsAPI.HandleFunc("/{id}", paymentHandler.DeletePayment).Methods("DELETE")
	paymentsAPI.HandleFunc("/{id}/receipt", paymentHandler.DownloadReceipt).Methods("GET")

	// Cylinder tracking
	cylindersAPI := r.PathPrefix("/api/cylinders").Subrouter()
	cylindersAPI.HandleFunc("", cylinderHandler.ListTracking).Methods("GET")
	cylindersAPI.HandleFunc("/{customerId}", cylinderHandler.GetTracking).Methods("GET")
	cylindersAPI.HandleFunc("/{customerId}/returns", cylinderHandler.RecordReturn).Methods("POST")
	cylindersAPI.HandleFunc("/{customerId}/returns", cylinderHandler.ReturnHistory).Methods("GET")
	cylindersAPI.HandleFunc("/{customerId}/reset", cylinderHandler.ResetTracking).Methods("POST")

	// Dashboard
	r.HandleFunc("/api/dashboard", dashboardHandler.GetSummary).Methods("GET")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
