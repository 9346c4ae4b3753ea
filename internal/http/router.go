package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"field-agent/internal/handlers"
	"field-agent/internal/middleware"
)

// NewRouter builds the loopback API the UI drives. CORS is applied by the
// caller around the returned router so preflight requests never reach mux.
func NewRouter(
	sessionHandler *handlers.SessionHandler,
	customerHandler *handlers.CustomerHandler,
	branchHandler *handlers.BranchHandler,
	collectionHandler *handlers.CollectionHandler,
	attendanceHandler *handlers.AttendanceHandler,
	alertHandler *handlers.AlertHandler,
	healthHandler *handlers.HealthHandler,
	logger *zap.Logger,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MetricsMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Session
	api.HandleFunc("/session/login", sessionHandler.Login).Methods("POST")
	api.HandleFunc("/session/logout", sessionHandler.Logout).Methods("POST")
	api.HandleFunc("/session", sessionHandler.Current).Methods("GET")

	// Reference lists
	api.HandleFunc("/customers", customerHandler.ListCustomers).Methods("GET")
	api.HandleFunc("/customers/manual", customerHandler.AddManualCustomer).Methods("POST")
	api.HandleFunc("/branches", branchHandler.ListBranches).Methods("GET")
	api.HandleFunc("/branches/retry", branchHandler.RetryBranches).Methods("POST")
	api.HandleFunc("/refresh", branchHandler.Refresh).Methods("POST")

	// Collections
	api.HandleFunc("/collections", collectionHandler.ListCollections).Methods("GET")
	api.HandleFunc("/collections", collectionHandler.CreateCollection).Methods("POST")
	api.HandleFunc("/collections/statement.pdf", collectionHandler.Statement).Methods("GET")
	api.HandleFunc("/collections/{id}", collectionHandler.UpdateCollection).Methods("PUT")

	// Leave, late arrival and early departure requests
	api.HandleFunc("/requests/{kind:leave|late|early}", attendanceHandler.CreateRequest).Methods("POST")
	api.HandleFunc("/requests/{kind:leave|late|early}", attendanceHandler.ListRequests).Methods("GET")

	// Alerts
	api.HandleFunc("/alerts", alertHandler.ListAlerts).Methods("GET")
	api.HandleFunc("/alerts/{id:[0-9]+}/{action}", alertHandler.ResolveAlert).Methods("POST")
	r.HandleFunc("/ws/alerts", alertHandler.Stream).Methods("GET")

	// Health endpoints
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
