package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/segyhp/lending-ledger/pkg/response"
)

// NewRouter wires the HTTP API. metrics may be nil to leave /metrics unmounted.
func NewRouter(lendingHandler *LendingHandler, healthHandler *HealthHandler, metrics http.Handler, log *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log), response.CORSMiddleware, ActorMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	if metrics != nil {
		router.Handle("/metrics", metrics).Methods("GET")
	}

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/members", RequireAdmin(lendingHandler.RegisterMember)).Methods("POST")
	api.HandleFunc("/members", lendingHandler.ListMembers).Methods("GET")
	api.HandleFunc("/members/{memberId}", lendingHandler.GetMember).Methods("GET")
	api.HandleFunc("/members/{memberId}/contributions", RequireAdmin(lendingHandler.RecordContribution)).Methods("POST")
	api.HandleFunc("/members/{memberId}/eligibility", lendingHandler.CheckEligibility).Methods("GET")
	api.HandleFunc("/members/{memberId}/deactivate", RequireAdmin(lendingHandler.Deactivate)).Methods("POST")
	api.HandleFunc("/members/{memberId}/transactions", lendingHandler.MemberTransactions).Methods("GET")

	api.HandleFunc("/loans", RequireAdmin(lendingHandler.IssueLoan)).Methods("POST")
	api.HandleFunc("/loans/{loanId}", lendingHandler.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/schedule", lendingHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/loans/{loanId}/repayments", RequireAdmin(lendingHandler.Repay)).Methods("POST")

	api.HandleFunc("/quote", lendingHandler.Quote).Methods("GET")
	api.HandleFunc("/agreement", lendingHandler.Agreement).Methods("GET")

	api.HandleFunc("/applications", lendingHandler.SubmitApplication).Methods("POST")
	api.HandleFunc("/applications", lendingHandler.ListApplications).Methods("GET")
	api.HandleFunc("/applications/{applicationId}", lendingHandler.GetApplication).Methods("GET")
	api.HandleFunc("/applications/{applicationId}/approve", RequireAdmin(lendingHandler.ApproveApplication)).Methods("POST")
	api.HandleFunc("/applications/{applicationId}/reject", RequireAdmin(lendingHandler.RejectApplication)).Methods("POST")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/sweep", RequireAdmin(lendingHandler.Sweep)).Methods("POST")
	admin.HandleFunc("/reminders", RequireAdmin(lendingHandler.SendReminders)).Methods("POST")
	admin.HandleFunc("/sync", RequireAdmin(lendingHandler.Sync)).Methods("POST")
	admin.HandleFunc("/reconcile", RequireAdmin(lendingHandler.Reconcile)).Methods("GET")
	admin.HandleFunc("/audit/{entityType}/{entityId}", RequireAdmin(lendingHandler.AuditTrail)).Methods("GET")

	return router
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
