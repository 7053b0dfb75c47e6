// Package handlers exposes the engine as a JSON HTTP API.
//
// Every route under /api requires a bearer token; routes under /api/admin
// also require the admin role. Amounts travel as integer minor units.
//
// Commands that move money are safe to retry:
//
//   - Processing a payout, paying, completing or cancelling a booking, and
//     resolving a dispute act only on the pending/open state. A retry after
//     success gets 409 and never applies the effect twice.
//   - POST /api/admin/invoices returns the invoice already issued for the
//     same hubber and period with 200 OK instead of creating a duplicate.
//   - The referral bonus is credited once per user.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/auth"
	"github.com/francescopitzalis1989/Renthubber/engine"
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	engine   *engine.Engine
	verifier *auth.Verifier
	router   *mux.Router
}

// New creates a Handler and registers its routes.
func New(e *engine.Engine, v *auth.Verifier) *Handler {
	h := &Handler{engine: e, verifier: v, router: mux.NewRouter()}
	h.setupRoutes()
	return h
}

func (h *Handler) setupRoutes() {
	h.router.HandleFunc("/healthz", h.health).Methods("GET")

	api := h.router.PathPrefix("/api").Subrouter()
	api.Use(h.authMiddleware)

	api.HandleFunc("/config", h.getConfig).Methods("GET")
	api.HandleFunc("/quote", h.quote).Methods("POST")
	api.HandleFunc("/listings/score", h.scoreDraft).Methods("POST")
	api.HandleFunc("/superhubber/evaluate", h.evaluateSuperHubber).Methods("POST")

	api.HandleFunc("/wallet", h.getWallet).Methods("GET")
	api.HandleFunc("/wallet/transactions", h.listTransactions).Methods("GET")
	api.HandleFunc("/wallet/referral", h.applyReferral).Methods("POST")

	api.HandleFunc("/payouts", h.listOwnPayouts).Methods("GET")
	api.HandleFunc("/payouts", h.createPayout).Methods("POST")

	api.HandleFunc("/bookings", h.listHostedBookings).Methods("GET")
	api.HandleFunc("/bookings", h.createBooking).Methods("POST")
	api.HandleFunc("/bookings/{id}", h.getBooking).Methods("GET")
	api.HandleFunc("/bookings/{id}/refund", h.previewRefund).Methods("GET")
	api.HandleFunc("/bookings/{id}/pay", h.payBooking).Methods("POST")
	api.HandleFunc("/bookings/{id}/accept", h.acceptBooking).Methods("POST")
	api.HandleFunc("/bookings/{id}/reject", h.rejectBooking).Methods("POST")
	api.HandleFunc("/bookings/{id}/cancel", h.cancelBooking).Methods("POST")

	api.HandleFunc("/disputes", h.openDispute).Methods("POST")
	api.HandleFunc("/invoices", h.listOwnInvoices).Methods("GET")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminOnly)

	admin.HandleFunc("/config", h.swapConfig).Methods("PUT")
	admin.HandleFunc("/profiles/{id}", h.putProfile).Methods("PUT")
	admin.HandleFunc("/profiles/{id}/suspension", h.setSuspension).Methods("PUT")
	admin.HandleFunc("/payouts", h.listAllPayouts).Methods("GET")
	admin.HandleFunc("/payouts/{id}/process", h.processPayout).Methods("POST")
	admin.HandleFunc("/disputes", h.listDisputes).Methods("GET")
	admin.HandleFunc("/disputes/{id}/resolve", h.resolveDispute).Methods("POST")
	admin.HandleFunc("/disputes/{id}/dismiss", h.dismissDispute).Methods("POST")
	admin.HandleFunc("/bookings/{id}/complete", h.completeBooking).Methods("POST")
	admin.HandleFunc("/invoices", h.generateInvoice).Methods("POST")
	admin.HandleFunc("/invoices", h.listAllInvoices).Methods("GET")
}

// Router returns the routes wrapped with CORS for the given origins.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(h.router)
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.verifier.FromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func caller(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON serialises v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps an engine failure to a status and a body carrying the
// error code. Unknown errors are logged and reported as 500.
func writeEngineError(w http.ResponseWriter, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		log.Printf("handlers: internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, statusFor(e.Code), map[string]any{
		"error": e.Message,
		"code":  e.Code,
		"meta":  e.Meta,
	})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidAmount, apperr.CodeInvalidInput:
		return http.StatusBadRequest
	case apperr.CodeInsufficientBalance:
		return http.StatusPaymentRequired
	case apperr.CodeForbidden:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeInvalidStateTransition, apperr.CodePayoutBlocked:
		return http.StatusConflict
	case apperr.CodeInvalidFeeConfiguration, apperr.CodeConfigPrecondition:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
