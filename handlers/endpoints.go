package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/francescopitzalis1989/Renthubber/booking"
	"github.com/francescopitzalis1989/Renthubber/models"
	"github.com/francescopitzalis1989/Renthubber/money"
)

// --- rules ---

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Config.Current())
}

func (h *Handler) swapConfig(w http.ResponseWriter, r *http.Request) {
	var next models.Snapshot
	if !decode(w, r, &next) {
		return
	}
	published, err := h.engine.Config.Swap(next)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, published)
}

type quoteRequest struct {
	Total  money.Money `json:"total"`
	HostID string      `json:"hostId"`
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var body quoteRequest
	if !decode(w, r, &body) {
		return
	}
	q, err := h.engine.Quote(body.Total, body.HostID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) scoreDraft(w http.ResponseWriter, r *http.Request) {
	var draft models.ListingDraft
	if !decode(w, r, &draft) {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.ScoreDraft(draft))
}

func (h *Handler) evaluateSuperHubber(w http.ResponseWriter, r *http.Request) {
	var metrics models.SuperHubberMetrics
	if !decode(w, r, &metrics) {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.EvaluateSuperHubber(metrics))
}

type profileRequest struct {
	Roles                []string         `json:"roles"`
	CustomCommissionRate *decimal.Decimal `json:"customCommissionRate,omitempty"`
}

func (h *Handler) putProfile(w http.ResponseWriter, r *http.Request) {
	var body profileRequest
	if !decode(w, r, &body) {
		return
	}
	roles, err := models.ParseRoles(body.Roles)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := models.Profile{UserID: mux.Vars(r)["id"], Roles: roles, CustomCommissionRate: body.CustomCommissionRate}
	if err := h.engine.SetProfile(p); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type suspensionRequest struct {
	Suspended bool `json:"suspended"`
}

func (h *Handler) setSuspension(w http.ResponseWriter, r *http.Request) {
	var body suspensionRequest
	if !decode(w, r, &body) {
		return
	}
	p, err := h.engine.SetSuspended(mux.Vars(r)["id"], body.Suspended)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- wallet ---

func (h *Handler) getWallet(w http.ResponseWriter, r *http.Request) {
	a, err := h.engine.Ledger.Account(caller(r).UserID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userId":        a.UserID,
		"renterBalance": a.RenterBalance,
		"hubberBalance": a.HubberBalance,
	})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	var wallet *models.WalletType
	if q := r.URL.Query().Get("wallet"); q != "" {
		wt, err := models.ParseWalletType(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		wallet = &wt
	}
	txs, err := h.engine.Ledger.History(caller(r).UserID, wallet)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *Handler) applyReferral(w http.ResponseWriter, r *http.Request) {
	tx, err := h.engine.ApplyReferralBonus(caller(r).UserID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// --- payouts ---

type payoutRequest struct {
	Amount money.Money `json:"amount"`
	IBAN   string      `json:"iban"`
}

func (h *Handler) createPayout(w http.ResponseWriter, r *http.Request) {
	var body payoutRequest
	if !decode(w, r, &body) {
		return
	}
	p, err := h.engine.Payouts.Create(caller(r).UserID, body.Amount, body.IBAN)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) listOwnPayouts(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.Payouts.List(caller(r).UserID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) listAllPayouts(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.Payouts.List(r.URL.Query().Get("userId"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type decisionRequest struct {
	Decision models.PayoutDecision `json:"decision"`
}

func (h *Handler) processPayout(w http.ResponseWriter, r *http.Request) {
	var body decisionRequest
	if !decode(w, r, &body) {
		return
	}
	p, err := h.engine.Payouts.Process(mux.Vars(r)["id"], body.Decision)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- bookings ---

type bookingRequest struct {
	ListingID string      `json:"listingId"`
	HostID    string      `json:"hostId"`
	Total     money.Money `json:"total"`
	PolicyID  string      `json:"policyId"`
	StartsAt  time.Time   `json:"startsAt"`
}

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	var body bookingRequest
	if !decode(w, r, &body) {
		return
	}
	b, err := h.engine.Bookings.Create(booking.Request{
		ListingID: body.ListingID,
		RenterID:  caller(r).UserID,
		HostID:    body.HostID,
		Total:     body.Total,
		PolicyID:  body.PolicyID,
		StartsAt:  body.StartsAt,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// visibleBooking loads a booking the caller is a party to.
func (h *Handler) visibleBooking(w http.ResponseWriter, r *http.Request) (*models.Booking, bool) {
	b, err := h.engine.Bookings.Get(mux.Vars(r)["id"])
	if err != nil {
		writeEngineError(w, err)
		return nil, false
	}
	id := caller(r)
	if b.RenterID != id.UserID && b.HostID != id.UserID && !id.IsAdmin() {
		writeError(w, http.StatusNotFound, "booking not found")
		return nil, false
	}
	return b, true
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	if b, ok := h.visibleBooking(w, r); ok {
		writeJSON(w, http.StatusOK, b)
	}
}

func (h *Handler) previewRefund(w http.ResponseWriter, r *http.Request) {
	b, ok := h.visibleBooking(w, r)
	if !ok {
		return
	}
	p, err := h.engine.PreviewRefund(b.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) listHostedBookings(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.Bookings.ListByHost(caller(r).UserID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) acceptBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingCommand(w, r, h.engine.Bookings.Accept)
}

func (h *Handler) rejectBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingCommand(w, r, h.engine.Bookings.Reject)
}

func (h *Handler) payBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingCommand(w, r, func(id, actorID string) (*models.Booking, error) {
		return h.engine.PayWithWallet(actorID, id)
	})
}

func (h *Handler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingCommand(w, r, h.engine.Bookings.Cancel)
}

func (h *Handler) bookingCommand(w http.ResponseWriter, r *http.Request, fn func(id, actorID string) (*models.Booking, error)) {
	b, err := fn(mux.Vars(r)["id"], caller(r).UserID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) completeBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.engine.Bookings.Complete(mux.Vars(r)["id"])
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// --- disputes ---

type disputeRequest struct {
	TargetID    string             `json:"targetId"`
	Type        models.DisputeType `json:"type"`
	Description string             `json:"description"`
}

func (h *Handler) openDispute(w http.ResponseWriter, r *http.Request) {
	var body disputeRequest
	if !decode(w, r, &body) {
		return
	}
	d, err := h.engine.Disputes.Open(caller(r).UserID, body.TargetID, body.Type, body.Description)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) listDisputes(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.Disputes.List()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) resolveDispute(w http.ResponseWriter, r *http.Request) {
	h.closeDispute(w, r, h.engine.Disputes.Resolve)
}

func (h *Handler) dismissDispute(w http.ResponseWriter, r *http.Request) {
	h.closeDispute(w, r, h.engine.Disputes.Dismiss)
}

func (h *Handler) closeDispute(w http.ResponseWriter, r *http.Request, fn func(id, note string) (*models.Dispute, error)) {
	var body noteRequest
	// The note is optional, so an empty body is accepted.
	if r.ContentLength != 0 && !decode(w, r, &body) {
		return
	}
	d, err := fn(mux.Vars(r)["id"], body.Note)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// --- invoices ---

type invoiceRequest struct {
	HubberID string        `json:"hubberId"`
	Period   models.Period `json:"period"`
}

// generateInvoice returns 201 for a new invoice and 200 with the stored one
// when the hubber already has an invoice for the period.
func (h *Handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	var body invoiceRequest
	if !decode(w, r, &body) {
		return
	}
	if body.Period.Year == 0 {
		writeError(w, http.StatusBadRequest, "period is required (YYYY-MM)")
		return
	}
	inv, created, err := h.engine.Invoices.Generate(body.HubberID, body.Period)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if created {
		writeJSON(w, http.StatusCreated, inv)
	} else {
		writeJSON(w, http.StatusOK, inv)
	}
}

func (h *Handler) listOwnInvoices(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.Invoices.List(caller(r).UserID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) listAllInvoices(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.Invoices.List(r.URL.Query().Get("hubberId"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
