package emulator

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

const (
	maxUpgradeMonths = 12
	// month is the plan length bought per paid month.
	month = 30 * 24 * time.Hour
)

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.store.GetSubscription(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type upgradeRequest struct {
	Tier           core.Tier `json:"tier"`
	DurationMonths int       `json:"durationMonths"`
}

// upgradeInfo quotes a premium upgrade. Nothing changes until a payment is
// settled.
func (s *Server) upgradeInfo(w http.ResponseWriter, r *http.Request) {
	var in upgradeRequest
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.Tier = core.Tier(strings.ToUpper(strings.TrimSpace(string(in.Tier))))
	if in.Tier == "" {
		in.Tier = core.TierPremium
	}
	if in.Tier != core.TierPremium {
		s.writeError(w, r, core.Invalid("tier", core.ErrMissingField, "Only the PREMIUM tier can be purchased"))
		return
	}
	if in.DurationMonths == 0 {
		in.DurationMonths = 1
	}
	if in.DurationMonths < 1 || in.DurationMonths > maxUpgradeMonths {
		s.writeError(w, r, core.Invalid("durationMonths", core.ErrInvalidAmount, "Duration must be between 1 and 12 months"))
		return
	}

	premium, err := s.premium(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	info := core.UpgradeInfo{
		Tier:           in.Tier,
		DurationMonths: in.DurationMonths,
		Price:          s.price(in.DurationMonths),
		Currency:       core.IDR,
		Eligible:       !premium,
	}
	if premium {
		info.Message = "Premium subscription is already active"
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) price(months int) core.Money {
	return core.MoneyFromDecimal(s.monthlyPrice.Decimal().Mul(decimal.NewFromInt(int64(months))))
}

func (s *Server) eligibility(r *http.Request) (core.TrialEligibility, error) {
	sub, err := s.store.GetSubscription(r.Context())
	if err != nil {
		return core.TrialEligibility{}, err
	}
	if sub.HasActiveSubscription() {
		return core.TrialEligibility{Reason: "Premium subscription is already active"}, nil
	}
	used, err := s.store.TrialUsed(r.Context())
	if err != nil {
		return core.TrialEligibility{}, err
	}
	if used {
		return core.TrialEligibility{Reason: "Free trial has already been used"}, nil
	}
	return core.TrialEligibility{Eligible: true}, nil
}

func (s *Server) trialEligibility(w http.ResponseWriter, r *http.Request) {
	e, err := s.eligibility(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// startTrial grants a premium trial once.
func (s *Server) startTrial(w http.ResponseWriter, r *http.Request) {
	e, err := s.eligibility(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !e.Eligible {
		s.writeError(w, r, core.Invalid("subscription", core.ErrAlreadyPremium, e.Reason))
		return
	}
	if err := s.store.SetPlan(r.Context(), core.TierPremium, core.SubscriptionTrial, trialDays*24*time.Hour); err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Trial started", "days", trialDays)
	s.getSubscription(w, r)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	out, err := s.store.ListCheckouts(r.Context(), page, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// createSubscriptionPayment opens a checkout for one premium month. The same
// idempotency key always answers with the same payment.
func (s *Server) createSubscriptionPayment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IdempotencyKey string `json:"idempotencyKey"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		key = strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	}
	if key == "" {
		s.writeError(w, r, core.Invalid("idempotencyKey", core.ErrMissingField, "Idempotency key is required"))
		return
	}

	sub, err := s.store.GetSubscription(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sub.HasActiveSubscription() && !sub.Trial() {
		s.writeError(w, r, core.Invalid("subscription", core.ErrAlreadyPremium, "Premium subscription is already active"))
		return
	}

	p, err := s.store.CreateCheckout(r.Context(), key, s.monthlyPrice)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Checkout created",
		log.FieldPaymentID, p.ID, log.FieldAmount, p.Amount.String())
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetCheckout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) cancelPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.SetCheckoutStatus(r.Context(), chi.URLParam(r, "id"), storage.PaymentCancelled)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// settlePayment stands in for the payment gateway callback: the checkout is
// marked paid and the plan becomes premium for a month.
func (s *Server) settlePayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.SetCheckoutStatus(r.Context(), chi.URLParam(r, "id"), storage.PaymentPaid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SetPlan(r.Context(), core.TierPremium, core.SubscriptionActive, month); err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Checkout settled",
		log.FieldPaymentID, p.ID, log.FieldStatus, p.Status)
	writeJSON(w, http.StatusOK, p)
}
