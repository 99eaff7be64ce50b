package core

import "time"

const (
	TierFree    Tier = "FREE"
	TierPremium Tier = "PREMIUM"

	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionTrial     SubscriptionStatus = "TRIAL"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

type (
	Tier string

	SubscriptionStatus string

	// Subscription mirrors GET /subscriptions/me. IsPremium and IsTrial are
	// optional backend shortcuts; when absent they are derived from Tier and
	// Status.
	Subscription struct {
		ID            string             `json:"id,omitempty" yaml:"id,omitempty"`
		Tier          Tier               `json:"tier" yaml:"tier"`
		Status        SubscriptionStatus `json:"status" yaml:"status"`
		IsPremium     *bool              `json:"isPremium,omitempty" yaml:"premium,omitempty"`
		IsTrial       *bool              `json:"isTrial,omitempty" yaml:"trial,omitempty"`
		DaysRemaining int                `json:"daysRemaining" yaml:"days_remaining"`
		StartedAt     *time.Time         `json:"startedAt,omitempty" yaml:"started_at,omitempty"`
		EndedAt       *time.Time         `json:"endedAt,omitempty" yaml:"ended_at,omitempty"`
	}

	UpgradeInfo struct {
		Tier           Tier     `json:"tier" yaml:"tier"`
		DurationMonths int      `json:"durationMonths" yaml:"duration_months"`
		Price          Money    `json:"price" yaml:"price"`
		Currency       Currency `json:"currency" yaml:"currency"`
		Eligible       bool     `json:"eligible" yaml:"eligible"`
		Message        string   `json:"message,omitempty" yaml:"message,omitempty"`
	}

	TrialEligibility struct {
		Eligible bool   `json:"eligible" yaml:"eligible"`
		Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
	}

	// CheckoutPayment is a pending subscription payment. The token is handed to
	// the external checkout popup.
	CheckoutPayment struct {
		ID             string    `json:"id" yaml:"id"`
		OrderID        string    `json:"orderId" yaml:"order_id"`
		SnapToken      string    `json:"snapToken" yaml:"snap_token"`
		RedirectURL    string    `json:"redirectUrl,omitempty" yaml:"redirect_url,omitempty"`
		Amount         Money     `json:"amount" yaml:"amount"`
		Status         string    `json:"status" yaml:"status"`
		IdempotencyKey string    `json:"idempotencyKey,omitempty" yaml:"idempotency_key,omitempty"`
		CreatedAt      time.Time `json:"createdAt" yaml:"created_at"`
	}
)

// Premium prefers the backend flag and falls back to the tier.
func (s Subscription) Premium() bool {
	if s.IsPremium != nil {
		return *s.IsPremium
	}
	return s.Tier == TierPremium
}

func (s Subscription) Free() bool {
	return !s.Premium()
}

func (s Subscription) Trial() bool {
	if s.IsTrial != nil {
		return *s.IsTrial
	}
	return s.Status == SubscriptionTrial
}

func (s Subscription) Active() bool {
	return s.Status == SubscriptionActive
}

// HasActiveSubscription reports a premium plan that is running or on trial.
func (s Subscription) HasActiveSubscription() bool {
	return s.Premium() && (s.Active() || s.Trial())
}
