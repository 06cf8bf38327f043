package models

import "time"

type Subscription struct {
	ID                     int64      `json:"id"`
	UserID                 int64      `json:"user_id"`
	ProviderCustomerID     string     `json:"provider_customer_id"`
	ProviderSubscriptionID *string    `json:"provider_subscription_id"`
	Status                 string     `json:"status"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Active reports whether the subscription currently entitles the user to
// premium features.
func (s *Subscription) Active(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.Status != "active" && s.Status != "trialing" {
		return false
	}
	if s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.Before(now) {
		return false
	}
	return true
}
