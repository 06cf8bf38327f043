package models

import "time"

type Profile struct {
	ID                      int64     `json:"id"`
	UserID                  int64     `json:"user_id"`
	Email                   string    `json:"email"`
	FullName                *string   `json:"full_name"`
	AvatarURL               *string   `json:"avatar_url"`
	MonthlyIncome           *float64  `json:"monthly_income"`
	BudgetNeedsPercentage   float64   `json:"budget_needs_percentage"`
	BudgetWantsPercentage   float64   `json:"budget_wants_percentage"`
	BudgetSavingsPercentage float64   `json:"budget_savings_percentage"`
	Theme                   string    `json:"theme"`
	Currency                string    `json:"currency"`
	DateFormat              string    `json:"date_format"`
	OnboardingCompleted     bool      `json:"onboarding_completed"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// HasAllocation reports whether a budget split has ever been saved.
func (p *Profile) HasAllocation() bool {
	return p.BudgetNeedsPercentage > 0 || p.BudgetWantsPercentage > 0 || p.BudgetSavingsPercentage > 0
}
