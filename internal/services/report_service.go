package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/orgatreeker/orgatreeker-backend/internal/models"
)

var (
	ErrOnboardingIncomplete = errors.New("onboarding incomplete")
	ErrInvalidIncome        = errors.New("income must be greater than 0")
)

type profileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
}

type ReportService struct {
	profileRepo profileReader
}

func NewReportService(profileRepo profileReader) *ReportService {
	return &ReportService{profileRepo: profileRepo}
}

type BudgetBreakdown struct {
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	Needs         decimal.Decimal `json:"needs"`
	Wants         decimal.Decimal `json:"wants"`
	Savings       decimal.Decimal `json:"savings"`
	Currency      string          `json:"currency"`
}

// Breakdown splits a monthly income by the saved allocation. Income may be
// passed explicitly; otherwise the profile's stored monthly income is used.
// Needs and wants are rounded to cents and savings takes the remainder so the
// three always sum back to the income exactly.
func (s *ReportService) Breakdown(ctx context.Context, userID int64, income *float64) (*BudgetBreakdown, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.OnboardingCompleted {
		return nil, ErrOnboardingIncomplete
	}

	amount := 0.0
	if income != nil {
		amount = *income
	} else if profile.MonthlyIncome != nil {
		amount = *profile.MonthlyIncome
	}
	if amount <= 0 {
		return nil, ErrInvalidIncome
	}

	total := decimal.NewFromFloat(amount).Round(2)
	hundred := decimal.NewFromInt(100)
	needs := total.Mul(decimal.NewFromFloat(profile.BudgetNeedsPercentage)).Div(hundred).Round(2)
	wants := total.Mul(decimal.NewFromFloat(profile.BudgetWantsPercentage)).Div(hundred).Round(2)
	savings := total.Sub(needs).Sub(wants)

	return &BudgetBreakdown{
		MonthlyIncome: total,
		Needs:         needs,
		Wants:         wants,
		Savings:       savings,
		Currency:      profile.Currency,
	}, nil
}
