package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/orgatreeker/orgatreeker-backend/internal/models"
	"github.com/orgatreeker/orgatreeker-backend/internal/repository"
)

var ErrUnauthorized = errors.New("unauthorized")

// AllocationError reports which allocation invariant a request violated.
// Field is "needs", "wants", "savings" or "total".
type AllocationError struct {
	Field  string
	Reason string
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Percentages arrive as JSON floats; the sum check tolerates representation
// noise but nothing a user would notice.
const allocationSumTolerance = 0.01

type budgetProfileStore interface {
	ApplyBudget(ctx context.Context, userID int64, input repository.BudgetInput) (*models.Profile, error)
}

type BudgetService struct {
	profileRepo budgetProfileStore
}

func NewBudgetService(profileRepo budgetProfileStore) *BudgetService {
	return &BudgetService{profileRepo: profileRepo}
}

// ApplyBudget validates the needs/wants/savings split and persists it,
// marking onboarding complete. Nothing is written on validation failure.
// Repeated calls with the same values leave the profile unchanged except for
// updated_at.
func (s *BudgetService) ApplyBudget(ctx context.Context, userID int64, needs, wants, savings float64) (*models.Profile, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	if err := validateAllocation(needs, wants, savings); err != nil {
		return nil, err
	}

	input := repository.BudgetInput{Needs: needs, Wants: wants, Savings: savings}
	profile, err := s.profileRepo.ApplyBudget(ctx, userID, input)
	if errors.Is(err, repository.ErrUnavailable) {
		// One retry on transient store failure; not-found and constraint
		// errors surface immediately.
		profile, err = s.profileRepo.ApplyBudget(ctx, userID, input)
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func validateAllocation(needs, wants, savings float64) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"needs", needs},
		{"wants", wants},
		{"savings", savings},
	}
	for _, field := range fields {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			return &AllocationError{Field: field.name, Reason: "must be a finite number"}
		}
		if field.value < 0 || field.value > 100 {
			return &AllocationError{Field: field.name, Reason: "must be between 0 and 100"}
		}
	}
	if sum := needs + wants + savings; math.Abs(sum-100) > allocationSumTolerance {
		return &AllocationError{Field: "total", Reason: fmt.Sprintf("percentages must sum to 100, got %g", sum)}
	}
	return nil
}
