package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/orgatreeker/orgatreeker-backend/internal/models"
)

const profileColumns = `id, user_id, email, full_name, avatar_url, monthly_income,
	budget_needs_percentage, budget_wants_percentage, budget_savings_percentage,
	theme, currency, date_format, onboarding_completed, created_at, updated_at`

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

type BudgetInput struct {
	Needs   float64
	Wants   float64
	Savings float64
}

type UpdateProfileInput struct {
	FullName      *string
	AvatarURL     *string
	MonthlyIncome *float64
	Theme         *string
	Currency      *string
	DateFormat    *string
}

func (r *ProfileRepository) Create(ctx context.Context, userID int64, email string, fullName *string) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, email, full_name)
		VALUES ($1, $2, $3)
		RETURNING ` + profileColumns
	return r.scanOne(r.db.QueryRow(ctx, query, userID, email, fullName))
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE user_id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

// ApplyBudget persists the allocation split and marks onboarding complete.
// The completion flag is a one-way transition; later calls only overwrite the
// percentages.
func (r *ProfileRepository) ApplyBudget(ctx context.Context, userID int64, input BudgetInput) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET budget_needs_percentage = $1,
			budget_wants_percentage = $2,
			budget_savings_percentage = $3,
			onboarding_completed = TRUE,
			updated_at = NOW()
		WHERE user_id = $4
		RETURNING ` + profileColumns
	return r.scanOne(r.db.QueryRow(ctx, query, input.Needs, input.Wants, input.Savings, userID))
}

func (r *ProfileRepository) UpdatePartial(ctx context.Context, userID int64, input UpdateProfileInput) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET full_name = COALESCE($1, full_name),
			avatar_url = COALESCE($2, avatar_url),
			monthly_income = COALESCE($3, monthly_income),
			theme = COALESCE($4, theme),
			currency = COALESCE($5, currency),
			date_format = COALESCE($6, date_format),
			updated_at = NOW()
		WHERE user_id = $7
		RETURNING ` + profileColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.FullName,
		input.AvatarURL,
		input.MonthlyIncome,
		input.Theme,
		input.Currency,
		input.DateFormat,
		userID,
	))
}

func (r *ProfileRepository) scanOne(row pgx.Row) (*models.Profile, error) {
	var profile models.Profile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Email,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.MonthlyIncome,
		&profile.BudgetNeedsPercentage,
		&profile.BudgetWantsPercentage,
		&profile.BudgetSavingsPercentage,
		&profile.Theme,
		&profile.Currency,
		&profile.DateFormat,
		&profile.OnboardingCompleted,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	return &profile, nil
}
