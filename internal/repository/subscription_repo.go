package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/orgatreeker/orgatreeker-backend/internal/models"
)

const subscriptionColumns = `id, user_id, provider_customer_id, provider_subscription_id,
	status, current_period_end, created_at, updated_at`

type SubscriptionRepository struct {
	db DBTX
}

func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

type UpsertSubscriptionInput struct {
	UserID                 int64
	ProviderCustomerID     string
	ProviderSubscriptionID *string
	Status                 string
	CurrentPeriodEnd       *time.Time
}

func (r *SubscriptionRepository) GetByUserID(ctx context.Context, userID int64) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

func (r *SubscriptionRepository) GetByCustomerID(ctx context.Context, customerID string) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE provider_customer_id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, customerID))
}

// Upsert writes the subscription state reported by the payment provider.
// One row per user; webhook replays land on the update arm and are harmless.
func (r *SubscriptionRepository) Upsert(ctx context.Context, input UpsertSubscriptionInput) (*models.Subscription, error) {
	query := `
		INSERT INTO subscriptions (user_id, provider_customer_id, provider_subscription_id, status, current_period_end)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET provider_customer_id = EXCLUDED.provider_customer_id,
			provider_subscription_id = EXCLUDED.provider_subscription_id,
			status = EXCLUDED.status,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = NOW()
		RETURNING ` + subscriptionColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.UserID,
		input.ProviderCustomerID,
		input.ProviderSubscriptionID,
		input.Status,
		input.CurrentPeriodEnd,
	))
}

func (r *SubscriptionRepository) UpdateByProviderSubscription(ctx context.Context, providerSubscriptionID string, status string, currentPeriodEnd *time.Time) (*models.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status = $2,
			current_period_end = COALESCE($3, current_period_end),
			updated_at = NOW()
		WHERE provider_subscription_id = $1
		RETURNING ` + subscriptionColumns
	return r.scanOne(r.db.QueryRow(ctx, query, providerSubscriptionID, status, currentPeriodEnd))
}

func (r *SubscriptionRepository) scanOne(row pgx.Row) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.ProviderCustomerID,
		&sub.ProviderSubscriptionID,
		&sub.Status,
		&sub.CurrentPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	return &sub, nil
}
