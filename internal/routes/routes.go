package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgatreeker/orgatreeker-backend/internal/config"
	"github.com/orgatreeker/orgatreeker-backend/internal/handlers"
	"github.com/orgatreeker/orgatreeker-backend/internal/middleware"
	"github.com/orgatreeker/orgatreeker-backend/internal/payments"
	"github.com/orgatreeker/orgatreeker-backend/internal/repository"
	"github.com/orgatreeker/orgatreeker-backend/internal/services"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	var storageService services.StorageService
	if cfg.StorageEnabled() {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	var billingService *services.BillingService
	if cfg.BillingEnabled() {
		client := payments.InitDefault(cfg.PaymentAPIURL, cfg.PaymentSecretKey)
		billingService = services.NewBillingService(subscriptionRepo, client, cfg.PremiumPriceID, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	} else {
		billingService = services.NewBillingService(subscriptionRepo, nil, "", cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	}

	budgetService := services.NewBudgetService(profileRepo)
	reportService := services.NewReportService(profileRepo)

	authHandler := handlers.NewAuthHandler(db, userRepo, profileRepo, cfg.JWTSecret)
	budgetHandler := handlers.NewBudgetHandler(budgetService, profileRepo)
	profileHandler := handlers.NewProfileHandler(profileRepo, storageService)
	preferencesHandler := handlers.NewPreferencesHandler(profileRepo)
	billingHandler := handlers.NewBillingHandler(billingService, userRepo, cfg.PaymentWebhookSecret)
	reportHandler := handlers.NewReportHandler(reportService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)
	auth.Post("/logout", middleware.AuthRequired(cfg.JWTSecret), authHandler.Logout)

	// Provider calls this; authenticated by signature, not by session.
	api.Post("/billing/webhook", billingHandler.Webhook)

	v1 := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	v1.Post("/budget/apply", budgetHandler.ApplyBudget)
	v1.Get("/onboarding/status", budgetHandler.OnboardingStatus)

	v1.Get("/profile", profileHandler.GetProfile)
	v1.Put("/profile", profileHandler.UpdateProfile)
	v1.Post("/profile/avatar", profileHandler.UploadAvatar)

	v1.Get("/preferences", preferencesHandler.GetPreferences)
	v1.Put("/preferences", preferencesHandler.UpdatePreferences)

	billing := v1.Group("/billing")
	billing.Post("/checkout", billingHandler.CreateCheckout)
	billing.Get("/subscription", billingHandler.GetSubscription)

	reports := v1.Group("/reports", middleware.PremiumRequired(billingService))
	reports.Get("/breakdown", reportHandler.GetBreakdown)
}
