package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

// Router holds every handler mounted under /api.
type Router struct {
	JWTSecret string

	// per-caller request limits; zero disables a limit
	Limiter  middleware.Limiter
	AIRate   int
	AIWindow time.Duration
	AuthRate int

	Auth          *AuthHandler
	Google        *GoogleOAuthHandler
	Users         *UserHandler
	Assignments   *AssignmentHandler
	Payments      *PaymentHandler
	Marketplace   *ProductHandler
	Messages      *MessageHandler
	Notifications *NotificationHandler
	Calendar      *CalendarHandler
	AI            *AIHandler
	Referrals     *ReferralHandler
	Uploads       *UploadHandler
	Categories    *CategoryHandler
}

func (r *Router) Register(app *fiber.App) {
	api := app.Group("/api")

	// public
	authLimit := middleware.RateLimit(r.Limiter, "auth", r.AuthRate, time.Minute)
	api.Post("/auth/register", authLimit, r.Auth.Register)
	api.Post("/auth/login", authLimit, r.Auth.Login)
	api.Post("/auth/logout", r.Auth.Logout)
	if r.Google != nil {
		api.Get("/auth/google/start", r.Google.GoogleStart)
		api.Get("/auth/google/callback", r.Google.GoogleCallback)
	}
	api.Get("/categories", r.Categories.GetCategories)
	api.Get("/files/*", r.Uploads.Download)

	protected := api.Group("/",
		middleware.JWTFromCookie(r.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/auth/me", r.Auth.Me)
	protected.Patch("/auth/profile", r.Auth.UpdateProfile)
	protected.Post("/upload", r.Uploads.Upload)

	asg := protected.Group("/assignments")
	asg.Post("/", middleware.RequireRoles(models.RoleStudent), r.Assignments.Create)
	asg.Get("/", r.Assignments.List)
	asg.Get("/my-work", middleware.RequireRoles(models.RoleFreelancer), r.Assignments.MyWork)
	asg.Get("/stats", r.Assignments.Stats)
	asg.Get("/:id", r.Assignments.Get)
	asg.Post("/:id/files", r.Assignments.AddFiles)
	asg.Post("/:id/publish", r.Assignments.Publish())
	asg.Post("/:id/accept", r.Assignments.Accept())
	asg.Post("/:id/start", r.Assignments.StartWork())
	asg.Post("/:id/submit", r.Assignments.SubmitWork)
	asg.Post("/:id/review", r.Assignments.Review)
	asg.Post("/:id/mark-paid", r.Assignments.MarkAsPaid())

	pay := protected.Group("/payments")
	pay.Post("/", r.Payments.CreatePayment)
	pay.Get("/", r.Payments.List)
	pay.Get("/stats", r.Payments.Stats)
	pay.Get("/:id", r.Payments.GetPayment)
	pay.Post("/:id/screenshots", r.Payments.AddScreenshot)

	mkt := protected.Group("/marketplace")
	mkt.Get("/", r.Marketplace.List)
	mkt.Post("/", r.Marketplace.Create)
	mkt.Get("/mine", r.Marketplace.Mine)
	mkt.Get("/purchases", r.Marketplace.MyPurchases)
	mkt.Get("/stats", r.Marketplace.Stats)
	mkt.Get("/:id", r.Marketplace.Get)
	mkt.Put("/:id", r.Marketplace.Update)
	mkt.Delete("/:id", r.Marketplace.Delete)
	mkt.Post("/:id/files", r.Marketplace.AddFiles)
	mkt.Post("/:id/purchase", r.Marketplace.Purchase)

	msg := protected.Group("/messages")
	msg.Post("/", r.Messages.Send)
	msg.Get("/conversations", r.Messages.Conversations)
	msg.Get("/unread-count", r.Messages.UnreadCount)
	msg.Get("/:userId", r.Messages.Conversation)
	msg.Patch("/:userId/read", r.Messages.MarkAsRead)

	ntf := protected.Group("/notifications")
	ntf.Get("/", r.Notifications.List)
	ntf.Get("/unread-count", r.Notifications.UnreadCount)
	ntf.Patch("/read-all", r.Notifications.MarkAllAsRead)
	ntf.Patch("/:id/read", r.Notifications.MarkAsRead)

	cal := protected.Group("/calendar")
	cal.Get("/", r.Calendar.List)
	cal.Post("/", r.Calendar.Create)

	ai := protected.Group("/ai")
	ai.Post("/chat", middleware.RateLimit(r.Limiter, "ai", r.AIRate, r.AIWindow), r.AI.Send)
	ai.Get("/conversations", r.AI.Conversations)
	ai.Get("/conversations/:id/messages", r.AI.Messages)

	ref := protected.Group("/referrals")
	ref.Get("/code", r.Referrals.Code)
	ref.Get("/", r.Referrals.List)
	protected.Get("/wallet", r.Referrals.WalletSummary)

	admin := protected.Group("/admin", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	admin.Get("/stats", r.Assignments.AdminStats)
	admin.Get("/payments", r.Payments.All)
	admin.Get("/payments/pending", r.Payments.Pending)
	admin.Post("/payments/:id/verify", r.Payments.Verify)
	admin.Get("/users", r.Users.List)
	admin.Get("/users/stats", r.Users.Stats)
	admin.Post("/users/:id/approve", r.Users.Approve)
	admin.Patch("/users/:id/role", r.Users.ChangeRole)
	admin.Delete("/users/:id", r.Users.Delete)
}
