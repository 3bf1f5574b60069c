package routes

import (
	"github.com/arnold/wellness-api/internal/handlers"
	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Options struct {
	JWTSecret string
	Users     repository.UserRepository
	Log       *zap.Logger
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

func Setup(app *fiber.App, h *handlers.Handler, hub *handlers.Hub, opts Options) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	app.Use(middleware.RequestLogger(log.Named("http")))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", middleware.Protected(opts.JWTSecret), middleware.SyncProfile(opts.Users, log.Named("auth")))

	api.Get("/me", h.GetMe)
	api.Put("/me", h.UpdateProfile)
	api.Get("/me/eligibility", h.CheckEligibility)
	api.Get("/me/achievements", h.GetMyAchievements)

	// Personal activity log
	activity := api.Group("/activity")
	activity.Post("/", h.TrackActivity)
	activity.Get("/", h.GetActivity)
	activity.Get("/summary", h.GetActivitySummary)
	activity.Get("/eligibility", h.GetActivityEligibility)

	api.Get("/achievements", h.GetAchievementCatalog)

	groups := api.Group("/groups")
	groups.Get("/", h.GetGroups)
	groups.Post("/", h.CreateGroup)
	groups.Post("/join", h.JoinGroup)
	groups.Get("/:id", h.GetGroup)
	groups.Put("/:id", h.UpdateGroupSettings)
	groups.Put("/:id/status", h.UpdateGroupStatus)
	groups.Delete("/:id", h.DeleteGroup)

	// Membership
	groups.Get("/:id/members", h.GetMembers)
	groups.Delete("/:id/members/:userId", h.RemoveMember)
	groups.Post("/:id/leave", h.LeaveGroup)
	groups.Post("/:id/transfer", h.TransferOwnership)
	groups.Post("/:id/invitations", h.CreateInvitation)
	groups.Get("/:id/invitations", h.GetInvitations)
	groups.Delete("/:id/invitations/:invitationId", h.RevokeInvitation)

	// Engagement
	groups.Post("/:id/activity", h.LogMemberActivity)
	groups.Get("/:id/engagement", h.GetGroupEngagement)
	groups.Get("/:id/engagement/:userId", h.GetMemberEngagement)
	groups.Get("/:id/feed", h.GetGroupFeed)
	groups.Post("/:id/achievements/check", h.CheckAchievements)
	groups.Get("/:id/leaderboard", h.GetLeaderboard)

	groups.Get("/:id/messages", h.GetMessages)
	groups.Post("/:id/messages", h.PostMessage)

	groups.Get("/:id/preferences", h.GetPreferences)
	groups.Put("/:id/preferences", h.UpdatePreferences)

	groups.Get("/:id/analytics", h.GetGroupAnalytics)
	groups.Get("/:id/analytics/:userId", h.GetMemberAnalytics)
	api.Get("/admin/overview", h.GetSystemOverview)

	// Notifications
	notifications := api.Group("/notifications")
	notifications.Get("/", h.GetNotifications)
	notifications.Get("/unread-count", h.GetUnreadCount)
	notifications.Put("/:id/read", h.MarkNotificationRead)
	notifications.Post("/read-all", h.MarkAllRead)

	// Device token for push notifications
	api.Post("/device-token", h.RegisterDeviceToken)

	// WebSocket for real-time group updates
	app.Use("/ws", handlers.WebSocketUpgrade(opts.JWTSecret))
	app.Get("/ws/groups/:id", websocket.New(hub.HandleWebSocket))
}
