package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"github.com/creatormatch/creatormatch_be/internal/middleware"
	"github.com/creatormatch/creatormatch_be/internal/models"
)

// Routes bundles everything Register needs.
type Routes struct {
	DB        *gorm.DB
	JWTSecret string

	Auth          *AuthHandler
	Google        *GoogleOAuthHandler
	Projects      *ProjectHandler
	Proposals     *ProposalHandler
	Chat          *ChatHandler
	Admin         *AdminHandler
	Profile       *ProfileHandler
	Content       *ContentHandler
	Opportunities *OpportunityHandler
	Assistant     *AssistantHandler
	State         *StateHandler
}

// Register mounts the API under /api.
func Register(app *fiber.App, r Routes) {
	optional := middleware.OptionalJWT(r.JWTSecret)

	user := func(h ...fiber.Handler) []fiber.Handler {
		chain := []fiber.Handler{
			middleware.JWTFromCookie(r.JWTSecret),
			middleware.AttachJWTLocals(),
			middleware.LoadCurrentUser(r.DB),
		}
		return append(chain, h...)
	}
	role := func(roles ...models.Role) fiber.Handler {
		names := make([]string, len(roles))
		for i, rl := range roles {
			names[i] = string(rl)
		}
		return middleware.RequireRoles(names...)
	}
	admin := role(models.RoleAdmin)

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	// auth
	api.Post("/auth/register", r.Auth.Register)
	api.Post("/auth/login", r.Auth.Login)
	api.Post("/auth/logout", optional, r.Auth.Logout)
	api.Get("/auth/session", optional, r.Auth.Session)
	api.Get("/auth/google/start", r.Google.GoogleStart)
	api.Get("/auth/google/callback", r.Google.GoogleCallback)

	api.Get("/bootstrap", optional, r.State.Bootstrap)

	// projects
	api.Get("/projects", r.Projects.List)
	api.Get("/projects/:id", r.Projects.Get)
	api.Post("/projects", user(role(models.RoleCreator, models.RoleAdmin), r.Projects.Create)...)
	api.Patch("/projects/:id/complete", user(r.Projects.Complete)...)
	api.Patch("/projects/:id/close", user(r.Projects.Close)...)
	api.Delete("/projects/:id", user(r.Projects.Delete)...)
	api.Post("/projects/:id/save", user(r.Projects.ToggleSave)...)

	// proposals
	api.Post("/projects/:id/proposals", user(r.Proposals.Submit)...)
	api.Get("/projects/:id/proposals", user(r.Proposals.ListForProject)...)
	api.Patch("/proposals/:id/status", user(r.Proposals.Decide)...)

	// me
	api.Get("/me", user(r.Profile.Me)...)
	api.Put("/me", user(r.Profile.UpdateMe)...)
	api.Get("/me/view", user(r.State.GetView)...)
	api.Put("/me/view", user(r.State.PutView)...)
	api.Get("/me/saved", user(r.Projects.Saved)...)
	api.Get("/me/projects", user(r.Projects.Mine)...)
	api.Get("/me/proposals", user(r.Proposals.Mine)...)
	api.Get("/users/:id", optional, r.Profile.Public)

	// chat
	api.Get("/chat/conversations", user(r.Chat.GetConversations)...)
	api.Post("/chat/conversations", user(r.Chat.StartConversation)...)
	api.Get("/chat/conversations/:id/messages", user(r.Chat.GetMessages)...)
	api.Post("/chat/conversations/:id/messages", user(r.Chat.SendMessage)...)
	api.Patch("/chat/conversations/:id/read", user(r.Chat.MarkAsRead)...)
	api.Get("/chat/unread", user(r.Chat.GetUnreadTotal)...)
	api.Get("/ws", r.Chat.UpgradeWebSocket, websocket.New(r.Chat.WebSocketHandler))

	// external opportunities
	api.Get("/opportunities", user(r.Opportunities.Fetch)...)
	api.Delete("/opportunities/seen", user(r.Opportunities.Reset)...)

	api.Post("/assistant/chat", optional, r.Assistant.Chat)

	// content
	api.Get("/announcements", r.Content.Announcements)
	api.Post("/announcements", user(admin, r.Content.CreateAnnouncement)...)
	api.Patch("/announcements/:id/toggle", user(admin, r.Content.ToggleAnnouncement)...)
	api.Get("/blog", r.Content.Posts)
	api.Get("/blog/:slug", r.Content.PostBySlug)
	api.Post("/blog", user(admin, r.Content.CreatePost)...)
	api.Put("/blog/:id", user(admin, r.Content.UpdatePost)...)
	api.Delete("/blog/:id", user(admin, r.Content.DeletePost)...)

	// admin
	api.Get("/admin/users", user(admin, r.Admin.ListUsers)...)
	api.Patch("/admin/users/:id/status", user(admin, r.Admin.ToggleStatus)...)
	api.Get("/admin/announcements", user(admin, r.Content.AllAnnouncements)...)
}
