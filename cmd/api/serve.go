package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/config"
	"github.com/creatormatch/creatormatch_be/internal/db"
	"github.com/creatormatch/creatormatch_be/internal/events"
	"github.com/creatormatch/creatormatch_be/internal/handlers"
	"github.com/creatormatch/creatormatch_be/internal/realtime"
	"github.com/creatormatch/creatormatch_be/internal/services/assistant"
	"github.com/creatormatch/creatormatch_be/internal/services/content"
	"github.com/creatormatch/creatormatch_be/internal/services/messaging"
	"github.com/creatormatch/creatormatch_be/internal/services/opportunities"
	"github.com/creatormatch/creatormatch_be/internal/services/projects"
	"github.com/creatormatch/creatormatch_be/internal/services/proposals"
	"github.com/creatormatch/creatormatch_be/internal/services/session"
	"github.com/creatormatch/creatormatch_be/internal/services/users"
	"github.com/creatormatch/creatormatch_be/internal/state"
)

func runServe(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	gdb, err := db.Connect(cfg.DBDSN, cfg.IsDevelopment())
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb, log); err != nil {
		return err
	}

	// Redis is optional: without it realtime stays local to this process
	// and per-user stores live in memory.
	var views state.ViewStore = state.NewMemoryViewStore()
	var seen opportunities.SeenStore = opportunities.NewMemorySeenStore()

	rdb, err := realtime.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, log)
	if err != nil {
		log.Warn("redis unavailable, using in-memory stores", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
		views = state.NewRedisViewStore(rdb)
		seen = opportunities.NewRedisSeenStore(rdb)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL, log)
		if err != nil {
			return err
		}
		defer nc.Close()
		publisher = nc
	}

	hub := realtime.NewHub(log)
	go hub.Run(ctx)
	notifier := realtime.NewNotifier(hub, rdb, log)

	provider, err := assistant.NewProvider(ctx, cfg.AIProvider,
		cfg.GeminiAPIKey, cfg.GeminiModel, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		log.Warn("assistant provider unavailable", zap.String("provider", cfg.AIProvider), zap.Error(err))
		provider = nil
	}

	userSvc := users.NewService(gdb, log)
	sessionSvc := session.NewService(gdb, notifier, cfg.JWTSecret, cfg.JWTExpiresMin, log)
	projectSvc := projects.NewService(gdb, publisher, log)
	messageSvc := messaging.NewService(gdb, log)
	proposalSvc := proposals.NewService(gdb, messageSvc, notifier, publisher, log)
	contentSvc := content.NewService(gdb, log)
	assistantSvc := assistant.NewService(provider, log)
	searcher := opportunities.NewSearcher(opportunities.Options{
		Keys:        cfg.SearchAPIKeys,
		EngineID:    cfg.SearchEngineID,
		APIURL:      cfg.SearchAPIURL,
		FallbackURL: cfg.SearchFallbackURL,
		ProxyURL:    cfg.SearchProxyURL,
	}, &http.Client{Timeout: 20 * time.Second}, seen, log)

	loader := state.NewLoader(state.Sources{
		Users:         userSvc,
		Projects:      projectSvc,
		Content:       contentSvc,
		Proposals:     proposalSvc,
		Conversations: messageSvc,
	}, views, cfg.SessionRestoreTimeout, log)

	secure := !cfg.IsDevelopment()

	app := fiber.New(fiber.Config{
		AppName:      "creatormatch",
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	handlers.Register(app, handlers.Routes{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,

		Auth: handlers.NewAuthHandler(sessionSvc, loader, secure, log),
		Google: &handlers.GoogleOAuthHandler{
			Sessions:        sessionSvc,
			GoogleClientID:  cfg.GoogleClientID,
			GoogleSecret:    cfg.GoogleSecret,
			GoogleRedirect:  cfg.GoogleRedirect,
			FrontendBaseURL: cfg.FrontendBaseURL,
			SecureCookie:    secure,
			Log:             log,
		},
		Projects:      handlers.NewProjectHandler(projectSvc, log),
		Proposals:     handlers.NewProposalHandler(proposalSvc, views, log),
		Chat:          handlers.NewChatHandler(messageSvc, userSvc, notifier, hub, cfg.JWTSecret, log),
		Admin:         handlers.NewAdminHandler(userSvc, notifier, log),
		Profile:       handlers.NewProfileHandler(userSvc, sessionSvc, log),
		Content:       handlers.NewContentHandler(contentSvc, log),
		Opportunities: handlers.NewOpportunityHandler(searcher, log),
		Assistant:     handlers.NewAssistantHandler(assistantSvc, projectSvc, sessionSvc, log),
		State:         handlers.NewStateHandler(loader, sessionSvc, log),
	})

	return listen(ctx, app, cfg, log)
}

func listen(ctx context.Context, app *fiber.App, cfg config.Config, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		errCh <- app.Listen(":" + cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
