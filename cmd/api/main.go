package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/cliqstr/cliqstr-backend/api/routes"
	"github.com/cliqstr/cliqstr-backend/internal/approvals"
	"github.com/cliqstr/cliqstr-backend/internal/auth"
	"github.com/cliqstr/cliqstr-backend/internal/childsettings"
	"github.com/cliqstr/cliqstr-backend/internal/cliqs"
	"github.com/cliqstr/cliqstr-backend/internal/consent"
	"github.com/cliqstr/cliqstr-backend/internal/invites"
	"github.com/cliqstr/cliqstr-backend/internal/profiles"
	"github.com/cliqstr/cliqstr-backend/internal/users"
	"github.com/cliqstr/cliqstr-backend/pkg/auth/session"
	"github.com/cliqstr/cliqstr-backend/pkg/config"
	"github.com/cliqstr/cliqstr-backend/pkg/db"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
	"github.com/cliqstr/cliqstr-backend/pkg/migrate"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox"
	"github.com/cliqstr/cliqstr-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	profilesRepo := profiles.NewRepository(gormDB)
	settingsRepo := childsettings.NewRepository(gormDB)
	invitesRepo := invites.NewRepository(gormDB)
	approvalsRepo := approvals.NewRepository(gormDB)
	cliqsRepo := cliqs.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		AccountsRepo:   usersRepo,
		ProfilesRepo:   profilesRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Tx:             dbClient,
		Users:          usersRepo,
		Invites:        invitesRepo,
		Cliqs:          cliqsRepo,
		Outbox:         outboxSvc,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	upgradeService, err := auth.NewUpgradeService(auth.UpgradeServiceParams{
		Tx:    dbClient,
		Users: usersRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create upgrade service", err)
		os.Exit(1)
	}

	invitesService, err := invites.NewService(invites.ServiceParams{
		Repo:      invitesRepo,
		Tx:        dbClient,
		Outbox:    outboxSvc,
		Users:     usersRepo,
		Accounts:  usersRepo,
		Cliqs:     cliqsRepo,
		Profiles:  profilesRepo,
		InviteTTL: cfg.Consent.InviteTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invites service", err)
		os.Exit(1)
	}

	approvalsService, err := approvals.NewService(approvals.ServiceParams{
		Repo:        approvalsRepo,
		Tx:          dbClient,
		Outbox:      outboxSvc,
		Users:       usersRepo,
		Accounts:    usersRepo,
		ApprovalTTL: cfg.Consent.ApprovalTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create approvals service", err)
		os.Exit(1)
	}

	profilesService, err := profiles.NewService(profiles.ServiceParams{
		Profiles:    profilesRepo,
		Accounts:    usersRepo,
		Settings:    settingsRepo,
		Memberships: cliqsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create profiles service", err)
		os.Exit(1)
	}

	consentService, err := consent.NewService(consent.ServiceParams{
		Tx:        dbClient,
		Users:     usersRepo,
		Profiles:  profilesRepo,
		Settings:  settingsRepo,
		Invites:   invitesRepo,
		Approvals: approvalsRepo,
		Cliqs:     cliqsRepo,
		Usernames: profilesService,
		Decliner:  approvalsService,
		Outbox:    outboxSvc,
		Password:  cfg.Password,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create consent service", err)
		os.Exit(1)
	}

	childSettingsService, err := childsettings.NewService(childsettings.ServiceParams{
		Settings:  settingsRepo,
		Profiles:  profilesRepo,
		Accounts:  usersRepo,
		Guardians: childsettings.NewApprovalGuardians(approvalsRepo),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create child settings service", err)
		os.Exit(1)
	}

	cliqsService, err := cliqs.NewService(cliqs.ServiceParams{
		Repo:     cliqsRepo,
		Tx:       dbClient,
		Profiles: profilesRepo,
		Settings: settingsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cliqs service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			Auth:          authService,
			Register:      registerService,
			Upgrade:       upgradeService,
			Invites:       invitesService,
			Approvals:     approvalsService,
			Consent:       consentService,
			Profiles:      profilesService,
			ChildSettings: childSettingsService,
			Cliqs:         cliqsService,
			Memberships:   cliqsRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
