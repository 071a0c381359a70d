package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/amirhosseinghanipour/orgauth/internal/application/auth"
	"github.com/amirhosseinghanipour/orgauth/internal/application/invitation"
	"github.com/amirhosseinghanipour/orgauth/internal/application/organization"
	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/application/retention"
	"github.com/amirhosseinghanipour/orgauth/internal/config"
	infraauth "github.com/amirhosseinghanipour/orgauth/internal/infrastructure/auth"
	httprouter "github.com/amirhosseinghanipour/orgauth/internal/infrastructure/http"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/http/middleware"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/lockout"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/persistence/memory"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/persistence/postgres"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/queue"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/security"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/webhook"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if !cfg.Server.DevMode {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store  ports.Store
		pinger handlers.Pinger
	)
	if cfg.Database.URL != "" {
		pg, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Database.URL,
			MaxConns:       cfg.Database.MaxConns,
			MigrateOnStart: cfg.Database.MigrateOnStart,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to database")
		}
		defer pg.Close()
		store, pinger = pg, pg
	} else {
		log.Warn().Msg("DATABASE_URL not set; using in-memory store")
		store = memory.NewStore()
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	var (
		emitter ports.WebhookEmitter = webhook.NewNoopEmitter()
		worker  *queue.Worker
	)
	if cfg.Webhook.URL != "" {
		delivery := webhook.NewHTTPEmitter(cfg.Webhook.URL, webhook.WithSigningSecret(cfg.Webhook.Secret))
		if redisClient == nil {
			async := webhook.NewAsyncEmitter(delivery, cfg.Webhook.WorkerConcurrency, cfg.Webhook.BufferSize, log)
			defer async.Close()
			emitter = async
		} else {
			redisOpt, err := asynq.ParseRedisURI(cfg.Redis.URL)
			if err != nil {
				log.Fatal().Err(err).Msg("parse REDIS_URL for asynq")
			}
			enq := queue.NewWebhookEnqueuer(redisOpt, log)
			defer enq.Close()
			emitter = enq
			worker = queue.NewWorker(redisOpt, cfg.Webhook.WorkerConcurrency, delivery, log)
		}
	}

	// Both hashers draw from one HASH_CONCURRENCY budget.
	passwordHasher := security.NewBoundedHasher(security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  16,
		KeyLength:   32,
	}), cfg.Argon2.Concurrency)
	tokenHasher := passwordHasher.Share(security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.TokenMemory,
		Iterations:  cfg.Argon2.TokenIterations,
		Parallelism: cfg.Argon2.TokenParallelism,
		SaltLength:  16,
		KeyLength:   32,
	}))

	issuer, err := infraauth.NewTokenIssuer(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("create token issuer")
	}

	sessions := auth.NewSessionIssuer(store, issuer, tokenHasher, auth.SessionConfig{
		AccessExpiry:     cfg.JWT.AccessExpiry,
		RefreshExpiry:    cfg.JWT.RefreshExpiry,
		RefreshScanLimit: cfg.Session.RefreshScanLimit,
		LogoutScanLimit:  cfg.Session.LogoutScanLimit,
	})
	var lockoutStore ports.LoginLockoutStore
	if cfg.Lockout.MaxAttempts > 0 {
		lockoutStore = lockout.NewMemoryStore(cfg.Lockout.MaxAttempts, cfg.Lockout.Cooldown)
	}
	registerUC := auth.NewRegisterUser(store.Users(), passwordHasher, sessions)
	loginUC := auth.NewLogin(store.Users(), passwordHasher, sessions, lockoutStore)
	refreshUC := auth.NewRefresh(sessions, issuer)
	logoutUC := auth.NewLogout(sessions)

	access := organization.NewAccess(store.Memberships())
	createOrgUC := organization.NewCreateOrganization(store)
	orgQueries := organization.NewQueries(store.Organizations(), store.Memberships())
	addMemberUC := organization.NewAddMember(store.Users(), store.Memberships())
	createInviteUC := invitation.NewCreateInvite(store, security.NewRandomTokenGenerator(), tokenHasher, cfg.Session.InviteTTL)
	acceptInviteUC := invitation.NewAcceptInvite(store, passwordHasher, tokenHasher, sessions, cfg.Session.InviteScanLimit)

	audit := handlers.NewAuditor(log, emitter)
	authHandler := handlers.NewAuthHandler(registerUC, loginUC, refreshUC, logoutUC, handlers.CookieConfig{
		Name:     cfg.Cookie.Name,
		Secure:   cfg.Cookie.Secure,
		SameSite: cfg.Cookie.SameSite,
		Domain:   cfg.Cookie.Domain,
		MaxAge:   time.Duration(cfg.JWT.RefreshExpiry) * time.Second,
	}, audit, log)

	rateCfg := middleware.RateLimitConfig{
		RatePerIP:   cfg.RateLimit.PerIP,
		RatePerUser: cfg.RateLimit.PerUser,
		Redis:       redisClient,
	}
	ipLimit, err := middleware.NewIPRateLimiter(rateCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	userLimit, err := middleware.NewUserRateLimiter(rateCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create user rate limiter")
	}

	health := handlers.NewHealthHandler().With("database", pinger)
	if redisClient != nil {
		health.With("redis", handlers.RedisPinger(redisClient))
	}

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:          authHandler,
		HealthHandler:        health,
		UsersHandler:         handlers.NewUsersHandler(store.Users(), log),
		OrganizationsHandler: handlers.NewOrganizationsHandler(createOrgUC, orgQueries, addMemberUC, createInviteUC, audit, log),
		InvitesHandler:       handlers.NewInvitesHandler(acceptInviteUC, authHandler, audit, log),
		RequireJWT:           middleware.NewAuthValidator(issuer).Handler,
		OrgResolver:          middleware.NewOrgResolver(access),
		Log:                  log,
		Secure:               middleware.NewSecure(middleware.SecureOptions(cfg.Server.DevMode)),
		IPRateLimit:          ipLimit,
		UserRateLimit:        userLimit,
		CORSAllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		Metrics:              true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error {
			log.Info().Int("concurrency", cfg.Webhook.WorkerConcurrency).Msg("webhook worker starting")
			return worker.Run(gctx)
		})
	}
	g.Go(func() error {
		return retention.Run(gctx, store.RefreshTokens(), cfg.Session.RetentionDays, cfg.Session.RetentionInterval, log)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}
