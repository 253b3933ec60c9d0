package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusconnect/api/api"
	"github.com/campusconnect/api/config"
	"github.com/campusconnect/api/database"
	"github.com/campusconnect/api/router"
	"github.com/campusconnect/api/services/careerplan"
	"github.com/campusconnect/api/services/changefeed"
	"github.com/campusconnect/api/services/cron"
	"github.com/campusconnect/api/services/legit"
	"github.com/campusconnect/api/services/moderation"
	"github.com/campusconnect/api/services/notification"
	"github.com/campusconnect/api/services/resume"
	"github.com/campusconnect/api/services/search"
	"github.com/campusconnect/api/services/selector"
	"github.com/campusconnect/api/services/storage"
	"github.com/campusconnect/api/services/submission"
	"github.com/campusconnect/api/services/taxonomy"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/auth"
	"github.com/campusconnect/api/utils/cache"
	"github.com/campusconnect/api/utils/middleware"
	"github.com/campusconnect/api/utils/validation"
)

const shutdownTimeout = 10 * time.Second

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}
	if err := env.Validate(); err != nil {
		return err
	}

	log, err := utils.NewLogger(env.GO_ENV)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	store, err := database.Open(env, log)
	if err != nil {
		log.Error("database unavailable; for local development set DB_DRIVER=sqlite", "driver", env.DB_DRIVER)
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to initialize database tables: %w", err)
	}

	c, err := build(context.Background(), env, store, log)
	if err != nil {
		return err
	}
	defer c.close()

	if c.cron != nil {
		if err := c.cron.Start(); err != nil {
			// Scheduled maintenance is not required to serve requests
			log.Warn("failed to start cron jobs", "error", err)
		} else {
			defer c.cron.Stop()
		}
	}

	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT), env.MAX_UPLOAD_MB, log)
	app := server.GetEngine()

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: env.RATE_LIMIT_REQUESTS,
		RateLimitWindow:   env.RATE_LIMIT_WINDOW,
		Logger:            log,
	})
	router.SetupRoutes(app, c.deps)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Run() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig.String())
		// Closing the broker ends the moderation streams so open
		// connections can drain
		_ = c.deps.Broker.Close()
		return server.Shutdown(shutdownTimeout)
	}
}

// components is the process-wide object graph
type components struct {
	deps    router.Deps
	cron    *cron.CronManager
	closers []func() error
}

func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

func build(ctx context.Context, env *config.EnviornmentVariable, store *database.GORMStore, log *utils.Logger) (*components, error) {
	c := &components{}
	db := store.DB()

	// Key-value store: Redis when configured, process memory otherwise
	var kv cache.Store = cache.NewMemoryCache()
	var bruteForce *middleware.BruteForceProtection
	if env.REDIS_URL != "" {
		redisCache, err := cache.NewRedisCache(ctx, env.REDIS_URL, cache.DefaultPrefix)
		if err != nil {
			log.Warn("redis unavailable; login lockout disabled and caches kept in memory", "error", err)
		} else {
			kv = redisCache
			bruteForce = middleware.NewBruteForceProtection(redisCache)
			c.closers = append(c.closers, redisCache.Close)
		}
	}

	// Blob storage
	var blobs storage.BlobStore
	if env.BlobStorageConfigured() {
		s3Store, err := storage.NewS3Store(storage.S3Config{
			AccessKey: env.S3_ACCESS_KEY,
			SecretKey: env.S3_SECRET_KEY,
			Bucket:    env.S3_BUCKET,
			Region:    env.S3_REGION,
			Endpoint:  env.S3_ENDPOINT,
			CDNURL:    env.S3_CDN_URL,
			PathStyle: env.S3_PATH_STYLE,
		})
		if err != nil {
			c.close()
			return nil, fmt.Errorf("failed to configure blob storage: %w", err)
		}
		blobs = s3Store
	} else {
		if env.IsProduction() {
			c.close()
			return nil, errors.New("S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required in production")
		}
		log.Warn("blob storage not configured; uploads are kept in memory")
		blobs = storage.NewMemoryStore("memory://blobs")
	}

	// Change feed: LISTEN/NOTIFY across instances on Postgres
	var broker changefeed.Broker
	if store.Driver() == "postgres" {
		pgBroker, err := changefeed.NewPostgresBroker(env.PostgresDSN(), db, log)
		if err != nil {
			c.close()
			return nil, fmt.Errorf("failed to start change feed: %w", err)
		}
		broker = pgBroker
	} else {
		broker = changefeed.NewMemoryBroker()
	}
	c.closers = append(c.closers, broker.Close)

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        env.JWT_ISSUER,
	})
	blacklist := auth.NewBlacklistService(db, kv)

	tax := taxonomy.NewService(db)

	// A nil interface, not a nil *InferenceClient, marks generation as unconfigured
	var llm careerplan.Completer
	if env.INFERENCE_API_KEY != "" {
		llm = careerplan.NewInferenceClient(careerplan.InferenceConfig{
			APIKey:  env.INFERENCE_API_KEY,
			BaseURL: env.INFERENCE_BASE_URL,
			Timeout: env.INFERENCE_TIMEOUT,
			Model:   env.INFERENCE_MODEL,
		})
	} else {
		log.Warn("INFERENCE_API_KEY not set; career plans are disabled")
	}

	if env.RAZORPAY_KEY_SECRET == "" {
		log.Warn("RAZORPAY_KEY_SECRET not set; every resume is watermarked")
	}

	pipeline := submission.NewPipeline(db, blobs, broker, validation.NewValidator(), log,
		submission.Config{MaxUploadMB: env.MAX_UPLOAD_MB})

	notices := notification.NewService(db, log)

	c.deps = router.Deps{
		Store:       store,
		Log:         log,
		JWT:         jwtManager,
		Hasher:      auth.NewHasher(auth.DefaultCost),
		Blacklist:   blacklist,
		BruteForce:  bruteForce,
		Taxonomy:    tax,
		Selector:    selector.NewMachine(tax, log),
		Search:      search.NewService(db, log),
		Submissions: pipeline,
		Moderation:  moderation.NewQueue(db, broker, log),
		Broker:      broker,
		Notices:     notices,
		CareerPlan:  careerplan.NewGenerator(llm, log),
		Resume:      resume.NewService(env.RAZORPAY_KEY_SECRET, log),
		Legit:       legit.NewClient(legit.Config{BaseURL: env.LEGIT_API_URL}, kv, log),
		MaxUploadMB: env.MAX_UPLOAD_MB,
	}

	if env.CRON_ENABLED {
		c.cron = cron.NewCronManager(db, blobs, blacklist, log, cron.Config{
			OrphanSweepSpec:   env.ORPHAN_SWEEP_CRON,
			OrphanGracePeriod: env.ORPHAN_GRACE_PERIOD,
		}).WithNotificationCleanup(notices)
	}

	return c, nil
}
