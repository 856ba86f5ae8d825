package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quicksign/quicksign/handlers"
	"github.com/quicksign/quicksign/internal/config"
	"github.com/quicksign/quicksign/internal/database"
	dochandler "github.com/quicksign/quicksign/internal/document/handler"
	docrepo "github.com/quicksign/quicksign/internal/document/repository"
	docservice "github.com/quicksign/quicksign/internal/document/service"
	"github.com/quicksign/quicksign/internal/field"
	"github.com/quicksign/quicksign/internal/notify"
	reqhandler "github.com/quicksign/quicksign/internal/request/handler"
	reqrepo "github.com/quicksign/quicksign/internal/request/repository"
	reqservice "github.com/quicksign/quicksign/internal/request/service"
	"github.com/quicksign/quicksign/internal/storage"
	"github.com/quicksign/quicksign/internal/users"
	"github.com/quicksign/quicksign/internal/verification"
	"github.com/quicksign/quicksign/pkg/logger"
	"github.com/quicksign/quicksign/pkg/metrics"
	"github.com/quicksign/quicksign/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v smtp=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.SMTP.Host != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond
	// to OPTIONS. Production should use a stricter policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so the rate limiter and verification store can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// MongoDB with retry/backoff to tolerate startup races; memory repositories
	// otherwise.
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts; using in-memory storage", maxAttempts)
			mongoClient = nil
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
		}
	}

	var (
		userRepo  users.Repository
		docsRepo  docrepo.Repository
		fieldRepo field.Repository
		reqRepo   reqrepo.Repository
	)
	if mongoClient != nil {
		db := mongoClient.Database(cfg.MongoDB.Database)
		userRepo = users.NewMongoRepository(db.Collection("users"))
		docsRepo = docrepo.NewMongoRepo(db.Collection("documents"))
		fieldRepo = field.NewMongoRepository(db.Collection("fields"))
		reqRepo = reqrepo.NewMongoRepository(db.Collection("signature_requests"))
		logger.Infof("Using MongoDB storage: %s", cfg.MongoDB.Database)
	} else {
		userRepo = users.NewMemoryRepository()
		docsRepo = docrepo.NewMemoryRepo()
		fieldRepo = field.NewMemoryRepository()
		reqRepo = reqrepo.NewMemoryRepository()
		logger.Warnf("Using in-memory storage; data is lost on restart")
	}

	// Verification codes live in Redis when available (TTL handled server-side)
	var verifyRepo verification.Repository
	var pendingCounter verification.Counter
	if redisClient != nil {
		verifyRepo = verification.NewRedisRepository(redisClient, "verify:")
	} else {
		mem := verification.NewMemoryRepository()
		verifyRepo = mem
		pendingCounter = mem
	}

	// File storage backend: MinIO when configured, local disk otherwise
	var store storage.Store
	var localStore *storage.LocalStore
	if mc := storage.LoadMinIOConfig(); mc.Endpoint != "" {
		ms, err := storage.NewMinIOStore(mc)
		if err != nil {
			logger.Fatalf("failed to initialize MinIO storage: %v", err)
		}
		store = ms
		logger.Infof("Using MinIO storage: %s/%s", mc.Endpoint, mc.Bucket)
	} else {
		localStore, err = storage.NewLocalStore(cfg.Upload.Dir)
		if err != nil {
			logger.Fatalf("failed to initialize upload dir %s: %v", cfg.Upload.Dir, err)
		}
		store = localStore
	}

	// Outbound email; registration falls back to direct account creation when
	// the mailer is not configured.
	var mailer notify.Mailer = notify.Disabled{}
	mailEnabled := false
	if smtp := notify.NewSMTPMailer(cfg.SMTP); smtp.Configured() {
		mailer = smtp
		mailEnabled = true
		logger.Infof("Email notifications enabled via %s:%s", cfg.SMTP.Host, cfg.SMTP.Port)
	} else {
		logger.Warnf("SMTP not configured; email verification and signer notifications disabled")
	}
	outbox := notify.NewOutbox(mailer)

	usersSvc := users.NewService(userRepo)
	verifySvc := verification.NewService(verifyRepo)
	docsSvc := docservice.New(docsRepo, store, cfg.Upload.MaxSizeBytes)
	fieldSvc := field.NewService(fieldRepo, docsRepo)
	workflowSvc := reqservice.New(reqRepo, docsRepo, fieldSvc, outbox, usersSvc.GetByID, cfg.SMTP.BaseURL)

	if err := usersSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Warnf("admin bootstrap failed: %v", err)
	}
	if localStore != nil {
		if n, err := docsSvc.Reindex(ctx, localStore); err != nil {
			logger.Warnf("upload dir re-index failed: %v", err)
		} else if n > 0 {
			logger.Infof("re-indexed %d file(s) from %s", n, cfg.Upload.Dir)
		}
	}

	// Dispatch queued signer notifications in the background
	go func() {
		tick := time.NewTicker(5 * time.Second)
		defer tick.Stop()
		for range tick.C {
			if n := outbox.Drain(context.Background()); n > 0 {
				logger.Debugf("dispatched %d notification(s)", n)
			}
		}
	}()

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["mongodb"] = mongoClient != nil || cfg.MongoDB.URI == ""
		if !deps["mongodb"] {
			ready = false
		}
		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}
		deps["storage"] = store != nil

		status := http.StatusOK
		label := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			label = "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	auth := middleware.AuthMiddleware(cfg)
	admin := middleware.AdminMiddleware(usersSvc.GetByID)
	root := r.Group("/")

	handlers.NewAuthHandler(cfg, usersSvc, verifySvc, mailer, mailEnabled).Register(root, auth)
	handlers.NewAdminHandler(usersSvc, docsSvc, workflowSvc, fieldSvc, pendingCounter).Register(root, auth, admin)
	dochandler.New(docsSvc, workflowSvc, fieldSvc).Register(root, auth)
	reqhandler.New(workflowSvc, docsSvc, usersSvc.GetByID, cfg.MongoDB.URI, cfg.MongoDB.Database).Register(root, auth)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting QuickSign Pro on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
