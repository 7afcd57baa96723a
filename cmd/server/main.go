package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	apphttp "taskboard/internal/http"
	"taskboard/internal/repository/sqlite"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/storage"
)

func main() {
	bootLogger := logrus.New()
	bootLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Fatalf("load config: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	taskRepo := sqlite.NewTaskRepository(db)
	commentRepo := sqlite.NewTaskCommentRepository(db)
	sqliteSessions := sqlite.NewSessionStore(db)

	// Order matters: foreign keys reference earlier tables.
	if err := sqlite.InitSchema(ctx, userRepo, projectRepo, taskRepo, commentRepo, sqliteSessions); err != nil {
		logger.Fatalf("init schema: %v", err)
	}

	sessionStore, janitor, err := buildSessionStore(ctx, cfg, sqliteSessions, logger)
	if err != nil {
		logger.Fatalf("setup sessions: %v", err)
	}
	if janitor != nil {
		janitor.Start(ctx)
	}
	sessions := session.NewManager(sessionStore, session.Policy{
		Lifetime:    cfg.Session.Lifetime,
		IdleTimeout: cfg.Session.IdleTimeout,
	})

	userService, err := service.NewUserService(userRepo, auth.NewPasswordHasher(auth.DefaultArgon2Params))
	if err != nil {
		logger.Fatalf("user service: %v", err)
	}
	projectService := service.NewProjectService(projectRepo)
	taskService := service.NewTaskService(projectRepo, taskRepo)
	commentService := service.NewCommentService(taskRepo, commentRepo)

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	exportService := service.NewExportService(service.ExportConfig{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		URLTTL:    cfg.Storage.URLTTL,
	}, storageSvc, projectRepo, taskRepo, commentRepo)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if !tokens.Enabled() {
		logger.Info("auth.jwtsecret not set, bearer tokens disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Fatalf("trusted proxies: %v", err)
	}
	handler := apphttp.NewHandler(apphttp.Deps{
		Users:         userService,
		Projects:      projectService,
		Tasks:         taskService,
		Comments:      commentService,
		Exports:       exportService,
		Sessions:      sessions,
		Authenticator: auth.NewAuthenticator(sessions, userService, tokens, cfg.Auth.CookieName, logger),
		Tokens:        tokens,
		Lockout: auth.NewLockout(auth.LockoutPolicy{
			MaxAttempts:  cfg.Auth.MaxLoginAttempts,
			Window:       cfg.Auth.LoginWindow,
			LockDuration: cfg.Auth.LockDuration,
		}),
		Logger: logger,
	}, apphttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Cookie: apphttp.CookieOptions{
			Name:   cfg.Auth.CookieName,
			Domain: cfg.Auth.CookieDomain,
			Secure: cfg.Auth.SecureCookie,
		},
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if janitor != nil {
		janitor.Shutdown()
	}

	logger.Info("bye")
}

// buildSessionStore picks the configured backend. Only the sqlite store needs a janitor;
// redis expires keys itself.
func buildSessionStore(ctx context.Context, cfg config.Config, sqliteStore *sqlite.SessionStore, logger *logrus.Logger) (session.Store, *session.Janitor, error) {
	switch cfg.Session.Backend {
	case "redis":
		client, err := session.NewRedisClient(ctx, cfg.Session.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis session store")
		return session.NewRedisStore(client), nil, nil
	default:
		janitor := session.NewJanitor(session.JanitorConfig{
			Interval: cfg.Session.SweepInterval,
			Logger:   logger,
		}, sqliteStore)
		logger.Info("using sqlite session store")
		return sqliteStore, janitor, nil
	}
}

// buildStorage returns nil when no bucket is configured; exports are then disabled.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage.bucket not set, project exports disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
