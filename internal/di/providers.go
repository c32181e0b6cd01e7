package di

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"account-service/internal/app"
	"account-service/internal/config"
	"account-service/internal/database"
	"account-service/internal/health"
	"account-service/internal/http/handler"
	"account-service/internal/http/middleware"
	"account-service/internal/http/router"
	"account-service/internal/observability"
	"account-service/internal/repository"
	"account-service/internal/security"
	"account-service/internal/service"
)

const (
	readinessProbeTimeout = 2 * time.Second
	startupGracePeriod    = 10 * time.Second
	ephemeralStorePrefix  = "pending"
	rateLimitRedisPrefix  = "rl"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewRefreshTokenRepository,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	provideCookieManager,
	security.NewArgon2Hasher,
	wire.Bind(new(security.PasswordHasher), new(*security.Argon2Hasher)),
)

var ServiceSet = wire.NewSet(
	service.NewTokenService,
	service.NewGoogleOAuthProvider,
	wire.Bind(new(service.OAuthProvider), new(*service.GoogleOAuthProvider)),
	service.NewOAuthService,
	provideNotifier,
	provideVerificationStore,
	service.NewAuthService,
	provideAvatarStorage,
	provideUserService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.UserServiceInterface), new(*service.UserService)),
)

var HTTPSet = wire.NewSet(
	provideAuthHandler,
	handler.NewUserHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

type GlobalRateLimiterFunc func(http.Handler) http.Handler

type AuthRateLimiterFunc func(http.Handler) http.Handler

type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideJWTManager(cfg *config.Config) (*security.JWTManager, error) {
	return security.NewJWTManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideNotifier(cfg *config.Config, logger *slog.Logger) service.Notifier {
	if cfg.MailEnabled {
		return service.NewSMTPNotifier(cfg.MailHost, cfg.MailPort, cfg.MailUsername, cfg.MailPassword, cfg.MailFrom, cfg.MailTimeout)
	}
	return service.NewDevNotifier(logger)
}

func provideVerificationStore(cfg *config.Config, redisClient redis.UniversalClient) *service.VerificationStore {
	var store service.EphemeralStore
	if redisClient != nil {
		store = service.NewRedisEphemeralStore(redisClient, ephemeralStorePrefix)
	} else {
		store = service.NewInMemoryEphemeralStore()
	}
	return service.NewVerificationStore(store, cfg.VerificationCodeTTL)
}

func provideAvatarStorage(cfg *config.Config) (*service.MinIOAvatarStorage, error) {
	return service.NewMinIOAvatarStorage(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
	)
}

func provideUserService(userRepo repository.UserRepository, avatars *service.MinIOAvatarStorage) *service.UserService {
	return service.NewUserService(userRepo, avatars)
}

func provideAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, cfg *config.Config) *handler.AuthHandler {
	return handler.NewAuthHandler(authSvc, cookieMgr, oauthStateKey(cfg), cfg.RefreshTokenTTL)
}

// oauthStateKey keeps the state-signing key distinct from the JWT
// signing secret. An explicit OAUTH_STATE_SECRET wins; otherwise the
// key is derived one-way from the JWT secret.
func oauthStateKey(cfg *config.Config) string {
	if cfg.OAuthStateSecret != "" {
		return cfg.OAuthStateSecret
	}
	sum := sha256.Sum256([]byte("oauth-state:" + cfg.JWTSecret))
	return hex.EncodeToString(sum[:])
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) GlobalRateLimiterFunc {
	if redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, rateLimitRedisPrefix+":api")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute).Middleware()
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) AuthRateLimiterFunc {
	if redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, rateLimitRedisPrefix+":auth")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute).Middleware()
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	jwt *security.JWTManager,
	globalRateLimiter GlobalRateLimiterFunc,
	authRateLimiter AuthRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:      authHandler,
		UserHandler:      userHandler,
		JWTManager:       jwt,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		AuthRateLimitRPM: cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:  cfg.APIRateLimitPerMin,
		GlobalLimiter:    globalRateLimiter,
		AuthLimiter:      authRateLimiter,
		Readiness:        readiness,
		EnableOTelHTTP:   cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient, avatars *service.MinIOAvatarStorage) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 3)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if c := health.NewRedisChecker(redisClient); c != nil {
		checkers = append(checkers, c)
	}
	if avatars != nil {
		if c := health.NewStorageChecker(avatars.Client(), cfg.StorageBucket); c != nil {
			checkers = append(checkers, c)
		}
	}
	return health.NewProbeRunner(readinessProbeTimeout, startupGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient)
}
