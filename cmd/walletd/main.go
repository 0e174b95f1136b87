package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/walletd/internal/accounts"
	"github.com/jmerrifield20/walletd/internal/api/handler"
	"github.com/jmerrifield20/walletd/internal/identity"
	"github.com/jmerrifield20/walletd/internal/ledger"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("walletd exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	if err := loadConfig(); err != nil {
		return err
	}
	if viper.ConfigFileUsed() == "" {
		logger.Warn("no config file found, using defaults and env vars")
	}

	secret := viper.GetString("auth.jwt_secret")
	if secret == "" {
		return errors.New("auth.jwt_secret is required (set AUTH_JWT_SECRET or JWT_SECRET)")
	}

	// ── Account store ────────────────────────────────────────────────────────
	store, closeStore, err := openStore(context.Background(), logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// ── Services ─────────────────────────────────────────────────────────────
	tokens := identity.NewTokenIssuer([]byte(secret), viper.GetDuration("auth.token_ttl"))
	hasher := identity.NewBcryptHasher(viper.GetInt("auth.bcrypt_cost"))
	acctSvc := accounts.NewService(store, hasher, logger)
	ledgerSvc := ledger.NewService(store, logger)

	healthHandler := handler.NewHealthHandler(acctSvc, logger)
	authHandler := handler.NewAuthHandler(acctSvc, tokens, logger)
	entryHandler := handler.NewEntryHandler(acctSvc, ledgerSvc, tokens, logger)

	// ── HTTP Router ───────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handler.ConfigureRouter(router)
	router.Use(gin.Recovery())

	// CORS
	corsOrigins := viper.GetStringSlice("server.cors_origins")
	corsConfig := cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(corsOrigins),
		MaxAge:           12 * time.Hour,
	}
	if containsWildcard(corsOrigins) {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Request body size limit (1 MB)
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
		c.Next()
	})

	router.Use(requestLogger(logger))
	router.Use(handler.PrometheusMiddleware())

	router.GET("/metrics", handler.MetricsHandler())

	root := router.Group("/")
	healthHandler.Register(root)
	authHandler.Register(root)
	entryHandler.Register(root)

	// ── HTTP Server ───────────────────────────────────────────────────────────
	port := viper.GetInt("server.port")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if err := serve(srv, quit, logger); err != nil {
		return err
	}

	logger.Info("walletd stopped")
	return nil
}

// serve runs srv until a signal arrives on quit, then shuts it down. A listen
// failure is returned to the caller so deferred cleanup still runs.
func serve(srv *http.Server, quit <-chan os.Signal, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("walletd listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("HTTP listen: %w", err)
	case <-quit:
	}

	// ── Graceful shutdown ──────────────────────────────────────────────────────
	logger.Info("shutting down walletd...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
	return nil
}

// loadConfig registers defaults and env bindings, then reads an optional
// walletd.yaml from ./configs or the working directory.
func loadConfig() error {
	viper.SetConfigName("walletd")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 4000)
	viper.SetDefault("server.cors_origins", []string{"*"})
	viper.SetDefault("database.driver", "mongodb")
	viper.SetDefault("database.url", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "walletd")
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.token_ttl", identity.DefaultTokenTTL)
	viper.SetDefault("auth.bcrypt_cost", identity.DefaultBcryptCost)

	// Variable names used by earlier deployments.
	if err := viper.BindEnv("database.url", "DATABASE_URL", "MONGODB_URI"); err != nil {
		return fmt.Errorf("bind env: %w", err)
	}
	if err := viper.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET"); err != nil {
		return fmt.Errorf("bind env: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// openStore connects the account store selected by database.driver and returns
// a function that releases it.
func openStore(ctx context.Context, logger *zap.Logger) (accounts.Store, func(), error) {
	driver := viper.GetString("database.driver")
	url := viper.GetString("database.url")

	switch driver {
	case "memory":
		logger.Warn("using in-memory account store; data is lost on exit")
		return accounts.NewMemoryStore(), func() {}, nil

	case "postgres":
		db, err := pgxpool.New(ctx, url)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info("connected to postgres")
		return accounts.NewPostgresStore(db), db.Close, nil

	case "mongodb":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		disconnect := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				logger.Warn("mongodb disconnect", zap.Error(err))
			}
		}

		dbName := databaseName(url, viper.GetString("database.name"))
		store := accounts.NewMongoStore(client.Database(dbName))
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.Ping(pctx); err != nil {
			disconnect()
			return nil, nil, fmt.Errorf("ping mongodb: %w", err)
		}
		if err := store.EnsureIndexes(pctx); err != nil {
			logger.Warn("could not create unique indexes on users collection", zap.Error(err))
		}
		logger.Info("connected to mongodb", zap.String("database", dbName))
		return store, disconnect, nil

	default:
		return nil, nil, fmt.Errorf("unknown database.driver %q (want mongodb, postgres or memory)", driver)
	}
}

// databaseName returns the database named in a MongoDB connection string,
// or fallback when the URI names none or cannot be parsed.
func databaseName(uri, fallback string) string {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil || cs.Database == "" {
		return fallback
	}
	return cs.Database
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// requestLogger returns a Gin middleware that logs each request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
