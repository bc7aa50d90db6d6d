package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/recuerdos-backend/internal/cache"
	"github.com/AnshRaj112/recuerdos-backend/internal/config"
	"github.com/AnshRaj112/recuerdos-backend/internal/database"
	"github.com/AnshRaj112/recuerdos-backend/internal/handlers"
	"github.com/AnshRaj112/recuerdos-backend/internal/middleware"
	"github.com/AnshRaj112/recuerdos-backend/internal/routes"
	"github.com/AnshRaj112/recuerdos-backend/internal/services"
	"github.com/AnshRaj112/recuerdos-backend/internal/store"
	"github.com/AnshRaj112/recuerdos-backend/pkg/client"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open record store: ", err)
	}
	defer closeStore()

	// Redis is optional: it backs the list cache and the shared rate limiter
	var rdb *redis.Client
	if cfg.RedisURI != "" {
		log.Printf("Connecting to Redis...")
		rdb, err = database.ConnectRedis(cfg.RedisURI)
		if err != nil {
			log.Printf("⚠️  WARNING: Redis unavailable, continuing without cache: %v", err)
		} else {
			defer database.DisconnectRedis(rdb)
			st = store.NewCachedStore(st, cache.NewRecuerdosCache(rdb, cfg.CacheTTL))
			log.Printf("✅ Recuerdos cache enabled (ttl %s)", cfg.CacheTTL)
		}
	}

	svc := services.NewRecuerdoService(st, services.WithLocation(cfg.Location))
	recuerdoHandler := handlers.NewRecuerdoHandler(svc, cfg.RequestTimeout)
	uploadHandler := handlers.NewUploadHandler(newUploader(cfg))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → per-IP rate limit
	// Non-production: Redis-based rate limit when Redis is up
	if cfg.IsProduction() {
		limiter := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go limiter.Cleanup(ctx)
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost, limiter) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, host check, per-IP rate limiting)")
	} else if rdb != nil {
		r.Use(middleware.RedisRateLimit(rdb, middleware.RateLimitMaxRequests, middleware.RateLimitWindow))
	}

	routes.SetupRoutes(r, recuerdoHandler, uploadHandler)

	log.Println("📋 Registered routes:")
	for _, rt := range routes.Registered {
		log.Printf("  %-6s %s", rt.Method, rt.Path)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Println("🛑 Shutting down...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Recuerdos backend running on :%s (store: %s)", cfg.Port, cfg.Store)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server: ", err)
	}
}

// openStore builds the backend named by RECUERDOS_STORE. The returned func
// releases its connections.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store {
	case store.BackendFile, "":
		log.Printf("✅ Using file store at %s", cfg.FilePath)
		return store.NewFileStore(cfg.FilePath), func() {}, nil

	case store.BackendPostgres:
		log.Printf("Connecting to PostgreSQL...")
		db, err := database.ConnectPostgres(cfg.PostgresURI)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		return store.NewPostgresStore(db), func() { database.DisconnectPostgres(db) }, nil

	case store.BackendMongo:
		log.Printf("Connecting to MongoDB: %s", database.MaskURI(cfg.MongoURI))
		mc, db, err := database.ConnectMongo(cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		ms := store.NewMongoStore(db)
		if err := ms.EnsureIndexes(ctx); err != nil {
			log.Printf("⚠️  WARNING: failed to ensure MongoDB recuerdos indexes: %v", err)
		} else {
			log.Println("✅ MongoDB recuerdos indexes ensured")
		}
		return ms, func() { database.DisconnectMongo(mc) }, nil

	case store.BackendRemote:
		if cfg.RemoteAPIURL == "" {
			return nil, nil, errors.New("REMOTE_API_URL is required for the remote store")
		}
		api := client.New(cfg.RemoteAPIURL,
			client.WithTimeout(cfg.RemoteAPITimeout),
			client.WithUserAgent("recuerdos-server/1.0"),
		)
		log.Printf("✅ Using remote store at %s", cfg.RemoteAPIURL)
		return store.NewRemoteStore(api), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown RECUERDOS_STORE %q", cfg.Store)
}

// newUploader returns nil when Cloudinary is not configured; the upload
// route then answers 503.
func newUploader(cfg *config.Config) handlers.ImageUploader {
	if !cfg.CloudinaryConfigured() {
		log.Println("Warning: Cloudinary credentials not found. File uploads will not be available")
		return nil
	}
	cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	if err != nil {
		log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
		return nil
	}
	log.Println("✅ Cloudinary service initialized")
	return cld
}
