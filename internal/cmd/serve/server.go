package serve

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/chirino/gina-service/internal/companion"
	"github.com/chirino/gina-service/internal/config"
	"github.com/chirino/gina-service/internal/plugin/route/auth"
	"github.com/chirino/gina-service/internal/plugin/route/chat"
	"github.com/chirino/gina-service/internal/plugin/route/conversations"
	"github.com/chirino/gina-service/internal/plugin/route/intake"
	"github.com/chirino/gina-service/internal/plugin/route/journals"
	"github.com/chirino/gina-service/internal/plugin/route/memories"
	"github.com/chirino/gina-service/internal/plugin/route/speech"
	routesystem "github.com/chirino/gina-service/internal/plugin/route/system"
	"github.com/chirino/gina-service/internal/plugin/route/tracking"
	storecached "github.com/chirino/gina-service/internal/plugin/store/cached"
	storemetrics "github.com/chirino/gina-service/internal/plugin/store/metrics"
	registrycache "github.com/chirino/gina-service/internal/registry/cache"
	registrycompletion "github.com/chirino/gina-service/internal/registry/completion"
	registrymigrate "github.com/chirino/gina-service/internal/registry/migrate"
	registryroute "github.com/chirino/gina-service/internal/registry/route"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
	"github.com/gin-gonic/gin"
)

// Server holds the running server and its subsystems.
type Server struct {
	Config       *config.Config
	Store        registrystore.RecordStore
	Orchestrator *companion.Orchestrator
	Router       *gin.Engine
	Running      *RunningServer
	Management   *RunningServer
}

// Shutdown gracefully shuts down the listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.Management != nil {
		_ = s.Management.Close(ctx)
	}
	return s.Running.Close(ctx)
}

// StartServer initializes all subsystems and starts the HTTP listener.
// Use cfg.Listener.Port=0 for a random port. Actual port: Server.Running.Port.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log.Info("Starting gina service",
		"httpPort", cfg.Listener.Port,
		"db", cfg.DatastoreType,
		"cache", cfg.CacheType,
		"completion", cfg.CompletionType,
	)

	// Initialize Prometheus metrics with configured constant labels.
	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	// Run migrations
	if err := registrymigrate.RunAll(ctx); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	// Initialize cache and inject into context so store loaders can read it.
	if cacheLoader, err := registrycache.Select(cfg.CacheType); err != nil {
		log.Warn("Cache not available", "cache", cfg.CacheType, "err", err)
	} else if profileCache, err := cacheLoader(ctx); err != nil {
		log.Warn("Failed to initialize cache", "cache", cfg.CacheType, "err", err)
	} else {
		ctx = registrycache.WithProfileCacheContext(ctx, profileCache)
	}

	// Initialize store
	storeLoader, err := registrystore.Select(cfg.DatastoreType)
	if err != nil {
		return nil, err
	}
	store, err := storeLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	store = storemetrics.Wrap(store)
	store = storecached.Wrap(store, registrycache.ProfileCacheFromContext(ctx), cfg.CacheTTL)

	// Without a key the service still runs and chat answers with the fallback reply.
	if cfg.CompletionType == "openai" && cfg.OpenAIAPIKey == "" {
		log.Warn("No OpenAI API key configured, completions disabled")
		cfg.CompletionType = "disabled"
	}
	completionLoader, err := registrycompletion.Select(cfg.CompletionType)
	if err != nil {
		return nil, err
	}
	provider, err := completionLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion provider: %w", err)
	}

	resolver, err := security.NewTokenResolver(ctx, cfg, store)
	if err != nil {
		return nil, err
	}
	requireAuth := security.AuthMiddleware(resolver)
	optionalAuth := security.OptionalAuthMiddleware(resolver)

	orchestrator := companion.New(store, provider, companion.WithSerializedUserWrites(cfg.SerializeUserWrites))

	// Set up gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ManagementAccessLog {
		router.Use(security.AccessLogMiddleware())
	} else {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	router.Use(maxBodySizeMiddleware(cfg.MaxBodySize))
	if cfg.CORSEnabled {
		router.Use(corsMiddleware(cfg.CORSOrigins))
	}

	if err := registryroute.Mount(router, registryroute.RouteTypeMain); err != nil {
		return nil, err
	}

	auth.MountRoutes(router, store, resolver, requireAuth)
	chat.MountRoutes(router, orchestrator, optionalAuth)
	speech.MountRoutes(router, provider, optionalAuth)
	conversations.MountRoutes(router, store, requireAuth)
	intake.MountRoutes(router, store, requireAuth)
	memories.MountRoutes(router, store, requireAuth)
	journals.MountRoutes(router, store, requireAuth)
	tracking.MountRoutes(router, store, requireAuth)

	// Mount management route plugins. With a dedicated management port they
	// run on their own engine; otherwise they share the main router.
	var management *RunningServer
	if cfg.ManagementListenerEnabled {
		mgmtRouter := gin.New()
		mgmtRouter.Use(gin.Recovery())
		if cfg.ManagementAccessLog {
			mgmtRouter.Use(security.AccessLogMiddleware())
		}
		if err := registryroute.Mount(mgmtRouter, registryroute.RouteTypeManagement); err != nil {
			return nil, err
		}
		// Management listener shares TLS cert/key with the main listener.
		mgmtCfg := cfg.ManagementListener
		mgmtCfg.TLSCertFile = cfg.Listener.TLSCertFile
		mgmtCfg.TLSKeyFile = cfg.Listener.TLSKeyFile
		management, err = startListener("management", mgmtCfg, mgmtRouter)
		if err != nil {
			return nil, fmt.Errorf("failed to start management server: %w", err)
		}
		log.Info("Management server listening", "addr", management.Addr)
	} else if err := registryroute.Mount(router, registryroute.RouteTypeManagement); err != nil {
		return nil, err
	}
	routesystem.SetReadinessCheck(store.Ping)

	running, err := startListener("main", cfg.Listener, router)
	if err != nil {
		if management != nil {
			_ = management.Close(context.Background())
		}
		return nil, err
	}

	log.Info("Server listening",
		"port", running.Port,
		"plaintext", cfg.Listener.EnablePlainText,
		"tls", cfg.Listener.EnableTLS,
	)

	routesystem.MarkReady()
	return &Server{
		Config:       cfg,
		Store:        store,
		Orchestrator: orchestrator,
		Router:       router,
		Running:      running,
		Management:   management,
	}, nil
}

func maxBodySizeMiddleware(maxBodySize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBodySize > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
		}
		c.Next()
	}
}
