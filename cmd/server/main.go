package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/portfolio-generator/internal/config"
	"github.com/janisto/portfolio-generator/internal/http/health"
	"github.com/janisto/portfolio-generator/internal/http/v1/routes"
	"github.com/janisto/portfolio-generator/internal/platform/auth"
	"github.com/janisto/portfolio-generator/internal/platform/firebase"
	applog "github.com/janisto/portfolio-generator/internal/platform/logging"
	appmiddleware "github.com/janisto/portfolio-generator/internal/platform/middleware"
	"github.com/janisto/portfolio-generator/internal/platform/respond"
	"github.com/janisto/portfolio-generator/internal/service/deploy"
	draftstore "github.com/janisto/portfolio-generator/internal/service/draft"
	githubsvc "github.com/janisto/portfolio-generator/internal/service/github"
	publishsvc "github.com/janisto/portfolio-generator/internal/service/publish"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const (
	apiPrefix = "/v1"
	docsPath  = "/api-docs"
	draftTTL  = 30 * 24 * time.Hour
)

// app holds the wired backends and what must be released on exit.
type app struct {
	services routes.Services
	checks   map[string]health.Check
	closers  []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			applog.LogError(context.Background(), "close error", err)
		}
	}
}

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		applog.LogFatal(context.Background(), "config load failed", err)
	}
	applog.SetProjectID(cfg.App.ProjectID)

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		applog.LogFatal(ctx, "service init failed", err)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           newRouter(a),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		// Publishing makes a chain of sequential GitHub calls.
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 64 << 10, // 64 KB
	}

	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(ctx, "server listening",
			zap.String("addr", srv.Addr),
			zap.String("auth", cfg.Auth.Mode),
			zap.String("storage", cfg.Storage.Backend),
			zap.Bool("deploy", cfg.Deploy.VercelToken != ""),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		applog.LogError(ctx, "listen failed", err, zap.String("addr", srv.Addr))
		a.Close()
		os.Exit(1)
	case <-stop:
		applog.LogInfo(ctx, "shutdown signal received")
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.LogError(shutdownCtx, "server shutdown error", err)
	}
	applog.LogInfo(ctx, "server exited")
}

// newApp builds the verifier, draft store, GitHub client factory and
// publisher selected by cfg.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{checks: map[string]health.Check{}}

	var clients *firebase.Clients
	if cfg.NeedsFirebase() {
		var err error
		clients, err = firebase.InitializeClients(ctx, firebase.Config{
			ProjectID:       cfg.App.ProjectID,
			CredentialsFile: cfg.Firebase.Credentials,
			EnableAuth:      cfg.Auth.Mode == config.AuthModeFirebase,
			EnableFirestore: cfg.Storage.Backend == config.StorageFirestore,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, clients.Close)
	}

	switch cfg.Auth.Mode {
	case config.AuthModeFirebase:
		a.services.Verifier = auth.NewFirebaseVerifier(clients.Auth)
	default:
		applog.LogWarn(ctx, "mock auth enabled; bearer tokens are trusted as user ids")
		a.services.Verifier = auth.TokenVerifier{}
	}

	switch cfg.Storage.Backend {
	case config.StorageRedis:
		store, err := draftstore.NewRedisStore(ctx, draftstore.RedisOptions{
			URL:      cfg.Redis.URL,
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			TTL:      draftTTL,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.services.Drafts = store
		a.checks["redis"] = store.Ping
		a.closers = append(a.closers, store.Close)
	case config.StorageFirestore:
		a.services.Drafts = draftstore.NewFirestoreStore(clients.Firestore)
	default:
		a.services.Drafts = draftstore.NewMemoryStore()
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg.GitHub.Mock {
		applog.LogWarn(ctx, "github mock enabled; publishes stay in memory")
		a.services.GitHub = githubsvc.NewMockGitHubService().Factory()
	} else {
		a.services.GitHub = githubsvc.NewClientFactory(httpClient, githubsvc.WithBaseURL(cfg.GitHub.BaseURL))
	}

	opts := []publishsvc.Option{publishsvc.WithBlobConcurrency(cfg.Publish.BlobConcurrency)}
	if cfg.Deploy.VercelToken != "" {
		opts = append(opts, publishsvc.WithDeployer(deploy.NewVercelClient(httpClient,
			deploy.WithBaseURL(cfg.Deploy.BaseURL),
			deploy.WithToken(cfg.Deploy.VercelToken),
		)))
	}
	a.services.Publisher = publishsvc.NewPublisher(a.services.GitHub, opts...)
	return a, nil
}

func newRouter(a *app) http.Handler {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		appmiddleware.Security(apiPrefix+docsPath, apiPrefix+"/preview"),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Cloud Run, nginx).
		chimiddleware.RealIP,
		// Inline profile images can be large data URIs.
		chimiddleware.RequestSize(8<<20), // 8 MB limit
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	router.Get("/health", health.NewHandler(a.checks))

	router.Route(apiPrefix, func(r chi.Router) {
		cfg := huma.DefaultConfig("Portfolio Generator API", Version)
		cfg.DocsPath = docsPath
		cfg.Servers = []*huma.Server{{URL: apiPrefix}}
		api := humachi.New(r, cfg)
		api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation, addCBORContent)
		routes.Register(api, a.services)
	})
	return router
}

// addCBORContent advertises CBOR wherever an operation accepts or returns JSON.
func addCBORContent(_ *huma.OpenAPI, op *huma.Operation) {
	if op.RequestBody != nil && op.RequestBody.Content != nil {
		if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
			op.RequestBody.Content["application/cbor"] = jsonContent
		}
	}
	for _, resp := range op.Responses {
		if resp.Content == nil {
			continue
		}
		if jsonContent, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = jsonContent
		}
	}
}
