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
    "github.com/go-chi/chi/v5/middleware"
    "go.uber.org/zap"

    httpadapter "visibility/internal/adapters/http"
    "visibility/internal/adapters/memory"
    pg "visibility/internal/adapters/postgres"
    "visibility/internal/adapters/shopify"
    "visibility/internal/config"
    "visibility/internal/domain"
    "visibility/internal/ports"
    identitysvc "visibility/internal/services/identity"
    scoresvc "visibility/internal/services/score"
)

func main() {
    cfg, cfgErr := config.Load()

    logger, err := newLogger(cfg)
    if err != nil {
        log.Fatalf("logger: %v", err)
    }
    if cfgErr != nil {
        err = fmt.Errorf("configuration incomplete: %w", cfgErr)
    } else {
        err = run(cfg, logger)
    }
    if err != nil {
        logger.Error("server exited", zap.Error(err))
        _ = logger.Sync()
        os.Exit(1)
    }
    _ = logger.Sync()
}

// run owns every resource it opens; all of them are released before it returns.
func run(cfg config.Config, logger *zap.Logger) error {
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    sessions, closeStore, err := openSessionStore(ctx, cfg, logger)
    if err != nil {
        return fmt.Errorf("session store: %w", err)
    }
    defer closeStore()

    if cfg.Shopify.ShopDomain != "" && cfg.Shopify.AccessToken != "" {
        seed := domain.Session{Shop: cfg.Shopify.ShopDomain, AccessToken: cfg.Shopify.AccessToken}
        if err := sessions.Save(ctx, seed); err != nil {
            return fmt.Errorf("seed session: %w", err)
        }
        logger.Info("seeded offline session", zap.String("shop", seed.Shop))
    }

    // Wire adapters to services (ports)
    var _ ports.SessionStore = (*pg.DB)(nil)
    var _ ports.IdentitySource = (*shopify.Client)(nil)
    var _ ports.TokenVerifier = (*shopify.TokenVerifier)(nil)

    shopClient := shopify.NewClient(cfg.Shopify.APIVersion, nil)
    identity := identitysvc.New(shopClient, logger.Named("identity"))
    scorer := scoresvc.New(scoresvc.Options{
        Destination:  cfg.Score.WebhookURL,
        HTTPClient:   &http.Client{Timeout: cfg.Score.Timeout},
        MaxBodyBytes: cfg.Score.MaxBodyBytes,
        RequestID:    middleware.GetReqID,
        Logger:       logger.Named("score"),
    })
    verifier := shopify.NewTokenVerifier(cfg.Shopify.APIKey, cfg.Shopify.APISecret)

    srv := httpadapter.New(identity, scorer, verifier, sessions, logger.Named("http"))
    r := chi.NewRouter()
    r.Mount("/", srv.Routes())

    httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
    errCh := make(chan error, 1)
    go func() { errCh <- httpSrv.ListenAndServe() }()
    logger.Info("listening", zap.String("addr", cfg.ListenAddr), zap.String("env", cfg.Env))

    // graceful shutdown
    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
    select {
    case sig := <-sigCh:
        logger.Info("shutting down", zap.String("signal", sig.String()))
        cancel()
        shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
        defer done()
        if err := httpSrv.Shutdown(shutdownCtx); err != nil {
            return fmt.Errorf("shutdown: %w", err)
        }
        return nil
    case err := <-errCh:
        if errors.Is(err, http.ErrServerClosed) {
            return nil
        }
        return fmt.Errorf("listen: %w", err)
    }
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
    zc := zap.NewDevelopmentConfig()
    if cfg.Env == "production" {
        zc = zap.NewProductionConfig()
    }
    level, err := zap.ParseAtomicLevel(cfg.LogLevel)
    if err == nil {
        zc.Level = level
    }
    return zc.Build()
}

func openSessionStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (ports.SessionStore, func(), error) {
    if cfg.DatabaseURL == "" {
        logger.Warn("DATABASE_URL not set, sessions are kept in memory")
        return memory.NewSessionStore(), func() {}, nil
    }
    db, err := pg.Connect(ctx, cfg.DatabaseURL)
    if err != nil {
        return nil, nil, fmt.Errorf("db connect: %w", err)
    }
    if err := db.Migrate(ctx); err != nil {
        db.Close()
        return nil, nil, fmt.Errorf("migrate: %w", err)
    }
    return db, db.Close, nil
}
