package config

import (
    "errors"
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// DefaultScoreWebhookURL is used when N8N_WEBHOOK_URL is unset.
const DefaultScoreWebhookURL = "https://digidartsmarketing.app.n8n.cloud/webhook/shopify"

type Config struct {
    Env         string
    ListenAddr  string
    DatabaseURL string
    LogLevel    string
    Shopify     ShopifyConfig
    Score       ScoreConfig
}

type ShopifyConfig struct {
    APIKey     string
    APISecret  string
    APIVersion string
    // Optional single-shop seed for the session store.
    ShopDomain  string
    AccessToken string
}

type ScoreConfig struct {
    WebhookURL   string
    Timeout      time.Duration
    MaxBodyBytes int64
}

func getenv(key, def string) string {
    if v := strings.TrimSpace(os.Getenv(key)); v != "" {
        return v
    }
    return def
}

// Load reads .env (if present) and the environment. The returned error lists
// missing required keys; cfg is always populated so callers can decide.
func Load() (Config, error) {
    _ = godotenv.Load()

    cfg := Config{
        Env:         getenv("APP_ENV", "development"),
        ListenAddr:  listenAddr(),
        DatabaseURL: os.Getenv("DATABASE_URL"),
        LogLevel:    getenv("LOG_LEVEL", "info"),
        Shopify: ShopifyConfig{
            APIKey:      getenv("SHOPIFY_API_KEY", ""),
            APISecret:   getenv("SHOPIFY_API_SECRET", ""),
            APIVersion:  getenv("SHOPIFY_API_VERSION", "2025-01"),
            ShopDomain:  getenv("SHOPIFY_SHOP_DOMAIN", ""),
            AccessToken: getenv("SHOPIFY_ACCESS_TOKEN", ""),
        },
        Score: ScoreConfig{
            WebhookURL:   getenv("N8N_WEBHOOK_URL", DefaultScoreWebhookURL),
            Timeout:      getenvDuration("SCORE_TIMEOUT", 0),
            MaxBodyBytes: getenvInt64("SCORE_MAX_BODY_BYTES", 1<<20),
        },
    }

    var errs []error
    if cfg.Shopify.APIKey == "" {
        errs = append(errs, fmt.Errorf("SHOPIFY_API_KEY not set"))
    }
    if cfg.Shopify.APISecret == "" {
        errs = append(errs, fmt.Errorf("SHOPIFY_API_SECRET not set"))
    }
    return cfg, errors.Join(errs...)
}

func listenAddr() string {
    if v := getenv("LISTEN_ADDR", ""); v != "" {
        return v
    }
    port := getenv("BACKEND_PORT", getenv("PORT", "3000"))
    return ":" + strings.TrimPrefix(port, ":")
}

func getenvInt64(key string, def int64) int64 {
    if v := os.Getenv(key); v != "" {
        var out int64
        _, err := fmt.Sscanf(v, "%d", &out)
        if err == nil && out > 0 { return out }
    }
    return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
    if v := os.Getenv(key); v != "" {
        if d, err := time.ParseDuration(v); err == nil && d >= 0 { return d }
    }
    return def
}
