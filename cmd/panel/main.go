package main

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "os"
    "time"

    "github.com/spf13/cobra"

    "visibility/internal/panel"
)

var (
    baseURL string
    token   string
    score   bool
    timeout time.Duration
)

var rootCmd = &cobra.Command{
    Use:   "panel",
    Short: "Terminal rendition of the AI Visibility Score admin panel",
    Long: `Loads the shop identity from the backend and, with --score, requests a
visibility score for it and prints the result.

Examples:
  panel --base-url http://localhost:3000 --token "$SESSION_TOKEN"
  panel --score`,
    SilenceUsage: true,
    RunE: func(cmd *cobra.Command, _ []string) error {
        if token == "" {
            return errors.New("a session token is required (--token or SHOPIFY_SESSION_TOKEN)")
        }
        ctx := cmd.Context()
        if timeout > 0 {
            var cancel context.CancelFunc
            ctx, cancel = context.WithTimeout(ctx, timeout)
            defer cancel()
        }

        p := panel.New(panel.NewClient(baseURL, panel.StaticToken(token), &http.Client{}))
        // Mount and score failures are part of the rendered view.
        if err := p.Mount(ctx); err == nil && score {
            _ = p.CalculateScore(ctx)
        }
        v := p.View()
        if err := panel.Render(cmd.OutOrStdout(), v); err != nil {
            return err
        }
        if v.State == panel.IdentityFailed || v.State == panel.ScoreFailed {
            return fmt.Errorf("panel ended in state %s", v.State)
        }
        return nil
    },
}

func init() {
    rootCmd.Flags().StringVar(&baseURL, "base-url", envOr("PANEL_BASE_URL", "http://localhost:3000"), "backend base URL")
    rootCmd.Flags().StringVar(&token, "token", os.Getenv("SHOPIFY_SESSION_TOKEN"), "session token sent as bearer")
    rootCmd.Flags().BoolVar(&score, "score", false, "request a visibility score after loading the shop")
    rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "overall timeout (0 = none)")
}

func envOr(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func main() {
    if err := rootCmd.Execute(); err != nil {
        os.Exit(1)
    }
}
