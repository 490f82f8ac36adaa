package panel

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strings"

    "github.com/tidwall/gjson"

    "visibility/internal/domain"
)

var _ API = (*Client)(nil)

// Client calls the panel backend with a session token.
type Client struct {
    baseURL string
    token   func(context.Context) (string, error)
    http    *http.Client
}

// NewClient returns a Client for baseURL. token supplies the bearer session
// token for each request.
func NewClient(baseURL string, token func(context.Context) (string, error), httpClient *http.Client) *Client {
    if httpClient == nil { httpClient = http.DefaultClient }
    return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), token: token, http: httpClient}
}

// StaticToken returns a token func that always yields tok.
func StaticToken(tok string) func(context.Context) (string, error) {
    return func(context.Context) (string, error) { return tok, nil }
}

// APIError is a non-2xx or error-bearing backend reply.
type APIError struct {
    Status  int
    Message string
}

func (e *APIError) Error() string {
    if e.Message == "" {
        return fmt.Sprintf("request failed with status %d", e.Status)
    }
    return e.Message
}

func (c *Client) ShopInfo(ctx context.Context) (domain.ShopIdentity, error) {
    body, err := c.do(ctx, http.MethodGet, "/api/shop-info", nil)
    if err != nil {
        return domain.ShopIdentity{}, err
    }
    var ident domain.ShopIdentity
    if err := json.Unmarshal(body, &ident); err != nil {
        return domain.ShopIdentity{}, fmt.Errorf("decode shop-info: %w", err)
    }
    return ident, nil
}

func (c *Client) VisibilityScore(ctx context.Context, req domain.ScoreRequest) (domain.ScoreResult, error) {
    payload, err := json.Marshal(req)
    if err != nil {
        return domain.ScoreResult{}, err
    }
    body, err := c.do(ctx, http.MethodPost, "/api/visibility-score", payload)
    if err != nil {
        return domain.ScoreResult{}, err
    }
    return domain.ScoreResult{Raw: body}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
    var rdr io.Reader
    if payload != nil { rdr = bytes.NewReader(payload) }
    req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
    if err != nil {
        return nil, err
    }
    if payload != nil { req.Header.Set("Content-Type", "application/json") }
    if c.token != nil {
        tok, err := c.token(ctx)
        if err != nil {
            return nil, fmt.Errorf("session token: %w", err)
        }
        req.Header.Set("Authorization", "Bearer "+tok)
    }

    resp, err := c.http.Do(req)
    if err != nil {
        return nil, err
    }
    defer resp.Body.Close()
    body, err := io.ReadAll(resp.Body)
    if err != nil {
        return nil, err
    }
    if !gjson.ValidBytes(body) {
        return nil, &APIError{Status: resp.StatusCode, Message: "backend returned a non-JSON body"}
    }
    msg := gjson.GetBytes(body, "error")
    if resp.StatusCode < 200 || resp.StatusCode > 299 || (msg.Exists() && msg.Type != gjson.Null) {
        return nil, &APIError{Status: resp.StatusCode, Message: msg.String()}
    }
    return body, nil
}
