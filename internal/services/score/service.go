package score

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "regexp"
    "strings"

    "github.com/google/uuid"
    "github.com/tidwall/gjson"
    "go.uber.org/zap"

    "visibility/internal/domain"
)

// DefaultMaxBodyBytes caps how much of the destination's reply is read.
const DefaultMaxBodyBytes int64 = 1 << 20

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

// Options configures the Service. Zero values fall back to defaults.
type Options struct {
    Destination  string
    HTTPClient   *http.Client
    MaxBodyBytes int64
    // RequestID returns the inbound request id, forwarded as X-Request-ID.
    RequestID func(context.Context) string
    Logger    *zap.Logger
}

// Service proxies visibility score requests to the scoring destination.
type Service struct {
    destination string
    client      *http.Client
    maxBody     int64
    requestID   func(context.Context) string
    log         *zap.Logger
}

func New(opts Options) *Service {
    s := &Service{
        destination: strings.TrimSpace(opts.Destination),
        client:      opts.HTTPClient,
        maxBody:     opts.MaxBodyBytes,
        requestID:   opts.RequestID,
        log:         opts.Logger,
    }
    if s.client == nil { s.client = &http.Client{} }
    if s.maxBody <= 0 { s.maxBody = DefaultMaxBodyBytes }
    if s.log == nil { s.log = zap.NewNop() }
    return s
}

type outbound struct {
    Shop      string `json:"shop"`
    Website   string `json:"website"`
    BrandName string `json:"brandName"`
}

// Request validates the input, posts it to the destination and normalizes the
// reply. A reply that is not valid JSON becomes {"output": <text>}; a non-2xx
// reply is returned as *domain.UpstreamStatusError carrying the same result.
func (s *Service) Request(ctx context.Context, req domain.ScoreRequest) (domain.ScoreResult, error) {
    if err := Validate(req); err != nil {
        return domain.ScoreResult{}, err
    }
    dest, err := s.checkDestination()
    if err != nil {
        return domain.ScoreResult{}, err
    }

    payload, err := json.Marshal(outbound{Shop: req.ShopDomain, Website: req.WebsiteURL, BrandName: req.BrandName})
    if err != nil {
        return domain.ScoreResult{}, fmt.Errorf("encode score request: %w", err)
    }
    httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, dest, bytes.NewReader(payload))
    if err != nil {
        return domain.ScoreResult{}, &domain.ProxyError{Op: "build request", Err: err}
    }
    httpReq.Header.Set("Content-Type", "application/json")
    httpReq.Header.Set("X-Request-ID", s.reqID(ctx))

    resp, err := s.client.Do(httpReq)
    if err != nil {
        return domain.ScoreResult{}, &domain.ProxyError{Op: "reach scoring destination", Err: err}
    }
    defer resp.Body.Close()

    body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
    if err != nil {
        return domain.ScoreResult{}, &domain.ProxyError{Op: "read scoring response", Err: err}
    }
    if int64(len(body)) > s.maxBody {
        return domain.ScoreResult{}, &domain.ProxyError{
            Op:  "read scoring response",
            Err: fmt.Errorf("body exceeds %d bytes", s.maxBody),
        }
    }

    result := Normalize(body)
    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        s.log.Warn("scoring destination returned non-2xx",
            zap.Int("status", resp.StatusCode), zap.String("shop", req.ShopDomain))
        return result, &domain.UpstreamStatusError{Status: resp.StatusCode, Result: result}
    }
    return result, nil
}

// Validate rejects requests missing the shop domain or website.
func Validate(req domain.ScoreRequest) error {
    fields := map[string]string{}
    if strings.TrimSpace(req.ShopDomain) == "" {
        fields["shop"] = "required"
    }
    if strings.TrimSpace(req.WebsiteURL) == "" {
        fields["website"] = "required"
    }
    if len(fields) > 0 {
        return &domain.ValidationError{Message: "Missing required fields: shop and website", Fields: fields}
    }
    return nil
}

// Normalize turns a raw reply into a ScoreResult. Valid JSON passes through
// byte for byte; anything else is wrapped verbatim.
func Normalize(body []byte) domain.ScoreResult {
    if gjson.ValidBytes(body) {
        return domain.ScoreResult{Raw: append(json.RawMessage(nil), body...)}
    }
    return domain.TextResult(string(body))
}

func (s *Service) checkDestination() (string, error) {
    bad := func(reason string) error {
        return &domain.ConfigError{Key: "N8N_WEBHOOK_URL", Value: s.destination, Reason: reason}
    }
    if !absoluteURL.MatchString(s.destination) {
        return "", bad("must be an absolute URL")
    }
    u, err := url.Parse(s.destination)
    if err != nil || u.Host == "" {
        return "", bad("must be an absolute URL")
    }
    return s.destination, nil
}

func (s *Service) reqID(ctx context.Context) string {
    if s.requestID != nil {
        if id := s.requestID(ctx); id != "" { return id }
    }
    return uuid.NewString()
}
