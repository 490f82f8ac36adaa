package httpadapter

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync/atomic"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "visibility/internal/adapters/memory"
    "visibility/internal/domain"
    identitysvc "visibility/internal/services/identity"
    scoresvc "visibility/internal/services/score"
)

type fakeVerifier map[string]string

func (f fakeVerifier) Verify(token string) (string, error) {
    if shop, ok := f[token]; ok {
        return shop, nil
    }
    return "", errors.New("bad token")
}

type countingSource struct {
    details domain.ShopDetails
    err     error
    calls   int32
}

func (c *countingSource) ShopDetails(context.Context, domain.Session) (domain.ShopDetails, error) {
    atomic.AddInt32(&c.calls, 1)
    return c.details, c.err
}

type countingScorer struct {
    inner *scoresvc.Service
    calls int32
}

func (c *countingScorer) Request(ctx context.Context, req domain.ScoreRequest) (domain.ScoreResult, error) {
    atomic.AddInt32(&c.calls, 1)
    return c.inner.Request(ctx, req)
}

type fixture struct {
    handler  http.Handler
    source   *countingSource
    scorer   *countingScorer
    upstream int32
}

func newFixture(t *testing.T, dest string) *fixture {
    t.Helper()
    f := &fixture{source: &countingSource{}}
    if dest == "" {
        up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            atomic.AddInt32(&f.upstream, 1)
            b, _ := io.ReadAll(r.Body)
            switch {
            case strings.Contains(string(b), "text.myshopify.com"):
                _, _ = io.WriteString(w, "Your score is 73% visibility")
            case strings.Contains(string(b), "broken.myshopify.com"):
                w.WriteHeader(http.StatusInternalServerError)
                _, _ = io.WriteString(w, "workflow crashed")
            default:
                _, _ = io.WriteString(w, `{"score": 42}`)
            }
        }))
        t.Cleanup(up.Close)
        dest = up.URL
    }
    f.scorer = &countingScorer{inner: scoresvc.New(scoresvc.Options{Destination: dest})}
    store := memory.NewSessionStore(
        domain.Session{Shop: "acme.myshopify.com", AccessToken: "shpat_1"},
        domain.Session{Shop: "empty.myshopify.com", AccessToken: "shpat_2"},
    )
    verifier := fakeVerifier{"good": "acme.myshopify.com", "uninstalled": "gone.myshopify.com"}
    srv := New(identitysvc.New(f.source, nil), f.scorer, verifier, store, nil)
    f.handler = srv.Routes()
    return f
}

func (f *fixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
    t.Helper()
    var rdr io.Reader
    if body != "" { rdr = strings.NewReader(body) }
    req := httptest.NewRequest(method, path, rdr)
    if token != "" { req.Header.Set("Authorization", "Bearer "+token) }
    if body != "" { req.Header.Set("Content-Type", "application/json") }
    rec := httptest.NewRecorder()
    f.handler.ServeHTTP(rec, req)
    return rec
}

func TestHealthzIsUnguarded(t *testing.T) {
    f := newFixture(t, "")
    rec := f.do(t, http.MethodGet, "/healthz", "", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGuardRejectsBeforeHandlers(t *testing.T) {
    f := newFixture(t, "")
    for _, tc := range []struct{ method, path, token, body string }{
        {http.MethodGet, "/api/shop-info", "", ""},
        {http.MethodGet, "/api/shop-info", "forged", ""},
        {http.MethodGet, "/api/shop-info", "uninstalled", ""},
        {http.MethodPost, "/api/visibility-score", "", `{"shop":"acme.myshopify.com","website":"https://acme.example"}`},
        {http.MethodPost, "/api/visibility-score", "forged", `{"shop":"acme.myshopify.com","website":"https://acme.example"}`},
    } {
        rec := f.do(t, tc.method, tc.path, tc.token, tc.body)
        assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
        assert.Equal(t, "1", rec.Header().Get(ReauthorizeHeader))
        assert.JSONEq(t, `{"error":"No Shopify session found"}`, rec.Body.String())
    }
    assert.Zero(t, atomic.LoadInt32(&f.source.calls))
    assert.Zero(t, atomic.LoadInt32(&f.scorer.calls))
    assert.Zero(t, atomic.LoadInt32(&f.upstream))
}

func TestShopInfoLive(t *testing.T) {
    f := newFixture(t, "")
    f.source.details = domain.ShopDetails{Name: "Acme Goods", PrimaryURL: "https://acme.example"}
    rec := f.do(t, http.MethodGet, "/api/shop-info", "good", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"shop":"acme.myshopify.com","brandName":"Acme Goods","website":"https://acme.example"}`, rec.Body.String())
}

func TestShopInfoFallback(t *testing.T) {
    f := newFixture(t, "")
    f.source.err = errors.New("network down")
    rec := f.do(t, http.MethodGet, "/api/shop-info", "good", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"shop":"acme.myshopify.com","brandName":"acme","website":"https://acme.myshopify.com"}`, rec.Body.String())
}

func TestVisibilityScorePassThrough(t *testing.T) {
    f := newFixture(t, "")
    rec := f.do(t, http.MethodPost, "/api/visibility-score", "good",
        `{"shop":"acme.myshopify.com","website":"https://acme.example","brandName":"Acme"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"score":42}`, rec.Body.String())
}

func TestVisibilityScoreText(t *testing.T) {
    f := newFixture(t, "")
    rec := f.do(t, http.MethodPost, "/api/visibility-score", "good",
        `{"shop":"text.myshopify.com","website":"https://text.example"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"output":"Your score is 73% visibility"}`, rec.Body.String())
}

func TestVisibilityScoreMissingFields(t *testing.T) {
    f := newFixture(t, "")
    for _, body := range []string{`{"shop":"acme.myshopify.com"}`, `{}`, `not json`, ""} {
        rec := f.do(t, http.MethodPost, "/api/visibility-score", "good", body)
        require.Equal(t, http.StatusBadRequest, rec.Code, body)
        var out map[string]any
        require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
        assert.Equal(t, "Missing required fields: shop and website", out["error"])
        assert.Contains(t, out, "received")
    }
    assert.Zero(t, atomic.LoadInt32(&f.upstream))
}

func TestVisibilityScoreBadDestination(t *testing.T) {
    f := newFixture(t, "/webhook/shopify")
    rec := f.do(t, http.MethodPost, "/api/visibility-score", "good",
        `{"shop":"acme.myshopify.com","website":"https://acme.example"}`)
    require.Equal(t, http.StatusInternalServerError, rec.Code)
    var out map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    assert.Equal(t, "/webhook/shopify", out["value"])
    assert.Contains(t, out["error"], "N8N_WEBHOOK_URL")
}

func TestVisibilityScoreUnreachable(t *testing.T) {
    dead := httptest.NewServer(http.NotFoundHandler())
    dest := dead.URL
    dead.Close()

    f := newFixture(t, dest)
    rec := f.do(t, http.MethodPost, "/api/visibility-score", "good",
        `{"shop":"acme.myshopify.com","website":"https://acme.example"}`)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.Contains(t, rec.Body.String(), "reach scoring destination")
}

func TestVisibilityScoreUpstreamStatus(t *testing.T) {
    f := newFixture(t, "")
    rec := f.do(t, http.MethodPost, "/api/visibility-score", "good",
        `{"shop":"broken.myshopify.com","website":"https://broken.example"}`)
    require.Equal(t, http.StatusBadGateway, rec.Code)
    var out struct {
        Status   int             `json:"status"`
        Upstream json.RawMessage `json:"upstream"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    assert.Equal(t, http.StatusInternalServerError, out.Status)
    assert.JSONEq(t, `{"output":"workflow crashed"}`, string(out.Upstream))
}

func TestUnknownAPIRoute(t *testing.T) {
    f := newFixture(t, "")
    rec := f.do(t, http.MethodGet, "/api/products/count", "good", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBearerToken(t *testing.T) {
    tok, ok := bearerToken("Bearer abc")
    assert.True(t, ok)
    assert.Equal(t, "abc", tok)
    _, ok = bearerToken("Basic abc")
    assert.False(t, ok)
    _, ok = bearerToken("Bearer   ")
    assert.False(t, ok)
}

func TestWriteErrorMapping(t *testing.T) {
    s := New(nil, nil, nil, nil, nil)
    tests := []struct {
        err  error
        code int
    }{
        {domain.ErrUnauthenticated, http.StatusUnauthorized},
        {domain.ErrMalformedSession, http.StatusBadRequest},
        {&domain.ValidationError{}, http.StatusBadRequest},
        {&domain.ConfigError{Key: "N8N_WEBHOOK_URL"}, http.StatusInternalServerError},
        {&domain.ProxyError{Op: "reach", Err: errors.New("refused")}, http.StatusInternalServerError},
        {&domain.UpstreamStatusError{Status: 503}, http.StatusBadGateway},
        {errors.New("boom"), http.StatusInternalServerError},
    }
    for _, tt := range tests {
        rec := httptest.NewRecorder()
        s.writeError(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil), "test", tt.err)
        assert.Equal(t, tt.code, rec.Code, tt.err.Error())
    }
}

func TestMalformedSessionIsClientError(t *testing.T) {
    s := New(identitysvc.New(nil, nil), nil, nil, nil, nil)
    req := httptest.NewRequest(http.MethodGet, "/api/shop-info", nil)
    req = req.WithContext(WithSession(req.Context(), &domain.Session{}))
    rec := httptest.NewRecorder()
    s.getShopInfo(rec, req)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVisibilityScoreWrongFieldType(t *testing.T) {
    f := newFixture(t, "")
    tests := []struct {
        body  string
        field string
    }{
        {`{"shop":1,"website":"https://acme.example"}`, "shop"},
        {`{"shop":"acme.myshopify.com","website":"https://acme.example","brandName":7}`, "brandName"},
    }
    for _, tt := range tests {
        rec := f.do(t, http.MethodPost, "/api/visibility-score", "good", tt.body)
        require.Equal(t, http.StatusBadRequest, rec.Code, tt.body)
        var out map[string]any
        require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
        assert.Equal(t, "Invalid type for field "+tt.field+": expected string", out["error"])
        assert.Contains(t, out, "received")
    }
    assert.Zero(t, atomic.LoadInt32(&f.scorer.calls))
    assert.Zero(t, atomic.LoadInt32(&f.upstream))
}

type panickingScorer struct{}

func (panickingScorer) Request(context.Context, domain.ScoreRequest) (domain.ScoreResult, error) {
    panic("scorer exploded")
}

func TestPanicInHandlerIs500(t *testing.T) {
    store := memory.NewSessionStore(domain.Session{Shop: "acme.myshopify.com", AccessToken: "shpat_1"})
    srv := New(identitysvc.New(nil, nil), panickingScorer{}, fakeVerifier{"good": "acme.myshopify.com"}, store, nil)

    req := httptest.NewRequest(http.MethodPost, "/api/visibility-score",
        strings.NewReader(`{"shop":"acme.myshopify.com","website":"https://acme.example"}`))
    req.Header.Set("Authorization", "Bearer good")
    rec := httptest.NewRecorder()
    srv.Routes().ServeHTTP(rec, req)

    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"error":"scorer exploded"}`, rec.Body.String())
}
