// Package panel is the admin panel's presentation logic: it loads the shop
// identity once, triggers score requests with it and derives what to show.
package panel

import (
    "context"
    "errors"
    "sync"

    "visibility/internal/domain"
)

// State of the panel.
type State int

const (
    Idle State = iota
    IdentityLoading
    IdentityLoaded
    IdentityFailed
    ScoreLoading
    ScoreLoaded
    ScoreFailed
)

func (s State) String() string {
    switch s {
    case Idle:
        return "idle"
    case IdentityLoading:
        return "identity-loading"
    case IdentityLoaded:
        return "identity-loaded"
    case IdentityFailed:
        return "identity-failed"
    case ScoreLoading:
        return "score-loading"
    case ScoreLoaded:
        return "score-loaded"
    case ScoreFailed:
        return "score-failed"
    }
    return "unknown"
}

var (
    ErrIdentityNotLoaded = errors.New("Shop not loaded yet")
    ErrScoreInFlight     = errors.New("score request already in flight")
    ErrAlreadyMounted    = errors.New("panel already mounted")
)

// API is the backend the panel talks to.
type API interface {
    ShopInfo(ctx context.Context) (domain.ShopIdentity, error)
    VisibilityScore(ctx context.Context, req domain.ScoreRequest) (domain.ScoreResult, error)
}

// Panel holds one page session's state. Safe for concurrent use; at most one
// score request is in flight at a time.
type Panel struct {
    api API

    mu       sync.Mutex
    state    State
    mounted  bool
    identity *domain.ShopIdentity
    result   *domain.ScoreResult
    err      error
}

func New(api API) *Panel { return &Panel{api: api} }

// Mount loads the shop identity. It runs once per panel.
func (p *Panel) Mount(ctx context.Context) error {
    p.mu.Lock()
    if p.mounted {
        p.mu.Unlock()
        return ErrAlreadyMounted
    }
    p.mounted = true
    p.state = IdentityLoading
    p.mu.Unlock()

    ident, err := p.api.ShopInfo(ctx)
    if err == nil && ident.ShopDomain == "" {
        err = errors.New("shop not returned")
    }

    p.mu.Lock()
    defer p.mu.Unlock()
    if err != nil {
        p.state, p.err = IdentityFailed, err
        return err
    }
    p.state, p.err, p.identity = IdentityLoaded, nil, &ident
    return nil
}

// CalculateScore requests a score using the cached identity. Calls made while
// another is in flight return ErrScoreInFlight without contacting the backend.
func (p *Panel) CalculateScore(ctx context.Context) error {
    p.mu.Lock()
    if p.identity == nil {
        p.mu.Unlock()
        return ErrIdentityNotLoaded
    }
    if p.state == ScoreLoading {
        p.mu.Unlock()
        return ErrScoreInFlight
    }
    ident := *p.identity
    p.state, p.err = ScoreLoading, nil
    p.mu.Unlock()

    res, err := p.api.VisibilityScore(ctx, domain.ScoreRequest{
        ShopDomain: ident.ShopDomain,
        WebsiteURL: ident.WebsiteURL,
        BrandName:  ident.BrandName,
    })

    p.mu.Lock()
    defer p.mu.Unlock()
    if err != nil {
        p.state, p.err = ScoreFailed, err
        return err
    }
    p.state, p.result = ScoreLoaded, &res
    return nil
}

// State returns the current state.
func (p *Panel) State() State {
    p.mu.Lock()
    defer p.mu.Unlock()
    return p.state
}

// View snapshots the state into a render model.
func (p *Panel) View() View {
    p.mu.Lock()
    defer p.mu.Unlock()
    var ident *domain.ShopIdentity
    if p.identity != nil {
        c := *p.identity
        ident = &c
    }
    var res *domain.ScoreResult
    if p.result != nil && p.state == ScoreLoaded {
        c := *p.result
        res = &c
    }
    return Build(p.state, ident, res, p.err)
}
