package ports

import (
    "context"

    "visibility/internal/domain"
)

// Identity resolves the canonical shop identity for a session.
type Identity interface {
    Resolve(ctx context.Context, sess *domain.Session) (domain.ShopIdentity, error)
}

// Scorer forwards a score request to the scoring destination.
type Scorer interface {
    Request(ctx context.Context, req domain.ScoreRequest) (domain.ScoreResult, error)
}

// IdentitySource queries the platform for a store's display name and primary
// web address, authenticated as the given session.
type IdentitySource interface {
    ShopDetails(ctx context.Context, sess domain.Session) (domain.ShopDetails, error)
}

// TokenVerifier validates a session token and returns the shop it was issued for.
type TokenVerifier interface {
    Verify(token string) (shop string, err error)
}
