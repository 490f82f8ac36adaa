package ports

import (
    "context"

    "visibility/internal/domain"
)

// SessionStore stores offline merchant sessions keyed by shop domain.
type SessionStore interface {
    Get(ctx context.Context, shop string) (sess domain.Session, found bool, err error)
    Save(ctx context.Context, sess domain.Session) error
}
