package postgres

import (
    "context"
    "errors"
    "strings"

    "github.com/jackc/pgx/v5"

    "visibility/internal/domain"
)

// SessionStore
func (db *DB) Get(ctx context.Context, shop string) (domain.Session, bool, error) {
    var s domain.Session
    err := db.Pool.QueryRow(ctx, `
        SELECT id, shop, access_token, scope FROM shopify_sessions WHERE shop = $1
    `, strings.ToLower(shop)).Scan(&s.ID, &s.Shop, &s.AccessToken, &s.Scope)
    if errors.Is(err, pgx.ErrNoRows) {
        return domain.Session{}, false, nil
    }
    if err != nil {
        return domain.Session{}, false, err
    }
    return s, true, nil
}

func (db *DB) Save(ctx context.Context, s domain.Session) error {
    shop := strings.ToLower(s.Shop)
    if s.ID == "" { s.ID = OfflineSessionID(shop) }
    _, err := db.Pool.Exec(ctx, `
        INSERT INTO shopify_sessions (id, shop, access_token, scope)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (shop) DO UPDATE
        SET id = EXCLUDED.id, access_token = EXCLUDED.access_token, scope = EXCLUDED.scope, updated_at = now()
    `, s.ID, shop, s.AccessToken, s.Scope)
    return err
}

// OfflineSessionID is the id the platform library uses for offline sessions.
func OfflineSessionID(shop string) string { return "offline_" + shop }
