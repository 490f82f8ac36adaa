// Package memory holds in-process adapters for local runs and tests.
package memory

import (
    "context"
    "strings"
    "sync"

    "visibility/internal/domain"
)

// SessionStore keeps offline sessions in a map.
type SessionStore struct {
    mu       sync.RWMutex
    sessions map[string]domain.Session
}

func NewSessionStore(seed ...domain.Session) *SessionStore {
    s := &SessionStore{sessions: map[string]domain.Session{}}
    for _, sess := range seed {
        _ = s.Save(context.Background(), sess)
    }
    return s
}

func (s *SessionStore) Get(_ context.Context, shop string) (domain.Session, bool, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    sess, ok := s.sessions[strings.ToLower(shop)]
    return sess, ok, nil
}

func (s *SessionStore) Save(_ context.Context, sess domain.Session) error {
    shop := strings.ToLower(sess.Shop)
    sess.Shop = shop
    if sess.ID == "" { sess.ID = "offline_" + shop }
    s.mu.Lock()
    s.sessions[shop] = sess
    s.mu.Unlock()
    return nil
}
