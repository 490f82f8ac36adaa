package httpadapter

import (
    "context"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/go-chi/chi/v5/middleware"
    "go.uber.org/zap"

    "visibility/internal/domain"
    "visibility/internal/ports"
)

type sessionKey struct{}

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess *domain.Session) context.Context {
    return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session placed by SessionGuard, or nil.
func SessionFrom(ctx context.Context) *domain.Session {
    sess, _ := ctx.Value(sessionKey{}).(*domain.Session)
    return sess
}

// SessionGuard terminates requests without a valid session token and an
// installed offline session with 401. Otherwise the session is put on the
// request context.
func SessionGuard(verifier ports.TokenVerifier, store ports.SessionStore, log *zap.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            token, ok := bearerToken(r.Header.Get("Authorization"))
            if !ok {
                writeUnauthenticated(w, domain.ErrUnauthenticated.Error())
                return
            }
            shop, err := verifier.Verify(token)
            if err != nil {
                log.Warn("session token rejected", zap.Error(err), zap.String("path", r.URL.Path))
                writeUnauthenticated(w, domain.ErrUnauthenticated.Error())
                return
            }
            sess, found, err := store.Get(r.Context(), shop)
            if err != nil {
                log.Error("session lookup failed", zap.String("shop", shop), zap.Error(err))
                writeJSON(w, http.StatusInternalServerError, errorBody{Error: "session lookup failed"})
                return
            }
            if !found {
                log.Info("no offline session for shop", zap.String("shop", shop))
                writeUnauthenticated(w, domain.ErrUnauthenticated.Error())
                return
            }
            next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), &sess)))
        })
    }
}

func bearerToken(header string) (string, bool) {
    scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
    if !ok || !strings.EqualFold(scheme, "Bearer") {
        return "", false
    }
    token = strings.TrimSpace(token)
    return token, token != ""
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            start := time.Now()
            ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
            next.ServeHTTP(ww, r)
            log.Info("HTTP request",
                zap.String("method", r.Method),
                zap.String("path", r.URL.Path),
                zap.Int("status", ww.Status()),
                zap.Duration("duration", time.Since(start)),
                zap.String("request_id", middleware.GetReqID(r.Context())),
            )
        })
    }
}

// recoverer turns panics into a 500 with the panic value as the error message.
func recoverer(log *zap.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            defer func() {
                if rec := recover(); rec != nil {
                    if rec == http.ErrAbortHandler { panic(rec) }
                    log.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
                    writeJSON(w, http.StatusInternalServerError, errorBody{Error: fmt.Sprint(rec)})
                }
            }()
            next.ServeHTTP(w, r)
        })
    }
}
