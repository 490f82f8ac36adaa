package httpadapter

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/http"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "go.uber.org/zap"

    "visibility/internal/domain"
    "visibility/internal/ports"
)

// Server serves the admin panel API.
type Server struct {
    identity ports.Identity
    scorer   ports.Scorer
    verifier ports.TokenVerifier
    sessions ports.SessionStore
    log      *zap.Logger
}

func New(identity ports.Identity, scorer ports.Scorer, verifier ports.TokenVerifier, sessions ports.SessionStore, log *zap.Logger) *Server {
    if log == nil { log = zap.NewNop() }
    return &Server{identity: identity, scorer: scorer, verifier: verifier, sessions: sessions, log: log}
}

// Routes returns a chi.Router with every /api route behind the session guard.
func (s *Server) Routes() chi.Router {
    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(middleware.RealIP)
    r.Use(requestLogger(s.log))
    r.Use(recoverer(s.log))

    r.Get("/healthz", s.getHealthz)

    r.Route("/api", func(api chi.Router) {
        api.Use(SessionGuard(s.verifier, s.sessions, s.log))
        api.Get("/shop-info", s.getShopInfo)
        api.Post("/visibility-score", s.postVisibilityScore)
        api.NotFound(func(w http.ResponseWriter, r *http.Request) {
            writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
        })
    })
    return r
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getShopInfo(w http.ResponseWriter, r *http.Request) {
    ident, err := s.identity.Resolve(r.Context(), SessionFrom(r.Context()))
    if err != nil {
        s.writeError(w, r, "shop-info", err)
        return
    }
    writeJSON(w, http.StatusOK, ident)
}

func (s *Server) postVisibilityScore(w http.ResponseWriter, r *http.Request) {
    if SessionFrom(r.Context()) == nil {
        s.writeError(w, r, "visibility-score", domain.ErrUnauthenticated)
        return
    }
    req, err := decodeScoreRequest(w, r)
    if err != nil {
        writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Received: &req})
        return
    }
    res, err := s.scorer.Request(r.Context(), req)
    if err != nil {
        var verr *domain.ValidationError
        if errors.As(err, &verr) {
            writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Received: &req})
            return
        }
        s.writeError(w, r, "visibility-score", err)
        return
    }
    writeJSON(w, http.StatusOK, res)
}

// decodeScoreRequest reads the score body. An absent or unparsable body
// decodes as empty so validation reports the missing fields; a field of the
// wrong JSON type is a ValidationError naming that field.
func decodeScoreRequest(w http.ResponseWriter, r *http.Request) (domain.ScoreRequest, error) {
    var req domain.ScoreRequest
    if r.Body == nil {
        return req, nil
    }
    err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req)
    var terr *json.UnmarshalTypeError
    if errors.As(err, &terr) {
        return req, &domain.ValidationError{
            Message: fmt.Sprintf("Invalid type for field %s: expected %s", terr.Field, terr.Type),
            Fields:  map[string]string{terr.Field: "expected " + terr.Type.String()},
        }
    }
    return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json; charset=utf-8")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}
