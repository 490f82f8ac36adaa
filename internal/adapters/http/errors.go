package httpadapter

import (
    "errors"
    "net/http"

    "go.uber.org/zap"

    "visibility/internal/domain"
)

// ReauthorizeHeader tells App Bridge to fetch a fresh session token.
const ReauthorizeHeader = "X-Shopify-API-Request-Failure-Reauthorize"

type errorBody struct {
    Error    string               `json:"error"`
    Received *domain.ScoreRequest `json:"received,omitempty"`
    Value    *string              `json:"value,omitempty"`
    Status   int                  `json:"status,omitempty"`
    Upstream *domain.ScoreResult  `json:"upstream,omitempty"`
}

// writeError maps a service error onto the documented status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, route string, err error) {
    var (
        verr *domain.ValidationError
        cerr *domain.ConfigError
        perr *domain.ProxyError
        uerr *domain.UpstreamStatusError
    )
    switch {
    case errors.Is(err, domain.ErrUnauthenticated):
        writeUnauthenticated(w, err.Error())
    case errors.Is(err, domain.ErrMalformedSession):
        writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
    case errors.As(err, &verr):
        writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error()})
    case errors.As(err, &cerr):
        s.log.Error(route+" configuration error", zap.String("key", cerr.Key), zap.String("value", cerr.Value))
        writeJSON(w, http.StatusInternalServerError, errorBody{Error: cerr.Error(), Value: &cerr.Value})
    case errors.As(err, &uerr):
        s.log.Error(route+" upstream status", zap.Int("status", uerr.Status))
        writeJSON(w, http.StatusBadGateway, errorBody{Error: uerr.Error(), Status: uerr.Status, Upstream: &uerr.Result})
    case errors.As(err, &perr):
        s.log.Error(route+" proxy error", zap.Error(err))
        writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
    default:
        s.log.Error(route+" error", zap.Error(err), zap.String("path", r.URL.Path))
        writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
    }
}

func writeUnauthenticated(w http.ResponseWriter, msg string) {
    w.Header().Set(ReauthorizeHeader, "1")
    writeJSON(w, http.StatusUnauthorized, errorBody{Error: msg})
}
