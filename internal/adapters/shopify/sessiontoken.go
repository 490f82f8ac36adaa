package shopify

import (
    "errors"
    "fmt"
    "net/url"
    "strings"

    "github.com/golang-jwt/jwt/v4"
    "golang.org/x/net/publicsuffix"

    "visibility/internal/domain"
)

var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims are the claims App Bridge puts in a session token.
type SessionClaims struct {
    Dest string `json:"dest"`
    SID  string `json:"sid,omitempty"`
    jwt.RegisteredClaims
}

// TokenVerifier checks HS256 session tokens signed with the app secret.
type TokenVerifier struct {
    apiKey string
    secret []byte
}

func NewTokenVerifier(apiKey, apiSecret string) *TokenVerifier {
    return &TokenVerifier{apiKey: apiKey, secret: []byte(apiSecret)}
}

// Verify validates the token and returns the shop domain it was issued for.
func (v *TokenVerifier) Verify(token string) (string, error) {
    if len(v.secret) == 0 {
        return "", fmt.Errorf("%w: verifier has no secret", ErrInvalidToken)
    }
    var claims SessionClaims
    _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
        return v.secret, nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil {
        return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
    }
    if !claims.VerifyAudience(v.apiKey, true) {
        return "", fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
    }
    shop, err := hostOf(claims.Dest)
    if err != nil {
        return "", fmt.Errorf("%w: dest: %v", ErrInvalidToken, err)
    }
    if !IsShopDomain(shop) {
        return "", fmt.Errorf("%w: %q is not a shop domain", ErrInvalidToken, shop)
    }
    iss, err := hostOf(claims.Issuer)
    if err != nil || iss != shop {
        return "", fmt.Errorf("%w: issuer does not match dest", ErrInvalidToken)
    }
    return shop, nil
}

func hostOf(raw string) (string, error) {
    u, err := url.Parse(raw)
    if err != nil {
        return "", err
    }
    if u.Scheme != "https" || u.Hostname() == "" {
        return "", fmt.Errorf("%q is not an https URL", raw)
    }
    return strings.ToLower(u.Hostname()), nil
}

// IsShopDomain reports whether host is a single-label store under the
// multi-tenant suffix, e.g. store.myshopify.com.
func IsShopDomain(host string) bool {
    if suffix, _ := publicsuffix.PublicSuffix(host); "."+suffix != domain.ShopSuffix {
        return false
    }
    registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
    return err == nil && registrable == host
}
