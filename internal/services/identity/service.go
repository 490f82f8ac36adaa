package identity

import (
    "context"
    "strings"

    "go.uber.org/zap"

    "visibility/internal/domain"
    "visibility/internal/ports"
)

// Service resolves the shop identity triple, preferring the live identity
// source and falling back to values derived from the shop domain.
type Service struct {
    source ports.IdentitySource
    log    *zap.Logger
}

func New(source ports.IdentitySource, log *zap.Logger) *Service {
    if log == nil { log = zap.NewNop() }
    return &Service{source: source, log: log}
}

func (s *Service) Resolve(ctx context.Context, sess *domain.Session) (domain.ShopIdentity, error) {
    if sess == nil {
        return domain.ShopIdentity{}, domain.ErrUnauthenticated
    }
    shop := strings.TrimSpace(sess.Shop)
    if shop == "" {
        return domain.ShopIdentity{}, domain.ErrMalformedSession
    }

    var live domain.ShopDetails
    if s.source != nil {
        details, err := s.source.ShopDetails(ctx, *sess)
        if err != nil {
            // Lookup failures are never surfaced; derived values take over.
            s.log.Warn("shop identity lookup failed, using derived values",
                zap.String("shop", shop), zap.Error(err))
        } else {
            live = details
        }
    }

    ident := domain.ShopIdentity{
        ShopDomain: shop,
        BrandName:  DeriveBrandName(shop),
        WebsiteURL: DeriveWebsiteURL(shop),
    }
    if name := strings.TrimSpace(live.Name); name != "" {
        ident.BrandName = name
    }
    if u := strings.TrimSpace(live.PrimaryURL); u != "" {
        ident.WebsiteURL = u
    }
    return ident, nil
}

// DeriveBrandName strips the multi-tenant suffix from a shop domain.
func DeriveBrandName(shop string) string {
    return strings.TrimSuffix(shop, domain.ShopSuffix)
}

func DeriveWebsiteURL(shop string) string {
    return "https://" + shop
}
