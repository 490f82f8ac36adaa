package shopify

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "visibility/internal/domain"
)

const shopIdentityQuery = `{
  shop {
    name
    primaryDomain {
      url
    }
  }
}`

// Client issues Admin GraphQL requests on behalf of a merchant session.
// It holds no per-shop state; the session is supplied on every call.
type Client struct {
    apiVersion string
    httpClient *http.Client
    // endpoint builds the GraphQL URL for a shop; overridable in tests.
    endpoint func(shop, version string) string
}

// NewClient returns a client for the given Admin API version.
func NewClient(apiVersion string, httpClient *http.Client) *Client {
    if httpClient == nil {
        httpClient = &http.Client{Timeout: 30 * time.Second}
    }
    return &Client{apiVersion: apiVersion, httpClient: httpClient, endpoint: adminEndpoint}
}

func adminEndpoint(shop, version string) string {
    return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, version)
}

// GraphQLRequest represents a GraphQL request
type GraphQLRequest struct {
    Query     string         `json:"query"`
    Variables map[string]any `json:"variables,omitempty"`
}

// GraphQLResponse represents a GraphQL response
type GraphQLResponse struct {
    Data   json.RawMessage `json:"data"`
    Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
    Message string `json:"message"`
    Path    []any  `json:"path,omitempty"`
}

// Execute runs a query against the session's shop.
func (c *Client) Execute(ctx context.Context, sess domain.Session, query string, variables map[string]any) (*GraphQLResponse, error) {
    if sess.Shop == "" || sess.AccessToken == "" {
        return nil, fmt.Errorf("session for %q has no access token", sess.Shop)
    }
    jsonData, err := json.Marshal(GraphQLRequest{Query: query, Variables: variables})
    if err != nil {
        return nil, fmt.Errorf("failed to marshal request: %w", err)
    }

    req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(sess.Shop, c.apiVersion), bytes.NewReader(jsonData))
    if err != nil {
        return nil, fmt.Errorf("failed to create request: %w", err)
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Shopify-Access-Token", sess.AccessToken)

    resp, err := c.httpClient.Do(req)
    if err != nil {
        return nil, fmt.Errorf("failed to execute request: %w", err)
    }
    defer resp.Body.Close()

    body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
    if err != nil {
        return nil, fmt.Errorf("failed to read response: %w", err)
    }
    if resp.StatusCode != http.StatusOK {
        return nil, fmt.Errorf("shopify API error: status %d, body: %s", resp.StatusCode, string(body))
    }

    var out GraphQLResponse
    if err := json.Unmarshal(body, &out); err != nil {
        return nil, fmt.Errorf("failed to unmarshal response: %w", err)
    }
    if len(out.Errors) > 0 {
        msgs := make([]string, len(out.Errors))
        for i, e := range out.Errors {
            msgs[i] = e.Message
        }
        return nil, fmt.Errorf("graphQL errors: %s", strings.Join(msgs, "; "))
    }
    return &out, nil
}

// ShopDetails fetches the store's display name and primary domain URL.
func (c *Client) ShopDetails(ctx context.Context, sess domain.Session) (domain.ShopDetails, error) {
    resp, err := c.Execute(ctx, sess, shopIdentityQuery, nil)
    if err != nil {
        return domain.ShopDetails{}, err
    }
    var data struct {
        Shop *struct {
            Name          string `json:"name"`
            PrimaryDomain *struct {
                URL string `json:"url"`
            } `json:"primaryDomain"`
        } `json:"shop"`
    }
    if err := json.Unmarshal(resp.Data, &data); err != nil {
        return domain.ShopDetails{}, fmt.Errorf("decode shop: %w", err)
    }
    if data.Shop == nil {
        return domain.ShopDetails{}, fmt.Errorf("empty shop response")
    }
    out := domain.ShopDetails{Name: data.Shop.Name}
    if data.Shop.PrimaryDomain != nil {
        out.PrimaryURL = data.Shop.PrimaryDomain.URL
    }
    return out, nil
}
