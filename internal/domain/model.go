package domain

import (
    "encoding/json"

    "github.com/tidwall/gjson"
)

// Core domain models shared by the services, the HTTP adapter and the panel.
// None of these are cached server-side; they live for one request.

// ShopSuffix is the multi-tenant suffix every store domain carries.
const ShopSuffix = ".myshopify.com"

// Session is an established merchant session, loaded by the session guard.
type Session struct {
    ID          string
    Shop        string // e.g. store.myshopify.com
    AccessToken string
    Scope       string
}

// ShopIdentity is the canonical identity triple returned by /api/shop-info.
type ShopIdentity struct {
    ShopDomain string `json:"shop"`
    BrandName  string `json:"brandName"`
    WebsiteURL string `json:"website"`
}

// ShopDetails is what a live identity source reports. Either field may be empty.
type ShopDetails struct {
    Name       string
    PrimaryURL string
}

// ScoreRequest is the body accepted by /api/visibility-score.
type ScoreRequest struct {
    ShopDomain string `json:"shop"`
    WebsiteURL string `json:"website"`
    BrandName  string `json:"brandName,omitempty"`
}

// ScoreResult is the normalized upstream reply. Raw is always a valid JSON
// document: either the upstream body verbatim or {"output": <text>}.
type ScoreResult struct {
    Raw json.RawMessage
}

// TextResult wraps non-JSON upstream text.
func TextResult(text string) ScoreResult {
    b, _ := json.Marshal(map[string]string{"output": text})
    return ScoreResult{Raw: b}
}

// Output returns the "output" string field when the result has one.
func (r ScoreResult) Output() (string, bool) {
    v := gjson.GetBytes(r.Raw, "output")
    if v.Type != gjson.String {
        return "", false
    }
    return v.String(), true
}

func (r ScoreResult) MarshalJSON() ([]byte, error) {
    if len(r.Raw) == 0 {
        return []byte("null"), nil
    }
    return r.Raw, nil
}
