package domain

import (
    "errors"
    "fmt"
)

var (
    // ErrUnauthenticated means no established merchant session is present.
    ErrUnauthenticated = errors.New("No Shopify session found")
    // ErrMalformedSession means a session exists but carries no shop domain.
    ErrMalformedSession = errors.New("session has no shop domain")
)

// ValidationError is returned before any outbound call when required input is missing.
type ValidationError struct {
    Message string
    Fields  map[string]string
}

func (e *ValidationError) Error() string {
    if e.Message != "" {
        return e.Message
    }
    return "validation failed"
}

// ConfigError reports a configuration value that cannot be used.
type ConfigError struct {
    Key    string
    Value  string
    Reason string
}

func (e *ConfigError) Error() string {
    return fmt.Sprintf("Invalid %s: %s", e.Key, e.Reason)
}

// ProxyError wraps a failure to reach or read the scoring destination.
type ProxyError struct {
    Op  string
    Err error
}

func (e *ProxyError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *ProxyError) Unwrap() error { return e.Err }

// UpstreamStatusError is returned when the destination answers with a non-2xx
// status. Result still holds the normalized body.
type UpstreamStatusError struct {
    Status int
    Result ScoreResult
}

func (e *UpstreamStatusError) Error() string {
    return fmt.Sprintf("scoring destination responded with status %d", e.Status)
}
