package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// defaultTokenLifetime is used when the token response carries no
	// lifetime. Deliberately conservative; Salesforce sessions last longer.
	defaultTokenLifetime = 15 * time.Minute

	// expiryMargin: a token this close to expiry is refreshed proactively.
	expiryMargin = 60 * time.Second
)

// TokenManager acquires and caches a bearer token via the client-credentials
// flow. Concurrent callers share a single in-flight acquisition.
type TokenManager struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

// NewTokenManager creates a token manager for the given instance.
func NewTokenManager(instanceURL, clientID, clientSecret string, httpClient *http.Client) *TokenManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenManager{
		tokenURL:     strings.TrimSuffix(instanceURL, "/") + "/services/oauth2/token",
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
		now:          time.Now,
	}
}

// Token returns the cached bearer token, acquiring or refreshing it when
// missing or within the expiry margin. Idempotent within validity.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.token != "" && m.now().Before(m.expiresAt.Add(-expiryMargin)) {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	// One refresh in flight at a time; concurrent callers await its result.
	result, err, _ := m.group.Do("token", func() (any, error) {
		return m.acquire(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Invalidate discards the cached token so the next Token call re-acquires.
// Called when the remote store rejects a request with a 401-class status.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	IssuedAt    string `json:"issued_at"`
}

func (m *TokenManager) acquire(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "token acquisition", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "token acquisition", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", &AuthError{Status: resp.StatusCode, Body: "unparseable token response"}
	}
	if tr.AccessToken == "" {
		return "", &AuthError{Status: resp.StatusCode, Body: "token response missing access_token"}
	}

	issuedAt := m.now()
	if ms, err := strconv.ParseInt(tr.IssuedAt, 10, 64); err == nil && ms > 0 {
		issuedAt = time.UnixMilli(ms)
	}
	lifetime := defaultTokenLifetime
	if tr.ExpiresIn > 0 {
		lifetime = time.Duration(tr.ExpiresIn) * time.Second
	}

	m.mu.Lock()
	m.token = tr.AccessToken
	m.expiresAt = issuedAt.Add(lifetime)
	m.mu.Unlock()

	return tr.AccessToken, nil
}

// TokenPrefix returns a short, loggable prefix of a token. Tokens are opaque
// and never logged in full.
func TokenPrefix(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:8] + "..."
}
