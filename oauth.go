package payu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// tokenSource owns the cached bearer token for one client. The zero cache
// starts empty with an expiry in the past, so the first call always fetches.
// Concurrent callers that observe an expired cache share a single in-flight
// fetch; no retries happen on failure, the next call simply starts over.
type tokenSource struct {
	authorizeURL string
	clientID     string
	clientSecret string
	http         *http.Client

	// now is overridable in tests; nil means time.Now.
	now func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	group     singleflight.Group
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	GrantType   string `json:"grant_type"`
}

// expirySentinel places a fresh or invalidated cache firmly in the past.
const expirySentinel = -time.Minute

func (s *tokenSource) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// AccessToken returns the cached bearer token, fetching a new one from the
// authorization endpoint when the cache is empty or expired.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.tokens.Token(ctx)
}

// Token implements the cache-or-fetch contract. The cached value is returned
// without network cost while the current instant is strictly before its
// expiry. Expiry uses the server-declared TTL verbatim with no early-refresh
// margin.
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.token != "" && s.clock().Before(s.expiresAt) {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("token", func() (any, error) {
		// A waiter that queued behind a successful fetch finds the cache
		// already refreshed.
		s.mu.Lock()
		if s.token != "" && s.clock().Before(s.expiresAt) {
			token := s.token
			s.mu.Unlock()
			return token, nil
		}
		s.mu.Unlock()
		return s.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *tokenSource) fetch(ctx context.Context) (string, error) {
	ctx, span := otel.Tracer("payu.tokenSource").Start(ctx, "tokenSource.fetch")
	defer span.End()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authorizeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", s.fail(span, "error", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", s.fail(span, "error", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", s.fail(span, "error", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		authErr := &AuthError{}
		if jsonErr := json.Unmarshal(body, authErr); jsonErr == nil && authErr.Code != "" {
			return "", s.fail(span, "rejected", authErr)
		}
		return "", s.fail(span, "error", fmt.Errorf("payu: token endpoint: %s", resp.Status))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", s.fail(span, "error", err)
	}

	s.mu.Lock()
	s.token = tok.AccessToken
	s.expiresAt = s.clock().Add(time.Duration(tok.ExpiresIn) * time.Second)
	s.mu.Unlock()
	if TokenFetchTotal != nil {
		TokenFetchTotal.WithLabelValues("success").Inc()
	}
	return tok.AccessToken, nil
}

// fail resets the cache so the next call retries from scratch instead of
// reusing a poisoned value, counts the failed attempt, then surfaces the
// error unchanged.
func (s *tokenSource) fail(span trace.Span, result string, err error) error {
	s.mu.Lock()
	s.token = ""
	s.expiresAt = s.clock().Add(expirySentinel)
	s.mu.Unlock()
	if TokenFetchTotal != nil {
		TokenFetchTotal.WithLabelValues(result).Inc()
	}
	span.RecordError(err)
	return err
}
