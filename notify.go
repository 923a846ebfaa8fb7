package payu

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ReplayGuard suppresses duplicate notifications within a TTL.
type ReplayGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisReplayGuard implements ReplayGuard with a SetNX per notification body.
type RedisReplayGuard struct {
	Client *redis.Client
}

// Acquire reports whether the key was seen for the first time within the TTL.
func (g RedisReplayGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.Client.SetNX(ctx, key, "1", ttl).Result()
}

// NotificationHandler receives PayU notifications: it verifies the signature
// header, optionally checks the source address and suppresses replays, then
// hands the decoded notification to OnNotification.
type NotificationHandler struct {
	Verifier    SignatureVerifier
	Environment Environment
	// EnforceSourceIP rejects requests from addresses outside the PayU
	// allow-list for the environment. Leave false behind proxies that do
	// not preserve the peer address.
	EnforceSourceIP bool
	Replay          ReplayGuard
	ReplayTTL       time.Duration
	Logger          zerolog.Logger

	OnNotification func(ctx context.Context, n Notification) error
}

// Routes mounts the handler on a fresh chi router.
func (h NotificationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/notifications", h.ServeHTTP)
	return r
}

func (h NotificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.OnNotification == nil {
		jsonError(w, http.StatusInternalServerError, "NOTIFY_NOT_CONFIGURED", "notification handler unavailable")
		return
	}
	if h.EnforceSourceIP {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !TrustedNotificationSource(h.Environment, host) {
			h.count("untrusted_source")
			jsonError(w, http.StatusForbidden, "UNTRUSTED_SOURCE", "address is not a known notification source")
			return
		}
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read payload")
		return
	}
	if !h.Verifier.Verify(r.Header.Get(SignatureHeader), body) {
		h.count("invalid_signature")
		h.Logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("notification signature rejected")
		jsonError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "signature verification failed")
		return
	}
	if h.Replay != nil && h.ReplayTTL > 0 {
		digest := sha256.Sum256(body)
		key := fmt.Sprintf("payu:ntf:%s", hex.EncodeToString(digest[:]))
		ok, err := h.Replay.Acquire(r.Context(), key, h.ReplayTTL)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "REPLAY_STORE_ERROR", err.Error())
			return
		}
		if !ok {
			h.count("replay")
			jsonError(w, http.StatusConflict, "REPLAY", "duplicate notification")
			return
		}
	}
	var notification Notification
	if err := json.Unmarshal(body, &notification); err != nil {
		h.count("invalid_body")
		jsonError(w, http.StatusBadRequest, "INVALID_BODY", "unable to decode notification")
		return
	}
	if err := h.OnNotification(r.Context(), notification); err != nil {
		h.count("callback_error")
		jsonError(w, http.StatusInternalServerError, "NOTIFY_FAILED", err.Error())
		return
	}
	h.count("processed")
	w.WriteHeader(http.StatusOK)
}

func (h NotificationHandler) count(result string) {
	if NotificationTotal != nil {
		NotificationTotal.WithLabelValues(result).Inc()
	}
}

// errorBody is the canonical error payload shape.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]errorBody{
		"error": {Code: code, Message: message},
	})
}
