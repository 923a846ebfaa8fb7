package payu_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	payu "github.com/noah-isme/payu-go"
)

const notificationBody = `{"order":{"orderId":"ORD-1","extOrderId":"ext-1","status":"COMPLETED","totalAmount":"21000"}}`

func newNotificationHandler(t *testing.T, replay payu.ReplayGuard) (payu.NotificationHandler, *int) {
	t.Helper()
	calls := 0
	return payu.NotificationHandler{
		Verifier:  payu.SignatureVerifier{SecondKey: "second-key"},
		Replay:    replay,
		ReplayTTL: time.Hour,
		Logger:    zerolog.Nop(),
		OnNotification: func(ctx context.Context, n payu.Notification) error {
			calls++
			require.NotNil(t, n.Order)
			require.Equal(t, "ORD-1", n.Order.OrderID)
			require.Equal(t, "COMPLETED", n.Order.Status)
			return nil
		},
	}, &calls
}

func postNotification(t *testing.T, h http.Handler, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/notifications", strings.NewReader(notificationBody))
	if header != "" {
		req.Header.Set(payu.SignatureHeader, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNotificationHandlerAcceptsSignedBody(t *testing.T) {
	handler, calls := newNotificationHandler(t, nil)
	header := handler.Verifier.Sign([]byte(notificationBody))

	rec := postNotification(t, handler.Routes(), header)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, *calls)
}

func TestNotificationHandlerRejectsBadSignature(t *testing.T) {
	handler, calls := newNotificationHandler(t, nil)

	rec := postNotification(t, handler.Routes(), "signature=deadbeef;algorithm=MD5")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_SIGNATURE")
	require.Equal(t, 0, *calls)
}

func TestNotificationHandlerRejectsMissingHeader(t *testing.T) {
	handler, calls := newNotificationHandler(t, nil)

	rec := postNotification(t, handler.Routes(), "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, 0, *calls)
}

func TestNotificationHandlerSuppressesReplays(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	handler, calls := newNotificationHandler(t, payu.RedisReplayGuard{Client: client})
	header := handler.Verifier.Sign([]byte(notificationBody))
	routes := handler.Routes()

	rec := postNotification(t, routes, header)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postNotification(t, routes, header)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "REPLAY")
	require.Equal(t, 1, *calls)
}

func TestNotificationHandlerEnforcesSourceIP(t *testing.T) {
	handler, calls := newNotificationHandler(t, nil)
	handler.Environment = payu.EnvironmentSandbox
	handler.EnforceSourceIP = true
	header := handler.Verifier.Sign([]byte(notificationBody))

	req := httptest.NewRequest(http.MethodPost, "/notifications", strings.NewReader(notificationBody))
	req.Header.Set(payu.SignatureHeader, header)
	req.RemoteAddr = "203.0.113.7:40211"
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, 0, *calls)

	req = httptest.NewRequest(http.MethodPost, "/notifications", strings.NewReader(notificationBody))
	req.Header.Set(payu.SignatureHeader, header)
	req.RemoteAddr = "185.68.14.10:40211"
	rec = httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, *calls)
}
