package payu_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	payu "github.com/noah-isme/payu-go"
)

func validOrder() payu.OrderRequest {
	return payu.OrderRequest{
		ExtOrderID:   "ext-1",
		CustomerIP:   "127.0.0.1",
		Description:  "Test order",
		CurrencyCode: "PLN",
		TotalAmount:  "21000",
		Products: []payu.Product{
			{Name: "Wireless Mouse", UnitPrice: "21000", Quantity: "1"},
		},
	}
}

// newAPIServer serves the token endpoint plus whatever order routes the test
// registers on mux.
func newAPIServer(t *testing.T, mux *http.ServeMux) *payu.Client {
	t.Helper()
	mux.HandleFunc("POST /pl/standard/user/oauth/authorize", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := payu.New(payu.Config{
		Environment:  payu.EnvironmentSandbox,
		BaseURL:      srv.URL,
		PosID:        "145227",
		ClientID:     "145227",
		ClientSecret: "s3cret",
		SecondKey:    "second-key",
	})
	require.NoError(t, err)
	return client
}

func TestCreateOrderSuccessStatuses(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated} {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v2_1/orders", func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var req payu.OrderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "145227", req.MerchantPosID, "pos id filled from config")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"status":{"statusCode":"SUCCESS"},"orderId":"WZHF5FFDRJ140731GUEST000P01","redirectUri":"https://merch-prod.snd.payu.com/pay"}`))
		})
		client := newAPIServer(t, mux)

		resp, err := client.CreateOrder(context.Background(), validOrder())
		require.NoError(t, err)
		require.Equal(t, "SUCCESS", resp.Status.StatusCode)
		require.Equal(t, "WZHF5FFDRJ140731GUEST000P01", resp.OrderID)
	}
}

func TestCreateOrderDoesNotFollowRedirect(t *testing.T) {
	var followed atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2_1/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Location", "/pay/here")
		w.WriteHeader(http.StatusFound)
		_, _ = w.Write([]byte(`{"status":{"statusCode":"SUCCESS"},"orderId":"ORD-302","redirectUri":"https://secure.snd.payu.com/pay/here"}`))
	})
	mux.HandleFunc("/pay/here", func(w http.ResponseWriter, r *http.Request) {
		followed.Add(1)
	})
	client := newAPIServer(t, mux)

	resp, err := client.CreateOrder(context.Background(), validOrder())
	require.NoError(t, err)
	require.Equal(t, "ORD-302", resp.OrderID)
	require.Equal(t, "https://secure.snd.payu.com/pay/here", resp.RedirectURI)
	require.EqualValues(t, 0, followed.Load(), "redirect target must not be fetched")
}

func TestCreateOrderSuccessToleratesUnexpectedBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2_1/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`not json at all`))
	})
	client := newAPIServer(t, mux)

	_, err := client.CreateOrder(context.Background(), validOrder())
	require.NoError(t, err, "accepted statuses are success regardless of body shape")
}

func TestCreateOrderRejectionDecodesStatusObject(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2_1/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":{"statusCode":"ERROR_VALUE_INVALID","code":"8300","codeLiteral":"MISSING_REQUIRED_FIELD","statusDesc":"Missing required field"}}`))
	})
	client := newAPIServer(t, mux)

	_, err := client.CreateOrder(context.Background(), validOrder())
	var apiErr *payu.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	require.Equal(t, "ERROR_VALUE_INVALID", apiErr.StatusCode)
	require.Equal(t, "8300", apiErr.Code)
	require.Equal(t, "MISSING_REQUIRED_FIELD", apiErr.CodeLiteral)
	require.Equal(t, "Missing required field", apiErr.StatusDesc)
}

func TestCreateOrderValidatesBeforeSending(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2_1/orders", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid requests must not reach the network")
	})
	client := newAPIServer(t, mux)

	req := validOrder()
	req.Products = nil
	_, err := client.CreateOrder(context.Background(), req)
	require.Error(t, err)
}

func TestCaptureOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/v2_1/orders/ORD-1/status", func(w http.ResponseWriter, r *http.Request) {
		var req payu.OrderStatusUpdateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "ORD-1", req.OrderID)
		require.Equal(t, "COMPLETED", req.OrderStatus)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":{"statusCode":"SUCCESS"}}`))
	})
	client := newAPIServer(t, mux)

	resp, err := client.CaptureOrder(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Equal(t, "SUCCESS", resp.Status.StatusCode)
}

func TestCancelOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v2_1/orders/ORD-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":{"statusCode":"SUCCESS"},"orderId":"ORD-1"}`))
	})
	client := newAPIServer(t, mux)

	resp, err := client.CancelOrder(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Equal(t, "ORD-1", resp.OrderID)
}

func TestRefundOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2_1/orders/ORD-1/refund", func(w http.ResponseWriter, r *http.Request) {
		var req payu.RefundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Customer return", req.Refund.Description)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orderId":"ORD-1","refund":{"refundId":"5000009986","status":"PENDING","amount":"21000"},"status":{"statusCode":"SUCCESS"}}`))
	})
	client := newAPIServer(t, mux)

	resp, err := client.RefundOrder(context.Background(), "ORD-1", payu.RefundRequest{
		Refund: payu.Refund{Description: "Customer return"},
	})
	require.NoError(t, err)
	require.Equal(t, "5000009986", resp.Refund.RefundID)
	require.Equal(t, "PENDING", resp.Refund.Status)
}

func TestGetOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2_1/orders/ORD-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orders":[{"orderId":"ORD-1","status":"COMPLETED","totalAmount":"21000"}],"status":{"statusCode":"SUCCESS"}}`))
	})
	client := newAPIServer(t, mux)

	resp, err := client.GetOrder(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	require.Equal(t, "COMPLETED", resp.Orders[0].Status)
}

func TestGetOrderTransactions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2_1/orders/ORD-1/transactions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactions":[{"payMethod":{"value":"c"},"paymentFlow":"CARD"}],"status":{"statusCode":"SUCCESS"}}`))
	})
	client := newAPIServer(t, mux)

	resp, err := client.GetOrderTransactions(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 1)
	require.Equal(t, "CARD", resp.Transactions[0].PaymentFlow)
	require.Equal(t, "c", resp.Transactions[0].PayMethod.Value)
}

func TestOrderCallsSurfaceAuthFailure(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	mux.HandleFunc("POST /pl/standard/user/oauth/authorize", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"bad secret"}`))
	})
	mux.HandleFunc("POST /api/v2_1/orders", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("order endpoint must not be reached without a token")
	})

	client, err := payu.New(payu.Config{
		Environment:  payu.EnvironmentSandbox,
		BaseURL:      srv.URL,
		PosID:        "145227",
		ClientID:     "145227",
		ClientSecret: "wrong",
	})
	require.NoError(t, err)

	_, err = client.CreateOrder(context.Background(), validOrder())
	var authErr *payu.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "invalid_client", authErr.Code)
}
