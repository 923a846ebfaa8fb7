// Command payu-cli drives the order lifecycle against the configured PayU
// environment: create, capture, cancel, refund and retrieval.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	payu "github.com/noah-isme/payu-go"
	"github.com/noah-isme/payu-go/internal/obs"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := obs.NewLogger("console", envOrDefault("OBS_LOG_LEVEL", "info"))

	cfg, err := payu.ConfigFromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("load configuration")
	}
	cfg.Logger = &logger

	client, err := payu.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("build client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var (
		out     any
		callErr error
	)
	switch cmd := os.Args[1]; cmd {
	case "token":
		out, callErr = client.AccessToken(ctx)
	case "create":
		out, callErr = client.CreateOrder(ctx, sampleOrder(cfg))
	case "capture":
		out, callErr = client.CaptureOrder(ctx, arg(2))
	case "cancel":
		out, callErr = client.CancelOrder(ctx, arg(2))
	case "refund":
		out, callErr = client.RefundOrder(ctx, arg(2), payu.RefundRequest{
			Refund: payu.Refund{Description: "Refund requested via payu-cli", Amount: arg(3)},
		})
	case "get":
		out, callErr = client.GetOrder(ctx, arg(2))
	case "transactions":
		out, callErr = client.GetOrderTransactions(ctx, arg(2))
	default:
		usage()
		os.Exit(2)
	}
	if callErr != nil {
		logger.Fatal().Err(callErr).Msg("api call failed")
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("encode response")
	}
	fmt.Println(string(encoded))
}

func sampleOrder(cfg payu.Config) payu.OrderRequest {
	return payu.OrderRequest{
		ExtOrderID:   uuid.NewString(),
		CustomerIP:   "127.0.0.1",
		Description:  "payu-cli test order",
		CurrencyCode: "PLN",
		TotalAmount:  "21000",
		NotifyURL:    envOrDefault("PAYU_NOTIFY_URL", ""),
		Buyer: &payu.Buyer{
			Email:     "buyer@example.com",
			FirstName: "John",
			LastName:  "Doe",
			Language:  "pl",
		},
		Products: []payu.Product{
			{Name: "Wireless Mouse", UnitPrice: "15000", Quantity: "1"},
			{Name: "HDMI Cable", UnitPrice: "6000", Quantity: "1"},
		},
	}
}

func arg(i int) string {
	if len(os.Args) <= i {
		usage()
		os.Exit(2)
	}
	return os.Args[i]
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: payu-cli <command> [args]

commands:
  token                     fetch (or reuse) an access token
  create                    create a sample order
  capture <orderId>         capture an authorized order
  cancel <orderId>          cancel an order
  refund <orderId> <amount> refund an order
  get <orderId>             retrieve an order
  transactions <orderId>    list order transactions`)
}
