// Package payu implements a client for the PayU REST API: order creation,
// capture, cancellation, refunds, OAuth client-credentials token management
// and notification signature verification.
package payu

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Environment selects the PayU deployment the client talks to.
type Environment string

const (
	// EnvironmentSandbox targets secure.snd.payu.com.
	EnvironmentSandbox Environment = "sandbox"
	// EnvironmentProduction targets secure.payu.com.
	EnvironmentProduction Environment = "production"
)

// BaseURL returns the API host for the environment.
func (e Environment) BaseURL() string {
	switch e {
	case EnvironmentProduction:
		return "https://secure.payu.com"
	default:
		return "https://secure.snd.payu.com"
	}
}

const (
	authorizePath = "/pl/standard/user/oauth/authorize"
	ordersPath    = "/api/v2_1/orders"
)

// Client talks to the PayU REST API. A single client owns one cached bearer
// token shared by all authorized calls made through it.
type Client struct {
	cfg      Config
	baseURL  string
	http     *http.Client
	tokens   *tokenSource
	validate *validator.Validate
	logger   zerolog.Logger
}

// New constructs a Client from the provided configuration.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = cfg.Environment.BaseURL()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.HTTPTimeout)
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Client{
		cfg:     cfg,
		baseURL: base,
		http:    httpClient,
		tokens: &tokenSource{
			authorizeURL: base + authorizePath,
			clientID:     cfg.ClientID,
			clientSecret: cfg.ClientSecret,
			http:         httpClient,
		},
		validate: validator.New(),
		logger:   logger,
	}, nil
}

// Verifier returns a SignatureVerifier bound to the configured second key.
func (c *Client) Verifier() SignatureVerifier {
	return SignatureVerifier{SecondKey: c.cfg.SecondKey}
}

// NewHTTPClient returns an HTTP client configured for PayU API calls. The
// client never follows redirects: order creation answers 302 with a JSON body
// whose redirect target is for the paying customer, not for the merchant.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
