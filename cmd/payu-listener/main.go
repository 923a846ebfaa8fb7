// Command payu-listener runs a standalone HTTP server that receives PayU
// notifications, verifies them and logs the settled order states.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	payu "github.com/noah-isme/payu-go"
	"github.com/noah-isme/payu-go/internal/obs"
)

func main() {
	// The listener only verifies notifications; it needs the environment and
	// the second key, not the full client credentials.
	environment := payu.Environment(envOrDefault("PAYU_ENVIRONMENT", string(payu.EnvironmentSandbox)))
	secondKey := envOrDefault("PAYU_SECOND_KEY", "")

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", string(environment)).Logger()
	if secondKey == "" {
		logger.Fatal().Msg("PAYU_SECOND_KEY is required")
	}

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "payu")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	payu.MustRegisterMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", false)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName: "payu-listener",
			Endpoint:    envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Environment: string(environment),
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	var replay payu.ReplayGuard
	if redisURL := envOrDefault("REDIS_URL", ""); redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
		replay = payu.RedisReplayGuard{Client: redisClient}
	}

	handler := payu.NotificationHandler{
		Verifier:        payu.SignatureVerifier{SecondKey: secondKey},
		Environment:     environment,
		EnforceSourceIP: envBool("NOTIFY_ENFORCE_SOURCE_IP", false),
		Replay:          replay,
		ReplayTTL:       envDuration("NOTIFY_REPLAY_TTL", "24h"),
		Logger:          logger,
		OnNotification: func(ctx context.Context, n payu.Notification) error {
			evt := logger.Info()
			if n.Order != nil {
				evt = evt.Str("order_id", n.Order.OrderID).
					Str("ext_order_id", n.Order.ExtOrderID).
					Str("status", n.Order.Status)
			}
			if n.Refund != nil {
				evt = evt.Str("refund_id", n.Refund.RefundID).Str("refund_status", n.Refund.Status)
			}
			evt.Msg("payu_notification")
			return nil
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Mount("/payu", handler.Routes())

	srv := &http.Server{
		Addr:    httpAddr(envOrDefault("PORT", "8080")),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("listener starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func httpAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key, fallback string) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		value = fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
