package payu

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	// TokenFetchTotal counts token fetch attempts by outcome.
	TokenFetchTotal *prometheus.CounterVec
	// APIRequestTotal counts order-lifecycle API calls by operation and outcome.
	APIRequestTotal *prometheus.CounterVec
	// NotificationTotal counts inbound notification processing outcomes.
	NotificationTotal *prometheus.CounterVec
)

// MustRegisterMetrics initialises and registers the SDK's Prometheus
// collectors. Collectors stay nil until this is called; instrumented code
// nil-guards every observation so metrics remain strictly opt-in.
func MustRegisterMetrics(namespace string, reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		TokenFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_fetch_total",
			Help:      "Count of OAuth token fetch attempts by outcome.",
		}, []string{"result"})
		APIRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_request_total",
			Help:      "Count of PayU API calls by operation and outcome.",
		}, []string{"operation", "result"})
		NotificationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_total",
			Help:      "Count of processed PayU notifications by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, TokenFetchTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TokenFetchTotal = v
			}
		})
		mustRegisterCollector(reg, APIRequestTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				APIRequestTotal = v
			}
		})
		mustRegisterCollector(reg, NotificationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NotificationTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register payu metric: %w", err))
	}
}
