package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders accepted and persisted.",
	})
	OrdersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Orders rejected at admission, by reason.",
	}, []string{"reason"})
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Events published to the bus, by topic.",
	}, []string{"topic"})
	DecrementsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_decrements_applied_total",
		Help: "Stock decrements applied to the ledger.",
	})
	DecrementsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_decrements_failed_total",
		Help: "Stock decrements that did not apply, by reason.",
	}, []string{"reason"})
	DuplicateOrders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_orders_skipped_total",
		Help: "Redelivered OrderCreated events skipped by the dedup record.",
	})
	DeadLetters = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dead_letters_total",
		Help: "Undecodable messages routed to the dead-letter topic.",
	})
)

// Handler exposes the default registry for GET /metrics.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
