package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	attempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trabook",
		Name:      "attempts_total",
		Help:      "Booking attempts by outcome.",
	}, []string{"outcome"})

	cancellations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trabook",
		Name:      "cancellations_total",
		Help:      "Cancellations of rejected seats by result.",
	}, []string{"result"})

	runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trabook",
		Name:      "runs_total",
		Help:      "Controller runs by terminal result.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(attempts, cancellations, runs)
}

func ObserveAttempt(outcome string) { attempts.WithLabelValues(outcome).Inc() }

func ObserveCancel(err error) {
	if err != nil {
		cancellations.WithLabelValues("failed").Inc()
		return
	}
	cancellations.WithLabelValues("ok").Inc()
}

func ObserveRun(result string) { runs.WithLabelValues(result).Inc() }

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
