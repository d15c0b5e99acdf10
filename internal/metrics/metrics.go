package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Métricas do ciclo de verificação. Expostas em /metrics quando
// METRICS_ADDR está configurado.
var (
	// CyclesTotal conta ciclos de verificação completados
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ml_tracker",
		Name:      "cycles_total",
		Help:      "Completed check cycles",
	})

	// CyclesSkipped conta ciclos pulados porque o anterior ainda rodava
	CyclesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ml_tracker",
		Name:      "cycles_skipped_total",
		Help:      "Check cycles skipped because the previous one was still running",
	})

	// ItemsChecked conta itens avaliados (com observação de preço)
	ItemsChecked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ml_tracker",
		Name:      "items_checked_total",
		Help:      "Items evaluated with a competitor price observation",
	})

	// AlertsTotal conta alertas enviados ao operador
	AlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ml_tracker",
		Name:      "alerts_total",
		Help:      "Undercut alerts sent to the operator",
	})

	// APIErrors conta falhas de API que viraram "sem observação"
	APIErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ml_tracker",
		Name:      "api_errors_total",
		Help:      "Marketplace API failures degraded to no-observation",
	})

	// CycleDuration mede a duração de um ciclo completo
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ml_tracker",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of a full check cycle",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
	})
)

// Serve expõe /metrics e /healthz no endereço informado. Bloqueia.
func Serve(addr string) error {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return http.ListenAndServe(addr, router)
}
