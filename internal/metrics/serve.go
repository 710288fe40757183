package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Serve exposes /metrics on addr in a background goroutine. The listener
// lives for the rest of the process; runs are short and the process exits
// after printing results, so there is no shutdown path.
func Serve(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Middleware(promhttp.Handler(), "/metrics"))

	go func() {
		log.Info("serving metrics", zap.String("address", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics listener stopped", zap.Error(err))
		}
	}()
}
