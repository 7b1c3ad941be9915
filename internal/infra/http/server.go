package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	srv *http.Server
}

// Deps хранилища и сервисы, которые обслуживает API.
type Deps struct {
	Purchases  PurchaseStore
	Targets    TargetStore
	Planner    Planner
	Log        *slog.Logger
	CORSOrigin string
}

func New(addr string, exposeMetrics bool, d Deps) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewHandler(exposeMetrics, d),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// NewHandler собирает маршруты и middleware; отдельно от Server, для тестов.
func NewHandler(exposeMetrics bool, d Deps) http.Handler {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.CORSOrigin == "" {
		d.CORSOrigin = "*"
	}
	a := &api{Deps: d}
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if exposeMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	mux.HandleFunc("POST /purchases", a.createPurchase)
	mux.HandleFunc("GET /purchases", a.listPurchases)
	mux.HandleFunc("POST /purchases/upload", a.uploadPurchases)
	mux.HandleFunc("PUT /purchases/{id}", a.updatePurchase)
	mux.HandleFunc("DELETE /purchases/{id}", a.deletePurchase)

	mux.HandleFunc("POST /sales-targets", a.createTarget)
	mux.HandleFunc("GET /sales-targets", a.listTargets)
	mux.HandleFunc("PUT /sales-targets/{id}", a.updateTarget)
	mux.HandleFunc("DELETE /sales-targets/{id}", a.deleteTarget)

	mux.HandleFunc("GET /inventory/summary", a.inventorySummary)

	mux.HandleFunc("GET /optimize", a.optimize)
	mux.HandleFunc("GET /optimize/export", a.optimizeExport)

	return withRequestLog(d.Log, withCORS(d.CORSOrigin, mux))
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
