package api

import (
	"pricecore/internal/api/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *handler.Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	router.Handle("/metrics", promhttp.Handler())

	router.Get("/api/v1/rates/{base:[A-Za-z]{3}}/{target:[A-Za-z]{3}}", h.GetRate)
	router.Post("/api/v1/rates/{base:[A-Za-z]{3}}/refresh", h.RefreshRate)
	router.Get("/api/v1/prices/{id}", h.GetPrice)
	router.Post("/api/v1/audit/scan", h.ScanPrices)
	router.Post("/api/v1/audit/repair", h.RepairPrices)
	return router
}
