package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func Router(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/webhook", h.Verify)
	r.Post("/webhook", h.Webhook)

	r.Get("/health", h.Health)

	r.Get("/force_reminder", h.ForceReminder)
	r.Post("/force_reminder", h.ForceReminder)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("whatsapp-auto-reply"))
	})

	return r
}
