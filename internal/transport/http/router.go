package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rescuelink/account-service/internal/cache"
	"github.com/rescuelink/account-service/internal/service"
	"github.com/rescuelink/account-service/internal/token"
	"github.com/rescuelink/account-service/internal/transport/http/handlers"
	"github.com/rescuelink/account-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, codec *token.Codec, blacklist cache.Cache, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc)

	// Публичные маршруты.
	root.Post("/account", h.CreateAccount)
	root.Post("/account/login", h.Login)
	root.Post("/account/verify-email/confirm", h.ConfirmEmailVerification)
	root.Post("/account/reset-password/request", h.RequestPasswordReset)
	root.Post("/account/reset-password/confirm", h.ResetPassword)

	// Маршруты за bearer-авторизацией.
	root.Group(func(r chi.Router) {
		r.Use(middleware.Auth(codec, blacklist))

		r.Get("/account", h.GetAccount)
		r.Put("/account", h.UpdateAccount)
		r.Post("/account/logout", h.Logout)
		r.Post("/account/change-password", h.ChangePassword)
		r.Post("/account/verify-email/request", h.RequestEmailVerification)
	})

	// Служебные эндпойнты.
	root.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Handle("/metrics", promhttp.Handler())

	return root
}
