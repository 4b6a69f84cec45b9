// internal/wire/wire.go
package wire

import (
	"net/http"

	"krib-booking/internal/adaptor"
	"krib-booking/internal/data/repository"
	"krib-booking/internal/usecase"
	"krib-booking/pkg/middleware"
	"krib-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the wired router and the services background jobs need
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services and handlers and mounts every route
func Wiring(
	repo *repository.Repository,
	config *utils.Config,
	infra usecase.Infra,
	limiter middleware.Limiter,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, config, infra, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, config, limiter, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	limiter middleware.Limiter,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireExternal(r, handler, repo, config, limiter, logger)
	wireHost(r, handler, repo, config, logger)
	wirePayment(r, handler.PaymentEvent)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
