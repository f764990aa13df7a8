package router

import (
	"net/http"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/admin"
	"github.com/antonminaichev/warehouse-orders/internal/logger"
	"github.com/antonminaichev/warehouse-orders/internal/middleware"
	"github.com/antonminaichev/warehouse-orders/internal/order"
	"github.com/antonminaichev/warehouse-orders/internal/util/respond"
	"github.com/antonminaichev/warehouse-orders/internal/worker"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type Handlers struct {
	Admin    *admin.Handler
	Orders   *order.Handler
	Pickers  *worker.Handler
	Checkers *worker.Handler
}

func NewRouter(h Handlers, verifier middleware.CredentialVerifier, corsOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.WithLogging)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Content-Encoding", "Accept-Encoding"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
	}).Handler)

	r.Use(middleware.GzipHandler)

	adminOnly := middleware.AdminOnly(verifier)

	r.Get("/api/health", health(time.Now()))
	r.Post("/api/auth/login", h.Admin.Login)

	r.Route("/api/orders", func(r chi.Router) {
		h.Orders.WorkerRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			h.Orders.AdminRoutes(r)
		})
	})

	directory := func(wh *worker.Handler, board http.HandlerFunc) func(chi.Router) {
		return func(r chi.Router) {
			r.Get("/", wh.List)
			r.Get("/{id}/orders", board)
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", wh.Create)
				r.Delete("/{id}", wh.Delete)
			})
		}
	}
	r.Route("/api/pickers", directory(h.Pickers, h.Orders.PickerOrders))
	r.Route("/api/checkers", directory(h.Checkers, h.Orders.CheckerOrders))

	return r
}

type healthResp struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

func health(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, healthResp{
			Status:    "OK",
			Timestamp: time.Now().UTC(),
			Uptime:    time.Since(started).Seconds(),
		})
	}
}
