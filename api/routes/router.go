package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockroomhq/stockroom-backend/api/controllers"
	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	"github.com/stockroomhq/stockroom-backend/internal/orders"
	"github.com/stockroomhq/stockroom-backend/internal/reservation"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

func baseRouter(logg *logger.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	return r
}

// NewInventoryRouter wires the inventory service surface: SKU management,
// the reservation RPC endpoint, and availability reads.
func NewInventoryRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	inventoryService inventory.Service,
	reservationService reservation.Service,
) http.Handler {
	r := baseRouter(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/inventory", func(r chi.Router) {
			r.Post("/", controllers.CreateInventoryItem(inventoryService, logg))
			r.Get("/", controllers.ListInventoryItems(inventoryService, logg))
			r.Get("/{skuCode}", controllers.GetInventoryItem(inventoryService, logg))
			r.Put("/{skuCode}/on-hand", controllers.SetInventoryOnHand(inventoryService, logg))
		})
		r.Post("/reservations", controllers.ReserveOrder(reservationService, logg))
		r.Get("/availability", controllers.Availability(reservationService, logg))
	})

	return r
}

// NewOrdersRouter wires the order service surface: placement, reads, and
// lifecycle transitions.
func NewOrdersRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	ordersService orders.Service,
) http.Handler {
	r := baseRouter(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	r.Route("/v1/orders", func(r chi.Router) {
		r.Post("/", controllers.PlaceOrder(ordersService, logg))
		r.Get("/", controllers.ListOrders(ordersService, logg))
		r.Get("/{orderNumber}", controllers.GetOrder(ordersService, logg))
		r.Patch("/{orderNumber}/status", controllers.UpdateOrderStatus(ordersService, logg))
	})

	return r
}
