package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/miniapp-backend/internal/usecase"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 30 * time.Second

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// AppDeps — use case'ы сервиса мини-приложения.
type AppDeps struct {
	Store          usecase.ConfigStoreUC
	Editor         usecase.CatalogEditorUC
	Admin          usecase.AdminUC
	Cart           usecase.CartUC
	IdentityHeader string
}

func (r *Router) useCommon() {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(middleware.Recoverer)
	r.router.Use(middleware.Timeout(requestTimeout))
}

// Init регистрирует маршруты сервиса мини-приложения.
func (r *Router) Init(deps AppDeps) {
	r.useCommon()
	r.router.Get("/healthz", healthz)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(identityMiddleware(deps.IdentityHeader))

		registerCatalogRoutes(v1, NewCatalogHandler(deps.Store, r.logger))
		registerCartRoutes(v1, NewCartHandler(deps.Cart, r.logger))

		v1.Group(func(admin chi.Router) {
			admin.Use(adminOnly(deps.Admin, r.logger))
			registerAdminRoutes(admin, NewAdminHandler(deps.Store, deps.Editor, deps.Admin, r.logger))
		})
	})
}

// InitEndpoint регистрирует маршруты точки сохранения конфигурации.
func (r *Router) InitEndpoint(endpointUC usecase.ConfigEndpointUC) {
	r.useCommon()
	r.router.Get("/healthz", healthz)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		h := NewConfigHandler(endpointUC, r.logger)
		v1.Get("/config", h.getConfig)
		v1.Post("/config", h.saveConfig)
	})
}

func registerCatalogRoutes(router chi.Router, h *CatalogHandler) {
	router.Get("/catalog", h.getCatalog)
	router.Route("/products/{productID}", func(pr chi.Router) {
		pr.Get("/", h.getProduct)
		pr.Get("/price", h.getPrice)
	})
}

func registerCartRoutes(router chi.Router, h *CartHandler) {
	router.Route("/cart", func(cr chi.Router) {
		cr.Get("/", h.getCart)
		cr.Delete("/", h.clearCart)
		cr.Post("/items", h.addItem)
		cr.Put("/items/{productID}", h.setQuantity)
		cr.Delete("/items/{productID}", h.removeItem)
		cr.Put("/mode", h.setMode)
		cr.Put("/detail", h.setDetail)
		cr.Post("/cancel", h.cancelCheckout)
	})
	router.Post("/orders", h.submitOrder)
}

func registerAdminRoutes(router chi.Router, h *AdminHandler) {
	router.Route("/admin", func(ar chi.Router) {
		ar.Get("/config", h.exportConfig)
		ar.Put("/config", h.importConfig)
		ar.Post("/save", h.save)
		ar.Post("/reload", h.reload)

		ar.Post("/products", h.createProduct)
		ar.Put("/products/{productID}", h.updateProduct)
		ar.Delete("/products/{productID}", h.deleteProduct)

		ar.Post("/categories", h.createCategory)
		ar.Put("/categories/{categoryID}", h.updateCategory)
		ar.Delete("/categories/{categoryID}", h.deleteCategory)

		ar.Get("/settings", h.getSettings)
		ar.Put("/settings", h.updateSettings)
		ar.Post("/admins", h.addAdmin)
		ar.Delete("/admins/{identity}", h.removeAdmin)
	})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
