package http

import (
	"context"
	"net/http"
	"time"

	_ "github.com/DRSN-tech/inventory-service/docs" // Регистрация swagger-спецификации
	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Pinger проверяет доступность хранилища для /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Deps — usecase-зависимости HTTP API.
type Deps struct {
	ProductUC   usecase.ProductUC
	ImportUC    usecase.ImportUC
	AuthUC      usecase.AuthUC
	Store       Pinger
	MaxFileSize int64
	CORSOrigins []string
}

func (r *Router) Init(deps Deps) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(AccessLog(r.logger))
	r.router.Use(middleware.Recoverer)
	r.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.router.Get("/healthz", healthHandler(deps.Store))

	r.router.Route("/api", func(api chi.Router) {
		registerAuthRoutes(api, NewAuthHandler(deps.AuthUC, r.logger))

		api.Group(func(protected chi.Router) {
			protected.Use(AuthMiddleware(deps.AuthUC, r.logger))
			registerProductRoutes(protected,
				NewProductHandler(deps.ProductUC, r.logger),
				NewImportHandler(deps.ImportUC, r.logger, deps.MaxFileSize),
			)
		})
	})
}

func registerAuthRoutes(router chi.Router, h *AuthHandler) {
	router.Route("/auth", func(auth chi.Router) {
		auth.Post("/register", h.register)
		auth.Post("/login", h.login)
	})
}

// registerProductRoutes — статические пути (/search, /export, /import) объявлены до /{id}.
func registerProductRoutes(router chi.Router, prHandler *ProductHandler, impHandler *ImportHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.createProduct)
		pr.Get("/search", prHandler.searchProducts)
		pr.Get("/export", impHandler.exportProducts)
		pr.Post("/import", impHandler.importProducts)
		pr.Get("/{id}/history", prHandler.getProductHistory)
		pr.Get("/{id}", prHandler.getProduct)
		pr.Put("/{id}", prHandler.updateProduct)
		pr.Delete("/{id}", prHandler.deleteProduct)
	})
}

// healthHandler отвечает 200, если хранилище доступно, иначе 503.
func healthHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			WriteSuccess(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}

		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
