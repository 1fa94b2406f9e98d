package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"almox/internal/api/ai"
	"almox/internal/api/category"
	"almox/internal/api/collaborator"
	"almox/internal/api/dashboard"
	"almox/internal/api/importer"
	"almox/internal/api/movement"
	"almox/internal/api/product"
	"almox/internal/api/user"
	"almox/internal/domain"
	"almox/internal/pkg/cache"
	"almox/internal/pkg/middleware"
)

// Handlers reúne os Handlers já inicializados por injeção de dependências.
type Handlers struct {
	Product      *product.Handler
	Movement     *movement.Handler
	Collaborator *collaborator.Handler
	Category     *category.Handler
	Dashboard    *dashboard.Handler
	Importer     *importer.Handler
	User         *user.Handler
	AI           *ai.Handler
}

// NewRouter configura e retorna o roteador HTTP principal.
// Usamos o ServeMux padrão do net/http; os middlewares de autenticação e
// permissão envolvem cada rota, e o rate limiter envolve o mux inteiro.
func NewRouter(h Handlers, tokenSvc middleware.TokenService, cacheClient cache.Client,
	rateLimit int, ratePeriod time.Duration) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(tokenSvc)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)
	anyRole := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleOperador)

	// --- 1. Rotas públicas ---
	mux.HandleFunc("/ping", PingHandler)
	mux.HandleFunc("/v1/users/login", h.User.LoginHandler)
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// --- 2. Rotas autenticadas (admin e operador) ---
	mux.HandleFunc("/v1/products", auth(anyRole(h.Product.ProductsHandler)))
	mux.HandleFunc("/v1/products/", auth(anyRole(h.Product.ProductByIDHandler)))

	mux.HandleFunc("/v1/movements", auth(anyRole(h.Movement.MovementsHandler)))
	mux.HandleFunc("/v1/movements/export", auth(anyRole(h.Movement.ExportHandler)))
	mux.HandleFunc("/v1/movements/possession", auth(anyRole(h.Movement.PossessionHandler)))
	mux.HandleFunc("/v1/movements/overdue", auth(anyRole(h.Movement.OverdueHandler)))
	mux.HandleFunc("/v1/movements/status", auth(anyRole(h.Movement.StatusHandler)))

	mux.HandleFunc("/v1/collaborators", auth(anyRole(h.Collaborator.CollaboratorsHandler)))
	mux.HandleFunc("/v1/collaborators/", auth(anyRole(h.Collaborator.CollaboratorByIDFunHandler)))

	mux.HandleFunc("/v1/dashboard/alerts", auth(anyRole(h.Dashboard.AlertsHandler)))
	mux.HandleFunc("/v1/dashboard/expirations", auth(anyRole(h.Dashboard.ExpirationsHandler)))
	mux.HandleFunc("/v1/dashboard/analytics", auth(anyRole(h.Dashboard.AnalyticsHandler)))

	mux.HandleFunc("/v1/ai/analysis", auth(anyRole(h.AI.AnalysisHandler)))
	mux.HandleFunc("/v1/ai/category-suggestion", auth(anyRole(h.AI.SuggestCategoryHandler)))

	mux.HandleFunc("/v1/import/template", auth(anyRole(h.Importer.TemplateHandler)))

	// --- 3. Rotas restritas ao administrador ---
	mux.HandleFunc("/v1/users/register", auth(adminOnly(h.User.RegisterHandler)))
	mux.HandleFunc("/v1/categories", auth(adminOnly(h.Category.CategoriesHandler)))
	mux.HandleFunc("/v1/import/preview", auth(adminOnly(h.Importer.PreviewHandler)))
	mux.HandleFunc("/v1/import/process", auth(adminOnly(h.Importer.ProcessHandler)))

	// --- 4. Middlewares globais ---
	return middleware.RateLimiter(cacheClient, rateLimit, ratePeriod)(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
