package product

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
	"almox/internal/pkg/middleware"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
// Usamos a assinatura com o tipo abstrato domain.Context para manter a pureza do domínio.
type ProductService interface {
	CreateProduct(ctx domain.Context, p domain.Product) (domain.Product, error)
	GetProductByID(ctx domain.Context, id string) (domain.Product, error)
	ListProducts(ctx domain.Context) ([]domain.Product, error)
	FilterProducts(ctx domain.Context, filter domain.ProductFilter) ([]domain.Product, error)
	UpdateProduct(ctx domain.Context, p domain.Product) (domain.Product, error)
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// ProductsHandler lida com POST /v1/products (criação) e GET /v1/products (listagem).
func (h *Handler) ProductsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createProduct(w, r)
	case http.MethodGet:
		h.listProducts(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		h.Logger.Info("Criação de produto solicitada.", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})
	}

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	newProduct, err := h.Service.CreateProduct(ctx, product)
	h.handleServiceResponse(w, r, newProduct, err, http.StatusCreated)
}

// listProducts aceita os filtros avançados via query string. Sem nenhum
// parâmetro a listagem completa (cacheada) é devolvida.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if len(q) == 0 {
		products, err := h.Service.ListProducts(ctx)
		h.handleServiceResponse(w, r, products, err, http.StatusOK)
		return
	}

	filter := domain.ProductFilter{
		NameContains:     q.Get("name"),
		SKUContains:      q.Get("sku"),
		Category:         q.Get("category"),
		LocationContains: q.Get("location"),
		OnlyLowStock:     q.Get("low_stock") == "true",
	}
	if raw := q.Get("min_quantity"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.MinQuantity = &v
		}
	}
	if raw := q.Get("max_quantity"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.MaxQuantity = &v
		}
	}

	products, err := h.Service.FilterProducts(ctx, filter)
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}

// ProductByIDHandler lida com GET e PUT em /v1/products/{id}.
func (h *Handler) ProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	productID := segments[2]

	switch r.Method {
	case http.MethodGet:
		product, err := h.Service.GetProductByID(ctx, productID)
		h.handleServiceResponse(w, r, product, err, http.StatusOK)

	case http.MethodPut:
		var product domain.Product
		if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
			return
		}
		product.ID = productID
		updated, err := h.Service.UpdateProduct(ctx, product)
		h.handleServiceResponse(w, r, updated, err, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
