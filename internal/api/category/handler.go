package category

import (
	"encoding/json"
	"fmt"
	"net/http"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
)

// CategoryService define o contrato que o Handler espera da camada de Serviço.
type CategoryService interface {
	ListCategories(ctx domain.Context) ([]string, error)
	AddCategory(ctx domain.Context, name string) error
	RenameCategory(ctx domain.Context, oldName, newName string) error
	DeleteCategory(ctx domain.Context, name string) error
}

// Handler agrupa os métodos de Handler de categorias.
type Handler struct {
	Service CategoryService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CategoryService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			json.NewEncoder(w).Encode(data)
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

type categoryRequest struct {
	Name    string `json:"name"`
	NewName string `json:"new_name,omitempty"`
}

// CategoriesHandler lida com GET (listagem), POST (criação), PUT (renomeação
// com propagação do rótulo) e DELETE em /v1/categories.
func (h *Handler) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == http.MethodGet {
		categories, err := h.Service.ListCategories(ctx)
		h.handleServiceResponse(w, r, categories, err, http.StatusOK)
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodPost:
		err := h.Service.AddCategory(ctx, req.Name)
		h.handleServiceResponse(w, r, map[string]string{"name": req.Name}, err, http.StatusCreated)

	case http.MethodPut:
		err := h.Service.RenameCategory(ctx, req.Name, req.NewName)
		h.handleServiceResponse(w, r, map[string]string{"name": req.NewName}, err, http.StatusOK)

	case http.MethodDelete:
		err := h.Service.DeleteCategory(ctx, req.Name)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
