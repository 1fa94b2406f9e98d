package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
	"almox/internal/service/aiservice"
)

// AIService define o contrato da análise assistida de inventário.
type AIService interface {
	Enabled() bool
	AnalyzeInventory(ctx context.Context, products []domain.Product) (*aiservice.InventoryAnalysis, error)
	SuggestCategory(ctx context.Context, productName string, categories []string) (string, error)
}

// SnapshotService expõe o catálogo corrente analisado.
type SnapshotService interface {
	Products() []domain.Product
}

// CategoryService lista as categorias válidas para a sugestão.
type CategoryService interface {
	ListCategories(ctx domain.Context) ([]string, error)
}

// Handler agrupa os métodos de Handler da análise assistida. Todo o módulo
// é consultivo: sem chave de API configurada os endpoints degradam sem erro
// fatal.
type Handler struct {
	Service    AIService
	Snapshot   SnapshotService
	Categories CategoryService
	Logger     logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando as dependências.
func NewHandler(svc AIService, snapshot SnapshotService, categories CategoryService, log logger.Logger) *Handler {
	return &Handler{
		Service:    svc,
		Snapshot:   snapshot,
		Categories: categories,
		Logger:     log,
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

// AnalysisHandler lida com POST /v1/ai/analysis e devolve o resumo do
// inventário gerado pelo modelo.
func (h *Handler) AnalysisHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	if !h.Service.Enabled() {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Análise assistida indisponível. Nenhuma chave de API configurada."), http.StatusOK)
		return
	}

	analysis, err := h.Service.AnalyzeInventory(r.Context(), h.Snapshot.Products())
	h.handleServiceResponse(w, r, analysis, err, http.StatusOK)
}

type suggestRequest struct {
	ProductName string `json:"product_name"`
}

// SuggestCategoryHandler lida com POST /v1/ai/category-suggestion. Sem
// modelo disponível a resposta recua para "Outros".
func (h *Handler) SuggestCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductName == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O campo product_name é obrigatório."), http.StatusOK)
		return
	}

	categories, err := h.Categories.ListCategories(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	suggestion, err := h.Service.SuggestCategory(ctx, req.ProductName, categories)
	h.handleServiceResponse(w, r, map[string]string{"category": suggestion}, err, http.StatusOK)
}
