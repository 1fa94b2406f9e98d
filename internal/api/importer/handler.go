package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
	"almox/internal/service/importservice"
)

// StockService expõe o snapshot e a aplicação atômica do lote importado.
type StockService interface {
	Products() []domain.Product
	Collaborators() []domain.Collaborator
	ApplyImportBatch(ctx context.Context, newProducts []domain.Product,
		newCollaborators []domain.Collaborator, newTransactions []domain.Transaction,
		stockDeltas map[string]int) error
}

// CodeRepository devolve os códigos externos já gravados, para a checagem
// de duplicidade da importação.
type CodeRepository interface {
	ExistingImportCodes(ctx domain.Context) (map[string]struct{}, error)
}

// Handler agrupa os métodos de Handler da importação em lote. O fluxo é
// sem estado no servidor: o mesmo arquivo é enviado no preview e no process.
type Handler struct {
	Service StockService
	Codes   CodeRepository
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando as dependências.
func NewHandler(svc StockService, codes CodeRepository, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Codes:   codes,
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

// previewResponse resume o arquivo validado antes do processamento.
type previewResponse struct {
	Step         importservice.Step `json:"step"`
	RowCount     int                `json:"row_count"`
	Headers      []string           `json:"headers"`
	Preview      [][]string         `json:"preview"`
	HasConflicts bool               `json:"has_conflicts"`
}

// PreviewHandler lida com POST /v1/import/preview. O corpo é o arquivo
// delimitado cru; a resposta traz as primeiras linhas e o aviso de conflito.
func (h *Handler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	session, err := importservice.NewSession(r.Body)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	existingCodes, err := h.Codes.ExistingImportCodes(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	resp := previewResponse{
		Step:         session.Step(),
		RowCount:     session.RowCount(),
		Headers:      session.Headers(),
		Preview:      session.Preview(5),
		HasConflicts: session.HasConflicts(existingCodes),
	}

	h.handleServiceResponse(w, r, resp, nil, http.StatusOK)
}

// ProcessHandler lida com POST /v1/import/process?policy=skip|overwrite.
// Processa o arquivo linha a linha e aplica o lote resultante de uma vez.
func (h *Handler) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	policy := importservice.DuplicatePolicy(r.URL.Query().Get("policy"))
	if policy == "" {
		policy = importservice.PolicySkipDuplicates
	}
	if policy != importservice.PolicySkipDuplicates && policy != importservice.PolicyImportAnyway {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Política de duplicados inválida. Use skip ou overwrite."), http.StatusOK)
		return
	}

	session, err := importservice.NewSession(r.Body)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	existingCodes, err := h.Codes.ExistingImportCodes(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	result, err := session.Process(ctx, policy, h.Service.Products(), h.Service.Collaborators(), existingCodes, time.Now())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	if err := h.Service.ApplyImportBatch(ctx, result.NewProducts, result.NewCollaborators,
		result.NewTransactions, result.StockAdjustments); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.Logger.Info("Importação em lote concluída.", map[string]interface{}{
		"success": result.Stats.SuccessCount,
		"errors":  result.Stats.ErrorCount,
	})
	h.handleServiceResponse(w, r, result, nil, http.StatusOK)
}

// TemplateHandler lida com GET /v1/import/template e devolve o modelo CSV.
func (h *Handler) TemplateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=modelo_importacao.csv")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(importservice.Template()))
}
