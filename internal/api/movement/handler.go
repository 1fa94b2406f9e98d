package movement

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
	"almox/internal/pkg/middleware"
	"almox/internal/service/possessionservice"
	"almox/internal/service/reportservice"
	"almox/internal/service/stockservice"
)

// StockService define o contrato que o Handler espera do serviço de estoque.
type StockService interface {
	RegisterTransaction(ctx context.Context, intent stockservice.TransactionIntent) (domain.Transaction, error)
	History() []domain.Transaction
	Products() []domain.Product
	PendingCount() int
}

// Handler agrupa os métodos de Handler das movimentações.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
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

// registerRequest é o payload de registro de movimentação.
type registerRequest struct {
	ProductID   string               `json:"product_id"`
	Type        string               `json:"type"`
	Quantity    int                  `json:"quantity"`
	Timestamp   int64                `json:"timestamp,omitempty"`
	Notes       string               `json:"notes,omitempty"`
	AttendantID string               `json:"attendant_id,omitempty"`
	UnitPrice   float64              `json:"unit_price,omitempty"`
	Entry       *domain.EntryContext `json:"entry,omitempty"`
	Exit        *domain.ExitContext  `json:"exit,omitempty"`
}

// MovementsHandler lida com POST /v1/movements (registro) e GET /v1/movements
// (histórico filtrado, mais recente primeiro).
func (h *Handler) MovementsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.register(w, r)
	case http.MethodGet:
		filtered := h.filteredHistory(r)
		h.handleServiceResponse(w, r, filtered, nil, http.StatusOK)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	// O usuário autenticado carimba a movimentação.
	userName := "Sistema"
	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		userName = claims.Nome
	}

	intent := stockservice.TransactionIntent{
		ProductID:   req.ProductID,
		Type:        domain.TransactionType(req.Type),
		Quantity:    req.Quantity,
		Timestamp:   req.Timestamp,
		UserName:    userName,
		Entry:       req.Entry,
		Exit:        req.Exit,
		Notes:       req.Notes,
		AttendantID: req.AttendantID,
		UnitPrice:   req.UnitPrice,
	}

	tx, err := h.Service.RegisterTransaction(ctx, intent)
	h.handleServiceResponse(w, r, tx, err, http.StatusCreated)
}

// filteredHistory aplica os filtros da query string sobre o snapshot em memória.
func (h *Handler) filteredHistory(r *http.Request) []domain.Transaction {
	q := r.URL.Query()
	filter := reportservice.Filter{
		CollaboratorID: q.Get("collaborator_id"),
		Type:           domain.TransactionType(q.Get("type")),
		Category:       q.Get("category"),
	}
	if raw := q.Get("days"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.PeriodDays = v
		}
	}
	return reportservice.FilterHistory(h.Service.History(), h.Service.Products(), filter, time.Now())
}

// ExportHandler lida com GET /v1/movements/export e devolve o histórico
// filtrado como CSV.
func (h *Handler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	filtered := h.filteredHistory(r)
	csv := reportservice.ExportCSV(filtered, h.Service.Products())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=relatorio_almoxarifado.csv")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(csv))
}

// PossessionHandler lida com GET /v1/movements/possession?collaborator_id=X
// e devolve a posse corrente derivada do histórico.
func (h *Handler) PossessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	collaboratorID := r.URL.Query().Get("collaborator_id")
	if collaboratorID == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro collaborator_id é obrigatório."), http.StatusOK)
		return
	}

	items := possessionservice.CollaboratorPossession(h.Service.History(), collaboratorID, h.Service.Products())
	h.handleServiceResponse(w, r, items, nil, http.StatusOK)
}

// OverdueHandler lida com GET /v1/movements/overdue e lista itens retirados
// há mais de 30 dias sem devolução.
func (h *Handler) OverdueHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	items := possessionservice.OverdueItems(h.Service.History(), time.Now())
	h.handleServiceResponse(w, r, items, nil, http.StatusOK)
}

// StatusHandler lida com GET /v1/movements/status e informa quantas
// movimentações ainda aguardam confirmação durável.
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	h.handleServiceResponse(w, r, map[string]int{"pending": h.Service.PendingCount()}, nil, http.StatusOK)
}
