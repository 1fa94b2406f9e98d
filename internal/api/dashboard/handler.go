package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
	"almox/internal/service/analyticsservice"
	"almox/internal/service/forecastservice"
)

// SnapshotService expõe o estado em memória consumido pelo painel.
type SnapshotService interface {
	Products() []domain.Product
	History() []domain.Transaction
}

// Handler agrupa os métodos de Handler do painel: alertas de reposição,
// vencimentos próximos e o comparativo entre períodos.
type Handler struct {
	Service SnapshotService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc SnapshotService, log logger.Logger) *Handler {
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

// AlertsHandler lida com GET /v1/dashboard/alerts e devolve as previsões de
// esgotamento com 15 dias ou menos de cobertura.
func (h *Handler) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	alerts := forecastservice.ReorderAlerts(h.Service.Products(), h.Service.History(), time.Now())
	h.handleServiceResponse(w, r, alerts, nil, http.StatusOK)
}

// ExpirationsHandler lida com GET /v1/dashboard/expirations e lista validade
// e manutenção vencendo nos próximos 30 dias.
func (h *Handler) ExpirationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	alerts := forecastservice.UpcomingExpirations(h.Service.Products(), time.Now())
	h.handleServiceResponse(w, r, alerts, nil, http.StatusOK)
}

// AnalyticsHandler lida com GET /v1/dashboard/analytics. O período vem da
// query string: period (preset) ou month_a/month_b para o comparativo custom.
func (h *Handler) AnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := analyticsservice.Filter{
		Period:    analyticsservice.Period(q.Get("period")),
		MonthA:    q.Get("month_a"),
		MonthB:    q.Get("month_b"),
		Category:  q.Get("category"),
		ProductID: q.Get("product_id"),
	}
	if filter.Period == "" {
		filter.Period = analyticsservice.PeriodLastMonth
	}

	comparison, err := analyticsservice.Compare(h.Service.History(), h.Service.Products(), filter, time.Now())
	h.handleServiceResponse(w, r, comparison, err, http.StatusOK)
}
