package collaborator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
)

// CollaboratorService define o contrato que o Handler espera da camada de Serviço.
type CollaboratorService interface {
	CreateCollaborator(ctx domain.Context, c domain.Collaborator) (domain.Collaborator, error)
	GetCollaboratorByIDFun(ctx domain.Context, idFun string) (domain.Collaborator, error)
	ListActiveCollaborators(ctx domain.Context) ([]domain.Collaborator, error)
	UpdateCollaborator(ctx domain.Context, c domain.Collaborator) (domain.Collaborator, error)
	DeactivateCollaborator(ctx domain.Context, idFun string) error
}

// Handler agrupa os métodos de Handler de colaboradores.
type Handler struct {
	Service CollaboratorService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CollaboratorService, log logger.Logger) *Handler {
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

// CollaboratorsHandler lida com POST /v1/collaborators (criação) e
// GET /v1/collaborators (listagem dos ativos).
func (h *Handler) CollaboratorsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodPost:
		var collaborator domain.Collaborator
		if err := json.NewDecoder(r.Body).Decode(&collaborator); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
			return
		}
		created, err := h.Service.CreateCollaborator(ctx, collaborator)
		h.handleServiceResponse(w, r, created, err, http.StatusCreated)

	case http.MethodGet:
		collaborators, err := h.Service.ListActiveCollaborators(ctx)
		h.handleServiceResponse(w, r, collaborators, err, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// CollaboratorByIDFunHandler lida com GET, PUT e DELETE em
// /v1/collaborators/{idFun}. DELETE é exclusão lógica.
func (h *Handler) CollaboratorByIDFunHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou matrícula ausente."), http.StatusOK)
		return
	}
	idFun := segments[2]

	switch r.Method {
	case http.MethodGet:
		collaborator, err := h.Service.GetCollaboratorByIDFun(ctx, idFun)
		h.handleServiceResponse(w, r, collaborator, err, http.StatusOK)

	case http.MethodPut:
		var collaborator domain.Collaborator
		if err := json.NewDecoder(r.Body).Decode(&collaborator); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
			return
		}
		collaborator.IDFun = idFun
		updated, err := h.Service.UpdateCollaborator(ctx, collaborator)
		h.handleServiceResponse(w, r, updated, err, http.StatusOK)

	case http.MethodDelete:
		err := h.Service.DeactivateCollaborator(ctx, idFun)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
