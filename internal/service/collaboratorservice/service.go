package collaboratorservice

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
)

// Reloader ressincroniza o snapshot de estoque em memória com o banco.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Service implementa as regras de negócio do cadastro de colaboradores.
type Service struct {
	repo     domain.CollaboratorRepository
	reloader Reloader
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Colaboradores.
func NewService(repo domain.CollaboratorRepository, reloader Reloader, logger logger.Logger) *Service {
	return &Service{repo: repo, reloader: reloader, logger: logger}
}

// resync recarrega o snapshot de estoque após uma mutação do cadastro, para
// que o colaborador alterado apareça nas movimentações sem esperar um restart.
func (s *Service) resync(ctx context.Context) {
	if s.reloader == nil {
		return
	}
	if err := s.reloader.Reload(ctx); err != nil {
		s.logger.Error("Falha ao ressincronizar o snapshot de estoque.", err)
	}
}

// CreateCollaborator cadastra um colaborador após validações de negócio.
// A matrícula (IDFun) é única: cadastro repetido vira erro de conflito.
func (s *Service) CreateCollaborator(ctx domain.Context, collaborator domain.Collaborator) (domain.Collaborator, error) {
	s.logger.Debug("Iniciando criação de colaborador no serviço.", map[string]interface{}{"id_fun": collaborator.IDFun})

	if err := s.validateCollaborator(collaborator); err != nil {
		s.logger.Warn("Falha na validação do colaborador.", map[string]interface{}{"id_fun": collaborator.IDFun, "error": err.Error()})
		return domain.Collaborator{}, err
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para CreateCollaborator", nil)
	}

	existing, err := s.repo.FindByIDFun(ctxGo, collaborator.IDFun)
	if err == nil && existing.IDFun != "" {
		return domain.Collaborator{}, apperror.NewConflictError("Já existe um colaborador com a matrícula " + collaborator.IDFun + ".")
	}
	var notFound *apperror.NotFoundError
	if err != nil && !errors.As(err, &notFound) {
		s.logger.Error("Falha ao verificar matrícula existente.", err)
		return domain.Collaborator{}, apperror.NewInternalError("Falha interna ao criar colaborador.", err)
	}

	if collaborator.ID == "" {
		collaborator.ID = uuid.New().String()
	}
	collaborator.Active = true

	created, err := s.repo.Save(ctxGo, collaborator)
	if err != nil {
		s.logger.Error("Falha ao criar colaborador no repositório.", err)
		return domain.Collaborator{}, apperror.NewInternalError("Falha interna ao criar colaborador.", err)
	}

	s.logger.Info("Colaborador criado com sucesso.", map[string]interface{}{"id": created.ID, "id_fun": created.IDFun})
	s.resync(ctxGo)
	return created, nil
}

// GetCollaboratorByIDFun busca um colaborador pela matrícula.
func (s *Service) GetCollaboratorByIDFun(ctx domain.Context, idFun string) (domain.Collaborator, error) {
	if strings.TrimSpace(idFun) == "" {
		return domain.Collaborator{}, apperror.NewValidationError("A matrícula do colaborador não pode ser vazia.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para GetCollaboratorByIDFun", nil)
	}

	collaborator, err := s.repo.FindByIDFun(ctxGo, idFun)
	if err != nil {
		s.logger.Error("Falha ao buscar colaborador no repositório.", err)
		return domain.Collaborator{}, err // Erros do repositório já são NotFoundError ou DBError
	}
	return collaborator, nil
}

// ListActiveCollaborators lista os colaboradores ativos, já ordenados por nome.
func (s *Service) ListActiveCollaborators(ctx domain.Context) ([]domain.Collaborator, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para ListActiveCollaborators", nil)
	}

	collaborators, err := s.repo.FindAllActive(ctxGo)
	if err != nil {
		s.logger.Error("Falha ao listar colaboradores no repositório.", err)
		return nil, apperror.NewInternalError("Falha interna ao listar colaboradores.", err)
	}
	return collaborators, nil
}

// UpdateCollaborator atualiza os dados cadastrais de um colaborador.
func (s *Service) UpdateCollaborator(ctx domain.Context, collaborator domain.Collaborator) (domain.Collaborator, error) {
	s.logger.Debug("Iniciando atualização de colaborador no serviço.", map[string]interface{}{"id_fun": collaborator.IDFun})

	if err := s.validateCollaborator(collaborator); err != nil {
		s.logger.Warn("Falha na validação do colaborador para atualização.", map[string]interface{}{"id_fun": collaborator.IDFun, "error": err.Error()})
		return domain.Collaborator{}, err
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para UpdateCollaborator", nil)
	}

	if err := s.repo.Update(ctxGo, collaborator); err != nil {
		s.logger.Error("Falha ao atualizar colaborador no repositório.", err)
		return domain.Collaborator{}, err
	}

	s.logger.Info("Colaborador atualizado com sucesso.", map[string]interface{}{"id_fun": collaborator.IDFun})
	s.resync(ctxGo)
	return collaborator, nil
}

// DeactivateCollaborator faz a exclusão lógica pela matrícula. O registro
// permanece no banco para que o histórico de movimentações siga íntegro.
func (s *Service) DeactivateCollaborator(ctx domain.Context, idFun string) error {
	s.logger.Debug("Iniciando desativação de colaborador no serviço.", map[string]interface{}{"id_fun": idFun})

	if strings.TrimSpace(idFun) == "" {
		return apperror.NewValidationError("A matrícula do colaborador não pode ser vazia.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para DeactivateCollaborator", nil)
	}

	if err := s.repo.Deactivate(ctxGo, idFun); err != nil {
		s.logger.Error("Falha ao desativar colaborador no repositório.", err)
		return err
	}

	s.logger.Info("Colaborador desativado com sucesso.", map[string]interface{}{"id_fun": idFun})
	s.resync(ctxGo)
	return nil
}

// validateCollaborator é uma função auxiliar para validar o cadastro.
func (s *Service) validateCollaborator(c domain.Collaborator) error {
	if strings.TrimSpace(c.IDFun) == "" {
		return apperror.NewValidationError("A matrícula do colaborador é obrigatória.")
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidationError("O nome do colaborador não pode ser vazio.")
	}
	if len(c.Name) < 3 || len(c.Name) > 100 {
		return apperror.NewValidationError("O nome do colaborador deve ter entre 3 e 100 caracteres.")
	}
	return nil
}
