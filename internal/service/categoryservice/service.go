package categoryservice

import (
	"context"
	"strings"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
)

// Reloader ressincroniza o snapshot de estoque em memória com o banco.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Service implementa as regras de negócio das categorias de produto.
type Service struct {
	repo     domain.CategoryRepository
	reloader Reloader
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Categorias.
func NewService(repo domain.CategoryRepository, reloader Reloader, logger logger.Logger) *Service {
	return &Service{repo: repo, reloader: reloader, logger: logger}
}

// resync recarrega o snapshot de estoque após uma mutação, já que o rename
// propaga rótulo para os produtos e o snapshot os mantém em memória.
func (s *Service) resync(ctx context.Context) {
	if s.reloader == nil {
		return
	}
	if err := s.reloader.Reload(ctx); err != nil {
		s.logger.Error("Falha ao ressincronizar o snapshot de estoque.", err)
	}
}

// ListCategories lista todas as categorias cadastradas.
func (s *Service) ListCategories(ctx domain.Context) ([]string, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para ListCategories", nil)
	}

	categories, err := s.repo.FindAll(ctxGo)
	if err != nil {
		s.logger.Error("Falha ao listar categorias no repositório.", err)
		return nil, apperror.NewInternalError("Falha interna ao listar categorias.", err)
	}
	return categories, nil
}

// AddCategory cadastra uma categoria nova. Nome repetido vira conflito.
func (s *Service) AddCategory(ctx domain.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para AddCategory", nil)
	}

	existing, err := s.repo.FindAll(ctxGo)
	if err != nil {
		s.logger.Error("Falha ao verificar categorias existentes.", err)
		return apperror.NewInternalError("Falha interna ao criar categoria.", err)
	}
	for _, c := range existing {
		if strings.EqualFold(c, name) {
			return apperror.NewConflictError("A categoria " + name + " já existe.")
		}
	}

	if err := s.repo.Add(ctxGo, name); err != nil {
		s.logger.Error("Falha ao criar categoria no repositório.", err)
		return apperror.NewInternalError("Falha interna ao criar categoria.", err)
	}

	s.logger.Info("Categoria criada com sucesso.", map[string]interface{}{"name": name})
	s.resync(ctxGo)
	return nil
}

// RenameCategory renomeia uma categoria. O rótulo é propagado para os
// produtos que a usam; o histórico de movimentações não é tocado.
func (s *Service) RenameCategory(ctx domain.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if err := validateName(newName); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para RenameCategory", nil)
	}

	if err := s.repo.Rename(ctxGo, oldName, newName); err != nil {
		s.logger.Error("Falha ao renomear categoria no repositório.", err)
		return err
	}

	s.logger.Info("Categoria renomeada com sucesso.", map[string]interface{}{"old": oldName, "new": newName})
	s.resync(ctxGo)
	return nil
}

// DeleteCategory remove uma categoria. Produtos que a usavam permanecem com o
// rótulo antigo até serem editados.
func (s *Service) DeleteCategory(ctx domain.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.NewValidationError("O nome da categoria não pode ser vazio.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para DeleteCategory", nil)
	}

	if err := s.repo.Delete(ctxGo, name); err != nil {
		s.logger.Error("Falha ao deletar categoria no repositório.", err)
		return err
	}

	s.logger.Info("Categoria deletada com sucesso.", map[string]interface{}{"name": name})
	s.resync(ctxGo)
	return nil
}

func validateName(name string) error {
	if name == "" {
		return apperror.NewValidationError("O nome da categoria não pode ser vazio.")
	}
	if len(name) > 60 {
		return apperror.NewValidationError("O nome da categoria deve ter no máximo 60 caracteres.")
	}
	return nil
}
