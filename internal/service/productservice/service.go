package productservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
)

// CategoriaEquipamentos exige campos de locação (TAG e empresa locadora).
const CategoriaEquipamentos = "Equipamentos"

// Reloader ressincroniza o snapshot de estoque em memória com o banco.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Service implementa as regras de negócio do catálogo de produtos.
type Service struct {
	repo     domain.ProductRepository
	reloader Reloader
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produtos.
func NewService(repo domain.ProductRepository, reloader Reloader, logger logger.Logger) *Service {
	return &Service{repo: repo, reloader: reloader, logger: logger}
}

// resync recarrega o snapshot de estoque após uma mutação do catálogo, para
// que o produto alterado fique registrável sem esperar um restart. A gravação
// já aconteceu: falha aqui só é registrada.
func (s *Service) resync(ctx context.Context) {
	if s.reloader == nil {
		return
	}
	if err := s.reloader.Reload(ctx); err != nil {
		s.logger.Error("Falha ao ressincronizar o snapshot de estoque.", err)
	}
}

// CreateProduct cadastra um produto novo após validações de negócio.
func (s *Service) CreateProduct(ctx domain.Context, product domain.Product) (domain.Product, error) {
	s.logger.Debug("Iniciando criação de produto no serviço.", map[string]interface{}{"sku": product.SKU})

	if err := s.validateProduct(product); err != nil {
		s.logger.Warn("Falha na validação do produto.", map[string]interface{}{"sku": product.SKU, "error": err.Error()})
		return domain.Product{}, err
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para CreateProduct", nil)
	}

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Unit == "" {
		product.Unit = domain.UnitUn
	}
	product.LastUpdated = time.Now().UnixMilli()

	created, err := s.repo.Save(ctxGo, product)
	if err != nil {
		s.logger.Error("Falha ao salvar produto no repositório.", err)
		return domain.Product{}, err // conflito de SKU e erros de banco já vêm tipados
	}

	s.logger.Info("Produto criado com sucesso.", map[string]interface{}{"id": created.ID, "sku": created.SKU})
	s.resync(ctxGo)
	return created, nil
}

// GetProductByID busca um produto pelo ID após validações de formato.
func (s *Service) GetProductByID(ctx domain.Context, id string) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para GetProductByID", nil)
	}

	product, err := s.repo.FindByID(ctxGo, id)
	if err != nil {
		s.logger.Error("Falha ao buscar produto no repositório.", err)
		return domain.Product{}, err
	}
	return product, nil
}

// ListProducts devolve o catálogo completo, com quantidade e estoque mínimo atuais.
func (s *Service) ListProducts(ctx domain.Context) ([]domain.Product, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para ListProducts", nil)
	}

	products, err := s.repo.FindAll(ctxGo)
	if err != nil {
		s.logger.Error("Falha ao listar produtos no repositório.", err)
		return nil, apperror.NewInternalError("Falha interna ao listar produtos.", err)
	}
	return products, nil
}

// FilterProducts aplica o filtro avançado em memória sobre o catálogo.
// Todos os critérios preenchidos precisam casar ao mesmo tempo.
func (s *Service) FilterProducts(ctx domain.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.Product
	for _, p := range products {
		if filter.NameContains != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.NameContains)) {
			continue
		}
		if filter.SKUContains != "" && !strings.Contains(strings.ToLower(p.SKU), strings.ToLower(filter.SKUContains)) {
			continue
		}
		if filter.Category != "" && filter.Category != "Todas" && p.Category != filter.Category {
			continue
		}
		if filter.LocationContains != "" && !strings.Contains(strings.ToLower(p.Location), strings.ToLower(filter.LocationContains)) {
			continue
		}
		if filter.MinQuantity != nil && p.Quantity < *filter.MinQuantity {
			continue
		}
		if filter.MaxQuantity != nil && p.Quantity > *filter.MaxQuantity {
			continue
		}
		if filter.OnlyLowStock && !p.IsLowStock() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// UpdateProduct atualiza os dados cadastrais de um produto existente.
// A quantidade não é alterada por aqui; ela só muda via movimentações.
func (s *Service) UpdateProduct(ctx domain.Context, product domain.Product) (domain.Product, error) {
	s.logger.Debug("Iniciando atualização de produto no serviço.", map[string]interface{}{"id": product.ID})

	if _, err := uuid.Parse(product.ID); err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if err := s.validateProduct(product); err != nil {
		s.logger.Warn("Falha na validação do produto para atualização.", map[string]interface{}{"id": product.ID, "error": err.Error()})
		return domain.Product{}, err
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para UpdateProduct", nil)
	}

	product.LastUpdated = time.Now().UnixMilli()
	if err := s.repo.Update(ctxGo, product); err != nil {
		s.logger.Error("Falha ao atualizar produto no repositório.", err)
		return domain.Product{}, err
	}

	s.logger.Info("Produto atualizado com sucesso.", map[string]interface{}{"id": product.ID})
	s.resync(ctxGo)
	return product, nil
}

// validateProduct concentra as regras de formulário do cadastro.
func (s *Service) validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidationError("Nome e SKU são obrigatórios para o produto.")
	}
	if p.Quantity < 0 {
		return apperror.NewValidationError("A quantidade inicial não pode ser negativa.")
	}
	if p.MinStock < 0 {
		return apperror.NewValidationError("O estoque mínimo não pode ser negativo.")
	}
	if p.Unit != "" {
		valid := false
		for _, u := range domain.Units {
			if p.Unit == u {
				valid = true
				break
			}
		}
		if !valid {
			return apperror.NewValidationError(fmt.Sprintf("Unidade de medida não reconhecida: %s.", p.Unit))
		}
	}
	if p.Category == CategoriaEquipamentos {
		if strings.TrimSpace(p.Tag) == "" {
			return apperror.NewValidationError("TAG é obrigatória para equipamentos.")
		}
		if strings.TrimSpace(p.EmpresaLocadora) == "" {
			return apperror.NewValidationError("Empresa Locadora é obrigatória para equipamentos.")
		}
	}
	return nil
}
