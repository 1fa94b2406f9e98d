package productservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
	"almox/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface domain.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx domain.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx domain.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx domain.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx domain.Context, product domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateQuantity(ctx domain.Context, id string, quantity int, lastUpdated int64) error {
	args := m.Called(ctx, id, quantity, lastUpdated)
	return args.Error(0)
}

// TestCreateProduct_Success testa a criação com dados válidos.
func TestCreateProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockLogger := logger.NewLogger("debug")
	svc := productservice.NewService(mockRepo, nil, mockLogger)

	input := domain.Product{Name: "Martelo", SKU: "FER-001", Category: "Ferramentas", Quantity: 10}
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Product")).
		Return(input, nil)

	created, err := svc.CreateProduct(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, "FER-001", created.SKU)
	mockRepo.AssertExpectations(t)

	saved := mockRepo.Calls[0].Arguments.Get(1).(domain.Product)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, domain.UnitUn, saved.Unit) // unidade padrão quando omitida
}

// TestCreateProduct_Fail_SemNomeOuSKU rejeita cadastro incompleto.
func TestCreateProduct_Fail_SemNomeOuSKU(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, nil, logger.NewLogger("error"))

	_, err := svc.CreateProduct(context.Background(), domain.Product{Name: "", SKU: "X"})

	assert.Error(t, err)
	var appErr apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Category())
	mockRepo.AssertNotCalled(t, "Save")
}

// TestCreateProduct_Fail_EquipamentoSemLocacao: equipamentos exigem TAG e locadora.
func TestCreateProduct_Fail_EquipamentoSemLocacao(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, nil, logger.NewLogger("error"))

	_, err := svc.CreateProduct(context.Background(), domain.Product{
		Name: "Betoneira", SKU: "EQP-001", Category: productservice.CategoriaEquipamentos,
	})

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Save")
}

// TestGetProductByID_Fail_IDInvalido rejeita IDs que não são UUID.
func TestGetProductByID_Fail_IDInvalido(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, nil, logger.NewLogger("error"))

	_, err := svc.GetProductByID(context.Background(), "nao-e-uuid")

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "FindByID")
}

// TestFilterProducts aplica o filtro avançado em memória.
func TestFilterProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, nil, logger.NewLogger("error"))

	catalog := []domain.Product{
		{ID: "p1", Name: "Martelo Grande", SKU: "FER-001", Category: "Ferramentas", Quantity: 10, MinStock: 2},
		{ID: "p2", Name: "Capacete", SKU: "EPI-001", Category: "EPIs", Quantity: 1, MinStock: 5},
		{ID: "p3", Name: "Martelo Pequeno", SKU: "FER-002", Category: "Ferramentas", Quantity: 0, MinStock: 2},
	}
	mockRepo.On("FindAll", mock.Anything).Return(catalog, nil)

	byName, err := svc.FilterProducts(context.Background(), domain.ProductFilter{NameContains: "martelo"})
	assert.NoError(t, err)
	assert.Len(t, byName, 2)

	lowStock, err := svc.FilterProducts(context.Background(), domain.ProductFilter{OnlyLowStock: true})
	assert.NoError(t, err)
	assert.Len(t, lowStock, 1) // zerado não conta como estoque baixo
	assert.Equal(t, "p2", lowStock[0].ID)

	min := 5
	byMin, err := svc.FilterProducts(context.Background(), domain.ProductFilter{MinQuantity: &min})
	assert.NoError(t, err)
	assert.Len(t, byMin, 1)
	assert.Equal(t, "p1", byMin[0].ID)
}

// TestUpdateProduct_Success atualiza dados cadastrais de um produto existente.
func TestUpdateProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, nil, logger.NewLogger("error"))

	product := domain.Product{ID: uuid.New().String(), Name: "Martelo", SKU: "FER-001", Unit: domain.UnitUn}
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("domain.Product")).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), product)

	assert.NoError(t, err)
	assert.NotZero(t, updated.LastUpdated)
	mockRepo.AssertExpectations(t)
}


// MockSnapshotReloader registra as ressincronizações do snapshot de estoque.
type MockSnapshotReloader struct {
	mock.Mock
}

func (m *MockSnapshotReloader) Reload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// TestCreateProduct_RessincronizaSnapshot: produto recém criado dispara o
// reload do snapshot e fica movimentável sem esperar um restart.
func TestCreateProduct_RessincronizaSnapshot(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockReloader := new(MockSnapshotReloader)
	svc := productservice.NewService(mockRepo, mockReloader, logger.NewLogger("error"))

	input := domain.Product{Name: "Furadeira", SKU: "FER-099", Category: "Ferramentas", Quantity: 3}
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Product")).Return(input, nil)
	mockReloader.On("Reload", mock.Anything).Return(nil)

	_, err := svc.CreateProduct(context.Background(), input)

	assert.NoError(t, err)
	mockReloader.AssertCalled(t, "Reload", mock.Anything)
}

// TestCreateProduct_NaoRessincronizaQuandoInvalido: validação rejeitada não
// toca o snapshot.
func TestCreateProduct_NaoRessincronizaQuandoInvalido(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockReloader := new(MockSnapshotReloader)
	svc := productservice.NewService(mockRepo, mockReloader, logger.NewLogger("error"))

	_, err := svc.CreateProduct(context.Background(), domain.Product{Name: "Sem SKU"})

	assert.Error(t, err)
	mockReloader.AssertNotCalled(t, "Reload", mock.Anything)
}

// TestUpdateProduct_RessincronizaSnapshot: atualização bem sucedida também
// recarrega o snapshot.
func TestUpdateProduct_RessincronizaSnapshot(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockReloader := new(MockSnapshotReloader)
	svc := productservice.NewService(mockRepo, mockReloader, logger.NewLogger("error"))

	product := domain.Product{ID: uuid.New().String(), Name: "Martelo", SKU: "FER-001", Unit: domain.UnitUn}
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("domain.Product")).Return(nil)
	mockReloader.On("Reload", mock.Anything).Return(nil)

	_, err := svc.UpdateProduct(context.Background(), product)

	assert.NoError(t, err)
	mockReloader.AssertCalled(t, "Reload", mock.Anything)
}
