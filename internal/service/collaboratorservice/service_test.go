package collaboratorservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
	"almox/internal/service/collaboratorservice"
)

// MockCollaboratorRepository é uma implementação mock da interface domain.CollaboratorRepository
type MockCollaboratorRepository struct {
	mock.Mock
}

func (m *MockCollaboratorRepository) Save(ctx domain.Context, collaborator domain.Collaborator) (domain.Collaborator, error) {
	args := m.Called(ctx, collaborator)
	return args.Get(0).(domain.Collaborator), args.Error(1)
}

func (m *MockCollaboratorRepository) FindByIDFun(ctx domain.Context, idFun string) (domain.Collaborator, error) {
	args := m.Called(ctx, idFun)
	return args.Get(0).(domain.Collaborator), args.Error(1)
}

func (m *MockCollaboratorRepository) FindAllActive(ctx domain.Context) ([]domain.Collaborator, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Collaborator), args.Error(1)
}

func (m *MockCollaboratorRepository) Update(ctx domain.Context, collaborator domain.Collaborator) error {
	args := m.Called(ctx, collaborator)
	return args.Error(0)
}

func (m *MockCollaboratorRepository) Deactivate(ctx domain.Context, idFun string) error {
	args := m.Called(ctx, idFun)
	return args.Error(0)
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("error")
}

// --- Testes para CreateCollaborator ---

func TestCreateCollaborator_Success(t *testing.T) {
	mockRepo := new(MockCollaboratorRepository)
	svc := collaboratorservice.NewService(mockRepo, nil, newTestLogger())

	input := domain.Collaborator{IDFun: "A100", Name: "Maria Silva", Role: "Almoxarife", Contract: "CLT"}

	mockRepo.On("FindByIDFun", mock.Anything, "A100").
		Return(domain.Collaborator{}, apperror.NewNotFoundError("colaborador não encontrado"))
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Collaborator")).
		Return(input, nil)

	result, err := svc.CreateCollaborator(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, "A100", result.IDFun)
	mockRepo.AssertExpectations(t)

	saved := mockRepo.Calls[1].Arguments.Get(1).(domain.Collaborator)
	assert.NotEmpty(t, saved.ID)
	assert.True(t, saved.Active)
}

func TestCreateCollaborator_Fail_MatriculaDuplicada(t *testing.T) {
	mockRepo := new(MockCollaboratorRepository)
	svc := collaboratorservice.NewService(mockRepo, nil, newTestLogger())

	mockRepo.On("FindByIDFun", mock.Anything, "A100").
		Return(domain.Collaborator{IDFun: "A100", Name: "Outro"}, nil)

	_, err := svc.CreateCollaborator(context.Background(), domain.Collaborator{IDFun: "A100", Name: "Maria Silva"})

	assert.Error(t, err)
	var appErr apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Category())
	mockRepo.AssertNotCalled(t, "Save")
}

func TestCreateCollaborator_Fail_NomeInvalido(t *testing.T) {
	mockRepo := new(MockCollaboratorRepository)
	svc := collaboratorservice.NewService(mockRepo, nil, newTestLogger())

	_, err := svc.CreateCollaborator(context.Background(), domain.Collaborator{IDFun: "A100", Name: "Jo"})

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "FindByIDFun")
	mockRepo.AssertNotCalled(t, "Save")
}

// --- Testes para listagem e desativação ---

func TestListActiveCollaborators_Success(t *testing.T) {
	mockRepo := new(MockCollaboratorRepository)
	svc := collaboratorservice.NewService(mockRepo, nil, newTestLogger())

	expected := []domain.Collaborator{
		{IDFun: "A100", Name: "Maria Silva", Active: true},
		{IDFun: "B200", Name: "João Souza", Active: true},
	}
	mockRepo.On("FindAllActive", mock.Anything).Return(expected, nil)

	result, err := svc.ListActiveCollaborators(context.Background())

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	mockRepo.AssertExpectations(t)
}

func TestDeactivateCollaborator_Success(t *testing.T) {
	mockRepo := new(MockCollaboratorRepository)
	svc := collaboratorservice.NewService(mockRepo, nil, newTestLogger())

	mockRepo.On("Deactivate", mock.Anything, "A100").Return(nil)

	err := svc.DeactivateCollaborator(context.Background(), "A100")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestDeactivateCollaborator_Fail_MatriculaVazia(t *testing.T) {
	mockRepo := new(MockCollaboratorRepository)
	svc := collaboratorservice.NewService(mockRepo, nil, newTestLogger())

	err := svc.DeactivateCollaborator(context.Background(), "  ")

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Deactivate")
}


// MockSnapshotReloader registra as ressincronizações do snapshot de estoque.
type MockSnapshotReloader struct {
	mock.Mock
}

func (m *MockSnapshotReloader) Reload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// TestDeactivateCollaborator_RessincronizaSnapshot: a desativação recarrega o
// snapshot para o colaborador sumir das listas de movimentação na hora.
func TestDeactivateCollaborator_RessincronizaSnapshot(t *testing.T) {
	mockRepo := new(MockCollaboratorRepository)
	mockReloader := new(MockSnapshotReloader)
	svc := collaboratorservice.NewService(mockRepo, mockReloader, newTestLogger())

	mockRepo.On("Deactivate", mock.Anything, "A100").Return(nil)
	mockReloader.On("Reload", mock.Anything).Return(nil)

	err := svc.DeactivateCollaborator(context.Background(), "A100")

	assert.NoError(t, err)
	mockReloader.AssertCalled(t, "Reload", mock.Anything)
}
