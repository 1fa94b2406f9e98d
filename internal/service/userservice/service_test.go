package userservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/token"
	"almox/internal/service/userservice"
)

// MockUserRepository é uma implementação mock da interface domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx domain.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsuario(ctx domain.Context, usuario string) (domain.User, error) {
	args := m.Called(ctx, usuario)
	return args.Get(0).(domain.User), args.Error(1)
}

// MockTokenService simula a geração e validação de JWTs.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID, userName, userRole string) (string, error) {
	args := m.Called(userID, userName, userRole)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) ValidateToken(tokenString string) (*token.CustomClaims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(*token.CustomClaims)
	return claims, args.Error(1)
}

func TestRegister_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, new(MockTokenService))

	registration := domain.UserRegistration{Usuario: "maria", Nome: "Maria Silva", Password: "segredo123"}
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.User")).
		Return(domain.User{ID: "u1", Usuario: "maria", Nivel: domain.RoleOperador}, nil)

	user, err := svc.Register(context.Background(), registration)

	assert.NoError(t, err)
	assert.Equal(t, "maria", user.Usuario)
	mockRepo.AssertExpectations(t)

	saved := mockRepo.Calls[0].Arguments.Get(1).(domain.User)
	assert.Equal(t, domain.RoleOperador, saved.Nivel) // nível padrão
	assert.NotEqual(t, "segredo123", saved.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.PasswordHash), []byte("segredo123")))
}

func TestRegister_Fail_SenhaCurta(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, new(MockTokenService))

	_, err := svc.Register(context.Background(), domain.UserRegistration{Usuario: "maria", Password: "123"})

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Save")
}

func TestRegister_Fail_UsuarioDuplicado(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, new(MockTokenService))

	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.User")).
		Return(domain.User{}, apperror.NewInternalError("unique_violation", nil))

	_, err := svc.Register(context.Background(), domain.UserRegistration{Usuario: "maria", Password: "segredo123"})

	assert.Error(t, err)
	var appErr apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Category())
}

func TestLogin_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockToken)

	hash, _ := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.DefaultCost)
	user := domain.User{ID: "u1", Usuario: "maria", Nome: "Maria Silva", PasswordHash: string(hash), Nivel: domain.RoleAdmin}

	mockRepo.On("FindByUsuario", mock.Anything, "maria").Return(user, nil)
	mockToken.On("GenerateToken", "u1", "Maria Silva", "admin").Return("jwt-token", nil)

	tokenString, err := svc.Login(context.Background(), "maria", "segredo123")

	assert.NoError(t, err)
	assert.Equal(t, "jwt-token", tokenString)
	mockToken.AssertExpectations(t)
}

func TestLogin_Fail_SenhaErrada(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockToken)

	hash, _ := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.DefaultCost)
	mockRepo.On("FindByUsuario", mock.Anything, "maria").
		Return(domain.User{ID: "u1", PasswordHash: string(hash)}, nil)

	_, err := svc.Login(context.Background(), "maria", "errada")

	assert.Error(t, err)
	mockToken.AssertNotCalled(t, "GenerateToken")
}

func TestLogin_Fail_UsuarioInexistenteViraUnauthorized(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, new(MockTokenService))

	mockRepo.On("FindByUsuario", mock.Anything, "fantasma").
		Return(domain.User{}, apperror.NewNotFoundError("usuário não encontrado"))

	_, err := svc.Login(context.Background(), "fantasma", "qualquer")

	assert.Error(t, err)
	var appErr apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UNAUTHORIZED", appErr.Category())
}
