package userservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/token"
)

// UserService define o serviço de lógica de negócio para a entidade User.
type UserService struct {
	UserRepo domain.UserRepository
	TokenSvc TokenService
}

// TokenService é o contrato da camada de token (internal/pkg/token)
type TokenService interface {
	GenerateToken(userID string, userName string, userRole string) (string, error)
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo domain.UserRepository, tokenSvc TokenService) *UserService {
	return &UserService{
		UserRepo: repo,
		TokenSvc: tokenSvc,
	}
}

// Register registra um novo usuário no sistema.
// Ele faz o hashing da senha e lida com validações básicas.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	if registration.Usuario == "" || registration.Password == "" {
		return domain.User{}, apperror.NewValidationError("Usuário e senha são obrigatórios.")
	}
	if len(registration.Password) < 6 {
		return domain.User{}, apperror.NewValidationError("A senha deve ter ao menos 6 caracteres.")
	}

	// O nível padrão é operador; admin precisa ser pedido explicitamente.
	nivel := domain.RoleOperador
	if registration.Nivel == string(domain.RoleAdmin) {
		nivel = domain.RoleAdmin
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	now := time.Now()
	newUser := domain.User{
		ID:           uuid.New().String(),
		Usuario:      registration.Usuario,
		Nome:         registration.Nome,
		PasswordHash: string(hashedPassword),
		Nivel:        nivel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	user, err := s.UserRepo.Save(ctx, newUser)
	if err != nil {
		// Violação de unicidade do usuário vira conflito de negócio (409).
		var dbErr *apperror.InternalError
		if errors.As(err, &dbErr) {
			return domain.User{}, apperror.NewConflictError(
				fmt.Sprintf("O usuário '%s' já está em uso.", registration.Usuario),
			)
		}
		return domain.User{}, err
	}

	return user, nil
}

// Login autentica um usuário, verifica a senha e gera um JWT.
// O nome viaja no token porque toda movimentação é carimbada com o atendente.
func (s *UserService) Login(ctx context.Context, usuario string, password string) (string, error) {
	if usuario == "" || password == "" {
		return "", apperror.NewUnauthorizedError("Usuário e senha são obrigatórios.")
	}

	user, err := s.UserRepo.FindByUsuario(ctx, usuario)
	if err != nil {
		// NotFound vira Unauthorized para não dar dicas a invasores.
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.TokenSvc.GenerateToken(user.ID, user.Nome, string(user.Nivel))
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	return tokenString, nil
}
