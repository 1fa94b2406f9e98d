package domain

import "time"

// User representa a entidade do usuário no sistema.
type User struct {
	ID           string    `json:"id"`
	Usuario      string    `json:"usuario"`
	Nome         string    `json:"nome"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	Nivel        UserRole  `json:"nivel"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

// Constantes para os papéis de usuário.
const (
	RoleAdmin    UserRole = "admin"
	RoleOperador UserRole = "operador"
)

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Usuario  string `json:"usuario"`
	Nome     string `json:"nome"`
	Password string `json:"password"`
	Nivel    string `json:"nivel"`
}

// UserRepository define o contrato de persistência para a entidade User.
type UserRepository interface {
	Save(ctx Context, user User) (User, error)
	FindByUsuario(ctx Context, usuario string) (User, error)
}
