package userrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"almox/internal/domain"
	"almox/internal/errors"
	"almox/internal/pkg/logger"
)

// UserRepository implementa a interface domain.UserRepository sobre a
// tabela usuarios.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria e retorna uma nova instância do Repositório de Usuários.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

func toCtx(ctx domain.Context) context.Context {
	if ctxGo, ok := ctx.(context.Context); ok {
		return ctxGo
	}
	return context.Background()
}

// Save insere um novo usuário. O ID e os timestamps já chegam preenchidos
// pela camada de serviço.
func (r *UserRepository) Save(ctx domain.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Gravando usuário no repositório.", map[string]interface{}{"usuario": user.Usuario})

	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	const insertSQL = `
        INSERT INTO usuarios (id, usuario, nome, password_hash, nivel, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		user.ID, user.Usuario, user.Nome, user.PasswordHash,
		string(user.Nivel), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return domain.User{}, errors.NewConflictError(fmt.Sprintf("O usuário '%s' já está em uso.", user.Usuario))
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, errors.NewDBError("Falha ao inserir usuário", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID, "usuario": user.Usuario})
	return user, nil
}

// FindByUsuario busca um usuário pelo login.
func (r *UserRepository) FindByUsuario(ctx domain.Context, usuario string) (domain.User, error) {
	r.logger.Debug("Buscando usuário no repositório.", map[string]interface{}{"usuario": usuario})

	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	const query = `
        SELECT id, usuario, nome, password_hash, nivel, created_at, updated_at
        FROM usuarios
        WHERE usuario = $1`

	var u domain.User
	var nivel string
	err := r.DB.QueryRowContext(ctxTimeout, query, usuario).Scan(
		&u.ID, &u.Usuario, &u.Nome, &u.PasswordHash, &nivel, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.User{}, errors.NewNotFoundError(fmt.Sprintf("Usuário '%s' não encontrado.", usuario))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário no DB.", err)
		return domain.User{}, errors.NewDBError("Falha ao buscar usuário", err)
	}
	u.Nivel = domain.UserRole(nivel)
	return u, nil
}
