package categoryrepo

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

// CategoryRepository implementa a interface domain.CategoryRepository sobre
// a tabela categorias. Categorias são rótulos planos, sem chave estrangeira
// em produtos.
type CategoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCategoryRepository cria e retorna uma nova instância do Repositório de Categorias.
func NewCategoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CategoryRepository {
	return &CategoryRepository{
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

// FindAll lista os nomes de categoria em ordem alfabética.
func (r *CategoryRepository) FindAll(ctx domain.Context) ([]string, error) {
	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT name FROM categorias ORDER BY name`)
	if err != nil {
		r.logger.Error("Falha ao listar categorias no DB.", err)
		return nil, errors.NewDBError("Falha ao listar categorias", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.NewDBError("Falha ao mapear categoria", err)
		}
		categories = append(categories, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar categorias", err)
	}
	return categories, nil
}

// Add insere uma nova categoria.
func (r *CategoryRepository) Add(ctx domain.Context, name string) error {
	r.logger.Debug("Gravando categoria no repositório.", map[string]interface{}{"name": name})

	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout, `INSERT INTO categorias (name) VALUES ($1)`, name)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return errors.NewConflictError(fmt.Sprintf("A categoria '%s' já existe.", name))
		}
		r.logger.Error("Falha ao gravar categoria no DB.", err)
		return errors.NewDBError("Falha ao gravar categoria", err)
	}
	return nil
}

// Rename troca o nome da categoria e propaga o novo rótulo para os produtos
// que a referenciam. As duas escritas acontecem na mesma transação.
func (r *CategoryRepository) Rename(ctx domain.Context, oldName, newName string) error {
	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return errors.NewDBError("Falha ao abrir transação", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctxTimeout, `UPDATE categorias SET name = $2 WHERE name = $1`, oldName, newName)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return errors.NewConflictError(fmt.Sprintf("A categoria '%s' já existe.", newName))
		}
		r.logger.Error("Falha ao renomear categoria no DB.", err)
		return errors.NewDBError("Falha ao renomear categoria", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Categoria '%s' não encontrada.", oldName))
	}

	if _, err := tx.ExecContext(ctxTimeout, `UPDATE produtos SET category = $2 WHERE category = $1`, oldName, newName); err != nil {
		r.logger.Error("Falha ao propagar renomeação para produtos.", err)
		return errors.NewDBError("Falha ao propagar renomeação para produtos", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDBError("Falha ao confirmar transação", err)
	}
	return nil
}

// Delete remove a categoria da lista. Produtos que a usavam mantêm o rótulo
// antigo, exatamente como registrado.
func (r *CategoryRepository) Delete(ctx domain.Context, name string) error {
	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM categorias WHERE name = $1`, name)
	if err != nil {
		r.logger.Error("Falha ao remover categoria no DB.", err)
		return errors.NewDBError("Falha ao remover categoria", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Categoria '%s' não encontrada.", name))
	}
	return nil
}
