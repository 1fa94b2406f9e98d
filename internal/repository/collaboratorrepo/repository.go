package collaboratorrepo

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

// CollaboratorRepository implementa a interface domain.CollaboratorRepository
// sobre a tabela colaboradores.
type CollaboratorRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCollaboratorRepository cria e retorna uma nova instância do Repositório de Colaboradores.
func NewCollaboratorRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CollaboratorRepository {
	return &CollaboratorRepository{
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

// Save persiste um novo colaborador.
func (r *CollaboratorRepository) Save(ctx domain.Context, collaborator domain.Collaborator) (domain.Collaborator, error) {
	r.logger.Debug("Gravando colaborador no repositório.", map[string]interface{}{"id_fun": collaborator.IDFun})

	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	const insertSQL = `
        INSERT INTO colaboradores (id, id_fun, name, role, contract, is_almoxarife, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		collaborator.ID, collaborator.IDFun, collaborator.Name,
		collaborator.Role, collaborator.Contract, collaborator.IsAlmoxarife, collaborator.Active,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return domain.Collaborator{}, errors.NewConflictError(fmt.Sprintf("Já existe um colaborador com a matrícula %s.", collaborator.IDFun))
		}
		r.logger.Error("Falha ao gravar colaborador no DB.", err)
		return domain.Collaborator{}, errors.NewDBError("Falha ao gravar colaborador", err)
	}
	return collaborator, nil
}

// FindByIDFun busca um colaborador pela matrícula, ativo ou não.
func (r *CollaboratorRepository) FindByIDFun(ctx domain.Context, idFun string) (domain.Collaborator, error) {
	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	const query = `
        SELECT id, id_fun, name, role, contract, is_almoxarife, active
        FROM colaboradores
        WHERE id_fun = $1`

	var c domain.Collaborator
	err := r.DB.QueryRowContext(ctxTimeout, query, idFun).Scan(
		&c.ID, &c.IDFun, &c.Name, &c.Role, &c.Contract, &c.IsAlmoxarife, &c.Active,
	)
	if err == sql.ErrNoRows {
		return domain.Collaborator{}, errors.NewNotFoundError(fmt.Sprintf("Colaborador com matrícula %s não encontrado.", idFun))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar colaborador no DB.", err)
		return domain.Collaborator{}, errors.NewDBError("Falha ao buscar colaborador", err)
	}
	return c, nil
}

// FindAllActive lista os colaboradores ativos ordenados por nome.
func (r *CollaboratorRepository) FindAllActive(ctx domain.Context) ([]domain.Collaborator, error) {
	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, id_fun, name, role, contract, is_almoxarife, active
        FROM colaboradores
        WHERE active = TRUE
        ORDER BY name`)
	if err != nil {
		r.logger.Error("Falha ao listar colaboradores no DB.", err)
		return nil, errors.NewDBError("Falha ao listar colaboradores", err)
	}
	defer rows.Close()

	var collaborators []domain.Collaborator
	for rows.Next() {
		var c domain.Collaborator
		if err := rows.Scan(&c.ID, &c.IDFun, &c.Name, &c.Role, &c.Contract, &c.IsAlmoxarife, &c.Active); err != nil {
			return nil, errors.NewDBError("Falha ao mapear colaborador", err)
		}
		collaborators = append(collaborators, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar colaboradores", err)
	}
	return collaborators, nil
}

// Update atualiza os dados cadastrais de um colaborador pela matrícula.
func (r *CollaboratorRepository) Update(ctx domain.Context, collaborator domain.Collaborator) error {
	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE colaboradores
        SET name=$2, role=$3, contract=$4, is_almoxarife=$5
        WHERE id_fun=$1`,
		collaborator.IDFun, collaborator.Name, collaborator.Role,
		collaborator.Contract, collaborator.IsAlmoxarife,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar colaborador no DB.", err)
		return errors.NewDBError("Falha ao atualizar colaborador", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Colaborador com matrícula %s não encontrado.", collaborator.IDFun))
	}
	return nil
}

// Deactivate faz a exclusão lógica do colaborador. O registro permanece para
// preservar o histórico de movimentações.
func (r *CollaboratorRepository) Deactivate(ctx domain.Context, idFun string) error {
	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE colaboradores SET active = FALSE WHERE id_fun = $1`, idFun)
	if err != nil {
		r.logger.Error("Falha ao desativar colaborador no DB.", err)
		return errors.NewDBError("Falha ao desativar colaborador", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Colaborador com matrícula %s não encontrado.", idFun))
	}
	return nil
}
