package movementrepo

import (
	"context"
	"database/sql"
	"time"

	"almox/internal/domain"
	"almox/internal/errors"
	"almox/internal/pkg/logger"
)

// MovementRepository implementa a interface domain.TransactionRepository sobre
// a tabela movimentacoes. O histórico é imutável: só há INSERT e SELECT.
type MovementRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewMovementRepository cria e retorna uma nova instância do Repositório de Movimentações.
func NewMovementRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *MovementRepository {
	return &MovementRepository{
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

// Append grava uma movimentação nova. Os contextos de entrada e saída são
// achatados em colunas anuláveis.
func (r *MovementRepository) Append(ctx domain.Context, tx domain.Transaction) error {
	r.logger.Debug("Gravando movimentação no repositório.", map[string]interface{}{"id": tx.ID, "type": string(tx.Type)})

	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	const insertSQL = `
        INSERT INTO movimentacoes (
            id, product_id, product_name, type, quantity, timestamp,
            user_name, unit_price, total_value, notes, attendant_id, attendant_name,
            tag, empresa_locadora, original_transaction_code,
            supplier, invoice_number,
            requester, department, purpose, collaborator_id, collaborator_role, collaborator_contract
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`

	var supplier, invoiceNumber sql.NullString
	if tx.Entry != nil {
		supplier = nullable(tx.Entry.Supplier)
		invoiceNumber = nullable(tx.Entry.InvoiceNumber)
	}
	var requester, department, purpose, collabID, collabRole, collabContract sql.NullString
	if tx.Exit != nil {
		requester = nullable(tx.Exit.Requester)
		department = nullable(tx.Exit.Department)
		purpose = nullable(tx.Exit.Purpose)
		collabID = nullable(tx.Exit.CollaboratorID)
		collabRole = nullable(tx.Exit.CollaboratorRole)
		collabContract = nullable(tx.Exit.CollaboratorContract)
	}

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		tx.ID, tx.ProductID, tx.ProductName, string(tx.Type), tx.Quantity, tx.Timestamp,
		tx.UserName, tx.UnitPrice, tx.TotalValue, tx.Notes, tx.AttendantID, tx.AttendantName,
		tx.Tag, tx.EmpresaLocadora, tx.OriginalTransactionCode,
		supplier, invoiceNumber,
		requester, department, purpose, collabID, collabRole, collabContract,
	)
	if err != nil {
		r.logger.Error("Falha ao gravar movimentação no DB.", err)
		return errors.NewDBError("Falha ao gravar movimentação", err)
	}
	return nil
}

// FindAll devolve o histórico completo ordenado do registro mais recente para
// o mais antigo, a ordem em que a aplicação o mantém em memória.
func (r *MovementRepository) FindAll(ctx domain.Context) ([]domain.Transaction, error) {
	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	const query = `
        SELECT id, product_id, product_name, type, quantity, timestamp,
               user_name, unit_price, total_value, notes, attendant_id, attendant_name,
               tag, empresa_locadora, original_transaction_code,
               supplier, invoice_number,
               requester, department, purpose, collaborator_id, collaborator_role, collaborator_contract
        FROM movimentacoes
        ORDER BY timestamp DESC, id DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar movimentações no DB.", err)
		return nil, errors.NewDBError("Falha ao listar movimentações", err)
	}
	defer rows.Close()

	var history []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear movimentação do DB.", err)
			return nil, errors.NewDBError("Falha ao mapear movimentação", err)
		}
		history = append(history, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar movimentações", err)
	}
	return history, nil
}

// ExistingImportCodes devolve o conjunto de códigos externos já gravados,
// usado pela importação em lote para a checagem de duplicidade.
func (r *MovementRepository) ExistingImportCodes(ctx domain.Context) (map[string]struct{}, error) {
	ctxTimeout, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT DISTINCT original_transaction_code FROM movimentacoes WHERE original_transaction_code <> ''`)
	if err != nil {
		r.logger.Error("Falha ao buscar códigos de importação no DB.", err)
		return nil, errors.NewDBError("Falha ao buscar códigos de importação", err)
	}
	defer rows.Close()

	codes := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, errors.NewDBError("Falha ao mapear código de importação", err)
		}
		codes[code] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar códigos de importação", err)
	}
	return codes, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// scanner abstrai *sql.Rows para permitir o mapeamento linha a linha em teste.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(rows scanner) (domain.Transaction, error) {
	var tx domain.Transaction
	var txType string
	var supplier, invoiceNumber sql.NullString
	var requester, department, purpose, collabID, collabRole, collabContract sql.NullString

	err := rows.Scan(
		&tx.ID, &tx.ProductID, &tx.ProductName, &txType, &tx.Quantity, &tx.Timestamp,
		&tx.UserName, &tx.UnitPrice, &tx.TotalValue, &tx.Notes, &tx.AttendantID, &tx.AttendantName,
		&tx.Tag, &tx.EmpresaLocadora, &tx.OriginalTransactionCode,
		&supplier, &invoiceNumber,
		&requester, &department, &purpose, &collabID, &collabRole, &collabContract,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.Type = domain.TransactionType(txType)

	if supplier.Valid || invoiceNumber.Valid {
		tx.Entry = &domain.EntryContext{
			Supplier:      supplier.String,
			InvoiceNumber: invoiceNumber.String,
		}
	}
	if requester.Valid || department.Valid || purpose.Valid || collabID.Valid {
		tx.Exit = &domain.ExitContext{
			Requester:            requester.String,
			Department:           department.String,
			Purpose:              purpose.String,
			CollaboratorID:       collabID.String,
			CollaboratorRole:     collabRole.String,
			CollaboratorContract: collabContract.String,
		}
	}
	return tx, nil
}
