package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"almox/internal/domain"
	"almox/internal/errors"
	"almox/internal/pkg/cache"
)

// ProductRepository implementa a interface domain.ProductRepository.
// Ela contém as conexões necessárias para acessar dados.
type ProductRepository struct {
	DB        *sql.DB      // Conexão principal com o banco de dados (PostgreSQL)
	Cache     cache.Client // Cliente para operações de cache (Redis)
	DBTimeout time.Duration
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
	}
}

// Chaves de cache. A listagem completa é invalidada em toda escrita.
const (
	productCacheKey = "produto:%s"
	catalogCacheKey = "produtos:catalogo"
	productCacheTTL = 5 * time.Minute
)

const productColumns = `id, sku, name, category, unit, quantity, min_stock, is_auto_min_stock,
		location, description, price, last_updated, tag, barcode, empresa_locadora,
		valor_locacao, data_locacao, data_validade, proxima_manutencao`

func toCtx(ctx domain.Context) context.Context {
	if ctxGo, ok := ctx.(context.Context); ok {
		return ctxGo
	}
	return context.Background()
}

// Save persiste um novo Produto no banco de dados.
func (r *ProductRepository) Save(ctx domain.Context, product domain.Product) (domain.Product, error) {
	ctxGo, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	const insertSQL = `INSERT INTO produtos (` + productColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`

	_, err := r.DB.ExecContext(ctxGo, insertSQL,
		product.ID, product.SKU, product.Name, product.Category, string(product.Unit),
		product.Quantity, product.MinStock, product.IsAutoMinStock,
		product.Location, product.Description, product.Price, product.LastUpdated,
		product.Tag, product.Barcode, product.EmpresaLocadora,
		product.ValorLocacao, product.DataLocacao, product.DataValidade, product.ProximaManutencao,
	)
	if err != nil {
		// Violação de unicidade do SKU vira conflito tipado para a camada acima.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return domain.Product{}, errors.NewConflictError(fmt.Sprintf("Já existe um produto com o SKU %s.", product.SKU))
		}
		return domain.Product{}, errors.NewDBError("Falha ao inserir produto no DB", err)
	}

	r.invalidateCatalog(ctxGo)
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx domain.Context, id string) (domain.Product, error) {
	ctxGo, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// Tentar obter do Cache (Redis). Erros reais de cache não derrubam a
	// leitura, apenas forçam a ida ao banco.
	cachedData, err := r.Cache.Get(ctxGo, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
	}

	row := r.DB.QueryRowContext(ctxGo, `SELECT `+productColumns+` FROM produtos WHERE id = $1`, id)
	product, err = scanProduct(row)
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	// Popula o cache para futuras requisições.
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		r.Cache.Set(ctxGo, key, productJSON, productCacheTTL)
	}
	return product, nil
}

// FindAll devolve o catálogo completo ordenado por nome, com Cache-Aside
// sobre a listagem inteira.
func (r *ProductRepository) FindAll(ctx domain.Context) ([]domain.Product, error) {
	ctxGo, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	if cachedData, err := r.Cache.Get(ctxGo, catalogCacheKey); err == nil {
		var products []domain.Product
		if json.Unmarshal([]byte(cachedData), &products) == nil {
			return products, nil
		}
	}

	rows, err := r.DB.QueryContext(ctxGo, `SELECT `+productColumns+` FROM produtos ORDER BY name`)
	if err != nil {
		return nil, errors.NewDBError("Falha ao listar produtos no DB", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao mapear produto do DB", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar produtos do DB", err)
	}

	if productsJSON, marshalErr := json.Marshal(products); marshalErr == nil {
		r.Cache.Set(ctxGo, catalogCacheKey, productsJSON, productCacheTTL)
	}
	return products, nil
}

// Update atualiza os dados cadastrais de um produto, exceto a quantidade.
func (r *ProductRepository) Update(ctx domain.Context, product domain.Product) error {
	ctxGo, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE produtos SET
		sku=$2, name=$3, category=$4, unit=$5, min_stock=$6, is_auto_min_stock=$7,
		location=$8, description=$9, price=$10, last_updated=$11, tag=$12, barcode=$13,
		empresa_locadora=$14, valor_locacao=$15, data_locacao=$16, data_validade=$17,
		proxima_manutencao=$18
		WHERE id=$1`

	res, err := r.DB.ExecContext(ctxGo, updateSQL,
		product.ID, product.SKU, product.Name, product.Category, string(product.Unit),
		product.MinStock, product.IsAutoMinStock, product.Location, product.Description,
		product.Price, product.LastUpdated, product.Tag, product.Barcode,
		product.EmpresaLocadora, product.ValorLocacao, product.DataLocacao,
		product.DataValidade, product.ProximaManutencao,
	)
	if err != nil {
		return errors.NewDBError("Falha ao atualizar produto no DB", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", product.ID))
	}

	r.invalidateProduct(ctxGo, product.ID)
	return nil
}

// UpdateQuantity grava a quantidade corrente do produto. É o único caminho de
// escrita da coluna quantity fora das migrações.
func (r *ProductRepository) UpdateQuantity(ctx domain.Context, id string, quantity int, lastUpdated int64) error {
	ctxGo, cancel := context.WithTimeout(toCtx(ctx), r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxGo,
		`UPDATE produtos SET quantity=$2, last_updated=$3 WHERE id=$1`,
		id, quantity, lastUpdated,
	)
	if err != nil {
		return errors.NewDBError("Falha ao atualizar quantidade no DB", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}

	r.invalidateProduct(ctxGo, id)
	return nil
}

func (r *ProductRepository) invalidateProduct(ctx context.Context, id string) {
	r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, id))
	r.invalidateCatalog(ctx)
}

func (r *ProductRepository) invalidateCatalog(ctx context.Context) {
	r.Cache.Delete(ctx, catalogCacheKey)
}

// scanner cobre *sql.Row e *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var p domain.Product
	var unit string
	err := s.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &unit, &p.Quantity, &p.MinStock,
		&p.IsAutoMinStock, &p.Location, &p.Description, &p.Price, &p.LastUpdated,
		&p.Tag, &p.Barcode, &p.EmpresaLocadora, &p.ValorLocacao, &p.DataLocacao,
		&p.DataValidade, &p.ProximaManutencao,
	)
	p.Unit = domain.Unit(unit)
	return p, err
}
