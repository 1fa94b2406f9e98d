package domain

// Unit é a unidade de medida do produto.
type Unit string

// Unidades de medida aceitas no catálogo.
const (
	UnitUn Unit = "un"
	UnitKg Unit = "kg"
	UnitCx Unit = "cx"
	UnitLt Unit = "lt"
	UnitPc Unit = "pç"
)

// Units lista todas as unidades válidas (usada na validação de formulários e importação).
var Units = []Unit{UnitUn, UnitKg, UnitCx, UnitLt, UnitPc}

// Product representa o item do catálogo do almoxarifado.
// A quantidade (Quantity) é um contador mutável: seu valor deve ser sempre igual ao
// estoque inicial somado ao efeito de todas as movimentações aplicadas a ele.
type Product struct {
	ID       string `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     Unit   `json:"unit"`
	Quantity int    `json:"quantity"`
	MinStock int    `json:"min_stock"`
	// IsAutoMinStock marca produtos criados pela importação em lote, cujo estoque
	// mínimo deve ser recalculado automaticamente mais tarde.
	IsAutoMinStock bool    `json:"is_auto_min_stock,omitempty"`
	Location       string  `json:"location"`
	Description    string  `json:"description"`
	Price          float64 `json:"price,omitempty"`
	LastUpdated    int64   `json:"last_updated"` // epoch millis

	// Campos específicos de equipamentos locados.
	Tag               string  `json:"tag,omitempty"`
	Barcode           string  `json:"barcode,omitempty"`
	EmpresaLocadora   string  `json:"empresa_locadora,omitempty"`
	ValorLocacao      float64 `json:"valor_locacao,omitempty"`
	DataLocacao       string  `json:"data_locacao,omitempty"`
	DataValidade      string  `json:"data_validade,omitempty"`
	ProximaManutencao string  `json:"proxima_manutencao,omitempty"`
}

// ProductFilter define os parâmetros de busca avançada do catálogo.
type ProductFilter struct {
	NameContains     string
	SKUContains      string
	Category         string // "Todas" ou vazio desativa o filtro
	LocationContains string
	MinQuantity      *int
	MaxQuantity      *int
	OnlyLowStock     bool
}

// IsLowStock indica se o produto está abaixo (ou igual) ao seu estoque mínimo.
func (p Product) IsLowStock() bool {
	return p.Quantity > 0 && p.Quantity <= p.MinStock
}

// --- Interfaces de Contrato ---

// ProductRepository define o contrato de persistência para a entidade Product.
type ProductRepository interface {
	Save(ctx Context, product Product) (Product, error)
	FindByID(ctx Context, id string) (Product, error)
	FindAll(ctx Context) ([]Product, error)
	Update(ctx Context, product Product) error
	UpdateQuantity(ctx Context, id string, quantity int, lastUpdated int64) error
}

// Context é uma interface que encapsula o Go context.Context.
// É usado para propagar o timeout e sinais de cancelamento pelas camadas.
type Context interface{}
