package domain

// TransactionType identifica o efeito de uma movimentação sobre o estoque.
type TransactionType string

const (
	// TypeEntrada adiciona quantidade ao estoque (compra ou devolução de colaborador).
	TypeEntrada TransactionType = "entrada"
	// TypeSaida retira quantidade do estoque e a coloca em posse de um colaborador.
	TypeSaida TransactionType = "saida"
	// TypeBaixa descarta um item já em posse de colaborador. Não altera o estoque
	// de prateleira: o item já havia saído do almoxarifado na saída original.
	TypeBaixa TransactionType = "baixa"
	// TypeDevolucaoFornecedor devolve um equipamento locado ao fornecedor,
	// retirando-o do estoque.
	TypeDevolucaoFornecedor TransactionType = "devolucao_fornecedor"
)

// Label retorna o rótulo localizado do tipo, usado no histórico e na exportação.
func (t TransactionType) Label() string {
	switch t {
	case TypeEntrada:
		return "Entrada"
	case TypeBaixa:
		return "Baixa"
	case TypeDevolucaoFornecedor:
		return "Saída" // exportação trata devolução como saída, igual ao histórico legado
	default:
		return "Saída"
	}
}

// EntryContext agrupa os campos que só fazem sentido em movimentações de entrada.
type EntryContext struct {
	Supplier      string `json:"supplier,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
}

// ExitContext agrupa os campos que só fazem sentido em saídas, baixas e devoluções.
type ExitContext struct {
	Requester            string `json:"requester,omitempty"`
	Department           string `json:"department,omitempty"`
	Purpose              string `json:"purpose,omitempty"`
	CollaboratorID       string `json:"collaborator_id,omitempty"`
	CollaboratorRole     string `json:"collaborator_role,omitempty"`
	CollaboratorContract string `json:"collaborator_contract,omitempty"`
}

// Transaction é o registro imutável do livro de movimentações.
// Uma vez persistido, tipo e quantidade nunca mudam: correções são feitas
// por movimentações compensatórias, jamais por mutação do registro.
//
// Os campos dependentes do tipo ficam em sub-estruturas opcionais (Entry/Exit)
// em vez de um registro plano com campos às vezes ausentes.
type Transaction struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"` // desnormalizado: sobrevive à remoção do produto
	Type        TransactionType `json:"type"`
	Quantity    int             `json:"quantity"` // sempre > 0; o sinal vem do tipo
	Timestamp   int64           `json:"timestamp"` // epoch millis
	UserName    string          `json:"user_name"`

	Entry *EntryContext `json:"entry,omitempty"`
	Exit  *ExitContext  `json:"exit,omitempty"`

	Notes         string  `json:"notes,omitempty"`
	AttendantID   string  `json:"attendant_id,omitempty"`
	AttendantName string  `json:"attendant_name,omitempty"`
	UnitPrice     float64 `json:"unit_price,omitempty"`
	TotalValue    float64 `json:"total_value,omitempty"`

	// Snapshot de equipamento no momento da movimentação.
	Tag             string `json:"tag,omitempty"`
	EmpresaLocadora string `json:"empresa_locadora,omitempty"`

	// OriginalTransactionCode é a chave de idempotência da importação em lote.
	OriginalTransactionCode string `json:"original_transaction_code,omitempty"`
}

// CollaboratorID retorna o id funcional do colaborador vinculado, se houver.
func (t Transaction) CollaboratorID() string {
	if t.Exit != nil {
		return t.Exit.CollaboratorID
	}
	return ""
}

// Requester retorna o solicitante da movimentação, se houver.
func (t Transaction) Requester() string {
	if t.Exit != nil {
		return t.Exit.Requester
	}
	return ""
}

// IsExit indica se o tipo retira quantidade do estoque de prateleira.
func (t TransactionType) IsExit() bool {
	return t == TypeSaida || t == TypeDevolucaoFornecedor
}

// TransactionRepository define o contrato de persistência do livro de movimentações.
type TransactionRepository interface {
	Append(ctx Context, tx Transaction) error
	FindAll(ctx Context) ([]Transaction, error)
	ExistingImportCodes(ctx Context) (map[string]struct{}, error)
}
