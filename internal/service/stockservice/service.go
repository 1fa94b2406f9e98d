package stockservice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
)

// Apply calcula a nova quantidade de estoque de prateleira resultante de uma
// movimentação. É uma função pura: nenhum efeito colateral, o chamador é
// responsável pela persistência e pelo registro no livro.
//
//	entrada              -> quantidade + amount
//	saida / devolucao    -> quantidade - amount
//	baixa                -> quantidade inalterada
//
// A baixa não decrementa o estoque de prateleira: ela descarta um item que já
// estava em posse de um colaborador, ou seja, que já havia saído do
// almoxarifado na saída original. O efeito da baixa aparece apenas no
// cálculo de posse.
func Apply(current int, txType domain.TransactionType, amount int) (int, error) {
	if amount <= 0 {
		return current, apperror.NewInvalidQuantityError(amount)
	}

	switch txType {
	case domain.TypeEntrada:
		return current + amount, nil
	case domain.TypeSaida, domain.TypeDevolucaoFornecedor:
		return current - amount, nil
	case domain.TypeBaixa:
		return current, nil
	default:
		return current, apperror.NewValidationError("Tipo de movimentação desconhecido: " + string(txType))
	}
}

// PersistState distingue o estado local otimista do estado confirmado no
// armazenamento durável.
type PersistState int

const (
	// Local: aplicado em memória, gravação durável ainda em andamento (ou falhada).
	Local PersistState = iota
	// Confirmed: confirmado pelo armazenamento durável ou carregado dele.
	Confirmed
)

// LedgerEntry é uma movimentação anotada com seu estado de persistência.
type LedgerEntry struct {
	Tx    domain.Transaction
	State PersistState
}

// Notifier recebe avisos não bloqueantes sobre falhas de sincronização.
// Erros de persistência nunca revertem a mutação otimista; eles são apenas
// comunicados, e a divergência é resolvida no próximo Reload bem-sucedido.
type Notifier interface {
	Notify(kind string, message string)
}

// TransactionIntent é a intenção de movimentação vinda da camada de API.
type TransactionIntent struct {
	ProductID string
	Type      domain.TransactionType
	Quantity  int
	Timestamp int64 // epoch millis; zero usa o relógio atual
	UserName  string

	Entry *domain.EntryContext
	Exit  *domain.ExitContext

	Notes       string
	AttendantID string
	UnitPrice   float64 // zero usa o preço cadastrado do produto
}

// Service mantém o snapshot em memória (produtos, histórico, colaboradores)
// e aplica a disciplina de atualização otimista: muta o snapshot de forma
// síncrona, registra a movimentação como Local e dispara a gravação durável
// em segundo plano. Reload é o único mecanismo de reconciliação.
type Service struct {
	productRepo domain.ProductRepository
	txRepo      domain.TransactionRepository
	collabRepo  domain.CollaboratorRepository
	logger      logger.Logger
	notifier    Notifier

	mu            sync.Mutex
	products      map[string]domain.Product
	history       []LedgerEntry // mais recente primeiro, como o histórico exibido
	collaborators []domain.Collaborator
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(productRepo domain.ProductRepository, txRepo domain.TransactionRepository,
	collabRepo domain.CollaboratorRepository, log logger.Logger, notifier Notifier) *Service {
	return &Service{
		productRepo: productRepo,
		txRepo:      txRepo,
		collabRepo:  collabRepo,
		logger:      log,
		notifier:    notifier,
		products:    make(map[string]domain.Product),
	}
}

// Reload descarta o snapshot e recarrega tudo do armazenamento durável.
// É invocado após cada operação mutadora para limitar a divergência entre o
// estado otimista e o estado durável. O último reload vence; não há guarda
// de versão ou sequência.
func (s *Service) Reload(ctx context.Context) error {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	transactions, err := s.txRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	collaborators, err := s.collabRepo.FindAllActive(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = make(map[string]domain.Product, len(products))
	for _, p := range products {
		s.products[p.ID] = p
	}
	s.history = make([]LedgerEntry, 0, len(transactions))
	for _, tx := range transactions {
		s.history = append(s.history, LedgerEntry{Tx: tx, State: Confirmed})
	}
	s.collaborators = collaborators

	s.logger.Info("Snapshot recarregado do armazenamento.", map[string]interface{}{
		"products":      len(products),
		"transactions":  len(transactions),
		"collaborators": len(collaborators),
	})
	return nil
}

// RegisterTransaction aplica uma intenção de movimentação.
//
// Validações de negócio: quantidade > 0 (InvalidQuantityError, dentro do
// mutador puro) e, para tipos de saída, quantidade <= estoque disponível
// (InsufficientStockError, regra do chamador, verificada aqui antes de
// invocar o mutador).
//
// A mutação em memória é síncrona; a persistência é disparada em segundo
// plano e nunca é revertida em caso de falha.
func (s *Service) RegisterTransaction(ctx context.Context, intent TransactionIntent) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[intent.ProductID]
	if !ok {
		return domain.Transaction{}, apperror.NewNotFoundError("Produto não encontrado no snapshot: " + intent.ProductID)
	}

	if intent.Type.IsExit() && intent.Quantity > product.Quantity {
		return domain.Transaction{}, apperror.NewInsufficientStockError(product.Name, product.Quantity, intent.Quantity)
	}

	newQty, err := Apply(product.Quantity, intent.Type, intent.Quantity)
	if err != nil {
		return domain.Transaction{}, err
	}

	tx := s.buildTransaction(product, intent)

	// Atualização otimista do snapshot.
	product.Quantity = newQty
	product.LastUpdated = nowMillis()
	s.products[product.ID] = product
	s.history = append([]LedgerEntry{{Tx: tx, State: Local}}, s.history...)

	s.logger.Info("Movimentação registrada (otimista).", map[string]interface{}{
		"transaction_id": tx.ID,
		"product_id":     product.ID,
		"type":           string(tx.Type),
		"quantity":       tx.Quantity,
		"new_quantity":   newQty,
	})

	// Gravação durável em segundo plano (fire-and-forget em relação ao chamador).
	go s.persist(tx, product.ID, newQty, product.LastUpdated)

	return tx, nil
}

// buildTransaction monta o registro imutável a partir da intenção.
// Deve ser chamado com s.mu em posse (consulta o roster de colaboradores).
func (s *Service) buildTransaction(product domain.Product, intent TransactionIntent) domain.Transaction {
	unitPrice := intent.UnitPrice
	if unitPrice == 0 {
		unitPrice = product.Price
	}

	ts := intent.Timestamp
	if ts == 0 {
		ts = nowMillis()
	}

	tx := domain.Transaction{
		ID:              uuid.New().String(),
		ProductID:       product.ID,
		ProductName:     product.Name,
		Type:            intent.Type,
		Quantity:        intent.Quantity,
		Timestamp:       ts,
		UserName:        intent.UserName,
		Entry:           intent.Entry,
		Exit:            intent.Exit,
		Notes:           intent.Notes,
		AttendantID:     intent.AttendantID,
		UnitPrice:       unitPrice,
		TotalValue:      unitPrice * float64(intent.Quantity),
		Tag:             product.Tag,
		EmpresaLocadora: product.EmpresaLocadora,
	}

	if intent.AttendantID != "" {
		for _, c := range s.collaborators {
			if c.IDFun == intent.AttendantID {
				tx.AttendantName = c.Name
				break
			}
		}
	}

	return tx
}

// persist grava a movimentação e o novo saldo do produto. Erros são
// capturados, logados e comunicados via notifier; o estado otimista em
// memória é mantido até o próximo Reload.
func (s *Service) persist(tx domain.Transaction, productID string, quantity int, lastUpdated int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.txRepo.Append(ctx, tx); err != nil {
		s.logger.Error("Falha ao persistir movimentação.", err)
		s.notify("error", "Houve um erro ao sincronizar a movimentação com o banco de dados.")
		return
	}
	if err := s.productRepo.UpdateQuantity(ctx, productID, quantity, lastUpdated); err != nil {
		s.logger.Error("Falha ao persistir saldo do produto.", err)
		s.notify("error", "Houve um erro ao sincronizar o saldo do produto com o banco de dados.")
		return
	}

	s.mu.Lock()
	for i := range s.history {
		if s.history[i].Tx.ID == tx.ID {
			s.history[i].State = Confirmed
			break
		}
	}
	s.mu.Unlock()
}

func (s *Service) notify(kind, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(kind, msg)
	}
}

// Products retorna uma cópia do snapshot de produtos.
func (s *Service) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out
}

// History retorna uma cópia do histórico (mais recente primeiro).
func (s *Service) History() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Transaction, 0, len(s.history))
	for _, e := range s.history {
		out = append(out, e.Tx)
	}
	return out
}

// PendingCount retorna quantas movimentações ainda não foram confirmadas.
func (s *Service) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.history {
		if e.State == Local {
			n++
		}
	}
	return n
}

// Collaborators retorna o roster ativo do snapshot.
func (s *Service) Collaborators() []domain.Collaborator {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Collaborator, len(s.collaborators))
	copy(out, s.collaborators)
	return out
}

// ApplyImportBatch aplica de uma vez o resultado da importação em lote:
// novos produtos, novos colaboradores, novas movimentações e os deltas
// líquidos de estoque acumulados por produto. Os produtos não são mutados
// linha a linha durante a importação; o delta agregado é aplicado aqui.
func (s *Service) ApplyImportBatch(ctx context.Context, newProducts []domain.Product,
	newCollaborators []domain.Collaborator, newTransactions []domain.Transaction,
	stockDeltas map[string]int) error {

	for _, p := range newProducts {
		if _, err := s.productRepo.Save(ctx, p); err != nil {
			return err
		}
	}
	for _, c := range newCollaborators {
		if _, err := s.collabRepo.Save(ctx, c); err != nil {
			return err
		}
	}
	for _, tx := range newTransactions {
		if err := s.txRepo.Append(ctx, tx); err != nil {
			return err
		}
	}

	now := nowMillis()
	for productID, delta := range stockDeltas {
		s.mu.Lock()
		product, ok := s.products[productID]
		if !ok {
			// Produto recém-criado pelo lote ainda não está no snapshot.
			for _, p := range newProducts {
				if p.ID == productID {
					product, ok = p, true
					break
				}
			}
		}
		s.mu.Unlock()
		if !ok {
			continue
		}
		product.Quantity += delta
		product.LastUpdated = now
		if err := s.productRepo.UpdateQuantity(ctx, productID, product.Quantity, now); err != nil {
			return err
		}
		s.mu.Lock()
		s.products[productID] = product
		s.mu.Unlock()
	}

	return s.Reload(ctx)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
