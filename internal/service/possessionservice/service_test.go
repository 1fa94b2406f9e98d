package possessionservice_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"almox/internal/domain"
	"almox/internal/service/possessionservice"
)

func saida(productID, collabID string, qty int, ts int64) domain.Transaction {
	return domain.Transaction{
		ID: productID + "-s", ProductID: productID, ProductName: "Produto " + productID,
		Type: domain.TypeSaida, Quantity: qty, Timestamp: ts,
		Exit: &domain.ExitContext{CollaboratorID: collabID, Requester: "Colab " + collabID},
	}
}

func entrada(productID, collabID string, qty int, ts int64) domain.Transaction {
	return domain.Transaction{
		ID: productID + "-e", ProductID: productID, ProductName: "Produto " + productID,
		Type: domain.TypeEntrada, Quantity: qty, Timestamp: ts,
		Exit: &domain.ExitContext{CollaboratorID: collabID},
	}
}

func baixa(productID, collabID string, qty int, ts int64) domain.Transaction {
	return domain.Transaction{
		ID: productID + "-b", ProductID: productID, ProductName: "Produto " + productID,
		Type: domain.TypeBaixa, Quantity: qty, Timestamp: ts,
		Exit: &domain.ExitContext{CollaboratorID: collabID},
	}
}

var testProducts = []domain.Product{
	{ID: "p1", SKU: "FER-001", Name: "Martelo"},
	{ID: "p2", SKU: "EPI-002", Name: "Capacete"},
}

// TestCollaboratorPossession_SaldoNuncaZera: [saida 5, entrada 2, saida 3]
// acumula 5-2+3 = 6 e mantém o firstWithdrawal original.
func TestCollaboratorPossession_SaldoNuncaZera(t *testing.T) {
	history := []domain.Transaction{
		saida("p1", "C1", 5, 1000),
		entrada("p1", "C1", 2, 2000),
		saida("p1", "C1", 3, 3000),
	}

	items := possessionservice.CollaboratorPossession(history, "C1", testProducts)

	assert.Len(t, items, 1)
	assert.Equal(t, 6, items[0].Quantity)
	assert.Equal(t, int64(1000), items[0].FirstWithdrawal)
}

// TestCollaboratorPossession_ResetAoZerar: quando o saldo chega a zero o
// registro some por completo; a saída seguinte recomeça com firstWithdrawal novo.
func TestCollaboratorPossession_ResetAoZerar(t *testing.T) {
	history := []domain.Transaction{
		saida("p1", "C1", 5, 1000),
		entrada("p1", "C1", 5, 2000),
		saida("p1", "C1", 2, 3000),
	}

	items := possessionservice.CollaboratorPossession(history, "C1", testProducts)

	assert.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(3000), items[0].FirstWithdrawal)
}

// TestCollaboratorPossession_BaixaDesconta: a baixa remove o item da posse.
func TestCollaboratorPossession_BaixaDesconta(t *testing.T) {
	history := []domain.Transaction{
		saida("p1", "C1", 3, 1000),
		baixa("p1", "C1", 3, 2000),
	}

	items := possessionservice.CollaboratorPossession(history, "C1", testProducts)
	assert.Empty(t, items)
}

// TestCollaboratorPossession_Idempotente: duas execuções sobre o mesmo
// histórico produzem saídas idênticas.
func TestCollaboratorPossession_Idempotente(t *testing.T) {
	history := []domain.Transaction{
		saida("p1", "C1", 5, 1000),
		saida("p2", "C1", 1, 1500),
		entrada("p1", "C1", 2, 2000),
	}

	first := possessionservice.CollaboratorPossession(history, "C1", testProducts)
	second := possessionservice.CollaboratorPossession(history, "C1", testProducts)

	assert.Equal(t, first, second)
}

// TestCollaboratorPossession_OrdemDesordenada: o histórico é reordenado por
// timestamp crescente antes do fold.
func TestCollaboratorPossession_OrdemDesordenada(t *testing.T) {
	history := []domain.Transaction{
		saida("p1", "C1", 2, 3000),
		entrada("p1", "C1", 5, 2000),
		saida("p1", "C1", 5, 1000),
	}

	items := possessionservice.CollaboratorPossession(history, "C1", testProducts)

	assert.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(3000), items[0].FirstWithdrawal)
}

// TestCollaboratorPossession_IgnoraOutrosColaboradores: movimentações de
// outros colaboradores não entram no fold.
func TestCollaboratorPossession_IgnoraOutrosColaboradores(t *testing.T) {
	history := []domain.Transaction{
		saida("p1", "C1", 5, 1000),
		saida("p1", "C2", 7, 1100),
	}

	items := possessionservice.CollaboratorPossession(history, "C1", testProducts)

	assert.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

// --- Itens em posse prolongada ---

// TestOverdueItems_DetectaPosseAntiga: saída há mais de 30 dias sem devolução vira alerta.
func TestOverdueItems_DetectaPosseAntiga(t *testing.T) {
	now := time.Now()
	old := now.Add(-40 * 24 * time.Hour).UnixMilli()
	recent := now.Add(-5 * 24 * time.Hour).UnixMilli()

	// histórico mais recente primeiro, como mantido na aplicação
	history := []domain.Transaction{
		saida("p2", "C2", 1, recent),
		saida("p1", "C1", 2, old),
	}

	items := possessionservice.OverdueItems(history, now)

	assert.Len(t, items, 1)
	assert.Equal(t, "C1", items[0].CollaboratorID)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.GreaterOrEqual(t, items[0].DaysHeld, 39)
}

// TestOverdueItems_DevolucaoLimpaAlerta: a devolução integral zera o saldo e
// remove o par colaborador/produto do alerta.
func TestOverdueItems_DevolucaoLimpaAlerta(t *testing.T) {
	now := time.Now()
	old := now.Add(-40 * 24 * time.Hour).UnixMilli()

	history := []domain.Transaction{
		entrada("p1", "C1", 2, old+1000),
		saida("p1", "C1", 2, old),
	}

	items := possessionservice.OverdueItems(history, now)
	assert.Empty(t, items)
}

// TestOverdueItems_BaixaNaoDesconta: diferente do cálculo de posse por
// colaborador, o alerta global não desconta baixas (comportamento consolidado).
func TestOverdueItems_BaixaNaoDesconta(t *testing.T) {
	now := time.Now()
	old := now.Add(-40 * 24 * time.Hour).UnixMilli()

	history := []domain.Transaction{
		baixa("p1", "C1", 2, old+1000),
		saida("p1", "C1", 2, old),
	}

	items := possessionservice.OverdueItems(history, now)
	assert.Len(t, items, 1)
}
