package reportservice_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"almox/internal/domain"
	"almox/internal/service/reportservice"
)

var reportProducts = []domain.Product{
	{ID: "p1", SKU: "FER-001", Name: "Martelo", Category: "Ferramentas"},
	{ID: "p2", SKU: "EPI-002", Name: "Capacete", Category: "EPIs"},
}

func reportTx(id, productID string, txType domain.TransactionType, qty int, ts int64, collabID string) domain.Transaction {
	t := domain.Transaction{
		ID: id, ProductID: productID, ProductName: "Produto " + productID,
		Type: txType, Quantity: qty, Timestamp: ts, AttendantName: "Ana",
	}
	if collabID != "" {
		t.Exit = &domain.ExitContext{CollaboratorID: collabID, Requester: "Colab " + collabID}
	}
	return t
}

// TestFilterHistory_Filtros: colaborador, tipo, categoria e janela de dias
// restringem o recorte; o resultado sai do mais recente para o mais antigo.
func TestFilterHistory_Filtros(t *testing.T) {
	now := time.Now()
	recent := now.Add(-2 * 24 * time.Hour).UnixMilli()
	old := now.Add(-90 * 24 * time.Hour).UnixMilli()

	history := []domain.Transaction{
		reportTx("t1", "p1", domain.TypeSaida, 2, old, "C1"),
		reportTx("t2", "p1", domain.TypeSaida, 1, recent, "C1"),
		reportTx("t3", "p2", domain.TypeEntrada, 5, recent, ""),
	}

	byCollab := reportservice.FilterHistory(history, reportProducts, reportservice.Filter{CollaboratorID: "C1"}, now)
	assert.Len(t, byCollab, 2)
	assert.Equal(t, "t2", byCollab[0].ID) // mais recente primeiro

	byType := reportservice.FilterHistory(history, reportProducts, reportservice.Filter{Type: domain.TypeEntrada}, now)
	assert.Len(t, byType, 1)
	assert.Equal(t, "t3", byType[0].ID)

	byCategory := reportservice.FilterHistory(history, reportProducts, reportservice.Filter{Category: "EPIs"}, now)
	assert.Len(t, byCategory, 1)

	byPeriod := reportservice.FilterHistory(history, reportProducts, reportservice.Filter{PeriodDays: 30}, now)
	assert.Len(t, byPeriod, 2)
}

// TestExportCSV_Formato: cabeçalho fixo, células entre aspas, id curto,
// rótulo localizado e atendente "-" quando ausente.
func TestExportCSV_Formato(t *testing.T) {
	ts := time.Date(2026, 3, 15, 14, 30, 0, 0, time.Local).UnixMilli()
	tx := reportTx("abcdef1234567890", "p1", domain.TypeSaida, 3, ts, "C1")
	tx.AttendantName = ""

	out := reportservice.ExportCSV([]domain.Transaction{tx}, reportProducts)
	lines := strings.Split(out, "\n")

	assert.Equal(t, reportservice.ExportHeader, lines[0])
	assert.Contains(t, lines[1], `"15/03/2026"`)
	assert.Contains(t, lines[1], `"abcdef12"`)
	assert.Contains(t, lines[1], `"Saída"`)
	assert.Contains(t, lines[1], `"FER-001"`)
	assert.Contains(t, lines[1], `"-"`)
}

// TestExportCSV_RotulosDeTipo: devolução ao fornecedor também sai como "Saída".
func TestExportCSV_RotulosDeTipo(t *testing.T) {
	ts := time.Now().UnixMilli()
	history := []domain.Transaction{
		reportTx("t1", "p1", domain.TypeEntrada, 1, ts, ""),
		reportTx("t2", "p1", domain.TypeBaixa, 1, ts, "C1"),
		reportTx("t3", "p1", domain.TypeDevolucaoFornecedor, 1, ts, ""),
	}

	out := reportservice.ExportCSV(history, reportProducts)

	assert.Contains(t, out, `"Entrada"`)
	assert.Contains(t, out, `"Baixa"`)
	assert.Contains(t, out, `"Saída"`)
}

// TestRoundTrip: exportar e reler recupera quantidade, tipo e nome do produto
// sem perda; o horário perde a precisão abaixo de um dia.
func TestRoundTrip(t *testing.T) {
	ts := time.Date(2026, 7, 10, 9, 45, 0, 0, time.Local).UnixMilli()
	history := []domain.Transaction{
		reportTx("t1", "p1", domain.TypeSaida, 4, ts, "C1"),
		reportTx("t2", "p2", domain.TypeEntrada, 7, ts, ""),
	}

	out := reportservice.ExportCSV(history, reportProducts)
	rows, err := reportservice.ParseCSV(out)

	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 4, rows[0].Quantity)
	assert.Equal(t, "Saída", rows[0].TypeLabel)
	assert.Equal(t, "Produto p1", rows[0].ProductName)
	assert.Equal(t, "10/07/2026", rows[0].Date)
	assert.Equal(t, 7, rows[1].Quantity)
	assert.Equal(t, "Entrada", rows[1].TypeLabel)
}

// TestRoundTrip_CelulaComVirgulaEAspas: células com vírgula e aspas internas
// sobrevivem à releitura.
func TestRoundTrip_CelulaComVirgulaEAspas(t *testing.T) {
	ts := time.Now().UnixMilli()
	tx := reportTx("t1", "p1", domain.TypeSaida, 1, ts, "C1")
	tx.ProductName = `Chave "Philips", 3mm`

	out := reportservice.ExportCSV([]domain.Transaction{tx}, reportProducts)
	rows, err := reportservice.ParseCSV(out)

	assert.NoError(t, err)
	assert.Equal(t, `Chave "Philips", 3mm`, rows[0].ProductName)
}

// TestParseCSV_CabecalhoErrado rejeita arquivos de outra origem.
func TestParseCSV_CabecalhoErrado(t *testing.T) {
	_, err := reportservice.ParseCSV("a,b,c\n1,2,3")
	assert.Error(t, err)
}
