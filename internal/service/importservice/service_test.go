package importservice_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"almox/internal/domain"
	"almox/internal/service/importservice"
)

const validHeader = "data,codigo_movimentacao,tipo_movimentacao,sku_material,nome_material,tipo,empresa,quantidade,id_colaborador,nome_colab,funcao,contrato"

func newSession(t *testing.T, rows ...string) *importservice.Session {
	t.Helper()
	content := validHeader + "\n" + strings.Join(rows, "\n")
	s, err := importservice.NewSession(strings.NewReader(content))
	assert.NoError(t, err)
	return s
}

// TestNewSession_ColunaFaltando: cabeçalho incompleto aborta antes de
// qualquer processamento, nomeando as colunas ausentes.
func TestNewSession_ColunaFaltando(t *testing.T) {
	content := "data,codigo_movimentacao,quantidade\n01/10/2023,MOV-1,Entrada"
	_, err := importservice.NewSession(strings.NewReader(content))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sku_material")
}

// TestNewSession_ArquivoVazio rejeita arquivo sem linhas de dados.
func TestNewSession_ArquivoVazio(t *testing.T) {
	_, err := importservice.NewSession(strings.NewReader(validHeader))
	assert.Error(t, err)
}

// TestNewSession_CabecalhoForaDeOrdem: a validação é por nome, não por posição.
func TestNewSession_CabecalhoForaDeOrdem(t *testing.T) {
	content := "quantidade,data,codigo_movimentacao,tipo_movimentacao,sku_material,nome_material,tipo,empresa,id_colaborador,nome_colab,funcao,contrato\n" +
		"10,01/10/2023,MOV-1,Entrada,FER-001,Martelo,Ferramentas,ACME,,,,"
	s, err := importservice.NewSession(strings.NewReader(content))
	assert.NoError(t, err)

	result, err := s.Process(context.Background(), importservice.PolicyImportAnyway, nil, nil, map[string]struct{}{}, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Stats.SuccessCount)
	assert.Equal(t, 10, result.NewTransactions[0].Quantity)
}

// TestHasConflicts detecta interseção de códigos com o histórico.
func TestHasConflicts(t *testing.T) {
	s := newSession(t, "01/10/2023,MOV-1,Entrada,FER-001,Martelo,Ferramentas,ACME,10,,,,")

	assert.True(t, s.HasConflicts(map[string]struct{}{"MOV-1": {}}))
	assert.Equal(t, importservice.StepConflict, s.Step())

	s2 := newSession(t, "01/10/2023,MOV-9,Entrada,FER-001,Martelo,Ferramentas,ACME,10,,,,")
	assert.False(t, s2.HasConflicts(map[string]struct{}{"MOV-1": {}}))
}

// TestProcess_PularDuplicados: na política skip o código repetido não gera
// transação, só um registro no log; sem ela ambos entram.
func TestProcess_PularDuplicados(t *testing.T) {
	existing := map[string]struct{}{"MOV-1": {}}
	rows := []string{
		"01/10/2023,MOV-1,Entrada,FER-001,Martelo,Ferramentas,ACME,10,,,,",
		"02/10/2023,MOV-2,Entrada,FER-001,Martelo,Ferramentas,ACME,5,,,,",
	}

	s := newSession(t, rows...)
	result, err := s.Process(context.Background(), importservice.PolicySkipDuplicates, nil, nil, existing, time.Now())
	assert.NoError(t, err)
	assert.Len(t, result.NewTransactions, 1)
	assert.Equal(t, "MOV-2", result.NewTransactions[0].OriginalTransactionCode)
	assert.Contains(t, strings.Join(result.Logs, "\n"), "duplicado")

	s2 := newSession(t, rows...)
	result2, err := s2.Process(context.Background(), importservice.PolicyImportAnyway, nil, nil, existing, time.Now())
	assert.NoError(t, err)
	assert.Len(t, result2.NewTransactions, 2)
}

// TestProcess_UmProdutoPorSKU: linhas repetindo o mesmo SKU desconhecido
// sintetizam um único produto e acumulam o delta líquido assinado.
func TestProcess_UmProdutoPorSKU(t *testing.T) {
	s := newSession(t,
		"01/10/2023,MOV-1,Entrada,NOVO-01,Chave,Ferramentas,ACME,10,,,,",
		"02/10/2023,MOV-2,Saída,NOVO-01,Chave,Ferramentas,,3,1020,Maria,Almoxarife,CLT",
		"03/10/2023,MOV-3,Saída,NOVO-01,Chave,Ferramentas,,2,1020,Maria,Almoxarife,CLT",
	)

	result, err := s.Process(context.Background(), importservice.PolicyImportAnyway, nil, nil, map[string]struct{}{}, time.Now())

	assert.NoError(t, err)
	assert.Len(t, result.NewProducts, 1)
	prod := result.NewProducts[0]
	assert.Equal(t, 0, prod.Quantity)
	assert.True(t, prod.IsAutoMinStock)
	assert.Equal(t, domain.UnitUn, prod.Unit)
	assert.Equal(t, "Importado automaticamente", prod.Description)
	assert.Equal(t, 5, result.StockAdjustments[prod.ID]) // 10 - 3 - 2
}

// TestProcess_ProdutoExistenteResolvidoPorSKU: SKU do catálogo não sintetiza produto.
func TestProcess_ProdutoExistenteResolvidoPorSKU(t *testing.T) {
	catalog := []domain.Product{{ID: "p1", SKU: "FER-001", Name: "Martelo"}}
	s := newSession(t, "01/10/2023,MOV-1,Entrada,fer-001,Martelo,Ferramentas,ACME,10,,,,")

	result, err := s.Process(context.Background(), importservice.PolicyImportAnyway, catalog, nil, map[string]struct{}{}, time.Now())

	assert.NoError(t, err)
	assert.Empty(t, result.NewProducts)
	assert.Equal(t, "p1", result.NewTransactions[0].ProductID)
	assert.Equal(t, 10, result.StockAdjustments["p1"])
}

// TestProcess_SintetizaColaborador: saída com colaborador desconhecido cria o
// colaborador uma única vez, com os padrões para campos vazios.
func TestProcess_SintetizaColaborador(t *testing.T) {
	s := newSession(t,
		"01/10/2023,MOV-1,Saída,FER-001,Martelo,Ferramentas,,2,1020,,,",
		"02/10/2023,MOV-2,Saída,FER-001,Martelo,Ferramentas,,1,1020,,,",
	)

	result, err := s.Process(context.Background(), importservice.PolicyImportAnyway, nil, nil, map[string]struct{}{}, time.Now())

	assert.NoError(t, err)
	assert.Len(t, result.NewCollaborators, 1)
	c := result.NewCollaborators[0]
	assert.Equal(t, "1020", c.IDFun)
	assert.Equal(t, "Desconhecido", c.Name)
	assert.Equal(t, "Indefinido", c.Role)
	assert.Equal(t, "Indefinido", c.Contract)
}

// TestProcess_SaidaSemColaboradorGeraAviso: aviso não fatal, a linha entra.
func TestProcess_SaidaSemColaboradorGeraAviso(t *testing.T) {
	s := newSession(t, "01/10/2023,MOV-1,Saída,FER-001,Martelo,Ferramentas,,2,,,,")

	result, err := s.Process(context.Background(), importservice.PolicyImportAnyway, nil, nil, map[string]struct{}{}, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Stats.SuccessCount)
	assert.Contains(t, strings.Join(result.Logs, "\n"), "sem ID de colaborador")
}

// TestProcess_FormatosDeData: DD/MM/AAAA e ISO são aceitos; lixo é erro de linha.
func TestProcess_FormatosDeData(t *testing.T) {
	s := newSession(t,
		"15/03/2024,MOV-1,Entrada,FER-001,Martelo,Ferramentas,ACME,1,,,,",
		"2024-03-16,MOV-2,Entrada,FER-001,Martelo,Ferramentas,ACME,1,,,,",
		"16/77/2024,MOV-3,Entrada,FER-001,Martelo,Ferramentas,ACME,1,,,,",
	)

	result, err := s.Process(context.Background(), importservice.PolicyImportAnyway, nil, nil, map[string]struct{}{}, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Stats.SuccessCount)
	assert.Equal(t, 1, result.Stats.ErrorCount)
	expected := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local).UnixMilli()
	assert.Equal(t, expected, result.NewTransactions[0].Timestamp)
}

// TestProcess_TipoDesconhecidoViraSaida: tudo que não é "entrada" é saída.
func TestProcess_TipoDesconhecidoViraSaida(t *testing.T) {
	s := newSession(t, "01/10/2023,MOV-1,Transferência,FER-001,Martelo,Ferramentas,,2,1020,Maria,Almoxarife,CLT")

	result, err := s.Process(context.Background(), importservice.PolicyImportAnyway, nil, nil, map[string]struct{}{}, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, domain.TypeSaida, result.NewTransactions[0].Type)
}

// TestProcess_QuantidadeInvalida: não numérica, não positiva ou fracionária
// rejeita a linha.
func TestProcess_QuantidadeInvalida(t *testing.T) {
	s := newSession(t,
		"01/10/2023,MOV-1,Entrada,FER-001,Martelo,Ferramentas,ACME,abc,,,,",
		"02/10/2023,MOV-2,Entrada,FER-001,Martelo,Ferramentas,ACME,0,,,,",
		"03/10/2023,MOV-3,Entrada,FER-001,Martelo,Ferramentas,ACME,-4,,,,",
		"04/10/2023,MOV-4,Entrada,FER-001,Martelo,Ferramentas,ACME,2.5,,,,",
	)

	result, err := s.Process(context.Background(), importservice.PolicyImportAnyway, nil, nil, map[string]struct{}{}, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, 0, result.Stats.SuccessCount)
	assert.Equal(t, 4, result.Stats.ErrorCount)
	assert.Empty(t, result.NewTransactions)
}

// TestProcess_DadosIncompletos: código, SKU ou quantidade em branco rejeitam a linha.
func TestProcess_DadosIncompletos(t *testing.T) {
	s := newSession(t,
		"01/10/2023,,Entrada,FER-001,Martelo,Ferramentas,ACME,2,,,,",
		"02/10/2023,MOV-2,Entrada,,Martelo,Ferramentas,ACME,2,,,,",
	)

	result, err := s.Process(context.Background(), importservice.PolicyImportAnyway, nil, nil, map[string]struct{}{}, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Stats.ErrorCount)
	assert.Empty(t, result.NewTransactions)
}

// TestProcess_ContextoDaTransacao: entrada carrega fornecedor; saída carrega
// solicitante e vínculo com o colaborador.
func TestProcess_ContextoDaTransacao(t *testing.T) {
	s := newSession(t,
		"01/10/2023,MOV-1,Entrada,FER-001,Martelo,Ferramentas,Ferragens Silva,10,,,,",
		"02/10/2023,MOV-2,Saída,FER-001,Martelo,Ferramentas,,1,1020,Maria Silva,Almoxarife,CLT",
	)

	result, err := s.Process(context.Background(), importservice.PolicyImportAnyway, nil, nil, map[string]struct{}{}, time.Now())
	assert.NoError(t, err)

	entrada := result.NewTransactions[0]
	assert.NotNil(t, entrada.Entry)
	assert.Equal(t, "Ferragens Silva", entrada.Entry.Supplier)
	assert.Equal(t, "Importação", entrada.UserName)

	saida := result.NewTransactions[1]
	assert.NotNil(t, saida.Exit)
	assert.Equal(t, "Maria Silva", saida.Exit.Requester)
	assert.Equal(t, "Almoxarife", saida.Exit.Department)
	assert.Equal(t, "1020", saida.Exit.CollaboratorID)
	assert.Equal(t, "CLT", saida.Exit.CollaboratorContract)
}

// TestProcess_Cancelamento: contexto cancelado interrompe entre linhas.
func TestProcess_Cancelamento(t *testing.T) {
	s := newSession(t, "01/10/2023,MOV-1,Entrada,FER-001,Martelo,Ferramentas,ACME,1,,,,")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Process(ctx, importservice.PolicyImportAnyway, nil, nil, map[string]struct{}{}, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

// TestTemplate: o modelo traz o cabeçalho completo e exemplos dos dois tipos.
func TestTemplate(t *testing.T) {
	tpl := importservice.Template()
	assert.True(t, strings.HasPrefix(tpl, validHeader))
	assert.Contains(t, tpl, "Entrada")
	assert.Contains(t, tpl, "Saída")
}
