package importservice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"almox/internal/domain"
	apperror "almox/internal/errors"
)

// Step é o estado da sessão de importação. O fluxo é linear com um único
// desvio condicional: upload -> preview -> (conflict) -> processing -> summary.
type Step string

const (
	StepUpload     Step = "upload"
	StepPreview    Step = "preview"
	StepConflict   Step = "conflict"
	StepProcessing Step = "processing"
	StepSummary    Step = "summary"
)

// DuplicatePolicy decide o destino de linhas cujo código já existe no histórico.
type DuplicatePolicy string

const (
	PolicySkipDuplicates DuplicatePolicy = "skip"
	PolicyImportAnyway   DuplicatePolicy = "overwrite"
)

// RequiredHeaders são as 12 colunas obrigatórias do arquivo, em qualquer
// ordem, sem distinção de maiúsculas.
var RequiredHeaders = []string{
	"data", "codigo_movimentacao", "tipo_movimentacao",
	"sku_material", "nome_material", "tipo", "empresa",
	"quantidade", "id_colaborador", "nome_colab", "funcao", "contrato",
}

// Session é uma importação em andamento. Nunca é compartilhada entre
// goroutines; todo o processamento é sequencial, linha a linha.
type Session struct {
	step     Step
	headers  []string
	colIndex map[string]int
	rows     [][]string
}

// Stats são os contadores exibidos no resumo final.
type Stats struct {
	TotalRows        int `json:"total_rows"`
	SuccessCount     int `json:"success_count"`
	ErrorCount       int `json:"error_count"`
	NewProducts      int `json:"new_products"`
	NewCollaborators int `json:"new_collaborators"`
	Entries          int `json:"entries"`
	Exits            int `json:"exits"`
}

// Result é o lote completo produzido pela importação. Os produtos não são
// mutados linha a linha: StockAdjustments acumula o delta líquido por produto
// e quem chama aplica tudo de uma vez.
type Result struct {
	NewTransactions  []domain.Transaction `json:"new_transactions"`
	NewProducts      []domain.Product     `json:"new_products"`
	NewCollaborators []domain.Collaborator `json:"new_collaborators"`
	StockAdjustments map[string]int       `json:"stock_adjustments"`
	Stats            Stats                `json:"stats"`
	Logs             []string             `json:"logs"`
}

// NewSession lê e valida o arquivo delimitado. Falhas de arquivo (vazio,
// cabeçalhos faltando) abortam aqui, antes de qualquer efeito colateral.
func NewSession(r io.Reader) (*Session, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperror.NewValidationError("falha ao ler o arquivo: " + err.Error())
	}
	if len(lines) < 2 {
		return nil, apperror.NewValidationError("arquivo vazio ou sem dados")
	}

	headers := splitRow(strings.ToLower(lines[0]))
	colIndex := make(map[string]int, len(headers))
	for i, h := range headers {
		colIndex[h] = i
	}

	var missing []string
	for _, h := range RequiredHeaders {
		if _, ok := colIndex[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, apperror.NewValidationError("arquivo inválido, colunas faltando: " + strings.Join(missing, ", "))
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, splitRow(line))
	}

	return &Session{step: StepPreview, headers: headers, colIndex: colIndex, rows: rows}, nil
}

// splitRow quebra uma linha por vírgula, removendo espaços e aspas envolventes.
// Vírgulas dentro de aspas não são suportadas, como no formato de origem.
func splitRow(line string) []string {
	cells := strings.Split(line, ",")
	for i, c := range cells {
		c = strings.TrimSpace(c)
		c = strings.TrimPrefix(c, `"`)
		c = strings.TrimSuffix(c, `"`)
		cells[i] = c
	}
	return cells
}

func (s *Session) Step() Step        { return s.step }
func (s *Session) RowCount() int     { return len(s.rows) }
func (s *Session) Headers() []string { return s.headers }

// Preview devolve as primeiras n linhas para conferência, sem validação semântica.
func (s *Session) Preview(n int) [][]string {
	if n > len(s.rows) {
		n = len(s.rows)
	}
	return s.rows[:n]
}

func (s *Session) cell(row []string, header string) string {
	idx := s.colIndex[header]
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

// HasConflicts verifica se algum código do arquivo já existe no histórico.
// Havendo interseção a sessão vai para o passo de conflito, onde o usuário
// escolhe a política; sem interseção segue direto para o processamento.
func (s *Session) HasConflicts(existingCodes map[string]struct{}) bool {
	for _, row := range s.rows {
		code := s.cell(row, "codigo_movimentacao")
		if _, ok := existingCodes[code]; ok && code != "" {
			s.step = StepConflict
			return true
		}
	}
	return false
}

// Process percorre as linhas sequencialmente e monta o lote. Erros de linha
// são sempre recuperados (linha pulada, contada e registrada no log); nenhuma
// falha de linha aborta o lote. Entre linhas o contexto é checado, permitindo
// cancelamento cooperativo.
func (s *Session) Process(
	ctx context.Context,
	policy DuplicatePolicy,
	products []domain.Product,
	collaborators []domain.Collaborator,
	existingCodes map[string]struct{},
	now time.Time,
) (*Result, error) {
	s.step = StepProcessing

	result := &Result{StockAdjustments: make(map[string]int)}
	result.Stats.TotalRows = len(s.rows)

	productBySKU := make(map[string]string, len(products))
	for _, p := range products {
		if p.SKU != "" {
			productBySKU[strings.ToLower(p.SKU)] = p.ID
		}
	}
	sessionProducts := make(map[string]string)

	knownCollabs := make(map[string]struct{}, len(collaborators))
	for _, c := range collaborators {
		knownCollabs[strings.ToLower(c.IDFun)] = struct{}{}
	}
	sessionCollabs := make(map[string]struct{})

	logf := func(format string, args ...any) {
		result.Logs = append(result.Logs, fmt.Sprintf(format, args...))
	}

	for i, row := range s.rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo := i + 2 // linha do arquivo, contando o cabeçalho

		code := s.cell(row, "codigo_movimentacao")
		sku := s.cell(row, "sku_material")
		qtyStr := s.cell(row, "quantidade")

		if code == "" || sku == "" || qtyStr == "" {
			logf("Linha %d: Ignorada (Dados incompletos)", lineNo)
			result.Stats.ErrorCount++
			continue
		}

		if _, dup := existingCodes[code]; dup && policy == PolicySkipDuplicates {
			logf("Linha %d: Pulada (Código duplicado: %s)", lineNo, code)
			continue
		}

		timestamp, err := parseRowDate(s.cell(row, "data"), now)
		if err != nil {
			logf("Linha %d: Erro - Data inválida (%s)", lineNo, s.cell(row, "data"))
			result.Stats.ErrorCount++
			continue
		}
		if timestamp > now.UnixMilli() {
			logf("Linha %d: Aviso - Data futura detectada", lineNo)
		}

		// Tudo que não for literalmente "entrada" vira saída.
		txType := domain.TypeSaida
		if strings.EqualFold(s.cell(row, "tipo_movimentacao"), "entrada") {
			txType = domain.TypeEntrada
		}

		// Quantidade fracionária não é representável no estoque; a linha é
		// rejeitada em vez de truncada silenciosamente.
		qtyF, err := strconv.ParseFloat(qtyStr, 64)
		if err != nil || qtyF <= 0 || qtyF != math.Trunc(qtyF) {
			logf("Linha %d: Erro - Quantidade inválida", lineNo)
			result.Stats.ErrorCount++
			continue
		}
		qty := int(qtyF)

		prodName := s.cell(row, "nome_material")
		skuKey := strings.ToLower(sku)
		productID, found := productBySKU[skuKey]
		if !found {
			productID, found = sessionProducts[skuKey]
		}
		if !found {
			productID = uuid.NewString()
			name := prodName
			if name == "" {
				name = "Produto " + sku
			}
			category := s.cell(row, "tipo")
			if category == "" {
				category = "Outros"
			}
			result.NewProducts = append(result.NewProducts, domain.Product{
				ID:             productID,
				SKU:            sku,
				Name:           name,
				Category:       category,
				Quantity:       0, // o delta líquido é aplicado pelo chamador
				MinStock:       0,
				IsAutoMinStock: true,
				Unit:           domain.UnitUn,
				Description:    "Importado automaticamente",
				LastUpdated:    timestamp,
			})
			sessionProducts[skuKey] = productID
			result.Stats.NewProducts++
		}

		colabID := s.cell(row, "id_colaborador")
		colabName := s.cell(row, "nome_colab")
		colabRole := s.cell(row, "funcao")
		colabContract := s.cell(row, "contrato")

		if txType == domain.TypeSaida && colabID != "" {
			colabKey := strings.ToLower(colabID)
			_, known := knownCollabs[colabKey]
			if !known {
				_, known = sessionCollabs[colabKey]
			}
			if !known {
				name := colabName
				if name == "" {
					name = "Desconhecido"
				}
				role := colabRole
				if role == "" {
					role = "Indefinido"
				}
				contract := colabContract
				if contract == "" {
					contract = "Indefinido"
				}
				result.NewCollaborators = append(result.NewCollaborators, domain.Collaborator{
					ID:       uuid.NewString(),
					IDFun:    colabID,
					Name:     name,
					Role:     role,
					Contract: contract,
					Active:   true,
				})
				sessionCollabs[colabKey] = struct{}{}
				result.Stats.NewCollaborators++
			}
		} else if txType == domain.TypeSaida && colabID == "" {
			logf("Linha %d: Aviso - Saída sem ID de colaborador", lineNo)
		}

		txProdName := prodName
		if txProdName == "" {
			txProdName = "Produto Importado"
		}
		tx := domain.Transaction{
			ID:                      uuid.NewString(),
			ProductID:               productID,
			ProductName:             txProdName,
			Type:                    txType,
			Quantity:                qty,
			Timestamp:               timestamp,
			UserName:                "Importação",
			OriginalTransactionCode: code,
		}
		if txType == domain.TypeEntrada {
			tx.Entry = &domain.EntryContext{Supplier: s.cell(row, "empresa")}
		}
		if colabID != "" || txType == domain.TypeSaida {
			tx.Exit = &domain.ExitContext{
				Requester:            colabName,
				Department:           colabRole,
				CollaboratorID:       colabID,
				CollaboratorRole:     colabRole,
				CollaboratorContract: colabContract,
			}
		}
		result.NewTransactions = append(result.NewTransactions, tx)

		if txType == domain.TypeEntrada {
			result.StockAdjustments[productID] += qty
			result.Stats.Entries++
		} else {
			result.StockAdjustments[productID] -= qty
			result.Stats.Exits++
		}
		result.Stats.SuccessCount++
	}

	s.step = StepSummary
	return result, nil
}

// parseRowDate aceita DD/MM/AAAA e ISO (AAAA-MM-DD, com ou sem hora). Data em
// branco assume o momento da importação.
func parseRowDate(raw string, now time.Time) (int64, error) {
	if raw == "" {
		return now.UnixMilli(), nil
	}
	if strings.Contains(raw, "/") {
		t, err := time.ParseInLocation("02/01/2006", raw, time.Local)
		if err != nil {
			return 0, err
		}
		return t.UnixMilli(), nil
	}
	if strings.Contains(raw, "-") {
		if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
			return t.UnixMilli(), nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return 0, err
		}
		return t.UnixMilli(), nil
	}
	return 0, fmt.Errorf("formato de data não reconhecido: %s", raw)
}

// Template devolve um arquivo de exemplo com o cabeçalho esperado e duas
// linhas ilustrativas, uma entrada e uma saída.
func Template() string {
	var b strings.Builder
	b.WriteString(strings.Join(RequiredHeaders, ","))
	b.WriteString("\n01/10/2023,MOV-1001,Entrada,FER-001,Martelo,Ferramentas,Ferragens Silva,10,,,,\n")
	b.WriteString("05/10/2023,MOV-1002,Saída,FER-001,Martelo,Ferramentas,,1,1020,Maria Silva,Almoxarife,CLT\n")
	return b.String()
}
