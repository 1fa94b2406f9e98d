package reportservice

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"almox/internal/domain"
	apperror "almox/internal/errors"
)

// Filter delimita o recorte do histórico exportado. Campos vazios não filtram.
type Filter struct {
	CollaboratorID string
	Type           domain.TransactionType
	Category       string
	PeriodDays     int // 0 não limita
}

// ExportHeader é a primeira linha do arquivo exportado.
const ExportHeader = "Data,Código,Tipo,Produto,SKU,TAG,Locadora,Quantidade,Solicitante,Atendente"

// Row é uma linha já achatada do relatório, também usada na releitura do arquivo.
type Row struct {
	Date        string `json:"date"` // DD/MM/AAAA
	ShortID     string `json:"short_id"`
	TypeLabel   string `json:"type_label"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Tag         string `json:"tag"`
	Locadora    string `json:"locadora"`
	Quantity    int    `json:"quantity"`
	Requester   string `json:"requester"`
	Attendant   string `json:"attendant"`
}

// FilterHistory aplica os filtros e devolve o recorte do mais recente para o
// mais antigo. O histórico de entrada não é mutado.
func FilterHistory(history []domain.Transaction, products []domain.Product, f Filter, now time.Time) []domain.Transaction {
	categoryByProduct := make(map[string]string, len(products))
	for _, p := range products {
		categoryByProduct[p.ID] = p.Category
	}

	var limit int64
	if f.PeriodDays > 0 {
		limit = now.Add(-time.Duration(f.PeriodDays) * 24 * time.Hour).UnixMilli()
	}

	var out []domain.Transaction
	for _, t := range history {
		if f.CollaboratorID != "" && t.CollaboratorID() != f.CollaboratorID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Category != "" && categoryByProduct[t.ProductID] != f.Category {
			continue
		}
		if limit > 0 && t.Timestamp < limit {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// ExportCSV achata o recorte no formato do relatório: todas as células entre
// aspas, data em DD/MM/AAAA, id encurtado para 8 caracteres e atendente "-"
// quando ausente. A precisão abaixo de um dia se perde na formatação da data.
func ExportCSV(history []domain.Transaction, products []domain.Product) string {
	skuByProduct := make(map[string]string, len(products))
	for _, p := range products {
		skuByProduct[p.ID] = p.SKU
	}

	var b strings.Builder
	b.WriteString(ExportHeader)
	b.WriteString("\n")

	for i, t := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		shortID := t.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		attendant := t.AttendantName
		if attendant == "" {
			attendant = "-"
		}
		cells := []string{
			time.UnixMilli(t.Timestamp).Format("02/01/2006"),
			shortID,
			t.Type.Label(),
			t.ProductName,
			skuByProduct[t.ProductID],
			t.Tag,
			t.EmpresaLocadora,
			strconv.Itoa(t.Quantity),
			t.Requester(),
			attendant,
		}
		for j, c := range cells {
			if j > 0 {
				b.WriteString(",")
			}
			b.WriteString(`"` + strings.ReplaceAll(c, `"`, `""`) + `"`)
		}
	}
	return b.String()
}

// ParseCSV relê um arquivo exportado. Quantidade, tipo e nome do produto são
// recuperados sem perda; o timestamp volta com precisão de dia.
func ParseCSV(content string) ([]Row, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = 10

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperror.NewValidationError("relatório malformado: " + err.Error())
	}
	if len(records) == 0 {
		return nil, apperror.NewValidationError("relatório vazio")
	}
	if strings.Join(records[0], ",") != ExportHeader {
		return nil, apperror.NewValidationError("cabeçalho de relatório não reconhecido")
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		qty, err := strconv.Atoi(rec[7])
		if err != nil {
			return nil, apperror.NewValidationError(fmt.Sprintf("linha %d: quantidade inválida (%s)", i+2, rec[7]))
		}
		rows = append(rows, Row{
			Date:        rec[0],
			ShortID:     rec[1],
			TypeLabel:   rec[2],
			ProductName: rec[3],
			SKU:         rec[4],
			Tag:         rec[5],
			Locadora:    rec[6],
			Quantity:    qty,
			Requester:   rec[8],
			Attendant:   rec[9],
		})
	}
	return rows, nil
}
