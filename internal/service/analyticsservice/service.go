package analyticsservice

import (
	"fmt"
	"sort"
	"time"

	"almox/internal/domain"
	apperror "almox/internal/errors"
)

// Period é o recorte de tempo da comparação.
type Period string

const (
	PeriodLastMonth   Period = "last_month"
	PeriodLast3Months Period = "last_3_months"
	PeriodLast6Months Period = "last_6_months"
	PeriodLastYear    Period = "last_year"
	PeriodCustom      Period = "custom"
)

// Filter delimita a comparação: período mais filtros opcionais de categoria
// e produto. MonthA e MonthB ("AAAA-MM") só valem para o período custom.
type Filter struct {
	Period    Period
	MonthA    string
	MonthB    string
	Category  string // vazio compara todas
	ProductID string // vazio compara todos
}

type TopProduct struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

type TopCategory struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Percent  float64 `json:"percent"`
}

type TopCollaborator struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Exits int    `json:"exits"` // contagem de eventos de saída, não quantidade
}

type DayBucket struct {
	Entries int `json:"entries"`
	Exits   int `json:"exits"`
}

// PeriodStats é o consolidado de um único período.
type PeriodStats struct {
	TotalEntries    int              `json:"total_entries"`
	TotalExits      int              `json:"total_exits"`
	TotalMovements  int              `json:"total_movements"`
	TopProducts     []TopProduct     `json:"top_products"`
	TopCategories   []TopCategory    `json:"top_categories"`
	TopCollaborator *TopCollaborator `json:"top_collaborator,omitempty"`
	// Daily indexa por dia do mês (1..31); o índice 0 nunca é usado.
	Daily [32]DayBucket `json:"daily"`
}

type Variance struct {
	Movements float64 `json:"movements"`
	Entries   float64 `json:"entries"`
	Exits     float64 `json:"exits"`
}

// Comparison é o resultado completo: dois períodos e a variação entre eles.
type Comparison struct {
	Current  PeriodStats `json:"current"`
	Previous PeriodStats `json:"previous"`
	LabelA   string      `json:"label_a"`
	LabelB   string      `json:"label_b"`
	Variance Variance    `json:"variance"`
}

// Compare recalcula os dois períodos a partir do histórico bruto a cada
// chamada. É um scan O(n) por leitura, sem agregados incrementais.
func Compare(history []domain.Transaction, products []domain.Product, f Filter, now time.Time) (Comparison, error) {
	categoryByProduct := make(map[string]string, len(products))
	for _, p := range products {
		categoryByProduct[p.ID] = p.Category
	}

	var startA, endA, startB, endB time.Time
	var labelA, labelB string

	if f.Period == PeriodCustom {
		monthA, err := time.Parse("2006-01", f.MonthA)
		if err != nil {
			return Comparison{}, apperror.NewValidationError("mês inválido para comparação: " + f.MonthA)
		}
		monthB, err := time.Parse("2006-01", f.MonthB)
		if err != nil {
			return Comparison{}, apperror.NewValidationError("mês inválido para comparação: " + f.MonthB)
		}
		startA, endA = monthA, monthA.AddDate(0, 1, 0)
		startB, endB = monthB, monthB.AddDate(0, 1, 0)
		labelA = fmt.Sprintf("%02d/%d", monthA.Month(), monthA.Year())
		labelB = fmt.Sprintf("%02d/%d", monthB.Month(), monthB.Year())
	} else {
		monthStart := func(offset int) time.Time {
			return time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, now.Location())
		}
		switch f.Period {
		case PeriodLastMonth:
			startA, startB = monthStart(-1), monthStart(-2)
		case PeriodLast3Months:
			startA, startB = monthStart(-3), monthStart(-6)
		case PeriodLast6Months:
			startA, startB = monthStart(-6), monthStart(-12)
		case PeriodLastYear:
			startA, startB = monthStart(-12), monthStart(-24)
		default:
			return Comparison{}, apperror.NewValidationError("período desconhecido: " + string(f.Period))
		}
		endA, endB = now, startA
		labelA, labelB = "Período Atual", "Período Anterior"
	}

	matches := func(t domain.Transaction, start, end time.Time) bool {
		if t.Timestamp < start.UnixMilli() || t.Timestamp >= end.UnixMilli() {
			return false
		}
		if f.Category != "" && categoryByProduct[t.ProductID] != f.Category {
			return false
		}
		if f.ProductID != "" && t.ProductID != f.ProductID {
			return false
		}
		return true
	}

	var historyA, historyB []domain.Transaction
	for _, t := range history {
		if matches(t, startA, endA) {
			historyA = append(historyA, t)
		}
		if matches(t, startB, endB) {
			historyB = append(historyB, t)
		}
	}

	statsA := computeStats(historyA, categoryByProduct)
	statsB := computeStats(historyB, categoryByProduct)

	return Comparison{
		Current:  statsA,
		Previous: statsB,
		LabelA:   labelA,
		LabelB:   labelB,
		Variance: Variance{
			Movements: percentVariance(statsA.TotalMovements, statsB.TotalMovements),
			Entries:   percentVariance(statsA.TotalEntries, statsB.TotalEntries),
			Exits:     percentVariance(statsA.TotalExits, statsB.TotalExits),
		},
	}, nil
}

// percentVariance calcula a variação percentual entre períodos. Com período
// anterior zerado a convenção é 100 quando o atual é positivo, senão 0; não é
// a variação percentual "correta", é a convenção consolidada do painel.
func percentVariance(curr, prev int) float64 {
	if prev == 0 {
		if curr > 0 {
			return 100
		}
		return 0
	}
	return (float64(curr-prev) / float64(prev)) * 100
}

func computeStats(h []domain.Transaction, categoryByProduct map[string]string) PeriodStats {
	stats := PeriodStats{TotalMovements: len(h)}

	type productAgg struct {
		name     string
		category string
		qty      int
	}
	productTotals := make(map[string]*productAgg)
	categoryTotals := make(map[string]int)

	type collabAgg struct {
		name  string
		role  string
		exits int
	}
	collabCounts := make(map[string]*collabAgg)

	for _, t := range h {
		switch t.Type {
		case domain.TypeEntrada:
			stats.TotalEntries += t.Quantity
		case domain.TypeSaida:
			stats.TotalExits += t.Quantity
		}

		agg, ok := productTotals[t.ProductID]
		if !ok {
			agg = &productAgg{name: t.ProductName, category: categoryByProduct[t.ProductID]}
			productTotals[t.ProductID] = agg
		}
		agg.qty += t.Quantity

		cat := categoryByProduct[t.ProductID]
		if cat == "" {
			cat = "Outros"
		}
		categoryTotals[cat] += t.Quantity

		if t.Type == domain.TypeSaida && t.CollaboratorID() != "" {
			c, ok := collabCounts[t.CollaboratorID()]
			if !ok {
				role := ""
				if t.Exit != nil {
					role = t.Exit.CollaboratorRole
				}
				c = &collabAgg{name: t.Requester(), role: role}
				collabCounts[t.CollaboratorID()] = c
			}
			c.exits++
		}

		day := time.UnixMilli(t.Timestamp).Day()
		switch t.Type {
		case domain.TypeEntrada:
			stats.Daily[day].Entries += t.Quantity
		case domain.TypeSaida:
			stats.Daily[day].Exits += t.Quantity
		}
	}

	for _, agg := range productTotals {
		stats.TopProducts = append(stats.TopProducts, TopProduct{Name: agg.name, Category: agg.category, Quantity: agg.qty})
	}
	sort.Slice(stats.TopProducts, func(i, j int) bool {
		if stats.TopProducts[i].Quantity != stats.TopProducts[j].Quantity {
			return stats.TopProducts[i].Quantity > stats.TopProducts[j].Quantity
		}
		return stats.TopProducts[i].Name < stats.TopProducts[j].Name
	})
	if len(stats.TopProducts) > 3 {
		stats.TopProducts = stats.TopProducts[:3]
	}

	totalQty := 0
	for _, qty := range categoryTotals {
		totalQty += qty
	}
	for name, qty := range categoryTotals {
		percent := 0.0
		if totalQty > 0 {
			percent = float64(qty) / float64(totalQty) * 100
		}
		stats.TopCategories = append(stats.TopCategories, TopCategory{Name: name, Quantity: qty, Percent: percent})
	}
	sort.Slice(stats.TopCategories, func(i, j int) bool {
		if stats.TopCategories[i].Quantity != stats.TopCategories[j].Quantity {
			return stats.TopCategories[i].Quantity > stats.TopCategories[j].Quantity
		}
		return stats.TopCategories[i].Name < stats.TopCategories[j].Name
	})
	if len(stats.TopCategories) > 3 {
		stats.TopCategories = stats.TopCategories[:3]
	}

	var topID string
	for id, c := range collabCounts {
		if topID == "" || c.exits > collabCounts[topID].exits ||
			(c.exits == collabCounts[topID].exits && id < topID) {
			topID = id
		}
	}
	if topID != "" {
		c := collabCounts[topID]
		stats.TopCollaborator = &TopCollaborator{ID: topID, Name: c.name, Role: c.role, Exits: c.exits}
	}

	return stats
}
