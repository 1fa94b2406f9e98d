package forecastservice

import (
	"math"
	"sort"
	"time"

	"almox/internal/domain"
)

// Severity classifica a urgência de um alerta de reposição.
type Severity string

const (
	SeverityCritical Severity = "critical" // 3 dias ou menos de estoque
	SeverityWarning  Severity = "warning"  // 7 dias ou menos
	SeverityInfo     Severity = "info"
)

// DaysLeftSentinel é devolvido quando não há consumo recente: estoque
// "efetivamente infinito" para fins de reposição.
const DaysLeftSentinel = 999

// AlertThresholdDays é o limite de daysLeft a partir do qual um alerta é gerado.
const AlertThresholdDays = 15

// consumptionWindow é a janela móvel usada para a média diária de consumo.
const consumptionWindow = 30 * 24 * time.Hour

// Forecast é a projeção de reposição de um único produto.
type Forecast struct {
	ProductID    string   `json:"product_id"`
	ProductName  string   `json:"product_name"`
	SKU          string   `json:"sku"`
	Quantity     int      `json:"quantity"`
	DailyAverage float64  `json:"daily_average"`
	DaysLeft     int      `json:"days_left"`
	Severity     Severity `json:"severity"`
	RepostDate   int64    `json:"repost_date"` // epoch millis
}

// ExpiryAlert aponta um produto cuja validade ou manutenção vence nos
// próximos 30 dias.
type ExpiryAlert struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Kind        string `json:"kind"` // "validade" ou "manutencao"
	Date        string `json:"date"` // como cadastrado, AAAA-MM-DD
	DaysUntil   int    `json:"days_until"`
}

// ForProduct projeta a reposição de um produto a partir do histórico bruto.
//
// A média diária é a soma das saídas dos últimos 30 dias dividida por 30.
// Sem consumo na janela, daysLeft é o sentinela 999 mesmo com estoque zerado.
// Modelo de média móvel simples, sem suavização nem sazonalidade.
func ForProduct(product domain.Product, history []domain.Transaction, now time.Time) Forecast {
	windowStart := now.Add(-consumptionWindow).UnixMilli()

	exitSum := 0
	for _, t := range history {
		if t.ProductID != product.ID || t.Timestamp < windowStart {
			continue
		}
		if t.Type == domain.TypeSaida {
			exitSum += t.Quantity
		}
	}

	f := Forecast{
		ProductID:   product.ID,
		ProductName: product.Name,
		SKU:         product.SKU,
		Quantity:    product.Quantity,
		DaysLeft:    DaysLeftSentinel,
	}

	if exitSum > 0 {
		f.DailyAverage = float64(exitSum) / 30.0
		f.DaysLeft = int(math.Floor(float64(product.Quantity) / f.DailyAverage))
	}

	switch {
	case f.DaysLeft <= 3:
		f.Severity = SeverityCritical
	case f.DaysLeft <= 7:
		f.Severity = SeverityWarning
	default:
		f.Severity = SeverityInfo
	}

	f.RepostDate = now.Add(time.Duration(f.DaysLeft) * 24 * time.Hour).UnixMilli()
	return f
}

// ReorderAlerts devolve as projeções com daysLeft dentro do limite de alerta,
// ordenadas da mais urgente para a menos urgente.
func ReorderAlerts(products []domain.Product, history []domain.Transaction, now time.Time) []Forecast {
	var alerts []Forecast
	for _, p := range products {
		f := ForProduct(p, history, now)
		if f.DaysLeft <= AlertThresholdDays {
			alerts = append(alerts, f)
		}
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].DaysLeft != alerts[j].DaysLeft {
			return alerts[i].DaysLeft < alerts[j].DaysLeft
		}
		return alerts[i].ProductName < alerts[j].ProductName
	})
	return alerts
}

// UpcomingExpirations varre os produtos por validade ou manutenção vencendo
// nos próximos 30 dias. Datas vazias ou mal formatadas são ignoradas.
func UpcomingExpirations(products []domain.Product, now time.Time) []ExpiryAlert {
	horizon := now.Add(consumptionWindow)

	var alerts []ExpiryAlert
	check := func(p domain.Product, kind, raw string) {
		if raw == "" {
			return
		}
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return
		}
		if d.Before(now.Truncate(24*time.Hour)) || d.After(horizon) {
			return
		}
		alerts = append(alerts, ExpiryAlert{
			ProductID:   p.ID,
			ProductName: p.Name,
			Kind:        kind,
			Date:        raw,
			DaysUntil:   int(d.Sub(now).Hours() / 24),
		})
	}

	for _, p := range products {
		check(p, "validade", p.DataValidade)
		check(p, "manutencao", p.ProximaManutencao)
	}

	sort.Slice(alerts, func(i, j int) bool { return alerts[i].DaysUntil < alerts[j].DaysUntil })
	return alerts
}
