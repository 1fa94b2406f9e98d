package possessionservice

import (
	"sort"
	"time"

	"almox/internal/domain"
)

// Item é um registro derivado de posse: o que um colaborador ainda tem em mãos.
// Nunca é persistido; é sempre recalculado a partir do histórico bruto.
type Item struct {
	ProductID       string         `json:"product_id"`
	Product         domain.Product `json:"product"`
	Quantity        int            `json:"quantity"`
	FirstWithdrawal int64          `json:"first_withdrawal"` // epoch millis
}

// OverdueItem é um item em posse prolongada (sem devolução há mais de 30 dias).
type OverdueItem struct {
	CollaboratorID   string `json:"collaborator_id"`
	CollaboratorName string `json:"collaborator_name"`
	ProductID        string `json:"product_id"`
	ProductName      string `json:"product_name"`
	Quantity         int    `json:"quantity"`
	FirstWithdrawal  int64  `json:"first_withdrawal"`
	DaysHeld         int    `json:"days_held"`
}

// OverdueThreshold é a idade de posse a partir da qual um item vira alerta.
const OverdueThreshold = 30 * 24 * time.Hour

// CollaboratorPossession deriva os itens atualmente em posse de um colaborador
// repassando seu histórico em ordem cronológica crescente.
//
// Cada saída soma no saldo por produto; entradas e baixas subtraem. Quando o
// saldo de um produto chega a zero ou menos, o registro é removido por
// completo: uma saída posterior do mesmo produto recomeça do zero, com um
// novo firstWithdrawal. A lista de produtos serve apenas para enriquecer a
// exibição; movimentações de produtos desconhecidos são ignoradas.
//
// A saída é ordenada por ProductID para ser determinística (a origem do
// cálculo iterava um map sem ordem garantida).
func CollaboratorPossession(history []domain.Transaction, collaboratorID string, products []domain.Product) []Item {
	if collaboratorID == "" {
		return nil
	}

	productsByID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	var collabTxs []domain.Transaction
	for _, t := range history {
		if t.CollaboratorID() == collaboratorID {
			collabTxs = append(collabTxs, t)
		}
	}
	sort.SliceStable(collabTxs, func(i, j int) bool {
		return collabTxs[i].Timestamp < collabTxs[j].Timestamp
	})

	items := make(map[string]*Item)
	for _, t := range collabTxs {
		prod, ok := productsByID[t.ProductID]
		if !ok {
			continue
		}

		current, ok := items[t.ProductID]
		if !ok {
			current = &Item{ProductID: t.ProductID, Product: prod, FirstWithdrawal: t.Timestamp}
		}

		switch t.Type {
		case domain.TypeSaida:
			current.Quantity += t.Quantity
		case domain.TypeEntrada, domain.TypeBaixa:
			current.Quantity -= t.Quantity
		}

		if current.Quantity > 0 {
			items[t.ProductID] = current
		} else {
			delete(items, t.ProductID)
		}
	}

	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// OverdueItems deriva, para todos os colaboradores, os itens em posse há mais
// de 30 dias, usados nos alertas do painel.
//
// O histórico chega como é mantido na aplicação (mais recente primeiro) e o
// fold o percorre invertido, do registro mais antigo para o mais novo.
// Diferente de CollaboratorPossession, a baixa não é descontada aqui e o
// firstWithdrawal é o menor timestamp de saída contribuinte, sem reinício no
// zeramento do saldo. Essas assimetrias reproduzem o comportamento
// consolidado do painel de alertas e foram mantidas deliberadamente.
func OverdueItems(history []domain.Transaction, now time.Time) []OverdueItem {
	cutoff := now.Add(-OverdueThreshold).UnixMilli()

	type key struct{ collabID, productID string }
	type record struct {
		collabName string
		quantity   int
		first      int64
	}

	possession := make(map[key]*record)

	// history chega mais recente primeiro; o reverse percorre do fim para o começo.
	for i := len(history) - 1; i >= 0; i-- {
		t := history[i]
		collabID := t.CollaboratorID()
		if collabID == "" {
			continue
		}
		k := key{collabID, t.ProductID}
		current, ok := possession[k]
		if !ok {
			name := t.Requester()
			if name == "" {
				name = "?"
			}
			current = &record{collabName: name, first: t.Timestamp}
		}

		switch t.Type {
		case domain.TypeSaida:
			current.quantity += t.Quantity
			if t.Timestamp < current.first {
				current.first = t.Timestamp
			}
		case domain.TypeEntrada:
			current.quantity -= t.Quantity
		}

		if current.quantity > 0 {
			possession[k] = current
		} else {
			delete(possession, k)
		}
	}

	var out []OverdueItem
	for k, rec := range possession {
		if rec.first >= cutoff {
			continue
		}
		productName := ""
		for _, t := range history {
			if t.ProductID == k.productID {
				productName = t.ProductName
				break
			}
		}
		out = append(out, OverdueItem{
			CollaboratorID:   k.collabID,
			CollaboratorName: rec.collabName,
			ProductID:        k.productID,
			ProductName:      productName,
			Quantity:         rec.quantity,
			FirstWithdrawal:  rec.first,
			DaysHeld:         int(now.Sub(time.UnixMilli(rec.first)).Hours() / 24),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CollaboratorID != out[j].CollaboratorID {
			return out[i].CollaboratorID < out[j].CollaboratorID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}
