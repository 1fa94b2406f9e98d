package aiservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"almox/internal/domain"
	apperror "almox/internal/errors"
	"almox/internal/pkg/logger"
)

// InventoryAnalysis é o retorno estruturado da análise de estoque.
// É puramente consultivo: nenhuma regra de negócio depende dele.
type InventoryAnalysis struct {
	Summary            string   `json:"summary"`
	LowStockAlerts     []string `json:"lowStockAlerts"`
	RestockSuggestions []string `json:"restockSuggestions"`
}

// Service encapsula as chamadas ao Gemini. Sem chave de API configurada o
// serviço fica desativado e devolve respostas neutras em vez de erro.
type Service struct {
	client *genai.Client
	model  string
	logger logger.Logger
}

// NewService cria o serviço de IA. client pode ser nil (chave ausente).
func NewService(client *genai.Client, model string, logger logger.Logger) *Service {
	if client == nil {
		logger.Warn("Chave do Gemini não configurada. As funções de IA estarão desativadas.", nil)
	}
	return &Service{client: client, model: model, logger: logger}
}

// Enabled indica se o cliente de IA está configurado.
func (s *Service) Enabled() bool { return s.client != nil }

// AnalyzeInventory envia o catálogo ao modelo e recebe um resumo, alertas de
// estoque baixo e sugestões de reposição, todos em português.
func (s *Service) AnalyzeInventory(ctx context.Context, products []domain.Product) (*InventoryAnalysis, error) {
	if !s.Enabled() {
		return nil, apperror.NewValidationError("As funções de IA estão desativadas (chave não configurada).")
	}
	if len(products) == 0 {
		return nil, apperror.NewValidationError("Não há produtos para analisar.")
	}

	var inventory strings.Builder
	for _, p := range products {
		fmt.Fprintf(&inventory, "%s: %d units (Min Stock: %d) [%s]\n", p.Name, p.Quantity, p.MinStock, p.Category)
	}

	prompt := fmt.Sprintf(`Analyze this warehouse inventory list and provide a helpful summary in JSON format (Portuguese).
Inventory:
%s
Consider an item "Low Stock" if its quantity is below its specific "Min Stock" value.`, inventory.String())

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary":            {Type: genai.TypeString},
				"lowStockAlerts":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"restockSuggestions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), config)
	if err != nil {
		s.logger.Error("Falha na chamada de análise de estoque ao Gemini.", err)
		return nil, apperror.NewInternalError("Falha ao analisar o estoque com IA.", err)
	}

	text := resp.Text()
	var analysis InventoryAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		s.logger.Error("Resposta do Gemini fora do formato esperado.", err)
		return nil, apperror.NewInternalError("Resposta da IA fora do formato esperado.", err)
	}
	return &analysis, nil
}

// SuggestCategory pede ao modelo uma categoria para o nome do produto,
// restrita ao conjunto informado. Qualquer resposta fora do conjunto (ou o
// serviço desativado) cai em "Outros".
func (s *Service) SuggestCategory(ctx context.Context, productName string, categories []string) (string, error) {
	if !s.Enabled() {
		return "Outros", nil
	}
	if len(categories) == 0 {
		categories = domain.DefaultCategories
	}

	quoted := make([]string, len(categories))
	for i, c := range categories {
		quoted[i] = `"` + c + `"`
	}
	prompt := fmt.Sprintf(`Categorize the product %q into exactly one of these categories: %s. Return only the category name as a plain string.`,
		productName, strings.Join(quoted, ", "))

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		s.logger.Error("Falha na sugestão de categoria via Gemini.", err)
		return "", apperror.NewInternalError("Falha ao sugerir categoria com IA.", err)
	}

	answer := strings.TrimSpace(resp.Text())
	for _, c := range categories {
		if answer == c {
			return c, nil
		}
	}
	return "Outros", nil
}
