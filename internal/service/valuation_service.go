package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"autovalor/internal/domain"
	"autovalor/internal/models"
	"autovalor/internal/repository"
)

var (
	// ErrPaymentRequired blocks report generation until the evaluation's
	// payment is confirmed.
	ErrPaymentRequired = errors.New("payment required to generate the valuation")
)

// Completer produces a JSON completion for a prompt. Satisfied by
// pkg/groq.Client; tests substitute a canned implementation.
type Completer interface {
	CompleteJSON(ctx context.Context, prompt string) (json.RawMessage, error)
}

// ValuationService generates the AI valuation report for a paid evaluation.
// Idempotency is keyed off the stored report, not off call count: once a
// report exists it is returned as-is.
type ValuationService struct {
	evalRepo *repository.EvaluationRepository
	ai       Completer
	notifSvc *NotificationService
}

func NewValuationService(evalRepo *repository.EvaluationRepository, ai Completer, notifSvc *NotificationService) *ValuationService {
	return &ValuationService{evalRepo: evalRepo, ai: ai, notifSvc: notifSvc}
}

func (s *ValuationService) GenerateReport(ctx context.Context, evaluationID, userID uint) (json.RawMessage, error) {
	ev, err := s.evalRepo.GetByIDForUser(evaluationID, userID)
	if err != nil {
		return nil, err
	}
	if ev.PaymentStatus != domain.PaymentStatusApproved {
		return nil, ErrPaymentRequired
	}
	if ev.AIResponse != "" {
		return json.RawMessage(ev.AIResponse), nil
	}

	var vehicle models.VehicleData
	if err := json.Unmarshal([]byte(ev.VehicleData), &vehicle); err != nil {
		return nil, fmt.Errorf("corrupt vehicle data on evaluation %d: %w", ev.ID, err)
	}
	report, err := s.ai.CompleteJSON(ctx, buildValuationPrompt(&vehicle))
	if err != nil {
		return nil, err
	}
	if err := s.evalRepo.SaveAIResponse(ev.ID, string(report)); err != nil {
		// The report was produced; losing the write only costs a regeneration.
		log.Printf("[valuation] failed to persist report for evaluation=%d: %v", ev.ID, err)
	}
	if s.notifSvc != nil {
		_ = s.notifSvc.NotifyReportReady(ev.UserID, ev.ID)
	}
	return report, nil
}

func buildValuationPrompt(v *models.VehicleData) string {
	yesNo := func(b bool) string {
		if b {
			return "Sim"
		}
		return "Não"
	}
	orDefault := func(s, fallback string) string {
		if s == "" {
			return fallback
		}
		return s
	}
	cv := "N/A"
	if v.CV > 0 {
		cv = fmt.Sprintf("%d", v.CV)
	}
	images := "Fotos: Nenhuma foto fornecida."
	if len(v.ImageURLs) > 0 {
		images = "Fotos:\n" + strings.Join(v.ImageURLs, "\n")
	}
	return fmt.Sprintf(`Você é um avaliador profissional de veículos com mais de 20 anos de experiência no mercado automotivo brasileiro.

Analise TODOS os dados abaixo e gere:
- Preço sugerido de venda
- Faixa de preço (mín – máx)
- Estimativa do valor FIPE com raciocínio (não tem acesso à FIPE real)
- Explicação de como chegou na estimativa da FIPE
- Fatores de valorização
- Fatores de desvalorização
- Análise das fotos
- Riscos ou problemas detectados
- Recomendações que alteram o preço
- Confiança final da avaliação (%%)

Dados do veículo:
Marca: %s
Modelo: %s
Versão: %s
Ano fabricação: %d
Ano modelo: %d
Categoria: %s
Motor: %s
Potência: %s cv
Combustível: %s
Câmbio: %s
Tração: %s
Quilometragem: %d km
Número de donos: %d
Possui sinistro: %s
Revisões em dia: %s
Manual + chave reserva: %s
Estado dos pneus: %s
Pintura original: %s
Interior conservado: %s
Histórico de manutenção: %s
Modificações: %s
Observações adicionais: %s

%s

Responda SOMENTE este JSON:
{
  "valor_sugerido": number,
  "faixa_preco": { "min": number, "max": number },
  "fipe_estimado": number,
  "explicacao_fipe": string,
  "motivos_valorizacao": string[],
  "motivos_desvalorizacao": string[],
  "analise_fotos": string[],
  "riscos_identificados": string[],
  "ajustes_preco_recomendados": string[],
  "confianca": number
}`,
		v.Marca, v.Modelo, v.Versao, v.AnoFabricacao, v.AnoModelo, v.Categoria,
		v.Motor, cv, v.Combustivel, v.Cambio, v.Tracao,
		v.KM, v.Donos, yesNo(v.Sinistro), yesNo(v.Revisoes), yesNo(v.ManualChave),
		v.Pneus, yesNo(v.Pintura), yesNo(v.Interior),
		orDefault(v.Historico, "Nenhum informado"),
		orDefault(v.Modificacoes, "Nenhuma informada"),
		orDefault(v.Obs, "Nenhuma"),
		images)
}
