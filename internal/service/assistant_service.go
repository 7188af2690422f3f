package service

import (
	"context"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
)

// knowledgeCategory 助手知识库的一个分类
type knowledgeCategory struct {
	name      string
	keywords  []string
	responses []string
}

// knowledgeBase 分类顺序即平分时的优先顺序；sistema 兼作默认分类
var knowledgeBase = []knowledgeCategory{
	{
		name:     "pendencias",
		keywords: []string{"pend", "pendênc", "atraso", "atrasadas"},
		responses: []string{
			`As pendências são atividades que não foram concluídas no prazo. Você pode visualizá-las na aba "Pendências e Solicitações" onde pode atribuir a outros usuários ou resolver.`,
			`Para consultar pendências: acesse a aba "Pendências e Solicitações" no menu lateral. Lá você verá todas as atividades pendentes com filtros por tipo e status.`,
		},
	},
	{
		name:     "atividades",
		keywords: []string{"ativid", "ativar", "iniciar", "finalizar", "dia"},
		responses: []string{
			`Na aba "Minhas Atividades" você pode: 1) Clicar "Iniciar Dia" para começar suas atividades 2) Marcar cada atividade como "Em Andamento" ou "Concluída" 3) Clicar "Finalizar Dia" para salvar suas atividades.`,
			`Cada atividade pode ter os seguintes status: Não Iniciada, Em Andamento, Concluída, Pendente ou Com Atraso. Você pode alterar o status clicando no botão de status da atividade.`,
			`As atividades são persistidas automaticamente no banco de dados. Quando você finaliza o dia, o sistema cria pendências para atividades não concluídas.`,
		},
	},
	{
		name:     "chat",
		keywords: []string{"chat", "mensagem", "conversa", "privad", "broadcast", "grupo"},
		responses: []string{
			`O Chat do Grupo permite comunicação em tempo real. Você pode escolher entre: 1) Chat Geral (mensagens para todos) ou 2) Conversas Privadas (1:1 com usuários específicos).`,
			`Para enviar mensagens você precisa estar com status de aprovação "aprovado". Selecione o tipo de conversa no dropdown e digite sua mensagem no campo de input.`,
			`Mensagens são sincronizadas em tempo real pelo canal de eventos do servidor. Você receberá notificações quando novas mensagens chegarem.`,
		},
	},
	{
		name:     "admin",
		keywords: []string{"admin", "usuário", "painel", "aprovação", "permiss", "role", "editor"},
		responses: []string{
			`O Painel Admin permite gerenciar usuários: 1) Aprovar novos usuários 2) Editar dados de usuários (nome, email, permissão) 3) Visualizar estatísticas 4) Atribuir atividades.`,
			`Para editar um usuário, clique no ícone de lápis ao lado do nome. Você pode alterar: nome completo, email e nível de permissão (se for admin).`,
			`Apenas administradores têm acesso ao Painel Admin. Supervisores têm acesso limitado a algumas funcionalidades.`,
		},
	},
	{
		name:     "ai",
		keywords: []string{"ia", "inteligencia", "artificial", "como", "pergunta", "resposta", "função", "usar"},
		responses: []string{
			`Esta IA é um assistente integrado ao sistema que responde perguntas sobre: pendências, atividades, chat, admin, uso geral, como usar recursos, documentação e suporte.`,
			`Para usar: digite sua pergunta em qualquer linguagem natural. A IA buscará a melhor resposta em sua base de conhecimento. Tente ser específico ao perguntar.`,
			`A IA entende contexto, sinônimos e variações de perguntas. Você pode perguntar "como começar o dia?" ou "como iniciar atividades?" - ela entenderá ambas.`,
		},
	},
	{
		name:     "logs",
		keywords: []string{"log", "debug", "erro", "operação", "histórico", "rastreamento"},
		responses: []string{
			`A aba "Logs" permite visualizar as operações registradas pelo sistema. Cada operação registra: tipo, tabela, payload e erros.`,
			`Para acessar: vá até "Logs" no menu lateral (apenas para admins). Você pode filtrar por operação, por tabela ou por usuário.`,
		},
	},
	{
		name:     "hist",
		keywords: []string{"histórico", "relatorio", "analise", "estatistica", "performance", "gráfico", "taxa"},
		responses: []string{
			`A aba "Histórico" mostra sua performance histórica: gráficos de conclusão por período (dia/semana/mês), comparação com períodos anteriores, taxa de conclusão e atividades pendentes.`,
			`Você pode filtrar por período usando os botões "Hoje", "Semana" ou "Mês". O sistema mostra automaticamente comparações e tendências.`,
		},
	},
	{
		name:     "sistema",
		keywords: []string{"sistema", "funciona", "como", "o que", "para que", "qual", "quando", "onde", "geral"},
		responses: []string{
			`FollowUpCCO é um sistema de gestão de atividades operacionais com suporte a: rastreamento de atividades diárias, gestão de pendências, chat em tempo real, painel administrativo, assistente IA e logs de auditoria.`,
			`Todas as operações são registradas no servidor e sincronizadas em tempo real com os usuários conectados.`,
			`Principais funcionalidades: iniciar/finalizar dia, marcar atividades como em andamento/concluída, atribuir pendências a usuários, chat privado/grupo, aprovação de usuários, visualização de histórico e logs.`,
		},
	},
}

// AssistantService 基于关键词计分的内置问答
type AssistantService interface {
	Query(ctx context.Context, question string) *dto.AssistantAnswer
	BatchQuery(ctx context.Context, questions []string) []dto.AssistantAnswer
}

type assistantService struct{}

// NewAssistantService 创建 AssistantService 实例
func NewAssistantService() AssistantService {
	return &assistantService{}
}

// Query 问题按空格切词，每个关键词计 "包含该关键词的词数"。
// 得分严格更高才替换当前最佳分类；全部为 0 时落到 sistema。
// confidence = round(min(100, score/2 + 50))。
func (s *assistantService) Query(_ context.Context, question string) *dto.AssistantAnswer {
	words := strings.Split(strings.ToLower(strings.TrimSpace(question)), " ")

	best := knowledgeBase[len(knowledgeBase)-1]
	bestScore := 0
	for _, cat := range knowledgeBase {
		score := 0
		for _, kw := range cat.keywords {
			score += lo.CountBy(words, func(w string) bool { return strings.Contains(w, kw) })
		}
		if score > bestScore {
			best, bestScore = cat, score
		}
	}

	confidence := math.Min(100, float64(bestScore)/2+50)
	return &dto.AssistantAnswer{
		Answer:     best.responses[0],
		Confidence: int(math.Floor(confidence + 0.5)),
		Sources:    []string{best.name},
	}
}

func (s *assistantService) BatchQuery(ctx context.Context, questions []string) []dto.AssistantAnswer {
	return lo.Map(questions, func(q string, _ int) dto.AssistantAnswer {
		return *s.Query(ctx, q)
	})
}
