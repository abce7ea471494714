package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"sakuracore.ai/sakura-core/internal/metrics"
	"sakuracore.ai/sakura-core/internal/store"
)

const (
	chatModelName = "gemini-3-pro-preview"

	generationTemperature = 0.7
	thinkingBudgetTokens  = 32768

	// EmptyAnswerText replaces an empty model answer so a message is
	// always produced. Matches the reference client copy.
	EmptyAnswerText = "Error processing directive."

	// ServiceFailureText is the fail-soft fallback rendered by callers
	// when a model call fails outright.
	ServiceFailureText = "Technical error in Core SAKURA connection."

	systemInstruction = `Você é SAKURA CORE AI, uma Inteligência Artificial de NÍVEL MASTER DO MASTER.
Missão: Superar e unificar as capacidades de todos os modelos existentes.

Diretrizes Master de Linguagem:
1. POLIGLOTA ABSOLUTO: Identifique a linguagem da interface do usuário e responda EXCLUSIVAMENTE nela.
2. ADAPTAÇÃO TOTAL: Se o contexto mudar para {IDIOMA}, você deve traduzir IMEDIATAMENTE suas explicações, pensamentos e interações para esse idioma.
3. PRECISÃO ZEN: Mantenha o tom profissional, minimalista e de alta performance.

Diretrizes Técnicas:
1. EXCELÊNCIA TÉCNICA: Todo código gerado deve ser Clean Code, SOLID e de nível Sênior.
2. RESPOSTA ESTRUTURADA: Use Markdown para tabelas, listas e citações para máxima clareza.
3. SEGURANÇA: Proativamente aponte riscos OWASP e falhas de arquitetura.

Importante: O usuário pode trocar o idioma da interface. Sempre verifique o parâmetro 'languageContext' ou o idioma da última instrução recebida para se adaptar.`
)

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:\\w+)?\\n(.*?)```")
	bareBlockRe   = regexp.MustCompile("(?s)```(.*?)```")
)

// Reply is one shaped model response: the visible answer and, when the
// service exposed them, the concatenated reasoning fragments.
type Reply struct {
	Answer  string `json:"answer"`
	Thought string `json:"thought,omitempty"`
}

// contentCaller is the seam between request shaping and the Gemini transport.
// Tests substitute it with a fake.
type contentCaller interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiCaller struct {
	client *genai.Client
}

func (c *geminiCaller) GenerateContent(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, chatModelName, contents, cfg)
}

// unavailableCaller stands in when no client could be built (missing or
// rejected API key). Every call fails, which the fail-soft path absorbs.
type unavailableCaller struct {
	err error
}

func (c unavailableCaller) GenerateContent(context.Context, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, c.err
}

// LLMService shapes UI actions into single Gemini calls and shapes responses
// back into Reply values. It performs exactly one attempt per operation: no
// retry, no streaming, no adapter-level timeout.
//
// Errors are returned, not swallowed; callers decide how to render the
// fallback. Failures are also counted and logged here, because they never
// propagate beyond the caller's fallback text.
type LLMService struct {
	caller contentCaller
	log    zerolog.Logger
}

// NewLLMService builds the gateway. A missing API key does not fail startup;
// it makes every call return a service failure instead.
func NewLLMService(apiKey string, logger zerolog.Logger) *LLMService {
	if apiKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY not set, model calls will fail soft")
		return &LLMService{
			caller: unavailableCaller{err: fmt.Errorf("model service credential not configured")},
			log:    logger,
		}
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to create GenAI client, model calls will fail soft")
		return &LLMService{
			caller: unavailableCaller{err: fmt.Errorf("genai client unavailable: %w", err)},
			log:    logger,
		}
	}

	return &LLMService{caller: &geminiCaller{client: client}, log: logger}
}

// Converse sends prompt with the given conversation history. Each prior
// message becomes one turn, with the assistant role mapped to the service's
// model role, followed by a final user turn carrying the prompt.
func (s *LLMService) Converse(ctx context.Context, prompt string, history []store.Message, languageLabel string) (*Reply, error) {
	return s.generate(ctx, "converse", prompt, history, languageLabel)
}

// ImproveCode asks for a refactored version of code, single-turn. The service
// is prompted to return only a code block but is not guaranteed to; the first
// fenced block is extracted from the answer, falling back to the trimmed full
// text.
func (s *LLMService) ImproveCode(ctx context.Context, code, instruction, languageLabel string) (*Reply, error) {
	prompt := fmt.Sprintf("%s\n\nCode to Refactor:\n%s", instruction, code)
	reply, err := s.generate(ctx, "improve", prompt, nil, languageLabel)
	if err != nil {
		return nil, err
	}
	reply.Answer = ExtractCodeBlock(reply.Answer)
	return reply, nil
}

// ExplainCode asks for a prose explanation of code, single-turn.
func (s *LLMService) ExplainCode(ctx context.Context, code, instruction, languageLabel string) (*Reply, error) {
	prompt := fmt.Sprintf("%s\n\nCode to Explain:\n%s", instruction, code)
	return s.generate(ctx, "explain", prompt, nil, languageLabel)
}

func (s *LLMService) generate(ctx context.Context, operation, prompt string, history []store.Message, languageLabel string) (*Reply, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == store.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	instruction := systemInstruction
	if languageLabel != "" {
		instruction = fmt.Sprintf(
			"%s\n\nURGENT INSTRUCTION: You MUST respond entirely in the following language: %s. Do not use any other language for explanations or comments.",
			systemInstruction, languageLabel,
		)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		Temperature:       genai.Ptr(float32(generationTemperature)),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(thinkingBudgetTokens)),
		},
	}

	metrics.ModelRequestsTotal.WithLabelValues(operation).Inc()
	start := time.Now()
	resp, err := s.caller.GenerateContent(ctx, contents, cfg)
	metrics.ModelRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ModelFailuresTotal.WithLabelValues(operation).Inc()
		s.log.Error().Err(err).Str("operation", operation).Msg("model call failed")
		return nil, fmt.Errorf("gemini %s failed: %w", operation, err)
	}

	var answer, thought strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if part.Thought {
				thought.WriteString(part.Text)
			} else {
				answer.WriteString(part.Text)
			}
		}
	}

	reply := &Reply{Answer: answer.String(), Thought: thought.String()}
	if reply.Answer == "" {
		// A successful call with no answer fragment still yields a
		// message, never a void result.
		s.log.Warn().Str("operation", operation).Msg("model response contained no answer fragments")
		reply.Answer = EmptyAnswerText
	}
	return reply, nil
}

// ExtractCodeBlock returns the contents of the first fenced code block in
// text, or the trimmed full text when no fence is present.
func ExtractCodeBlock(text string) string {
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bareBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
