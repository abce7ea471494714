package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sakuracore.ai/sakura-core/internal/i18n"
	"sakuracore.ai/sakura-core/internal/store"
)

// ChatService drives one UI action end to end: optimistic store mutation,
// exactly one gateway call, response appended as a new message.
//
// Model failures are absorbed here: the assistant turn is always appended,
// with the fixed fallback text when the call failed, so the conversation
// stays linearly consistent and the UI never needs an error-recovery path.
type ChatService struct {
	sessions *SessionService
	llm      *LLMService
	log      zerolog.Logger
}

func NewChatService(sessions *SessionService, llm *LLMService, logger zerolog.Logger) *ChatService {
	return &ChatService{sessions: sessions, llm: llm, log: logger}
}

// SendMessage appends the user's message to the project, invokes the model
// with the updated history, and appends the assistant's reply. The returned
// message is the assistant turn. A nil message with nil error means the
// project does not exist under ownerKey.
func (c *ChatService) SendMessage(ctx context.Context, ownerKey, projectID, content string, lang i18n.Code) (*store.Message, error) {
	userMsg := store.Message{
		ID:        uuid.NewString(),
		Role:      store.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}

	project, err := c.sessions.AppendMessages(ownerKey, projectID, []store.Message{userMsg})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	// The reference client sends the full updated message list as history
	// and the prompt again as the final turn, so the model sees the user
	// turn twice. Kept as-is for wire compatibility.
	reply, err := c.llm.Converse(ctx, content, project.Messages, i18n.Label(lang))
	if err != nil {
		c.log.Warn().Str("project_id", projectID).Msg("appending fail-soft assistant turn")
		reply = &Reply{Answer: ServiceFailureText}
	}

	assistantMsg := store.Message{
		ID:        uuid.NewString(),
		Role:      store.RoleAssistant,
		Content:   reply.Answer,
		Thought:   reply.Thought,
		Timestamp: time.Now(),
	}

	if _, err := c.sessions.AppendMessages(ownerKey, projectID, []store.Message{assistantMsg}); err != nil {
		return nil, err
	}
	return &assistantMsg, nil
}

// ImproveCode returns a refactored replacement for code. Never fails: a
// gateway error yields the fallback text as the replacement.
func (c *ChatService) ImproveCode(ctx context.Context, code string, lang i18n.Code) *Reply {
	reply, err := c.llm.ImproveCode(ctx, code, i18n.Resolve(lang).Prompts.Improve, i18n.Label(lang))
	if err != nil {
		return &Reply{Answer: ServiceFailureText}
	}
	return reply
}

// ExplainCode returns a prose explanation of code. Never fails: a gateway
// error yields the fallback text as the explanation.
func (c *ChatService) ExplainCode(ctx context.Context, code string, lang i18n.Code) *Reply {
	reply, err := c.llm.ExplainCode(ctx, code, i18n.Resolve(lang).Prompts.Explain, i18n.Label(lang))
	if err != nil {
		return &Reply{Answer: ServiceFailureText}
	}
	return reply
}
