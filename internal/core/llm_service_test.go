package core

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"sakuracore.ai/sakura-core/internal/store"
)

// fakeCaller records the shaped request and returns a canned response.
type fakeCaller struct {
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeCaller) GenerateContent(_ context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contents = contents
	f.cfg = cfg
	return f.resp, f.err
}

func responseWithParts(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: parts}},
		},
	}
}

func newTestLLM(caller contentCaller) *LLMService {
	return &LLMService{caller: caller, log: zerolog.Nop()}
}

func TestConverseShapesRequest(t *testing.T) {
	fake := &fakeCaller{resp: responseWithParts(&genai.Part{Text: "ok"})}
	svc := newTestLLM(fake)

	history := []store.Message{
		{Role: store.RoleUser, Content: "hello"},
		{Role: store.RoleAssistant, Content: "hi"},
	}
	_, err := svc.Converse(context.Background(), "how are you?", history, "English")
	require.NoError(t, err)

	require.Len(t, fake.contents, 3)
	assert.Equal(t, "user", string(fake.contents[0].Role))
	assert.Equal(t, "hello", fake.contents[0].Parts[0].Text)
	assert.Equal(t, "model", string(fake.contents[1].Role), "assistant maps to the service's model role")
	assert.Equal(t, "user", string(fake.contents[2].Role), "prompt becomes the final user turn")
	assert.Equal(t, "how are you?", fake.contents[2].Parts[0].Text)

	require.NotNil(t, fake.cfg)
	require.NotNil(t, fake.cfg.SystemInstruction)
	instruction := fake.cfg.SystemInstruction.Parts[0].Text
	assert.Contains(t, instruction, "SAKURA CORE AI")
	assert.Contains(t, instruction, "You MUST respond entirely in the following language: English")

	require.NotNil(t, fake.cfg.Temperature)
	assert.InDelta(t, 0.7, float64(*fake.cfg.Temperature), 0.001)
	require.NotNil(t, fake.cfg.ThinkingConfig)
	assert.True(t, fake.cfg.ThinkingConfig.IncludeThoughts)
	require.NotNil(t, fake.cfg.ThinkingConfig.ThinkingBudget)
	assert.Equal(t, int32(32768), *fake.cfg.ThinkingConfig.ThinkingBudget)
}

func TestConverseSeparatesAnswerFromThought(t *testing.T) {
	fake := &fakeCaller{resp: responseWithParts(
		&genai.Part{Text: "pondering...", Thought: true},
		&genai.Part{Text: "Hi "},
		&genai.Part{Text: "more pondering", Thought: true},
		&genai.Part{Text: "there"},
	)}
	svc := newTestLLM(fake)

	reply, err := svc.Converse(context.Background(), "hello", nil, "English")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply.Answer)
	assert.Equal(t, "pondering...more pondering", reply.Thought)
}

func TestConverseEmptyAnswerGetsPlaceholder(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"no candidates":    {},
		"nil content":      {Candidates: []*genai.Candidate{{}}},
		"no parts":         responseWithParts(),
		"only thoughts":    responseWithParts(&genai.Part{Text: "hmm", Thought: true}),
		"only empty parts": responseWithParts(&genai.Part{Text: ""}),
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newTestLLM(&fakeCaller{resp: resp})
			reply, err := svc.Converse(context.Background(), "hello", nil, "English")
			require.NoError(t, err, "an empty response is not a failure")
			assert.Equal(t, EmptyAnswerText, reply.Answer)
		})
	}
}

func TestConverseServiceFailureReturnsError(t *testing.T) {
	svc := newTestLLM(&fakeCaller{err: errors.New("quota exceeded")})

	reply, err := svc.Converse(context.Background(), "hello", nil, "English")
	assert.Error(t, err)
	assert.Nil(t, reply)
}

func TestMissingCredentialFailsPerCallNotAtStartup(t *testing.T) {
	svc := NewLLMService("", zerolog.Nop())
	require.NotNil(t, svc)

	_, err := svc.Converse(context.Background(), "hello", nil, "English")
	assert.Error(t, err)
}

func TestImproveCodeExtractsFencedBlock(t *testing.T) {
	fake := &fakeCaller{resp: responseWithParts(&genai.Part{Text: "Sure, here:\n```\nx = 1\n```"})}
	svc := newTestLLM(fake)

	reply, err := svc.ImproveCode(context.Background(), "x=1", "refactor this", "English")
	require.NoError(t, err)
	assert.Equal(t, "x = 1", reply.Answer)

	// single-turn with the template and code concatenated
	require.Len(t, fake.contents, 1)
	prompt := fake.contents[0].Parts[0].Text
	assert.Contains(t, prompt, "refactor this")
	assert.Contains(t, prompt, "Code to Refactor:\nx=1")
}

func TestExplainCodeKeepsFullText(t *testing.T) {
	fake := &fakeCaller{resp: responseWithParts(&genai.Part{Text: "It assigns 1 to x.\n```\nx = 1\n```"})}
	svc := newTestLLM(fake)

	reply, err := svc.ExplainCode(context.Background(), "x=1", "explain this", "English")
	require.NoError(t, err)
	assert.Equal(t, "It assigns 1 to x.\n```\nx = 1\n```", reply.Answer)

	require.Len(t, fake.contents, 1)
	assert.Contains(t, fake.contents[0].Parts[0].Text, "Code to Explain:\nx=1")
}

func TestExtractCodeBlock(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"fenced with language", "prose\n```go\nfmt.Println()\n```\nmore prose", "fmt.Println()"},
		{"fenced without language", "Sure, here:\n```\nx = 1\n```", "x = 1"},
		{"first of several blocks", "```\nfirst\n```\n```\nsecond\n```", "first"},
		{"no newline after fence", "```first```", "first"},
		{"no fence", "  just code  ", "just code"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractCodeBlock(tc.in))
		})
	}
}
