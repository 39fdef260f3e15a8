package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"

	"github.com/meetingcoach/meeting-coach/internal/transcribe"
)

// Analyzer consumes a finished transcript and produces coaching commentary.
// The transcription pipeline treats it as an opaque collaborator.
type Analyzer interface {
	Analyze(ctx context.Context, t *transcribe.Transcript, opts Options) (string, error)
	FollowUp(ctx context.Context, t *transcribe.Transcript, opts Options, initial string, history []Turn, question string) (string, error)
}

// Turn is one completed question/answer exchange in a follow-up conversation.
type Turn struct {
	Question string
	Answer   string
}

// ClaudeAnalyzer runs the coach prompts against Claude on Amazon Bedrock.
type ClaudeAnalyzer struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewClaudeAnalyzer builds an analyzer using the ambient AWS credential
// chain, the same one the staging store and job client use.
func NewClaudeAnalyzer(ctx context.Context, model string, maxTokens int) (*ClaudeAnalyzer, error) {
	if model == "" {
		return nil, fmt.Errorf("no analysis model configured")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	client := anthropic.NewClient(bedrock.WithLoadDefaultConfig(ctx))
	return &ClaudeAnalyzer{
		client:    client,
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
	}, nil
}

// Analyze runs the one-shot analysis prompt for the transcript.
func (a *ClaudeAnalyzer) Analyze(ctx context.Context, t *transcribe.Transcript, opts Options) (string, error) {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(InitialPrompt(t.Render(), opts))),
	}
	return a.complete(ctx, opts.Mode, messages)
}

// FollowUp answers one more question in an ongoing coaching conversation,
// replaying the initial analysis and prior turns as context.
func (a *ClaudeAnalyzer) FollowUp(ctx context.Context, t *transcribe.Transcript, opts Options, initial string, history []Turn, question string) (string, error) {
	chatOpts := opts
	chatOpts.Mode = ModeChat

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(InitialPrompt(t.Render(), chatOpts))),
		anthropic.NewAssistantMessage(anthropic.NewTextBlock(initial)),
	}
	for _, turn := range history {
		messages = append(messages,
			anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Question)),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Answer)),
		)
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(question)))

	return a.complete(ctx, ModeChat, messages)
}

func (a *ClaudeAnalyzer) complete(ctx context.Context, mode string, messages []anthropic.MessageParam) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: SystemPrompt(mode)}},
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := b.String()
	if text == "" {
		return "", fmt.Errorf("analysis returned no text")
	}
	log.Printf("Analysis completed (%d chars, model %s)", len(text), a.model)
	return text, nil
}
