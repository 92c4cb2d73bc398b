package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/search"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const greeting = "How may I help you?"

// Message is one turn of a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationState is the explicit transcript threaded through the chat
// service; there is no hidden session state.
type ConversationState struct {
	Messages []Message
	// RelatedDocuments lists the distinct source paths cited by the latest
	// answer. It is replaced every turn, never accumulated.
	RelatedDocuments []string
}

// NewConversation starts a transcript with the assistant greeting
func NewConversation() *ConversationState {
	return &ConversationState{
		Messages: []Message{{Role: RoleAssistant, Content: greeting}},
	}
}

const rephrasePromptTemplate = `Given the following chat history, rephrase the last question to contain all the necessary information needed to answer it. Don't include unnecessary information. Phrase as a new question.
chat_history:
%s
question: %s`

const answerPromptTemplate = `You are an expert chat assistant that extracts information from the CONTEXT provided between <context> and </context> tags.
When answering the question contained between <question> and </question> tags be concise and do not hallucinate.
If you don't have the information just say so.
Only answer the question if you can extract it from the CONTEXT provided.

Do not mention the CONTEXT used in your answer.

<context>
%s
</context>
<question>
%s
</question>
Answer: `

// Service answers questions over the verified corpus with
// retrieval-augmented generation and one history-aware rephrasing step.
type Service struct {
	completer llm.Completer
	searcher  search.Searcher
	model     string
	limit     int
}

// NewService creates a chat service
func NewService(completer llm.Completer, searcher search.Searcher, model string, limit int) *Service {
	if limit <= 0 {
		limit = 3
	}
	return &Service{
		completer: completer,
		searcher:  searcher,
		model:     model,
		limit:     limit,
	}
}

// Ask answers one user question, appending both turns to the conversation.
// With prior turns present the question is first rephrased into a standalone
// one, and retrieval runs on the rephrased question.
func (s *Service) Ask(ctx context.Context, conv *ConversationState, question string) (string, error) {
	standalone := question
	if len(conv.Messages) > 0 {
		rephrased, err := s.rephrase(ctx, conv, question)
		if err != nil {
			return "", fmt.Errorf("rephrase question: %w", err)
		}
		standalone = rephrased
	}

	evidence, err := s.searcher.Search(ctx, standalone, s.limit)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	prompt := fmt.Sprintf(answerPromptTemplate, formatContext(evidence), standalone)
	answer, err := s.completer.Complete(ctx, s.model, prompt)
	if err != nil {
		return "", fmt.Errorf("answer completion: %w", err)
	}

	conv.Messages = append(conv.Messages,
		Message{Role: RoleUser, Content: question},
		Message{Role: RoleAssistant, Content: answer},
	)
	conv.RelatedDocuments = distinctSources(evidence)

	return answer, nil
}

func (s *Service) rephrase(ctx context.Context, conv *ConversationState, question string) (string, error) {
	prompt := fmt.Sprintf(rephrasePromptTemplate, formatHistory(conv.Messages), question)
	resp, err := s.completer.Complete(ctx, s.model, prompt)
	if err != nil {
		return "", err
	}
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return question, nil
	}
	return resp, nil
}

func formatHistory(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return b.String()
}

func formatContext(evidence []model.Evidence) string {
	if len(evidence) == 0 {
		return "(no context found)"
	}

	var b strings.Builder
	for _, e := range evidence {
		b.WriteString(e.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

func distinctSources(evidence []model.Evidence) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, e := range evidence {
		if e.SourcePath == "" || seen[e.SourcePath] {
			continue
		}
		seen[e.SourcePath] = true
		sources = append(sources, e.SourcePath)
	}
	return sources
}
