package ai

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/chat"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/persona"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/corpus"
)

const emptyCorpus = "(no profile documents are loaded)"

// PromptBuilder turns a persona plus the context corpus into a system prompt.
type PromptBuilder struct {
	owner    string
	personas persona.Store
	corpus   corpus.Source
}

// NewPromptBuilder creates a PromptBuilder.
func NewPromptBuilder(owner string, personas persona.Store, source corpus.Source) *PromptBuilder {
	return &PromptBuilder{
		owner:    owner,
		personas: personas,
		corpus:   source,
	}
}

// BuildSystemPrompt renders the system prompt for personaID.
func (b *PromptBuilder) BuildSystemPrompt(personaID string) (string, error) {
	p, ok := b.personas.FindByID(personaID)
	if !ok {
		return "", fmt.Errorf("persona not found: %s", personaID)
	}

	background := emptyCorpus
	if b.corpus != nil {
		if text := strings.TrimSpace(b.corpus.Text()); text != "" {
			background = text
		}
	}

	owner := strings.NewReplacer(persona.OwnerPlaceholder, b.owner)
	p.Mission = owner.Replace(p.Mission)
	p.Tone = owner.Replace(p.Tone)
	p.Fallback = owner.Replace(p.Fallback)
	rules := make([]string, len(p.Instructions))
	for i, rule := range p.Instructions {
		rules[i] = owner.Replace(rule)
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "You are **%s**, an AI construct integrated into %s's portfolio.\n", p.Name, b.owner)
	fmt.Fprintf(&builder, "Your purpose: %s\n\n", p.Mission)

	builder.WriteString("**IDENTITY:**\n")
	fmt.Fprintf(&builder, "- Name: %s (%s)\n", p.Name, p.Title)
	fmt.Fprintf(&builder, "- Tone: %s\n\n", p.Tone)

	builder.WriteString("**CONTEXT (DATA_BANKS):**\n")
	builder.WriteString(background)
	builder.WriteString("\n\n**INSTRUCTIONS:**\n")
	for _, rule := range rules {
		builder.WriteString("- ")
		builder.WriteString(rule)
		builder.WriteByte('\n')
	}
	if p.Fallback != "" {
		fmt.Fprintf(&builder, "- **UNKNOWN DATA:** If data is missing, state: %q\n", p.Fallback)
	}

	return builder.String(), nil
}

// BuildAnalysisQuery wraps a job description for the analyst persona.
func BuildAnalysisQuery(jdText string) string {
	return "Analyze how well the candidate matches this job description.\n\n**JOB_DESCRIPTION:**\n" + strings.TrimSpace(jdText)
}

func buildHistoryMessages(history []chat.Exchange) []*schema.Message {
	if len(history) == 0 {
		return nil
	}

	messages := make([]*schema.Message, 0, len(history))
	for _, entry := range history {
		switch entry.Role {
		case chat.RoleUser:
			messages = append(messages, schema.UserMessage(entry.Text))
		case chat.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(entry.Text, nil))
		}
	}
	return messages
}
