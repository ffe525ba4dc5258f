package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/devricklin/smart-listener/internal/biz/domain"
)

const (
	// DefaultPersona is used when no character name is configured
	DefaultPersona = "Bot"

	// DefaultSpeaker labels messages whose sender is unknown
	DefaultSpeaker = "User"
)

// DefaultJudgmentSystemPrompt asks the classifier for a bare yes/no.
// {character} is replaced with the persona name.
const DefaultJudgmentSystemPrompt = `You are an assistant that analyzes chat history. Given a sequence of messages, determine if the LAST message is relevant to the character '{character}', considering the preceding messages as context. Reply ONLY with 'yes' if it is relevant, and 'no' if it is not.`

const (
	historyHeader    = "Chat History:"
	emptyHistoryLine = "None (This is the start of a new potential conversation thread)."
	latestPrefix     = "Latest Message: "
	questionTemplate = "Considering the chat history above, is the LAST message relevant to the character '%s'? Reply ONLY with 'yes' or 'no'."
)

var (
	// "[Platform/Group]: " style prefix some adapters put in front of the text
	platformPrefixPattern = regexp.MustCompile(`^\[.*?/.*?\]:\s*`)
	// Unresolved mention placeholders (@_user_1, @_all) at the start of the text
	leadingMentionPattern = regexp.MustCompile(`^(?:@_(?:user_\d+|all)\s*)+`)
	lineBreakPattern      = regexp.MustCompile(`\s*[\r\n]+\s*`)
)

// NormalizeText strips text that would break the one-line-per-message prompt
// layout: the platform prefix, leading mention placeholders and line breaks.
func NormalizeText(text string) string {
	s := strings.TrimSpace(text)
	s = platformPrefixPattern.ReplaceAllString(s, "")
	s = leadingMentionPattern.ReplaceAllString(s, "")
	s = lineBreakPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SpeakerLabel returns the label used for a sender in history and prompts
func SpeakerLabel(sender string) string {
	sender = strings.TrimSpace(lineBreakPattern.ReplaceAllString(sender, " "))
	if sender == "" {
		return DefaultSpeaker
	}
	return sender
}

// PersonaName returns the configured persona or the default one
func PersonaName(persona string) string {
	if strings.TrimSpace(persona) == "" {
		return DefaultPersona
	}
	return strings.TrimSpace(persona)
}

// BuildJudgmentPrompt composes the classifier prompt from the system prompt,
// the group's history (oldest first) and the message under judgment.
// It is a pure function of its inputs.
func BuildJudgmentPrompt(systemPrompt, persona string, history []domain.HistoryEntry, msg domain.HistoryEntry) domain.JudgmentPrompt {
	persona = PersonaName(persona)
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultJudgmentSystemPrompt
	}

	var sb strings.Builder
	sb.WriteString(historyHeader)
	sb.WriteString("\n")
	if len(history) == 0 {
		sb.WriteString(emptyHistoryLine)
		sb.WriteString("\n")
	}
	for _, entry := range history {
		sb.WriteString(formatEntry(entry))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(latestPrefix)
	sb.WriteString(formatEntry(msg))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf(questionTemplate, persona))

	return domain.JudgmentPrompt{
		System: SubstitutePersona(systemPrompt, persona),
		User:   sb.String(),
	}
}

// SubstitutePersona replaces {character} and {{character}} placeholders
func SubstitutePersona(prompt, persona string) string {
	prompt = strings.ReplaceAll(prompt, "{{character}}", persona)
	return strings.ReplaceAll(prompt, "{character}", persona)
}

func formatEntry(entry domain.HistoryEntry) string {
	return domain.HistoryEntry{
		Speaker: SpeakerLabel(entry.Speaker),
		Text:    NormalizeText(entry.Text),
	}.Format()
}
