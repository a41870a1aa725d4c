package assistant

import (
	"fmt"
	"strings"

	"github.com/zenvahq/zenva/plugin/ai/rag"
)

const systemPromptTemplate = `You are Zen, a calm productivity and wellness assistant.
You help the user manage tasks, run focus sessions, and keep voice notes.

Rules:
- Keep replies short and conversational; they may be spoken aloud.
- When the user asks you to do something actionable, call the matching tool.
- Call at most one tool per turn.
- If nothing actionable is requested, just answer.

Current date: %s`

const memoryContextHeader = `Relevant notes from the user's memory (most similar first):`

// buildSystemPrompt assembles the system prompt, appending retrieved memory
// context when there is any.
func buildSystemPrompt(currentDate string, memories []*rag.Match) string {
	prompt := fmt.Sprintf(systemPromptTemplate, currentDate)
	if len(memories) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n")
	b.WriteString(memoryContextHeader)
	for _, match := range memories {
		content := match.Note.Summary
		if content == "" {
			content = match.Note.Content
		}
		b.WriteString(fmt.Sprintf("\n- (%.0f%% match) %s", match.Score*100, content))
	}
	return b.String()
}

// Canned replies for degraded mode, used when no language model provider is
// configured. Keyed by keyword prefix matching on the lowercased utterance.
var degradedReplies = []struct {
	keywords []string
	reply    string
}{
	{[]string{"task", "todo", "remind"}, "I noted that down as a task for you."},
	{[]string{"focus", "pomodoro", "timer"}, "Starting a focus session. Stay with it."},
	{[]string{"note", "remember"}, "Saved. I'll keep that in your notes."},
	{[]string{"hello", "hi", "hey"}, "Hello. What would you like to get done?"},
}

const degradedDefaultReply = "I'm running without my language model right now, but I saved what you said."

// degradedReply returns a canned reply for an utterance.
func degradedReply(utterance string) string {
	lowered := strings.ToLower(utterance)
	for _, entry := range degradedReplies {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				return entry.reply
			}
		}
	}
	return degradedDefaultReply
}
