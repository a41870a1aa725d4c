package assistant

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	apperr "github.com/zenvahq/zenva/server/internal/errors"

	"github.com/zenvahq/zenva/plugin/ai"
	"github.com/zenvahq/zenva/plugin/ai/rag"
)

// ActionType names an action the assistant can take on the user's behalf.
type ActionType string

const (
	ActionCreateTask        ActionType = "create_task"
	ActionStartFocusSession ActionType = "start_focus_session"
	ActionSaveNote          ActionType = "save_note"
)

// CreateTaskArgs are the arguments of a create_task call.
type CreateTaskArgs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
}

// StartFocusSessionArgs are the arguments of a start_focus_session call.
type StartFocusSessionArgs struct {
	DurationMinutes int    `json:"duration_minutes"`
	Kind            string `json:"kind"`
}

// SaveNoteArgs are the arguments of a save_note call.
type SaveNoteArgs struct {
	Content  string `json:"content"`
	Category string `json:"category"`
}

// Action is one resolved tool call.
type Action struct {
	Type ActionType

	CreateTask        *CreateTaskArgs
	StartFocusSession *StartFocusSessionArgs
	SaveNote          *SaveNoteArgs
}

// Interpretation is the outcome of interpreting one utterance.
type Interpretation struct {
	Reply  string
	Action *Action
}

// toolDescriptors are the functions exposed to the model.
var toolDescriptors = []ai.ToolDescriptor{
	{
		Name:        string(ActionCreateTask),
		Description: "Create a task on the user's list. Use when the user asks to add, track, or be reminded of something to do.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string", "description": "Short task title"},
				"description": map[string]any{"type": "string", "description": "Optional details"},
				"priority":    map[string]any{"type": "string", "enum": []string{"LOW", "MEDIUM", "HIGH"}},
				"due_date":    map[string]any{"type": "string", "description": "Due date in RFC 3339, if the user named one"},
			},
			"required": []string{"title"},
		},
	},
	{
		Name:        string(ActionStartFocusSession),
		Description: "Start a focus timer. Use when the user wants to begin focused work or a break.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"duration_minutes": map[string]any{"type": "integer", "description": "Session length in minutes, defaults to 25"},
				"kind":             map[string]any{"type": "string", "enum": []string{"FOCUS", "SHORT_BREAK", "LONG_BREAK"}},
			},
		},
	},
	{
		Name:        string(ActionSaveNote),
		Description: "Save a note to the user's memory. Use when the user wants to remember or jot down something.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content":  map[string]any{"type": "string", "description": "The note text"},
				"category": map[string]any{"type": "string", "description": "Optional category such as idea, health, work"},
			},
			"required": []string{"content"},
		},
	},
}

// Interpreter turns an utterance plus memory context into a reply and at
// most one action.
type Interpreter struct {
	llm ai.LLMService
	now func() time.Time
}

// NewInterpreter creates an Interpreter.
func NewInterpreter(llm ai.LLMService) *Interpreter {
	return &Interpreter{
		llm: llm,
		now: time.Now,
	}
}

// Interpret sends the utterance with memory context and conversation history
// to the model. If the model requests several tool calls only the first is
// honored; the rest are logged and discarded. Unknown tool names are
// ignored. Malformed tool arguments degrade to a create_task carrying the
// raw utterance so the user's intent is never silently dropped.
func (i *Interpreter) Interpret(ctx context.Context, utterance string, memories []*rag.Match, history []ai.Message) (*Interpretation, error) {
	messages := []ai.Message{
		{Role: "system", Content: buildSystemPrompt(i.now().Format("2006-01-02"), memories)},
	}
	messages = append(messages, history...)
	messages = append(messages, ai.Message{Role: "user", Content: utterance})

	result, err := i.llm.ChatWithTools(ctx, messages, toolDescriptors)
	if err != nil {
		return nil, apperr.InterpreterUnavailable(err)
	}

	interpretation := &Interpretation{Reply: result.Content}

	for idx, call := range result.ToolCalls {
		if interpretation.Action != nil {
			slog.Warn("discarding extra tool call",
				slog.String("tool", call.Name),
				slog.Int("index", idx))
			continue
		}
		action := i.resolveToolCall(call, utterance)
		if action == nil {
			continue
		}
		interpretation.Action = action
	}

	if interpretation.Reply == "" && interpretation.Action != nil {
		interpretation.Reply = defaultActionReply(interpretation.Action)
	}

	return interpretation, nil
}

func (i *Interpreter) resolveToolCall(call ai.ToolCall, utterance string) *Action {
	switch ActionType(call.Name) {
	case ActionCreateTask:
		args := &CreateTaskArgs{}
		if err := json.Unmarshal([]byte(call.Arguments), args); err != nil || args.Title == "" {
			return fallbackAction(call.Name, utterance)
		}
		return &Action{Type: ActionCreateTask, CreateTask: args}

	case ActionStartFocusSession:
		args := &StartFocusSessionArgs{}
		if err := json.Unmarshal([]byte(call.Arguments), args); err != nil {
			return fallbackAction(call.Name, utterance)
		}
		return &Action{Type: ActionStartFocusSession, StartFocusSession: args}

	case ActionSaveNote:
		args := &SaveNoteArgs{}
		if err := json.Unmarshal([]byte(call.Arguments), args); err != nil || args.Content == "" {
			return fallbackAction(call.Name, utterance)
		}
		return &Action{Type: ActionSaveNote, SaveNote: args}

	default:
		slog.Warn("ignoring unknown tool call", slog.String("tool", call.Name))
		return nil
	}
}

// fallbackAction preserves the user's request as a task when the model
// produced arguments we cannot parse.
func fallbackAction(tool, utterance string) *Action {
	slog.Warn("malformed tool arguments, falling back to task capture",
		slog.String("code", string(apperr.ErrCodeInterpreterMalformedOutput)),
		slog.String("tool", tool))
	return &Action{
		Type:       ActionCreateTask,
		CreateTask: &CreateTaskArgs{Title: utterance},
	}
}

func defaultActionReply(action *Action) string {
	switch action.Type {
	case ActionCreateTask:
		return "Task added."
	case ActionStartFocusSession:
		return "Focus session started."
	case ActionSaveNote:
		return "Note saved."
	default:
		return "Done."
	}
}
