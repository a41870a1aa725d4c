package assistant

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenvahq/zenva/plugin/ai"
	apperr "github.com/zenvahq/zenva/server/internal/errors"
)

type fakeLLM struct {
	result       *ai.ChatResult
	err          error
	lastMessages []ai.Message
	lastTools    []ai.ToolDescriptor
}

func (f *fakeLLM) Chat(_ context.Context, messages []ai.Message) (string, error) {
	f.lastMessages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.result.Content, nil
}

func (f *fakeLLM) ChatWithTools(_ context.Context, messages []ai.Message, tools []ai.ToolDescriptor) (*ai.ChatResult, error) {
	f.lastMessages = messages
	f.lastTools = tools
	return f.result, f.err
}

func TestInterpretPlainReply(t *testing.T) {
	llm := &fakeLLM{result: &ai.ChatResult{Content: "You have three tasks today."}}
	interpreter := NewInterpreter(llm)

	out, err := interpreter.Interpret(context.Background(), "what's on my plate?", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "You have three tasks today.", out.Reply)
	assert.Nil(t, out.Action)

	// All three tools are always offered.
	assert.Len(t, llm.lastTools, 3)
	require.NotEmpty(t, llm.lastMessages)
	assert.Equal(t, "system", llm.lastMessages[0].Role)
}

func TestInterpretCreateTask(t *testing.T) {
	llm := &fakeLLM{result: &ai.ChatResult{
		Content: "Adding that now.",
		ToolCalls: []ai.ToolCall{
			{Name: "create_task", Arguments: `{"title":"buy oat milk","priority":"LOW"}`},
		},
	}}
	interpreter := NewInterpreter(llm)

	out, err := interpreter.Interpret(context.Background(), "add buy oat milk to my list", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, out.Action)
	assert.Equal(t, ActionCreateTask, out.Action.Type)
	assert.Equal(t, "buy oat milk", out.Action.CreateTask.Title)
	assert.Equal(t, "LOW", out.Action.CreateTask.Priority)
}

func TestInterpretHonorsFirstToolCallOnly(t *testing.T) {
	llm := &fakeLLM{result: &ai.ChatResult{
		ToolCalls: []ai.ToolCall{
			{Name: "start_focus_session", Arguments: `{"duration_minutes":25}`},
			{Name: "create_task", Arguments: `{"title":"second call"}`},
		},
	}}
	interpreter := NewInterpreter(llm)

	out, err := interpreter.Interpret(context.Background(), "start a pomodoro", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, out.Action)
	assert.Equal(t, ActionStartFocusSession, out.Action.Type)
	assert.Equal(t, 25, out.Action.StartFocusSession.DurationMinutes)
}

func TestInterpretIgnoresUnknownTool(t *testing.T) {
	llm := &fakeLLM{result: &ai.ChatResult{
		Content: "Sure.",
		ToolCalls: []ai.ToolCall{
			{Name: "order_pizza", Arguments: `{}`},
		},
	}}
	interpreter := NewInterpreter(llm)

	out, err := interpreter.Interpret(context.Background(), "order a pizza", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out.Action)
	assert.Equal(t, "Sure.", out.Reply)
}

func TestInterpretMalformedArgumentsFallsBack(t *testing.T) {
	llm := &fakeLLM{result: &ai.ChatResult{
		ToolCalls: []ai.ToolCall{
			{Name: "save_note", Arguments: `{"content": `},
		},
	}}
	interpreter := NewInterpreter(llm)

	out, err := interpreter.Interpret(context.Background(), "remember that I prefer tea", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, out.Action)
	// The utterance survives as a task so the request is not lost.
	assert.Equal(t, ActionCreateTask, out.Action.Type)
	assert.Equal(t, "remember that I prefer tea", out.Action.CreateTask.Title)
}

func TestFocusSessionToolDurationOptional(t *testing.T) {
	var descriptor *ai.ToolDescriptor
	for i := range toolDescriptors {
		if toolDescriptors[i].Name == string(ActionStartFocusSession) {
			descriptor = &toolDescriptors[i]
		}
	}
	require.NotNil(t, descriptor)

	// The dispatcher defaults the duration, so the model is not forced to
	// invent one.
	_, hasRequired := descriptor.Parameters["required"]
	assert.False(t, hasRequired)

	llm := &fakeLLM{result: &ai.ChatResult{
		ToolCalls: []ai.ToolCall{
			{Name: "start_focus_session", Arguments: `{"kind":"FOCUS"}`},
		},
	}}
	out, err := NewInterpreter(llm).Interpret(context.Background(), "start a focus session", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, out.Action)
	assert.Equal(t, ActionStartFocusSession, out.Action.Type)
	assert.Zero(t, out.Action.StartFocusSession.DurationMinutes)
}

func TestInterpretProviderDown(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection refused")}
	interpreter := NewInterpreter(llm)

	_, err := interpreter.Interpret(context.Background(), "hello", nil, nil)
	require.Error(t, err)
	var assistantErr *apperr.AssistantError
	require.ErrorAs(t, err, &assistantErr)
	assert.Equal(t, apperr.ErrCodeInterpreterUnavailable, assistantErr.Code)
}

func TestInterpretDefaultReplyForSilentAction(t *testing.T) {
	llm := &fakeLLM{result: &ai.ChatResult{
		ToolCalls: []ai.ToolCall{
			{Name: "save_note", Arguments: `{"content":"drink water"}`},
		},
	}}
	interpreter := NewInterpreter(llm)

	out, err := interpreter.Interpret(context.Background(), "note: drink water", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Note saved.", out.Reply)
}
